// Package extension describes the API extensions known to the runtime and
// the immutable capability sets enabled on instances and devices.
package extension

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"
)

// Errors returned while negotiating extensions.
var (
	// ErrNotPresent is returned for an extension name the runtime does not know.
	ErrNotPresent = errors.New("extension: not present")

	// ErrWrongScope is returned when an instance extension is requested for a
	// device or vice versa.
	ErrWrongScope = errors.New("extension: wrong scope")

	// ErrMissingDependency is returned when an extension is enabled without
	// the extensions it depends on.
	ErrMissingDependency = errors.New("extension: missing dependency")
)

// Scope is the object level an extension is enabled on.
type Scope uint8

const (
	// ScopeInstance extensions are enabled at instance creation.
	ScopeInstance Scope = iota
	// ScopeDevice extensions are enabled at device creation.
	ScopeDevice
)

// String returns the scope name.
func (s Scope) String() string {
	switch s {
	case ScopeInstance:
		return "instance"
	case ScopeDevice:
		return "device"
	}
	return "unknown"
}

// Extension identifies a supported extension.
type Extension int8

// Supported extensions.
const (
	// None means "no extension required".
	None Extension = -1

	KHRSurface Extension = iota - 1
	EXTHeadlessSurface
	KHRSwapchain

	count
)

// Properties describes one extension.
type Properties struct {
	Name        string
	SpecVersion uint32
	Scope       Scope
	Requires    []Extension
}

var table = [count]Properties{
	KHRSurface: {
		Name:        "VK_KHR_surface",
		SpecVersion: 25,
		Scope:       ScopeInstance,
	},
	EXTHeadlessSurface: {
		Name:        "VK_EXT_headless_surface",
		SpecVersion: 1,
		Scope:       ScopeInstance,
		Requires:    []Extension{KHRSurface},
	},
	KHRSwapchain: {
		Name:        "VK_KHR_swapchain",
		SpecVersion: 70,
		Scope:       ScopeDevice,
		Requires:    []Extension{KHRSurface},
	},
}

// All returns every supported extension in declaration order.
func All() []Extension {
	out := make([]Extension, 0, count)
	for e := range count {
		out = append(out, e)
	}
	return out
}

// Valid reports whether e names a supported extension.
func (e Extension) Valid() bool { return e >= 0 && e < count }

// Properties returns the static description of e.
// It panics if e is not valid.
func (e Extension) Properties() Properties {
	if !e.Valid() {
		panic(fmt.Sprintf("extension: invalid extension %d", e))
	}
	return table[e]
}

// Name returns the API name of e, or "none".
func (e Extension) Name() string {
	if !e.Valid() {
		return "none"
	}
	return table[e].Name
}

// String implements fmt.Stringer.
func (e Extension) String() string { return e.Name() }

// Scope returns the level e is enabled on.
func (e Extension) Scope() Scope { return e.Properties().Scope }

// Lookup finds an extension by its API name.
func Lookup(name string) (Extension, bool) {
	for e := range count {
		if table[e].Name == name {
			return e, true
		}
	}
	return None, false
}

// ForScope returns the properties of every extension of the given scope.
func ForScope(s Scope) []Properties {
	var out []Properties
	for e := range count {
		if table[e].Scope == s {
			out = append(out, table[e])
		}
	}
	return out
}

// Set is an immutable set of extensions.
// The zero value is the empty set.
type Set uint64

// SetOf builds a set from the given extensions. None is ignored.
func SetOf(exts ...Extension) Set {
	var s Set
	for _, e := range exts {
		if e.Valid() {
			s |= 1 << uint(e)
		}
	}
	return s
}

// ScopeSet returns the set of every extension of the given scope.
func ScopeSet(scope Scope) Set {
	var s Set
	for e := range count {
		if table[e].Scope == scope {
			s |= 1 << uint(e)
		}
	}
	return s
}

// Has reports whether e is in the set. None is never in a set.
func (s Set) Has(e Extension) bool {
	return e.Valid() && s&(1<<uint(e)) != 0
}

// Union returns the union of s and o.
func (s Set) Union(o Set) Set { return s | o }

// Len returns the number of extensions in the set.
func (s Set) Len() int { return bits.OnesCount64(uint64(s)) }

// Extensions returns the members of the set in declaration order.
func (s Set) Extensions() []Extension {
	var out []Extension
	for e := range count {
		if s.Has(e) {
			out = append(out, e)
		}
	}
	return out
}

// String returns the comma separated extension names.
func (s Set) String() string {
	names := make([]string, 0, s.Len())
	for _, e := range s.Extensions() {
		names = append(names, e.Name())
	}
	return "{" + strings.Join(names, ", ") + "}"
}

// Negotiate turns the requested extension names into a set for the given
// scope. Dependencies must be satisfied either by the requested names or by
// parent, the set enabled on the owning instance (empty for instances).
func Negotiate(names []string, scope Scope, parent Set) (Set, error) {
	var s Set
	for _, name := range names {
		e, ok := Lookup(name)
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrNotPresent, name)
		}
		if table[e].Scope != scope {
			return 0, fmt.Errorf("%w: %s is a %s extension", ErrWrongScope, name, table[e].Scope)
		}
		s |= 1 << uint(e)
	}
	available := s | parent
	for _, e := range s.Extensions() {
		for _, dep := range table[e].Requires {
			if !available.Has(dep) {
				return 0, fmt.Errorf("%w: %s requires %s", ErrMissingDependency, e.Name(), dep.Name())
			}
		}
	}
	return s, nil
}
