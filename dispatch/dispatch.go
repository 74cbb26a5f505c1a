// Package dispatch resolves API entry point names to implementations.
//
// A Resolver is built once from a static table of entries and is read-only
// afterwards, so concurrent Resolve calls need no locking. Visibility of an
// entry depends on the lookup scope and, for extension entry points, on the
// capability set the lookup is made with:
//
//   - ScopeLibrary sees only entries that need no instance or device.
//   - ScopeInstance sees every core entry point, including device-level
//     ones, and every extension entry point whose extension is enabled on
//     the instance or is a device extension.
//   - ScopeDevice is like ScopeInstance but uses only the device's own
//     enabled extensions.
package dispatch

import (
	"errors"
	"fmt"
	"sort"

	"github.com/gogpu/softvk/extension"
)

// ErrDuplicate is returned by New when two entries share a name.
var ErrDuplicate = errors.New("dispatch: duplicate entry point")

// Scope is the context a lookup is made in.
type Scope uint8

const (
	// ScopeLibrary is a lookup without an instance.
	ScopeLibrary Scope = iota
	// ScopeInstance is a lookup through an instance.
	ScopeInstance
	// ScopeDevice is a lookup through a device.
	ScopeDevice
)

// String returns the scope name.
func (s Scope) String() string {
	switch s {
	case ScopeLibrary:
		return "library"
	case ScopeInstance:
		return "instance"
	case ScopeDevice:
		return "device"
	}
	return "unknown"
}

// Visibility is the narrowest scope an entry point is visible from.
type Visibility uint8

const (
	// Library entries are visible from every scope.
	Library Visibility = iota
	// Instance entries are visible from instance and device scope.
	Instance
)

// Entry is one row of the dispatch table.
type Entry struct {
	// Name is the API name, e.g. "vkCreateBuffer".
	Name string

	// Visibility selects the scopes the entry is visible from.
	Visibility Visibility

	// Requires is the extension gating the entry, or extension.None.
	Requires extension.Extension

	// InLoader marks entry points the platform loader implements itself.
	// Requesting one where it would be visible is a contract violation.
	InLoader bool

	// Proc is the implementation. It is nil for InLoader entries.
	Proc any
}

func (e *Entry) visible(scope Scope, caps extension.Set) bool {
	if e.Visibility == Instance && scope == ScopeLibrary {
		return false
	}
	if e.Requires != extension.None {
		return scope != ScopeLibrary && caps.Has(e.Requires)
	}
	return true
}

// Resolver maps entry point names to implementations.
type Resolver struct {
	entries          map[string]*Entry
	deviceExtensions extension.Set
}

// New builds a resolver from entries.
func New(entries []Entry) (*Resolver, error) {
	r := &Resolver{
		entries:          make(map[string]*Entry, len(entries)),
		deviceExtensions: extension.ScopeSet(extension.ScopeDevice),
	}
	for i := range entries {
		e := &entries[i]
		if _, dup := r.entries[e.Name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicate, e.Name)
		}
		if !e.InLoader && e.Proc == nil {
			return nil, fmt.Errorf("dispatch: entry %s has no implementation", e.Name)
		}
		r.entries[e.Name] = e
	}
	return r, nil
}

// Resolve returns the implementation of name as seen from scope with the
// given capability set, or nil when the entry point does not exist or is
// not visible.
func (r *Resolver) Resolve(name string, scope Scope, caps extension.Set) any {
	e, ok := r.entries[name]
	if !ok {
		return nil
	}
	switch scope {
	case ScopeLibrary:
		caps = 0
	case ScopeInstance:
		caps = caps.Union(r.deviceExtensions)
	}
	if !e.visible(scope, caps) {
		return nil
	}
	if e.InLoader {
		panic(fmt.Sprintf("dispatch: %s is implemented by the loader and must not reach the runtime", name))
	}
	return e.Proc
}

// Names returns every entry point name visible from scope with caps,
// sorted alphabetically. Loader-implemented entries are skipped.
func (r *Resolver) Names(scope Scope, caps extension.Set) []string {
	switch scope {
	case ScopeLibrary:
		caps = 0
	case ScopeInstance:
		caps = caps.Union(r.deviceExtensions)
	}
	var names []string
	for name, e := range r.entries {
		if !e.InLoader && e.visible(scope, caps) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Len returns the number of entries in the table.
func (r *Resolver) Len() int {
	return len(r.entries)
}
