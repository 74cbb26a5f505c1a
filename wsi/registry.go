package wsi

import (
	"fmt"
	"slices"
	"sync"
)

var (
	registryMu sync.RWMutex
	platforms  = make(map[Platform]WSI)
)

// Register makes a platform available. It is typically called from the
// platform package's init:
//
//	func init() {
//	    wsi.Register(wsi.PlatformHeadless, New())
//	}
//
// Register panics if w is nil or the platform is already registered.
func Register(p Platform, w WSI) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if w == nil {
		panic("wsi: Register WSI is nil")
	}
	if _, dup := platforms[p]; dup {
		panic("wsi: Register called twice for " + p.String())
	}
	platforms[p] = w
}

// Unregister removes a platform. It is a no-op for unknown platforms.
func Unregister(p Platform) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(platforms, p)
}

// Find returns the registered platform implementation.
func Find(p Platform) (WSI, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	w, ok := platforms[p]
	return w, ok
}

// For returns the implementation of the platform that created s.
func For(s Surface) (WSI, error) {
	w, ok := Find(s.Platform())
	if !ok {
		return nil, fmt.Errorf("%w: %v (forgotten import?)", ErrUnknownPlatform, s.Platform())
	}
	return w, nil
}

// Platforms returns the registered platforms in ascending order.
func Platforms() []Platform {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]Platform, 0, len(platforms))
	for p := range platforms {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}
