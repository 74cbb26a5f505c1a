package extension

import (
	"errors"
	"testing"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name string
		want Extension
		ok   bool
	}{
		{"VK_KHR_surface", KHRSurface, true},
		{"VK_EXT_headless_surface", EXTHeadlessSurface, true},
		{"VK_KHR_swapchain", KHRSwapchain, true},
		{"VK_KHR_xcb_surface", None, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Lookup(tt.name)
			if got != tt.want || ok != tt.ok {
				t.Errorf("Lookup(%q) = %v, %v, want %v, %v", tt.name, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestSet(t *testing.T) {
	s := SetOf(KHRSurface, None, KHRSwapchain)
	if !s.Has(KHRSurface) || !s.Has(KHRSwapchain) {
		t.Errorf("SetOf missing members: %v", s)
	}
	if s.Has(EXTHeadlessSurface) {
		t.Error("Has(EXTHeadlessSurface) = true, want false")
	}
	if s.Has(None) {
		t.Error("Has(None) = true, want false")
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
	if got := s.String(); got != "{VK_KHR_surface, VK_KHR_swapchain}" {
		t.Errorf("String() = %q", got)
	}
}

func TestScopeSet(t *testing.T) {
	dev := ScopeSet(ScopeDevice)
	if !dev.Has(KHRSwapchain) || dev.Has(KHRSurface) {
		t.Errorf("ScopeSet(ScopeDevice) = %v", dev)
	}
	if n := len(ForScope(ScopeInstance)); n != 2 {
		t.Errorf("len(ForScope(ScopeInstance)) = %d, want 2", n)
	}
}

func TestNegotiate(t *testing.T) {
	tests := []struct {
		name    string
		names   []string
		scope   Scope
		parent  Set
		want    Set
		wantErr error
	}{
		{
			name:  "empty",
			scope: ScopeInstance,
		},
		{
			name:  "instance surface",
			names: []string{"VK_KHR_surface", "VK_EXT_headless_surface"},
			scope: ScopeInstance,
			want:  SetOf(KHRSurface, EXTHeadlessSurface),
		},
		{
			name:    "headless without surface",
			names:   []string{"VK_EXT_headless_surface"},
			scope:   ScopeInstance,
			wantErr: ErrMissingDependency,
		},
		{
			name:   "swapchain with instance surface",
			names:  []string{"VK_KHR_swapchain"},
			scope:  ScopeDevice,
			parent: SetOf(KHRSurface),
			want:   SetOf(KHRSwapchain),
		},
		{
			name:    "swapchain without instance surface",
			names:   []string{"VK_KHR_swapchain"},
			scope:   ScopeDevice,
			wantErr: ErrMissingDependency,
		},
		{
			name:    "device extension on instance",
			names:   []string{"VK_KHR_swapchain"},
			scope:   ScopeInstance,
			wantErr: ErrWrongScope,
		},
		{
			name:    "unknown",
			names:   []string{"VK_KHR_display"},
			scope:   ScopeInstance,
			wantErr: ErrNotPresent,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Negotiate(tt.names, tt.scope, tt.parent)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Negotiate() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Negotiate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPropertiesPanicsOnNone(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("None.Properties() did not panic")
		}
	}()
	_ = None.Properties()
}
