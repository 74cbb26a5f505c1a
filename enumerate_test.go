package softvk

import (
	"slices"
	"testing"
)

func TestEnumerate(t *testing.T) {
	all := []int{10, 20, 30}

	tests := []struct {
		name      string
		count     uint32
		out       []int
		want      Result
		wantCount uint32
		wantOut   []int
	}{
		{"query", 0, nil, Success, 3, nil},
		{"exact", 3, make([]int, 3), Success, 3, []int{10, 20, 30}},
		{"short count", 2, make([]int, 3), Incomplete, 2, []int{10, 20, 0}},
		{"short slice", 3, make([]int, 1), Incomplete, 1, []int{10}},
		{"zero count", 0, make([]int, 3), Incomplete, 0, []int{0, 0, 0}},
		{"larger", 5, make([]int, 5), Success, 3, []int{10, 20, 30, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			count := tt.count
			if got := enumerate(&count, tt.out, all); got != tt.want {
				t.Errorf("enumerate() = %v, want %v", got, tt.want)
			}
			if count != tt.wantCount {
				t.Errorf("count = %d, want %d", count, tt.wantCount)
			}
			if !slices.Equal(tt.out, tt.wantOut) {
				t.Errorf("out = %v, want %v", tt.out, tt.wantOut)
			}
		})
	}
}

func TestEnumerateNilCountPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("enumerate(nil count) did not panic")
		}
	}()
	enumerate[int, uint32](nil, nil, []int{1})
}

func TestEnumerateInstanceExtensions(t *testing.T) {
	var n uint32
	mustSucceed(t, "EnumerateInstanceExtensionProperties(query)", EnumerateInstanceExtensionProperties("", &n, nil))
	if n != 2 {
		t.Fatalf("instance extension count = %d, want 2", n)
	}

	props := make([]ExtensionProperties, n)
	mustSucceed(t, "EnumerateInstanceExtensionProperties()", EnumerateInstanceExtensionProperties("", &n, props))
	names := []string{props[0].ExtensionName, props[1].ExtensionName}
	slices.Sort(names)
	if want := []string{"VK_EXT_headless_surface", "VK_KHR_surface"}; !slices.Equal(names, want) {
		t.Errorf("instance extensions = %v, want %v", names, want)
	}

	one := uint32(1)
	if got := EnumerateInstanceExtensionProperties("", &one, props[:1]); got != Incomplete {
		t.Errorf("EnumerateInstanceExtensionProperties(count 1) = %v, want VK_INCOMPLETE", got)
	}
	if got := EnumerateInstanceExtensionProperties("VK_LAYER_validation", &n, nil); got != ErrorLayerNotPresent {
		t.Errorf("EnumerateInstanceExtensionProperties(layer) = %v, want VK_ERROR_LAYER_NOT_PRESENT", got)
	}
}

func TestEnumerateDeviceLists(t *testing.T) {
	inst := newInstance(t)
	p := firstPhysicalDevice(t, inst)

	var n uint32
	mustSucceed(t, "EnumerateDeviceExtensionProperties()", EnumerateDeviceExtensionProperties(p, "", &n, nil))
	if n != 1 {
		t.Errorf("device extension count = %d, want 1", n)
	}

	var families uint32
	GetPhysicalDeviceQueueFamilyProperties(p, &families, nil)
	if families == 0 {
		t.Fatal("no queue families")
	}
	props := make([]QueueFamilyProperties, families)
	GetPhysicalDeviceQueueFamilyProperties(p, &families, props)
	if props[0].Count == 0 {
		t.Errorf("family 0 Count = 0")
	}

	var devices uint32
	mustSucceed(t, "EnumeratePhysicalDevices(query)", EnumeratePhysicalDevices(inst, &devices, nil))
	if devices != 1 {
		t.Errorf("physical device count = %d, want 1", devices)
	}
}
