package device

import (
	"github.com/gogpu/softvk/extension"
)

// Instance is the root object tying physical devices to an enabled
// instance extension set.
type Instance struct {
	appName    string
	apiVersion uint32
	exts       extension.Set
	physical   []*Physical
}

// Physical is a physical device exposed by an instance.
type Physical struct {
	instance *Instance
	caps     Capabilities
}

// NewInstance creates an instance exposing one physical device per
// capability table.
func NewInstance(appName string, apiVersion uint32, exts extension.Set, caps ...Capabilities) *Instance {
	inst := &Instance{appName: appName, apiVersion: apiVersion, exts: exts}
	for _, c := range caps {
		inst.physical = append(inst.physical, &Physical{instance: inst, caps: c})
	}
	return inst
}

// AppName returns the application name given at creation.
func (i *Instance) AppName() string { return i.appName }

// APIVersion returns the API version the application requested.
func (i *Instance) APIVersion() uint32 { return i.apiVersion }

// Extensions returns the enabled instance extensions.
func (i *Instance) Extensions() extension.Set { return i.exts }

// PhysicalDevices returns the physical devices of the instance.
func (i *Instance) PhysicalDevices() []*Physical {
	return append([]*Physical(nil), i.physical...)
}

// Instance returns the owning instance.
func (p *Physical) Instance() *Instance { return p.instance }

// Capabilities returns the capability table.
func (p *Physical) Capabilities() Capabilities { return p.caps }
