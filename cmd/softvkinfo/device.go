package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/softvk"
	"github.com/gogpu/softvk/device"
)

func newDeviceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "device",
		Short: "Show the physical device, its queues and memory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var inst softvk.Instance
			if err := check("create instance", softvk.CreateInstance(&softvk.InstanceCreateInfo{}, nil, &inst)); err != nil {
				return err
			}
			defer softvk.DestroyInstance(inst, nil)
			phys, err := firstPhysicalDevice(inst)
			if err != nil {
				return err
			}
			printDevice(cmd.OutOrStdout(), phys)
			return nil
		},
	}
}

func printDevice(out io.Writer, phys softvk.PhysicalDevice) {
	p := message.NewPrinter(language.English)

	var props softvk.PhysicalDeviceProperties
	softvk.GetPhysicalDeviceProperties(phys, &props)
	p.Fprintf(out, "%s (%v)\n", props.Name, props.Type)
	p.Fprintf(out, "  api version   %d.%d.%d\n", props.APIVersion>>22, props.APIVersion>>12&0x3ff, props.APIVersion&0xfff)
	p.Fprintf(out, "  vendor/device %#04x/%#04x\n", props.VendorID, props.DeviceID)
	p.Fprintf(out, "  max texture   %d\n", props.Limits.MaxTextureDimension2D)

	var n uint32
	softvk.GetPhysicalDeviceQueueFamilyProperties(phys, &n, nil)
	families := make([]softvk.QueueFamilyProperties, n)
	softvk.GetPhysicalDeviceQueueFamilyProperties(phys, &n, families)
	for i, f := range families {
		p.Fprintf(out, "  queue family %d: %d queue(s), %s\n", i, f.Count, queueFlags(f.Flags))
	}

	var mem softvk.PhysicalDeviceMemoryProperties
	softvk.GetPhysicalDeviceMemoryProperties(phys, &mem)
	for i, h := range mem.Heaps {
		p.Fprintf(out, "  heap %d: %d bytes\n", i, h.Size)
	}
	for i, t := range mem.Types {
		p.Fprintf(out, "  memory type %d: heap %d, flags %#x\n", i, t.Heap, uint32(t.Flags))
	}
}

func queueFlags(f device.QueueFlags) string {
	s := ""
	for _, fl := range []struct {
		bit  device.QueueFlags
		name string
	}{
		{device.QueueGraphics, "graphics"},
		{device.QueueCompute, "compute"},
		{device.QueueTransfer, "transfer"},
	} {
		if f&fl.bit == 0 {
			continue
		}
		if s != "" {
			s += "|"
		}
		s += fl.name
	}
	return fmt.Sprintf("[%s]", s)
}
