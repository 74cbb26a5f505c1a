package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gogpu/softvk"
)

func newExtensionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "extensions",
		Short: "List instance and device extensions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var n uint32
			if err := check("enumerate instance extensions", softvk.EnumerateInstanceExtensionProperties("", &n, nil)); err != nil {
				return err
			}
			instExts := make([]softvk.ExtensionProperties, n)
			softvk.EnumerateInstanceExtensionProperties("", &n, instExts)

			var inst softvk.Instance
			if err := check("create instance", softvk.CreateInstance(&softvk.InstanceCreateInfo{}, nil, &inst)); err != nil {
				return err
			}
			defer softvk.DestroyInstance(inst, nil)
			phys, err := firstPhysicalDevice(inst)
			if err != nil {
				return err
			}
			softvk.EnumerateDeviceExtensionProperties(phys, "", &n, nil)
			devExts := make([]softvk.ExtensionProperties, n)
			softvk.EnumerateDeviceExtensionProperties(phys, "", &n, devExts)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SCOPE\tNAME\tVERSION")
			for _, e := range instExts {
				fmt.Fprintf(w, "instance\t%s\t%d\n", e.ExtensionName, e.SpecVersion)
			}
			for _, e := range devExts {
				fmt.Fprintf(w, "device\t%s\t%d\n", e.ExtensionName, e.SpecVersion)
			}
			return w.Flush()
		},
	}
}

func firstPhysicalDevice(inst softvk.Instance) (softvk.PhysicalDevice, error) {
	var n uint32
	if err := check("enumerate physical devices", softvk.EnumeratePhysicalDevices(inst, &n, nil)); err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, fmt.Errorf("no physical devices")
	}
	out := make([]softvk.PhysicalDevice, 1)
	n = 1
	softvk.EnumeratePhysicalDevices(inst, &n, out)
	return out[0], nil
}
