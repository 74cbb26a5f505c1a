package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gogpu/softvk"
	"github.com/gogpu/softvk/pipeline"
)

func newCompileCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "compile <shader.wgsl>",
		Short: "Compile WGSL to SPIR-V and load it as a shader module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			code, err := pipeline.CompileWGSL(string(src))
			if err != nil {
				return fmt.Errorf("compile %s: %w", args[0], err)
			}

			var inst softvk.Instance
			if err := check("create instance", softvk.CreateInstance(&softvk.InstanceCreateInfo{}, nil, &inst)); err != nil {
				return err
			}
			defer softvk.DestroyInstance(inst, nil)
			dev, _, err := openDevice(inst)
			if err != nil {
				return err
			}
			defer softvk.DestroyDevice(dev, nil)

			var module softvk.ShaderModule
			if err := check("create shader module", softvk.CreateShaderModule(dev, &softvk.ShaderModuleCreateInfo{Code: code}, nil, &module)); err != nil {
				return err
			}
			softvk.DestroyShaderModule(dev, module, nil)

			if output == "" {
				output = strings.TrimSuffix(args[0], ".wgsl") + ".spv"
			}
			if err := os.WriteFile(output, code, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d bytes of SPIR-V\n", output, len(code))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "SPIR-V output file (default <input>.spv)")
	return cmd
}

// openDevice creates a device with one queue, enabling exts.
func openDevice(inst softvk.Instance, exts ...string) (softvk.Device, softvk.Queue, error) {
	phys, err := firstPhysicalDevice(inst)
	if err != nil {
		return 0, 0, err
	}
	var dev softvk.Device
	if err := check("create device", softvk.CreateDevice(phys, &softvk.DeviceCreateInfo{
		QueueCreateInfos:      []softvk.DeviceQueueCreateInfo{{QueueFamilyIndex: 0, QueuePriorities: []float32{1}}},
		EnabledExtensionNames: exts,
	}, nil, &dev)); err != nil {
		return 0, 0, err
	}
	var q softvk.Queue
	softvk.GetDeviceQueue(dev, 0, 0, &q)
	return dev, q, nil
}
