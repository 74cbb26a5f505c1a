package main

import (
	"fmt"
	"image/png"
	"os"

	"github.com/gogpu/gputypes"
	"github.com/spf13/cobra"

	"github.com/gogpu/softvk"
	"github.com/gogpu/softvk/syncobj"
	"github.com/gogpu/softvk/wsi"
)

type presentOptions struct {
	width, height uint32
	color         []float32
	output        string
}

func newPresentCommand() *cobra.Command {
	opts := &presentOptions{}
	cmd := &cobra.Command{
		Use:   "present",
		Short: "Clear a swapchain image, present it headlessly and save the frame",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(opts.color) != 4 {
				return fmt.Errorf("--color needs 4 components, got %d", len(opts.color))
			}
			if err := opts.run(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%dx%d)\n", opts.output, opts.width, opts.height)
			return nil
		},
	}
	cmd.Flags().Uint32Var(&opts.width, "width", 64, "frame width")
	cmd.Flags().Uint32Var(&opts.height, "height", 64, "frame height")
	cmd.Flags().Float32SliceVar(&opts.color, "color", []float32{0.2, 0.4, 0.8, 1}, "clear color as r,g,b,a")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "frame.png", "PNG output file")
	return cmd
}

func (o *presentOptions) run() error {
	var inst softvk.Instance
	if err := check("create instance", softvk.CreateInstance(&softvk.InstanceCreateInfo{
		ApplicationInfo:       &softvk.ApplicationInfo{ApplicationName: "softvkinfo"},
		EnabledExtensionNames: []string{"VK_KHR_surface", "VK_EXT_headless_surface"},
	}, nil, &inst)); err != nil {
		return err
	}
	defer softvk.DestroyInstance(inst, nil)

	dev, q, err := openDevice(inst, "VK_KHR_swapchain")
	if err != nil {
		return err
	}
	defer softvk.DestroyDevice(dev, nil)

	var surface softvk.SurfaceKHR
	if err := check("create surface", softvk.CreateHeadlessSurfaceEXT(inst,
		&softvk.HeadlessSurfaceCreateInfoEXT{Width: o.width, Height: o.height}, nil, &surface)); err != nil {
		return err
	}
	defer softvk.DestroySurfaceKHR(inst, surface, nil)

	var sc softvk.SwapchainKHR
	if err := check("create swapchain", softvk.CreateSwapchainKHR(dev, &softvk.SwapchainCreateInfoKHR{
		Surface:          surface,
		MinImageCount:    2,
		ImageFormat:      gputypes.TextureFormatBGRA8Unorm,
		ImageColorSpace:  wsi.ColorSpaceSRGBNonlinear,
		ImageExtent:      softvk.Extent2D{Width: o.width, Height: o.height},
		ImageArrayLayers: 1,
		ImageUsage:       gputypes.TextureUsageCopyDst,
		PresentMode:      wsi.PresentModeFIFO,
	}, nil, &sc)); err != nil {
		return err
	}
	defer softvk.DestroySwapchainKHR(dev, sc, nil)

	var n uint32
	softvk.GetSwapchainImagesKHR(dev, sc, &n, nil)
	images := make([]softvk.Image, n)
	softvk.GetSwapchainImagesKHR(dev, sc, &n, images)

	var acquired, rendered softvk.Semaphore
	softvk.CreateSemaphore(dev, &softvk.SemaphoreCreateInfo{}, nil, &acquired)
	defer softvk.DestroySemaphore(dev, acquired, nil)
	softvk.CreateSemaphore(dev, &softvk.SemaphoreCreateInfo{}, nil, &rendered)
	defer softvk.DestroySemaphore(dev, rendered, nil)

	var index uint32
	if err := check("acquire", softvk.AcquireNextImageKHR(dev, sc, syncobj.Infinite, acquired, 0, &index)); err != nil {
		return err
	}

	var pool softvk.CommandPool
	if err := check("create command pool", softvk.CreateCommandPool(dev, &softvk.CommandPoolCreateInfo{}, nil, &pool)); err != nil {
		return err
	}
	defer softvk.DestroyCommandPool(dev, pool, nil)
	cbs := make([]softvk.CommandBuffer, 1)
	softvk.AllocateCommandBuffers(dev, &softvk.CommandBufferAllocateInfo{CommandPool: pool, CommandBufferCount: 1}, cbs)

	color := softvk.ClearColorValue{Float32: [4]float32(o.color)}
	softvk.BeginCommandBuffer(cbs[0], &softvk.CommandBufferBeginInfo{})
	softvk.CmdClearColorImage(cbs[0], images[index], softvk.ImageLayoutTransferDstOptimal, &color, nil)
	if err := check("end command buffer", softvk.EndCommandBuffer(cbs[0])); err != nil {
		return err
	}
	if err := check("submit", softvk.QueueSubmit(q, []softvk.SubmitInfo{{
		WaitSemaphores:   []softvk.Semaphore{acquired},
		WaitDstStageMask: []softvk.PipelineStageFlags{softvk.PipelineStageTransfer},
		CommandBuffers:   cbs,
		SignalSemaphores: []softvk.Semaphore{rendered},
	}}, 0)); err != nil {
		return err
	}
	if err := check("present", softvk.QueuePresentKHR(q, &softvk.PresentInfoKHR{
		WaitSemaphores: []softvk.Semaphore{rendered},
		Swapchains:     []softvk.SwapchainKHR{sc},
		ImageIndices:   []uint32{index},
	})); err != nil {
		return err
	}
	if err := check("wait idle", softvk.QueueWaitIdle(q)); err != nil {
		return err
	}

	frame := softvk.HeadlessSurface(surface).LastFrame()
	if frame == nil {
		return fmt.Errorf("no frame was presented")
	}
	f, err := os.Create(o.output)
	if err != nil {
		return err
	}
	if err := png.Encode(f, frame); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
