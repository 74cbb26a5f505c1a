package headless

import (
	"fmt"
	"slices"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/softvk/resource"
	"github.com/gogpu/softvk/wsi"
)

const (
	maxImageCount = 8
	maxDimension  = 16384
)

var formats = []wsi.SurfaceFormat{
	{Format: gputypes.TextureFormatBGRA8Unorm, ColorSpace: wsi.ColorSpaceSRGBNonlinear},
	{Format: gputypes.TextureFormatBGRA8UnormSrgb, ColorSpace: wsi.ColorSpaceSRGBNonlinear},
	{Format: gputypes.TextureFormatRGBA8Unorm, ColorSpace: wsi.ColorSpaceSRGBNonlinear},
	{Format: gputypes.TextureFormatRGBA8UnormSrgb, ColorSpace: wsi.ColorSpaceSRGBNonlinear},
}

var presentModes = []wsi.PresentMode{wsi.PresentModeFIFO, wsi.PresentModeImmediate, wsi.PresentModeMailbox}

const supportedUsage = gputypes.TextureUsageCopySrc | gputypes.TextureUsageCopyDst |
	gputypes.TextureUsageTextureBinding | gputypes.TextureUsageRenderAttachment

// WSI implements wsi.WSI for headless surfaces.
type WSI struct{}

// New returns the headless platform.
func New() *WSI { return &WSI{} }

func surfaceOf(s wsi.Surface) (*Surface, error) {
	hs, ok := s.(*Surface)
	if !ok {
		return nil, fmt.Errorf("%w: %T is not a headless surface", wsi.ErrUnknownPlatform, s)
	}
	if hs.Lost() {
		return nil, wsi.ErrSurfaceLost
	}
	return hs, nil
}

// SurfaceSupport reports that every queue family can present.
func (*WSI) SurfaceSupport(s wsi.Surface, _ uint32) (bool, error) {
	if _, err := surfaceOf(s); err != nil {
		return false, err
	}
	return true, nil
}

// SurfaceCapabilities describes the surface.
func (*WSI) SurfaceCapabilities(s wsi.Surface) (wsi.Capabilities, error) {
	hs, err := surfaceOf(s)
	if err != nil {
		return wsi.Capabilities{}, err
	}
	hs.mu.Lock()
	defer hs.mu.Unlock()
	current := hs.extent
	if current == (wsi.Extent{}) {
		current = wsi.Extent{Width: wsi.UndefinedExtent, Height: wsi.UndefinedExtent}
	}
	return wsi.Capabilities{
		MinImageCount:  hs.minCount,
		MaxImageCount:  max(maxImageCount, hs.minCount),
		CurrentExtent:  current,
		MinImageExtent: wsi.Extent{Width: 1, Height: 1},
		MaxImageExtent: wsi.Extent{Width: maxDimension, Height: maxDimension},
		MaxArrayLayers: 1,
		SupportedUsage: supportedUsage,
	}, nil
}

// SurfaceFormats lists the presentable formats.
func (*WSI) SurfaceFormats(s wsi.Surface) ([]wsi.SurfaceFormat, error) {
	if _, err := surfaceOf(s); err != nil {
		return nil, err
	}
	return slices.Clone(formats), nil
}

// PresentModes lists the supported present modes.
func (*WSI) PresentModes(s wsi.Surface) ([]wsi.PresentMode, error) {
	if _, err := surfaceOf(s); err != nil {
		return nil, err
	}
	return slices.Clone(presentModes), nil
}

// CreateSwapchain allocates the swapchain images and retires the old
// swapchain, if any.
func (w *WSI) CreateSwapchain(dev wsi.Device, desc *wsi.SwapchainDesc) (wsi.Swapchain, error) {
	hs, err := surfaceOf(desc.Surface)
	if err != nil {
		return nil, err
	}
	caps, _ := w.SurfaceCapabilities(hs)
	if !slices.ContainsFunc(formats, func(f wsi.SurfaceFormat) bool {
		return f.Format == desc.Format && f.ColorSpace == desc.ColorSpace
	}) {
		return nil, fmt.Errorf("%w: format %v", wsi.ErrUnsupported, desc.Format)
	}
	if !slices.Contains(presentModes, desc.PresentMode) {
		return nil, fmt.Errorf("%w: present mode %d", wsi.ErrUnsupported, desc.PresentMode)
	}
	e := desc.Extent
	if e.Width == 0 || e.Height == 0 || e.Width > maxDimension || e.Height > maxDimension {
		return nil, fmt.Errorf("%w: extent %dx%d", wsi.ErrUnsupported, e.Width, e.Height)
	}
	if desc.MinImageCount > caps.MaxImageCount {
		return nil, fmt.Errorf("%w: %d images", wsi.ErrUnsupported, desc.MinImageCount)
	}
	if desc.ArrayLayers > caps.MaxArrayLayers {
		return nil, fmt.Errorf("%w: %d array layers", wsi.ErrUnsupported, desc.ArrayLayers)
	}
	if desc.Usage&^supportedUsage != 0 {
		return nil, fmt.Errorf("%w: usage %#x", wsi.ErrUnsupported, desc.Usage)
	}

	if old, ok := desc.OldSwapchain.(*Swapchain); ok && old != nil {
		old.retire()
	}

	count := max(desc.MinImageCount, caps.MinImageCount)
	sc := newSwapchain(hs, dev.Loss(), desc.Format, e, count)
	for range count {
		img, err := resource.NewImage(resource.ImageDesc{
			Dimension:   gputypes.TextureDimension2D,
			Format:      desc.Format,
			Extent:      gputypes.Extent3D{Width: e.Width, Height: e.Height, DepthOrArrayLayers: 1},
			ArrayLayers: max(desc.ArrayLayers, 1),
			Usage:       desc.Usage,
		})
		if err != nil {
			sc.Destroy()
			return nil, err
		}
		mem, err := dev.AllocateMemory(img.Requirements().Size, 0)
		if err != nil {
			sc.Destroy()
			return nil, err
		}
		err = img.Bind(mem, 0)
		mem.Release()
		if err != nil {
			sc.Destroy()
			return nil, err
		}
		sc.images = append(sc.images, img)
	}
	sc.available = make([]bool, len(sc.images))
	for i := range sc.available {
		sc.available[i] = true
	}
	go sc.watchLoss()
	wsi.Logger().Debug("headless: swapchain created", "images", count, "width", e.Width, "height", e.Height)
	return sc, nil
}
