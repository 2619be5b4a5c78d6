package renderer

import (
	"github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
)

type swapchainSupport struct {
	capabilities *khr_surface.SurfaceCapabilities
	formats      []khr_surface.SurfaceFormat
	presentModes []khr_surface.PresentMode
}

func querySwapchainSupport(device core1_0.PhysicalDevice, query gpuQuery) (swapchainSupport, error) {
	var details swapchainSupport
	var err error

	details.capabilities, err = query.SurfaceCapabilities(device)
	if err != nil {
		return details, err
	}

	details.formats, err = query.SurfaceFormats(device)
	if err != nil {
		return details, err
	}

	details.presentModes, err = query.PresentModes(device)
	return details, err
}

func chooseSurfaceFormat(availableFormats []khr_surface.SurfaceFormat) khr_surface.SurfaceFormat {
	for _, format := range availableFormats {
		if format.Format == core1_0.FormatB8G8R8A8SRGB && format.ColorSpace == khr_surface.ColorSpaceSRGBNonlinear {
			return format
		}
	}

	return availableFormats[0]
}

func choosePresentMode(availablePresentModes []khr_surface.PresentMode) khr_surface.PresentMode {
	for _, presentMode := range availablePresentModes {
		if presentMode == khr_surface.PresentModeMailbox {
			return presentMode
		}
	}

	// FIFO is the only mode the spec guarantees.
	return khr_surface.PresentModeFIFO
}

// chooseExtent trusts the surface's current extent unless it reports the
// undefined sentinel (0xFFFFFFFF, surfaced as -1 by the bindings), in which
// case the drawable pixel size is clamped to the surface's limits.
func chooseExtent(capabilities *khr_surface.SurfaceCapabilities, drawableWidth, drawableHeight int) core1_0.Extent2D {
	if capabilities.CurrentExtent.Width != -1 {
		return capabilities.CurrentExtent
	}

	width := drawableWidth
	height := drawableHeight

	if width < capabilities.MinImageExtent.Width {
		width = capabilities.MinImageExtent.Width
	}
	if width > capabilities.MaxImageExtent.Width {
		width = capabilities.MaxImageExtent.Width
	}
	if height < capabilities.MinImageExtent.Height {
		height = capabilities.MinImageExtent.Height
	}
	if height > capabilities.MaxImageExtent.Height {
		height = capabilities.MaxImageExtent.Height
	}

	return core1_0.Extent2D{Width: width, Height: height}
}

// chooseImageCount asks for one image beyond the driver minimum so the
// application is never forced to wait on the driver, clamped to the maximum
// when one is reported (0 means unbounded).
func chooseImageCount(capabilities *khr_surface.SurfaceCapabilities) int {
	imageCount := capabilities.MinImageCount + 1
	if capabilities.MaxImageCount > 0 && capabilities.MaxImageCount < imageCount {
		imageCount = capabilities.MaxImageCount
	}

	return imageCount
}

func (app *App) createSwapchain() error {
	if app.swapchainExtension == nil {
		app.swapchainExtension = khr_swapchain.CreateExtensionDriverFromCoreDriver(app.deviceDriver)
	}

	support, err := querySwapchainSupport(app.physicalDevice, app.query())
	if err != nil {
		return err
	}

	surfaceFormat := chooseSurfaceFormat(support.formats)
	presentMode := choosePresentMode(support.presentModes)

	drawableWidth, drawableHeight := app.window.VulkanGetDrawableSize()
	extent := chooseExtent(support.capabilities, int(drawableWidth), int(drawableHeight))
	imageCount := chooseImageCount(support.capabilities)

	sharingMode := core1_0.SharingModeExclusive
	var queueFamilyIndices []int

	if *app.queueIndices.Graphics != *app.queueIndices.Present {
		sharingMode = core1_0.SharingModeConcurrent
		queueFamilyIndices = append(queueFamilyIndices, *app.queueIndices.Graphics, *app.queueIndices.Present)
	}

	swapchain, _, err := app.swapchainExtension.CreateSwapchain(nil, khr_swapchain.SwapchainCreateInfo{
		Surface: app.surface,

		MinImageCount:    imageCount,
		ImageFormat:      surfaceFormat.Format,
		ImageColorSpace:  surfaceFormat.ColorSpace,
		ImageExtent:      extent,
		ImageArrayLayers: 1,
		ImageUsage:       core1_0.ImageUsageColorAttachment,

		ImageSharingMode:   sharingMode,
		QueueFamilyIndices: queueFamilyIndices,

		PreTransform:   support.capabilities.CurrentTransform,
		CompositeAlpha: khr_surface.CompositeAlphaOpaque,
		PresentMode:    presentMode,
		Clipped:        true,
	})
	if err != nil {
		return err
	}
	app.swapchain = swapchain
	app.swapchainExtent = extent
	app.swapchainImageFormat = surfaceFormat.Format

	app.log.WithFields(logrus.Fields{
		"format":       surfaceFormat.Format,
		"present_mode": presentMode,
		"width":        extent.Width,
		"height":       extent.Height,
		"image_count":  imageCount,
	}).Info("created swapchain")

	return nil
}

func (app *App) createImageViews() error {
	images, _, err := app.swapchainExtension.GetSwapchainImages(app.swapchain)
	if err != nil {
		return err
	}
	app.swapchainImages = images

	var imageViews []core1_0.ImageView
	for _, image := range images {
		view, _, err := app.deviceDriver.CreateImageView(nil, core1_0.ImageViewCreateInfo{
			Image:    image,
			ViewType: core1_0.ImageViewType2D,
			Format:   app.swapchainImageFormat,
			SubresourceRange: core1_0.ImageSubresourceRange{
				AspectMask:     core1_0.ImageAspectColor,
				BaseMipLevel:   0,
				LevelCount:     1,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
		})
		if err != nil {
			return err
		}

		imageViews = append(imageViews, view)
	}
	app.swapchainImageViews = imageViews

	return nil
}

// createFramebuffers builds one framebuffer per swapchain image. The
// framebuffer arena is indexed by acquired image index, never by frame slot.
func (app *App) createFramebuffers() error {
	for _, imageView := range app.swapchainImageViews {
		framebuffer, _, err := app.deviceDriver.CreateFramebuffer(nil, core1_0.FramebufferCreateInfo{
			RenderPass: app.renderPass,
			Layers:     1,
			Attachments: []core1_0.ImageView{
				imageView,
			},
			Width:  app.swapchainExtent.Width,
			Height: app.swapchainExtent.Height,
		})
		if err != nil {
			return err
		}

		app.swapchainFramebuffers = append(app.swapchainFramebuffers, framebuffer)
	}

	return nil
}

func (app *App) cleanupSwapchain() {
	for _, framebuffer := range app.swapchainFramebuffers {
		app.deviceDriver.DestroyFramebuffer(framebuffer, nil)
	}
	app.swapchainFramebuffers = nil

	for _, imageView := range app.swapchainImageViews {
		app.deviceDriver.DestroyImageView(imageView, nil)
	}
	app.swapchainImageViews = nil

	if app.swapchain.Initialized() {
		app.swapchainExtension.DestroySwapchain(app.swapchain, nil)
		app.swapchain = khr_swapchain.Swapchain{}
	}
}

// recreateSwapchain replaces the swapchain, views and framebuffers after the
// surface changed. The render pass and pipeline survive: viewport and scissor
// are dynamic state, so nothing in them depends on the extent.
func (app *App) recreateSwapchain() error {
	w, h := app.window.VulkanGetDrawableSize()
	if w == 0 || h == 0 {
		return nil
	}
	if (app.window.GetFlags() & sdl.WINDOW_MINIMIZED) != 0 {
		return nil
	}

	_, err := app.deviceDriver.DeviceWaitIdle()
	if err != nil {
		return err
	}

	app.cleanupSwapchain()

	err = app.createSwapchain()
	if err != nil {
		return err
	}

	err = app.createImageViews()
	if err != nil {
		return err
	}

	return app.createFramebuffers()
}
