package renderer

import (
	"testing"

	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
)

func TestChooseExtentUsesCurrentExtent(t *testing.T) {
	capabilities := &khr_surface.SurfaceCapabilities{
		CurrentExtent:  core1_0.Extent2D{Width: 800, Height: 600},
		MinImageExtent: core1_0.Extent2D{Width: 1, Height: 1},
		MaxImageExtent: core1_0.Extent2D{Width: 2048, Height: 2048},
	}

	extent := chooseExtent(capabilities, 1024, 768)
	if extent.Width != 800 || extent.Height != 600 {
		t.Errorf("expected (800, 600), got (%d, %d)", extent.Width, extent.Height)
	}
}

func TestChooseExtentSentinelUsesDrawableSize(t *testing.T) {
	capabilities := &khr_surface.SurfaceCapabilities{
		CurrentExtent:  core1_0.Extent2D{Width: -1, Height: -1},
		MinImageExtent: core1_0.Extent2D{Width: 1, Height: 1},
		MaxImageExtent: core1_0.Extent2D{Width: 2048, Height: 2048},
	}

	extent := chooseExtent(capabilities, 1024, 768)
	if extent.Width != 1024 || extent.Height != 768 {
		t.Errorf("expected (1024, 768), got (%d, %d)", extent.Width, extent.Height)
	}
}

func TestChooseExtentClampsToLimits(t *testing.T) {
	capabilities := &khr_surface.SurfaceCapabilities{
		CurrentExtent:  core1_0.Extent2D{Width: -1, Height: -1},
		MinImageExtent: core1_0.Extent2D{Width: 64, Height: 64},
		MaxImageExtent: core1_0.Extent2D{Width: 2048, Height: 2048},
	}

	extent := chooseExtent(capabilities, 4096, 1)
	if extent.Width != 2048 || extent.Height != 64 {
		t.Errorf("expected (2048, 64), got (%d, %d)", extent.Width, extent.Height)
	}
}

func TestChooseSurfaceFormatPrefersBGRASRGB(t *testing.T) {
	preferred := khr_surface.SurfaceFormat{
		Format:     core1_0.FormatB8G8R8A8SRGB,
		ColorSpace: khr_surface.ColorSpaceSRGBNonlinear,
	}
	formats := []khr_surface.SurfaceFormat{
		{
			Format:     core1_0.FormatR8G8B8A8SRGB,
			ColorSpace: khr_surface.ColorSpaceSRGBNonlinear,
		},
		preferred,
	}

	chosen := chooseSurfaceFormat(formats)
	if chosen != preferred {
		t.Errorf("expected the preferred BGRA format, got %+v", chosen)
	}
}

func TestChooseSurfaceFormatFallsBackToFirst(t *testing.T) {
	formats := []khr_surface.SurfaceFormat{
		{
			Format:     core1_0.FormatR8G8B8A8SRGB,
			ColorSpace: khr_surface.ColorSpaceSRGBNonlinear,
		},
		{
			Format:     core1_0.FormatR8G8B8A8UnsignedNormalized,
			ColorSpace: khr_surface.ColorSpaceSRGBNonlinear,
		},
	}

	chosen := chooseSurfaceFormat(formats)
	if chosen != formats[0] {
		t.Errorf("expected the first available format, got %+v", chosen)
	}
}

func TestChoosePresentModePrefersMailbox(t *testing.T) {
	modes := []khr_surface.PresentMode{
		khr_surface.PresentModeFIFO,
		khr_surface.PresentModeMailbox,
	}

	if choosePresentMode(modes) != khr_surface.PresentModeMailbox {
		t.Error("expected mailbox to be chosen when available")
	}
}

func TestChoosePresentModeFallsBackToFIFO(t *testing.T) {
	modes := []khr_surface.PresentMode{
		khr_surface.PresentModeImmediate,
	}

	if choosePresentMode(modes) != khr_surface.PresentModeFIFO {
		t.Error("expected FIFO fallback when mailbox is absent")
	}
}

func TestChooseImageCount(t *testing.T) {
	unbounded := &khr_surface.SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 0}
	if count := chooseImageCount(unbounded); count != 3 {
		t.Errorf("expected 3 images for unbounded maximum, got %d", count)
	}

	clamped := &khr_surface.SurfaceCapabilities{MinImageCount: 3, MaxImageCount: 3}
	if count := chooseImageCount(clamped); count != 3 {
		t.Errorf("expected clamp to 3 images, got %d", count)
	}
}
