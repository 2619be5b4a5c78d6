package renderer

import (
	"testing"

	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
)

// fakeGPU reports the same canned capabilities for every device handle.
type fakeGPU struct {
	families   []core1_0.QueueFamilyProperties
	present    map[int]bool
	extensions map[string]struct{}
	formats    []khr_surface.SurfaceFormat
	modes      []khr_surface.PresentMode
}

func (f *fakeGPU) QueueFamilyProperties(core1_0.PhysicalDevice) []core1_0.QueueFamilyProperties {
	return f.families
}

func (f *fakeGPU) SurfaceSupport(_ core1_0.PhysicalDevice, queueFamily int) (bool, error) {
	return f.present[queueFamily], nil
}

func (f *fakeGPU) DeviceExtensions(core1_0.PhysicalDevice) (map[string]struct{}, error) {
	return f.extensions, nil
}

func (f *fakeGPU) SurfaceCapabilities(core1_0.PhysicalDevice) (*khr_surface.SurfaceCapabilities, error) {
	return &khr_surface.SurfaceCapabilities{}, nil
}

func (f *fakeGPU) SurfaceFormats(core1_0.PhysicalDevice) ([]khr_surface.SurfaceFormat, error) {
	return f.formats, nil
}

func (f *fakeGPU) PresentModes(core1_0.PhysicalDevice) ([]khr_surface.PresentMode, error) {
	return f.modes, nil
}

func capableGPU() *fakeGPU {
	return &fakeGPU{
		families: []core1_0.QueueFamilyProperties{
			{QueueFlags: core1_0.QueueGraphics},
		},
		present: map[int]bool{0: true},
		extensions: map[string]struct{}{
			khr_swapchain.ExtensionName: {},
		},
		formats: []khr_surface.SurfaceFormat{
			{Format: core1_0.FormatB8G8R8A8SRGB, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear},
		},
		modes: []khr_surface.PresentMode{khr_surface.PresentModeFIFO},
	}
}

func TestSupportsExtensionsMissingName(t *testing.T) {
	available := map[string]struct{}{
		"VK_KHR_surface": {},
	}

	if supportsExtensions(available, []string{khr_swapchain.ExtensionName}) {
		t.Error("expected support check to fail for a missing extension")
	}
}

func TestSupportsExtensionsAllPresent(t *testing.T) {
	available := map[string]struct{}{
		"VK_KHR_surface":            {},
		khr_swapchain.ExtensionName: {},
	}

	if !supportsExtensions(available, []string{khr_swapchain.ExtensionName}) {
		t.Error("expected support check to pass")
	}
}

func TestFindQueueFamiliesSplitFamilies(t *testing.T) {
	gpu := &fakeGPU{
		families: []core1_0.QueueFamilyProperties{
			{QueueFlags: core1_0.QueueTransfer},
			{QueueFlags: core1_0.QueueGraphics},
			{},
		},
		present: map[int]bool{2: true},
	}

	indices, err := findQueueFamilies(core1_0.PhysicalDevice{}, gpu)
	if err != nil {
		t.Fatal(err)
	}

	if !indices.isComplete() {
		t.Fatal("expected complete queue family indices")
	}
	if *indices.Graphics != 1 {
		t.Errorf("expected graphics family 1, got %d", *indices.Graphics)
	}
	if *indices.Present != 2 {
		t.Errorf("expected present family 2, got %d", *indices.Present)
	}
}

func TestSelectPhysicalDevicePicksCapableDevice(t *testing.T) {
	devices := []core1_0.PhysicalDevice{{}}

	deviceIdx, err := selectPhysicalDevice(devices, capableGPU(), deviceExtensions)
	if err != nil {
		t.Fatal(err)
	}
	if deviceIdx != 0 {
		t.Errorf("expected device 0, got %d", deviceIdx)
	}
}

func TestSelectPhysicalDeviceRejectsMissingExtension(t *testing.T) {
	gpu := capableGPU()
	gpu.extensions = map[string]struct{}{}

	_, err := selectPhysicalDevice([]core1_0.PhysicalDevice{{}}, gpu, deviceExtensions)
	if err == nil {
		t.Error("expected selection to fail without the swapchain extension")
	}
}

func TestSelectPhysicalDeviceRejectsEmptyFormats(t *testing.T) {
	gpu := capableGPU()
	gpu.formats = nil

	_, err := selectPhysicalDevice([]core1_0.PhysicalDevice{{}}, gpu, deviceExtensions)
	if err == nil {
		t.Error("expected selection to fail without surface formats")
	}
}

func TestSelectPhysicalDeviceRejectsNoPresentFamily(t *testing.T) {
	gpu := capableGPU()
	gpu.present = map[int]bool{}

	_, err := selectPhysicalDevice([]core1_0.PhysicalDevice{{}}, gpu, deviceExtensions)
	if err == nil {
		t.Error("expected selection to fail without a present-capable family")
	}
}
