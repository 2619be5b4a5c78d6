package renderer

import (
	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_portability_subset"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
)

type queueFamilyIndices struct {
	Graphics *int
	Present  *int
}

func (i *queueFamilyIndices) isComplete() bool {
	return i.Graphics != nil && i.Present != nil
}

// gpuQuery is the read-only device information the selection logic consumes.
// It exists so suitability checks run identically against a live instance
// driver and against canned data in tests.
type gpuQuery interface {
	QueueFamilyProperties(device core1_0.PhysicalDevice) []core1_0.QueueFamilyProperties
	SurfaceSupport(device core1_0.PhysicalDevice, queueFamily int) (bool, error)
	DeviceExtensions(device core1_0.PhysicalDevice) (map[string]struct{}, error)
	SurfaceCapabilities(device core1_0.PhysicalDevice) (*khr_surface.SurfaceCapabilities, error)
	SurfaceFormats(device core1_0.PhysicalDevice) ([]khr_surface.SurfaceFormat, error)
	PresentModes(device core1_0.PhysicalDevice) ([]khr_surface.PresentMode, error)
}

// driverQuery answers gpuQuery from the instance driver and the live surface.
type driverQuery struct {
	instance   core1_0.CoreInstanceDriver
	surfaceExt khr_surface.ExtensionDriver
	surface    khr_surface.Surface
}

func (q driverQuery) QueueFamilyProperties(device core1_0.PhysicalDevice) []core1_0.QueueFamilyProperties {
	properties := q.instance.GetPhysicalDeviceQueueFamilyProperties(device)
	families := make([]core1_0.QueueFamilyProperties, len(properties))
	for propertyIdx, property := range properties {
		families[propertyIdx] = *property
	}
	return families
}

func (q driverQuery) SurfaceSupport(device core1_0.PhysicalDevice, queueFamily int) (bool, error) {
	supported, _, err := q.surfaceExt.GetPhysicalDeviceSurfaceSupport(q.surface, device, queueFamily)
	return supported, err
}

func (q driverQuery) DeviceExtensions(device core1_0.PhysicalDevice) (map[string]struct{}, error) {
	extensions, _, err := q.instance.EnumerateDeviceExtensionProperties(device)
	if err != nil {
		return nil, err
	}

	names := make(map[string]struct{}, len(extensions))
	for name := range extensions {
		names[name] = struct{}{}
	}
	return names, nil
}

func (q driverQuery) SurfaceCapabilities(device core1_0.PhysicalDevice) (*khr_surface.SurfaceCapabilities, error) {
	capabilities, _, err := q.surfaceExt.GetPhysicalDeviceSurfaceCapabilities(q.surface, device)
	return capabilities, err
}

func (q driverQuery) SurfaceFormats(device core1_0.PhysicalDevice) ([]khr_surface.SurfaceFormat, error) {
	formats, _, err := q.surfaceExt.GetPhysicalDeviceSurfaceFormats(q.surface, device)
	return formats, err
}

func (q driverQuery) PresentModes(device core1_0.PhysicalDevice) ([]khr_surface.PresentMode, error) {
	modes, _, err := q.surfaceExt.GetPhysicalDeviceSurfacePresentModes(q.surface, device)
	return modes, err
}

func (app *App) query() gpuQuery {
	return driverQuery{
		instance:   app.instanceDriver,
		surfaceExt: app.surfaceExtension,
		surface:    app.surface,
	}
}

func findQueueFamilies(device core1_0.PhysicalDevice, query gpuQuery) (queueFamilyIndices, error) {
	indices := queueFamilyIndices{}

	for familyIdx, family := range query.QueueFamilyProperties(device) {
		if (family.QueueFlags & core1_0.QueueGraphics) != 0 {
			indices.Graphics = new(int)
			*indices.Graphics = familyIdx
		}

		supported, err := query.SurfaceSupport(device, familyIdx)
		if err != nil {
			return indices, err
		}

		if supported {
			indices.Present = new(int)
			*indices.Present = familyIdx
		}

		if indices.isComplete() {
			break
		}
	}

	return indices, nil
}

func supportsExtensions(available map[string]struct{}, required []string) bool {
	for _, name := range required {
		_, hasExtension := available[name]
		if !hasExtension {
			return false
		}
	}

	return true
}

func isDeviceSuitable(device core1_0.PhysicalDevice, query gpuQuery, required []string) bool {
	indices, err := findQueueFamilies(device, query)
	if err != nil {
		return false
	}

	available, err := query.DeviceExtensions(device)
	if err != nil {
		return false
	}
	extensionsSupported := supportsExtensions(available, required)

	var swapchainAdequate bool
	if extensionsSupported {
		formats, err := query.SurfaceFormats(device)
		if err != nil {
			return false
		}

		modes, err := query.PresentModes(device)
		if err != nil {
			return false
		}

		swapchainAdequate = len(formats) > 0 && len(modes) > 0
	}

	return indices.isComplete() && extensionsSupported && swapchainAdequate
}

// selectPhysicalDevice returns the index of the first suitable device. There
// is no scoring.
func selectPhysicalDevice(devices []core1_0.PhysicalDevice, query gpuQuery, required []string) (int, error) {
	for deviceIdx, device := range devices {
		if isDeviceSuitable(device, query, required) {
			return deviceIdx, nil
		}
	}

	return -1, errors.Errorf("failed to find a suitable GPU")
}

func (app *App) pickPhysicalDevice() error {
	physicalDevices, _, err := app.instanceDriver.EnumeratePhysicalDevices()
	if err != nil {
		return err
	}

	deviceIdx, err := selectPhysicalDevice(physicalDevices, app.query(), deviceExtensions)
	if err != nil {
		return err
	}
	app.physicalDevice = physicalDevices[deviceIdx]

	app.queueIndices, err = findQueueFamilies(app.physicalDevice, app.query())
	if err != nil {
		return err
	}

	app.log.WithFields(logrus.Fields{
		"device_index":    deviceIdx,
		"graphics_family": *app.queueIndices.Graphics,
		"present_family":  *app.queueIndices.Present,
	}).Info("selected physical device")

	return nil
}

func (app *App) createLogicalDevice() error {
	uniqueQueueFamilies := []int{*app.queueIndices.Graphics}
	if uniqueQueueFamilies[0] != *app.queueIndices.Present {
		uniqueQueueFamilies = append(uniqueQueueFamilies, *app.queueIndices.Present)
	}

	var queueFamilyOptions []core1_0.DeviceQueueCreateInfo
	queuePriority := float32(1.0)
	for _, queueFamily := range uniqueQueueFamilies {
		queueFamilyOptions = append(queueFamilyOptions, core1_0.DeviceQueueCreateInfo{
			QueueFamilyIndex: queueFamily,
			QueuePriorities:  []float32{queuePriority},
		})
	}

	var extensionNames []string
	extensionNames = append(extensionNames, deviceExtensions...)

	// Required for vulkan portability drivers (MoltenVK and friends).
	extensions, _, err := app.instanceDriver.EnumerateDeviceExtensionProperties(app.physicalDevice)
	if err != nil {
		return err
	}

	_, supported := extensions[khr_portability_subset.ExtensionName]
	if supported {
		extensionNames = append(extensionNames, khr_portability_subset.ExtensionName)
	}

	app.deviceDriver, _, err = app.instanceDriver.CreateDevice(app.physicalDevice, nil, core1_0.DeviceCreateInfo{
		QueueCreateInfos:      queueFamilyOptions,
		EnabledFeatures:       &core1_0.PhysicalDeviceFeatures{},
		EnabledExtensionNames: extensionNames,
	})
	if err != nil {
		return err
	}

	app.graphicsQueue = app.deviceDriver.GetQueue(*app.queueIndices.Graphics, 0)
	app.presentQueue = app.deviceDriver.GetQueue(*app.queueIndices.Present, 0)
	return nil
}
