package renderer

import (
	"github.com/loov/hrtime"
	"github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/core/v3"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/ext_debug_utils"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
)

var validationLayers = []string{"VK_LAYER_KHRONOS_validation"}
var deviceExtensions = []string{khr_swapchain.ExtensionName}

// frameReportInterval is how many frames pass between frame-time log lines.
const frameReportInterval = 300

// App owns every Vulkan object for the lifetime of the window. All methods
// must be called from the same locked OS thread; the GPU is the only source
// of parallelism and is coordinated through the frame-slot sync primitives.
type App struct {
	config Config
	log    *logrus.Logger

	window *sdl.Window

	globalDriver   core1_0.GlobalDriver
	instanceDriver core1_0.CoreInstanceDriver
	deviceDriver   core1_0.CoreDeviceDriver

	debugDriver      ext_debug_utils.ExtensionDriver
	debugMessenger   ext_debug_utils.DebugUtilsMessenger
	surfaceExtension khr_surface.ExtensionDriver
	surface          khr_surface.Surface

	physicalDevice core1_0.PhysicalDevice
	queueIndices   queueFamilyIndices

	graphicsQueue core1_0.Queue
	presentQueue  core1_0.Queue

	swapchainExtension    khr_swapchain.ExtensionDriver
	swapchain             khr_swapchain.Swapchain
	swapchainImages       []core1_0.Image
	swapchainImageFormat  core1_0.Format
	swapchainExtent       core1_0.Extent2D
	swapchainImageViews   []core1_0.ImageView
	swapchainFramebuffers []core1_0.Framebuffer

	renderPass       core1_0.RenderPass
	pipelineCache    core1_0.PipelineCache
	pipelineLayout   core1_0.PipelineLayout
	graphicsPipeline core1_0.Pipeline

	commandPool core1_0.CommandPool
	frames      frameRing

	windowStart float64
}

// New returns an App ready to Run. A nil logger falls back to the logrus
// standard logger.
func New(config Config, log *logrus.Logger) *App {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &App{
		config: config,
		log:    log,
	}
}

func (app *App) Run() error {
	err := app.initWindow()
	if err != nil {
		return err
	}

	err = app.initVulkan()
	if err != nil {
		return err
	}
	defer app.cleanup()

	return app.mainLoop()
}

func (app *App) initWindow() error {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return err
	}

	window, err := sdl.CreateWindow(app.config.WindowTitle,
		sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		int32(app.config.WindowWidth), int32(app.config.WindowHeight),
		sdl.WINDOW_SHOWN|sdl.WINDOW_VULKAN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		return err
	}
	app.window = window

	app.globalDriver, err = core.CreateDriverFromProcAddr(sdl.VulkanGetVkGetInstanceProcAddr())
	if err != nil {
		return err
	}

	return nil
}

func (app *App) initVulkan() error {
	err := app.createInstance()
	if err != nil {
		return err
	}

	err = app.setupDebugMessenger()
	if err != nil {
		return err
	}

	err = app.createSurface()
	if err != nil {
		return err
	}

	err = app.pickPhysicalDevice()
	if err != nil {
		return err
	}

	err = app.createLogicalDevice()
	if err != nil {
		return err
	}

	err = app.createSwapchain()
	if err != nil {
		return err
	}

	err = app.createImageViews()
	if err != nil {
		return err
	}

	err = app.createRenderPass()
	if err != nil {
		return err
	}

	err = app.createPipelineCache()
	if err != nil {
		return err
	}

	err = app.createGraphicsPipeline()
	if err != nil {
		return err
	}

	err = app.createFramebuffers()
	if err != nil {
		return err
	}

	err = app.createCommandPool()
	if err != nil {
		return err
	}

	return app.createFrameSlots()
}

func (app *App) mainLoop() error {
	rendering := true
	app.windowStart = hrtime.Now().Seconds()

appLoop:
	for {
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch e := event.(type) {
			case *sdl.QuitEvent:
				break appLoop
			case *sdl.WindowEvent:
				switch e.Event {
				case sdl.WINDOWEVENT_MINIMIZED:
					rendering = false
				case sdl.WINDOWEVENT_RESTORED:
					rendering = true
				case sdl.WINDOWEVENT_RESIZED:
					w, h := app.window.GetSize()
					if w > 0 && h > 0 {
						rendering = true
						err := app.recreateSwapchain()
						if err != nil {
							return err
						}
					} else {
						rendering = false
					}
				}
			}
		}
		if rendering {
			err := app.drawFrame()
			if err != nil {
				return err
			}
			app.reportFrameTimes()
		}
	}

	// Frame slots may still reference GPU work; nothing can be destroyed
	// before the device drains.
	_, err := app.deviceDriver.DeviceWaitIdle()
	return err
}

func (app *App) reportFrameTimes() {
	if app.frames.count%frameReportInterval != 0 {
		return
	}

	now := hrtime.Now().Seconds()
	elapsed := now - app.windowStart
	if elapsed > 0 {
		app.log.WithFields(logrus.Fields{
			"frames": frameReportInterval,
			"avg_ms": elapsed / frameReportInterval * 1000.0,
		}).Debug("frame timing")
	}
	app.windowStart = now
}

// cleanup releases everything in exact reverse-creation order. Instance-level
// objects go last.
func (app *App) cleanup() {
	app.cleanupSwapchain()

	if app.graphicsPipeline.Initialized() {
		app.deviceDriver.DestroyPipeline(app.graphicsPipeline, nil)
	}

	if app.pipelineLayout.Initialized() {
		app.deviceDriver.DestroyPipelineLayout(app.pipelineLayout, nil)
	}

	if app.pipelineCache.Initialized() {
		app.deviceDriver.DestroyPipelineCache(app.pipelineCache, nil)
	}

	if app.renderPass.Initialized() {
		app.deviceDriver.DestroyRenderPass(app.renderPass, nil)
	}

	app.destroyFrameSlots()

	if app.commandPool.Initialized() {
		app.deviceDriver.DestroyCommandPool(app.commandPool, nil)
	}

	if app.deviceDriver != nil {
		app.deviceDriver.DestroyDevice(nil)
	}

	if app.debugMessenger.Initialized() {
		app.debugDriver.DestroyDebugUtilsMessenger(app.debugMessenger, nil)
	}

	if app.surface.Initialized() {
		app.surfaceExtension.DestroySurface(app.surface, nil)
	}

	if app.instanceDriver != nil {
		app.instanceDriver.DestroyInstance(nil)
	}

	if app.window != nil {
		app.window.Destroy()
	}
	sdl.Quit()
}
