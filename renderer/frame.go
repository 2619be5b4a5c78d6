package renderer

import (
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
)

// frameSlot owns everything one in-flight frame needs. The two semaphores
// order GPU work (acquire -> draw -> present) and are never waited on from
// the CPU; the fence is the CPU-observable completion primitive that bounds
// lookahead. One must never stand in for the other.
type frameSlot struct {
	commandBuffer  core1_0.CommandBuffer
	imageAvailable core1_0.Semaphore
	renderFinished core1_0.Semaphore
	inFlight       core1_0.Fence
}

// frameRing is the fixed ring of frame slots. The slot index advances modulo
// the ring size and is independent of the swapchain image index.
type frameRing struct {
	slots   []frameSlot
	current int
	count   uint64
}

func newFrameRing(size int) frameRing {
	return frameRing{
		slots: make([]frameSlot, size),
	}
}

func (r *frameRing) slot() *frameSlot {
	return &r.slots[r.current]
}

func (r *frameRing) index() int {
	return r.current
}

func (r *frameRing) size() int {
	return len(r.slots)
}

func (r *frameRing) advance() {
	r.count++
	r.current = int(r.count % uint64(len(r.slots)))
}

func (app *App) createCommandPool() error {
	pool, _, err := app.deviceDriver.CreateCommandPool(nil, core1_0.CommandPoolCreateInfo{
		QueueFamilyIndex: *app.queueIndices.Graphics,
		Flags:            core1_0.CommandPoolCreateResetBuffer,
	})
	if err != nil {
		return err
	}
	app.commandPool = pool

	return nil
}

func (app *App) createFrameSlots() error {
	app.frames = newFrameRing(MaxFramesInFlight)

	buffers, _, err := app.deviceDriver.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        app.commandPool,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: app.frames.size(),
	})
	if err != nil {
		return err
	}

	for i := range app.frames.slots {
		slot := &app.frames.slots[i]
		slot.commandBuffer = buffers[i]

		slot.imageAvailable, _, err = app.deviceDriver.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
		if err != nil {
			return err
		}

		slot.renderFinished, _, err = app.deviceDriver.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
		if err != nil {
			return err
		}

		// Created signaled so the very first wait on each slot passes.
		slot.inFlight, _, err = app.deviceDriver.CreateFence(nil, core1_0.FenceCreateInfo{
			Flags: core1_0.FenceCreateSignaled,
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func (app *App) destroyFrameSlots() {
	for i := range app.frames.slots {
		slot := &app.frames.slots[i]

		if slot.inFlight.Initialized() {
			app.deviceDriver.DestroyFence(slot.inFlight, nil)
		}
		if slot.renderFinished.Initialized() {
			app.deviceDriver.DestroySemaphore(slot.renderFinished, nil)
		}
		if slot.imageAvailable.Initialized() {
			app.deviceDriver.DestroySemaphore(slot.imageAvailable, nil)
		}
		if slot.commandBuffer.Initialized() {
			app.deviceDriver.FreeCommandBuffers(slot.commandBuffer)
		}
	}
	app.frames.slots = nil
}

func (app *App) recordCommandBuffer(buffer core1_0.CommandBuffer, imageIndex int) error {
	_, err := app.deviceDriver.BeginCommandBuffer(buffer, core1_0.CommandBufferBeginInfo{})
	if err != nil {
		return err
	}

	err = app.deviceDriver.CmdBeginRenderPass(buffer, core1_0.SubpassContentsInline,
		core1_0.RenderPassBeginInfo{
			RenderPass:  app.renderPass,
			Framebuffer: app.swapchainFramebuffers[imageIndex],
			RenderArea: core1_0.Rect2D{
				Offset: core1_0.Offset2D{X: 0, Y: 0},
				Extent: app.swapchainExtent,
			},
			ClearValues: []core1_0.ClearValue{
				core1_0.ClearValueFloat{0, 0, 0, 1},
			},
		})
	if err != nil {
		return err
	}

	app.deviceDriver.CmdBindPipeline(buffer, core1_0.PipelineBindPointGraphics, app.graphicsPipeline)

	app.deviceDriver.CmdSetViewport(buffer, core1_0.Viewport{
		X:        0,
		Y:        0,
		Width:    float32(app.swapchainExtent.Width),
		Height:   float32(app.swapchainExtent.Height),
		MinDepth: 0,
		MaxDepth: 1,
	})
	app.deviceDriver.CmdSetScissor(buffer, core1_0.Rect2D{
		Offset: core1_0.Offset2D{X: 0, Y: 0},
		Extent: app.swapchainExtent,
	})

	app.deviceDriver.CmdDraw(buffer, 3, 1, 0, 0)
	app.deviceDriver.CmdEndRenderPass(buffer)

	_, err = app.deviceDriver.EndCommandBuffer(buffer)
	return err
}

// drawFrame runs one iteration of the frame state machine for the current
// slot: wait on the slot fence, acquire an image, re-record and submit the
// slot's command buffer, present, advance the ring.
func (app *App) drawFrame() error {
	slot := app.frames.slot()

	// Bounds CPU lookahead to exactly the ring size.
	_, err := app.deviceDriver.WaitForFences(true, common.NoTimeout, slot.inFlight)
	if err != nil {
		return err
	}

	imageIndex, res, err := app.swapchainExtension.AcquireNextImage(app.swapchain, common.NoTimeout, &slot.imageAvailable, nil)
	if res == khr_swapchain.VKErrorOutOfDate {
		return app.recreateSwapchain()
	} else if err != nil {
		return err
	}

	// Only reset once a submission is certain, or a recreation bail-out
	// above would leave the fence unsignaled forever.
	_, err = app.deviceDriver.ResetFences(slot.inFlight)
	if err != nil {
		return err
	}

	_, err = app.deviceDriver.ResetCommandBuffer(slot.commandBuffer, 0)
	if err != nil {
		return err
	}

	err = app.recordCommandBuffer(slot.commandBuffer, imageIndex)
	if err != nil {
		return err
	}

	_, err = app.deviceDriver.QueueSubmit(app.graphicsQueue, &slot.inFlight,
		core1_0.SubmitInfo{
			WaitSemaphores:   []core1_0.Semaphore{slot.imageAvailable},
			WaitDstStageMask: []core1_0.PipelineStageFlags{core1_0.PipelineStageColorAttachmentOutput},
			CommandBuffers:   []core1_0.CommandBuffer{slot.commandBuffer},
			SignalSemaphores: []core1_0.Semaphore{slot.renderFinished},
		},
	)
	if err != nil {
		return err
	}

	res, err = app.swapchainExtension.QueuePresent(app.presentQueue, khr_swapchain.PresentInfo{
		WaitSemaphores: []core1_0.Semaphore{slot.renderFinished},
		Swapchains:     []khr_swapchain.Swapchain{app.swapchain},
		ImageIndices:   []int{imageIndex},
	})
	if res == khr_swapchain.VKErrorOutOfDate || res == khr_swapchain.VKSuboptimal {
		err = app.recreateSwapchain()
		if err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	app.frames.advance()

	return nil
}
