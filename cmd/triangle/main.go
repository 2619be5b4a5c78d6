package main

import (
	"runtime"

	"github.com/sirupsen/logrus"

	"github.com/Tonsak09/vulkan-triangle/renderer"
)

func init() {
	// SDL and the Vulkan loader both require the main OS thread.
	runtime.LockOSThread()
}

func main() {
	log := logrus.New()

	app := renderer.New(renderer.DefaultConfig(), log)
	if err := app.Run(); err != nil {
		log.Fatalf("%+v", err)
	}
}
