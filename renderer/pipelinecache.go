package renderer

import (
	"bytes"
	"encoding/binary"
	"os"

	"github.com/google/uuid"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
)

// pipelineCacheHeader mirrors the layout mandated for the start of every
// pipeline cache blob:
//
//	4 bytes  length of the header
//	4 bytes  cache header version
//	4 bytes  vendor ID
//	4 bytes  device ID
//	16 bytes pipeline cache UUID
type pipelineCacheHeader struct {
	Length    uint32
	Version   core1_0.PipelineCacheHeaderVersion
	VendorID  uint32
	DeviceID  uint32
	CacheUUID uuid.UUID
}

func readPipelineCacheHeader(data []byte) (pipelineCacheHeader, error) {
	var header pipelineCacheHeader
	reader := bytes.NewReader(data)

	err := binary.Read(reader, common.ByteOrder, &header.Length)
	if err != nil {
		return header, err
	}

	err = binary.Read(reader, common.ByteOrder, &header.Version)
	if err != nil {
		return header, err
	}

	err = binary.Read(reader, common.ByteOrder, &header.VendorID)
	if err != nil {
		return header, err
	}

	err = binary.Read(reader, common.ByteOrder, &header.DeviceID)
	if err != nil {
		return header, err
	}

	err = binary.Read(reader, common.ByteOrder, &header.CacheUUID)
	return header, err
}

// pipelineCacheMatches reports whether a saved cache blob was produced by the
// device described by properties. A blob that fails any check must not be fed
// back to the driver.
func pipelineCacheMatches(data []byte, properties *core1_0.PhysicalDeviceProperties) bool {
	header, err := readPipelineCacheHeader(data)
	if err != nil {
		return false
	}

	return header.Length > 0 &&
		header.Version == core1_0.PipelineCacheHeaderVersionOne &&
		header.VendorID == properties.VendorID &&
		header.DeviceID == properties.DeviceID &&
		header.CacheUUID == properties.PipelineCacheUUID
}

// loadPipelineCacheData returns the saved cache contents for this device, or
// nil when there is nothing usable. A mismatched or corrupt file is removed
// so the next run starts clean; nothing here is ever fatal.
func (app *App) loadPipelineCacheData(properties *core1_0.PhysicalDeviceProperties) []byte {
	if app.config.PipelineCachePath == "" {
		return nil
	}

	data, err := os.ReadFile(app.config.PipelineCachePath)
	if err != nil {
		return nil
	}

	if !pipelineCacheMatches(data, properties) {
		app.log.WithField("path", app.config.PipelineCachePath).Warn("discarding stale pipeline cache")
		_ = os.Remove(app.config.PipelineCachePath)
		return nil
	}

	return data
}

func (app *App) createPipelineCache() error {
	properties, err := app.instanceDriver.GetPhysicalDeviceProperties(app.physicalDevice)
	if err != nil {
		return err
	}

	app.pipelineCache, _, err = app.deviceDriver.CreatePipelineCache(nil, core1_0.PipelineCacheCreateInfo{
		InitialData: app.loadPipelineCacheData(properties),
	})
	return err
}

func (app *App) savePipelineCache() {
	if app.config.PipelineCachePath == "" {
		return
	}

	data, _, err := app.deviceDriver.GetPipelineCacheData(app.pipelineCache)
	if err != nil {
		app.log.WithError(err).Warn("failed to read pipeline cache data")
		return
	}

	err = os.WriteFile(app.config.PipelineCachePath, data, 0666)
	if err != nil {
		app.log.WithError(err).Warn("failed to persist pipeline cache")
	}
}
