package renderer

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/google/uuid"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
)

func cacheBlob(t *testing.T, vendorID, deviceID uint32, cacheUUID uuid.UUID) []byte {
	t.Helper()

	buf := &bytes.Buffer{}
	for _, field := range []interface{}{
		uint32(32),
		uint32(core1_0.PipelineCacheHeaderVersionOne),
		vendorID,
		deviceID,
		cacheUUID,
	} {
		if err := binary.Write(buf, common.ByteOrder, field); err != nil {
			t.Fatal(err)
		}
	}

	// Arbitrary driver payload after the header.
	buf.Write([]byte{0xde, 0xad, 0xbe, 0xef})
	return buf.Bytes()
}

func TestPipelineCacheMatches(t *testing.T) {
	cacheUUID := uuid.MustParse("a6e21c91-3b0d-4c52-8c6e-1f70d8a0e7b4")
	properties := &core1_0.PhysicalDeviceProperties{
		VendorID:          0x10de,
		DeviceID:          0x2684,
		PipelineCacheUUID: cacheUUID,
	}

	blob := cacheBlob(t, 0x10de, 0x2684, cacheUUID)
	if !pipelineCacheMatches(blob, properties) {
		t.Error("expected a matching cache header to be accepted")
	}
}

func TestPipelineCacheRejectsWrongDevice(t *testing.T) {
	cacheUUID := uuid.MustParse("a6e21c91-3b0d-4c52-8c6e-1f70d8a0e7b4")
	properties := &core1_0.PhysicalDeviceProperties{
		VendorID:          0x10de,
		DeviceID:          0x2684,
		PipelineCacheUUID: cacheUUID,
	}

	blob := cacheBlob(t, 0x10de, 0x1111, cacheUUID)
	if pipelineCacheMatches(blob, properties) {
		t.Error("expected a cache from another device to be rejected")
	}
}

func TestPipelineCacheRejectsWrongUUID(t *testing.T) {
	properties := &core1_0.PhysicalDeviceProperties{
		VendorID:          0x10de,
		DeviceID:          0x2684,
		PipelineCacheUUID: uuid.MustParse("a6e21c91-3b0d-4c52-8c6e-1f70d8a0e7b4"),
	}

	blob := cacheBlob(t, 0x10de, 0x2684, uuid.MustParse("00000000-0000-0000-0000-000000000001"))
	if pipelineCacheMatches(blob, properties) {
		t.Error("expected a cache with a different UUID to be rejected")
	}
}

func TestPipelineCacheRejectsTruncatedBlob(t *testing.T) {
	properties := &core1_0.PhysicalDeviceProperties{}

	if pipelineCacheMatches([]byte{1, 2, 3}, properties) {
		t.Error("expected a truncated cache blob to be rejected")
	}
}
