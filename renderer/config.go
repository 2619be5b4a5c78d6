package renderer

// MaxFramesInFlight bounds how many frames of GPU work may be outstanding
// before the CPU blocks.
const MaxFramesInFlight = 2

// Config collects the fixed settings the renderer runs with. There is no
// runtime configuration surface beyond these values.
type Config struct {
	WindowTitle  string
	WindowWidth  int
	WindowHeight int

	// EnableValidation requires the LunarG Vulkan SDK to be installed.
	EnableValidation bool

	// ShaderDir holds the compiled vert.spv and frag.spv binaries.
	ShaderDir string

	// PipelineCachePath is where the driver pipeline cache is persisted
	// between runs. Empty disables persistence.
	PipelineCachePath string
}

// DefaultConfig returns the settings used by cmd/triangle.
func DefaultConfig() Config {
	return Config{
		WindowTitle:       "Vulkan",
		WindowWidth:       800,
		WindowHeight:      600,
		EnableValidation:  true,
		ShaderDir:         "shaders",
		PipelineCachePath: "pipeline_cache.bin",
	}
}
