package fakegl

import "github.com/aquaria-psp/fakegl/ge"

// Option configures a Context during creation.
// Use functional options to customize Context behavior.
//
// Example:
//
//	// Software GE with default settings
//	gl, err := fakegl.New()
//
//	// Explicit device (dependency injection)
//	gl, err := fakegl.New(fakegl.WithDevice(dev), fakegl.WithoutFastPath())
type Option func(*config)

// config holds the settings of a Context.
type config struct {
	device          ge.Device
	frameListSize   int
	chunkSize       int
	fastPath        bool
	fastPathEpsilon float32
	swizzle         bool
	maxTextures     int
	maxLists        int
}

// Defaults.
const (
	DefaultFrameListSize   = 1 << 20
	DefaultVertexChunkSize = 16 << 10
	DefaultFastPathEpsilon = 0.001
	DefaultMaxTextures     = 4096
	DefaultMaxLists        = 4096
)

// defaultConfig returns the default context settings.
func defaultConfig() config {
	return config{
		frameListSize:   DefaultFrameListSize,
		chunkSize:       DefaultVertexChunkSize,
		fastPath:        true,
		fastPathEpsilon: DefaultFastPathEpsilon,
		swizzle:         true,
		maxTextures:     DefaultMaxTextures,
		maxLists:        DefaultMaxLists,
	}
}

// WithDevice sets the GE the context submits to. By default the best
// backend registered in ge.Backends is used.
func WithDevice(d ge.Device) Option {
	return func(c *config) {
		c.device = d
	}
}

// WithFrameListSize sets the size in bytes of the per-frame command list,
// which also holds the vertex data of immediate-mode primitives.
func WithFrameListSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.frameListSize = n
		}
	}
}

// WithVertexChunkSize sets the size of the vertex chunks display lists
// allocate while recording.
func WithVertexChunkSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.chunkSize = n
		}
	}
}

// WithFastPathEpsilon sets the tolerance, in pixels, used to decide that a
// quad covers the whole screen.
func WithFastPathEpsilon(eps float32) Option {
	return func(c *config) {
		if eps >= 0 {
			c.fastPathEpsilon = eps
		}
	}
}

// WithoutFastPath draws full-screen quads as ordinary triangle strips.
func WithoutFastPath() Option {
	return func(c *config) {
		c.fastPath = false
	}
}

// WithoutSwizzle stores every texture linearly.
func WithoutSwizzle() Option {
	return func(c *config) {
		c.swizzle = false
	}
}

// WithMaxTextures bounds the number of texture IDs alive at once.
func WithMaxTextures(n int) Option {
	return func(c *config) {
		c.maxTextures = n
	}
}

// WithMaxLists bounds the number of display list IDs alive at once.
func WithMaxLists(n int) Option {
	return func(c *config) {
		c.maxLists = n
	}
}
