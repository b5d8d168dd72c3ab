// Package fakegl provides a subset of OpenGL 1.x on top of the PSP
// Graphics Engine (GE).
//
// # Overview
//
// fakegl lets engine code written against fixed-function GL drive the GE.
// GL calls update a shadow copy of the GL state; draws translate that state
// into GE command words appended to a per-frame command list, which a
// ge.Device executes asynchronously. The software GE in package ge/sim
// renders into memory and is the default backend.
//
// # Quick Start
//
//	import "github.com/aquaria-psp/fakegl"
//
//	gl, err := fakegl.New()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer gl.Close()
//
//	gl.BeginFrame()
//	gl.ClearColor(0, 0, 0.2, 1)
//	gl.Clear(fakegl.ColorBufferBit)
//	gl.Begin(fakegl.Triangles)
//	gl.Color3f(1, 0, 0)
//	gl.Vertex2f(-0.5, -0.5)
//	gl.Vertex2f(0.5, -0.5)
//	gl.Vertex2f(0, 0.5)
//	gl.End()
//	gl.EndFrame()
//
// # Frames
//
// Commands that draw or change draw state need an emitting context: a frame
// opened by BeginFrame or BeginOffscreenFrame, or a display list being
// compiled. EndFrame submits the frame. Resources deleted while a frame may
// still be executing are freed when the next frame begins.
//
// # Errors
//
// Invalid calls never panic. They record a GL error code, retrieved and
// cleared by GetError, and leave the state unchanged. Device failures are
// returned as Go errors by the frame calls. Panics indicate a bug in
// fakegl itself.
//
// # Coordinate System
//
// GL conventions apply: window coordinates have their origin at the bottom
// left, matrices are column-major and multiplied on the right.
//
// # Limitations
//
// There is no depth buffer, no mipmapping and a single texture unit. Only
// the first four lights exist. Display lists record texture addresses, so
// redefining a texture used by a compiled list requires recompiling it.
package fakegl

// Version information
const (
	// Version is the current version of the library
	Version = "0.4.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 4

	// VersionPatch is the patch version
	VersionPatch = 0
)
