// Command fakegldemo renders a scene through fakegl on the software GE and
// saves the displayed frame as a PNG.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"

	"github.com/aquaria-psp/fakegl"
	"github.com/aquaria-psp/fakegl/ge/sim"
	"github.com/aquaria-psp/fakegl/mem"
	"github.com/aquaria-psp/fakegl/tinflate"
)

func main() {
	var (
		output  = flag.String("output", "demo.png", "output file")
		frames  = flag.Int("frames", 1, "number of frames to render; the last one is saved")
		texture = flag.String("inflate", "", "DEFLATE or zlib stream of a square RGBA texture (default: checkerboard)")
		texSize = flag.Int("texsize", 64, "width and height of the -inflate texture")
		noFast  = flag.Bool("nofastpath", false, "draw full-screen quads as triangle strips")
	)
	flag.Parse()

	dev, err := sim.New(mem.NewAllocator(mem.DefaultMainSize, mem.DefaultTempSize))
	if err != nil {
		log.Fatalf("Failed to create GE: %v", err)
	}
	defer dev.Close()

	opts := []fakegl.Option{fakegl.WithDevice(dev)}
	if *noFast {
		opts = append(opts, fakegl.WithoutFastPath())
	}
	gl, err := fakegl.New(opts...)
	if err != nil {
		log.Fatalf("Failed to create context: %v", err)
	}
	defer func() {
		if err := gl.Close(); err != nil {
			log.Printf("Close: %v", err)
		}
	}()

	size := *texSize
	pixels := checkerboard(size)
	if *texture != "" {
		if pixels, err = inflateTexture(*texture, size); err != nil {
			log.Fatalf("Failed to load texture: %v", err)
		}
	}

	d := newDemo(gl, pixels, size)
	for i := 0; i < *frames; i++ {
		if err := d.frame(float32(i)); err != nil {
			log.Fatalf("Frame %d: %v", i, err)
		}
	}
	if code := gl.GetError(); code != fakegl.NoError {
		log.Printf("GL error: %v", code)
	}

	if err := dev.SavePNG(*output); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}
	w, h := gl.Size()
	log.Printf("Demo saved to %s (%dx%d, %d frames)\n", *output, w, h, *frames)
}

// inflateTexture decodes a compressed size x size RGBA texture.
func inflateTexture(path string, size int) ([]byte, error) {
	src, err := os.ReadFile(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return nil, err
	}
	want := size * size * 4
	dst := make([]byte, want)
	n, err := tinflate.Decompress(src, dst)
	if err != nil {
		return nil, fmt.Errorf("inflate %s: %w (code %d)", path, err, tinflate.Code(err))
	}
	if n != want {
		return nil, fmt.Errorf("inflate %s: %d bytes, want %d for %dx%d RGBA", path, n, want, size, size)
	}
	return dst, nil
}

func checkerboard(size int) []byte {
	p := make([]byte, size*size*4)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			o := (y*size + x) * 4
			if (x/8+y/8)%2 == 0 {
				p[o], p[o+1], p[o+2] = 240, 240, 240
			} else {
				p[o], p[o+1], p[o+2] = 40, 90, 200
			}
			p[o+3] = 255
		}
	}
	return p
}

type demo struct {
	gl      *fakegl.Context
	texture uint32
	star    uint32
}

func newDemo(gl *fakegl.Context, pixels []byte, size int) *demo {
	d := &demo{gl: gl}

	var ids [1]uint32
	gl.GenTextures(ids[:])
	d.texture = ids[0]
	gl.BindTexture(fakegl.Texture2D, d.texture)
	gl.TexImage2D(fakegl.Texture2D, 0, fakegl.RGBA, int32(size), int32(size), 0, fakegl.RGBA, fakegl.UnsignedByte, pixels)
	gl.TexParameteri(fakegl.Texture2D, fakegl.TextureMinFilter, int32(fakegl.Linear))
	gl.TexParameteri(fakegl.Texture2D, fakegl.TextureMagFilter, int32(fakegl.Linear))

	// A five-pointed star around the origin, radius 1.
	d.star = gl.GenLists(1)
	gl.NewList(d.star, fakegl.Compile)
	gl.Begin(fakegl.TriangleFan)
	gl.Color3f(1, 1, 1)
	gl.Vertex2f(0, 0)
	for i := 0; i <= 10; i++ {
		r, g := float32(1), float32(0.8)
		if i%2 == 1 {
			r, g = 0.4, 0.3
		}
		a := float64(i)*math.Pi/5 + math.Pi/2
		gl.Color3f(1, g, 0.1)
		gl.Vertex2f(r*float32(math.Cos(a)), r*float32(math.Sin(a)))
	}
	gl.End()
	gl.EndList()
	return d
}

func (d *demo) frame(t float32) error {
	gl := d.gl
	w, h := gl.Size()
	if err := gl.BeginFrame(); err != nil {
		return err
	}
	gl.ClearColor(0.1, 0.1, 0.2, 1)
	gl.Clear(fakegl.ColorBufferBit)

	gl.MatrixMode(fakegl.Projection)
	gl.LoadIdentity()
	gl.Orthof(0, float32(w), 0, float32(h), -1, 1)
	gl.MatrixMode(fakegl.Modelview)
	gl.LoadIdentity()

	// Smooth-shaded triangle.
	gl.ShadeModel(fakegl.Smooth)
	gl.Begin(fakegl.Triangles)
	gl.Color3f(1, 0, 0)
	gl.Vertex2f(40, 40)
	gl.Color3f(0, 1, 0)
	gl.Vertex2f(200, 40)
	gl.Color3f(0, 0, 1)
	gl.Vertex2f(120, 200)
	gl.End()

	// Spinning textured quad.
	gl.PushMatrix()
	gl.Translatef(320, 136, 0)
	gl.Rotatef(15+t*6, 0, 0, 1)
	gl.Enable(fakegl.Texture2D)
	gl.Begin(fakegl.Quads)
	gl.Color3f(1, 1, 1)
	gl.TexCoord2f(0, 0)
	gl.Vertex2f(-64, -64)
	gl.TexCoord2f(2, 0)
	gl.Vertex2f(64, -64)
	gl.TexCoord2f(2, 2)
	gl.Vertex2f(64, 64)
	gl.TexCoord2f(0, 2)
	gl.Vertex2f(-64, 64)
	gl.End()
	gl.Disable(fakegl.Texture2D)
	gl.PopMatrix()

	// Stars from the display list.
	for i := 0; i < 4; i++ {
		gl.PushMatrix()
		gl.Translatef(60+float32(i)*110, 235, 0)
		gl.Scalef(24, 24, 1)
		gl.Rotatef(t*10*float32(i+1), 0, 0, 1)
		gl.CallList(d.star)
		gl.PopMatrix()
	}

	// Translucent full-screen wash: drawn as sprites.
	gl.Enable(fakegl.Blend)
	gl.BlendFunc(fakegl.SrcAlpha, fakegl.OneMinusSrcAlpha)
	gl.Color4f(0.2, 0.1, 0.3, 0.15)
	gl.Begin(fakegl.Quads)
	gl.Vertex2f(0, 0)
	gl.Vertex2f(float32(w), 0)
	gl.Vertex2f(float32(w), float32(h))
	gl.Vertex2f(0, float32(h))
	gl.End()
	gl.Disable(fakegl.Blend)

	return gl.EndFrame()
}
