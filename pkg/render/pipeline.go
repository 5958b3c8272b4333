package render

import (
	"fmt"
	"io"
	"sync"

	"github.com/taigrr/prism/pkg/scene"
)

// Pipeline runs the full frame path: geometry processing and clipping,
// rasterization, depth compositing, lighting, and double-buffered
// presentation. Frames render into the back buffer; Swap makes the finished
// frame visible by exchanging pointers, never by copying pixels.
type Pipeline struct {
	clipper *Clipper
	raster  *Rasterizer
	gbuffer *GBuffer

	LightMode  scene.LightMode
	Background Color

	mu    sync.Mutex
	front Buffer
	back  Buffer
}

// NewPipeline creates a pipeline rendering into two same-sized buffers.
func NewPipeline(front, back Buffer) (*Pipeline, error) {
	fw, fh := front.Size()
	bw, bh := back.Size()
	if fw != bw || fh != bh {
		return nil, fmt.Errorf("pipeline: buffer sizes differ: %dx%d vs %dx%d", fw, fh, bw, bh)
	}

	raster, err := NewRasterizer(fw, fh)
	if err != nil {
		return nil, err
	}
	gbuf, err := NewGBuffer(fw, fh)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		clipper:    NewClipper(),
		raster:     raster,
		gbuffer:    gbuf,
		Background: ColorBlack,
		front:      front,
		back:       back,
	}, nil
}

// Clipper exposes the pipeline's triangle clipper for configuration.
func (p *Pipeline) Clipper() *Clipper {
	return p.clipper
}

// RenderFrame renders the scene into the back buffer and swaps it to front.
func (p *Pipeline) RenderFrame(s *scene.Scene) {
	back := p.Back()
	back.Clear()
	p.gbuffer.Clear(p.Background)

	p.clipper.UpdateFrustumPlanes(s.Camera.FrustumPlanes())

	geo := processGeometry(s, p.clipper)
	frags := p.raster.Rasterize(geo)
	p.gbuffer.Apply(frags)
	lightingPass(p.gbuffer, back, s, p.LightMode)

	p.Swap()
}

// Front returns the buffer holding the last completed frame.
func (p *Pipeline) Front() Buffer {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.front
}

// Back returns the buffer the next frame renders into.
func (p *Pipeline) Back() Buffer {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.back
}

// Swap exchanges the front and back buffer pointers.
func (p *Pipeline) Swap() {
	p.mu.Lock()
	p.front, p.back = p.back, p.front
	p.mu.Unlock()
}

// Present writes the front buffer to w in its native format.
func (p *Pipeline) Present(w io.Writer) error {
	return p.Front().Present(w)
}
