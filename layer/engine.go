// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package layer

import (
	"fmt"
	"math/bits"

	"github.com/gogpu/texstack/blend"
	"github.com/gogpu/texstack/internal/logging"
	"github.com/gogpu/texstack/texture"
)

// Engine evaluates layer trees. An Engine holds no per-call state and may
// be used from several goroutines, each evaluation being sequential.
type Engine struct {
	pool *texture.Pool
	reg  *blend.Registry
}

// Option configures an Engine.
type Option func(*Engine)

// WithPool sets the pool temporaries are acquired from.
func WithPool(p *texture.Pool) Option {
	return func(e *Engine) {
		if p != nil {
			e.pool = p
		}
	}
}

// WithRegistry sets the blend registry.
func WithRegistry(r *blend.Registry) Option {
	return func(e *Engine) {
		if r != nil {
			e.reg = r
		}
	}
}

// NewEngine creates an Engine using the default pool and registry unless
// overridden.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		pool: texture.DefaultPool(),
		reg:  blend.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Pool returns the pool the engine acquires temporaries from.
func (e *Engine) Pool() *texture.Pool { return e.pool }

// Registry returns the engine's blend registry.
func (e *Engine) Registry() *blend.Registry { return e.reg }

// Evaluate flattens layers, listed front to back, onto a transparent
// canvasSize x canvasSize canvas. The result is owned by the caller.
//
// The tree is validated first, so precondition failures never acquire a
// buffer. Every temporary acquired during the call is released on return,
// whether or not it succeeds.
func (e *Engine) Evaluate(layers []Layer, canvasSize int) (*texture.Buffer, error) {
	if canvasSize <= 0 {
		return nil, fmt.Errorf("%w: canvas size %d", ErrNotExecutable, canvasSize)
	}
	if err := Validate(layers, e.reg); err != nil {
		return nil, err
	}

	c, err := NewCanvas(e.pool, e.reg, canvasSize)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	if err := e.evaluateList(c, layers); err != nil {
		return nil, err
	}
	return c.FinalizeCanvas()
}

// evaluateList feeds layers bottom-up: the last element first.
func (e *Engine) evaluateList(c *Canvas, layers []Layer) error {
	for i := len(layers) - 1; i >= 0; i-- {
		aboveClips := i > 0 && clipsOnto(layers[i-1])
		if err := e.evaluate(c, layers[i], aboveClips); err != nil {
			return err
		}
	}
	return nil
}

// clipsOnto reports whether l will clip onto the layer below it.
func clipsOnto(l Layer) bool {
	p := l.props()
	return p.Visible && p.Clipping
}

func (e *Engine) evaluate(c *Canvas, l Layer, aboveClips bool) error {
	switch v := l.(type) {
	case *Raster:
		return e.evaluateRaster(c, v)
	case *Folder:
		return e.evaluateFolder(c, v, aboveClips)
	default:
		return fmt.Errorf("%w: unknown layer type %T", ErrNotExecutable, l)
	}
}

func (e *Engine) evaluateRaster(c *Canvas, r *Raster) error {
	if !r.Visible {
		return c.AddLayer(NullLayer(false, r.Clipping))
	}
	tex, err := e.pool.Acquire(c.Size(), c.Size())
	if err != nil {
		return fmt.Errorf("layer %q: %w", r.Name, err)
	}
	tex.SetName(r.Name)
	tex.BlitFrom(r.Texture)
	blend.MultiplyAlpha(tex, r.Opacity)
	if r.Mask.Active() {
		blend.MaskDraw(tex, r.Mask.Texture)
	}

	logging.Logger().Debug("layer: raster", "name", r.Name, "key", r.Key(), "clipping", r.Clipping)
	return c.AddLayer(BlendLayer{Texture: tex, BlendKey: r.Key(), ThisClipping: r.Clipping})
}

func (e *Engine) evaluateFolder(c *Canvas, f *Folder, aboveClips bool) error {
	if !f.Visible {
		return c.AddLayer(NullLayer(false, f.Clipping))
	}
	if len(f.Children) == 0 {
		logging.Logger().Warn("layer: empty folder skipped", "name", f.Name)
		return nil
	}

	if f.PassThrough && !f.Clipping && !aboveClips {
		return e.inlineFolder(c, f)
	}
	// The clip target is the folder's own content, never a grab of the
	// canvas, which would include the layers below the folder.
	if f.PassThrough && aboveClips {
		logging.Logger().Debug("layer: pass-through folder flattened for clipping", "name", f.Name)
	}
	return e.flattenFolder(c, f)
}

// inlineFolder merges a pass-through folder's children into c's stack under
// the folder's opacity and mask.
func (e *Engine) inlineFolder(c *Canvas, f *Folder) error {
	mod := AlphaMod{Opacity: f.Opacity}
	if f.Mask.Active() {
		mod.Mask = f.Mask.Texture
	}
	exit, err := c.EnterAlphaMod(mod)
	if err != nil {
		return fmt.Errorf("folder %q: %w", f.Name, err)
	}
	defer exit()

	// Children must not clip onto layers outside the folder.
	if err := c.AddLayer(barrier()); err != nil {
		return err
	}
	return e.evaluateList(c, f.Children)
}

// flattenFolder evaluates the children on an isolated canvas and adds the
// result as a single layer.
func (e *Engine) flattenFolder(c *Canvas, f *Folder) error {
	sub, err := NewCanvas(e.pool, e.reg, c.Size())
	if err != nil {
		return fmt.Errorf("folder %q: %w", f.Name, err)
	}
	defer sub.Close()
	sub.firstNotBlend = true

	if err := e.evaluateList(sub, f.Children); err != nil {
		return err
	}
	tex, err := sub.finish()
	if err != nil {
		return err
	}
	if sub.Resolved() == 0 {
		c.release(tex)
		return c.AddLayer(NullLayer(false, f.Clipping))
	}

	tex.SetName(f.Name)
	blend.MultiplyAlpha(tex, f.Opacity)
	if f.Mask.Active() {
		blend.MaskDraw(tex, f.Mask.Texture)
	}
	key := f.Key()
	if f.PassThrough && !f.Clipping {
		key = blend.KeyDefault
	}
	return c.AddLayer(BlendLayer{Texture: tex, BlendKey: key, ThisClipping: f.Clipping})
}

// NormalizePowOfTwo returns v if it is a power of two, otherwise the closer
// of the two enclosing powers of two. Exact ties resolve to the larger one.
// Values below 1 map to 1.
func NormalizePowOfTwo(v int) int {
	if v <= 1 {
		return 1
	}
	if v&(v-1) == 0 {
		return v
	}
	next := 1 << bits.Len(uint(v))
	closest := next >> 1
	switch {
	case next-v < v-closest:
		return next
	case next-v == v-closest:
		logging.Logger().Debug("layer: canvas size tie resolved upward", "size", v, "to", next)
		return next
	}
	return closest
}
