// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package layer

import (
	"errors"
	"fmt"

	"github.com/gogpu/texstack/blend"
	"github.com/gogpu/texstack/internal/logging"
	"github.com/gogpu/texstack/texture"
)

// ErrCanvasClosed is returned when a finalized or closed canvas is used.
var ErrCanvasClosed = errors.New("layer: canvas closed")

// BlendLayer is a resolved layer ready for compositing.
// Texture, when set, is a temporary whose ownership moves to the canvas
// on AddLayer.
type BlendLayer struct {
	NotVisible       bool
	DisallowClipping bool
	ThisClipping     bool
	Texture          *texture.Buffer
	BlendKey         string // empty: nothing to composite
	AlphaKeep        bool
}

// NullLayer returns an invisible placeholder.
func NullLayer(disallowClipping, clipping bool) BlendLayer {
	return BlendLayer{NotVisible: true, DisallowClipping: disallowClipping, ThisClipping: clipping}
}

// barrier is a visible placeholder no layer can clip onto.
func barrier() BlendLayer {
	return BlendLayer{DisallowClipping: true}
}

// AlphaMod is the opacity and mask inherited from ancestor folders.
type AlphaMod struct {
	Mask    *texture.Buffer
	Opacity float64
}

// NoAlphaMod leaves layers untouched.
var NoAlphaMod = AlphaMod{Opacity: 1}

type modFrame struct {
	mod      AlphaMod
	ownsMask bool
}

// Canvas accumulates blend layers into one square buffer.
//
// It keeps a single pending layer, the before layer, which clipping layers
// are drawn into until a non-clipping layer arrives and the before layer is
// composited onto the canvas. A Canvas must end with FinalizeCanvas or Close.
type Canvas struct {
	pool *texture.Pool
	reg  *blend.Registry

	canvas    *texture.Buffer
	before    BlendLayer
	beforeMod AlphaMod

	mods            []modFrame
	awaitingRelease []*texture.Buffer

	// firstNotBlend forces the first composite to replace the canvas.
	firstNotBlend bool
	resolved      int
	closed        bool
}

// NewCanvas acquires a cleared size x size canvas from pool.
func NewCanvas(pool *texture.Pool, reg *blend.Registry, size int) (*Canvas, error) {
	buf, err := pool.Acquire(size, size)
	if err != nil {
		return nil, fmt.Errorf("layer: canvas: %w", err)
	}
	buf.SetName("canvas")
	return &Canvas{
		pool:      pool,
		reg:       reg,
		canvas:    buf,
		before:    barrier(),
		beforeMod: NoAlphaMod,
	}, nil
}

// Size returns the canvas edge length.
func (c *Canvas) Size() int { return c.canvas.Width() }

// Resolved returns how many layers have been composited so far.
func (c *Canvas) Resolved() int { return c.resolved }

// CurrentAlphaMod returns the innermost active alpha modifier.
func (c *Canvas) CurrentAlphaMod() AlphaMod {
	if len(c.mods) == 0 {
		return NoAlphaMod
	}
	return c.mods[len(c.mods)-1].mod
}

// AddLayer feeds the next layer, bottom to top, into the canvas.
// The canvas takes ownership of l.Texture even when an error is returned.
func (c *Canvas) AddLayer(l BlendLayer) error {
	if c.closed {
		c.release(l.Texture)
		return ErrCanvasClosed
	}
	if !l.ThisClipping {
		return c.composite(l)
	}

	switch {
	case l.NotVisible:
		// A hidden clipping layer vanishes.
		c.release(l.Texture)
		return nil
	case c.before.DisallowClipping:
		l.ThisClipping = false
		return c.composite(l)
	case c.before.NotVisible || c.before.Texture == nil:
		logging.Logger().Warn("layer: clipping target hidden, clip layer discarded")
		c.release(l.Texture)
		return nil
	}
	return c.clip(l)
}

// clip draws l into the pending before layer, inside its alpha footprint.
func (c *Canvas) clip(l BlendLayer) error {
	defer c.release(l.Texture)
	if l.Texture == nil || l.BlendKey == "" {
		return nil
	}
	applyAlphaMod(l.Texture, c.beforeMod)

	target := c.before.Texture
	snapshot, err := c.pool.AcquireCopy(target)
	if err != nil {
		return fmt.Errorf("layer: clip snapshot: %w", err)
	}
	defer c.release(snapshot)

	blend.AlphaSetOpaque(target)
	err = c.reg.Blend(target, l.Texture, l.BlendKey)
	blend.AlphaCopy(snapshot, target)
	return err
}

// composite flushes the pending before layer onto the canvas and makes next
// the new before layer.
func (c *Canvas) composite(next BlendLayer) error {
	prev, prevMod := c.before, c.beforeMod
	c.before, c.beforeMod = next, c.CurrentAlphaMod()

	var err error
	if prev.Texture != nil && prev.BlendKey != "" {
		applyAlphaMod(prev.Texture, prevMod)

		key := prev.BlendKey
		if c.firstNotBlend && c.resolved == 0 {
			key = blend.KeyNotBlend
		}
		if prev.AlphaKeep {
			err = c.reg.BlendAlphaKeep(c.canvas, prev.Texture, key)
		} else {
			err = c.reg.Blend(c.canvas, prev.Texture, key)
		}
		c.resolved++
	}
	c.release(prev.Texture)
	c.releaseAwaiting()
	return err
}

func applyAlphaMod(buf *texture.Buffer, mod AlphaMod) {
	if mod.Mask != nil {
		blend.MaskDraw(buf, mod.Mask)
	}
	blend.MultiplyAlpha(buf, mod.Opacity)
}

// EnterAlphaMod pushes mod, combined with the current modifier, and returns
// the func that pops it. The exit func must be called exactly once, usually
// deferred right after a successful enter.
//
// mod.Mask is read, not retained: the combined mask is a canvas-sized
// temporary owned by the stack frame.
func (c *Canvas) EnterAlphaMod(mod AlphaMod) (exit func(), err error) {
	if c.closed {
		return func() {}, ErrCanvasClosed
	}
	parent := c.CurrentAlphaMod()
	frame := modFrame{mod: AlphaMod{Opacity: mod.Opacity * parent.Opacity, Mask: parent.Mask}}

	if mod.Mask != nil {
		mask, err := c.pool.Acquire(c.Size(), c.Size())
		if err != nil {
			return func() {}, fmt.Errorf("layer: alpha mod mask: %w", err)
		}
		mask.BlitFrom(mod.Mask)
		if parent.Mask != nil {
			blend.MaskDraw(mask, parent.Mask)
		}
		frame.mod.Mask = mask
		frame.ownsMask = true
	}

	c.mods = append(c.mods, frame)
	depth := len(c.mods)
	return func() { c.exitAlphaMod(depth) }, nil
}

func (c *Canvas) exitAlphaMod(depth int) {
	if len(c.mods) != depth {
		return
	}
	frame := c.mods[depth-1]
	c.mods = c.mods[:depth-1]
	if !frame.ownsMask {
		return
	}
	// The pending layer may still need the mask when it is composited.
	if c.beforeMod.Mask == frame.mod.Mask {
		c.awaitingRelease = append(c.awaitingRelease, frame.mod.Mask)
		return
	}
	c.release(frame.mod.Mask)
}

// GrabCanvas returns a temporary copy, alpha forced opaque, of what a layer
// added next would draw onto. With forClipping set and a pending layer that
// accepts clipping, that is the pending layer itself; a hidden pending layer
// yields nil. Otherwise the pending layer is composited first and the copy
// is of the whole canvas. The caller releases the copy.
//
// Engine does not grab; GrabCanvas serves callers that feed a Canvas with
// layers sampling what lies beneath them.
func (c *Canvas) GrabCanvas(forClipping bool) (*texture.Buffer, error) {
	if c.closed {
		return nil, ErrCanvasClosed
	}
	if forClipping && !c.before.DisallowClipping {
		if c.before.NotVisible || c.before.Texture == nil {
			return nil, nil
		}
		grab, err := c.pool.AcquireCopy(c.before.Texture)
		if err != nil {
			return nil, err
		}
		blend.AlphaSetOpaque(grab)
		return grab, nil
	}

	if err := c.composite(barrier()); err != nil {
		return nil, err
	}
	grab, err := c.pool.AcquireCopy(c.canvas)
	if err != nil {
		return nil, err
	}
	blend.AlphaSetOpaque(grab)
	return grab, nil
}

// finish composites the pending layer and hands the canvas temporary to the
// caller. The Canvas is closed afterwards.
func (c *Canvas) finish() (*texture.Buffer, error) {
	if c.closed {
		return nil, ErrCanvasClosed
	}
	if err := c.composite(NullLayer(false, false)); err != nil {
		c.Close()
		return nil, err
	}
	buf := c.canvas
	c.canvas = nil
	c.Close()
	return buf, nil
}

// FinalizeCanvas composites any pending layer and returns the canvas.
// The returned buffer is owned by the caller, not the pool.
func (c *Canvas) FinalizeCanvas() (*texture.Buffer, error) {
	buf, err := c.finish()
	if err != nil {
		return nil, err
	}
	return c.pool.Detach(buf)
}

// Close releases every temporary the canvas still holds.
// It is safe to call at any time and more than once.
func (c *Canvas) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.release(c.before.Texture)
	c.before = NullLayer(false, false)
	for _, f := range c.mods {
		if f.ownsMask {
			c.release(f.mod.Mask)
		}
	}
	c.mods = nil
	c.releaseAwaiting()
	c.release(c.canvas)
	c.canvas = nil
}

func (c *Canvas) releaseAwaiting() {
	for _, m := range c.awaitingRelease {
		c.release(m)
	}
	c.awaitingRelease = c.awaitingRelease[:0]
}

func (c *Canvas) release(buf *texture.Buffer) {
	if buf == nil {
		return
	}
	if err := c.pool.Release(buf); err != nil {
		logging.Logger().Warn("layer: release temporary", "err", err)
	}
}
