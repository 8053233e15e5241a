// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package decal

import (
	"fmt"

	"github.com/gogpu/texstack/internal/logging"
	"github.com/gogpu/texstack/texture"
)

// DefaultProperty is the texture property decals write to by default.
const DefaultProperty = "_MainTex"

// Context writes one decal source into per-material buffers through a space
// and a filter. A Context is not safe for concurrent use.
type Context[S SpaceConverter] struct {
	Space  S
	Filter TriangleFilter[S]

	// TargetProperty names the material texture the decal lands on.
	TargetProperty string
	Wrap           WrapMode

	// AutoGenerateKey allocates a writable buffer for in-scope materials
	// missing from the writable map.
	AutoGenerateKey bool

	// Padding grows every triangle by this many target pixels.
	Padding      float64
	SampleFilter texture.Filter

	raster   triangleRaster
	disposed bool
}

// ContextOption configures a Context.
type ContextOption func(*contextConfig)

type contextConfig struct {
	property string
	wrap     WrapMode
	autoKey  bool
	padding  float64
	filter   texture.Filter
}

// WithTargetProperty sets the material texture property to write.
func WithTargetProperty(name string) ContextOption {
	return func(c *contextConfig) { c.property = name }
}

// WithWrap sets the wrap mode.
func WithWrap(w WrapMode) ContextOption {
	return func(c *contextConfig) { c.wrap = w }
}

// WithAutoGenerateKey enables or disables writable buffer allocation.
func WithAutoGenerateKey(on bool) ContextOption {
	return func(c *contextConfig) { c.autoKey = on }
}

// WithPadding grows triangles by px pixels.
func WithPadding(px float64) ContextOption {
	return func(c *contextConfig) { c.padding = max(0, px) }
}

// WithSampleFilter sets how the decal source is sampled.
func WithSampleFilter(f texture.Filter) ContextOption {
	return func(c *contextConfig) { c.filter = f }
}

// NewContext returns a context writing through space and filter.
// Defaults: DefaultProperty, NotWrap, AutoGenerateKey on, no padding,
// bilinear sampling.
func NewContext[S SpaceConverter](space S, filter TriangleFilter[S], opts ...ContextOption) *Context[S] {
	cfg := contextConfig{property: DefaultProperty, autoKey: true, filter: texture.FilterBilinear}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Context[S]{
		Space:           space,
		Filter:          filter,
		TargetProperty:  cfg.property,
		Wrap:            cfg.wrap,
		AutoGenerateKey: cfg.autoKey,
		Padding:         cfg.padding,
		SampleFilter:    cfg.filter,
	}
}

// GenerateKeys adds a cleared writable buffer to writable for every
// material in materials that has the target property and no buffer yet.
// Each buffer matches the size of the material's texture.
func (c *Context[S]) GenerateKeys(writable map[*Material]*texture.Buffer, materials []*Material) error {
	for _, m := range materials {
		if _, ok := writable[m]; ok {
			continue
		}
		tex, ok := m.Texture(c.TargetProperty)
		if !ok {
			continue
		}
		buf, err := texture.NewBuffer(tex.Width(), tex.Height())
		if err != nil {
			return fmt.Errorf("decal: material %q: %w", m.Name, err)
		}
		buf.SetName(m.Name)
		writable[m] = buf
	}
	return nil
}

// WriteDecal projects source onto every sub-mesh of r whose material has
// the target property and a writable buffer.
func (c *Context[S]) WriteDecal(writable map[*Material]*texture.Buffer, r *Renderer, source *texture.Buffer) error {
	if c.disposed {
		return fmt.Errorf("%w: context disposed", ErrNotExecutable)
	}
	if c.Filter == nil {
		return fmt.Errorf("%w: no triangle filter", ErrNotExecutable)
	}
	if source == nil {
		return fmt.Errorf("%w: no decal source", ErrNotExecutable)
	}
	if r == nil {
		return fmt.Errorf("%w: nil renderer", ErrNotExecutable)
	}
	if err := r.Mesh.Validate(); err != nil {
		return fmt.Errorf("renderer %q: %w", r.Name, err)
	}

	if c.AutoGenerateKey {
		if err := c.GenerateKeys(writable, r.Materials); err != nil {
			return err
		}
	}
	targets := c.targets(writable, r)
	if len(targets) == 0 {
		return nil
	}

	if err := c.Space.Input(r.Mesh); err != nil {
		return fmt.Errorf("renderer %q: %w", r.Name, err)
	}
	c.Filter.SetSpace(c.Space)
	decalUV, err := c.Space.OutputUV()
	if err != nil {
		return fmt.Errorf("renderer %q: %w", r.Name, err)
	}

	c.raster.wrap, c.raster.filter, c.raster.padding = c.Wrap, c.SampleFilter, c.Padding
	for i, dst := range targets {
		if dst == nil {
			continue
		}
		tris, err := c.Filter.Filtered(i)
		if err != nil {
			return fmt.Errorf("renderer %q sub-mesh %d: %w", r.Name, i, err)
		}
		written := 0
		for _, tri := range tris {
			written += c.raster.draw(dst, source, tri, r.Mesh.UV, decalUV)
		}
		logging.Logger().Debug("decal: sub-mesh written",
			"renderer", r.Name, "submesh", i, "triangles", len(tris), "pixels", written)
	}
	return nil
}

// targets returns the writable buffer of each sub-mesh of r, nil where the
// sub-mesh is out of scope.
func (c *Context[S]) targets(writable map[*Material]*texture.Buffer, r *Renderer) []*texture.Buffer {
	n := min(len(r.Mesh.SubMeshes), len(r.Materials))
	out := make([]*texture.Buffer, n)
	found := false
	for i := range n {
		m := r.Materials[i]
		if _, ok := m.Texture(c.TargetProperty); !ok {
			continue
		}
		out[i] = writable[m]
		found = found || out[i] != nil
	}
	if !found {
		return nil
	}
	return out
}

// Dispose releases the space and the filter. Further WriteDecal calls fail.
// Dispose may be called more than once.
func (c *Context[S]) Dispose() {
	if c.disposed {
		return
	}
	c.disposed = true
	if c.Filter != nil {
		c.Filter.Dispose()
	}
	c.Space.Dispose()
	c.raster = triangleRaster{}
}
