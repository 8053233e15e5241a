// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package decal

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/flywave/go3d/float64/mat4"

	"github.com/gogpu/texstack/blend"
	"github.com/gogpu/texstack/texture"
)

// gradientWidth is the resolution a gradient is baked at.
const gradientWidth = 256

// GradientStop is a color at a position in [0, 1].
type GradientStop struct {
	Pos   float64
	Color texture.RGBA
}

// Gradient is a piecewise linear color ramp. Stops need not be sorted.
type Gradient []GradientStop

// Evaluate returns the color at t. Outside the stops the nearest end color
// is returned. An empty gradient is transparent.
func (g Gradient) Evaluate(t float64) texture.RGBA {
	if len(g) == 0 {
		return texture.Transparent
	}
	stops := slices.SortedStableFunc(slices.Values(g), func(a, b GradientStop) int {
		return cmp.Compare(a.Pos, b.Pos)
	})
	return evaluate(stops, t)
}

func evaluate(stops []GradientStop, t float64) texture.RGBA {
	if t <= stops[0].Pos {
		return stops[0].Color
	}
	for i := 1; i < len(stops); i++ {
		a, b := stops[i-1], stops[i]
		if t > b.Pos {
			continue
		}
		span := b.Pos - a.Pos
		if span <= 0 {
			return b.Color
		}
		f := (t - a.Pos) / span
		return texture.RGBA{
			R: a.Color.R + (b.Color.R-a.Color.R)*f,
			G: a.Color.G + (b.Color.G-a.Color.G)*f,
			B: a.Color.B + (b.Color.B-a.Color.B)*f,
			A: a.Color.A + (b.Color.A-a.Color.A)*f,
		}
	}
	return stops[len(stops)-1].Color
}

// Texture bakes the gradient into a 256x1 buffer, pixel i holding the
// color at i/255.
func (g Gradient) Texture() (*texture.Buffer, error) {
	buf, err := texture.NewBuffer(gradientWidth, 1)
	if err != nil {
		return nil, err
	}
	if len(g) == 0 {
		return buf, nil
	}
	stops := slices.SortedStableFunc(slices.Values(g), func(a, b GradientStop) int {
		return cmp.Compare(a.Pos, b.Pos)
	})
	for i := range gradientWidth {
		buf.Set(i, 0, evaluate(stops, float64(i)/(gradientWidth-1)))
	}
	return buf, nil
}

// GradationDecal paints a gradient along the local y axis of Transform onto
// the selected islands of the target materials.
type GradationDecal struct {
	Renderers []*Renderer

	// Materials limits the decal to these materials.
	Materials []*Material

	// Transform is the gradient's local-to-world matrix. The gradient runs
	// from local y = 0 to y = 1.
	Transform mat4.T
	Gradient  Gradient

	// Selector picks the islands to paint. Nil paints every island.
	Selector IslandSelector

	BlendKey       string
	TargetProperty string
}

// NewGradationDecal returns a decal painting gradient onto materials of
// renderers, with an identity transform.
func NewGradationDecal(gradient Gradient, materials []*Material, renderers ...*Renderer) *GradationDecal {
	return &GradationDecal{
		Renderers:      renderers,
		Materials:      materials,
		Transform:      mat4.Ident,
		Gradient:       gradient,
		BlendKey:       blend.KeyDefault,
		TargetProperty: DefaultProperty,
	}
}

// Property returns the texture property the decal writes.
func (d *GradationDecal) Property() string { return d.TargetProperty }

// Key returns the blend key.
func (d *GradationDecal) Key() string { return d.BlendKey }

// Targets returns the decal's materials that its renderers use and that
// have the target property.
func (d *GradationDecal) Targets() []*Material {
	allow := make(map[*Material]bool, len(d.Materials))
	for _, m := range d.Materials {
		allow[m] = true
	}
	return materialsWith(d.Renderers, d.TargetProperty, allow)
}

func (d *GradationDecal) prepare(cfg applyConfig) (*SingleGradientSpace, *IslandSelectFilter[*SingleGradientSpace], *texture.Buffer, error) {
	if len(d.Gradient) == 0 {
		return nil, nil, nil, fmt.Errorf("%w: empty gradient", ErrNotExecutable)
	}
	w2l, err := Invert(d.Transform)
	if err != nil {
		return nil, nil, nil, err
	}
	tex, err := d.Gradient.Texture()
	if err != nil {
		return nil, nil, nil, err
	}
	space := NewSingleGradientSpace(w2l, cfg.spaceOpts...)
	return space, NewIslandSelectFilter[*SingleGradientSpace](d.Selector), tex, nil
}

// Apply projects the gradient and returns one blend pair per target
// material.
func (d *GradationDecal) Apply(opts ...ApplyOption) (map[*Material]BlendPair, error) {
	space, filter, tex, err := d.prepare(newApplyConfig(opts))
	if err != nil {
		return nil, err
	}
	targets := make(map[*Material]string)
	for _, m := range d.Targets() {
		targets[m] = d.TargetProperty
	}
	return Project[*SingleGradientSpace](d.Renderers, space, filter, tex, targets, d.BlendKey, WithWrap(NotWrap))
}

// Compile writes the gradient into caller-owned writable buffers.
func (d *GradationDecal) Compile(writable map[*Material]*texture.Buffer, opts ...ApplyOption) error {
	space, filter, tex, err := d.prepare(newApplyConfig(opts))
	if err != nil {
		return err
	}
	ctx := NewContext[*SingleGradientSpace](space, filter,
		WithTargetProperty(d.TargetProperty),
		WithWrap(NotWrap),
		WithAutoGenerateKey(false))
	defer ctx.Dispose()

	allow := make(map[*Material]bool)
	for _, m := range d.Targets() {
		allow[m] = true
	}
	scoped := make(map[*Material]*texture.Buffer)
	for m, buf := range writable {
		if allow[m] {
			scoped[m] = buf
		}
	}
	for _, r := range d.Renderers {
		if !r.Uses(allow) {
			continue
		}
		if err := ctx.WriteDecal(scoped, r, tex); err != nil {
			return err
		}
	}
	return nil
}
