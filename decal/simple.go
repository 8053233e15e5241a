// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package decal

import (
	"fmt"

	"github.com/flywave/go3d/float64/mat4"
	"github.com/flywave/go3d/float64/vec2"
	"github.com/flywave/go3d/float64/vec3"

	"github.com/gogpu/texstack/blend"
	"github.com/gogpu/texstack/texture"
)

// ApplyOption configures how a decal is applied.
type ApplyOption func(*applyConfig)

type applyConfig struct {
	pool      *texture.Pool
	spaceOpts []SpaceOption
}

func newApplyConfig(opts []ApplyOption) applyConfig {
	cfg := applyConfig{pool: texture.DefaultPool()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithBufferPool sets the pool scratch buffers come from.
func WithBufferPool(p *texture.Pool) ApplyOption {
	return func(c *applyConfig) {
		if p != nil {
			c.pool = p
		}
	}
}

// WithSpaceOptions passes opts to the decal's space converter.
func WithSpaceOptions(opts ...SpaceOption) ApplyOption {
	return func(c *applyConfig) { c.spaceOpts = append(c.spaceOpts, opts...) }
}

// SimpleDecal projects an image along a box.
//
// The box is centered on Position in x and y, spans Scale in width and
// height, and extends MaxDistance along Forward. Triangles beyond the box,
// fully in front of it, or missing its footprint are culled.
type SimpleDecal struct {
	Source    *texture.Buffer
	Renderers []*Renderer

	Position vec3.T
	Forward  vec3.T
	Up       vec3.T
	Scale    vec2.T

	// MaxDistance is the depth of the projection box.
	MaxDistance float64

	// FixedAspect derives the height from the width and the source's aspect.
	FixedAspect bool

	SideCulling    bool
	PolygonCulling PolygonCulling

	// IslandCulling keeps only islands hit by a ray cast from
	// IslandSelectorPos on the decal face, IslandSelectorRange box depths
	// long.
	IslandCulling       bool
	IslandSelectorPos   vec2.T
	IslandSelectorRange float64

	Color          texture.RGBA
	BlendKey       string
	TargetProperty string
	Padding        float64
}

// NewSimpleDecal returns a unit decal looking down +z with the defaults:
// fixed aspect, side culling, vertex polygon culling, white tint and
// normal blending onto DefaultProperty.
func NewSimpleDecal(source *texture.Buffer, renderers ...*Renderer) *SimpleDecal {
	return &SimpleDecal{
		Source:              source,
		Renderers:           renderers,
		Forward:             vec3.T{0, 0, 1},
		Up:                  vec3.T{0, 1, 0},
		Scale:               vec2.T{1, 1},
		MaxDistance:         1,
		FixedAspect:         true,
		SideCulling:         true,
		PolygonCulling:      PolygonVertex,
		IslandSelectorPos:   vec2.T{0.5, 0.5},
		IslandSelectorRange: 1,
		Color:               texture.White,
		BlendKey:            blend.KeyDefault,
		TargetProperty:      DefaultProperty,
	}
}

// Property returns the texture property the decal writes.
func (d *SimpleDecal) Property() string { return d.TargetProperty }

// Key returns the blend key.
func (d *SimpleDecal) Key() string { return d.BlendKey }

// Targets returns the materials of the decal's renderers that have the
// target property, each once.
func (d *SimpleDecal) Targets() []*Material {
	return materialsWith(d.Renderers, d.TargetProperty, nil)
}

// LocalToWorld returns the projection box transform.
func (d *SimpleDecal) LocalToWorld() (mat4.T, error) {
	right, up, fwd, err := LookBasis(d.Forward, d.Up)
	if err != nil {
		return mat4.T{}, err
	}
	sx, sy := d.Scale[0], d.Scale[1]
	if d.FixedAspect && d.Source != nil {
		sy = sx * float64(d.Source.Height()) / float64(d.Source.Width())
	}
	return TRS(d.Position, right, up, fwd, vec3.T{sx, sy, d.MaxDistance}), nil
}

// Cullers returns the cullers the decal filters triangles with.
func (d *SimpleDecal) Cullers() []TriangleCuller {
	cullers := []TriangleCuller{
		FarCulling{Far: 1},
		NearCulling{Near: 0, AllVertices: true},
	}
	if d.SideCulling {
		cullers = append(cullers, SideCulling{})
	}
	return append(cullers, OutOfPolygonCulling{Mode: d.PolygonCulling})
}

// Selector returns the island selector ray, or nil without island culling.
func (d *SimpleDecal) Selector() (IslandSelector, error) {
	if !d.IslandCulling {
		return nil, nil
	}
	l2w, err := d.LocalToWorld()
	if err != nil {
		return nil, err
	}
	origin := transformPoint(&l2w, vec3.T{d.IslandSelectorPos[0] - 0.5, d.IslandSelectorPos[1] - 0.5, 0})
	return RaySelector{
		Origin:      origin,
		Direction:   normalize(d.Forward),
		MaxDistance: d.MaxDistance * d.IslandSelectorRange,
	}, nil
}

// Space returns the decal's projection space.
func (d *SimpleDecal) Space(opts ...SpaceOption) (*ParallelProjectionSpace, error) {
	l2w, err := d.LocalToWorld()
	if err != nil {
		return nil, err
	}
	return NewParallelProjectionSpaceFromLocal(l2w, opts...)
}

// Filter returns the decal's triangle filter.
func (d *SimpleDecal) Filter() (TriangleFilter[*ParallelProjectionSpace], error) {
	sel, err := d.Selector()
	if err != nil {
		return nil, err
	}
	if sel != nil {
		return NewIslandCullingFilter(sel, d.Cullers()...), nil
	}
	return NewProjectionFilter(d.Cullers()...), nil
}

func (d *SimpleDecal) validate() error {
	if d.Source == nil {
		return fmt.Errorf("%w: decal has no source", ErrNotExecutable)
	}
	if d.MaxDistance <= 0 {
		return fmt.Errorf("%w: max distance %v", ErrNotExecutable, d.MaxDistance)
	}
	return nil
}

// tinted returns the source multiplied by the decal color and a func
// releasing it.
func (d *SimpleDecal) tinted(pool *texture.Pool) (*texture.Buffer, func(), error) {
	if d.Color == texture.White {
		return d.Source, func() {}, nil
	}
	buf, err := pool.AcquireCopy(d.Source)
	if err != nil {
		return nil, nil, fmt.Errorf("decal: tint: %w", err)
	}
	blend.MultiplyByColor(buf, d.Color)
	return buf, func() { _ = pool.Release(buf) }, nil
}

// Apply projects the decal and returns one blend pair per target material.
func (d *SimpleDecal) Apply(opts ...ApplyOption) (map[*Material]BlendPair, error) {
	if err := d.validate(); err != nil {
		return nil, err
	}
	cfg := newApplyConfig(opts)
	space, err := d.Space(cfg.spaceOpts...)
	if err != nil {
		return nil, err
	}
	filter, err := d.Filter()
	if err != nil {
		return nil, err
	}
	src, release, err := d.tinted(cfg.pool)
	if err != nil {
		return nil, err
	}
	defer release()

	targets := make(map[*Material]string)
	for _, m := range d.Targets() {
		targets[m] = d.TargetProperty
	}
	return Project(d.Renderers, space, filter, src, targets, d.BlendKey, WithPadding(d.Padding))
}

// Compile writes the decal into caller-owned writable buffers. Materials
// without a buffer are skipped.
func (d *SimpleDecal) Compile(writable map[*Material]*texture.Buffer, opts ...ApplyOption) error {
	if err := d.validate(); err != nil {
		return err
	}
	cfg := newApplyConfig(opts)
	space, err := d.Space(cfg.spaceOpts...)
	if err != nil {
		return err
	}
	filter, err := d.Filter()
	if err != nil {
		return err
	}
	src, release, err := d.tinted(cfg.pool)
	if err != nil {
		return err
	}
	defer release()

	ctx := NewContext(space, filter,
		WithTargetProperty(d.TargetProperty),
		WithAutoGenerateKey(false),
		WithPadding(d.Padding))
	defer ctx.Dispose()
	for _, r := range d.Renderers {
		if err := ctx.WriteDecal(writable, r, src); err != nil {
			return err
		}
	}
	return nil
}

// materialsWith returns the distinct materials of renderers that have
// property, restricted to allow when it is non-nil.
func materialsWith(renderers []*Renderer, property string, allow map[*Material]bool) []*Material {
	seen := make(map[*Material]bool)
	var out []*Material
	for _, r := range renderers {
		if r == nil {
			continue
		}
		for _, m := range r.Materials {
			if m == nil || seen[m] {
				continue
			}
			if allow != nil && !allow[m] {
				continue
			}
			if _, ok := m.Texture(property); !ok {
				continue
			}
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}
