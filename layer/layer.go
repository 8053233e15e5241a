// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package layer evaluates a tree of raster and folder layers into one
// flattened canvas.
//
// Layers are listed front to back: index 0 is the topmost layer and is
// composited last. Each evaluation is sequential and order dependent.
package layer

import (
	"errors"
	"fmt"
	"math"

	"github.com/gogpu/texstack/blend"
	"github.com/gogpu/texstack/texture"
)

// ErrNotExecutable is returned when a layer tree fails validation.
// It is reported before any buffer is acquired.
var ErrNotExecutable = errors.New("layer: not executable")

// Layer is a raster or folder layer. The set of variants is closed:
// *Raster and *Folder.
type Layer interface {
	props() *Props
}

// Props holds the attributes common to every layer.
type Props struct {
	Name     string
	Visible  bool
	Opacity  float64
	BlendKey string // empty means blend.KeyDefault
	Clipping bool
	Mask     *Mask
}

func (p *Props) props() *Props { return p }

// Key returns the layer's blend key, falling back to blend.KeyDefault.
func (p *Props) Key() string {
	if p.BlendKey == "" {
		return blend.KeyDefault
	}
	return p.BlendKey
}

// Mask multiplies the alpha of the layer carrying it.
type Mask struct {
	Disabled bool
	Texture  *texture.Buffer
}

// Active reports whether the mask affects its layer.
func (m *Mask) Active() bool {
	return m != nil && !m.Disabled && m.Texture != nil
}

// Raster is a leaf layer with a source image.
type Raster struct {
	Props
	Texture *texture.Buffer
}

// Folder groups child layers, listed front to back.
type Folder struct {
	Props
	PassThrough bool
	Children    []Layer
}

// NewRaster returns a visible, opaque raster layer blended with Normal.
func NewRaster(name string, tex *texture.Buffer) *Raster {
	return &Raster{
		Props:   Props{Name: name, Visible: true, Opacity: 1},
		Texture: tex,
	}
}

// NewFolder returns a visible, opaque folder blended with Normal.
func NewFolder(name string, children ...Layer) *Folder {
	return &Folder{
		Props:    Props{Name: name, Visible: true, Opacity: 1},
		Children: children,
	}
}

// Validate checks a layer tree before evaluation.
// Structural problems wrap ErrNotExecutable; unknown keys wrap
// blend.ErrUnknownBlendMode.
func Validate(layers []Layer, reg *blend.Registry) error {
	for i, l := range layers {
		if err := validate(l, reg); err != nil {
			return fmt.Errorf("layer %d: %w", i, err)
		}
	}
	return nil
}

func validate(l Layer, reg *blend.Registry) error {
	var children []Layer
	switch v := l.(type) {
	case *Raster:
		if v == nil {
			return fmt.Errorf("%w: nil layer", ErrNotExecutable)
		}
		if v.Visible && v.Texture == nil {
			return fmt.Errorf("%w: %q has no texture", ErrNotExecutable, v.Name)
		}
	case *Folder:
		if v == nil {
			return fmt.Errorf("%w: nil layer", ErrNotExecutable)
		}
		children = v.Children
	case nil:
		return fmt.Errorf("%w: nil layer", ErrNotExecutable)
	default:
		return fmt.Errorf("%w: unknown layer type %T", ErrNotExecutable, l)
	}

	p := l.props()
	if math.IsNaN(p.Opacity) || p.Opacity < 0 || p.Opacity > 1 {
		return fmt.Errorf("%w: %q opacity %v outside [0,1]", ErrNotExecutable, p.Name, p.Opacity)
	}
	if _, err := reg.Lookup(p.Key()); err != nil {
		return fmt.Errorf("%q: %w", p.Name, err)
	}
	for i, c := range children {
		if err := validate(c, reg); err != nil {
			return fmt.Errorf("%q child %d: %w", p.Name, i, err)
		}
	}
	return nil
}
