// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package blend implements the string-keyed blend operator registry and the
// scalar buffer operations used by the compositing engine.
//
// All buffers hold straight (non-premultiplied) alpha. Compositing follows
// W3C Compositing and Blending Level 1 with source-over:
//
//	Ao = As + Ab*(1-As)
//	Co = (As*((1-Ab)*Cs + Ab*B(Cb,Cs)) + (1-As)*Ab*Cb) / Ao
//
// References:
//   - W3C Compositing and Blending Level 1: https://www.w3.org/TR/compositing-1/
package blend

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/gogpu/texstack/texture"
)

// ErrUnknownBlendMode is returned when a key is not in the registry.
var ErrUnknownBlendMode = errors.New("blend: unknown blend mode")

// Registry maps blend keys to blend modes. It is read-only after
// construction and safe for concurrent use.
type Registry struct {
	modes map[string]Mode
}

// NewRegistry returns a registry with every built-in mode plus extra.
// An extra mode with a built-in key replaces the built-in one.
func NewRegistry(extra ...Mode) *Registry {
	r := &Registry{modes: make(map[string]Mode)}
	for _, m := range builtinModes() {
		r.modes[m.Key] = m
	}
	for _, m := range extra {
		if m.Key == "" || (m.Fn == nil && !m.replace) {
			continue
		}
		r.modes[m.Key] = m
	}
	return r
}

var defaultRegistry = sync.OnceValue(func() *Registry { return NewRegistry() })

// Default returns the shared registry of built-in modes.
func Default() *Registry { return defaultRegistry() }

// Lookup returns the mode registered under key.
func (r *Registry) Lookup(key string) (Mode, error) {
	m, ok := r.modes[key]
	if !ok {
		return Mode{}, fmt.Errorf("%w: %q", ErrUnknownBlendMode, key)
	}
	return m, nil
}

// Has reports whether key is registered.
func (r *Registry) Has(key string) bool {
	_, ok := r.modes[key]
	return ok
}

// Keys returns every registered key in sorted order.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.modes))
	for k := range r.modes {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Blend composites src onto dst in place using the mode named key.
// src is sampled at dst's resolution when the sizes differ.
func (r *Registry) Blend(dst, src *texture.Buffer, key string) error {
	return r.blend(dst, src, key, false)
}

// BlendAlphaKeep is Blend but keeps dst's alpha channel unchanged.
func (r *Registry) BlendAlphaKeep(dst, src *texture.Buffer, key string) error {
	return r.blend(dst, src, key, true)
}

func (r *Registry) blend(dst, src *texture.Buffer, key string, alphaKeep bool) error {
	m, err := r.Lookup(key)
	if err != nil {
		return err
	}
	fetch := sourceFetcher(dst, src)
	w, h := dst.Bounds()
	for y := range h {
		for x := range w {
			b := dst.At(x, y)
			s := fetch(x, y)
			out := m.Composite(b, s)
			if alphaKeep {
				out.A = b.A
			}
			dst.Set(x, y, out)
		}
	}
	return nil
}

// Composite combines one source pixel over one backdrop pixel.
func (m Mode) Composite(b, s texture.RGBA) texture.RGBA {
	if m.replace {
		return s
	}
	if s.A <= 0 {
		return b
	}
	ao := s.A + b.A*(1-s.A)
	if ao <= 0 {
		return texture.Transparent
	}
	cb := [3]float64{b.R, b.G, b.B}
	cs := [3]float64{s.R, s.G, s.B}
	mixed := m.Fn(cb, cs)

	var co [3]float64
	for i := range co {
		blended := (1-b.A)*cs[i] + b.A*clamp01(mixed[i])
		co[i] = (s.A*blended + (1-s.A)*b.A*cb[i]) / ao
	}
	return texture.RGBA{R: co[0], G: co[1], B: co[2], A: ao}
}

// sourceFetcher returns a per-pixel reader of src in dst's pixel grid.
func sourceFetcher(dst, src *texture.Buffer) func(x, y int) texture.RGBA {
	if dst.SameSize(src) {
		return src.At
	}
	fw, fh := float64(dst.Width()), float64(dst.Height())
	return func(x, y int) texture.RGBA {
		return texture.Sample(src, (float64(x)+0.5)/fw, (float64(y)+0.5)/fh, texture.FilterBilinear)
	}
}
