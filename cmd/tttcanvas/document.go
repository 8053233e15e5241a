// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/go-playground/validator"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/texstack/layer"
	"github.com/gogpu/texstack/texture"
)

// document is a layer tree read from YAML. Layers are listed front to back.
type document struct {
	Size   int         `yaml:"size" validate:"gte=0"`
	Layers []layerSpec `yaml:"layers" validate:"dive"`
}

type layerSpec struct {
	Name        string      `yaml:"name"`
	Image       string      `yaml:"image"`
	Hidden      bool        `yaml:"hidden"`
	Opacity     *float64    `yaml:"opacity" validate:"omitempty,gte=0,lte=1"`
	Blend       string      `yaml:"blend"`
	Clipping    bool        `yaml:"clipping"`
	Mask        *maskSpec   `yaml:"mask"`
	PassThrough bool        `yaml:"passThrough"`
	Children    []layerSpec `yaml:"children" validate:"dive"`
}

type maskSpec struct {
	Image    string `yaml:"image" validate:"required"`
	Disabled bool   `yaml:"disabled"`
}

func (l *layerSpec) folder() bool {
	return l.Image == "" && (len(l.Children) > 0 || l.PassThrough)
}

var validate = validator.New()

// decodeDocument parses and validates a YAML document.
func decodeDocument(r io.Reader) (*document, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if err := validate.Struct(&doc); err != nil {
		return nil, fmt.Errorf("invalid document: %w", err)
	}
	return &doc, nil
}

func loadDocument(path string) (*document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decodeDocument(f)
}

// images returns every image path the document references, sorted.
func (d *document) images() []string {
	seen := make(map[string]bool)
	var walk func([]layerSpec)
	walk = func(ls []layerSpec) {
		for i := range ls {
			if ls[i].Image != "" {
				seen[ls[i].Image] = true
			}
			if ls[i].Mask != nil {
				seen[ls[i].Mask.Image] = true
			}
			walk(ls[i].Children)
		}
	}
	walk(d.Layers)
	paths := make([]string, 0, len(seen))
	for p := range seen {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// loadImages decodes every referenced image in parallel. Relative paths are
// resolved against dir.
func (d *document) loadImages(dir string, workers int) (map[string]*texture.Buffer, error) {
	var (
		mu  sync.Mutex
		out = make(map[string]*texture.Buffer)
		g   errgroup.Group
	)
	g.SetLimit(max(workers, 1))
	for _, p := range d.images() {
		g.Go(func() error {
			full := p
			if !filepath.IsAbs(full) {
				full = filepath.Join(dir, p)
			}
			buf, err := texture.Load(full)
			if err != nil {
				return fmt.Errorf("image %s: %w", p, err)
			}
			buf.SetName(p)
			mu.Lock()
			out[p] = buf
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// build converts the document into layers using the loaded images.
func (d *document) build(images map[string]*texture.Buffer) ([]layer.Layer, error) {
	return buildLayers(d.Layers, images)
}

func buildLayers(specs []layerSpec, images map[string]*texture.Buffer) ([]layer.Layer, error) {
	out := make([]layer.Layer, 0, len(specs))
	for i := range specs {
		l, err := buildLayer(&specs[i], images)
		if err != nil {
			return nil, fmt.Errorf("layer %d (%s): %w", i, specs[i].Name, err)
		}
		out = append(out, l)
	}
	return out, nil
}

func buildLayer(s *layerSpec, images map[string]*texture.Buffer) (layer.Layer, error) {
	var (
		l     layer.Layer
		props *layer.Props
	)
	if s.folder() {
		children, err := buildLayers(s.Children, images)
		if err != nil {
			return nil, err
		}
		f := layer.NewFolder(s.Name, children...)
		f.PassThrough = s.PassThrough
		l, props = f, &f.Props
	} else {
		if len(s.Children) > 0 {
			return nil, fmt.Errorf("%w: raster layer with children", layer.ErrNotExecutable)
		}
		r := layer.NewRaster(s.Name, images[s.Image])
		l, props = r, &r.Props
	}

	props.Visible = !s.Hidden
	props.BlendKey = s.Blend
	props.Clipping = s.Clipping
	if s.Opacity != nil {
		props.Opacity = *s.Opacity
	}
	if s.Mask != nil {
		props.Mask = &layer.Mask{Disabled: s.Mask.Disabled, Texture: images[s.Mask.Image]}
	}
	return l, nil
}
