// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/sync/errgroup"

	"github.com/gogpu/texstack/decal"
	"github.com/gogpu/texstack/texture"
)

// attachBase gives every material without prop a copy of base.
func attachBase(renderers []*decal.Renderer, prop string, base *texture.Buffer) int {
	n := 0
	for _, r := range renderers {
		for _, m := range r.Materials {
			if _, ok := m.Texture(prop); ok {
				continue
			}
			tex := base.Clone()
			tex.SetName(m.Name)
			m.SetTexture(prop, tex)
			n++
		}
	}
	return n
}

// fileName turns a material name into a safe file name.
func fileName(name string) string {
	s := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			return r
		}
		return '_'
	}, name)
	if s == "" {
		s = "material"
	}
	return s + ".png"
}

// export writes the prop texture of every material in parallel, one PNG
// per material, and returns the written paths. The first failure is
// returned once every started write has finished.
func export(dir, prop string, materials []*decal.Material, workers int) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	paths := make([]string, len(materials))
	used := make(map[string]int)
	for i, m := range materials {
		name := fileName(m.Name)
		if n := used[name]; n > 0 {
			name = fmt.Sprintf("%s_%d.png", strings.TrimSuffix(name, ".png"), n)
		}
		used[fileName(m.Name)]++
		paths[i] = filepath.Join(dir, name)
	}

	texs := make([]*texture.Buffer, len(materials))
	for i, m := range materials {
		tex, ok := m.Texture(prop)
		if !ok {
			return nil, fmt.Errorf("material %q has no %s", m.Name, prop)
		}
		texs[i] = tex
	}

	var g errgroup.Group
	g.SetLimit(max(workers, 1))
	for i, tex := range texs {
		g.Go(func() error { return tex.SavePNG(paths[i]) })
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

// materialsOf lists the distinct materials of renderers in first-use order.
func materialsOf(renderers []*decal.Renderer) []*decal.Material {
	seen := make(map[*decal.Material]bool)
	var out []*decal.Material
	for _, r := range renderers {
		for _, m := range r.Materials {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	return out
}
