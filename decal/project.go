// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package decal

import (
	"fmt"
	"slices"

	"github.com/gogpu/texstack/texture"
)

// Project writes source onto the target materials of renderers and returns
// one blend pair per target material that has its property set.
//
// targets maps each material to the texture property the decal lands on.
// Writable buffers are allocated per material and owned by the caller
// through the returned pairs. The space and filter are disposed on return.
func Project[S SpaceConverter](renderers []*Renderer, space S, filter TriangleFilter[S], source *texture.Buffer, targets map[*Material]string, key string, opts ...ContextOption) (map[*Material]BlendPair, error) {
	if source == nil {
		return nil, fmt.Errorf("%w: no decal source", ErrNotExecutable)
	}
	if filter == nil {
		return nil, fmt.Errorf("%w: no triangle filter", ErrNotExecutable)
	}
	for _, r := range renderers {
		if r == nil {
			return nil, fmt.Errorf("%w: nil renderer", ErrNotExecutable)
		}
		if err := r.Mesh.Validate(); err != nil {
			return nil, fmt.Errorf("renderer %q: %w", r.Name, err)
		}
	}
	defer func() {
		filter.Dispose()
		space.Dispose()
	}()

	byProperty := make(map[string][]*Material)
	for m, prop := range targets {
		if prop == "" {
			prop = DefaultProperty
		}
		byProperty[prop] = append(byProperty[prop], m)
	}
	props := make([]string, 0, len(byProperty))
	for p := range byProperty {
		props = append(props, p)
	}
	slices.Sort(props)

	writable := make(map[*Material]*texture.Buffer)
	for _, prop := range props {
		mats := byProperty[prop]
		ctx := NewContext(space, filter, append(slices.Clip(opts), WithTargetProperty(prop), WithAutoGenerateKey(false))...)
		if err := ctx.GenerateKeys(writable, mats); err != nil {
			return nil, err
		}

		scoped := make(map[*Material]*texture.Buffer, len(mats))
		inScope := make(map[*Material]bool, len(mats))
		for _, m := range mats {
			if buf, ok := writable[m]; ok {
				scoped[m] = buf
				inScope[m] = true
			}
		}
		for _, r := range renderers {
			if !r.Uses(inScope) {
				continue
			}
			if err := ctx.WriteDecal(scoped, r, source); err != nil {
				return nil, err
			}
		}
	}

	out := make(map[*Material]BlendPair, len(writable))
	for m, buf := range writable {
		out[m] = NewBlendPair(buf, key)
	}
	return out, nil
}
