// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package texture

import (
	"fmt"

	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/texstack/internal/logging"
)

// Resize returns an owned copy of src resampled to width x height.
// Intermediate mip levels come from the default pool.
func Resize(src *Buffer, width, height int) (*Buffer, error) {
	return ResizeWithPool(defaultPool, src, width, height)
}

// ResizeWithPool resamples src to width x height.
//
// Shrinking by more than 2x first builds a mip chain and resamples the level
// matching the scale with a bilinear kernel, which avoids the aliasing a
// single-pass downscale produces. Other sizes are resampled directly with
// Catmull-Rom. The mip levels are released before returning; the result is
// always owned by the caller.
func ResizeWithPool(p *Pool, src *Buffer, width, height int) (*Buffer, error) {
	if src == nil {
		return nil, ErrInvalidDimensions
	}
	dst, err := NewBuffer(width, height)
	if err != nil {
		return nil, err
	}
	if dst.SameSize(src) {
		_ = dst.CopyFrom(src)
		return dst, nil
	}

	scale := min(float64(width)/float64(src.width), float64(height)/float64(src.height))
	if scale >= 0.5 {
		xdraw.CatmullRom.Scale(dst.view(), dst.view().Rect, src.view(), src.view().Rect, xdraw.Src, nil)
		return dst, nil
	}

	chain, err := GenerateMipmaps(p, src, 0)
	if err != nil {
		return nil, fmt.Errorf("texture: resize: %w", err)
	}
	defer chain.Release()

	level := chain.LevelForScale(scale)
	from := chain.Level(level)
	logging.Logger().Debug("texture: resize via mip level",
		"src", fmt.Sprintf("%dx%d", src.width, src.height),
		"dst", fmt.Sprintf("%dx%d", width, height),
		"level", level)

	xdraw.BiLinear.Scale(dst.view(), dst.view().Rect, from.view(), from.view().Rect, xdraw.Src, nil)
	return dst, nil
}
