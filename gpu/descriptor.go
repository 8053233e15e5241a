// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gpu describes texstack buffers and blend modes in GPU terms.
//
// Buffers stay CPU-backed. The descriptors and the compiled blend shader
// let a host renderer upload buffers and composite them with the same mode
// ids the blend registry uses.
package gpu

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/texstack/texture"
)

// TextureDescriptor describes a texture matching a buffer.
type TextureDescriptor struct {
	// Label is an optional debug name.
	Label string

	// Size is the texture dimensions.
	Size gputypes.Extent3D

	// MipLevelCount is the number of mip levels (1+ required).
	MipLevelCount uint32

	// SampleCount is the number of samples per pixel (1 for non-MSAA).
	SampleCount uint32

	// Dimension is the texture dimension.
	Dimension gputypes.TextureDimension

	// Format is the texture pixel format.
	Format gputypes.TextureFormat

	// Usage specifies how the texture will be used.
	Usage gputypes.TextureUsage
}

// DefaultUsage is the usage of a texture that is uploaded, sampled and read
// back.
const DefaultUsage = gputypes.TextureUsageTextureBinding |
	gputypes.TextureUsageCopyDst |
	gputypes.TextureUsageCopySrc

// Describe returns a single-level descriptor for buf. A zero usage means
// DefaultUsage.
func Describe(buf *texture.Buffer, usage gputypes.TextureUsage) TextureDescriptor {
	if usage == 0 {
		usage = DefaultUsage
	}
	return TextureDescriptor{
		Label: buf.Name(),
		Size: gputypes.Extent3D{
			Width:              uint32(buf.Width()),
			Height:             uint32(buf.Height()),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        buf.TextureFormat(),
		Usage:         usage,
	}
}

// DescribeMipmaps returns a descriptor covering every level of chain.
func DescribeMipmaps(chain *texture.MipmapChain, usage gputypes.TextureUsage) TextureDescriptor {
	d := Describe(chain.Level(0), usage)
	d.MipLevelCount = uint32(chain.NumLevels())
	return d
}

// RenderTarget returns a descriptor for a canvas the blend shader renders
// into.
func RenderTarget(label string, size int) TextureDescriptor {
	return TextureDescriptor{
		Label: label,
		Size: gputypes.Extent3D{
			Width:              uint32(size),
			Height:             uint32(size),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopySrc,
	}
}
