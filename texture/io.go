// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package texture

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // register JPEG decoder
	"image/png"
	"io"
	"os"
	"path/filepath"

	_ "golang.org/x/image/bmp" // register BMP decoder
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff" // register TIFF decoder
)

// ErrEmptyImage is returned when decoding yields an image without pixels.
var ErrEmptyImage = errors.New("texture: empty image")

// Load reads a PNG, JPEG, TIFF or BMP file into an owned buffer.
func Load(path string) (*Buffer, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("texture: open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return Decode(f)
}

// Decode reads any registered image format into an owned buffer.
func Decode(r io.Reader) (*Buffer, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("texture: decode: %w", err)
	}
	return FromImage(img)
}

// FromImage converts a standard library image into an owned buffer.
func FromImage(img image.Image) (*Buffer, error) {
	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, ErrEmptyImage
	}
	buf, err := NewBuffer(bounds.Dx(), bounds.Dy())
	if err != nil {
		return nil, err
	}
	if nrgba, ok := img.(*image.NRGBA); ok {
		for y := range buf.height {
			off := nrgba.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			copy(buf.RowBytes(y), nrgba.Pix[off:off+buf.width*bytesPerPixel])
		}
		return buf, nil
	}
	xdraw.Copy(buf.view(), image.Point{}, img, bounds, xdraw.Src, nil)
	return buf, nil
}

// view returns an *image.NRGBA sharing the buffer's pixel memory.
func (b *Buffer) view() *image.NRGBA {
	return &image.NRGBA{
		Pix:    b.data,
		Stride: b.stride,
		Rect:   image.Rect(0, 0, b.width, b.height),
	}
}

// Image returns a CPU copy of the pixels as an *image.NRGBA.
func (b *Buffer) Image() *image.NRGBA {
	return Readback(b)
}

// Readback copies the buffer's pixels into a new *image.NRGBA.
func Readback(b *Buffer) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, b.width, b.height))
	for y := range b.height {
		copy(img.Pix[y*img.Stride:], b.RowBytes(y))
	}
	return img
}

// EncodePNG writes the buffer as PNG.
func (b *Buffer) EncodePNG(w io.Writer) error {
	return png.Encode(w, b.view())
}

// SavePNG writes the buffer as a PNG file.
func (b *Buffer) SavePNG(path string) error {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("texture: create file: %w", err)
	}
	if err := b.EncodePNG(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("texture: encode png: %w", err)
	}
	return f.Close()
}
