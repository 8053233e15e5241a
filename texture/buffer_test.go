// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package texture

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/gputypes"
)

func TestNewBuffer(t *testing.T) {
	tests := []struct {
		name    string
		w, h    int
		wantErr error
	}{
		{"square", 4, 4, nil},
		{"rectangle", 8, 2, nil},
		{"zero width", 0, 4, ErrInvalidDimensions},
		{"negative height", 4, -1, ErrInvalidDimensions},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, err := NewBuffer(tt.w, tt.h)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("NewBuffer() error = %v, want %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if buf.Stride() != tt.w*4 {
				t.Errorf("Stride() = %d, want %d", buf.Stride(), tt.w*4)
			}
			if !buf.IsTransparent() {
				t.Error("new buffer is not transparent")
			}
			if buf.Temporary() {
				t.Error("NewBuffer() returned a temporary")
			}
			if buf.TextureFormat() != gputypes.TextureFormatRGBA8Unorm {
				t.Errorf("TextureFormat() = %v, want RGBA8Unorm", buf.TextureFormat())
			}
		})
	}
}

func TestBuffer_FillAndAt(t *testing.T) {
	buf, _ := NewFilled(3, 3, color.NRGBA{R: 255, G: 0, B: 51, A: 255})
	got := buf.At(2, 2)
	want := RGBA{1, 0, 0.2, 1}
	if got != want {
		t.Errorf("At(2,2) = %+v, want %+v", got, want)
	}
	buf.Set(1, 1, RGBA{0, 1, 0, 0.5})
	if c := buf.NRGBAAt(1, 1); c != (color.NRGBA{0, 255, 0, 128}) {
		t.Errorf("NRGBAAt(1,1) = %+v, want {0 255 0 128}", c)
	}
	if r, g, b, a := buf.GetRGBA(-1, 0); r|g|b|a != 0 {
		t.Error("GetRGBA out of bounds should be zero")
	}
	if err := buf.SetRGBA(3, 0, 1, 1, 1, 1); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("SetRGBA out of bounds error = %v, want ErrOutOfBounds", err)
	}
}

func TestBuffer_CloneAndCopy(t *testing.T) {
	src, _ := NewFilled(2, 2, color.NRGBA{10, 20, 30, 40})
	clone := src.Clone()
	if !bytes.Equal(clone.Data(), src.Data()) {
		t.Fatal("Clone() data differs")
	}
	clone.Clear()
	if src.IsTransparent() {
		t.Error("clearing the clone modified the source")
	}

	dst, _ := NewBuffer(2, 2)
	if err := dst.CopyFrom(src); err != nil {
		t.Fatalf("CopyFrom() error = %v", err)
	}
	if !bytes.Equal(dst.Data(), src.Data()) {
		t.Error("CopyFrom() data differs")
	}
	big, _ := NewBuffer(3, 3)
	if err := big.CopyFrom(src); !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("CopyFrom() size mismatch error = %v", err)
	}
}

func TestBuffer_BlitFromScales(t *testing.T) {
	src, _ := NewFilled(2, 2, color.NRGBA{200, 100, 50, 255})
	dst, _ := NewBuffer(8, 8)
	dst.BlitFrom(src)
	for y := range 8 {
		for x := range 8 {
			if c := dst.NRGBAAt(x, y); c != (color.NRGBA{200, 100, 50, 255}) {
				t.Fatalf("pixel (%d,%d) = %+v, want solid fill", x, y, c)
			}
		}
	}
}

func TestSample(t *testing.T) {
	buf, _ := NewBuffer(2, 1)
	_ = buf.SetRGBA(0, 0, 0, 0, 0, 255)
	_ = buf.SetRGBA(1, 0, 255, 255, 255, 255)

	tests := []struct {
		name   string
		u      float64
		filter Filter
		wantR  float64
	}{
		{"nearest left", 0.2, FilterNearest, 0},
		{"nearest right", 0.8, FilterNearest, 1},
		{"bilinear center", 0.5, FilterBilinear, 0.5},
		{"bilinear clamped", -3, FilterBilinear, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sample(buf, tt.u, 0.5, tt.filter)
			if d := got.R - tt.wantR; d > 0.01 || d < -0.01 {
				t.Errorf("Sample(%v).R = %v, want %v", tt.u, got.R, tt.wantR)
			}
		})
	}
}

func TestImageRoundTrip(t *testing.T) {
	src, _ := NewFilled(5, 3, color.NRGBA{1, 2, 3, 4})
	var out bytes.Buffer
	if err := src.EncodePNG(&out); err != nil {
		t.Fatalf("EncodePNG() error = %v", err)
	}
	back, err := Decode(&out)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !bytes.Equal(back.Data(), src.Data()) {
		t.Error("PNG round trip changed pixels")
	}

	gray := image.NewGray(image.Rect(0, 0, 2, 2))
	gray.Pix[0] = 255
	fromGray, err := FromImage(gray)
	if err != nil {
		t.Fatalf("FromImage() error = %v", err)
	}
	if c := fromGray.NRGBAAt(0, 0); c != (color.NRGBA{255, 255, 255, 255}) {
		t.Errorf("FromImage(gray) pixel = %+v", c)
	}
	if _, err := FromImage(image.NewNRGBA(image.Rectangle{})); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("FromImage(empty) error = %v, want ErrEmptyImage", err)
	}

	img := Readback(src)
	if img.Bounds().Dx() != 5 || img.NRGBAAt(4, 2) != (color.NRGBA{1, 2, 3, 4}) {
		t.Error("Readback() mismatch")
	}
}
