// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package texstack

import (
	"errors"

	"github.com/gogpu/texstack/blend"
	"github.com/gogpu/texstack/decal"
	"github.com/gogpu/texstack/layer"
	"github.com/gogpu/texstack/texture"
)

// Errors returned by Engine. Match them with errors.Is.
var (
	// ErrUnknownBlendMode is returned when a blend key is not registered.
	ErrUnknownBlendMode = blend.ErrUnknownBlendMode

	// ErrLayerNotExecutable is returned when a layer tree fails validation.
	ErrLayerNotExecutable = layer.ErrNotExecutable

	// ErrDecalNotExecutable is returned when decal inputs fail validation.
	ErrDecalNotExecutable = decal.ErrNotExecutable

	// ErrResourceExhausted is returned when the memory budget refuses a
	// temporary.
	ErrResourceExhausted = texture.ErrResourceExhausted

	// ErrClosed is returned by a closed Engine.
	ErrClosed = errors.New("texstack: engine closed")
)
