// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package blend

import "math"

// Built-in blend mode keys.
const (
	KeyNotBlend         = "NotBlend"
	KeyNormal           = "Normal"
	KeyMultiply         = "Multiply"
	KeyScreen           = "Screen"
	KeyOverlay          = "Overlay"
	KeyHardLight        = "HardLight"
	KeySoftLight        = "SoftLight"
	KeyColorDodge       = "ColorDodge"
	KeyColorBurn        = "ColorBurn"
	KeyLinearBurn       = "LinearBurn"
	KeyVividLight       = "VividLight"
	KeyLinearLight      = "LinearLight"
	KeyPinLight         = "PinLight"
	KeyHardMix          = "HardMix"
	KeyAddition         = "Addition"
	KeySubtract         = "Subtract"
	KeyDifference       = "Difference"
	KeyExclusion        = "Exclusion"
	KeyDivide           = "Divide"
	KeyDarkenOnly       = "DarkenOnly"
	KeyLightenOnly      = "LightenOnly"
	KeyDarkenColorOnly  = "DarkenColorOnly"
	KeyLighterColorOnly = "LighterColorOnly"
	KeyHue              = "Hue"
	KeySaturation       = "Saturation"
	KeyColor            = "Color"
	KeyLuminosity       = "Luminosity"

	// KeyDefault is the key used when a layer does not name one.
	KeyDefault = KeyNormal
)

// ColorFunc is a blend function B(Cb, Cs) over unpremultiplied RGB triplets,
// cb being the backdrop and cs the source.
type ColorFunc func(cb, cs [3]float64) [3]float64

// ChannelFunc is a separable blend function applied to each channel.
type ChannelFunc func(cb, cs float64) float64

// PerChannel lifts a separable function to a ColorFunc.
func PerChannel(f ChannelFunc) ColorFunc {
	return func(cb, cs [3]float64) [3]float64 {
		return [3]float64{f(cb[0], cs[0]), f(cb[1], cs[1]), f(cb[2], cs[2])}
	}
}

// Mode is a named blend function.
type Mode struct {
	Key string
	Fn  ColorFunc

	// replace marks the NotBlend mode: the source overwrites the backdrop.
	replace bool
}

// NewMode creates a blend mode from a non-separable function.
func NewMode(key string, fn ColorFunc) Mode {
	return Mode{Key: key, Fn: fn}
}

// NewSeparableMode creates a blend mode from a per-channel function.
func NewSeparableMode(key string, fn ChannelFunc) Mode {
	return Mode{Key: key, Fn: PerChannel(fn)}
}

// Replaces reports whether the mode overwrites the backdrop instead of
// compositing onto it.
func (m Mode) Replaces() bool { return m.replace }

func builtinModes() []Mode {
	return []Mode{
		{Key: KeyNotBlend, replace: true},
		NewSeparableMode(KeyNormal, func(_, cs float64) float64 { return cs }),
		NewSeparableMode(KeyMultiply, multiply),
		NewSeparableMode(KeyScreen, screen),
		NewSeparableMode(KeyOverlay, func(cb, cs float64) float64 { return hardLight(cs, cb) }),
		NewSeparableMode(KeyHardLight, hardLight),
		NewSeparableMode(KeySoftLight, softLight),
		NewSeparableMode(KeyColorDodge, colorDodge),
		NewSeparableMode(KeyColorBurn, colorBurn),
		NewSeparableMode(KeyLinearBurn, func(cb, cs float64) float64 { return clamp01(cb + cs - 1) }),
		NewSeparableMode(KeyVividLight, vividLight),
		NewSeparableMode(KeyLinearLight, func(cb, cs float64) float64 { return clamp01(cb + 2*cs - 1) }),
		NewSeparableMode(KeyPinLight, pinLight),
		NewSeparableMode(KeyHardMix, hardMix),
		NewSeparableMode(KeyAddition, func(cb, cs float64) float64 { return clamp01(cb + cs) }),
		NewSeparableMode(KeySubtract, func(cb, cs float64) float64 { return clamp01(cb - cs) }),
		NewSeparableMode(KeyDifference, func(cb, cs float64) float64 { return math.Abs(cb - cs) }),
		NewSeparableMode(KeyExclusion, func(cb, cs float64) float64 { return cb + cs - 2*cb*cs }),
		NewSeparableMode(KeyDivide, divide),
		NewSeparableMode(KeyDarkenOnly, math.Min),
		NewSeparableMode(KeyLightenOnly, math.Max),
		NewMode(KeyDarkenColorOnly, darkerColor),
		NewMode(KeyLighterColorOnly, lighterColor),
		NewMode(KeyHue, hue),
		NewMode(KeySaturation, saturation),
		NewMode(KeyColor, colorMode),
		NewMode(KeyLuminosity, luminosity),
	}
}

// Separable blend functions. Formulas follow W3C Compositing and Blending
// Level 1 where it defines them and the usual painting-program definitions
// for the others.

func multiply(cb, cs float64) float64 { return cb * cs }

func screen(cb, cs float64) float64 { return cb + cs - cb*cs }

func hardLight(cb, cs float64) float64 {
	if cs <= 0.5 {
		return multiply(cb, 2*cs)
	}
	return screen(cb, 2*cs-1)
}

func softLight(cb, cs float64) float64 {
	if cs <= 0.5 {
		return cb - (1-2*cs)*cb*(1-cb)
	}
	var d float64
	if cb <= 0.25 {
		d = ((16*cb-12)*cb + 4) * cb
	} else {
		d = math.Sqrt(cb)
	}
	return cb + (2*cs-1)*(d-cb)
}

func colorDodge(cb, cs float64) float64 {
	switch {
	case cb == 0:
		return 0
	case cs >= 1:
		return 1
	}
	return math.Min(1, cb/(1-cs))
}

func colorBurn(cb, cs float64) float64 {
	switch {
	case cb >= 1:
		return 1
	case cs <= 0:
		return 0
	}
	return 1 - math.Min(1, (1-cb)/cs)
}

func vividLight(cb, cs float64) float64 {
	if cs <= 0.5 {
		return colorBurn(cb, 2*cs)
	}
	return colorDodge(cb, 2*cs-1)
}

func pinLight(cb, cs float64) float64 {
	if cs <= 0.5 {
		return math.Min(cb, 2*cs)
	}
	return math.Max(cb, 2*cs-1)
}

func hardMix(cb, cs float64) float64 {
	if cb+cs >= 1 {
		return 1
	}
	return 0
}

func divide(cb, cs float64) float64 {
	if cs <= 0 {
		if cb <= 0 {
			return 0
		}
		return 1
	}
	return math.Min(1, cb/cs)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
