// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"encoding/binary"
	"fmt"
	"math"
	"slices"
	"strings"
	"sync"
	"unicode"

	"github.com/gogpu/naga"

	"github.com/gogpu/texstack/blend"
	"github.com/gogpu/texstack/internal/logging"
)

// shaderModes lists the blend keys the shader implements. A key's index is
// its shader mode id.
var shaderModes = []string{
	blend.KeyNotBlend,
	blend.KeyNormal,
	blend.KeyMultiply,
	blend.KeyScreen,
	blend.KeyOverlay,
	blend.KeyHardLight,
	blend.KeySoftLight,
	blend.KeyColorDodge,
	blend.KeyColorBurn,
	blend.KeyLinearBurn,
	blend.KeyVividLight,
	blend.KeyLinearLight,
	blend.KeyPinLight,
	blend.KeyHardMix,
	blend.KeyAddition,
	blend.KeySubtract,
	blend.KeyDifference,
	blend.KeyExclusion,
	blend.KeyDivide,
	blend.KeyDarkenOnly,
	blend.KeyLightenOnly,
	blend.KeyDarkenColorOnly,
	blend.KeyLighterColorOnly,
	blend.KeyHue,
	blend.KeySaturation,
	blend.KeyColor,
	blend.KeyLuminosity,
}

// ShaderModes returns the blend keys the GPU shader implements, in mode id
// order.
func ShaderModes() []string { return slices.Clone(shaderModes) }

// ModeIndex returns the shader mode id of key. An empty key means
// blend.KeyDefault.
func ModeIndex(key string) (uint32, error) {
	if key == "" {
		key = blend.KeyDefault
	}
	i := slices.Index(shaderModes, key)
	if i < 0 {
		return 0, fmt.Errorf("gpu: no shader mode for %q: %w", key, blend.ErrUnknownBlendMode)
	}
	return uint32(i), nil
}

// ConstName returns the WGSL constant naming key, e.g. BLEND_HARD_LIGHT.
func ConstName(key string) string {
	var sb strings.Builder
	sb.WriteString("BLEND_")
	for i, r := range key {
		if i > 0 && unicode.IsUpper(r) {
			sb.WriteByte('_')
		}
		sb.WriteRune(unicode.ToUpper(r))
	}
	return sb.String()
}

// BlendParams is the shader's uniform block.
type BlendParams struct {
	Mode    uint32
	Opacity float32
}

// NewBlendParams returns the uniform values compositing with key at opacity.
func NewBlendParams(key string, opacity float64) (BlendParams, error) {
	mode, err := ModeIndex(key)
	if err != nil {
		return BlendParams{}, err
	}
	return BlendParams{Mode: mode, Opacity: float32(min(max(opacity, 0), 1))}, nil
}

// Bytes returns the 16-byte uniform buffer contents.
func (p BlendParams) Bytes() []byte {
	b := make([]byte, 0, 16)
	b = binary.LittleEndian.AppendUint32(b, p.Mode)
	b = binary.LittleEndian.AppendUint32(b, math.Float32bits(p.Opacity))
	b = binary.LittleEndian.AppendUint32(b, 0)
	b = binary.LittleEndian.AppendUint32(b, 0)
	return b
}

// BlendShaderSource returns the WGSL source of the layer blend shader.
//
// The shader draws a full-screen triangle and composites source_tex over
// backdrop_tex with the mode in params, using the same source-over formula
// as blend.Mode.Composite. Textures hold straight alpha.
func BlendShaderSource() string {
	var sb strings.Builder
	sb.WriteString("// Layer blend shader.\n\n")
	for i, key := range shaderModes {
		fmt.Fprintf(&sb, "const %s: u32 = %du;\n", ConstName(key), i)
	}
	sb.WriteString(blendShaderBody)
	return sb.String()
}

var compiled = sync.OnceValues(func() ([]uint32, error) {
	words, err := compileToSPIRV(BlendShaderSource())
	if err != nil {
		return nil, err
	}
	logging.Logger().Info("gpu: blend shader compiled", "words", len(words))
	return words, nil
})

// CompileBlendShader compiles BlendShaderSource to SPIR-V words. The result
// is computed once and copied to each caller.
func CompileBlendShader() ([]uint32, error) {
	words, err := compiled()
	if err != nil {
		return nil, err
	}
	return slices.Clone(words), nil
}

// compileToSPIRV compiles WGSL source to a SPIR-V uint32 slice.
func compileToSPIRV(wgsl string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgsl)
	if err != nil {
		return nil, fmt.Errorf("gpu: compile blend shader: %w", err)
	}

	// SPIR-V is little-endian 32-bit words
	code := make([]uint32, len(spirvBytes)/4)
	for i := range code {
		code[i] = binary.LittleEndian.Uint32(spirvBytes[i*4:])
	}
	return code, nil
}

const blendShaderBody = `
struct BlendParams {
    mode: u32,
    opacity: f32,
    _pad0: u32,
    _pad1: u32,
}

@group(0) @binding(0) var backdrop_tex: texture_2d<f32>;
@group(0) @binding(1) var source_tex: texture_2d<f32>;
@group(0) @binding(2) var tex_sampler: sampler;
@group(0) @binding(3) var<uniform> params: BlendParams;

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) uv: vec2<f32>,
}

@vertex
fn vs_main(@builtin(vertex_index) vertex_index: u32) -> VertexOutput {
    var out: VertexOutput;
    let x = f32((vertex_index << 1u) & 2u);
    let y = f32(vertex_index & 2u);
    out.position = vec4<f32>(x * 2.0 - 1.0, 1.0 - y * 2.0, 0.0, 1.0);
    out.uv = vec2<f32>(x, y);
    return out;
}

fn screen(cb: vec3<f32>, cs: vec3<f32>) -> vec3<f32> {
    return cb + cs - cb * cs;
}

fn hard_light(cb: vec3<f32>, cs: vec3<f32>) -> vec3<f32> {
    return select(screen(cb, 2.0 * cs - 1.0), cb * 2.0 * cs, cs <= vec3<f32>(0.5));
}

fn soft_light(cb: vec3<f32>, cs: vec3<f32>) -> vec3<f32> {
    let d = select(sqrt(cb), ((16.0 * cb - 12.0) * cb + 4.0) * cb, cb <= vec3<f32>(0.25));
    let lo = cb - (1.0 - 2.0 * cs) * cb * (1.0 - cb);
    let hi = cb + (2.0 * cs - 1.0) * (d - cb);
    return select(hi, lo, cs <= vec3<f32>(0.5));
}

fn color_dodge(cb: vec3<f32>, cs: vec3<f32>) -> vec3<f32> {
    let q = min(vec3<f32>(1.0), cb / max(1.0 - cs, vec3<f32>(0.000001)));
    let r = select(q, vec3<f32>(1.0), cs >= vec3<f32>(1.0));
    return select(r, vec3<f32>(0.0), cb <= vec3<f32>(0.0));
}

fn color_burn(cb: vec3<f32>, cs: vec3<f32>) -> vec3<f32> {
    let q = 1.0 - min(vec3<f32>(1.0), (1.0 - cb) / max(cs, vec3<f32>(0.000001)));
    let r = select(q, vec3<f32>(0.0), cs <= vec3<f32>(0.0));
    return select(r, vec3<f32>(1.0), cb >= vec3<f32>(1.0));
}

fn divide(cb: vec3<f32>, cs: vec3<f32>) -> vec3<f32> {
    let q = min(vec3<f32>(1.0), cb / max(cs, vec3<f32>(0.000001)));
    let z = select(vec3<f32>(1.0), vec3<f32>(0.0), cb <= vec3<f32>(0.0));
    return select(q, z, cs <= vec3<f32>(0.0));
}

fn lum(c: vec3<f32>) -> f32 {
    return dot(c, vec3<f32>(0.3, 0.59, 0.11));
}

fn clip_color(c: vec3<f32>) -> vec3<f32> {
    let l = lum(c);
    let n = min(min(c.r, c.g), c.b);
    let x = max(max(c.r, c.g), c.b);
    var out = c;
    if n < 0.0 {
        out = l + (out - l) * l / (l - n);
    }
    if x > 1.0 {
        out = l + (out - l) * (1.0 - l) / (x - l);
    }
    return out;
}

fn set_lum(c: vec3<f32>, l: f32) -> vec3<f32> {
    return clip_color(c + (l - lum(c)));
}

fn sat(c: vec3<f32>) -> f32 {
    return max(max(c.r, c.g), c.b) - min(min(c.r, c.g), c.b);
}

fn set_sat(c: vec3<f32>, s: f32) -> vec3<f32> {
    let mx = max(max(c.r, c.g), c.b);
    let mn = min(min(c.r, c.g), c.b);
    if mx <= mn {
        return vec3<f32>(0.0);
    }
    return (c - mn) * s / (mx - mn);
}

fn blend_color(mode: u32, cb: vec3<f32>, cs: vec3<f32>) -> vec3<f32> {
    if mode == BLEND_MULTIPLY {
        return cb * cs;
    }
    if mode == BLEND_SCREEN {
        return screen(cb, cs);
    }
    if mode == BLEND_OVERLAY {
        return hard_light(cs, cb);
    }
    if mode == BLEND_HARD_LIGHT {
        return hard_light(cb, cs);
    }
    if mode == BLEND_SOFT_LIGHT {
        return soft_light(cb, cs);
    }
    if mode == BLEND_COLOR_DODGE {
        return color_dodge(cb, cs);
    }
    if mode == BLEND_COLOR_BURN {
        return color_burn(cb, cs);
    }
    if mode == BLEND_LINEAR_BURN {
        return cb + cs - 1.0;
    }
    if mode == BLEND_VIVID_LIGHT {
        return select(color_dodge(cb, 2.0 * cs - 1.0), color_burn(cb, 2.0 * cs), cs <= vec3<f32>(0.5));
    }
    if mode == BLEND_LINEAR_LIGHT {
        return cb + 2.0 * cs - 1.0;
    }
    if mode == BLEND_PIN_LIGHT {
        return select(max(cb, 2.0 * cs - 1.0), min(cb, 2.0 * cs), cs <= vec3<f32>(0.5));
    }
    if mode == BLEND_HARD_MIX {
        return select(vec3<f32>(0.0), vec3<f32>(1.0), cb + cs >= vec3<f32>(1.0));
    }
    if mode == BLEND_ADDITION {
        return cb + cs;
    }
    if mode == BLEND_SUBTRACT {
        return cb - cs;
    }
    if mode == BLEND_DIFFERENCE {
        return abs(cb - cs);
    }
    if mode == BLEND_EXCLUSION {
        return cb + cs - 2.0 * cb * cs;
    }
    if mode == BLEND_DIVIDE {
        return divide(cb, cs);
    }
    if mode == BLEND_DARKEN_ONLY {
        return min(cb, cs);
    }
    if mode == BLEND_LIGHTEN_ONLY {
        return max(cb, cs);
    }
    if mode == BLEND_DARKEN_COLOR_ONLY {
        return select(cb, cs, lum(cs) < lum(cb));
    }
    if mode == BLEND_LIGHTER_COLOR_ONLY {
        return select(cb, cs, lum(cs) > lum(cb));
    }
    if mode == BLEND_HUE {
        return set_lum(set_sat(cs, sat(cb)), lum(cb));
    }
    if mode == BLEND_SATURATION {
        return set_lum(set_sat(cb, sat(cs)), lum(cb));
    }
    if mode == BLEND_COLOR {
        return set_lum(cs, lum(cb));
    }
    if mode == BLEND_LUMINOSITY {
        return set_lum(cb, lum(cs));
    }
    // BLEND_NORMAL
    return cs;
}

@fragment
fn fs_main(input: VertexOutput) -> @location(0) vec4<f32> {
    let b = textureSample(backdrop_tex, tex_sampler, input.uv);
    var s = textureSample(source_tex, tex_sampler, input.uv);
    s.a = s.a * params.opacity;
    if params.mode == BLEND_NOT_BLEND {
        return s;
    }
    if s.a <= 0.0 {
        return b;
    }
    let ao = s.a + b.a * (1.0 - s.a);
    let mixed = clamp(blend_color(params.mode, b.rgb, s.rgb), vec3<f32>(0.0), vec3<f32>(1.0));
    let blended = (1.0 - b.a) * s.rgb + b.a * mixed;
    let co = (s.a * blended + (1.0 - s.a) * b.a * b.rgb) / ao;
    return vec4<f32>(co, ao);
}
`
