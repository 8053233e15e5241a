// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package texstack

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/flywave/go3d/float64/mat4"

	"github.com/gogpu/texstack/blend"
	"github.com/gogpu/texstack/decal"
	"github.com/gogpu/texstack/gpu"
	"github.com/gogpu/texstack/internal/parallel"
	"github.com/gogpu/texstack/layer"
	"github.com/gogpu/texstack/preview"
	"github.com/gogpu/texstack/texture"
)

// Decal is a decal the engine can apply. *decal.SimpleDecal and
// *decal.GradationDecal implement it.
type Decal interface {
	Property() string
	Key() string
	Apply(opts ...decal.ApplyOption) (map[*decal.Material]decal.BlendPair, error)
}

// Engine bundles the pool, blend registry and worker pool shared by layer
// evaluation and decal projection.
//
// Engine is safe for concurrent use. Layer evaluation itself is sequential;
// only vertex conversion runs on the worker pool.
type Engine struct {
	opts    options
	pool    *texture.Pool
	reg     *blend.Registry
	layers  *layer.Engine
	workers *parallel.WorkerPool
	shader  []uint32
	closed  atomic.Bool
}

// New creates an Engine.
func New(opts ...Option) (*Engine, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	e := &Engine{opts: o, pool: o.pool, reg: o.reg}
	if e.pool == nil {
		e.pool = texture.NewPool(texture.WithBudget(o.budget))
	}
	if e.reg == nil {
		e.reg = blend.Default()
	}
	if o.gpuShaders {
		words, err := gpu.CompileBlendShader()
		if err != nil {
			return nil, err
		}
		e.shader = words
	}
	e.layers = layer.NewEngine(layer.WithPool(e.pool), layer.WithRegistry(e.reg))
	e.workers = parallel.NewWorkerPool(o.workers)

	Logger().Info("texstack: engine created",
		"workers", e.workers.Workers(),
		"budget", e.pool.Budget(),
		"gpuShaders", o.gpuShaders)
	return e, nil
}

// Close stops the worker pool and drops the pool's free buffers.
// Close is safe to call multiple times.
func (e *Engine) Close() {
	if !e.closed.CompareAndSwap(false, true) {
		return
	}
	e.workers.Close()
	e.pool.Drain()
}

// Pool returns the engine's buffer pool.
func (e *Engine) Pool() *texture.Pool { return e.pool }

// Registry returns the engine's blend registry.
func (e *Engine) Registry() *blend.Registry { return e.reg }

// BlendShader returns the compiled GPU blend shader, or nil when the engine
// was created without WithGPUShaders.
func (e *Engine) BlendShader() []uint32 { return e.shader }

// BlendParams returns the blend shader uniforms compositing with key at
// opacity. Keys registered only on a custom registry have no shader mode
// and return ErrUnknownBlendMode.
func (e *Engine) BlendParams(key string, opacity float64) (gpu.BlendParams, error) {
	if err := e.checkKey(key); err != nil {
		return gpu.BlendParams{}, err
	}
	return gpu.NewBlendParams(key, opacity)
}

// TextureDescriptor describes buf for upload as a single-level texture.
func (e *Engine) TextureDescriptor(buf *texture.Buffer) gpu.TextureDescriptor {
	return gpu.Describe(buf, 0)
}

// MipmappedTexture generates the mipmap chain of buf from the engine's pool
// and describes it for upload. The caller releases the chain.
func (e *Engine) MipmappedTexture(buf *texture.Buffer) (gpu.TextureDescriptor, *texture.MipmapChain, error) {
	if e.closed.Load() {
		return gpu.TextureDescriptor{}, nil, ErrClosed
	}
	chain, err := texture.GenerateMipmaps(e.pool, buf, 0)
	if err != nil {
		return gpu.TextureDescriptor{}, nil, err
	}
	return gpu.DescribeMipmaps(chain, 0), chain, nil
}

// CanvasTarget describes the render target a layer tree with the given size
// hint is composited into on the GPU.
func (e *Engine) CanvasTarget(canvasSizeHint int) (gpu.TextureDescriptor, error) {
	if canvasSizeHint <= 0 {
		return gpu.TextureDescriptor{}, fmt.Errorf("%w: canvas size %d", ErrLayerNotExecutable, canvasSizeHint)
	}
	return gpu.RenderTarget("canvas", e.CanvasSize(canvasSizeHint)), nil
}

// CanvasSize returns the canvas size a hint evaluates at.
func (e *Engine) CanvasSize(hint int) int {
	if e.opts.exactSize {
		return hint
	}
	return layer.NormalizePowOfTwo(hint)
}

// EvaluateLayerTree flattens root, listed front to back, into a square
// canvas. The hint is normalized to a power of two unless the engine was
// created WithExactCanvasSize; a hint below 1 is rejected. The result is
// owned by the caller.
func (e *Engine) EvaluateLayerTree(root []layer.Layer, canvasSizeHint int) (*texture.Buffer, error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}
	if canvasSizeHint <= 0 {
		return nil, fmt.Errorf("%w: canvas size %d", ErrLayerNotExecutable, canvasSizeHint)
	}
	size := e.CanvasSize(canvasSizeHint)
	if size != canvasSizeHint {
		Logger().Debug("texstack: canvas size normalized", "hint", canvasSizeHint, "size", size)
	}
	return e.layers.Evaluate(root, size)
}

// NewProjectionSpace returns a parallel projection space that converts
// vertices on the engine's worker pool.
func (e *Engine) NewProjectionSpace(worldToLocal mat4.T) *decal.ParallelProjectionSpace {
	return decal.NewParallelProjectionSpace(worldToLocal, decal.WithWorkerPool(e.workers))
}

// ProjectDecal projects source onto the target materials of renderers and
// returns one blend pair per material. The space and filter are disposed
// before it returns.
func (e *Engine) ProjectDecal(
	renderers []*decal.Renderer,
	space *decal.ParallelProjectionSpace,
	filter decal.TriangleFilter[*decal.ParallelProjectionSpace],
	source *texture.Buffer,
	targets map[*decal.Material]string,
	key string,
) (map[*decal.Material]decal.BlendPair, error) {
	if err := e.checkKey(key); err != nil || e.closed.Load() {
		if filter != nil {
			filter.Dispose()
		}
		if space != nil {
			space.Dispose()
		}
		if err == nil {
			err = ErrClosed
		}
		return nil, err
	}
	return decal.Project(renderers, space, filter, source, targets, key)
}

// ApplyDecal runs d with the engine's pool and workers.
func (e *Engine) ApplyDecal(d Decal) (map[*decal.Material]decal.BlendPair, error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}
	if err := e.checkKey(d.Key()); err != nil {
		return nil, err
	}
	return d.Apply(e.applyOptions()...)
}

// BakeDecal applies d and blends every resulting pair onto the material's
// texture in place. It returns the number of textures changed.
func (e *Engine) BakeDecal(d Decal) (int, error) {
	pairs, err := e.ApplyDecal(d)
	if err != nil {
		return 0, err
	}
	n := 0
	for m, pair := range pairs {
		tex, ok := m.Texture(d.Property())
		if !ok {
			continue
		}
		if err := pair.BlendOnto(e.reg, tex); err != nil {
			return n, fmt.Errorf("material %q: %w", m.Name, err)
		}
		n++
	}
	return n, nil
}

// NewPreview starts a preview session composing with the engine's registry
// and compiling decals with its pool and workers.
func (e *Engine) NewPreview() *preview.Session {
	return preview.NewSession(
		preview.WithRegistry(e.reg),
		preview.WithApplyOptions(e.applyOptions()...))
}

// ResizeImage returns src resampled to width x height as an owned buffer.
func (e *Engine) ResizeImage(src *texture.Buffer, width, height int) (*texture.Buffer, error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}
	return texture.ResizeWithPool(e.pool, src, width, height)
}

func (e *Engine) applyOptions() []decal.ApplyOption {
	return []decal.ApplyOption{
		decal.WithBufferPool(e.pool),
		decal.WithSpaceOptions(decal.WithWorkerPool(e.workers)),
	}
}

func (e *Engine) checkKey(key string) error {
	if key == "" {
		return nil
	}
	_, err := e.reg.Lookup(key)
	return err
}

var defaultEngine = sync.OnceValues(func() (*Engine, error) { return New() })

// EvaluateLayerTree flattens root with a default engine.
func EvaluateLayerTree(root []layer.Layer, canvasSizeHint int) (*texture.Buffer, error) {
	e, err := defaultEngine()
	if err != nil {
		return nil, err
	}
	return e.EvaluateLayerTree(root, canvasSizeHint)
}

// ProjectDecal projects source with a default engine.
func ProjectDecal(
	renderers []*decal.Renderer,
	space *decal.ParallelProjectionSpace,
	filter decal.TriangleFilter[*decal.ParallelProjectionSpace],
	source *texture.Buffer,
	targets map[*decal.Material]string,
	key string,
) (map[*decal.Material]decal.BlendPair, error) {
	e, err := defaultEngine()
	if err != nil {
		return nil, err
	}
	return e.ProjectDecal(renderers, space, filter, source, targets, key)
}

// ResizeImage resamples src with a default engine.
func ResizeImage(src *texture.Buffer, width, height int) (*texture.Buffer, error) {
	e, err := defaultEngine()
	if err != nil {
		return nil, err
	}
	return e.ResizeImage(src, width, height)
}
