// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package decal

import (
	"fmt"
	"sync"

	"github.com/flywave/go3d/float64/mat4"
	"github.com/flywave/go3d/float64/vec2"
	"github.com/flywave/go3d/float64/vec3"

	"github.com/gogpu/texstack/internal/parallel"
)

// minChunk is the smallest vertex range worth a separate task.
const minChunk = 1024

var defaultWorkers = sync.OnceValue(func() *parallel.WorkerPool {
	return parallel.NewWorkerPool(0)
})

// SpaceConverter maps mesh vertices into decal UV space.
//
// Input starts the conversion and may return before it completes.
// OutputUV blocks until the conversion is done and returns one UV per
// vertex. Dispose releases the space; it may be called more than once.
type SpaceConverter interface {
	Input(mesh *MeshData) error
	Mesh() *MeshData
	OutputUV() ([]vec2.T, error)
	Dispose()
}

// SpaceOption configures a space converter.
type SpaceOption func(*spaceBase)

// WithWorkerPool runs conversions on p instead of the package pool.
func WithWorkerPool(p *parallel.WorkerPool) SpaceOption {
	return func(s *spaceBase) {
		if p != nil {
			s.workers = p
		}
	}
}

// spaceBase holds what every space shares: its input and pending work.
type spaceBase struct {
	workers *parallel.WorkerPool
	mesh    *MeshData
	batch   *parallel.Batch
}

func newSpaceBase(opts []SpaceOption) spaceBase {
	s := spaceBase{workers: defaultWorkers()}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// begin validates mesh and joins the previous conversion.
func (s *spaceBase) begin(mesh *MeshData) error {
	if err := mesh.Validate(); err != nil {
		return err
	}
	_ = s.wait()
	s.batch = nil
	return nil
}

// start schedules fn over vertex ranges of mesh.
func (s *spaceBase) start(mesh *MeshData, fn func(lo, hi int)) error {
	s.mesh = mesh

	n := len(mesh.Vertices)
	parts := max(1, min(s.workers.Workers(), n/minChunk))
	chunks := parallel.Chunks(n, parts)
	work := make([]func() error, len(chunks))
	for i, c := range chunks {
		work[i] = func() error {
			fn(c[0], c[1])
			return nil
		}
	}
	s.batch = s.workers.Go(work)
	return nil
}

// wait joins pending work.
func (s *spaceBase) wait() error {
	if s.batch == nil {
		return nil
	}
	return s.batch.Wait()
}

func (s *spaceBase) ready() error {
	if s.mesh == nil {
		return ErrNoInput
	}
	if err := s.wait(); err != nil {
		return fmt.Errorf("decal: space conversion: %w", err)
	}
	return nil
}

// Mesh returns the last input mesh, or nil.
func (s *spaceBase) Mesh() *MeshData { return s.mesh }

func (s *spaceBase) dispose() {
	_ = s.wait()
	s.batch = nil
	s.mesh = nil
}

// ParallelProjectionSpace is an orthographic box projection.
//
// Vertices are transformed into the decal's local space, offset so the box
// spans [0,1] on x and y. The decal UV is the local (x, y) and local z
// measures depth along the projection direction, 0 at the near face and 1
// at the far face.
type ParallelProjectionSpace struct {
	spaceBase
	worldToLocal mat4.T
	local        []vec3.T
	uv           []vec2.T
}

// NewParallelProjectionSpace creates a space from a world-to-local matrix.
func NewParallelProjectionSpace(worldToLocal mat4.T, opts ...SpaceOption) *ParallelProjectionSpace {
	return &ParallelProjectionSpace{spaceBase: newSpaceBase(opts), worldToLocal: worldToLocal}
}

// NewParallelProjectionSpaceFromLocal creates a space from the decal's
// local-to-world matrix.
func NewParallelProjectionSpaceFromLocal(localToWorld mat4.T, opts ...SpaceOption) (*ParallelProjectionSpace, error) {
	inv, err := Invert(localToWorld)
	if err != nil {
		return nil, err
	}
	return NewParallelProjectionSpace(inv, opts...), nil
}

// Input starts converting mesh.
func (s *ParallelProjectionSpace) Input(mesh *MeshData) error {
	if err := s.begin(mesh); err != nil {
		return err
	}
	n := len(mesh.Vertices)
	local, uv := make([]vec3.T, n), make([]vec2.T, n)
	s.local, s.uv = local, uv
	m := s.worldToLocal
	return s.start(mesh, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			p := transformPoint(&m, mesh.Vertices[i])
			p[0] += 0.5
			p[1] += 0.5
			local[i] = p
			uv[i] = xy(p)
		}
	})
}

// OutputUV returns the decal UV of every vertex.
func (s *ParallelProjectionSpace) OutputUV() ([]vec2.T, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.uv, nil
}

// Projected returns every vertex in offset local space, z included.
func (s *ParallelProjectionSpace) Projected() ([]vec3.T, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.local, nil
}

// Dispose drops the converted data.
func (s *ParallelProjectionSpace) Dispose() {
	s.dispose()
	s.local = nil
	s.uv = nil
}

// SingleGradientSpace maps each vertex to a point on a one-dimensional
// gradient. The gradient runs along the local y axis, from 0 at the origin
// to 1 at one unit of local y.
type SingleGradientSpace struct {
	spaceBase
	worldToLocal mat4.T
	uv           []vec2.T
}

// NewSingleGradientSpace creates a space from a world-to-local matrix.
func NewSingleGradientSpace(worldToLocal mat4.T, opts ...SpaceOption) *SingleGradientSpace {
	return &SingleGradientSpace{spaceBase: newSpaceBase(opts), worldToLocal: worldToLocal}
}

// Input starts converting mesh.
func (s *SingleGradientSpace) Input(mesh *MeshData) error {
	if err := s.begin(mesh); err != nil {
		return err
	}
	uv := make([]vec2.T, len(mesh.Vertices))
	s.uv = uv
	m := s.worldToLocal
	return s.start(mesh, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			p := transformPoint(&m, mesh.Vertices[i])
			uv[i] = vec2.T{p[1], 0.5}
		}
	})
}

// OutputUV returns the gradient coordinate of every vertex in x.
func (s *SingleGradientSpace) OutputUV() ([]vec2.T, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.uv, nil
}

// Dispose drops the converted data.
func (s *SingleGradientSpace) Dispose() {
	s.dispose()
	s.uv = nil
}
