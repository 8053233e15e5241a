// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package texstack

import (
	"github.com/gogpu/texstack/blend"
	"github.com/gogpu/texstack/texture"
)

// Option configures an Engine during creation.
//
// Example:
//
//	// Defaults: private pool, built-in blend modes, GOMAXPROCS workers
//	e, err := texstack.New()
//
//	// Bounded memory and a compiled GPU blend shader
//	e, err := texstack.New(texstack.WithMemoryBudget(256<<20), texstack.WithGPUShaders())
type Option func(*options)

// options holds optional configuration for Engine creation.
type options struct {
	pool       *texture.Pool
	reg        *blend.Registry
	workers    int
	budget     int64
	gpuShaders bool
	exactSize  bool
}

// defaultOptions returns the default engine options.
func defaultOptions() options {
	return options{
		pool:    nil, // created from budget in New
		reg:     nil, // blend.Default()
		workers: 0,   // GOMAXPROCS
	}
}

// WithPool makes the engine acquire temporaries from p. The pool's own
// budget applies and WithMemoryBudget is ignored.
func WithPool(p *texture.Pool) Option {
	return func(o *options) {
		o.pool = p
	}
}

// WithRegistry sets the blend registry, for custom blend modes.
func WithRegistry(r *blend.Registry) Option {
	return func(o *options) {
		o.reg = r
	}
}

// WithWorkers sets the parallelism width of vertex conversion.
// Zero or negative means GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithMemoryBudget caps the bytes of live temporaries. Evaluation that would
// exceed it fails with ErrResourceExhausted. Zero means unlimited.
func WithMemoryBudget(bytes int64) Option {
	return func(o *options) {
		o.budget = bytes
	}
}

// WithGPUShaders compiles the GPU blend shader when the engine is created.
// New fails if the shader does not compile.
func WithGPUShaders() Option {
	return func(o *options) {
		o.gpuShaders = true
	}
}

// WithExactCanvasSize keeps the canvas size hint as given instead of
// normalizing it to a power of two.
func WithExactCanvasSize() Option {
	return func(o *options) {
		o.exactSize = true
	}
}
