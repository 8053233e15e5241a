// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package texstack composites layered textures and projects decals onto
// mesh textures.
//
// # Overview
//
// texstack has two halves that share one buffer pool and one blend
// registry:
//
//   - Layer compositing (package layer): a tree of raster and folder layers
//     with opacity, masks, clipping and pass-through folders is flattened
//     into one square canvas.
//   - Decal projection (package decal): mesh vertices are converted into
//     decal space, triangles are culled and selected by UV island, and the
//     decal image is rasterized into per-material buffers that are then
//     blended onto the material textures.
//
// # Quick Start
//
//	e, err := texstack.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer e.Close()
//
//	base, _ := texture.Load("base.png")
//	paint, _ := texture.Load("paint.png")
//	top := layer.NewRaster("paint", paint)
//	top.Opacity = 0.5
//	out, err := e.EvaluateLayerTree([]layer.Layer{top, layer.NewRaster("base", base)}, 1000)
//	// out is 1024x1024
//
// # Architecture
//
// The library is organized into:
//   - texture: RGBA8 buffers, the temporary pool, sampling, mipmaps, resize
//   - blend: the blend mode registry and alpha operations
//   - layer: the layer model, the canvas accumulator and the evaluator
//   - decal: spaces, filters, the rasterizing context and the decals
//   - preview: sessions that show decals without committing them
//   - gpu: texture descriptors and the WGSL blend shader
//   - meshio: glTF import
//
// # Logging
//
// texstack is silent by default. See SetLogger.
package texstack
