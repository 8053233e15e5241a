// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command tttdecal projects an image onto a glTF mesh and writes the
// resulting material textures.
//
// Usage:
//
//	tttdecal -mesh model.glb -decal decal.png -texture base.png -out dir \
//	    [-property _MainTex] [-pos x,y,z] [-forward x,y,z] [-up x,y,z] \
//	    [-scale sx,sy] [-depth d] [-blend Normal] [-culling Vertex]
//
// Materials without the target property get a copy of -texture. One PNG is
// written per material, named after it.
package main

import (
	"flag"
	"log"
	"log/slog"
	"os"
	"runtime"

	"github.com/flywave/go3d/float64/vec2"
	"github.com/flywave/go3d/float64/vec3"

	"github.com/gogpu/texstack"
	"github.com/gogpu/texstack/blend"
	"github.com/gogpu/texstack/decal"
	"github.com/gogpu/texstack/meshio"
	"github.com/gogpu/texstack/texture"
)

func main() {
	var (
		meshPath  = flag.String("mesh", "model.glb", "glTF or GLB mesh")
		decalPath = flag.String("decal", "decal.png", "decal image")
		basePath  = flag.String("texture", "", "base texture for materials (default: 1024x1024 white)")
		property  = flag.String("property", decal.DefaultProperty, "material texture property")
		outDir    = flag.String("out", "out", "output directory")
		depth     = flag.Float64("depth", 1, "projection depth")
		blendKey  = flag.String("blend", blend.KeyDefault, "blend mode")
		culling   = flag.String("culling", decal.PolygonVertex.String(), "polygon culling: Vertex, Edge or EdgeAndCenterRay")
		noSide    = flag.Bool("no-side-culling", false, "keep back-facing triangles")
		padding   = flag.Float64("padding", 0, "rasterization padding in pixels")
		verbose   = flag.Bool("v", false, "debug logging")

		pos     = vec3Flag{}
		forward = vec3Flag{vec3.T{0, 0, 1}}
		up      = vec3Flag{vec3.T{0, 1, 0}}
		scale   = vec2Flag{vec2.T{1, 1}}
	)
	flag.Var(&pos, "pos", "decal position x,y,z")
	flag.Var(&forward, "forward", "projection direction x,y,z")
	flag.Var(&up, "up", "decal up x,y,z")
	flag.Var(&scale, "scale", "decal size sx,sy")
	flag.Parse()

	if *verbose {
		texstack.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	renderers, err := meshio.Load(*meshPath)
	if err != nil {
		log.Fatalf("Failed to load mesh: %v", err)
	}
	src, err := texture.Load(*decalPath)
	if err != nil {
		log.Fatalf("Failed to load decal: %v", err)
	}
	base, err := loadBase(*basePath)
	if err != nil {
		log.Fatalf("Failed to load texture: %v", err)
	}
	attachBase(renderers, *property, base)

	mode, ok := decal.ParsePolygonCulling(*culling)
	if !ok {
		log.Fatalf("Unknown culling mode %q", *culling)
	}

	d := decal.NewSimpleDecal(src, renderers...)
	d.Position = pos.v
	d.Forward = forward.v
	d.Up = up.v
	d.Scale = scale.v
	d.MaxDistance = *depth
	d.BlendKey = *blendKey
	d.TargetProperty = *property
	d.PolygonCulling = mode
	d.SideCulling = !*noSide
	d.Padding = *padding

	e, err := texstack.New()
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}
	defer e.Close()

	n, err := e.BakeDecal(d)
	if err != nil {
		log.Fatalf("Failed to project decal: %v", err)
	}

	paths, err := export(*outDir, *property, materialsOf(renderers), runtime.GOMAXPROCS(0))
	if err != nil {
		log.Fatalf("Failed to export: %v", err)
	}
	log.Printf("Decal baked into %d textures, wrote %d files to %s\n", n, len(paths), *outDir)
}

func loadBase(path string) (*texture.Buffer, error) {
	if path == "" {
		buf, err := texture.NewBuffer(1024, 1024)
		if err != nil {
			return nil, err
		}
		blend.FillColor(buf, texture.White)
		return buf, nil
	}
	return texture.Load(path)
}
