// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command tttcanvas flattens a YAML layer document into a PNG.
//
// Usage:
//
//	tttcanvas -doc canvas.yaml -out result.png [-size N] [-thumb N] [-v]
//
// Image paths in the document are relative to the document's directory.
package main

import (
	"flag"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/gogpu/texstack"
)

func main() {
	var (
		docPath = flag.String("doc", "canvas.yaml", "layer document")
		output  = flag.String("out", "canvas.png", "output file")
		size    = flag.Int("size", 0, "canvas size hint, overrides the document")
		thumb   = flag.Int("thumb", 0, "also write a thumbnail of this size")
		budget  = flag.Int64("budget", 0, "memory budget for temporaries in bytes (0 = unlimited)")
		verbose = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *verbose {
		texstack.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	doc, err := loadDocument(*docPath)
	if err != nil {
		log.Fatalf("Failed to load %s: %v", *docPath, err)
	}
	images, err := doc.loadImages(filepath.Dir(*docPath), runtime.GOMAXPROCS(0))
	if err != nil {
		log.Fatalf("Failed to load images: %v", err)
	}
	layers, err := doc.build(images)
	if err != nil {
		log.Fatalf("Failed to build layers: %v", err)
	}

	hint := doc.Size
	if *size > 0 {
		hint = *size
	}
	if hint <= 0 {
		hint = 1024
	}

	e, err := texstack.New(texstack.WithMemoryBudget(*budget))
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}
	defer e.Close()

	out, err := e.EvaluateLayerTree(layers, hint)
	if err != nil {
		log.Fatalf("Failed to evaluate: %v", err)
	}

	var g errgroup.Group
	g.Go(func() error { return out.SavePNG(*output) })
	if *thumb > 0 {
		g.Go(func() error {
			small, err := e.ResizeImage(out, *thumb, *thumb)
			if err != nil {
				return err
			}
			return small.SavePNG(thumbPath(*output))
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}

	log.Printf("Canvas saved to %s (%dx%d)\n", *output, out.Width(), out.Height())
}

func thumbPath(p string) string {
	ext := filepath.Ext(p)
	return p[:len(p)-len(ext)] + ".thumb" + ext
}
