// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/flywave/go3d/float64/vec2"
	"github.com/flywave/go3d/float64/vec3"
)

func parseFloats(s string, n int) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("%q: want %d comma-separated numbers", s, n)
	}
	out := make([]float64, n)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", s, err)
		}
		out[i] = v
	}
	return out, nil
}

// vec3Flag is a flag.Value holding "x,y,z".
type vec3Flag struct{ v vec3.T }

func (f *vec3Flag) String() string {
	return fmt.Sprintf("%g,%g,%g", f.v[0], f.v[1], f.v[2])
}

func (f *vec3Flag) Set(s string) error {
	v, err := parseFloats(s, 3)
	if err != nil {
		return err
	}
	f.v = vec3.T{v[0], v[1], v[2]}
	return nil
}

// vec2Flag is a flag.Value holding "x,y".
type vec2Flag struct{ v vec2.T }

func (f *vec2Flag) String() string {
	return fmt.Sprintf("%g,%g", f.v[0], f.v[1])
}

func (f *vec2Flag) Set(s string) error {
	v, err := parseFloats(s, 2)
	if err != nil {
		return err
	}
	f.v = vec2.T{v[0], v[1]}
	return nil
}
