// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package parallel

import (
	"errors"
	"runtime"
	"sync/atomic"
	"testing"
	"time"
)

// =============================================================================
// WorkerPool Creation Tests
// =============================================================================

func TestWorkerPool_Create(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	if pool.Workers() != 4 {
		t.Errorf("Workers() = %d, want 4", pool.Workers())
	}
	if !pool.IsRunning() {
		t.Error("Pool should be running after creation")
	}
}

func TestWorkerPool_CreateDefaultWidth(t *testing.T) {
	for _, n := range []int{0, -5} {
		pool := NewWorkerPool(n)
		expected := runtime.GOMAXPROCS(0)
		if pool.Workers() != expected {
			t.Errorf("NewWorkerPool(%d).Workers() = %d, want %d (GOMAXPROCS)", n, pool.Workers(), expected)
		}
		pool.Close()
	}
}

// =============================================================================
// Execution Tests
// =============================================================================

func TestWorkerPool_ExecuteAll(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	results := make([]int, 100)
	work := make([]func(), len(results))
	for i := range work {
		work[i] = func() { results[i] = i * i }
	}
	pool.ExecuteAll(work)

	for i, got := range results {
		if got != i*i {
			t.Fatalf("results[%d] = %d, want %d", i, got, i*i)
		}
	}
}

func TestWorkerPool_ExecuteAllErr(t *testing.T) {
	errBoom := errors.New("boom")

	tests := []struct {
		name    string
		failAt  int
		wantErr error
	}{
		{"no failure", -1, nil},
		{"first fails", 0, errBoom},
		{"last fails", 19, errBoom},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := NewWorkerPool(2)
			defer pool.Close()

			var ran atomic.Int32
			work := make([]func() error, 20)
			for i := range work {
				work[i] = func() error {
					ran.Add(1)
					if i == tt.failAt {
						return errBoom
					}
					return nil
				}
			}
			err := pool.ExecuteAllErr(work)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ExecuteAllErr() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && ran.Load() != 20 {
				t.Errorf("ran %d items, want 20", ran.Load())
			}
		})
	}
}

func TestWorkerPool_PanicReachesJoin(t *testing.T) {
	pool := NewWorkerPool(2)
	defer pool.Close()

	err := pool.ExecuteAllErr([]func() error{
		func() error { return nil },
		func() error { panic("bad partition") },
	})
	if err == nil {
		t.Fatal("ExecuteAllErr() error = nil, want panic error")
	}
}

func TestWorkerPool_GoAsync(t *testing.T) {
	pool := NewWorkerPool(3)
	defer pool.Close()

	var sum atomic.Int64
	work := make([]func() error, 10)
	for i := range work {
		work[i] = func() error { sum.Add(int64(i)); return nil }
	}
	batch := pool.Go(work)
	if err := batch.Wait(); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if sum.Load() != 45 {
		t.Errorf("sum = %d, want 45", sum.Load())
	}
}

func TestWorkerPool_AfterCloseRunsInline(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Close()
	pool.Close() // idempotent

	if pool.IsRunning() {
		t.Fatal("IsRunning() = true after Close")
	}
	var ran atomic.Int32
	err := pool.ExecuteAllErr([]func() error{
		func() error { ran.Add(1); return nil },
		func() error { ran.Add(1); return nil },
	})
	if err != nil || ran.Load() != 2 {
		t.Errorf("after Close: err = %v, ran = %d; want nil, 2", err, ran.Load())
	}
}

func TestWorkerPool_CloseDuringGo(t *testing.T) {
	const items = 64
	for range 200 {
		pool := NewWorkerPool(2)
		var ran atomic.Int32
		work := make([]func() error, items)
		for i := range work {
			work[i] = func() error { ran.Add(1); return nil }
		}

		go pool.Close()
		b := pool.Go(work)

		done := make(chan error, 1)
		go func() { done <- b.Wait() }()
		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("Wait() error = %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("Wait() blocked after a concurrent Close")
		}
		if n := ran.Load(); n != items {
			t.Fatalf("ran %d items, want %d", n, items)
		}
		pool.Close()
	}
}

func TestChunks(t *testing.T) {
	tests := []struct {
		n, parts int
		want     [][2]int
	}{
		{0, 4, nil},
		{3, 8, [][2]int{{0, 1}, {1, 2}, {2, 3}}},
		{10, 3, [][2]int{{0, 4}, {4, 8}, {8, 10}}},
		{5, 0, [][2]int{{0, 5}}},
	}
	for _, tt := range tests {
		got := Chunks(tt.n, tt.parts)
		if len(got) != len(tt.want) {
			t.Errorf("Chunks(%d, %d) = %v, want %v", tt.n, tt.parts, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("Chunks(%d, %d) = %v, want %v", tt.n, tt.parts, got, tt.want)
				break
			}
		}
	}
}
