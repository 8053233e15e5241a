// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package texture

import (
	"errors"
	"sync"
	"testing"
)

func TestPool_AcquireRelease(t *testing.T) {
	pool := NewPool(WithMaxPerBucket(4))

	buf1, err := pool.Acquire(16, 8)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if buf1.Width() != 16 || buf1.Height() != 8 {
		t.Errorf("got dimensions %dx%d, want 16x8", buf1.Width(), buf1.Height())
	}
	if !buf1.Temporary() {
		t.Error("Temporary() = false, want true")
	}
	if got := pool.Outstanding(); got != 1 {
		t.Errorf("Outstanding() = %d, want 1", got)
	}

	_ = buf1.SetRGBA(0, 0, 255, 128, 64, 200)
	if err := pool.Release(buf1); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if got := pool.Outstanding(); got != 0 {
		t.Errorf("Outstanding() after release = %d, want 0", got)
	}

	// Reused buffer must come back cleared.
	buf2, err := pool.Acquire(16, 8)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if buf2 != buf1 {
		t.Error("expected the released buffer to be reused")
	}
	r, g, b, a := buf2.GetRGBA(0, 0)
	if r != 0 || g != 0 || b != 0 || a != 0 {
		t.Errorf("buffer not cleared: got RGBA(%d,%d,%d,%d), want (0,0,0,0)", r, g, b, a)
	}
	_ = pool.Release(buf2)
}

func TestPool_ReleaseErrors(t *testing.T) {
	pool := NewPool()
	other := NewPool()

	owned, _ := NewBuffer(4, 4)
	if err := pool.Release(owned); !errors.Is(err, ErrNotTemporary) {
		t.Errorf("Release(owned) error = %v, want ErrNotTemporary", err)
	}
	if err := pool.Release(nil); err != nil {
		t.Errorf("Release(nil) error = %v, want nil", err)
	}

	tmp, _ := pool.Acquire(4, 4)
	if err := other.Release(tmp); !errors.Is(err, ErrForeignPool) {
		t.Errorf("Release(foreign) error = %v, want ErrForeignPool", err)
	}
	if err := pool.Release(tmp); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if err := pool.Release(tmp); !errors.Is(err, ErrNotTemporary) {
		t.Errorf("double Release() error = %v, want ErrNotTemporary", err)
	}
	if got := pool.Outstanding(); got != 0 {
		t.Errorf("Outstanding() = %d, want 0", got)
	}
}

func TestPool_Budget(t *testing.T) {
	// Room for exactly two 4x4 buffers.
	pool := NewPool(WithBudget(2 * 4 * 4 * 4))

	a, err := pool.Acquire(4, 4)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	b, err := pool.Acquire(4, 4)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if _, err := pool.Acquire(4, 4); !errors.Is(err, ErrResourceExhausted) {
		t.Fatalf("Acquire() over budget error = %v, want ErrResourceExhausted", err)
	}
	if got := pool.Outstanding(); got != 2 {
		t.Errorf("Outstanding() = %d, want 2", got)
	}

	_ = pool.Release(a)
	c, err := pool.Acquire(4, 4)
	if err != nil {
		t.Fatalf("Acquire() after release error = %v", err)
	}
	_ = pool.Release(b)
	_ = pool.Release(c)
	if got := pool.LiveBytes(); got != 0 {
		t.Errorf("LiveBytes() = %d, want 0", got)
	}
}

func TestPool_Detach(t *testing.T) {
	pool := NewPool()
	tmp, _ := pool.Acquire(2, 2)

	owned, err := pool.Detach(tmp)
	if err != nil {
		t.Fatalf("Detach() error = %v", err)
	}
	if owned.Temporary() {
		t.Error("detached buffer still reports Temporary() = true")
	}
	if got := pool.Outstanding(); got != 0 {
		t.Errorf("Outstanding() = %d, want 0", got)
	}
	if err := pool.Release(owned); !errors.Is(err, ErrNotTemporary) {
		t.Errorf("Release(detached) error = %v, want ErrNotTemporary", err)
	}
}

func TestPool_Concurrent(t *testing.T) {
	pool := NewPool()
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				buf, err := pool.Acquire(8, 8)
				if err != nil {
					t.Errorf("Acquire() error = %v", err)
					return
				}
				_ = pool.Release(buf)
			}
		}()
	}
	wg.Wait()
	if got := pool.Outstanding(); got != 0 {
		t.Errorf("Outstanding() = %d, want 0", got)
	}
}
