// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package parallel runs independent per-partition work on a fixed set of
// goroutines and joins it before the caller proceeds.
//
// Only data-parallel steps use it (vertex space conversion, buffer export).
// Layer composition is order dependent and never runs here.
package parallel

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerPool is a pool of goroutines with per-worker queues.
//
// Workers pull from their own queue and steal from the others when it is
// empty, which balances load when some partitions are slower than others.
//
// Thread safety: WorkerPool is safe for concurrent use.
type WorkerPool struct {
	workers    int
	workQueues []chan func()

	// done signals workers to stop.
	done chan struct{}
	wg   sync.WaitGroup

	// running indicates whether the pool is accepting work.
	running atomic.Bool
}

// NewWorkerPool creates a pool with the given parallelism width.
// If workers is 0 or negative, GOMAXPROCS is used.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	queueSize := max(workers*4, 8)

	p := &WorkerPool{
		workers:    workers,
		workQueues: make([]chan func(), workers),
		done:       make(chan struct{}),
	}
	for i := range workers {
		p.workQueues[i] = make(chan func(), queueSize)
	}
	p.running.Store(true)

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}
	return p
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()
	myQueue := p.workQueues[id]

	for {
		select {
		case <-p.done:
			p.drainQueue(myQueue)
			return
		case work := <-myQueue:
			work()
		default:
			if stolen := p.steal(id); stolen != nil {
				stolen()
				continue
			}
			select {
			case <-p.done:
				p.drainQueue(myQueue)
				return
			case work := <-myQueue:
				work()
			}
		}
	}
}

func (p *WorkerPool) drainQueue(queue chan func()) {
	for {
		select {
		case work := <-queue:
			work()
		default:
			return
		}
	}
}

// steal takes one item from another worker's queue, or returns nil.
func (p *WorkerPool) steal(myID int) func() {
	for i := range p.workers {
		if i == myID {
			continue
		}
		select {
		case work := <-p.workQueues[i]:
			return work
		default:
		}
	}
	return nil
}

// Batch is a group of work items scheduled together. Wait is the join point.
type Batch struct {
	wg     sync.WaitGroup
	once   sync.Once
	err    error
	failed atomic.Bool
}

// Wait blocks until every item has finished or been skipped and returns the
// first error reported by an item.
func (b *Batch) Wait() error {
	b.wg.Wait()
	return b.err
}

func (b *Batch) run(fn func() error) {
	defer b.wg.Done()
	if b.failed.Load() {
		return
	}
	if err := protect(fn); err != nil {
		b.once.Do(func() { b.err = err })
		b.failed.Store(true)
	}
}

// protect turns a panic in fn into an error so it reaches the join point.
func protect(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parallel: task panicked: %v", r)
		}
	}()
	return fn()
}

// Go schedules work round-robin across the workers and returns immediately.
// Once an item fails, items that have not started yet are skipped.
// On a closed pool the items run synchronously on the calling goroutine.
func (p *WorkerPool) Go(work []func() error) *Batch {
	b := &Batch{}
	b.wg.Add(len(work))
	for i, fn := range work {
		if !p.running.Load() {
			b.run(fn)
			continue
		}
		select {
		case p.workQueues[i%p.workers] <- func() { b.run(fn) }:
		case <-p.done:
			b.run(fn)
		}
	}
	// A concurrent Close may have stopped the workers after they drained
	// their queues but before the last sends landed.
	select {
	case <-p.done:
		for _, q := range p.workQueues {
			p.drainQueue(q)
		}
	default:
	}
	return b
}

// ExecuteAllErr runs work in parallel and returns the first error at the
// join point.
func (p *WorkerPool) ExecuteAllErr(work []func() error) error {
	if len(work) == 0 {
		return nil
	}
	return p.Go(work).Wait()
}

// ExecuteAll distributes work across workers and waits for all to complete.
func (p *WorkerPool) ExecuteAll(work []func()) {
	wrapped := make([]func() error, len(work))
	for i, fn := range work {
		wrapped[i] = func() error { fn(); return nil }
	}
	_ = p.ExecuteAllErr(wrapped)
}

// Close stops accepting work, finishes what is queued and stops the workers.
// Close is safe to call multiple times.
func (p *WorkerPool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}

// Workers returns the parallelism width.
func (p *WorkerPool) Workers() int {
	return p.workers
}

// IsRunning returns true if the pool is still accepting work.
func (p *WorkerPool) IsRunning() bool {
	return p.running.Load()
}

// Chunks splits n items into at most parts contiguous [start, end) ranges.
func Chunks(n, parts int) [][2]int {
	if n <= 0 {
		return nil
	}
	parts = max(1, min(parts, n))
	size := (n + parts - 1) / parts
	out := make([][2]int, 0, parts)
	for start := 0; start < n; start += size {
		out = append(out, [2]int{start, min(start+size, n)})
	}
	return out
}
