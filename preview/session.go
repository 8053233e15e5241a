// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package preview shows decals on their materials without committing them.
//
// A Session swaps each targeted material texture for a preview copy and
// recomposes that copy from the original plus every registered decal
// whenever a decal changes. Closing the session puts the originals back.
package preview

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/texstack/blend"
	"github.com/gogpu/texstack/decal"
	"github.com/gogpu/texstack/internal/logging"
	"github.com/gogpu/texstack/texture"
)

// Errors returned by Session.
var (
	ErrSessionClosed     = errors.New("preview: session closed")
	ErrNotRegistered     = errors.New("preview: decal not registered")
	ErrAlreadyRegistered = errors.New("preview: decal already registered")
)

// Decal is a decal that can be compiled into caller-owned buffers.
// *decal.SimpleDecal and *decal.GradationDecal implement it.
type Decal interface {
	Property() string
	Key() string
	Targets() []*decal.Material
	Compile(writable map[*decal.Material]*texture.Buffer, opts ...decal.ApplyOption) error
}

type target struct {
	mat  *decal.Material
	prop string
}

// slot is one swapped material texture.
type slot struct {
	original *texture.Buffer
	preview  *texture.Buffer
	entries  []*entry
}

// entry is one registered decal and its writable buffers.
type entry struct {
	decal   Decal
	targets []target
	buffers map[*decal.Material]*texture.Buffer
}

// Session tracks the decals previewed on a set of materials.
// Session is safe for concurrent use.
type Session struct {
	mu        sync.Mutex
	reg       *blend.Registry
	applyOpts []decal.ApplyOption

	slots   map[target]*slot
	entries map[Decal]*entry
	closed  bool
}

// Option configures a Session.
type Option func(*Session)

// WithRegistry sets the registry previews are composed with.
func WithRegistry(r *blend.Registry) Option {
	return func(s *Session) {
		if r != nil {
			s.reg = r
		}
	}
}

// WithApplyOptions passes opts to every decal compile.
func WithApplyOptions(opts ...decal.ApplyOption) Option {
	return func(s *Session) { s.applyOpts = append(s.applyOpts, opts...) }
}

// NewSession returns an empty session.
func NewSession(opts ...Option) *Session {
	s := &Session{
		reg:     blend.Default(),
		slots:   make(map[target]*slot),
		entries: make(map[Decal]*entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register swaps the textures d targets for preview copies and draws d
// onto them. If drawing fails, d is left unregistered and the textures
// it swapped are restored.
func (s *Session) Register(d Decal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if _, ok := s.entries[d]; ok {
		return ErrAlreadyRegistered
	}

	e := &entry{decal: d, buffers: make(map[*decal.Material]*texture.Buffer)}
	prop := d.Property()
	for _, m := range d.Targets() {
		t := target{mat: m, prop: prop}
		sl, ok := s.slots[t]
		var src *texture.Buffer
		switch tex, has := m.Texture(prop); {
		case ok:
			src = sl.original
		case has:
			src = tex
		default:
			continue
		}
		buf, err := texture.NewBuffer(src.Width(), src.Height())
		if err != nil {
			_ = s.remove(e)
			return fmt.Errorf("preview: material %q: %w", m.Name, err)
		}
		if !ok {
			sl = &slot{original: src, preview: src.Clone()}
			sl.preview.SetName(src.Name())
			m.SetTexture(prop, sl.preview)
			s.slots[t] = sl
		}
		sl.entries = append(sl.entries, e)
		e.targets = append(e.targets, t)
		e.buffers[m] = buf
	}
	if err := s.update(e); err != nil {
		_ = s.remove(e)
		return err
	}
	s.entries[d] = e
	logging.Logger().Debug("preview: decal registered", "targets", len(e.targets))
	return nil
}

// Update redraws d and recomposes every preview it touches.
func (s *Session) Update(d Decal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	e, ok := s.entries[d]
	if !ok {
		return ErrNotRegistered
	}
	return s.update(e)
}

func (s *Session) update(e *entry) error {
	for _, buf := range e.buffers {
		buf.Clear()
	}
	if len(e.buffers) > 0 {
		if err := e.decal.Compile(e.buffers, s.applyOpts...); err != nil {
			return err
		}
	}
	for _, t := range e.targets {
		if err := s.recompose(s.slots[t], t.mat); err != nil {
			return err
		}
	}
	return nil
}

// recompose rebuilds a preview from its original and its decals in
// registration order.
func (s *Session) recompose(sl *slot, m *decal.Material) error {
	if err := sl.preview.CopyFrom(sl.original); err != nil {
		return err
	}
	for _, e := range sl.entries {
		if err := s.reg.Blend(sl.preview, e.buffers[m], e.decal.Key()); err != nil {
			return err
		}
	}
	return nil
}

// Unregister removes d. Textures no other decal targets are restored;
// the rest are recomposed without d.
func (s *Session) Unregister(d Decal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	e, ok := s.entries[d]
	if !ok {
		return ErrNotRegistered
	}
	delete(s.entries, d)
	err := s.remove(e)
	logging.Logger().Debug("preview: decal unregistered", "targets", len(e.targets))
	return err
}

// remove detaches e from its slots, restoring the ones left empty.
func (s *Session) remove(e *entry) error {
	var firstErr error
	for _, t := range e.targets {
		sl := s.slots[t]
		for i, other := range sl.entries {
			if other == e {
				sl.entries = append(sl.entries[:i], sl.entries[i+1:]...)
				break
			}
		}
		if len(sl.entries) == 0 {
			t.mat.SetTexture(t.prop, sl.original)
			delete(s.slots, t)
			continue
		}
		if err := s.recompose(sl, t.mat); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Registered reports whether d is in the session.
func (s *Session) Registered(d Decal) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[d]
	return ok
}

// Len returns the number of registered decals.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Close restores every swapped texture and drops all decals.
// Close is safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for t, sl := range s.slots {
		t.mat.SetTexture(t.prop, sl.original)
	}
	clear(s.slots)
	clear(s.entries)
}
