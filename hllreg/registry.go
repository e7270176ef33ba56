/**
 * Copyright 2016 l0vest0rm.hll authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License"): you may
 * not use this file except in compliance with the License. You may obtain
 * a copy of the License at
 *
 *     http: *www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
 * WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
 * License for the specific language governing permissions and limitations
 * under the License.
 */

// Package hllreg adds the concurrency, logging, and metrics a production
// deployment needs around the pure-value hll.Sketch: a named, mutex-guarded
// registry of sketches safe for concurrent use, structured logging of
// representation promotions, and a prometheus.Collector exposing per-sketch
// cardinality and variant as gauges. None of this lives in package hll
// itself — see hll.Sketch's doc comment on why it stays a pure value.
package hllreg

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cardsketch/hll/hll"
	"github.com/cardsketch/hll/hllhash"
)

// Option configures a Registry at construction time.
type Option func(*Registry)

// WithHasher overrides the default xxhash-based Hasher used to turn raw
// keys into the 64-bit digests hll.Sketch.InsertHash expects.
func WithHasher(h hllhash.Hasher) Option {
	return func(r *Registry) {
		r.hasher = h
	}
}

// WithLogger overrides the default slog.Default() logger, e.g. to attach
// request-scoped attributes or route output somewhere other than stderr.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithParameters overrides the default (P=14, W=6) used when a sketch is
// created implicitly on first Insert for a previously unseen name.
func WithParameters(p, w uint8) Option {
	return func(r *Registry) {
		r.p, r.w = p, w
	}
}

const (
	defaultPrecision = uint8(14)
	defaultWidth     = uint8(6)
)

// Registry is a named collection of hll.Sketch values, safe for concurrent
// use from multiple goroutines. It is the layer that owns locking, logging,
// and metrics export; the underlying sketches remain plain values.
type Registry struct {
	mu       sync.Mutex
	sketches map[string]*hll.Sketch
	variants map[string]string // last-observed Variant(), reported by Collect

	hasher hllhash.Hasher
	logger *slog.Logger
	p, w   uint8
}

// NewRegistry builds an empty Registry. Sketches are created lazily on
// first Insert for a given name, using the (P, W) configured via
// WithParameters (default P=14, W=6).
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		sketches: make(map[string]*hll.Sketch),
		variants: make(map[string]string),
		hasher:   hllhash.XXHash{},
		logger:   slog.Default(),
		p:        defaultPrecision,
		w:        defaultWidth,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Insert hashes key with the registry's Hasher and inserts it into the
// named sketch, creating that sketch on first use. It logs a promotion
// event whenever the sketch's representation advances (Small->Array or
// Array->Dense).
func (r *Registry) Insert(ctx context.Context, name string, key []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.getOrCreateLocked(name)
	if err != nil {
		return err
	}

	before := s.Variant()
	s.InsertHash(r.hasher.Sum64(key))
	after := s.Variant()

	if after != before {
		r.logger.InfoContext(ctx, "hll sketch promoted",
			"sketch", name, "from", before, "to", after)
		r.variants[name] = after
	}
	return nil
}

// Estimate returns the current cardinality estimate for name, or 0 if name
// has never been inserted into.
func (r *Registry) Estimate(name string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sketches[name]
	if !ok {
		return 0
	}
	return s.Estimate()
}

// Merge merges other's state into the named sketch, creating it with the
// registry's default (P, W) if it does not exist yet. Returns
// hll.ErrIncompatibleParameters if other was built with a different (P, W).
func (r *Registry) Merge(ctx context.Context, name string, other *hll.Sketch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.getOrCreateLocked(name)
	if err != nil {
		return err
	}

	before := s.Variant()
	if err := s.Merge(other); err != nil {
		return fmt.Errorf("hllreg: merge into %q: %w", name, err)
	}
	after := s.Variant()

	if after != before {
		r.logger.InfoContext(ctx, "hll sketch promoted",
			"sketch", name, "from", before, "to", after)
		r.variants[name] = after
	}
	return nil
}

// Snapshot returns an independent clone of the named sketch, suitable for
// serialization or for seeding a Merge against another registry. Returns
// nil if name has never been inserted into.
func (r *Registry) Snapshot(name string) *hll.Sketch {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sketches[name]
	if !ok {
		return nil
	}
	return s.Clone()
}

// Names returns the sketch names currently tracked by the registry.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.sketches))
	for name := range r.sketches {
		names = append(names, name)
	}
	return names
}

func (r *Registry) getOrCreateLocked(name string) (*hll.Sketch, error) {
	if s, ok := r.sketches[name]; ok {
		return s, nil
	}
	s, err := hll.New(r.p, r.w)
	if err != nil {
		return nil, fmt.Errorf("hllreg: create sketch %q: %w", name, err)
	}
	r.sketches[name] = s
	r.variants[name] = s.Variant()
	return s, nil
}
