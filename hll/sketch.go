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

// Package hll implements a HyperLogLog++-based cardinality sketch with two
// small-cardinality exact representations (Small, Array) ahead of the
// probabilistic Dense representation, plus a compact self-describing
// serialization. See SPEC_FULL.md for the full design.
package hll

import (
	"fmt"
	"sort"
)

// kind identifies which of the three mutually-exclusive storage variants a
// Sketch currently holds. Sketches only ever move forward through this
// sequence — Small, then Array, then Dense — never back.
type kind uint8

const (
	kindSmall kind = iota
	kindArray
	kindDense
)

// defaultArrayMax is the Array footprint ceiling in elements (128 payloads
// of 4 bytes each = 512 bytes), chosen per the design notes so Array never
// outgrows Dense at typical (P, W). See arrayMax for the per-(P,W) clamp.
const defaultArrayMax = 128

// Sketch is a probabilistic cardinality estimator over a fixed (P, W). It is
// a pure value: construction, Insert, Estimate, Merge, and serialization are
// synchronous and never block. A single Sketch is not safe for concurrent
// mutation; callers needing that should look at package hllreg.
type Sketch struct {
	p uint8
	w uint8
	m uint32

	variant kind

	// Small
	smallA, smallB uint32

	// Array: strictly increasing, deduplicated register-payloads.
	array []uint32

	// Dense
	dense *denseBank
}

// New returns an empty Small sketch parameterized by precision p
// (4 <= p <= 18) and register width w. w must satisfy 2^w-1 >= maxRho(p)
// so every reachable rho value (up to 64-p+1) fits in a register.
func New(p, w uint8) (*Sketch, error) {
	if p < 4 || p > 18 {
		return nil, fmt.Errorf("hll: precision p=%d out of range [4,18]", p)
	}
	if w == 0 || w > 63 {
		return nil, fmt.Errorf("hll: register width w=%d out of range [1,63]", w)
	}
	if (uint64(1)<<w)-1 < uint64(maxRho(p)) {
		return nil, fmt.Errorf("hll: register width w=%d too small for precision p=%d (need 2^w-1 >= %d)", w, p, maxRho(p))
	}

	return &Sketch{
		p:       p,
		w:       w,
		m:       uint32(1) << p,
		variant: kindSmall,
	}, nil
}

// Precision returns P.
func (s *Sketch) Precision() uint8 { return s.p }

// Width returns W.
func (s *Sketch) Width() uint8 { return s.w }

// arrayMax returns the Array promotion threshold for this sketch's (P, W):
// 128 unless the Dense footprint for this (P, W) would itself be smaller,
// in which case it is clamped down to match (and never below 3, the
// minimum Array length the data model allows).
func arrayMax(p, w uint8) int {
	m := uint64(1) << p
	denseBytes := ceilDivUint64(m*uint64(w), 8)
	max := denseBytes / 4
	if max > defaultArrayMax {
		return defaultArrayMax
	}
	if max < 3 {
		return 3
	}
	return int(max)
}

// InsertHash ingests a raw 64-bit hash, equivalent to Insert(NewElement(h)).
func (s *Sketch) InsertHash(h uint64) {
	s.insertPayload(payloadFor(h, s.p))
}

// Insert ingests one pre-hashed element.
func (s *Sketch) Insert(e Element) {
	s.InsertHash(e.Hash())
}

func (s *Sketch) insertPayload(payload uint32) {
	switch s.variant {
	case kindSmall:
		s.insertSmall(payload)
	case kindArray:
		s.insertArray(payload)
	case kindDense:
		s.insertDense(payload)
	default:
		panic("hll: unreachable variant")
	}
}

func (s *Sketch) insertSmall(payload uint32) {
	if s.smallA == payload || s.smallB == payload {
		return
	}
	if s.smallA == 0 {
		s.smallA = payload
		return
	}
	if s.smallB == 0 {
		s.smallB = payload
		return
	}

	// Third distinct payload: promote to Array.
	xs := []uint32{s.smallA, s.smallB, payload}
	sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
	s.variant = kindArray
	s.array = xs
	s.smallA, s.smallB = 0, 0
}

func (s *Sketch) insertArray(payload uint32) {
	idx := sort.Search(len(s.array), func(i int) bool { return s.array[i] >= payload })
	if idx < len(s.array) && s.array[idx] == payload {
		return
	}

	if len(s.array) < arrayMax(s.p, s.w) {
		s.array = append(s.array, 0)
		copy(s.array[idx+1:], s.array[idx:])
		s.array[idx] = payload
		return
	}

	// (ARRAY_MAX+1)-th distinct payload: promote to Dense.
	bank := newDenseBank(s.p, s.w)
	for _, x := range s.array {
		bank.setMax(payloadIndex(x, s.p), payloadRho(x, s.p))
	}
	bank.setMax(payloadIndex(payload, s.p), payloadRho(payload, s.p))

	s.variant = kindDense
	s.dense = bank
	s.array = nil
}

func (s *Sketch) insertDense(payload uint32) {
	s.dense.setMax(payloadIndex(payload, s.p), payloadRho(payload, s.p))
}

// Estimate returns the current distinct-count estimate. Small and Array
// report the exact count; Dense uses the LogLog-Beta corrected HLL++
// estimator.
func (s *Sketch) Estimate() uint64 {
	switch s.variant {
	case kindSmall:
		return s.smallCount()
	case kindArray:
		return uint64(len(s.array))
	case kindDense:
		return estimateDense(s.m, s.dense.zeros, s.dense.harmonic)
	default:
		panic("hll: unreachable variant")
	}
}

func (s *Sketch) smallCount() uint64 {
	n := uint64(0)
	if s.smallA != 0 {
		n++
	}
	if s.smallB != 0 {
		n++
	}
	return n
}

// Clone returns a deep, independent copy of s.
func (s *Sketch) Clone() *Sketch {
	c := &Sketch{p: s.p, w: s.w, m: s.m, variant: s.variant}
	switch s.variant {
	case kindSmall:
		c.smallA, c.smallB = s.smallA, s.smallB
	case kindArray:
		c.array = append([]uint32(nil), s.array...)
	case kindDense:
		c.dense = s.dense.clone()
	}
	return c
}

// Variant reports which representation the sketch currently holds, for
// diagnostics and tests. It is not part of the data model and callers
// should not branch production logic on it.
func (s *Sketch) Variant() string {
	switch s.variant {
	case kindSmall:
		return "small"
	case kindArray:
		return "array"
	case kindDense:
		return "dense"
	default:
		return "unknown"
	}
}
