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

// Package hllhash supplies ready-made 64-bit hashers for feeding
// hll.Sketch.InsertHash. The sketch itself is hash-function agnostic (see
// hll.Element's doc comment); this package exists so callers don't each
// have to pick and wire one up by hand.
package hllhash

import (
	"github.com/cespare/xxhash/v2"
	farm "github.com/dgryski/go-farm"
	"github.com/spaolacci/murmur3"
)

// Hasher reduces a byte slice to the 64-bit digest hll.Sketch expects from
// InsertHash. Implementations must be deterministic: the same bytes must
// always produce the same digest for the lifetime of a dataset, since
// mixing hashers across inserts into one sketch silently corrupts
// estimates.
type Hasher interface {
	Sum64(b []byte) uint64
}

// XXHash is the default recommended hasher: xxhash is fast, well
// distributed, and has no known degenerate inputs for sketch workloads.
type XXHash struct{}

// Sum64 implements Hasher using github.com/cespare/xxhash/v2.
func (XXHash) Sum64(b []byte) uint64 {
	return xxhash.Sum64(b)
}

// Murmur3 wraps github.com/spaolacci/murmur3's 64-bit variant, matching the
// hash family several reference HLL++ implementations ship with.
type Murmur3 struct{}

// Sum64 implements Hasher using murmur3.Sum64.
func (Murmur3) Sum64(b []byte) uint64 {
	return murmur3.Sum64(b)
}

// Farm wraps github.com/dgryski/go-farm's Hash64, Google's FarmHash, as used
// by several production cardinality-sketch implementations for its strong
// avalanche behavior on structured keys.
type Farm struct{}

// Sum64 implements Hasher using farm.Hash64.
func (Farm) Sum64(b []byte) uint64 {
	return farm.Hash64(b)
}

// HashString is a convenience wrapper for call sites keyed by string rather
// than []byte.
func HashString(h Hasher, s string) uint64 {
	return h.Sum64([]byte(s))
}
