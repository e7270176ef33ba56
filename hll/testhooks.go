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

package hll

// This file exposes deterministic constructors used only by tests in this
// package to build a Sketch directly in a given
// representation, bypassing the usual insert-driven promotion path. Real
// callers should never need these — only New plus Insert/InsertHash.

// NewSmallForTest returns a Small sketch with the given (possibly zero)
// register-payload slots, skipping validation so malformed states can be
// constructed deliberately.
func NewSmallForTest(p, w uint8, a, b uint32) *Sketch {
	return &Sketch{p: p, w: w, m: uint32(1) << p, variant: kindSmall, smallA: a, smallB: b}
}

// NewArrayForTest returns an Array sketch holding exactly the given sorted,
// deduplicated payloads. The caller is responsible for ordering.
func NewArrayForTest(p, w uint8, payloads []uint32) *Sketch {
	xs := append([]uint32(nil), payloads...)
	return &Sketch{p: p, w: w, m: uint32(1) << p, variant: kindArray, array: xs}
}

// NewDenseForTest returns a Dense sketch with every register preloaded from
// registers (indexed by register number, 0 when absent from the map).
func NewDenseForTest(p, w uint8, registers map[uint32]uint8) *Sketch {
	bank := newDenseBank(p, w)
	for i, v := range registers {
		if v > 0 {
			bank.setMax(i, v)
		}
	}
	return &Sketch{p: p, w: w, m: uint32(1) << p, variant: kindDense, dense: bank}
}

// PayloadFor exposes payloadFor for tests that need to construct specific
// register-payloads from a raw hash without going through Insert.
func PayloadFor(hash uint64, p uint8) uint32 {
	return payloadFor(hash, p)
}
