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

import "math/bits"

// Element carries a single 64-bit hash value into Insert. The sketch never
// computes this hash itself — composing a value into a 64-bit digest is the
// caller's job (see package hllhash for ready-made hashers). Equal inputs
// must hash to the same Element across the lifetime of a logical dataset;
// mixing hash functions across inserts into the same sketch is a caller
// error the sketch has no way to detect.
type Element struct {
	hash uint64
}

// NewElement wraps a pre-computed 64-bit hash.
func NewElement(hash uint64) Element {
	return Element{hash: hash}
}

// Hash returns the wrapped 64-bit value.
func (e Element) Hash() uint64 {
	return e.hash
}

// payloadFor packs an element's (register index, rho) pair into the 32-bit
// register-payload encoding shared by the Small and Array representations:
// the low p bits hold the index, the remaining bits hold rho = 1 + the
// number of leading zeros of the post-index bits. ORing in a guard bit
// before counting leading zeros guarantees rho >= 1, which is what lets 0
// serve as "slot empty" in the Small representation.
func payloadFor(hash uint64, p uint8) uint32 {
	index := uint32(hash >> (64 - p))
	remainder := (hash << p) | (uint64(1) << (p - 1))
	rho := uint8(bits.LeadingZeros64(remainder)) + 1
	return uint32(rho)<<p | index
}

// payloadIndex extracts the register index from a payload encoded at
// precision p.
func payloadIndex(payload uint32, p uint8) uint32 {
	return payload & ((uint32(1) << p) - 1)
}

// payloadRho extracts rho from a payload encoded at precision p.
func payloadRho(payload uint32, p uint8) uint8 {
	return uint8(payload >> p)
}

// maxRho is the largest rho value reachable at precision p: the OR trick in
// payloadFor bounds leading-zero counts at 64-p, so rho tops out at 64-p+1.
func maxRho(p uint8) uint8 {
	return uint8(64-p) + 1
}
