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

import "fmt"

// Merge combines other into s in place. Merging sketches built with
// different (P, W) fails with ErrIncompatibleParameters and leaves s
// unchanged. Merge is commutative and associative over the set of distinct
// payloads observed by either side; the representation each side ends up in
// is an implementation detail and may differ between a.Merge(b) and
// b.Merge(a) only in that both always end up at least as promoted as the
// more-promoted input.
func (s *Sketch) Merge(other *Sketch) error {
	if other == nil {
		return nil
	}
	if s.p != other.p || s.w != other.w {
		return fmt.Errorf("hll: merge (p=%d,w=%d) with (p=%d,w=%d): %w", s.p, s.w, other.p, other.w, ErrIncompatibleParameters)
	}

	switch {
	case s.variant == kindSmall && other.variant == kindSmall:
		s.mergeSmallSmall(other)
	case s.variant == kindSmall && other.variant == kindArray:
		s.mergeSmallIntoArray(other)
	case s.variant == kindArray && other.variant == kindSmall:
		s.mergeArraySmall(other)
	case s.variant == kindSmall && other.variant == kindDense:
		s.mergeSmallIntoDense(other)
	case s.variant == kindDense && other.variant == kindSmall:
		s.mergeDenseSmall(other)
	case s.variant == kindArray && other.variant == kindArray:
		s.mergeArrayArray(other)
	case s.variant == kindArray && other.variant == kindDense:
		s.mergeArrayIntoDense(other)
	case s.variant == kindDense && other.variant == kindArray:
		s.mergeDenseArray(other)
	case s.variant == kindDense && other.variant == kindDense:
		s.mergeDenseDense(other)
	}

	return nil
}

// Small ⊕ Small: replay other's non-empty slots through the ordinary
// insertion path, which promotes to Array on its own if the combined
// distinct count exceeds two.
func (s *Sketch) mergeSmallSmall(other *Sketch) {
	if other.smallA != 0 {
		s.insertPayload(other.smallA)
	}
	if other.smallB != 0 {
		s.insertPayload(other.smallB)
	}
}

// Small ⊕ Array (self is Small): start from a clone of the Array side, then
// insert self's 0/1/2 payloads on top.
func (s *Sketch) mergeSmallIntoArray(other *Sketch) {
	smallA, smallB := s.smallA, s.smallB

	s.variant = kindArray
	s.array = append([]uint32(nil), other.array...)
	s.smallA, s.smallB = 0, 0

	if smallA != 0 {
		s.insertPayload(smallA)
	}
	if smallB != 0 {
		s.insertPayload(smallB)
	}
}

// Array ⊕ Small (self is Array): insert other's 0/1/2 payloads into self.
func (s *Sketch) mergeArraySmall(other *Sketch) {
	if other.smallA != 0 {
		s.insertPayload(other.smallA)
	}
	if other.smallB != 0 {
		s.insertPayload(other.smallB)
	}
}

// Small ⊕ Dense (self is Small): start from a clone of the Dense side, then
// insert self's payloads via set_max.
func (s *Sketch) mergeSmallIntoDense(other *Sketch) {
	smallA, smallB := s.smallA, s.smallB

	s.variant = kindDense
	s.dense = other.dense.clone()
	s.smallA, s.smallB = 0, 0

	if smallA != 0 {
		s.insertDense(smallA)
	}
	if smallB != 0 {
		s.insertDense(smallB)
	}
}

// Dense ⊕ Small (self is Dense): insert other's payloads via set_max.
func (s *Sketch) mergeDenseSmall(other *Sketch) {
	if other.smallA != 0 {
		s.insertDense(other.smallA)
	}
	if other.smallB != 0 {
		s.insertDense(other.smallB)
	}
}

// Array ⊕ Array: linear merge of the two sorted, deduplicated sequences.
// If the merged length exceeds the Array threshold, the merged payloads are
// replayed into a new Dense bank instead of being stored as an oversized
// Array.
func (s *Sketch) mergeArrayArray(other *Sketch) {
	merged := make([]uint32, 0, len(s.array)+len(other.array))
	i, j := 0, 0
	for i < len(s.array) && j < len(other.array) {
		switch {
		case s.array[i] == other.array[j]:
			merged = append(merged, s.array[i])
			i++
			j++
		case s.array[i] < other.array[j]:
			merged = append(merged, s.array[i])
			i++
		default:
			merged = append(merged, other.array[j])
			j++
		}
	}
	merged = append(merged, s.array[i:]...)
	merged = append(merged, other.array[j:]...)

	if len(merged) <= arrayMax(s.p, s.w) {
		s.array = merged
		return
	}

	bank := newDenseBank(s.p, s.w)
	for _, x := range merged {
		bank.setMax(payloadIndex(x, s.p), payloadRho(x, s.p))
	}
	s.variant = kindDense
	s.dense = bank
	s.array = nil
}

// Array ⊕ Dense (self is Array): start from a clone of the Dense side, then
// insert self's payloads via set_max.
func (s *Sketch) mergeArrayIntoDense(other *Sketch) {
	array := s.array

	s.variant = kindDense
	s.dense = other.dense.clone()
	s.array = nil

	for _, x := range array {
		s.insertDense(x)
	}
}

// Dense ⊕ Array (self is Dense): insert other's payloads via set_max.
func (s *Sketch) mergeDenseArray(other *Sketch) {
	for _, x := range other.array {
		s.insertDense(x)
	}
}

// Dense ⊕ Dense: identical (P, W) already verified by Merge. Pointwise
// set_max across all M registers, updating the cached V and H as we go.
func (s *Sketch) mergeDenseDense(other *Sketch) {
	other.dense.iterate(func(i uint32, v uint8) {
		if v > 0 {
			s.dense.setMax(i, v)
		}
	})
}
