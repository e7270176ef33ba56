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

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerialize_RoundTripBinary_Small(t *testing.T) {
	t.Parallel()

	s, _ := New(10, 6)
	s.InsertHash(1)
	s.InsertHash(2)

	data, err := s.MarshalBinary()
	require.NoError(t, err)

	var got Sketch
	require.NoError(t, got.UnmarshalBinary(data))
	assert.Equal(t, s.Estimate(), got.Estimate())
	assert.Equal(t, s.Variant(), got.Variant())
}

func TestSerialize_RoundTripBinary_Array(t *testing.T) {
	t.Parallel()

	s, _ := New(10, 6)
	for i := 0; i < 20; i++ {
		s.InsertHash(uint64(i))
	}
	require.Equal(t, "array", s.Variant())

	data, err := s.MarshalBinary()
	require.NoError(t, err)

	var got Sketch
	require.NoError(t, got.UnmarshalBinary(data))
	assert.Equal(t, s.Estimate(), got.Estimate())
	assert.Equal(t, s.Variant(), got.Variant())
}

func TestSerialize_RoundTripBinary_Dense(t *testing.T) {
	t.Parallel()

	s, _ := New(12, 6)
	for i := 0; i < 50000; i++ {
		s.InsertHash(rand.Uint64())
	}
	require.Equal(t, "dense", s.Variant())

	data, err := s.MarshalBinary()
	require.NoError(t, err)

	var got Sketch
	require.NoError(t, got.UnmarshalBinary(data))
	assert.Equal(t, s.Estimate(), got.Estimate())
	assert.Equal(t, s.Variant(), got.Variant())

	// The matching estimates above depend on the recomputed dense
	// accelerators; inserting into the round-tripped sketch must still work.
	got.InsertHash(rand.Uint64())
}

func TestSerialize_RoundTripJSON(t *testing.T) {
	t.Parallel()

	for _, variant := range []string{"small", "array", "dense"} {
		s, _ := New(10, 6)
		switch variant {
		case "small":
			s.InsertHash(1)
		case "array":
			for i := 0; i < 10; i++ {
				s.InsertHash(uint64(i))
			}
		case "dense":
			for i := 0; i < arrayMax(10, 6)+10; i++ {
				s.InsertHash(rand.Uint64())
			}
		}

		data, err := json.Marshal(s)
		require.NoError(t, err)

		var got Sketch
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, s.Variant(), got.Variant())
		assert.Equal(t, s.Estimate(), got.Estimate())
	}
}

func TestSerialize_RejectsTruncatedHeader(t *testing.T) {
	t.Parallel()

	var s Sketch
	err := s.UnmarshalBinary([]byte{14, 6})
	assert.ErrorIs(t, err, ErrInvalidSerialization)
}

func TestSerialize_RejectsOutOfRangePrecision(t *testing.T) {
	t.Parallel()

	var s Sketch
	err := s.UnmarshalBinary([]byte{19, 6, 0, 0, 0, 0, 0, 0, 0, 0, 0})
	assert.ErrorIs(t, err, ErrInvalidSerialization)
}

func TestSerialize_RejectsNonDistinctSmallSlots(t *testing.T) {
	t.Parallel()

	payload := PayloadFor(42, 10)
	s := NewSmallForTest(10, 6, payload, payload)
	data, err := s.MarshalBinary()
	require.NoError(t, err)

	var got Sketch
	err = got.UnmarshalBinary(data)
	assert.ErrorIs(t, err, ErrInvalidSerialization)
}

func TestSerialize_RejectsUnsortedArray(t *testing.T) {
	t.Parallel()

	xs := []uint32{PayloadFor(1, 10), PayloadFor(2, 10), PayloadFor(4, 10)}
	for i := 0; i < len(xs); i++ {
		for j := i + 1; j < len(xs); j++ {
			if xs[j] < xs[i] {
				xs[i], xs[j] = xs[j], xs[i]
			}
		}
	}
	xs[0], xs[1] = xs[1], xs[0] // break the strict-increasing invariant deliberately
	s := NewArrayForTest(10, 6, xs)

	data, err := s.MarshalBinary()
	require.NoError(t, err)

	var got Sketch
	err = got.UnmarshalBinary(data)
	assert.ErrorIs(t, err, ErrInvalidSerialization)
}

func TestSerialize_RejectsWrongDenseByteLength(t *testing.T) {
	t.Parallel()

	s, _ := New(10, 6)
	for i := 0; i < arrayMax(10, 6)+10; i++ {
		s.InsertHash(uint64(i) << 54) // distinct register index per hash
	}
	require.Equal(t, "dense", s.Variant())

	data, err := s.MarshalBinary()
	require.NoError(t, err)

	truncated := data[:len(data)-1]
	var got Sketch
	err = got.UnmarshalBinary(truncated)
	assert.ErrorIs(t, err, ErrInvalidSerialization)
}

func TestSerialize_RejectsUnknownVariantTag(t *testing.T) {
	t.Parallel()

	var s Sketch
	err := s.UnmarshalBinary([]byte{10, 6, 9})
	assert.ErrorIs(t, err, ErrInvalidSerialization)
}

func TestSerialize_DoesNotMutateReceiverOnError(t *testing.T) {
	t.Parallel()

	s, _ := New(10, 6)
	s.InsertHash(1)
	before := s.Estimate()

	err := s.UnmarshalBinary([]byte{10, 6, 9})
	require.Error(t, err)
	assert.Equal(t, before, s.Estimate(), "failed unmarshal must leave receiver untouched")
}
