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
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ValidatesParameters(t *testing.T) {
	t.Parallel()

	_, err := New(3, 5)
	assert.Error(t, err)

	_, err = New(19, 5)
	assert.Error(t, err)

	_, err = New(14, 0)
	assert.Error(t, err)

	_, err = New(14, 64)
	assert.Error(t, err)

	_, err = New(14, 1)
	assert.Error(t, err, "w=1 cannot hold rho up to 64-14+1")

	s, err := New(14, 6)
	require.NoError(t, err)
	assert.Equal(t, uint8(14), s.Precision())
	assert.Equal(t, uint8(6), s.Width())
	assert.Equal(t, "small", s.Variant())
}

func TestInsert_SmallStaysExactUpToTwoDistinct(t *testing.T) {
	t.Parallel()

	s, err := New(10, 6)
	require.NoError(t, err)

	s.InsertHash(1)
	assert.Equal(t, "small", s.Variant())
	assert.Equal(t, uint64(1), s.Estimate())

	s.InsertHash(1)
	assert.Equal(t, uint64(1), s.Estimate(), "duplicate insert must not change exact count")

	s.InsertHash(2)
	assert.Equal(t, "small", s.Variant())
	assert.Equal(t, uint64(2), s.Estimate())
}

func TestInsert_PromotesSmallToArrayOnThirdDistinct(t *testing.T) {
	t.Parallel()

	s, err := New(10, 6)
	require.NoError(t, err)

	s.InsertHash(1)
	s.InsertHash(2)
	s.InsertHash(4)

	assert.Equal(t, "array", s.Variant())
	assert.Equal(t, uint64(3), s.Estimate())
}

func TestInsert_ArrayPromotesToDenseAtThreshold(t *testing.T) {
	t.Parallel()

	s, err := New(4, 6)
	require.NoError(t, err)

	max := arrayMax(4, 6)
	for i := 0; i < max+1; i++ {
		s.InsertHash(uint64(i) << 60) // distinct register index per hash
	}

	assert.Equal(t, "dense", s.Variant())
}

func TestInsert_NeverDemotes(t *testing.T) {
	t.Parallel()

	s, err := New(10, 6)
	require.NoError(t, err)

	s.InsertHash(1)
	s.InsertHash(2)
	s.InsertHash(4)
	require.Equal(t, "array", s.Variant())

	// Re-inserting already-seen values must not shrink or demote.
	s.InsertHash(1)
	s.InsertHash(2)
	assert.Equal(t, "array", s.Variant())
	assert.Equal(t, uint64(3), s.Estimate())
}

func TestEstimate_DenseWithinTolerance(t *testing.T) {
	t.Parallel()

	s, err := New(14, 6)
	require.NoError(t, err)

	const n = 100000
	for i := 0; i < n; i++ {
		s.InsertHash(rand.Uint64())
	}

	require.Equal(t, "dense", s.Variant())
	got := float64(s.Estimate())
	relErr := (got - n) / n
	if relErr < 0 {
		relErr = -relErr
	}
	assert.Less(t, relErr, 0.05, "estimate %v too far from true cardinality %v", got, n)
}

func TestClone_Independence(t *testing.T) {
	t.Parallel()

	s, err := New(10, 6)
	require.NoError(t, err)
	s.InsertHash(1)
	s.InsertHash(2)

	c := s.Clone()
	c.InsertHash(4)

	assert.Equal(t, uint64(2), s.Estimate())
	assert.Equal(t, uint64(3), c.Estimate())
}
