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

package hllhash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashers_AreDeterministic(t *testing.T) {
	t.Parallel()

	for name, h := range map[string]Hasher{
		"xxhash":  XXHash{},
		"murmur3": Murmur3{},
		"farm":    Farm{},
	} {
		h := h
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			b := []byte("the quick brown fox jumps over the lazy dog")
			assert.Equal(t, h.Sum64(b), h.Sum64(append([]byte(nil), b...)))
		})
	}
}

func TestHashers_DifferentInputsUsuallyDiffer(t *testing.T) {
	t.Parallel()

	for name, h := range map[string]Hasher{
		"xxhash":  XXHash{},
		"murmur3": Murmur3{},
		"farm":    Farm{},
	} {
		h := h
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.NotEqual(t, h.Sum64([]byte("a")), h.Sum64([]byte("b")))
		})
	}
}

func TestHashString_MatchesSum64OfBytes(t *testing.T) {
	t.Parallel()

	h := XXHash{}
	assert.Equal(t, h.Sum64([]byte("hello")), HashString(h, "hello"))
}
