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
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
)

// The binary schema from SPEC_FULL.md §4.6:
//
//	byte 0: p
//	byte 1: w
//	byte 2: variant (0=Small, 1=Array, 2=Dense)
//	Small:  8 bytes, two little-endian uint32 slots (0 = empty)
//	Array:  4-byte little-endian length prefix, then that many
//	        little-endian uint32 payloads in sorted order
//	Dense:  4-byte little-endian length prefix (byte count), then the
//	        packed M*W-bit register bank, little-endian bit packing
//	        within bytes, exactly ceil(M*W/8) bytes
//
// MarshalJSON/UnmarshalJSON carry the same logical fields through
// sketchRecord below; the binary and JSON forms are written and validated by
// separate code paths that apply the same rules.

// MarshalBinary implements encoding.BinaryMarshaler for the compact wire
// form described above.
func (s *Sketch) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(s.p)
	buf.WriteByte(s.w)
	buf.WriteByte(byte(s.variant))

	switch s.variant {
	case kindSmall:
		var tmp [8]byte
		binary.LittleEndian.PutUint32(tmp[0:4], s.smallA)
		binary.LittleEndian.PutUint32(tmp[4:8], s.smallB)
		buf.Write(tmp[:])

	case kindArray:
		var lenBuf [4]byte
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(s.array)))
		buf.Write(lenBuf[:])
		for _, x := range s.array {
			var b [4]byte
			binary.LittleEndian.PutUint32(b[:], x)
			buf.Write(b[:])
		}

	case kindDense:
		data := s.dense.marshalBytes()
		var lenBuf [4]byte
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(data)))
		buf.Write(lenBuf[:])
		buf.Write(data)
	}

	return buf.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler, validating every
// schema rule from SPEC_FULL.md §4.6 before mutating the receiver. On any
// violation it returns ErrInvalidSerialization and leaves the receiver
// untouched.
func (s *Sketch) UnmarshalBinary(data []byte) error {
	if len(data) < 3 {
		return fmt.Errorf("%w: header truncated", ErrInvalidSerialization)
	}
	p, w, variant := data[0], data[1], data[2]
	rest := data[3:]

	if p < 4 || p > 18 {
		return fmt.Errorf("%w: p=%d out of range", ErrInvalidSerialization, p)
	}
	if w == 0 || w > 63 || (uint64(1)<<w)-1 < uint64(maxRho(p)) {
		return fmt.Errorf("%w: w=%d incompatible with p=%d", ErrInvalidSerialization, w, p)
	}

	next := &Sketch{p: p, w: w, m: uint32(1) << p}

	switch variant {
	case byte(kindSmall):
		if len(rest) != 8 {
			return fmt.Errorf("%w: small payload wrong length %d", ErrInvalidSerialization, len(rest))
		}
		a := binary.LittleEndian.Uint32(rest[0:4])
		b := binary.LittleEndian.Uint32(rest[4:8])
		if a != 0 && !validPayload(a, p, w) {
			return fmt.Errorf("%w: small slot a invalid", ErrInvalidSerialization)
		}
		if b != 0 && !validPayload(b, p, w) {
			return fmt.Errorf("%w: small slot b invalid", ErrInvalidSerialization)
		}
		if a != 0 && a == b {
			return fmt.Errorf("%w: small slots not distinct", ErrInvalidSerialization)
		}
		next.variant = kindSmall
		next.smallA, next.smallB = a, b

	case byte(kindArray):
		if len(rest) < 4 {
			return fmt.Errorf("%w: array length truncated", ErrInvalidSerialization)
		}
		n := binary.LittleEndian.Uint32(rest[0:4])
		body := rest[4:]
		if uint64(len(body)) != uint64(n)*4 {
			return fmt.Errorf("%w: array body length mismatch", ErrInvalidSerialization)
		}
		maxLen := arrayMax(p, w)
		if n < 3 || int(n) > maxLen {
			return fmt.Errorf("%w: array length %d out of range [3,%d]", ErrInvalidSerialization, n, maxLen)
		}
		xs := make([]uint32, n)
		for i := range xs {
			xs[i] = binary.LittleEndian.Uint32(body[i*4 : i*4+4])
			if !validPayload(xs[i], p, w) {
				return fmt.Errorf("%w: array payload %d invalid", ErrInvalidSerialization, i)
			}
			if i > 0 && xs[i] <= xs[i-1] {
				return fmt.Errorf("%w: array not strictly increasing at %d", ErrInvalidSerialization, i)
			}
		}
		next.variant = kindArray
		next.array = xs

	case byte(kindDense):
		if len(rest) < 4 {
			return fmt.Errorf("%w: dense length truncated", ErrInvalidSerialization)
		}
		n := binary.LittleEndian.Uint32(rest[0:4])
		body := rest[4:]
		if uint64(len(body)) != uint64(n) {
			return fmt.Errorf("%w: dense body length mismatch", ErrInvalidSerialization)
		}
		bank, err := denseBankFromBytes(p, w, body)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSerialization, err)
		}
		next.variant = kindDense
		next.dense = bank

	default:
		return fmt.Errorf("%w: unknown variant tag %d", ErrInvalidSerialization, variant)
	}

	*s = *next
	return nil
}

// sketchRecord is the JSON projection of the wire schema: the same three
// fields plus a payload section, with omitempty so only the active
// variant's fields are rendered.
type sketchRecord struct {
	P       uint8    `json:"p"`
	W       uint8    `json:"w"`
	Variant uint8    `json:"variant"`
	Small   *[2]uint32 `json:"small,omitempty"`
	Array   []uint32 `json:"array,omitempty"`
	Dense   string   `json:"dense,omitempty"` // base64 of the packed register bytes
}

// MarshalJSON implements json.Marshaler for the human-readable form of the
// same schema serialized by MarshalBinary.
func (s *Sketch) MarshalJSON() ([]byte, error) {
	rec := sketchRecord{P: s.p, W: s.w, Variant: uint8(s.variant)}
	switch s.variant {
	case kindSmall:
		rec.Small = &[2]uint32{s.smallA, s.smallB}
	case kindArray:
		rec.Array = s.array
	case kindDense:
		rec.Dense = base64.StdEncoding.EncodeToString(s.dense.marshalBytes())
	}
	return json.Marshal(rec)
}

// UnmarshalJSON implements json.Unmarshaler, applying the same validation
// rules as UnmarshalBinary.
func (s *Sketch) UnmarshalJSON(data []byte) error {
	var rec sketchRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSerialization, err)
	}

	p, w := rec.P, rec.W
	if p < 4 || p > 18 {
		return fmt.Errorf("%w: p=%d out of range", ErrInvalidSerialization, p)
	}
	if w == 0 || w > 63 || (uint64(1)<<w)-1 < uint64(maxRho(p)) {
		return fmt.Errorf("%w: w=%d incompatible with p=%d", ErrInvalidSerialization, w, p)
	}

	next := &Sketch{p: p, w: w, m: uint32(1) << p}

	switch kind(rec.Variant) {
	case kindSmall:
		if rec.Small == nil {
			return fmt.Errorf("%w: missing small payload", ErrInvalidSerialization)
		}
		a, b := rec.Small[0], rec.Small[1]
		if a != 0 && !validPayload(a, p, w) {
			return fmt.Errorf("%w: small slot a invalid", ErrInvalidSerialization)
		}
		if b != 0 && !validPayload(b, p, w) {
			return fmt.Errorf("%w: small slot b invalid", ErrInvalidSerialization)
		}
		if a != 0 && a == b {
			return fmt.Errorf("%w: small slots not distinct", ErrInvalidSerialization)
		}
		next.variant = kindSmall
		next.smallA, next.smallB = a, b

	case kindArray:
		maxLen := arrayMax(p, w)
		n := len(rec.Array)
		if n < 3 || n > maxLen {
			return fmt.Errorf("%w: array length %d out of range [3,%d]", ErrInvalidSerialization, n, maxLen)
		}
		for i, x := range rec.Array {
			if !validPayload(x, p, w) {
				return fmt.Errorf("%w: array payload %d invalid", ErrInvalidSerialization, i)
			}
			if i > 0 && x <= rec.Array[i-1] {
				return fmt.Errorf("%w: array not strictly increasing at %d", ErrInvalidSerialization, i)
			}
		}
		next.variant = kindArray
		next.array = rec.Array

	case kindDense:
		raw, err := base64.StdEncoding.DecodeString(rec.Dense)
		if err != nil {
			return fmt.Errorf("%w: dense base64: %v", ErrInvalidSerialization, err)
		}
		bank, err := denseBankFromBytes(p, w, raw)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSerialization, err)
		}
		next.variant = kindDense
		next.dense = bank

	default:
		return fmt.Errorf("%w: unknown variant tag %d", ErrInvalidSerialization, rec.Variant)
	}

	*s = *next
	return nil
}

// validPayload reports whether payload is a well-formed register-payload
// for precision p and width w: its rho component must be in [1, maxRho(p)]
// and must fit within w bits.
func validPayload(payload uint32, p, w uint8) bool {
	rho := payloadRho(payload, p)
	if rho == 0 || rho > maxRho(p) {
		return false
	}
	return uint64(rho) <= (uint64(1)<<w)-1
}

// marshalBytes packs the bank's words into exactly ceil(M*W/8) bytes,
// little-endian within and across bytes.
func (d *denseBank) marshalBytes() []byte {
	totalBits := uint64(d.m) * uint64(d.w)
	n := ceilDivUint64(totalBits, 8)
	out := make([]byte, n)

	var tmp [8]byte
	for wi, word := range d.words {
		binary.LittleEndian.PutUint64(tmp[:], word)
		start := uint64(wi) * 8
		for b := 0; b < 8; b++ {
			pos := start + uint64(b)
			if pos >= n {
				break
			}
			out[pos] = tmp[b]
		}
	}
	return out
}

// denseBankFromBytes reconstructs a bank from exactly the packed bytes
// produced by marshalBytes, validating the byte count and that any trailing
// padding bits are zero, then recomputing the V/H accelerators from
// scratch.
func denseBankFromBytes(p, w uint8, data []byte) (*denseBank, error) {
	m := uint32(1) << p
	totalBits := uint64(m) * uint64(w)
	expectedBytes := ceilDivUint64(totalBits, 8)
	if uint64(len(data)) != expectedBytes {
		return nil, fmt.Errorf("dense byte length %d != expected %d", len(data), expectedBytes)
	}

	for bit := totalBits; bit < expectedBytes*8; bit++ {
		byteIdx := bit / 8
		bitInByte := bit % 8
		if data[byteIdx]&(1<<bitInByte) != 0 {
			return nil, fmt.Errorf("nonzero padding bit at position %d", bit)
		}
	}

	wordCount := ceilDivUint64(totalBits, 64)
	words := make([]uint64, wordCount)
	for wi := range words {
		var tmp [8]byte
		start := uint64(wi) * 8
		for b := 0; b < 8; b++ {
			pos := start + uint64(b)
			if pos < uint64(len(data)) {
				tmp[b] = data[pos]
			}
		}
		words[wi] = binary.LittleEndian.Uint64(tmp[:])
	}

	bank := &denseBank{
		words: words,
		w:     w,
		m:     m,
		mask:  (uint64(1) << w) - 1,
	}
	bank.recompute()
	return bank, nil
}
