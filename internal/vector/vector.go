// Package vector provides the embedding vector codec and similarity math
// shared by the live index and the bundled reference index.
package vector

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Encode serializes a float32 vector into a little-endian BLOB suitable for
// storage in SQLite. The length is derived from the BLOB size on decode.
func Encode(vec []float32) []byte {
	if len(vec) == 0 {
		return nil
	}
	b := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(v))
	}
	return b
}

// Decode deserializes a BLOB produced by Encode back into a float32 vector.
func Decode(b []byte) ([]float32, error) {
	if len(b) == 0 {
		return nil, nil
	}
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding blob length %d (not multiple of 4)", len(b))
	}
	vec := make([]float32, len(b)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return vec, nil
}

// Cosine computes the cosine similarity between two vectors. It returns 0
// when either vector is empty, the lengths differ, or either norm is zero,
// so callers never see NaN or an error from a single bad row.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x := float64(a[i])
		y := float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Dequantize reconstructs a float32 vector from its 8-bit quantized form.
// Each byte b maps to ((b-128)/127)*scale, where scale is stored per vector.
// Byte 128 is exactly zero, byte 0 is -scale, byte 255 approximately +scale.
func Dequantize(data []byte, scale float32) []float32 {
	if len(data) == 0 {
		return nil
	}
	vec := make([]float32, len(data))
	for i, b := range data {
		vec[i] = (float32(b) - 128) / 127 * scale
	}
	return vec
}
