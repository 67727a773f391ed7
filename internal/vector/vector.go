// Package vector provides the generic vector type, cosine similarity, and the
// per-collection exact search index.
package vector

import (
	"math"

	"golang.org/x/exp/constraints"
)

// Numeric is the set of element types a Vector can hold.
type Numeric interface {
	constraints.Integer | constraints.Float
}

// Vector is a fixed-length sequence of numeric elements. The zero value is an
// empty vector. A Vector never aliases the slice it was built from.
type Vector[T Numeric] struct {
	data []T
}

// New returns a vector holding a copy of elems.
func New[T Numeric](elems []T) Vector[T] {
	data := make([]T, len(elems))
	copy(data, elems)
	return Vector[T]{data: data}
}

// Dim returns the number of elements.
func (v Vector[T]) Dim() int {
	return len(v.data)
}

// Elements returns a copy of the elements.
func (v Vector[T]) Elements() []T {
	out := make([]T, len(v.data))
	copy(out, v.data)
	return out
}

// ToFloat returns the elements cast to float64.
func (v Vector[T]) ToFloat() []float64 {
	out := make([]float64, len(v.data))
	for i, x := range v.data {
		out[i] = float64(x)
	}
	return out
}

// CosineSimilarity returns dot(v, other) / (|v| * |other|). The result is 0 when
// either vector has zero magnitude.
func (v Vector[T]) CosineSimilarity(other Vector[T]) (float64, error) {
	return CosineSimilarity(v, other)
}

// CosineSimilarity returns the cosine similarity of a and b computed in float64.
// It fails with a *DimensionMismatchError when the dimensions differ.
func CosineSimilarity[T Numeric](a, b Vector[T]) (float64, error) {
	if a.Dim() != b.Dim() {
		return 0, &DimensionMismatchError{Expected: a.Dim(), Actual: b.Dim()}
	}
	var dot, normA, normB float64
	for i := range a.data {
		x, y := float64(a.data[i]), float64(b.data[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	// A single square root keeps the self-similarity exactly 1.
	denom := math.Sqrt(normA * normB)
	if math.IsInf(denom, 0) || denom == 0 {
		denom = math.Sqrt(normA) * math.Sqrt(normB)
	}
	return clampUnit(dot / denom), nil
}

// clampUnit limits s to [-1, 1]; NaN passes through.
func clampUnit(s float64) float64 {
	switch {
	case s > 1:
		return 1
	case s < -1:
		return -1
	}
	return s
}
