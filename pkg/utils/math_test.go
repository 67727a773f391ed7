package utils

import (
	"math"
	"testing"
)

func TestNormalizeL2(t *testing.T) {
	x := []float32{3, 4}
	if !NormalizeL2(x) {
		t.Fatal("NormalizeL2([3 4]) reported no change")
	}
	if math.Abs(float64(x[0])-0.6) > 1e-6 || math.Abs(float64(x[1])-0.8) > 1e-6 {
		t.Errorf("NormalizeL2([3 4]) = %v", x)
	}

	zero := []float32{0, 0, 0}
	if NormalizeL2(zero) {
		t.Error("zero vector should not be normalised")
	}
	for _, v := range zero {
		if v != 0 {
			t.Errorf("zero vector changed: %v", zero)
		}
	}

	nan := []float32{float32(math.NaN()), 1}
	if NormalizeL2(nan) {
		t.Error("NaN input should not be normalised")
	}
}
