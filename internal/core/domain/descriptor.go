package domain

import (
	"errors"
	"fmt"
	"math"
)

// ExtractorDimension is the descriptor length produced by the face extractor.
const ExtractorDimension = 128

// ErrDimensionMismatch indicates two descriptors of unequal length were compared.
var ErrDimensionMismatch = errors.New("descriptor dimension mismatch")

// Descriptor is a fixed-length numeric vector produced by the face extractor.
type Descriptor []float64

// EuclideanDistance computes the straight-line distance between two descriptors.
// Both descriptors must have the same length; a partial score is never returned.
func EuclideanDistance(a, b Descriptor) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}

	var sum float64
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}

	return math.Sqrt(sum), nil
}

// Matches reports whether the distance between the descriptors is strictly
// below the threshold, along with the computed distance.
func Matches(a, b Descriptor, threshold float64) (bool, float64, error) {
	distance, err := EuclideanDistance(a, b)
	if err != nil {
		return false, 0, err
	}

	return distance < threshold, distance, nil
}
