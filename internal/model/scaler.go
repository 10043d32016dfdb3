package model

import (
	"errors"
	"fmt"
)

var (
	// ErrArtifactLoad marks a missing, unreadable or corrupt artifact.
	ErrArtifactLoad = errors.New("artifact load failed")
	// ErrShapeMismatch marks a feature vector or artifact whose cardinality
	// or field order disagrees with the form's field order.
	ErrShapeMismatch = errors.New("feature shape mismatch")
)

// Scaler standardizes features with the mean and scale learned at fit time.
type Scaler struct {
	names []string
	mean  []float64
	scale []float64
}

// NewScaler builds a standard scaler. A zero scale entry behaves as 1, the
// same as a constant column at fit time.
func NewScaler(names []string, mean, scale []float64) (*Scaler, error) {
	if len(mean) == 0 || len(mean) != len(scale) {
		return nil, fmt.Errorf("%w: scaler mean has %d entries, scale has %d", ErrShapeMismatch, len(mean), len(scale))
	}
	if len(names) != 0 && len(names) != len(mean) {
		return nil, fmt.Errorf("%w: scaler has %d feature names for %d features", ErrShapeMismatch, len(names), len(mean))
	}
	s := &Scaler{
		names: append([]string(nil), names...),
		mean:  append([]float64(nil), mean...),
		scale: make([]float64, len(scale)),
	}
	for i, v := range scale {
		if v == 0 {
			v = 1
		}
		s.scale[i] = v
	}
	return s, nil
}

func (s *Scaler) NumFeatures() int { return len(s.mean) }

// FeatureNames returns the names the scaler was fitted on, or nil when the
// artifact does not carry them.
func (s *Scaler) FeatureNames() []string { return s.names }

// Transform returns a new slice; x is not modified.
func (s *Scaler) Transform(x []float64) ([]float64, error) {
	if len(x) != len(s.mean) {
		return nil, fmt.Errorf("%w: scaler expects %d features, got %d", ErrShapeMismatch, len(s.mean), len(x))
	}
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = (v - s.mean[i]) / s.scale[i]
	}
	return out, nil
}
