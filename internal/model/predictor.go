// Package model loads the fitted scaler and classifier artifacts and runs
// scale-and-predict over a feature vector.
package model

import (
	"fmt"
	"io"

	"github.com/Skufu/HepatoScan/internal/features"
)

// Label is a predicted category.
type Label int

// Predictor pairs a scaler with a classifier. It is immutable once built and
// safe to share between requests.
type Predictor struct {
	scaler     *Scaler
	classifier Classifier
}

// New checks that both artifacts agree with the form's field count and,
// when they carry feature names, with its field order.
func New(scaler *Scaler, classifier Classifier) (*Predictor, error) {
	if scaler == nil || classifier == nil {
		return nil, fmt.Errorf("%w: scaler and classifier are required", ErrArtifactLoad)
	}
	if scaler.NumFeatures() != features.Count {
		return nil, fmt.Errorf("%w: scaler was fitted on %d features, form has %d", ErrShapeMismatch, scaler.NumFeatures(), features.Count)
	}
	if classifier.NumFeatures() != features.Count {
		return nil, fmt.Errorf("%w: classifier was fitted on %d features, form has %d", ErrShapeMismatch, classifier.NumFeatures(), features.Count)
	}
	if err := checkOrder("scaler", scaler.FeatureNames()); err != nil {
		return nil, err
	}
	if err := checkOrder("classifier", classifier.FeatureNames()); err != nil {
		return nil, err
	}
	return &Predictor{scaler: scaler, classifier: classifier}, nil
}

func checkOrder(which string, names []string) error {
	if len(names) == 0 {
		return nil
	}
	want := features.Names()
	for i, name := range names {
		if name != want[i] {
			return fmt.Errorf("%w: %s feature %d is %q, form sends %q", ErrShapeMismatch, which, i, name, want[i])
		}
	}
	return nil
}

// ScaleAndPredict scales v and classifies the result.
func (p *Predictor) ScaleAndPredict(v features.Vector) (Label, error) {
	return p.Predict(v[:])
}

// Predict is ScaleAndPredict for callers holding a raw slice.
func (p *Predictor) Predict(x []float64) (Label, error) {
	scaled, err := p.scaler.Transform(x)
	if err != nil {
		return 0, err
	}
	label, err := p.classifier.Predict(scaled)
	if err != nil {
		return 0, err
	}
	return Label(label), nil
}

// Classes is the classifier's label space.
func (p *Predictor) Classes() []int {
	return p.classifier.Classes()
}

func (p *Predictor) Close() error {
	if c, ok := p.classifier.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
