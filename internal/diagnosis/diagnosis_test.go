package diagnosis

import (
	"context"
	"errors"
	"testing"

	"github.com/Skufu/HepatoScan/internal/artifact"
	"github.com/Skufu/HepatoScan/internal/catalog"
	"github.com/Skufu/HepatoScan/internal/features"
	"github.com/Skufu/HepatoScan/internal/model"
)

type fixedPredictor struct {
	label model.Label
	err   error
	calls int
}

func (f *fixedPredictor) ScaleAndPredict(v features.Vector) (model.Label, error) {
	f.calls++
	return f.label, f.err
}

func defaultCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Default()
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestRunDefaultsEndToEnd(t *testing.T) {
	p, err := model.Load(context.Background(), artifact.Dir{Root: "../../artifacts"}, "scaler.json", "model.json", model.Options{})
	if err != nil {
		t.Fatalf("load artifacts: %v", err)
	}
	c := defaultCatalog(t)
	if err := c.CheckLabels(p.Classes()); err != nil {
		t.Fatalf("catalog out of sync with classifier: %v", err)
	}

	res, err := NewService(p, c).Run(features.Defaults())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Label != 0 || res.Name != "No Disease" {
		t.Fatalf("expected No Disease, got %+v", res)
	}
	if res.Description == "" || res.Precautions == "" || res.ImageURL == "" {
		t.Fatalf("incomplete result %+v", res)
	}
	if res.Inputs["age"] != 45 {
		t.Fatalf("expected inputs echoed, got %v", res.Inputs)
	}
}

func TestRunUnknownLabel(t *testing.T) {
	res, err := NewService(&fixedPredictor{label: 9}, defaultCatalog(t)).Run(features.Defaults())
	if !errors.Is(err, catalog.ErrUnknownLabel) {
		t.Fatalf("expected ErrUnknownLabel, got %v", err)
	}
	if res.Name != "" || res.Description != "" {
		t.Fatalf("expected no partial result, got %+v", res)
	}
}

func TestRunPredictError(t *testing.T) {
	pred := &fixedPredictor{err: model.ErrShapeMismatch}
	_, err := NewService(pred, defaultCatalog(t)).Run(features.Defaults())
	if !errors.Is(err, model.ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch, got %v", err)
	}
	if pred.calls != 1 {
		t.Fatalf("expected a single attempt, got %d", pred.calls)
	}
}
