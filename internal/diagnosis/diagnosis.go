// Package diagnosis ties scale-and-predict to the category table and yields
// a render-ready result.
package diagnosis

import (
	"fmt"

	"github.com/Skufu/HepatoScan/internal/catalog"
	"github.com/Skufu/HepatoScan/internal/features"
	"github.com/Skufu/HepatoScan/internal/model"
)

// Predictor is satisfied by *model.Predictor.
type Predictor interface {
	ScaleAndPredict(v features.Vector) (model.Label, error)
}

type Result struct {
	Label       int                `json:"label"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Precautions string             `json:"precautions"`
	ImageURL    string             `json:"image"`
	Inputs      map[string]float64 `json:"inputs"`
}

type Service struct {
	predictor Predictor
	catalog   *catalog.Catalog
}

func NewService(p Predictor, c *catalog.Catalog) *Service {
	return &Service{predictor: p, catalog: c}
}

// Run classifies v. The result is either complete or absent.
func (s *Service) Run(v features.Vector) (Result, error) {
	label, err := s.predictor.ScaleAndPredict(v)
	if err != nil {
		return Result{}, fmt.Errorf("scale and predict: %w", err)
	}
	cat, err := s.catalog.Lookup(int(label))
	if err != nil {
		return Result{}, err
	}
	return Result{
		Label:       cat.Label,
		Name:        cat.Name,
		Description: cat.Description,
		Precautions: cat.Precautions,
		ImageURL:    cat.ImageURL,
		Inputs:      v.Map(),
	}, nil
}
