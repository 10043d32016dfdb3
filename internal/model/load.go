package model

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/Skufu/HepatoScan/internal/artifact"
)

const (
	KindStandardScaler = "standard_scaler"
	KindLinear         = "linear"
	KindForest         = "forest"
	KindONNX           = "onnx"
)

type scalerDoc struct {
	Kind         string    `json:"kind"`
	FeatureNames []string  `json:"feature_names"`
	Mean         []float64 `json:"mean"`
	Scale        []float64 `json:"scale"`
}

type classifierDoc struct {
	Kind         string      `json:"kind"`
	FeatureNames []string    `json:"feature_names"`
	NFeatures    int         `json:"n_features"`
	Classes      []int       `json:"classes"`
	Coef         [][]float64 `json:"coef"`
	Intercept    []float64   `json:"intercept"`
	Trees        []Tree      `json:"trees"`
	Blob         string      `json:"blob"`
	Input        string      `json:"input"`
	Output       string      `json:"output"`
}

// Options tunes artifact loading.
type Options struct {
	ONNXLibraryPath string
}

// Load reads the scaler and classifier artifacts from src and pairs them.
func Load(ctx context.Context, src artifact.Source, scalerName, modelName string, opts Options) (*Predictor, error) {
	scaler, err := loadScaler(ctx, src, scalerName)
	if err != nil {
		return nil, err
	}
	classifier, err := loadClassifier(ctx, src, modelName, opts)
	if err != nil {
		return nil, err
	}
	p, err := New(scaler, classifier)
	if err != nil {
		if c, ok := classifier.(io.Closer); ok {
			c.Close()
		}
		return nil, err
	}
	return p, nil
}

func loadScaler(ctx context.Context, src artifact.Source, name string) (*Scaler, error) {
	data, err := src.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: scaler %s: %w", ErrArtifactLoad, name, err)
	}
	return DecodeScaler(data)
}

// DecodeScaler parses a standard_scaler artifact.
func DecodeScaler(data []byte) (*Scaler, error) {
	var doc scalerDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode scaler: %w", ErrArtifactLoad, err)
	}
	if doc.Kind != KindStandardScaler {
		return nil, fmt.Errorf("%w: unsupported scaler kind %q", ErrArtifactLoad, doc.Kind)
	}
	return NewScaler(doc.FeatureNames, doc.Mean, doc.Scale)
}

func loadClassifier(ctx context.Context, src artifact.Source, name string, opts Options) (Classifier, error) {
	data, err := src.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: classifier %s: %w", ErrArtifactLoad, name, err)
	}
	var doc classifierDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode classifier: %w", ErrArtifactLoad, err)
	}

	var c Classifier
	switch doc.Kind {
	case KindLinear:
		c, err = NewLinear(doc.FeatureNames, doc.Classes, doc.Coef, doc.Intercept)
	case KindForest:
		c, err = NewForest(doc.FeatureNames, doc.Classes, doc.NFeatures, doc.Trees)
	case KindONNX:
		if doc.Blob == "" {
			return nil, fmt.Errorf("%w: onnx classifier %s has no blob", ErrArtifactLoad, name)
		}
		blob, openErr := src.Open(ctx, doc.Blob)
		if openErr != nil {
			return nil, fmt.Errorf("%w: onnx blob %s: %w", ErrArtifactLoad, doc.Blob, openErr)
		}
		c, err = NewONNX(ONNXConfig{
			Model:       blob,
			Names:       doc.FeatureNames,
			Classes:     doc.Classes,
			Input:       doc.Input,
			Output:      doc.Output,
			LibraryPath: opts.ONNXLibraryPath,
		})
	default:
		return nil, fmt.Errorf("%w: unsupported classifier kind %q", ErrArtifactLoad, doc.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: classifier %s: %w", ErrArtifactLoad, name, err)
	}
	return c, nil
}
