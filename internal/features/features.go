// Package features describes the lab-value form fields and marshals their
// values into the fixed-order vector the scaler and classifier were fitted on.
package features

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Count is the number of features the artifacts expect.
const Count = 12

var ErrInvalidValue = errors.New("invalid field value")

type Kind string

const (
	KindNumeric Kind = "numeric"
	KindBinary  Kind = "binary"
)

type Field struct {
	Name    string  `json:"name"`
	Label   string  `json:"label"`
	Kind    Kind    `json:"kind"`
	Min     float64 `json:"min"`
	HasMin  bool    `json:"hasMin"`
	Max     float64 `json:"max"`
	Default float64 `json:"default"`
	Step    float64 `json:"step"`
}

// Vector holds one value per field, in fit order.
type Vector [Count]float64

// fields is the fit order. Do not reorder.
var fields = [Count]Field{
	{Name: "age", Label: "Age", Kind: KindNumeric, Min: 0, HasMin: true, Max: 120, Default: 45, Step: 1},
	{Name: "sex", Label: "Sex", Kind: KindBinary, Min: 0, HasMin: true, Max: 1, Default: 1, Step: 1},
	{Name: "albumin", Label: "Albumin", Kind: KindNumeric, Min: 14.9, HasMin: true, Max: 82.2, Default: 40.0, Step: 0.1},
	{Name: "alkaline_phosphatase", Label: "Alkaline Phosphatase", Kind: KindNumeric, Min: 11.3, HasMin: true, Max: 416.6, Default: 100.0, Step: 0.1},
	{Name: "alanine_aminotransferase", Label: "Alanine Aminotransferase", Kind: KindNumeric, Min: 0.9, HasMin: true, Max: 325.3, Default: 40.0, Step: 0.1},
	{Name: "aspartate_aminotransferase", Label: "Aspartate Aminotransferase", Kind: KindNumeric, Min: 10.6, HasMin: true, Max: 324.0, Default: 30.0, Step: 0.1},
	{Name: "bilirubin", Label: "Bilirubin", Kind: KindNumeric, Min: 0.8, HasMin: true, Max: 209.0, Default: 1.0, Step: 0.1},
	{Name: "cholinesterase", Label: "Cholinesterase", Kind: KindNumeric, Min: 1.42, HasMin: true, Max: 16.41, Default: 10.0, Step: 0.01},
	{Name: "cholesterol", Label: "Cholesterol", Kind: KindNumeric, Min: 1.43, HasMin: true, Max: 9.67, Default: 5.0, Step: 0.01},
	{Name: "creatinina", Label: "Creatinine", Kind: KindNumeric, Min: 8.0, HasMin: true, Max: 1079.1, Default: 80.0, Step: 0.1},
	{Name: "gamma_glutamyl_transferase", Label: "Gamma-Glutamyl Transferase", Kind: KindNumeric, Min: 4.5, HasMin: true, Max: 650.9, Default: 50.0, Step: 0.1},
	{Name: "protein", Label: "Protein", Kind: KindNumeric, Max: 90.0, Default: 70.0, Step: 0.1},
}

// Fields returns a copy of the field table in fit order.
func Fields() []Field {
	out := make([]Field, Count)
	copy(out, fields[:])
	return out
}

func Names() []string {
	out := make([]string, Count)
	for i, f := range fields {
		out[i] = f.Name
	}
	return out
}

func Defaults() Vector {
	var v Vector
	for i, f := range fields {
		v[i] = f.Default
	}
	return v
}

// Index returns the fit position of the named field.
func Index(name string) (int, bool) {
	for i, f := range fields {
		if f.Name == name {
			return i, true
		}
	}
	return -1, false
}

// Accepts reports whether v is finite and lies within the field's bounds.
// Only the input widgets call this; scale-and-predict never re-validates.
func (f Field) Accepts(v float64) bool {
	if !finite(v) {
		return false
	}
	if f.HasMin && v < f.Min {
		return false
	}
	if v > f.Max {
		return false
	}
	if f.Kind == KindBinary {
		return v == 0 || v == 1
	}
	return true
}

// RangeLabel renders the bounds the way the form shows them, e.g. "14.9 - 82.2".
func (f Field) RangeLabel() string {
	lo := "0"
	if f.HasMin {
		lo = formatBound(f.Min)
	}
	return lo + " - " + formatBound(f.Max)
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FromValues builds a Vector from raw widget values. A missing or empty value
// takes the field default.
func FromValues(get func(name string) (string, bool)) (Vector, error) {
	v := Defaults()
	for i, f := range fields {
		raw, ok := get(f.Name)
		if !ok {
			continue
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		parsed, err := parseValue(f, raw)
		if err != nil {
			return Vector{}, err
		}
		v[i] = parsed
	}
	return v, nil
}

func parseValue(f Field, raw string) (float64, error) {
	if f.Kind == KindBinary {
		switch strings.ToLower(raw) {
		case "male":
			return 1, nil
		case "female":
			return 0, nil
		}
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil || !finite(val) {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalidValue, f.Name, raw)
	}
	return val, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// SexLabel maps the model encoding of sex to its display label.
func SexLabel(v float64) string {
	if v == 1 {
		return "Male"
	}
	return "Female"
}

// Map keys the vector by field name.
func (v Vector) Map() map[string]float64 {
	out := make(map[string]float64, Count)
	for i, f := range fields {
		out[f.Name] = v[i]
	}
	return out
}

// Slice returns the values as a slice in fit order.
func (v Vector) Slice() []float64 {
	out := make([]float64, Count)
	copy(out, v[:])
	return out
}
