package model

import (
	"fmt"
)

// Classifier maps a scaled feature vector to one class label.
type Classifier interface {
	Predict(x []float64) (int, error)
	Classes() []int
	NumFeatures() int
	FeatureNames() []string
}

// Linear is a multinomial linear model: the label is the class with the
// highest coef·x + intercept. A single coefficient row is the binary case.
type Linear struct {
	names     []string
	classes   []int
	coef      [][]float64
	intercept []float64
}

func NewLinear(names []string, classes []int, coef [][]float64, intercept []float64) (*Linear, error) {
	if len(classes) < 2 {
		return nil, fmt.Errorf("linear model needs at least 2 classes, got %d", len(classes))
	}
	rows := len(classes)
	if rows == 2 {
		rows = len(coef)
		if rows != 1 && rows != 2 {
			return nil, fmt.Errorf("binary linear model needs 1 or 2 coefficient rows, got %d", len(coef))
		}
	}
	if len(coef) != rows || len(intercept) != rows {
		return nil, fmt.Errorf("linear model has %d coefficient rows and %d intercepts for %d classes", len(coef), len(intercept), len(classes))
	}
	n := len(coef[0])
	for i, row := range coef {
		if len(row) != n {
			return nil, fmt.Errorf("coefficient row %d has %d entries, want %d", i, len(row), n)
		}
	}
	if len(names) != 0 && len(names) != n {
		return nil, fmt.Errorf("%w: linear model has %d feature names for %d features", ErrShapeMismatch, len(names), n)
	}
	return &Linear{
		names:     append([]string(nil), names...),
		classes:   append([]int(nil), classes...),
		coef:      coef,
		intercept: append([]float64(nil), intercept...),
	}, nil
}

func (m *Linear) Classes() []int         { return append([]int(nil), m.classes...) }
func (m *Linear) NumFeatures() int       { return len(m.coef[0]) }
func (m *Linear) FeatureNames() []string { return m.names }

func (m *Linear) Predict(x []float64) (int, error) {
	if len(x) != m.NumFeatures() {
		return 0, fmt.Errorf("%w: linear model expects %d features, got %d", ErrShapeMismatch, m.NumFeatures(), len(x))
	}
	scores := make([]float64, len(m.coef))
	for i, row := range m.coef {
		s := m.intercept[i]
		for j, w := range row {
			s += w * x[j]
		}
		scores[i] = s
	}
	if len(scores) == 1 {
		if scores[0] > 0 {
			return m.classes[1], nil
		}
		return m.classes[0], nil
	}
	return m.classes[argmax(scores)], nil
}

// Tree is one fitted decision tree in array form. Leaves have
// ChildrenLeft == -1; Value holds per-class weights for every node.
type Tree struct {
	ChildrenLeft  []int       `json:"children_left"`
	ChildrenRight []int       `json:"children_right"`
	Feature       []int       `json:"feature"`
	Threshold     []float64   `json:"threshold"`
	Value         [][]float64 `json:"value"`
}

func (t Tree) validate(nFeatures, nClasses int) error {
	n := len(t.ChildrenLeft)
	if n == 0 {
		return fmt.Errorf("tree has no nodes")
	}
	if len(t.ChildrenRight) != n || len(t.Feature) != n || len(t.Threshold) != n || len(t.Value) != n {
		return fmt.Errorf("tree node arrays differ in length")
	}
	for i := 0; i < n; i++ {
		if len(t.Value[i]) != nClasses {
			return fmt.Errorf("node %d has %d class weights, want %d", i, len(t.Value[i]), nClasses)
		}
		left, right := t.ChildrenLeft[i], t.ChildrenRight[i]
		if left == -1 {
			continue
		}
		if left <= i || left >= n || right <= i || right >= n {
			return fmt.Errorf("node %d has children out of range", i)
		}
		if t.Feature[i] < 0 || t.Feature[i] >= nFeatures {
			return fmt.Errorf("node %d splits on feature %d of %d", i, t.Feature[i], nFeatures)
		}
	}
	return nil
}

func (t Tree) leaf(x []float64) []float64 {
	node := 0
	for t.ChildrenLeft[node] != -1 {
		if x[t.Feature[node]] <= t.Threshold[node] {
			node = t.ChildrenLeft[node]
		} else {
			node = t.ChildrenRight[node]
		}
	}
	return t.Value[node]
}

// Forest averages per-tree class probabilities. A decision tree is a forest
// of one.
type Forest struct {
	names     []string
	classes   []int
	nFeatures int
	trees     []Tree
}

func NewForest(names []string, classes []int, nFeatures int, trees []Tree) (*Forest, error) {
	if len(classes) < 2 {
		return nil, fmt.Errorf("forest needs at least 2 classes, got %d", len(classes))
	}
	if len(trees) == 0 {
		return nil, fmt.Errorf("forest has no trees")
	}
	if len(names) != 0 {
		if nFeatures != 0 && nFeatures != len(names) {
			return nil, fmt.Errorf("%w: forest declares %d features but has %d names", ErrShapeMismatch, nFeatures, len(names))
		}
		nFeatures = len(names)
	}
	if nFeatures <= 0 {
		return nil, fmt.Errorf("forest feature count unknown")
	}
	for i, t := range trees {
		if err := t.validate(nFeatures, len(classes)); err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return &Forest{
		names:     append([]string(nil), names...),
		classes:   append([]int(nil), classes...),
		nFeatures: nFeatures,
		trees:     trees,
	}, nil
}

func (f *Forest) Classes() []int         { return append([]int(nil), f.classes...) }
func (f *Forest) NumFeatures() int       { return f.nFeatures }
func (f *Forest) FeatureNames() []string { return f.names }

func (f *Forest) Predict(x []float64) (int, error) {
	if len(x) != f.nFeatures {
		return 0, fmt.Errorf("%w: forest expects %d features, got %d", ErrShapeMismatch, f.nFeatures, len(x))
	}
	proba := make([]float64, len(f.classes))
	for _, t := range f.trees {
		weights := t.leaf(x)
		var total float64
		for _, w := range weights {
			total += w
		}
		if total == 0 {
			continue
		}
		for i, w := range weights {
			proba[i] += w / total
		}
	}
	return f.classes[argmax(proba)], nil
}

// argmax returns the first index of the maximum.
func argmax(v []float64) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}
