package model

import (
	"errors"
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ONNXConfig describes a classifier exported with skl2onnx.
type ONNXConfig struct {
	Model       []byte
	Names       []string
	Classes     []int
	Input       string
	Output      string
	LibraryPath string
}

// ONNX runs a classifier through onnxruntime. The tensors are reused across
// calls, so Run is serialized.
type ONNX struct {
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[int64]
	names   []string
	classes []int

	mu sync.Mutex
}

func NewONNX(cfg ONNXConfig) (*ONNX, error) {
	if len(cfg.Model) == 0 {
		return nil, errors.New("onnx model is empty")
	}
	if len(cfg.Names) == 0 {
		return nil, errors.New("onnx model needs feature_names")
	}
	if len(cfg.Classes) < 2 {
		return nil, fmt.Errorf("onnx model needs at least 2 classes, got %d", len(cfg.Classes))
	}
	if cfg.Input == "" {
		cfg.Input = "float_input"
	}
	if cfg.Output == "" {
		cfg.Output = "label"
	}

	libPath := cfg.LibraryPath
	if libPath == "" {
		libPath = os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH")
	}
	if libPath == "" {
		return nil, errors.New("onnxruntime shared library not found; set ONNXRUNTIME_SHARED_LIBRARY_PATH")
	}
	ort.SetSharedLibraryPath(libPath)
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("initialize onnxruntime: %w", err)
		}
	}

	input, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(len(cfg.Names))))
	if err != nil {
		return nil, fmt.Errorf("allocate input tensor: %w", err)
	}
	output, err := ort.NewEmptyTensor[int64](ort.NewShape(1))
	if err != nil {
		input.Destroy()
		return nil, fmt.Errorf("allocate output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSessionWithONNXData(
		cfg.Model,
		[]string{cfg.Input},
		[]string{cfg.Output},
		[]ort.Value{input},
		[]ort.Value{output},
		nil,
	)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, fmt.Errorf("create onnx session: %w", err)
	}

	return &ONNX{
		session: session,
		input:   input,
		output:  output,
		names:   append([]string(nil), cfg.Names...),
		classes: append([]int(nil), cfg.Classes...),
	}, nil
}

func (m *ONNX) Classes() []int         { return append([]int(nil), m.classes...) }
func (m *ONNX) NumFeatures() int       { return len(m.names) }
func (m *ONNX) FeatureNames() []string { return m.names }

func (m *ONNX) Predict(x []float64) (int, error) {
	if len(x) != len(m.names) {
		return 0, fmt.Errorf("%w: onnx model expects %d features, got %d", ErrShapeMismatch, len(m.names), len(x))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	buf := m.input.GetData()
	for i, v := range x {
		buf[i] = float32(v)
	}
	if err := m.session.Run(); err != nil {
		return 0, fmt.Errorf("onnx run: %w", err)
	}
	label := int(m.output.GetData()[0])
	for _, c := range m.classes {
		if c == label {
			return label, nil
		}
	}
	return 0, fmt.Errorf("%w: onnx model produced label %d outside %v", ErrShapeMismatch, label, m.classes)
}

func (m *ONNX) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	if m.session != nil {
		errs = append(errs, m.session.Destroy())
		m.session = nil
	}
	if m.input != nil {
		errs = append(errs, m.input.Destroy())
		m.input = nil
	}
	if m.output != nil {
		errs = append(errs, m.output.Destroy())
		m.output = nil
	}
	return errors.Join(errs...)
}
