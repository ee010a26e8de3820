package inference

import (
	"fmt"

	ort "github.com/yalue/onnxruntime_go"
)

// ONNXConfig describes the model graph bound by ONNXEngine.
type ONNXConfig struct {
	ModelPath         string
	SharedLibraryPath string
	InputShape        []int64
	OutputShape       []int64
}

// ONNXEngine runs the model through ONNX Runtime with preallocated tensors.
type ONNXEngine struct {
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
	inputShape   []int64
	outputShape  []int64
}

// NewONNXEngine initializes the runtime environment and opens a session on cfg.ModelPath.
func NewONNXEngine(cfg ONNXConfig) (*ONNXEngine, error) {
	if cfg.SharedLibraryPath != "" {
		ort.SetSharedLibraryPath(cfg.SharedLibraryPath)
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
		}
	}

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(cfg.InputShape...))
	if err != nil {
		return nil, fmt.Errorf("%w: input: %w", ErrTensorCreation, err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(cfg.OutputShape...))
	if err != nil {
		_ = inputTensor.Destroy()
		return nil, fmt.Errorf("%w: output: %w", ErrTensorCreation, err)
	}

	session, err := ort.NewAdvancedSession(cfg.ModelPath,
		[]string{InputName}, []string{OutputName},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		_ = inputTensor.Destroy()
		_ = outputTensor.Destroy()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &ONNXEngine{
		session:      session,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
		inputShape:   append([]int64(nil), cfg.InputShape...),
		outputShape:  append([]int64(nil), cfg.OutputShape...),
	}, nil
}

// Run copies the named input into the bound tensor, runs the session and
// returns a copy of the bound output.
func (e *ONNXEngine) Run(inputs map[string]*Tensor) (map[string]*Tensor, error) {
	in, ok := inputs[InputName]
	if !ok || in == nil {
		return nil, fmt.Errorf("%w: no %q input", ErrTensorCreation, InputName)
	}

	dst := e.inputTensor.GetData()
	if len(in.Data) != len(dst) {
		return nil, fmt.Errorf("%w: input has %d elements, model expects %d", ErrTensorCreation, len(in.Data), len(dst))
	}
	copy(dst, in.Data)

	if err := e.session.Run(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInference, err)
	}

	out := make([]float32, len(e.outputTensor.GetData()))
	copy(out, e.outputTensor.GetData())

	return map[string]*Tensor{
		OutputName: {Shape: append([]int64(nil), e.outputShape...), Data: out},
	}, nil
}

// Close destroys the session, its tensors and the runtime environment.
func (e *ONNXEngine) Close() error {
	if e.inputTensor != nil {
		_ = e.inputTensor.Destroy()
	}
	if e.outputTensor != nil {
		_ = e.outputTensor.Destroy()
	}
	if e.session != nil {
		_ = e.session.Destroy()
	}
	return ort.DestroyEnvironment()
}
