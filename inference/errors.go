package inference

import "errors"

var (
	// ErrModelNotInitialized is returned by Handle.Run when no engine was attached.
	ErrModelNotInitialized = errors.New("model not initialized")
	// ErrTensorCreation marks a tensor that could not be built or bound.
	ErrTensorCreation = errors.New("tensor creation failed")
	// ErrInference marks a failure inside the engine's forward pass.
	ErrInference = errors.New("inference failed")
	// ErrOutputMissing marks a result without the expected named output.
	ErrOutputMissing = errors.New("output missing")
)

// hasKind reports whether err already carries one of the package error kinds.
func hasKind(err error) bool {
	return errors.Is(err, ErrModelNotInitialized) ||
		errors.Is(err, ErrTensorCreation) ||
		errors.Is(err, ErrInference) ||
		errors.Is(err, ErrOutputMissing)
}
