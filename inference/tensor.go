package inference

import "fmt"

// Tensor is a dense float32 buffer in row-major order.
type Tensor struct {
	Shape []int64
	Data  []float32
}

// NewTensor checks that shape describes exactly len(data) elements.
func NewTensor(shape []int64, data []float32) (*Tensor, error) {
	if len(shape) == 0 {
		return nil, fmt.Errorf("%w: empty shape", ErrTensorCreation)
	}
	n := int64(1)
	for i, d := range shape {
		if d <= 0 {
			return nil, fmt.Errorf("%w: dimension %d is %d", ErrTensorCreation, i, d)
		}
		n *= d
	}
	if n != int64(len(data)) {
		return nil, fmt.Errorf("%w: shape %v needs %d elements, got %d", ErrTensorCreation, shape, n, len(data))
	}
	return &Tensor{Shape: append([]int64(nil), shape...), Data: data}, nil
}

// Len returns the element count described by the shape.
func (t *Tensor) Len() int64 {
	if t == nil || len(t.Shape) == 0 {
		return 0
	}
	n := int64(1)
	for _, d := range t.Shape {
		n *= d
	}
	return n
}
