package inference

// Input and output names of the segmentation model graph.
const (
	InputName  = "input"
	OutputName = "output"
)

// Engine runs one forward pass. Implementations are not required to be safe
// for concurrent use; Handle serializes calls.
type Engine interface {
	Run(inputs map[string]*Tensor) (map[string]*Tensor, error)
	Close() error
}
