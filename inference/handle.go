package inference

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// Handle owns the model engine for the lifetime of the process. It is created
// empty, filled once by Init or Load, and shared by reference between requests.
type Handle struct {
	mu      sync.Mutex // held for the duration of a single engine call
	engine  atomic.Pointer[engineBox]
	initMu  sync.Mutex
	initErr error
}

type engineBox struct {
	Engine
}

// NewHandle returns a handle with no engine attached.
func NewHandle() *Handle {
	return &Handle{}
}

// Init builds the engine with loader and attaches it. A loader failure leaves
// the handle empty and is kept for InitErr.
func (h *Handle) Init(loader func() (Engine, error)) error {
	h.initMu.Lock()
	defer h.initMu.Unlock()

	if h.engine.Load() != nil {
		return errors.New("model already initialized")
	}

	e, err := loader()
	if err != nil {
		h.initErr = err
		return err
	}
	if e == nil {
		h.initErr = errors.New("loader returned no engine")
		return h.initErr
	}
	h.initErr = nil
	h.engine.Store(&engineBox{Engine: e})
	return nil
}

// Load attaches an already built engine.
func (h *Handle) Load(e Engine) error {
	return h.Init(func() (Engine, error) { return e, nil })
}

// InitErr returns the last initialization failure, if any.
func (h *Handle) InitErr() error {
	h.initMu.Lock()
	defer h.initMu.Unlock()
	return h.initErr
}

// Ready reports whether an engine is attached.
func (h *Handle) Ready() bool {
	return h.engine.Load() != nil
}

// Run executes one forward pass. Only the engine call is under the lock; an
// empty handle fails immediately without touching it.
func (h *Handle) Run(inputs map[string]*Tensor) (map[string]*Tensor, error) {
	box := h.engine.Load()
	if box == nil {
		if err := h.InitErr(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrModelNotInitialized, err)
		}
		return nil, ErrModelNotInitialized
	}

	h.mu.Lock()
	outputs, err := box.Run(inputs)
	h.mu.Unlock()

	if err != nil {
		if hasKind(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrInference, err)
	}
	return outputs, nil
}

// Close releases the engine. The handle is empty afterwards.
func (h *Handle) Close() error {
	h.initMu.Lock()
	defer h.initMu.Unlock()

	box := h.engine.Swap(nil)
	if box == nil {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	return box.Close()
}
