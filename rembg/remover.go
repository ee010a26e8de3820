package rembg

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chaos-io/rembg/inference"
	"github.com/chaos-io/rembg/logging"
)

// Pipeline runs decode, preprocess, inference, postprocess and composite for
// one request at a time per caller. All work except the engine call runs on
// the caller's goroutine; the engine call is serialized by the Handle.
type Pipeline struct {
	handle *inference.Handle
	logger *zap.Logger
}

var _ Remover = (*Pipeline)(nil)

func NewPipeline(handle *inference.Handle, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		handle: handle,
		logger: logger.Named("rembg"),
	}
}

// InitModel loads the ONNX model at modelPath into handle. On failure the
// handle stays empty and later removals fail with ErrModelNotInitialized.
func InitModel(handle *inference.Handle, modelPath, sharedLibraryPath string) error {
	return handle.Init(func() (inference.Engine, error) {
		if _, err := os.Stat(modelPath); err != nil {
			return nil, fmt.Errorf("model file: %w", err)
		}
		e, err := inference.NewONNXEngine(inference.ONNXConfig{
			ModelPath:         modelPath,
			SharedLibraryPath: sharedLibraryPath,
			InputShape:        InputShape(),
			OutputShape:       OutputShape(),
		})
		if err != nil {
			return nil, err
		}
		return e, nil
	})
}

// Option adjusts a single RemoveBackground call.
type Option func(*options)

type options struct {
	crop          bool
	cropSquare    bool
	cropThreshold uint8
}

// WithCrop trims the transparent margins of the result, optionally to a
// square around the subject.
func WithCrop(square bool) Option {
	return func(o *options) {
		o.crop = true
		o.cropSquare = square
		o.cropThreshold = DefaultCropThreshold
	}
}

// RemoveBackground decodes imageBytes, removes the background and returns the
// RGBA result encoded as PNG, with the same dimensions as the input unless a
// crop was requested.
func (p *Pipeline) RemoveBackground(ctx context.Context, imageBytes []byte, opts ...Option) ([]byte, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	requestID := requestIDFrom(ctx)
	log := logging.WithOperation(p.logger, "rembg.remove_background", requestID)
	log.Debug("starting background removal", zap.Int("bytes", len(imageBytes)))

	img, format, err := Decode(imageBytes)
	if err != nil {
		return nil, logging.NewOperationError("rembg.decode", requestID, err)
	}
	log.Debug("image decoded", zap.String("format", format),
		zap.Int("width", img.Bounds().Dx()), zap.Int("height", img.Bounds().Dy()))

	out, err := p.process(img, requestID, log)
	if err != nil {
		return nil, err
	}
	if o.crop {
		out = CropToSubject(out, o.cropThreshold, o.cropSquare)
		log.Debug("result cropped", zap.Int("width", out.Rect.Dx()), zap.Int("height", out.Rect.Dy()))
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, logging.NewOperationError("rembg.encode", requestID, fmt.Errorf("%w: %w", ErrEncode, err))
	}
	log.Debug("background removal complete", zap.Int("bytes", buf.Len()))

	return buf.Bytes(), nil
}

// Remove implements Remover for already decoded images.
func (p *Pipeline) Remove(ctx context.Context, img image.Image) (image.Image, error) {
	requestID := requestIDFrom(ctx)
	log := logging.WithOperation(p.logger, "rembg.remove", requestID)
	if img == nil || img.Bounds().Empty() {
		return nil, logging.NewOperationError("rembg.decode", requestID, fmt.Errorf("%w: image has no pixels", ErrDecode))
	}
	return p.process(img, requestID, log)
}

func (p *Pipeline) process(img image.Image, requestID string, log *zap.Logger) (*image.NRGBA, error) {
	if !p.handle.Ready() {
		_, err := p.handle.Run(nil)
		return nil, logging.NewOperationError("rembg.inference", requestID, err)
	}

	width, height := img.Bounds().Dx(), img.Bounds().Dy()

	start := time.Now()
	input, err := Preprocess(img)
	if err != nil {
		return nil, logging.NewOperationError("rembg.preprocess", requestID, err)
	}
	log.Debug("image preprocessed", zap.Int64s("shape", input.Shape), zap.Duration("elapsed", time.Since(start)))

	start = time.Now()
	outputs, err := p.handle.Run(map[string]*inference.Tensor{inference.InputName: input})
	if err != nil {
		return nil, logging.NewOperationError("rembg.inference", requestID, err)
	}
	raw, ok := outputs[inference.OutputName]
	if !ok || raw == nil {
		return nil, logging.NewOperationError("rembg.inference", requestID,
			fmt.Errorf("%w: no %q in model result", inference.ErrOutputMissing, inference.OutputName))
	}
	log.Debug("inference complete", zap.Int("values", len(raw.Data)), zap.Duration("elapsed", time.Since(start)))

	start = time.Now()
	mask, err := Postprocess(raw, width, height)
	if err != nil {
		return nil, logging.NewOperationError("rembg.postprocess", requestID, err)
	}
	log.Debug("mask resized", zap.Int("width", width), zap.Int("height", height), zap.Duration("elapsed", time.Since(start)))

	return Composite(img, mask), nil
}

func requestIDFrom(ctx context.Context) string {
	if id, ok := logging.RequestIDFromContext(ctx); ok {
		return id
	}
	return uuid.NewString()
}
