package inference

import (
	"context"
	"errors"
	"fmt"
	"time"

	nhttp "github.com/chaos-io/rembg/util/http"
)

const datatypeFP32 = "FP32"

// RemoteEngine forwards the forward pass to an inference server speaking the
// KServe v2 REST protocol (POST /v2/models/<name>/infer).
type RemoteEngine struct {
	url     string
	timeout time.Duration
	cli     nhttp.IClient
}

type v2Tensor struct {
	Name     string    `json:"name"`
	Shape    []int64   `json:"shape"`
	Datatype string    `json:"datatype"`
	Data     []float32 `json:"data"`
}

type v2Request struct {
	Inputs  []v2Tensor       `json:"inputs"`
	Outputs []map[string]any `json:"outputs,omitempty"`
}

type v2Response struct {
	ModelName string     `json:"model_name"`
	Outputs   []v2Tensor `json:"outputs"`
}

// NewRemoteEngine returns an engine posting to url. A zero timeout means no
// per-call deadline beyond the client's own.
func NewRemoteEngine(url string, timeout time.Duration, cli nhttp.IClient) (*RemoteEngine, error) {
	if url == "" {
		return nil, errors.New("remote inference url is empty")
	}
	if cli == nil {
		cli = nhttp.NewHTTPClientWithTimeout(timeout)
	}
	return &RemoteEngine{url: url, timeout: timeout, cli: cli}, nil
}

func (e *RemoteEngine) Run(inputs map[string]*Tensor) (map[string]*Tensor, error) {
	req := v2Request{Outputs: []map[string]any{{"name": OutputName}}}
	for name, t := range inputs {
		if t == nil {
			return nil, fmt.Errorf("%w: input %q is nil", ErrTensorCreation, name)
		}
		req.Inputs = append(req.Inputs, v2Tensor{
			Name:     name,
			Shape:    t.Shape,
			Datatype: datatypeFP32,
			Data:     t.Data,
		})
	}

	resp := &v2Response{}
	err := e.cli.DoHTTPRequest(context.Background(), &nhttp.RequestParam{
		RequestURI: e.url,
		Method:     "POST",
		Header:     map[string]string{"Content-Type": "application/json"},
		Body:       req,
		Response:   resp,
		Timeout:    e.timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: do request: %w", ErrInference, err)
	}

	outputs := make(map[string]*Tensor, len(resp.Outputs))
	for _, o := range resp.Outputs {
		if o.Datatype != "" && o.Datatype != datatypeFP32 {
			return nil, fmt.Errorf("%w: output %q has datatype %s", ErrInference, o.Name, o.Datatype)
		}
		t, err := NewTensor(o.Shape, o.Data)
		if err != nil {
			return nil, fmt.Errorf("output %q: %w", o.Name, err)
		}
		outputs[o.Name] = t
	}
	return outputs, nil
}

func (e *RemoteEngine) Close() error {
	return nil
}
