//go:build cgo
// +build cgo

package embedding

import (
	"context"
	"errors"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

var (
	modelInputs  = []string{"input_ids", "attention_mask", "token_type_ids"}
	modelOutputs = []string{"output"}
)

// ONNXEmbedder runs a pooled sentence model through ONNX Runtime. The model
// takes input_ids, attention_mask and token_type_ids of shape [1, maxTokens]
// and yields output of shape [1, dims]. Requires cgo and the onnxruntime
// shared library.
type ONNXEmbedder struct {
	mu        sync.Mutex
	session   *ort.AdvancedSession
	tokenizer Tokenizer
	dims      int
	maxTokens int

	// inputs are bound to the session in modelInputs order.
	inputs [3]*ort.Tensor[int64]
	output *ort.Tensor[float32]
}

var ortEnv struct {
	once sync.Once
	err  error
}

func ensureRuntime() error {
	ortEnv.once.Do(func() {
		if !ort.IsInitialized() {
			ortEnv.err = ort.InitializeEnvironment()
		}
	})
	return ortEnv.err
}

// NewONNXEmbedder loads the model at path. dims is the model's output width.
func NewONNXEmbedder(path string, dims, maxTokens int) (*ONNXEmbedder, error) {
	if dims < 1 {
		return nil, fmt.Errorf("%w: model dimension %d", ErrInvalidDimension, dims)
	}
	if err := ensureRuntime(); err != nil {
		return nil, fmt.Errorf("initialize onnxruntime: %w", err)
	}

	e := &ONNXEmbedder{tokenizer: &SimpleTokenizer{}, dims: dims}
	ids, mask, types := e.tokenizer.Tokenize("", maxTokens)
	e.maxTokens = len(ids)
	shape := ort.NewShape(1, int64(e.maxTokens))

	for i, data := range [][]int64{ids, mask, types} {
		t, err := ort.NewTensor(shape, data)
		if err != nil {
			e.release()
			return nil, fmt.Errorf("create %s tensor: %w", modelInputs[i], err)
		}
		e.inputs[i] = t
	}
	out, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(dims)))
	if err != nil {
		e.release()
		return nil, fmt.Errorf("create output tensor: %w", err)
	}
	e.output = out

	session, err := ort.NewAdvancedSession(path, modelInputs, modelOutputs,
		[]ort.ArbitraryTensor{e.inputs[0], e.inputs[1], e.inputs[2]},
		[]ort.ArbitraryTensor{e.output},
		nil,
	)
	if err != nil {
		e.release()
		return nil, fmt.Errorf("load model %s: %w", path, err)
	}
	e.session = session
	return e, nil
}

// Embed returns the model's pooled output for text, unnormalised.
func (e *ONNXEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return nil, errors.New("onnx model is closed")
	}

	ids, mask, types := e.tokenizer.Tokenize(text, e.maxTokens)
	for i, data := range [][]int64{ids, mask, types} {
		copy(e.inputs[i].GetData(), data)
	}
	if err := e.session.Run(); err != nil {
		return nil, fmt.Errorf("run model: %w", err)
	}
	return append([]float32(nil), e.output.GetData()[:e.dims]...), nil
}

// EmbedBatch embeds texts one at a time; the session holds a single input row.
func (e *ONNXEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		v, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Dimensions returns the model output width.
func (e *ONNXEmbedder) Dimensions() int { return e.dims }

// Close destroys the session and its tensors. It is safe to call twice.
func (e *ONNXEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	var err error
	if e.session != nil {
		err = e.session.Destroy()
		e.session = nil
	}
	e.release()
	return err
}

func (e *ONNXEmbedder) release() {
	for i, t := range e.inputs {
		if t != nil {
			_ = t.Destroy()
			e.inputs[i] = nil
		}
	}
	if e.output != nil {
		_ = e.output.Destroy()
		e.output = nil
	}
}
