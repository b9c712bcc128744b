//go:build onnx

package ner

import (
	"context"
	"fmt"
	"sync"

	"github.com/daulet/tokenizers"
	onnxruntime "github.com/yalue/onnxruntime_go"

	"github.com/m-stoeckel/duui-uima/internal/model"
)

// ONNXAnnotator runs a token-classification transformer exported to ONNX
type ONNXAnnotator struct {
	mu        sync.Mutex
	tokenizer *tokenizers.Tokenizer
	session   *onnxruntime.DynamicAdvancedSession
	id2label  map[int]string
	numLabels int
	maxSeqLen int
	minScore  float64
}

// NewONNXAnnotator loads the tokenizer, label map and model session
func NewONNXAnnotator(cfg model.ONNXConfig) (Annotator, error) {
	if cfg.ModelPath == "" || cfg.TokenizerPath == "" || cfg.LabelsPath == "" {
		return nil, fmt.Errorf("onnx backend requires model_path, tokenizer_path and labels_path")
	}

	id2label, numLabels, err := loadLabels(cfg.LabelsPath)
	if err != nil {
		return nil, err
	}

	if cfg.LibraryPath != "" {
		onnxruntime.SetSharedLibraryPath(cfg.LibraryPath)
	}
	if !onnxruntime.IsInitialized() {
		if err := onnxruntime.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("%w: initialize onnxruntime: %v", ErrBackendUnavailable, err)
		}
	}

	tk, err := tokenizers.FromFile(cfg.TokenizerPath)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}

	session, err := onnxruntime.NewDynamicAdvancedSession(cfg.ModelPath,
		[]string{"input_ids", "attention_mask"},
		[]string{"logits"},
		nil)
	if err != nil {
		_ = tk.Close()
		return nil, fmt.Errorf("create session: %w", err)
	}

	maxSeqLen := cfg.MaxSeqLen
	if maxSeqLen <= 0 {
		maxSeqLen = 512
	}

	return &ONNXAnnotator{
		tokenizer: tk,
		session:   session,
		id2label:  id2label,
		numLabels: numLabels,
		maxSeqLen: maxSeqLen,
		minScore:  cfg.MinScore,
	}, nil
}

// Name returns the backend name
func (o *ONNXAnnotator) Name() string {
	return "onnx"
}

// Annotate tokenizes sentence, runs the model and groups BIO tags. Input
// longer than max_seq_len tokens is truncated.
func (o *ONNXAnnotator) Annotate(ctx context.Context, sentence string) ([]model.RawEntity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	encoding := o.tokenizer.EncodeWithOptions(sentence, true, tokenizers.WithReturnOffsets())
	n := len(encoding.IDs)
	if n > o.maxSeqLen {
		n = o.maxSeqLen
	}
	if n == 0 {
		return nil, nil
	}

	inputIDs := make([]int64, n)
	mask := make([]int64, n)
	spans := make([]tokenSpan, n)
	for i := 0; i < n; i++ {
		inputIDs[i] = int64(encoding.IDs[i])
		mask[i] = 1
		if i < len(encoding.Offsets) {
			spans[i] = tokenSpan{int(encoding.Offsets[i][0]), int(encoding.Offsets[i][1])}
		}
	}

	shape := onnxruntime.NewShape(1, int64(n))
	idsTensor, err := onnxruntime.NewTensor(shape, inputIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: input tensor: %v", ErrAnnotator, err)
	}
	defer idsTensor.Destroy()

	maskTensor, err := onnxruntime.NewTensor(shape, mask)
	if err != nil {
		return nil, fmt.Errorf("%w: mask tensor: %v", ErrAnnotator, err)
	}
	defer maskTensor.Destroy()

	output, err := onnxruntime.NewEmptyTensor[float32](onnxruntime.NewShape(1, int64(n), int64(o.numLabels)))
	if err != nil {
		return nil, fmt.Errorf("%w: output tensor: %v", ErrAnnotator, err)
	}
	defer output.Destroy()

	if err := o.session.Run(
		[]onnxruntime.Value{idsTensor, maskTensor},
		[]onnxruntime.Value{output},
	); err != nil {
		return nil, fmt.Errorf("%w: inference: %v", ErrAnnotator, err)
	}

	return groupTokens(sentence, output.GetData(), o.numLabels, o.id2label, spans, o.minScore)
}

// Close releases the session and tokenizer
func (o *ONNXAnnotator) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	var errs []error
	if o.session != nil {
		if err := o.session.Destroy(); err != nil {
			errs = append(errs, fmt.Errorf("destroy session: %w", err))
		}
		o.session = nil
	}
	if o.tokenizer != nil {
		if err := o.tokenizer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close tokenizer: %w", err))
		}
		o.tokenizer = nil
	}
	if len(errs) > 0 {
		return fmt.Errorf("cleanup errors: %v", errs)
	}
	return nil
}
