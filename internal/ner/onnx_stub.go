//go:build !onnx

package ner

import (
	"fmt"

	"github.com/m-stoeckel/duui-uima/internal/model"
)

// NewONNXAnnotator is unavailable in builds without the onnx tag
func NewONNXAnnotator(cfg model.ONNXConfig) (Annotator, error) {
	return nil, fmt.Errorf("%w: onnx (rebuild with -tags onnx)", ErrBackendUnavailable)
}
