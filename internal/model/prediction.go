package model

// RawEntity is an entity as reported by an NER backend for a single sentence.
// Begin and End are character offsets local to the sentence. Word is the
// matched text and may carry leading whitespace picked up by the tokenizer.
type RawEntity struct {
	Label string  `json:"label"`
	Begin int     `json:"begin"`
	End   int     `json:"end"`
	Word  string  `json:"word"`
	Score float64 `json:"score,omitempty"` // Backend confidence, informational only
}

// Prediction is a labeled span. After reconciliation its offsets are
// character offsets into the full request text.
type Prediction struct {
	Label string `json:"label"`
	Begin int    `json:"begin"`
	End   int    `json:"end"`
}

// NewPrediction creates a prediction
func NewPrediction(label string, begin, end int) Prediction {
	return Prediction{Label: label, Begin: begin, End: end}
}

// WithOffset returns a copy of p shifted by offset
func (p Prediction) WithOffset(offset int) Prediction {
	p.Begin += offset
	p.End += offset
	return p
}

// Response is the annotator output for one request
type Response struct {
	Predictions []Prediction      `json:"predictions"`
	Meta        map[string]string `json:"meta"` // Optional diagnostic annotations, nil when absent
}

// NewResponse pairs predictions with optional metadata
func NewResponse(predictions []Prediction, meta map[string]string) *Response {
	if predictions == nil {
		predictions = []Prediction{}
	}
	return &Response{
		Predictions: predictions,
		Meta:        meta,
	}
}

// ErrorMessage is the body returned for failed requests
type ErrorMessage struct {
	Message string `json:"message"`
	Kind    string `json:"kind"`
}
