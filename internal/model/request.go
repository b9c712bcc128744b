package model

// Request is the payload accepted by the annotator
type Request struct {
	// Full document text
	Text string `json:"text"`

	// Opaque language tag, passed through unused
	Language string `json:"language"`

	// Sentence boundaries as character offsets into Text
	Sentences []SentenceOffsets `json:"sentences" validate:"dive"`
}

// SentenceOffsets is a (begin, end) pair of character offsets into the full text
type SentenceOffsets struct {
	Begin int `json:"begin" validate:"gte=0"`
	End   int `json:"end" validate:"gte=0"`
}

// Sentence is the substring of the full text covered by one boundary, paired
// with the boundary's begin as its anchor into the full text
type Sentence struct {
	Text   string
	Anchor int
}
