package types

// Span locates a text fragment in the document by rune offsets, End exclusive.
type Span struct {
	Begin int32  `json:"begin"`
	End   int32  `json:"end"`
	Text  string `json:"text"`
}
