package types

type Sentence struct {
	Span
	Tokens []*Token `json:"tokens"`
}
