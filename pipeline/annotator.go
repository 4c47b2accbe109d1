package pipeline

import (
	"context"
	"errors"

	"text2phenotype.com/ner/types"
)

var (
	ErrNoSentences            = errors.New("document has no sentence annotation, sentence splitting must run first")
	ErrNoTokens               = errors.New("sentence has no token annotation, tokenization must run first")
	ErrUnsatisfiedRequirement = errors.New("unsatisfied stage requirement")
)

// Annotator is a pipeline stage. It mutates the document in place and declares the
// annotations it needs and the ones it adds so stages can be ordered and validated.
// Annotate trusts that its requirements are satisfied.
type Annotator interface {
	Annotate(doc *types.Document) error
	Requires() Set
	Provides() Set
}

// ContextAnnotator is implemented by stages able to stop early when ctx is done.
type ContextAnnotator interface {
	Annotator
	AnnotateContext(ctx context.Context, doc *types.Document) error
}
