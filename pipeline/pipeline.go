package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"text2phenotype.com/ner/logger"
	"text2phenotype.com/ner/types"
)

// Pipeline runs stages in an order where every stage finds its requirements satisfied
// by the input annotations or by the stages before it.
type Pipeline struct {
	stages    []Annotator
	input     Set
	available Set
	log       zerolog.Logger
}

// New orders the stages and validates their requirements. A stage keeps its declared
// position unless it needs an annotation a later stage provides. It fails with
// ErrUnsatisfiedRequirement when no order satisfies every stage.
func New(input Set, stages ...Annotator) (*Pipeline, error) {
	pplnLogger := logger.NewLogger("Pipeline")

	available := input.Clone()
	remaining := append([]Annotator(nil), stages...)
	ordered := make([]Annotator, 0, len(stages))

	for len(remaining) > 0 {
		next := -1
		for i, stage := range remaining {
			if available.ContainsAll(stage.Requires()) {
				next = i
				break
			}
		}
		if next < 0 {
			stage := remaining[0]
			err := fmt.Errorf("%w: stage %T needs %v, available %s",
				ErrUnsatisfiedRequirement, stage, available.Missing(stage.Requires()), available)
			pplnLogger.Error().Err(err).Msg("Failed to build pipeline")
			return nil, err
		}

		stage := remaining[next]
		ordered = append(ordered, stage)
		available = available.Union(stage.Provides())
		remaining = append(remaining[:next], remaining[next+1:]...)
	}

	pplnLogger.Debug().Int("stages", len(ordered)).Str("provides", available.String()).Msg("Pipeline ready")
	return &Pipeline{stages: ordered, input: input.Clone(), available: available, log: pplnLogger}, nil
}

// Stages returns the stages in execution order.
func (p *Pipeline) Stages() []Annotator {
	return append([]Annotator(nil), p.stages...)
}

// Requires is the set of annotations the pipeline expects on its input documents.
func (p *Pipeline) Requires() Set {
	return p.input.Clone()
}

// Provides is everything present on a document once the pipeline ran.
func (p *Pipeline) Provides() Set {
	return p.available.Clone()
}

// Annotate runs the stages in order. ctx is checked between stages, and within the
// stages able to stop early.
func (p *Pipeline) Annotate(ctx context.Context, doc *types.Document) error {
	if doc == nil {
		return ErrNoSentences
	}
	docLog := p.log.With().Str("tid", doc.Tid).Logger()
	for _, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			return err
		}

		var err error
		if cs, ok := stage.(ContextAnnotator); ok {
			err = cs.AnnotateContext(ctx, doc)
		} else {
			err = stage.Annotate(doc)
		}
		if err != nil {
			docLog.Error().Caller().Err(err).Str("stage", fmt.Sprintf("%T", stage)).Msg("Stage failed")
			return err
		}
	}
	return nil
}
