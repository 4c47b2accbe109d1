package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"text2phenotype.com/ner/logger"
	"text2phenotype.com/ner/ner"
	"text2phenotype.com/ner/types"
)

// NERAnnotator tags every token of a document with the decision of a classifier cascade.
// Besides the combiner it holds no state, one annotator serves any number of documents
// concurrently.
type NERAnnotator struct {
	combiner    *ner.Combiner
	verbose     bool
	diagnostics logger.Diagnostics
	requires    Set
	log         zerolog.Logger
}

type NEROption func(*NERAnnotator)

// WithVerbose dumps the tags of every sentence before and after write-back to the
// diagnostics sink.
func WithVerbose(verbose bool) NEROption {
	return func(a *NERAnnotator) {
		a.verbose = verbose
	}
}

func WithDiagnostics(d logger.Diagnostics) NEROption {
	return func(a *NERAnnotator) {
		a.diagnostics = d
	}
}

func NewNERAnnotator(combiner *ner.Combiner, opts ...NEROption) *NERAnnotator {
	a := &NERAnnotator{
		combiner:    combiner,
		diagnostics: logger.NoDiagnostics(),
		log:         logger.NewLogger("NER annotator"),
	}
	for _, opt := range opts {
		opt(a)
	}

	// numeric and time classifiers look at POS tags and lemmas
	if combiner.UsesTime() || combiner.AppliesNumeric() {
		a.requires = TokenizeSsplitPosLemma()
	} else {
		a.requires = TokenizeAndSsplit()
	}
	return a
}

func (a *NERAnnotator) Requires() Set {
	return a.requires.Clone()
}

func (a *NERAnnotator) Provides() Set {
	return NewSet(NER)
}

func (a *NERAnnotator) Annotate(doc *types.Document) error {
	return a.AnnotateContext(context.Background(), doc)
}

// AnnotateContext annotates the sentences in document order. When ctx is done the
// remaining sentences are left untouched and ctx.Err() is returned.
func (a *NERAnnotator) AnnotateContext(ctx context.Context, doc *types.Document) error {
	if doc == nil || doc.Sentences == nil {
		return ErrNoSentences
	}
	docLog := a.log.With().Str("tid", doc.Tid).Logger()

	verbose := a.verbose && a.diagnostics.Enabled()
	done := func() {}
	if verbose {
		done = a.diagnostics.Start(fmt.Sprintf("Adding NER Combiner annotation %s ...", a.combiner))
		a.diagnostics.Print("NERCombinerAnnotator declared fields", map[string]interface{}{
			"fields": a.combiner.Fields(),
		})
	}

	for i, sent := range doc.Sentences {
		if err := ctx.Err(); err != nil {
			docLog.Warn().Err(err).Int("sentence", i).Msg("NER annotation interrupted")
			return err
		}
		if _, err := a.ProcessSentence(doc, sent); err != nil {
			docLog.Error().Err(err).Int("sentence", i).Msg("NER annotation failed")
			return fmt.Errorf("sentence %d: %w", i, err)
		}
	}
	done()

	docLog.Debug().Int("sentences", len(doc.Sentences)).Msg("NER annotation finished")
	return nil
}

// ProcessSentence runs the combiner on the sentence and writes the tag, the normalized
// value and the auxiliary fields back into its tokens. It returns the same sentence.
func (a *NERAnnotator) ProcessSentence(doc *types.Document, sent *types.Sentence) (*types.Sentence, error) {
	if sent == nil || sent.Tokens == nil {
		return sent, ErrNoTokens
	}
	for i, token := range sent.Tokens {
		if token == nil {
			return sent, fmt.Errorf("%w: token %d is null", ErrNoTokens, i)
		}
	}

	verbose := a.verbose && a.diagnostics.Enabled()
	out := a.combiner.Classify(sent.Tokens, doc, sent)
	if verbose {
		a.diagnostics.Print("NERCombinerAnnotator direct output", map[string]interface{}{
			"tokens": dumpOutput(sent.Tokens, out),
		})
	}

	for i, token := range sent.Tokens {
		o := out[i]
		token.SetNER(o.Tag)
		if o.Normalized != nil {
			token.SetNormalizedNER(*o.Normalized)
		}
		for key, value := range o.Fields {
			token.SetField(key, value)
		}
	}

	if verbose {
		a.diagnostics.Print("NERCombinerAnnotator output", map[string]interface{}{
			"tokens": dumpTokens(sent.Tokens),
		})
	}
	return sent, nil
}

func dumpOutput(tokens []*types.Token, out []ner.OutputToken) string {
	parts := make([]string, len(tokens))
	for i, token := range tokens {
		parts[i] = token.Text + "/" + out[i].Tag
		if out[i].Normalized != nil {
			parts[i] += "(" + *out[i].Normalized + ")"
		}
	}
	return strings.Join(parts, " ")
}

func dumpTokens(tokens []*types.Token) string {
	parts := make([]string, len(tokens))
	for i, token := range tokens {
		parts[i] = token.ShortString()
	}
	return strings.Join(parts, " ")
}
