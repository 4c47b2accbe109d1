// Package ner combines several named entity classifiers into one ordered cascade.
package ner

import (
	"text2phenotype.com/ner/types"
)

// Background is the neutral tag a classifier emits when it defers on a token.
const Background = types.Background

// OutputToken is what a classifier produces for one input token. It only lives for
// the duration of one Combiner.Classify call.
type OutputToken struct {
	Tag        string
	Normalized *string
	Fields     map[string]interface{}
}

func (out OutputToken) IsBackground() bool {
	return len(out.Tag) == 0 || out.Tag == Background
}

func (out *OutputToken) SetField(key string, value interface{}) {
	if out.Fields == nil {
		out.Fields = make(map[string]interface{})
	}
	out.Fields[key] = value
}

// BackgroundTokens returns n deferring output tokens.
func BackgroundTokens(n int) []OutputToken {
	out := make([]OutputToken, n)
	for i := range out {
		out[i].Tag = Background
	}
	return out
}

// Context gives a classifier access to document level information: the document the
// sentence belongs to (earlier sentences already carry their tags) and the sentence itself.
// Document may be nil when a sentence is classified on its own.
type Context struct {
	Document *types.Document
	Sentence *types.Sentence
}

// PreviousSentences returns the sentences of the document preceding the current one.
func (ctx Context) PreviousSentences() []*types.Sentence {
	if ctx.Document == nil || ctx.Sentence == nil {
		return nil
	}
	idx := ctx.Document.Index(ctx.Sentence)
	if idx <= 0 {
		return nil
	}
	return ctx.Document.Sentences[:idx]
}

// Classifier tags one sentence. It returns exactly one OutputToken per input token, in
// order, must not modify the tokens and must not fail on ordinary input: a token
// without an entity gets the Background tag. Configuration problems are reported when
// the classifier is constructed.
type Classifier interface {
	Name() string
	Classify(tokens []*types.Token, ctx Context) []OutputToken
}

// TimeNormalizer is implemented by classifiers normalizing temporal expressions.
type TimeNormalizer interface {
	UsesTime() bool
}

// NumericClassifier is implemented by classifiers tagging numeric sequences.
type NumericClassifier interface {
	AppliesNumeric() bool
}

// FieldProducer is implemented by classifiers attaching auxiliary fields to their output.
type FieldProducer interface {
	Fields() []string
}

// Fingerprinter lets a classifier give a stable identity including its model location.
type Fingerprinter interface {
	Identity() string
}
