package ner

import (
	"fmt"
	"runtime/debug"
	"sort"
	"strings"
	"sync"

	"text2phenotype.com/ner/types"
	"text2phenotype.com/ner/utils"
)

// Combiner runs an ordered cascade of classifiers and merges their outputs.
// It is immutable after New and safe for concurrent use.
type Combiner struct {
	classifiers    []Classifier
	parallel       bool
	usesTime       bool
	appliesNumeric bool
	fields         []string
	fingerprint    uint64
}

type Option func(*Combiner)

// WithParallel runs the classifiers of a sentence concurrently. The merge still follows
// the declared order.
func WithParallel(parallel bool) Option {
	return func(c *Combiner) {
		c.parallel = parallel
	}
}

// New builds a combiner, classifiers are listed from the highest priority to the lowest.
func New(classifiers []Classifier, opts ...Option) *Combiner {
	c := &Combiner{classifiers: append([]Classifier(nil), classifiers...)}
	for _, opt := range opts {
		opt(c)
	}

	fieldSet := make(map[string]bool)
	identities := make([]string, 0, len(c.classifiers))
	for _, cl := range c.classifiers {
		if tn, ok := cl.(TimeNormalizer); ok && tn.UsesTime() {
			c.usesTime = true
		}
		if nc, ok := cl.(NumericClassifier); ok && nc.AppliesNumeric() {
			c.appliesNumeric = true
		}
		if fp, ok := cl.(FieldProducer); ok {
			for _, f := range fp.Fields() {
				fieldSet[f] = true
			}
		}
		if fp, ok := cl.(Fingerprinter); ok {
			identities = append(identities, fp.Identity())
		} else {
			identities = append(identities, cl.Name())
		}
	}
	for f := range fieldSet {
		c.fields = append(c.fields, f)
	}
	sort.Strings(c.fields)
	c.fingerprint = utils.HashStrings(identities...)
	return c
}

func (c *Combiner) UsesTime() bool {
	return c.usesTime
}

func (c *Combiner) AppliesNumeric() bool {
	return c.appliesNumeric
}

// Fields lists the auxiliary field names the classifiers declare. It is informational,
// write-back copies whatever fields the merged output carries.
func (c *Combiner) Fields() []string {
	return append([]string(nil), c.fields...)
}

func (c *Combiner) Names() []string {
	names := make([]string, len(c.classifiers))
	for i, cl := range c.classifiers {
		names[i] = cl.Name()
	}
	return names
}

func (c *Combiner) String() string {
	return "[" + strings.Join(c.Names(), ", ") + "]"
}

// Fingerprint identifies the cascade: same classifiers with the same models in the same order.
func (c *Combiner) Fingerprint() uint64 {
	return c.fingerprint
}

// Classify tags the tokens of one sentence. doc and sent give the classifiers document
// level context, either may be nil. The result has one OutputToken per input token and
// every tag is set, Background when no classifier fired.
func (c *Combiner) Classify(tokens []*types.Token, doc *types.Document, sent *types.Sentence) []OutputToken {
	ctx := Context{Document: doc, Sentence: sent}
	outputs := make([][]OutputToken, len(c.classifiers))

	if c.parallel && len(c.classifiers) > 1 {
		// a panic in a classifier is raised again on the calling goroutine
		panics := make([]*classifierPanic, len(c.classifiers))
		var wg sync.WaitGroup
		for i, cl := range c.classifiers {
			wg.Add(1)
			go func(i int, cl Classifier) {
				defer wg.Done()
				defer func() {
					if rv := recover(); rv != nil {
						panics[i] = &classifierPanic{classifier: cl.Name(), value: rv, stack: debug.Stack()}
					}
				}()
				outputs[i] = cl.Classify(tokens, ctx)
			}(i, cl)
		}
		wg.Wait()
		for _, p := range panics {
			if p != nil {
				panic(p)
			}
		}
	} else {
		for i, cl := range c.classifiers {
			outputs[i] = cl.Classify(tokens, ctx)
		}
	}

	return Merge(len(tokens), outputs)
}

// classifierPanic carries a panic recovered on a classifier goroutine with its stack.
type classifierPanic struct {
	classifier string
	value      interface{}
	stack      []byte
}

func (p *classifierPanic) Error() string {
	return fmt.Sprintf("classifier %s panicked: %v\n%s", p.classifier, p.value, p.stack)
}
