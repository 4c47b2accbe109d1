package ner

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"text2phenotype.com/ner/types"
)

// fixedClassifier returns the same output for any sentence.
type fixedClassifier struct {
	name     string
	output   []OutputToken
	delay    time.Duration
	calls    int32
	usesTime bool
	numeric  bool
	fields   []string
}

func (f *fixedClassifier) Name() string { return f.name }

func (f *fixedClassifier) Classify(tokens []*types.Token, ctx Context) []OutputToken {
	atomic.AddInt32(&f.calls, 1)
	time.Sleep(f.delay)
	out := make([]OutputToken, len(f.output))
	copy(out, f.output)
	return out
}

func (f *fixedClassifier) UsesTime() bool       { return f.usesTime }
func (f *fixedClassifier) AppliesNumeric() bool { return f.numeric }
func (f *fixedClassifier) Fields() []string     { return f.fields }

func tags(tags ...string) []OutputToken {
	out := make([]OutputToken, len(tags))
	for i, t := range tags {
		out[i].Tag = t
	}
	return out
}

func str(s string) *string { return &s }

func mergedTags(out []OutputToken) []string {
	result := make([]string, len(out))
	for i, o := range out {
		result[i] = o.Tag
	}
	return result
}

func sentence(words ...string) (*types.Document, *types.Sentence) {
	doc := types.NewDocument(words)
	return doc, doc.Sentences[0]
}

func TestFirstNonBackgroundWins(t *testing.T) {
	a := &fixedClassifier{name: "a", output: tags("PERSON", "O", "O", "LOCATION")}
	b := &fixedClassifier{name: "b", output: tags("ORGANIZATION", "DATE", "O", "MISC")}
	doc, sent := sentence("w1", "w2", "w3", "w4")

	out := New([]Classifier{a, b}).Classify(sent.Tokens, doc, sent)
	require.Equal(t, []string{"PERSON", "DATE", "O", "LOCATION"}, mergedTags(out))

	out = New([]Classifier{b, a}).Classify(sent.Tokens, doc, sent)
	require.Equal(t, []string{"ORGANIZATION", "DATE", "O", "MISC"}, mergedTags(out))
}

func TestEveryTagIsSet(t *testing.T) {
	a := &fixedClassifier{name: "a", output: []OutputToken{{}, {Tag: "O"}}}
	doc, sent := sentence("w1", "w2")
	out := New([]Classifier{a}).Classify(sent.Tokens, doc, sent)
	require.Equal(t, []string{Background, Background}, mergedTags(out))

	out = New(nil).Classify(sent.Tokens, doc, sent)
	require.Equal(t, []string{Background, Background}, mergedTags(out))
}

// The one non-obvious tie-break: the tag comes from the first classifier that fired, the
// normalized value may come from a later one that fired on the same token.
func TestNormalizedValueFromLowerPriorityClassifier(t *testing.T) {
	a := &fixedClassifier{name: "a", output: tags("MONEY", "NUMBER", "PERSON")}
	b := &fixedClassifier{name: "b", output: []OutputToken{
		{Tag: "NUMBER", Normalized: str("12.0")},
		{Tag: "NUMBER", Normalized: str("5.0")},
		{Tag: "O", Normalized: str("ignored")},
	}}
	a.output[1].Normalized = str("7.0")
	doc, sent := sentence("w1", "w2", "w3")

	out := New([]Classifier{a, b}).Classify(sent.Tokens, doc, sent)
	require.Equal(t, []string{"MONEY", "NUMBER", "PERSON"}, mergedTags(out))
	require.Equal(t, "12.0", *out[0].Normalized, "value of the later classifier propagates")
	require.Equal(t, "7.0", *out[1].Normalized, "winner's own value is kept")
	require.Nil(t, out[2].Normalized, "a deferring classifier contributes no value")
}

func TestBackgroundTokenGetsNoNormalizedValue(t *testing.T) {
	a := &fixedClassifier{name: "a", output: []OutputToken{{Tag: "O", Normalized: str("x")}}}
	doc, sent := sentence("w1")
	out := New([]Classifier{a}).Classify(sent.Tokens, doc, sent)
	require.Equal(t, Background, out[0].Tag)
	require.Nil(t, out[0].Normalized)
}

func TestFieldsMergeByPriority(t *testing.T) {
	a := &fixedClassifier{name: "a", output: []OutputToken{{Tag: "NUMBER", Fields: map[string]interface{}{"NumericType": "NUMBER"}}}}
	b := &fixedClassifier{name: "b", output: []OutputToken{{Tag: "MONEY", Fields: map[string]interface{}{"NumericType": "MONEY", "NumericValue": 5.0}}}}
	c := &fixedClassifier{name: "c", output: []OutputToken{{Tag: "O", Fields: map[string]interface{}{"Other": true}}}}
	doc, sent := sentence("5")

	out := New([]Classifier{a, b, c}).Classify(sent.Tokens, doc, sent)
	want := map[string]interface{}{"NumericType": "NUMBER", "NumericValue": 5.0}
	if diff := cmp.Diff(want, out[0].Fields); diff != "" {
		t.Errorf("unexpected fields (-want +got):\n%s", diff)
	}
}

func TestShortOutputCountsAsDeferring(t *testing.T) {
	a := &fixedClassifier{name: "a", output: tags("PERSON")}
	b := &fixedClassifier{name: "b", output: tags("O", "LOCATION")}
	doc, sent := sentence("w1", "w2")
	out := New([]Classifier{a, b}).Classify(sent.Tokens, doc, sent)
	require.Equal(t, []string{"PERSON", "LOCATION"}, mergedTags(out))
}

func TestParallelMergeIsDeterministic(t *testing.T) {
	// the high priority classifier finishes last
	a := &fixedClassifier{name: "a", output: tags("PERSON", "O"), delay: 20 * time.Millisecond}
	b := &fixedClassifier{name: "b", output: tags("LOCATION", "DATE")}
	doc, sent := sentence("w1", "w2")

	sequential := New([]Classifier{a, b}).Classify(sent.Tokens, doc, sent)
	parallel := New([]Classifier{a, b}, WithParallel(true)).Classify(sent.Tokens, doc, sent)
	if diff := cmp.Diff(sequential, parallel); diff != "" {
		t.Errorf("parallel merge differs (-sequential +parallel):\n%s", diff)
	}
	require.Equal(t, []string{"PERSON", "DATE"}, mergedTags(parallel))
	require.Equal(t, int32(2), atomic.LoadInt32(&a.calls))
}

// panickingClassifier fails on any input.
type panickingClassifier struct{}

func (panickingClassifier) Name() string { return "broken" }

func (panickingClassifier) Classify(tokens []*types.Token, ctx Context) []OutputToken {
	panic("index out of range")
}

func TestParallelClassifierPanicReachesCaller(t *testing.T) {
	c := New([]Classifier{
		&fixedClassifier{name: "names", output: tags("PERSON")},
		panickingClassifier{},
	}, WithParallel(true))
	doc, sent := sentence("John")

	var recovered interface{}
	func() {
		defer func() { recovered = recover() }()
		c.Classify(sent.Tokens, doc, sent)
	}()
	require.NotNil(t, recovered)
	err, ok := recovered.(error)
	require.True(t, ok)
	require.Contains(t, err.Error(), "classifier broken panicked: index out of range")
}

func TestCombinerTraits(t *testing.T) {
	plain := &fixedClassifier{name: "rules"}
	numbers := &fixedClassifier{name: "numbers", numeric: true, fields: []string{"NumericValue", "NumericType"}}
	dates := &fixedClassifier{name: "dates", usesTime: true, fields: []string{"TimexType"}}

	c := New([]Classifier{plain})
	require.False(t, c.UsesTime())
	require.False(t, c.AppliesNumeric())
	require.Empty(t, c.Fields())

	c = New([]Classifier{plain, numbers, dates})
	require.True(t, c.UsesTime())
	require.True(t, c.AppliesNumeric())
	require.Equal(t, []string{"NumericType", "NumericValue", "TimexType"}, c.Fields())
	require.Equal(t, []string{"rules", "numbers", "dates"}, c.Names())
	require.Equal(t, "[rules, numbers, dates]", c.String())

	require.Equal(t, c.Fingerprint(), New([]Classifier{plain, numbers, dates}).Fingerprint())
	require.NotEqual(t, c.Fingerprint(), New([]Classifier{dates, numbers, plain}).Fingerprint())
}

func TestContextPreviousSentences(t *testing.T) {
	doc := types.NewDocument([]string{"a"}, []string{"b"}, []string{"c"})
	ctx := Context{Document: doc, Sentence: doc.Sentences[2]}
	require.Len(t, ctx.PreviousSentences(), 2)
	require.Empty(t, Context{Document: doc, Sentence: doc.Sentences[0]}.PreviousSentences())
	require.Empty(t, Context{Sentence: doc.Sentences[1]}.PreviousSentences())
}
