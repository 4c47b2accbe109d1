package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"text2phenotype.com/ner/types"
)

type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) record(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, name)
}

type stubStage struct {
	name     string
	requires Set
	provides Set
	rec      *recorder
	err      error
}

func (s *stubStage) Annotate(doc *types.Document) error {
	if s.rec != nil {
		s.rec.record(s.name)
	}
	return s.err
}

func (s *stubStage) Requires() Set { return s.requires }
func (s *stubStage) Provides() Set { return s.provides }

func stageNames(stages []Annotator) []string {
	names := make([]string, len(stages))
	for i, s := range stages {
		names[i] = s.(*stubStage).name
	}
	return names
}

func TestPipelineOrdersStages(t *testing.T) {
	nerStage := &stubStage{name: "ner", requires: TokenizeSsplitPosLemma(), provides: NewSet(NER)}
	posStage := &stubStage{name: "pos", requires: TokenizeAndSsplit(), provides: NewSet(POSTag)}
	lemmaStage := &stubStage{name: "lemma", requires: NewSet(POSTag), provides: NewSet(Lemma)}

	p, err := New(TokenizeAndSsplit(), nerStage, lemmaStage, posStage)
	require.NoError(t, err)
	require.Equal(t, []string{"pos", "lemma", "ner"}, stageNames(p.Stages()))
	require.True(t, p.Provides().ContainsAll(NewSet(Tokenize, SentenceSplit, POSTag, Lemma, NER)))
	require.Equal(t, TokenizeAndSsplit(), p.Requires())
	// the input set is not shared with callers
	p.Requires()[POSTag] = struct{}{}
	require.Equal(t, TokenizeAndSsplit(), p.Requires())

	// independent stages keep the declared order
	a := &stubStage{name: "a", requires: NewSet(Tokenize)}
	b := &stubStage{name: "b", requires: NewSet(Tokenize)}
	p, err = New(NewSet(Tokenize), b, a)
	require.NoError(t, err)
	require.Equal(t, []string{"b", "a"}, stageNames(p.Stages()))
}

func TestPipelineRejectsUnsatisfiedRequirements(t *testing.T) {
	nerStage := &stubStage{name: "ner", requires: TokenizeSsplitPosLemma(), provides: NewSet(NER)}
	_, err := New(TokenizeAndSsplit(), nerStage)
	require.True(t, errors.Is(err, ErrUnsatisfiedRequirement))
	require.Contains(t, err.Error(), "pos")

	// a stage depending on itself never runs
	loop := &stubStage{name: "loop", requires: NewSet(NER), provides: NewSet(NER)}
	_, err = New(TokenizeAndSsplit(), loop)
	require.True(t, errors.Is(err, ErrUnsatisfiedRequirement))
}

func TestPipelineAnnotate(t *testing.T) {
	rec := &recorder{}
	first := &stubStage{name: "first", requires: NewSet(Tokenize), provides: NewSet(POSTag), rec: rec}
	second := &stubStage{name: "second", requires: NewSet(POSTag), provides: NewSet(Lemma), rec: rec}
	p, err := New(NewSet(Tokenize), second, first)
	require.NoError(t, err)

	require.NoError(t, p.Annotate(context.Background(), types.NewDocument([]string{"x"})))
	require.Equal(t, []string{"first", "second"}, rec.calls)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.True(t, errors.Is(p.Annotate(ctx, types.NewDocument([]string{"x"})), context.Canceled))
	require.Len(t, rec.calls, 2)

	require.True(t, errors.Is(p.Annotate(context.Background(), nil), ErrNoSentences))
}

func TestPipelineStopsOnStageError(t *testing.T) {
	rec := &recorder{}
	boom := errors.New("boom")
	failing := &stubStage{name: "failing", requires: NewSet(), provides: NewSet(POSTag), rec: rec, err: boom}
	after := &stubStage{name: "after", requires: NewSet(POSTag), rec: rec}
	p, err := New(NewSet(), failing, after)
	require.NoError(t, err)
	require.True(t, errors.Is(p.Annotate(context.Background(), types.NewDocument([]string{"x"})), boom))
	require.Equal(t, []string{"failing"}, rec.calls)
}

func TestPipelineWithNERAnnotator(t *testing.T) {
	p, err := New(TokenizeAndSsplit(), NewNERAnnotator(namesCombiner()))
	require.NoError(t, err)

	doc := types.NewDocument([]string{"John", "lives", "in", "Paris", "."})
	require.NoError(t, p.Annotate(context.Background(), doc))
	require.Equal(t, "LOCATION", doc.Sentences[0].Tokens[3].NamedEntity())

	// numbers need POS tags and lemmas nobody provides
	_, err = New(TokenizeAndSsplit(), NewNERAnnotator(fullCombiner()))
	require.True(t, errors.Is(err, ErrUnsatisfiedRequirement))
}

func TestPipelineStream(t *testing.T) {
	p, err := New(TokenizeAndSsplit(), NewNERAnnotator(namesCombiner()))
	require.NoError(t, err)

	in := make(chan Request)
	go func() {
		defer close(in)
		in <- Request{Tid: "a", Document: types.NewDocument([]string{"John"})}
		in <- Request{Tid: "b", Document: types.NewDocument([]string{"Paris"})}
		in <- Request{Tid: "c", Document: &types.Document{}}
	}()

	results := make(map[string]Result)
	for res := range p.Stream(context.Background(), in, 2) {
		results[res.Tid] = res
	}
	require.Len(t, results, 3)
	require.NoError(t, results["a"].Err)
	require.Equal(t, "a", results["a"].Document.Tid)
	require.Equal(t, "PERSON", results["a"].Document.Sentences[0].Tokens[0].NamedEntity())
	require.Equal(t, "LOCATION", results["b"].Document.Sentences[0].Tokens[0].NamedEntity())
	require.True(t, errors.Is(results["c"].Err, ErrNoSentences))
}
