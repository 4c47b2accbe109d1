package classifiers

import (
	"testing"

	"github.com/stretchr/testify/require"
	"text2phenotype.com/ner/ner"
	"text2phenotype.com/ner/types"
)

const testCRFModel = `{
  "features": {"w_John": 0, "w_Paris": 1, "cap": 2, "pw_in": 3},
  "states": ["O", "PERSON", "LOCATION"],
  "transitions": [[0, 0, 0], [0, 0, 0], [0, 0, 0]],
  "weights": [[0, 5, 0], [0, 0, 5], [-1, 0.5, 0.5], [0, 0, 1]]
}`

func TestCRFClassifier(t *testing.T) {
	model := writeFile(t, t.TempDir(), "conll.json", testCRFModel)
	c, err := NewCRFClassifier("conll", model, false)
	require.NoError(t, err)
	require.Equal(t, "conll", c.Name())

	out := classify(c, "John", "lives", "in", "Paris", ".")
	require.Equal(t, []string{"PERSON", "O", "O", "LOCATION", "O"}, outputTags(out))
	for _, o := range out {
		require.Nil(t, o.Normalized)
	}
	require.Empty(t, classify(c))
}

func TestCRFClassifierConsistency(t *testing.T) {
	model := writeFile(t, t.TempDir(), "conll.json", testCRFModel)
	doc := types.NewDocument([]string{"acme", "hired", "me"}, []string{"acme", "rocks"})
	doc.Sentences[0].Tokens[0].SetNER("ORGANIZATION")
	second := doc.Sentences[1]
	ctx := ner.Context{Document: doc, Sentence: second}

	plain, err := NewCRFClassifier("conll", model, false)
	require.NoError(t, err)
	require.Equal(t, []string{"O", "O"}, outputTags(plain.Classify(second.Tokens, ctx)))

	consistent, err := NewCRFClassifier("conll", model, true)
	require.NoError(t, err)
	require.Equal(t, []string{"ORGANIZATION", "O"}, outputTags(consistent.Classify(second.Tokens, ctx)))

	// a sentence on its own has no earlier sentences to borrow from
	require.Equal(t, []string{"O", "O"}, outputTags(consistent.Classify(second.Tokens, ner.Context{Sentence: second})))
}

func TestCRFClassifierMissingModel(t *testing.T) {
	_, err := NewCRFClassifier("conll", "/does/not/exist.json", false)
	require.Error(t, err)
}
