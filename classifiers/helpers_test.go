package classifiers

import (
	"io/ioutil"
	"path"
	"testing"

	"github.com/stretchr/testify/require"
	"text2phenotype.com/ner/ner"
	"text2phenotype.com/ner/types"
)

func classify(c ner.Classifier, words ...string) []ner.OutputToken {
	doc := types.NewDocument(words)
	sent := doc.Sentences[0]
	return c.Classify(sent.Tokens, ner.Context{Document: doc, Sentence: sent})
}

func outputTags(out []ner.OutputToken) []string {
	tags := make([]string, len(out))
	for i, o := range out {
		tags[i] = o.Tag
	}
	return tags
}

func normalized(o ner.OutputToken) string {
	if o.Normalized == nil {
		return ""
	}
	return *o.Normalized
}

func writeFile(t *testing.T, dir string, name string, content string) string {
	file := path.Join(dir, name)
	require.NoError(t, ioutil.WriteFile(file, []byte(content), 0o644))
	return file
}
