package classifiers

import (
	"fmt"
	"strings"

	"text2phenotype.com/ner/ner"
	"text2phenotype.com/ner/types"
	"text2phenotype.com/ner/utils"
)

// GazetteerClassifier tags the longest known phrase starting at each token.
type GazetteerClassifier struct {
	name          string
	path          string
	caseSensitive bool
	tree          *utils.TokenPrefixTree
}

// NewGazetteer builds the classifier from phrase -> tag entries, phrases are split on spaces.
func NewGazetteer(name string, entries map[string]string, caseSensitive bool) *GazetteerClassifier {
	g := &GazetteerClassifier{
		name:          name,
		caseSensitive: caseSensitive,
		tree:          utils.NewTokenPrefixTree(),
	}
	for phrase, tag := range entries {
		g.add(phrase, tag)
	}
	return g
}

// LoadGazetteer reads a "phrase|TAG" file.
func LoadGazetteer(name string, path string, caseSensitive bool) (*GazetteerClassifier, error) {
	rows, err := utils.ReadBSV(path, utils.BSVOptions{Columns: 2})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: gazetteer is empty", path)
	}
	g := NewGazetteer(name, nil, caseSensitive)
	g.path = path
	for _, row := range rows {
		g.add(row[0], row[1])
	}
	return g, nil
}

func (g *GazetteerClassifier) add(phrase string, tag string) {
	if !g.caseSensitive {
		phrase = strings.ToLower(phrase)
	}
	g.tree.Add(strings.Fields(phrase), strings.ToUpper(tag))
}

func (g *GazetteerClassifier) Name() string {
	return g.name
}

func (g *GazetteerClassifier) Identity() string {
	return types.ClassifierGazetteer + "|" + g.name + "|" + g.path
}

func (g *GazetteerClassifier) Classify(tokens []*types.Token, ctx ner.Context) []ner.OutputToken {
	out := ner.BackgroundTokens(len(tokens))
	words := make([]string, len(tokens))
	for i, token := range tokens {
		words[i] = token.Text
		if !g.caseSensitive {
			words[i] = strings.ToLower(token.Text)
		}
	}

	for i := 0; i < len(words); {
		n, tag := g.tree.LongestMatch(words, i)
		if n == 0 {
			i++
			continue
		}
		for j := i; j < i+n; j++ {
			out[j].Tag = tag
		}
		i += n
	}
	return out
}
