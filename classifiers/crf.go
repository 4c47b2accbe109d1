package classifiers

import (
	"text2phenotype.com/ner/ml"
	"text2phenotype.com/ner/ner"
	"text2phenotype.com/ner/types"
)

// CRFClassifier is the statistical sequence tagger of the cascade.
type CRFClassifier struct {
	name      string
	modelPath string
	model     *ml.CRF
	// consistent makes a token untagged by the model reuse the tag the same word got
	// earlier in the document.
	consistent bool
}

func NewCRFClassifier(name string, modelPath string, consistent bool) (*CRFClassifier, error) {
	model, err := ml.LoadCRFFromFile(modelPath)
	if err != nil {
		return nil, err
	}
	return &CRFClassifier{
		name:       name,
		modelPath:  modelPath,
		model:      model,
		consistent: consistent,
	}, nil
}

func (c *CRFClassifier) Name() string {
	return c.name
}

func (c *CRFClassifier) Identity() string {
	return types.ClassifierCRF + "|" + c.name + "|" + c.modelPath
}

func (c *CRFClassifier) Classify(tokens []*types.Token, ctx ner.Context) []ner.OutputToken {
	out := ner.BackgroundTokens(len(tokens))
	if len(tokens) == 0 {
		return out
	}

	predicted := c.model.Predict(ml.TokenFeatures(tokens))
	for i, tag := range predicted {
		if len(tag) > 0 {
			out[i].Tag = tag
		}
	}

	if !c.consistent {
		return out
	}
	seen := documentTags(ctx.PreviousSentences())
	for i := range out {
		if !out[i].IsBackground() {
			continue
		}
		if tag, ok := seen[tokens[i].Text]; ok {
			out[i].Tag = tag
		}
	}
	return out
}

// documentTags maps every word tagged in the sentences to its first tag.
func documentTags(sentences []*types.Sentence) map[string]string {
	seen := make(map[string]string)
	for _, sent := range sentences {
		for _, token := range sent.Tokens {
			tag := token.NamedEntity()
			if len(tag) == 0 || tag == ner.Background {
				continue
			}
			if _, ok := seen[token.Text]; !ok {
				seen[token.Text] = tag
			}
		}
	}
	return seen
}
