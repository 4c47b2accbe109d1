package ml

import (
	"strings"
	"unicode"

	"text2phenotype.com/ner/types"
)

type Feature interface {
	String() string
}

type StrFeature struct {
	Name  string
	Value string
}

func (f *StrFeature) String() string {
	parts := []string{f.Name, f.Value}
	return strings.Join(parts, "_")
}

type BoolFeature struct {
	Name  string
	Value bool
}

func (f *BoolFeature) String() string {
	return f.Name
}

const (
	FeatWord       = "w"
	FeatLower      = "lw"
	FeatShape      = "shape"
	FeatPrefix     = "pre3"
	FeatSuffix     = "suf3"
	FeatPrevWord   = "pw"
	FeatNextWord   = "nw"
	FeatPOS        = "pos"
	FeatCapital    = "cap"
	FeatAllCapital = "allcap"
	FeatHasDigit   = "digit"
	FeatSentStart  = "bos"

	boundaryWord = "<s>"
)

// TokenFeatures builds the observation features of every token of a sentence.
func TokenFeatures(tokens []*types.Token) [][]Feature {
	result := make([][]Feature, len(tokens))
	for i, token := range tokens {
		text := token.Text
		lower := strings.ToLower(text)
		runes := []rune(lower)

		feats := []Feature{
			&StrFeature{Name: FeatWord, Value: text},
			&StrFeature{Name: FeatLower, Value: lower},
			&StrFeature{Name: FeatShape, Value: types.GetShortShape(text)},
		}
		if len(runes) > 3 {
			feats = append(feats,
				&StrFeature{Name: FeatPrefix, Value: string(runes[:3])},
				&StrFeature{Name: FeatSuffix, Value: string(runes[len(runes)-3:])},
			)
		}

		prev, next := boundaryWord, boundaryWord
		if i > 0 {
			prev = strings.ToLower(tokens[i-1].Text)
		}
		if i+1 < len(tokens) {
			next = strings.ToLower(tokens[i+1].Text)
		}
		feats = append(feats,
			&StrFeature{Name: FeatPrevWord, Value: prev},
			&StrFeature{Name: FeatNextWord, Value: next},
		)

		if pos := token.POS(); len(pos) > 0 {
			feats = append(feats, &StrFeature{Name: FeatPOS, Value: pos})
		}
		if i == 0 {
			feats = append(feats, &BoolFeature{Name: FeatSentStart, Value: true})
		}

		upper, letters, digit := 0, 0, false
		for _, r := range text {
			if unicode.IsLetter(r) {
				letters++
				if unicode.IsUpper(r) {
					upper++
				}
			}
			if unicode.IsDigit(r) {
				digit = true
			}
		}
		if letters > 0 && unicode.IsUpper([]rune(text)[0]) {
			feats = append(feats, &BoolFeature{Name: FeatCapital, Value: true})
		}
		if letters > 1 && upper == letters {
			feats = append(feats, &BoolFeature{Name: FeatAllCapital, Value: true})
		}
		if digit {
			feats = append(feats, &BoolFeature{Name: FeatHasDigit, Value: true})
		}
		result[i] = feats
	}
	return result
}
