package types

import (
	"fmt"
	"strings"
	"unicode"
)

// Background is the neutral named entity tag: the token is not part of any entity.
const Background = "O"

// Token is a single word of a sentence. Tag and Lemma are filled by upstream stages,
// NER and NormalizedNER by the NER stage. Fields carries auxiliary values attached by
// individual classifiers (numeric type, timex value...).
type Token struct {
	Span
	Tag           *string                `json:"pos,omitempty"`
	Lemma         *string                `json:"lemma,omitempty"`
	NER           *string                `json:"ner,omitempty"`
	NormalizedNER *string                `json:"normalized_ner,omitempty"`
	Fields        map[string]interface{} `json:"fields,omitempty"`
}

func NewToken(text string, begin int32) *Token {
	return &Token{
		Span: Span{
			Begin: begin,
			End:   begin + int32(len([]rune(text))),
			Text:  text,
		},
	}
}

// NamedEntity returns the NER tag or an empty string when the token was not tagged yet.
func (token *Token) NamedEntity() string {
	if token.NER == nil {
		return ""
	}
	return *token.NER
}

func (token *Token) POS() string {
	if token.Tag == nil {
		return ""
	}
	return *token.Tag
}

// LemmaOrLower returns the lemma when the token has one and the lower-cased text otherwise.
func (token *Token) LemmaOrLower() string {
	if token.Lemma != nil && len(*token.Lemma) > 0 {
		return strings.ToLower(*token.Lemma)
	}
	return strings.ToLower(token.Text)
}

func (token *Token) SetNER(tag string) {
	token.NER = &tag
}

func (token *Token) SetNormalizedNER(value string) {
	token.NormalizedNER = &value
}

// SetField attaches an auxiliary value without touching the other fields of the token.
func (token *Token) SetField(key string, value interface{}) {
	if token.Fields == nil {
		token.Fields = make(map[string]interface{})
	}
	token.Fields[key] = value
}

func (token *Token) Field(key string) (interface{}, bool) {
	if token.Fields == nil {
		return nil, false
	}
	v, ok := token.Fields[key]
	return v, ok
}

// ShortString renders word, tag and normalized value, e.g. "Paris/LOCATION".
func (token *Token) ShortString() string {
	var sb strings.Builder
	sb.WriteString(token.Text)
	if token.NER != nil {
		sb.WriteRune('/')
		sb.WriteString(*token.NER)
	}
	if token.NormalizedNER != nil {
		sb.WriteString(fmt.Sprintf("(%s)", *token.NormalizedNER))
	}
	return sb.String()
}

func (token Token) Clone() Token {
	clone := Token{
		Span:          token.Span,
		Tag:           token.Tag,
		Lemma:         token.Lemma,
		NER:           token.NER,
		NormalizedNER: token.NormalizedNER,
	}
	if token.Fields != nil {
		clone.Fields = make(map[string]interface{}, len(token.Fields))
		for k, v := range token.Fields {
			clone.Fields[k] = v
		}
	}
	return clone
}

func GetShape(txt string) string {
	var sb strings.Builder
	for _, r := range txt {
		switch {
		case unicode.IsDigit(r):
			sb.WriteRune('d')
		case unicode.IsUpper(r):
			sb.WriteRune('X')
		case unicode.IsLetter(r):
			sb.WriteRune('x')
		default:
			sb.WriteRune(r)
		}
	}

	return sb.String()
}

// GetShortShape collapses repeated shape characters: "McDonald" -> "XxXx".
func GetShortShape(txt string) string {
	var sb strings.Builder
	var last rune
	for i, r := range GetShape(txt) {
		if i > 0 && r == last {
			continue
		}
		sb.WriteRune(r)
		last = r
	}
	return sb.String()
}
