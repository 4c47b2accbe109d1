package types

import (
	"encoding/json"
	"time"
)

const DocDateLayout = "2006-01-02"

type Document struct {
	Tid       string      `json:"tid,omitempty"`
	Text      string      `json:"text,omitempty"`
	DocDate   string      `json:"doc_date,omitempty"`
	Sentences []*Sentence `json:"sentences"`
}

// NewDocument builds a document from already tokenized sentences, one string slice per sentence.
// Offsets assume the words are separated by a single space.
func NewDocument(sentences ...[]string) *Document {
	doc := &Document{Sentences: make([]*Sentence, 0, len(sentences))}
	var offset int32
	for _, words := range sentences {
		sent := &Sentence{Tokens: make([]*Token, 0, len(words))}
		sent.Begin = offset
		for _, word := range words {
			token := NewToken(word, offset)
			sent.Tokens = append(sent.Tokens, token)
			offset = token.End + 1
		}
		sent.End = offset - 1
		if sent.End < sent.Begin {
			sent.End = sent.Begin
		}
		doc.Sentences = append(doc.Sentences, sent)
	}
	return doc
}

// Index returns the position of the sentence in the document, -1 if it does not belong to it.
func (doc *Document) Index(sent *Sentence) int {
	for i, s := range doc.Sentences {
		if s == sent {
			return i
		}
	}
	return -1
}

// ReferenceDate parses DocDate, ok is false when the document has no usable date.
func (doc *Document) ReferenceDate() (time.Time, bool) {
	if doc == nil || len(doc.DocDate) == 0 {
		return time.Time{}, false
	}
	t, err := time.Parse(DocDateLayout, doc.DocDate)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func ParseDocument(buf []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(buf, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}
