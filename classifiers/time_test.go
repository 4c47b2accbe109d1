package classifiers

import (
	"testing"

	"github.com/stretchr/testify/require"
	"text2phenotype.com/ner/ner"
	"text2phenotype.com/ner/types"
)

func TestTimeClassifier(t *testing.T) {
	c := NewTimeClassifier("dates")
	require.True(t, c.UsesTime())

	cases := []struct {
		name       string
		words      []string
		tags       []string
		normalized string
	}{
		{"iso", []string{"on", "2024-03-15"}, []string{"O", "DATE"}, "2024-03-15"},
		{"slash", []string{"on", "03/15/2024"}, []string{"O", "DATE"}, "2024-03-15"},
		{"month day year", []string{"March", "15", ",", "2024"}, []string{"DATE", "DATE", "DATE", "DATE"}, "2024-03-15"},
		{"day month year", []string{"15", "March", "2024"}, []string{"DATE", "DATE", "DATE"}, "2024-03-15"},
		{"month year", []string{"in", "March", "2024"}, []string{"O", "DATE", "DATE"}, "2024-03"},
		{"month day", []string{"on", "Mar", "5"}, []string{"O", "DATE", "DATE"}, "XXXX-03-05"},
		{"clock", []string{"at", "10:30"}, []string{"O", "TIME"}, "T10:30"},
		{"clock pm", []string{"at", "10:30", "pm"}, []string{"O", "TIME", "TIME"}, "T22:30"},
		{"clock midnight", []string{"12:05", "am"}, []string{"TIME", "TIME"}, "T00:05"},
		{"duration days", []string{"for", "3", "days"}, []string{"O", "DURATION", "DURATION"}, "P3D"},
		{"duration words", []string{"two", "weeks"}, []string{"DURATION", "DURATION"}, "P2W"},
		{"duration hours", []string{"4", "hours"}, []string{"DURATION", "DURATION"}, "PT4H"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := classify(c, tc.words...)
			require.Equal(t, tc.tags, outputTags(out))
			for _, o := range out {
				if o.IsBackground() {
					continue
				}
				require.Equal(t, tc.normalized, normalized(o))
				require.Equal(t, o.Tag, o.Fields[FieldTimexType])
				require.Equal(t, tc.normalized, o.Fields[FieldTimexValue])
			}
		})
	}
}

func TestTimeClassifierRelativeDates(t *testing.T) {
	c := NewTimeClassifier("dates")
	doc := types.NewDocument([]string{"seen", "yesterday", "and", "today"})
	sent := doc.Sentences[0]

	// no reference date: still a date, without a value
	out := c.Classify(sent.Tokens, ner.Context{Document: doc, Sentence: sent})
	require.Equal(t, []string{"O", "DATE", "O", "DATE"}, outputTags(out))
	require.Nil(t, out[1].Normalized)

	doc.DocDate = "2024-03-01"
	out = c.Classify(sent.Tokens, ner.Context{Document: doc, Sentence: sent})
	require.Equal(t, "2024-02-29", normalized(out[1]))
	require.Equal(t, "2024-03-01", normalized(out[3]))
}

func TestTimeClassifierInvalidDates(t *testing.T) {
	c := NewTimeClassifier("dates")
	out := classify(c, "13/45/2024")
	require.Equal(t, []string{"DATE"}, outputTags(out))
	require.Nil(t, out[0].Normalized)

	// the modal verb is not the month
	doc := types.NewDocument([]string{"you", "may", "2"})
	md := "MD"
	doc.Sentences[0].Tokens[1].Tag = &md
	out = c.Classify(doc.Sentences[0].Tokens, ner.Context{Document: doc, Sentence: doc.Sentences[0]})
	require.Equal(t, []string{"O", "O", "O"}, outputTags(out))
}
