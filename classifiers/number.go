package classifiers

import (
	"regexp"
	"strconv"
	"strings"

	"text2phenotype.com/ner/fsm"
	"text2phenotype.com/ner/ner"
	"text2phenotype.com/ner/types"
)

const (
	TagNumber  = "NUMBER"
	TagOrdinal = "ORDINAL"
	TagMoney   = "MONEY"
	TagPercent = "PERCENT"

	FieldNumericType           = "NumericType"
	FieldNumericValue          = "NumericValue"
	FieldNumericCompositeType  = "NumericCompositeType"
	FieldNumericCompositeValue = "NumericCompositeValue"
)

var numberWords = map[string]float64{
	"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6, "seven": 7,
	"eight": 8, "nine": 9, "ten": 10, "eleven": 11, "twelve": 12, "thirteen": 13,
	"fourteen": 14, "fifteen": 15, "sixteen": 16, "seventeen": 17, "eighteen": 18,
	"nineteen": 19, "twenty": 20, "thirty": 30, "forty": 40, "fifty": 50, "sixty": 60,
	"seventy": 70, "eighty": 80, "ninety": 90, "hundred": 100, "thousand": 1e3,
	"million": 1e6, "billion": 1e9, "dozen": 12,
}

var ordinalWords = map[string]float64{
	"first": 1, "second": 2, "third": 3, "fourth": 4, "fifth": 5, "sixth": 6, "seventh": 7,
	"eighth": 8, "ninth": 9, "tenth": 10, "eleventh": 11, "twelfth": 12, "twentieth": 20,
	"hundredth": 100,
}

var currencySymbols = map[string]string{"$": "$", "€": "€", "£": "£"}

var currencyWords = map[string]string{
	"dollar": "$", "dollars": "$", "usd": "$", "euro": "€", "euros": "€", "pound": "£", "pounds": "£",
}

var percentWords = map[string]bool{"%": true, "percent": true, "pct": true}

var ordinalDigits = regexp.MustCompile(`^(\d+)(st|nd|rd|th)$`)

func wordSet[V any](words map[string]V) map[string]bool {
	set := make(map[string]bool, len(words))
	for w := range words {
		set[w] = true
	}
	return set
}

var (
	// number words count only when the POS tagger, if any ran, agrees: "the one I saw" is no number
	numberWordCondition = fsm.NewCombineCondition(
		fsm.NewWordSetCondition(wordSet(numberWords)),
		fsm.NewPOSCondition(true, "CD"),
	)
	numCondition     = fsm.NewDisjointCondition(fsm.NumericCondition, numberWordCondition)
	ordinalCondition = fsm.NewDisjointCondition(
		func(token *types.Token) bool { return ordinalDigits.MatchString(strings.ToLower(token.Text)) },
		fsm.NewCombineCondition(
			fsm.NewWordSetCondition(wordSet(ordinalWords)),
			fsm.NewPOSCondition(true, "JJ", "CD", "RB"),
		),
	)
	currencySymbolCondition = fsm.NewWordSetCondition(wordSet(currencySymbols))
	currencyWordCondition   = fsm.NewWordSetCondition(wordSet(currencyWords))
	percentCondition        = fsm.NewWordSetCondition(percentWords)
)

const amountState = "AMOUNT"

// NumberClassifier tags numbers, ordinals, money and percent expressions.
type NumberClassifier struct {
	name     string
	machines []fsm.Machine
	tags     []string
}

func NewNumberClassifier(name string) *NumberClassifier {
	moneyPrefix := fsm.Machine{
		fsm.Start:  {{Dst: "CURRENCY", Cond: currencySymbolCondition}},
		"CURRENCY": {{Dst: fsm.End, Cond: numCondition}},
		fsm.End:    {{Dst: fsm.End, Cond: numberWordCondition}},
	}
	moneySuffix := fsm.Machine{
		fsm.Start: {{Dst: amountState, Cond: numCondition}},
		amountState: {
			{Dst: fsm.End, Cond: currencyWordCondition},
			{Dst: amountState, Cond: numberWordCondition},
		},
	}
	percent := fsm.Machine{
		fsm.Start: {{Dst: amountState, Cond: numCondition}},
		amountState: {
			{Dst: fsm.End, Cond: percentCondition},
			{Dst: amountState, Cond: numberWordCondition},
		},
	}
	ordinal := fsm.Machine{
		fsm.Start: {{Dst: fsm.End, Cond: ordinalCondition}},
	}
	number := fsm.Machine{
		fsm.Start: {{Dst: fsm.End, Cond: numCondition}},
		fsm.End:   {{Dst: fsm.End, Cond: numberWordCondition}},
	}

	return &NumberClassifier{
		name:     name,
		machines: []fsm.Machine{moneyPrefix, moneySuffix, percent, ordinal, number},
		tags:     []string{TagMoney, TagMoney, TagPercent, TagOrdinal, TagNumber},
	}
}

func (c *NumberClassifier) Name() string {
	return c.name
}

func (c *NumberClassifier) Identity() string {
	return types.ClassifierNumber + "|" + c.name
}

func (c *NumberClassifier) AppliesNumeric() bool {
	return true
}

func (c *NumberClassifier) Fields() []string {
	return []string{FieldNumericType, FieldNumericValue, FieldNumericCompositeType, FieldNumericCompositeValue}
}

func (c *NumberClassifier) Classify(tokens []*types.Token, ctx ner.Context) []ner.OutputToken {
	out := ner.BackgroundTokens(len(tokens))

	for _, match := range fsm.FindAll(c.machines, tokens) {
		span := tokens[match.Begin:match.End]
		tag := c.tags[match.Machine]

		var value float64
		var ok bool
		if tag == TagOrdinal {
			value, ok = ordinalValue(span[0])
		} else {
			value, ok = numericValue(span)
		}
		if !ok {
			continue
		}

		normalized := formatNumber(value)
		switch tag {
		case TagMoney:
			normalized = currencyOf(span) + normalized
		case TagPercent:
			normalized = "%" + normalized
		}

		for i, token := range span {
			o := &out[match.Begin+i]
			o.Tag = tag
			o.Normalized = &normalized
			if tokenValue, isNumber := tokenNumericValue(token); isNumber {
				tokenType := TagNumber
				if tag == TagOrdinal {
					tokenType = TagOrdinal
				}
				o.SetField(FieldNumericType, tokenType)
				o.SetField(FieldNumericValue, tokenValue)
			} else {
				o.SetField(FieldNumericType, tag)
			}
			o.SetField(FieldNumericCompositeType, tag)
			o.SetField(FieldNumericCompositeValue, value)
		}
	}
	return out
}

func tokenNumericValue(token *types.Token) (float64, bool) {
	if v, ok := fsm.ParseNumeric(token.Text); ok {
		return v, true
	}
	if v, ok := numberWords[strings.ToLower(token.Text)]; ok {
		return v, true
	}
	return ordinalValue(token)
}

func ordinalValue(token *types.Token) (float64, bool) {
	text := strings.ToLower(token.Text)
	if m := ordinalDigits.FindStringSubmatch(text); m != nil {
		v, err := strconv.ParseFloat(m[1], 64)
		return v, err == nil
	}
	v, ok := ordinalWords[text]
	return v, ok
}

// numericValue evaluates the numeric tokens of the span: "two hundred fifty" -> 250,
// "5 million" -> 5e6. Non numeric tokens (currency, percent) are ignored.
func numericValue(span []*types.Token) (float64, bool) {
	var total, current float64
	found := false
	for _, token := range span {
		var v float64
		if parsed, ok := fsm.ParseNumeric(token.Text); ok {
			v = parsed
		} else if word, ok := numberWords[strings.ToLower(token.Text)]; ok {
			v = word
		} else {
			continue
		}

		switch {
		case v == 100 && found:
			if current == 0 {
				current = 1
			}
			current *= v
		case v >= 1000 && found:
			if current == 0 {
				current = 1
			}
			total += current * v
			current = 0
		default:
			current += v
		}
		found = true
	}
	return total + current, found
}

func currencyOf(span []*types.Token) string {
	for _, token := range span {
		text := strings.ToLower(token.Text)
		if symbol, ok := currencySymbols[text]; ok {
			return symbol
		}
		if symbol, ok := currencyWords[text]; ok {
			return symbol
		}
	}
	return "$"
}

// formatNumber keeps one decimal place at least: 12 -> "12.0", 3.25 -> "3.25".
func formatNumber(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
