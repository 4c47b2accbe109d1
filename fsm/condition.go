package fsm

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"text2phenotype.com/ner/types"
)

type Condition func(token *types.Token) bool

func AnyCondition(token *types.Token) bool {
	return true
}

func NewPunctuationValueCondition(ch rune) Condition {
	return func(token *types.Token) bool {
		if utf8.RuneCountInString(token.Text) != 1 {
			return false
		}
		r, _ := utf8.DecodeRuneInString(token.Text)
		return r == ch
	}
}

// NewWordSetCondition matches the lower-cased text or, when present, the lemma.
func NewWordSetCondition(set map[string]bool) Condition {
	return func(token *types.Token) bool {
		return set[strings.ToLower(token.Text)] || set[token.LemmaOrLower()]
	}
}

func NewTextValueCondition(value string) Condition {
	return func(token *types.Token) bool {
		return strings.EqualFold(token.Text, value)
	}
}

func NewDisjointCondition(conditions ...Condition) Condition {
	return func(token *types.Token) bool {
		for _, cond := range conditions {
			if cond(token) {
				return true
			}
		}

		return false
	}
}

func NewCombineCondition(conditions ...Condition) Condition {
	return func(token *types.Token) bool {
		for _, cond := range conditions {
			if !cond(token) {
				return false
			}
		}

		return true
	}
}

func NewNegateCondition(cond Condition) Condition {
	return func(token *types.Token) bool {
		return !cond(token)
	}
}

func NewIntegerRangeCondition(lowNumber int, highNumber int) Condition {
	return func(token *types.Token) bool {
		num, err := strconv.Atoi(token.Text)
		if err != nil {
			return false
		}

		return num <= highNumber && num >= lowNumber
	}
}

// NewHourMinuteCondition matches "hh:mm" within the bounds.
func NewHourMinuteCondition(minHour int, maxHour int, minMinute int, maxMinute int) Condition {
	return func(token *types.Token) bool {
		hour, minutes, ok := ParseHourMinute(token.Text)
		if !ok {
			return false
		}
		return hour >= minHour && hour <= maxHour && minutes >= minMinute && minutes <= maxMinute
	}
}

func ParseHourMinute(text string) (int, int, bool) {
	colonIndex := strings.IndexRune(text, ':')
	if colonIndex <= 0 || len(text)-colonIndex != 3 {
		return 0, 0, false
	}
	hour, err := strconv.Atoi(text[:colonIndex])
	if err != nil {
		return 0, 0, false
	}
	minutes, err := strconv.Atoi(text[colonIndex+1:])
	if err != nil {
		return 0, 0, false
	}
	return hour, minutes, true
}

func DayNightWordCondition(token *types.Token) bool {
	text := strings.ToLower(token.Text)
	switch text {
	case "am", "pm", "a.m.", "p.m.", "a.m", "p.m":
		return true
	}
	return false
}

// NumericCondition matches digits with optional thousands separators and a decimal part:
// "12", "1,000", "3.5", "-2".
func NumericCondition(token *types.Token) bool {
	_, ok := ParseNumeric(token.Text)
	return ok
}

func ParseNumeric(text string) (float64, bool) {
	if len(text) == 0 {
		return 0, false
	}
	digits := 0
	for i, r := range text {
		switch {
		case unicode.IsDigit(r):
			digits++
		case r == ',' || r == '.':
		case (r == '-' || r == '+') && i == 0:
		default:
			return 0, false
		}
	}
	if digits == 0 {
		return 0, false
	}
	value, err := strconv.ParseFloat(strings.ReplaceAll(text, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// NewPOSCondition matches tokens whose POS tag has one of the prefixes. Tokens without a
// POS tag match when allowUntagged is set.
func NewPOSCondition(allowUntagged bool, prefixes ...string) Condition {
	return func(token *types.Token) bool {
		pos := token.POS()
		if len(pos) == 0 {
			return allowUntagged
		}
		for _, prefix := range prefixes {
			if strings.HasPrefix(pos, prefix) {
				return true
			}
		}
		return false
	}
}
