package classifiers

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"text2phenotype.com/ner/fsm"
	"text2phenotype.com/ner/ner"
	"text2phenotype.com/ner/types"
)

const (
	TagDate     = "DATE"
	TagTime     = "TIME"
	TagDuration = "DURATION"

	FieldTimexType  = "TimexType"
	FieldTimexValue = "TimexValue"
)

var months = map[string]int{
	"january": 1, "february": 2, "march": 3, "april": 4, "may": 5, "june": 6, "july": 7,
	"august": 8, "september": 9, "october": 10, "november": 11, "december": 12,
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "jun": 6, "jul": 7, "aug": 8, "sep": 9,
	"sept": 9, "oct": 10, "nov": 11, "dec": 12,
}

var relativeDays = map[string]int{"today": 0, "yesterday": -1, "tomorrow": 1}

var durationUnits = map[string]string{
	"year": "Y", "month": "M", "week": "W", "day": "D", "hour": "H", "minute": "M",
}

var (
	isoDate   = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
	slashDate = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)

	monthCondition = fsm.NewCombineCondition(
		fsm.NewWordSetCondition(wordSet(months)),
		// "may" the modal verb is no month
		fsm.NewNegateCondition(fsm.NewPOSCondition(false, "MD", "VB")),
	)
	dayCondition      = fsm.NewIntegerRangeCondition(1, 31)
	yearCondition     = fsm.NewIntegerRangeCondition(1000, 2999)
	commaCondition    = fsm.NewPunctuationValueCondition(',')
	relativeCondition = fsm.NewWordSetCondition(wordSet(relativeDays))
	unitCondition     = func(token *types.Token) bool {
		_, ok := durationUnit(token)
		return ok
	}
)

type timePattern struct {
	machine   fsm.Machine
	tag       string
	normalize func(span []*types.Token, ref time.Time, hasRef bool) (string, bool)
}

// TimeClassifier recognises dates, clock times and durations and normalizes them to
// TIMEX values. Relative dates are resolved against the document date.
type TimeClassifier struct {
	name     string
	patterns []timePattern
	machines []fsm.Machine
}

func NewTimeClassifier(name string) *TimeClassifier {
	single := func(cond fsm.Condition) fsm.Machine {
		return fsm.Machine{fsm.Start: {{Dst: fsm.End, Cond: cond}}}
	}

	patterns := []timePattern{
		{
			machine: single(func(token *types.Token) bool { return isoDate.MatchString(token.Text) }),
			tag:     TagDate, normalize: isoDateValue,
		},
		{
			machine: single(func(token *types.Token) bool { return slashDate.MatchString(token.Text) }),
			tag:     TagDate, normalize: slashDateValue,
		},
		{
			// March 15, 2024 / March 15 2024
			machine: fsm.Machine{
				fsm.Start: {{Dst: "MONTH", Cond: monthCondition}},
				"MONTH":   {{Dst: "DAY", Cond: dayCondition}},
				"DAY":     {{Dst: "COMMA", Cond: commaCondition}, {Dst: fsm.End, Cond: yearCondition}},
				"COMMA":   {{Dst: fsm.End, Cond: yearCondition}},
			},
			tag: TagDate, normalize: textualDateValue,
		},
		{
			// 15 March 2024
			machine: fsm.Machine{
				fsm.Start: {{Dst: "DAY", Cond: dayCondition}},
				"DAY":     {{Dst: "MONTH", Cond: monthCondition}},
				"MONTH":   {{Dst: fsm.End, Cond: yearCondition}},
			},
			tag: TagDate, normalize: textualDateValue,
		},
		{
			// March 15 / March 2024
			machine: fsm.Machine{
				fsm.Start: {{Dst: "MONTH", Cond: monthCondition}},
				"MONTH":   {{Dst: fsm.End, Cond: fsm.NewDisjointCondition(dayCondition, yearCondition)}},
			},
			tag: TagDate, normalize: textualDateValue,
		},
		{
			machine: single(relativeCondition),
			tag:     TagDate, normalize: relativeDateValue,
		},
		{
			// 10:30, 10:30 pm
			machine: fsm.Machine{
				fsm.Start: {{Dst: fsm.End, Cond: fsm.NewHourMinuteCondition(0, 23, 0, 59)}},
				fsm.End:   {{Dst: fsm.End, Cond: fsm.DayNightWordCondition}},
			},
			tag: TagTime, normalize: clockTimeValue,
		},
		{
			// three days, 2 weeks, twenty five years
			machine: fsm.Machine{
				fsm.Start:   {{Dst: amountState, Cond: numCondition}},
				amountState: {{Dst: fsm.End, Cond: unitCondition}, {Dst: amountState, Cond: numberWordCondition}},
			},
			tag: TagDuration, normalize: durationValue,
		},
	}

	c := &TimeClassifier{name: name, patterns: patterns}
	for _, p := range patterns {
		c.machines = append(c.machines, p.machine)
	}
	return c
}

func (c *TimeClassifier) Name() string {
	return c.name
}

func (c *TimeClassifier) Identity() string {
	return types.ClassifierTime + "|" + c.name
}

func (c *TimeClassifier) UsesTime() bool {
	return true
}

func (c *TimeClassifier) Fields() []string {
	return []string{FieldTimexType, FieldTimexValue}
}

func (c *TimeClassifier) Classify(tokens []*types.Token, ctx ner.Context) []ner.OutputToken {
	out := ner.BackgroundTokens(len(tokens))
	ref, hasRef := ctx.Document.ReferenceDate()

	for _, match := range fsm.FindAll(c.machines, tokens) {
		pattern := c.patterns[match.Machine]
		span := tokens[match.Begin:match.End]
		value, ok := pattern.normalize(span, ref, hasRef)

		for i := match.Begin; i < match.End; i++ {
			out[i].Tag = pattern.tag
			out[i].SetField(FieldTimexType, pattern.tag)
			if ok {
				v := value
				out[i].Normalized = &v
				out[i].SetField(FieldTimexValue, value)
			}
		}
	}
	return out
}

func isoDateValue(span []*types.Token, _ time.Time, _ bool) (string, bool) {
	if _, err := time.Parse(types.DocDateLayout, span[0].Text); err != nil {
		return "", false
	}
	return span[0].Text, true
}

func slashDateValue(span []*types.Token, _ time.Time, _ bool) (string, bool) {
	m := slashDate.FindStringSubmatch(span[0].Text)
	month, _ := strconv.Atoi(m[1])
	day, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	return formatDate(year, month, day)
}

// textualDateValue reads month name, day and year from the span, missing parts are X-ed.
func textualDateValue(span []*types.Token, _ time.Time, _ bool) (string, bool) {
	year, month, day := 0, 0, 0
	for _, token := range span {
		text := strings.ToLower(token.Text)
		if m, ok := months[text]; ok && month == 0 {
			month = m
			continue
		}
		n, err := strconv.Atoi(text)
		if err != nil {
			continue
		}
		if n >= 1000 {
			year = n
		} else {
			day = n
		}
	}
	return formatDate(year, month, day)
}

func relativeDateValue(span []*types.Token, ref time.Time, hasRef bool) (string, bool) {
	if !hasRef {
		return "", false
	}
	offset := relativeDays[strings.ToLower(span[0].Text)]
	return ref.AddDate(0, 0, offset).Format(types.DocDateLayout), true
}

func clockTimeValue(span []*types.Token, _ time.Time, _ bool) (string, bool) {
	hour, minutes, ok := fsm.ParseHourMinute(span[0].Text)
	if !ok {
		return "", false
	}
	if len(span) > 1 {
		pm := strings.HasPrefix(strings.ToLower(span[1].Text), "p")
		switch {
		case pm && hour < 12:
			hour += 12
		case !pm && hour == 12:
			hour = 0
		}
	}
	return fmt.Sprintf("T%02d:%02d", hour, minutes), true
}

func durationValue(span []*types.Token, _ time.Time, _ bool) (string, bool) {
	amount, ok := numericValue(span[:len(span)-1])
	if !ok {
		return "", false
	}
	unit, _ := durationUnit(span[len(span)-1])
	n := strconv.FormatFloat(amount, 'f', -1, 64)
	switch durationUnitWord(span[len(span)-1]) {
	case "hour", "minute":
		return "PT" + n + unit, true
	}
	return "P" + n + unit, true
}

func durationUnitWord(token *types.Token) string {
	word := token.LemmaOrLower()
	if _, ok := durationUnits[word]; ok {
		return word
	}
	word = strings.TrimSuffix(strings.ToLower(token.Text), "s")
	if _, ok := durationUnits[word]; ok {
		return word
	}
	return ""
}

func durationUnit(token *types.Token) (string, bool) {
	unit, ok := durationUnits[durationUnitWord(token)]
	return unit, ok
}

func formatDate(year int, month int, day int) (string, bool) {
	if month < 1 || month > 12 || day < 0 || day > 31 {
		return "", false
	}
	y := "XXXX"
	if year > 0 {
		y = fmt.Sprintf("%04d", year)
	}
	if day == 0 {
		return fmt.Sprintf("%s-%02d", y, month), true
	}
	if year > 0 {
		if _, err := time.Parse(types.DocDateLayout, fmt.Sprintf("%s-%02d-%02d", y, month, day)); err != nil {
			return "", false
		}
	}
	return fmt.Sprintf("%s-%02d-%02d", y, month, day), true
}
