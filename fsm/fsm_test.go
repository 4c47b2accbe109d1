package fsm

import (
	"testing"

	"github.com/stretchr/testify/require"
	"text2phenotype.com/ner/types"
)

func tokens(words ...string) []*types.Token {
	return types.NewDocument(words).Sentences[0].Tokens
}

func moneyMachine() Machine {
	return Machine{
		Start: {{Dst: "CURRENCY", Cond: NewPunctuationValueCondition('$')}},
		"CURRENCY": {{Dst: End, Cond: NumericCondition}},
	}
}

func numberRangeMachine() Machine {
	return Machine{
		Start: {{Dst: End, Cond: NumericCondition}},
		End:   {{Dst: "DASH", Cond: NewPunctuationValueCondition('-')}},
		"DASH": {{Dst: End, Cond: NumericCondition}},
	}
}

func TestMachineLongest(t *testing.T) {
	require.Equal(t, 2, moneyMachine().Longest(tokens("$", "12", "now"), 0))
	require.Equal(t, 0, moneyMachine().Longest(tokens("$", "now"), 0))
	require.Equal(t, 3, numberRangeMachine().Longest(tokens("5", "-", "7", "-"), 0))
	require.Equal(t, 1, numberRangeMachine().Longest(tokens("5", "-", "x"), 0))
}

func TestMachineInputPanicsOnUnknownState(t *testing.T) {
	require.Panics(t, func() {
		Machine{}.Input(tokens("a")[0], Start)
	})
}

func TestFindAll(t *testing.T) {
	machines := []Machine{moneyMachine(), numberRangeMachine()}
	matches := FindAll(machines, tokens("paid", "$", "12", "for", "5", "-", "7", "items"))
	require.Equal(t, []Match{{Begin: 1, End: 3, Machine: 0}, {Begin: 4, End: 7, Machine: 1}}, matches)
	require.Empty(t, FindAll(machines, tokens("nothing", "here")))
}

func TestConditions(t *testing.T) {
	tok := func(text string) *types.Token { return types.NewToken(text, 0) }

	v, ok := ParseNumeric("1,000.5")
	require.True(t, ok)
	require.Equal(t, 1000.5, v)
	_, ok = ParseNumeric("12a")
	require.False(t, ok)
	_, ok = ParseNumeric(",")
	require.False(t, ok)

	require.True(t, NewHourMinuteCondition(0, 23, 0, 59)(tok("10:30")))
	require.False(t, NewHourMinuteCondition(0, 23, 0, 59)(tok("25:30")))
	require.False(t, NewHourMinuteCondition(0, 23, 0, 59)(tok("10:3")))

	lemma := "day"
	days := tok("Days")
	days.Lemma = &lemma
	require.True(t, NewWordSetCondition(map[string]bool{"day": true})(days))
	require.True(t, NewTextValueCondition("percent")(tok("Percent")))
	require.True(t, NewIntegerRangeCondition(1, 12)(tok("7")))
	require.False(t, NewIntegerRangeCondition(1, 12)(tok("13")))
	require.True(t, DayNightWordCondition(tok("p.m.")))

	pos := "PRP"
	one := tok("one")
	require.True(t, NewPOSCondition(true, "CD")(one))
	one.Tag = &pos
	require.False(t, NewPOSCondition(true, "CD")(one))
	require.True(t, NewNegateCondition(NewPOSCondition(true, "CD"))(one))
	require.True(t, NewCombineCondition(AnyCondition, NewTextValueCondition("one"))(one))
	require.True(t, NewDisjointCondition(NumericCondition, NewTextValueCondition("one"))(one))
}
