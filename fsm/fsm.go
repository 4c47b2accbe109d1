package fsm

import (
	"errors"
	"fmt"

	"text2phenotype.com/ner/types"
)

const (
	Start = "START"
	End   = "END"
)

type MachineRule struct {
	Dst  string
	Cond Condition
}

// Machine maps a state to its outgoing rules, rules are tried in order.
// Reaching End accepts the tokens consumed so far.
type Machine map[string][]MachineRule

// Input returns the next state, ok is false when no rule accepts the token.
func (fsm Machine) Input(token *types.Token, currentState string) (string, bool) {
	rules, isOk := fsm[currentState]
	if !isOk {
		errTxt := fmt.Sprintf("Wrong rule: there is no transitions from '%s' state", currentState)
		panic(errors.New(errTxt))
	}

	for _, rule := range rules {
		if rule.Cond(token) {
			return rule.Dst, true
		}
	}

	return currentState, false
}

// Longest runs the machine from tokens[start] and returns the number of tokens of the
// longest accepted run, 0 when the machine never reaches End.
func (fsm Machine) Longest(tokens []*types.Token, start int) int {
	state := Start
	accepted := 0
	for i := start; i < len(tokens); i++ {
		next, ok := fsm.Input(tokens[i], state)
		if !ok {
			break
		}
		state = next
		if state == End {
			accepted = i - start + 1
			if _, more := fsm[End]; !more {
				break
			}
		}
	}
	return accepted
}

type Match struct {
	Begin   int
	End     int
	Machine int
}

// FindAll scans the tokens left to right and returns non-overlapping matches. At each
// position the longest run wins, equal lengths go to the machine declared first.
func FindAll(machines []Machine, tokens []*types.Token) []Match {
	var matches []Match
	for i := 0; i < len(tokens); {
		best, bestMachine := 0, -1
		for m, machine := range machines {
			if n := machine.Longest(tokens, i); n > best {
				best, bestMachine = n, m
			}
		}
		if best == 0 {
			i++
			continue
		}
		matches = append(matches, Match{Begin: i, End: i + best, Machine: bestMachine})
		i += best
	}
	return matches
}
