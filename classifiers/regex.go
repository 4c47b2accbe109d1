package classifiers

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"text2phenotype.com/ner/ner"
	"text2phenotype.com/ner/types"
	"text2phenotype.com/ner/utils"
)

// RegexRule tags a run of tokens, Patterns[i] has to match the whole i-th token.
type RegexRule struct {
	Patterns []*regexp.Regexp
	Tag      string
	Priority float64
}

func NewRegexRule(pattern string, tag string, priority float64) (RegexRule, error) {
	parts := strings.Fields(pattern)
	if len(parts) == 0 {
		return RegexRule{}, fmt.Errorf("empty pattern for tag %s", tag)
	}
	rule := RegexRule{Tag: tag, Priority: priority}
	for _, part := range parts {
		re, err := regexp.Compile("^(?:" + part + ")$")
		if err != nil {
			return RegexRule{}, fmt.Errorf("pattern %q: %w", pattern, err)
		}
		rule.Patterns = append(rule.Patterns, re)
	}
	return rule, nil
}

func (rule RegexRule) matchAt(tokens []*types.Token, start int) bool {
	if start+len(rule.Patterns) > len(tokens) {
		return false
	}
	for i, re := range rule.Patterns {
		if !re.MatchString(tokens[start+i].Text) {
			return false
		}
	}
	return true
}

// RegexClassifier applies token regular expressions, higher priority and then longer
// rules first. A token covered by a rule is not tagged again by later rules.
type RegexClassifier struct {
	name  string
	path  string
	rules []RegexRule
}

func NewRegexClassifier(name string, rules []RegexRule) *RegexClassifier {
	sorted := append([]RegexRule(nil), rules...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Priority != sorted[j].Priority {
			return sorted[i].Priority > sorted[j].Priority
		}
		return len(sorted[i].Patterns) > len(sorted[j].Patterns)
	})
	return &RegexClassifier{name: name, rules: sorted}
}

// LoadRegexClassifier reads "pattern|TAG[|priority]" rows.
func LoadRegexClassifier(name string, path string) (*RegexClassifier, error) {
	rows, err := utils.ReadBSV(path, utils.BSVOptions{Columns: 2})
	if err != nil {
		return nil, err
	}
	rules := make([]RegexRule, 0, len(rows))
	for _, row := range rows {
		var priority float64
		if len(row) > 2 && len(row[2]) > 0 {
			if priority, err = strconv.ParseFloat(row[2], 64); err != nil {
				return nil, fmt.Errorf("%s: bad priority %q: %w", path, row[2], err)
			}
		}
		rule, err := NewRegexRule(row[0], row[1], priority)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		rules = append(rules, rule)
	}
	c := NewRegexClassifier(name, rules)
	c.path = path
	return c, nil
}

func (c *RegexClassifier) Name() string {
	return c.name
}

func (c *RegexClassifier) Identity() string {
	return types.ClassifierRegex + "|" + c.name + "|" + c.path
}

func (c *RegexClassifier) Classify(tokens []*types.Token, ctx ner.Context) []ner.OutputToken {
	out := ner.BackgroundTokens(len(tokens))
	covered := make([]bool, len(tokens))

	for _, rule := range c.rules {
		for start := 0; start+len(rule.Patterns) <= len(tokens); start++ {
			if !rule.matchAt(tokens, start) || anyCovered(covered, start, start+len(rule.Patterns)) {
				continue
			}
			for i := start; i < start+len(rule.Patterns); i++ {
				out[i].Tag = rule.Tag
				covered[i] = true
			}
			start += len(rule.Patterns) - 1
		}
	}
	return out
}

func anyCovered(covered []bool, begin int, end int) bool {
	for i := begin; i < end; i++ {
		if covered[i] {
			return true
		}
	}
	return false
}
