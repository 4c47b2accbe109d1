package pipeline

import (
	"sort"
	"strings"
)

// Requirement is a named annotation a stage needs on its input or adds to it.
type Requirement string

const (
	Tokenize      Requirement = "tokenize"
	SentenceSplit Requirement = "ssplit"
	POSTag        Requirement = "pos"
	Lemma         Requirement = "lemma"
	NER           Requirement = "ner"
)

// Set is an unordered set of requirements.
type Set map[Requirement]struct{}

func NewSet(requirements ...Requirement) Set {
	s := make(Set, len(requirements))
	for _, r := range requirements {
		s[r] = struct{}{}
	}
	return s
}

// ParseSet builds a set from configuration strings such as "tokenize", "ssplit".
func ParseSet(names []string) Set {
	s := make(Set, len(names))
	for _, name := range names {
		name = strings.TrimSpace(strings.ToLower(name))
		if len(name) > 0 {
			s[Requirement(name)] = struct{}{}
		}
	}
	return s
}

func TokenizeAndSsplit() Set {
	return NewSet(Tokenize, SentenceSplit)
}

func TokenizeSsplitPosLemma() Set {
	return NewSet(Tokenize, SentenceSplit, POSTag, Lemma)
}

func (s Set) Contains(r Requirement) bool {
	_, ok := s[r]
	return ok
}

func (s Set) ContainsAll(other Set) bool {
	for r := range other {
		if !s.Contains(r) {
			return false
		}
	}
	return true
}

// Missing returns the requirements of other absent from s, sorted.
func (s Set) Missing(other Set) []Requirement {
	var missing []Requirement
	for r := range other {
		if !s.Contains(r) {
			missing = append(missing, r)
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	return missing
}

func (s Set) Union(other Set) Set {
	u := make(Set, len(s)+len(other))
	for r := range s {
		u[r] = struct{}{}
	}
	for r := range other {
		u[r] = struct{}{}
	}
	return u
}

func (s Set) Clone() Set {
	return s.Union(nil)
}

func (s Set) Sorted() []Requirement {
	sorted := make([]Requirement, 0, len(s))
	for r := range s {
		sorted = append(sorted, r)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return sorted
}

func (s Set) String() string {
	names := make([]string, 0, len(s))
	for _, r := range s.Sorted() {
		names = append(names, string(r))
	}
	return "{" + strings.Join(names, ", ") + "}"
}
