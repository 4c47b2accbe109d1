package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"math"
	"sort"
)

// CRF is a linear-chain conditional random field.
// Weights[f][s] is the weight of observation feature f for state s,
// Transitions[i][j] the weight of moving from state i to state j.
type CRF struct {
	Features       map[string]int `json:"features"`
	States         []string       `json:"states"`
	InitialWeights []float64      `json:"initial_weights"`
	FinalWeights   []float64      `json:"final_weights"`
	Transitions    [][]float64    `json:"transitions"`
	Weights        [][]float64    `json:"weights"`
}

type ViterbiNode struct {
	Delta float64
	Back  int
}

func (crf *CRF) ToFeatureIdxVector(features []Feature) []int {
	set := make(map[int]bool)
	for _, feat := range features {
		fIdx, isOk := crf.Features[feat.String()]
		if isOk {
			set[fIdx] = true
		}
	}

	result := make([]int, 0, len(set))
	for k := range set {
		result = append(result, k)
	}
	sort.Ints(result)
	return result
}

// Emission is the score of state for an observation described by its feature indices.
func (crf *CRF) Emission(featureIdxVector []int, state int) float64 {
	ret := 0.0
	for _, fIdx := range featureIdxVector {
		ret += crf.Weights[fIdx][state]
	}
	return ret
}

// DecodeViterbi returns the lattice of best partial scores, one row per observation.
func (crf *CRF) DecodeViterbi(features [][]Feature) [][]ViterbiNode {
	nStates := len(crf.States)
	lattice := make([][]ViterbiNode, len(features))

	for obsIdx, feats := range features {
		fIdxVector := crf.ToFeatureIdxVector(feats)
		lattice[obsIdx] = make([]ViterbiNode, nStates)

		for state := 0; state < nStates; state++ {
			emission := crf.Emission(fIdxVector, state)
			if obsIdx == 0 {
				lattice[obsIdx][state] = ViterbiNode{Delta: crf.InitialWeights[state] + emission, Back: -1}
				continue
			}

			best := ViterbiNode{Delta: math.Inf(-1), Back: 0}
			for prev := 0; prev < nStates; prev++ {
				weight := lattice[obsIdx-1][prev].Delta + crf.Transitions[prev][state]
				if weight > best.Delta {
					best = ViterbiNode{Delta: weight, Back: prev}
				}
			}
			best.Delta += emission
			lattice[obsIdx][state] = best
		}
	}

	if last := len(lattice) - 1; last >= 0 {
		for state := 0; state < nStates; state++ {
			lattice[last][state].Delta += crf.FinalWeights[state]
		}
	}
	return lattice
}

// Predict returns the most probable state sequence, ties resolve to the lower state index.
func (crf *CRF) Predict(features [][]Feature) []string {
	result := make([]string, len(features))
	if len(features) == 0 {
		return result
	}

	lattice := crf.DecodeViterbi(features)
	last := len(lattice) - 1
	state := 0
	for s := 1; s < len(crf.States); s++ {
		if lattice[last][s].Delta > lattice[last][state].Delta {
			state = s
		}
	}

	for obsIdx := last; obsIdx >= 0; obsIdx-- {
		result[obsIdx] = crf.States[state]
		state = lattice[obsIdx][state].Back
	}
	return result
}

func (crf *CRF) Validate() error {
	n := len(crf.States)
	if n == 0 {
		return errors.New("crf model has no states")
	}
	if len(crf.Transitions) != n {
		return fmt.Errorf("crf model has %d transition rows for %d states", len(crf.Transitions), n)
	}
	for i, row := range crf.Transitions {
		if len(row) != n {
			return fmt.Errorf("crf transition row %d has %d columns for %d states", i, len(row), n)
		}
	}
	for name, idx := range crf.Features {
		if idx < 0 || idx >= len(crf.Weights) {
			return fmt.Errorf("crf feature %q points outside of the weights table", name)
		}
	}
	for i, row := range crf.Weights {
		if len(row) != n {
			return fmt.Errorf("crf weights row %d has %d columns for %d states", i, len(row), n)
		}
	}
	return nil
}

func LoadCRFFromFile(modelPath string) (*CRF, error) {
	buf, err := ioutil.ReadFile(modelPath)
	if err != nil {
		return nil, err
	}

	var m CRF
	err = json.Unmarshal(buf, &m)
	if err != nil {
		return nil, err
	}

	// absent initial/final weights are neutral
	for len(m.InitialWeights) < len(m.States) {
		m.InitialWeights = append(m.InitialWeights, 0)
	}
	for len(m.FinalWeights) < len(m.States) {
		m.FinalWeights = append(m.FinalWeights, 0)
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", modelPath, err)
	}
	return &m, nil
}
