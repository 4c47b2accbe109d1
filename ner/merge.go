package ner

// Merge combines the outputs of classifiers listed by decreasing priority into n tokens.
//
// For each token the tag is the first non-Background tag in priority order, Background
// when every classifier deferred. The normalized value is the winner's one when it has
// one, otherwise the first normalized value of a later classifier that itself tagged
// the token. A token ending up Background never gets a normalized value.
// Auxiliary fields are taken key by key from the classifiers that tagged the token,
// higher priority first. Positions a classifier did not produce count as deferring.
func Merge(n int, outputs [][]OutputToken) []OutputToken {
	merged := make([]OutputToken, n)
	for i := 0; i < n; i++ {
		result := OutputToken{Tag: Background}
		winner := -1

		for c, output := range outputs {
			if i >= len(output) || output[i].IsBackground() {
				continue
			}
			candidate := output[i]

			if winner < 0 {
				winner = c
				result.Tag = candidate.Tag
			}
			if result.Normalized == nil && candidate.Normalized != nil {
				value := *candidate.Normalized
				result.Normalized = &value
			}
			for key, value := range candidate.Fields {
				if _, taken := result.Fields[key]; !taken {
					result.SetField(key, value)
				}
			}
		}

		merged[i] = result
	}
	return merged
}
