package classifiers

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGazetteerLongestMatch(t *testing.T) {
	g := NewGazetteer("places", map[string]string{
		"new york":      "LOCATION",
		"new york city": "city",
		"paris":         "LOCATION",
	}, false)

	out := classify(g, "I", "love", "New", "York", "City", "and", "PARIS")
	require.Equal(t, []string{"O", "O", "CITY", "CITY", "CITY", "O", "LOCATION"}, outputTags(out))

	out = classify(g, "New", "York", "is", "big")
	require.Equal(t, []string{"LOCATION", "LOCATION", "O", "O"}, outputTags(out))
}

func TestGazetteerCaseSensitive(t *testing.T) {
	g := NewGazetteer("names", map[string]string{"Bush": "PERSON"}, true)
	require.Equal(t, []string{"PERSON", "O"}, outputTags(classify(g, "Bush", "bush")))
}

func TestLoadGazetteer(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "places.bsv", "# places\nNew York|LOCATION\n\nLake Geneva|location\n")
	g, err := LoadGazetteer("places", file, false)
	require.NoError(t, err)
	require.Contains(t, g.Identity(), file)
	require.Equal(t, []string{"LOCATION", "LOCATION", "O"}, outputTags(classify(g, "lake", "geneva", "water")))

	_, err = LoadGazetteer("empty", writeFile(t, dir, "empty.bsv", "# nothing\n"), false)
	require.Error(t, err)

	_, err = LoadGazetteer("broken", writeFile(t, dir, "broken.bsv", "New York\n"), false)
	require.Error(t, err)
}
