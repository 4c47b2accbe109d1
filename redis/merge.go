package redis

import (
	"encoding/json"

	jsonpatch "github.com/evanphx/json-patch"
)

// MergeUpdate decodes stored into doc, runs apply and returns stored with the changes
// apply made to doc merged in (RFC 7386). Keys of stored that doc does not describe are
// kept as they are.
func MergeUpdate(stored []byte, doc interface{}, apply func()) ([]byte, error) {
	if err := json.Unmarshal(stored, doc); err != nil {
		return nil, err
	}
	before, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	apply()
	after, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	patch, err := jsonpatch.CreateMergePatch(before, after)
	if err != nil {
		return nil, err
	}
	return jsonpatch.MergePatch(stored, patch)
}
