// Package aligner reshapes two JSON documents so that they share the same
// keys at every nesting level and can be compared field by field.
package aligner

import (
	"github.com/mcncl/jsonlens/internal/models"
)

// Pair is the result of Align. Left and Right have identical key sets at
// every position where both sides hold mappings.
type Pair struct {
	Left  models.JSONValue
	Right models.JSONValue
}

// Align returns before and after with missing keys filled in as null on the
// side that lacks them. Mappings present on both sides under the same key
// are aligned recursively.
//
// Only mapping/mapping positions are aligned. Arrays and scalars are leaves,
// and a key holding a mapping on one side and anything else on the other is
// passed through verbatim on both sides, so the key sets below that point may
// differ.
func Align(before, after models.JSONValue) Pair {
	left, right := merge(before, after)
	return Pair{Left: left, Right: right}
}

func merge(a, b models.JSONValue) (models.JSONValue, models.JSONValue) {
	objA, okA := models.AsObject(a)
	objB, okB := models.AsObject(b)
	if !okA || !okB {
		return a, b
	}

	outA := models.NewObject()
	outB := models.NewObject()
	for _, key := range unionKeys(objA, objB) {
		// A missing key reads as nil, the same as an explicit null.
		va, _ := objA.Get(key)
		vb, _ := objB.Get(key)
		if models.IsObject(va) && models.IsObject(vb) {
			ma, mb := merge(va, vb)
			outA.Set(key, ma)
			outB.Set(key, mb)
			continue
		}
		outA.Set(key, va)
		outB.Set(key, vb)
	}
	return outA, outB
}

// unionKeys lists a's keys in order followed by b's keys that a lacks.
func unionKeys(a, b *models.JSONObject) []string {
	keys := a.Keys()
	for _, k := range b.Keys() {
		if !a.Has(k) {
			keys = append(keys, k)
		}
	}
	return keys
}
