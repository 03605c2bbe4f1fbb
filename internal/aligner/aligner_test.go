package aligner

import (
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mcncl/jsonlens/internal/models"
	"github.com/mcncl/jsonlens/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, s string) models.JSONValue {
	t.Helper()
	v, err := parser.ParseString(s)
	require.NoError(t, err)
	return v
}

func encoded(t *testing.T, v models.JSONValue) string {
	t.Helper()
	out, err := parser.Encode(v)
	require.NoError(t, err)
	return string(out)
}

// assertSameKeys checks that wherever both sides hold mappings, they hold
// the same key set, recursively.
func assertSameKeys(t *testing.T, left, right models.JSONValue, at string) {
	t.Helper()
	l, okL := models.AsObject(left)
	r, okR := models.AsObject(right)
	if !okL || !okR {
		return
	}
	lk, rk := l.Keys(), r.Keys()
	slices.Sort(lk)
	slices.Sort(rk)
	if diff := cmp.Diff(lk, rk); diff != "" {
		t.Errorf("key sets differ at %q (-left +right):\n%s", at, diff)
		return
	}
	for _, k := range lk {
		lv, _ := l.Get(k)
		rv, _ := r.Get(k)
		assertSameKeys(t, lv, rv, at+"."+k)
	}
}

func TestAlign(t *testing.T) {
	tests := []struct {
		name      string
		before    string
		after     string
		wantLeft  string
		wantRight string
	}{
		{
			name:      "key added in after",
			before:    `{"a": {"x": 1}}`,
			after:     `{"a": {"x": 1, "y": 2}}`,
			wantLeft:  `{"a":{"x":1,"y":null}}`,
			wantRight: `{"a":{"x":1,"y":2}}`,
		},
		{
			name:      "key removed in after",
			before:    `{"a": 1, "b": 2}`,
			after:     `{"a": 1}`,
			wantLeft:  `{"a":1,"b":2}`,
			wantRight: `{"a":1,"b":null}`,
		},
		{
			name:      "whole subtree missing on one side",
			before:    `{"meta": {"x": {"y": 1}}}`,
			after:     `{}`,
			wantLeft:  `{"meta":{"x":{"y":1}}}`,
			wantRight: `{"meta":null}`,
		},
		{
			name:      "mapping against scalar passes through",
			before:    `{"a": {"x": 1}}`,
			after:     `{"a": "gone"}`,
			wantLeft:  `{"a":{"x":1}}`,
			wantRight: `{"a":"gone"}`,
		},
		{
			name:      "mapping against null passes through",
			before:    `{"a": {"x": 1}}`,
			after:     `{"a": null}`,
			wantLeft:  `{"a":{"x":1}}`,
			wantRight: `{"a":null}`,
		},
		{
			name:      "arrays are leaves",
			before:    `{"items": [{"id": 1}]}`,
			after:     `{"items": [{"id": 1, "qty": 2}]}`,
			wantLeft:  `{"items":[{"id":1}]}`,
			wantRight: `{"items":[{"id":1,"qty":2}]}`,
		},
		{
			name:      "non-mapping roots are returned as is",
			before:    `[1, 2]`,
			after:     `{"a": 1}`,
			wantLeft:  `[1,2]`,
			wantRight: `{"a":1}`,
		},
		{
			name:      "union keeps before order then after-only keys",
			before:    `{"b": 1, "a": 2}`,
			after:     `{"c": 3, "a": 4}`,
			wantLeft:  `{"b":1,"a":2,"c":null}`,
			wantRight: `{"b":null,"a":4,"c":3}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pair := Align(mustParse(t, tt.before), mustParse(t, tt.after))
			assert.Equal(t, tt.wantLeft, encoded(t, pair.Left))
			assert.Equal(t, tt.wantRight, encoded(t, pair.Right))
		})
	}
}

func TestAlign_KeySymmetry(t *testing.T) {
	pairs := [][2]string{
		{`{"a": {"b": {"c": 1}}, "d": [1]}`, `{"a": {"b": {"e": 2}, "f": null}, "g": {"h": true}}`},
		{`{"order": {"id": 1, "items": []}}`, `{"order": {"id": 2, "status": "paid"}, "customer": {}}`},
		{`{}`, `{"x": {"y": {"z": 1}}}`},
	}

	for _, p := range pairs {
		pair := Align(mustParse(t, p[0]), mustParse(t, p[1]))
		assertSameKeys(t, pair.Left, pair.Right, "$")
	}
}

func TestAlign_Idempotent(t *testing.T) {
	first := Align(
		mustParse(t, `{"a": {"x": 1, "n": {"deep": true}}, "b": [1], "c": {"k": "v"}}`),
		mustParse(t, `{"a": {"y": 2, "n": {"other": false}}, "c": "flat", "d": null}`),
	)
	second := Align(first.Left, first.Right)

	assert.True(t, models.Equal(first.Left, second.Left))
	assert.True(t, models.Equal(first.Right, second.Right))
	assert.Equal(t, encoded(t, first.Left), encoded(t, second.Left))
	assert.Equal(t, encoded(t, first.Right), encoded(t, second.Right))
}

func TestAlign_DoesNotModifyInputs(t *testing.T) {
	before := mustParse(t, `{"a": {"x": 1}}`)
	after := mustParse(t, `{"a": {"y": 2}, "b": 3}`)

	Align(before, after)

	assert.Equal(t, `{"a":{"x":1}}`, encoded(t, before))
	assert.Equal(t, `{"a":{"y":2},"b":3}`, encoded(t, after))
}
