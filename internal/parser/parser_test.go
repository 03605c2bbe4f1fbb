package parser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mcncl/jsonlens/internal/errors"
	"github.com/mcncl/jsonlens/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_SimpleObject(t *testing.T) {
	jsonStr := `{"name": "John Doe", "age": 30, "isStudent": false, "city": null}`
	root, err := Parse(strings.NewReader(jsonStr))
	require.NoError(t, err)

	obj, ok := root.(*models.JSONObject)
	require.True(t, ok, "root is not a *models.JSONObject, got %T", root)

	assert.Equal(t, []string{"name", "age", "isStudent", "city"}, obj.Keys())

	name, _ := obj.Get("name")
	assert.Equal(t, "John Doe", name)
	age, _ := obj.Get("age")
	assert.Equal(t, models.JSONNumber("30"), age)
	student, _ := obj.Get("isStudent")
	assert.Equal(t, false, student)
	city, found := obj.Get("city")
	assert.True(t, found)
	assert.Nil(t, city)
}

func TestParse_SimpleArray(t *testing.T) {
	root, err := Parse(strings.NewReader(`[1, "test", true, null, 3.14]`))
	require.NoError(t, err)

	expected := models.JSONArray{
		models.JSONNumber("1"),
		"test",
		true,
		nil,
		models.JSONNumber("3.14"),
	}
	assert.Equal(t, expected, root)
}

func TestParse_KeepsKeyOrderWhenNested(t *testing.T) {
	root, err := ParseString(`{"z": {"b": 1, "a": 2}, "y": [{"k": 1}], "x": {}}`)
	require.NoError(t, err)

	obj := root.(*models.JSONObject)
	assert.Equal(t, []string{"z", "y", "x"}, obj.Keys())

	z, _ := obj.Get("z")
	assert.Equal(t, []string{"b", "a"}, z.(*models.JSONObject).Keys())

	x, _ := obj.Get("x")
	assert.Equal(t, 0, x.(*models.JSONObject).Len())
}

func TestParse_KeyNamesSurviveNestedValues(t *testing.T) {
	root, err := ParseString(`{
		"order": {"id": 5, "items": [{"sku": "A", "qty": 2}], "ship": {"city": "Oslo"}},
		"customer": {"email": "e@x.com"},
		"flag": true
	}`)
	require.NoError(t, err)

	obj := root.(*models.JSONObject)
	assert.Equal(t, []string{"order", "customer", "flag"}, obj.Keys())

	order, _ := obj.Get("order")
	orderObj := order.(*models.JSONObject)
	assert.Equal(t, []string{"id", "items", "ship"}, orderObj.Keys())

	items, _ := orderObj.Get("items")
	first := items.(models.JSONArray)[0].(*models.JSONObject)
	assert.Equal(t, []string{"sku", "qty"}, first.Keys())

	ship, _ := orderObj.Get("ship")
	city, _ := ship.(*models.JSONObject).Get("city")
	assert.Equal(t, "Oslo", city)

	customer, _ := obj.Get("customer")
	email, _ := customer.(*models.JSONObject).Get("email")
	assert.Equal(t, "e@x.com", email)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "empty reader", input: "", wantErr: errors.ErrEmptyInput},
		{name: "syntax error", input: `{"a": }`, wantErr: errors.ErrInvalidJSON},
		{name: "truncated", input: `{"a": 1`, wantErr: errors.ErrInvalidJSON},
		{name: "multiple values", input: `{"a": 1} {"b": 2}`, wantErr: errors.ErrMultipleJSON},
		{name: "trailing garbage", input: `{"a": 1} }`, wantErr: errors.ErrInvalidJSON},
		{name: "duplicate keys", input: `{"a": 1, "a": 2}`, wantErr: errors.ErrInvalidJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, &errors.AppError{Type: errors.ErrorTypeParsing})
		})
	}
}

func TestParse_TrailingWhitespaceAllowed(t *testing.T) {
	_, err := Parse(strings.NewReader("{\"a\": 1}\n\n  "))
	assert.NoError(t, err)
}

func TestParseString_Empty(t *testing.T) {
	_, err := ParseString("   ")
	assert.ErrorIs(t, err, errors.ErrEmptyInput)
	assert.ErrorIs(t, err, &errors.AppError{Type: errors.ErrorTypeInput})
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.json")
	require.NoError(t, os.WriteFile(good, []byte(`{"order": {"id": 5}}`), 0644))

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, nil, 0644))

	root, err := ParseFile(good)
	require.NoError(t, err)
	assert.Equal(t, []string{"order"}, root.(*models.JSONObject).Keys())

	_, err = ParseFile(empty)
	assert.ErrorIs(t, err, errors.ErrFileEmpty)

	_, err = ParseFile(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, errors.ErrFileNotFound)

	_, err = ParseFile("  ")
	assert.ErrorIs(t, err, errors.ErrInvalidFilePath)
}

func TestEncode_Compact(t *testing.T) {
	root, err := ParseString(`{"b": [1, 2.50, "x"], "a": {"n": null, "t": true}}`)
	require.NoError(t, err)

	out, err := Encode(root)
	require.NoError(t, err)
	assert.Equal(t, `{"b":[1,2.50,"x"],"a":{"n":null,"t":true}}`, string(out))
}

func TestEncodeIndent_RoundTrips(t *testing.T) {
	root, err := ParseString(`{"order": {"id": 5, "items": [1, 2]}, "note": "hi"}`)
	require.NoError(t, err)

	out, err := EncodeIndent(root, "  ")
	require.NoError(t, err)
	assert.Contains(t, string(out), "\n  \"order\"")
	assert.False(t, strings.HasSuffix(string(out), "\n"))

	again, err := ParseString(string(out))
	require.NoError(t, err)
	assert.Equal(t, root, again)
}

func TestEncode_UnsupportedType(t *testing.T) {
	_, err := Encode(42)
	assert.ErrorIs(t, err, &errors.AppError{Type: errors.ErrorTypeOutput})
}
