package session

import (
	"testing"

	"github.com/mcncl/jsonlens/internal/config"
	"github.com/mcncl/jsonlens/internal/errors"
	"github.com/mcncl/jsonlens/internal/fieldpath"
	"github.com/mcncl/jsonlens/internal/models"
	"github.com/mcncl/jsonlens/internal/parser"
	"github.com/mcncl/jsonlens/internal/visibility"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
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

func sampleDocuments(t *testing.T) Documents {
	return Documents{
		Request: mustParse(t, `{"order": {"id": 5, "items": [1, 2]}, "customer": {"email": "e@x.com"}}`),
		Before:  mustParse(t, `{"order": {"id": 5, "status": "new"}, "metadata": {"rev": 1}}`),
		After:   mustParse(t, `{"order": {"id": 5, "status": "paid", "paidAt": "today"}, "customer": {"email": "e@x.com"}}`),
	}
}

func TestNew_AppliesEmptyFilter(t *testing.T) {
	docs := sampleDocuments(t)
	s := New("s1", docs, nil)

	assert.Equal(t, "s1", s.ID())
	assert.Nil(t, s.Filter())

	res := s.Result()
	assert.True(t, models.Equal(docs.Request, res.Request))
	assert.Equal(t,
		`{"order":{"id":5,"status":"new","paidAt":null},"metadata":{"rev":1},"customer":null}`,
		encoded(t, res.Before))
	assert.Equal(t,
		`{"order":{"id":5,"status":"paid","paidAt":"today"},"metadata":null,"customer":{"email":"e@x.com"}}`,
		encoded(t, res.After))

	// The shared selector is built from the aligned before document.
	assert.Equal(t, []string{"customer", "metadata", "metadata.rev", "order", "order.id", "order.paidAt", "order.status"},
		s.SharedSelection().Selected())
	assert.Equal(t, 5, s.RequestSelection().Count())
}

func TestApplyFilter_ProjectsThenAligns(t *testing.T) {
	s := New("s1", sampleDocuments(t), zap.NewNop())

	res := s.ApplyFilter([]fieldpath.Path{fieldpath.MustParse("order.status"), fieldpath.MustParse("customer")})

	assert.Equal(t, `{"customer":{"email":"e@x.com"}}`, encoded(t, res.Request))
	assert.Equal(t, `{"order":{"status":"new"},"customer":null}`, encoded(t, res.Before))
	assert.Equal(t, `{"order":{"status":"paid"},"customer":{"email":"e@x.com"}}`, encoded(t, res.After))

	assert.Equal(t, []string{"customer", "order", "order.status"}, s.SharedSelection().Selected())
}

func TestApplyFilter_NeverMutatesRawDocuments(t *testing.T) {
	docs := sampleDocuments(t)
	rawRequest := encoded(t, docs.Request)
	rawBefore := encoded(t, docs.Before)
	rawAfter := encoded(t, docs.After)

	s := New("s1", docs, nil)
	s.ApplyFilter([]fieldpath.Path{fieldpath.MustParse("order"), fieldpath.MustParse("order.id")})
	s.ApplyFilter([]fieldpath.Path{fieldpath.MustParse("metadata")})

	assert.Equal(t, rawRequest, encoded(t, docs.Request))
	assert.Equal(t, rawBefore, encoded(t, docs.Before))
	assert.Equal(t, rawAfter, encoded(t, docs.After))

	// A wider filter after a narrow one still sees the full data.
	res := s.ApplyFilter(nil)
	assert.Equal(t, rawRequest, encoded(t, res.Request))
}

func TestApplyFilter_Deterministic(t *testing.T) {
	s := New("s1", sampleDocuments(t), nil)
	paths := []fieldpath.Path{fieldpath.MustParse("order"), fieldpath.MustParse("customer.email")}

	first := s.ApplyFilter(paths)
	second := s.ApplyFilter(paths)

	assert.Equal(t, encoded(t, first.Request), encoded(t, second.Request))
	assert.Equal(t, encoded(t, first.Before), encoded(t, second.Before))
	assert.Equal(t, encoded(t, first.After), encoded(t, second.After))
}

func TestApplyFilter_ResetsSelectionAndVisibility(t *testing.T) {
	s := New("s1", sampleDocuments(t), nil)
	s.ToggleRequest(fieldpath.MustParse("order"), false)
	s.ToggleShared(fieldpath.MustParse("order"), false)
	require.Equal(t, 4, s.RequestSelection().Count())

	s.ApplyFilter(nil)

	assert.Equal(t, 5, s.RequestSelection().Count())
	visible, found := s.View(visibility.After).IsVisible(fieldpath.MustParse("order.status"))
	require.True(t, found)
	assert.True(t, visible)
}

func TestToggleRequest_CascadesInRequestViewOnly(t *testing.T) {
	s := New("s1", sampleDocuments(t), nil)

	directives := s.ToggleRequest(fieldpath.MustParse("order"), false)
	require.Len(t, directives, 3)
	for _, d := range directives {
		assert.Equal(t, visibility.Request, d.Node.Namespace)
		assert.False(t, d.Visible)
	}

	assert.False(t, s.RequestSelection().IsSelected(fieldpath.MustParse("order")))
	assert.True(t, s.RequestSelection().IsSelected(fieldpath.MustParse("order.id")),
		"selection toggles only the clicked path")

	for _, p := range []string{"order", "order.id", "order.items"} {
		visible, found := s.View(visibility.Request).IsVisible(fieldpath.MustParse(p))
		require.True(t, found)
		assert.False(t, visible, p)
	}
	visible, _ := s.View(visibility.Before).IsVisible(fieldpath.MustParse("order"))
	assert.True(t, visible, "compare views are untouched")
}

func TestToggleShared_DrivesBeforeAndAfter(t *testing.T) {
	s := New("s1", sampleDocuments(t), nil)

	directives := s.ToggleShared(fieldpath.MustParse("customer"), false)

	// customer is null in before, so it has no children there; after
	// holds customer.email.
	got := make([]string, len(directives))
	for i, d := range directives {
		got[i] = d.Node.ElementID()
	}
	assert.Equal(t, []string{"before_customer", "after_customer", "after_customer__email"}, got)
	assert.Equal(t, got, s.SharedTargets(fieldpath.MustParse("customer")))

	visible, _ := s.View(visibility.Before).IsVisible(fieldpath.MustParse("customer"))
	assert.False(t, visible)
	visible, _ = s.View(visibility.After).IsVisible(fieldpath.MustParse("customer.email"))
	assert.False(t, visible)
	assert.Equal(t, 6, s.SharedSelection().Count())

	s.ToggleShared(fieldpath.MustParse("customer"), true)
	visible, _ = s.View(visibility.After).IsVisible(fieldpath.MustParse("customer.email"))
	assert.True(t, visible)
	assert.Equal(t, 7, s.SharedSelection().Count())
}

func TestRequestTargets(t *testing.T) {
	s := New("s1", sampleDocuments(t), nil)
	assert.Equal(t, []string{"req_order", "req_order__id", "req_order__items"}, s.RequestTargets(fieldpath.MustParse("order")))
}

func TestResolveFilter(t *testing.T) {
	presets := config.DefaultPresets()
	presets = append(presets, config.Preset{Name: "Broken", Fields: []string{" "}})

	tests := []struct {
		name    string
		preset  string
		manual  string
		want    []string
		wantErr error
	}{
		{name: "all fields preset", preset: "All fields", want: nil},
		{name: "named preset", preset: "Order Summary", want: []string{"order.id", "order.items", "customer.email"}},
		{name: "manual wins", preset: "Customer Only", manual: "order.id, metadata", want: []string{"order.id", "metadata"}},
		{name: "blank manual falls back", preset: "Customer Only", manual: " , ", want: []string{"customer"}},
		{name: "no preset", want: nil},
		{name: "unknown preset", preset: "Nope", wantErr: errors.ErrUnknownPreset},
		{name: "invalid preset path", preset: "Broken", wantErr: errors.ErrEmptyPath},
		{name: "manual ignores unknown preset", preset: "Nope", manual: "a", want: []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveFilter(presets, tt.preset, tt.manual)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			var strs []string
			for _, p := range got {
				strs = append(strs, p.String())
			}
			assert.Equal(t, tt.want, strs)
		})
	}
}
