// Package walker visits the mapping keys of a JSON document depth-first.
package walker

import (
	"iter"

	"github.com/mcncl/jsonlens/internal/fieldpath"
	"github.com/mcncl/jsonlens/internal/models"
)

// Fields yields every mapping key of doc, at every depth, as its full path
// and value. Keys are visited in document order and each key is yielded
// before its children. Arrays are leaves: keys of objects inside arrays are
// not visited. Each yielded path is a fresh slice the caller may keep.
func Fields(doc models.JSONValue) iter.Seq2[fieldpath.Path, models.JSONValue] {
	return Under(doc, nil)
}

// Under is like Fields but starts below prefix, yielding paths that begin
// with prefix. Nothing is yielded when value is not a mapping.
func Under(value models.JSONValue, prefix fieldpath.Path) iter.Seq2[fieldpath.Path, models.JSONValue] {
	return func(yield func(fieldpath.Path, models.JSONValue) bool) {
		walk(value, prefix, yield)
	}
}

func walk(value models.JSONValue, prefix fieldpath.Path, yield func(fieldpath.Path, models.JSONValue) bool) bool {
	obj, ok := models.AsObject(value)
	if !ok {
		return true
	}
	for _, key := range obj.Keys() {
		child, _ := obj.Get(key)
		path := prefix.Child(key)
		if !yield(path, child) {
			return false
		}
		if !walk(child, path, yield) {
			return false
		}
	}
	return true
}

// Visitor receives one call per mapping key.
type Visitor func(path fieldpath.Path, value models.JSONValue)

// Walk calls visit for every key yielded by Fields.
func Walk(doc models.JSONValue, visit Visitor) {
	for path, value := range Fields(doc) {
		visit(path, value)
	}
}

// Paths collects the paths yielded by Fields.
func Paths(doc models.JSONValue) []fieldpath.Path {
	var out []fieldpath.Path
	for path := range Fields(doc) {
		out = append(out, path)
	}
	return out
}
