// Package projector narrows a JSON document down to a list of field paths.
package projector

import (
	"github.com/mcncl/jsonlens/internal/fieldpath"
	"github.com/mcncl/jsonlens/internal/models"
)

// Project returns a document holding only the subtrees of doc found at the
// given paths, nested exactly as in doc.
//
// An empty path list returns doc unchanged, as does a doc whose root is not a
// mapping. Paths absent from doc are skipped. The whole subtree under a
// matched path is kept. Paths are applied in order and later paths may
// overwrite structure written by earlier ones (see fieldpath.Write), so the
// result depends on list order when paths overlap.
//
// Matched subtrees are copied; the result never shares mappings with doc.
func Project(doc models.JSONValue, paths []fieldpath.Path) models.JSONValue {
	if len(paths) == 0 {
		return doc
	}
	if !models.IsObject(doc) {
		return doc
	}

	result := models.NewObject()
	for _, path := range paths {
		subtree, found := fieldpath.Read(doc, path)
		if !found {
			continue
		}
		fieldpath.Write(result, path, models.DeepCopy(subtree))
	}
	return result
}
