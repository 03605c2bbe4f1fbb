// Package fieldpath addresses subtrees of a JSON document with dotted paths
// such as "order.customer.email".
package fieldpath

import (
	"fmt"
	"slices"
	"strings"

	"github.com/mcncl/jsonlens/internal/errors"
	"github.com/mcncl/jsonlens/internal/models"
)

// Separator joins path segments in the canonical string form.
const Separator = "."

// Path is an ordered, non-empty sequence of mapping keys. Every segment is
// treated as a mapping key; arrays are never indexed.
type Path []string

// Parse splits a dotted path string into its segments. Surrounding
// whitespace is trimmed; a string that is empty after trimming fails with
// errors.ErrEmptyPath.
func Parse(s string) (Path, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil, errors.NewPathError(fmt.Sprintf("path %q has no segments", s), errors.ErrEmptyPath)
	}
	return Path(strings.Split(trimmed, Separator)), nil
}

// MustParse is like Parse but panics on error. Intended for literals.
func MustParse(s string) Path {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

// ParseAll parses every string in order, stopping at the first failure.
func ParseAll(paths []string) ([]Path, error) {
	out := make([]Path, 0, len(paths))
	for _, s := range paths {
		p, err := Parse(s)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// ParseList parses a comma-separated list of paths as typed into a manual
// filter box. Empty tokens are dropped rather than reported.
func ParseList(s string) []Path {
	var out []Path
	for _, token := range strings.Split(s, ",") {
		p, err := Parse(token)
		if err != nil {
			continue
		}
		out = append(out, p)
	}
	return out
}

// String renders the canonical dotted form.
func (p Path) String() string {
	return strings.Join(p, Separator)
}

// Child returns a new path with key appended. The receiver is not modified.
func (p Path) Child(key string) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, key)
}

// Equal reports whether both paths have the same segments.
func (p Path) Equal(other Path) bool {
	return slices.Equal(p, other)
}

// HasPrefix reports whether prefix is equal to, or an ancestor of, p.
func (p Path) HasPrefix(prefix Path) bool {
	return len(prefix) <= len(p) && slices.Equal(p[:len(prefix)], prefix)
}

// Read returns the subtree of doc at path. The boolean is false when any
// step meets a non-mapping value or a missing key; that is an expected
// outcome for partially shaped documents, not an error.
func Read(doc models.JSONValue, path Path) (models.JSONValue, bool) {
	cur := doc
	for _, key := range path {
		obj, ok := models.AsObject(cur)
		if !ok {
			return nil, false
		}
		cur, ok = obj.Get(key)
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Write stores value at path inside target, creating intermediate mappings
// as needed.
//
// Writes are order-sensitive: an intermediate key that holds a non-mapping
// value is replaced with a fresh empty mapping, so a later write may discard
// whatever an earlier write placed there. Last write wins.
func Write(target *models.JSONObject, path Path, value models.JSONValue) {
	if len(path) == 0 {
		return
	}
	cur := target
	for _, key := range path[:len(path)-1] {
		existing, _ := cur.Get(key)
		next, ok := models.AsObject(existing)
		if !ok {
			next = models.NewObject()
			cur.Set(key, next)
		}
		cur = next
	}
	cur.Set(path[len(path)-1], value)
}
