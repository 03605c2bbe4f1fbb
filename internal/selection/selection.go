// Package selection tracks which fields of a rendered document are checked.
package selection

import (
	"fmt"
	"slices"

	"github.com/mcncl/jsonlens/internal/fieldpath"
	"github.com/mcncl/jsonlens/internal/models"
	"github.com/mcncl/jsonlens/internal/walker"
)

// State is the set of selected field paths of one selector tree. A State
// belongs to a single view; it is rebuilt, never reused, when the view's
// document changes.
type State struct {
	selected map[string]struct{}
	// all remembers every field the State was built from, in walk order.
	all []fieldpath.Path
}

// Build returns a State with every mapping key of doc selected. Keys inside
// arrays are not part of the tree.
func Build(doc models.JSONValue) *State {
	s := &State{selected: make(map[string]struct{})}
	for path := range walker.Fields(doc) {
		s.all = append(s.all, path)
		s.selected[path.String()] = struct{}{}
	}
	return s
}

// Toggle selects path when checked is true and deselects it otherwise.
// Descendants are not touched; cascading is the caller's concern.
func (s *State) Toggle(path fieldpath.Path, checked bool) {
	key := path.String()
	if checked {
		s.selected[key] = struct{}{}
		return
	}
	delete(s.selected, key)
}

// IsSelected reports whether path is currently selected.
func (s *State) IsSelected(path fieldpath.Path) bool {
	_, ok := s.selected[path.String()]
	return ok
}

// Count returns the number of selected paths.
func (s *State) Count() int {
	return len(s.selected)
}

// Selected returns the selected paths in their canonical string form,
// sorted.
func (s *State) Selected() []string {
	out := make([]string, 0, len(s.selected))
	for key := range s.selected {
		out = append(out, key)
	}
	slices.Sort(out)
	return out
}

// Fields returns every path the State was built from, in walk order.
func (s *State) Fields() []fieldpath.Path {
	return slices.Clone(s.all)
}

// Label is the summary heading shown above a selector tree.
func (s *State) Label() string {
	return fmt.Sprintf("Selected fields (%d)", s.Count())
}
