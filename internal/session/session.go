// Package session wires projection, alignment, selection and visibility
// into one view of a request/before/after test case.
package session

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mcncl/jsonlens/internal/aligner"
	"github.com/mcncl/jsonlens/internal/config"
	"github.com/mcncl/jsonlens/internal/errors"
	"github.com/mcncl/jsonlens/internal/fieldpath"
	"github.com/mcncl/jsonlens/internal/models"
	"github.com/mcncl/jsonlens/internal/projector"
	"github.com/mcncl/jsonlens/internal/selection"
	"github.com/mcncl/jsonlens/internal/visibility"
)

// Documents are the three raw inputs of a view.
type Documents struct {
	Request models.JSONValue
	Before  models.JSONValue
	After   models.JSONValue
}

// Result holds the documents a filter produced: the projected request and
// the projected, aligned before/after pair.
type Result struct {
	Request models.JSONValue
	Before  models.JSONValue
	After   models.JSONValue
}

// Session owns the raw documents of one view and everything derived from
// them. Derived state is rebuilt from the raw documents by every
// ApplyFilter call. A Session is not safe for concurrent use.
type Session struct {
	id     string
	raw    Documents
	logger *zap.Logger

	filter []fieldpath.Path
	result Result

	requestSelection *selection.State
	sharedSelection  *selection.State

	requestProp *visibility.Propagator
	sharedProp  *visibility.Propagator

	views      map[visibility.Namespace]*visibility.View
	dispatcher *visibility.Dispatcher
}

// New creates a Session over raw and applies the empty filter. A nil logger
// disables logging.
func New(id string, raw Documents, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Session{
		id:     id,
		raw:    raw,
		logger: logger.With(zap.String("session", id)),
	}
	s.ApplyFilter(nil)
	return s
}

// ID returns the identifier given to New.
func (s *Session) ID() string {
	return s.id
}

// ApplyFilter projects deep copies of the raw documents onto paths, aligns
// before and after, and rebuilds both selector trees and all three views
// with every field selected and visible. An empty path list shows
// everything. Repeated calls with the same paths produce identical results.
func (s *Session) ApplyFilter(paths []fieldpath.Path) Result {
	request := projector.Project(models.DeepCopy(s.raw.Request), paths)
	before := projector.Project(models.DeepCopy(s.raw.Before), paths)
	after := projector.Project(models.DeepCopy(s.raw.After), paths)
	pair := aligner.Align(before, after)

	s.filter = append([]fieldpath.Path(nil), paths...)
	s.result = Result{Request: request, Before: pair.Left, After: pair.Right}

	s.requestSelection = selection.Build(request)
	s.sharedSelection = selection.Build(pair.Left)

	s.requestProp = visibility.NewPropagator(
		visibility.Target{Namespace: visibility.Request, Doc: request},
	)
	s.sharedProp = visibility.NewPropagator(
		visibility.Target{Namespace: visibility.Before, Doc: pair.Left},
		visibility.Target{Namespace: visibility.After, Doc: pair.Right},
	)

	s.views = map[visibility.Namespace]*visibility.View{
		visibility.Request: visibility.NewView(visibility.Request, request),
		visibility.Before:  visibility.NewView(visibility.Before, pair.Left),
		visibility.After:   visibility.NewView(visibility.After, pair.Right),
	}
	s.dispatcher = visibility.NewDispatcher()
	for ns, v := range s.views {
		s.dispatcher.Register(ns, v)
	}

	s.logger.Debug("Applied filter",
		zap.Int("paths", len(paths)),
		zap.Int("request_fields", s.requestSelection.Count()),
		zap.Int("shared_fields", s.sharedSelection.Count()),
	)
	return s.result
}

// ToggleRequest records a checkbox change in the request selector and
// cascades visibility through the request view. It returns the directives
// that were dispatched.
func (s *Session) ToggleRequest(path fieldpath.Path, checked bool) []visibility.Directive {
	s.requestSelection.Toggle(path, checked)
	return s.propagate(s.requestProp, path, checked)
}

// ToggleShared records a checkbox change in the shared selector and
// cascades visibility through both the before and the after view.
func (s *Session) ToggleShared(path fieldpath.Path, checked bool) []visibility.Directive {
	s.sharedSelection.Toggle(path, checked)
	return s.propagate(s.sharedProp, path, checked)
}

func (s *Session) propagate(p *visibility.Propagator, path fieldpath.Path, visible bool) []visibility.Directive {
	directives := p.Propagate(path, visible)
	applied := s.dispatcher.Dispatch(directives)
	s.logger.Debug("Toggled field",
		zap.String("path", path.String()),
		zap.Bool("visible", visible),
		zap.Int("directives", len(directives)),
		zap.Int("applied", applied),
	)
	return directives
}

// Result returns the documents produced by the last filter.
func (s *Session) Result() Result {
	return s.result
}

// Filter returns the paths of the last filter; nil means no filtering.
func (s *Session) Filter() []fieldpath.Path {
	return s.filter
}

// RequestSelection returns the request selector state.
func (s *Session) RequestSelection() *selection.State {
	return s.requestSelection
}

// SharedSelection returns the before/after selector state, built from the
// aligned before document.
func (s *Session) SharedSelection() *selection.State {
	return s.sharedSelection
}

// View returns the rendered-instance model for ns.
func (s *Session) View(ns visibility.Namespace) *visibility.View {
	return s.views[ns]
}

// RequestTargets returns the element ids a request toggle at path affects.
func (s *Session) RequestTargets(path fieldpath.Path) []string {
	return elementIDs(s.requestProp.Propagate(path, false))
}

// SharedTargets returns the element ids a shared toggle at path affects in
// both compare views.
func (s *Session) SharedTargets(path fieldpath.Path) []string {
	return elementIDs(s.sharedProp.Propagate(path, false))
}

func elementIDs(ds []visibility.Directive) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.Node.ElementID()
	}
	return out
}

// ResolveFilter chooses the paths for a filter request. A manual,
// comma-separated list wins when it contains at least one non-empty path;
// otherwise the named preset applies. An empty preset name means no
// filtering.
func ResolveFilter(presets []config.Preset, presetName, manual string) ([]fieldpath.Path, error) {
	if manualPaths := fieldpath.ParseList(manual); len(manualPaths) > 0 {
		return manualPaths, nil
	}
	if presetName == "" {
		return nil, nil
	}
	for _, p := range presets {
		if p.Name != presetName {
			continue
		}
		paths, err := fieldpath.ParseAll(p.Fields)
		if err != nil {
			return nil, errors.NewConfigError(fmt.Sprintf("preset %q has an invalid field path", p.Name), err)
		}
		return paths, nil
	}
	return nil, errors.NewInputError(fmt.Sprintf("preset %q is not defined", presetName), errors.ErrUnknownPreset)
}
