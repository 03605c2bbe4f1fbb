// Package visibility turns selector toggles into show/hide directives for
// rendered document views.
//
// Views are addressed by (namespace, path) so that the same field can be
// shown in one view and hidden in another. Propagation only produces
// directives; applying them to a rendering surface is done through a Sink,
// which keeps the cascade rules testable without one.
package visibility

import (
	"strings"

	"github.com/mcncl/jsonlens/internal/fieldpath"
	"github.com/mcncl/jsonlens/internal/models"
	"github.com/mcncl/jsonlens/internal/walker"
)

// Namespace identifies one rendered document instance.
type Namespace string

const (
	Request Namespace = "req"
	Before  Namespace = "before"
	After   Namespace = "after"
)

// NodeID addresses a single rendered field.
type NodeID struct {
	Namespace Namespace
	Path      fieldpath.Path
}

// ElementID is the identifier used for the node in rendered markup:
// the namespace, an underscore, then the path segments joined by "__".
// Segments that could blur that separator are escaped (see elementSegment),
// so distinct paths never share an id.
func (id NodeID) ElementID() string {
	segs := make([]string, len(id.Path))
	for i, seg := range id.Path {
		segs[i] = elementSegment(seg)
	}
	return string(id.Namespace) + "_" + strings.Join(segs, "__")
}

// elementSegment escapes one path segment for ElementID. "%" is always
// written as "%25". A segment that is empty, contains "__", or starts or
// ends with "_" additionally has every "_" written as "%5F", and the empty
// segment becomes "%". Any other segment, such as "paid_at", is kept as is.
func elementSegment(seg string) string {
	seg = strings.ReplaceAll(seg, "%", "%25")
	switch {
	case seg == "":
		return "%"
	case strings.Contains(seg, "__"), strings.HasPrefix(seg, "_"), strings.HasSuffix(seg, "_"):
		return strings.ReplaceAll(seg, "_", "%5F")
	default:
		return seg
	}
}

func (id NodeID) String() string {
	return string(id.Namespace) + ":" + id.Path.String()
}

// Directive sets the visibility of one node.
type Directive struct {
	Node    NodeID
	Visible bool
}

// Sink receives directives. Apply reports whether the node exists; a
// directive for an unknown node must be ignored, not treated as an error.
type Sink interface {
	Apply(d Directive) bool
}

// Target is a rendered instance a Propagator cascades into, together with
// the document that instance renders.
type Target struct {
	Namespace Namespace
	Doc       models.JSONValue
}

// Propagator computes the directives produced by toggling one selector
// path. A Propagator with several targets drives all of them to the same
// state.
type Propagator struct {
	targets []Target
}

// NewPropagator creates a Propagator over the given targets.
func NewPropagator(targets ...Target) *Propagator {
	return &Propagator{targets: targets}
}

// Propagate returns, for every target in order, a directive for path itself
// followed by one for each key under path in that target's document.
// Descendants come from walking the target's own data, so a target whose
// document lacks path only receives the directive for path.
func (p *Propagator) Propagate(path fieldpath.Path, visible bool) []Directive {
	var out []Directive
	for _, t := range p.targets {
		out = append(out, Cascade(t.Namespace, t.Doc, path, visible)...)
	}
	return out
}

// Cascade returns the directives for path and all its descendants in doc.
func Cascade(ns Namespace, doc models.JSONValue, path fieldpath.Path, visible bool) []Directive {
	out := []Directive{{Node: NodeID{Namespace: ns, Path: path}, Visible: visible}}
	subtree, found := fieldpath.Read(doc, path)
	if !found {
		return out
	}
	for child := range walker.Under(subtree, path) {
		out = append(out, Directive{Node: NodeID{Namespace: ns, Path: child}, Visible: visible})
	}
	return out
}

// Dispatcher routes directives to the sink registered for their namespace.
type Dispatcher struct {
	sinks map[Namespace]Sink
}

// NewDispatcher creates a Dispatcher with no sinks.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{sinks: make(map[Namespace]Sink)}
}

// Register routes directives for ns to sink, replacing any earlier sink.
func (d *Dispatcher) Register(ns Namespace, sink Sink) {
	d.sinks[ns] = sink
}

// Dispatch applies each directive and returns how many reached an existing
// node. Directives for namespaces without a sink are dropped.
func (d *Dispatcher) Dispatch(directives []Directive) int {
	applied := 0
	for _, dir := range directives {
		sink, ok := d.sinks[dir.Node.Namespace]
		if !ok {
			continue
		}
		if sink.Apply(dir) {
			applied++
		}
	}
	return applied
}
