package visibility

import (
	"github.com/mcncl/jsonlens/internal/fieldpath"
	"github.com/mcncl/jsonlens/internal/models"
	"github.com/mcncl/jsonlens/internal/walker"
)

// Node is one rendered field panel of a View.
type Node struct {
	ID      NodeID
	Value   models.JSONValue
	Visible bool
}

// View is the in-memory model of one rendered document instance: one node
// per mapping key, each Visible until a directive hides it.
type View struct {
	namespace Namespace
	nodes     []*Node
	index     map[string]*Node
}

// NewView registers a node for every key of doc, in walk order.
func NewView(ns Namespace, doc models.JSONValue) *View {
	v := &View{namespace: ns, index: make(map[string]*Node)}
	for path, value := range walker.Fields(doc) {
		n := &Node{ID: NodeID{Namespace: ns, Path: path}, Value: value, Visible: true}
		v.nodes = append(v.nodes, n)
		v.index[path.String()] = n
	}
	return v
}

// Namespace returns the namespace the view was created with.
func (v *View) Namespace() Namespace {
	return v.namespace
}

// Apply implements Sink. Directives for another namespace or an unknown
// path are ignored.
func (v *View) Apply(d Directive) bool {
	if d.Node.Namespace != v.namespace {
		return false
	}
	n, ok := v.index[d.Node.Path.String()]
	if !ok {
		return false
	}
	n.Visible = d.Visible
	return true
}

// IsVisible reports the state of the node at path and whether it exists.
func (v *View) IsVisible(path fieldpath.Path) (visible bool, found bool) {
	n, ok := v.index[path.String()]
	if !ok {
		return false, false
	}
	return n.Visible, true
}

// Nodes returns copies of the view's nodes in render order.
func (v *View) Nodes() []Node {
	out := make([]Node, len(v.nodes))
	for i, n := range v.nodes {
		out[i] = *n
	}
	return out
}

// Len returns the number of nodes.
func (v *View) Len() int {
	return len(v.nodes)
}
