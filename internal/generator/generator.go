package generator

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"

	json "github.com/go-json-experiment/json"

	"github.com/mcncl/jsonlens/internal/config"
	"github.com/mcncl/jsonlens/internal/errors"
	"github.com/mcncl/jsonlens/internal/fieldpath"
	"github.com/mcncl/jsonlens/internal/parser"
	"github.com/mcncl/jsonlens/internal/selection"
	"github.com/mcncl/jsonlens/internal/session"
	"github.com/mcncl/jsonlens/internal/visibility"
)

// Selector scopes. Checkboxes carry them as data-scope and the page posts
// them back with every live toggle; they also prefix the summary element ids.
const (
	ScopeRequest = "request"
	ScopeShared  = "shared"
)

//go:embed templates/page.html.tmpl
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/page.html.tmpl"))

// Page is the data rendered into the page template.
type Page struct {
	Title             string
	Live              bool
	SessionID         string
	ToggleURL         string
	FilterAction      string
	FilterDescription string
	ManualFilter      string
	Presets           []PresetOption
	Request           Tab
	Compare           Tab
}

// PresetOption is one entry of the preset drop-down.
type PresetOption struct {
	Name     string
	Selected bool
}

// Tab is one selector tree with its summary and rendered panels.
type Tab struct {
	Scope       string
	Summary     string
	Selected    []string
	Selector    []*SelectorNode
	Panels      []Panel
	AfterPanels []Panel
}

// SelectorNode is one checkbox of a selector tree.
type SelectorNode struct {
	Scope    string
	Key      string
	Path     string
	Checked  bool
	Targets  string // JSON array of element ids the checkbox cascades to
	Children []*SelectorNode
}

// Panel is one rendered field: its label and pretty-printed value.
type Panel struct {
	ID     string
	Label  string
	JSON   string
	Hidden bool
}

// Options select how a page is rendered.
type Options struct {
	Title        string
	Presets      []config.Preset
	ActivePreset string
	ManualFilter string
	// SessionID, when set, renders a live page whose toggles and filters
	// are sent to the server instead of being applied in the browser.
	SessionID    string
	ToggleURL    string
	FilterAction string
}

// Generator renders test-case pages
type Generator struct{}

// NewGenerator creates a new Generator instance
func NewGenerator() *Generator {
	return &Generator{}
}

// GeneratePage renders the page for s.
func (g *Generator) GeneratePage(s *session.Session, opts Options) (string, error) {
	page, err := g.BuildPage(s, opts)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, page); err != nil {
		return "", errors.NewRenderError(fmt.Sprintf("failed to render page for '%s'", opts.Title), err)
	}
	return buf.String(), nil
}

// BuildPage collects the template data for s.
func (g *Generator) BuildPage(s *session.Session, opts Options) (Page, error) {
	page := Page{
		Title:             opts.Title,
		Live:              opts.SessionID != "",
		SessionID:         opts.SessionID,
		ToggleURL:         opts.ToggleURL,
		FilterAction:      opts.FilterAction,
		FilterDescription: describeFilter(s.Filter(), opts),
		ManualFilter:      opts.ManualFilter,
	}
	for _, p := range opts.Presets {
		page.Presets = append(page.Presets, PresetOption{Name: p.Name, Selected: p.Name == opts.ActivePreset})
	}

	var err error
	page.Request, err = buildTab(ScopeRequest, s.RequestSelection(), s.RequestTargets)
	if err != nil {
		return Page{}, err
	}
	if page.Request.Panels, err = buildPanels(s.View(visibility.Request)); err != nil {
		return Page{}, err
	}

	page.Compare, err = buildTab(ScopeShared, s.SharedSelection(), s.SharedTargets)
	if err != nil {
		return Page{}, err
	}
	if page.Compare.Panels, err = buildPanels(s.View(visibility.Before)); err != nil {
		return Page{}, err
	}
	if page.Compare.AfterPanels, err = buildPanels(s.View(visibility.After)); err != nil {
		return Page{}, err
	}
	return page, nil
}

func describeFilter(filter []fieldpath.Path, opts Options) string {
	if len(filter) == 0 {
		return "all fields"
	}
	parts := make([]string, len(filter))
	for i, p := range filter {
		parts[i] = p.String()
	}
	desc := strings.Join(parts, ", ")
	if opts.ManualFilter == "" && opts.ActivePreset != "" {
		desc = opts.ActivePreset + " (" + desc + ")"
	}
	return desc
}

// buildTab nests the state's fields into a checkbox tree. Fields arrive in
// depth-first order, so each field's parent is the nearest shallower field
// on the stack.
func buildTab(scope string, state *selection.State, targets func(fieldpath.Path) []string) (Tab, error) {
	tab := Tab{
		Scope:    scope,
		Summary:  state.Label(),
		Selected: state.Selected(),
	}

	var stack []*SelectorNode
	for _, path := range state.Fields() {
		ids, err := json.Marshal(targets(path))
		if err != nil {
			return Tab{}, errors.NewRenderError(fmt.Sprintf("failed to encode targets of '%s'", path), err)
		}
		node := &SelectorNode{
			Scope:   scope,
			Key:     path[len(path)-1],
			Path:    path.String(),
			Checked: state.IsSelected(path),
			Targets: string(ids),
		}

		depth := len(path) - 1
		stack = stack[:min(depth, len(stack))]
		if depth == 0 || len(stack) == 0 {
			tab.Selector = append(tab.Selector, node)
		} else {
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, node)
		}
		stack = append(stack, node)
	}
	return tab, nil
}

func buildPanels(v *visibility.View) ([]Panel, error) {
	nodes := v.Nodes()
	panels := make([]Panel, 0, len(nodes))
	for _, n := range nodes {
		pretty, err := parser.EncodeIndent(n.Value, "  ")
		if err != nil {
			return nil, errors.NewRenderError(fmt.Sprintf("failed to encode '%s'", n.ID), err)
		}
		panels = append(panels, Panel{
			ID:     n.ID.ElementID(),
			Label:  n.ID.Path.String(),
			JSON:   string(pretty),
			Hidden: !n.Visible,
		})
	}
	return panels, nil
}
