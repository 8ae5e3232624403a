package ui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dikkadev/condatui/pkg/environment"
	"github.com/mattn/go-runewidth"
	"github.com/sirupsen/logrus"
)

const (
	expandedGlyph  = "●"
	collapsedGlyph = "○"
)

// EnvironmentSelectedMsg is emitted when an environment node is activated
type EnvironmentSelectedMsg struct {
	Node NodeID
	Env  environment.Environment
}

type labelKey struct {
	id    NodeID
	state NodeState
}

// EnvironmentTree presents the environment catalog as a tree under a
// path-less root node
type EnvironmentTree struct {
	tree    *Tree[environment.Environment]
	catalog environment.Lister
	keys    keyMap
	styles  styles
	mounted bool
	width   int

	labels      map[labelKey]string
	labelMisses int
}

// NewEnvironmentTree creates an unpopulated tree
func NewEnvironmentTree(catalog environment.Lister) *EnvironmentTree {
	return &EnvironmentTree{
		tree:    NewTree(environment.RootLabel, environment.Root()),
		catalog: catalog,
		keys:    defaultKeyMap(),
		styles:  newStyles(),
		labels:  make(map[labelKey]string),
	}
}

// Mount populates the tree from the catalog and expands the root. Only the
// first call queries the catalog.
func (e *EnvironmentTree) Mount() {
	if e.mounted {
		return
	}
	e.mounted = true

	for _, env := range e.catalog.List() {
		label := env.Name
		if label == "" {
			label = env.Path
		}
		if _, err := e.tree.Add(e.tree.Root.ID, label, env); err != nil {
			logrus.Errorf("Failed to add environment node: %v", err)
		}
	}
	e.tree.Expand(e.tree.Root.ID)
}

// Tree exposes the underlying tree control
func (e *EnvironmentTree) Tree() *Tree[environment.Environment] {
	return e.tree
}

// SetSize sets the area available to the tree
func (e *EnvironmentTree) SetSize(width, height int) {
	if width != e.width {
		clear(e.labels)
	}
	e.width = width
	e.tree.SetHeight(height)
}

// Focus gives the tree keyboard focus
func (e *EnvironmentTree) Focus() { e.tree.Focus() }

// Blur removes keyboard focus
func (e *EnvironmentTree) Blur() { e.tree.Blur() }

// Expand expands a node
func (e *EnvironmentTree) Expand(id NodeID) { e.tree.Expand(id) }

// HoverRow marks the node on row as hovered; any other row clears the hover
func (e *EnvironmentTree) HoverRow(row int) {
	if node, ok := e.tree.NodeAtRow(row); ok {
		e.tree.SetHover(node.ID)
		return
	}
	e.tree.SetHover(NoNode)
}

// ClearHover clears the hover state
func (e *EnvironmentTree) ClearHover() {
	e.tree.SetHover(NoNode)
}

// Click activates the node on row
func (e *EnvironmentTree) Click(row int) tea.Cmd {
	node, ok := e.tree.NodeAtRow(row)
	if !ok {
		return nil
	}
	e.tree.SetCursor(node.ID)
	return e.activate(node)
}

// activate toggles path-less nodes and emits a selection for environments
func (e *EnvironmentTree) activate(node *TreeNode[environment.Environment]) tea.Cmd {
	if node.Data.IsRoot() {
		e.tree.Toggle(node.ID)
		return nil
	}

	msg := EnvironmentSelectedMsg{Node: node.ID, Env: node.Data}
	return func() tea.Msg { return msg }
}

// Update handles navigation keys
func (e *EnvironmentTree) Update(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, e.keys.Up):
		e.tree.CursorUp()
	case key.Matches(msg, e.keys.Down):
		e.tree.CursorDown()
	case key.Matches(msg, e.keys.Expand):
		e.tree.Expand(e.tree.Cursor())
	case key.Matches(msg, e.keys.Collapse):
		e.tree.Collapse(e.tree.Cursor())
	case key.Matches(msg, e.keys.Select):
		if node, ok := e.tree.Node(e.tree.Cursor()); ok {
			return e.activate(node)
		}
	}
	return nil
}

// View renders the visible nodes
func (e *EnvironmentTree) View() string {
	return e.tree.Render(e.renderNode)
}

func (e *EnvironmentTree) renderNode(node *TreeNode[environment.Environment], state NodeState) string {
	k := labelKey{id: node.ID, state: state}
	if label, ok := e.labels[k]; ok {
		return label
	}
	e.labelMisses++

	label := e.renderLabel(node, state)
	e.labels[k] = label
	return label
}

// renderLabel shows the pretty path while hovered, otherwise the name and
// then the pretty path, falling back to the node label for the root
func (e *EnvironmentTree) renderLabel(node *TreeNode[environment.Environment], state NodeState) string {
	var text string
	if state.Hover {
		text = node.Data.RPath()
	} else {
		text = node.Data.Label()
	}
	if text == "" {
		text = node.Label
	}

	glyph := collapsedGlyph
	if state.Expanded {
		glyph = expandedGlyph
	}
	text = glyph + " " + text

	if e.width > 0 {
		avail := e.width - 2*node.Depth()
		text = runewidth.Truncate(text, max(avail, 1), "…")
	}

	style := e.styles.treeLabel
	if state.Hover {
		style = style.Inherit(e.styles.treeHover)
	}
	if state.Cursor && state.Focus {
		style = style.Inherit(e.styles.treeCursor)
	}
	return style.Render(text)
}
