package ui

import (
	"fmt"
	"strings"
)

// NodeID identifies a node within one Tree
type NodeID int

// NoNode is the cursor/hover value when no node is targeted
const NoNode NodeID = -1

// TreeNode is a node of a Tree carrying a payload of type T
type TreeNode[T any] struct {
	ID       NodeID
	Label    string
	Data     T
	Expanded bool
	Children []*TreeNode[T]

	parent *TreeNode[T]
}

// Depth returns the distance from the root
func (n *TreeNode[T]) Depth() int {
	depth := 0
	for p := n.parent; p != nil; p = p.parent {
		depth++
	}
	return depth
}

// NodeState is the presentation state a node is rendered in
type NodeState struct {
	Expanded bool
	Cursor   bool
	Hover    bool
	Focus    bool
}

// Tree is an expandable tree control. It keeps the cursor, hover and focus
// state; rendering a node is left to the caller.
type Tree[T any] struct {
	Root *TreeNode[T]

	nodes  map[NodeID]*TreeNode[T]
	nextID NodeID
	cursor NodeID
	hover  NodeID
	focus  bool

	height int // rows available, 0 means unbounded
	offset int // first visible row
}

// NewTree creates a tree holding only a collapsed root
func NewTree[T any](label string, data T) *Tree[T] {
	t := &Tree[T]{
		nodes:  make(map[NodeID]*TreeNode[T]),
		cursor: NoNode,
		hover:  NoNode,
	}
	t.Root = t.newNode(label, data, nil)
	return t
}

func (t *Tree[T]) newNode(label string, data T, parent *TreeNode[T]) *TreeNode[T] {
	node := &TreeNode[T]{ID: t.nextID, Label: label, Data: data, parent: parent}
	t.nodes[node.ID] = node
	t.nextID++
	return node
}

// Add appends a child to the parent node
func (t *Tree[T]) Add(parent NodeID, label string, data T) (*TreeNode[T], error) {
	p, ok := t.nodes[parent]
	if !ok {
		return nil, fmt.Errorf("unknown parent node %d", parent)
	}
	node := t.newNode(label, data, p)
	p.Children = append(p.Children, node)
	return node, nil
}

// Node looks a node up by id
func (t *Tree[T]) Node(id NodeID) (*TreeNode[T], bool) {
	node, ok := t.nodes[id]
	return node, ok
}

// Len returns the number of nodes including the root
func (t *Tree[T]) Len() int {
	return len(t.nodes)
}

// Expand expands the node
func (t *Tree[T]) Expand(id NodeID) {
	if node, ok := t.nodes[id]; ok {
		node.Expanded = true
	}
}

// Collapse collapses the node. A cursor or hover inside the hidden subtree
// moves to the collapsed node.
func (t *Tree[T]) Collapse(id NodeID) {
	node, ok := t.nodes[id]
	if !ok {
		return
	}
	node.Expanded = false
	if t.isDescendant(t.cursor, node) {
		t.cursor = node.ID
	}
	if t.isDescendant(t.hover, node) {
		t.hover = NoNode
	}
	t.clampOffset()
}

// Toggle flips the expanded state of the node
func (t *Tree[T]) Toggle(id NodeID) {
	node, ok := t.nodes[id]
	if !ok {
		return
	}
	if node.Expanded {
		t.Collapse(id)
	} else {
		t.Expand(id)
	}
}

func (t *Tree[T]) isDescendant(id NodeID, ancestor *TreeNode[T]) bool {
	node, ok := t.nodes[id]
	if !ok {
		return false
	}
	for p := node.parent; p != nil; p = p.parent {
		if p == ancestor {
			return true
		}
	}
	return false
}

// Visible returns the nodes that are shown, depth first
func (t *Tree[T]) Visible() []*TreeNode[T] {
	var out []*TreeNode[T]
	var walk func(*TreeNode[T])
	walk = func(n *TreeNode[T]) {
		out = append(out, n)
		if !n.Expanded {
			return
		}
		for _, child := range n.Children {
			walk(child)
		}
	}
	walk(t.Root)
	return out
}

// NodeAtRow returns the node displayed on the given screen row
func (t *Tree[T]) NodeAtRow(row int) (*TreeNode[T], bool) {
	if row < 0 || (t.height > 0 && row >= t.height) {
		return nil, false
	}
	visible := t.Visible()
	idx := row + t.offset
	if idx >= len(visible) {
		return nil, false
	}
	return visible[idx], true
}

// Cursor returns the node under the keyboard cursor, or NoNode
func (t *Tree[T]) Cursor() NodeID { return t.cursor }

// SetCursor moves the cursor to the node
func (t *Tree[T]) SetCursor(id NodeID) {
	if _, ok := t.nodes[id]; !ok && id != NoNode {
		return
	}
	t.cursor = id
	t.scrollToCursor()
}

// CursorUp moves the cursor to the previous visible node
func (t *Tree[T]) CursorUp() {
	t.moveCursor(-1)
}

// CursorDown moves the cursor to the next visible node
func (t *Tree[T]) CursorDown() {
	t.moveCursor(1)
}

func (t *Tree[T]) moveCursor(delta int) {
	visible := t.Visible()
	if len(visible) == 0 {
		return
	}

	idx := -1
	for i, node := range visible {
		if node.ID == t.cursor {
			idx = i
			break
		}
	}

	switch {
	case idx == -1:
		idx = 0
	default:
		idx += delta
	}
	idx = max(0, min(idx, len(visible)-1))

	t.cursor = visible[idx].ID
	t.scrollToCursor()
}

// Hover returns the node under the mouse, or NoNode
func (t *Tree[T]) Hover() NodeID { return t.hover }

// SetHover sets the node under the mouse
func (t *Tree[T]) SetHover(id NodeID) {
	t.hover = id
}

// Focused reports whether the tree has keyboard focus
func (t *Tree[T]) Focused() bool { return t.focus }

// Focus gives the tree keyboard focus
func (t *Tree[T]) Focus() { t.focus = true }

// Blur removes keyboard focus
func (t *Tree[T]) Blur() { t.focus = false }

// SetHeight limits the number of rendered rows
func (t *Tree[T]) SetHeight(h int) {
	t.height = max(h, 0)
	t.scrollToCursor()
}

// State returns the presentation state of a node
func (t *Tree[T]) State(node *TreeNode[T]) NodeState {
	return NodeState{
		Expanded: node.Expanded,
		Cursor:   node.ID == t.cursor,
		Hover:    node.ID == t.hover,
		Focus:    t.focus,
	}
}

// Render renders the visible window of nodes, one per line, indented by depth
func (t *Tree[T]) Render(render func(node *TreeNode[T], state NodeState) string) string {
	visible := t.Visible()
	end := len(visible)
	if t.height > 0 {
		end = min(end, t.offset+t.height)
	}

	var b strings.Builder
	for i := t.offset; i < end; i++ {
		node := visible[i]
		if i > t.offset {
			b.WriteByte('\n')
		}
		b.WriteString(strings.Repeat("  ", node.Depth()))
		b.WriteString(render(node, t.State(node)))
	}
	return b.String()
}

func (t *Tree[T]) scrollToCursor() {
	if t.height == 0 || t.cursor == NoNode {
		t.clampOffset()
		return
	}

	for i, node := range t.Visible() {
		if node.ID != t.cursor {
			continue
		}
		if i < t.offset {
			t.offset = i
		}
		if i >= t.offset+t.height {
			t.offset = i - t.height + 1
		}
		break
	}
	t.clampOffset()
}

func (t *Tree[T]) clampOffset() {
	if t.height == 0 {
		t.offset = 0
		return
	}
	maxOffset := max(len(t.Visible())-t.height, 0)
	t.offset = max(0, min(t.offset, maxOffset))
}
