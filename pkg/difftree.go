package treeutils

import "sort"

// DiffKind classifies a single differing entry.
type DiffKind int

const (
	DiffRemoved DiffKind = iota
	DiffAdded
	DiffChanged
	DiffRenamed
)

// String returns the lowercase name of the kind
func (k DiffKind) String() string {
	switch k {
	case DiffRemoved:
		return "removed"
	case DiffAdded:
		return "added"
	case DiffChanged:
		return "changed"
	case DiffRenamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// Node is one child of a directory node in the result tree: either a *DirNode
// or a *FileDiff. The unexported method keeps the union sealed; render and
// prune resolve the variant with a type switch.
type Node interface {
	node()
}

// FileDiff records one classified entry. Created once by the walker and never
// mutated; a Removed record may be deleted from its parent when a rename
// correlation supersedes it.
type FileDiff struct {
	Kind DiffKind
	// RenamedFrom names the same-level entry this entry's content matched.
	// Non-empty if and only if Kind is DiffRenamed.
	RenamedFrom string
}

func (*FileDiff) node() {}

// DirNode represents one directory of the comparison result. Directories and
// file records share a single child mapping, so a name appears at most once.
type DirNode struct {
	children map[string]Node
}

func (*DirNode) node() {}

// NewDirNode creates an empty directory node
func NewDirNode() *DirNode {
	return &DirNode{children: make(map[string]Node)}
}

// AddFile inserts a file diff record under name, overwriting any prior child
func (n *DirNode) AddFile(name string, diff *FileDiff) {
	n.children[name] = diff
}

// RemoveFile deletes the record stored under name. Used when a Removed record
// is superseded by a rename correlation.
func (n *DirNode) RemoveFile(name string) {
	delete(n.children, name)
}

// Dir returns the child directory node under name, creating it if absent.
// Any non-directory child under that name is replaced, preserving the
// single-mapping invariant.
func (n *DirNode) Dir(name string) *DirNode {
	if child, ok := n.children[name].(*DirNode); ok {
		return child
	}
	child := NewDirNode()
	n.children[name] = child
	return child
}

// Len returns the number of direct children
func (n *DirNode) Len() int {
	return len(n.children)
}

// Prune removes child directories that end up containing zero entries after
// their own subtrees are pruned. Bottom-up, post-order; idempotent, since a
// second pass finds nothing newly empty.
func (n *DirNode) Prune() {
	for name, child := range n.children {
		if dir, ok := child.(*DirNode); ok {
			dir.Prune()
			if dir.Len() == 0 {
				delete(n.children, name)
			}
		}
	}
}

// ChildEntry pairs a child node with its name for ordered iteration.
type ChildEntry struct {
	Name string
	Node Node
}

// Children returns the direct children sorted by name, directories and file
// records merged. This is the render-facing read contract; output ordering is
// purely name-sorted, independent of traversal order.
func (n *DirNode) Children() []ChildEntry {
	entries := make([]ChildEntry, 0, len(n.children))
	for name, child := range n.children {
		entries = append(entries, ChildEntry{Name: name, Node: child})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}
