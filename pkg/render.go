package treeutils

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// RenderOptions controls tree rendering
type RenderOptions struct {
	Color   bool // apply ANSI colours to markers and names
	Padding int  // connector dash count (0 = default of 2)
}

// DefaultRenderOptions returns the options used when no configuration is given
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{
		Color:   false,
		Padding: 2,
	}
}

// Renderer produces the human-readable indented tree view of a pruned diff
// tree. It consumes only the tree's read contract: Children and the node
// union. One line per entry; directories bold with a trailing slash, file
// records with a one-rune kind marker, renames showing both names.
type Renderer struct {
	w       io.Writer
	padding int

	removed *color.Color
	added   *color.Color
	changed *color.Color
	renamed *color.Color
	dir     *color.Color
}

// NewRenderer creates a renderer writing to w
func NewRenderer(w io.Writer, opts RenderOptions) *Renderer {
	padding := opts.Padding
	if padding <= 0 {
		padding = 2
	}

	r := &Renderer{
		w:       w,
		padding: padding,
		removed: color.New(color.FgHiRed),
		added:   color.New(color.FgHiGreen),
		changed: color.New(color.FgHiYellow),
		renamed: color.New(color.FgHiYellow),
		dir:     color.New(color.Bold),
	}

	// Colour decisions are made per renderer, not via the package-global
	// NO_COLOR detection, so output to buffers stays deterministic.
	for _, c := range []*color.Color{r.removed, r.added, r.changed, r.renamed, r.dir} {
		if opts.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	return r
}

// RenderHeader writes the two-line header identifying the compared roots
func (r *Renderer) RenderHeader(rootA, rootB string) error {
	if _, err := fmt.Fprintf(r.w, "--- %s\n", rootA); err != nil {
		return err
	}
	_, err := fmt.Fprintf(r.w, "+++ %s\n", rootB)
	return err
}

// Render writes the indented tree view of a pruned diff tree
func (r *Renderer) Render(root *DirNode) error {
	if IsDebugEnabled("render") {
		VerboseLog(3, "render: %d top-level entries", root.Len())
	}
	return r.renderLevel(root, "")
}

func (r *Renderer) renderLevel(node *DirNode, prefix string) error {
	children := node.Children()
	for i, child := range children {
		last := i == len(children)-1

		connector := "├"
		if last {
			connector = "└"
		}
		leftAlign := prefix + connector + strings.Repeat("─", r.padding) + " "

		switch n := child.Node.(type) {
		case *FileDiff:
			if _, err := fmt.Fprintf(r.w, "%s%s\n", leftAlign, r.formatFile(child.Name, n)); err != nil {
				return err
			}
		case *DirNode:
			if _, err := fmt.Fprintf(r.w, "%s%s\n", leftAlign, r.dir.Sprintf("%s/", child.Name)); err != nil {
				return err
			}
			continuation := "│"
			if last {
				continuation = " "
			}
			childPrefix := prefix + continuation + strings.Repeat(" ", r.padding+1)
			if err := r.renderLevel(n, childPrefix); err != nil {
				return err
			}
		}
	}
	return nil
}

// formatFile renders the marker and display name for one file record
func (r *Renderer) formatFile(name string, diff *FileDiff) string {
	switch diff.Kind {
	case DiffRemoved:
		return r.removed.Sprintf("- %s", name)
	case DiffAdded:
		return r.added.Sprintf("+ %s", name)
	case DiffChanged:
		return r.changed.Sprintf("~ %s", name)
	case DiffRenamed:
		return r.renamed.Sprintf("> {%s => %s}", diff.RenamedFrom, name)
	default:
		return name
	}
}
