package app

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/chriscorrea/dendro/internal/taxonomy"
)

// OutputFormat defines how the tree is rendered.
type OutputFormat int

const (
	// JSON is the TaxonomyNode document (default).
	JSON OutputFormat = iota
	// Text is an indented plain text tree.
	Text
	// Markdown is a nested bullet outline.
	Markdown
)

// String returns the string representation of the output format.
func (f OutputFormat) String() string {
	switch f {
	case JSON:
		return "JSON"
	case Text:
		return "Text"
	case Markdown:
		return "Markdown"
	default:
		return "Unknown"
	}
}

// Render formats tree for output.
func Render(tree *taxonomy.Node, format OutputFormat) (string, error) {
	if tree == nil {
		return "", fmt.Errorf("nothing to render")
	}
	switch format {
	case JSON:
		data, err := json.MarshalIndent(tree, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to encode tree: %w", err)
		}
		return string(data) + "\n", nil
	case Text:
		var b strings.Builder
		writeText(&b, tree, 0)
		return b.String(), nil
	case Markdown:
		var b strings.Builder
		writeMarkdown(&b, tree, 0)
		return b.String(), nil
	default:
		return "", fmt.Errorf("unknown output format %d", format)
	}
}

func writeText(b *strings.Builder, n *taxonomy.Node, depth int) {
	indent := strings.Repeat("  ", depth)
	if n.IsLeaf() {
		fmt.Fprintf(b, "%s- %s\n", indent, n.Name)
		return
	}
	fmt.Fprintf(b, "%s+ %s%s\n", indent, n.Name, details(n))
	for _, c := range n.Children {
		writeText(b, c, depth+1)
	}
}

func writeMarkdown(b *strings.Builder, n *taxonomy.Node, depth int) {
	indent := strings.Repeat("  ", depth)
	if n.IsLeaf() {
		text := n.FullText
		if text == "" {
			text = n.Name
		}
		fmt.Fprintf(b, "%s- %s\n", indent, strings.Join(strings.Fields(text), " "))
		return
	}
	fmt.Fprintf(b, "%s- **%s**%s\n", indent, n.Name, details(n))
	for _, c := range n.Children {
		writeMarkdown(b, c, depth+1)
	}
}

// details is the "(height 0.412, 3 items)" suffix of a cluster line.
func details(n *taxonomy.Node) string {
	items := len(n.Leaves())
	if n.Height == nil {
		return fmt.Sprintf(" (%d items)", items)
	}
	return fmt.Sprintf(" (height %.3f, %d items)", *n.Height, items)
}
