package preview

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lepinkainen/entity-forge/pkg/extract"
	"github.com/lepinkainen/entity-forge/pkg/metacache"
)

var kindStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("10"))

var labelStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("14"))

// formatListLine renders one compact list row.
func formatListLine(index int, e extract.Entity) string {
	raw := e.Raw
	if len(raw) > 60 {
		raw = raw[:57] + "..."
	}
	return fmt.Sprintf("%3d. [%-7s] %s", index+1, e.Kind, raw)
}

// formatDetail renders the full detail pane for one entity, including
// resolved metadata for links.
func formatDetail(e extract.Entity, metadata map[string]metacache.Metadata) string {
	var b strings.Builder

	b.WriteString(kindStyle.Render(strings.ToUpper(e.Kind.String())))
	b.WriteString("\n\n")

	b.WriteString(labelStyle.Render("Raw:   "))
	b.WriteString(e.Raw)
	b.WriteString("\n")

	if e.Token() != e.Raw {
		b.WriteString(labelStyle.Render("Token: "))
		b.WriteString(e.Token())
		b.WriteString("\n")
	}

	b.WriteString(labelStyle.Render("Span:  "))
	b.WriteString(fmt.Sprintf("%d–%d", e.Start, e.End))
	b.WriteString("\n")

	if e.Kind != extract.Link {
		return b.String()
	}

	md, ok := metadata[e.Raw]
	if !ok {
		b.WriteString("\nNo metadata resolved for this link.\n")
		return b.String()
	}

	b.WriteString("\n")
	b.WriteString(kindStyle.Render("Metadata"))
	b.WriteString("\n")

	if md.Failed() {
		b.WriteString(labelStyle.Render("error: "))
		b.WriteString(md.Error())
		b.WriteString("\n")
		return b.String()
	}

	keys := make([]string, 0, len(md))
	for key := range md {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-14s", key+":")))
		b.WriteString(md[key])
		b.WriteString("\n")
	}

	return b.String()
}
