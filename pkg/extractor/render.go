package extractor

import (
	"strings"

	"github.com/xhad/giavang/internal/models"
)

// Render assembles the summary: title, up to two tables, the "cập nhật" note,
// then the agent hint. Sections are separated by a blank line.
func Render(page models.Page) string {
	if page.TableCount == 0 {
		return NoTableMessage
	}

	candidates := []string{page.Title}
	for _, t := range page.Tables {
		candidates = append(candidates, RenderTable(t))
	}
	if page.UpdatedNote != "" {
		candidates = append(candidates, UpdatedNotePrefix+page.UpdatedNote)
	}

	var parts []string
	for _, p := range candidates {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return NoDataMessage
	}

	return strings.Join(parts, "\n\n") + "\n\n" + AgentHint
}

// RenderTable returns "" for a table without rows.
func RenderTable(t models.Table) string {
	if t.Empty {
		return ""
	}

	var lines []string
	if t.Heading != "" {
		lines = append(lines, "## "+t.Heading)
	}

	if len(t.Header) > 0 {
		lines = append(lines, row(t.Header))
		sep := make([]string, len(t.Header))
		for i := range sep {
			sep[i] = "---"
		}
		lines = append(lines, row(sep))
	}

	for _, r := range t.Rows {
		if len(r) > 0 {
			lines = append(lines, row(r))
		}
	}

	return strings.Join(lines, "\n")
}

func row(cells []string) string {
	return "| " + strings.Join(cells, " | ") + " |"
}
