package formatter

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const colGap = 2

// RenderTable renders headers, a separator line and rows. Columns are
// padded to their widest visible cell, so styled cells align too.
func RenderTable(st Styler, headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}
	cols := len(headers)

	widths := make([]int, cols)
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i := 0; i < cols && i < len(row); i++ {
			widths[i] = max(widths[i], lipgloss.Width(row[i]))
		}
	}

	var b strings.Builder
	styledHeaders := make([]string, cols)
	for i, h := range headers {
		styledHeaders[i] = st.Header.Render(h)
	}
	writeRow(&b, widths, styledHeaders)

	sep := make([]string, cols)
	for i, w := range widths {
		sep[i] = st.Dim.Render(strings.Repeat("─", w))
	}
	writeRow(&b, widths, sep)

	for _, row := range rows {
		cells := make([]string, cols)
		copy(cells, row)
		writeRow(&b, widths, cells)
	}
	return b.String()
}

func writeRow(b *strings.Builder, widths []int, cells []string) {
	for i, cell := range cells {
		b.WriteString(cell)
		if i < len(cells)-1 {
			pad := max(widths[i]-lipgloss.Width(cell), 0)
			b.WriteString(strings.Repeat(" ", pad+colGap))
		}
	}
	b.WriteString("\n")
}
