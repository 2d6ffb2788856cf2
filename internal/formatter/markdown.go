// Package formatter renders poems and progress tables as markdown.
package formatter

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"poemcoder/internal/models"
)

// FormatMarkdown re-aligns every markdown table in content by display width.
func FormatMarkdown(content string) string {
	lines := strings.Split(content, "\n")

	var formattedLines []string

	var tableBuffer []string

	for _, line := range lines {
		trimmedLine := strings.TrimSpace(line)

		// Simple heuristic: starts and ends with |
		if strings.HasPrefix(trimmedLine, "|") && strings.HasSuffix(trimmedLine, "|") {
			tableBuffer = append(tableBuffer, line)

			continue
		}

		if len(tableBuffer) > 0 {
			formattedLines = append(formattedLines, processTable(tableBuffer)...)
			tableBuffer = nil
		}

		formattedLines = append(formattedLines, line)
	}

	if len(tableBuffer) > 0 {
		formattedLines = append(formattedLines, processTable(tableBuffer)...)
	}

	return strings.Join(formattedLines, "\n")
}

// Table renders headers and rows as an aligned markdown table.
func Table(headers []string, rows [][]string) string {
	lines := make([]string, 0, len(rows)+2)

	lines = append(lines, tableLine(headers))
	lines = append(lines, tableLine(make([]string, len(headers)), "---"))

	for _, row := range rows {
		lines = append(lines, tableLine(row))
	}

	return strings.Join(processTable(lines), "\n")
}

func tableLine(cells []string, fill ...string) string {
	var sb strings.Builder

	sb.WriteString("|")

	for _, cell := range cells {
		if len(fill) > 0 {
			cell = fill[0]
		}

		sb.WriteString(" ")
		sb.WriteString(escapeCell(cell))
		sb.WriteString(" |")
	}

	return sb.String()
}

// escapeCell keeps a value on one line and out of the column syntax.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")

	return strings.ReplaceAll(s, "|", `\|`)
}

// FormatPoem renders extracted metadata and text. The body is fenced so
// line breaks and indentation survive any markdown renderer.
func FormatPoem(meta models.PoemMeta, text models.PoemText) string {
	var sb strings.Builder

	title := meta.Title
	if title == "" {
		title = "Untitled"
	}

	fmt.Fprintf(&sb, "# %s\n\n", title)

	if meta.Author.Name != "" {
		fmt.Fprintf(&sb, "by %s\n\n", meta.Author.Name)
	}

	if text.IsEmpty() {
		sb.WriteString("_Poem text unavailable._\n")
	} else {
		sb.WriteString("```text\n")
		sb.WriteString(text.String())
		sb.WriteString("\n```\n")
	}

	var details [][]string

	if len(meta.Themes) > 0 {
		details = append(details, []string{"Themes", strings.Join(meta.Themes, ", ")})
	}

	if meta.DatePublished != "" {
		details = append(details, []string{"Published", meta.DatePublished})
	}

	if meta.IsPublicDomain.Known() {
		details = append(details, []string{"Public domain", meta.IsPublicDomain.String()})
	}

	if meta.CanonicalURL != "" {
		details = append(details, []string{"Source", meta.CanonicalURL})
	}

	if len(details) > 0 {
		sb.WriteString("\n")
		sb.WriteString(Table([]string{"Field", "Value"}, details))
		sb.WriteString("\n")
	}

	if meta.About != "" {
		fmt.Fprintf(&sb, "\n## About this poem\n\n%s\n", meta.About)
	}

	return sb.String()
}

func processTable(rows []string) []string {
	// needs header + separator
	if len(rows) < 2 {
		return rows
	}

	table := make([][]string, 0, len(rows))

	for _, row := range rows {
		table = append(table, splitRow(row))
	}

	colCount := 0
	for _, row := range table {
		if len(row) > colCount {
			colCount = len(row)
		}
	}

	separatorRowIdx := -1

	isSep := true

	for _, cell := range table[1] {
		trim := strings.NewReplacer("-", "", ":", "", " ", "").Replace(cell)
		if trim != "" {
			isSep = false
			break
		}
	}

	if isSep {
		separatorRowIdx = 1
	}

	colWidths := make([]int, colCount)

	for rIdx, row := range table {
		if rIdx == separatorRowIdx {
			continue
		}

		for i := 0; i < len(row) && i < colCount; i++ {
			if width := runewidth.StringWidth(row[i]); width > colWidths[i] {
				colWidths[i] = width
			}
		}
	}

	for i := range colWidths {
		if colWidths[i] < 3 {
			colWidths[i] = 3
		}
	}

	result := make([]string, 0, len(table))

	for i, row := range table {
		var sb strings.Builder

		sb.WriteString("|")

		for j := 0; j < colCount; j++ {
			sb.WriteString(" ")

			if i == separatorRowIdx {
				sb.WriteString(strings.Repeat("-", colWidths[j]))
			} else {
				content := ""
				if j < len(row) {
					content = row[j]
				}

				sb.WriteString(content)

				if padding := colWidths[j] - runewidth.StringWidth(content); padding > 0 {
					sb.WriteString(strings.Repeat(" ", padding))
				}
			}

			sb.WriteString(" |")
		}

		result = append(result, sb.String())
	}

	return result
}

// splitRow splits a table line on unescaped pipes and trims each cell.
func splitRow(row string) []string {
	row = strings.TrimSpace(row)
	row = strings.TrimPrefix(row, "|")

	if strings.HasSuffix(row, "|") && !strings.HasSuffix(row, `\|`) {
		row = row[:len(row)-1]
	}

	var (
		cells   []string
		current strings.Builder
	)

	for i := 0; i < len(row); i++ {
		switch {
		case row[i] == '\\' && i+1 < len(row) && row[i+1] == '|':
			current.WriteString(`\|`)
			i++
		case row[i] == '|':
			cells = append(cells, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteByte(row[i])
		}
	}

	return append(cells, strings.TrimSpace(current.String()))
}
