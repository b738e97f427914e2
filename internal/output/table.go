package output

import (
	"io"
	"strings"
	"unicode/utf8"
)

// ellipsis marks a cell shortened by MaxWidth.
const ellipsis = "…"

// Table renders columns for text output. Widths are counted in runes so
// bookmark titles and file names with accents still line up.
type Table struct {
	headers  []string
	rows     [][]string
	right    map[int]bool
	maxWidth map[int]int
}

// NewTable creates a table with the given headers.
func NewTable(headers ...string) *Table {
	return &Table{
		headers:  headers,
		right:    map[int]bool{},
		maxWidth: map[int]int{},
	}
}

// AddRow adds a row. Missing cells render empty.
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// AlignRight right-aligns the given columns, for counts and sizes.
func (t *Table) AlignRight(cols ...int) *Table {
	for _, c := range cols {
		t.right[c] = true
	}
	return t
}

// MaxWidth caps a column. Longer cells keep their end, since the tail of a
// path is the part that tells backups apart.
func (t *Table) MaxWidth(col, width int) *Table {
	if width > utf8.RuneCountInString(ellipsis) {
		t.maxWidth[col] = width
	}
	return t
}

// Len returns the number of rows added.
func (t *Table) Len() int {
	return len(t.rows)
}

// Render writes the header, a dashed rule and the rows.
func (t *Table) Render(w io.Writer) error {
	if len(t.headers) == 0 && len(t.rows) == 0 {
		return nil
	}

	rows := make([][]string, 0, len(t.rows)+1)
	rows = append(rows, t.headers)
	for _, row := range t.rows {
		rows = append(rows, t.clip(row))
	}
	widths := columnWidths(rows)

	var sb strings.Builder
	for i, row := range rows {
		t.writeRow(&sb, row, widths)
		if i == 0 {
			rule := make([]string, len(widths))
			for c, width := range widths {
				rule[c] = strings.Repeat("-", width)
			}
			sb.WriteString(strings.Join(rule, "  ") + "\n")
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// String returns the rendered table.
func (t *Table) String() string {
	var sb strings.Builder
	_ = t.Render(&sb)
	return sb.String()
}

func (t *Table) clip(row []string) []string {
	out := make([]string, len(row))
	for i, cell := range row {
		limit, ok := t.maxWidth[i]
		if !ok || utf8.RuneCountInString(cell) <= limit {
			out[i] = cell
			continue
		}
		runes := []rune(cell)
		keep := limit - utf8.RuneCountInString(ellipsis)
		out[i] = ellipsis + string(runes[len(runes)-keep:])
	}
	return out
}

func columnWidths(rows [][]string) []int {
	var cols int
	for _, row := range rows {
		cols = max(cols, len(row))
	}
	widths := make([]int, cols)
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], utf8.RuneCountInString(cell))
		}
	}
	return widths
}

func (t *Table) writeRow(sb *strings.Builder, cells []string, widths []int) {
	parts := make([]string, len(widths))
	for i, width := range widths {
		var cell string
		if i < len(cells) {
			cell = cells[i]
		}
		pad := strings.Repeat(" ", width-utf8.RuneCountInString(cell))
		if t.right[i] {
			parts[i] = pad + cell
		} else {
			parts[i] = cell + pad
		}
	}
	sb.WriteString(strings.TrimRight(strings.Join(parts, "  "), " ") + "\n")
}
