package table

import "strings"

// FirstRow is the 1-based sheet row of the first grid row. Ranges are read
// from row 1.
const FirstRow = 1

// Row is one normalized data row. Values has exactly one entry per header.
type Row struct {
	SheetRow int // 1-based row number in the sheet the row was read from
	Values   map[string]string
}

// Get returns the trimmed value for a column, or "" when the column is unknown.
func (r Row) Get(column string) string {
	return strings.TrimSpace(r.Values[column])
}

// Has reports whether the row carries a non-blank value for column.
func (r Row) Has(column string) bool {
	return r.Get(column) != ""
}

// Table is a grid normalized against its header row.
type Table struct {
	Headers []string
	Rows    []Row
}

// Column returns the zero-based index of a header, or -1.
func (t Table) Column(name string) int {
	for i, h := range t.Headers {
		if strings.TrimSpace(h) == name {
			return i
		}
	}
	return -1
}

// Normalize turns a raw grid into a Table. Blank rows above the header are
// skipped; the first non-blank row is the header. Data rows whose cells are
// all blank are dropped, the rest are padded or truncated to the header
// length. ok is false when there is no header or no data row left, which
// callers treat as an empty cycle rather than an error.
func Normalize(grid [][]string) (t Table, ok bool) {
	start := 0
	for start < len(grid) && isBlank(grid[start]) {
		start++
	}
	if start == len(grid) {
		return Table{}, false
	}
	headers := Pad(grid[start], len(grid[start]))
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
	}
	t.Headers = headers

	for i := start + 1; i < len(grid); i++ {
		if isBlank(grid[i]) {
			continue
		}
		cells := Pad(grid[i], len(headers))
		values := make(map[string]string, len(headers))
		for col, h := range headers {
			values[h] = cells[col]
		}
		t.Rows = append(t.Rows, Row{
			SheetRow: i + FirstRow,
			Values:   values,
		})
	}
	if len(t.Rows) == 0 {
		return t, false
	}
	return t, true
}

// Pad returns row truncated or padded with empty strings to exactly n cells.
func Pad(row []string, n int) []string {
	out := make([]string, n)
	copy(out, row)
	return out
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
