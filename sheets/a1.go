package sheets

import (
	"fmt"
	"strings"
)

// ColumnLetter converts a 1-based column index to its letter form (1 -> A, 27 -> AA).
func ColumnLetter(index int) string {
	var b []byte
	for index > 0 {
		index--
		b = append([]byte{byte('A' + index%26)}, b...)
		index /= 26
	}
	return string(b)
}

// Cell builds an A1 address such as "CustomerEnquiry!B7". col is zero-based.
func Cell(sheet string, col, row int) string {
	addr := fmt.Sprintf("%s%d", ColumnLetter(col+1), row)
	if sheet == "" {
		return addr
	}
	return quoteSheet(sheet) + "!" + addr
}

// SheetName returns the tab part of an A1 range ("Supplier!A1:E" -> "Supplier").
func SheetName(a1 string) string {
	i := strings.LastIndex(a1, "!")
	if i < 0 {
		return ""
	}
	return strings.Trim(a1[:i], "'")
}

func quoteSheet(name string) string {
	if strings.ContainsAny(name, " -'") {
		return "'" + strings.ReplaceAll(name, "'", "''") + "'"
	}
	return name
}
