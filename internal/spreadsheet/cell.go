package spreadsheet

import (
	"strconv"
	"strings"

	"github.com/spf13/cast"

	"github.com/NathanHouwaart/ISA-PHM-Backend/internal/normalize"
)

// runNumber takes a run name like "Run 03" and returns its number. A cell
// holding only a number is accepted too.
func runNumber(cell string) (int, bool) {
	cell = strings.ToLower(normalize.CleanText(cell))
	cell = strings.TrimSpace(strings.TrimPrefix(cell, "run"))

	n, err := strconv.Atoi(cell)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// cellInt converts a numeric cell such as "3" or "3.0" to an int.
func cellInt(cell string) (int, error) {
	value, _ := normalize.ParseNumeric(cell)
	return cast.ToIntE(value)
}

// cellAt returns the cell at index, rows returned by excelize leave out
// trailing empty cells.
func cellAt(row []string, index int) string {
	if index < 0 || index >= len(row) {
		return ""
	}
	return normalize.CleanText(row[index])
}

// table is a sheet with a header row naming its columns.
type table struct {
	header []string
	rows   [][]string
}

func newTable(rows [][]string) *table {
	t := &table{}
	if len(rows) == 0 {
		return t
	}

	for _, cell := range rows[0] {
		t.header = append(t.header, normalize.CleanText(cell))
	}
	t.rows = rows[1:]
	return t
}

// column returns the index of the column with the given header, ignoring
// case. It returns -1 when the table has no such column.
func (t *table) column(header string) int {
	for i, h := range t.header {
		if strings.EqualFold(h, strings.TrimSpace(header)) {
			return i
		}
	}
	return -1
}
