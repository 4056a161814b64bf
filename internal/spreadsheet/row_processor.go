package spreadsheet

import (
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"

	"github.com/NathanHouwaart/ISA-PHM-Backend/internal/normalize"
)

// record is a row of a sheet keyed by field name. A unit given in the header
// of a column is stored under the field name with a "_unit" suffix.
type record map[string]interface{}

type column struct {
	field string
	unit  string
}

// rowProcessor handles processing of each row of a sheet
type rowProcessor struct {
	sheet  string
	layout sheetLayout

	// columns is built while processing the header row. It maps the index of
	// each known column to the field it holds.
	columns map[int]column
}

func newRowProcessor(sheet string, layout sheetLayout) *rowProcessor {
	return &rowProcessor{
		sheet:   sheet,
		layout:  layout,
		columns: make(map[int]column),
	}
}

// processHeaderRow looks up the field of every header cell. Headers that
// aren't in the layout are reported and their columns ignored.
func (r *rowProcessor) processHeaderRow(row []string) {
	for index, cell := range row {
		if normalize.IsBlank(cell) {
			continue
		}

		name, unit := normalize.SplitNameAndUnit(cell)
		field, ok := r.layout.Columns[strings.ToLower(name)]
		if !ok {
			// A header that includes parens but isn't a unit, try the full text.
			field, ok = r.layout.Columns[strings.ToLower(normalize.CleanText(cell))]
			unit = ""
		}

		if !ok {
			jww.WARN.Printf("Worksheet %s heading column %d with value '%s' is not a known column\n", r.sheet, index+1, cell)
			continue
		}

		r.columns[index] = column{field: field, unit: unit}
	}
}

// processRow turns a row into a record. Blank cells are left out, a row
// without any value gives a nil record.
func (r *rowProcessor) processRow(row []string) record {
	rec := make(record)
	for index, cell := range row {
		col, ok := r.columns[index]
		if !ok || normalize.IsBlank(cell) {
			continue
		}

		rec[col.field] = normalize.CleanText(cell)
		if col.unit != "" {
			rec[col.field+"_unit"] = col.unit
		}
	}

	if len(rec) == 0 {
		return nil
	}
	return rec
}

// records reads every record of a sheet laid out as header row plus data rows.
func records(rows [][]string, sheet string, layout sheetLayout) []record {
	processor := newRowProcessor(sheet, layout)

	headerIndex := layout.HeaderRow - 1
	if headerIndex >= len(rows) {
		return nil
	}
	processor.processHeaderRow(rows[headerIndex])

	var recs []record
	for _, row := range rows[headerIndex+1:] {
		if rec := processor.processRow(row); rec != nil {
			recs = append(recs, rec)
		}
	}
	return recs
}

// decode fills out from a record. Decoding is weakly typed, a cell holding
// "3" fills an int field.
func (rec record) decode(out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}

	return errors.WithStack(decoder.Decode(map[string]interface{}(rec)))
}
