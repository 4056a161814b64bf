package spreadsheet

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

//go:embed columns.yaml
var columnsYAML []byte

// sheetLayout describes a sheet that holds one record per row.
type sheetLayout struct {
	// HeaderRow is the 1 based row holding the column headers. The records
	// start on the row after it.
	HeaderRow int `yaml:"header-row"`

	// Columns maps header text to the field name of the record.
	Columns map[string]string `yaml:"columns"`
}

// loadLayouts decodes the column mapping tables. Sheet names and header
// texts are lower cased so lookups ignore case.
func loadLayouts() (map[string]sheetLayout, error) {
	var raw map[string]sheetLayout
	if err := yaml.Unmarshal(columnsYAML, &raw); err != nil {
		return nil, errors.Wrap(err, "invalid column mapping")
	}

	layouts := make(map[string]sheetLayout, len(raw))
	for sheet, layout := range raw {
		if layout.HeaderRow < 1 {
			layout.HeaderRow = 1
		}

		columns := make(map[string]string, len(layout.Columns))
		for header, field := range layout.Columns {
			columns[strings.ToLower(strings.TrimSpace(header))] = field
		}
		layout.Columns = columns

		if err := validateColumns(sheet, layout); err != nil {
			return nil, err
		}
		layouts[strings.ToLower(sheet)] = layout
	}

	return layouts, nil
}

// validateColumns makes sure no two headers of a sheet fill the same field,
// otherwise the value of the field would depend on column order.
func validateColumns(sheet string, layout sheetLayout) error {
	headers := make(map[string]string)
	for header, field := range layout.Columns {
		if other, ok := headers[field]; ok {
			return fmt.Errorf("sheet '%s' maps both '%s' and '%s' to field '%s'", sheet, header, other, field)
		}
		headers[field] = header
	}
	return nil
}
