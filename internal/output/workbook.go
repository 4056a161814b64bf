package output

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/xuri/excelize/v2"

	"github.com/NathanHouwaart/ISA-PHM-Backend/internal/isa"
	"github.com/NathanHouwaart/ISA-PHM-Backend/internal/isa/isatab"
)

// maxSheetName is the longest sheet name Excel accepts.
const maxSheetName = 31

// WorkbookSink writes every ISA-Tab file of an investigation as a sheet of
// one workbook.
type WorkbookSink struct {
	fs   afero.Fs
	path string
}

func NewWorkbookSink(fs afero.Fs, path string) *WorkbookSink {
	return &WorkbookSink{fs: fs, path: path}
}

func (s *WorkbookSink) Apply(investigation *isa.Investigation) error {
	return Apply(investigation, s)
}

func (s *WorkbookSink) stage(st *staging, investigation *isa.Investigation) error {
	f, err := Workbook(isatab.Files(investigation))
	if err != nil {
		return err
	}
	defer f.Close()

	return st.write(s.fs, s.path, func(w io.Writer) error {
		_, err := f.WriteTo(w)
		return err
	})
}

// Workbook builds a workbook with a sheet per file, in file order. A sheet
// is named after its file without the extension.
func Workbook(files []isatab.File) (*excelize.File, error) {
	f := excelize.NewFile()
	defaultSheet := f.GetSheetName(0)

	used := make(map[string]bool)
	for i, file := range files {
		name := sheetName(file.Name, used)

		if i == 0 {
			if err := f.SetSheetName(defaultSheet, name); err != nil {
				return nil, errors.Wrapf(err, "unable to name sheet %s", name)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return nil, errors.Wrapf(err, "unable to add sheet %s", name)
		}

		for r, row := range file.Rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				return nil, err
			}

			values := make([]interface{}, len(row))
			for c, value := range row {
				values[c] = value
			}
			if err := f.SetSheetRow(name, cell, &values); err != nil {
				return nil, errors.Wrapf(err, "unable to write sheet %s", name)
			}
		}
	}

	return f, nil
}

// sheetName turns a file name into a sheet name that is unique within the
// workbook and valid for Excel.
func sheetName(fileName string, used map[string]bool) string {
	name := strings.TrimSuffix(fileName, ".txt")
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return '_'
		}
		return r
	}, name)
	name = truncate(name, maxSheetName)

	candidate := name
	for n := 2; used[strings.ToLower(candidate)]; n++ {
		suffix := fmt.Sprintf("_%d", n)
		candidate = truncate(name, maxSheetName-len(suffix)) + suffix
	}

	used[strings.ToLower(candidate)] = true
	return candidate
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
