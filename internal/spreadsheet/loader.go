package spreadsheet

import (
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/xuri/excelize/v2"

	"github.com/NathanHouwaart/ISA-PHM-Backend/internal/model"
)

// Load will load the given legacy input workbook. The workbook is transformed
// into the same model.Document the wizard produces, so that the rest of the
// conversion doesn't know which input it came from. Defaults are not applied,
// that is left to the caller.
func Load(fs afero.Fs, path string) (*model.Document, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	xlsx, err := excelize.OpenReader(f)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open workbook %s", path)
	}
	defer xlsx.Close()

	return Read(xlsx)
}

// Read transforms an opened workbook into a model.Document. Every error found
// is collected so that all loading/parsing errors can be reported back to the
// user at once.
func Read(xlsx *excelize.File) (*model.Document, error) {
	// Make sure the column layouts are valid before we start reading, otherwise
	// two headers could silently end up in the same field.
	layouts, err := loadLayouts()
	if err != nil {
		return nil, err
	}

	w := newWorkbook(xlsx, layouts)

	if err := w.checkRequiredSheets(); err != nil {
		return nil, err
	}

	var savedErrs *multierror.Error

	// Order matters: the studies use the setup and its sensors, the test
	// matrix and assays are added to the studies.
	steps := []func() error{
		w.readInvestigation,
		w.readSetup,
		w.readSensors,
		w.readStudies,
		w.readTestMatrix,
		w.readProtocols,
		w.readAssays,
	}

	for _, step := range steps {
		if err := step(); err != nil {
			savedErrs = multierror.Append(savedErrs, err)
		}
	}

	return w.doc, savedErrs.ErrorOrNil()
}
