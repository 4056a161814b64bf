package loader

import (
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/NathanHouwaart/ISA-PHM-Backend/internal/model"
	"github.com/NathanHouwaart/ISA-PHM-Backend/internal/normalize"
)

// maxEntryValues is the length of an entry's value list: the value and its
// unit.
const maxEntryValues = 2

// Validate checks the structure of a document that the converter relies on.
// All problems are reported together in a single multierror.
func Validate(doc *model.Document) error {
	var foundErrors *multierror.Error

	if len(doc.Studies) == 0 {
		foundErrors = multierror.Append(foundErrors, errors.New("document has no studies"))
	}

	foundErrors = multierror.Append(foundErrors, model.StudyIDErrors(doc.Studies)...)

	for i := range doc.Studies {
		study := &doc.Studies[i]
		id := normalize.CleanText(study.ID)

		if study.TotalRuns < 0 {
			foundErrors = multierror.Append(foundErrors, errors.Errorf("study %s: total_runs is %d", id, study.TotalRuns))
		}

		for j := range study.Assays {
			if err := validateAssay(id, j+1, &study.Assays[j]); err != nil {
				foundErrors = multierror.Append(foundErrors, err)
			}
		}
	}

	return foundErrors.ErrorOrNil()
}

func validateAssay(studyID string, index int, assay *model.AssayDetail) error {
	var foundErrors *multierror.Error

	if assay.UsedSensor == (model.Sensor{}) {
		foundErrors = multierror.Append(foundErrors, errors.Errorf("study %s: assay %d has no used_sensor", studyID, index))
	}

	checkEntries := func(kind string, entries []model.ProtocolEntry) {
		for _, entry := range entries {
			if len(entry.Value) > maxEntryValues {
				e := errors.Errorf("study %s: assay %d %s entry %q has %d values, expected a value and a unit",
					studyID, index, kind, entry.TargetID, len(entry.Value))
				foundErrors = multierror.Append(foundErrors, e)
			}
		}
	}

	checkEntries("measurement", assay.MeasurementProtocols)
	checkEntries("processing", assay.ProcessingProtocols)
	for _, run := range assay.Runs {
		checkEntries("measurement", run.MeasurementProtocols)
		checkEntries("processing", run.ProcessingProtocols)
	}

	return foundErrors.ErrorOrNil()
}
