package model

import (
	"github.com/pkg/errors"

	"github.com/NathanHouwaart/ISA-PHM-Backend/internal/normalize"
)

// StudyIDErrors reports every study without an id and every id used more
// than once. Study ids name the study files, so both are fatal.
func StudyIDErrors(studies []Study) []error {
	var found []error
	seen := make(map[string]bool)

	for i, study := range studies {
		id := normalize.CleanText(study.ID)
		switch {
		case id == "":
			found = append(found, errors.Errorf("study %d has no id", i+1))
		case seen[id]:
			found = append(found, errors.Errorf("study id %q is used more than once", id))
		}
		seen[id] = true
	}

	return found
}
