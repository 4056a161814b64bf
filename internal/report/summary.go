package report

import (
	"fmt"

	"github.com/NathanHouwaart/ISA-PHM-Backend/internal/isa"
)

// Summary counts what a conversion produced.
type Summary struct {
	Studies   int
	Protocols int
	Samples   int
	Assays    int
	Processes int
	DataFiles int
}

func Summarize(investigation *isa.Investigation) Summary {
	var s Summary
	for _, study := range investigation.Studies {
		s.Studies++
		s.Protocols += len(study.Protocols)
		s.Samples += len(study.Samples)
		s.Processes += len(study.ProcessSequence)
		for _, assay := range study.Assays {
			s.Assays++
			s.Processes += len(assay.ProcessSequence)
			s.DataFiles += len(assay.DataFiles)
		}
	}
	return s
}

func (s Summary) String() string {
	return fmt.Sprintf("%d studies, %d protocols, %d samples, %d assays, %d processes, %d data files",
		s.Studies, s.Protocols, s.Samples, s.Assays, s.Processes, s.DataFiles)
}
