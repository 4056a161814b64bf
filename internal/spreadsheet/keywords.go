package spreadsheet

/*
 * keywords contains the sheet names and special cell values of the ISA-PHM
 * input workbook. Sheet names are matched without regard to case.
 */

import (
	"strings"

	"github.com/NathanHouwaart/ISA-PHM-Backend/internal/isa"
)

const (
	InvestigationSheet      = "Investigation details"
	SetupSheet              = "Set-up details"
	StudySheet              = "Study details"
	TestMatrixSheet         = "Test matrix"
	MeasurementDetailsSheet = "Measurement Details"
	AssaysSheet             = "Assays"
	MeasurementOutputSheet  = "Measurement output"
	ProcessingOutputSheet   = "Processing output"
)

// Every sheet whose name ends in protocolSheetSuffix lists protocol
// parameters, for example "Measurement protocols".
const protocolSheetSuffix = "protocols"

// RequiredSheets must be present in every workbook.
var RequiredSheets = []string{InvestigationSheet, SetupSheet, StudySheet, MeasurementDetailsSheet}

type setupField int

const (
	setupName setupField = iota + 1
	setupDescription
	setupPreparationProtocol
)

// SetupKeywords are the detail types of the set-up sheet that describe the
// setup itself. The other rows are characteristics of the setup.
var SetupKeywords = map[string]setupField{
	"location or lab name":                    setupName,
	"set-up or test specimen name":            setupDescription,
	"name of experiment preparation protocol": setupPreparationProtocol,
}

// setupKeyword returns the setup field a detail type describes.
func setupKeyword(category string) (setupField, bool) {
	field, ok := SetupKeywords[strings.ToLower(strings.TrimSpace(category))]
	return field, ok
}

// protocolSheetKind tells if a sheet lists protocol parameters and for which
// kind of protocol. Sheets mentioning processing hold processing parameters,
// all other protocol sheets hold measurement parameters.
func protocolSheetKind(sheet string) (isa.ProtocolKind, bool) {
	lower := strings.ToLower(strings.TrimSpace(sheet))
	if !strings.HasSuffix(lower, protocolSheetSuffix) {
		return 0, false
	}

	if strings.Contains(lower, "processing") {
		return isa.ProcessingProtocol, true
	}
	return isa.MeasurementProtocol, true
}
