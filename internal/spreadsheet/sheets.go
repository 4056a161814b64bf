package spreadsheet

import (
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/NathanHouwaart/ISA-PHM-Backend/internal/isa"
	"github.com/NathanHouwaart/ISA-PHM-Backend/internal/model"
	"github.com/NathanHouwaart/ISA-PHM-Backend/internal/normalize"
)

// workbook reads the sheets of an input workbook into a document. The
// sheets are read in dependency order: the setup and its sensors first, then
// the studies that use them, and last the assays of each study.
type workbook struct {
	file    *excelize.File
	layouts map[string]sheetLayout

	// sheets maps lower cased sheet names to their name in the workbook.
	sheets map[string]string

	doc     *model.Document
	setup   model.Setup
	sensors []model.Sensor

	// entries holds the protocol entries of each sensor by protocol kind.
	entries map[isa.ProtocolKind]map[string][]model.ProtocolEntry
}

type investigationRow struct {
	Identifier        string `mapstructure:"identifier"`
	Title             string `mapstructure:"title"`
	Description       string `mapstructure:"description"`
	SubmissionDate    string `mapstructure:"submission_date"`
	PublicReleaseDate string `mapstructure:"public_release_date"`
	ExperimentType    string `mapstructure:"experiment_type"`
	License           string `mapstructure:"license"`
	LastName          string `mapstructure:"last_name"`
	FirstName         string `mapstructure:"first_name"`
	MidInitials       string `mapstructure:"mid_initials"`
	Email             string `mapstructure:"email"`
	Phone             string `mapstructure:"phone"`
	Fax               string `mapstructure:"fax"`
	Address           string `mapstructure:"address"`
	Affiliation       string `mapstructure:"affiliation"`
	Orcid             string `mapstructure:"orcid"`
	Roles             string `mapstructure:"roles"`
	PublicationTitle  string `mapstructure:"publication_title"`
	AuthorList        string `mapstructure:"author_list"`
	DOI               string `mapstructure:"doi"`
	PubMedID          string `mapstructure:"pubmed_id"`
	PublicationStatus string `mapstructure:"publication_status"`
}

type setupRow struct {
	Category string `mapstructure:"category"`
	Value    string `mapstructure:"value"`
	Unit     string `mapstructure:"unit"`
	Comment  string `mapstructure:"comment"`
}

type studyRow struct {
	Identifier        string `mapstructure:"identifier"`
	Title             string `mapstructure:"title"`
	Description       string `mapstructure:"description"`
	SubmissionDate    string `mapstructure:"submission_date"`
	PublicReleaseDate string `mapstructure:"public_release_date"`
	ExperimentType    string `mapstructure:"experiment_type"`
	TotalRuns         string `mapstructure:"total_runs"`
}

type sensorRow struct {
	Name               string `mapstructure:"name"`
	MeasurementType    string `mapstructure:"measurement_type"`
	TechnologyType     string `mapstructure:"technology_type"`
	TechnologyPlatform string `mapstructure:"technology_platform"`
	Description        string `mapstructure:"description"`
	Location           string `mapstructure:"location"`
	LocationUnit       string `mapstructure:"location_unit"`
	Orientation        string `mapstructure:"orientation"`
	OrientationUnit    string `mapstructure:"orientation_unit"`
	SamplingRate       string `mapstructure:"sampling_rate"`
	SamplingUnit       string `mapstructure:"sampling_rate_unit"`
	MeasurementUnit    string `mapstructure:"measurement_unit"`
}

func newWorkbook(file *excelize.File, layouts map[string]sheetLayout) *workbook {
	w := &workbook{
		file:    file,
		layouts: layouts,
		sheets:  make(map[string]string),
		doc:     &model.Document{},
		entries: map[isa.ProtocolKind]map[string][]model.ProtocolEntry{
			isa.MeasurementProtocol: make(map[string][]model.ProtocolEntry),
			isa.ProcessingProtocol:  make(map[string][]model.ProtocolEntry),
		},
	}

	for _, name := range file.GetSheetList() {
		w.sheets[strings.ToLower(strings.TrimSpace(name))] = name
	}
	return w
}

// rows returns the rows of a sheet. A missing sheet has no rows.
func (w *workbook) rows(sheet string) ([][]string, bool, error) {
	name, ok := w.sheets[strings.ToLower(sheet)]
	if !ok {
		return nil, false, nil
	}

	rows, err := w.file.GetRows(name)
	if err != nil {
		return nil, true, errors.Wrapf(err, "unable to read sheet '%s'", name)
	}
	return rows, true, nil
}

// records returns the records of a sheet that has a column layout.
func (w *workbook) records(sheet string) ([]record, error) {
	rows, _, err := w.rows(sheet)
	if err != nil {
		return nil, err
	}
	return records(rows, sheet, w.layouts[strings.ToLower(sheet)]), nil
}

func (w *workbook) checkRequiredSheets() error {
	var missing *multierror.Error
	for _, sheet := range RequiredSheets {
		if _, ok := w.sheets[strings.ToLower(sheet)]; !ok {
			missing = multierror.Append(missing, errors.Errorf("missing sheet '%s'", sheet))
		}
	}
	return missing.ErrorOrNil()
}

// readInvestigation reads the investigation, its contacts and its
// publication. The general fields take the first value found, every row
// naming a person is a contact, and the authors of all rows make up the
// author list of the publication.
func (w *workbook) readInvestigation() error {
	recs, err := w.records(InvestigationSheet)
	if err != nil {
		return err
	}

	doc := w.doc
	var publication model.Publication

	for i, rec := range recs {
		var row investigationRow
		if err := rec.decode(&row); err != nil {
			return errors.Wrapf(err, "sheet '%s' row %d", InvestigationSheet, i+1)
		}

		firstOf(&doc.Identifier, row.Identifier)
		firstOf(&doc.Title, row.Title)
		firstOf(&doc.Description, row.Description)
		firstOf(&doc.SubmissionDate, row.SubmissionDate)
		firstOf(&doc.PublicReleaseDate, row.PublicReleaseDate)
		firstOf(&doc.ExperimentType, row.ExperimentType)
		firstOf(&doc.License, row.License)

		if row.FirstName != "" || row.LastName != "" {
			doc.Contacts = append(doc.Contacts, model.Contact{
				FirstName:   row.FirstName,
				MidInitials: row.MidInitials,
				LastName:    row.LastName,
				Email:       row.Email,
				Phone:       row.Phone,
				Fax:         row.Fax,
				Address:     row.Address,
				Affiliation: row.Affiliation,
				Orcid:       row.Orcid,
				Roles:       splitList(row.Roles),
			})
		}

		firstOf(&publication.Title, row.PublicationTitle)
		firstOf(&publication.DOI, row.DOI)
		firstOf(&publication.PubMedID, row.PubMedID)
		firstOf(&publication.Status, row.PublicationStatus)
		if row.AuthorList != "" {
			publication.AuthorList = append(publication.AuthorList, row.AuthorList)
		}
	}

	if publication.Title != "" || len(publication.AuthorList) != 0 {
		doc.Publications = append(doc.Publications, publication)
	}

	return nil
}

// readSetup reads the test setup. Rows with a setup keyword as detail type
// describe the setup, the others are its characteristics.
func (w *workbook) readSetup() error {
	recs, err := w.records(SetupSheet)
	if err != nil {
		return err
	}

	for i, rec := range recs {
		var row setupRow
		if err := rec.decode(&row); err != nil {
			return errors.Wrapf(err, "sheet '%s' row %d", SetupSheet, i+1)
		}

		if row.Category == "" {
			continue
		}

		field, ok := setupKeyword(row.Category)
		switch {
		case !ok:
			w.setup.Characteristics = append(w.setup.Characteristics, model.Characteristic{
				Category: row.Category,
				Value:    row.Value,
				Unit:     row.Unit,
				Comment:  row.Comment,
			})
		case field == setupName:
			w.setup.Name = row.Value
		case field == setupDescription:
			w.setup.Description = row.Value
		case field == setupPreparationProtocol:
			w.setup.ExperimentPreparationProtocolName = row.Value
		}
	}

	return nil
}

// readSensors reads the sensors of the setup. A sensor is known by its name
// in every other sheet.
func (w *workbook) readSensors() error {
	recs, err := w.records(MeasurementDetailsSheet)
	if err != nil {
		return err
	}

	for i, rec := range recs {
		var row sensorRow
		if err := rec.decode(&row); err != nil {
			return errors.Wrapf(err, "sheet '%s' row %d", MeasurementDetailsSheet, i+1)
		}

		if row.Name == "" {
			continue
		}

		w.sensors = append(w.sensors, model.Sensor{
			ID:                 row.Name,
			Name:               row.Name,
			Description:        row.Description,
			MeasurementType:    row.MeasurementType,
			MeasurementUnit:    row.MeasurementUnit,
			TechnologyType:     row.TechnologyType,
			TechnologyPlatform: row.TechnologyPlatform,
			SensorLocation:     row.Location,
			LocationUnit:       row.LocationUnit,
			SensorOrientation:  row.Orientation,
			OrientationUnit:    row.OrientationUnit,
			SamplingRate:       row.SamplingRate,
			SamplingUnit:       row.SamplingUnit,
		})
	}

	w.setup.Sensors = w.sensors
	return nil
}

// readStudies reads the studies. Every study uses the one test setup of the
// workbook.
func (w *workbook) readStudies() error {
	recs, err := w.records(StudySheet)
	if err != nil {
		return err
	}

	var foundErrors *multierror.Error
	for i, rec := range recs {
		var row studyRow
		if err := rec.decode(&row); err != nil {
			foundErrors = multierror.Append(foundErrors, errors.Wrapf(err, "sheet '%s' row %d", StudySheet, i+1))
			continue
		}

		study := model.Study{
			ID:              row.Identifier,
			Name:            row.Title,
			Description:     row.Description,
			SubmissionDate:  row.SubmissionDate,
			PublicationDate: row.PublicReleaseDate,
			ExperimentType:  row.ExperimentType,
			UsedSetup:       w.setup,
		}

		if row.TotalRuns != "" {
			runs, err := cellInt(row.TotalRuns)
			if err != nil {
				e := errors.Errorf("sheet '%s': study %s has number of runs '%s' that is not a number", StudySheet, row.Identifier, row.TotalRuns)
				foundErrors = multierror.Append(foundErrors, e)
			}
			study.TotalRuns = runs
		}

		w.doc.Studies = append(w.doc.Studies, study)
	}

	return foundErrors.ErrorOrNil()
}

// study returns the study with the given id.
func (w *workbook) study(id string) *model.Study {
	for i := range w.doc.Studies {
		if w.doc.Studies[i].ID == id {
			return &w.doc.Studies[i]
		}
	}
	return nil
}

// readTestMatrix reads the study variables and their value per run. The
// first row holds the study of each value column and the second row the run.
// Every following row is a variable: name, type, unit and then its values.
func (w *workbook) readTestMatrix() error {
	rows, ok, err := w.rows(TestMatrixSheet)
	if err != nil || !ok || len(rows) < 2 {
		return err
	}

	const firstValueColumn = 3
	studyIDs, runNames := rows[0], rows[1]

	var foundErrors *multierror.Error
	for _, row := range rows[2:] {
		name, headerUnit := normalize.SplitNameAndUnit(cellAt(row, 0))
		if normalize.IsBlank(name) {
			continue
		}

		variable := model.StudyVariable{Name: name, Type: cellAt(row, 1), Unit: cellAt(row, 2)}
		if normalize.IsBlank(variable.Unit) {
			variable.Unit = headerUnit
		}
		w.doc.StudyVariables = append(w.doc.StudyVariables, variable)

		for index := firstValueColumn; index < len(row); index++ {
			value := cellAt(row, index)
			if normalize.IsBlank(value) {
				continue
			}

			study := w.study(cellAt(studyIDs, index))
			run, ok := runNumber(cellAt(runNames, index))
			if study == nil || !ok {
				e := errors.Errorf("sheet '%s': value of '%s' in column %d has no known study and run", TestMatrixSheet, name, index+1)
				foundErrors = multierror.Append(foundErrors, e)
				continue
			}

			study.VariableMappings = append(study.VariableMappings, model.VariableMapping{
				VariableName: name,
				RunNumber:    run,
				Value:        value,
			})
		}
	}

	return foundErrors.ErrorOrNil()
}

// readProtocols reads every protocol sheet. The first column names the
// parameter, the second its unit and every following column holds the value
// for the sensor in its header.
func (w *workbook) readProtocols() error {
	for _, sheet := range w.file.GetSheetList() {
		kind, ok := protocolSheetKind(sheet)
		if !ok {
			continue
		}

		rows, _, err := w.rows(sheet)
		if err != nil {
			return err
		}

		t := newTable(rows)
		for _, row := range t.rows {
			name, unit := normalize.SplitNameAndUnit(cellAt(row, 0))
			if normalize.IsBlank(name) {
				continue
			}
			if u := cellAt(row, 1); !normalize.IsBlank(u) {
				unit = u
			}

			w.declareParameter(kind, model.ParameterDef{ID: name, Name: name, Unit: unit})

			for index := 2; index < len(t.header); index++ {
				value := cellAt(row, index)
				sensor := t.header[index]
				if sensor == "" || normalize.IsBlank(value) {
					continue
				}

				entry := model.ProtocolEntry{ID: name, SourceID: sensor, TargetID: name, Value: []interface{}{value}}
				if unit != "" {
					entry.Value = append(entry.Value, unit)
				}
				w.entries[kind][sensor] = append(w.entries[kind][sensor], entry)
			}
		}
	}

	return nil
}

func (w *workbook) declareParameter(kind isa.ProtocolKind, def model.ParameterDef) {
	catalog := &w.doc.MeasurementProtocols
	if kind == isa.ProcessingProtocol {
		catalog = &w.doc.ProcessingProtocols
	}

	for _, existing := range *catalog {
		if existing.ID == def.ID {
			return
		}
	}
	*catalog = append(*catalog, def)
}

// readAssays creates an assay for every study and sensor. The assay sheet
// names the assay files, the output sheets name the data files of each run.
// A study without output rows gets its declared number of runs with unnamed
// data files.
func (w *workbook) readAssays() error {
	assayRows, _, err := w.rows(AssaysSheet)
	if err != nil {
		return err
	}
	measurementRows, _, err := w.rows(MeasurementOutputSheet)
	if err != nil {
		return err
	}
	processingRows, _, err := w.rows(ProcessingOutputSheet)
	if err != nil {
		return err
	}

	assays := newTable(assayRows)
	measurementOutput := newTable(measurementRows)
	processingOutput := newTable(processingRows)

	for i := range w.doc.Studies {
		study := &w.doc.Studies[i]

		for _, sensor := range w.sensors {
			fileColumn := assays.column(sensor.Name)
			if len(assays.header) != 0 && fileColumn == -1 {
				// The assay sheet lists the sensors in use, this one isn't.
				continue
			}

			assay := model.AssayDetail{
				UsedSensor:           sensor,
				MeasurementProtocols: w.entries[isa.MeasurementProtocol][sensor.Name],
				ProcessingProtocols:  w.entries[isa.ProcessingProtocol][sensor.Name],
			}

			for _, row := range assays.rows {
				if cellAt(row, 0) == study.ID {
					assay.AssayFileName = cellAt(row, fileColumn)
				}
			}

			assay.Runs = runsOf(study, sensor.Name, measurementOutput, processingOutput)
			study.Assays = append(study.Assays, assay)
		}
	}

	return nil
}

// runsOf returns the runs of a study for a sensor from the output sheets.
// Their first column holds the study and the second the run.
func runsOf(study *model.Study, sensor string, measurementOutput, processingOutput *table) []model.Run {
	var runs []model.Run

	rawColumn := measurementOutput.column(sensor)
	processedColumn := processingOutput.column(sensor)

	for _, row := range measurementOutput.rows {
		if cellAt(row, 0) != study.ID {
			continue
		}
		number, ok := runNumber(cellAt(row, 1))
		if !ok {
			continue
		}

		run := model.Run{RunNumber: number, RawFileName: blankless(cellAt(row, rawColumn))}
		for _, processed := range processingOutput.rows {
			if cellAt(processed, 0) != study.ID {
				continue
			}
			if n, ok := runNumber(cellAt(processed, 1)); ok && n == number {
				run.ProcessedFileName = blankless(cellAt(processed, processedColumn))
			}
		}
		runs = append(runs, run)
	}

	if len(runs) == 0 {
		for number := 1; number <= study.TotalRuns; number++ {
			runs = append(runs, model.Run{RunNumber: number})
		}
	}

	return runs
}

// firstOf sets field to value unless the field already has a value.
func firstOf(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

// splitList splits a comma separated cell.
func splitList(cell string) []string {
	var items []string
	for _, item := range strings.Split(cell, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func blankless(cell string) string {
	if normalize.IsBlank(cell) {
		return ""
	}
	return cell
}
