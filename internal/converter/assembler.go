package converter

import (
	"fmt"
	"strings"

	"github.com/NathanHouwaart/ISA-PHM-Backend/internal/isa"
	"github.com/NathanHouwaart/ISA-PHM-Backend/internal/model"
	"github.com/NathanHouwaart/ISA-PHM-Backend/internal/normalize"
)

// studyBuilder accumulates the entities of one study in local collections.
// They are attached to an isa.Study once the study is complete.
type studyBuilder struct {
	*converter

	input     *model.Study
	totalRuns int

	preparation     *isa.Protocol
	protocols       []*isa.Protocol
	byKey           map[ProtocolKey]*isa.Protocol
	measurementKeys []ProtocolKey
	sensorCount     int

	source     *isa.Source
	template   *isa.Sample
	samples    *sampleTracker
	factors    []studyFactor
	categories []*isa.OntologyAnnotation

	processes  []*isa.Process
	assays     []*isa.Assay
	assayFiles map[string]bool
}

// studyFactor pairs a study factor with the variable it was declared from.
type studyFactor struct {
	factor   *isa.StudyFactor
	variable model.StudyVariable
}

func newStudyBuilder(c *converter, input *model.Study) *studyBuilder {
	b := &studyBuilder{
		converter:  c,
		input:      input,
		byKey:      make(map[ProtocolKey]*isa.Protocol),
		samples:    newSampleTracker(),
		assayFiles: make(map[string]bool),
	}
	b.totalRuns = b.resolveTotalRuns()
	return b
}

// resolveTotalRuns returns the declared run count. When the study doesn't
// declare one it is derived from the highest run number of its assays.
func (b *studyBuilder) resolveTotalRuns() int {
	if b.input.TotalRuns > 0 {
		return b.input.TotalRuns
	}

	total := 1
	for _, assay := range b.input.Assays {
		for _, run := range assay.Runs {
			if run.RunNumber > total {
				total = run.RunNumber
			}
		}
	}

	b.diagnostics.Warnf(MissingRunCount, "study %s: no total_runs declared, using %d", b.input.ID, total)
	return total
}

func (b *studyBuilder) setupName() string {
	if name := normalize.CleanText(b.input.UsedSetup.Name); name != "" {
		return name
	}
	return model.DefaultSetupName
}

// buildSetup creates the source standing for the test setup, and the
// template sample carrying the characteristics of the setup. The run samples
// share the template's characteristics.
func (b *studyBuilder) buildSetup() {
	name := b.setupName()

	b.source = &isa.Source{Name: name}
	if b.input.UsedSetup.Description != "" {
		b.source.AddComment("description", b.input.UsedSetup.Description)
	}

	b.template = &isa.Sample{
		Name:        name + " characteristics",
		DerivesFrom: []*isa.Source{b.source},
	}

	for _, input := range b.input.UsedSetup.Characteristics {
		if characteristic := b.buildCharacteristic(input); characteristic != nil {
			b.template.Characteristics = append(b.template.Characteristics, characteristic)
		}
	}
}

func (b *studyBuilder) buildCharacteristic(input model.Characteristic) *isa.Characteristic {
	category := b.registries.Terms.GetOrCreate(input.Category)
	if category == nil {
		return nil
	}

	value, unit, mismatch := normalize.AttachUnit(input.Value, input.Unit)
	if mismatch {
		b.diagnostics.Warnf(UnitMismatch, "study %s: characteristic %q value %q is not numeric, unit %q dropped",
			b.input.ID, category.Term, normalize.Stringify(input.Value), normalize.CleanUnitText(input.Unit))
	}

	characteristic := &isa.Characteristic{
		Category: category,
		Value:    value,
		Unit:     b.registries.Units.GetOrCreate(unit),
	}
	if input.Comment != "" {
		characteristic.AddComment("comment", input.Comment)
	}

	b.addCategory(category)
	return characteristic
}

func (b *studyBuilder) addCategory(category *isa.OntologyAnnotation) {
	for _, existing := range b.categories {
		if existing == category {
			return
		}
	}
	b.categories = append(b.categories, category)
}

// buildFactors declares a study factor for every study variable of the
// document.
func (b *studyBuilder) buildFactors() {
	for _, variable := range b.studyVariables {
		name := normalize.CleanText(variable.Name)
		if name == "" {
			continue
		}

		factor := &isa.StudyFactor{
			Name: name,
			Type: b.registries.Terms.GetOrCreate(variable.Type),
		}

		comments := []struct{ name, value string }{
			{"description", variable.Description},
			{"unit", variable.Unit},
			{"min", variable.Min},
			{"max", variable.Max},
			{"step", variable.Step},
		}
		for _, comment := range comments {
			if value := normalize.CleanText(comment.value); value != "" {
				factor.AddComment(comment.name, value)
			}
		}

		b.factors = append(b.factors, studyFactor{factor: factor, variable: variable})
	}
}

// buildRunSamples creates a sample for every run. Each sample carries the
// template's characteristics and its own factor values.
func (b *studyBuilder) buildRunSamples() {
	name := b.setupName()

	for run := 1; run <= b.totalRuns; run++ {
		sample := &isa.Sample{
			Name:            fmt.Sprintf("%s Run %02d", name, run),
			DerivesFrom:     []*isa.Source{b.source},
			Characteristics: append([]*isa.Characteristic(nil), b.template.Characteristics...),
		}

		for _, factor := range b.factors {
			if factorValue := b.buildFactorValue(factor, run); factorValue != nil {
				sample.AddFactorValue(factorValue)
			}
		}

		b.samples.addRunSample(run, sample)
	}
}

// buildFactorValue looks up the value of a study variable for a run. A
// missing value is reported and gets the configured placeholder, or no
// factor value at all when there is no placeholder.
func (b *studyBuilder) buildFactorValue(factor studyFactor, run int) *isa.FactorValue {
	mapping, ok := b.input.FindMapping(factor.variable.Name, run)
	if !ok || normalize.IsEmpty(mapping.Value) {
		b.diagnostics.Warnf(UnmappedFactor, "study %s: no value for %q in run %d", b.input.ID, factor.factor.Name, run)
		if b.opts.MissingFactorValue == "" {
			return nil
		}
		return &isa.FactorValue{Factor: factor.factor, Value: b.opts.MissingFactorValue}
	}

	value, unit, mismatch := normalize.AttachUnit(mapping.Value, factor.variable.Unit)
	if mismatch {
		b.diagnostics.Warnf(UnitMismatch, "study %s: %q value %q in run %d is not numeric, unit %q dropped",
			b.input.ID, factor.factor.Name, normalize.Stringify(mapping.Value), run, normalize.CleanUnitText(factor.variable.Unit))
	}

	return &isa.FactorValue{
		Factor: factor.factor,
		Value:  value,
		Unit:   b.registries.Units.GetOrCreate(unit),
	}
}

// buildPreparationProcess turns the test setup into the run samples.
func (b *studyBuilder) buildPreparationProcess() {
	process := isa.NewProcess(b.preparation.Name, b.preparation)
	process.AddInput(b.source)
	for _, sample := range b.samples.all() {
		process.AddOutput(sample)
	}

	b.processes = append(b.processes, process)
	LinkSequence(b.processes)
}

// buildAssay creates the data files and processes of an assay. The raw data
// files of all runs come first, followed by the processed data files when the
// assay pairs them, so the processed file of run i sits half the file count
// after its raw file.
func (b *studyBuilder) buildAssay(detail *model.AssayDetail, index int) {
	sensor := detail.UsedSensor
	sensorID := sensor.Identity()
	measurement, processing := b.protocolsFor(sensor)

	assay := &isa.Assay{
		Filename:           b.assayFilename(detail, index),
		MeasurementType:    b.registries.Terms.GetOrCreate(sensor.MeasurementType),
		TechnologyType:     b.registries.Terms.GetOrCreate(sensor.TechnologyType),
		TechnologyPlatform: sensor.TechnologyPlatform,
		Samples:            b.samples.all(),
	}

	runs := b.assayRuns(detail, assay.Filename)
	pairing := detail.HasDataPairing()

	for _, run := range runs {
		name := fileNameOr(run.RawFileName, b.opts.UnknownFileName)
		assay.AddDataFile(isa.NewDataFile(name, isa.RawDataFileLabel, b.samples.findRunSample(run.RunNumber)))
	}
	if pairing {
		for _, run := range runs {
			name := fileNameOr(run.ProcessedFileName, b.opts.UnusedFileName)
			assay.AddDataFile(isa.NewDataFile(name, isa.DerivedDataFileLabel, nil))
		}
	}

	offset := len(assay.DataFiles) / 2
	var sequence []*isa.Process

	for i, run := range runs {
		m := isa.NewProcess(processName(measurement, run.RunNumber), measurement)
		m.AddInput(b.samples.findRunSample(run.RunNumber))
		m.AddOutput(assay.DataFiles[i])
		b.addSensorAttributeValues(m, sensor)
		b.addEntryValues(m, detail.Entries(run, false), sensorID, b.measurementCatalog)
		sequence = append(sequence, m)

		if !pairing {
			continue
		}

		p := isa.NewProcess(processName(processing, run.RunNumber), processing)
		p.AddInput(assay.DataFiles[i])
		p.AddOutput(assay.DataFiles[i+offset])
		b.addEntryValues(p, detail.Entries(run, true), sensorID, b.processingCatalog)
		sequence = append(sequence, p)
	}

	LinkSequence(sequence)
	assay.ProcessSequence = sequence
	b.assays = append(b.assays, assay)
}

// assayRuns returns the runs of an assay that belong to a run sample. Runs
// outside the study's run count are reported and skipped.
func (b *studyBuilder) assayRuns(detail *model.AssayDetail, assayFile string) []model.Run {
	var runs []model.Run
	for _, run := range detail.Runs {
		switch {
		case run.RunNumber < 1:
			b.diagnostics.Warnf(UnknownRunSample, "study %s: %s has run number %d, skipped",
				b.input.ID, assayFile, run.RunNumber)
		case run.RunNumber > b.totalRuns:
			b.diagnostics.Warnf(ExtraRun, "study %s: %s run %d is beyond the %d runs of the study, skipped",
				b.input.ID, assayFile, run.RunNumber, b.totalRuns)
		default:
			runs = append(runs, run)
		}
	}
	return runs
}

// assayFilename names the ISA-Tab file of the assay. Names are unique within
// a study and always take the a_<name>.txt form.
func (b *studyBuilder) assayFilename(detail *model.AssayDetail, index int) string {
	name := normalize.CleanText(detail.AssayFileName)
	if name == "" {
		name = b.input.ID + "_" + detail.UsedSensor.IdentityOrIndex(index+1)
	}
	name = strings.TrimSuffix(name, ".txt")
	if !strings.HasPrefix(name, "a_") {
		name = "a_" + name
	}
	name = fileSafe(name)

	filename := name + ".txt"
	for n := 2; b.assayFiles[filename]; n++ {
		filename = fmt.Sprintf("%s_%d.txt", name, n)
	}
	b.assayFiles[filename] = true
	return filename
}

func (b *studyBuilder) addSensorAttributeValues(process *isa.Process, sensor model.Sensor) {
	for _, attr := range sensor.Attributes() {
		parameter := process.Protocol.FindParameter(attr.Name)
		if parameter == nil {
			parameter = &isa.ProtocolParameter{Name: isa.NewOntologyAnnotation(attr.Name)}
			process.Protocol.AddParameter(parameter)
		}
		b.addParameterValue(process, parameter, attr.Value, attr.Unit)
	}
}

// addEntryValues adds a parameter value for every entry that belongs to the
// sensor. Entries without a unit take the unit of their catalog definition.
func (b *studyBuilder) addEntryValues(process *isa.Process, entries []model.ProtocolEntry, sensorID string, catalog *Catalog) {
	for _, entry := range entries {
		resolved, ok := ResolveEntry(entry, sensorID, catalog)
		if !ok {
			continue
		}

		parameter := ParameterFor(process.Protocol, resolved)
		if !declares(process.Protocol, parameter) {
			process.Protocol.AddParameter(parameter)
		}

		unit := resolved.Unit
		if normalize.CleanUnitText(unit) == "" && resolved.Def.Unit != "" {
			unit = resolved.Def.Unit
		}
		b.addParameterValue(process, parameter, resolved.Value, unit)
	}
}

func (b *studyBuilder) addParameterValue(process *isa.Process, parameter *isa.ProtocolParameter, raw, rawUnit interface{}) {
	value, unit, mismatch := normalize.AttachUnit(raw, rawUnit)
	if mismatch {
		b.diagnostics.Warnf(UnitMismatch, "study %s: %s %q value %q is not numeric, unit %q dropped",
			b.input.ID, process.Name, parameter.ParameterName(), normalize.Stringify(raw), normalize.CleanUnitText(rawUnit))
	}

	process.AddParameterValue(&isa.ParameterValue{
		Category: parameter,
		Value:    value,
		Unit:     b.registries.Units.GetOrCreate(unit),
	})
}

// study attaches the accumulated entities to a new isa.Study.
func (b *studyBuilder) study() *isa.Study {
	study := &isa.Study{
		Identifier:               b.input.ID,
		Filename:                 "s_" + fileSafe(b.input.ID) + ".txt",
		Title:                    b.input.Name,
		Description:              b.input.Description,
		SubmissionDate:           b.input.SubmissionDate,
		PublicReleaseDate:        b.input.PublicationDate,
		Contacts:                 b.contacts,
		Publications:             b.publications,
		Protocols:                b.protocols,
		Sources:                  []*isa.Source{b.source},
		Samples:                  b.samples.all(),
		CharacteristicCategories: b.categories,
		ProcessSequence:          b.processes,
	}

	if descriptor := b.registries.Terms.GetOrCreate(b.input.ExperimentType); descriptor != nil {
		study.DesignDescriptors = append(study.DesignDescriptors, descriptor)
	}

	for _, factor := range b.factors {
		study.Factors = append(study.Factors, factor.factor)
	}

	for _, assay := range b.assays {
		assay.CharacteristicCategories = b.categories
		study.AddAssay(assay)
	}

	return study
}

func declares(protocol *isa.Protocol, parameter *isa.ProtocolParameter) bool {
	for _, declared := range protocol.Parameters {
		if declared == parameter {
			return true
		}
	}
	return false
}

func processName(protocol *isa.Protocol, run int) string {
	return fmt.Sprintf("%s run %02d", protocol.Name, run)
}

func fileNameOr(name, fallback string) string {
	if name = normalize.CleanText(name); name != "" {
		return name
	}
	return fallback
}

// fileSafe replaces the characters that cannot appear in a file name.
func fileSafe(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ', '\t':
			return '_'
		}
		return r
	}, name)
}
