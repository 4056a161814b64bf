// Package converter turns a loaded experiment document into an ISA
// investigation graph. A conversion is a single pass: the composer builds the
// investigation level entities, then walks every study, its assays and their
// runs, and links the resulting processes.
package converter

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"

	"github.com/NathanHouwaart/ISA-PHM-Backend/internal/isa"
	"github.com/NathanHouwaart/ISA-PHM-Backend/internal/model"
	"github.com/NathanHouwaart/ISA-PHM-Backend/internal/normalize"
	"github.com/NathanHouwaart/ISA-PHM-Backend/internal/registry"
)

const (
	DefaultLicense         = "MIT License"
	DefaultUnknownFileName = "unknown.txt"
	DefaultUnusedFileName  = "not-used.txt"
)

// Options control the parts of a conversion that are not determined by the
// input document.
type Options struct {
	// Notepad receives the diagnostics as warnings. When nil, warnings go
	// to stderr.
	Notepad *jww.Notepad

	// DefaultLicense is used when the document doesn't declare a license.
	DefaultLicense string

	// MissingFactorValue is the placeholder value for a study variable that
	// has no mapping for a run. When empty the factor value is left out.
	MissingFactorValue string

	// UnknownFileName names raw data files that the document doesn't name.
	UnknownFileName string

	// UnusedFileName names processed data files that the document doesn't name.
	UnusedFileName string
}

func DefaultOptions() Options {
	return Options{
		DefaultLicense:  DefaultLicense,
		UnknownFileName: DefaultUnknownFileName,
		UnusedFileName:  DefaultUnusedFileName,
	}
}

func (o Options) withDefaults() Options {
	if o.DefaultLicense == "" {
		o.DefaultLicense = DefaultLicense
	}
	if o.UnknownFileName == "" {
		o.UnknownFileName = DefaultUnknownFileName
	}
	if o.UnusedFileName == "" {
		o.UnusedFileName = DefaultUnusedFileName
	}
	return o
}

// ProtocolKey identifies the protocol of a sensor within a study. Every
// sensor has its own measurement and processing protocol, even when sensors
// share a measurement type.
type ProtocolKey struct {
	MeasurementType string
	Kind            isa.ProtocolKind
	SensorID        string
}

func (k ProtocolKey) protocolName() string {
	return strings.TrimSpace(fmt.Sprintf("%s %s (%s)", k.MeasurementType, k.Kind, k.SensorID))
}

// converter holds the state of one conversion. Nothing in it outlives the
// call to Convert.
type converter struct {
	opts               Options
	registries         *registry.Set
	diagnostics        *Diagnostics
	measurementCatalog *Catalog
	processingCatalog  *Catalog
	studyVariables     []model.StudyVariable
	contacts           []*isa.Person
	publications       []*isa.Publication
}

// Convert builds the investigation graph for doc. Soft conditions, such as a
// study variable without a value for a run, are collected in the returned
// Diagnostics and never stop the conversion. An error is only returned when
// the document cannot be converted at all, in which case no investigation is
// returned.
func Convert(doc *model.Document, opts Options) (*isa.Investigation, *Diagnostics, error) {
	opts = opts.withDefaults()
	diagnostics := newDiagnostics(opts.Notepad)

	if doc == nil {
		return nil, diagnostics, errors.New("no document to convert")
	}

	c := &converter{
		opts:               opts,
		registries:         registry.NewSet(),
		diagnostics:        diagnostics,
		measurementCatalog: NewCatalog(doc.MeasurementProtocols),
		processingCatalog:  NewCatalog(doc.ProcessingProtocols),
		studyVariables:     doc.StudyVariables,
	}

	if err := checkStudyIdentifiers(doc.Studies); err != nil {
		return nil, diagnostics, err
	}

	investigation := c.buildInvestigation(doc)
	c.checkCatalogs(doc)

	for i := range doc.Studies {
		investigation.AddStudy(c.buildStudy(&doc.Studies[i]))
	}

	units := c.registries.Units.Values()
	for _, study := range investigation.Studies {
		study.Units = append([]*isa.OntologyAnnotation(nil), units...)
		for _, assay := range study.Assays {
			assay.Units = append([]*isa.OntologyAnnotation(nil), units...)
		}
	}

	return investigation, diagnostics, nil
}

// checkStudyIdentifiers makes sure every study can be told apart. Study ids
// name the study files, so a missing or repeated id is fatal.
func checkStudyIdentifiers(studies []model.Study) error {
	var result *multierror.Error
	result = multierror.Append(result, model.StudyIDErrors(studies)...)
	return result.ErrorOrNil()
}

func (c *converter) buildInvestigation(doc *model.Document) *isa.Investigation {
	investigation := &isa.Investigation{
		Identifier:        doc.Identifier,
		Filename:          isa.DefaultInvestigationFilename,
		Title:             doc.Title,
		Description:       doc.Description,
		SubmissionDate:    doc.SubmissionDate,
		PublicReleaseDate: doc.PublicReleaseDate,
	}

	license := normalize.CleanText(doc.License)
	if license == "" {
		license = c.opts.DefaultLicense
	}
	investigation.AddComment("License", license)

	if doc.ExperimentType != "" {
		investigation.AddComment("Experiment Type", doc.ExperimentType)
	}

	for _, contact := range doc.Contacts {
		c.contacts = append(c.contacts, c.buildPerson(contact))
	}

	for _, publication := range doc.Publications {
		c.publications = append(c.publications, &isa.Publication{
			Title:      publication.Title,
			AuthorList: strings.Join(publication.AuthorList, "; "),
			DOI:        publication.DOI,
			PubMedID:   publication.PubMedID,
			Status:     c.registries.Terms.GetOrCreate(publication.Status),
		})
	}

	investigation.Contacts = c.contacts
	investigation.Publications = c.publications
	return investigation
}

func (c *converter) buildPerson(contact model.Contact) *isa.Person {
	person := &isa.Person{
		FirstName:   contact.FirstName,
		LastName:    contact.LastName,
		MidInitials: contact.MidInitials,
		Email:       contact.Email,
		Phone:       contact.Phone,
		Fax:         contact.Fax,
		Address:     contact.Address,
		Affiliation: contact.Affiliation,
	}

	for _, role := range contact.AllRoles() {
		if annotation := c.registries.Roles.GetOrCreate(role); annotation != nil {
			person.Roles = append(person.Roles, annotation)
		}
	}

	if contact.Orcid != "" {
		person.AddComment("orcid", contact.Orcid)
	}

	return person
}

// checkCatalogs warns when entries refer to a catalog that declares nothing.
// The entries still convert, their parameters are named by target id.
func (c *converter) checkCatalogs(doc *model.Document) {
	var measurementEntries, processingEntries bool
	for i := range doc.Studies {
		for j := range doc.Studies[i].Assays {
			assay := &doc.Studies[i].Assays[j]
			measurementEntries = measurementEntries || len(assay.AllEntries(false)) != 0
			processingEntries = processingEntries || len(assay.AllEntries(true)) != 0
		}
	}

	if measurementEntries && c.measurementCatalog.Len() == 0 {
		c.diagnostics.Warnf(EmptyCatalog, "no measurement protocol parameters declared, parameters are named by id")
	}
	if processingEntries && c.processingCatalog.Len() == 0 {
		c.diagnostics.Warnf(EmptyCatalog, "no processing protocol parameters declared, parameters are named by id")
	}
}

func (c *converter) buildStudy(input *model.Study) *isa.Study {
	b := newStudyBuilder(c, input)

	b.buildProtocols()
	b.buildSetup()
	b.buildFactors()
	b.buildRunSamples()
	b.buildPreparationProcess()

	for i := range input.Assays {
		b.buildAssay(&input.Assays[i], i)
	}

	return b.study()
}

// buildProtocols declares the preparation protocol followed by the
// measurement protocols and then the processing protocols of every sensor of
// the setup.
func (b *studyBuilder) buildProtocols() {
	b.preparation = &isa.Protocol{
		Name: b.input.UsedSetup.ExperimentPreparationProtocolName,
		Kind: isa.PreparationProtocol,
		Type: b.registries.Terms.GetOrCreate(isa.PreparationProtocol.TypeTerm()),
	}
	if b.preparation.Name == "" {
		b.preparation.Name = model.DefaultPreparationProtocol
	}
	b.protocols = append(b.protocols, b.preparation)

	var measurement, processing []*isa.Protocol
	for _, sensor := range b.input.UsedSetup.Sensors {
		if sensor.Identity() == "" {
			b.diagnostics.Warnf(MissingSensorID, "study %s: %s sensor has no id, name or location",
				b.input.ID, sensor.MeasurementType)
		}

		m, p, ok := b.declareSensorProtocols(sensor)
		if !ok {
			continue
		}
		measurement = append(measurement, m)
		processing = append(processing, p)
	}

	b.protocols = append(b.protocols, measurement...)
	b.protocols = append(b.protocols, processing...)
}

// declareSensorProtocols creates the measurement and processing protocol of
// a sensor. It returns false when the sensor's protocols already exist.
func (b *studyBuilder) declareSensorProtocols(sensor model.Sensor) (*isa.Protocol, *isa.Protocol, bool) {
	b.sensorCount++
	sensorID := sensor.IdentityOrIndex(b.sensorCount)

	measurementKey := ProtocolKey{MeasurementType: sensor.MeasurementType, Kind: isa.MeasurementProtocol, SensorID: sensorID}
	processingKey := ProtocolKey{MeasurementType: sensor.MeasurementType, Kind: isa.ProcessingProtocol, SensorID: sensorID}

	if existing, ok := b.byKey[measurementKey]; ok {
		b.diagnostics.Warnf(AmbiguousProtocol, "study %s: sensor %q is declared more than once, using %q",
			b.input.ID, sensorID, existing.Name)
		return existing, b.byKey[processingKey], false
	}

	measurement := &isa.Protocol{
		Name:        measurementKey.protocolName(),
		Description: sensor.Description,
		Kind:        isa.MeasurementProtocol,
		Type:        b.registries.Terms.GetOrCreate(isa.MeasurementProtocol.TypeTerm()),
	}
	for _, attr := range sensor.Attributes() {
		measurement.AddParameter(&isa.ProtocolParameter{Name: isa.NewOntologyAnnotation(attr.Name)})
	}
	for _, parameter := range BuildParametersForSensor(b.input, sensor.Identity(), b.measurementCatalog, false) {
		measurement.AddParameter(parameter)
	}

	processing := &isa.Protocol{
		Name: processingKey.protocolName(),
		Kind: isa.ProcessingProtocol,
		Type: b.registries.Terms.GetOrCreate(isa.ProcessingProtocol.TypeTerm()),
	}
	for _, parameter := range BuildParametersForSensor(b.input, sensor.Identity(), b.processingCatalog, true) {
		processing.AddParameter(parameter)
	}

	b.byKey[measurementKey] = measurement
	b.byKey[processingKey] = processing
	b.measurementKeys = append(b.measurementKeys, measurementKey)

	return measurement, processing, true
}

// protocolsFor finds the measurement and processing protocol of an assay's
// sensor. A sensor with an identity must match on its key. Without one the
// match is on measurement type only, and when that matches more than one
// sensor the first declared one is used and the ambiguity is reported. An
// assay sensor that the setup doesn't declare gets its own protocols.
func (b *studyBuilder) protocolsFor(sensor model.Sensor) (measurement, processing *isa.Protocol) {
	if sensorID := sensor.Identity(); sensorID != "" {
		key := ProtocolKey{MeasurementType: sensor.MeasurementType, Kind: isa.MeasurementProtocol, SensorID: sensorID}
		if found, ok := b.byKey[key]; ok {
			key.Kind = isa.ProcessingProtocol
			return found, b.byKey[key]
		}
		return b.addSensorProtocols(sensor)
	}

	var candidates []ProtocolKey
	for _, key := range b.measurementKeys {
		if key.MeasurementType == sensor.MeasurementType {
			candidates = append(candidates, key)
		}
	}

	switch len(candidates) {
	case 0:
		b.diagnostics.Warnf(MissingSensorID, "study %s: assay %s sensor has no id and matches no setup sensor",
			b.input.ID, sensor.MeasurementType)
		return b.addSensorProtocols(sensor)
	case 1:
	default:
		names := make([]string, 0, len(candidates))
		for _, key := range candidates {
			names = append(names, b.byKey[key].Name)
		}
		b.diagnostics.Warnf(AmbiguousProtocol, "study %s: assay %s sensor has no id and matches %s, using %q",
			b.input.ID, sensor.MeasurementType, strings.Join(names, ", "), names[0])
	}

	key := candidates[0]
	measurement = b.byKey[key]
	key.Kind = isa.ProcessingProtocol
	return measurement, b.byKey[key]
}

func (b *studyBuilder) addSensorProtocols(sensor model.Sensor) (*isa.Protocol, *isa.Protocol) {
	measurement, processing, ok := b.declareSensorProtocols(sensor)
	if ok {
		b.protocols = append(b.protocols, measurement, processing)
	}
	return measurement, processing
}
