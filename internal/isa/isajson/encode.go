// Package isajson writes an isa.Investigation as ISA-JSON. Objects that are
// referenced from elsewhere in the document get an "@id" of the form
// "#<kind>/<n>", numbered in the order the encoder first meets them. The same
// investigation therefore always encodes to the same bytes.
package isajson

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/NathanHouwaart/ISA-PHM-Backend/internal/isa"
)

// Object is a JSON object of the document. encoding/json writes map keys in
// sorted order.
type Object = map[string]interface{}

// DefaultIndent is the number of spaces each nesting level is indented by.
const DefaultIndent = 4

type Encoder struct {
	w      io.Writer
	indent int
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w, indent: DefaultIndent}
}

// SetIndent sets the indentation per level, 0 writes compact JSON.
func (e *Encoder) SetIndent(spaces int) {
	e.indent = spaces
}

func (e *Encoder) Encode(investigation *isa.Investigation) error {
	enc := json.NewEncoder(e.w)
	enc.SetEscapeHTML(false)
	if e.indent > 0 {
		enc.SetIndent("", strings.Repeat(" ", e.indent))
	}

	if err := enc.Encode(Document(investigation)); err != nil {
		return errors.Wrap(err, "unable to encode ISA-JSON")
	}
	return nil
}

// Document builds the ISA-JSON object of an investigation.
func Document(investigation *isa.Investigation) Object {
	return newIDs().investigation(investigation)
}

// ids hands out the "@id" of each referenced object.
type ids struct {
	counters map[string]int
	assigned map[interface{}]string
}

func newIDs() *ids {
	return &ids{
		counters: make(map[string]int),
		assigned: make(map[interface{}]string),
	}
}

func (d *ids) of(kind string, object interface{}) string {
	if id, ok := d.assigned[object]; ok {
		return id
	}

	d.counters[kind]++
	id := fmt.Sprintf("#%s/%d", kind, d.counters[kind])
	d.assigned[object] = id
	return id
}

// An annotation used as unit or characteristic category is also an object
// of its own, these keys keep its ids apart.
type (
	unitKey     struct{ *isa.OntologyAnnotation }
	categoryKey struct{ *isa.OntologyAnnotation }
)

func ref(id string) Object {
	return Object{"@id": id}
}

func (d *ids) investigation(i *isa.Investigation) Object {
	studies := make([]interface{}, 0, len(i.Studies))
	for _, study := range i.Studies {
		studies = append(studies, d.study(study))
	}

	return Object{
		"identifier":               i.Identifier,
		"filename":                 i.Filename,
		"title":                    i.Title,
		"description":              i.Description,
		"submissionDate":           i.SubmissionDate,
		"publicReleaseDate":        i.PublicReleaseDate,
		"ontologySourceReferences": []interface{}{},
		"people":                   d.people(i.Contacts),
		"publications":             d.publications(i.Publications),
		"studies":                  studies,
		"comments":                 comments(i.Comments),
	}
}

func (d *ids) study(s *isa.Study) Object {
	protocols := make([]interface{}, 0, len(s.Protocols))
	for _, protocol := range s.Protocols {
		protocols = append(protocols, d.protocol(protocol))
	}

	factors := make([]interface{}, 0, len(s.Factors))
	for _, factor := range s.Factors {
		factors = append(factors, Object{
			"@id":        d.of("factor", factor),
			"factorName": factor.Name,
			"factorType": d.annotation(factor.Type),
			"comments":   comments(factor.Comments),
		})
	}

	sources := make([]interface{}, 0, len(s.Sources))
	for _, source := range s.Sources {
		sources = append(sources, Object{
			"@id":             d.of("source", source),
			"name":            source.Name,
			"characteristics": d.characteristics(source.Characteristics),
			"comments":        comments(source.Comments),
		})
	}

	samples := make([]interface{}, 0, len(s.Samples))
	for _, sample := range s.Samples {
		samples = append(samples, d.sample(sample))
	}

	assays := make([]interface{}, 0, len(s.Assays))
	for _, assay := range s.Assays {
		assays = append(assays, d.assay(assay))
	}

	return Object{
		"identifier":             s.Identifier,
		"filename":               s.Filename,
		"title":                  s.Title,
		"description":            s.Description,
		"submissionDate":         s.SubmissionDate,
		"publicReleaseDate":      s.PublicReleaseDate,
		"studyDesignDescriptors": d.annotations(s.DesignDescriptors),
		"people":                 d.people(s.Contacts),
		"publications":           d.publications(s.Publications),
		"protocols":              protocols,
		"factors":                factors,
		"materials": Object{
			"sources":        sources,
			"samples":        samples,
			"otherMaterials": []interface{}{},
		},
		"characteristicCategories": d.categories(s.CharacteristicCategories),
		"unitCategories":           d.units(s.Units),
		"processSequence":          d.processes(s.ProcessSequence),
		"assays":                   assays,
		"comments":                 comments(s.Comments),
	}
}

func (d *ids) assay(a *isa.Assay) Object {
	dataFiles := make([]interface{}, 0, len(a.DataFiles))
	for _, file := range a.DataFiles {
		dataFiles = append(dataFiles, Object{
			"@id":      d.of("data", file),
			"name":     file.Name,
			"type":     file.Label,
			"comments": comments(file.Comments),
		})
	}

	samples := make([]interface{}, 0, len(a.Samples))
	for _, sample := range a.Samples {
		samples = append(samples, ref(d.of("sample", sample)))
	}

	return Object{
		"@id":                d.of("assay", a),
		"filename":           a.Filename,
		"measurementType":    d.annotation(a.MeasurementType),
		"technologyType":     d.annotation(a.TechnologyType),
		"technologyPlatform": a.TechnologyPlatform,
		"dataFiles":          dataFiles,
		"materials": Object{
			"samples":        samples,
			"otherMaterials": []interface{}{},
		},
		"characteristicCategories": d.categories(a.CharacteristicCategories),
		"unitCategories":           d.units(a.Units),
		"processSequence":          d.processes(a.ProcessSequence),
		"comments":                 comments(a.Comments),
	}
}

func (d *ids) protocol(p *isa.Protocol) Object {
	parameters := make([]interface{}, 0, len(p.Parameters))
	for _, parameter := range p.Parameters {
		parameters = append(parameters, Object{
			"@id":           d.of("parameter", parameter),
			"parameterName": d.annotation(parameter.Name),
		})
	}

	return Object{
		"@id":          d.of("protocol", p),
		"name":         p.Name,
		"description":  p.Description,
		"protocolType": d.annotation(p.Type),
		"uri":          "",
		"version":      "",
		"parameters":   parameters,
		"components":   []interface{}{},
		"comments":     comments(p.Comments),
	}
}

func (d *ids) sample(s *isa.Sample) Object {
	derivesFrom := make([]interface{}, 0, len(s.DerivesFrom))
	for _, source := range s.DerivesFrom {
		derivesFrom = append(derivesFrom, ref(d.of("source", source)))
	}

	factorValues := make([]interface{}, 0, len(s.FactorValues))
	for _, fv := range s.FactorValues {
		factorValues = append(factorValues, d.value(ref(d.of("factor", fv.Factor)), fv.Value, fv.Unit))
	}

	return Object{
		"@id":             d.of("sample", s),
		"name":            s.Name,
		"derivesFrom":     derivesFrom,
		"characteristics": d.characteristics(s.Characteristics),
		"factorValues":    factorValues,
		"comments":        comments(s.Comments),
	}
}

func (d *ids) processes(sequence []*isa.Process) []interface{} {
	processes := make([]interface{}, 0, len(sequence))
	for _, p := range sequence {
		processes = append(processes, d.process(p))
	}
	return processes
}

func (d *ids) process(p *isa.Process) Object {
	values := make([]interface{}, 0, len(p.ParameterValues))
	for _, pv := range p.ParameterValues {
		values = append(values, d.value(ref(d.of("parameter", pv.Category)), pv.Value, pv.Unit))
	}

	process := Object{
		"@id":              d.of("process", p),
		"name":             p.Name,
		"executesProtocol": ref(d.of("protocol", p.Protocol)),
		"parameterValues":  values,
		"performer":        "",
		"date":             "",
		"inputs":           d.nodes(p.Inputs),
		"outputs":          d.nodes(p.Outputs),
		"comments":         comments(p.Comments),
	}

	if p.PreviousProcess != nil {
		process["previousProcess"] = ref(d.of("process", p.PreviousProcess))
	}
	if p.NextProcess != nil {
		process["nextProcess"] = ref(d.of("process", p.NextProcess))
	}

	return process
}

func (d *ids) nodes(nodes []isa.Node) []interface{} {
	refs := make([]interface{}, 0, len(nodes))
	for _, node := range nodes {
		refs = append(refs, ref(d.of(nodeKind(node), node)))
	}
	return refs
}

func nodeKind(node isa.Node) string {
	switch node.NodeType() {
	case isa.SourceNode:
		return "source"
	case isa.SampleNode:
		return "sample"
	default:
		return "data"
	}
}

func (d *ids) characteristics(characteristics []*isa.Characteristic) []interface{} {
	values := make([]interface{}, 0, len(characteristics))
	for _, c := range characteristics {
		value := d.value(ref(d.of("characteristic_category", categoryKey{c.Category})), c.Value, c.Unit)
		value["comments"] = comments(c.Comments)
		values = append(values, value)
	}
	return values
}

// value encodes a characteristic, factor or parameter value. A unit is only
// written for values that have one.
func (d *ids) value(category Object, value interface{}, unit *isa.OntologyAnnotation) Object {
	v := Object{
		"category": category,
		"value":    value,
	}
	if unit != nil {
		v["unit"] = ref(d.of("unit", unitKey{unit}))
	}
	return v
}

// categories encodes the characteristic categories. Each category is an
// annotation that is referenced by the characteristics using it.
func (d *ids) categories(categories []*isa.OntologyAnnotation) []interface{} {
	values := make([]interface{}, 0, len(categories))
	for _, category := range categories {
		values = append(values, Object{
			"@id":                d.of("characteristic_category", categoryKey{category}),
			"characteristicType": d.annotation(category),
		})
	}
	return values
}

func (d *ids) annotation(a *isa.OntologyAnnotation) interface{} {
	if a == nil {
		return Object{}
	}
	return d.term("ontology_annotation", a, a)
}

func (d *ids) term(kind string, key interface{}, a *isa.OntologyAnnotation) Object {
	return Object{
		"@id":             d.of(kind, key),
		"annotationValue": a.Term,
		"termSource":      a.TermSource,
		"termAccession":   a.TermAccession,
		"comments":        comments(a.Comments),
	}
}

func (d *ids) annotations(annotations []*isa.OntologyAnnotation) []interface{} {
	values := make([]interface{}, 0, len(annotations))
	for _, a := range annotations {
		values = append(values, d.annotation(a))
	}
	return values
}

// units encodes the unit categories. A unit is known by its own "#unit/"
// id, apart from the id of the annotation it is.
func (d *ids) units(units []*isa.OntologyAnnotation) []interface{} {
	values := make([]interface{}, 0, len(units))
	for _, unit := range units {
		values = append(values, d.term("unit", unitKey{unit}, unit))
	}
	return values
}

func (d *ids) people(people []*isa.Person) []interface{} {
	values := make([]interface{}, 0, len(people))
	for _, p := range people {
		values = append(values, Object{
			"firstName":   p.FirstName,
			"lastName":    p.LastName,
			"midInitials": p.MidInitials,
			"email":       p.Email,
			"phone":       p.Phone,
			"fax":         p.Fax,
			"address":     p.Address,
			"affiliation": p.Affiliation,
			"roles":       d.annotations(p.Roles),
			"comments":    comments(p.Comments),
		})
	}
	return values
}

func (d *ids) publications(publications []*isa.Publication) []interface{} {
	values := make([]interface{}, 0, len(publications))
	for _, p := range publications {
		values = append(values, Object{
			"title":      p.Title,
			"authorList": p.AuthorList,
			"doi":        p.DOI,
			"pubMedID":   p.PubMedID,
			"status":     d.annotation(p.Status),
			"comments":   comments(p.Comments),
		})
	}
	return values
}

func comments(comments []isa.Comment) []interface{} {
	values := make([]interface{}, 0, len(comments))
	for _, c := range comments {
		values = append(values, Object{"name": c.Name, "value": c.Value})
	}
	return values
}
