// Package isa contains the Investigation/Study/Assay object graph that the
// converter populates. The graph is a plain in-memory structure, objects refer
// to each other by pointer and the serializers (isajson, isatab) assign
// identifiers when they walk it.
package isa

type Comment struct {
	Name  string
	Value string
}

type Commented struct {
	Comments []Comment
}

func (c *Commented) AddComment(name, value string) {
	c.Comments = append(c.Comments, Comment{Name: name, Value: value})
}

// OntologyAnnotation is a term with an optional reference into an ontology.
// Units, roles and other recurring terms are shared by pointer, see the
// registry package.
type OntologyAnnotation struct {
	Commented
	Term          string
	TermSource    string
	TermAccession string
}

func NewOntologyAnnotation(term string) *OntologyAnnotation {
	return &OntologyAnnotation{Term: term}
}

type Person struct {
	Commented
	FirstName   string
	LastName    string
	MidInitials string
	Email       string
	Phone       string
	Fax         string
	Address     string
	Affiliation string
	Roles       []*OntologyAnnotation
}

type Publication struct {
	Commented
	Title      string
	AuthorList string
	DOI        string
	PubMedID   string
	Status     *OntologyAnnotation
}

// DefaultInvestigationFilename is the name of the ISA-Tab investigation file.
const DefaultInvestigationFilename = "i_investigation.txt"

type Investigation struct {
	Commented
	Identifier        string
	Filename          string
	Title             string
	Description       string
	SubmissionDate    string
	PublicReleaseDate string
	Contacts          []*Person
	Publications      []*Publication
	Studies           []*Study
}

func (i *Investigation) AddStudy(study *Study) {
	i.Studies = append(i.Studies, study)
}

type Study struct {
	Commented
	Identifier               string
	Filename                 string
	Title                    string
	Description              string
	SubmissionDate           string
	PublicReleaseDate        string
	DesignDescriptors        []*OntologyAnnotation
	Contacts                 []*Person
	Publications             []*Publication
	Protocols                []*Protocol
	Factors                  []*StudyFactor
	Sources                  []*Source
	Samples                  []*Sample
	CharacteristicCategories []*OntologyAnnotation
	Units                    []*OntologyAnnotation
	ProcessSequence          []*Process
	Assays                   []*Assay
}

func (s *Study) AddAssay(assay *Assay) {
	s.Assays = append(s.Assays, assay)
}

// Assay groups the processes and data files of one sensor in a study.
type Assay struct {
	Commented
	Filename                 string
	MeasurementType          *OntologyAnnotation
	TechnologyType           *OntologyAnnotation
	TechnologyPlatform       string
	Samples                  []*Sample
	DataFiles                []*DataFile
	CharacteristicCategories []*OntologyAnnotation
	Units                    []*OntologyAnnotation
	ProcessSequence          []*Process
}

func (a *Assay) AddDataFile(file *DataFile) {
	a.DataFiles = append(a.DataFiles, file)
}

type StudyFactor struct {
	Commented
	Name string
	Type *OntologyAnnotation
}

type FactorValue struct {
	Factor *StudyFactor
	Value  interface{}
	Unit   *OntologyAnnotation
}

type Characteristic struct {
	Commented
	Category *OntologyAnnotation
	Value    interface{}
	Unit     *OntologyAnnotation
}
