// Package model holds the input side of a conversion. A Document describes an
// investigation the way the ISA-PHM wizard (or the legacy input workbook)
// describes it: a set of studies, each with one physical test setup that is
// run a number of times, and one assay per sensor on that setup.
//
// Every optional field has an explicit type here and its default is applied
// once, in ApplyDefaults, so the converter never has to guess at missing keys.
//
// A small document looks like:
//
//	{
//	  "identifier": "i1",
//	  "measurement_protocols": [{"id": "p1", "name": "Filter"}],
//	  "study_variables": [{"name": "Speed", "unit": "RPM"}],
//	  "studies": [{
//	    "id": "s1", "total_runs": 2,
//	    "used_setup": {"name": "Bearing rig", "sensors": [{"id": "acc1", "measurementType": "Vibration"}]},
//	    "study_to_study_variable_mapping": [{"variableName": "Speed", "runNumber": 1, "value": "1000"}],
//	    "assay_details": [{
//	      "used_sensor": {"id": "acc1", "measurementType": "Vibration"},
//	      "runs": [{"raw_file_name": "r1.csv"}, {"raw_file_name": "r2.csv"}],
//	      "measurement_protocols": [{"sourceId": "acc1", "targetId": "p1", "value": ["low-pass", ""]}]
//	    }]
//	  }]
//	}
package model

type Document struct {
	Identifier           string          `json:"identifier"`
	Title                string          `json:"title"`
	Description          string          `json:"description"`
	SubmissionDate       string          `json:"submission_date"`
	PublicReleaseDate    string          `json:"public_release_date"`
	ExperimentType       string          `json:"experiment_type"`
	License              string          `json:"license"`
	Contacts             []Contact       `json:"contacts"`
	Authors              []Contact       `json:"authors"`
	Publications         []Publication   `json:"publications"`
	MeasurementProtocols []ParameterDef  `json:"measurement_protocols"`
	ProcessingProtocols  []ParameterDef  `json:"processing_protocols"`
	StudyVariables       []StudyVariable `json:"study_variables"`
	Studies              []Study         `json:"studies"`
}

type Contact struct {
	FirstName   string   `json:"firstName"`
	MidInitials string   `json:"midInitials"`
	LastName    string   `json:"lastName"`
	Email       string   `json:"email"`
	Phone       string   `json:"phone"`
	Fax         string   `json:"fax"`
	Address     string   `json:"address"`
	Affiliation string   `json:"affiliation"`
	Orcid       string   `json:"orcid"`
	Role        string   `json:"role"`
	Roles       []string `json:"roles"`
}

// AllRoles returns Roles followed by Role when Role isn't already listed.
func (c Contact) AllRoles() []string {
	roles := append([]string{}, c.Roles...)
	if c.Role == "" {
		return roles
	}

	for _, role := range roles {
		if role == c.Role {
			return roles
		}
	}
	return append(roles, c.Role)
}

type Publication struct {
	Title      string   `json:"title"`
	AuthorList []string `json:"authorList"`
	Status     string   `json:"publicationStatus"`
	DOI        string   `json:"doi"`
	PubMedID   string   `json:"pubMedId"`
}

// ParameterDef is an entry in a measurement or processing protocol catalog.
// Protocol entries in the assays point at a ParameterDef by its ID.
type ParameterDef struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Unit        string `json:"unit"`
}

// DisplayName is the name, then the title. It is "" when neither is set.
func (p ParameterDef) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Title
}

type StudyVariable struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Unit        string `json:"unit"`
	Description string `json:"description"`
	Min         string `json:"min"`
	Max         string `json:"max"`
	Step        string `json:"step"`
}

type Study struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Description      string            `json:"description"`
	SubmissionDate   string            `json:"submissionDate"`
	PublicationDate  string            `json:"publicationDate"`
	ExperimentType   string            `json:"experimentType"`
	TotalRuns        int               `json:"total_runs"`
	UsedSetup        Setup             `json:"used_setup"`
	VariableMappings []VariableMapping `json:"study_to_study_variable_mapping"`
	Assays           []AssayDetail     `json:"assay_details"`
}

// FindMapping returns the mapping for the variable and run number.
func (s *Study) FindMapping(variableName string, runNumber int) (VariableMapping, bool) {
	for _, mapping := range s.VariableMappings {
		if mapping.VariableName == variableName && mapping.RunNumber == runNumber {
			return mapping, true
		}
	}
	return VariableMapping{}, false
}

type Setup struct {
	Name                              string           `json:"name"`
	Description                       string           `json:"description"`
	ExperimentPreparationProtocolName string           `json:"experimentPreparationProtocolName"`
	Sensors                           []Sensor         `json:"sensors"`
	Characteristics                   []Characteristic `json:"characteristics"`
}

type Characteristic struct {
	Category string      `json:"category"`
	Value    interface{} `json:"value"`
	Unit     string      `json:"unit"`
	Comment  string      `json:"comment"`
}

type VariableMapping struct {
	VariableName string      `json:"variableName"`
	RunNumber    int         `json:"runNumber"`
	Value        interface{} `json:"value"`
}
