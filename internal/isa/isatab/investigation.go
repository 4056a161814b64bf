package isatab

import (
	"strings"

	"github.com/NathanHouwaart/ISA-PHM-Backend/internal/isa"
)

// InvestigationFile lays out the i_ file: one section per block, each row a
// label followed by one value per item of the block.
func InvestigationFile(investigation *isa.Investigation) [][]string {
	var f sectioned

	f.section("ONTOLOGY SOURCE REFERENCE")
	f.row("Term Source Name")
	f.row("Term Source File")
	f.row("Term Source Version")
	f.row("Term Source Description")

	f.section("INVESTIGATION")
	f.row("Investigation Identifier", investigation.Identifier)
	f.row("Investigation Title", investigation.Title)
	f.row("Investigation Description", investigation.Description)
	f.row("Investigation Submission Date", investigation.SubmissionDate)
	f.row("Investigation Public Release Date", investigation.PublicReleaseDate)
	f.comments(investigation.Comments)

	f.section("INVESTIGATION PUBLICATIONS")
	f.publications("Investigation", investigation.Publications)

	f.section("INVESTIGATION CONTACTS")
	f.contacts("Investigation", investigation.Contacts)

	for _, study := range investigation.Studies {
		f.study(study)
	}

	return f.rows
}

type sectioned struct {
	rows [][]string
}

func (f *sectioned) section(name string) {
	f.rows = append(f.rows, []string{name})
}

func (f *sectioned) row(label string, values ...string) {
	f.rows = append(f.rows, append([]string{label}, values...))
}

// comments writes a Comment[name] row per comment name, in order of first
// appearance.
func (f *sectioned) comments(comments []isa.Comment) {
	for _, comment := range comments {
		f.row("Comment["+comment.Name+"]", comment.Value)
	}
}

// itemComments writes the comments of a block of items. Items without a
// given comment get an empty cell.
func (f *sectioned) itemComments(all [][]isa.Comment) {
	var names []string
	seen := make(map[string]bool)
	for _, comments := range all {
		for _, comment := range comments {
			if !seen[comment.Name] {
				seen[comment.Name] = true
				names = append(names, comment.Name)
			}
		}
	}

	for _, name := range names {
		values := make([]string, len(all))
		for i, comments := range all {
			for _, comment := range comments {
				if comment.Name == name {
					values[i] = comment.Value
				}
			}
		}
		f.row("Comment["+name+"]", values...)
	}
}

// annotationRows writes the term, accession and source columns of a list
// of annotations, one per item.
func (f *sectioned) annotationRows(label string, annotations []*isa.OntologyAnnotation) {
	var terms, accessions, sources []string
	for _, a := range annotations {
		terms = append(terms, term(a))
		accessions = append(accessions, accession(a))
		sources = append(sources, source(a))
	}

	f.row(label, terms...)
	f.row(label+" Term Accession Number", accessions...)
	f.row(label+" Term Source REF", sources...)
}

func (f *sectioned) publications(prefix string, publications []*isa.Publication) {
	var pubmed, doi, authors, titles []string
	var statuses []*isa.OntologyAnnotation
	var comments [][]isa.Comment
	for _, p := range publications {
		pubmed = append(pubmed, p.PubMedID)
		doi = append(doi, p.DOI)
		authors = append(authors, p.AuthorList)
		titles = append(titles, p.Title)
		statuses = append(statuses, p.Status)
		comments = append(comments, p.Comments)
	}

	f.row(prefix+" PubMed ID", pubmed...)
	f.row(prefix+" Publication DOI", doi...)
	f.row(prefix+" Publication Author List", authors...)
	f.row(prefix+" Publication Title", titles...)
	f.annotationRows(prefix+" Publication Status", statuses)
	f.itemComments(comments)
}

func (f *sectioned) contacts(prefix string, people []*isa.Person) {
	columns := []struct {
		label string
		value func(*isa.Person) string
	}{
		{"Last Name", func(p *isa.Person) string { return p.LastName }},
		{"First Name", func(p *isa.Person) string { return p.FirstName }},
		{"Mid Initials", func(p *isa.Person) string { return p.MidInitials }},
		{"Email", func(p *isa.Person) string { return p.Email }},
		{"Phone", func(p *isa.Person) string { return p.Phone }},
		{"Fax", func(p *isa.Person) string { return p.Fax }},
		{"Address", func(p *isa.Person) string { return p.Address }},
		{"Affiliation", func(p *isa.Person) string { return p.Affiliation }},
	}

	for _, column := range columns {
		var values []string
		for _, p := range people {
			values = append(values, column.value(p))
		}
		f.row(prefix+" Person "+column.label, values...)
	}

	// Roles of a person are joined in one cell.
	var roles, accessions, sources []string
	var comments [][]isa.Comment
	for _, p := range people {
		roles = append(roles, joinTerms(p.Roles, term))
		accessions = append(accessions, joinTerms(p.Roles, accession))
		sources = append(sources, joinTerms(p.Roles, source))
		comments = append(comments, p.Comments)
	}
	f.row(prefix+" Person Roles", roles...)
	f.row(prefix+" Person Roles Term Accession Number", accessions...)
	f.row(prefix+" Person Roles Term Source REF", sources...)
	f.itemComments(comments)
}

func (f *sectioned) study(study *isa.Study) {
	f.section("STUDY")
	f.row("Study Identifier", study.Identifier)
	f.row("Study Title", study.Title)
	f.row("Study Description", study.Description)
	f.row("Study Submission Date", study.SubmissionDate)
	f.row("Study Public Release Date", study.PublicReleaseDate)
	f.row("Study File Name", study.Filename)
	f.comments(study.Comments)

	f.section("STUDY DESIGN DESCRIPTORS")
	f.annotationRows("Study Design Type", study.DesignDescriptors)

	f.section("STUDY PUBLICATIONS")
	f.publications("Study", study.Publications)

	f.section("STUDY FACTORS")
	var names []string
	var types []*isa.OntologyAnnotation
	var factorComments [][]isa.Comment
	for _, factor := range study.Factors {
		names = append(names, factor.Name)
		types = append(types, factor.Type)
		factorComments = append(factorComments, factor.Comments)
	}
	f.row("Study Factor Name", names...)
	f.annotationRows("Study Factor Type", types)
	f.itemComments(factorComments)

	f.section("STUDY ASSAYS")
	var files, platforms []string
	var measurementTypes, technologyTypes []*isa.OntologyAnnotation
	for _, assay := range study.Assays {
		files = append(files, assay.Filename)
		measurementTypes = append(measurementTypes, assay.MeasurementType)
		technologyTypes = append(technologyTypes, assay.TechnologyType)
		platforms = append(platforms, assay.TechnologyPlatform)
	}
	f.annotationRows("Study Assay Measurement Type", measurementTypes)
	f.annotationRows("Study Assay Technology Type", technologyTypes)
	f.row("Study Assay Technology Platform", platforms...)
	f.row("Study Assay File Name", files...)

	f.section("STUDY PROTOCOLS")
	var protocolNames, descriptions, empty, parameters, parameterAccessions, parameterSources []string
	var protocolTypes []*isa.OntologyAnnotation
	for _, protocol := range study.Protocols {
		protocolNames = append(protocolNames, protocol.Name)
		protocolTypes = append(protocolTypes, protocol.Type)
		descriptions = append(descriptions, protocol.Description)
		empty = append(empty, "")

		var names []*isa.OntologyAnnotation
		for _, parameter := range protocol.Parameters {
			names = append(names, parameter.Name)
		}
		parameters = append(parameters, joinTerms(names, term))
		parameterAccessions = append(parameterAccessions, joinTerms(names, accession))
		parameterSources = append(parameterSources, joinTerms(names, source))
	}
	f.row("Study Protocol Name", protocolNames...)
	f.annotationRows("Study Protocol Type", protocolTypes)
	f.row("Study Protocol Description", descriptions...)
	f.row("Study Protocol URI", empty...)
	f.row("Study Protocol Version", empty...)
	f.row("Study Protocol Parameters Name", parameters...)
	f.row("Study Protocol Parameters Name Term Accession Number", parameterAccessions...)
	f.row("Study Protocol Parameters Name Term Source REF", parameterSources...)
	f.row("Study Protocol Components Name", empty...)
	f.row("Study Protocol Components Type", empty...)
	f.row("Study Protocol Components Type Term Accession Number", empty...)
	f.row("Study Protocol Components Type Term Source REF", empty...)

	f.section("STUDY CONTACTS")
	f.contacts("Study", study.Contacts)
}

func term(a *isa.OntologyAnnotation) string {
	if a == nil {
		return ""
	}
	return a.Term
}

func accession(a *isa.OntologyAnnotation) string {
	if a == nil {
		return ""
	}
	return a.TermAccession
}

func source(a *isa.OntologyAnnotation) string {
	if a == nil {
		return ""
	}
	return a.TermSource
}

// joinTerms joins one field of several annotations with ";", the list
// separator inside an ISA-Tab cell.
func joinTerms(annotations []*isa.OntologyAnnotation, field func(*isa.OntologyAnnotation) string) string {
	values := make([]string, 0, len(annotations))
	for _, a := range annotations {
		values = append(values, field(a))
	}

	joined := strings.Join(values, ";")
	if strings.Trim(joined, ";") == "" {
		return ""
	}
	return joined
}
