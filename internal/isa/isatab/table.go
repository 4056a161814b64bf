package isatab

import (
	"github.com/NathanHouwaart/ISA-PHM-Backend/internal/isa"
	"github.com/NathanHouwaart/ISA-PHM-Backend/internal/normalize"
)

// A path is one row of a study or assay file: a node, the process that
// consumed it, the node that process produced and so on.
type path []interface{}

// paths follows the process sequence from every node that no process of the
// sequence produces. Processes are visited in sequence order, so rows come
// out in the order the processes were created.
func paths(sequence []*isa.Process) []path {
	consumers := make(map[isa.Node][]*isa.Process)
	produced := make(map[isa.Node]bool)
	var starts []isa.Node

	for _, process := range sequence {
		for _, output := range process.Outputs {
			produced[output] = true
		}
	}

	seen := make(map[isa.Node]bool)
	for _, process := range sequence {
		for _, input := range process.Inputs {
			consumers[input] = append(consumers[input], process)
			if !produced[input] && !seen[input] {
				seen[input] = true
				starts = append(starts, input)
			}
		}
	}

	var all []path
	var walk func(node isa.Node, current path)
	walk = func(node isa.Node, current path) {
		current = append(current, node)

		next := consumers[node]
		if len(next) == 0 {
			all = append(all, append(path(nil), current...))
			return
		}

		for _, process := range next {
			if len(process.Outputs) == 0 {
				all = append(all, append(append(path(nil), current...), process))
				continue
			}
			for _, output := range process.Outputs {
				walk(output, append(current, process))
			}
		}
	}

	for _, start := range starts {
		walk(start, nil)
	}
	return all
}

// column is a header of a study or assay file together with the way each
// row gets its cell.
type column struct {
	header string
	cell   func(object interface{}) string
}

// table builds the header and rows of a study or assay file. Columns are
// collected per position in the path, so a parameter of the measurement
// step and a parameter of the processing step with the same name each get
// their own column.
func table(rows []path, materials bool) [][]string {
	var positions [][]column

	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	for position := 0; position < width; position++ {
		var objects []interface{}
		for _, row := range rows {
			if position < len(row) {
				objects = append(objects, row[position])
			}
		}
		positions = append(positions, columnsAt(objects, materials))
	}

	var header []string
	for _, columns := range positions {
		for _, c := range columns {
			header = append(header, c.header)
		}
	}

	result := [][]string{header}
	for _, row := range rows {
		var cells []string
		for position, columns := range positions {
			for _, c := range columns {
				if position >= len(row) {
					cells = append(cells, "")
					continue
				}
				cells = append(cells, c.cell(row[position]))
			}
		}
		result = append(result, cells)
	}

	return result
}

// columnsAt returns the columns for the objects found at one position of the
// paths. materials adds the characteristics and factor values of sources and
// samples, the assay files only name them.
func columnsAt(objects []interface{}, materials bool) []column {
	if len(objects) == 0 {
		return nil
	}

	switch first := objects[0].(type) {
	case *isa.Process:
		return processColumns(objects)
	case isa.Node:
		columns := []column{{header: nodeHeader(first), cell: func(o interface{}) string {
			if node, ok := o.(isa.Node); ok {
				return node.NodeName()
			}
			return ""
		}}}
		if materials {
			columns = append(columns, characteristicColumns(objects)...)
			columns = append(columns, factorColumns(objects)...)
		}
		return columns
	}

	return nil
}

func nodeHeader(node isa.Node) string {
	switch n := node.(type) {
	case *isa.Source:
		return "Source Name"
	case *isa.Sample:
		return "Sample Name"
	case *isa.DataFile:
		if n.Label != "" {
			return n.Label
		}
		return isa.RawDataFileLabel
	}
	return "Material Name"
}

func processColumns(objects []interface{}) []column {
	columns := []column{{header: "Protocol REF", cell: func(o interface{}) string {
		if process, ok := o.(*isa.Process); ok && process.Protocol != nil {
			return process.Protocol.Name
		}
		return ""
	}}}

	var names []string
	withUnit := make(map[string]bool)
	seen := make(map[string]bool)
	for _, o := range objects {
		process, ok := o.(*isa.Process)
		if !ok {
			continue
		}
		for _, pv := range process.ParameterValues {
			name := pv.Category.ParameterName()
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
			if pv.Unit != nil {
				withUnit[name] = true
			}
		}
	}

	for _, name := range names {
		name := name
		find := func(o interface{}) *isa.ParameterValue {
			process, ok := o.(*isa.Process)
			if !ok {
				return nil
			}
			for _, pv := range process.ParameterValues {
				if pv.Category.ParameterName() == name {
					return pv
				}
			}
			return nil
		}

		columns = append(columns, column{header: "Parameter Value[" + name + "]", cell: func(o interface{}) string {
			if pv := find(o); pv != nil {
				return normalize.Stringify(pv.Value)
			}
			return ""
		}})
		if withUnit[name] {
			columns = append(columns, column{header: "Unit", cell: func(o interface{}) string {
				if pv := find(o); pv != nil {
					return term(pv.Unit)
				}
				return ""
			}})
		}
	}

	return columns
}

func characteristicsOf(o interface{}) []*isa.Characteristic {
	switch n := o.(type) {
	case *isa.Source:
		return n.Characteristics
	case *isa.Sample:
		return n.Characteristics
	}
	return nil
}

func characteristicColumns(objects []interface{}) []column {
	var categories []*isa.OntologyAnnotation
	withUnit := make(map[*isa.OntologyAnnotation]bool)
	seen := make(map[*isa.OntologyAnnotation]bool)
	for _, o := range objects {
		for _, c := range characteristicsOf(o) {
			if !seen[c.Category] {
				seen[c.Category] = true
				categories = append(categories, c.Category)
			}
			if c.Unit != nil {
				withUnit[c.Category] = true
			}
		}
	}

	var columns []column
	for _, category := range categories {
		category := category
		find := func(o interface{}) *isa.Characteristic {
			for _, c := range characteristicsOf(o) {
				if c.Category == category {
					return c
				}
			}
			return nil
		}

		columns = append(columns, column{header: "Characteristics[" + term(category) + "]", cell: func(o interface{}) string {
			if c := find(o); c != nil {
				return normalize.Stringify(c.Value)
			}
			return ""
		}})
		if withUnit[category] {
			columns = append(columns, column{header: "Unit", cell: func(o interface{}) string {
				if c := find(o); c != nil {
					return term(c.Unit)
				}
				return ""
			}})
		}
	}
	return columns
}

func factorColumns(objects []interface{}) []column {
	var factors []*isa.StudyFactor
	withUnit := make(map[*isa.StudyFactor]bool)
	seen := make(map[*isa.StudyFactor]bool)
	for _, o := range objects {
		sample, ok := o.(*isa.Sample)
		if !ok {
			continue
		}
		for _, fv := range sample.FactorValues {
			if !seen[fv.Factor] {
				seen[fv.Factor] = true
				factors = append(factors, fv.Factor)
			}
			if fv.Unit != nil {
				withUnit[fv.Factor] = true
			}
		}
	}

	var columns []column
	for _, factor := range factors {
		factor := factor
		find := func(o interface{}) *isa.FactorValue {
			sample, ok := o.(*isa.Sample)
			if !ok {
				return nil
			}
			for _, fv := range sample.FactorValues {
				if fv.Factor == factor {
					return fv
				}
			}
			return nil
		}

		columns = append(columns, column{header: "Factor Value[" + factor.Name + "]", cell: func(o interface{}) string {
			if fv := find(o); fv != nil {
				return normalize.Stringify(fv.Value)
			}
			return ""
		}})
		if withUnit[factor] {
			columns = append(columns, column{header: "Unit", cell: func(o interface{}) string {
				if fv := find(o); fv != nil {
					return term(fv.Unit)
				}
				return ""
			}})
		}
	}
	return columns
}

// StudyFile lays out the s_ file of a study.
func StudyFile(study *isa.Study) [][]string {
	return table(paths(study.ProcessSequence), true)
}

// AssayFile lays out the a_ file of an assay.
func AssayFile(assay *isa.Assay) [][]string {
	return table(paths(assay.ProcessSequence), false)
}
