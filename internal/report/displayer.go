// Package report prints a converted investigation as an indented tree, for
// people checking what a conversion produced.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/NathanHouwaart/ISA-PHM-Backend/internal/isa"
	"github.com/NathanHouwaart/ISA-PHM-Backend/internal/normalize"
)

type Displayer struct {
	w io.Writer
}

// NewDisplayer returns a Displayer printing to w, or to stdout when w is nil.
func NewDisplayer(w io.Writer) *Displayer {
	if w == nil {
		w = os.Stdout
	}
	return &Displayer{w: w}
}

func (d *Displayer) Apply(investigation *isa.Investigation) error {
	d.printf(0, "Investigation %s: %s\n", investigation.Identifier, investigation.Title)
	for _, study := range investigation.Studies {
		d.printStudy(study)
	}
	return nil
}

func (d *Displayer) printStudy(study *isa.Study) {
	d.printf(2, "Study %s (%s)\n", study.Identifier, study.Filename)

	d.printf(4, "Protocols:\n")
	for _, protocol := range study.Protocols {
		d.printf(6, "%s [%s]\n", protocol.Name, protocol.Kind)
		for _, parameter := range protocol.Parameters {
			d.printf(8, "%s\n", parameter.ParameterName())
		}
	}

	d.printf(4, "Sources:\n")
	for _, source := range study.Sources {
		d.printf(6, "%s\n", source.Name)
		for _, c := range source.Characteristics {
			d.showValue(8, c.Category.Term, c.Value, c.Unit)
		}
	}

	d.printf(4, "Samples:\n")
	for _, sample := range study.Samples {
		d.printf(6, "%s\n", sample.Name)
		for _, fv := range sample.FactorValues {
			d.showValue(8, fv.Factor.Name, fv.Value, fv.Unit)
		}
	}

	for _, assay := range study.Assays {
		d.printAssay(assay)
	}
}

func (d *Displayer) printAssay(assay *isa.Assay) {
	d.printf(4, "Assay %s\n", assay.Filename)
	d.printf(6, "Data files:\n")
	for _, file := range assay.DataFiles {
		d.printf(8, "%s (%s)\n", file.Name, file.Label)
	}

	d.printf(6, "Workflow:\n")
	d.printWorkflow(8, assay.ProcessSequence)
}

// printWorkflow shows each chain of processes, following NextProcess from
// every process that has no previous one.
func (d *Displayer) printWorkflow(indent int, sequence []*isa.Process) {
	for _, process := range sequence {
		if process.PreviousProcess != nil {
			continue
		}

		var steps []string
		for p := process; p != nil; p = p.NextProcess {
			steps = append(steps, fmt.Sprintf("%s (%s -> %s)", p.Name, nodeNames(p.Inputs), nodeNames(p.Outputs)))
		}
		d.printf(indent, "%s\n", strings.Join(steps, "\n"+spaces(indent+2)))
	}
}

func (d *Displayer) showValue(indent int, name string, value interface{}, unit *isa.OntologyAnnotation) {
	v := normalize.Stringify(value)
	if v == "" {
		v = "No value given"
	}
	if unit != nil {
		d.printf(indent, "%s: %s (%s)\n", name, v, unit.Term)
	} else {
		d.printf(indent, "%s: %s\n", name, v)
	}
}

func (d *Displayer) printf(indent int, format string, args ...interface{}) {
	fmt.Fprintf(d.w, spaces(indent)+format, args...)
}

func nodeNames(nodes []isa.Node) string {
	names := make([]string, 0, len(nodes))
	for _, node := range nodes {
		names = append(names, node.NodeName())
	}
	return strings.Join(names, ", ")
}

func spaces(count int) string {
	return strings.Repeat(" ", count)
}
