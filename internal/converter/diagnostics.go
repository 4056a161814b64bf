package converter

import (
	"fmt"
	"os"

	jww "github.com/spf13/jwalterweatherman"
)

// DiagnosticKind classifies a soft condition found during a conversion.
type DiagnosticKind int

const (
	UnmappedFactor DiagnosticKind = iota + 1
	UnitMismatch
	MissingSensorID
	AmbiguousProtocol
	EmptyCatalog
	ExtraRun
	MissingRunCount
	UnknownRunSample
)

func (k DiagnosticKind) String() string {
	switch k {
	case UnmappedFactor:
		return "unmapped-factor"
	case UnitMismatch:
		return "unit-mismatch"
	case MissingSensorID:
		return "missing-sensor-id"
	case AmbiguousProtocol:
		return "ambiguous-protocol"
	case EmptyCatalog:
		return "empty-catalog"
	case ExtraRun:
		return "extra-run"
	case MissingRunCount:
		return "missing-run-count"
	case UnknownRunSample:
		return "unknown-run-sample"
	default:
		return "unknown"
	}
}

type Diagnostic struct {
	Kind    DiagnosticKind
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s", d.Kind, d.Message)
}

// Diagnostics collects the soft conditions of a conversion. These never stop
// a conversion, they are logged as warnings and kept so the caller can report
// them.
type Diagnostics struct {
	items   []Diagnostic
	notepad *jww.Notepad
}

// DefaultNotepad writes warnings and above to stderr.
func DefaultNotepad() *jww.Notepad {
	return jww.NewNotepad(jww.LevelWarn, jww.LevelWarn, os.Stderr, os.Stderr, "isaphm", 0)
}

func newDiagnostics(notepad *jww.Notepad) *Diagnostics {
	if notepad == nil {
		notepad = DefaultNotepad()
	}
	return &Diagnostics{notepad: notepad}
}

func (d *Diagnostics) Warnf(kind DiagnosticKind, format string, args ...interface{}) {
	diagnostic := Diagnostic{Kind: kind, Message: fmt.Sprintf(format, args...)}
	d.items = append(d.items, diagnostic)
	d.notepad.WARN.Println(diagnostic.String())
}

func (d *Diagnostics) Items() []Diagnostic {
	return d.items
}

func (d *Diagnostics) Len() int {
	return len(d.items)
}

// Count returns the number of diagnostics of the given kind.
func (d *Diagnostics) Count(kind DiagnosticKind) int {
	count := 0
	for _, item := range d.items {
		if item.Kind == kind {
			count++
		}
	}
	return count
}
