// Package output writes a converted investigation to disk. Every writer is a
// Sink, and every Sink writes through staging so that a failure leaves the
// previous output, or none, in place.
package output

import (
	"io"
	"path/filepath"

	"github.com/spf13/afero"
	"golang.org/x/text/encoding"

	"github.com/NathanHouwaart/ISA-PHM-Backend/internal/isa"
	"github.com/NathanHouwaart/ISA-PHM-Backend/internal/isa/isajson"
	"github.com/NathanHouwaart/ISA-PHM-Backend/internal/isa/isatab"
)

// Sink is something that can take an investigation and write it.
type Sink interface {
	Apply(investigation *isa.Investigation) error
}

// stager is a Sink that writes its files into a shared staging area.
type stager interface {
	stage(st *staging, investigation *isa.Investigation) error
}

// Apply hands the investigation to each sink in turn and stops at the first
// failure. Files of the sinks are staged together and only moved into place
// once every sink succeeded, so a failing sink leaves none of them behind.
func Apply(investigation *isa.Investigation, sinks ...Sink) error {
	return stage(func(st *staging) error {
		for _, sink := range sinks {
			var err error
			if s, ok := sink.(stager); ok {
				err = s.stage(st, investigation)
			} else {
				err = sink.Apply(investigation)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// JSONSink writes ISA-JSON to a file.
type JSONSink struct {
	fs     afero.Fs
	path   string
	indent int
}

func NewJSONSink(fs afero.Fs, path string, indent int) *JSONSink {
	return &JSONSink{fs: fs, path: path, indent: indent}
}

func (s *JSONSink) Apply(investigation *isa.Investigation) error {
	return Apply(investigation, s)
}

func (s *JSONSink) stage(st *staging, investigation *isa.Investigation) error {
	return st.write(s.fs, s.path, func(w io.Writer) error {
		enc := isajson.NewEncoder(w)
		enc.SetIndent(s.indent)
		return enc.Encode(investigation)
	})
}

// Packaged layouts put study files in a Studies folder and assay files in an
// Assays folder next to the investigation file.
const (
	StudiesDir = "Studies"
	AssaysDir  = "Assays"
)

// TabSink writes the ISA-Tab files of an investigation into a directory.
type TabSink struct {
	fs       afero.Fs
	dir      string
	encoding encoding.Encoding
	packaged bool
}

func NewTabSink(fs afero.Fs, dir string) *TabSink {
	return &TabSink{fs: fs, dir: dir}
}

// SetEncoding sets the text encoding of the written files, UTF-8 by default.
func (s *TabSink) SetEncoding(enc encoding.Encoding) {
	s.encoding = enc
}

// SetPackaged moves study and assay files into their own folders.
func (s *TabSink) SetPackaged(packaged bool) {
	s.packaged = packaged
}

func (s *TabSink) Apply(investigation *isa.Investigation) error {
	return Apply(investigation, s)
}

func (s *TabSink) stage(st *staging, investigation *isa.Investigation) error {
	for _, file := range isatab.Files(investigation) {
		rows := file.Rows
		path := filepath.Join(s.dir, PackagedPath(file, s.packaged))
		if err := st.write(s.fs, path, func(w io.Writer) error { return isatab.Write(w, rows, s.encoding) }); err != nil {
			return err
		}
	}
	return nil
}

// PackagedPath is the path of an ISA-Tab file inside an output directory.
func PackagedPath(file isatab.File, packaged bool) string {
	switch {
	case !packaged:
		return file.Name
	case file.IsStudy():
		return filepath.Join(StudiesDir, file.Name)
	case file.IsAssay():
		return filepath.Join(AssaysDir, file.Name)
	default:
		return file.Name
	}
}
