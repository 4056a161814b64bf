// Package isatab lays out an isa.Investigation as ISA-Tab: an investigation
// file, plus one study file per study and one assay file per assay, all tab
// separated.
package isatab

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/NathanHouwaart/ISA-PHM-Backend/internal/isa"
)

// File is a tab file of the investigation, by name.
type File struct {
	Name string
	Rows [][]string
}

// IsStudy and IsAssay tell study and assay files apart by their prefix.
func (f File) IsStudy() bool { return strings.HasPrefix(f.Name, "s_") }
func (f File) IsAssay() bool { return strings.HasPrefix(f.Name, "a_") }

// Files lays out every file of the investigation. The investigation file
// comes first, then for each study its study file and its assay files.
func Files(investigation *isa.Investigation) []File {
	name := investigation.Filename
	if name == "" {
		name = isa.DefaultInvestigationFilename
	}

	files := []File{{Name: name, Rows: InvestigationFile(investigation)}}
	for _, study := range investigation.Studies {
		files = append(files, File{Name: study.Filename, Rows: StudyFile(study)})
		for _, assay := range study.Assays {
			files = append(files, File{Name: assay.Filename, Rows: AssayFile(assay)})
		}
	}
	return files
}

// Encoding returns the text encoding with the given name.
func Encoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return unicode.UTF8, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	default:
		return nil, errors.Errorf("unsupported ISA-Tab encoding %q", name)
	}
}

// Write writes rows tab separated in the given encoding. Characters the
// encoding cannot hold are replaced.
func Write(out io.Writer, rows [][]string, enc encoding.Encoding) error {
	if enc == nil {
		enc = unicode.UTF8
	}

	encoded := encoding.ReplaceUnsupported(enc.NewEncoder()).Writer(out)

	writer := csv.NewWriter(encoded)
	writer.Comma = '\t'
	if err := writer.WriteAll(rows); err != nil {
		return errors.WithStack(err)
	}

	// Flushes what the encoder still holds.
	if closer, ok := encoded.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
