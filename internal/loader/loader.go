// Package loader reads experiment documents. JSON documents from the web
// wizard are decoded here, workbooks are read by the spreadsheet package.
// Both end up as a model.Document with its defaults applied and its structure
// validated, ready for the converter.
package loader

import (
	"bytes"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/NathanHouwaart/ISA-PHM-Backend/internal/model"
	"github.com/NathanHouwaart/ISA-PHM-Backend/internal/spreadsheet"
)

type Format string

const (
	FormatJSON     Format = "json"
	FormatWorkbook Format = "xlsx"
)

// DetectFormat decides the input format. An explicit format wins, otherwise
// the file extension decides.
func DetectFormat(path, format string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return FormatJSON, nil
	case "xlsx", "xlsm", "workbook":
		return FormatWorkbook, nil
	case "":
	default:
		return "", errors.Errorf("unknown input format %q", format)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".xlsx", ".xlsm":
		return FormatWorkbook, nil
	default:
		return "", errors.Errorf("cannot tell the format of %s, use --format", path)
	}
}

// Open loads the document at path in the given format.
func Open(fs afero.Fs, path string, format Format) (*model.Document, error) {
	switch format {
	case FormatJSON:
		return Load(fs, path)
	case FormatWorkbook:
		doc, err := spreadsheet.Load(fs, path)
		if err != nil {
			return nil, err
		}
		if err := finish(doc); err != nil {
			return nil, errors.Wrapf(err, "invalid workbook %s", path)
		}
		return doc, nil
	default:
		return nil, errors.Errorf("unknown input format %q", format)
	}
}

// Load reads the JSON document at path.
func Load(fs afero.Fs, path string) (*model.Document, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read %s", path)
	}

	doc, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(err, "unable to load %s", path)
	}

	return doc, nil
}

// requiredKeys must be present at the top level of a JSON document.
var requiredKeys = []string{"identifier", "title", "studies"}

// Decode reads a JSON document. Numbers are kept as json.Number so that the
// normalizer sees them as numbers and not as float64 approximations. Fields
// are decoded weakly typed, a run number given as "2" is still run 2.
func Decode(r io.Reader) (*model.Document, error) {
	var raw map[string]interface{}

	decoder := json.NewDecoder(r)
	decoder.UseNumber()
	if err := decoder.Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "input is not a JSON object")
	}

	if err := checkRequiredKeys(raw); err != nil {
		return nil, err
	}

	var doc model.Document
	if err := decodeDocument(raw, &doc); err != nil {
		return nil, err
	}

	if err := finish(&doc); err != nil {
		return nil, err
	}

	return &doc, nil
}

func checkRequiredKeys(raw map[string]interface{}) error {
	var missing *multierror.Error
	for _, key := range requiredKeys {
		if _, ok := raw[key]; !ok {
			missing = multierror.Append(missing, errors.Errorf("missing required key %q", key))
		}
	}

	if studies, ok := raw["studies"]; ok {
		if _, isList := studies.([]interface{}); !isList {
			missing = multierror.Append(missing, errors.New(`"studies" must be a list`))
		}
	}

	return missing.ErrorOrNil()
}

func decodeDocument(raw map[string]interface{}, doc *model.Document) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           doc,
	})
	if err != nil {
		return errors.Wrap(err, "unable to create document decoder")
	}

	if err := decoder.Decode(raw); err != nil {
		return errors.Wrap(err, "malformed document")
	}

	return nil
}

// finish validates a freshly decoded document and applies its defaults.
func finish(doc *model.Document) error {
	if err := Validate(doc); err != nil {
		return err
	}
	doc.ApplyDefaults()
	return nil
}
