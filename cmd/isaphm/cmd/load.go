package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/NathanHouwaart/ISA-PHM-Backend/internal/converter"
	"github.com/NathanHouwaart/ISA-PHM-Backend/internal/isa"
	"github.com/NathanHouwaart/ISA-PHM-Backend/internal/loader"
)

// loadAndConvert loads the input document and converts it. Load and
// conversion errors are printed, one line per error when there are several.
func loadAndConvert(fs afero.Fs, out, stderr io.Writer, path, format string) (*isa.Investigation, *converter.Diagnostics, bool) {
	f, err := loader.DetectFormat(path, format)
	if err != nil {
		fmt.Fprintln(out, "error", err)
		return nil, nil, false
	}

	doc, err := loader.Open(fs, path, f)
	if err != nil {
		fmt.Fprintf(out, "Loading %s failed\n", path)
		printErrors(out, err)
		return nil, nil, false
	}

	investigation, diagnostics, err := converter.Convert(doc, converterOptions(viper.GetViper(), stderr))
	if err != nil {
		fmt.Fprintf(out, "Converting %s failed\n", path)
		printErrors(out, err)
		return nil, nil, false
	}

	return investigation, diagnostics, true
}

// printErrors prints err, one line per error of a multierror. The context a
// multierror was wrapped in is printed on its own line above them.
func printErrors(out io.Writer, err error) {
	var merr *multierror.Error
	if !errors.As(err, &merr) {
		fmt.Fprintln(out, " ", err)
		return
	}

	indent := " "
	if context := strings.TrimSuffix(err.Error(), ": "+merr.Error()); context != merr.Error() && context != err.Error() {
		fmt.Fprintln(out, " ", context)
		indent = "   "
	}

	for _, e := range merr.Errors {
		fmt.Fprintln(out, indent, e)
	}
}
