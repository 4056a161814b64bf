package cmd

import (
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"github.com/spf13/viper"

	"github.com/NathanHouwaart/ISA-PHM-Backend/internal/converter"
	"github.com/NathanHouwaart/ISA-PHM-Backend/internal/isa/isajson"
)

// Configuration keys. Each can be set in the config file, as an ISAPHM_
// environment variable (ISAPHM_OUTPUT_INDENT for output.indent) or, for some,
// with a flag.
const (
	keyLogLevel           = "log.level"
	keyDefaultLicense     = "convert.default-license"
	keyMissingFactorValue = "convert.missing-factor-value"
	keyUnknownFileName    = "convert.unknown-file-name"
	keyUnusedFileName     = "convert.unused-file-name"
	keyIndent             = "output.indent"
	keyTabEncoding        = "output.isatab-encoding"
	keyPackage            = "output.package"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault(keyLogLevel, "warn")
	v.SetDefault(keyDefaultLicense, converter.DefaultLicense)
	v.SetDefault(keyMissingFactorValue, "")
	v.SetDefault(keyUnknownFileName, converter.DefaultUnknownFileName)
	v.SetDefault(keyUnusedFileName, converter.DefaultUnusedFileName)
	v.SetDefault(keyIndent, isajson.DefaultIndent)
	v.SetDefault(keyTabEncoding, "utf-8")
	v.SetDefault(keyPackage, false)
}

var logLevels = map[string]jww.Threshold{
	"trace":    jww.LevelTrace,
	"debug":    jww.LevelDebug,
	"info":     jww.LevelInfo,
	"warn":     jww.LevelWarn,
	"error":    jww.LevelError,
	"critical": jww.LevelCritical,
}

func logThreshold(level string) (jww.Threshold, error) {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "" {
		return jww.LevelWarn, nil
	}

	threshold, ok := logLevels[level]
	if !ok {
		return jww.LevelWarn, errors.Errorf("unknown log level %q", level)
	}
	return threshold, nil
}

// converterOptions builds the conversion options from the configuration.
// Diagnostics are written to stderr when the log level lets warnings through.
func converterOptions(v *viper.Viper, stderr io.Writer) converter.Options {
	threshold, err := logThreshold(v.GetString(keyLogLevel))
	if err != nil {
		threshold = jww.LevelWarn
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	return converter.Options{
		Notepad:            jww.NewNotepad(threshold, jww.LevelCritical, stderr, io.Discard, "", 0),
		DefaultLicense:     v.GetString(keyDefaultLicense),
		MissingFactorValue: v.GetString(keyMissingFactorValue),
		UnknownFileName:    v.GetString(keyUnknownFileName),
		UnusedFileName:     v.GetString(keyUnusedFileName),
	}
}
