package loader

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NathanHouwaart/ISA-PHM-Backend/internal/model"
)

const wizardDocument = `{
  "identifier": "",
  "title": "Bearing degradation",
  "license": "CC-BY 4.0",
  "authors": [{"firstName": "Ada", "lastName": "Lovelace", "role": "Researcher"}],
  "publications": [{"title": "Bearings", "authorList": "Ada Lovelace"}],
  "measurement_protocols": [{"id": "g", "name": "Gain", "unit": "dB"}],
  "processing_protocols": [],
  "study_variables": [{"name": "Speed", "unit": "RPM", "min": 500}],
  "studies": [{
    "id": "st1",
    "name": "Run-to-failure",
    "total_runs": "2",
    "used_setup": {
      "name": "Rig A",
      "sensors": [{"id": "s1", "measurementType": "Vibration", "samplingRate": 25600, "samplingUnit": "Hz"}],
      "characteristics": [{"category": "Load", "value": 12.5, "unit": "kN"}]
    },
    "study_to_study_variable_mapping": [
      {"variableName": "Speed", "runNumber": 1, "value": "1000"},
      {"variableName": "Speed", "runNumber": "2", "value": 1500}
    ],
    "assay_details": [{
      "used_sensor": {"id": "s1", "measurementType": "Vibration"},
      "runs": [{"raw_file_name": "r1.csv"}, {"runNumber": 2, "raw_file_name": "r2.csv", "processed_file_name": null}],
      "measurement_protocols": [{"sourceId": "s1", "targetId": "g", "value": ["2", "dB"]}]
    }]
  }]
}`

func TestLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/in/experiment.json", []byte(wizardDocument), 0644))

	doc, err := Load(fs, "/in/experiment.json")
	require.NoError(t, err)

	assert.Equal(t, model.DefaultIdentifier, doc.Identifier)
	assert.Equal(t, "CC-BY 4.0", doc.License)
	require.Len(t, doc.Contacts, 1)
	assert.Equal(t, "Lovelace", doc.Contacts[0].LastName)
	assert.Equal(t, []string{"Ada Lovelace"}, doc.Publications[0].AuthorList)
	assert.Equal(t, "500", doc.StudyVariables[0].Min)

	require.Len(t, doc.Studies, 1)
	study := doc.Studies[0]
	assert.Equal(t, 2, study.TotalRuns)
	assert.Equal(t, "Rig A", study.UsedSetup.Name)
	assert.Equal(t, model.DefaultPreparationProtocol, study.UsedSetup.ExperimentPreparationProtocolName)
	assert.Equal(t, "25600", study.UsedSetup.Sensors[0].SamplingRate)
	assert.Equal(t, json.Number("12.5"), study.UsedSetup.Characteristics[0].Value)

	require.Len(t, study.VariableMappings, 2)
	assert.Equal(t, 2, study.VariableMappings[1].RunNumber)
	assert.Equal(t, json.Number("1500"), study.VariableMappings[1].Value)

	runs := study.Assays[0].Runs
	assert.Equal(t, 1, runs[0].RunNumber)
	assert.Equal(t, 2, runs[1].RunNumber)
	assert.Empty(t, runs[1].ProcessedFileName)

	entry := study.Assays[0].MeasurementProtocols[0]
	assert.Equal(t, []interface{}{"2", "dB"}, entry.Value)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(afero.NewMemMapFs(), "/nope.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/nope.json")
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		contains []string
	}{
		{
			name:     "not json",
			input:    "identifier,title",
			contains: []string{"not a JSON object"},
		},
		{
			name:     "missing keys",
			input:    `{"description": "x"}`,
			contains: []string{`"identifier"`, `"title"`, `"studies"`},
		},
		{
			name:     "studies not a list",
			input:    `{"identifier": "i", "title": "t", "studies": {}}`,
			contains: []string{`"studies" must be a list`},
		},
		{
			name:     "no studies",
			input:    `{"identifier": "i", "title": "t", "studies": []}`,
			contains: []string{"no studies"},
		},
		{
			name: "structure",
			input: `{"identifier": "i", "title": "t", "studies": [
				{"id": "a", "assay_details": [{"measurement_protocols": [{"targetId": "g", "value": [1, "Hz", "x"]}]}]},
				{"id": "a"},
				{"name": "no id"}
			]}`,
			contains: []string{
				"assay 1 has no used_sensor",
				`entry "g" has 3 values`,
				`study id "a" is used more than once`,
				"study 3 has no id",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Decode(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Nil(t, doc)
			for _, text := range tt.contains {
				assert.Contains(t, err.Error(), text)
			}
		})
	}
}

func TestValidateAggregates(t *testing.T) {
	err := Validate(&model.Document{Studies: []model.Study{{}, {ID: "x", TotalRuns: -1}}})
	require.Error(t, err)

	merr, ok := err.(*multierror.Error)
	require.True(t, ok)
	assert.Len(t, merr.Errors, 2)
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path, format string
		want         Format
		err          bool
	}{
		{path: "in.json", want: FormatJSON},
		{path: "IN.XLSX", want: FormatWorkbook},
		{path: "in.xlsm", want: FormatWorkbook},
		{path: "in.txt", format: "json", want: FormatJSON},
		{path: "in.json", format: "xlsx", want: FormatWorkbook},
		{path: "in.txt", err: true},
		{path: "in.json", format: "yaml", err: true},
	}

	for _, tt := range tests {
		t.Run(tt.path+"/"+tt.format, func(t *testing.T) {
			got, err := DetectFormat(tt.path, tt.format)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
