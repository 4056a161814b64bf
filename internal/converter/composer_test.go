package converter

import (
	"bytes"
	"io"
	"math"
	"testing"

	jww "github.com/spf13/jwalterweatherman"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NathanHouwaart/ISA-PHM-Backend/internal/isa"
	"github.com/NathanHouwaart/ISA-PHM-Backend/internal/isa/isajson"
	"github.com/NathanHouwaart/ISA-PHM-Backend/internal/model"
)

func quietOptions() Options {
	opts := DefaultOptions()
	opts.Notepad = jww.NewNotepad(jww.LevelCritical, jww.LevelCritical, io.Discard, io.Discard, "", 0)
	return opts
}

func vibration(id string) model.Sensor {
	return model.Sensor{ID: id, MeasurementType: "Vibration"}
}

// scenarioDocument is one study with two runs of a single vibration sensor,
// and a speed variable that only has a value for the first run.
func scenarioDocument() *model.Document {
	doc := &model.Document{
		Identifier:     "i1",
		Title:          "Bearing run-to-failure",
		StudyVariables: []model.StudyVariable{{Name: "Speed", Unit: "RPM"}},
		Studies: []model.Study{{
			ID:        "st1",
			TotalRuns: 2,
			UsedSetup: model.Setup{Sensors: []model.Sensor{vibration("s1")}},
			VariableMappings: []model.VariableMapping{
				{VariableName: "Speed", RunNumber: 1, Value: "1000"},
			},
			Assays: []model.AssayDetail{{
				UsedSensor: vibration("s1"),
				Runs: []model.Run{
					{RunNumber: 1, RawFileName: "raw1.csv"},
					{RunNumber: 2, RawFileName: "raw2.csv"},
				},
			}},
		}},
	}
	doc.ApplyDefaults()
	return doc
}

func protocolNames(study *isa.Study) []string {
	var names []string
	for _, protocol := range study.Protocols {
		names = append(names, protocol.Name)
	}
	return names
}

func TestConvertScenario(t *testing.T) {
	investigation, diagnostics, err := Convert(scenarioDocument(), quietOptions())
	require.NoError(t, err)
	require.Len(t, investigation.Studies, 1)

	study := investigation.Studies[0]
	assert.Equal(t, []string{
		model.DefaultPreparationProtocol,
		"Vibration measurement (s1)",
		"Vibration processing (s1)",
	}, protocolNames(study))

	require.Len(t, study.Samples, 2)
	first, second := study.Samples[0], study.Samples[1]

	require.Len(t, first.FactorValues, 1)
	speed := first.FactorValues[0]
	assert.Equal(t, "Speed", speed.Factor.Name)
	assert.Equal(t, int64(1000), speed.Value)
	require.NotNil(t, speed.Unit)
	assert.Equal(t, "RPM", speed.Unit.Term)

	assert.Empty(t, second.FactorValues)

	require.Len(t, study.Units, 1)
	assert.Same(t, speed.Unit, study.Units[0])
	require.Len(t, study.Assays, 1)
	require.Len(t, study.Assays[0].Units, 1)
	assert.Same(t, speed.Unit, study.Assays[0].Units[0])

	assert.Equal(t, 1, diagnostics.Count(UnmappedFactor))
}

func TestConvertSampleFactorIndependence(t *testing.T) {
	doc := scenarioDocument()
	study := &doc.Studies[0]
	study.TotalRuns = 3
	study.UsedSetup.Characteristics = []model.Characteristic{
		{Category: "Bearing type", Value: "6205"},
		{Category: "Load", Value: "12", Unit: "kN"},
	}
	study.VariableMappings = []model.VariableMapping{{VariableName: "Speed", RunNumber: 2, Value: "1500"}}

	t.Run("skip unmapped", func(t *testing.T) {
		investigation, diagnostics, err := Convert(doc, quietOptions())
		require.NoError(t, err)

		samples := investigation.Studies[0].Samples
		require.Len(t, samples, 3)
		assert.Empty(t, samples[0].FactorValues)
		require.Len(t, samples[1].FactorValues, 1)
		assert.Equal(t, int64(1500), samples[1].FactorValues[0].Value)
		assert.Empty(t, samples[2].FactorValues)
		assert.Equal(t, 2, diagnostics.Count(UnmappedFactor))

		for _, sample := range samples {
			require.Len(t, sample.Characteristics, 2)
			assert.Same(t, samples[0].Characteristics[0], sample.Characteristics[0])
			assert.Same(t, samples[0].Characteristics[1], sample.Characteristics[1])
		}
		assert.Equal(t, "kN", samples[0].Characteristics[1].Unit.Term)
		assert.Len(t, investigation.Studies[0].CharacteristicCategories, 2)
	})

	t.Run("placeholder", func(t *testing.T) {
		opts := quietOptions()
		opts.MissingFactorValue = "unknown"

		investigation, _, err := Convert(doc, opts)
		require.NoError(t, err)

		samples := investigation.Studies[0].Samples
		for _, i := range []int{0, 2} {
			require.Len(t, samples[i].FactorValues, 1)
			assert.Equal(t, "unknown", samples[i].FactorValues[0].Value)
			assert.Nil(t, samples[i].FactorValues[0].Unit)
		}
		assert.Same(t, samples[0].FactorValues[0].Factor, samples[1].FactorValues[0].Factor)
	})
}

func TestConvertUnitMismatch(t *testing.T) {
	doc := scenarioDocument()
	doc.Studies[0].UsedSetup.Characteristics = []model.Characteristic{
		{Category: "Pressure", Value: "12", Unit: "bar"},
		{Category: "Condition", Value: "high", Unit: "bar"},
	}

	investigation, diagnostics, err := Convert(doc, quietOptions())
	require.NoError(t, err)

	characteristics := investigation.Studies[0].Samples[0].Characteristics
	require.Len(t, characteristics, 2)
	assert.Equal(t, int64(12), characteristics[0].Value)
	assert.Equal(t, "bar", characteristics[0].Unit.Term)
	assert.Equal(t, "high", characteristics[1].Value)
	assert.Nil(t, characteristics[1].Unit)
	assert.Equal(t, 1, diagnostics.Count(UnitMismatch))
}

func TestConvertNonFiniteValues(t *testing.T) {
	doc := scenarioDocument()
	doc.Studies[0].UsedSetup.Characteristics = []model.Characteristic{
		{Category: "Max load", Value: "inf", Unit: "kN"},
		{Category: "Temperature", Value: math.NaN(), Unit: "C"},
	}
	doc.Studies[0].VariableMappings[0].Value = "NaN"

	investigation, diagnostics, err := Convert(doc, quietOptions())
	require.NoError(t, err)

	characteristics := investigation.Studies[0].Samples[0].Characteristics
	require.Len(t, characteristics, 2)
	assert.Equal(t, "inf", characteristics[0].Value)
	assert.Nil(t, characteristics[0].Unit)
	assert.Equal(t, "NaN", characteristics[1].Value)
	assert.Nil(t, characteristics[1].Unit)
	assert.Equal(t, 3, diagnostics.Count(UnitMismatch))

	var out bytes.Buffer
	require.NoError(t, isajson.NewEncoder(&out).Encode(investigation))
	assert.Contains(t, out.String(), `"value": "inf"`)
}

func TestConvertDataPairing(t *testing.T) {
	doc := scenarioDocument()
	doc.ProcessingProtocols = []model.ParameterDef{{ID: "f", Name: "Filter"}}
	assay := &doc.Studies[0].Assays[0]
	assay.Runs[0].ProcessedFileName = "processed1.csv"
	assay.ProcessingProtocols = []model.ProtocolEntry{entry("s1", "f", "lowpass")}

	investigation, _, err := Convert(doc, quietOptions())
	require.NoError(t, err)

	result := investigation.Studies[0].Assays[0]
	var files []string
	for _, file := range result.DataFiles {
		files = append(files, file.Name)
	}
	assert.Equal(t, []string{"raw1.csv", "raw2.csv", "processed1.csv", DefaultUnusedFileName}, files)

	sequence := result.ProcessSequence
	require.Len(t, sequence, 4)
	samples := investigation.Studies[0].Samples

	for run := 0; run < 2; run++ {
		measurement, processing := sequence[2*run], sequence[2*run+1]
		assert.Equal(t, isa.MeasurementProtocol, measurement.Protocol.Kind)
		assert.Equal(t, isa.ProcessingProtocol, processing.Protocol.Kind)

		assert.Equal(t, []isa.Node{samples[run]}, measurement.Inputs)
		assert.Equal(t, []isa.Node{result.DataFiles[run]}, measurement.Outputs)
		assert.Equal(t, []isa.Node{result.DataFiles[run]}, processing.Inputs)
		assert.Equal(t, []isa.Node{result.DataFiles[run+2]}, processing.Outputs)

		require.Len(t, processing.ParameterValues, 1)
		assert.Equal(t, "Filter", processing.ParameterValues[0].Category.ParameterName())
	}

	assert.Same(t, sequence[1].ParameterValues[0].Category, sequence[3].ParameterValues[0].Category)
	for i := 0; i+1 < len(sequence); i++ {
		assert.Same(t, sequence[i+1], sequence[i].NextProcess)
		assert.Same(t, sequence[i], sequence[i+1].PreviousProcess)
	}
}

func TestConvertMeasurementParameters(t *testing.T) {
	doc := scenarioDocument()
	doc.MeasurementProtocols = []model.ParameterDef{{ID: "g", Name: "Gain"}, {ID: "unused", Name: "Unused"}}
	sensor := model.Sensor{ID: "s1", MeasurementType: "Vibration", SamplingRate: "25600", SamplingUnit: "Hz"}
	doc.Studies[0].UsedSetup.Sensors = []model.Sensor{sensor}
	assay := &doc.Studies[0].Assays[0]
	assay.UsedSensor = sensor
	assay.MeasurementProtocols = []model.ProtocolEntry{
		entry("s1", "g", "2", "dB"),
		entry("s2", "g", "9"),
	}

	investigation, _, err := Convert(doc, quietOptions())
	require.NoError(t, err)

	study := investigation.Studies[0]
	measurement := study.Protocols[1]
	assert.Equal(t, []string{"Sampling Rate", "Gain"}, parameterNames(measurement.Parameters))

	sequence := study.Assays[0].ProcessSequence
	require.Len(t, sequence, 2)
	for _, process := range sequence {
		require.Len(t, process.ParameterValues, 2)
		assert.Same(t, measurement.Parameters[0], process.ParameterValues[0].Category)
		assert.Equal(t, int64(25600), process.ParameterValues[0].Value)
		assert.Equal(t, "Hz", process.ParameterValues[0].Unit.Term)
		assert.Same(t, measurement.Parameters[1], process.ParameterValues[1].Category)
		assert.Equal(t, int64(2), process.ParameterValues[1].Value)
		assert.Equal(t, "dB", process.ParameterValues[1].Unit.Term)
	}
}

func TestConvertParametersMissingFromCatalog(t *testing.T) {
	doc := scenarioDocument()
	doc.MeasurementProtocols = []model.ParameterDef{{ID: "g", Name: "Gain"}}
	assay := &doc.Studies[0].Assays[0]
	assay.MeasurementProtocols = []model.ProtocolEntry{
		entry("s1", "coupling", "AC"),
		entry("s1", "g", "2", "dB"),
	}

	investigation, _, err := Convert(doc, quietOptions())
	require.NoError(t, err)

	measurement := investigation.Studies[0].Protocols[1]
	assert.Equal(t, []string{"Gain", "coupling"}, parameterNames(measurement.Parameters))

	process := investigation.Studies[0].Assays[0].ProcessSequence[0]
	require.Len(t, process.ParameterValues, 2)
	assert.Equal(t, "AC", process.ParameterValues[0].Value)
	assert.Same(t, measurement.Parameters[1], process.ParameterValues[0].Category)
}

func TestConvertSensorsSharingMeasurementType(t *testing.T) {
	doc := scenarioDocument()
	doc.Studies[0].UsedSetup.Sensors = []model.Sensor{vibration("s1"), vibration("s2")}

	t.Run("distinct protocols", func(t *testing.T) {
		investigation, diagnostics, err := Convert(doc, quietOptions())
		require.NoError(t, err)

		assert.Equal(t, []string{
			model.DefaultPreparationProtocol,
			"Vibration measurement (s1)",
			"Vibration measurement (s2)",
			"Vibration processing (s1)",
			"Vibration processing (s2)",
		}, protocolNames(investigation.Studies[0]))
		assert.Zero(t, diagnostics.Count(AmbiguousProtocol))
	})

	t.Run("assay sensor without id", func(t *testing.T) {
		doc.Studies[0].Assays[0].UsedSensor = model.Sensor{MeasurementType: "Vibration"}

		investigation, diagnostics, err := Convert(doc, quietOptions())
		require.NoError(t, err)

		study := investigation.Studies[0]
		assert.Len(t, study.Protocols, 5)
		assert.Same(t, study.Protocols[1], study.Assays[0].ProcessSequence[0].Protocol)
		assert.Equal(t, 1, diagnostics.Count(AmbiguousProtocol))
	})
}

func TestConvertSensorFallbackIdentity(t *testing.T) {
	doc := scenarioDocument()
	doc.Studies[0].UsedSetup.Sensors = []model.Sensor{
		{Name: "accelerometer", MeasurementType: "Vibration"},
		{SensorLocation: "housing", MeasurementType: "Temperature"},
		{MeasurementType: "Current"},
	}
	doc.Studies[0].Assays = nil

	investigation, diagnostics, err := Convert(doc, quietOptions())
	require.NoError(t, err)

	names := protocolNames(investigation.Studies[0])
	assert.Contains(t, names, "Vibration measurement (accelerometer)")
	assert.Contains(t, names, "Temperature measurement (housing)")
	assert.Contains(t, names, "Current measurement (sensor_3)")
	assert.Equal(t, 1, diagnostics.Count(MissingSensorID))
}

func TestConvertRunCounts(t *testing.T) {
	t.Run("extra runs", func(t *testing.T) {
		doc := scenarioDocument()
		doc.Studies[0].TotalRuns = 1

		investigation, diagnostics, err := Convert(doc, quietOptions())
		require.NoError(t, err)

		study := investigation.Studies[0]
		assert.Len(t, study.Samples, 1)
		assert.Len(t, study.Assays[0].DataFiles, 1)
		assert.Equal(t, 1, diagnostics.Count(ExtraRun))
	})

	t.Run("derived run count", func(t *testing.T) {
		doc := scenarioDocument()
		doc.Studies[0].TotalRuns = 0
		doc.Studies[0].Assays[0].Runs = append(doc.Studies[0].Assays[0].Runs, model.Run{RunNumber: 3})

		investigation, diagnostics, err := Convert(doc, quietOptions())
		require.NoError(t, err)

		study := investigation.Studies[0]
		require.Len(t, study.Samples, 3)
		assert.Equal(t, "Test Setup Run 03", study.Samples[2].Name)
		assert.Equal(t, DefaultUnknownFileName, study.Assays[0].DataFiles[2].Name)
		assert.Equal(t, 1, diagnostics.Count(MissingRunCount))
	})
}

func TestConvertPreparationProcess(t *testing.T) {
	investigation, _, err := Convert(scenarioDocument(), quietOptions())
	require.NoError(t, err)

	study := investigation.Studies[0]
	require.Len(t, study.ProcessSequence, 1)
	preparation := study.ProcessSequence[0]

	assert.Equal(t, isa.PreparationProtocol, preparation.Protocol.Kind)
	assert.Equal(t, []isa.Node{study.Sources[0]}, preparation.Inputs)
	assert.Len(t, preparation.Outputs, 2)
	assert.Equal(t, "s_st1.txt", study.Filename)
	assert.Equal(t, "a_st1_s1.txt", study.Assays[0].Filename)
}

func TestConvertInvestigation(t *testing.T) {
	doc := scenarioDocument()
	doc.Contacts = []model.Contact{
		{FirstName: "Ada", Role: "Researcher", Orcid: "0000-0001"},
		{FirstName: "Alan", Roles: []string{"Researcher ", "Supervisor"}},
	}
	doc.Publications = []model.Publication{{Title: "p", AuthorList: []string{"A", "B"}, Status: "published"}}

	investigation, _, err := Convert(doc, quietOptions())
	require.NoError(t, err)

	require.Len(t, investigation.Comments, 1)
	assert.Equal(t, isa.Comment{Name: "License", Value: DefaultLicense}, investigation.Comments[0])

	require.Len(t, investigation.Contacts, 2)
	assert.Same(t, investigation.Contacts[0].Roles[0], investigation.Contacts[1].Roles[0])
	assert.Len(t, investigation.Contacts[1].Roles, 2)

	require.Len(t, investigation.Publications, 1)
	assert.Equal(t, "A; B", investigation.Publications[0].AuthorList)
	assert.Equal(t, "published", investigation.Publications[0].Status.Term)

	assert.Equal(t, investigation.Contacts, investigation.Studies[0].Contacts)
}

func TestConvertFreshRegistries(t *testing.T) {
	first, _, err := Convert(scenarioDocument(), quietOptions())
	require.NoError(t, err)
	second, _, err := Convert(scenarioDocument(), quietOptions())
	require.NoError(t, err)

	require.Len(t, second.Studies[0].Units, 1)
	assert.NotSame(t, first.Studies[0].Units[0], second.Studies[0].Units[0])
}

func TestConvertStudyIdentifiers(t *testing.T) {
	doc := scenarioDocument()
	doc.Studies = append(doc.Studies, doc.Studies[0], model.Study{})

	investigation, _, err := Convert(doc, quietOptions())
	require.Error(t, err)
	assert.Nil(t, investigation)
	assert.Contains(t, err.Error(), `study id "st1" is used more than once`)
	assert.Contains(t, err.Error(), "study 3 has no id")

	_, _, err = Convert(nil, quietOptions())
	assert.Error(t, err)
}

func TestDiagnosticsAreLogged(t *testing.T) {
	var out bytes.Buffer
	opts := DefaultOptions()
	opts.Notepad = jww.NewNotepad(jww.LevelWarn, jww.LevelCritical, &out, io.Discard, "", 0)

	_, diagnostics, err := Convert(scenarioDocument(), opts)
	require.NoError(t, err)

	require.Equal(t, 1, diagnostics.Len())
	assert.Equal(t, UnmappedFactor, diagnostics.Items()[0].Kind)
	assert.Contains(t, out.String(), "unmapped-factor")
}
