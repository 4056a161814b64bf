package converter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NathanHouwaart/ISA-PHM-Backend/internal/isa"
	"github.com/NathanHouwaart/ISA-PHM-Backend/internal/model"
)

func entry(source, target string, values ...interface{}) model.ProtocolEntry {
	return model.ProtocolEntry{SourceID: source, TargetID: target, Value: values}
}

func TestResolveEntry(t *testing.T) {
	catalog := NewCatalog([]model.ParameterDef{
		{ID: "p1", Name: "Filter"},
		{ID: "p2", Title: "Window length"},
		{ID: "p3"},
	})

	tests := []struct {
		name     string
		entry    model.ProtocolEntry
		expected string
		ok       bool
		want     ResolvedEntry
	}{
		{
			name:     "catalog name",
			entry:    entry("s1", "p1", "lowpass"),
			expected: "s1",
			ok:       true,
			want:     ResolvedEntry{TargetID: "p1", Name: "Filter", Value: "lowpass"},
		},
		{
			name:     "title when there is no name",
			entry:    entry("s1", "p2", "1024", "samples"),
			expected: "s1",
			ok:       true,
			want:     ResolvedEntry{TargetID: "p2", Name: "Window length", Value: "1024", Unit: "samples"},
		},
		{
			name:     "target id when the definition has no name",
			entry:    entry("s1", "p3", "x"),
			expected: "s1",
			ok:       true,
			want:     ResolvedEntry{TargetID: "p3", Name: "p3", Value: "x"},
		},
		{
			name:     "target id when not in the catalog",
			entry:    entry("s1", "p9", "x"),
			expected: "s1",
			ok:       true,
			want:     ResolvedEntry{TargetID: "p9", Name: "p9", Value: "x"},
		},
		{
			name:     "entry id without target",
			entry:    model.ProtocolEntry{ID: "p1", SourceID: "s1", Value: []interface{}{"x"}},
			expected: "s1",
			ok:       true,
			want:     ResolvedEntry{TargetID: "p1", Name: "Filter", Value: "x"},
		},
		{
			name:     "other sensor",
			entry:    entry("s2", "p1", "lowpass"),
			expected: "s1",
		},
		{
			name:     "any sensor without expected id",
			entry:    entry("s2", "p9", "x"),
			expected: "",
			ok:       true,
			want:     ResolvedEntry{TargetID: "p9", Name: "p9", Value: "x"},
		},
		{
			name:     "no values",
			entry:    entry("s1", "p1"),
			expected: "s1",
		},
		{
			name:     "blank first value",
			entry:    entry("s1", "p1", "   ", "Hz"),
			expected: "s1",
		},
		{
			name:     "nil first value",
			entry:    entry("s1", "p1", nil),
			expected: "s1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved, ok := ResolveEntry(tt.entry, tt.expected, catalog)
			require.Equal(t, tt.ok, ok)
			if !ok {
				assert.Nil(t, resolved)
				return
			}
			assert.Equal(t, tt.want.TargetID, resolved.TargetID)
			assert.Equal(t, tt.want.Name, resolved.Name)
			assert.Equal(t, tt.want.Value, resolved.Value)
			assert.Equal(t, tt.want.Unit, resolved.Unit)
		})
	}
}

func parameterNames(parameters []*isa.ProtocolParameter) []string {
	var names []string
	for _, parameter := range parameters {
		names = append(names, parameter.ParameterName())
	}
	return names
}

func TestBuildParametersForSensorCatalogOrder(t *testing.T) {
	catalog := NewCatalog([]model.ParameterDef{{ID: "p1"}, {ID: "p2"}, {ID: "p3"}})
	study := &model.Study{Assays: []model.AssayDetail{
		{ProcessingProtocols: []model.ProtocolEntry{entry("s1", "p3", "a")}},
		{ProcessingProtocols: []model.ProtocolEntry{entry("s1", "p1", "b"), entry("s2", "p2", "c")}},
	}}

	parameters := BuildParametersForSensor(study, "s1", catalog, true)
	assert.Equal(t, []string{"p1", "p3"}, parameterNames(parameters))
}

func TestBuildParametersForSensorFirstSeenOrder(t *testing.T) {
	study := &model.Study{Assays: []model.AssayDetail{{
		MeasurementProtocols: []model.ProtocolEntry{entry("s1", "gain", "2"), entry("s1", "range", "10")},
		Runs: []model.Run{
			{MeasurementProtocols: []model.ProtocolEntry{entry("s1", "coupling", "AC"), entry("s1", "gain", "4")}},
		},
	}}}

	for i := 0; i < 3; i++ {
		parameters := BuildParametersForSensor(study, "s1", NewCatalog(nil), false)
		assert.Equal(t, []string{"gain", "range", "coupling"}, parameterNames(parameters))
	}
}

func TestBuildParametersForSensorFiltersToCatalog(t *testing.T) {
	catalog := NewCatalog([]model.ParameterDef{{ID: "p1", Name: "Filter", Description: "anti aliasing"}, {ID: "p2"}})
	study := &model.Study{Assays: []model.AssayDetail{{
		ProcessingProtocols: []model.ProtocolEntry{entry("s1", "extra", "1"), entry("s1", "p1", "lowpass")},
	}}}

	parameters := BuildParametersForSensor(study, "s1", catalog, true)
	require.Len(t, parameters, 1)
	assert.Equal(t, []string{"Filter"}, parameterNames(parameters))
	require.Len(t, parameters[0].Comments, 1)
	assert.Equal(t, "anti aliasing", parameters[0].Comments[0].Value)
}

func TestBuildParametersForSensorIgnoresBlankValues(t *testing.T) {
	study := &model.Study{Assays: []model.AssayDetail{{
		MeasurementProtocols: []model.ProtocolEntry{entry("s1", "p1", ""), entry("s1", "p2")},
	}}}

	assert.Empty(t, BuildParametersForSensor(study, "s1", NewCatalog(nil), false))
}

func TestParameterFor(t *testing.T) {
	filter := &isa.ProtocolParameter{Name: isa.NewOntologyAnnotation("Filter")}
	raw := &isa.ProtocolParameter{Name: isa.NewOntologyAnnotation("p7")}
	protocol := &isa.Protocol{Parameters: []*isa.ProtocolParameter{filter, raw}}

	t.Run("by resolved name", func(t *testing.T) {
		assert.Same(t, filter, ParameterFor(protocol, &ResolvedEntry{TargetID: "p1", Name: "Filter"}))
	})

	t.Run("by target id", func(t *testing.T) {
		assert.Same(t, raw, ParameterFor(protocol, &ResolvedEntry{TargetID: "p7", Name: "Order"}))
	})

	t.Run("ad hoc", func(t *testing.T) {
		parameter := ParameterFor(protocol, &ResolvedEntry{TargetID: "p8", Name: "p8"})
		require.NotNil(t, parameter)
		assert.Equal(t, "p8", parameter.ParameterName())
		assert.Len(t, protocol.Parameters, 2)
	})

	t.Run("no protocol", func(t *testing.T) {
		parameter := ParameterFor(nil, &ResolvedEntry{TargetID: "p8", Name: "p8"})
		assert.Equal(t, "p8", parameter.ParameterName())
	})
}
