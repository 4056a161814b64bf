package model

import "fmt"

type Sensor struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Alias              string `json:"alias"`
	Description        string `json:"description"`
	MeasurementType    string `json:"measurementType"`
	MeasurementUnit    string `json:"measurementUnit"`
	TechnologyType     string `json:"technologyType"`
	TechnologyPlatform string `json:"technologyPlatform"`
	SensorLocation     string `json:"sensorLocation"`
	LocationUnit       string `json:"locationUnit"`
	SensorOrientation  string `json:"sensorOrientation"`
	OrientationUnit    string `json:"orientationUnit"`
	SamplingRate       string `json:"samplingRate"`
	SamplingUnit       string `json:"samplingUnit"`
}

// Identity returns the first of id, name and location that is set. It is ""
// when the sensor declares none of them.
func (s Sensor) Identity() string {
	switch {
	case s.ID != "":
		return s.ID
	case s.Name != "":
		return s.Name
	default:
		return s.SensorLocation
	}
}

// IdentityOrIndex is Identity with a positional fallback so that every sensor
// of a setup ends up with its own identifier.
func (s Sensor) IdentityOrIndex(index int) string {
	if id := s.Identity(); id != "" {
		return id
	}
	return fmt.Sprintf("sensor_%d", index)
}

// Attribute is one of the physical attributes a sensor may declare.
type Attribute struct {
	Name  string
	Value string
	Unit  string
}

// Attributes returns the declared physical attributes of the sensor, in
// a fixed order. Attributes without a value are left out.
func (s Sensor) Attributes() []Attribute {
	all := []Attribute{
		{Name: "Sensor Location", Value: s.SensorLocation, Unit: s.LocationUnit},
		{Name: "Sensor Orientation", Value: s.SensorOrientation, Unit: s.OrientationUnit},
		{Name: "Sampling Rate", Value: s.SamplingRate, Unit: s.SamplingUnit},
		{Name: "Measured Unit", Value: s.MeasurementUnit},
	}

	var attrs []Attribute
	for _, attr := range all {
		if attr.Value != "" {
			attrs = append(attrs, attr)
		}
	}
	return attrs
}

type AssayDetail struct {
	AssayFileName        string          `json:"assay_file_name"`
	UsedSensor           Sensor          `json:"used_sensor"`
	Runs                 []Run           `json:"runs"`
	MeasurementProtocols []ProtocolEntry `json:"measurement_protocols"`
	ProcessingProtocols  []ProtocolEntry `json:"processing_protocols"`
}

// HasDataPairing is true when at least one run names a processed file. When
// it does, every run gets a processed data file next to its raw one.
func (a *AssayDetail) HasDataPairing() bool {
	for _, run := range a.Runs {
		if run.ProcessedFileName != "" {
			return true
		}
	}
	return false
}

// Entries returns the protocol entries of the given kind that apply to the run.
// A run that carries its own entries uses those, otherwise the assay entries
// are used.
func (a *AssayDetail) Entries(run Run, processing bool) []ProtocolEntry {
	if processing {
		if len(run.ProcessingProtocols) != 0 {
			return run.ProcessingProtocols
		}
		return a.ProcessingProtocols
	}

	if len(run.MeasurementProtocols) != 0 {
		return run.MeasurementProtocols
	}
	return a.MeasurementProtocols
}

// AllEntries returns the assay entries of the given kind followed by the
// entries of each run.
func (a *AssayDetail) AllEntries(processing bool) []ProtocolEntry {
	var entries []ProtocolEntry
	if processing {
		entries = append(entries, a.ProcessingProtocols...)
	} else {
		entries = append(entries, a.MeasurementProtocols...)
	}

	for _, run := range a.Runs {
		if processing {
			entries = append(entries, run.ProcessingProtocols...)
		} else {
			entries = append(entries, run.MeasurementProtocols...)
		}
	}
	return entries
}

type Run struct {
	RunNumber            int             `json:"runNumber"`
	RawFileName          string          `json:"raw_file_name"`
	ProcessedFileName    string          `json:"processed_file_name"`
	MeasurementProtocols []ProtocolEntry `json:"measurement_protocols"`
	ProcessingProtocols  []ProtocolEntry `json:"processing_protocols"`
}

// ProtocolEntry assigns a value to a catalog parameter (TargetID) for one
// sensor (SourceID). Value holds the raw value and, optionally, its unit.
type ProtocolEntry struct {
	ID       string        `json:"id"`
	SourceID string        `json:"sourceId"`
	TargetID string        `json:"targetId"`
	Value    []interface{} `json:"value"`
}
