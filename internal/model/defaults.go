package model

// Default values for fields that the wizard may leave out.
const (
	DefaultIdentifier          = "i0"
	DefaultSetupName           = "Test Setup"
	DefaultPreparationProtocol = "Experiment Preparation"
	DefaultExperimentType      = "Diagnostics"
	DefaultRole                = "unknown"
	DefaultPublicationStatus   = "unknown"
	DefaultVariableType        = "unknown"
	DefaultTechnologyType      = "unknown"
	DefaultTechnologyPlatform  = "unknown"
)

// ApplyDefaults fills in every optional field that has a default. It is run
// once by the loaders after decoding, the converter relies on it.
func (d *Document) ApplyDefaults() {
	if d.Identifier == "" {
		d.Identifier = DefaultIdentifier
	}

	// Older wizard versions called the contacts "authors".
	if len(d.Contacts) == 0 && len(d.Authors) != 0 {
		d.Contacts = d.Authors
	}
	d.Authors = nil

	for i := range d.Contacts {
		if len(d.Contacts[i].AllRoles()) == 0 {
			d.Contacts[i].Role = DefaultRole
		}
	}

	for i := range d.Publications {
		if d.Publications[i].Status == "" {
			d.Publications[i].Status = DefaultPublicationStatus
		}
	}

	for i := range d.StudyVariables {
		if d.StudyVariables[i].Type == "" {
			d.StudyVariables[i].Type = DefaultVariableType
		}
	}

	for i := range d.Studies {
		d.Studies[i].applyDefaults(d.ExperimentType)
	}
}

func (s *Study) applyDefaults(experimentType string) {
	if s.ExperimentType == "" {
		s.ExperimentType = experimentType
	}
	if s.ExperimentType == "" {
		s.ExperimentType = DefaultExperimentType
	}

	if s.UsedSetup.Name == "" {
		s.UsedSetup.Name = DefaultSetupName
	}

	if s.UsedSetup.ExperimentPreparationProtocolName == "" {
		s.UsedSetup.ExperimentPreparationProtocolName = DefaultPreparationProtocol
	}

	for i := range s.Assays {
		s.Assays[i].UsedSensor.applyDefaults()
		for j := range s.Assays[i].Runs {
			if s.Assays[i].Runs[j].RunNumber == 0 {
				s.Assays[i].Runs[j].RunNumber = j + 1
			}
		}
	}

	for i := range s.UsedSetup.Sensors {
		s.UsedSetup.Sensors[i].applyDefaults()
	}
}

func (s *Sensor) applyDefaults() {
	if s.TechnologyType == "" {
		s.TechnologyType = DefaultTechnologyType
	}
	if s.TechnologyPlatform == "" {
		s.TechnologyPlatform = DefaultTechnologyPlatform
	}
}
