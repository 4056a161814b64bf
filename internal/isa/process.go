package isa

// ProtocolKind identifies which step of the pipeline a protocol describes.
type ProtocolKind int

const (
	PreparationProtocol ProtocolKind = iota + 1
	MeasurementProtocol
	ProcessingProtocol
)

func (k ProtocolKind) String() string {
	switch k {
	case PreparationProtocol:
		return "preparation"
	case MeasurementProtocol:
		return "measurement"
	case ProcessingProtocol:
		return "processing"
	default:
		return "unknown"
	}
}

// TypeTerm is the term used for the protocol type annotation.
func (k ProtocolKind) TypeTerm() string {
	switch k {
	case PreparationProtocol:
		return "Experiment Preparation Protocol"
	case MeasurementProtocol:
		return "Measurement Protocol"
	case ProcessingProtocol:
		return "Processing Protocol"
	default:
		return "Unknown Protocol"
	}
}

type ProtocolParameter struct {
	Commented
	Name *OntologyAnnotation
}

// ParameterName returns the term of the parameter name, or "" when unnamed.
func (p *ProtocolParameter) ParameterName() string {
	if p == nil || p.Name == nil {
		return ""
	}
	return p.Name.Term
}

type Protocol struct {
	Commented
	Name        string
	Description string
	Kind        ProtocolKind
	Type        *OntologyAnnotation
	Parameters  []*ProtocolParameter
}

func (p *Protocol) AddParameter(parameter *ProtocolParameter) {
	p.Parameters = append(p.Parameters, parameter)
}

// FindParameter returns the declared parameter with the given name.
func (p *Protocol) FindParameter(name string) *ProtocolParameter {
	for _, parameter := range p.Parameters {
		if parameter.ParameterName() == name {
			return parameter
		}
	}
	return nil
}

type ParameterValue struct {
	Category *ProtocolParameter
	Value    interface{}
	Unit     *OntologyAnnotation
}

// Process is one execution of a protocol. Processes in a sequence are chained
// through PreviousProcess and NextProcess, and through their inputs and
// outputs: an output of one process is the input of the next.
type Process struct {
	Commented
	Name            string
	Protocol        *Protocol
	ParameterValues []*ParameterValue
	Inputs          []Node
	Outputs         []Node
	PreviousProcess *Process
	NextProcess     *Process
}

func NewProcess(name string, protocol *Protocol) *Process {
	return &Process{Name: name, Protocol: protocol}
}

func (p *Process) AddInput(node Node) {
	p.Inputs = append(p.Inputs, node)
}

func (p *Process) AddOutput(node Node) {
	p.Outputs = append(p.Outputs, node)
}

func (p *Process) AddParameterValue(value *ParameterValue) {
	p.ParameterValues = append(p.ParameterValues, value)
}
