package isa

// NodeType identifies the kind of object that flows between processes.
type NodeType int

const (
	SourceNode NodeType = iota + 1
	SampleNode
	DataFileNode
)

// Node is anything that can be the input or output of a process.
type Node interface {
	NodeName() string
	NodeType() NodeType
}

type Source struct {
	Commented
	Name            string
	Characteristics []*Characteristic
}

func (s *Source) NodeName() string   { return s.Name }
func (s *Source) NodeType() NodeType { return SourceNode }

type Sample struct {
	Commented
	Name            string
	DerivesFrom     []*Source
	Characteristics []*Characteristic
	FactorValues    []*FactorValue
}

func (s *Sample) NodeName() string   { return s.Name }
func (s *Sample) NodeType() NodeType { return SampleNode }

func (s *Sample) AddFactorValue(fv *FactorValue) {
	s.FactorValues = append(s.FactorValues, fv)
}

// Labels used for data files.
const (
	RawDataFileLabel     = "Raw Data File"
	DerivedDataFileLabel = "Derived Data File"
)

type DataFile struct {
	Commented
	Name          string
	Label         string
	GeneratedFrom []*Sample
}

func NewDataFile(name, label string, generatedFrom *Sample) *DataFile {
	df := &DataFile{Name: name, Label: label}
	if generatedFrom != nil {
		df.GeneratedFrom = append(df.GeneratedFrom, generatedFrom)
	}
	return df
}

func (d *DataFile) NodeName() string   { return d.Name }
func (d *DataFile) NodeType() NodeType { return DataFileNode }
