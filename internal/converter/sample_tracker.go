package converter

import "github.com/NathanHouwaart/ISA-PHM-Backend/internal/isa"

// sampleTracker keeps the run samples of a study. Each run of the test setup
// has its own sample, looked up by run number when the assays are built.
type sampleTracker struct {
	// Track the samples in the order they were created, this is the
	// order they end up in the study and the assays.
	samples []*isa.Sample

	// Track the sample for each run number.
	byRun map[int]*isa.Sample
}

func newSampleTracker() *sampleTracker {
	return &sampleTracker{
		byRun: make(map[int]*isa.Sample),
	}
}

func (t *sampleTracker) addRunSample(runNumber int, sample *isa.Sample) {
	t.samples = append(t.samples, sample)
	t.byRun[runNumber] = sample
}

func (t *sampleTracker) findRunSample(runNumber int) *isa.Sample {
	return t.byRun[runNumber]
}

func (t *sampleTracker) all() []*isa.Sample {
	return t.samples
}
