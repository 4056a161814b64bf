package converter

import "github.com/NathanHouwaart/ISA-PHM-Backend/internal/isa"

// LinkSequence chains the processes in the order they were created. Process i
// precedes process i+1, which is recorded on both sides of the link so the
// ISA-Tab and ISA-JSON writers can follow the chain. Sequences of zero or one
// process have nothing to link. The number of links made is returned.
func LinkSequence(sequence []*isa.Process) int {
	links := 0
	for i := 0; i+1 < len(sequence); i++ {
		plink(sequence[i], sequence[i+1])
		links++
	}
	return links
}

func plink(from, to *isa.Process) {
	from.NextProcess = to
	to.PreviousProcess = from
}
