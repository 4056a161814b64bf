package converter

import (
	"github.com/NathanHouwaart/ISA-PHM-Backend/internal/isa"
	"github.com/NathanHouwaart/ISA-PHM-Backend/internal/model"
	"github.com/NathanHouwaart/ISA-PHM-Backend/internal/normalize"
)

// Catalog is an ordered set of parameter definitions keyed by id. The
// document declares one for measurement protocols and one for processing
// protocols.
type Catalog struct {
	order []string
	defs  map[string]model.ParameterDef
}

func NewCatalog(defs []model.ParameterDef) *Catalog {
	c := &Catalog{defs: make(map[string]model.ParameterDef)}
	for _, def := range defs {
		if def.ID == "" {
			continue
		}
		if _, ok := c.defs[def.ID]; !ok {
			c.order = append(c.order, def.ID)
		}
		c.defs[def.ID] = def
	}
	return c
}

func (c *Catalog) Lookup(id string) (model.ParameterDef, bool) {
	if c == nil {
		return model.ParameterDef{}, false
	}
	def, ok := c.defs[id]
	return def, ok
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}

// IDs returns the catalog ids in declaration order.
func (c *Catalog) IDs() []string {
	if c == nil {
		return nil
	}
	return c.order
}

// ResolvedEntry is a protocol entry whose target has been looked up in a
// catalog.
type ResolvedEntry struct {
	TargetID string
	Name     string
	Value    interface{}
	Unit     interface{}
	Def      model.ParameterDef
}

// ResolveEntry checks that the entry belongs to the expected sensor and carries
// a value, then resolves its target. It returns false when the entry should be
// ignored: it is for another sensor, has no values, or its first value is
// blank. The name comes from the catalog and falls back to the target id.
func ResolveEntry(entry model.ProtocolEntry, expectedSourceID string, catalog *Catalog) (*ResolvedEntry, bool) {
	if expectedSourceID != "" && entry.SourceID != expectedSourceID {
		return nil, false
	}

	if len(entry.Value) == 0 || normalize.IsEmpty(entry.Value[0]) {
		return nil, false
	}

	resolved := &ResolvedEntry{Value: entry.Value[0]}
	if len(entry.Value) > 1 {
		resolved.Unit = entry.Value[1]
	}

	resolved.TargetID = entry.TargetID
	if resolved.TargetID == "" {
		resolved.TargetID = entry.ID
	}

	resolved.Name = resolved.TargetID
	if def, ok := catalog.Lookup(resolved.TargetID); ok {
		resolved.Def = def
		if name := def.DisplayName(); name != "" {
			resolved.Name = name
		}
	}

	return resolved, true
}

// BuildParametersForSensor declares the parameters of a sensor's protocol. Only
// catalog parameters that have a value for the sensor somewhere in the study
// are declared. With a non-empty catalog the parameters follow catalog order
// and targets missing from the catalog are left to the assembler, which
// declares them when it meets their values. Without a catalog they follow the
// order they were first seen in.
func BuildParametersForSensor(study *model.Study, sensorID string, catalog *Catalog, processing bool) []*isa.ProtocolParameter {
	found := make(map[string]*ResolvedEntry)
	var seen []string

	for i := range study.Assays {
		for _, entry := range study.Assays[i].AllEntries(processing) {
			resolved, ok := ResolveEntry(entry, sensorID, catalog)
			if !ok || resolved.TargetID == "" {
				continue
			}
			if _, ok := found[resolved.TargetID]; !ok {
				found[resolved.TargetID] = resolved
				seen = append(seen, resolved.TargetID)
			}
		}
	}

	order := seen
	if catalog.Len() != 0 {
		order = nil
		for _, id := range catalog.IDs() {
			if _, ok := found[id]; ok {
				order = append(order, id)
			}
		}
	}

	var parameters []*isa.ProtocolParameter
	for _, id := range order {
		parameters = append(parameters, newParameter(found[id]))
	}
	return parameters
}

func newParameter(resolved *ResolvedEntry) *isa.ProtocolParameter {
	parameter := &isa.ProtocolParameter{Name: isa.NewOntologyAnnotation(resolved.Name)}
	if resolved.Def.Description != "" {
		parameter.AddComment("description", resolved.Def.Description)
	}
	return parameter
}

// ParameterFor finds the declared parameter of the protocol that the resolved
// entry refers to, matching on the resolved name or on the raw target id. When
// the protocol doesn't declare it an ad-hoc parameter is returned.
func ParameterFor(protocol *isa.Protocol, resolved *ResolvedEntry) *isa.ProtocolParameter {
	if protocol != nil {
		for _, parameter := range protocol.Parameters {
			name := parameter.ParameterName()
			if name == resolved.Name || name == resolved.TargetID {
				return parameter
			}
		}
	}

	return newParameter(resolved)
}
