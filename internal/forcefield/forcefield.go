// Package forcefield resolves user-facing force-field and water-model names
// to the tleap resource identifiers Amber expects. Both sets are closed:
// unknown names are rejected with an error enumerating the valid choices.
package forcefield

import (
	"fmt"
	"sort"
	"strings"
)

// ForceField describes one supported protein force field.
type ForceField struct {
	Name   string
	Leaprc string
}

// WaterModel describes one supported explicit water model, including the
// solvent box tleap uses for solvation.
type WaterModel struct {
	Name   string
	Leaprc string
	Box    string
}

var forceFields = map[string]ForceField{
	"ff14SB": {Name: "ff14SB", Leaprc: "leaprc.protein.ff14SB"},
	"ff19SB": {Name: "ff19SB", Leaprc: "leaprc.protein.ff19SB"},
}

var waterModels = map[string]WaterModel{
	"tip3p": {Name: "tip3p", Leaprc: "leaprc.water.tip3p", Box: "TIP3PBOX"},
	"opc":   {Name: "opc", Leaprc: "leaprc.water.opc", Box: "OPCBOX"},
	"spce":  {Name: "spce", Leaprc: "leaprc.water.spce", Box: "SPCBOX"},
}

// ResolveForceField maps a force-field name to its leaprc identifier.
func ResolveForceField(name string) (ForceField, error) {
	ff, ok := forceFields[name]
	if !ok {
		return ForceField{}, fmt.Errorf("unsupported force field %q: valid values are %s", name, joinSorted(forceFieldNames()))
	}
	return ff, nil
}

// ResolveWaterModel maps a water-model name to its leaprc identifier and
// solvent box.
func ResolveWaterModel(name string) (WaterModel, error) {
	wm, ok := waterModels[name]
	if !ok {
		return WaterModel{}, fmt.Errorf("unsupported water model %q: valid values are %s", name, joinSorted(waterModelNames()))
	}
	return wm, nil
}

// ForceFieldNames returns the supported force-field names, sorted.
func ForceFieldNames() []string {
	return forceFieldNames()
}

// WaterModelNames returns the supported water-model names, sorted.
func WaterModelNames() []string {
	return waterModelNames()
}

func forceFieldNames() []string {
	names := make([]string, 0, len(forceFields))
	for name := range forceFields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func waterModelNames() []string {
	names := make([]string, 0, len(waterModels))
	for name := range waterModels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func joinSorted(names []string) string {
	return strings.Join(names, ", ")
}
