// Package tleap renders the system-preparation script consumed by Amber's
// tleap: force-field and water leaprc sourcing, PDB loading, solvation,
// neutralization, salt addition, and topology/coordinate export.
package tleap

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vk/amberflow/internal/forcefield"
)

// ScriptName is the fixed filename of the generated tleap input.
const ScriptName = "tleap.in"

// Water number density in molecules per cubic Angstrom, and the molar
// concentration of pure water, used by the ion-pair estimate.
const (
	waterDensity = 0.0334
	waterMolar   = 55.5
)

// soluteExtent is the assumed solute bounding-box edge in Angstrom used to
// estimate the solvated box volume before tleap has run. The estimate only
// feeds the salt ion count, where rounding error of a few pairs is
// acceptable.
const soluteExtent = 40.0

// Params carries everything the preparation script substitutes.
type Params struct {
	JobName       string
	StructurePath string
	ForceField    forcefield.ForceField
	WaterModel    forcefield.WaterModel
	PaddingA      float64
	SaltMolarity  float64
}

// IonPairs estimates how many Na+/Cl- pairs approximate the requested salt
// molarity in a box with the given solvent padding. tleap cannot accept a
// concentration directly, only a count, and the true water count is unknown
// until after solvation, so the box volume is estimated from the padding.
func IonPairs(molarity, paddingA float64) int {
	if molarity <= 0 {
		return 0
	}
	side := soluteExtent + 2*paddingA
	waters := waterDensity * side * side * side
	return int(math.Round(molarity * waters / waterMolar))
}

// Script renders the tleap input. The topology and coordinate outputs are
// named <job>.prmtop and <job>.rst7 in tleap's working directory.
func Script(p Params) string {
	var b strings.Builder
	fmt.Fprintf(&b, "source %s\n", p.ForceField.Leaprc)
	fmt.Fprintf(&b, "source %s\n", p.WaterModel.Leaprc)
	fmt.Fprintf(&b, "mol = loadpdb %s\n", p.StructurePath)
	fmt.Fprintf(&b, "solvatebox mol %s %s\n", p.WaterModel.Box, strconv.FormatFloat(p.PaddingA, 'f', 1, 64))
	b.WriteString("addions mol Na+ 0\n")
	b.WriteString("addions mol Cl- 0\n")
	if pairs := IonPairs(p.SaltMolarity, p.PaddingA); pairs > 0 {
		fmt.Fprintf(&b, "addionsrand mol Na+ %d Cl- %d\n", pairs, pairs)
	}
	fmt.Fprintf(&b, "saveamberparm mol %s.prmtop %s.rst7\n", p.JobName, p.JobName)
	b.WriteString("quit\n")
	return b.String()
}

// WriteScript writes the rendered script into dir and returns its path.
func WriteScript(dir string, p Params) (string, error) {
	path := filepath.Join(dir, ScriptName)
	if err := os.WriteFile(path, []byte(Script(p)), 0644); err != nil {
		return "", fmt.Errorf("failed to write tleap script: %w", err)
	}
	return path, nil
}
