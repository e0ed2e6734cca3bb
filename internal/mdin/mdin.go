// Package mdin renders the five Amber mdin control files the workflow runs:
// restrained minimization, unrestrained minimization, NVT heating, NPT
// equilibration, and NPT production. Rendering is pure templating over the
// resolved job parameters; the field layout is fixed by sander/pmemd's input
// format and never branches.
package mdin

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// StepsPerNanosecond converts nanoseconds of simulated time to integration
// steps under the fixed 2 fs timestep convention: 1 ns = 10^6 fs / 2 fs.
const StepsPerNanosecond = 500000

// The restraint mask shared by the restrained stages: everything except
// water and counter-ions is held.
const soluteRestraintMask = "'!:WAT,Na+,Cl-'"

// Params carries the only values substituted into the templates.
type Params struct {
	TemperatureK float64
	Nanoseconds  int
}

// File is one rendered control file.
type File struct {
	Name     string
	Contents string
}

// ProductionSteps computes the production stage's nstlim from the requested
// simulation length in nanoseconds.
func ProductionSteps(ns int) int {
	return ns * StepsPerNanosecond
}

// FormatTemperature renders a temperature the way it appears in the control
// files, so callers and tests agree on the exact substitution.
func FormatTemperature(kelvin float64) string {
	return strconv.FormatFloat(kelvin, 'f', 2, 64)
}

// Files renders all five control files in stage order.
func Files(p Params) []File {
	temp := FormatTemperature(p.TemperatureK)
	return []File{
		{Name: "min1.in", Contents: min1()},
		{Name: "min2.in", Contents: min2()},
		{Name: "heat.in", Contents: heat(temp)},
		{Name: "equil.in", Contents: equil(temp)},
		{Name: "prod.in", Contents: prod(temp, p.Nanoseconds)},
	}
}

// WriteAll writes the five control files into dir and returns their paths in
// stage order.
func WriteAll(dir string, p Params) ([]string, error) {
	var paths []string
	for _, f := range Files(p) {
		path := filepath.Join(dir, f.Name)
		if err := os.WriteFile(path, []byte(f.Contents), 0644); err != nil {
			return nil, fmt.Errorf("failed to write control file %s: %w", f.Name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func min1() string {
	return `Restrained minimization: relax solvent and ions around the fixed solute
 &cntrl
  imin=1, maxcyc=5000, ncyc=2500,
  cut=10.0, ntb=1,
  ntr=1, restraint_wt=10.0,
  restraintmask=` + soluteRestraintMask + `,
 /
`
}

func min2() string {
	return `Unrestrained minimization: relax the whole system
 &cntrl
  imin=1, maxcyc=5000, ncyc=2500,
  cut=10.0, ntb=1,
  ntr=0,
 /
`
}

func heat(temp string) string {
	return fmt.Sprintf(`Heating: NVT ramp from 0 K to %[1]s K over 50 ps, restrained solute
 &cntrl
  imin=0, irest=0, ntx=1,
  nstlim=25000, dt=0.002,
  ntc=2, ntf=2, cut=10.0, ntb=1,
  ntt=3, gamma_ln=2.0, ig=-1,
  tempi=0.0, temp0=%[1]s,
  ntr=1, restraint_wt=5.0,
  restraintmask=%[2]s,
  ntpr=500, ntwx=500, ntwr=5000,
  nmropt=1,
 /
 &wt type='TEMP0', istep1=0, istep2=22500, value1=0.0, value2=%[1]s, /
 &wt type='TEMP0', istep1=22501, istep2=25000, value1=%[1]s, value2=%[1]s, /
 &wt type='END' /
`, temp, soluteRestraintMask)
}

func equil(temp string) string {
	return fmt.Sprintf(`Equilibration: NPT at %[1]s K for 500 ps
 &cntrl
  imin=0, irest=1, ntx=5,
  nstlim=250000, dt=0.002,
  ntc=2, ntf=2, cut=10.0,
  ntb=2, ntp=1, taup=2.0,
  ntt=3, gamma_ln=2.0, ig=-1, temp0=%[1]s,
  ntr=0,
  ntpr=5000, ntwx=5000, ntwr=50000,
 /
`, temp)
}

func prod(temp string, ns int) string {
	return fmt.Sprintf(`Production: NPT at %[1]s K for %[2]d ns
 &cntrl
  imin=0, irest=1, ntx=5,
  nstlim=%[3]d, dt=0.002,
  ntc=2, ntf=2, cut=10.0,
  ntb=2, ntp=1, taup=2.0,
  ntt=3, gamma_ln=2.0, ig=-1, temp0=%[1]s,
  ntr=0, iwrap=1, ioutfm=1,
  ntpr=50000, ntwx=25000, ntwr=500000,
 /
`, temp, ns, ProductionSteps(ns))
}
