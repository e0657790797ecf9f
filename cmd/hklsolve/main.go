// hklsolve is a command-line front end for the diffractometer engine: it
// builds an engine from flags, optionally fits UB from reference
// reflections, and runs forward (hkl -> angles) or inverse (angles -> hkl)
// solves.
//
// Examples:
//
//	hklsolve -geometry E4CV -mode bissector -lattice 5.431,5.431,5.431,90,90,90 \
//	    -forward 1,1,1
//
//	hklsolve -geometry E6C -mode lifting_detector_mu \
//	    -lattice 9.069,9.069,10.39,90,90,120 -wavelength 1.61198 \
//	    -pin omega,chi,phi \
//	    -r1 "3,3,0@25.285,0,0,0,64.449,-0.871" \
//	    -r2 "5,2,0@46.816,0,0,0,79.712,-1.374" \
//	    -forward 4,4,0
package main

import (
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/crystalbeam/diffcalc/hkl"
	"github.com/crystalbeam/diffcalc/internal/config"
	"github.com/crystalbeam/diffcalc/internal/version"
)

// parseCSVFloatSlice parses a comma-separated list of floats
func parseCSVFloatSlice(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float '%s': %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// parseReflection parses "h,k,l@angle,angle,..." into indices and a
// position vector.
func parseReflection(s string) (h, k, l float64, pos hkl.Position, err error) {
	halves := strings.SplitN(s, "@", 2)
	if len(halves) != 2 {
		return 0, 0, 0, nil, fmt.Errorf("reflection %q: want h,k,l@angles", s)
	}
	hkls, err := parseCSVFloatSlice(halves[0])
	if err != nil {
		return 0, 0, 0, nil, err
	}
	if len(hkls) != 3 {
		return 0, 0, 0, nil, fmt.Errorf("reflection %q: want exactly 3 indices", s)
	}
	angles, err := parseCSVFloatSlice(halves[1])
	if err != nil {
		return 0, 0, 0, nil, err
	}
	return hkls[0], hkls[1], hkls[2], hkl.Position(angles), nil
}

// applyAssignments parses "name=value,name=value" axis settings.
func applyAssignments(e *hkl.Engine, s string) error {
	if s == "" {
		return nil
	}
	for _, item := range strings.Split(s, ",") {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("assignment %q: want name=value", item)
		}
		v, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return fmt.Errorf("assignment %q: %w", item, err)
		}
		if err := e.SetAxisValue(parts[0], v); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	geometry := flag.String("geometry", "E4CV", "Geometry type (E4CV, E4CH, E6C, TwoC, ZAXIS)")
	mode := flag.String("mode", "bissector", "Solve mode for the geometry")
	latticeSpec := flag.String("lattice", "", "Lattice as a,b,c,alpha,beta,gamma (Å, degrees)")
	wavelength := flag.Float64("wavelength", hkl.DefaultWavelength, "Wavelength in Å")
	energy := flag.Float64("energy", 0, "Photon energy in keV (overrides -wavelength)")
	ubSpec := flag.String("ub", "", "Pre-calibrated UB as 9 comma-separated values, row-major")
	r1 := flag.String("r1", "", "First reference reflection h,k,l@angles")
	r2 := flag.String("r2", "", "Second reference reflection h,k,l@angles")
	pin := flag.String("pin", "", "Comma-separated axes to pin at 0 (degenerate limits)")
	set := flag.String("set", "", "Held axis values as name=value,name=value")
	forward := flag.String("forward", "", "Forward solve target h,k,l")
	inverse := flag.String("inverse", "", "Inverse solve position as comma-separated angles")
	profile := flag.String("profile", "", "Instrument profile JSON (replaces the setup flags)")
	listModes := flag.Bool("modes", false, "List the geometry's modes and exit")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("hklsolve %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	if *listModes {
		axes, err := hkl.AxisNamesFor(hkl.GeometryType(*geometry))
		if err != nil {
			log.Fatalf("Invalid geometry: %v", err)
		}
		modes, err := hkl.ModeNamesFor(hkl.GeometryType(*geometry))
		if err != nil {
			log.Fatalf("Invalid geometry: %v", err)
		}
		fmt.Printf("%s axes: %s\n", *geometry, strings.Join(axes, ", "))
		fmt.Printf("%s modes: %s\n", *geometry, strings.Join(modes, ", "))
		return
	}

	var e *hkl.Engine
	if *profile != "" {
		p, err := config.LoadProfile(*profile)
		if err != nil {
			log.Fatalf("Profile load failed: %v", err)
		}
		e, err = p.Build()
		if err != nil {
			log.Fatalf("Profile setup failed: %v", err)
		}
	} else {
		e = engineFromFlags(*geometry, *mode, *latticeSpec, *wavelength, *energy,
			*ubSpec, *r1, *r2, *pin, *set)
	}

	ub, err := e.UB()
	if err != nil {
		log.Fatalf("UB unavailable: %v", err)
	}
	fmt.Printf("UB:\n")
	for i := 0; i < 3; i++ {
		fmt.Printf("  % .6f % .6f % .6f\n", ub[3*i], ub[3*i+1], ub[3*i+2])
	}
	fmt.Printf("wavelength: %.5f Å (%.4f keV)\n", e.Wavelength(), e.Energy())

	names := e.PhysicalAxisNames()

	if *forward != "" {
		target, err := parseCSVFloatSlice(*forward)
		if err != nil || len(target) != 3 {
			log.Fatalf("Invalid -forward %q: want h,k,l", *forward)
		}
		sols, err := e.Forward(target[0], target[1], target[2])
		if err != nil {
			log.Fatalf("Forward solve failed: %v", err)
		}
		fmt.Printf("forward (%g,%g,%g): %d solution(s)\n", target[0], target[1], target[2], len(sols))
		for n, sol := range sols {
			var fields []string
			for i, name := range names {
				fields = append(fields, fmt.Sprintf("%s=%.4f", name, sol[i]))
			}
			fmt.Printf("  [%d] %s\n", n, strings.Join(fields, " "))
		}
	}

	if *inverse != "" {
		angles, err := parseCSVFloatSlice(*inverse)
		if err != nil {
			log.Fatalf("Invalid -inverse %q: %v", *inverse, err)
		}
		res, err := e.Inverse(hkl.Position(angles))
		if err != nil {
			log.Fatalf("Inverse solve failed: %v", err)
		}
		fmt.Printf("inverse: h=%.4f k=%.4f l=%.4f\n", res.H, res.K, res.L)
	}
}

// engineFromFlags assembles an engine from the individual setup flags, the
// non-profile path.
func engineFromFlags(geometry, mode, latticeSpec string, wavelength, energy float64,
	ubSpec, r1, r2, pin, set string) *hkl.Engine {
	e, err := hkl.NewEngine(hkl.GeometryType(geometry), mode)
	if err != nil {
		log.Fatalf("Engine setup failed: %v", err)
	}

	if energy > 0 {
		if err := e.SetEnergy(energy); err != nil {
			log.Fatalf("Invalid energy: %v", err)
		}
	} else if err := e.SetWavelength(wavelength); err != nil {
		log.Fatalf("Invalid wavelength: %v", err)
	}

	params, err := parseCSVFloatSlice(latticeSpec)
	if err != nil || len(params) != 6 {
		log.Fatalf("Invalid -lattice %q: want a,b,c,alpha,beta,gamma", latticeSpec)
	}
	lat, err := hkl.NewLattice(params[0], params[1], params[2], params[3], params[4], params[5])
	if err != nil {
		log.Fatalf("Invalid lattice: %v", err)
	}
	if _, err := e.NewSample("sample", lat); err != nil {
		log.Fatalf("Sample setup failed: %v", err)
	}

	if pin != "" {
		for _, name := range strings.Split(pin, ",") {
			name = strings.TrimSpace(name)
			if err := e.SetAxisLimits(name, 0, 0); err != nil {
				log.Fatalf("Pinning %s failed: %v", name, err)
			}
		}
	}
	if err := applyAssignments(e, set); err != nil {
		log.Fatalf("Axis assignment failed: %v", err)
	}

	switch {
	case ubSpec != "":
		vals, err := parseCSVFloatSlice(ubSpec)
		if err != nil || len(vals) != 9 {
			log.Fatalf("Invalid -ub %q: want 9 values", ubSpec)
		}
		var ub hkl.Mat3
		copy(ub[:], vals)
		if err := e.SetUB(ub); err != nil {
			log.Fatalf("SetUB failed: %v", err)
		}
	case r1 != "" && r2 != "":
		for _, spec := range []string{r1, r2} {
			h, k, l, pos, err := parseReflection(spec)
			if err != nil {
				log.Fatalf("Invalid reflection: %v", err)
			}
			if err := e.AddReflection(h, k, l, pos); err != nil {
				log.Fatalf("AddReflection failed: %v", err)
			}
		}
		if err := e.ComputeUB(0, 1); err != nil {
			log.Fatalf("ComputeUB failed: %v", err)
		}
		log.Printf("UB fitted from 2 reflections")
	default:
		log.Printf("No reflections or -ub given; using unoriented UB = B")
	}
	return e
}
