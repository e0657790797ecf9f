// hklmap renders a reachability map of the (h,k) plane at fixed l: it runs
// the forward solve over a grid of Miller indices and plots which targets
// have at least one in-limit solution. Useful for planning a scan before
// committing beam time.
//
// Example:
//
//	hklmap -geometry E4CV -mode bissector -lattice 5.431,5.431,5.431,90,90,90 \
//	    -hmin -4 -hmax 4 -kmin -4 -kmax 4 -step 0.25 -l 1 -output map.png
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/crystalbeam/diffcalc/hkl"
)

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

func main() {
	geometry := flag.String("geometry", "E4CV", "Geometry type (E4CV, E4CH, E6C, TwoC, ZAXIS)")
	mode := flag.String("mode", "bissector", "Solve mode for the geometry")
	latticeSpec := flag.String("lattice", "", "Lattice as a,b,c,alpha,beta,gamma (Å, degrees)")
	wavelength := flag.Float64("wavelength", hkl.DefaultWavelength, "Wavelength in Å")
	hMin := flag.Float64("hmin", -5, "Grid lower bound along h")
	hMax := flag.Float64("hmax", 5, "Grid upper bound along h")
	kMin := flag.Float64("kmin", -5, "Grid lower bound along k")
	kMax := flag.Float64("kmax", 5, "Grid upper bound along k")
	step := flag.Float64("step", 0.25, "Grid step in Miller-index units")
	lFixed := flag.Float64("l", 0, "Fixed l index for the map plane")
	set := flag.String("set", "", "Held axis values as name=value,name=value")
	output := flag.String("output", "hklmap.png", "Output PNG filename")
	flag.Parse()

	if *step <= 0 {
		log.Fatalf("Invalid -step %g: must be positive", *step)
	}

	e, err := hkl.NewEngine(hkl.GeometryType(*geometry), *mode)
	if err != nil {
		log.Fatalf("Engine setup failed: %v", err)
	}
	if err := e.SetWavelength(*wavelength); err != nil {
		log.Fatalf("Invalid wavelength: %v", err)
	}

	params, err := parseCSVFloatSlice(*latticeSpec)
	if err != nil || len(params) != 6 {
		log.Fatalf("Invalid -lattice %q: want a,b,c,alpha,beta,gamma", *latticeSpec)
	}
	lat, err := hkl.NewLattice(params[0], params[1], params[2], params[3], params[4], params[5])
	if err != nil {
		log.Fatalf("Invalid lattice: %v", err)
	}
	if _, err := e.NewSample("sample", lat); err != nil {
		log.Fatalf("Sample setup failed: %v", err)
	}

	if *set != "" {
		for _, item := range strings.Split(*set, ",") {
			parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
			if len(parts) != 2 {
				log.Fatalf("Invalid -set item %q: want name=value", item)
			}
			v, err := strconv.ParseFloat(parts[1], 64)
			if err != nil {
				log.Fatalf("Invalid -set item %q: %v", item, err)
			}
			if err := e.SetAxisValue(parts[0], v); err != nil {
				log.Fatalf("Axis assignment failed: %v", err)
			}
		}
	}

	var reachable, blocked plotter.XYs
	for h := *hMin; h <= *hMax+1e-9; h += *step {
		for k := *kMin; k <= *kMax+1e-9; k += *step {
			_, err := e.Forward(h, k, *lFixed)
			switch {
			case err == nil:
				reachable = append(reachable, plotter.XY{X: h, Y: k})
			case errors.Is(err, hkl.ErrUnreachableTarget):
				blocked = append(blocked, plotter.XY{X: h, Y: k})
			default:
				// Configuration errors abort the whole map; they will
				// repeat at every grid point.
				log.Fatalf("Forward solve failed at (%g,%g,%g): %v", h, k, *lFixed, err)
			}
		}
	}

	log.Printf("Grid points: %d reachable, %d unreachable", len(reachable), len(blocked))

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s %s reachability, l=%g, λ=%g Å", *geometry, *mode, *lFixed, *wavelength)
	p.X.Label.Text = "h"
	p.Y.Label.Text = "k"

	if len(reachable) > 0 {
		sc, err := plotter.NewScatter(reachable)
		if err != nil {
			log.Fatalf("Scatter setup failed: %v", err)
		}
		sc.GlyphStyle.Radius = vg.Points(1.5)
		p.Add(sc)
		p.Legend.Add("reachable", sc)
	}
	if len(blocked) > 0 {
		sc, err := plotter.NewScatter(blocked)
		if err != nil {
			log.Fatalf("Scatter setup failed: %v", err)
		}
		sc.GlyphStyle.Radius = vg.Points(0.5)
		p.Add(sc)
		p.Legend.Add("unreachable", sc)
	}

	if err := p.Save(8*vg.Inch, 8*vg.Inch, *output); err != nil {
		log.Fatalf("Could not save plot %s: %v", *output, err)
	}
	log.Printf("Wrote %s", *output)
}
