package hkl

import "math"

// solveContext carries the inputs of one forward solve. All angles are in
// radians and all axis vectors use the canonical geometry order.
type solveContext struct {
	g   *Geometry
	k   float64   // 2π/λ in 1/Å
	v   Vec3      // UB·(h,k,l), the target scattering vector in the crystal holder frame
	cur []float64 // current axis values (held axes contribute constants)
}

// forwardFunc enumerates the geometrically valid axis-value candidates for
// one geometry/mode pair. Candidates are full-length vectors in canonical
// axis order; limit filtering and ranking happen in the Engine.
type forwardFunc func(sc solveContext) [][]float64

// residualTol is the acceptance tolerance for verifying a closed-form
// branch against the target scattering vector, relative to |q| ~ 2π/λ.
const residualTol = 1e-7

// tthBranches returns the detector arm angles satisfying |q| = 2k·sin(θ/2),
// the ± pair for a single-arm detector.
func tthBranches(k, qnorm float64) []float64 {
	s := qnorm / (2 * k)
	if s > 1 {
		return nil
	}
	tth := 2 * math.Asin(s)
	if tth == 0 {
		return []float64{0}
	}
	return []float64{tth, -tth}
}

// armQ is the lab-frame scattering vector for a single detector arm rotated
// by tth about dir.
func armQ(k float64, dir Vec3, tth float64) Vec3 {
	kin := Vec3{k, 0, 0}
	return rotationAbout(dir, tth).MulVec(kin).sub(kin)
}

// gammaDeltaQ is the lab-frame scattering vector for the two-axis detector
// composition Rot(+z, gamma)·Rot(-y, delta) shared by the six-circle and
// z-axis geometries.
func gammaDeltaQ(k, gamma, delta float64) Vec3 {
	cd, sd := math.Cos(delta), math.Sin(delta)
	cg, sg := math.Cos(gamma), math.Sin(gamma)
	return Vec3{k * (cd*cg - 1), k * cd * sg, k * sd}
}

// solveTwoAxes finds the angle pairs (θ1, θ2) satisfying
//
//	Pre·Rot(n1,θ1)·Mid·Rot(n2,θ2)·Post·v = t
//
// by eliminating θ1 through the invariant component along n1, reducing θ2
// to an a·cosθ + b·sinθ = c equation, then recovering θ1 as a signed angle.
// At most two pairs exist.
func solveTwoAxes(pre Mat3, n1 Vec3, mid Mat3, n2 Vec3, post Mat3, v, t Vec3) [][2]float64 {
	u := post.MulVec(v)
	tp := pre.Transpose().MulVec(t)
	p := mid.Transpose().MulVec(n1)

	n2u := n2.unit()
	upar := n2u.scale(n2u.dot(u))
	uperp := u.sub(upar)
	a := p.dot(uperp)
	b := p.dot(n2u.cross(u))
	c := n1.dot(tp) - p.dot(upar)

	tol := residualTol * (1 + t.norm())
	var out [][2]float64
	for _, th2 := range cosSinSolutions(a, b, c) {
		w := mid.MulVec(rotationAbout(n2, th2).MulVec(u))
		th1 := signedAngle(w, tp, n1)
		got := pre.MulVec(rotationAbout(n1, th1).MulVec(w))
		if got.sub(t).norm() < tol {
			out = append(out, [2]float64{th1, th2})
		}
	}
	return out
}

// solveSingleAxis finds θ with Rot(n,θ)·w = t, or ok=false when no rotation
// about n can map w onto t.
func solveSingleAxis(n, w, t Vec3) (float64, bool) {
	tol := residualTol * (1 + t.norm())
	th := signedAngle(w, t, n)
	got := rotationAbout(n, th).MulVec(w)
	if got.sub(t).norm() >= tol {
		return 0, false
	}
	return th, true
}

// solveLifting finds the (θ, gamma, delta) triples satisfying
//
//	Pre·Rot(n,θ)·w = q(gamma, delta)
//
// for the gamma/delta detector composition, where w = Post·v is fixed. The
// rotation invariant n·w = (Pre·n)·q combines with the norm condition
// |w| = |q| into a line-circle intersection in (cosδ·sinγ, sinδ), giving at
// most four branches.
func solveLifting(pre Mat3, n Vec3, post Mat3, v Vec3, k float64) [][3]float64 {
	w := post.MulVec(v)
	nu := n.unit()
	m := pre.MulVec(nu)

	// cosδ·cosγ is pinned by the norm condition.
	c := 1 - w.dot(w)/(2*k*k)
	rr := 1 - c*c
	if rr < -1e-12 {
		return nil
	}
	rr = math.Max(rr, 0)

	// Line a·S + b·T = d in the (S,T) = (cosδ·sinγ, sinδ) plane.
	a, b := m[1], m[2]
	d := nu.dot(w)/k + m[0]*(1-c)
	ab2 := a*a + b*b
	if ab2 < 1e-14 {
		return nil
	}
	d2 := rr - d*d/ab2
	if d2 < -1e-10 {
		return nil
	}
	d2 = math.Max(d2, 0)
	half := math.Sqrt(d2)
	s0, t0 := a*d/ab2, b*d/ab2
	ux, uy := -b/math.Sqrt(ab2), a/math.Sqrt(ab2)

	tol := residualTol * (1 + 2*k)
	var out [][3]float64
	appendBranch := func(sv, tv float64) {
		for _, sign := range [2]float64{1, -1} {
			cd := sign * math.Sqrt(c*c+sv*sv)
			if cd == 0 {
				continue
			}
			delta := math.Atan2(tv, cd)
			gamma := math.Atan2(sv/cd, c/cd)
			q := gammaDeltaQ(k, gamma, delta)
			th, ok := solveSingleAxis(nu, w, pre.Transpose().MulVec(q))
			if !ok {
				continue
			}
			got := pre.MulVec(rotationAbout(nu, th).MulVec(w))
			if got.sub(q).norm() < tol {
				out = append(out, [3]float64{th, gamma, delta})
			}
		}
	}
	appendBranch(s0+half*ux, t0+half*uy)
	if half > 1e-12 {
		appendBranch(s0-half*ux, t0-half*uy)
	}
	return dedupTriples(out)
}

func dedupTriples(in [][3]float64) [][3]float64 {
	var out [][3]float64
	for _, cand := range in {
		dup := false
		for _, kept := range out {
			if math.Abs(cand[0]-kept[0]) < 1e-9 &&
				math.Abs(cand[1]-kept[1]) < 1e-9 &&
				math.Abs(cand[2]-kept[2]) < 1e-9 {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, cand)
		}
	}
	return out
}

// Four-circle (E4CV/E4CH) forward solvers. The sample axes are
// (omega, chi, phi) at indices 0..2 and the detector arm is index 3; the
// rotation directions come from the geometry descriptor so the same algebra
// serves the vertical and horizontal variants.

func solveFourCircleBissector(sc solveContext) [][]float64 {
	return fourCircle(sc, fcBissector)
}

func solveFourCircleConstantOmega(sc solveContext) [][]float64 {
	return fourCircle(sc, fcConstantOmega)
}

func solveFourCircleConstantChi(sc solveContext) [][]float64 {
	return fourCircle(sc, fcConstantChi)
}

func solveFourCircleConstantPhi(sc solveContext) [][]float64 {
	return fourCircle(sc, fcConstantPhi)
}

type fourCircleMode int

const (
	fcBissector fourCircleMode = iota
	fcConstantOmega
	fcConstantChi
	fcConstantPhi
)

func fourCircle(sc solveContext, mode fourCircleMode) [][]float64 {
	g := sc.g
	dOmega, dChi, dPhi := g.axes[0].dir, g.axes[1].dir, g.axes[2].dir
	dDet := g.axes[3].dir

	var out [][]float64
	for _, tth := range tthBranches(sc.k, sc.v.norm()) {
		q := armQ(sc.k, dDet, tth)
		switch mode {
		case fcBissector, fcConstantOmega:
			omega := tth / 2
			if mode == fcConstantOmega {
				omega = sc.cur[0]
			}
			pre := rotationAbout(dOmega, omega)
			for _, p := range solveTwoAxes(pre, dChi, identity, dPhi, identity, sc.v, q) {
				out = append(out, []float64{omega, p[0], p[1], tth})
			}
		case fcConstantChi:
			chi := sc.cur[1]
			mid := rotationAbout(dChi, chi)
			for _, p := range solveTwoAxes(identity, dOmega, mid, dPhi, identity, sc.v, q) {
				out = append(out, []float64{p[0], chi, p[1], tth})
			}
		case fcConstantPhi:
			phi := sc.cur[2]
			post := rotationAbout(dPhi, phi)
			for _, p := range solveTwoAxes(identity, dOmega, identity, dChi, post, sc.v, q) {
				out = append(out, []float64{p[0], p[1], phi, tth})
			}
		}
	}
	return out
}

// Six-circle (E6C) forward solvers. Axis order: mu, omega, chi, phi, gamma,
// delta. Vertical modes hold mu and gamma and recover delta from the norm
// condition |q(gamma,delta)| = |v|; lifting modes free one sample axis plus
// the full gamma/delta detector arm.

func solveSixCircleBissectorVertical(sc solveContext) [][]float64 {
	return sixCircleVertical(sc, scBissector)
}

func solveSixCircleConstantOmegaVertical(sc solveContext) [][]float64 {
	return sixCircleVertical(sc, scConstantOmega)
}

func solveSixCircleConstantChiVertical(sc solveContext) [][]float64 {
	return sixCircleVertical(sc, scConstantChi)
}

func solveSixCircleConstantPhiVertical(sc solveContext) [][]float64 {
	return sixCircleVertical(sc, scConstantPhi)
}

type sixCircleMode int

const (
	scBissector sixCircleMode = iota
	scConstantOmega
	scConstantChi
	scConstantPhi
)

func sixCircleVertical(sc solveContext, mode sixCircleMode) [][]float64 {
	g := sc.g
	dMu, dOmega, dChi, dPhi := g.axes[0].dir, g.axes[1].dir, g.axes[2].dir, g.axes[3].dir
	mu0, gamma0 := sc.cur[0], sc.cur[4]

	cosGamma := math.Cos(gamma0)
	if math.Abs(cosGamma) < 1e-12 {
		return nil
	}
	c := 1 - sc.v.dot(sc.v)/(2*sc.k*sc.k)
	cosDelta := c / cosGamma
	if math.Abs(cosDelta) > 1 {
		return nil
	}
	deltaMag := math.Acos(cosDelta)
	deltas := []float64{deltaMag, -deltaMag}
	if deltaMag == 0 {
		deltas = deltas[:1]
	}

	preMu := rotationAbout(dMu, mu0)
	var out [][]float64
	for _, delta := range deltas {
		q := gammaDeltaQ(sc.k, gamma0, delta)
		switch mode {
		case scBissector, scConstantOmega:
			omega := delta / 2
			if mode == scConstantOmega {
				omega = sc.cur[1]
			}
			pre := preMu.Mul(rotationAbout(dOmega, omega))
			for _, p := range solveTwoAxes(pre, dChi, identity, dPhi, identity, sc.v, q) {
				out = append(out, []float64{mu0, omega, p[0], p[1], gamma0, delta})
			}
		case scConstantChi:
			mid := rotationAbout(dChi, sc.cur[2])
			for _, p := range solveTwoAxes(preMu, dOmega, mid, dPhi, identity, sc.v, q) {
				out = append(out, []float64{mu0, p[0], sc.cur[2], p[1], gamma0, delta})
			}
		case scConstantPhi:
			post := rotationAbout(dPhi, sc.cur[3])
			for _, p := range solveTwoAxes(preMu, dOmega, identity, dChi, post, sc.v, q) {
				out = append(out, []float64{mu0, p[0], p[1], sc.cur[3], gamma0, delta})
			}
		}
	}
	return out
}

func solveSixCircleLiftingMu(sc solveContext) [][]float64 {
	g := sc.g
	post := rotationAbout(g.axes[1].dir, sc.cur[1]).
		Mul(rotationAbout(g.axes[2].dir, sc.cur[2])).
		Mul(rotationAbout(g.axes[3].dir, sc.cur[3]))
	var out [][]float64
	for _, sol := range solveLifting(identity, g.axes[0].dir, post, sc.v, sc.k) {
		out = append(out, []float64{sol[0], sc.cur[1], sc.cur[2], sc.cur[3], sol[1], sol[2]})
	}
	return out
}

func solveSixCircleLiftingOmega(sc solveContext) [][]float64 {
	g := sc.g
	pre := rotationAbout(g.axes[0].dir, sc.cur[0])
	post := rotationAbout(g.axes[2].dir, sc.cur[2]).
		Mul(rotationAbout(g.axes[3].dir, sc.cur[3]))
	var out [][]float64
	for _, sol := range solveLifting(pre, g.axes[1].dir, post, sc.v, sc.k) {
		out = append(out, []float64{sc.cur[0], sol[0], sc.cur[2], sc.cur[3], sol[1], sol[2]})
	}
	return out
}

func solveSixCircleLiftingPhi(sc solveContext) [][]float64 {
	g := sc.g
	pre := rotationAbout(g.axes[0].dir, sc.cur[0]).
		Mul(rotationAbout(g.axes[1].dir, sc.cur[1])).
		Mul(rotationAbout(g.axes[2].dir, sc.cur[2]))
	var out [][]float64
	for _, sol := range solveLifting(pre, g.axes[3].dir, identity, sc.v, sc.k) {
		out = append(out, []float64{sc.cur[0], sc.cur[1], sc.cur[2], sol[0], sol[1], sol[2]})
	}
	return out
}

// solveTwoCircleBissector handles the two-circle geometry: tth from the norm
// condition, omega rotating the target onto the arm. For each tth branch the
// matching omega is tth/2 up to a half turn, so the positive branch is the
// classic bissector setting. Targets outside the scattering plane are
// unreachable, which the single-axis residual check rejects.
func solveTwoCircleBissector(sc solveContext) [][]float64 {
	g := sc.g
	dOmega, dDet := g.axes[0].dir, g.axes[1].dir
	var out [][]float64
	for _, tth := range tthBranches(sc.k, sc.v.norm()) {
		q := armQ(sc.k, dDet, tth)
		if omega, ok := solveSingleAxis(dOmega, sc.v, q); ok {
			out = append(out, []float64{omega, tth})
		}
	}
	return out
}

// solveZAxis frees mu plus the gamma/delta arm with omega held, the
// surface-diffraction configuration. Axis order: mu, omega, delta, gamma.
func solveZAxis(sc solveContext) [][]float64 {
	g := sc.g
	post := rotationAbout(g.axes[1].dir, sc.cur[1])
	var out [][]float64
	for _, sol := range solveLifting(identity, g.axes[0].dir, post, sc.v, sc.k) {
		out = append(out, []float64{sol[0], sc.cur[1], sol[2], sol[1]})
	}
	return out
}
