// Package hkl implements a diffractometer geometry engine: orientation
// matrix (UB) computation from reference reflections, and bidirectional
// transforms between reciprocal-space coordinates (h,k,l) and physical
// motor angles for multi-circle diffractometer geometries.
//
// The engine is a pure numeric library. It consumes plain motor positions
// in degrees, lattice parameters in Ångström/degrees and wavelengths in
// Ångström, and produces numeric results; hardware abstractions, I/O and
// presentation live with the caller.
//
// Laboratory frame convention: +x points along the incident beam, +z points
// up, +y completes a right-handed frame. The B matrix follows Busing & Levy
// with the 2π scale convention, so |UB·(h,k,l)| = 2π/d.
package hkl
