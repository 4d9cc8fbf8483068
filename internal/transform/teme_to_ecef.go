// Package transform provides the coordinate frame chain between the
// propagator and the observer: TEME (True Equator Mean Equinox, the frame
// SGP4 emits) to ECEF (Earth-Centered Earth-Fixed), and ECEF to
// topocentric look angles. All distances are kilometers. All functions
// are pure.
//
// Method: simplified Vallado-style rotation using GMST only (TEME → PEF
// ≈ ECEF). Polar motion and the equation of the equinoxes are ignored,
// which introduces at most tens of meters of error — irrelevant against
// the kilometer-level accuracy of the element sets themselves.
//
// Reference: Vallado, "Fundamentals of Astrodynamics and Applications", Ch. 3.
package transform

import (
	"math"
	"time"
)

// PositionTEME is a satellite state in the TEME frame (km, km/s).
type PositionTEME struct {
	X, Y, Z    float64
	VX, VY, VZ float64
}

// PositionECEF is a satellite state in the ECEF frame (km, km/s).
type PositionECEF struct {
	X, Y, Z    float64
	VX, VY, VZ float64
}

// TEMEToECEF transforms a TEME state to ECEF at the given UTC time.
func TEMEToECEF(teme PositionTEME, t time.Time) PositionECEF {
	return TEMEToECEFWithGMST(teme, GMST(t))
}

// TEMEToECEFWithGMST transforms TEME to ECEF using a precomputed GMST
// angle (radians).
//
// Position: r_ECEF = R3(θ) * r_TEME
// Velocity: v_ECEF = R3(θ) * v_TEME - ω × r_ECEF
//
// where R3(θ) is a rotation about the Z-axis by GMST and ω = [0, 0, ω_earth].
func TEMEToECEFWithGMST(teme PositionTEME, gmst float64) PositionECEF {
	cosG := math.Cos(gmst)
	sinG := math.Sin(gmst)

	x := teme.X*cosG + teme.Y*sinG
	y := -teme.X*sinG + teme.Y*cosG
	z := teme.Z

	// ω × r_ECEF = [-ω*y, ω*x, 0]
	vx := teme.VX*cosG + teme.VY*sinG + OmegaEarth*y
	vy := -teme.VX*sinG + teme.VY*cosG - OmegaEarth*x
	vz := teme.VZ

	return PositionECEF{X: x, Y: y, Z: z, VX: vx, VY: vy, VZ: vz}
}

// ValidateECEF checks that an ECEF position is physically reasonable for
// an Earth-orbiting satellite: finite, and between low LEO and beyond GEO.
func ValidateECEF(pos PositionECEF) bool {
	if math.IsNaN(pos.X) || math.IsNaN(pos.Y) || math.IsNaN(pos.Z) {
		return false
	}
	if math.IsInf(pos.X, 0) || math.IsInf(pos.Y, 0) || math.IsInf(pos.Z, 0) {
		return false
	}

	mag := math.Sqrt(pos.X*pos.X + pos.Y*pos.Y + pos.Z*pos.Z)

	// Earth radius is ~6371 km, LEO starts ~6571 km, GEO is ~42164 km.
	const minRadius = 6200.0
	const maxRadius = 50000.0

	return mag >= minRadius && mag <= maxRadius
}
