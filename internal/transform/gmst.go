package transform

import (
	"math"
	"time"
)

// j2000 is the Julian Date of the J2000.0 reference epoch
// (2000 January 1, 12:00 TT).
const j2000 = 2451545.0

// OmegaEarth is the Earth rotation rate in rad/s (IAU value).
const OmegaEarth = 7.292115146706979e-5

// JulianDate converts a UTC instant to a Julian Date. The Meeus
// formulation used here holds for any Gregorian date this service will
// ever see.
func JulianDate(t time.Time) float64 {
	y := float64(t.Year())
	m := float64(t.Month())
	d := float64(t.Day())
	h := float64(t.Hour())
	min := float64(t.Minute())
	s := float64(t.Second()) + float64(t.Nanosecond())/1e9

	// January and February count as months 13 and 14 of the prior year.
	if m <= 2 {
		y -= 1
		m += 12
	}

	A := math.Floor(y / 100)
	B := 2 - A + math.Floor(A/4)

	jd := math.Floor(365.25*(y+4716)) + math.Floor(30.6001*(m+1)) + d + B - 1524.5
	jd += (h + min/60.0 + s/3600.0) / 24.0

	return jd
}

// GMST returns Greenwich Mean Sidereal Time in radians at a UTC instant,
// computed with the IAU-82 polynomial (Vallado Eq. 3-47):
//
//	θ = 67310.54841 + (876600·3600 + 8640184.812866)·T + 0.093104·T² - 6.2e-6·T³
//
// where T is Julian centuries of UT1 since J2000.0 and θ is in seconds
// of time. UT1 is approximated by UTC; the sub-second difference is far
// below the accuracy of the element sets feeding this pipeline.
func GMST(t time.Time) float64 {
	t = t.UTC()
	jd := JulianDate(t)
	tUT1 := (jd - j2000) / 36525.0

	gmstSec := 67310.54841 +
		(3155760000.0+8640184.812866)*tUT1 +
		0.093104*tUT1*tUT1 -
		6.2e-6*tUT1*tUT1*tUT1

	// Wrap into one day of seconds, then to radians.
	gmstSec = math.Mod(gmstSec, 86400.0)
	if gmstSec < 0 {
		gmstSec += 86400.0
	}
	return gmstSec / 86400.0 * 2.0 * math.Pi
}
