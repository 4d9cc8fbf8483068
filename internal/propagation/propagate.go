package propagation

import (
	"math"
	"time"

	"github.com/kemski/iss-position-checker/internal/transform"
)

// StateAtMinutes propagates to tsince minutes after the element set epoch
// (negative values look back before the epoch) and returns position and
// velocity in the TEME frame, km and km/s.
func (m *Model) StateAtMinutes(tsince float64) (transform.PositionTEME, error) {
	var zero transform.PositionTEME

	// Secular gravity and atmospheric drag.
	xmdf := m.xmo + m.xmdot*tsince
	omgadf := m.omegao + m.omgdot*tsince
	xnoddf := m.xnodeo + m.xnodot*tsince
	omega := omgadf
	xmp := xmdf
	tsq := tsince * tsince
	xnode := xnoddf + m.xnodcf*tsq
	tempa := 1.0 - m.c1*tsince
	tempe := m.bstar * m.c4 * tsince
	templ := m.t2cof * tsq

	if !m.simple {
		delomg := m.omgcof * tsince
		delm := m.xmcof * (math.Pow(1.0+m.eta*math.Cos(xmdf), 3) - m.delmo)
		temp := delomg + delm
		xmp = xmdf + temp
		omega = omgadf - temp
		tcube := tsq * tsince
		tfour := tsince * tcube
		tempa = tempa - m.d2*tsq - m.d3*tcube - m.d4*tfour
		tempe = tempe + m.bstar*m.c5*(math.Sin(xmp)-m.sinmo)
		templ = templ + m.t3cof*tcube + m.t4cof*tfour + tfour*tsince*m.t5cof
	}

	a := m.aodp * tempa * tempa
	e := m.eo - tempe
	if e >= 1.0 || e < -0.001 {
		return zero, &ModelError{CatalogNumber: m.catnum, Reason: "drag drove eccentricity out of [0, 1)"}
	}
	// Very small eccentricities are clamped to keep the long-period terms finite.
	if e < 1e-6 {
		e = 1e-6
	}
	xl := xmp + omega + xnode + m.xnodp*templ
	xn := xke / math.Pow(a, 1.5)

	// Long-period periodics.
	axn := e * math.Cos(omega)
	temp := 1.0 / (a * (1.0 - e*e))
	xll := temp * m.xlcof * axn
	aynl := temp * m.aycof
	xlt := xl + xll
	ayn := e*math.Sin(omega) + aynl

	// Solve Kepler's equation by Newton-Raphson iteration.
	capu := fmod2p(xlt - xnode)
	epw := capu
	var sinepw, cosepw, temp3, temp4, temp5, temp6 float64
	for i := 0; i < keplerIter; i++ {
		sinepw = math.Sin(epw)
		cosepw = math.Cos(epw)
		temp3 = axn * sinepw
		temp4 = ayn * cosepw
		temp5 = axn * cosepw
		temp6 = ayn * sinepw
		next := (capu-temp4+temp3-epw)/(1.0-temp5-temp6) + epw
		if math.Abs(next-epw) <= keplerTol {
			epw = next
			sinepw = math.Sin(epw)
			cosepw = math.Cos(epw)
			temp3 = axn * sinepw
			temp4 = ayn * cosepw
			temp5 = axn * cosepw
			temp6 = ayn * sinepw
			break
		}
		epw = next
	}

	// Short-period preliminary quantities.
	ecose := temp5 + temp6
	esine := temp3 - temp4
	elsq := axn*axn + ayn*ayn
	if elsq >= 1.0 {
		return zero, &ModelError{CatalogNumber: m.catnum, Reason: "periodic terms drove eccentricity to parabolic"}
	}
	temp = 1.0 - elsq
	pl := a * temp
	r := a * (1.0 - ecose)
	temp1 := 1.0 / r
	rdot := xke * math.Sqrt(a) * esine * temp1
	rfdot := xke * math.Sqrt(pl) * temp1
	temp2 := a * temp1
	betal := math.Sqrt(temp)
	temp3 = 1.0 / (1.0 + betal)
	cosu := temp2 * (cosepw - axn + ayn*esine*temp3)
	sinu := temp2 * (sinepw - ayn - axn*esine*temp3)
	u := math.Atan2(sinu, cosu)
	sin2u := 2.0 * sinu * cosu
	cos2u := 2.0*cosu*cosu - 1.0
	temp = 1.0 / pl
	temp1 = ck2 * temp
	temp2 = temp1 * temp

	// Short-period periodics.
	rk := r*(1.0-1.5*temp2*betal*m.x3thm1) + 0.5*temp1*m.x1mth2*cos2u
	uk := u - 0.25*temp2*m.x7thm1*sin2u
	xnodek := xnode + 1.5*temp2*m.cosio*sin2u
	xinck := m.xincl + 1.5*temp2*m.cosio*m.sinio*cos2u
	rdotk := rdot - xn*temp1*m.x1mth2*sin2u
	rfdotk := rfdot + xn*temp1*(m.x1mth2*cos2u+1.5*m.x3thm1)

	if rk < 1.0 {
		at := m.epoch.Add(time.Duration(tsince * float64(time.Minute)))
		return zero, &DecayedError{CatalogNumber: m.catnum, At: at}
	}

	// Orientation vectors.
	sinuk := math.Sin(uk)
	cosuk := math.Cos(uk)
	sinik := math.Sin(xinck)
	cosik := math.Cos(xinck)
	sinnok := math.Sin(xnodek)
	cosnok := math.Cos(xnodek)
	xmx := -sinnok * cosik
	xmy := cosnok * cosik
	ux := xmx*sinuk + cosnok*cosuk
	uy := xmy*sinuk + sinnok*cosuk
	uz := sinik * sinuk
	vx := xmx*cosuk - cosnok*sinuk
	vy := xmy*cosuk - sinnok*sinuk
	vz := sinik * cosuk

	// Position in km, velocity in km/s.
	return transform.PositionTEME{
		X:  rk * ux * xkmper,
		Y:  rk * uy * xkmper,
		Z:  rk * uz * xkmper,
		VX: (rdotk*ux + rfdotk*vx) * xkmper / 60.0,
		VY: (rdotk*uy + rfdotk*vy) * xkmper / 60.0,
		VZ: (rdotk*uz + rfdotk*vz) * xkmper / 60.0,
	}, nil
}

// fmod2p reduces an angle to [0, 2π).
func fmod2p(x float64) float64 {
	x = math.Mod(x, twoPi)
	if x < 0 {
		x += twoPi
	}
	return x
}
