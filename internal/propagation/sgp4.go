// Package propagation implements the SGP4 near-earth orbital model.
//
// The model follows Spacetrack Report #3 (Hoots & Roehrich, 1980): secular
// rates from the J2-J4 zonal harmonics, atmospheric drag through the B*
// term, long- and short-period periodic corrections, and a Newton-Raphson
// solution of Kepler's equation. Output states are in the TEME frame.
//
// Internally the model works in the report's canonical units: distances
// in Earth radii, angles in radians, time in minutes since the element
// set epoch. Deep-space orbits (period >= 225 minutes) need the SDP4
// extensions and are rejected at initialization.
package propagation

import (
	"math"
	"time"

	"github.com/kemski/iss-position-checker/internal/tle"
	"github.com/kemski/iss-position-checker/internal/transform"
)

// Gravitational and model constants (WGS-72 values, per Spacetrack Report #3).
const (
	xkmper = 6378.135      // Earth equatorial radius, km
	mu     = 398600.8      // gravitational parameter, km³/s²
	xj2    = 1.082616e-3   // second zonal harmonic
	xj3    = -2.53881e-6   // third zonal harmonic
	xj4    = -1.65597e-6   // fourth zonal harmonic
	ae     = 1.0           // distance unit, Earth radii
	ck2    = 0.5 * xj2 * ae * ae
	ck4    = -0.375 * xj4 * ae * ae * ae * ae

	twoPi      = 2 * math.Pi
	minPerDay  = 1440.0
	deg2rad    = math.Pi / 180.0
	keplerTol  = 1e-6
	keplerIter = 10
)

// xke is sqrt(GM) in Earth radii^1.5 per minute.
var xke = 60.0 / math.Sqrt(xkmper*xkmper*xkmper/mu)

// qoms2t and s are the density function constants: q0 = 120 km, s0 = 78 km.
var (
	qoms2t = math.Pow((120.0-78.0)/xkmper, 4)
	sParam = ae + 78.0/xkmper
)

// Model is an initialized SGP4 propagator for one element set.
// Immutable after construction; safe for concurrent use.
type Model struct {
	catnum int
	epoch  time.Time

	// Mean elements at epoch, radians and radians/minute.
	xmo, omegao, xnodeo, xincl float64
	eo, bstar                  float64

	// Recovered mean motion and semi-major axis.
	xnodp, aodp float64

	// Precomputed init constants.
	simple                       bool
	cosio, sinio, x3thm1, x1mth2 float64
	x7thm1, eta, delmo, sinmo    float64
	c1, c4, c5                   float64
	d2, d3, d4                   float64
	t2cof, t3cof, t4cof, t5cof   float64
	xmdot, omgdot, xnodot        float64
	omgcof, xmcof, xnodcf        float64
	xlcof, aycof                 float64
}

// NewModel initializes the SGP4 constants for the element set. Returns a
// *ModelError for orbits the near-earth model cannot represent.
func NewModel(t *tle.TLE) (*Model, error) {
	m := &Model{
		catnum: t.CatalogNumber,
		epoch:  t.Epoch,
		xmo:    t.MeanAnomaly * deg2rad,
		omegao: t.ArgPerigee * deg2rad,
		xnodeo: t.RAAN * deg2rad,
		xincl:  t.Inclination * deg2rad,
		eo:     t.Eccentricity,
		bstar:  t.BStar,
	}

	// Mean motion in radians per minute.
	xno := t.MeanMotion * twoPi / minPerDay

	// Recover original mean motion and semi-major axis from the input
	// elements (un-Kozai).
	a1 := math.Pow(xke/xno, 2.0/3.0)
	m.cosio = math.Cos(m.xincl)
	theta2 := m.cosio * m.cosio
	m.x3thm1 = 3.0*theta2 - 1.0
	eosq := m.eo * m.eo
	betao2 := 1.0 - eosq
	betao := math.Sqrt(betao2)
	del1 := 1.5 * ck2 * m.x3thm1 / (a1 * a1 * betao * betao2)
	ao := a1 * (1.0 - del1*(1.0/3.0+del1*(1.0+134.0/81.0*del1)))
	delo := 1.5 * ck2 * m.x3thm1 / (ao * ao * betao * betao2)
	m.xnodp = xno / (1.0 + delo)
	m.aodp = ao / (1.0 - delo)

	// Period >= 225 minutes is deep space; SDP4 territory.
	if twoPi/m.xnodp >= 225.0 {
		return nil, &ModelError{CatalogNumber: m.catnum, Reason: "deep-space orbit (period >= 225 min), not supported"}
	}

	perige := (m.aodp*(1.0-m.eo) - ae) * xkmper
	if perige < 0 {
		return nil, &ModelError{CatalogNumber: m.catnum, Reason: "perigee below the surface at epoch"}
	}

	// For perigee below 220 km the truncated simple model is used.
	m.simple = m.aodp*(1.0-m.eo) < 220.0/xkmper+ae

	// For perigee below 156 km the density function constants are adjusted.
	s4 := sParam
	qoms24 := qoms2t
	if perige < 156.0 {
		s4 = perige - 78.0
		if perige <= 98.0 {
			s4 = 20.0
		}
		qoms24 = math.Pow((120.0-s4)*ae/xkmper, 4)
		s4 = s4/xkmper + ae
	}

	pinvsq := 1.0 / (m.aodp * m.aodp * betao2 * betao2)
	tsi := 1.0 / (m.aodp - s4)
	m.eta = m.aodp * m.eo * tsi
	etasq := m.eta * m.eta
	eeta := m.eo * m.eta
	psisq := math.Abs(1.0 - etasq)
	coef := qoms24 * math.Pow(tsi, 4)
	coef1 := coef / math.Pow(psisq, 3.5)

	c2 := coef1 * m.xnodp * (m.aodp*(1.0+1.5*etasq+eeta*(4.0+etasq)) +
		0.75*ck2*tsi/psisq*m.x3thm1*(8.0+3.0*etasq*(8.0+etasq)))
	m.c1 = m.bstar * c2

	m.sinio = math.Sin(m.xincl)
	a3ovk2 := -xj3 / ck2 * ae * ae * ae
	c3 := 0.0
	if m.eo > 1e-4 {
		c3 = coef * tsi * a3ovk2 * m.xnodp * ae * m.sinio / m.eo
	}

	m.x1mth2 = 1.0 - theta2
	m.c4 = 2.0 * m.xnodp * coef1 * m.aodp * betao2 *
		(m.eta*(2.0+0.5*etasq) + m.eo*(0.5+2.0*etasq) -
			2.0*ck2*tsi/(m.aodp*psisq)*
				(-3.0*m.x3thm1*(1.0-2.0*eeta+etasq*(1.5-0.5*eeta))+
					0.75*m.x1mth2*(2.0*etasq-eeta*(1.0+etasq))*math.Cos(2.0*m.omegao)))
	m.c5 = 2.0 * coef1 * m.aodp * betao2 * (1.0 + 2.75*(etasq+eeta) + eeta*etasq)

	theta4 := theta2 * theta2
	temp1 := 3.0 * ck2 * pinvsq * m.xnodp
	temp2 := temp1 * ck2 * pinvsq
	temp3 := 1.25 * ck4 * pinvsq * pinvsq * m.xnodp
	m.xmdot = m.xnodp + 0.5*temp1*betao*m.x3thm1 +
		0.0625*temp2*betao*(13.0-78.0*theta2+137.0*theta4)
	x1m5th := 1.0 - 5.0*theta2
	m.omgdot = -0.5*temp1*x1m5th +
		0.0625*temp2*(7.0-114.0*theta2+395.0*theta4) +
		temp3*(3.0-36.0*theta2+49.0*theta4)
	xhdot1 := -temp1 * m.cosio
	m.xnodot = xhdot1 + (0.5*temp2*(4.0-19.0*theta2)+2.0*temp3*(3.0-7.0*theta2))*m.cosio

	m.omgcof = m.bstar * c3 * math.Cos(m.omegao)
	m.xmcof = 0.0
	if m.eo > 1e-4 {
		m.xmcof = -2.0 / 3.0 * coef * m.bstar * ae / eeta
	}
	m.xnodcf = 3.5 * betao2 * xhdot1 * m.c1
	m.t2cof = 1.5 * m.c1

	// Long-period periodic coefficients; the divisor 1+cosio is safe
	// because retrograde-polar (incl = 180°) never survives the deep-space
	// period check for LEO element sets.
	m.xlcof = 0.125 * a3ovk2 * m.sinio * (3.0 + 5.0*m.cosio) / (1.0 + m.cosio)
	m.aycof = 0.25 * a3ovk2 * m.sinio

	m.delmo = math.Pow(1.0+m.eta*math.Cos(m.xmo), 3)
	m.sinmo = math.Sin(m.xmo)
	m.x7thm1 = 7.0*theta2 - 1.0

	if !m.simple {
		c1sq := m.c1 * m.c1
		m.d2 = 4.0 * m.aodp * tsi * c1sq
		temp := m.d2 * tsi * m.c1 / 3.0
		m.d3 = (17.0*m.aodp + s4) * temp
		m.d4 = 0.5 * temp * m.aodp * tsi * (221.0*m.aodp + 31.0*s4) * m.c1
		m.t3cof = m.d2 + 2.0*c1sq
		m.t4cof = 0.25 * (3.0*m.d3 + m.c1*(12.0*m.d2+10.0*c1sq))
		m.t5cof = 0.2 * (3.0*m.d4 + 12.0*m.c1*m.d3 + 6.0*m.d2*m.d2 +
			15.0*c1sq*(2.0*m.d2+c1sq))
	}

	return m, nil
}

// CatalogNumber returns the NORAD catalog number of the element set.
func (m *Model) CatalogNumber() int {
	return m.catnum
}

// Epoch returns the element set epoch.
func (m *Model) Epoch() time.Time {
	return m.epoch
}

// StateAt propagates to the given instant and returns the TEME state.
func (m *Model) StateAt(t time.Time) (transform.PositionTEME, error) {
	tsince := t.Sub(m.epoch).Minutes()
	return m.StateAtMinutes(tsince)
}
