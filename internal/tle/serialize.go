package tle

import (
	"fmt"
	"math"
	"strings"
)

// Lines re-encodes the decoded fields into checksum-valid 69-character
// lines. Parsing the output yields the same field values (within the
// format's printed precision).
func (t *TLE) Lines() (string, string) {
	class := t.Classification
	if class == 0 {
		class = 'U'
	}

	body1 := fmt.Sprintf("1 %05d%c %-8s %02d%012.8f %s %s %s 0 %4d",
		t.CatalogNumber,
		class,
		t.IntlDesignator,
		t.EpochYear%100,
		t.EpochDay,
		formatFraction(t.MeanMotionDot),
		formatImplicit(t.MeanMotionDDot),
		formatImplicit(t.BStar),
		t.ElementSet,
	)
	line1 := body1 + fmt.Sprintf("%d", Checksum(body1))

	body2 := fmt.Sprintf("2 %05d %8.4f %8.4f %07d %8.4f %8.4f %11.8f%5d",
		t.CatalogNumber,
		t.Inclination,
		t.RAAN,
		int(math.Round(t.Eccentricity*1e7)),
		t.ArgPerigee,
		t.MeanAnomaly,
		t.MeanMotion,
		t.Revolution,
	)
	line2 := body2 + fmt.Sprintf("%d", Checksum(body2))

	return line1, line2
}

// String renders the full three-line form (title line plus element lines).
func (t *TLE) String() string {
	l1, l2 := t.Lines()
	if t.Name == "" {
		return l1 + "\n" + l2 + "\n"
	}
	return t.Name + "\n" + l1 + "\n" + l2 + "\n"
}

// formatFraction renders a signed value |v| < 1 in the ±.NNNNNNNN form of
// the mean motion derivative field (10 columns, sign in the first).
func formatFraction(v float64) string {
	s := fmt.Sprintf("%.8f", math.Abs(v))
	s = strings.TrimPrefix(s, "0")
	if v < 0 {
		return "-" + s
	}
	return " " + s
}

// formatImplicit renders a value in the assumed-decimal-point exponent
// notation (8 columns), e.g. 3.0099e-4 -> " 30099-3".
func formatImplicit(v float64) string {
	if v == 0 {
		return " 00000+0"
	}
	sign := " "
	if v < 0 {
		sign = "-"
		v = -v
	}
	exp := 0
	for v >= 1 {
		v /= 10
		exp++
	}
	for v < 0.1 {
		v *= 10
		exp--
	}
	mant := int(math.Round(v * 1e5))
	if mant >= 100000 {
		mant /= 10
		exp++
	}
	expSign := "+"
	if exp < 0 {
		expSign = "-"
		exp = -exp
	}
	return fmt.Sprintf("%s%05d%s%d", sign, mant, expSign, exp)
}
