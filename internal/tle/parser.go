// Package tle decodes and re-encodes NORAD two-line element sets.
//
// The format is fixed-width: two 69-character lines, each ending in a
// mod-10 checksum where digits count their value and '-' counts one.
// Reference: CelesTrak "NORAD Two-Line Element Set Format".
package tle

import (
	"bufio"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

const lineLength = 69

// Parse decodes a two-line element set. The name is the optional title
// line (line zero) and may be empty. Returns *ParseError on any defect;
// a parsed TLE is always internally consistent and checksum-valid.
func Parse(line1, line2, name string) (*TLE, error) {
	line1 = strings.TrimRight(line1, "\r\n ")
	line2 = strings.TrimRight(line2, "\r\n ")

	if len(line1) != lineLength {
		return nil, parseErrorf(1, "line", "length %d, want %d", len(line1), lineLength)
	}
	if len(line2) != lineLength {
		return nil, parseErrorf(2, "line", "length %d, want %d", len(line2), lineLength)
	}
	if line1[0] != '1' {
		return nil, parseErrorf(1, "line number", "starts with %q, want '1'", line1[0])
	}
	if line2[0] != '2' {
		return nil, parseErrorf(2, "line number", "starts with %q, want '2'", line2[0])
	}

	if got, want := int(line1[68]-'0'), Checksum(line1); got != want {
		return nil, parseErrorf(1, "checksum", "got %d, computed %d", got, want)
	}
	if got, want := int(line2[68]-'0'), Checksum(line2); got != want {
		return nil, parseErrorf(2, "checksum", "got %d, computed %d", got, want)
	}

	t := &TLE{Name: strings.TrimSpace(name)}

	var err error
	if t.CatalogNumber, err = parseInt(line1[2:7]); err != nil {
		return nil, parseErrorf(1, "catalog number", "%q: %v", line1[2:7], err)
	}
	cat2, err := parseInt(line2[2:7])
	if err != nil {
		return nil, parseErrorf(2, "catalog number", "%q: %v", line2[2:7], err)
	}
	if cat2 != t.CatalogNumber {
		return nil, parseErrorf(0, "catalog number", "line 1 has %d, line 2 has %d", t.CatalogNumber, cat2)
	}

	t.Classification = line1[7]
	t.IntlDesignator = strings.TrimSpace(line1[9:17])

	if err := parseEpoch(t, line1[18:32]); err != nil {
		return nil, err
	}

	if t.MeanMotionDot, err = parseFloat(line1[33:43]); err != nil {
		return nil, parseErrorf(1, "mean motion derivative", "%q: %v", line1[33:43], err)
	}
	if t.MeanMotionDDot, err = parseImplicit(line1[44:52]); err != nil {
		return nil, parseErrorf(1, "mean motion second derivative", "%q: %v", line1[44:52], err)
	}
	if t.BStar, err = parseImplicit(line1[53:61]); err != nil {
		return nil, parseErrorf(1, "bstar", "%q: %v", line1[53:61], err)
	}
	if t.ElementSet, err = parseInt(line1[64:68]); err != nil {
		return nil, parseErrorf(1, "element set number", "%q: %v", line1[64:68], err)
	}

	if t.Inclination, err = parseFloat(line2[8:16]); err != nil {
		return nil, parseErrorf(2, "inclination", "%q: %v", line2[8:16], err)
	}
	if t.RAAN, err = parseFloat(line2[17:25]); err != nil {
		return nil, parseErrorf(2, "raan", "%q: %v", line2[17:25], err)
	}
	eccRaw, err := parseInt(line2[26:33])
	if err != nil {
		return nil, parseErrorf(2, "eccentricity", "%q: %v", line2[26:33], err)
	}
	t.Eccentricity = float64(eccRaw) * 1e-7
	if t.ArgPerigee, err = parseFloat(line2[34:42]); err != nil {
		return nil, parseErrorf(2, "argument of perigee", "%q: %v", line2[34:42], err)
	}
	if t.MeanAnomaly, err = parseFloat(line2[43:51]); err != nil {
		return nil, parseErrorf(2, "mean anomaly", "%q: %v", line2[43:51], err)
	}
	if t.MeanMotion, err = parseFloat(line2[52:63]); err != nil {
		return nil, parseErrorf(2, "mean motion", "%q: %v", line2[52:63], err)
	}
	if t.Revolution, err = parseInt(line2[63:68]); err != nil {
		return nil, parseErrorf(2, "revolution number", "%q: %v", line2[63:68], err)
	}

	if err := validate(t); err != nil {
		return nil, err
	}
	return t, nil
}

// validate rejects element sets whose orbital values are outside physical
// bounds, before any propagation math can see them.
func validate(t *TLE) error {
	if t.Eccentricity < 0 || t.Eccentricity >= 1 {
		return parseErrorf(2, "eccentricity", "%.7f outside [0, 1)", t.Eccentricity)
	}
	if t.Inclination < 0 || t.Inclination > 180 {
		return parseErrorf(2, "inclination", "%.4f outside [0, 180]", t.Inclination)
	}
	if t.MeanMotion <= 0 {
		return parseErrorf(2, "mean motion", "%.8f not positive", t.MeanMotion)
	}
	return nil
}

// Checksum computes the mod-10 checksum of a TLE line: digits count their
// value, '-' counts one, everything else counts zero. The final column is
// excluded.
func Checksum(line string) int {
	sum := 0
	end := len(line)
	if end > lineLength-1 {
		end = lineLength - 1
	}
	for i := 0; i < end; i++ {
		c := line[i]
		switch {
		case c >= '0' && c <= '9':
			sum += int(c - '0')
		case c == '-':
			sum++
		}
	}
	return sum % 10
}

// parseEpoch decodes the YYDDD.DDDDDDDD epoch field. Two-digit years 57-99
// map to the 1900s, 00-56 to the 2000s.
func parseEpoch(t *TLE, s string) error {
	yy, err := parseInt(s[:2])
	if err != nil {
		return parseErrorf(1, "epoch year", "%q: %v", s[:2], err)
	}
	day, err := parseFloat(s[2:])
	if err != nil {
		return parseErrorf(1, "epoch day", "%q: %v", s[2:], err)
	}
	if day < 1 || day >= 367 {
		return parseErrorf(1, "epoch day", "%.8f outside [1, 367)", day)
	}

	year := yy + 2000
	if yy >= 57 {
		year = yy + 1900
	}

	t.EpochYear = year
	t.EpochDay = day
	start := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	t.Epoch = start.Add(time.Duration((day - 1) * float64(24*time.Hour)))
	return nil
}

// parseImplicit decodes the assumed-decimal-point exponent notation used
// for bstar and the second derivative, e.g. " 30099-3" = 0.30099e-3.
func parseImplicit(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, strconv.ErrSyntax
	}
	sign := 1.0
	switch s[0] {
	case '-':
		sign = -1
		s = s[1:]
	case '+':
		s = s[1:]
	}
	i := strings.LastIndexAny(s, "+-")
	if i <= 0 {
		return 0, strconv.ErrSyntax
	}
	mant, err := strconv.ParseFloat("0."+strings.TrimSpace(s[:i]), 64)
	if err != nil {
		return 0, err
	}
	exp, err := strconv.Atoi(s[i:])
	if err != nil {
		return 0, err
	}
	return sign * mant * math.Pow(10, float64(exp)), nil
}

func parseInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// ReadSet reads the first name/line1/line2 triplet from r. The name line
// is optional. Used by the disk cache loader and the diag tool.
func ReadSet(r io.Reader) (*TLE, error) {
	scanner := bufio.NewScanner(r)
	var lines []string
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	for i := 0; i+1 < len(lines); i++ {
		if !strings.HasPrefix(lines[i], "1 ") || !strings.HasPrefix(lines[i+1], "2 ") {
			continue
		}
		name := ""
		if i > 0 {
			name = lines[i-1]
		}
		return Parse(lines[i], lines[i+1], name)
	}
	return nil, parseErrorf(0, "input", "no element set found")
}
