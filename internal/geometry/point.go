// Package geometry provides the canonical 3D point model for tramo-go.
//
// Vertex identity across the whole system is textual: a point is rounded to
// three decimals per component and rendered as "(x.xxx, y.yyy, z.zzz)". Two
// points are the same vertex exactly when their canonical keys are equal.
// The numeric triple is kept alongside the key so hot paths never re-parse it.
package geometry

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// keyPattern is the exact shape of a canonical key: three signed decimals
// with exactly three fractional digits, separated by comma-space, in parens.
var keyPattern = regexp.MustCompile(`^\((-?\d+\.\d{3}), (-?\d+\.\d{3}), (-?\d+\.\d{3})\)$`)

// Point is a canonicalised 3D position. X, Y, Z hold the rounded numeric
// values; Key holds the textual identity derived from them.
type Point struct {
	X, Y, Z float64
	Key     string
}

// BadCoordinateError reports a coordinate that cannot be canonicalised:
// a non-finite component or a key string that does not match the canonical shape.
type BadCoordinateError struct {
	Input  string
	Reason string
}

func (e *BadCoordinateError) Error() string {
	return fmt.Sprintf("bad coordinate %s: %s", e.Input, e.Reason)
}

// New canonicalises the triple (x, y, z) into a Point.
//
// Each component is rounded to three decimals (ties to even, matching
// strconv's fixed-precision formatting) and the numeric values are re-derived
// from the formatted text so that Parse(p.Key) always reproduces p exactly.
func New(x, y, z float64) (Point, error) {
	for _, v := range [3]float64{x, y, z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Point{}, &BadCoordinateError{
				Input:  fmt.Sprintf("(%v, %v, %v)", x, y, z),
				Reason: "component is not finite",
			}
		}
	}

	sx := formatComponent(x)
	sy := formatComponent(y)
	sz := formatComponent(z)

	rx, _ := strconv.ParseFloat(sx, 64)
	ry, _ := strconv.ParseFloat(sy, 64)
	rz, _ := strconv.ParseFloat(sz, 64)

	return Point{
		X:   rx,
		Y:   ry,
		Z:   rz,
		Key: "(" + sx + ", " + sy + ", " + sz + ")",
	}, nil
}

// Parse converts a canonical key back into a Point. The key must match the
// canonical shape exactly; anything else is a BadCoordinateError.
func Parse(key string) (Point, error) {
	m := keyPattern.FindStringSubmatch(key)
	if m == nil {
		return Point{}, &BadCoordinateError{Input: key, Reason: "not a canonical point key"}
	}

	x, _ := strconv.ParseFloat(m[1], 64)
	y, _ := strconv.ParseFloat(m[2], 64)
	z, _ := strconv.ParseFloat(m[3], 64)

	return Point{X: x, Y: y, Z: z, Key: key}, nil
}

// IsCanonicalKey reports whether s has the exact canonical key shape.
func IsCanonicalKey(s string) bool {
	return keyPattern.MatchString(s)
}

// Distance returns the Euclidean distance between two points, computed from
// the canonical numeric values.
func Distance(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// PathLength sums the Euclidean distances of consecutive points.
func PathLength(points []Point) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += Distance(points[i-1], points[i])
	}
	return total
}

// formatComponent renders a component with exactly three fractional digits.
// strconv emits "-0.000" for tiny negatives; normalise that to "0.000" so the
// key is stable around zero.
func formatComponent(v float64) string {
	s := strconv.FormatFloat(v, 'f', 3, 64)
	if s == "-0.000" {
		return "0.000"
	}
	return s
}

// String implements fmt.Stringer using the canonical key.
func (p Point) String() string {
	return p.Key
}

// Triple returns the numeric components.
func (p Point) Triple() (x, y, z float64) {
	return p.X, p.Y, p.Z
}

// MustParse is a test helper that panics on a malformed key.
func MustParse(key string) Point {
	p, err := Parse(key)
	if err != nil {
		panic(err)
	}
	return p
}

// FormatKey renders the canonical key for a triple without constructing a
// Point. It is the formatting half of New and follows the same rounding.
func FormatKey(x, y, z float64) string {
	return "(" + formatComponent(x) + ", " + formatComponent(y) + ", " + formatComponent(z) + ")"
}

// ParseTriple parses three decimal tokens, one per component, into a Point.
func ParseTriple(tokens []string) (Point, error) {
	if len(tokens) != 3 {
		return Point{}, &BadCoordinateError{
			Input:  strings.Join(tokens, " "),
			Reason: fmt.Sprintf("expected 3 components, got %d", len(tokens)),
		}
	}

	var vals [3]float64
	for i, tok := range tokens {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return Point{}, &BadCoordinateError{Input: tok, Reason: "not a decimal number"}
		}
		vals[i] = v
	}

	return New(vals[0], vals[1], vals[2])
}
