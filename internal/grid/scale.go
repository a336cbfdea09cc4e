// Package grid models the satisfaction/loyalty grid: scale parsing, special
// zone geometry, and quadrant assignment. Quadrant assignment is expressed as
// a strategy interface so analysis code stays decoupled from any particular
// assignment rule.
package grid

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/JaimeV365/segmentor-sub003/internal/model"
)

// Scale is one axis of the grid: inclusive integer bounds parsed from a
// string such as "0-10" or "1-5".
type Scale struct {
	Min int
	Max int
}

// ParseScale parses a scale string of the form "min-max".
func ParseScale(s string) (Scale, error) {
	parts := strings.SplitN(strings.TrimSpace(s), "-", 2)
	if len(parts) != 2 {
		return Scale{}, eris.Errorf("grid: invalid scale %q (want \"min-max\")", s)
	}

	minV, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return Scale{}, eris.Wrapf(err, "grid: invalid scale minimum in %q", s)
	}
	maxV, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return Scale{}, eris.Wrapf(err, "grid: invalid scale maximum in %q", s)
	}
	if minV < 0 {
		return Scale{}, eris.Errorf("grid: negative scale minimum in %q", s)
	}
	if minV >= maxV {
		return Scale{}, eris.Errorf("grid: scale %q has no extent", s)
	}

	return Scale{Min: minV, Max: maxV}, nil
}

// MustParseScale is ParseScale for known-good literals; it panics on error.
func MustParseScale(s string) Scale {
	sc, err := ParseScale(s)
	if err != nil {
		panic(err)
	}
	return sc
}

func (s Scale) String() string {
	return fmt.Sprintf("%d-%d", s.Min, s.Max)
}

// Steps returns the number of unit steps along the axis.
func (s Scale) Steps() int {
	return s.Max - s.Min
}

// Positions returns the number of integer positions on the axis.
func (s Scale) Positions() int {
	return s.Max - s.Min + 1
}

// Contains reports whether v lies within the axis bounds, inclusive.
func (s Scale) Contains(v float64) bool {
	return v >= float64(s.Min) && v <= float64(s.Max)
}

// Center returns the arithmetic midpoint of the axis.
func (s Scale) Center() float64 {
	return (float64(s.Min) + float64(s.Max)) / 2
}

// PositionsBelow counts the integer positions strictly below v.
func (s Scale) PositionsBelow(v float64) int {
	n := 0
	for p := s.Min; p <= s.Max; p++ {
		if float64(p) < v {
			n++
		}
	}
	return n
}

// PositionsAbove counts the integer positions strictly above v.
func (s Scale) PositionsAbove(v float64) int {
	n := 0
	for p := s.Min; p <= s.Max; p++ {
		if float64(p) > v {
			n++
		}
	}
	return n
}

// DefaultMidpoint returns the geometric center of both axes.
func DefaultMidpoint(sat, loy Scale) model.Midpoint {
	return model.Midpoint{Sat: sat.Center(), Loy: loy.Center()}
}

// ValidateMidpoint checks that the midpoint lies strictly inside both axes;
// a midpoint on a scale edge would collapse two quadrants to nothing.
func ValidateMidpoint(sat, loy Scale, mid model.Midpoint) error {
	var errs []string
	if mid.Sat <= float64(sat.Min) || mid.Sat >= float64(sat.Max) {
		errs = append(errs, fmt.Sprintf("satisfaction midpoint %.2f outside scale %s", mid.Sat, sat))
	}
	if mid.Loy <= float64(loy.Min) || mid.Loy >= float64(loy.Max) {
		errs = append(errs, fmt.Sprintf("loyalty midpoint %.2f outside scale %s", mid.Loy, loy))
	}
	if len(errs) > 0 {
		return eris.Errorf("grid: invalid midpoint: %s", strings.Join(errs, "; "))
	}
	return nil
}
