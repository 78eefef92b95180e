package scene

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
)

const ellipsis = "…"

// Measurer reports the rendered width of s at the given font size.
type Measurer interface {
	Measure(s string, fontSize float64) float64
}

// CharWidth estimates width as a fixed fraction of the font size per rune.
type CharWidth float64

// DefaultCharWidth suits proportional sans-serif fonts.
const DefaultCharWidth CharWidth = 0.55

func (k CharWidth) Measure(s string, fontSize float64) float64 {
	return float64(len([]rune(s))) * float64(k) * fontSize
}

// Cells measures in terminal columns, ignoring the font size.
type Cells struct{}

func (Cells) Measure(s string, _ float64) float64 {
	return float64(runewidth.StringWidth(s))
}

// MeasurerKey identifies a truncation policy for cache keys. Measurers
// that are neither CharWidth nor Cells are identified by type only.
func MeasurerKey(m Measurer) string {
	switch m := m.(type) {
	case nil:
		return MeasurerKey(DefaultCharWidth)
	case CharWidth:
		return "charwidth:" + strconv.FormatFloat(float64(m), 'g', -1, 64)
	case Cells:
		return "cells"
	}
	return fmt.Sprintf("%T", m)
}

// Truncate shortens s with a trailing ellipsis until it fits width. It
// returns "" when not even the ellipsis fits.
func Truncate(m Measurer, s string, width, fontSize float64) string {
	if m == nil {
		m = DefaultCharWidth
	}
	if m.Measure(s, fontSize) <= width {
		return s
	}
	if m.Measure(ellipsis, fontSize) > width {
		return ""
	}
	runes := []rune(s)
	lo, hi := 0, len(runes)
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if m.Measure(string(runes[:mid])+ellipsis, fontSize) <= width {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return strings.TrimRight(string(runes[:lo]), " ") + ellipsis
}

// Formatter renders an amount for display.
type Formatter func(amount float64) string

var magnitudes = []struct {
	scale  float64
	suffix string
}{
	{1e12, "T"},
	{1e9, "B"},
	{1e6, "M"},
	{1e3, "K"},
}

// Compact formats amounts with a magnitude suffix, e.g. 1.2B or 830K.
func Compact(amount float64) string {
	abs := math.Abs(amount)
	for _, m := range magnitudes {
		if abs >= m.scale {
			return ftoa(amount/m.scale, 1) + m.suffix
		}
	}
	return ftoa(amount, 2)
}

// Currency formats amounts as compact dollars, e.g. $1.2B.
func Currency(amount float64) string {
	if amount < 0 {
		return "-$" + Compact(-amount)
	}
	return "$" + Compact(amount)
}

// Percent formats a share in [0,1] as a percentage.
func Percent(share float64) string {
	pct := share * 100
	switch {
	case pct > 0 && pct < 0.1:
		return "<0.1%"
	case pct >= 10:
		return ftoa(pct, 0) + "%"
	}
	return ftoa(pct, 1) + "%"
}

// ftoa rounds to digits decimals and drops trailing zeros.
func ftoa(v float64, digits int) string {
	p := math.Pow(10, float64(digits))
	return humanize.FtoaWithDigits(math.Round(v*p)/p, digits)
}
