package convert

import (
	"math"
	"strconv"
	"strings"
)

// Missing is the placeholder www.nmc.cn uses for absent values, both as
// number and as string.
const Missing = 9999

func TwoDecimals(number float64) float64 {
	return RoundFloat64(number, 2)
}

func RoundFloat64(number float64, decimals int) float64 {
	return math.Round(number*math.Pow10(int(decimals))) / math.Pow10(int(decimals))
}

func IsMissing(v float64) bool {
	return v == Missing || math.IsNaN(v)
}

// ParseReading parses a numeric string, returning false for blanks,
// garbage and the missing placeholder.
func ParseReading(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || IsMissing(v) {
		return 0, false
	}
	return v, true
}

// PressureHPa normalizes an air pressure reading. Readings are usually
// hPa but some stations report Pa.
func PressureHPa(v float64) (float64, bool) {
	if IsMissing(v) || v <= 0 {
		return 0, false
	}
	if v > 2000 {
		v = v / 100
	}
	return TwoDecimals(v), true
}
