package core

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ToNumber is the single coercion point for every numeric field read by the
// engine. It parses the longest decimal prefix of s (after leading
// whitespace) and returns 0 when there is none. Non-finite results are 0.
//
// Examples:
//
//	ToNumber("12.5")   -> 12.5
//	ToNumber(" 7km")   -> 7
//	ToNumber("abc")    -> 0
//	ToNumber("")       -> 0
func ToNumber(s string) float64 {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	end := numericPrefix(s)
	if end == 0 {
		return 0
	}
	f, err := strconv.ParseFloat(s[:end], 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// numericPrefix returns the length of the leading decimal literal in s:
// optional sign, digits with at most one dot, optional exponent.
func numericPrefix(s string) int {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	mantissa := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		mantissa++
	}
	if i < len(s) && s[i] == '.' {
		j := i + 1
		for j < len(s) && isDigit(s[j]) {
			j++
			mantissa++
		}
		if mantissa > 0 {
			i = j
		}
	}
	if mantissa == 0 {
		return 0
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		k := j
		for k < len(s) && isDigit(s[k]) {
			k++
		}
		if k > j {
			i = k
		}
	}
	return i
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
