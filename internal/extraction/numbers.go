package extraction

import (
	"strconv"
	"strings"
)

var units = map[string]int{
	"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4,
	"five": 5, "six": 6, "seven": 7, "eight": 8, "nine": 9,
	"ten": 10, "eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14,
	"fifteen": 15, "sixteen": 16, "seventeen": 17, "eighteen": 18, "nineteen": 19,
}

var tens = map[string]int{
	"twenty": 20, "thirty": 30, "forty": 40, "fifty": 50,
	"sixty": 60, "seventy": 70, "eighty": 80, "ninety": 90,
}

// NormalizeNumber turns a spoken number ("eighty", "eighty-five") into digits.
// Input that is already numeric is returned unchanged.
func NormalizeNumber(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if isDigits(s) {
		return s, true
	}

	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return r == ' ' || r == '-' || r == '\t'
	})
	if len(words) == 0 {
		return "", false
	}

	if t, ok := tens[words[0]]; ok {
		if len(words) > 1 {
			if u, ok := units[words[1]]; ok && u > 0 && u < 10 {
				return strconv.Itoa(t + u), true
			}
		}
		return strconv.Itoa(t), true
	}
	if u, ok := units[words[0]]; ok {
		return strconv.Itoa(u), true
	}
	if words[0] == "hundred" || (words[0] == "a" && len(words) > 1 && words[1] == "hundred") {
		return "100", true
	}
	return "", false
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
