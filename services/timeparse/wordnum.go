package timeparse

import (
	"regexp"
	"strings"
)

var ones = map[string]int{
	"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14, "fifteen": 15,
	"sixteen": 16, "seventeen": 17, "eighteen": 18, "nineteen": 19,
}

var tens = map[string]int{
	"twenty": 20, "thirty": 30, "forty": 40, "fifty": 50,
	"sixty": 60, "seventy": 70, "eighty": 80, "ninety": 90,
}

var hundredRe = regexp.MustCompile(`^(\w+)\s+hundred(?:\s+and)?\s+(.+)$`)

// ParseWordNumber converts a spelled-out number ("sixty five", "twenty-one",
// "two hundred and ten") to its integer value.
func ParseWordNumber(text string) (int, bool) {
	t := strings.TrimSpace(strings.ToLower(text))

	if v, ok := ones[t]; ok {
		return v, true
	}
	if v, ok := tens[t]; ok {
		return v, true
	}
	switch t {
	case "hundred", "one hundred":
		return 100, true
	case "two hundred":
		return 200, true
	case "three hundred":
		return 300, true
	}

	for tenWord, tenVal := range tens {
		for oneWord, oneVal := range ones {
			if oneVal == 0 {
				continue
			}
			if t == tenWord+" "+oneWord || t == tenWord+"-"+oneWord || t == tenWord+" and "+oneWord {
				return tenVal + oneVal, true
			}
		}
	}

	if m := hundredRe.FindStringSubmatch(t); m != nil {
		if h, ok := ones[m[1]]; ok {
			if rest, restOK := ParseWordNumber(m[2]); restOK {
				return h*100 + rest, true
			}
			return h * 100, true
		}
	}

	return 0, false
}
