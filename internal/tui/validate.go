package tui

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
)

// validateDraft reports every problem with the create form. An empty result
// means the draft looks submittable.
func validateDraft(d Draft, knownTypes []string) []string {
	var problems []string
	for _, f := range []struct{ name, value string }{
		{"name", d.Name},
		{"type", d.Type},
		{"image", d.Image},
	} {
		switch {
		case strings.TrimSpace(f.value) == "":
			problems = append(problems, fmt.Sprintf("Invalid %s: must not be empty", f.name))
		case !isASCII(f.value):
			problems = append(problems, fmt.Sprintf("Invalid %s: only ASCII characters are allowed", f.name))
		}
	}
	if t := strings.TrimSpace(d.Type); t != "" && isASCII(t) && len(knownTypes) > 0 {
		if s, exact := suggest(t, knownTypes); !exact && s != "" {
			problems = append(problems, fmt.Sprintf("Unknown type %q, did you mean %q?", t, s))
		}
	}
	return problems
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}

// suggest returns the closest known value within a small edit distance.
func suggest(v string, known []string) (string, bool) {
	v = strings.ToLower(v)
	best, bestDist := "", 3
	for _, k := range known {
		if strings.EqualFold(k, v) {
			return k, true
		}
		if d := levenshtein.ComputeDistance(v, strings.ToLower(k)); d < bestDist {
			best, bestDist = k, d
		}
	}
	return best, false
}
