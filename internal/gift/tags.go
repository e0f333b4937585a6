package gift

import "strings"

// MaxSuggestions caps the tag suggestions returned to the client.
const MaxSuggestions = 10

// CleanSuggestions trims labels and drops blanks, case-insensitive
// duplicates and anything already in current or ignored.
func CleanSuggestions(raw, current, ignored []string) []string {
	seen := make(map[string]bool, len(current)+len(ignored)+len(raw))
	for _, l := range current {
		seen[key(l)] = true
	}
	for _, l := range ignored {
		seen[key(l)] = true
	}

	out := make([]string, 0, MaxSuggestions)
	for _, l := range raw {
		l = strings.TrimSpace(l)
		if l == "" || seen[key(l)] {
			continue
		}
		seen[key(l)] = true
		out = append(out, l)
		if len(out) == MaxSuggestions {
			break
		}
	}
	return out
}

func key(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}
