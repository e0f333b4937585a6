package profile

import (
	"strings"

	"github.com/google/uuid"
)

// NewID returns an identifier for a locally created tag or interest.
func NewID() string {
	return uuid.NewString()
}

func sameLabel(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// HasInterest reports whether list already holds label, ignoring case.
func HasInterest(list []Interest, label string) bool {
	for _, in := range list {
		if sameLabel(in.Label, label) {
			return true
		}
	}
	return false
}

// HasTag reports whether list already holds label, ignoring case.
func HasTag(list []Tag, label string) bool {
	for _, t := range list {
		if sameLabel(t.Label, label) {
			return true
		}
	}
	return false
}

// AddInterest appends a new interest built from label. Blank labels and
// case-insensitive duplicates are rejected silently: list is returned as-is
// with ok=false.
func AddInterest(list []Interest, label string, level Level) (out []Interest, ok bool) {
	label = strings.TrimSpace(label)
	if label == "" || HasInterest(list, label) {
		return list, false
	}
	if level != LevelExpert {
		level = LevelCasual
	}
	out = make([]Interest, 0, len(list)+1)
	out = append(out, list...)
	out = append(out, Interest{ID: NewID(), Label: label, Level: level})
	return out, true
}

// ToggleLevel cycles the interest with the given id between casual and
// expert. Unknown ids leave the list untouched.
func ToggleLevel(list []Interest, id string) []Interest {
	out := make([]Interest, len(list))
	copy(out, list)
	for i := range out {
		if out[i].ID != id {
			continue
		}
		if out[i].Level == LevelExpert {
			out[i].Level = LevelCasual
		} else {
			out[i].Level = LevelExpert
		}
	}
	return out
}

// RemoveInterest drops the interest with the given id.
func RemoveInterest(list []Interest, id string) []Interest {
	out := make([]Interest, 0, len(list))
	for _, in := range list {
		if in.ID != id {
			out = append(out, in)
		}
	}
	return out
}

// AddTag appends a new tag built from label with the same duplicate rule as
// AddInterest.
func AddTag(list []Tag, label string) (out []Tag, ok bool) {
	label = strings.TrimSpace(label)
	if label == "" || HasTag(list, label) {
		return list, false
	}
	out = make([]Tag, 0, len(list)+1)
	out = append(out, list...)
	out = append(out, Tag{ID: NewID(), Label: label})
	return out, true
}

// RemoveTag drops the tag with the given id.
func RemoveTag(list []Tag, id string) []Tag {
	out := make([]Tag, 0, len(list))
	for _, t := range list {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}

// DismissGift records that a gift was rejected. When blacklistLabel is not
// blank and not already blacklisted it is appended to the blacklist.
func DismissGift(p Profile, blacklistLabel string) (Profile, bool) {
	bl, ok := AddTag(p.Blacklist, blacklistLabel)
	if !ok {
		return p, false
	}
	p.Blacklist = bl
	return p, true
}
