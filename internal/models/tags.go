package models

import "strings"

// ParseTags splits a comma-separated tag string into a normalized list:
// entries are trimmed, empty entries dropped, and duplicates collapse to the
// first occurrence so display order is insertion order.
func ParseTags(csv string) []string {
	if csv == "" {
		return nil
	}

	seen := make(map[string]bool)
	var tags []string
	for _, raw := range strings.Split(csv, ",") {
		tag := strings.TrimSpace(raw)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}

// JoinTags serializes a tag list back to the comma-joined storage form.
func JoinTags(tags []string) string {
	return strings.Join(tags, ", ")
}

// NormalizeTags parses and re-serializes a raw tag string.
func NormalizeTags(csv string) string {
	return JoinTags(ParseTags(csv))
}
