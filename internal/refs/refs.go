// Package refs extracts issue references ("#123") from free text.
package refs

import (
	"regexp"
	"strconv"
	"strings"
)

// refPattern matches "#123" and "##123". The optional second hash is part
// of the same match, so a doubled prefix yields the digit run once.
var refPattern = regexp.MustCompile(`##?(\d+)`)

// Extract returns the issue identifiers referenced in text, in order of
// first occurrence with duplicates removed. Zero and values that overflow
// int64 are not identifiers and are dropped. Empty text yields nil.
func Extract(text string) []int64 {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	matches := refPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[int64]bool, len(matches))
	var ids []int64
	for _, m := range matches {
		id, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil || id <= 0 {
			continue
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

// Merge concatenates several extraction results and deduplicates the
// combined sequence, keeping first-occurrence order.
func Merge(lists ...[]int64) []int64 {
	seen := make(map[int64]bool)
	var out []int64
	for _, l := range lists {
		for _, id := range l {
			if seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// Format renders ids back into reference text ("#1 #2"), such that
// Extract(Format(ids)) returns ids unchanged for any deduplicated input.
func Format(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = "#" + strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, " ")
}
