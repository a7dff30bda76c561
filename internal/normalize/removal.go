package normalize

import "strings"

var deletionMarkers = map[string]struct{}{
	"[deleted]": {},
	"[removed]": {},
}

const platformRemoval = "removed by reddit"

// IsRemoved reports whether text is a tombstone left by a deleted or
// removed item. Comparison ignores case and surrounding whitespace.
func IsRemoved(text string) bool {
	s := strings.ToLower(strings.TrimSpace(text))
	if _, ok := deletionMarkers[s]; ok {
		return true
	}
	return strings.Contains(s, platformRemoval)
}
