package utils

// DedupeBy keeps the first item seen for each key, preserving order, and
// returns how many later duplicates were dropped.
func DedupeBy[T any, K comparable](items []T, key func(T) K) ([]T, int) {
	seen := make(map[K]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		k := key(item)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, item)
	}
	return out, len(items) - len(out)
}
