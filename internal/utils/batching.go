package utils

const (
	DYNAMO_BATCH_SIZE = 25
	SCORE_BATCH_SIZE  = 32
)

// Batches splits items into consecutive slices of at most size elements.
// The returned slices share the backing array of items.
func Batches[T any](items []T, size int) [][]T {
	if size <= 0 || len(items) == 0 {
		return nil
	}

	batches := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[start:end])
	}
	return batches
}
