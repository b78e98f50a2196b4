package utils

import (
	"math"
	"strings"
)

// ToPointer returns a pointer to v.
func ToPointer[T any](v T) *T {
	return &v
}

// ChunkSlice splits items into consecutive groups of at most size elements.
// A size below 1 is treated as 1.
func ChunkSlice[T any](items []T, size int) [][]T {
	if size < 1 {
		size = 1
	}
	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for i := 0; i < len(items); i += size {
		end := i + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[i:end])
	}
	return chunks
}

// NormalizeHandle trims whitespace and a leading "@" and lowercases the rest.
func NormalizeHandle(handle string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(handle), "@"))
}

// RoundTo rounds v to the given number of decimals, half away from zero.
func RoundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
