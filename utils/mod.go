package utils

import "golang.org/x/exp/constraints"

func FindIndex[T comparable](slice []T, item T) int {
	for i, v := range slice {
		if v == item {
			return i
		}
	}
	return -1
}

// Remove deletes the first occurrence of item and reports whether it was present.
func Remove[T comparable](slice []T, item T) ([]T, bool) {
	i := FindIndex(slice, item)
	if i < 0 {
		return slice, false
	}
	return append(slice[:i], slice[i+1:]...), true
}

func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
