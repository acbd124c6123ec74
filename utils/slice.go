package utils

// Unique removes duplicate values from a slice, keeping first occurrences in order.
func Unique[T comparable](slice []T) []T {
	return UniqueBy(slice, func(v T) T { return v })
}

// UniqueBy removes entries whose key was already seen, keeping first occurrences in order.
func UniqueBy[T any, K comparable](slice []T, key func(T) K) []T {
	seen := make(map[K]struct{}, len(slice))
	list := make([]T, 0, len(slice))
	for _, entry := range slice {
		k := key(entry)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		list = append(list, entry)
	}
	return list
}
