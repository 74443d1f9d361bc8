// Package sliceutil provides generic slice manipulation utilities.
package sliceutil

// Deduplicate removes duplicate items from a slice while preserving order.
// The keyFunc extracts a unique key from each item for comparison.
// Only the first occurrence of each key is kept.
//
// Example:
//
//	courses := []gems.MergedCourse{{CourseID: "CS 50"}, {CourseID: "EC 10"}, {CourseID: "CS 50"}}
//	unique := sliceutil.Deduplicate(courses, func(c gems.MergedCourse) string { return c.CourseID })
//	// Result: [{CourseID: "CS 50"}, {CourseID: "EC 10"}]
func Deduplicate[T any, K comparable](items []T, keyFunc func(T) K) []T {
	if len(items) == 0 {
		return items
	}

	seen := make(map[K]bool, len(items))
	result := make([]T, 0, len(items))

	for _, item := range items {
		key := keyFunc(item)
		if !seen[key] {
			seen[key] = true
			result = append(result, item)
		}
	}

	return result
}

// DeduplicateBy collapses items sharing a key into one representative.
// The representative occupies the position of the first occurrence of its key.
// prefer(candidate, current) reports whether candidate should replace the
// representative chosen so far; ties keep the earlier item.
func DeduplicateBy[T any, K comparable](items []T, keyFunc func(T) K, prefer func(candidate, current T) bool) []T {
	if len(items) == 0 {
		return items
	}

	position := make(map[K]int, len(items))
	result := make([]T, 0, len(items))

	for _, item := range items {
		key := keyFunc(item)
		idx, ok := position[key]
		if !ok {
			position[key] = len(result)
			result = append(result, item)
			continue
		}
		if prefer != nil && prefer(item, result[idx]) {
			result[idx] = item
		}
	}

	return result
}

// Filter returns the items for which keep returns true, preserving order.
func Filter[T any](items []T, keep func(T) bool) []T {
	result := make([]T, 0, len(items))
	for _, item := range items {
		if keep(item) {
			result = append(result, item)
		}
	}
	return result
}
