package store

import "github.com/abhi9818/libris/internal/entities"

// CompareIDs orders timestamp-derived decimal ids numerically: negative when
// a < b. Longer decimal strings are larger; equal lengths compare bytewise.
func CompareIDs(a, b string) int {
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// SortNewestFirst sorts books by descending id in place. Insertion sort keeps
// the common already-sorted case cheap; libraries are small.
func SortNewestFirst(books []entities.Book) {
	for i := 1; i < len(books); i++ {
		for j := i; j > 0 && CompareIDs(books[j-1].ID, books[j].ID) < 0; j-- {
			books[j-1], books[j] = books[j], books[j-1]
		}
	}
}
