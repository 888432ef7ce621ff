package util

import "strconv"

// NormalizePagination turns the raw page and page_size query values into
// positive integers. Missing, non-numeric or non-positive values fall back
// to defaultPage and defaultPageSize.
func NormalizePagination(page, pageSize string, defaultPage, defaultPageSize int) (int, int) {
	return positiveOr(page, defaultPage), positiveOr(pageSize, defaultPageSize)
}

// TotalPages returns how many pages of pageSize are needed for count rows
func TotalPages(count int64, pageSize int) int {
	if pageSize <= 0 || count <= 0 {
		return 0
	}
	return int((count + int64(pageSize) - 1) / int64(pageSize))
}

func positiveOr(raw string, fallback int) int {
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
