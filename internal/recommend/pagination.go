// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package recommend

// Paginate returns page (1-based) of items and its metadata. It never
// panics: page and pageSize are echoed verbatim, and pages that fall
// outside the list, including non-positive ones, come back empty.
func Paginate[T any](items []T, page, pageSize int) ([]T, Pagination) {
	total := len(items)
	p := Pagination{
		CurrentPage: page,
		PageSize:    pageSize,
		TotalItems:  total,
		HasPrevious: page > 1,
	}
	if pageSize <= 0 {
		return []T{}, p
	}

	p.TotalPages = total / pageSize
	if total%pageSize != 0 {
		p.TotalPages++
	}

	if page < 1 {
		p.HasNext = total > 0
		return []T{}, p
	}
	if page-1 >= p.TotalPages {
		return []T{}, p
	}

	// page-1 < TotalPages keeps start below total, so start+pageSize
	// cannot overflow.
	start := (page - 1) * pageSize
	end := start + pageSize
	p.HasNext = end < total
	if end > total {
		end = total
	}
	return items[start:end:end], p
}
