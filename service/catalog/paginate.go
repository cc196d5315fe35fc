package catalog

import "storefront.GO/model/domain"

// DefaultPageSize applies when a caller passes a non-positive page size.
const DefaultPageSize = 20

func normalizePageSize(pageSize, fallback int) int {
	if pageSize > 0 {
		return pageSize
	}
	if fallback > 0 {
		return fallback
	}
	return DefaultPageSize
}

// TotalPages is ceil(count/pageSize), never less than 1.
func TotalPages(count, pageSize int) int {
	pageSize = normalizePageSize(pageSize, DefaultPageSize)
	pages := (count + pageSize - 1) / pageSize
	if pages < 1 {
		return 1
	}
	return pages
}

// ClampPage moves page into [1, totalPages].
func ClampPage(page, totalPages int) int {
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

// Paginate slices one 1-based page out of items. Out-of-range pages are clamped and the
// returned Page reports the page actually served.
func Paginate(items []domain.Product, page, pageSize int) domain.Page {
	pageSize = normalizePageSize(pageSize, DefaultPageSize)
	total := len(items)
	totalPages := TotalPages(total, pageSize)
	page = ClampPage(page, totalPages)

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	return domain.Page{
		Items:      append([]domain.Product{}, items[start:end]...),
		TotalCount: total,
		TotalPages: totalPages,
		Page:       page,
		PageSize:   pageSize,
	}
}
