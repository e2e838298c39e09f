package types

import (
	"math"
	"strconv"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// PageRequest is a validated page/limit pair. Both values are always >= 1.
type PageRequest struct {
	Page  int
	Limit int
}

// ParsePageRequest parses raw query values. Missing, non-numeric and
// non-positive values fall back to DefaultPage and DefaultLimit.
func ParsePageRequest(page, limit string) PageRequest {
	return PageRequest{
		Page:  parsePositive(page, DefaultPage),
		Limit: parsePositive(limit, DefaultLimit),
	}
}

// Skip returns the number of records preceding the requested page. Pages
// whose offset does not fit in an int saturate at math.MaxInt, which every
// store treats as past the end.
func (p PageRequest) Skip() int {
	if p.Page-1 > math.MaxInt/p.Limit {
		return math.MaxInt
	}

	return (p.Page - 1) * p.Limit
}

// Pagination is the metadata returned alongside a page of alerts.
type Pagination struct {
	Current int   `json:"current"`
	Total   int64 `json:"total"`
	HasMore bool  `json:"hasMore"`
}

// NewPagination computes the page metadata for a page request that returned
// `returned` records out of totalCount.
func NewPagination(req PageRequest, returned int, totalCount int64) Pagination {
	limit := int64(req.Limit)

	total := totalCount / limit
	if totalCount%limit != 0 {
		total++
	}

	return Pagination{
		Current: req.Page,
		Total:   total,
		HasMore: int64(req.Skip()) < totalCount-int64(returned),
	}
}

func parsePositive(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return fallback
	}

	return n
}
