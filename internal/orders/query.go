package orders

import (
	"fmt"
	"strconv"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// ListQuery is the validated admin listing filter. Build it with NewListQuery.
type ListQuery struct {
	status Status
	page   int
	limit  int
}

// NewListQuery parses raw query values. An empty status or "all" means no filter.
func NewListQuery(status, page, limit string) (ListQuery, error) {
	q := ListQuery{page: 1, limit: defaultPageLimit}
	if status != "" && status != "all" {
		st, err := ParseStatus(status)
		if err != nil {
			return ListQuery{}, err
		}
		q.status = st
	}
	if page != "" {
		n, err := strconv.Atoi(page)
		if err != nil || n < 1 {
			return ListQuery{}, fmt.Errorf("invalid page %q", page)
		}
		q.page = n
	}
	if limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 1 || n > maxPageLimit {
			return ListQuery{}, fmt.Errorf("invalid limit %q (1-%d)", limit, maxPageLimit)
		}
		q.limit = n
	}
	return q, nil
}

// Status returns the filter, or "" for all orders.
func (q ListQuery) Status() Status { return q.status }
func (q ListQuery) Page() int      { return q.page }
func (q ListQuery) Limit() int     { return q.limit }
func (q ListQuery) Offset() int    { return (q.page - 1) * q.limit }

// Pages returns how many pages total rows span.
func (q ListQuery) Pages(total int) int {
	return (total + q.limit - 1) / q.limit
}
