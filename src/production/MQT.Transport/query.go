package transport

import (
	"net/url"
	"strconv"
)

// Sort orders understood by the store
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// Query is the store's list contract: sortBy, order, limit and equality filters
type Query struct {
	SortBy  string
	Order   string
	Limit   int
	Filters map[string]string
}


// Encode renders the query string. A nil query encodes to "".
func (q *Query) Encode() string {
	if q == nil {
		return ""
	}
	v := url.Values{}
	for k, val := range q.Filters {
		v.Set(k, val)
	}
	if q.SortBy != "" {
		v.Set("sortBy", q.SortBy)
	}
	if q.Order != "" {
		v.Set("order", q.Order)
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v.Encode()
}
