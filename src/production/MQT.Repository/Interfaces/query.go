package interfaces

import (
	"errors"
	"strconv"
	"strings"
)

// ErrNotFound is returned when a record id does not exist
var ErrNotFound = errors.New("record not found")

const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// Filter field names understood by the backends
const (
	FieldDeviceID = "dispositivo_id"
	FieldState    = "estado"
)

// ListQuery is the collection query contract shared by every backend.
// Unknown sort keys keep insertion order; Limit <= 0 means no limit.
type ListQuery struct {
	SortBy  string
	Order   string
	Limit   int
	Filters map[string]string
}

// ForDevice returns a copy of q filtered to one device's readings
func (q ListQuery) ForDevice(deviceID string) ListQuery {
	filters := make(map[string]string, len(q.Filters)+1)
	for k, v := range q.Filters {
		filters[k] = v
	}
	filters[FieldDeviceID] = deviceID
	q.Filters = filters
	return q
}

// Descending reports whether results are newest/largest first
func (q ListQuery) Descending() bool {
	return strings.EqualFold(q.Order, OrderDesc)
}

// ParseListQuery builds a query from raw request parameters.
// Parameters other than sortBy, order and limit become equality filters.
func ParseListQuery(params map[string][]string) ListQuery {
	q := ListQuery{Filters: map[string]string{}}
	for key, values := range params {
		if len(values) == 0 {
			continue
		}
		v := values[0]
		switch key {
		case "sortBy":
			q.SortBy = v
		case "order":
			q.Order = strings.ToLower(v)
		case "limit":
			if n, err := strconv.Atoi(v); err == nil {
				q.Limit = n
			}
		default:
			q.Filters[key] = v
		}
	}
	return q
}

// CompareIDs orders ids numerically when both are integers, lexically otherwise
func CompareIDs(a, b string) int {
	ai, aerr := strconv.ParseInt(a, 10, 64)
	bi, berr := strconv.ParseInt(b, 10, 64)
	if aerr == nil && berr == nil {
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		}
		return 0
	}
	return strings.Compare(a, b)
}
