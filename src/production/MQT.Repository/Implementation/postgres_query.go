package implementation

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/lib/pq"
	interfaces "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Repository/Interfaces"
)

// selectBuilder renders a ListQuery as a parameterised SELECT.
// Only whitelisted columns may be sorted or filtered on; others are ignored.
type selectBuilder struct {
	table      string
	columns    []string
	sortable   map[string]bool
	filterable map[string]bool
}

func (b selectBuilder) build(q interfaces.ListQuery, fixed map[string]string) (string, []interface{}) {
	var (
		where []string
		args  []interface{}
	)

	add := func(column, value string) {
		args = append(args, value)
		where = append(where, fmt.Sprintf("%s::text = $%d", pq.QuoteIdentifier(column), len(args)))
	}

	fixedKeys := make([]string, 0, len(fixed))
	for k := range fixed {
		fixedKeys = append(fixedKeys, k)
	}
	sort.Strings(fixedKeys)
	for _, k := range fixedKeys {
		add(k, fixed[k])
	}

	filterKeys := make([]string, 0, len(q.Filters))
	for k := range q.Filters {
		if b.filterable[k] {
			filterKeys = append(filterKeys, k)
		}
	}
	sort.Strings(filterKeys)
	for _, k := range filterKeys {
		add(k, q.Filters[k])
	}

	quoted := make([]string, len(b.columns))
	for i, c := range b.columns {
		quoted[i] = pq.QuoteIdentifier(c)
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(quoted, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(pq.QuoteIdentifier(b.table))
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}

	direction := "ASC"
	if q.Descending() {
		direction = "DESC"
	}
	orderColumn := "id"
	if b.sortable[q.SortBy] {
		orderColumn = q.SortBy
	}
	sb.WriteString(" ORDER BY ")
	sb.WriteString(pq.QuoteIdentifier(orderColumn))
	sb.WriteString(" ")
	sb.WriteString(direction)
	if orderColumn != "id" {
		sb.WriteString(", id ")
		sb.WriteString(direction)
	}

	if q.Limit > 0 {
		args = append(args, q.Limit)
		sb.WriteString(" LIMIT $" + strconv.Itoa(len(args)))
	}
	return sb.String(), args
}

// parseSerial converts a store id into the BIGSERIAL key; ok is false for ids
// that cannot exist in the table.
func parseSerial(id string) (int64, bool) {
	n, err := strconv.ParseInt(id, 10, 64)
	return n, err == nil && n > 0
}

func formatSerial(n int64) string {
	return strconv.FormatInt(n, 10)
}
