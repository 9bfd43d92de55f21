package connector

import (
	"strings"

	"github.com/google/uuid"
)

// Query builders shared by every SQL dialect. Column aliases are quoted so
// drivers that fold unquoted names to upper case still return "id", "name"
// and "html".

// BuildListQuery selects every live form with standalone HTML, restricted
// to t.FormType when it is set.
func BuildListQuery(d Dialect, schema string, t FormTable) (string, []interface{}) {
	var sb strings.Builder
	writeSelect(&sb, d, schema, t)

	sb.WriteString(" WHERE ")
	sb.WriteString(d.QuoteIdentifier(t.StatusColumn))
	sb.WriteString(" = ")
	sb.WriteString(d.ParameterPlaceholder(1))
	sb.WriteString(" AND ")
	sb.WriteString(d.QuoteIdentifier(t.HTMLColumn))
	sb.WriteString(" IS NOT NULL")
	args := []interface{}{t.LiveStatus}

	if t.FormType != 0 {
		sb.WriteString(" AND ")
		sb.WriteString(d.QuoteIdentifier(t.TypeColumn))
		sb.WriteString(" = ")
		sb.WriteString(d.ParameterPlaceholder(2))
		args = append(args, t.FormType)
	}

	sb.WriteString(" ORDER BY ")
	sb.WriteString(d.QuoteIdentifier(t.NameColumn))
	return sb.String(), args
}

// BuildFindByIDQuery selects the live form with the given id. Text id
// columns are compared case-insensitively.
func BuildFindByIDQuery(d Dialect, schema string, t FormTable, id uuid.UUID) (string, []interface{}) {
	var sb strings.Builder
	writeSelect(&sb, d, schema, t)

	sb.WriteString(" WHERE ")
	sb.WriteString(matchID(d, t, d.ParameterPlaceholder(1)))
	sb.WriteString(" AND ")
	sb.WriteString(d.QuoteIdentifier(t.StatusColumn))
	sb.WriteString(" = ")
	sb.WriteString(d.ParameterPlaceholder(2))
	return sb.String(), []interface{}{id.String(), t.LiveStatus}
}

// BuildFindByNameQuery selects live forms whose name equals name, ignoring
// case, in name order.
func BuildFindByNameQuery(d Dialect, schema string, t FormTable, name string) (string, []interface{}) {
	var sb strings.Builder
	writeSelect(&sb, d, schema, t)

	sb.WriteString(" WHERE LOWER(")
	sb.WriteString(d.QuoteIdentifier(t.NameColumn))
	sb.WriteString(") = LOWER(")
	sb.WriteString(d.ParameterPlaceholder(1))
	sb.WriteString(") AND ")
	sb.WriteString(d.QuoteIdentifier(t.StatusColumn))
	sb.WriteString(" = ")
	sb.WriteString(d.ParameterPlaceholder(2))
	sb.WriteString(" ORDER BY ")
	sb.WriteString(d.QuoteIdentifier(t.NameColumn))
	return sb.String(), []interface{}{name, t.LiveStatus}
}

// matchID returns the predicate comparing the id column with a lowercase
// canonical GUID bound to placeholder.
func matchID(d Dialect, t FormTable, placeholder string) string {
	col := d.QuoteIdentifier(t.IDColumn)
	if m, ok := d.(IDMatcher); ok {
		return m.MatchID(col, placeholder)
	}
	return "LOWER(" + idText(d, col) + ") = " + placeholder
}

func idText(d Dialect, col string) string {
	if ts, ok := d.(TextSelector); ok {
		return ts.SelectAsText(col)
	}
	return col
}

func writeSelect(sb *strings.Builder, d Dialect, schema string, t FormTable) {
	id := idText(d, d.QuoteIdentifier(t.IDColumn))

	sb.WriteString("SELECT ")
	sb.WriteString(id)
	sb.WriteString(" AS ")
	sb.WriteString(d.QuoteIdentifier("id"))
	sb.WriteString(", ")
	sb.WriteString(d.QuoteIdentifier(t.NameColumn))
	sb.WriteString(" AS ")
	sb.WriteString(d.QuoteIdentifier("name"))
	sb.WriteString(", ")
	sb.WriteString(d.QuoteIdentifier(t.HTMLColumn))
	sb.WriteString(" AS ")
	sb.WriteString(d.QuoteIdentifier("html"))
	sb.WriteString(" FROM ")
	if schema != "" {
		sb.WriteString(d.QuoteIdentifier(schema))
		sb.WriteString(".")
	}
	sb.WriteString(d.QuoteIdentifier(t.Name))
}
