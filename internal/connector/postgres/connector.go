package postgres

import (
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/formgate/formgate/internal/connector"
)

// PostgresConnector reads marketing forms from a PostgreSQL mirror of the
// CRM tables.
type PostgresConnector struct {
	*connector.SQLSource
}

// New creates a new PostgresConnector.
func New() connector.Connector {
	c := &PostgresConnector{}
	c.SQLSource = connector.NewSQLSource("pgx", c)
	return c
}

// DriverName returns the driver identifier for PostgreSQL.
func (c *PostgresConnector) DriverName() string { return "postgres" }

// QuoteIdentifier wraps a SQL identifier in double quotes, escaping any
// embedded double quotes to prevent SQL injection.
func (c *PostgresConnector) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// ParameterPlaceholder returns a PostgreSQL-style numbered parameter
// placeholder (e.g., $1, $2, $3).
func (c *PostgresConnector) ParameterPlaceholder(index int) string {
	return fmt.Sprintf("$%d", index)
}

// SelectAsText casts a uuid column to text.
func (c *PostgresConnector) SelectAsText(expr string) string {
	return "CAST(" + expr + " AS TEXT)"
}
