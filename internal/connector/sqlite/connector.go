package sqlite

import (
	"strings"

	_ "modernc.org/sqlite"

	"github.com/formgate/formgate/internal/connector"
)

// SQLiteConnector reads marketing forms from a local SQLite export. Handy
// for development and for running without network access to the CRM.
type SQLiteConnector struct {
	*connector.SQLSource
}

// New creates a new SQLiteConnector.
//
// The DSN is a file path (e.g., "/path/to/forms.db"); query parameters like
// ?_journal_mode=WAL are supported.
func New() connector.Connector {
	c := &SQLiteConnector{}
	c.SQLSource = connector.NewSQLSource("sqlite", c)
	return c
}

// DriverName returns the driver identifier for SQLite.
func (c *SQLiteConnector) DriverName() string { return "sqlite" }

// QuoteIdentifier wraps a SQL identifier in double quotes, escaping any
// embedded double quotes to prevent SQL injection.
func (c *SQLiteConnector) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// ParameterPlaceholder returns a SQLite-style positional parameter
// placeholder (?). SQLite ignores the index.
func (c *SQLiteConnector) ParameterPlaceholder(_ int) string {
	return "?"
}
