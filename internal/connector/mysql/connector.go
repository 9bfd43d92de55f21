package mysql

import (
	"strings"

	_ "github.com/go-sql-driver/mysql"

	"github.com/formgate/formgate/internal/connector"
)

// MySQLConnector reads marketing forms from a MySQL mirror of the CRM tables.
type MySQLConnector struct {
	*connector.SQLSource
}

// New creates a new MySQLConnector.
func New() connector.Connector {
	c := &MySQLConnector{}
	c.SQLSource = connector.NewSQLSource("mysql", c)
	return c
}

// DriverName returns the driver identifier for MySQL.
func (c *MySQLConnector) DriverName() string { return "mysql" }

// QuoteIdentifier wraps a SQL identifier in backticks, escaping any
// embedded backticks to prevent SQL injection.
func (c *MySQLConnector) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// ParameterPlaceholder returns a MySQL-style positional parameter
// placeholder (?). MySQL ignores the index.
func (c *MySQLConnector) ParameterPlaceholder(_ int) string {
	return "?"
}
