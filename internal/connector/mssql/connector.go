package mssql

import (
	"fmt"
	"strings"

	_ "github.com/microsoft/go-mssqldb"

	"github.com/formgate/formgate/internal/connector"
)

// MSSQLConnector reads marketing forms over TDS, either from the CRM's
// read-only SQL endpoint or from a SQL Server copy of its tables.
type MSSQLConnector struct {
	*connector.SQLSource
}

// New creates a new MSSQLConnector.
func New() connector.Connector {
	c := &MSSQLConnector{}
	c.SQLSource = connector.NewSQLSource("sqlserver", c)
	return c
}

// DriverName returns the driver identifier for SQL Server.
func (c *MSSQLConnector) DriverName() string { return "mssql" }

// QuoteIdentifier wraps a SQL identifier in brackets, escaping any
// embedded closing brackets to prevent SQL injection.
func (c *MSSQLConnector) QuoteIdentifier(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

// ParameterPlaceholder returns a SQL Server-style numbered parameter
// placeholder (e.g., @p1, @p2, @p3).
func (c *MSSQLConnector) ParameterPlaceholder(index int) string {
	return fmt.Sprintf("@p%d", index)
}

// SelectAsText converts a uniqueidentifier to its canonical string form.
// Scanned raw, SQL Server returns the GUID's mixed-endian bytes.
func (c *MSSQLConnector) SelectAsText(expr string) string {
	return "LOWER(CONVERT(NVARCHAR(36), " + expr + "))"
}

// MatchID compares the uniqueidentifier directly; SQL Server converts the
// string parameter and ignores case.
func (c *MSSQLConnector) MatchID(col, placeholder string) string {
	return col + " = " + placeholder
}
