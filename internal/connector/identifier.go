package connector

import (
	"fmt"
	"regexp"
	"strings"
)

// identifierRegex matches the table, schema and column names formgate will
// splice into SQL: a letter or underscore followed by letters, digits or
// underscores.
var identifierRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// sqlReservedWords may not be used as identifiers even though they match
// identifierRegex.
var sqlReservedWords = map[string]bool{
	"SELECT": true, "INSERT": true, "UPDATE": true, "DELETE": true,
	"DROP": true, "CREATE": true, "ALTER": true, "TRUNCATE": true,
	"EXEC": true, "EXECUTE": true, "UNION": true, "INTO": true,
	"FROM": true, "WHERE": true, "TABLE": true, "DATABASE": true,
	"GRANT": true, "REVOKE": true, "INDEX": true, "VIEW": true,
	"PROCEDURE": true, "FUNCTION": true, "TRIGGER": true, "SCHEMA": true,
}

// ValidateIdentifier rejects empty names, names over 128 characters, names
// that don't match [a-zA-Z_][a-zA-Z0-9_]* and SQL reserved words.
func ValidateIdentifier(name string) error {
	if len(name) == 0 {
		return fmt.Errorf("identifier cannot be empty")
	}
	if len(name) > 128 {
		return fmt.Errorf("identifier too long (max 128 chars): %q", name)
	}
	if !identifierRegex.MatchString(name) {
		return fmt.Errorf("invalid identifier %q: must match [a-zA-Z_][a-zA-Z0-9_]*", name)
	}
	if sqlReservedWords[strings.ToUpper(name)] {
		return fmt.Errorf("identifier %q is a SQL reserved word", name)
	}
	return nil
}

// Validate checks every table and column name of t. Call it on the result of
// WithDefaults.
func (t FormTable) Validate() error {
	fields := []struct{ field, name string }{
		{"table", t.Name},
		{"id_column", t.IDColumn},
		{"name_column", t.NameColumn},
		{"html_column", t.HTMLColumn},
		{"status_column", t.StatusColumn},
		{"type_column", t.TypeColumn},
	}
	for _, f := range fields {
		if err := ValidateIdentifier(f.name); err != nil {
			return fmt.Errorf("form table %s: %w", f.field, err)
		}
	}
	return nil
}
