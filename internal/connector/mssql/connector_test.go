package mssql

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/formgate/formgate/internal/connector"
)

func newTestConnector() *MSSQLConnector {
	return New().(*MSSQLConnector)
}

func TestMSSQLDialect(t *testing.T) {
	c := newTestConnector()

	t.Run("QuoteIdentifier uses brackets", func(t *testing.T) {
		got := c.QuoteIdentifier("users")
		want := "[users]"
		if got != want {
			t.Errorf("got %s, want %s", got, want)
		}
	})

	t.Run("QuoteIdentifier escapes embedded closing brackets", func(t *testing.T) {
		got := c.QuoteIdentifier("my]table")
		want := "[my]]table]"
		if got != want {
			t.Errorf("got %s, want %s", got, want)
		}
	})

	t.Run("ParameterPlaceholder returns @pN format", func(t *testing.T) {
		cases := map[int]string{
			1:   "@p1",
			2:   "@p2",
			3:   "@p3",
			100: "@p100",
		}
		for idx, want := range cases {
			got := c.ParameterPlaceholder(idx)
			if got != want {
				t.Errorf("ParameterPlaceholder(%d) = %s, want %s", idx, got, want)
			}
		}
	})

	t.Run("DriverName is mssql", func(t *testing.T) {
		if c.DriverName() != "mssql" {
			t.Errorf("expected DriverName() == mssql, got %s", c.DriverName())
		}
	})
}

func TestMSSQLUsesAtPPlaceholders(t *testing.T) {
	c := newTestConnector()
	id := uuid.MustParse("6f9619ff-8b86-d011-b42d-00c04fc964ff")

	q, args := connector.BuildFindByIDQuery(c, "dbo", connector.FormTable{}.WithDefaults(), id)
	want := "SELECT LOWER(CONVERT(NVARCHAR(36), [msdynmkt_marketingformid])) AS [id], [msdynmkt_name] AS [name], " +
		"[msdynmkt_standalonehtml] AS [html] FROM [dbo].[msdynmkt_marketingform] " +
		"WHERE [msdynmkt_marketingformid] = @p1 AND [statuscode] = @p2"
	if q != want {
		t.Errorf("query mismatch\n got: %s\nwant: %s", q, want)
	}
	if args[0] != id.String() {
		t.Errorf("id arg = %v, want canonical string", args[0])
	}
	if strings.Contains(q, "?") {
		t.Errorf("query should not contain ? placeholders: %s", q)
	}
}
