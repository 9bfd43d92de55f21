package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/formgate/formgate/internal/connector"
)

func TestSQLiteConnectorRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forms.db")
	c := New().(*SQLiteConnector)

	err := c.Connect(connector.ConnectionConfig{
		Driver:       "sqlite",
		DSN:          path,
		MaxOpenConns: 1,
		Table: connector.FormTable{
			Name:         "forms",
			IDColumn:     "id",
			NameColumn:   "title",
			HTMLColumn:   "body",
			StatusColumn: "state",
			LiveStatus:   1,
		},
	})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer c.Disconnect()

	ctx := context.Background()
	if err := c.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	id := uuid.New()
	c.DB().MustExec(`CREATE TABLE forms (id TEXT, title TEXT, body TEXT, state INTEGER, msdynmkt_marketingformtype INTEGER)`)
	c.DB().MustExec(`INSERT INTO forms VALUES (?, 'Event Signup', '<form/>', 1, 0)`, id.String())

	forms, err := c.ListLiveForms(ctx)
	if err != nil {
		t.Fatalf("ListLiveForms: %v", err)
	}
	if len(forms) != 1 || forms[0].Name != "Event Signup" || forms[0].ID != id.String() {
		t.Errorf("unexpected forms: %+v", forms)
	}

	f, err := c.FindLiveFormByName(ctx, "EVENT SIGNUP")
	if err != nil {
		t.Fatalf("FindLiveFormByName: %v", err)
	}
	if f.HTMLContent != "<form/>" {
		t.Errorf("HTMLContent = %q", f.HTMLContent)
	}

	if _, err := c.FindLiveFormByID(ctx, uuid.New()); !errors.Is(err, connector.ErrFormNotFound) {
		t.Errorf("got %v, want ErrFormNotFound", err)
	}
}

func TestSQLiteFindByIDIgnoresCase(t *testing.T) {
	c := New().(*SQLiteConnector)
	err := c.Connect(connector.ConnectionConfig{
		Driver:       "sqlite",
		DSN:          filepath.Join(t.TempDir(), "forms.db"),
		MaxOpenConns: 1,
	})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer c.Disconnect()

	c.DB().MustExec(`CREATE TABLE msdynmkt_marketingform (msdynmkt_marketingformid TEXT, msdynmkt_name TEXT,
		msdynmkt_standalonehtml TEXT, statuscode INTEGER, msdynmkt_marketingformtype INTEGER)`)
	c.DB().MustExec(`INSERT INTO msdynmkt_marketingform VALUES (?, 'Webinar', '<form/>', ?, 0)`,
		"ED57EBE6-112A-4C6B-9D3E-0A1B2C3D4E5F", connector.DefaultLiveStatus)

	ctx := context.Background()
	for _, id := range []string{"ed57ebe6-112a-4c6b-9d3e-0a1b2c3d4e5f", "ED57EBE6-112A-4C6B-9D3E-0A1B2C3D4E5F"} {
		f, err := c.FindLiveFormByID(ctx, uuid.MustParse(id))
		if err != nil {
			t.Fatalf("FindLiveFormByID(%s): %v", id, err)
		}
		if f.Name != "Webinar" {
			t.Errorf("Name = %q, want Webinar", f.Name)
		}
	}
}

func TestSQLiteDialect(t *testing.T) {
	c := New().(*SQLiteConnector)
	if c.DriverName() != "sqlite" {
		t.Errorf("DriverName() = %s", c.DriverName())
	}
	if got := c.QuoteIdentifier(`a"b`); got != `"a""b"` {
		t.Errorf("QuoteIdentifier = %s", got)
	}
	if got := c.ParameterPlaceholder(3); got != "?" {
		t.Errorf("ParameterPlaceholder = %s", got)
	}
}
