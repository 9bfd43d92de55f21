package static

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/formgate/formgate/internal/connector"
)

const formsYAML = `forms:
  - id: 6F9619FF-8B86-D011-B42D-00C04FC964FF
    name: Contact Us
    type: 1
    html: <form>contact</form>
  - id: 0b1c9a6e-7c44-4a43-9f0e-5b2f3a1d4c21
    name: Draft
    live: false
    html: <form>draft</form>
  - id: 1d2e3f40-5a6b-4c7d-8e9f-a0b1c2d3e4f5
    name: Empty
  - id: c2d4e6f8-1a3b-4c5d-8e7f-9a0b1c2d3e4f
    name: Annual Survey
    type: 2
    html: <form>survey</form>
`

func writeForms(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "forms.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write forms: %v", err)
	}
	return path
}

func connect(t *testing.T, formType int64) connector.Connector {
	t.Helper()
	c := New()
	cfg := connector.ConnectionConfig{
		Driver: "static",
		DSN:    writeForms(t, formsYAML),
		Table:  connector.FormTable{FormType: formType},
	}
	if err := c.Connect(cfg); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	return c
}

func TestListLiveForms(t *testing.T) {
	c := connect(t, 0)

	forms, err := c.ListLiveForms(context.Background())
	if err != nil {
		t.Fatalf("ListLiveForms: %v", err)
	}
	if len(forms) != 2 {
		t.Fatalf("expected 2 forms, got %+v", forms)
	}
	if forms[0].Name != "Annual Survey" || forms[1].Name != "Contact Us" {
		t.Errorf("unexpected order: %q, %q", forms[0].Name, forms[1].Name)
	}
	if forms[1].ID != "6f9619ff-8b86-d011-b42d-00c04fc964ff" {
		t.Errorf("ID = %q, want lower-case canonical form", forms[1].ID)
	}
}

func TestListFiltersFormType(t *testing.T) {
	c := connect(t, 1)

	forms, _ := c.ListLiveForms(context.Background())
	if len(forms) != 1 || forms[0].Name != "Contact Us" {
		t.Errorf("expected only Contact Us, got %+v", forms)
	}
}

func TestFindLiveForm(t *testing.T) {
	c := connect(t, 0)
	ctx := context.Background()

	f, err := c.FindLiveFormByID(ctx, uuid.MustParse("6f9619ff-8b86-d011-b42d-00c04fc964ff"))
	if err != nil {
		t.Fatalf("FindLiveFormByID: %v", err)
	}
	if f.Name != "Contact Us" {
		t.Errorf("Name = %q", f.Name)
	}

	f, err = c.FindLiveFormByName(ctx, "empty")
	if err != nil {
		t.Fatalf("FindLiveFormByName(empty): %v", err)
	}
	if f.HTMLContent != "" {
		t.Errorf("HTMLContent = %q, want empty", f.HTMLContent)
	}

	if _, err := c.FindLiveFormByName(ctx, "Draft"); !errors.Is(err, connector.ErrFormNotFound) {
		t.Errorf("draft: got %v, want ErrFormNotFound", err)
	}
}

func TestLoadRejectsBadID(t *testing.T) {
	path := writeForms(t, "forms:\n  - id: not-a-guid\n    name: Broken\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid id")
	}
}

func TestPing(t *testing.T) {
	c := New()
	if err := c.Ping(context.Background()); err == nil {
		t.Error("expected error before Connect")
	}

	path := writeForms(t, formsYAML)
	if err := c.Connect(connector.ConnectionConfig{DSN: path}); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := c.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
	os.Remove(path)
	if err := c.Ping(context.Background()); err == nil {
		t.Error("expected error after file removal")
	}
}
