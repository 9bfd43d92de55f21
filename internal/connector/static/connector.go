// Package static serves marketing forms from a YAML file. It stands in for
// the CRM during local development and demos.
package static

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/formgate/formgate/internal/connector"
	"github.com/formgate/formgate/internal/model"
)

// File is the on-disk layout of a static forms file.
type File struct {
	Forms []FormEntry `yaml:"forms"`
}

// FormEntry is one form in a static forms file. Live defaults to true.
type FormEntry struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	HTML string `yaml:"html"`
	Live *bool  `yaml:"live,omitempty"`
	Type int64  `yaml:"type,omitempty"`
}

func (e FormEntry) live() bool {
	return e.Live == nil || *e.Live
}

// StaticConnector implements connector.Connector over a YAML file named by
// the DSN. The file is read once on Connect.
type StaticConnector struct {
	mu       sync.RWMutex
	path     string
	formType int64
	forms    []FormEntry
}

// New creates a new StaticConnector.
func New() connector.Connector {
	return &StaticConnector{}
}

// Load parses a static forms file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read forms file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse forms file: %w", err)
	}
	for i, e := range f.Forms {
		if _, err := uuid.Parse(e.ID); err != nil {
			return nil, fmt.Errorf("form %d (%q): invalid id %q: %w", i, e.Name, e.ID, err)
		}
	}
	return &f, nil
}

func (c *StaticConnector) Connect(cfg connector.ConnectionConfig) error {
	f, err := Load(cfg.DSN)
	if err != nil {
		return fmt.Errorf("static connect: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.path = cfg.DSN
	c.formType = cfg.Table.FormType
	c.forms = f.Forms
	return nil
}

func (c *StaticConnector) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.forms = nil
	return nil
}

// Ping checks that the forms file is still readable.
func (c *StaticConnector) Ping(_ context.Context) error {
	c.mu.RLock()
	path := c.path
	c.mu.RUnlock()

	if path == "" {
		return fmt.Errorf("not connected")
	}
	_, err := os.Stat(path)
	return err
}

func (c *StaticConnector) DriverName() string { return "static" }

func (c *StaticConnector) ListLiveForms(_ context.Context) ([]model.Form, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var forms []model.Form
	for _, e := range c.forms {
		if !e.live() || e.HTML == "" {
			continue
		}
		if c.formType != 0 && e.Type != c.formType {
			continue
		}
		forms = append(forms, toModel(e))
	}
	sort.SliceStable(forms, func(i, j int) bool { return forms[i].Name < forms[j].Name })
	return forms, nil
}

func (c *StaticConnector) FindLiveFormByID(_ context.Context, id uuid.UUID) (*model.Form, error) {
	return c.find(func(e FormEntry) bool {
		parsed, err := uuid.Parse(e.ID)
		return err == nil && parsed == id
	})
}

func (c *StaticConnector) FindLiveFormByName(_ context.Context, name string) (*model.Form, error) {
	return c.find(func(e FormEntry) bool { return strings.EqualFold(e.Name, name) })
}

func (c *StaticConnector) find(match func(FormEntry) bool) (*model.Form, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, e := range c.forms {
		if e.live() && match(e) {
			f := toModel(e)
			return &f, nil
		}
	}
	return nil, connector.ErrFormNotFound
}

func toModel(e FormEntry) model.Form {
	return model.Form{ID: strings.ToLower(e.ID), Name: e.Name, HTMLContent: e.HTML}
}
