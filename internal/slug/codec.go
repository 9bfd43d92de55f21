package slug

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MappingStore remembers which original text produced a slug.
type MappingStore interface {
	// Remember records slug -> original. An existing mapping is kept.
	Remember(ctx context.Context, slug, original string) error
	// Lookup returns the original text recorded for slug.
	Lookup(ctx context.Context, slug string) (string, bool, error)
	// Reset forgets every mapping.
	Reset(ctx context.Context) error
}

// Codec generates slugs and reverses them using its MappingStore.
type Codec struct {
	store  MappingStore
	logger *slog.Logger
}

// NewCodec creates a Codec backed by store. A nil store gets a fresh
// MemoryMappings.
func NewCodec(store MappingStore, logger *slog.Logger) *Codec {
	if store == nil {
		store = NewMemoryMappings()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Codec{store: store, logger: logger}
}

// Generate is GenerateN with DefaultMaxLength.
func (c *Codec) Generate(ctx context.Context, input string) string {
	return c.GenerateN(ctx, input, DefaultMaxLength)
}

// GenerateN returns Slugify(input, maxLength) and records the mapping from
// the returned slug back to input. Failing to record is logged, not returned.
func (c *Codec) GenerateN(ctx context.Context, input string, maxLength int) string {
	s := Slugify(input, maxLength)
	if s == "" {
		return ""
	}
	if err := c.store.Remember(ctx, s, input); err != nil {
		c.logger.Warn("slug mapping not recorded", "slug", s, "error", err)
	}
	return s
}

// DeSlug returns the original text for s when it is known, and otherwise a
// title-cased guess with hyphens turned into spaces.
func (c *Codec) DeSlug(ctx context.Context, s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}

	original, ok, err := c.store.Lookup(ctx, s)
	if err != nil {
		c.logger.Warn("slug mapping lookup failed", "slug", s, "error", err)
	}
	if ok {
		return original
	}

	return cases.Title(language.Und).String(strings.ReplaceAll(s, "-", " "))
}

// Reset clears the mapping store.
func (c *Codec) Reset(ctx context.Context) error {
	return c.store.Reset(ctx)
}
