package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/formgate/formgate/internal/cache"
	"github.com/formgate/formgate/internal/connector"
	"github.com/formgate/formgate/internal/model"
	"github.com/formgate/formgate/internal/slug"
)

// Cache keys for form lookups.
const (
	listCacheKey    = "marketing_forms"
	idCachePrefix   = "marketing_form_id_"
	slugCachePrefix = "marketing_form_slug_"
)

// DefaultFormTTL is how long form lookups stay cached.
const DefaultFormTTL = 15 * time.Minute

// NotFoundError reports a lookup that matched no live form. Kind is "ID" or
// "slug".
type NotFoundError struct {
	Kind  string
	Value string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Marketing form with %s '%s' not found", e.Kind, e.Value)
}

func (e *NotFoundError) Unwrap() error { return connector.ErrFormNotFound }

// FormOptions tunes a FormService.
type FormOptions struct {
	TTL           time.Duration
	SlugMaxLength int
}

// FormService answers form queries from the cache, falling back to the
// upstream source.
type FormService struct {
	source  connector.FormSource
	cache   *cache.Cache
	codec   *slug.Codec
	ttl     time.Duration
	slugMax int
	logger  *slog.Logger
}

func NewFormService(source connector.FormSource, c *cache.Cache, codec *slug.Codec, opts FormOptions, logger *slog.Logger) *FormService {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultFormTTL
	}
	if opts.SlugMaxLength <= 0 {
		opts.SlugMaxLength = slug.DefaultMaxLength
	}
	return &FormService{
		source:  source,
		cache:   c,
		codec:   codec,
		ttl:     opts.TTL,
		slugMax: opts.SlugMaxLength,
		logger:  logger,
	}
}

// List returns every live form that has HTML.
func (s *FormService) List(ctx context.Context) ([]model.FormResponse, error) {
	forms, err := cache.GetOrCreate(ctx, s.cache, listCacheKey, s.ttl, s.source.ListLiveForms)
	if err != nil {
		return nil, fmt.Errorf("list forms: %w", err)
	}

	out := make([]model.FormResponse, 0, len(forms))
	for _, f := range forms {
		out = append(out, s.toResponse(ctx, f))
	}
	return out, nil
}

// Lookup finds a live form by GUID or by slug. Anything that does not parse
// as a GUID is treated as a slug. A miss returns a *NotFoundError.
func (s *FormService) Lookup(ctx context.Context, idOrSlug string) (*model.FormResponse, error) {
	var (
		form model.Form
		err  error
		miss *NotFoundError
	)

	if id, perr := uuid.Parse(idOrSlug); perr == nil {
		miss = &NotFoundError{Kind: "ID", Value: idOrSlug}
		form, err = cache.GetOrCreate(ctx, s.cache, idCachePrefix+id.String(), s.ttl,
			func(ctx context.Context) (model.Form, error) {
				f, err := s.source.FindLiveFormByID(ctx, id)
				if err != nil {
					return model.Form{}, err
				}
				return *f, nil
			})
	} else {
		miss = &NotFoundError{Kind: "slug", Value: idOrSlug}
		name := s.codec.DeSlug(ctx, idOrSlug)
		if name == "" {
			return nil, miss
		}
		form, err = cache.GetOrCreate(ctx, s.cache, slugCachePrefix+idOrSlug, s.ttl,
			func(ctx context.Context) (model.Form, error) {
				f, err := s.source.FindLiveFormByName(ctx, name)
				if err != nil {
					return model.Form{}, err
				}
				return *f, nil
			})
	}

	if err != nil {
		if errors.Is(err, connector.ErrFormNotFound) {
			return nil, miss
		}
		return nil, fmt.Errorf("lookup form %q: %w", idOrSlug, err)
	}

	resp := s.toResponse(ctx, form)
	return &resp, nil
}

// Slug returns the slug for name and records its mapping.
func (s *FormService) Slug(ctx context.Context, name string) string {
	return s.codec.GenerateN(ctx, name, s.slugMax)
}

func (s *FormService) toResponse(ctx context.Context, f model.Form) model.FormResponse {
	return model.FormResponse{
		Name:        f.Name,
		Slug:        s.Slug(ctx, f.Name),
		HTMLContent: f.HTMLContent,
	}
}
