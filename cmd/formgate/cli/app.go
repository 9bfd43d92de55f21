package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/formgate/formgate/internal/cache"
	"github.com/formgate/formgate/internal/config"
	"github.com/formgate/formgate/internal/connector"
	"github.com/formgate/formgate/internal/service"
	"github.com/formgate/formgate/internal/slug"
)

// app bundles the collaborators shared by serve, mcp and forms.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *connector.Registry
	codec    *slug.Codec
	forms    *service.FormService
	closers  []func() error
}

// openApp connects the configured upstream and builds the cache, slug codec
// and form service on top of it.
func openApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	if err := cfg.RequireUpstream(); err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, registry: newRegistry()}

	up := cfg.Upstream
	connCfg := connector.ConnectionConfig{
		Driver:          up.Driver,
		DSN:             up.DSN,
		SchemaName:      up.Schema,
		PrivateKeyPath:  up.PrivateKeyPath,
		MaxOpenConns:    up.Pool.MaxOpenConns,
		MaxIdleConns:    up.Pool.MaxIdleConns,
		ConnMaxLifetime: up.Pool.ConnMaxLifetime,
		ConnMaxIdleTime: up.Pool.ConnMaxIdleTime,
		Table: connector.FormTable{
			Name:         up.Table.Name,
			IDColumn:     up.Table.IDColumn,
			NameColumn:   up.Table.NameColumn,
			HTMLColumn:   up.Table.HTMLColumn,
			StatusColumn: up.Table.StatusColumn,
			TypeColumn:   up.Table.TypeColumn,
			LiveStatus:   up.Table.LiveStatus,
			FormType:     up.Table.FormType,
		}.WithDefaults(),
	}
	if err := a.registry.Connect(up.Name, connCfg); err != nil {
		return nil, err
	}
	logger.Info("connected upstream", "upstream", up.Name, "driver", up.Driver, "dsn", connector.RedactDSN(up.DSN))
	a.closers = append(a.closers, func() error { a.registry.CloseAll(); return nil })

	source, err := a.registry.Get(up.Name)
	if err != nil {
		a.Close()
		return nil, err
	}

	store, err := a.cacheStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	codec, err := a.slugCodec(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.codec = codec

	a.forms = service.NewFormService(source, cache.New(store, logger), codec, service.FormOptions{
		TTL:           cfg.Cache.TTL,
		SlugMaxLength: cfg.Slugs.MaxLength,
	}, logger)
	return a, nil
}

func (a *app) cacheStore(ctx context.Context) (cache.Store, error) {
	if a.cfg.Cache.Backend == "redis" {
		client, err := cache.NewRedisClient(ctx, a.cfg.Cache.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("cache: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		a.logger.Info("cache backend ready", "backend", "redis")
		return cache.NewRedisStore(client, a.cfg.Cache.KeyPrefix), nil
	}

	store, err := cache.NewMemoryStore(a.cfg.Cache.MaxEntries)
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	a.logger.Info("cache backend ready", "backend", "memory", "max_entries", a.cfg.Cache.MaxEntries)
	return store, nil
}

func (a *app) slugCodec(ctx context.Context) (*slug.Codec, error) {
	store, closeStore, err := openSlugStore(ctx, a.cfg)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closeStore)
	return slug.NewCodec(store, a.logger), nil
}

// openSlugStore returns the mapping store selected by slugs.store. The
// memory store is returned as nil so the codec allocates its own.
func openSlugStore(ctx context.Context, cfg *config.Config) (slug.MappingStore, func() error, error) {
	if cfg.Slugs.Store != "redis" {
		return nil, func() error { return nil }, nil
	}
	client, err := cache.NewRedisClient(ctx, cfg.SlugRedisURL())
	if err != nil {
		return nil, nil, fmt.Errorf("slug store: %w", err)
	}
	return slug.NewRedisMappings(client, cfg.Slugs.RedisKey), client.Close, nil
}

// Close releases everything openApp acquired, newest first.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// newAuthService builds the token service. The signing secret comes from
// auth.jwt_secret or, when that is empty, from the key store, which
// generates and persists one on first use.
func newAuthService(ctx context.Context, cfg *config.Config, store *config.Store, logger *slog.Logger) (*service.AuthService, error) {
	secret := cfg.Auth.JWTSecret
	if secret == "" {
		s, err := store.SigningSecret(ctx)
		if err != nil {
			return nil, fmt.Errorf("load signing secret: %w", err)
		}
		secret = s
	}
	return service.NewAuthService(service.AuthOptions{
		Secret:   secret,
		Issuer:   cfg.Auth.Issuer,
		Audience: cfg.Auth.Audience,
		Role:     cfg.Auth.Role,
		TokenTTL: cfg.Auth.TokenTTL,
		APIKeys:  cfg.Auth.APIKeys,
		Store:    store,
	}, logger), nil
}
