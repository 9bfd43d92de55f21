package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/formgate/formgate/internal/config"
)

var (
	ErrInvalidAPIKey = errors.New("invalid api key")
	ErrInvalidToken  = errors.New("invalid token")
)

// DefaultTokenTTL is the lifetime of an issued token when none is configured.
const DefaultTokenTTL = 30 * 24 * time.Hour

// AuthOptions configures an AuthService.
type AuthOptions struct {
	Secret   string
	Issuer   string
	Audience string
	Role     string
	TokenTTL time.Duration
	// APIKeys is the static allow-list.
	APIKeys []string
	// Store, when set, also accepts managed keys.
	Store *config.Store
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// TokenPrincipal is the identity carried by a validated token.
type TokenPrincipal struct {
	Subject   string
	Role      string
	ExpiresAt time.Time
}

// AuthService checks API keys and issues and validates bearer tokens.
type AuthService struct {
	secret   []byte
	issuer   string
	audience string
	role     string
	ttl      time.Duration
	digests  [][sha256.Size]byte
	store    *config.Store
	now      func() time.Time
	logger   *slog.Logger
}

func NewAuthService(opts AuthOptions, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &AuthService{
		secret:   []byte(opts.Secret),
		issuer:   opts.Issuer,
		audience: opts.Audience,
		role:     opts.Role,
		ttl:      opts.TokenTTL,
		store:    opts.Store,
		now:      opts.Now,
		logger:   logger,
	}
	if s.ttl <= 0 {
		s.ttl = DefaultTokenTTL
	}
	if s.now == nil {
		s.now = time.Now
	}
	for _, k := range opts.APIKeys {
		if k = strings.TrimSpace(k); k != "" {
			s.digests = append(s.digests, sha256.Sum256([]byte(k)))
		}
	}
	return s
}

// Role returns the role stamped into issued tokens.
func (s *AuthService) Role() string { return s.role }

// IsValidAPIKey reports whether key is on the allow-list or is an active
// managed key. Allow-list digests are all compared, without early exit.
func (s *AuthService) IsValidAPIKey(ctx context.Context, key string) bool {
	if key == "" {
		return false
	}
	digest := sha256.Sum256([]byte(key))

	match := 0
	for i := range s.digests {
		match |= subtle.ConstantTimeCompare(digest[:], s.digests[i][:])
	}
	if match == 1 {
		return true
	}

	if s.store == nil {
		return false
	}
	managed, err := s.store.GetAPIKeyByHash(ctx, config.HashAPIKey(key))
	if err != nil {
		if !errors.Is(err, config.ErrNotFound) {
			s.logger.Error("api key lookup failed", "error", err)
		}
		return false
	}
	if !managed.Usable(s.now()) {
		return false
	}
	if err := s.store.UpdateAPIKeyLastUsed(ctx, managed.ID); err != nil {
		s.logger.Warn("failed to record api key use", "key_prefix", managed.KeyPrefix, "error", err)
	}
	return true
}

// IssueToken validates apiKey and returns a signed token for it.
func (s *AuthService) IssueToken(ctx context.Context, apiKey string) (string, error) {
	if !s.IsValidAPIKey(ctx, apiKey) {
		return "", ErrInvalidAPIKey
	}

	now := s.now()
	claims := tokenClaims{
		APIKey: apiKey,
		Role:   s.role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   KeyFingerprint(apiKey),
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ValidateToken verifies signature, issuer, audience and lifetime.
func (s *AuthService) ValidateToken(_ context.Context, tokenStr string) (*TokenPrincipal, error) {
	claims := &tokenClaims{}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	token, err := parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	return &TokenPrincipal{
		Subject:   claims.Subject,
		Role:      claims.Role,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// KeyFingerprint identifies an API key without revealing it.
func KeyFingerprint(apiKey string) string {
	return "key_" + config.HashAPIKey(apiKey)[:12]
}

type tokenClaims struct {
	APIKey string `json:"api_key"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}
