// Package idp is the client for the external identity provider. It verifies
// ID tokens and session artifacts against the provider's signing keys, mints
// session artifacts, and owns the subject's custom-claims record. It is
// constructed once at process start and injected into every consumer; there
// is no lazily initialized global handle.
package idp

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"cdash.org/internal/auth"
)

const (
	tokenUseID      = "id"
	tokenUseSession = "session"

	defaultIDTokenTTL = time.Hour
)

var _ auth.IdentityProvider = (*Service)(nil)

// Service implements auth.IdentityProvider. RS256 with the service-account
// key pair in normal operation; HS256 with a shared dev secret in degraded
// mode, which must not be used in production.
type Service struct {
	issuer     string
	keyID      string
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	devSecret  []byte
	claims     ClaimsStore
	now        func() time.Time
}

// Option configures Service behavior.
type Option func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// New constructs a Service from a parsed service-account credential.
func New(cred Credential, claims ClaimsStore, opts ...Option) (*Service, error) {
	priv, err := parseRSAPrivateKey(cred.PrivateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("idp: parse private key: %w", err)
	}
	pub, err := parseRSAPublicKey(cred.PublicKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("idp: parse public key: %w", err)
	}
	s := &Service{
		issuer:     cred.Issuer,
		keyID:      cred.KeyID,
		privateKey: priv,
		publicKey:  pub,
		claims:     claims,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NewDegraded constructs a Service without provider key material, signing
// with a shared HS256 secret instead. Only for local development.
func NewDegraded(issuer, secret string, claims ClaimsStore, opts ...Option) (*Service, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("idp: dev secret is required for degraded mode")
	}
	s := &Service{
		issuer:    issuer,
		devSecret: []byte(secret),
		claims:    claims,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Degraded reports whether the service runs without provider key material.
func (s *Service) Degraded() bool {
	return s.privateKey == nil
}

// tokenClaims is the wire shape of provider-issued tokens. Custom claims use
// the same field names the client reads from decoded tokens.
type tokenClaims struct {
	OrganizationID string `json:"organizationId,omitempty"`
	Role           string `json:"role,omitempty"`
	TokenUse       string `json:"token_use"`
	Email          string `json:"email,omitempty"`
	Name           string `json:"name,omitempty"`
	Picture        string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

// VerifyIDToken checks a bearer ID token. The returned identity never carries
// organization claims from an unsynchronized token.
func (s *Service) VerifyIDToken(ctx context.Context, token string) (*auth.Identity, error) {
	return s.verify(ctx, token, tokenUseID)
}

// VerifySession checks a session artifact and returns the claims embedded at
// issuance.
func (s *Service) VerifySession(ctx context.Context, artifact string) (*auth.Identity, error) {
	return s.verify(ctx, artifact, tokenUseSession)
}

func (s *Service) verify(ctx context.Context, token, wantUse string) (*auth.Identity, error) {
	if err := ctx.Err(); err != nil {
		// Cancelled or timed out: fail closed, never allow.
		return nil, fmt.Errorf("%w: %v", auth.ErrInvalidToken, err)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, auth.ErrMalformedToken
	}

	var claims tokenClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, s.keyFunc,
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, auth.ErrMalformedToken
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, auth.ErrExpiredToken
		default:
			return nil, auth.ErrInvalidToken
		}
	}
	if !parsed.Valid {
		return nil, auth.ErrInvalidToken
	}
	if claims.TokenUse != wantUse {
		return nil, auth.ErrInvalidToken
	}
	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return nil, auth.ErrInvalidToken
	}

	ident := &auth.Identity{
		SubjectID:   subject,
		Email:       claims.Email,
		DisplayName: claims.Name,
		AvatarURL:   claims.Picture,
	}
	if claims.IssuedAt != nil {
		ident.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		ident.ExpiresAt = claims.ExpiresAt.Time
	}
	if wantUse == tokenUseSession {
		ident.Claims = auth.Claims{
			OrganizationID: claims.OrganizationID,
			Role:           auth.Role(claims.Role),
		}
	}
	return ident, nil
}

func (s *Service) keyFunc(t *jwt.Token) (any, error) {
	switch t.Method.Alg() {
	case jwt.SigningMethodRS256.Alg():
		if s.publicKey == nil {
			return nil, auth.ErrInvalidToken
		}
		return s.publicKey, nil
	case jwt.SigningMethodHS256.Alg():
		if len(s.devSecret) == 0 {
			return nil, auth.ErrInvalidToken
		}
		return s.devSecret, nil
	default:
		return nil, auth.ErrInvalidToken
	}
}

// MintSession issues a session artifact with the given claims bound to it.
func (s *Service) MintSession(ctx context.Context, subjectID string, claims auth.Claims, ttl time.Duration) (string, time.Time, error) {
	return s.mint(ctx, subjectID, claims, ttl, tokenUseSession, auth.Identity{})
}

// MintIDToken issues a bearer ID token for the subject. ID tokens carry
// profile claims but never organization claims; those appear only after
// synchronization. Used by the development login path and by tests.
func (s *Service) MintIDToken(ctx context.Context, ident auth.Identity, ttl time.Duration) (string, time.Time, error) {
	if ttl <= 0 {
		ttl = defaultIDTokenTTL
	}
	return s.mint(ctx, ident.SubjectID, auth.Claims{}, ttl, tokenUseID, ident)
}

func (s *Service) mint(ctx context.Context, subjectID string, claims auth.Claims, ttl time.Duration, use string, profile auth.Identity) (string, time.Time, error) {
	if err := ctx.Err(); err != nil {
		return "", time.Time{}, err
	}
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return "", time.Time{}, errors.New("idp: subject id is required")
	}
	if ttl <= 0 {
		return "", time.Time{}, errors.New("idp: ttl must be greater than zero")
	}

	now := s.now().UTC()
	expiresAt := now.Add(ttl)
	tc := tokenClaims{
		OrganizationID: claims.OrganizationID,
		Role:           string(claims.Role),
		TokenUse:       use,
		Email:          profile.Email,
		Name:           profile.DisplayName,
		Picture:        profile.AvatarURL,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}

	var token *jwt.Token
	if s.privateKey != nil {
		token = jwt.NewWithClaims(jwt.SigningMethodRS256, tc)
		if s.keyID != "" {
			token.Header["kid"] = s.keyID
		}
		signed, err := token.SignedString(s.privateKey)
		if err != nil {
			return "", time.Time{}, fmt.Errorf("idp: sign token: %w", err)
		}
		return signed, expiresAt, nil
	}

	token = jwt.NewWithClaims(jwt.SigningMethodHS256, tc)
	signed, err := token.SignedString(s.devSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("idp: sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// SetClaims writes the resolved claims onto the subject's identity record.
// Writing an identical value is skipped, keeping the operation idempotent and
// cheap to retry.
func (s *Service) SetClaims(ctx context.Context, subjectID string, claims auth.Claims) error {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return errors.New("idp: subject id is required")
	}
	current, ok, err := s.claims.Get(ctx, subjectID)
	if err != nil {
		return fmt.Errorf("idp: read claims record: %w", err)
	}
	if ok && current == claims {
		return nil
	}
	if err := s.claims.Set(ctx, subjectID, claims); err != nil {
		return fmt.Errorf("idp: write claims record: %w", err)
	}
	return nil
}

// Claims returns the subject's current custom-claims record.
func (s *Service) Claims(ctx context.Context, subjectID string) (auth.Claims, bool, error) {
	return s.claims.Get(ctx, subjectID)
}
