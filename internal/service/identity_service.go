package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/stylistiq/wardrobe-api/internal/models"
)

type sessionStore interface {
	Register(ctx context.Context, token string, ttl time.Duration) error
	Known(ctx context.Context, token string) (bool, error)
	Touch(ctx context.Context, token string, ttl time.Duration)
}

// anonTokenPattern matches tokens we minted: a unix-nano timestamp plus a
// random suffix. Anything else presented in the cookie is discarded.
var anonTokenPattern = regexp.MustCompile(`^anon_\d+_[A-Za-z0-9_-]{16,}$`)

// IdentityService resolves every request to an explicit Principal: either
// the authenticated account from JWT claims, or an anonymous browser-session
// token minted here. Tokens must be unguessable so the upload quota cannot
// be bypassed by cycling fabricated session ids.
type IdentityService struct {
	sessions sessionStore
	logger   *zap.Logger
	anonTTL  time.Duration
}

// NewIdentityService constructs the identity resolver.
func NewIdentityService(sessions sessionStore, logger *zap.Logger, anonTTL time.Duration) *IdentityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if anonTTL <= 0 {
		anonTTL = 7 * 24 * time.Hour
	}
	return &IdentityService{sessions: sessions, logger: logger, anonTTL: anonTTL}
}

// AnonTTL exposes the anonymous-session lifetime, which doubles as the
// expiry applied to items uploaded under such a session.
func (s *IdentityService) AnonTTL() time.Duration {
	return s.anonTTL
}

// FromClaims builds the registered principal for an authenticated request.
func (s *IdentityService) FromClaims(claims *models.JWTClaims) models.Principal {
	return models.RegisteredPrincipal(claims.UserID, claims.VerifiedClient)
}

// ResolveAnonymous returns the principal for an unauthenticated request.
// A valid cookie token is reused (and its TTL slid forward); otherwise a new
// token is minted and registered. The second return value reports whether
// the caller must set a fresh cookie.
func (s *IdentityService) ResolveAnonymous(ctx context.Context, cookieToken string) (models.Principal, bool, error) {
	if cookieToken != "" && anonTokenPattern.MatchString(cookieToken) {
		known, err := s.sessions.Known(ctx, cookieToken)
		if err != nil {
			// Session store trouble must not lock visitors out; fall
			// through to a fresh token.
			s.logger.Warn("session store lookup failed", zap.Error(err))
		} else if known {
			s.sessions.Touch(ctx, cookieToken, s.anonTTL)
			return models.AnonymousPrincipal(cookieToken), false, nil
		}
	}

	token, err := s.mintToken()
	if err != nil {
		return models.Principal{}, false, fmt.Errorf("mint session token: %w", err)
	}
	if err := s.sessions.Register(ctx, token, s.anonTTL); err != nil {
		return models.Principal{}, false, err
	}
	return models.AnonymousPrincipal(token), true, nil
}

func (s *IdentityService) mintToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return fmt.Sprintf("anon_%d_%s", time.Now().UnixNano(), base64.RawURLEncoding.EncodeToString(buf)), nil
}
