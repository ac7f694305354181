package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/nexship/freightgate/internal/core/domain"
	"github.com/nexship/freightgate/internal/core/ports"
)

// KeyPrefix is the human-readable prefix on every generated API key.
const KeyPrefix = "fg_"

// AuthService resolves a caller identity from a bearer credential, trying an
// API-key lookup first and falling back to JWT validation. Every failure mode
// collapses to a nil context; callers respond 401 without distinguishing why.
type AuthService struct {
	repo      ports.FreightRepository
	jwtSecret []byte
	logger    *slog.Logger
}

func NewAuthService(repo ports.FreightRepository, jwtSecret string, logger *slog.Logger) *AuthService {
	return &AuthService{repo: repo, jwtSecret: []byte(jwtSecret), logger: logger}
}

// GenerateAPIKey produces a prefixed high-entropy token suitable for one-time
// display. The raw key is never re-derivable from its stored hash.
func GenerateAPIKey() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return KeyPrefix + hex.EncodeToString(raw), nil
}

// HashAPIKey returns the deterministic one-way encoding stored in place of
// the raw key. Not brute-force-hardened; a keyed MAC would be a drop-in
// upgrade without changing the contract.
func HashAPIKey(rawKey string) string {
	hash := sha256.Sum256([]byte(rawKey))
	return hex.EncodeToString(hash[:])
}

// Authenticate tries API-key authentication first, then JWT. Returns nil when
// the header is missing, malformed, or neither path resolves a customer.
func (s *AuthService) Authenticate(ctx context.Context, authHeader string) *domain.AuthContext {
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		return nil
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return nil
	}

	if authCtx := s.authenticateAPIKey(ctx, token); authCtx != nil {
		return authCtx
	}
	return s.authenticateJWT(ctx, token)
}

func (s *AuthService) authenticateAPIKey(ctx context.Context, rawKey string) *domain.AuthContext {
	keyHash := HashAPIKey(rawKey)

	key, err := s.repo.GetAPIKeyByHash(ctx, keyHash)
	if err != nil {
		s.logger.Error("api key lookup failed", "error", err)
		return nil
	}
	if key == nil || !key.Active {
		return nil
	}
	if key.ExpiresAt != nil && key.ExpiresAt.Before(time.Now()) {
		return nil
	}

	// Last-used is a side effect, not a blocking failure.
	go func(id string) {
		touchCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.repo.TouchAPIKey(touchCtx, id, time.Now()); err != nil {
			s.logger.Warn("failed to record api key use", "key_id", id, "error", err)
		}
	}(key.ID)

	return &domain.AuthContext{
		CustomerID:      key.CustomerID,
		IsAuthenticated: true,
		APIKey:          rawKey,
	}
}

func (s *AuthService) authenticateJWT(ctx context.Context, token string) *domain.AuthContext {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return nil
	}

	customer, err := s.repo.GetCustomerByUserID(ctx, claims.Subject)
	if err != nil {
		s.logger.Error("customer lookup failed", "error", err)
		return nil
	}
	if customer == nil {
		return nil
	}

	return &domain.AuthContext{
		CustomerID:      customer.ID,
		IsAuthenticated: true,
	}
}
