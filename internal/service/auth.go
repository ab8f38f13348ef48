package service

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pantryplan/backend/config"
	"github.com/pantryplan/backend/internal/types"
)

// AuthService resolves bearer tokens to a principal. When a JWT public key
// is configured the token is verified locally; otherwise it is forwarded to
// the identity service's /auth/user endpoint. Either way the caller sees a
// single "unauthenticated" failure; the distinction between a missing,
// expired, and unverifiable token lives only in the logs.
type AuthService struct {
	identityURL string
	publicKey   *rsa.PublicKey
	client      *http.Client
}

// NewAuthService creates a new AuthService instance
func NewAuthService(cfg *config.Config) (*AuthService, error) {
	s := &AuthService{
		identityURL: cfg.IdentityURL,
		client:      &http.Client{Timeout: cfg.IdentityTimeout},
	}
	if s.client.Timeout <= 0 {
		s.client.Timeout = 10 * time.Second
	}

	if cfg.IdentityJWTKey != "" {
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.IdentityJWTKey))
		if err != nil {
			return nil, fmt.Errorf("failed to parse identity public key: %w", err)
		}
		s.publicKey = key
	}

	if s.publicKey == nil && s.identityURL == "" {
		return nil, fmt.Errorf("identity URL or public key is required")
	}

	return s, nil
}

// ValidateToken resolves a bearer token to claims, or ErrUnauthenticated.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*types.TokenClaims, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: missing token", ErrUnauthenticated)
	}
	if s.publicKey != nil {
		return s.validateLocal(token)
	}
	return s.validateRemote(ctx, token)
}

func (s *AuthService) validateLocal(tokenString string) (*types.TokenClaims, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.publicKey, nil
	})
	if err != nil {
		log.Printf("[auth] token verification failed: %v", err)
		return nil, fmt.Errorf("%w: invalid or expired token", ErrUnauthenticated)
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		log.Printf("[auth] token has no subject claim")
		return nil, fmt.Errorf("%w: token missing subject", ErrUnauthenticated)
	}
	email, _ := claims["email"].(string)

	return &types.TokenClaims{UserID: sub, Email: email}, nil
}

func (s *AuthService) validateRemote(ctx context.Context, token string) (*types.TokenClaims, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.identityURL+"/auth/user", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.client.Do(req)
	if err != nil {
		log.Printf("[auth] identity service unreachable: %v", err)
		return nil, fmt.Errorf("%w: identity service unreachable", ErrUnauthenticated)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("[auth] identity service rejected token (status %d)", resp.StatusCode)
		return nil, fmt.Errorf("%w: invalid or expired token", ErrUnauthenticated)
	}

	var user struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil || user.ID == "" {
		log.Printf("[auth] identity response missing user id")
		return nil, fmt.Errorf("%w: invalid identity response", ErrUnauthenticated)
	}

	return &types.TokenClaims{UserID: user.ID, Email: user.Email}, nil
}
