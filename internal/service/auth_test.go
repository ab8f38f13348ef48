package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantryplan/backend/config"
)

func TestAuthService_RemoteValidation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/user", r.URL.Path)
		switch r.Header.Get("Authorization") {
		case "Bearer good-token":
			json.NewEncoder(w).Encode(map[string]any{"id": "user-123", "email": "cook@example.com"})
		case "Bearer no-id-token":
			json.NewEncoder(w).Encode(map[string]any{"email": "cook@example.com"})
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	defer srv.Close()

	s, err := NewAuthService(&config.Config{IdentityURL: srv.URL, IdentityTimeout: 5 * time.Second})
	require.NoError(t, err)

	t.Run("valid token", func(t *testing.T) {
		claims, err := s.ValidateToken(context.Background(), "good-token")
		require.NoError(t, err)
		assert.Equal(t, "user-123", claims.UserID)
		assert.Equal(t, "cook@example.com", claims.Email)
	})

	t.Run("rejected token", func(t *testing.T) {
		_, err := s.ValidateToken(context.Background(), "bad-token")
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("payload without user id", func(t *testing.T) {
		_, err := s.ValidateToken(context.Background(), "no-id-token")
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("empty token", func(t *testing.T) {
		_, err := s.ValidateToken(context.Background(), "")
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})
}

func TestAuthService_IdentityServiceUnreachable(t *testing.T) {
	s, err := NewAuthService(&config.Config{IdentityURL: "http://127.0.0.1:1", IdentityTimeout: time.Second})
	require.NoError(t, err)

	_, err = s.ValidateToken(context.Background(), "any-token")
	// Unreachable identity service surfaces the same 401 as a bad token.
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestAuthService_LocalValidation(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})

	s, err := NewAuthService(&config.Config{IdentityJWTKey: string(pubPEM)})
	require.NoError(t, err)

	sign := func(claims jwt.MapClaims) string {
		token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
		require.NoError(t, err)
		return token
	}

	t.Run("valid token", func(t *testing.T) {
		token := sign(jwt.MapClaims{
			"sub":   "user-456",
			"email": "cook@example.com",
			"exp":   time.Now().Add(time.Hour).Unix(),
		})

		claims, err := s.ValidateToken(context.Background(), token)
		require.NoError(t, err)
		assert.Equal(t, "user-456", claims.UserID)
	})

	t.Run("expired token", func(t *testing.T) {
		token := sign(jwt.MapClaims{
			"sub": "user-456",
			"exp": time.Now().Add(-time.Hour).Unix(),
		})

		_, err := s.ValidateToken(context.Background(), token)
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("missing subject", func(t *testing.T) {
		token := sign(jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})

		_, err := s.ValidateToken(context.Background(), token)
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("wrong signing method", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "x"}).
			SignedString([]byte("hmac-secret"))
		require.NoError(t, err)

		_, err = s.ValidateToken(context.Background(), token)
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})
}

func TestNewAuthService_RequiresIdentityConfig(t *testing.T) {
	_, err := NewAuthService(&config.Config{})
	assert.Error(t, err)
}

func TestNewAuthService_RejectsBadPublicKey(t *testing.T) {
	_, err := NewAuthService(&config.Config{IdentityJWTKey: "not a pem key"})
	assert.Error(t, err)
}
