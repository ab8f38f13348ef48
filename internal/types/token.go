package types

// TokenClaims holds the resolved identity for one request. It is never
// persisted by this service.
type TokenClaims struct {
	UserID string
	Email  string
}
