package types

// TokenClaims is the authenticated identity extracted from a JWT.
type TokenClaims struct {
	UserID   uint
	Username string
}
