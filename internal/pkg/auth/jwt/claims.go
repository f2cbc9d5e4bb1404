package jwt

import "github.com/golang-jwt/jwt"

// Payload defines the JWT claims asserted for a signed-in user.
// The token is issued by the sign-in service; this server only verifies it
// before admitting a connection.
type Payload struct {
	// StandardClaims embeds Exp, Iat and Iss, which drive validity checks.
	jwt.StandardClaims `json:"standard_claims"`

	// UserID is the opaque identity the presence registry is keyed on.
	// It is immutable for the lifetime of a connection.
	UserID string `json:"uid"`

	// Name is the display name carried for convenience in client payloads.
	Name string `json:"name,omitempty"`
}
