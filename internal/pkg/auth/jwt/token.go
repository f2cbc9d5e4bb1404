/*
Package jwt implements token verification for connection admission.

Verification runs once, before the websocket upgrade; an admitted connection
is never re-checked for expiry. Failures map onto a small taxonomy (expired,
malformed, invalid) so the handshake can answer precisely.
*/
package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt"

	"mingle/internal/pkg/errs"
)

const (
	// IdentityExpiration is the lifetime of identity tokens minted by GenerateToken.
	IdentityExpiration = 24 * time.Hour

	// TokenIssuer identifies the issuer this server accepts.
	TokenIssuer = "Mingle-Server"
)

// GenerateToken creates and signs a token for the given payload. Token
// issuance belongs to the sign-in service; this helper exists for development
// setups and tests.
func GenerateToken(payload *Payload, secretKey string, duration time.Duration) (string, error) {
	now := time.Now()

	payload.StandardClaims = jwt.StandardClaims{
		ExpiresAt: now.Add(duration).Unix(),
		IssuedAt:  now.Unix(),
		Issuer:    TokenIssuer,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, payload)

	return token.SignedString([]byte(secretKey))
}

// VerifyToken parses and validates a token string. On failure it returns a
// CustomError classifying the rejection: ErrTokenExpired for a once-valid
// token past its expiry, ErrTokenMalformed for garbage input, ErrTokenInvalid
// for everything else (bad signature, wrong algorithm, missing identity).
func VerifyToken(tokenString string, secretKey string) (*Payload, *errs.CustomError) {
	claims := &Payload{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secretKey), nil
	})

	if err != nil {
		return nil, classifyParseError(err)
	}

	if !token.Valid {
		return nil, errs.NewError(errs.ErrTokenInvalid)
	}

	if claims.UserID == "" {
		return nil, errs.NewError(errs.ErrTokenInvalid)
	}

	return claims, nil
}

// classifyParseError maps a jwt parse failure onto the auth error taxonomy.
func classifyParseError(err error) *errs.CustomError {
	var vErr *jwt.ValidationError
	if !errors.As(err, &vErr) {
		return errs.NewError(errs.ErrTokenInvalid)
	}

	switch {
	case vErr.Errors&jwt.ValidationErrorMalformed != 0:
		return errs.NewError(errs.ErrTokenMalformed)
	case vErr.Errors&(jwt.ValidationErrorExpired|jwt.ValidationErrorNotValidYet) != 0:
		return errs.NewError(errs.ErrTokenExpired)
	default:
		return errs.NewError(errs.ErrTokenInvalid)
	}
}
