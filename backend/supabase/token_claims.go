package supabase

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// accessClaims are the claims this client reads out of a Supabase access
// token. The token is parsed unverified: signature verification belongs to
// the backend that issued it, the client only needs expiry and identity.
type accessClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func parseAccessClaims(accessToken string) (*accessClaims, error) {
	if accessToken == "" {
		return nil, errors.New("empty access token")
	}
	claims := &accessClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(accessToken, claims); err != nil {
		return nil, errors.Wrap(err, "[supabase parseAccessClaims] parse")
	}
	return claims, nil
}

// newStateNonce creates a random base64url string for CSRF protection on the
// OAuth redirect round trip.
func newStateNonce() string {
	b := make([]byte, 32)
	rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
