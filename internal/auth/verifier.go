package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Verifier validates bearer tokens and extracts the authenticated user id.
// Token issuance lives outside this service; only verification happens here.
type Verifier interface {
	UserID(token string) (string, error)
}

type hmacVerifier struct {
	secret []byte
}

// NewHMAC returns a Verifier for HS256-signed tokens carrying a user_id claim.
func NewHMAC(secret string) Verifier {
	return hmacVerifier{secret: []byte(secret)}
}

func (v hmacVerifier) UserID(token string) (string, error) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", ErrInvalidToken
	}
	return userID, nil
}
