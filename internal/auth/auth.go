// Package auth authenticates API callers from HS256 bearer tokens whose
// subject is the caller's user ID.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Static errors for authentication.
var (
	// ErrMissingToken is returned when the Authorization header carries no bearer token.
	ErrMissingToken = errors.New("auth: missing bearer token")
	// ErrInvalidToken is returned when the token fails signature, expiry or claim checks.
	ErrInvalidToken = errors.New("auth: invalid token")
	// ErrSecretRequired is returned when an authenticator is built without a secret.
	ErrSecretRequired = errors.New("auth: signing secret is required")
)

// Issuer is the iss claim of tokens minted by this service.
const Issuer = "tubely-access"

// Authenticator resolves the caller of an HTTP request to a user ID.
type Authenticator interface {
	Authenticate(r *http.Request) (userID string, err error)
}

// JWTAuthenticator validates HS256 tokens signed with a shared secret.
type JWTAuthenticator struct {
	secret []byte
	now    func() time.Time
}

// NewJWTAuthenticator creates a JWTAuthenticator for secret.
func NewJWTAuthenticator(secret string) (*JWTAuthenticator, error) {
	if secret == "" {
		return nil, ErrSecretRequired
	}
	return &JWTAuthenticator{secret: []byte(secret), now: time.Now}, nil
}

// Authenticate extracts and validates the bearer token on r.
func (a *JWTAuthenticator) Authenticate(r *http.Request) (string, error) {
	token, err := BearerToken(r.Header)
	if err != nil {
		return "", err
	}
	return a.Validate(token)
}

// Validate parses token and returns its subject.
func (a *JWTAuthenticator) Validate(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithTimeFunc(a.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// Issue mints a token for userID valid for ttl.
func (a *JWTAuthenticator) Issue(userID string, ttl time.Duration) (string, error) {
	now := a.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    Issuer,
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})

	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// BearerToken returns the token from an "Authorization: Bearer <token>" header.
func BearerToken(h http.Header) (string, error) {
	value := h.Get("Authorization")
	scheme, token, ok := strings.Cut(value, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrMissingToken
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}
