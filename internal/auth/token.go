// Package auth checks admin capability tokens. Tokens are HS256 JWTs carrying
// role=admin; issuing them is the job of an external identity provider, with the
// token command standing in for it.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

const AdminRole = "admin"

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrNotAdmin     = errors.New("token does not grant admin access")
)

type Authenticator struct {
	secret []byte
	ttl    time.Duration
}

func NewAuthenticator(secret string, ttl time.Duration) *Authenticator {
	return &Authenticator{secret: []byte(secret), ttl: ttl}
}

// GenerateAdminToken issues a token for email that expires after the configured ttl.
func (a *Authenticator) GenerateAdminToken(email string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"email": email,
		"role":  AdminRole,
		"iat":   now.Unix(),
		"exp":   now.Add(a.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", errors.Wrap(err, "auth : sign token")
	}
	return signed, nil
}

// ParseAdminToken verifies the signature and expiry and returns the admin email.
func (a *Authenticator) ParseAdminToken(raw string) (string, error) {
	token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	if role, _ := claims["role"].(string); role != AdminRole {
		return "", ErrNotAdmin
	}
	email, _ := claims["email"].(string)
	return email, nil
}
