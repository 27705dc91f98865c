// Package jwt implementa el AuthVerifier contra tokens HMAC firmados
// por el identity provider del club. Este servicio solo verifica;
// nunca emite tokens.
package jwt

import (
	"context"
	"errors"

	"github.com/golang-jwt/jwt/v5"

	"dog-registry/internal/ports/auth"
)

var ErrInvalidToken = errors.New("invalid token")

type tokenClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type Verifier struct {
	signingKey []byte
	issuer     string
}

func NewVerifier(signingKey, issuer string) *Verifier {
	return &Verifier{
		signingKey: []byte(signingKey),
		issuer:     issuer,
	}
}

func (v *Verifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return v.signingKey, nil
	}, jwt.WithIssuer(v.issuer))
	if err != nil || !parsed.Valid {
		return auth.Claims{}, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok {
		return auth.Claims{}, ErrInvalidToken
	}

	userID := claims.UserID
	if userID == "" {
		// fallback al subject estándar
		userID = claims.Subject
	}
	if userID == "" {
		return auth.Claims{}, ErrInvalidToken
	}

	return auth.Claims{
		UserID: userID,
		Email:  claims.Email,
		Role:   auth.Role(claims.Role),
	}, nil
}
