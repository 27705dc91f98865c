package jwt

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dog-registry/internal/ports/auth"
)

const testKey = "super-secret-test-key"

func signToken(t *testing.T, key string, claims jwt.Claims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte(key))
	require.NoError(t, err)
	return s
}

func TestVerify(t *testing.T) {
	v := NewVerifier(testKey, "registry-idp")

	token := signToken(t, testKey, tokenClaims{
		UserID: "user-1",
		Email:  "ana@example.com",
		Role:   "breeder",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "registry-idp",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	claims, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "ana@example.com", claims.Email)
	assert.Equal(t, auth.RoleBreeder, claims.Role)
}

func TestVerify_SubjectFallback(t *testing.T) {
	v := NewVerifier(testKey, "")

	token := signToken(t, testKey, tokenClaims{
		Role: "owner",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-2",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	claims, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-2", claims.UserID)
}

func TestVerify_Rejections(t *testing.T) {
	v := NewVerifier(testKey, "registry-idp")
	ctx := context.Background()

	// Firmado con otra key.
	token := signToken(t, "other-key", tokenClaims{
		UserID:           "user-1",
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "registry-idp"},
	})
	_, err := v.Verify(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Issuer equivocado.
	token = signToken(t, testKey, tokenClaims{
		UserID:           "user-1",
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "someone-else"},
	})
	_, err = v.Verify(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Expirado.
	token = signToken(t, testKey, tokenClaims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "registry-idp",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	_, err = v.Verify(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Sin identidad utilizable.
	token = signToken(t, testKey, tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "registry-idp"},
	})
	_, err = v.Verify(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Basura.
	_, err = v.Verify(ctx, "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
