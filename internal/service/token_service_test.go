package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-assessment-api/internal/models"
	appErrors "github.com/noah-isme/sma-assessment-api/pkg/errors"
)

func signClaims(t *testing.T, method jwt.SigningMethod, key interface{}, claims *models.JWTClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func teacherClaims(issuer string, expiresIn time.Duration) *models.JWTClaims {
	return &models.JWTClaims{
		UserID:    "user-1",
		Role:      models.RoleTeacher,
		SchoolID:  testSchool,
		TeacherID: teacherAda,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		},
	}
}

func TestTokenServiceValidateToken(t *testing.T) {
	svc := NewTokenService("secret", "sis")
	token := signClaims(t, jwt.SigningMethodHS256, []byte("secret"), teacherClaims("sis", time.Hour))

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, teacherAda, claims.TeacherID)
	assert.Equal(t, models.RoleTeacher, claims.Role)
}

func TestTokenServiceRejects(t *testing.T) {
	svc := NewTokenService("secret", "sis")

	cases := map[string]string{
		"wrong secret": signClaims(t, jwt.SigningMethodHS256, []byte("other"), teacherClaims("sis", time.Hour)),
		"wrong issuer": signClaims(t, jwt.SigningMethodHS256, []byte("secret"), teacherClaims("elsewhere", time.Hour)),
		"expired":      signClaims(t, jwt.SigningMethodHS256, []byte("secret"), teacherClaims("sis", -time.Minute)),
		"wrong alg":    signClaims(t, jwt.SigningMethodHS512, []byte("secret"), teacherClaims("sis", time.Hour)),
		"garbage":      "not-a-token",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ValidateToken(token)
			assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
		})
	}
}
