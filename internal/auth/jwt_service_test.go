package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "classsite/internal/errors"
	"classsite/internal/model"
)

func TestJWTService_IssueAndParse(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)
	user := &model.User{ID: 7, Account: "teacher1", Role: model.RoleTeacher}

	token, issued, err := svc.Issue(user)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.NotEmpty(t, issued.ID)

	claims, err := svc.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, model.RoleTeacher, claims.Role)
	assert.Equal(t, "7", claims.Subject)
	assert.Equal(t, issued.ID, claims.ID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestJWTService_UniqueTokenIDs(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)
	user := &model.User{ID: 1, Role: model.RoleAdmin}

	_, a, err := svc.Issue(user)
	require.NoError(t, err)
	_, b, err := svc.Issue(user)
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
}

func TestJWTService_DefaultTTL(t *testing.T) {
	assert.Equal(t, DefaultTokenTTL, NewJWTService("s", 0).TTL())
}

func TestJWTService_ParseRejects(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)
	user := &model.User{ID: 3, Role: model.RoleStudent}
	valid, _, err := svc.Issue(user)
	require.NoError(t, err)

	expired, _, err := NewJWTService("test-secret", time.Hour).
		WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) }).
		Issue(user)
	require.NoError(t, err)

	otherKey, _, err := NewJWTService("other-secret", time.Hour).Issue(user)
	require.NoError(t, err)

	parts := strings.Split(valid, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: 3}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noID, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID: 3,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	tests := map[string]string{
		"empty":       "",
		"garbage":     "not.a.token",
		"expired":     expired,
		"wrong key":   otherKey,
		"tampered":    tampered,
		"alg none":    noneToken,
		"missing jti": noID,
	}

	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			claims, err := svc.Parse(token)
			assert.Nil(t, claims)
			assert.True(t, errors.Is(err, apperrors.ErrUnauthenticated), "got %v", err)
		})
	}
}
