package utils

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/marior032001/jwt-pizza-service/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestGetOffset(t *testing.T) {
	assert.Equal(t, 20, GetOffset(3, 10))
	assert.Equal(t, 0, GetOffset(1, 10))
	assert.Equal(t, 5, GetOffset(2, 5))
}

func TestTokenSignature(t *testing.T) {
	tests := []struct {
		token string
		want  string
	}{
		{"abc.def.ghi", "ghi"},
		{"a.b.c.d", "d"},
		{"abc.def", ""},
		{"abc", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			assert.Equal(t, tt.want, TokenSignature(tt.token))
		})
	}
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc.def.ghi", BearerToken("Bearer abc.def.ghi"))
	assert.Equal(t, "abc.def.ghi", BearerToken("bearer abc.def.ghi"))
	assert.Equal(t, "", BearerToken("Bearer "))
	assert.Equal(t, "", BearerToken("Basic abc"))
	assert.Equal(t, "", BearerToken(""))
}

func TestBcryptHasher(t *testing.T) {
	h := BcryptHasher{Cost: bcrypt.MinCost}

	digest, err := h.Hash("admin")
	require.NoError(t, err)
	assert.NotEqual(t, "admin", digest)
	assert.True(t, h.Compare("admin", digest))
	assert.False(t, h.Compare("nope", digest))

	cost, err := bcrypt.Cost([]byte(digest))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)
}

func TestTokenSigner(t *testing.T) {
	signer := NewTokenSigner("test-secret", time.Hour)
	user := models.AuthUser{
		ID:    4,
		Name:  "franchise owner",
		Email: "f@jwt.com",
		Roles: models.RoleSet{models.DinerRole{}, models.FranchiseeRole{FranchiseID: 9}},
	}

	token, err := signer.Sign(user)
	require.NoError(t, err)
	assert.NotEmpty(t, TokenSignature(token))

	got, err := signer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, user, *got)
	assert.True(t, got.Roles.AdministersFranchise(9))

	again, err := signer.Sign(user)
	require.NoError(t, err)
	assert.NotEqual(t, TokenSignature(token), TokenSignature(again))
}

func TestTokenSignerRejects(t *testing.T) {
	signer := NewTokenSigner("test-secret", time.Hour)
	token, err := signer.Sign(models.AuthUser{ID: 1})
	require.NoError(t, err)

	_, err = NewTokenSigner("other-secret", time.Hour).Verify(token)
	assert.Error(t, err)

	_, err = signer.Verify(token + "x")
	assert.Error(t, err)

	_, err = signer.Verify("not.a.token")
	assert.Error(t, err)

	expired := NewTokenSigner("test-secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, err := expired.Sign(models.AuthUser{ID: 1})
	require.NoError(t, err)
	_, err = signer.Verify(old)
	assert.Error(t, err)
}

func TestAppErrorKinds(t *testing.T) {
	cause := errors.New("connection refused")
	tests := []struct {
		err     error
		target  error
		status  int
		message string
	}{
		{NotFound("unknown user"), ErrNotFound, http.StatusNotFound, "unknown user"},
		{Unauthorized("unauthorized"), ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{Forbidden("unauthorized"), ErrForbidden, http.StatusForbidden, "unauthorized"},
		{Validation("name, email, and password are required"), ErrValidation, http.StatusBadRequest, "name, email, and password are required"},
		{Conflict("unknown user"), ErrConflict, http.StatusConflict, "unknown user"},
		{StorageUnavailable(cause), ErrStorageUnavailable, http.StatusServiceUnavailable, "storage unavailable"},
		{TransactionFailed("unable to delete franchise", cause), ErrTransactionFailed, http.StatusInternalServerError, "unable to delete franchise"},
		{Internal("boom", cause), nil, http.StatusInternalServerError, "boom"},
		{cause, nil, http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			wrapped := fmt.Errorf("context: %w", tt.err)
			if tt.target != nil {
				assert.ErrorIs(t, wrapped, tt.target)
			}
			assert.Equal(t, tt.status, StatusCode(wrapped))
			assert.Equal(t, tt.message, PublicMessage(wrapped))
			assert.NotContains(t, PublicMessage(wrapped), "connection refused")
		})
	}

	assert.False(t, errors.Is(NotFound("x"), ErrConflict))
	assert.ErrorIs(t, TransactionFailed("x", cause), cause)
}
