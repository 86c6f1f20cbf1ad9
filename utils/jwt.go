package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/marior032001/jwt-pizza-service/models"
)

const tokenIssuer = "jwt-pizza-service"

type UserClaims struct {
	Name  string         `json:"name"`
	Email string         `json:"email"`
	Roles models.RoleSet `json:"roles"`
	UID   uint           `json:"uid"`
	jwt.RegisteredClaims
}

// TokenSigner issues and verifies HS256 bearer tokens for authenticated users.
type TokenSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenSigner(secret string, ttl time.Duration) *TokenSigner {
	return &TokenSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Sign returns a token for user. Every token gets its own jti, so two logins
// of the same user never share a signature.
func (s *TokenSigner) Sign(user models.AuthUser) (string, error) {
	now := s.now()
	claims := &UserClaims{
		Name:  user.Name,
		Email: user.Email,
		Roles: user.Roles,
		UID:   user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify checks the signature and expiry of tokenString and returns its user.
func (s *TokenSigner) Verify(tokenString string) (*models.AuthUser, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}

	claims, ok := token.Claims.(*UserClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	return &models.AuthUser{
		ID:    claims.UID,
		Name:  claims.Name,
		Email: claims.Email,
		Roles: claims.Roles,
	}, nil
}
