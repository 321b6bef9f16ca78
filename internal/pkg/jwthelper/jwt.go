package jwthelper

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

type CustomClaims struct {
	UserID    uint   `json:"user_id"`
	UserAgent string `json:"user_agent"`
	jwt.RegisteredClaims
}

func GenerateToken(key []byte, userID uint, userAgent string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := CustomClaims{
		UserID:    userID,
		UserAgent: userAgent,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("token.SignedString -> %w", err)
	}

	return signed, nil
}

func ParseToken(key []byte, tokenString string) (*CustomClaims, error) {
	claims := &CustomClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID == 0 {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
