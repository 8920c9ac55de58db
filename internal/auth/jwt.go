package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Cookie names shared with the frontend.
const (
	UserCookieName  = "chatapp"
	AdminCookieName = "chatapp-admin"
)

type UserClaims struct {
	UserID    string `json:"_id"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

type AdminClaims struct {
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// ========== Token Generators ==========

func GenerateUserToken(userID uuid.UUID, secret []byte, ttl time.Duration) (string, error) {
	claims := &UserClaims{
		UserID:    userID.String(),
		TokenType: "user",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func GenerateAdminToken(secret []byte, ttl time.Duration) (string, error) {
	claims := &AdminClaims{
		TokenType: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ========== Token Parsers ==========

func ParseUserToken(tokenStr string, secret []byte) (uuid.UUID, error) {
	var claims UserClaims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, errors.New("invalid or expired token")
	}
	if claims.TokenType != "user" {
		return uuid.Nil, errors.New("wrong token type")
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, errors.New("malformed user id in token")
	}
	return id, nil
}

func ParseAdminToken(tokenStr string, secret []byte) error {
	var claims AdminClaims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return errors.New("invalid or expired token")
	}
	if claims.TokenType != "admin" {
		return errors.New("wrong token type")
	}
	return nil
}
