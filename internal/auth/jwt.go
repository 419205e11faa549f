package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the authenticated user identity. UserID is the internal
// database id; ExternalUserID is the client-chosen login handle.
type Claims struct {
	UserID         int64  `json:"id"`
	ExternalUserID string `json:"user_id"`
	DisplayName    string `json:"username"`
	jwt.RegisteredClaims
}

func GenerateJWT(secret []byte, userID int64, externalUserID, displayName string, ttl time.Duration) (string, error) {
	claims := Claims{
		UserID:         userID,
		ExternalUserID: externalUserID,
		DisplayName:    displayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   externalUserID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func ValidateJWT(secret []byte, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}
