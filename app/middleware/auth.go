package appMiddleware

import (
	"os"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const UserIDKey contextKey = "userID"

type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

func jwtSecretKey() []byte {
	if secret := os.Getenv("JWT_SECRET_KEY"); secret != "" {
		return []byte(secret)
	}
	return []byte("dev-secret-key")
}
