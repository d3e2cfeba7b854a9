package utils

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tnqbao/gau-docgen-orchestrator/config"
)

func ExtractToken(c *gin.Context) string {
	if token, err := c.Cookie("access_token"); err == nil && token != "" {
		return token
	}
	authHeader := c.GetHeader("Authorization")
	parts := strings.Fields(authHeader)
	if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
		return parts[1]
	}
	return ""
}

func ParseToken(tokenString string, config *config.EnvConfig) (*jwt.Token, error) {
	secret := []byte(config.JWT.SecretKey)
	return jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
}

func InjectClaimsToContext(c *gin.Context, claims jwt.MapClaims) error {
	userIDStr, ok := claims["user_id"].(string)
	if !ok {
		return errors.New("invalid user_id claim")
	}
	if _, err := uuid.Parse(userIDStr); err != nil {
		return errors.New("invalid user_id claim")
	}
	c.Set("user_id", userIDStr)
	return nil
}

// GetUserIDFromContext returns the authenticated owner id injected by the
// auth middleware.
func GetUserIDFromContext(c *gin.Context) (uuid.UUID, error) {
	userID := c.GetString("user_id")
	if userID == "" {
		return uuid.Nil, errors.New("user_id not found in context")
	}
	return uuid.Parse(userID)
}
