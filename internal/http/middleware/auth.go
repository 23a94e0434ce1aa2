package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tradeclub/escrow-backend/internal/service"
)

// Context ключи для gin.Context.
const (
	ContextUserIDKey = "userID"
	ContextRoleKey   = "role"
)

// AuthMiddleware устанавливает личность вызывающего. Основной режим — JWT
// access токен от шлюза авторизации. trustUserHeader включает режим за
// доверенным прокси: личность берётся из заголовка X-User-ID как есть
// (так работает встраивание в платформу, где авторизацию делает шлюз).
func AuthMiddleware(tokens *service.TokenManager, trustUserHeader bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if strings.HasPrefix(auth, "Bearer ") {
			raw := strings.TrimPrefix(auth, "Bearer ")
			userID, role, err := tokens.ParseAccess(raw)
			if err != nil || userID == uuid.Nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "токен невалиден"})
				return
			}
			c.Set(ContextUserIDKey, userID)
			c.Set(ContextRoleKey, role)
			c.Next()
			return
		}

		if trustUserHeader {
			if raw := c.GetHeader("X-User-ID"); raw != "" {
				userID, err := uuid.Parse(raw)
				if err != nil {
					c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "X-User-ID должен быть валидным UUID"})
					return
				}
				c.Set(ContextUserIDKey, userID)
				c.Set(ContextRoleKey, "user")
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "требуется авторизация"})
	}
}
