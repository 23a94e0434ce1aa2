package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// AdminMiddleware пропускает только операторов. Две формы привилегии:
// роль admin в токене либо операторский ключ в заголовке X-Admin-Key,
// сверяемый с bcrypt-хэшем из конфигурации. Ключ в открытом виде нигде
// не хранится и в логи не попадает.
func AdminMiddleware(adminKeyHash string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if role, ok := c.Get(ContextRoleKey); ok && role == "admin" {
			c.Next()
			return
		}

		key := c.GetHeader("X-Admin-Key")
		if key != "" && adminKeyHash != "" {
			if err := bcrypt.CompareHashAndPassword([]byte(adminKeyHash), []byte(key)); err == nil {
				c.Set(ContextRoleKey, "admin")
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "требуются права оператора"})
	}
}
