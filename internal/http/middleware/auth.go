package middleware

import (
	"github.com/gin-gonic/gin"
)

// retrieves the user id from Gin context (after JWTMiddleware has run).
func GetCurrentUser(c *gin.Context) (string, bool) {
	v, exists := c.Get(currentUserKey)
	if !exists {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}
