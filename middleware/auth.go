package middleware

import (
	"net/http"
	"strings"

	"meetwise/utils"

	"github.com/gin-gonic/gin"
)

// JWTAuthMiddleware validates the Bearer token and puts the user ID into the
// request context. Validated tokens are cached by hash so repeated requests
// skip the parse.
func JWTAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		cache := utils.GetAuthCacheClient()
		cacheKey := utils.AuthCachePrefix + utils.HashToken(tokenString)
		if userID, err := cache.Get(c.Request.Context(), cacheKey).Result(); err == nil && userID != "" {
			c.Set("userID", userID)
			c.Next()
			return
		}

		userID, err := utils.ExtractIDFromToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		cache.Set(c.Request.Context(), cacheKey, userID, utils.AuthCacheTTL)
		c.Set("userID", userID)
		c.Next()
	}
}
