package httpserver

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"storefront-catalog/internal/metrics"
)

const userCtxKey = "userID"

func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

// userMiddleware resolves the optional bearer token to a user id. Requests
// without a valid token continue anonymously.
func userMiddleware(secret string) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		if len(key) == 0 {
			c.Next()
			return
		}
		if userID := userFromToken(bearerToken(c.GetHeader("Authorization")), key); userID != "" {
			c.Set(userCtxKey, userID)
		}
		c.Next()
	}
}

func bearerToken(header string) string {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func userFromToken(raw string, key []byte) string {
	if raw == "" {
		return ""
	}
	token, err := jwt.Parse(raw, func(*jwt.Token) (interface{}, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return ""
	}
	sub, err := token.Claims.GetSubject()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(sub)
}

func userFromContext(c *gin.Context) string {
	return c.GetString(userCtxKey)
}
