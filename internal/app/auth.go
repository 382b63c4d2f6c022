package app

import (
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleAdmin     = "admin"
	RoleCandidate = "candidate"

	ctxRole    = "auth.role"
	ctxSubject = "auth.subject"
)

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AuthMiddleware accepts either an HS256 JWT carrying role and sub claims, or
// one of the static tokens, which act as admin.
func AuthMiddleware(staticTokens []string, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
			return
		}
		parts := strings.Fields(auth)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		tokenStr := parts[1]

		// JWT path
		if jwtSecret != "" {
			var cl claims
			_, err := jwt.ParseWithClaims(tokenStr, &cl, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrTokenMalformed
				}
				return []byte(jwtSecret), nil
			}, jwt.WithLeeway(5*time.Second))
			if err == nil {
				role := cl.Role
				if role == "" {
					role = RoleCandidate
				}
				c.Set(ctxRole, role)
				c.Set(ctxSubject, cl.Subject)
				c.Next()
				return
			}
		}

		// static tokens
		if slices.Contains(staticTokens, tokenStr) {
			c.Set(ctxRole, RoleAdmin)
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
	}
}

// RequireRole rejects callers whose role is not one of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !slices.Contains(roles, c.GetString(ctxRole)) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

// candidateScope returns the candidate a candidate-role caller is limited to.
// Admins are not scoped.
func candidateScope(c *gin.Context) (string, bool) {
	if c.GetString(ctxRole) != RoleCandidate {
		return "", false
	}
	return c.GetString(ctxSubject), true
}
