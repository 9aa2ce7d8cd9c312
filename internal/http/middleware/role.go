package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"marketadmin/internal/domain"
)

// RequireRoles only lets through callers whose role is in allowedRoles.
// Auth must run first so the role is on the context.
//
//	r.GET("/admin", RequireRoles("admin"), handler)
func RequireRoles(allowedRoles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[domain.NormalizeRole(r)] = struct{}{}
	}

	return func(c *gin.Context) {
		role := c.GetString(roleKey)
		if role == "" {
			abort(c, http.StatusUnauthorized, "unauthorized: no role on request")
			return
		}
		if _, ok := allowed[domain.NormalizeRole(role)]; !ok {
			abort(c, http.StatusForbidden, "forbidden: role not allowed")
			return
		}
		c.Next()
	}
}
