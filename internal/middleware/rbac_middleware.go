package middleware

import (
	"net/http"

	"performa/internal/domain"
	"performa/internal/shared/response"

	"github.com/gin-gonic/gin"
)

// RBACService is satisfied by rbac.Service; declared here to keep middleware
// free of an import on the rbac package.
type RBACService interface {
	Enforce(req domain.EnforceRequest) (bool, error)
}

func RBACAuthorize(service RBACService, resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		if role == "" || c.GetString("company_id") == "" {
			abortWith(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context")
			return
		}

		allowed, err := service.Enforce(domain.EnforceRequest{
			Role:     role,
			Resource: resource,
			Action:   action,
		})
		if err != nil {
			abortWith(c, http.StatusInternalServerError, "INTERNAL_ERROR", "authorization check failed")
			return
		}

		if !allowed {
			response.Error(c, http.StatusForbidden, "FORBIDDEN",
				"You do not have permission to access this resource",
				map[string]string{"required": resource + ":" + action},
			)
			c.Abort()
			return
		}
		c.Next()
	}
}
