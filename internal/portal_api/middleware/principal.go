package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/community-billing-ledger/internal/domain/shared"
)

const (
	// PrincipalIDHeader carries the authenticated user ID set by the auth proxy
	PrincipalIDHeader = "X-Principal-ID"

	// PrincipalRoleHeader carries the authenticated user role set by the auth proxy
	PrincipalRoleHeader = "X-Principal-Role"

	// PrincipalCommunityHeader carries the community scope of the principal, if any
	PrincipalCommunityHeader = "X-Principal-Community"

	// PrincipalKey is the key used to store the principal in the context
	PrincipalKey = "principal"
)

// Principal middleware resolves the authenticated actor from trusted headers
// injected by the upstream auth layer. Requests without a valid principal are
// rejected with 401 before reaching any handler.
func Principal() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.GetHeader(PrincipalIDHeader))
		if err != nil {
			abortUnauthorized(c, "missing or invalid principal ID")
			return
		}

		role := shared.Role(c.GetHeader(PrincipalRoleHeader))
		switch role {
		case shared.RoleResident, shared.RoleCommunityAdmin, shared.RoleManager:
		default:
			abortUnauthorized(c, "missing or invalid principal role")
			return
		}

		principal := shared.Principal{ID: id, Role: role}

		// The community scope is optional for managers, required otherwise
		if rawCommunity := c.GetHeader(PrincipalCommunityHeader); rawCommunity != "" {
			communityID, err := uuid.Parse(rawCommunity)
			if err != nil {
				abortUnauthorized(c, "invalid principal community")
				return
			}
			principal.CommunityID = communityID
		} else if role != shared.RoleManager {
			abortUnauthorized(c, "missing principal community")
			return
		}

		c.Set(PrincipalKey, principal)
		c.Next()
	}
}

// GetPrincipal retrieves the authenticated principal from the gin context
func GetPrincipal(c *gin.Context) (shared.Principal, bool) {
	if v, exists := c.Get(PrincipalKey); exists {
		if principal, ok := v.(shared.Principal); ok {
			return principal, true
		}
	}
	return shared.Principal{}, false
}

func abortUnauthorized(c *gin.Context, message string) {
	response := gin.H{
		"error": gin.H{
			"code":    "UNAUTHORIZED",
			"message": message,
		},
	}
	if correlationID := GetCorrelationID(c); correlationID != "" {
		response["correlation_id"] = correlationID
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, response)
}
