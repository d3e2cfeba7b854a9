package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tnqbao/gau-docgen-orchestrator/entity"
	"github.com/tnqbao/gau-docgen-orchestrator/repository"
	"github.com/tnqbao/gau-docgen-orchestrator/utils"
)

// AdminMiddleware restricts a route to callers holding the admin
// capability. Runs after AuthMiddleware so the owner id is already in the
// context.
func AdminMiddleware(policies *repository.PolicyRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		ownerID, err := utils.GetUserIDFromContext(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}

		ok, err := policies.HasCapability(c.Request.Context(), ownerID, entity.CapabilityAdmin)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check capability"})
			c.Abort()
			return
		}
		if !ok {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin capability required"})
			c.Abort()
			return
		}

		c.Next()
	}
}
