package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/issuedesk/internal/models"
	"gorm.io/gorm"
)

// contributorKey is the gin context key holding the authenticated contributor.
const contributorKey = "contributor"

// Middleware validates the bearer token on incoming requests and resolves
// it to a Contributor. Requests without a valid token are rejected with 401.
func Middleware(db *gorm.DB, mgr *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		accountID, err := mgr.Verify(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		var contributor models.Contributor
		err = db.Preload("Account").Where("account_id = ?", accountID).First(&contributor).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown identity"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "identity lookup failed"})
			return
		}

		c.Set(contributorKey, &contributor)
		c.Next()
	}
}

// CurrentContributor returns the contributor resolved by Middleware.
// It returns nil on routes the middleware does not cover.
func CurrentContributor(c *gin.Context) *models.Contributor {
	v, ok := c.Get(contributorKey)
	if !ok {
		return nil
	}
	contributor, _ := v.(*models.Contributor)
	return contributor
}
