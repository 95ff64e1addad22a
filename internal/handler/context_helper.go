package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/stylistiq/wardrobe-api/internal/middleware"
	"github.com/stylistiq/wardrobe-api/internal/models"
)

// currentClaims extracts JWT claims placed by the JWT middleware.
func currentClaims(c *gin.Context) (*models.JWTClaims, bool) {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*models.JWTClaims)
	return claims, ok
}

// currentPrincipal extracts the owner identity placed by the principal
// middleware. Every wardrobe route runs behind that middleware, so a miss
// here is a routing bug.
func currentPrincipal(c *gin.Context) (models.Principal, bool) {
	value, exists := c.Get(middleware.ContextPrincipalKey)
	if !exists {
		return models.Principal{}, false
	}
	principal, ok := value.(models.Principal)
	return principal, ok
}
