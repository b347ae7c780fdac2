package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const RoleAdmin = "admin"

// RequireAdmin vérifie que l'utilisateur a le rôle "admin". À placer après AuthRequired.
func RequireAdmin(c *gin.Context) {
	role, exists := c.Get("role")
	if !exists || role != RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "Accès réservé aux administrateurs"})
		c.Abort()
		return
	}
	c.Next()
}
