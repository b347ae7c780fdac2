package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"verdure_back_end/internal/middleware"
	"verdure_back_end/internal/models"
	"verdure_back_end/internal/utils"
)

// AuthHandler authentifie l'unique compte administrateur, défini par la configuration.
type AuthHandler struct {
	secret       string
	adminEmail   string
	passwordHash string
}

func NewAuthHandler(secret, adminEmail, passwordHash string) *AuthHandler {
	return &AuthHandler{secret: secret, adminEmail: adminEmail, passwordHash: passwordHash}
}

// 🔐 POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if h.adminEmail == "" || h.passwordHash == "" {
		log.Println("⚠️ Connexion admin refusée : ADMIN_EMAIL ou ADMIN_PASSWORD_HASH absent")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Identifiants invalides"})
		return
	}

	ok, err := utils.VerifyPassword(req.Password, h.passwordHash)
	if err != nil {
		log.Printf("❌ Hash admin invalide: %v", err)
	}
	if !strings.EqualFold(strings.TrimSpace(req.Email), h.adminEmail) || !ok {
		log.Printf("❌ Échec connexion admin depuis %s", c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Identifiants invalides"})
		return
	}

	user := models.User{ID: "admin", Email: h.adminEmail, Role: middleware.RoleAdmin}
	token, err := utils.GenerateJWT(h.secret, user)
	if err != nil {
		respondError(c, err)
		return
	}

	log.Printf("✅ Admin connecté: %s", user.Email)
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"user_id": c.GetString("user_id"),
		"email":   c.GetString("email"),
		"role":    c.GetString("role"),
	})
}
