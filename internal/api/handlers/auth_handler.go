package handlers

import (
	"net/http"
	"time"

	"example.com/fieldwork/services/workorders/internal/api/middleware"
	"example.com/fieldwork/services/workorders/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type AuthHandler struct {
	service      *services.AuthService
	cookieName   string
	cookieTTL    time.Duration
	cookieSecure bool
}

func NewAuthHandler(service *services.AuthService, cookieName string, cookieTTL time.Duration, cookieSecure bool) *AuthHandler {
	return &AuthHandler{
		service:      service,
		cookieName:   cookieName,
		cookieTTL:    cookieTTL,
		cookieSecure: cookieSecure,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	token, identity, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.SetCookie(h.cookieName, token, int(h.cookieTTL.Seconds()), "/", "", h.cookieSecure, true)
	c.JSON(http.StatusOK, gin.H{
		"message": "Logged in",
		"user": gin.H{
			"user_id":   identity.UserID,
			"full_name": identity.FullName,
			"email":     identity.Email,
			"role":      identity.Role,
		},
	})
}

func (h *AuthHandler) Me(c *gin.Context) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Not logged in"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":   identity.UserID,
		"full_name": identity.FullName,
		"email":     identity.Email,
		"role":      identity.Role,
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	token, err := c.Cookie(h.cookieName)
	if err == nil && token != "" {
		if err := h.service.Logout(c.Request.Context(), token); err != nil {
			log.Warn().Err(err).Msg("Failed to delete session")
		}
	}

	c.SetCookie(h.cookieName, "", -1, "/", "", h.cookieSecure, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}
