package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/langchou/ridegazer/internal/auth"
)

// Login 用户名密码换取 token
// POST /token (application/x-www-form-urlencoded: username, password)
func (h *Handler) Login(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	token, err := h.auth.Login(username, password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Incorrect username or password"})
		return
	}
	if err != nil {
		h.logger.Error("Failed to issue token", zap.String("username", username), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "bearer",
	})
}

// CurrentUser 当前登录用户
func (h *Handler) CurrentUser(c *gin.Context) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": auth.ErrInvalidToken.Error()})
		return
	}
	c.JSON(http.StatusOK, user)
}
