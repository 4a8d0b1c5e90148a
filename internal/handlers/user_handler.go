package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type UserHandler struct{}

func NewUserHandler() *UserHandler {
	return &UserHandler{}
}

// @Summary      Профиль текущего пользователя
// @Tags         User
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Router       /api/user/profile [get]
func (h *UserHandler) Profile(c *gin.Context) {
	userID, ok := getStringFromCtx(c, "user_id")
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}
	email, _ := getStringFromCtx(c, "email")
	isAdmin, _ := c.Get("is_admin")

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":       userID,
			"email":    email,
			"is_admin": isAdmin,
		},
	})
}
