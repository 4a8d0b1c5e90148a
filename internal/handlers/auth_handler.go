package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"accounthub/internal/models"
	"accounthub/internal/services"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// @Summary      Регистрация
// @Description  Создаёт аккаунт и отправляет письмо с подтверждением
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        register  body      models.RegisterRequest  true  "Данные регистрации"
// @Success      201       {object}  models.User
// @Failure      400       {object}  map[string]string
// @Failure      409       {object}  map[string]string
// @Router       /api/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	// PasswordHash помечен json:"-", наружу не уйдет
	c.JSON(http.StatusCreated, gin.H{"user": user})
}

// @Summary      Вход в систему
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        login  body      models.LoginRequest  true  "Данные для входа"
// @Success      200    {object}  services.LoginResult
// @Failure      401    {object}  map[string]string
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		log.Printf("[auth][login] failed for email=%q: %v", req.Email, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// @Summary      Подтверждение email
// @Tags         Auth
// @Produce      json
// @Param        id    path      string  true  "ID пользователя"
// @Param        hash  path      string  true  "Хэш из письма"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      410   {object}  map[string]string
// @Router       /api/auth/verify-email/{id}/{hash} [get]
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	id := c.Param("id")
	hash := c.Param("hash")

	if err := h.authService.VerifyEmail(c.Request.Context(), id, hash); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": services.MsgEmailVerified})
}

// @Summary      Повторная отправка письма с подтверждением
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        resend  body      models.ResendVerificationRequest  true  "Email"
// @Success      200     {object}  map[string]string
// @Failure      404     {object}  map[string]string
// @Failure      409     {object}  map[string]string
// @Router       /api/auth/resend-verification [post]
func (h *AuthHandler) ResendVerification(c *gin.Context) {
	var req models.ResendVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.authService.ResendVerification(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": services.MsgVerificationEmailSent})
}

// @Summary      Запрос сброса пароля
// @Description  Ответ одинаков для существующего и несуществующего email
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        forgot  body      models.ForgotPasswordRequest  true  "Email"
// @Success      200     {object}  map[string]string
// @Router       /api/auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req models.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.authService.ForgotPassword(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": msg})
}

// @Summary      Сброс пароля по токену
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        reset  body      models.ResetPasswordRequest  true  "Токен и новый пароль"
// @Success      200    {object}  map[string]string
// @Failure      400    {object}  map[string]string
// @Failure      410    {object}  map[string]string
// @Router       /api/auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req models.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.authService.ResetPassword(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": msg})
}
