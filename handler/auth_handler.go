package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Zephony/zephony-go/models"
	"github.com/Zephony/zephony-go/service"
	"github.com/Zephony/zephony-go/validators"
)

const authCookie = "auth_token"

type loginPayload struct {
	Email    string `json:"email" validate:"required,valid_email"`
	Password string `json:"password" validate:"required,allowed_password"`
}

type AuthHandler struct {
	svc          *service.AuthService
	cookieMaxAge int
	secureCookie bool
}

// NewAuthHandler issues cookies that live expiryHours and are marked
// Secure when secureCookie is set
func NewAuthHandler(svc *service.AuthService, expiryHours int, secureCookie bool) *AuthHandler {
	return &AuthHandler{svc: svc, cookieMaxAge: expiryHours * 3600, secureCookie: secureCookie}
}

// Login sets the token as an HttpOnly cookie and returns it for clients
// that send it as a bearer token
func (h *AuthHandler) Login(c *gin.Context) {
	var payload loginPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, "data", "Request body must be a JSON object")
		return
	}
	if handleControllerError(c, validators.Validate(&payload)) {
		return
	}

	token, err := h.svc.Login(payload.Email, payload.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		zap.L().Info("failed login", zap.String("email", payload.Email), zap.String("client_ip", c.ClientIP()))
		respondError(c, http.StatusUnauthorized, "data", "Invalid credentials")
		return
	}
	if handleControllerError(c, err) {
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(authCookie, token, h.cookieMaxAge, "/", "", h.secureCookie, true)
	Respond(c, models.Responsify(map[string]any{"token": token}, "Login successful", http.StatusOK))
}

func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(authCookie, "", -1, "/", "", h.secureCookie, true)
	Respond(c, models.Responsify(nil, "Logged out", http.StatusOK))
}
