package service

import (
	"errors"
	"strings"

	"github.com/Zephony/zephony-go/util"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// AdminScopes are granted to tokens issued by AuthService
var AdminScopes = []string{"contacts:import", "sms:send"}

// AuthService logs in the single admin account configured through
// ADMIN_EMAIL and ADMIN_PASSWORD_HASH (a bcrypt hash)
type AuthService struct {
	email        string
	passwordHash string
	jwt          util.JWTConfig
}

func NewAuthService(email, passwordHash string, jwt util.JWTConfig) *AuthService {
	return &AuthService{
		email:        strings.ToLower(strings.TrimSpace(email)),
		passwordHash: passwordHash,
		jwt:          jwt,
	}
}

// Login returns a signed token when email and password match the admin
// account
func (s *AuthService) Login(email, password string) (string, error) {
	if s.email == "" || s.passwordHash == "" {
		return "", ErrInvalidCredentials
	}
	if strings.ToLower(strings.TrimSpace(email)) != s.email {
		return "", ErrInvalidCredentials
	}
	if !util.CheckPassword(s.passwordHash, password) {
		return "", ErrInvalidCredentials
	}
	return util.GenerateToken(s.email, AdminScopes, s.jwt)
}
