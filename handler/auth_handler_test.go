package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zephony/zephony-go/service"
	"github.com/Zephony/zephony-go/util"
)

func TestLoginLogout(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hash, err := util.HashPassword("correct horse")
	require.NoError(t, err)
	jwtCfg := util.JWTConfig{Secret: "s", ExpiryHours: 2}

	h := NewAuthHandler(service.NewAuthService("Admin@Example.com", hash, jwtCfg), 2, true)
	r := gin.New()
	r.POST("/login", h.Login)
	r.POST("/logout", h.Logout)

	post := func(path string, body any) *httptest.ResponseRecorder {
		raw, _ := json.Marshal(body)
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := post("/login", map[string]string{"email": "admin@example.com", "password": "correct horse"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	claims, err := util.ValidateToken(resp.Data.Token, jwtCfg)
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", claims.Subject)
	assert.Equal(t, service.AdminScopes, claims.Scopes)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "auth_token", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, 7200, cookies[0].MaxAge)

	w = post("/login", map[string]string{"email": "admin@example.com", "password": "wrong password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = post("/login", map[string]string{"email": "someone@example.com", "password": "correct horse"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = post("/login", map[string]string{"email": "bad", "password": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = post("/logout", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	cookies = w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "", cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
}

func TestLoginUnconfigured(t *testing.T) {
	svc := service.NewAuthService("", "", util.JWTConfig{Secret: "s"})
	_, err := svc.Login("", "")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}
