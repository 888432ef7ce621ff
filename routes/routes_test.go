package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Zephony/zephony-go/config"
	"github.com/Zephony/zephony-go/service"
	"github.com/Zephony/zephony-go/util"
)

type readOnly struct{}

func (readOnly) CollectionRoute() string { return "/things" }
func (readOnly) ResourceRoute() string   { return "/things/:id" }
func (readOnly) GetAll(c *gin.Context)   { c.String(http.StatusOK, "list") }
func (readOnly) Get(c *gin.Context)      { c.String(http.StatusOK, "get "+c.Param("id")) }

type collectionOnly struct{}

func (collectionOnly) CollectionRoute() string { return "/jobs" }
func (collectionOnly) ResourceRoute() string   { return "" }
func (collectionOnly) Post(c *gin.Context)     { c.Status(http.StatusCreated) }
func (collectionOnly) Delete(c *gin.Context)   { c.Status(http.StatusNoContent) }

func TestAddURLs(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	AddURLs(r.Group("/api"), readOnly{}, collectionOnly{})

	registered := map[string]bool{}
	for _, route := range r.Routes() {
		registered[route.Method+" "+route.Path] = true
	}
	assert.Equal(t, map[string]bool{
		"GET /api/things":     true,
		"GET /api/things/:id": true,
		"POST /api/jobs":      true,
	}, registered)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/things/7", nil))
	assert.Equal(t, "get 7", w.Body.String())
}

func testRouter(t *testing.T) (*gin.Engine, *config.Config) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, config.Migrate(db))

	cfg := &config.Config{
		Env:                util.EnvDevelopment,
		CORSAllowedOrigins: []string{"http://localhost:3000"},
		JWTSecret:          "secret",
		JWTExpiryHours:     1,
	}
	uploader := service.NewUploader(filepath.Join(t.TempDir(), "uploads"))
	return NewRouter(Deps{
		DB:       db,
		Config:   cfg,
		Mailer:   service.NewMailgunMailer(cfg.Mailgun(), cfg.Env, cfg.TemplateDir),
		SMS:      service.NewSMSSender(cfg.Twilio(), cfg.Env, nil),
		Uploader: uploader,
	}), cfg
}

func TestNewRouter(t *testing.T) {
	r, cfg := testRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/contacts", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := util.GenerateToken("admin", []string{"sms:send"}, cfg.JWT())
	require.NoError(t, err)

	body, _ := json.Marshal(map[string]any{"name": "Ada", "email": "ada@example.com", "phone": "5551234"})
	req := httptest.NewRequest(http.MethodPost, "/api/contacts", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/api/contacts?level=full", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"active_count":1`)

	// sms is a no-op in development
	body, _ = json.Marshal(map[string]any{"body": "hi"})
	req = httptest.NewRequest(http.MethodPost, "/api/contacts/1/sms", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/contacts-import", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCORS(t *testing.T) {
	r, _ := testRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/contacts", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodOptions, "/api/contacts", nil)
	req.Header.Set("Origin", "http://evil.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
