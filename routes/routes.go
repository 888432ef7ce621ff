package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Zephony/zephony-go/config"
	"github.com/Zephony/zephony-go/handler"
	"github.com/Zephony/zephony-go/middleware"
	"github.com/Zephony/zephony-go/service"
)

// Resource is a REST resource. An empty route skips that half.
type Resource interface {
	CollectionRoute() string
	ResourceRoute() string
}

type (
	getAller interface{ GetAll(*gin.Context) }
	poster   interface{ Post(*gin.Context) }
	getter   interface{ Get(*gin.Context) }
	patcher  interface{ Patch(*gin.Context) }
	deleter  interface{ Delete(*gin.Context) }
)

// AddURLs registers the handlers each resource implements: GetAll and Post
// on its collection route, Get, Patch and Delete on its resource route
func AddURLs(group gin.IRoutes, resources ...Resource) {
	for _, r := range resources {
		if route := r.CollectionRoute(); route != "" {
			if h, ok := r.(getAller); ok {
				group.GET(route, h.GetAll)
			}
			if h, ok := r.(poster); ok {
				group.POST(route, h.Post)
			}
		}
		if route := r.ResourceRoute(); route != "" {
			if h, ok := r.(getter); ok {
				group.GET(route, h.Get)
			}
			if h, ok := r.(patcher); ok {
				group.PATCH(route, h.Patch)
			}
			if h, ok := r.(deleter); ok {
				group.DELETE(route, h.Delete)
			}
		}
	}
}

// Deps are the services the router hands to handlers
type Deps struct {
	DB       *gorm.DB
	Config   *config.Config
	Logger   *zap.Logger
	Mailer   service.Mailer
	SMS      *service.SMSSender
	Uploader *service.Uploader
	// ImportLimiter and LoginLimiter throttle per client IP; nil disables
	ImportLimiter *middleware.RateLimiter
	LoginLimiter  *middleware.RateLimiter
}

func NewRouter(d Deps) *gin.Engine {
	if d.Logger == nil {
		d.Logger = zap.L()
	}

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(d.Logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     d.Config.CORSAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := handler.NewAuthHandler(
		service.NewAuthService(d.Config.AdminEmail, d.Config.AdminPasswordHash, d.Config.JWT()),
		d.Config.JWTExpiryHours, !d.Config.IsDevelopment())
	authGroup := router.Group("/auth", middleware.RequestTimeout(time.Minute))
	if d.LoginLimiter != nil {
		authGroup.Use(middleware.RateLimit(d.LoginLimiter))
	}
	authGroup.POST("/login", auth.Login)
	authGroup.POST("/logout", auth.Logout)

	contacts := handler.NewContactHandler(d.DB, d.Uploader, d.Mailer, d.SMS)
	uploads := handler.NewUploadHandler(d.Uploader)

	api := router.Group("/api", middleware.RequestTimeout(30*time.Second), middleware.AuthRequired(d.Config.JWT()))
	AddURLs(api, contacts, uploads)

	importChain := []gin.HandlerFunc{middleware.RequireScope("contacts:import")}
	if d.ImportLimiter != nil {
		importChain = append(importChain, middleware.RateLimit(d.ImportLimiter))
	}
	api.POST("/contacts-import", append(importChain, contacts.Import)...)
	api.POST("/contacts/:id/sms", middleware.RequireScope("sms:send"), contacts.SendSMS)

	return router
}
