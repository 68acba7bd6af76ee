package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/01moynul/humanize-golang/internal/handlers"
	"github.com/01moynul/humanize-golang/internal/metrics"
	"github.com/01moynul/humanize-golang/internal/middleware"
)

// CORSMiddleware lets the web frontend at origin call the API with credentials.
func CORSMiddleware(origin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Allow ONLY the configured frontend
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)

		// 2. Allow standard security credentials
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")

		// 3. Allow the headers we actually use ("Authorization" carries the JWT)
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")

		// 4. Allow the HTTP methods we use in our API
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		// 5. Preflight requests end here
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Options are the router-level settings that are not handler dependencies.
type Options struct {
	CORSOrigin string
	Limiter    *middleware.Limiter
	Metrics    *metrics.Metrics
}

func SetupRouter(h *handlers.Handlers, opts Options) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	// --- APPLY THE CORS GUARD ---
	// This must be the very first thing the router uses
	router.Use(CORSMiddleware(opts.CORSOrigin))

	if opts.Metrics != nil {
		router.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	v1 := router.Group("/v1")
	{
		// --- Ping Route (Public) ---
		v1.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "pong!"})
		})

		// --- Auth Routes (Public) ---
		v1.POST("/register", h.Register)
		v1.POST("/login", h.Login)

		// --- Public Plan Routes ---
		v1.GET("/plans", h.GetPlans)

		// --- Protected Routes (Login Required) ---
		auth := v1.Group("/")
		auth.Use(middleware.AuthMiddleware(h.Auth), middleware.RateLimit(opts.Limiter))
		{
			auth.GET("/account", h.GetAccount)
			auth.POST("/plans/:slug/activate", h.ActivatePlan)

			// --- Humanize ---
			auth.POST("/humanize", h.Humanize)
			auth.GET("/humanize/status", h.GetHumanizeStatus)
			auth.PUT("/settings/mode", h.SetMode)

			// --- Projects ---
			auth.GET("/projects", h.GetMyProjects)
			auth.GET("/projects/:id", h.GetProject)
			auth.DELETE("/projects/:id", h.DeleteProject)
		}
	}

	return router
}
