package http

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"csi-api/internal/service"
)

// RouterDeps agrupa lo que necesita el router para montar las rutas.
type RouterDeps struct {
	Logger         *zap.Logger
	JWT            *service.JWTService
	Users          *UserHandler
	Tests          *TestHandler
	Registry       *prometheus.Registry
	AllowedOrigins []string
}

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	r.Use(zapLoggerMiddleware(deps.Logger), gin.Recovery(), corsMiddleware(deps.AllowedOrigins), jsonContentTypeMiddleware())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "CSI API running",
			"version": "2.0.0",
			"modules": []string{"auth", "csi-test", "results"},
		})
	})
	if deps.Registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))
	}

	auth := r.Group("/auth")
	auth.POST("/register", deps.Users.Register)
	auth.POST("/login", deps.Users.Login)
	auth.POST("/refresh", deps.Users.RefreshToken)
	auth.POST("/logout", deps.Users.Logout)
	auth.POST("/password/reset/request", deps.Users.RequestPasswordReset)
	auth.POST("/password/reset/confirm", deps.Users.ConfirmPasswordReset)

	requireAuth := JWTAuthMiddleware(deps.JWT)

	profile := r.Group("/profile", requireAuth)
	profile.GET("", deps.Users.GetProfile)
	profile.PUT("", deps.Users.UpdateProfile)
	profile.PUT("/password", deps.Users.ChangePassword)

	r.GET("/tests/questions", deps.Tests.GetQuestions)
	tests := r.Group("/tests", requireAuth)
	tests.POST("", deps.Tests.OpenSession)
	tests.GET("", deps.Tests.ListSessions)
	tests.POST("/:id/responses", deps.Tests.SubmitResponses)
	tests.GET("/:id/results", deps.Tests.GetResults)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// corsMiddleware permite solo los origenes configurados (el frontend en desarrollo es localhost:3000).
func corsMiddleware(allowed []string) gin.HandlerFunc {
	allowAll := slices.Contains(allowed, "*")
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (allowAll || slices.Contains(allowed, origin)) {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			// con comodin no se comparten credenciales con cualquier origen
			if !allowAll {
				h.Set("Access-Control-Allow-Credentials", "true")
			}
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			h.Add("Vary", "Origin")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
