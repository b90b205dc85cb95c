package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"accounts-api/internal/metrics"
	"accounts-api/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas de cuentas.
// m puede ser nil cuando las métricas están deshabilitadas.
func NewRouter(
	logger *zap.Logger,
	m *metrics.Metrics,
	jwtSvc *service.JWTService,
	accountH *AccountHandler,
	authH *AuthHandler,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging, recovery y métricas.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery())
	if m != nil {
		r.Use(metricsMiddleware(m))
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("", jsonContentTypeMiddleware())

	accounts := api.Group("/accounts")
	accounts.POST("", accountH.CreateAccount)
	accounts.GET("/exists", accountH.AccountExists)
	accounts.GET("/:id", accountH.GetPublicProfile)

	me := accounts.Group("/me", JWTAuthMiddleware(jwtSvc))
	me.GET("", accountH.GetMe)
	me.PUT("/email-preference", accountH.UpdateEmailPreference)
	me.PUT("/email", accountH.UpdateEmail)
	me.PUT("/username", accountH.UpdateUsername)
	me.PUT("/password", accountH.UpdatePassword)

	auth := api.Group("/auth")
	auth.POST("/login", authH.Login)
	auth.POST("/refresh", authH.RefreshToken)
	auth.POST("/logout", authH.Logout)
	auth.POST("/password/forgot", authH.ForgotPassword)
	auth.POST("/password/reset", authH.ResetPassword)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// metricsMiddleware etiqueta por ruta registrada para acotar la cardinalidad.
func metricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.HTTPRequestsInFlight.Inc()
		defer m.HTTPRequestsInFlight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
