package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"referral_wallet/internal/auth"
	"referral_wallet/internal/player"
	"referral_wallet/internal/server/handlers"
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*player.Player, error)
}

type Middleware struct {
	auth   Authenticator
	logger zerolog.Logger
}

func NewMiddleware(a Authenticator, logger zerolog.Logger) *Middleware {
	return &Middleware{auth: a, logger: logger}
}

func (m *Middleware) SetupMiddleware(router *gin.Engine) {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	router.Use(m.requestLogger())

	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		m.logger.Error().Interface("panic", recovered).Str("path", c.Request.URL.Path).Msg("recovered from panic")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"status":  http.StatusInternalServerError,
			"code":    "INTERNAL",
			"message": "Something went wrong",
		})
	}))

	router.Use(func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		c.Next()
	})
}

func (m *Middleware) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		m.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Str("user_agent", c.Request.UserAgent()).
			Msg("HTTP Request")
	}
}

// AuthMiddleware resolves the bearer token and stores the player id under
// handlers.PlayerIDKey.
func (m *Middleware) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			handlers.RespondError(c, m.logger, auth.ErrTokenMissing)
			return
		}

		p, err := m.auth.Authenticate(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			handlers.RespondError(c, m.logger, err)
			return
		}

		c.Set(handlers.PlayerIDKey, p.ID)
		c.Next()
	}
}
