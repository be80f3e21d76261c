package httpserver

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"miniapp-shop/internal/domain"
)

const (
	sessionCookie = "shop_session"
	csrfHeader    = "X-CSRF-Token"
)

type ctxKey string

const sessionCtxKey ctxKey = "session"

func accessLog(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if sess := sessionFrom(c); sess != nil {
			fields = append(fields, zap.String("shopper_id", sess.ShopperID))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			logger.Error("http request", fields...)
		default:
			logger.Info("http request", fields...)
		}
	}
}

func recovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error("panic recovered", zap.Any("panic", recovered), zap.String("path", c.Request.URL.Path))
		c.AbortWithStatusJSON(http.StatusInternalServerError, apiError{Success: false, Message: msgInternal})
	})
}

// sessionMiddleware attaches the shopper session, issuing a new one (and its
// cookie) when the request carries none or an expired one.
func sessionMiddleware(svc sessionService, logger *zap.Logger, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie(sessionCookie)
		sess, created, err := svc.Resolve(c.Request.Context(), token)
		if err != nil {
			logger.Error("resolve session", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, apiError{Success: false, Message: msgInternal})
			return
		}
		if created {
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(sessionCookie, sess.Token, int(svc.TTL().Seconds()), "/", "", secure, true)
		}
		ctx := context.WithValue(c.Request.Context(), sessionCtxKey, sess)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// csrfMiddleware requires the session's CSRF token in the X-CSRF-Token header
// on unsafe methods.
func csrfMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}
		sess := sessionFrom(c)
		if sess == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apiError{Success: false, Message: msgNoSession})
			return
		}
		got := c.GetHeader(csrfHeader)
		if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(sess.CSRFToken)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, apiError{Success: false, Message: msgCSRF})
			return
		}
		c.Next()
	}
}

func sessionFrom(c *gin.Context) *domain.Session {
	sess, _ := c.Request.Context().Value(sessionCtxKey).(*domain.Session)
	return sess
}
