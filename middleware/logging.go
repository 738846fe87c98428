package middleware

import (
	"net"
	"net/http"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLogger writes one structured line per request.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		path := ctx.Request.URL.Path
		query := ctx.Request.URL.RawQuery

		ctx.Next()

		fields := []zap.Field{
			zap.Int("status", ctx.Writer.Status()),
			zap.String("method", ctx.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.String("ip", ctx.ClientIP()),
			zap.Duration("latency", time.Since(start)),
			zap.String("user_agent", ctx.Request.UserAgent()),
		}
		if uid := CurrentUserID(ctx); uid != 0 {
			fields = append(fields, zap.Uint("user_id", uid))
		}

		if len(ctx.Errors) > 0 {
			logger.Error(ctx.Errors.ByType(gin.ErrorTypePrivate).String(), fields...)
			return
		}
		if ctx.Writer.Status() >= http.StatusInternalServerError {
			logger.Error("request failed", fields...)
			return
		}
		logger.Info("request processed", fields...)
	}
}

// Recovery turns panics into onPanic (the 500 page) after logging the stack.
// Client disconnects are logged and the connection is dropped without a page.
func Recovery(logger *zap.Logger, onPanic gin.HandlerFunc) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if brokenPipe(rec) {
				logger.Warn("client connection closed", zap.Any("error", rec), zap.String("path", ctx.Request.URL.Path))
				ctx.Abort()
				return
			}
			logger.Error("panic recovered",
				zap.Any("error", rec),
				zap.String("path", ctx.Request.URL.Path),
				zap.ByteString("stack", debug.Stack()),
			)
			onPanic(ctx)
			ctx.Abort()
		}()
		ctx.Next()
	}
}

func brokenPipe(rec interface{}) bool {
	ne, ok := rec.(*net.OpError)
	if !ok {
		return false
	}
	se, ok := ne.Err.(*os.SyscallError)
	if !ok {
		return false
	}
	msg := strings.ToLower(se.Error())
	return strings.Contains(msg, "broken pipe") || strings.Contains(msg, "connection reset by peer")
}
