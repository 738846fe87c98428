package controllers

import (
	"net/http"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/cppla/bloghub/middleware"
	"github.com/cppla/bloghub/utils"
)

// NotFound renders the 404 page for unmatched routes and unresolved entities.
// The body names the requested path.
func NotFound(ctx *gin.Context) {
	render(ctx, http.StatusNotFound, "core/404.html", gin.H{"path": ctx.Request.URL.Path})
}

// CSRFFailure renders the 403 page shown when a form token is missing or wrong.
func CSRFFailure(ctx *gin.Context) {
	render(ctx, http.StatusForbidden, "core/403csrf.html", nil)
}

// PermissionDenied renders the generic 403 page.
func PermissionDenied(ctx *gin.Context) {
	render(ctx, http.StatusForbidden, "core/403.html", nil)
}

// ServerError renders the 500 page.
func ServerError(ctx *gin.Context) {
	render(ctx, http.StatusInternalServerError, "core/500.html", nil)
}

// render adds the request chrome (current user, CSRF token) to data and writes the page.
func render(ctx *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if user, ok := middleware.CurrentUser(ctx); ok {
		data["user"] = user
	}
	data["csrf_token"] = middleware.CSRFToken(ctx)
	ctx.HTML(status, name, data)
}

// serverError reports err to every configured sink and answers with the 500 page.
func serverError(ctx *gin.Context, err error) {
	_ = ctx.Error(err)
	if span := trace.SpanFromContext(ctx.Request.Context()); span.IsRecording() {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	utils.Logger.Error("request failed",
		zap.Error(err),
		zap.String("method", ctx.Request.Method),
		zap.String("path", ctx.Request.URL.Path),
	)
	if hub := sentrygin.GetHubFromContext(ctx); hub != nil {
		hub.CaptureException(err)
	} else if sentry.CurrentHub().Client() != nil {
		sentry.CaptureException(err)
	}
	ServerError(ctx)
}
