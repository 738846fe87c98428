package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	CSRFCookieName = "csrftoken"
	CSRFFormField  = "csrfmiddlewaretoken"
	CSRFHeader     = "X-CSRFToken"
	// ContextCSRFKey holds the token templates embed into forms.
	ContextCSRFKey = "csrf_token"

	csrfCookieMaxAge = 365 * 24 * 60 * 60
)

// CSRF implements double-submit protection: every visitor gets a random token
// cookie, and unsafe requests must echo it in the form field or header.
// Mismatches are handed to onFailure (the 403 CSRF page).
func CSRF(enabled bool, onFailure gin.HandlerFunc) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, err := ctx.Cookie(CSRFCookieName)
		hadCookie := err == nil && validCSRFToken(token)
		if !hadCookie {
			token = uuid.NewString()
			ctx.SetSameSite(http.SameSiteLaxMode)
			ctx.SetCookie(CSRFCookieName, token, csrfCookieMaxAge, "/", "", false, false)
		}
		ctx.Set(ContextCSRFKey, token)

		if enabled && !isSafeMethod(ctx.Request.Method) {
			sent := ctx.GetHeader(CSRFHeader)
			if sent == "" {
				sent = ctx.PostForm(CSRFFormField)
			}
			if !hadCookie || subtle.ConstantTimeCompare([]byte(sent), []byte(token)) != 1 {
				onFailure(ctx)
				ctx.Abort()
				return
			}
		}
		ctx.Next()
	}
}

// CSRFToken returns the request's token for embedding in forms.
func CSRFToken(ctx *gin.Context) string {
	return ctx.GetString(ContextCSRFKey)
}

func validCSRFToken(token string) bool {
	_, err := uuid.Parse(token)
	return err == nil
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}
