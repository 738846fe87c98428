package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/bloghub/models"
	"github.com/cppla/bloghub/repository"
	"github.com/cppla/bloghub/utils"
)

const (
	// ContextUserKey stores the authenticated *models.User inside Gin context.
	ContextUserKey = "current_user"
)

// UserLookup resolves the user named by a session.
type UserLookup interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
}

// Authenticate resolves the current actor from the session cookie (or a Bearer
// header) issued by the identity service. It never rejects a request: an absent,
// expired or forged session simply leaves the request anonymous.
func Authenticate(users UserLookup, secret, cookieName string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if token := sessionToken(ctx, cookieName); token != "" {
			claims, err := utils.ParseSessionToken(secret, token)
			if err == nil {
				user, err := users.GetByID(ctx.Request.Context(), claims.UserID)
				switch {
				case err == nil:
					ctx.Set(ContextUserKey, user)
				case !errors.Is(err, repository.ErrNotFound):
					utils.Sugar.Warnw("session user lookup failed", "user_id", claims.UserID, "error", err)
				}
			}
		}
		ctx.Next()
	}
}

// LoginRequired redirects anonymous requests to the login page with ?next= pointing back.
func LoginRequired(loginURL string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if _, ok := CurrentUser(ctx); !ok {
			ctx.Redirect(http.StatusFound, LoginRedirectURL(loginURL, ctx.Request.URL.RequestURI()))
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

// LoginRedirectURL builds loginURL?next=<path>, leaving slashes in the path readable.
func LoginRedirectURL(loginURL, next string) string {
	sep := "?"
	if strings.Contains(loginURL, "?") {
		sep = "&"
	}
	return loginURL + sep + "next=" + escapeNext(next)
}

// CurrentUser returns the authenticated user, if any.
func CurrentUser(ctx *gin.Context) (*models.User, bool) {
	v, ok := ctx.Get(ContextUserKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*models.User)
	return u, ok && u != nil
}

// CurrentUserID returns the authenticated user's id, 0 for anonymous requests.
func CurrentUserID(ctx *gin.Context) uint {
	if u, ok := CurrentUser(ctx); ok {
		return u.ID
	}
	return 0
}

// CanEditPost is the gate for post edits: only the author may change a post.
func CanEditPost(user *models.User, post *models.Post) bool {
	return user != nil && post != nil && post.IsAuthoredBy(user.ID)
}

// CanFollow rejects self-follows; everything else is allowed for signed-in users.
func CanFollow(user *models.User, author *models.User) bool {
	return user != nil && author != nil && user.ID != author.ID
}

func sessionToken(ctx *gin.Context, cookieName string) string {
	if cookieName != "" {
		if v, err := ctx.Cookie(cookieName); err == nil && v != "" {
			return v
		}
	}
	parts := strings.SplitN(ctx.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

func escapeNext(next string) string {
	var b strings.Builder
	for i := 0; i < len(next); i++ {
		c := next[i]
		if isUnreserved(c) || c == '/' {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte("0123456789ABCDEF"[c>>4])
		b.WriteByte("0123456789ABCDEF"[c&15])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9' ||
		c == '-' || c == '_' || c == '.' || c == '~'
}
