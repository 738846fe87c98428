package middleware

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/bloghub/utils"
)

// captureWriter tees the response body so it can be stored after the handler ran.
type captureWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// CachePage serves GET responses from store for ttl. Entries are keyed by the
// request URI and the viewer, and are not invalidated when the data behind
// them changes: a cached page stays as rendered until it expires or the store
// is cleared.
func CachePage(store utils.PageStore, ttl time.Duration) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.Request.Method != http.MethodGet {
			ctx.Next()
			return
		}

		key := utils.PageKey(ctx.Request.URL.RequestURI(), CurrentUserID(ctx))
		if body, ok := store.Get(ctx.Request.Context(), key); ok {
			pageCacheLookups.WithLabelValues("hit").Inc()
			ctx.Data(http.StatusOK, "text/html; charset=utf-8", body)
			ctx.Abort()
			return
		}
		pageCacheLookups.WithLabelValues("miss").Inc()

		w := &captureWriter{ResponseWriter: ctx.Writer}
		ctx.Writer = w
		ctx.Next()
		ctx.Writer = w.ResponseWriter

		if w.Status() == http.StatusOK && len(ctx.Errors) == 0 {
			store.Set(ctx.Request.Context(), key, w.body.Bytes(), ttl)
		}
	}
}
