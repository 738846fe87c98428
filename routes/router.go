package routes

import (
	"strings"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/cppla/bloghub/config"
	"github.com/cppla/bloghub/controllers"
	"github.com/cppla/bloghub/middleware"
	"github.com/cppla/bloghub/repository"
	"github.com/cppla/bloghub/templates"
	"github.com/cppla/bloghub/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB, pages utils.PageStore, media *utils.MediaStorage) *gin.Engine {
	// Load config and set Gin mode from configuration
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.SetHTMLTemplate(templates.Must(media.PublicURL))

	r.Use(middleware.Recovery(utils.Logger, controllers.ServerError))
	if cfg.SentryDSN != "" {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	if utils.TracingEnabled(cfg) {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(middleware.RequestLogger(utils.Logger))
	r.Use(middleware.Metrics())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "HEAD", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", middleware.CSRFHeader},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		// credentials cannot be combined with a wildcard origin
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	r.Use(middleware.Authenticate(repository.NewUserRepository(db), cfg.JWTSecret, cfg.SessionCookie))
	r.Use(middleware.CSRF(cfg.CSRFEnabled, controllers.CSRFFailure))
	r.Use(middleware.RateLimit(middleware.NewRateLimiter(cfg.RateLimitPerMinute), controllers.PermissionDenied))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})
	r.GET("/metrics", middleware.MetricsHandler())
	r.Static(strings.TrimSuffix(media.URL, "/"), media.Root)

	postController := controllers.NewPostController(db, media)
	followController := controllers.NewFollowController(db)

	ttl := time.Duration(cfg.CachePageTTLSeconds) * time.Second
	r.GET("/", middleware.CachePage(pages, ttl), postController.Index)
	r.GET("/group/:slug/", postController.GroupPosts)
	r.GET("/profile/:username/", postController.Profile)
	r.GET("/posts/:id/", postController.PostDetail)
	r.HEAD("/", postController.Index)
	r.HEAD("/group/:slug/", postController.GroupPosts)
	r.HEAD("/profile/:username/", postController.Profile)
	r.HEAD("/posts/:id/", postController.PostDetail)

	protected := r.Group("")
	protected.Use(middleware.LoginRequired(cfg.LoginURL))
	protected.GET("/create/", postController.PostCreate)
	protected.POST("/create/", postController.PostCreate)
	protected.GET("/posts/:id/edit/", postController.PostEdit)
	protected.POST("/posts/:id/edit/", postController.PostEdit)
	protected.POST("/posts/:id/comment/", postController.AddComment)
	protected.GET("/follow/", followController.FollowIndex)
	protected.POST("/profile/:username/follow/", followController.ProfileFollow)
	protected.POST("/profile/:username/unfollow/", followController.ProfileUnfollow)

	r.NoRoute(controllers.NotFound)

	return r
}
