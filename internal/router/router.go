package router

import (
	"inkpost/internal/handlers"
	"inkpost/internal/identity"
	"inkpost/internal/middleware"
	"inkpost/internal/ratelimit"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

// Handlers groups everything RegisterRoutes mounts.
type Handlers struct {
	Posts       *handlers.PostHandler
	Upvotes     *handlers.RelationHandler
	Bookmarks   *handlers.RelationHandler
	Suggestions *handlers.SuggestionHandler
	Images      *handlers.ImageHandler
	Health      *handlers.HealthHandler
}

type Options struct {
	SessionSecret string
	SecureCookies bool
	Verifier      *identity.Verifier
	Users         middleware.UserResolver
	Limiter       *ratelimit.KeyedRateLimiter
}

// New builds the engine with the shared middleware chain and all routes.
func New(h Handlers, opts Options) *gin.Engine {
	handlers.RegisterValidators()

	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware(),
		middleware.RequestLogger(),
		gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/uploads"})),
		middleware.Sessions(opts.SessionSecret, opts.SecureCookies),
		middleware.LoadUser(opts.Verifier, opts.Users),
	)

	RegisterRoutes(r, h, opts.Limiter)
	return r
}

func RegisterRoutes(r *gin.Engine, h Handlers, limiter *ratelimit.KeyedRateLimiter) {
	auth := middleware.AuthRequired()
	limited := middleware.RateLimit(limiter)

	r.GET("/healthz", h.Health.Healthz) // 健康检查

	// 文章 (Posts)
	posts := r.Group("/posts")
	{
		posts.GET("", h.Posts.List)                // 列表与搜索
		posts.POST("", auth, h.Posts.Create)       // 发布文章
		posts.GET("/:id", h.Posts.Get)             // 文章详情
		posts.PUT("/:id", auth, h.Posts.Update)    // 编辑文章
		posts.DELETE("/:id", auth, h.Posts.Delete) // 删除文章

		posts.GET("/:id/upvote", h.Upvotes.Status)          // 点赞数
		posts.POST("/:id/upvote", auth, h.Upvotes.Add)      // 点赞
		posts.DELETE("/:id/upvote", auth, h.Upvotes.Remove) // 取消点赞
	}

	// 收藏 (Bookmarks)
	bookmarks := r.Group("/bookmarks")
	{
		bookmarks.GET("/:id", h.Bookmarks.Status)
		bookmarks.POST("/:id", auth, h.Bookmarks.Add)
		bookmarks.DELETE("/:id", auth, h.Bookmarks.Remove)
	}

	// 我的 (Me)
	me := r.Group("/me")
	me.Use(auth)
	{
		me.GET("/posts", h.Posts.MyPosts)         // 我的文章
		me.GET("/bookmarks", h.Posts.MyBookmarks) // 我的收藏
	}

	// AI 写作助手 (Suggestions)
	suggestions := r.Group("/suggestions")
	suggestions.Use(limited)
	{
		suggestions.POST("/titles", h.Suggestions.Titles)
		suggestions.POST("/tags", h.Suggestions.Tags)
		suggestions.POST("/summary", h.Suggestions.Summary)
		suggestions.POST("/image", h.Suggestions.Image)
	}

	r.POST("/uploads/image", auth, limited, h.Images.Upload) // 图片上传
}
