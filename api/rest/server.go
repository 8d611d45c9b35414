// Package rest exposes the HTTP surface: registry bootstrap, catalog
// management, profiles, submissions, validation, and rankings.
package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/xploralabs/xplora/server/api/sse"
	"github.com/xploralabs/xplora/server/audit"
	"github.com/xploralabs/xplora/server/cache"
	"github.com/xploralabs/xplora/server/config"
	"github.com/xploralabs/xplora/server/middleware"
	"github.com/xploralabs/xplora/server/quest/catalog"
	"github.com/xploralabs/xplora/server/quest/profile"
	"github.com/xploralabs/xplora/server/quest/ranking"
	"github.com/xploralabs/xplora/server/quest/submission"
)

// Deps bundles everything the router needs.
type Deps struct {
	Config      *config.Config
	DB          *gorm.DB
	Cache       cache.Cache
	PubSub      cache.PubSub
	Logger      *zap.Logger
	Catalogs    *catalog.Service
	Profiles    *profile.Service
	Submissions *submission.Service
	Rankings    *ranking.Service
	Audits      *audit.Service
}

// NewRouter builds the gin engine with the full middleware chain and
// route table.
func NewRouter(d Deps) *gin.Engine {
	if d.Config.Server.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(
		middleware.TraceID(),
		middleware.Logger(d.Logger),
		middleware.Recovery(d.Logger),
		middleware.RateLimit(rate.Limit(d.Config.Security.RateLimitRPS), d.Config.Security.RateLimitBurst),
	)

	authHandler := NewAuthHandler(d.DB, d.Cache, d.Config.Security, d.Logger)
	registryHandler := NewRegistryHandler(d.Catalogs)
	catalogHandler := NewCatalogHandler(d.Catalogs, d.Audits)
	profileHandler := NewProfileHandler(d.Profiles)
	submissionHandler := NewSubmissionHandler(d.Submissions, d.Rankings, d.Audits)
	rankingHandler := NewRankingHandler(d.Rankings)
	sseHandler := sse.NewHandler(d.PubSub, d.Cache, d.Config.Security, d.Logger)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/sse", sseHandler.Stream)

	api := r.Group("/api")

	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("", middleware.Auth(d.Config.Security, d.Cache))
	authed.POST("/auth/logout", authHandler.Logout)
	authed.POST("/auth/refresh", authHandler.Refresh)

	api.POST("/registry", AdminAuth(d.Config.Server.AdminKey), registryHandler.Initialize)
	authed.GET("/registry", registryHandler.Get)

	authed.POST("/catalogs", catalogHandler.Create)
	authed.GET("/catalogs/:location", catalogHandler.Get)
	authed.POST("/catalogs/:location/quests", catalogHandler.AddQuest)
	authed.PUT("/catalogs/:location/quests/:index", catalogHandler.UpdateQuest)
	authed.DELETE("/catalogs/:location/quests/:index", catalogHandler.DeleteQuest)

	authed.POST("/profile", profileHandler.Initialize)
	authed.GET("/profile", profileHandler.Get)

	authed.POST("/submissions", submissionHandler.Submit)
	authed.GET("/submissions", submissionHandler.List)
	authed.GET("/submissions/:id", submissionHandler.Get)
	authed.POST("/submissions/:id/approve", submissionHandler.Approve)
	authed.POST("/submissions/:id/reject", submissionHandler.Reject)

	authed.GET("/ranking/xp", rankingHandler.XP)

	return r
}
