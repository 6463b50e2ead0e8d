// Package router assembles the HTTP surface.
package router

import (
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/admitguard-api/internal/handler"
	"github.com/noah-isme/admitguard-api/internal/middleware"
	"github.com/noah-isme/admitguard-api/internal/models"
	"github.com/noah-isme/admitguard-api/internal/service"
	"github.com/noah-isme/admitguard-api/pkg/config"
	"github.com/noah-isme/admitguard-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/admitguard-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/admitguard-api/pkg/middleware/requestid"
)

// Dependencies carries everything the routes need.
type Dependencies struct {
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *service.MetricsService

	Tokens  middleware.TokenValidator
	Batches middleware.BatchResolver
	Audit   middleware.AuditWriter

	Auth       *handler.AuthHandler
	Users      *handler.UserHandler
	Batch      *handler.BatchHandler
	Candidates *handler.CandidateHandler
	Rules      *handler.RulesHandler
	Health     *handler.HealthHandler
}

// New builds the gin engine with every route registered.
func New(d Dependencies) *gin.Engine {
	cfg := d.Config
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(log))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(d.Metrics))

	r.GET("/", d.Health.Root)
	r.GET("/health", d.Health.Health)
	r.GET("/ready", d.Health.Ready)
	if cfg.Metrics.Enabled {
		r.GET("/metrics", d.Health.Prometheus)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(apiPrefix(cfg.APIPrefix))

	auth := api.Group("/auth")
	auth.POST("/signup", d.Auth.Signup)
	auth.POST("/login", d.Auth.Login)

	secured := api.Group("")
	secured.Use(middleware.JWT(d.Tokens))
	secured.GET("/auth/me", d.Auth.Me)
	secured.GET("/rules/default", d.Rules.Default)

	admin := secured.Group("/admin")
	admin.Use(middleware.RequireRoles(models.RoleAdmin))
	admin.GET("/users", d.Users.List)
	admin.POST("/users", d.Users.Create)

	batches := secured.Group("/batches")
	batches.GET("", d.Batch.List)
	batches.POST("", middleware.Audit(d.Audit, log, models.AuditActionBatchCreate, "batch", ""), d.Batch.Create)

	// Batch resolution is per route so the review role check can run first.
	scope := middleware.BatchScope(d.Batches)
	batchPath := "/:" + middleware.BatchParam
	candidates := batchPath + "/candidates"
	candidatePath := candidates + "/:" + handler.CandidateParam

	batches.GET(batchPath, scope, d.Batch.Get)
	batches.GET(candidates, scope, d.Candidates.List)
	batches.GET(candidates+"/export", scope, d.Candidates.Export)
	batches.POST(candidates, scope,
		middleware.Audit(d.Audit, log, models.AuditActionCandidateCreate, "candidate", ""),
		d.Candidates.Create)
	batches.GET(candidatePath, scope, d.Candidates.Get)
	batches.PUT(candidatePath, scope,
		middleware.Audit(d.Audit, log, models.AuditActionCandidateUpdate, "candidate", handler.CandidateParam),
		d.Candidates.Update)
	batches.PATCH(candidatePath+"/review",
		middleware.RequireRoles(models.RoleAdmin, models.RoleManager),
		scope,
		middleware.Audit(d.Audit, log, models.AuditActionCandidateReview, "candidate", handler.CandidateParam),
		d.Candidates.Review)

	return r
}

func apiPrefix(raw string) string {
	prefix := "/" + strings.Trim(strings.TrimSpace(raw), "/")
	if prefix == "/" {
		return ""
	}
	return prefix
}
