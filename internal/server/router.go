package server

import (
	"net/http"
	"time"

	"ppms/internal/config"
	"ppms/internal/handlers"
	"ppms/internal/middleware"
	"ppms/internal/models"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const sessionName = "ppms_session"

type Deps struct {
	Config  *config.Config
	DB      *gorm.DB
	Logger  *zap.Logger
	Handler *handlers.Handler
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Metrics())
	if len(d.Config.CORSOrigins) > 0 {
		r.Use(buildCORSMiddleware(d.Config.CORSOrigins))
	}

	store := cookie.NewStore([]byte(d.Config.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int((12 * time.Hour).Seconds()),
		HttpOnly: true,
		Secure:   d.Config.SessionSecure,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, store))
	r.Use(middleware.InjectUser(d.DB, d.Config.StatementTimeout, d.Logger))
	r.Use(middleware.RequestLogger(d.Logger))

	h := d.Handler
	managers := middleware.RequireRole(models.RoleAdmin, models.RoleProjectManager)

	r.GET("/", handlers.IndexPage)
	r.GET("/health", handlers.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.POST("/auth/login", h.Login)
	api.POST("/auth/logout", h.Logout)

	authed := api.Group("")
	authed.Use(middleware.RequireAuth())

	authed.GET("/auth/me", h.Me)
	authed.PUT("/auth/password", h.ChangeOwnPassword)
	authed.POST("/auth/password-strength", h.PasswordStrength)

	authed.GET("/dashboard", h.Dashboard)
	authed.GET("/reports/targets", h.TargetPerformance)
	authed.GET("/reports/production", h.ProductionAnalytics)
	authed.GET("/lookups/:kind", h.Lookup)

	projects := authed.Group("/projects")
	projects.GET("", h.ListProjects)
	projects.GET("/:id", h.ShowProject)
	projects.POST("", managers, h.CreateProject)
	projects.PUT("/:id", managers, h.UpdateProject)
	projects.DELETE("/:id", managers, h.DeleteProject)

	// status changes are also open to assignees; the service decides
	workOrders := authed.Group("/work-orders")
	workOrders.GET("", h.ListWorkOrders)
	workOrders.GET("/:id", h.ShowWorkOrder)
	workOrders.POST("", managers, h.CreateWorkOrder)
	workOrders.PUT("/:id", managers, h.UpdateWorkOrder)
	workOrders.PATCH("/:id/status", h.UpdateWorkOrderStatus)
	workOrders.DELETE("/:id", managers, h.DeleteWorkOrder)

	cutting := authed.Group("/cutting")
	cutting.GET("", h.ListCutting)
	cutting.GET("/summary", h.CuttingSummary)
	cutting.GET("/:id", h.ShowCutting)
	cutting.POST("", managers, h.CreateCutting)
	cutting.PUT("/:id", managers, h.UpdateCutting)
	cutting.PATCH("/:id/status", h.UpdateCuttingStatus)
	cutting.PATCH("/:id/cut-date", h.SetCutDate)
	cutting.DELETE("/:id", managers, h.DeleteCutting)

	balance := authed.Group("/balance")
	balance.GET("", h.ListBalance)
	balance.GET("/summary", h.BalanceSummary)
	balance.GET("/:id", h.ShowBalance)
	balance.POST("", managers, h.CreateBalance)
	balance.PUT("/:id", managers, h.UpdateBalance)
	balance.PATCH("/:id/status", h.UpdateBalanceStatus)
	balance.PATCH("/:id/fulfilled", h.UpdateBalanceFulfilled)
	balance.DELETE("/:id", managers, h.DeleteBalance)

	production := authed.Group("/production")
	production.GET("", h.ListProduction)
	production.GET("/:id", h.ShowProduction)
	production.POST("", h.CreateProduction)
	production.POST("/:id/duplicate", h.DuplicateProduction)
	production.PUT("/:id", managers, h.UpdateProduction)
	production.DELETE("/:id", managers, h.DeleteProduction)

	targets := authed.Group("/targets")
	targets.GET("", h.ListTargets)
	targets.GET("/:id", h.ShowTarget)
	targets.POST("", managers, h.CreateTarget)
	targets.PUT("/:id", managers, h.UpdateTarget)
	targets.PATCH("/:id/progress", h.UpdateTargetProgress)
	targets.DELETE("/:id", managers, h.DeleteTarget)

	dispatch := authed.Group("/dispatch")
	dispatch.GET("", h.ListDispatch)
	dispatch.GET("/:id", h.ShowDispatch)
	dispatch.POST("", managers, h.CreateDispatch)
	dispatch.PUT("/:id", managers, h.UpdateDispatch)
	dispatch.PATCH("/:id/status", h.UpdateDispatchStatus)
	dispatch.PATCH("/:id/delivery-date", h.SetDeliveryDate)
	dispatch.DELETE("/:id", managers, h.DeleteDispatch)

	auditLog := authed.Group("/audit", managers)
	auditLog.GET("", h.ListAuditLogs)
	auditLog.GET("/analytics", h.AuditAnalytics)
	auditLog.GET("/tables", h.AuditTables)
	auditLog.GET("/export", h.ExportAuditLogs)
	auditLog.GET("/history/:table/:id", h.AuditHistory)

	users := authed.Group("/users", middleware.RequireRole(models.RoleAdmin))
	users.GET("", h.ListUsers)
	users.POST("", h.CreateUser)
	users.GET("/:id/activity", h.UserActivity)
	users.PATCH("/:id/role", h.UpdateUserRole)
	users.PUT("/:id/password", h.ResetUserPassword)
	users.DELETE("/:id", h.DeleteUser)

	return r
}

func buildCORSMiddleware(origins []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Type", "Content-Disposition", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}
