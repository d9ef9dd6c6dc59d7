// server/internal/api/routes/routes.go
package routes

import (
	"equipment-requests-api-server/config"
	"equipment-requests-api-server/internal/api/handlers"
	"equipment-requests-api-server/internal/api/middleware"
	"equipment-requests-api-server/internal/auth"
	"equipment-requests-api-server/internal/models"
	"equipment-requests-api-server/internal/service"
	"equipment-requests-api-server/internal/session"
	"equipment-requests-api-server/internal/socket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Deps is everything the router wires into its handlers.
type Deps struct {
	Config    config.Config
	Logger    *zap.Logger
	Tokens    *auth.TokenIssuer
	Users     handlers.AccountRepository
	Directory func(sess models.SessionContext) handlers.SiteDirectory
	Requests  *service.RequestService
	Reports   *service.ReportService
	Audit     handlers.AuditReader
	Registry  *session.Registry
	Hub       *socket.Hub
}

// SetupRouter builds the gin engine with every API route.
func SetupRouter(d Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(d.Logger))

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization", "X-Request-ID")
	if len(d.Config.Server.AllowedOrigins) == 0 || d.Config.Server.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = d.Config.Server.AllowedOrigins
	}
	router.Use(cors.New(corsCfg))

	siteURL := d.Config.SharePoint.SiteURL
	userHandler := &handlers.UserHandler{
		Users:      d.Users,
		Tokens:     d.Tokens,
		Directory:  d.Directory,
		Registry:   d.Registry,
		AdminGroup: d.Config.SharePoint.AdminGroup,
		SiteURL:    siteURL,
		Logger:     d.Logger,
	}
	requestHandler := &handlers.RequestHandler{Requests: d.Requests, Registry: d.Registry}
	adminHandler := &handlers.AdminHandler{Audit: d.Audit, Reports: d.Reports}
	webSocketHandler := &handlers.WebSocketHandler{Hub: d.Hub, Tokens: d.Tokens, Logger: d.Logger}

	authenticate := middleware.Authenticate(d.Tokens, siteURL)
	adminOnly := middleware.Authorize(models.RoleAdmin)

	apiV1 := router.Group("/api/v1")
	{
		apiV1.GET("/ws", webSocketHandler.ServeWs)

		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/login", userHandler.Login)
			authGroup.DELETE("/session", authenticate, userHandler.Logout)
		}

		me := apiV1.Group("/me")
		me.Use(authenticate)
		{
			me.GET("", userHandler.Me)
			me.GET("/filters", userHandler.GetFilters)
			me.PUT("/filters", userHandler.UpdateFilters)
		}

		requests := apiV1.Group("/requests")
		requests.Use(authenticate)
		{
			requests.GET("", requestHandler.ListRequests)
			requests.POST("", requestHandler.SubmitRequest)
			requests.GET("/:id", requestHandler.GetRequest)
			requests.POST("/:id/approve-all", adminOnly, requestHandler.ApproveAll)
			requests.POST("/:id/reject-all", adminOnly, requestHandler.RejectAll)
			requests.POST("/:id/reconcile", adminOnly, requestHandler.Reconcile)
		}

		items := apiV1.Group("/items")
		items.Use(authenticate, adminOnly)
		{
			items.PUT("/:id/status", requestHandler.SetItemStatus)
		}

		admin := apiV1.Group("/admin")
		admin.Use(authenticate, adminOnly)
		{
			admin.GET("/audit", adminHandler.ListAudit)
			admin.POST("/users", userHandler.CreateUser)
			admin.POST("/reports/requests", adminHandler.ExportRequests)
		}
	}

	return router
}
