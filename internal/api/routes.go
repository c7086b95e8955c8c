package api

import (
	"github.com/gin-gonic/gin"
	"github.com/candrle20/researchtools/internal/auth"
	"github.com/candrle20/researchtools/internal/config"
	"github.com/candrle20/researchtools/internal/container"
	"github.com/candrle20/researchtools/internal/websocket"
)

// SetupRoutes 配置路由
func SetupRoutes(cfg *config.Config, c *container.Container) *gin.Engine {
	if config.IsProduction(cfg) {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	// 中间件
	router.Use(RequestIDMiddleware())
	router.Use(RequestLogMiddleware())
	router.Use(SecurityHeadersMiddleware())
	router.Use(CORSMiddleware(cfg.CORS.AllowedOrigins))
	if cfg.RateLimit.Enabled {
		router.Use(RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	}

	// 健康检查
	healthController := NewHealthController(c.DB(), c.Hub())
	router.GET("/health", healthController.Check)

	// Prometheus 指标端点
	router.GET("/metrics", MetricsHandler)

	// WebSocket 通知推送
	router.GET("/ws/notifications", websocket.Handler(c.Hub(), c.TokenManager(), c.DB()))

	// 404 返回 JSON
	router.NoRoute(func(ctx *gin.Context) {
		Error(ctx, 404, "not found", "")
	})

	// 控制器
	authController := NewAuthController(c.AuthService())
	protocolController := NewProtocolController(c.ProtocolService(), c.QueryService())
	labController := NewLabController(c.LabService(), c.MembershipService())
	schoolController := NewSchoolController(c.SchoolService())
	userController := NewUserController(c.UserService())

	requireAuth := auth.AuthMiddleware(c.TokenManager(), c.DB())

	// API v1 路由组
	v1 := router.Group("/api/v1")
	{
		// 认证路由(注册和登录无需令牌)
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", authController.Register)
			authGroup.POST("/login", authController.Login)
			authGroup.GET("/me", requireAuth, authController.Me)
		}

		// 协议路由
		protocols := v1.Group("/protocols", requireAuth)
		{
			protocols.GET("", protocolController.List)
			protocols.POST("", protocolController.Create)
			protocols.GET("/search", protocolController.Search)
			protocols.GET("/popular", protocolController.Popular)
			protocols.GET("/:id", protocolController.Get)
			protocols.PUT("/:id", protocolController.Update)
			protocols.DELETE("/:id", protocolController.Delete)
			protocols.POST("/:id/submit", protocolController.Submit)
			protocols.POST("/:id/withdraw", protocolController.Withdraw)
			protocols.POST("/:id/acknowledge", protocolController.Acknowledge)
			protocols.POST("/:id/share", protocolController.Share)
			protocols.POST("/:id/reviews", protocolController.Review)
			protocols.GET("/:id/reviews", protocolController.ListReviews)
		}

		// 评审总览
		v1.GET("/reviews", requireAuth, protocolController.AllReviews)

		// 实验室路由
		labs := v1.Group("/labs", requireAuth)
		{
			labs.GET("", labController.List)
			labs.POST("", labController.Create)
			labs.GET("/:id", labController.Get)
			labs.PUT("/:id", labController.Update)
			labs.DELETE("/:id", labController.Delete)
		}

		// 加入申请路由
		labRequests := v1.Group("/lab-requests", requireAuth)
		{
			labRequests.GET("", labController.ListJoinRequests)
			labRequests.POST("", labController.CreateJoinRequest)
			labRequests.POST("/:id/approve", labController.ApproveJoinRequest)
			labRequests.POST("/:id/reject", labController.RejectJoinRequest)
		}

		// 成员路由
		v1.GET("/memberships", requireAuth, labController.ListMemberships)

		// 用户路由
		users := v1.Group("/users", requireAuth)
		{
			users.GET("", userController.List)
			users.GET("/:id", userController.Get)
		}

		// 学院路由
		schools := v1.Group("/schools", requireAuth)
		{
			schools.GET("", schoolController.List)
			schools.POST("", schoolController.Create)
			schools.GET("/:id", schoolController.Get)
			schools.PUT("/:id", schoolController.Update)
			schools.DELETE("/:id", schoolController.Delete)
		}
	}

	return router
}
