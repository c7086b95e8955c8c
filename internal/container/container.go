package container

import (
	"fmt"
	"time"

	"github.com/candrle20/researchtools/internal/auth"
	"github.com/candrle20/researchtools/internal/config"
	"github.com/candrle20/researchtools/internal/database"
	"github.com/candrle20/researchtools/internal/repository"
	"github.com/candrle20/researchtools/internal/service"
	"github.com/candrle20/researchtools/internal/websocket"
	"gorm.io/gorm"
)

// Container 依赖注入容器
// 管理所有应用依赖,包括数据库、服务、令牌管理器和 WebSocket Hub
type Container struct {
	db                *gorm.DB
	tokenManager      *auth.TokenManager
	hub               *websocket.Hub
	auditLogService   service.AuditLogService
	authService       service.AuthService
	protocolService   service.ProtocolService
	queryService      service.QueryService
	membershipService service.MembershipService
	labService        service.LabService
	schoolService     service.SchoolService
	userService       service.UserService
}

// NewContainer 创建依赖注入容器
// 根据配置初始化所有依赖组件
func NewContainer(cfg *config.Config) (*Container, error) {
	// 初始化数据库(带重试机制)
	// 默认重试 3 次,初始间隔 1 秒,指数退避
	db, err := database.ConnectWithRetry(cfg.Database, 3, time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// 执行数据库迁移
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	if cfg.JWT.Secret == "" && config.IsProduction(cfg) {
		return nil, fmt.Errorf("jwt secret is required in production")
	}

	return NewContainerWithDB(cfg, db), nil
}

// NewContainerWithDB 用现有数据库连接组装容器
// 测试场景传入内存 SQLite
func NewContainerWithDB(cfg *config.Config, db *gorm.DB) *Container {
	tokenManager := auth.NewTokenManager(
		cfg.JWT.Secret,
		cfg.JWT.Issuer,
		time.Duration(cfg.JWT.TTL)*time.Second,
	)

	hub := websocket.NewHub()

	auditLogService := service.NewAuditLogService(repository.NewAuditLogRepository(db))
	authService := service.NewAuthService(db, tokenManager, auditLogService)
	protocolService := service.NewProtocolService(db, auditLogService, hub)
	queryService := service.NewQueryService(db)
	membershipService := service.NewMembershipService(db, auditLogService)
	labService := service.NewLabService(db, auditLogService)
	schoolService := service.NewSchoolService(db, auditLogService)
	userService := service.NewUserService(db)

	return &Container{
		db:                db,
		tokenManager:      tokenManager,
		hub:               hub,
		auditLogService:   auditLogService,
		authService:       authService,
		protocolService:   protocolService,
		queryService:      queryService,
		membershipService: membershipService,
		labService:        labService,
		schoolService:     schoolService,
		userService:       userService,
	}
}

// DB 获取数据库连接
func (c *Container) DB() *gorm.DB {
	return c.db
}

// TokenManager 获取令牌管理器
func (c *Container) TokenManager() *auth.TokenManager {
	return c.tokenManager
}

// Hub 获取 WebSocket Hub
func (c *Container) Hub() *websocket.Hub {
	return c.hub
}

// AuditLogService 获取审计日志服务
func (c *Container) AuditLogService() service.AuditLogService {
	return c.auditLogService
}

// AuthService 获取认证服务
func (c *Container) AuthService() service.AuthService {
	return c.authService
}

// ProtocolService 获取协议工作流服务
func (c *Container) ProtocolService() service.ProtocolService {
	return c.protocolService
}

// QueryService 获取协议查询服务
func (c *Container) QueryService() service.QueryService {
	return c.queryService
}

// MembershipService 获取成员服务
func (c *Container) MembershipService() service.MembershipService {
	return c.membershipService
}

// LabService 获取实验室服务
func (c *Container) LabService() service.LabService {
	return c.labService
}

// SchoolService 获取学院服务
func (c *Container) SchoolService() service.SchoolService {
	return c.schoolService
}

// UserService 获取用户服务
func (c *Container) UserService() service.UserService {
	return c.userService
}

// Close 关闭容器,清理资源
func (c *Container) Close() error {
	if c.db != nil {
		sqlDB, err := c.db.DB()
		if err != nil {
			return fmt.Errorf("failed to get sql.DB: %w", err)
		}
		if err := sqlDB.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
	}
	return nil
}
