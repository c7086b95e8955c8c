package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/candrle20/researchtools/internal/auth"
	"github.com/candrle20/researchtools/internal/model"
	"github.com/candrle20/researchtools/internal/repository"
	"github.com/candrle20/researchtools/internal/utils"
	"gorm.io/gorm"
)

// AuthService 注册与登录服务接口
type AuthService interface {
	Register(ctx context.Context, req *RegisterRequest) (*model.UserModel, error)
	Login(ctx context.Context, req *LoginRequest) (*LoginResult, error)
}

// RegisterRequest 注册请求
// 自助注册只允许创建研究员账号,管理员账号由平台侧创建
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name"`
	SchoolID string `json:"school_id"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResult 登录结果
type LoginResult struct {
	Token string           `json:"token"`
	User  *model.UserModel `json:"user"`
}

// authService 认证服务实现
type authService struct {
	userRepo     repository.UserRepository
	schoolRepo   repository.SchoolRepository
	tokenManager *auth.TokenManager
	auditLogSvc  AuditLogService
}

// NewAuthService 创建认证服务
func NewAuthService(db *gorm.DB, tokenManager *auth.TokenManager, auditLogSvc AuditLogService) AuthService {
	return &authService{
		userRepo:     repository.NewUserRepository(db),
		schoolRepo:   repository.NewSchoolRepository(db),
		tokenManager: tokenManager,
		auditLogSvc:  auditLogSvc,
	}
}

// Register 注册研究员账号
func (s *authService) Register(ctx context.Context, req *RegisterRequest) (*model.UserModel, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, NewValidationError("username is required")
	}
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if err := utils.ValidateEmail(email); err != nil {
		return nil, NewValidationError("invalid email: %s", req.Email)
	}
	if len(req.Password) < 8 {
		return nil, NewValidationError("password must be at least 8 characters")
	}

	var schoolID *string
	if req.SchoolID != "" {
		if _, err := s.schoolRepo.FindByID(req.SchoolID); err != nil {
			if repository.IsNotFound(err) {
				return nil, NewValidationError("school not found: %s", req.SchoolID)
			}
			return nil, fmt.Errorf("failed to load school: %w", err)
		}
		schoolID = &req.SchoolID
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &model.UserModel{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Name:         utils.SanitizeString(req.Name),
		UserType:     model.UserTypeResearcher,
		SchoolID:     schoolID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(user); err != nil {
		// 用户名/邮箱唯一约束
		if repository.IsUniqueViolation(err) {
			return nil, NewValidationError("username or email is already taken")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if s.auditLogSvc != nil {
		_ = s.auditLogSvc.RecordAction(ctx, user.ID, "register", "user", user.ID, nil)
	}
	return user, nil
}

// Login 校验凭证并签发访问令牌
// 用户不存在与密码错误返回同一错误,避免枚举用户名
func (s *authService) Login(ctx context.Context, req *LoginRequest) (*LoginResult, error) {
	user, err := s.userRepo.FindByUsername(strings.TrimSpace(req.Username))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, NewAuthorizationError("invalid username or password")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		return nil, NewAuthorizationError("invalid username or password")
	}

	token, err := s.tokenManager.Issue(user.ID, user.Username, user.UserType)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	if s.auditLogSvc != nil {
		_ = s.auditLogSvc.RecordAction(ctx, user.ID, "login", "user", user.ID, nil)
	}
	return &LoginResult{Token: token, User: user}, nil
}
