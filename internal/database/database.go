package database

import (
	"context"
	"fmt"
	"time"

	"github.com/candrle20/researchtools/internal/config"
	"github.com/candrle20/researchtools/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// PoolConfig 连接池配置
type PoolConfig struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime int // 秒
	ConnMaxIdleTime int // 秒
}

// BuildDSN 构建 PostgreSQL DSN
func BuildDSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
}

// GetPoolConfig 获取连接池配置
func GetPoolConfig() *PoolConfig {
	return &PoolConfig{
		MaxIdleConns:    10,
		MaxOpenConns:    100,
		ConnMaxLifetime: 3600, // 1 小时
		ConnMaxIdleTime: 600,  // 10 分钟
	}
}

// GetProductionPoolConfig 获取生产环境连接池配置
func GetProductionPoolConfig() *PoolConfig {
	return &PoolConfig{
		MaxIdleConns:    20,
		MaxOpenConns:    200,
		ConnMaxLifetime: 3600, // 1 小时
		ConnMaxIdleTime: 300,  // 5 分钟
	}
}

// Connect 连接数据库
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := BuildDSN(cfg)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	// 配置连接池
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	// 从配置中读取连接池参数,如果没有配置则使用默认值
	var poolConfig *PoolConfig
	if cfg.MaxIdleConns > 0 || cfg.MaxOpenConns > 0 {
		poolConfig = &PoolConfig{
			MaxIdleConns:    cfg.MaxIdleConns,
			MaxOpenConns:    cfg.MaxOpenConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.ConnMaxIdleTime,
		}
		if poolConfig.MaxIdleConns == 0 {
			poolConfig.MaxIdleConns = 10
		}
		if poolConfig.MaxOpenConns == 0 {
			poolConfig.MaxOpenConns = 100
		}
		if poolConfig.ConnMaxLifetime == 0 {
			poolConfig.ConnMaxLifetime = 3600
		}
		if poolConfig.ConnMaxIdleTime == 0 {
			poolConfig.ConnMaxIdleTime = 600
		}
	} else {
		poolConfig = GetPoolConfig()
	}

	sqlDB.SetMaxIdleConns(poolConfig.MaxIdleConns)
	sqlDB.SetMaxOpenConns(poolConfig.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(poolConfig.ConnMaxLifetime) * time.Second)
	sqlDB.SetConnMaxIdleTime(time.Duration(poolConfig.ConnMaxIdleTime) * time.Second)

	return db, nil
}

// ConnectWithRetry 带重试的数据库连接
func ConnectWithRetry(cfg config.DatabaseConfig, maxRetries int, retryInterval time.Duration) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	for i := 0; i < maxRetries; i++ {
		db, err = Connect(cfg)
		if err == nil {
			return db, nil
		}

		// 如果不是最后一次重试,等待后重试
		if i < maxRetries-1 {
			time.Sleep(retryInterval)
			retryInterval *= 2 // 指数退避
		}
	}

	return nil, fmt.Errorf("failed to connect database after %d retries: %w", maxRetries, err)
}

// Migrate 执行数据库迁移
func Migrate(db *gorm.DB) error {
	// 检测数据库类型
	dialector := db.Dialector.Name()

	// SQLite 不支持 jsonb,需要手动创建表
	if dialector == "sqlite" || dialector == "sqlite3" {
		if err := createSQLiteTables(db); err != nil {
			return fmt.Errorf("failed to create SQLite tables: %w", err)
		}
	} else {
		// PostgreSQL 等其他数据库使用 AutoMigrate
		if err := db.AutoMigrate(
			&model.UserModel{},
			&model.SchoolModel{},
			&model.LabModel{},
			&model.LabMembershipModel{},
			&model.LabJoinRequestModel{},
			&model.ProtocolModel{},
			&model.ProtocolShareModel{},
			&model.ProtocolReviewModel{},
			&model.ProtocolSequenceModel{},
			&model.AuditLogModel{},
		); err != nil {
			return fmt.Errorf("failed to auto migrate: %w", err)
		}
	}

	// 创建索引
	if err := CreateIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

// createSQLiteTables 为 SQLite 手动创建表(使用 TEXT 替代 jsonb)
func createSQLiteTables(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(64) PRIMARY KEY,
			username VARCHAR(150) NOT NULL,
			email VARCHAR(254) NOT NULL,
			password_hash VARCHAR(128) NOT NULL,
			name VARCHAR(255),
			user_type VARCHAR(20) NOT NULL,
			school_id VARCHAR(64),
			bio TEXT,
			orcid VARCHAR(50),
			phone VARCHAR(50),
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}

	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schools (
			id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			code VARCHAR(10) NOT NULL,
			description TEXT,
			admin_id VARCHAR(64),
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create schools table: %w", err)
	}

	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS labs (
			id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			code VARCHAR(20) NOT NULL,
			description TEXT,
			school_id VARCHAR(64) NOT NULL,
			pi_id VARCHAR(64),
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create labs table: %w", err)
	}

	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS lab_memberships (
			id VARCHAR(64) PRIMARY KEY,
			user_id VARCHAR(64) NOT NULL,
			lab_id VARCHAR(64) NOT NULL,
			role VARCHAR(20) NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT 0,
			approved_by_id VARCHAR(64),
			approved_at DATETIME,
			joined_at DATETIME NOT NULL
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create lab_memberships table: %w", err)
	}

	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS lab_join_requests (
			id VARCHAR(64) PRIMARY KEY,
			user_id VARCHAR(64) NOT NULL,
			lab_id VARCHAR(64) NOT NULL,
			status VARCHAR(20) NOT NULL,
			message TEXT,
			reviewed_by_id VARCHAR(64),
			reviewed_at DATETIME,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create lab_join_requests table: %w", err)
	}

	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS protocols (
			id VARCHAR(64) PRIMARY KEY,
			title VARCHAR(200) NOT NULL,
			protocol_number VARCHAR(50),
			description TEXT,
			status VARCHAR(20) NOT NULL,
			researcher_id VARCHAR(64) NOT NULL,
			lab_id VARCHAR(64),
			department VARCHAR(100),
			species VARCHAR(100),
			pain_category VARCHAR(50),
			animal_count INTEGER NOT NULL DEFAULT 0,
			funding_source VARCHAR(200),
			start_date DATETIME,
			end_date DATETIME,
			view_count INTEGER NOT NULL DEFAULT 0,
			is_new_submission BOOLEAN NOT NULL DEFAULT 0,
			submitted_at DATETIME,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create protocols table: %w", err)
	}

	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS protocol_shares (
			protocol_id VARCHAR(64) NOT NULL,
			user_id VARCHAR(64) NOT NULL,
			created_at DATETIME NOT NULL,
			PRIMARY KEY (protocol_id, user_id)
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create protocol_shares table: %w", err)
	}

	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS protocol_reviews (
			id VARCHAR(64) PRIMARY KEY,
			protocol_id VARCHAR(64) NOT NULL,
			reviewer_id VARCHAR(64) NOT NULL,
			decision VARCHAR(20) NOT NULL,
			comments TEXT,
			review_date DATETIME NOT NULL
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create protocol_reviews table: %w", err)
	}

	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS protocol_sequences (
			lab_id VARCHAR(64) NOT NULL,
			year INTEGER NOT NULL,
			counter INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (lab_id, year)
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create protocol_sequences table: %w", err)
	}

	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS audit_logs (
			id VARCHAR(64) PRIMARY KEY,
			user_id VARCHAR(64) NOT NULL,
			action VARCHAR(64) NOT NULL,
			resource_type VARCHAR(32) NOT NULL,
			resource_id VARCHAR(64) NOT NULL,
			request_id VARCHAR(64),
			ip VARCHAR(45),
			user_agent TEXT,
			details TEXT,
			created_at DATETIME NOT NULL
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create audit_logs table: %w", err)
	}

	return nil
}

// CreateIndexes 创建数据库索引
func CreateIndexes(db *gorm.DB) error {
	// users 表索引
	if err := db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username ON users(username)").Error; err != nil {
		return fmt.Errorf("failed to create idx_users_username: %w", err)
	}
	if err := db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(email)").Error; err != nil {
		return fmt.Errorf("failed to create idx_users_email: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_users_school_id ON users(school_id)").Error; err != nil {
		return fmt.Errorf("failed to create idx_users_school_id: %w", err)
	}

	// schools/labs 表索引
	if err := db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_schools_code ON schools(code)").Error; err != nil {
		return fmt.Errorf("failed to create idx_schools_code: %w", err)
	}
	if err := db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_labs_code ON labs(code)").Error; err != nil {
		return fmt.Errorf("failed to create idx_labs_code: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_labs_school_id ON labs(school_id)").Error; err != nil {
		return fmt.Errorf("failed to create idx_labs_school_id: %w", err)
	}

	// 成员与加入申请的唯一约束
	if err := db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_memberships_user_lab ON lab_memberships(user_id, lab_id)").Error; err != nil {
		return fmt.Errorf("failed to create idx_memberships_user_lab: %w", err)
	}
	if err := db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_join_requests_user_lab_status ON lab_join_requests(user_id, lab_id, status)").Error; err != nil {
		return fmt.Errorf("failed to create idx_join_requests_user_lab_status: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_join_requests_lab_id ON lab_join_requests(lab_id)").Error; err != nil {
		return fmt.Errorf("failed to create idx_join_requests_lab_id: %w", err)
	}

	// protocols 表索引
	if err := db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_protocols_number ON protocols(protocol_number) WHERE protocol_number IS NOT NULL").Error; err != nil {
		return fmt.Errorf("failed to create idx_protocols_number: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_protocols_status ON protocols(status)").Error; err != nil {
		return fmt.Errorf("failed to create idx_protocols_status: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_protocols_researcher ON protocols(researcher_id)").Error; err != nil {
		return fmt.Errorf("failed to create idx_protocols_researcher: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_protocols_submitted_at ON protocols(submitted_at)").Error; err != nil {
		return fmt.Errorf("failed to create idx_protocols_submitted_at: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_protocols_view_count ON protocols(view_count)").Error; err != nil {
		return fmt.Errorf("failed to create idx_protocols_view_count: %w", err)
	}

	// protocol_reviews 表索引
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_reviews_protocol_id ON protocol_reviews(protocol_id)").Error; err != nil {
		return fmt.Errorf("failed to create idx_reviews_protocol_id: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_reviews_reviewer_id ON protocol_reviews(reviewer_id)").Error; err != nil {
		return fmt.Errorf("failed to create idx_reviews_reviewer_id: %w", err)
	}

	// audit_logs 表索引
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_audit_resource ON audit_logs(resource_type, resource_id)").Error; err != nil {
		return fmt.Errorf("failed to create idx_audit_resource: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_audit_user_id ON audit_logs(user_id)").Error; err != nil {
		return fmt.Errorf("failed to create idx_audit_user_id: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_audit_created_at ON audit_logs(created_at)").Error; err != nil {
		return fmt.Errorf("failed to create idx_audit_created_at: %w", err)
	}

	return nil
}

// CheckHealth 检查数据库连接健康状态
func CheckHealth(db *gorm.DB) bool {
	if db == nil {
		return false
	}

	sqlDB, err := db.DB()
	if err != nil {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return sqlDB.PingContext(ctx) == nil
}
