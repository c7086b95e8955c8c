package database_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/candrle20/researchtools/internal/database"
	"github.com/candrle20/researchtools/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupMigratedDB 创建并迁移测试数据库
func setupMigratedDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, database.Migrate(db))
	return db
}

// TestMigrate_UserColumnsMatchModel 测试用户表列名与模型映射一致
func TestMigrate_UserColumnsMatchModel(t *testing.T) {
	db := setupMigratedDB(t)

	now := time.Now()
	schoolID := uuid.New().String()
	user := &model.UserModel{
		ID:           uuid.New().String(),
		Username:     "alice",
		Email:        "alice@example.edu",
		PasswordHash: "x",
		Name:         "Alice",
		UserType:     model.UserTypeResearcher,
		SchoolID:     &schoolID,
		Bio:          "fish person",
		ORCID:        "0000-0002-1825-0097",
		Phone:        "555-0100",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	// 写入触碰全部列,列名不匹配会在这里报错
	require.NoError(t, db.Create(user).Error)

	var stored model.UserModel
	require.NoError(t, db.Where("id = ?", user.ID).First(&stored).Error)
	assert.Equal(t, "0000-0002-1825-0097", stored.ORCID)
	assert.Equal(t, "fish person", stored.Bio)
}

// TestMigrate_UniqueIndexes 测试迁移后唯一索引生效
func TestMigrate_UniqueIndexes(t *testing.T) {
	db := setupMigratedDB(t)

	now := time.Now()
	first := &model.UserModel{
		ID: uuid.New().String(), Username: "alice", Email: "alice@example.edu",
		PasswordHash: "x", UserType: model.UserTypeResearcher, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, db.Create(first).Error)

	// 用户名唯一
	dupe := &model.UserModel{
		ID: uuid.New().String(), Username: "alice", Email: "other@example.edu",
		PasswordHash: "x", UserType: model.UserTypeResearcher, CreatedAt: now, UpdatedAt: now,
	}
	assert.Error(t, db.Create(dupe).Error)

	// 迁移可重复执行
	require.NoError(t, database.Migrate(db))
}
