package repository_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/candrle20/researchtools/internal/database"
	"github.com/candrle20/researchtools/internal/model"
	"github.com/candrle20/researchtools/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDBForProtocol 创建测试数据库
func setupTestDBForProtocol(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, database.Migrate(db))
	return db
}

// createProtocolRow 写入一条协议记录
func createProtocolRow(t *testing.T, db *gorm.DB, researcherID string) *model.ProtocolModel {
	now := time.Now()
	protocol := &model.ProtocolModel{
		ID:           uuid.New().String(),
		Title:        "Shared protocol",
		Status:       model.ProtocolStatusDraft,
		ResearcherID: researcherID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, db.Create(protocol).Error)
	return protocol
}

// TestProtocolRepository_AddShareIdempotent 测试重复共享为幂等操作
func TestProtocolRepository_AddShareIdempotent(t *testing.T) {
	db := setupTestDBForProtocol(t)
	repo := repository.NewProtocolRepository(db)
	protocol := createProtocolRow(t, db, "owner-1")

	require.NoError(t, repo.AddShare(protocol.ID, "user-1"))

	// 主键冲突被吸收,不向调用方冒泡
	require.NoError(t, repo.AddShare(protocol.ID, "user-1"))

	var count int64
	require.NoError(t, db.Model(&model.ProtocolShareModel{}).Where("protocol_id = ?", protocol.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	shared, err := repo.IsSharedWith(protocol.ID, "user-1")
	require.NoError(t, err)
	assert.True(t, shared)

	ids, err := repo.SharedUserIDs(protocol.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"user-1"}, ids)
}

// TestProtocolRepository_IncrementViews 测试浏览计数原子递增
func TestProtocolRepository_IncrementViews(t *testing.T) {
	db := setupTestDBForProtocol(t)
	repo := repository.NewProtocolRepository(db)
	protocol := createProtocolRow(t, db, "owner-1")

	require.NoError(t, repo.IncrementViews(protocol.ID))
	require.NoError(t, repo.IncrementViews(protocol.ID))

	stored, err := repo.FindByID(protocol.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.ViewCount)
}
