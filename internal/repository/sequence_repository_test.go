package repository_test

import (
	"testing"

	"github.com/candrle20/researchtools/internal/database"
	"github.com/candrle20/researchtools/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDBForSequence 创建测试数据库
func setupTestDBForSequence(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, database.Migrate(db))
	return db
}

// TestSequenceRepository_Next 测试序列递增
func TestSequenceRepository_Next(t *testing.T) {
	db := setupTestDBForSequence(t)
	repo := repository.NewSequenceRepository(db)

	// 同一实验室同一年份连续递增
	for want := 1; want <= 3; want++ {
		got, err := repo.Next(db, "lab-1", 2026)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	// 不同实验室与不同年份各自独立计数
	got, err := repo.Next(db, "lab-2", 2026)
	require.NoError(t, err)
	assert.Equal(t, 1, got)

	got, err = repo.Next(db, "lab-1", 2027)
	require.NoError(t, err)
	assert.Equal(t, 1, got)

	got, err = repo.Next(db, "lab-1", 2026)
	require.NoError(t, err)
	assert.Equal(t, 4, got)
}

// TestSequenceRepository_NextInTransaction 测试事务内取号
func TestSequenceRepository_NextInTransaction(t *testing.T) {
	db := setupTestDBForSequence(t)
	repo := repository.NewSequenceRepository(db)

	// 回滚的事务不保留序列值
	err := db.Transaction(func(tx *gorm.DB) error {
		got, err := repo.Next(tx, "lab-1", 2026)
		require.NoError(t, err)
		assert.Equal(t, 1, got)
		return assert.AnError
	})
	require.Error(t, err)

	// 回滚后重新从 1 开始
	got, err := repo.Next(db, "lab-1", 2026)
	require.NoError(t, err)
	assert.Equal(t, 1, got)
}
