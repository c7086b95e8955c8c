package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/candrle20/researchtools/internal/database"
	"github.com/candrle20/researchtools/internal/model"
	"github.com/candrle20/researchtools/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB 创建测试数据库
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, database.Migrate(db))
	return db
}

// createTestUser 创建测试用户
func createTestUser(t *testing.T, db *gorm.DB, username, userType string) *model.UserModel {
	now := time.Now()
	user := &model.UserModel{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        username + "@example.edu",
		PasswordHash: "x",
		UserType:     userType,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// createTestLab 创建测试实验室
func createTestLab(t *testing.T, db *gorm.DB, code string) *model.LabModel {
	now := time.Now()
	school := &model.SchoolModel{
		ID:        uuid.New().String(),
		Name:      "School of " + code,
		Code:      "S" + code[:3],
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, db.Create(school).Error)

	lab := &model.LabModel{
		ID:        uuid.New().String(),
		Name:      code + " Lab",
		Code:      code,
		SchoolID:  school.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, db.Create(lab).Error)
	return lab
}

// recordingNotifier 记录收到的提交通知
type recordingNotifier struct {
	protocolIDs []string
}

func (n *recordingNotifier) NotifySubmission(protocolID, protocolNumber, title, researcherID string) {
	n.protocolIDs = append(n.protocolIDs, protocolID)
}

// TestProtocolService_CreateDraft 测试创建草稿
func TestProtocolService_CreateDraft(t *testing.T) {
	db := setupTestDB(t)
	svc := service.NewProtocolService(db, nil, nil)
	researcher := createTestUser(t, db, "alice", model.UserTypeResearcher)

	protocol, err := svc.Create(context.Background(), researcher, &service.CreateProtocolRequest{
		Title:       "Zebrafish regeneration",
		Description: "Fin regeneration study",
	})
	require.NoError(t, err)

	assert.Equal(t, model.ProtocolStatusDraft, protocol.Status)
	assert.Equal(t, researcher.ID, protocol.ResearcherID)
	assert.Nil(t, protocol.ProtocolNumber, "number is not assigned without a lab")
	assert.False(t, protocol.IsNewSubmission)
	assert.Nil(t, protocol.SubmittedAt)
}

// TestProtocolService_NumberAssignment 测试协议编号分配
func TestProtocolService_NumberAssignment(t *testing.T) {
	db := setupTestDB(t)
	svc := service.NewProtocolService(db, nil, nil)
	researcher := createTestUser(t, db, "alice", model.UserTypeResearcher)
	lab := createTestLab(t, db, "NEURO")

	year := time.Now().Year()
	for i := 1; i <= 3; i++ {
		protocol, err := svc.Create(context.Background(), researcher, &service.CreateProtocolRequest{
			Title: fmt.Sprintf("Protocol %d", i),
			LabID: &lab.ID,
		})
		require.NoError(t, err)
		require.NotNil(t, protocol.ProtocolNumber)
		assert.Equal(t, fmt.Sprintf("NEURO-%d-%04d", year, i), *protocol.ProtocolNumber)
	}
}

// TestProtocolService_NumberAssignedOnFirstLabSet 测试编号在首次设置实验室时分配
func TestProtocolService_NumberAssignedOnFirstLabSet(t *testing.T) {
	db := setupTestDB(t)
	svc := service.NewProtocolService(db, nil, nil)
	researcher := createTestUser(t, db, "alice", model.UserTypeResearcher)
	lab := createTestLab(t, db, "NEURO")

	protocol, err := svc.Create(context.Background(), researcher, &service.CreateProtocolRequest{Title: "Draft without lab"})
	require.NoError(t, err)
	require.Nil(t, protocol.ProtocolNumber)

	updated, err := svc.Update(context.Background(), researcher, protocol.ID, &service.UpdateProtocolRequest{LabID: &lab.ID})
	require.NoError(t, err)
	require.NotNil(t, updated.ProtocolNumber)
	first := *updated.ProtocolNumber

	// 再次更新不会改变已分配的编号
	newTitle := "Renamed"
	updated, err = svc.Update(context.Background(), researcher, protocol.ID, &service.UpdateProtocolRequest{Title: &newTitle, LabID: &lab.ID})
	require.NoError(t, err)
	require.NotNil(t, updated.ProtocolNumber)
	assert.Equal(t, first, *updated.ProtocolNumber)
}

// TestProtocolService_Submit 测试提交流转
func TestProtocolService_Submit(t *testing.T) {
	db := setupTestDB(t)
	notifier := &recordingNotifier{}
	svc := service.NewProtocolService(db, nil, notifier)
	researcher := createTestUser(t, db, "alice", model.UserTypeResearcher)

	protocol, err := svc.Create(context.Background(), researcher, &service.CreateProtocolRequest{Title: "Mouse behavior"})
	require.NoError(t, err)

	submitted, err := svc.Submit(context.Background(), researcher, protocol.ID)
	require.NoError(t, err)

	assert.Equal(t, model.ProtocolStatusInReview, submitted.Status)
	assert.True(t, submitted.IsNewSubmission)
	require.NotNil(t, submitted.SubmittedAt)
	assert.Equal(t, []string{protocol.ID}, notifier.protocolIDs)

	// 重复提交被状态前置条件拒绝
	_, err = svc.Submit(context.Background(), researcher, protocol.ID)
	require.Error(t, err)
	assert.True(t, service.IsKind(err, service.KindPrecondition))
}

// TestProtocolService_SubmitByNonOwner 测试非所有者提交被拒绝
func TestProtocolService_SubmitByNonOwner(t *testing.T) {
	db := setupTestDB(t)
	svc := service.NewProtocolService(db, nil, nil)
	researcher := createTestUser(t, db, "alice", model.UserTypeResearcher)
	other := createTestUser(t, db, "bob", model.UserTypeResearcher)

	protocol, err := svc.Create(context.Background(), researcher, &service.CreateProtocolRequest{Title: "Mouse behavior"})
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), other, protocol.ID)
	require.Error(t, err)
	assert.True(t, service.IsKind(err, service.KindAuthorization))

	// 状态未发生变更
	var stored model.ProtocolModel
	require.NoError(t, db.Where("id = ?", protocol.ID).First(&stored).Error)
	assert.Equal(t, model.ProtocolStatusDraft, stored.Status)
}

// TestProtocolService_AcknowledgeIdempotent 测试确认操作幂等
func TestProtocolService_AcknowledgeIdempotent(t *testing.T) {
	db := setupTestDB(t)
	svc := service.NewProtocolService(db, nil, nil)
	researcher := createTestUser(t, db, "alice", model.UserTypeResearcher)
	admin := createTestUser(t, db, "admin", model.UserTypeSchoolAdmin)

	protocol, err := svc.Create(context.Background(), researcher, &service.CreateProtocolRequest{Title: "Mouse behavior"})
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), researcher, protocol.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Acknowledge(context.Background(), admin, protocol.ID))
	require.NoError(t, svc.Acknowledge(context.Background(), admin, protocol.ID), "second acknowledge succeeds")

	var stored model.ProtocolModel
	require.NoError(t, db.Where("id = ?", protocol.ID).First(&stored).Error)
	assert.False(t, stored.IsNewSubmission)
	assert.Equal(t, model.ProtocolStatusInReview, stored.Status, "status is untouched")

	// 研究员无确认权限
	err = svc.Acknowledge(context.Background(), researcher, protocol.ID)
	require.Error(t, err)
	assert.True(t, service.IsKind(err, service.KindAuthorization))
}

// TestProtocolService_Review 测试评审决定
func TestProtocolService_Review(t *testing.T) {
	db := setupTestDB(t)
	svc := service.NewProtocolService(db, nil, nil)
	researcher := createTestUser(t, db, "alice", model.UserTypeResearcher)
	admin := createTestUser(t, db, "admin", model.UserTypeSchoolAdmin)

	protocol, err := svc.Create(context.Background(), researcher, &service.CreateProtocolRequest{Title: "Mouse behavior"})
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), researcher, protocol.ID)
	require.NoError(t, err)

	review, err := svc.Review(context.Background(), admin, protocol.ID, &service.ReviewRequest{
		Decision: model.ProtocolStatusApproved,
		Comments: "Looks good",
	})
	require.NoError(t, err)
	assert.Equal(t, admin.ID, review.ReviewerID)
	assert.Equal(t, model.ProtocolStatusApproved, review.Decision)

	var stored model.ProtocolModel
	require.NoError(t, db.Where("id = ?", protocol.ID).First(&stored).Error)
	assert.Equal(t, model.ProtocolStatusApproved, stored.Status)
	assert.False(t, stored.IsNewSubmission)

	// 仅一条评审记录
	var count int64
	require.NoError(t, db.Model(&model.ProtocolReviewModel{}).Where("protocol_id = ?", protocol.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// 不在评审中的协议拒绝新的决定
	_, err = svc.Review(context.Background(), admin, protocol.ID, &service.ReviewRequest{Decision: model.ProtocolStatusRejected})
	require.Error(t, err)
	assert.True(t, service.IsKind(err, service.KindPrecondition))
}

// TestProtocolService_ReviewValidation 测试评审校验
func TestProtocolService_ReviewValidation(t *testing.T) {
	db := setupTestDB(t)
	svc := service.NewProtocolService(db, nil, nil)
	researcher := createTestUser(t, db, "alice", model.UserTypeResearcher)
	admin := createTestUser(t, db, "admin", model.UserTypeSchoolAdmin)

	protocol, err := svc.Create(context.Background(), researcher, &service.CreateProtocolRequest{Title: "Mouse behavior"})
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), researcher, protocol.ID)
	require.NoError(t, err)

	// 非法决定值
	_, err = svc.Review(context.Background(), admin, protocol.ID, &service.ReviewRequest{Decision: "MAYBE"})
	require.Error(t, err)
	assert.True(t, service.IsKind(err, service.KindValidation))

	// 研究员无评审权限
	_, err = svc.Review(context.Background(), researcher, protocol.ID, &service.ReviewRequest{Decision: model.ProtocolStatusApproved})
	require.Error(t, err)
	assert.True(t, service.IsKind(err, service.KindAuthorization))
}

// TestProtocolService_Withdraw 测试撤回
func TestProtocolService_Withdraw(t *testing.T) {
	db := setupTestDB(t)
	svc := service.NewProtocolService(db, nil, nil)
	researcher := createTestUser(t, db, "alice", model.UserTypeResearcher)

	protocol, err := svc.Create(context.Background(), researcher, &service.CreateProtocolRequest{Title: "Mouse behavior"})
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), researcher, protocol.ID)
	require.NoError(t, err)

	withdrawn, err := svc.Withdraw(context.Background(), researcher, protocol.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ProtocolStatusWithdrawn, withdrawn.Status)
	assert.False(t, withdrawn.IsNewSubmission)

	// 终态协议不能再撤回
	_, err = svc.Withdraw(context.Background(), researcher, protocol.ID)
	require.Error(t, err)
	assert.True(t, service.IsKind(err, service.KindPrecondition))
}

// TestProtocolService_GetVisibility 测试可见性与浏览计数
func TestProtocolService_GetVisibility(t *testing.T) {
	db := setupTestDB(t)
	svc := service.NewProtocolService(db, nil, nil)
	researcher := createTestUser(t, db, "alice", model.UserTypeResearcher)
	stranger := createTestUser(t, db, "mallory", model.UserTypeResearcher)
	admin := createTestUser(t, db, "admin", model.UserTypeDeveloper)

	protocol, err := svc.Create(context.Background(), researcher, &service.CreateProtocolRequest{Title: "Mouse behavior"})
	require.NoError(t, err)

	// 无关研究员按不存在处理
	_, err = svc.Get(context.Background(), stranger, protocol.ID)
	require.Error(t, err)
	assert.True(t, service.IsKind(err, service.KindNotFound))

	// 所有者与管理员可见,每次访问递增浏览计数
	got, err := svc.Get(context.Background(), researcher, protocol.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ViewCount)

	got, err = svc.Get(context.Background(), admin, protocol.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.ViewCount)
}

// TestProtocolService_Share 测试共享
func TestProtocolService_Share(t *testing.T) {
	db := setupTestDB(t)
	svc := service.NewProtocolService(db, nil, nil)
	researcher := createTestUser(t, db, "alice", model.UserTypeResearcher)
	peer := createTestUser(t, db, "bob", model.UserTypeResearcher)

	protocol, err := svc.Create(context.Background(), researcher, &service.CreateProtocolRequest{Title: "Mouse behavior"})
	require.NoError(t, err)

	// 非法邮箱
	err = svc.Share(context.Background(), researcher, protocol.ID, "not-an-email")
	require.Error(t, err)
	assert.True(t, service.IsKind(err, service.KindValidation))

	// 未注册邮箱
	err = svc.Share(context.Background(), researcher, protocol.ID, "ghost@example.edu")
	require.Error(t, err)
	assert.True(t, service.IsKind(err, service.KindNotFound))

	// 正常共享后对方可见
	require.NoError(t, svc.Share(context.Background(), researcher, protocol.ID, peer.Email))
	got, err := svc.Get(context.Background(), peer, protocol.ID)
	require.NoError(t, err)
	assert.Equal(t, protocol.ID, got.ID)

	// 重复共享为幂等操作
	require.NoError(t, svc.Share(context.Background(), researcher, protocol.ID, peer.Email))
	var count int64
	require.NoError(t, db.Model(&model.ProtocolShareModel{}).Where("protocol_id = ?", protocol.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// 无访问权的用户不能共享
	stranger := createTestUser(t, db, "mallory", model.UserTypeResearcher)
	err = svc.Share(context.Background(), stranger, protocol.ID, peer.Email)
	require.Error(t, err)
	assert.True(t, service.IsKind(err, service.KindAuthorization))
}

// TestProtocolService_Delete 测试删除守卫
func TestProtocolService_Delete(t *testing.T) {
	db := setupTestDB(t)
	svc := service.NewProtocolService(db, nil, nil)
	researcher := createTestUser(t, db, "alice", model.UserTypeResearcher)
	other := createTestUser(t, db, "bob", model.UserTypeResearcher)

	protocol, err := svc.Create(context.Background(), researcher, &service.CreateProtocolRequest{Title: "Mouse behavior"})
	require.NoError(t, err)

	// 非所有者删除被拒绝
	err = svc.Delete(context.Background(), other, protocol.ID)
	require.Error(t, err)
	assert.True(t, service.IsKind(err, service.KindAuthorization))

	// 提交后不再是草稿,删除被拒绝
	_, err = svc.Submit(context.Background(), researcher, protocol.ID)
	require.NoError(t, err)
	err = svc.Delete(context.Background(), researcher, protocol.ID)
	require.Error(t, err)
	assert.True(t, service.IsKind(err, service.KindPrecondition))

	// 草稿可以删除
	draft, err := svc.Create(context.Background(), researcher, &service.CreateProtocolRequest{Title: "Another draft"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(context.Background(), researcher, draft.ID))

	var count int64
	require.NoError(t, db.Model(&model.ProtocolModel{}).Where("id = ?", draft.ID).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

// TestProtocolService_UpdateGuards 测试更新守卫
func TestProtocolService_UpdateGuards(t *testing.T) {
	db := setupTestDB(t)
	svc := service.NewProtocolService(db, nil, nil)
	researcher := createTestUser(t, db, "alice", model.UserTypeResearcher)
	admin := createTestUser(t, db, "admin", model.UserTypeSchoolAdmin)

	protocol, err := svc.Create(context.Background(), researcher, &service.CreateProtocolRequest{Title: "Mouse behavior"})
	require.NoError(t, err)

	// 提交后协议锁定
	_, err = svc.Submit(context.Background(), researcher, protocol.ID)
	require.NoError(t, err)

	newTitle := "Edited"
	_, err = svc.Update(context.Background(), researcher, protocol.ID, &service.UpdateProtocolRequest{Title: &newTitle})
	require.Error(t, err)
	assert.True(t, service.IsKind(err, service.KindPrecondition))

	// 要求修改后重新开放编辑
	_, err = svc.Review(context.Background(), admin, protocol.ID, &service.ReviewRequest{Decision: model.ProtocolStatusRevisionRequested})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), researcher, protocol.ID, &service.UpdateProtocolRequest{Title: &newTitle})
	require.NoError(t, err)
	assert.Equal(t, "Edited", updated.Title)
}
