package service_test

import (
	"context"
	"testing"

	"github.com/candrle20/researchtools/internal/model"
	"github.com/candrle20/researchtools/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMembershipService_RequestJoin 测试创建加入申请
func TestMembershipService_RequestJoin(t *testing.T) {
	db := setupTestDB(t)
	svc := service.NewMembershipService(db, nil)
	researcher := createTestUser(t, db, "alice", model.UserTypeResearcher)
	lab := createTestLab(t, db, "NEURO")

	request, err := svc.RequestJoin(context.Background(), researcher, &service.JoinRequestInput{
		LabID:   lab.ID,
		Message: "I would like to join",
	})
	require.NoError(t, err)
	assert.Equal(t, model.JoinRequestPending, request.Status)
	assert.Equal(t, researcher.ID, request.UserID)

	// 不存在的实验室
	_, err = svc.RequestJoin(context.Background(), researcher, &service.JoinRequestInput{LabID: "missing"})
	require.Error(t, err)
	assert.True(t, service.IsKind(err, service.KindNotFound))
}

// TestMembershipService_DuplicatePendingRejected 测试重复待处理申请被拒绝
func TestMembershipService_DuplicatePendingRejected(t *testing.T) {
	db := setupTestDB(t)
	svc := service.NewMembershipService(db, nil)
	researcher := createTestUser(t, db, "alice", model.UserTypeResearcher)
	lab := createTestLab(t, db, "NEURO")

	_, err := svc.RequestJoin(context.Background(), researcher, &service.JoinRequestInput{LabID: lab.ID})
	require.NoError(t, err)

	_, err = svc.RequestJoin(context.Background(), researcher, &service.JoinRequestInput{LabID: lab.ID})
	require.Error(t, err)
	assert.True(t, service.IsKind(err, service.KindValidation))

	// 仅存在一条待处理申请
	var count int64
	require.NoError(t, db.Model(&model.LabJoinRequestModel{}).Where("user_id = ?", researcher.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

// TestMembershipService_Approve 测试批准申请
func TestMembershipService_Approve(t *testing.T) {
	db := setupTestDB(t)
	svc := service.NewMembershipService(db, nil)
	researcher := createTestUser(t, db, "alice", model.UserTypeResearcher)
	admin := createTestUser(t, db, "admin", model.UserTypeSchoolAdmin)
	lab := createTestLab(t, db, "NEURO")

	request, err := svc.RequestJoin(context.Background(), researcher, &service.JoinRequestInput{LabID: lab.ID})
	require.NoError(t, err)

	membership, err := svc.Approve(context.Background(), admin, request.ID)
	require.NoError(t, err)
	assert.Equal(t, researcher.ID, membership.UserID)
	assert.Equal(t, lab.ID, membership.LabID)
	assert.Equal(t, model.MembershipRoleResearcher, membership.Role)
	assert.True(t, membership.IsActive)
	require.NotNil(t, membership.ApprovedByID)
	assert.Equal(t, admin.ID, *membership.ApprovedByID)

	// APPROVED 为终态,重复批准失败且不会产生第二条成员记录
	_, err = svc.Approve(context.Background(), admin, request.ID)
	require.Error(t, err)
	assert.True(t, service.IsKind(err, service.KindPrecondition))

	var count int64
	require.NoError(t, db.Model(&model.LabMembershipModel{}).Where("user_id = ?", researcher.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// 成为成员后再次申请被拒绝
	_, err = svc.RequestJoin(context.Background(), researcher, &service.JoinRequestInput{LabID: lab.ID})
	require.Error(t, err)
	assert.True(t, service.IsKind(err, service.KindValidation))
}

// TestMembershipService_Reject 测试拒绝申请
func TestMembershipService_Reject(t *testing.T) {
	db := setupTestDB(t)
	svc := service.NewMembershipService(db, nil)
	researcher := createTestUser(t, db, "alice", model.UserTypeResearcher)
	admin := createTestUser(t, db, "admin", model.UserTypeSchoolAdmin)
	lab := createTestLab(t, db, "NEURO")

	request, err := svc.RequestJoin(context.Background(), researcher, &service.JoinRequestInput{LabID: lab.ID})
	require.NoError(t, err)
	require.NoError(t, svc.Reject(context.Background(), admin, request.ID))

	// 拒绝不会创建成员记录
	var count int64
	require.NoError(t, db.Model(&model.LabMembershipModel{}).Where("user_id = ?", researcher.ID).Count(&count).Error)
	assert.Equal(t, int64(0), count)

	// REJECTED 为终态
	_, err = svc.Approve(context.Background(), admin, request.ID)
	require.Error(t, err)
	assert.True(t, service.IsKind(err, service.KindPrecondition))

	// 被拒绝后允许重新申请
	_, err = svc.RequestJoin(context.Background(), researcher, &service.JoinRequestInput{LabID: lab.ID})
	require.NoError(t, err)
}

// TestMembershipService_ResolveGuard 测试处理申请的权限守卫
func TestMembershipService_ResolveGuard(t *testing.T) {
	db := setupTestDB(t)
	svc := service.NewMembershipService(db, nil)
	researcher := createTestUser(t, db, "alice", model.UserTypeResearcher)
	outsider := createTestUser(t, db, "bob", model.UserTypeResearcher)
	pi := createTestUser(t, db, "carol", model.UserTypeResearcher)

	lab := createTestLab(t, db, "NEURO")
	require.NoError(t, db.Model(&model.LabModel{}).Where("id = ?", lab.ID).Update("pi_id", pi.ID).Error)

	request, err := svc.RequestJoin(context.Background(), researcher, &service.JoinRequestInput{LabID: lab.ID})
	require.NoError(t, err)

	// 普通研究员不能处理申请
	_, err = svc.Approve(context.Background(), outsider, request.ID)
	require.Error(t, err)
	assert.True(t, service.IsKind(err, service.KindAuthorization))

	// 实验室 PI 可以批准自己实验室的申请
	membership, err := svc.Approve(context.Background(), pi, request.ID)
	require.NoError(t, err)
	assert.Equal(t, researcher.ID, membership.UserID)
}

// TestMembershipService_Listings 测试列表可见性
func TestMembershipService_Listings(t *testing.T) {
	db := setupTestDB(t)
	svc := service.NewMembershipService(db, nil)
	developer := createTestUser(t, db, "dev", model.UserTypeDeveloper)
	alice := createTestUser(t, db, "alice", model.UserTypeResearcher)
	bob := createTestUser(t, db, "bob", model.UserTypeResearcher)
	lab := createTestLab(t, db, "NEURO")

	_, err := svc.RequestJoin(context.Background(), alice, &service.JoinRequestInput{LabID: lab.ID})
	require.NoError(t, err)
	_, err = svc.RequestJoin(context.Background(), bob, &service.JoinRequestInput{LabID: lab.ID})
	require.NoError(t, err)

	// 开发者可见全部申请
	all, err := svc.ListJoinRequests(developer)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	// 研究员仅可见自己的申请
	own, err := svc.ListJoinRequests(alice)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, alice.ID, own[0].UserID)
}
