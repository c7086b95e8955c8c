package auth_test

import (
	"testing"

	"github.com/candrle20/researchtools/internal/auth"
	"github.com/candrle20/researchtools/internal/model"
	"github.com/stretchr/testify/assert"
)

// TestCan 测试能力表
func TestCan(t *testing.T) {
	developer := &model.UserModel{ID: "d", UserType: model.UserTypeDeveloper}
	admin := &model.UserModel{ID: "a", UserType: model.UserTypeSchoolAdmin}
	researcher := &model.UserModel{ID: "r", UserType: model.UserTypeResearcher}

	// 管理侧能力
	assert.True(t, auth.Can(developer, auth.CapReviewProtocol))
	assert.True(t, auth.Can(developer, auth.CapManageSchools))
	assert.True(t, auth.Can(admin, auth.CapReviewProtocol))
	assert.True(t, auth.Can(admin, auth.CapAcknowledge))
	assert.True(t, auth.Can(admin, auth.CapApproveMembership))
	assert.True(t, auth.Can(admin, auth.CapViewAllProtocols))

	// 学院管理员不能管理学院本身
	assert.False(t, auth.Can(admin, auth.CapManageSchools))

	// 研究员侧能力
	assert.True(t, auth.Can(researcher, auth.CapSubmitProtocol))
	assert.True(t, auth.Can(researcher, auth.CapDeleteOwnDraft))
	assert.False(t, auth.Can(researcher, auth.CapReviewProtocol))
	assert.False(t, auth.Can(researcher, auth.CapAcknowledge))
	assert.False(t, auth.Can(researcher, auth.CapViewAllProtocols))

	// 管理员不走研究员提交路径
	assert.False(t, auth.Can(developer, auth.CapSubmitProtocol))

	// 空用户或未知类型无任何能力
	assert.False(t, auth.Can(nil, auth.CapSubmitProtocol))
	assert.False(t, auth.Can(&model.UserModel{UserType: "ghost"}, auth.CapSubmitProtocol))
}
