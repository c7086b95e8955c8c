package auth

import "github.com/candrle20/researchtools/internal/model"

// Capability 操作能力
// 用封闭的能力表替代散落在各处的 user_type 字符串比较
type Capability string

const (
	CapSubmitProtocol     Capability = "submit_protocol"     // 提交协议评审
	CapReviewProtocol     Capability = "review_protocol"     // 评审协议
	CapAcknowledge        Capability = "acknowledge"         // 确认新提交
	CapApproveMembership  Capability = "approve_membership"  // 审批加入申请
	CapManageSchools      Capability = "manage_schools"      // 管理学院
	CapManageLabs         Capability = "manage_labs"         // 管理实验室
	CapViewAllProtocols   Capability = "view_all_protocols"  // 查看全部协议
	CapDeleteOwnDraft     Capability = "delete_own_draft"    // 删除自己的草稿
)

// capabilities 用户类型到能力集的映射
var capabilities = map[string]map[Capability]bool{
	model.UserTypeDeveloper: {
		CapReviewProtocol:    true,
		CapAcknowledge:       true,
		CapApproveMembership: true,
		CapManageSchools:     true,
		CapManageLabs:        true,
		CapViewAllProtocols:  true,
	},
	model.UserTypeSchoolAdmin: {
		CapReviewProtocol:    true,
		CapAcknowledge:       true,
		CapApproveMembership: true,
		CapManageLabs:        true,
		CapViewAllProtocols:  true,
	},
	model.UserTypeResearcher: {
		CapSubmitProtocol: true,
		CapDeleteOwnDraft: true,
	},
}

// Can 判断用户是否具备指定能力
func Can(user *model.UserModel, cap Capability) bool {
	if user == nil {
		return false
	}
	return capabilities[user.UserType][cap]
}
