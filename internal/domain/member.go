package domain

import "time"

type Role string

const (
	RoleAdministrator Role = "Administrator"
	RoleOperator      Role = "Operator"
	RolePractitioner  Role = "Practitioner"
)

type MemberStatus string

// 成员状态机，由后端权威推进，客户端只消费：
// PENDING_PASSWORD -> PENDING_WECHAT -> PENDING_SETUP -> ACTIVE
const (
	StatusPendingPassword MemberStatus = "PENDING_PASSWORD"
	StatusPendingWechat   MemberStatus = "PENDING_WECHAT"
	StatusPendingSetup    MemberStatus = "PENDING_SETUP"
	StatusActive          MemberStatus = "ACTIVE"
)

// Known 判断状态是否在已知集合内，未知状态一律按失败关闭处理
func (s MemberStatus) Known() bool {
	switch s {
	case StatusPendingPassword, StatusPendingWechat, StatusPendingSetup, StatusActive:
		return true
	}
	return false
}

// Pending 判断该状态是否仍处于开通流程中
func (s MemberStatus) Pending() bool {
	switch s {
	case StatusPendingPassword, StatusPendingWechat, StatusPendingSetup:
		return true
	}
	return false
}

type Member struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Phone        string       `json:"phone"`
	Role         Role         `json:"role"`
	Status       MemberStatus `json:"status"`
	WechatOpenID string       `json:"wechatOpenId,omitempty"`
	AvatarURL    string       `json:"avatarUrl,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}
