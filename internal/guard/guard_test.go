package guard

import (
	"testing"

	"github.com/meiyue-dev/booking-manager/portal/internal/domain"
)

func authed(status domain.MemberStatus) Session {
	return Session{Authenticated: true, Status: status}
}

func TestDecide_Unauthenticated(t *testing.T) {
	paths := []string{PathRoot, PathSetPassword, PathBindWechat, PathShopInfo, PathAddService, PathAddMember, PathAppHome, "/app/services"}

	for _, path := range paths {
		got := Decide(Session{}, Completeness{}, path)
		if got != Redirect(PathLogin) {
			t.Errorf("未登录访问 %s: got %+v, want redirect %s", path, got, PathLogin)
		}
	}

	if got := Decide(Session{}, Completeness{}, PathLogin); got != Admit() {
		t.Errorf("未登录访问登录页: got %+v, want admit", got)
	}
}

func TestDecide_FixedStepStatuses(t *testing.T) {
	// 固定步骤的状态与草稿内容无关
	drafts := []Completeness{
		{},
		{ShopInfo: true, FirstService: true, AdminMember: true},
	}

	tests := []struct {
		status domain.MemberStatus
		target string
	}{
		{domain.StatusPendingPassword, PathSetPassword},
		{domain.StatusPendingWechat, PathBindWechat},
	}

	for _, tt := range tests {
		for _, dc := range drafts {
			if got := Decide(authed(tt.status), dc, PathRoot); got != Redirect(tt.target) {
				t.Errorf("%s 从根路径: got %+v, want redirect %s", tt.status, got, tt.target)
			}
			if got := Decide(authed(tt.status), dc, tt.target); got != Admit() {
				t.Errorf("%s 已在目标步骤: got %+v, want admit", tt.status, got)
			}
			if got := Decide(authed(tt.status), dc, PathAppHome); got != Redirect(PathRoot) {
				t.Errorf("%s 访问主应用: got %+v, want redirect %s", tt.status, got, PathRoot)
			}
		}
	}
}

func TestDecide_PendingSetupResolvesFirstIncompleteGroup(t *testing.T) {
	// 8 种完成度组合，永远落在顺序上第一个未完成的组
	tests := []struct {
		dc     Completeness
		target string
	}{
		{Completeness{false, false, false}, PathShopInfo},
		{Completeness{false, false, true}, PathShopInfo},
		{Completeness{false, true, false}, PathShopInfo},
		{Completeness{false, true, true}, PathShopInfo},
		{Completeness{true, false, false}, PathAddService},
		{Completeness{true, false, true}, PathAddService},
		{Completeness{true, true, false}, PathAddMember},
		// 三组都完成也停在成员步骤，绝不直接放行进入主应用
		{Completeness{true, true, true}, PathAddMember},
	}

	for _, tt := range tests {
		got := Decide(authed(domain.StatusPendingSetup), tt.dc, PathRoot)
		if got != Redirect(tt.target) {
			t.Errorf("完成度 %+v: got %+v, want redirect %s", tt.dc, got, tt.target)
		}
	}
}

func TestDecide_PendingSetupPlacement(t *testing.T) {
	dc := Completeness{ShopInfo: true}

	// 站在解析出的步骤上时放行
	if got := Decide(authed(domain.StatusPendingSetup), dc, PathAddService); got != Admit() {
		t.Errorf("已在 add-service: got %+v, want admit", got)
	}

	// 访问其他引导步骤时纠正到解析出的步骤
	if got := Decide(authed(domain.StatusPendingSetup), dc, PathAddMember); got != Redirect(PathAddService) {
		t.Errorf("访问 add-member: got %+v, want redirect %s", got, PathAddService)
	}

	// 访问主应用时退回根路径重新决策，而不是直接指向某个步骤
	if got := Decide(authed(domain.StatusPendingSetup), dc, "/app/services"); got != Redirect(PathRoot) {
		t.Errorf("访问主应用: got %+v, want redirect %s", got, PathRoot)
	}
}

func TestDecide_Active(t *testing.T) {
	onboardingPaths := []string{PathSetPassword, PathBindWechat, PathShopInfo, PathAddService, PathAddMember}
	for _, path := range onboardingPaths {
		got := Decide(authed(domain.StatusActive), Completeness{}, path)
		if got != Redirect(PathAppHome) {
			t.Errorf("ACTIVE 访问 %s: got %+v, want redirect %s", path, got, PathAppHome)
		}
	}

	appPaths := []string{PathAppHome, "/app/services", "/app/members", "/app"}
	for _, path := range appPaths {
		if got := Decide(authed(domain.StatusActive), Completeness{}, path); got != Admit() {
			t.Errorf("ACTIVE 访问 %s: got %+v, want admit", path, got)
		}
	}

	if got := Decide(authed(domain.StatusActive), Completeness{}, PathLogin); got != Redirect(PathAppHome) {
		t.Errorf("ACTIVE 访问登录页: got %+v, want redirect %s", got, PathAppHome)
	}
}

func TestDecide_UnknownStatusFailsClosed(t *testing.T) {
	got := Decide(authed(domain.MemberStatus("SUSPENDED")), Completeness{ShopInfo: true}, PathAppHome)
	if got != Redirect(PathLogin) {
		t.Errorf("未知状态: got %+v, want redirect %s", got, PathLogin)
	}
}

func TestDecide_Idempotent(t *testing.T) {
	sess := authed(domain.StatusPendingSetup)
	dc := Completeness{ShopInfo: true}

	first := Decide(sess, dc, PathRoot)
	second := Decide(sess, dc, PathRoot)
	if first != second {
		t.Errorf("相同输入两次裁决不一致: %+v vs %+v", first, second)
	}
}

func TestDecide_ResumeScenario(t *testing.T) {
	// 店铺信息已填、后两组为空的用户刷新页面后应回到第二步
	got := Decide(authed(domain.StatusPendingSetup), Completeness{ShopInfo: true}, PathRoot)
	if got != Redirect(PathAddService) {
		t.Errorf("got %+v, want redirect %s", got, PathAddService)
	}
}
