package guard

import (
	"strings"

	"github.com/meiyue-dev/booking-manager/portal/internal/domain"
)

// 受守卫管理的路径
const (
	PathRoot        = "/"
	PathLogin       = "/login"
	PathSetPassword = "/onboarding/set-password"
	PathBindWechat  = "/onboarding/bind-wechat"
	PathShopInfo    = "/onboarding/shop-info"
	PathAddService  = "/onboarding/add-service"
	PathAddMember   = "/onboarding/add-member"
	PathAppHome     = "/app/appointments"
)

type Action string

const (
	ActionAdmit    Action = "admit"
	ActionRedirect Action = "redirect"
)

// Decision 是一次导航的裁决结果，只在当次导航内有效，从不持久化
type Decision struct {
	Action Action `json:"action"`
	Target string `json:"target,omitempty"`
}

func Admit() Decision {
	return Decision{Action: ActionAdmit}
}

func Redirect(target string) Decision {
	return Decision{Action: ActionRedirect, Target: target}
}

// Session 是守卫需要的会话视图
type Session struct {
	Authenticated bool
	Status        domain.MemberStatus
}

// Completeness 是守卫需要的草稿视图，按组独立判断
type Completeness struct {
	ShopInfo     bool
	FirstService bool
	AdminMember  bool
}

// Decide 根据会话状态、草稿完成度和请求路径给出放行或重定向。
// 纯函数，每次导航都重新计算，从不缓存：状态停在 PENDING_SETUP 的整个
// 向导期间，草稿内容会在两次导航之间变化。
func Decide(sess Session, dc Completeness, path string) Decision {
	if !sess.Authenticated {
		if path == PathLogin {
			return Admit()
		}
		return Redirect(PathLogin)
	}

	switch sess.Status {
	case domain.StatusActive:
		// 已完成开通的用户不允许回放引导流程
		if isAppPath(path) {
			return Admit()
		}
		return Redirect(PathAppHome)
	case domain.StatusPendingPassword:
		return place(PathSetPassword, path)
	case domain.StatusPendingWechat:
		return place(PathBindWechat, path)
	case domain.StatusPendingSetup:
		return place(resolveSetupStep(dc), path)
	default:
		// 未知状态按失败关闭处理
		return Redirect(PathLogin)
	}
}

// resolveSetupStep 严格按 店铺 → 服务 → 成员 的顺序取第一个未完成的组，
// 三组都完成时仍然落在成员步骤，绝不在这里放行进入主应用。
func resolveSetupStep(dc Completeness) string {
	switch {
	case !dc.ShopInfo:
		return PathShopInfo
	case !dc.FirstService:
		return PathAddService
	default:
		return PathAddMember
	}
}

// place 把用户安置到 target 步骤：已经站在目标上就放行，
// 试图进入主应用则退回根路径重新决策，保证目标步骤只在一处推导。
func place(target, path string) Decision {
	switch {
	case path == target:
		return Admit()
	case isAppPath(path):
		return Redirect(PathRoot)
	default:
		return Redirect(target)
	}
}

func isAppPath(path string) bool {
	return path == "/app" || strings.HasPrefix(path, "/app/")
}
