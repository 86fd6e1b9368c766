package upstream

import (
	"net/http"
	"time"

	"github.com/meiyue-dev/booking-manager/portal/internal/domain"
	"github.com/meiyue-dev/booking-manager/portal/internal/utils"
)

// CompleteOnboarding 一次性接收三组向导数据并原子生效：
// 建店、建首个服务、确认管理员成员，然后把状态推进到 ACTIVE。
func (s *Server) CompleteOnboarding(w http.ResponseWriter, r *http.Request) {
	var req domain.OnboardingPayload

	if err := s.readJSON(r, &req); err != nil {
		s.fail(w, http.StatusBadRequest, 1000, "请求格式错误")
		return
	}
	if !req.ShopInfo.Complete() || !req.FirstService.Complete() || !req.AdminMember.Complete() {
		s.fail(w, http.StatusBadRequest, 1007, "引导数据不完整，请重新完成三个步骤")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.callerAccount(r)
	if !ok {
		s.fail(w, http.StatusBadRequest, 1004, "账户不存在")
		return
	}
	if acct.member.Status != domain.StatusPendingSetup {
		s.fail(w, http.StatusBadRequest, 1008, "当前状态不允许提交引导数据")
		return
	}

	// 三项变更同时生效，状态只在全部成功后推进
	acct.shopSlug = utils.ShopSlug(req.ShopInfo.Name)
	acct.member.Name = req.AdminMember.Name
	acct.member.Role = domain.RoleAdministrator
	acct.member.Status = domain.StatusActive
	acct.member.UpdatedAt = time.Now()

	user := acct.member
	s.ok(w, struct {
		User *domain.Member `json:"user"`
	}{User: &user})
}
