package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/meiyue-dev/booking-manager/portal/internal/domain"
	"github.com/meiyue-dev/booking-manager/portal/internal/guard"
	"github.com/meiyue-dev/booking-manager/portal/internal/onboarding"
)

func (h *Handler) SetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password" validate:"required,pwdpolicy"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	user, err := h.upstream.SetPassword(r.Context(), req.Password)
	if err != nil {
		h.upstreamError(w, r, err)
		return
	}

	h.session.SetUser(user)
	h.successResponse(w, r, "设置密码成功", h.decide(guard.PathRoot))
}

// GetBindState 读取绑定子流程的当前状态，还没开始时顺手启动它。
// 轮询要跨越单个请求的生命周期，所以挂在 Background 上，由 Stop 负责收尾。
func (h *Handler) GetBindState(w http.ResponseWriter, r *http.Request) {
	snap := h.bind.Snapshot()
	if snap.State == onboarding.BindStateIdle {
		h.bind.Start(context.Background())
		snap = h.bind.Snapshot()
	}

	h.successResponse(w, r, "获取绑定状态成功", snap)
}

// RefreshBind 对应"获取新二维码"：丢弃旧 ticket，从头开始
func (h *Handler) RefreshBind(w http.ResponseWriter, r *http.Request) {
	h.bind.Refresh(context.Background())
	h.successResponse(w, r, "已重新获取二维码", h.bind.Snapshot())
}

func (h *Handler) SubmitShopInfo(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name" validate:"required,max=20"`
		Phone   string `json:"phone" validate:"required,cnphone"`
		LogoURL string `json:"logoUrl"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	h.draft.SetShopInfo(domain.ShopInfo{
		Name:    req.Name,
		Phone:   req.Phone,
		LogoURL: req.LogoURL,
	})

	h.successResponse(w, r, "已保存店铺信息", h.decide(guard.PathRoot))
}

func (h *Handler) SubmitFirstService(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name            string `json:"name" validate:"required,max=30"`
		Price           int64  `json:"price" validate:"min=0"`
		DurationMinutes int    `json:"durationMinutes" validate:"required,min=5,max=600"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	h.draft.SetFirstService(domain.FirstService{
		Name:            req.Name,
		Price:           req.Price,
		DurationMinutes: req.DurationMinutes,
	})

	h.successResponse(w, r, "已保存服务项目", h.decide(guard.PathRoot))
}

// SubmitAdminMember 是向导的最后一步：先落草稿，再发起原子提交
func (h *Handler) SubmitAdminMember(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name" validate:"required,max=20"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	h.draft.SetAdminMember(domain.AdminMember{Name: req.Name})

	if err := h.orchestrator.Complete(r.Context()); err != nil {
		if errors.Is(err, onboarding.ErrSubmitInFlight) {
			h.errorResponse(w, r, "正在提交中，请稍候")
			return
		}
		h.upstreamError(w, r, err)
		return
	}

	sess := h.session.Snapshot()
	h.successResponse(w, r, "基础设置已全部完成", struct {
		User *domain.Member `json:"user"`
		Next guard.Decision `json:"next"`
	}{
		User: sess.User,
		Next: h.decide(guard.PathRoot),
	})
}
