package handler

import (
	"errors"
	"net/http"

	"github.com/meiyue-dev/booking-manager/portal/internal/domain"
	"github.com/meiyue-dev/booking-manager/portal/internal/guard"
)

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phone    string `json:"phone" validate:"required,cnphone"`
		Password string `json:"password" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	res, err := h.upstream.Login(r.Context(), req.Phone, req.Password)
	if err != nil {
		// 登录接口的 401 表示凭证错误，不走强制登出
		if errors.Is(err, domain.ErrUnauthenticated) {
			h.errorResponse(w, r, "手机号不存在或密码错误")
			return
		}
		var apiErr *domain.APIError
		if errors.As(err, &apiErr) {
			h.errorResponse(w, r, apiErr.Messages)
			return
		}
		h.internalServerError(w, r, err)
		return
	}

	h.session.Login(res.AccessToken, res.User)

	h.successResponse(w, r, "登录成功", struct {
		User            *domain.Member `json:"user"`
		NeedsOnboarding bool           `json:"needsOnboarding"`
		Next            guard.Decision `json:"next"`
	}{
		User:            res.User,
		NeedsOnboarding: res.NeedsOnboarding,
		Next:            h.decide(guard.PathRoot),
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.bind.Stop()
	h.session.Logout()
	h.successResponse(w, r, "登出成功", guard.Redirect(guard.PathLogin))
}

// Resolve 是每次受保护导航前询问的裁决端点
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		path = guard.PathRoot
	}

	h.successResponse(w, r, "裁决完成", h.decide(path))
}

func (h *Handler) GetMyInfo(w http.ResponseWriter, r *http.Request) {
	sess := h.session.Snapshot()
	h.successResponse(w, r, "获取个人信息成功", sess.User)
}

// upstreamError 统一归类上游调用失败：401 强制登出并跳回登录页，
// 业务错误原样转给前端展示，其余按内部错误处理
func (h *Handler) upstreamError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *domain.APIError
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		h.bind.Stop()
		h.session.Logout()
		h.writeJSON(w, r, http.StatusUnauthorized, Response{
			Success: false,
			Message: "登录已过期，请重新登录",
			Data:    guard.Redirect(guard.PathLogin),
		})
	case errors.As(err, &apiErr):
		h.errorResponse(w, r, apiErr.Messages)
	default:
		h.internalServerError(w, r, err)
	}
}
