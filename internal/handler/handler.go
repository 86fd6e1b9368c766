package handler

import (
	"regexp"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	"github.com/meiyue-dev/booking-manager/portal/internal/api"
	"github.com/meiyue-dev/booking-manager/portal/internal/config"
	"github.com/meiyue-dev/booking-manager/portal/internal/draft"
	"github.com/meiyue-dev/booking-manager/portal/internal/guard"
	"github.com/meiyue-dev/booking-manager/portal/internal/onboarding"
	"github.com/meiyue-dev/booking-manager/portal/internal/session"
)

// 联系电话：11 位手机号或带区号的固话
var phonePattern = regexp.MustCompile(`^(1\d{10}|(\d{3,4}-)?\d{7,8})$`)

// 登录密码：6-20 位，必须同时包含字母和数字
var (
	pwdLetterPattern = regexp.MustCompile(`[A-Za-z]`)
	pwdDigitPattern  = regexp.MustCompile(`\d`)
)

type Handler struct {
	validate     *validator.Validate
	config       *config.Config
	translator   ut.Translator
	session      *session.Store
	draft        *draft.Store
	upstream     *api.Client
	orchestrator *onboarding.Orchestrator
	bind         *onboarding.BindFlow

	Mux *chi.Mux
}

func NewHandler(
	cfg *config.Config,
	sess *session.Store,
	dft *draft.Store,
	upstream *api.Client,
	orchestrator *onboarding.Orchestrator,
	bind *onboarding.BindFlow,
) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zhLocale := zh.New()
	uni := ut.New(zhLocale, zhLocale)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	if err := registerCustomRules(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:     validate,
		config:       cfg,
		translator:   trans,
		session:      sess,
		draft:        dft,
		upstream:     upstream,
		orchestrator: orchestrator,
		bind:         bind,

		Mux: chi.NewRouter(),
	}, nil
}

func registerCustomRules(validate *validator.Validate, trans ut.Translator) error {
	if err := validate.RegisterValidation("cnphone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	}); err != nil {
		return err
	}
	if err := validate.RegisterTranslation("cnphone", trans, func(ut ut.Translator) error {
		return ut.Add("cnphone", "{0}格式不正确，请输入 11 位手机号或带区号的固话", true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		t, _ := ut.T("cnphone", fe.Field())
		return t
	}); err != nil {
		return err
	}

	if err := validate.RegisterValidation("pwdpolicy", func(fl validator.FieldLevel) bool {
		pwd := fl.Field().String()
		if len(pwd) < 6 || len(pwd) > 20 {
			return false
		}
		return pwdLetterPattern.MatchString(pwd) && pwdDigitPattern.MatchString(pwd)
	}); err != nil {
		return err
	}
	return validate.RegisterTranslation("pwdpolicy", trans, func(ut ut.Translator) error {
		return ut.Add("pwdpolicy", "{0}需为 6-20 位，且同时包含字母和数字", true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		t, _ := ut.T("pwdpolicy", fe.Field())
		return t
	})
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	// 认证相关
	h.Mux.Post("/auth/login", h.Login)
	h.Mux.Post("/auth/logout", h.Logout)

	// 导航裁决，未登录也可以询问（会得到去登录页的重定向）
	h.Mux.Get("/resolve", h.Resolve)

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Get("/my-info", h.GetMyInfo)
		r.Route("/onboarding", func(r chi.Router) {
			r.Post("/set-password", h.SetPassword)
			r.Get("/bind", h.GetBindState)
			r.Post("/bind/refresh", h.RefreshBind)
			r.Post("/shop-info", h.SubmitShopInfo)
			r.Post("/add-service", h.SubmitFirstService)
			r.Post("/add-member", h.SubmitAdminMember)
		})
	})
}

// decide 把两个独立持久化的 store 合成一次导航裁决
func (h *Handler) decide(path string) guard.Decision {
	sess := h.session.Snapshot()
	dft := h.draft.Snapshot()

	gs := guard.Session{Authenticated: sess.Authenticated()}
	if sess.User != nil {
		gs.Status = sess.User.Status
	}

	return guard.Decide(gs, guard.Completeness{
		ShopInfo:     dft.ShopInfo.Complete(),
		FirstService: dft.FirstService.Complete(),
		AdminMember:  dft.AdminMember.Complete(),
	}, path)
}
