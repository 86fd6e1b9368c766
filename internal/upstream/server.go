// Package upstream 是预约后端边界的开发替身：只实现门户开通流程
// 依赖的六个接口，供本地联调和集成测试使用，不是正式后端。
package upstream

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/meiyue-dev/booking-manager/portal/internal/config"
	"github.com/meiyue-dev/booking-manager/portal/internal/domain"
)

type ContextKey string

const PhoneCtxKey ContextKey = "phone"

type account struct {
	member       domain.Member
	passwordHash []byte
	shopSlug     string
}

type ticket struct {
	phone     string
	createdAt time.Time
	polls     int
}

type Server struct {
	validate *validator.Validate
	config   *config.Config

	mu       sync.Mutex
	accounts map[string]*account // 以手机号为键
	tickets  map[string]*ticket

	Mux *chi.Mux
}

func NewServer(cfg *config.Config) *Server {
	s := &Server{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		config:   cfg,
		accounts: make(map[string]*account),
		tickets:  make(map[string]*ticket),
		Mux:      chi.NewRouter(),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.Mux.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", s.Login)

		r.Group(func(r chi.Router) {
			r.Use(s.auth)
			r.Post("/auth/set-password", s.SetPassword)
			r.Get("/auth/wechat-bind-qr", s.GetBindQR)
			r.Get("/auth/wechat-bind-status", s.GetBindStatus)
			r.Post("/onboarding/complete", s.CompleteOnboarding)
		})
	})
}

// Seed 注册一个待首登的账户，进程启动时由 main 播种
func (s *Server) Seed(member domain.Member, passwordHash []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	member.CreatedAt = time.Now()
	member.UpdatedAt = member.CreatedAt
	s.accounts[member.Phone] = &account{member: member, passwordHash: passwordHash}
}

type authClaims struct {
	Phone string `json:"phone"`
	jwt.RegisteredClaims
}

func (s *Server) issueToken(member *domain.Member) (string, error) {
	expiration := time.Now().Add(time.Duration(s.config.Stub.JWTExpiration) * time.Second)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, authClaims{
		Phone: member.Phone,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiration),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Subject:   member.ID,
		},
	})
	return token.SignedString([]byte(s.config.Stub.JWTSecret))
}

// auth 校验 Bearer 凭证，任何失败都按 401 返回，由门户侧触发强制登出
func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			s.fail(w, http.StatusUnauthorized, 401, "登录已过期，请重新登录")
			return
		}

		claims := &authClaims{}
		_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			return []byte(s.config.Stub.JWTSecret), nil
		})
		if err != nil {
			s.fail(w, http.StatusUnauthorized, 401, "登录已过期，请重新登录")
			return
		}

		ctx := context.WithValue(r.Context(), PhoneCtxKey, claims.Phone)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) readJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func (s *Server) ok(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("写入响应失败", "error", err)
	}
}

// fail 按上游约定的 {code, messages} 结构返回错误
func (s *Server) fail(w http.ResponseWriter, status, code int, messages string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(domain.APIError{Code: code, Messages: messages}); err != nil {
		slog.Error("写入错误响应失败", "error", err)
	}
}
