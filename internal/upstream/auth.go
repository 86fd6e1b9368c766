package upstream

import (
	"fmt"
	"net/http"
	"time"

	"github.com/meiyue-dev/booking-manager/portal/internal/domain"
	"github.com/meiyue-dev/booking-manager/portal/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phone    string `json:"phone" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	if err := s.readJSON(r, &req); err != nil {
		s.fail(w, http.StatusBadRequest, 1000, "请求格式错误")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.fail(w, http.StatusBadRequest, 1000, "手机号和密码不能为空")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[req.Phone]
	if !ok {
		s.fail(w, http.StatusBadRequest, 1001, "手机号不存在或密码错误")
		return
	}
	if err := bcrypt.CompareHashAndPassword(acct.passwordHash, []byte(req.Password)); err != nil {
		s.fail(w, http.StatusBadRequest, 1001, "手机号不存在或密码错误")
		return
	}

	token, err := s.issueToken(&acct.member)
	if err != nil {
		s.fail(w, http.StatusInternalServerError, 1002, "服务器内部错误")
		return
	}

	user := acct.member
	s.ok(w, domain.LoginResult{
		AccessToken:     token,
		User:            &user,
		NeedsOnboarding: user.Status.Pending(),
	})
}

func (s *Server) SetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password" validate:"required,min=6,max=20"`
	}

	if err := s.readJSON(r, &req); err != nil {
		s.fail(w, http.StatusBadRequest, 1000, "请求格式错误")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.fail(w, http.StatusBadRequest, 1003, "密码需为 6-20 位")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.callerAccount(r)
	if !ok {
		s.fail(w, http.StatusBadRequest, 1004, "账户不存在")
		return
	}
	if acct.member.Status != domain.StatusPendingPassword {
		s.fail(w, http.StatusBadRequest, 1005, "当前状态无需设置密码")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.fail(w, http.StatusInternalServerError, 1002, "服务器内部错误")
		return
	}

	acct.passwordHash = hash
	acct.member.Status = domain.StatusPendingWechat
	acct.member.UpdatedAt = time.Now()

	user := acct.member
	s.ok(w, struct {
		User *domain.Member `json:"user"`
	}{User: &user})
}

func (s *Server) GetBindQR(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.callerAccount(r)
	if !ok {
		s.fail(w, http.StatusBadRequest, 1004, "账户不存在")
		return
	}

	id := utils.TicketID()
	s.tickets[id] = &ticket{phone: acct.member.Phone, createdAt: time.Now()}

	s.ok(w, domain.BindHandle{
		QRCodeURL: fmt.Sprintf("https://wechat.example.com/bind/qr/%s", id),
		Ticket:    id,
	})
}

// GetBindStatus 按轮询次数推演扫码进度：先等待、再已扫码、最后确认成功；
// 超过有效期的 ticket 一律返回 EXPIRED
func (s *Server) GetBindStatus(w http.ResponseWriter, r *http.Request) {
	ticketID := r.URL.Query().Get("ticket")

	s.mu.Lock()
	defer s.mu.Unlock()

	tk, ok := s.tickets[ticketID]
	if !ok {
		s.fail(w, http.StatusBadRequest, 1006, "无效的绑定凭据")
		return
	}

	if time.Since(tk.createdAt) > time.Duration(s.config.Stub.QRTTL)*time.Second {
		delete(s.tickets, ticketID)
		s.ok(w, domain.BindStatusResult{Status: domain.BindStatusExpired})
		return
	}

	tk.polls++
	switch {
	case tk.polls < s.config.Stub.ScanAfter:
		s.ok(w, domain.BindStatusResult{Status: domain.BindStatusPending})
	case tk.polls < s.config.Stub.ConfirmAfter:
		s.ok(w, domain.BindStatusResult{Status: domain.BindStatusScanned})
	default:
		acct := s.accounts[tk.phone]
		if acct.member.Status == domain.StatusPendingWechat {
			acct.member.WechatOpenID = "wx_" + utils.RandomID(16, 4)
			acct.member.Status = domain.StatusPendingSetup
			acct.member.UpdatedAt = time.Now()
		}
		delete(s.tickets, ticketID)

		user := acct.member
		s.ok(w, domain.BindStatusResult{Status: domain.BindStatusSuccess, User: &user})
	}
}

// callerAccount 从已验证的凭证中取出调用方账户，调用前必须持有 s.mu
func (s *Server) callerAccount(r *http.Request) (*account, bool) {
	phone, _ := r.Context().Value(PhoneCtxKey).(string)
	acct, ok := s.accounts[phone]
	return acct, ok
}
