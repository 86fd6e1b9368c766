package upstream_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/meiyue-dev/booking-manager/portal/internal/api"
	"github.com/meiyue-dev/booking-manager/portal/internal/config"
	"github.com/meiyue-dev/booking-manager/portal/internal/domain"
	"github.com/meiyue-dev/booking-manager/portal/internal/upstream"
	"golang.org/x/crypto/bcrypt"
)

type tokenHolder struct {
	token string
}

func (h *tokenHolder) Credential() string { return h.token }

func newStubClient(t *testing.T, cfg *config.Config, status domain.MemberStatus) (*api.Client, *tokenHolder) {
	t.Helper()

	stub := upstream.NewServer(cfg)
	hash, err := bcrypt.GenerateFromPassword([]byte("changeme"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	stub.Seed(domain.Member{
		ID:     "tm_0001",
		Name:   "王老板",
		Phone:  "13800000000",
		Role:   domain.RoleAdministrator,
		Status: status,
	}, hash)

	srv := httptest.NewServer(stub.Mux)
	t.Cleanup(srv.Close)

	holder := &tokenHolder{}
	return api.NewClient(srv.URL+"/api/v1", time.Second, holder), holder
}

func stubConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Stub.JWTSecret = "test-secret"
	cfg.Stub.JWTExpiration = 3600
	cfg.Stub.QRTTL = 60
	cfg.Stub.ScanAfter = 2
	cfg.Stub.ConfirmAfter = 3
	return cfg
}

func login(t *testing.T, client *api.Client, holder *tokenHolder) *domain.LoginResult {
	t.Helper()
	result, err := client.Login(context.Background(), "13800000000", "changeme")
	if err != nil {
		t.Fatalf("登录失败: %v", err)
	}
	holder.token = result.AccessToken
	return result
}

func TestLoginNeedsOnboardingFlag(t *testing.T) {
	client, _ := newStubClient(t, stubConfig(), domain.StatusPendingPassword)

	result, err := client.Login(context.Background(), "13800000000", "changeme")
	if err != nil {
		t.Fatal(err)
	}
	if !result.NeedsOnboarding {
		t.Error("待引导账户登录后 needsOnboarding 应为 true")
	}

	clientActive, _ := newStubClient(t, stubConfig(), domain.StatusActive)
	result, err = clientActive.Login(context.Background(), "13800000000", "changeme")
	if err != nil {
		t.Fatal(err)
	}
	if result.NeedsOnboarding {
		t.Error("日常登录 needsOnboarding 应为 false")
	}
}

func TestProtectedRoutesRejectMissingToken(t *testing.T) {
	client, _ := newStubClient(t, stubConfig(), domain.StatusPendingWechat)

	_, err := client.GetBindHandle(context.Background())
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Errorf("无令牌访问应返回未认证错误，实际 %v", err)
	}
}

func TestSetPasswordRequiresPendingState(t *testing.T) {
	client, holder := newStubClient(t, stubConfig(), domain.StatusPendingSetup)
	login(t, client, holder)

	_, err := client.SetPassword(context.Background(), "abc123")
	var apiErr *domain.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("错误类型不对: %v", err)
	}
	if apiErr.Messages == "" {
		t.Error("业务错误必须带可展示的信息")
	}
}

func TestBindStatusProgression(t *testing.T) {
	client, holder := newStubClient(t, stubConfig(), domain.StatusPendingWechat)
	login(t, client, holder)

	handle, err := client.GetBindHandle(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if handle.Ticket == "" || handle.QRCodeURL == "" {
		t.Fatalf("绑定凭据不完整: %+v", handle)
	}

	// ScanAfter=2 ConfirmAfter=3：第一次等待、第二次已扫码、第三次确认成功
	want := []domain.BindStatus{domain.BindStatusPending, domain.BindStatusScanned, domain.BindStatusSuccess}
	for i, expect := range want {
		result, err := client.GetBindStatus(context.Background(), handle.Ticket)
		if err != nil {
			t.Fatalf("第 %d 次轮询失败: %v", i+1, err)
		}
		if result.Status != expect {
			t.Fatalf("第 %d 次轮询状态应为 %s，实际 %s", i+1, expect, result.Status)
		}
	}

	// ticket 随确认成功一并失效
	if _, err := client.GetBindStatus(context.Background(), handle.Ticket); err == nil {
		t.Error("已消费的 ticket 不应再可用")
	}
}

func TestBindStatusSuccessPromotesMember(t *testing.T) {
	client, holder := newStubClient(t, stubConfig(), domain.StatusPendingWechat)
	login(t, client, holder)

	handle, err := client.GetBindHandle(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	var final *domain.BindStatusResult
	for i := 0; i < 3; i++ {
		final, err = client.GetBindStatus(context.Background(), handle.Ticket)
		if err != nil {
			t.Fatal(err)
		}
	}
	if final.Status != domain.BindStatusSuccess {
		t.Fatalf("应以成功收尾: %s", final.Status)
	}
	if final.User == nil || final.User.Status != domain.StatusPendingSetup {
		t.Errorf("成功后用户应进入 PENDING_SETUP: %+v", final.User)
	}
	if final.User.WechatOpenID == "" {
		t.Error("成功后应写入微信 openid")
	}
}

func TestBindStatusExpires(t *testing.T) {
	cfg := stubConfig()
	cfg.Stub.QRTTL = 0

	client, holder := newStubClient(t, cfg, domain.StatusPendingWechat)
	login(t, client, holder)

	handle, err := client.GetBindHandle(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	time.Sleep(5 * time.Millisecond)
	result, err := client.GetBindStatus(context.Background(), handle.Ticket)
	if err != nil {
		t.Fatal(err)
	}
	if result.Status != domain.BindStatusExpired {
		t.Errorf("超期 ticket 应返回 EXPIRED，实际 %s", result.Status)
	}

	// 过期即作废，换新的二维码才能继续
	if _, err := client.GetBindStatus(context.Background(), handle.Ticket); err == nil {
		t.Error("过期 ticket 不应再可查询")
	}
}

func TestCompleteOnboardingActivatesAccount(t *testing.T) {
	client, holder := newStubClient(t, stubConfig(), domain.StatusPendingSetup)
	login(t, client, holder)

	payload := domain.OnboardingPayload{
		ShopInfo:     domain.ShopInfo{Name: "美月造型", Phone: "13800000001"},
		FirstService: domain.FirstService{Name: "精剪", Price: 8800, DurationMinutes: 45},
		AdminMember:  domain.AdminMember{Name: "王老板"},
	}

	user, err := client.CompleteOnboarding(context.Background(), payload)
	if err != nil {
		t.Fatal(err)
	}
	if user.Status != domain.StatusActive {
		t.Errorf("提交后状态应为 ACTIVE: %s", user.Status)
	}
	if user.Name != "王老板" {
		t.Errorf("管理员姓名应写回账户: %s", user.Name)
	}

	// 已激活账户重复提交被拒绝
	if _, err := client.CompleteOnboarding(context.Background(), payload); err == nil {
		t.Error("重复提交不应成功")
	}
}

func TestCompleteOnboardingRejectsIncompletePayload(t *testing.T) {
	client, holder := newStubClient(t, stubConfig(), domain.StatusPendingSetup)
	login(t, client, holder)

	payload := domain.OnboardingPayload{
		ShopInfo:    domain.ShopInfo{Name: "美月造型", Phone: "13800000001"},
		AdminMember: domain.AdminMember{Name: "王老板"},
	}

	_, err := client.CompleteOnboarding(context.Background(), payload)
	var apiErr *domain.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("缺失服务信息应返回业务错误: %v", err)
	}
}
