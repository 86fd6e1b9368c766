package domain

// ShopInfo 是引导第一步的店铺信息
type ShopInfo struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	LogoURL string `json:"logoUrl,omitempty"`
}

// Complete 判断必填子字段是否齐全，logo 是可选项
func (s ShopInfo) Complete() bool {
	return s.Name != "" && s.Phone != ""
}

// FirstService 是引导第二步的首个服务项目，价格以分为单位
type FirstService struct {
	Name            string `json:"name"`
	Price           int64  `json:"price"`
	DurationMinutes int    `json:"durationMinutes"`
}

func (s FirstService) Complete() bool {
	return s.Name != "" && s.DurationMinutes > 0
}

// AdminMember 是引导第三步的管理员成员信息
type AdminMember struct {
	Name string `json:"name"`
}

func (m AdminMember) Complete() bool {
	return m.Name != ""
}

// OnboardingPayload 是最终一次性原子提交的完整数据
type OnboardingPayload struct {
	ShopInfo     ShopInfo     `json:"shopInfo"`
	FirstService FirstService `json:"firstService"`
	AdminMember  AdminMember  `json:"adminMember"`
}

// LoginResult 是登录接口的成功响应
type LoginResult struct {
	AccessToken     string  `json:"accessToken"`
	User            *Member `json:"user"`
	NeedsOnboarding bool    `json:"needsOnboarding"`
}

type BindStatus string

const (
	BindStatusPending BindStatus = "PENDING"
	BindStatusScanned BindStatus = "SCANNED"
	BindStatusSuccess BindStatus = "SUCCESS"
	BindStatusExpired BindStatus = "EXPIRED"
)

// BindHandle 把展示中的二维码和后端的扫码确认关联起来
type BindHandle struct {
	QRCodeURL string `json:"qrCodeUrl"`
	Ticket    string `json:"ticket"`
}

// BindStatusResult 是轮询绑定状态的响应，只有 SUCCESS 时才带 user
type BindStatusResult struct {
	Status BindStatus `json:"status"`
	User   *Member    `json:"user,omitempty"`
}
