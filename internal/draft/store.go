package draft

import (
	"log/slog"
	"sync"

	"github.com/meiyue-dev/booking-manager/portal/internal/domain"
)

// Persister 把状态变更写入持久化存储
type Persister interface {
	Save(region string, v any) error
	Clear(region string) error
}

// Store 暂存三步引导向导的数据，和会话各自独立落盘，
// 页面刷新后从 draft 区域恢复，流程结束时整体清空。
type Store struct {
	mu     sync.Mutex
	state  domain.OnboardingPayload
	p      Persister
	region string
}

func New(p Persister, initial domain.OnboardingPayload) *Store {
	return &Store{
		state:  initial,
		p:      p,
		region: "draft",
	}
}

// SetShopInfo 整组覆盖第一步的数据，不做合并
func (s *Store) SetShopInfo(data domain.ShopInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.ShopInfo = data
	s.persist()
}

// SetFirstService 整组覆盖第二步的数据
func (s *Store) SetFirstService(data domain.FirstService) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.FirstService = data
	s.persist()
}

// SetAdminMember 整组覆盖第三步的数据
func (s *Store) SetAdminMember(data domain.AdminMember) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.AdminMember = data
	s.persist()
}

// Reset 把三组数据一起恢复为空，绝不只清一部分
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = domain.OnboardingPayload{}
	if err := s.p.Clear(s.region); err != nil {
		slog.Error("清空草稿区域失败", "error", err)
	}
}

// Snapshot 返回当前三组数据的副本
func (s *Store) Snapshot() domain.OnboardingPayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Store) persist() {
	if err := s.p.Save(s.region, s.state); err != nil {
		slog.Error("持久化草稿区域失败", "error", err)
	}
}
