package session

import (
	"log/slog"
	"sync"

	"github.com/meiyue-dev/booking-manager/portal/internal/domain"
)

// Persister 把状态变更写入持久化存储，状态转移本身不依赖它的结果
type Persister interface {
	Save(region string, v any) error
	Clear(region string) error
}

// State 是会话的持久化字段，只有数据会落盘
type State struct {
	Credential string         `json:"accessToken"`
	User       *domain.Member `json:"user"`
}

// Authenticated 要求凭证和用户记录同时存在
func (s State) Authenticated() bool {
	return s.Credential != "" && s.User != nil
}

// Store 持有认证凭证和规范的用户记录，是"是否登录"的唯一事实来源。
// 每次变更都会同步写入 session 区域。
type Store struct {
	mu     sync.Mutex
	state  State
	p      Persister
	region string
}

func New(p Persister, initial State) *Store {
	return &Store{
		state:  initial,
		p:      p,
		region: "session",
	}
}

// Login 无条件覆盖凭证和用户记录，不做任何校验
func (s *Store) Login(credential string, user *domain.Member) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Credential = credential
	s.state.User = copyMember(user)
	s.persist()
}

// SetUser 整体替换用户记录，凭证保持不动
func (s *Store) SetUser(user *domain.Member) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.User = copyMember(user)
	s.persist()
}

// Logout 同时清空凭证和用户记录，可重复调用
func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = State{}
	if err := s.p.Clear(s.region); err != nil {
		slog.Error("清空会话区域失败", "error", err)
	}
}

// Snapshot 返回当前状态的副本
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return State{
		Credential: s.state.Credential,
		User:       copyMember(s.state.User),
	}
}

// Credential 供上游客户端在每个请求前取出 Bearer 凭证
func (s *Store) Credential() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Credential
}

// 持久化失败不阻断状态转移，下一次变更会重写整个区域
func (s *Store) persist() {
	if err := s.p.Save(s.region, s.state); err != nil {
		slog.Error("持久化会话区域失败", "error", err)
	}
}

func copyMember(m *domain.Member) *domain.Member {
	if m == nil {
		return nil
	}
	c := *m
	return &c
}
