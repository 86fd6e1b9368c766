package session

import (
	"testing"

	"github.com/meiyue-dev/booking-manager/portal/internal/domain"
)

// --- mock ---

type mockPersister struct {
	saveFn  func(region string, v any) error
	clearFn func(region string) error
}

func (m *mockPersister) Save(region string, v any) error {
	if m.saveFn != nil {
		return m.saveFn(region, v)
	}
	return nil
}

func (m *mockPersister) Clear(region string) error {
	if m.clearFn != nil {
		return m.clearFn(region)
	}
	return nil
}

var _ Persister = (*mockPersister)(nil)

func member(status domain.MemberStatus) *domain.Member {
	return &domain.Member{ID: "tm_0001", Name: "王老板", Phone: "13800000000", Role: domain.RoleAdministrator, Status: status}
}

// --- tests ---

func TestLoginOverwritesBothFields(t *testing.T) {
	var saved []State
	p := &mockPersister{saveFn: func(region string, v any) error {
		if region != "session" {
			t.Errorf("写入了错误的区域: %s", region)
		}
		saved = append(saved, v.(State))
		return nil
	}}

	s := New(p, State{})
	s.Login("t1", member(domain.StatusPendingPassword))

	snap := s.Snapshot()
	if snap.Credential != "t1" || snap.User == nil || snap.User.ID != "tm_0001" {
		t.Fatalf("登录后状态不对: %+v", snap)
	}
	if !snap.Authenticated() {
		t.Error("登录后应视为已认证")
	}
	if len(saved) != 1 {
		t.Errorf("应持久化一次，实际 %d 次", len(saved))
	}
}

func TestSetUserKeepsCredential(t *testing.T) {
	s := New(&mockPersister{}, State{})
	s.Login("t1", member(domain.StatusPendingWechat))

	s.SetUser(member(domain.StatusPendingSetup))

	snap := s.Snapshot()
	if snap.Credential != "t1" {
		t.Errorf("SetUser 不应改动凭证，实际 %q", snap.Credential)
	}
	if snap.User.Status != domain.StatusPendingSetup {
		t.Errorf("用户记录未被替换: %+v", snap.User)
	}
}

func TestLogoutClearsBothFieldsTogether(t *testing.T) {
	cleared := 0
	p := &mockPersister{clearFn: func(region string) error {
		if region != "session" {
			t.Errorf("清空了错误的区域: %s", region)
		}
		cleared++
		return nil
	}}

	s := New(p, State{})
	s.Login("t1", member(domain.StatusActive))

	s.Logout()

	snap := s.Snapshot()
	if snap.Credential != "" || snap.User != nil {
		t.Errorf("登出后凭证和用户必须一起清空: %+v", snap)
	}
	if snap.Authenticated() {
		t.Error("登出后不应视为已认证")
	}

	// 可重复调用
	s.Logout()
	if cleared != 2 {
		t.Errorf("每次登出都应清空持久化区域，实际 %d 次", cleared)
	}
}

func TestRestoreFromPersistedState(t *testing.T) {
	s := New(&mockPersister{}, State{Credential: "t1", User: member(domain.StatusPendingSetup)})

	snap := s.Snapshot()
	if !snap.Authenticated() || snap.User.Status != domain.StatusPendingSetup {
		t.Errorf("恢复的会话不对: %+v", snap)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	s := New(&mockPersister{}, State{})
	s.Login("t1", member(domain.StatusPendingSetup))

	snap := s.Snapshot()
	snap.User.Status = domain.StatusActive

	if s.Snapshot().User.Status != domain.StatusPendingSetup {
		t.Error("修改快照不应影响 store 内部状态")
	}
}

func TestPersistFailureDoesNotBlockMutation(t *testing.T) {
	p := &mockPersister{saveFn: func(string, any) error {
		return errTest
	}}

	s := New(p, State{})
	s.Login("t1", member(domain.StatusActive))

	if !s.Snapshot().Authenticated() {
		t.Error("持久化失败时状态转移仍应完成")
	}
}

var errTest = &testError{}

type testError struct{}

func (*testError) Error() string { return "写盘失败" }
