package onboarding

import (
	"context"
	"errors"
	"sync"

	"github.com/meiyue-dev/booking-manager/portal/internal/domain"
)

// ErrSubmitInFlight 表示已有一次提交在进行中，同一用户同一时刻只允许一次
var ErrSubmitInFlight = errors.New("正在提交中，请勿重复操作")

// Committer 发起最终的原子提交请求
type Committer interface {
	CompleteOnboarding(ctx context.Context, payload domain.OnboardingPayload) (*domain.Member, error)
}

// SessionWriter 在提交成功后写回后端返回的用户记录
type SessionWriter interface {
	SetUser(user *domain.Member)
}

// DraftStore 提供草稿快照，并在提交尝试后整体清空
type DraftStore interface {
	Snapshot() domain.OnboardingPayload
	Reset()
}

// Orchestrator 协调引导流程的最终提交：汇总三组草稿发起一次提交，
// 成功则推进会话中的用户状态，失败保持会话不动；无论成败草稿都清空。
type Orchestrator struct {
	mu         sync.Mutex
	submitting bool

	committer Committer
	session   SessionWriter
	draft     DraftStore
}

func NewOrchestrator(committer Committer, session SessionWriter, draft DraftStore) *Orchestrator {
	return &Orchestrator{
		committer: committer,
		session:   session,
		draft:     draft,
	}
}

// Complete 执行一次最终提交。三组草稿的完整性由最后一步的表单校验保证，
// 这里不再重复检查。
func (o *Orchestrator) Complete(ctx context.Context) error {
	o.mu.Lock()
	if o.submitting {
		o.mu.Unlock()
		return ErrSubmitInFlight
	}
	o.submitting = true
	payload := o.draft.Snapshot()
	o.mu.Unlock()

	defer func() {
		// 提交一旦发起过，草稿就整体清空，成功失败都一样
		o.draft.Reset()

		o.mu.Lock()
		o.submitting = false
		o.mu.Unlock()
	}()

	user, err := o.committer.CompleteOnboarding(ctx, payload)
	if err != nil {
		// 会话保持不动，用户仍处于 PENDING_SETUP，可以重新走向导
		return err
	}

	o.session.SetUser(user)
	return nil
}
