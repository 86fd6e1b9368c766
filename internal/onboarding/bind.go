package onboarding

import (
	"context"
	"sync"
	"time"

	"github.com/meiyue-dev/booking-manager/portal/internal/domain"
)

// BindState 是绑定子流程的状态机取值
type BindState string

const (
	BindStateIdle         BindState = ""
	BindStateLoadingQR    BindState = "loading-qr"
	BindStateQRError      BindState = "qr-error"
	BindStateAwaitingScan BindState = "awaiting-scan"
	BindStateScanned      BindState = "scanned"
	BindStateBound        BindState = "bound"
	BindStateExpired      BindState = "expired"
)

// BindAPI 是绑定子流程依赖的两个上游操作
type BindAPI interface {
	GetBindHandle(ctx context.Context) (*domain.BindHandle, error)
	GetBindStatus(ctx context.Context, ticket string) (*domain.BindStatusResult, error)
}

// BindSnapshot 是对外暴露的只读视图
type BindSnapshot struct {
	State  BindState          `json:"state"`
	Handle *domain.BindHandle `json:"handle,omitempty"`
	Err    string             `json:"error,omitempty"`
}

// BindFlow 是微信绑定的轮询状态机：获取二维码后按固定间隔轮询扫码状态，
// 碰到 SUCCESS 或 EXPIRED 立即停止，之后不再发出任何请求。
// 同一时刻最多持有一个未决的定时器，重新开始前先取消旧的。
type BindFlow struct {
	mu       sync.Mutex
	api      BindAPI
	session  SessionWriter
	interval time.Duration

	state  BindState
	handle *domain.BindHandle
	err    error
	cancel context.CancelFunc
}

func NewBindFlow(api BindAPI, session SessionWriter, interval time.Duration) *BindFlow {
	return &BindFlow{
		api:      api,
		session:  session,
		interval: interval,
	}
}

// Start 获取新的绑定凭据并开始轮询，已在运行时先取消旧的轮询
func (f *BindFlow) Start(ctx context.Context) {
	f.mu.Lock()
	if f.cancel != nil {
		f.cancel()
	}
	pollCtx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	f.state = BindStateLoadingQR
	f.handle = nil
	f.err = nil
	f.mu.Unlock()

	go f.run(pollCtx)
}

// Refresh 丢弃旧的绑定凭据，从获取二维码重新开始
func (f *BindFlow) Refresh(ctx context.Context) {
	f.Start(ctx)
}

// Stop 取消未决的定时器，离开绑定页面或进程退出时必须调用
func (f *BindFlow) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	f.state = BindStateIdle
	f.handle = nil
	f.err = nil
}

func (f *BindFlow) Snapshot() BindSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	snap := BindSnapshot{State: f.state, Handle: f.handle}
	if f.err != nil {
		snap.Err = f.err.Error()
	}
	return snap
}

func (f *BindFlow) run(ctx context.Context) {
	handle, err := f.api.GetBindHandle(ctx)
	if err != nil {
		f.transition(ctx, BindStateQRError, nil, err)
		return
	}
	f.transition(ctx, BindStateAwaitingScan, handle, nil)

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			res, err := f.api.GetBindStatus(ctx, handle.Ticket)
			if err != nil {
				// 单次轮询失败不终止流程，等待下一个周期
				continue
			}

			switch res.Status {
			case domain.BindStatusScanned:
				f.transition(ctx, BindStateScanned, handle, nil)
			case domain.BindStatusSuccess:
				// 只更新会话，跳转交给守卫在下一次导航时完成
				f.session.SetUser(res.User)
				f.transition(ctx, BindStateBound, handle, nil)
				return
			case domain.BindStatusExpired:
				f.transition(ctx, BindStateExpired, handle, nil)
				return
			}
		}
	}
}

// transition 在持锁状态下推进状态机；轮询已被取消时丢弃迟到的结果，
// 避免在消费者离开后继续改状态
func (f *BindFlow) transition(ctx context.Context, state BindState, handle *domain.BindHandle, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if ctx.Err() != nil {
		return
	}
	f.state = state
	f.handle = handle
	f.err = err
}
