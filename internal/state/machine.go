package state

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/looplab/fsm"
)

// 数据集刷新状态常量
const (
	StateIdle    = "idle"
	StateLoading = "loading"
	StateReady   = "ready"
	StateFailed  = "failed"
)

// 事件常量
const (
	EventStartRefresh  = "start_refresh"
	EventFinishRefresh = "finish_refresh"
	EventFailRefresh   = "fail_refresh"
)

// ErrRefreshInProgress 已有刷新在进行
var ErrRefreshInProgress = errors.New("refresh already in progress")

// RefreshState 刷新状态快照
type RefreshState struct {
	CurrentState string     `json:"state"`
	Since        time.Time  `json:"since"`
	RunID        string     `json:"run_id,omitempty"`
	LastSuccess  *time.Time `json:"last_success,omitempty"`
	LastError    string     `json:"last_error,omitempty"`
}

// Machine 数据集刷新状态机
type Machine struct {
	mu            sync.RWMutex
	fsm           *fsm.FSM
	state         *RefreshState
	onStateChange func(from, to string)
}

// NewMachine 创建状态机，初始为 idle
func NewMachine(onStateChange func(from, to string)) *Machine {
	m := &Machine{
		onStateChange: onStateChange,
		state: &RefreshState{
			CurrentState: StateIdle,
			Since:        time.Now(),
		},
	}

	m.fsm = fsm.NewFSM(
		StateIdle,
		fsm.Events{
			// ready/failed 之后可以再次刷新，loading 中不行
			{Name: EventStartRefresh, Src: []string{StateIdle, StateReady, StateFailed}, Dst: StateLoading},
			{Name: EventFinishRefresh, Src: []string{StateLoading}, Dst: StateReady},
			{Name: EventFailRefresh, Src: []string{StateLoading}, Dst: StateFailed},
		},
		fsm.Callbacks{
			"after_event": func(ctx context.Context, e *fsm.Event) {
				if m.onStateChange != nil && e.Src != e.Dst {
					m.onStateChange(e.Src, e.Dst)
				}
			},
		},
	)

	return m
}

// CurrentState 获取当前状态
func (m *Machine) CurrentState() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fsm.Current()
}

// GetState 获取完整状态
func (m *Machine) GetState() *RefreshState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stateCopy := *m.state
	stateCopy.CurrentState = m.fsm.Current()
	return &stateCopy
}

// Begin 进入 loading，已在 loading 时返回 ErrRefreshInProgress
func (m *Machine) Begin(runID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fsm.Current() == StateLoading {
		return ErrRefreshInProgress
	}
	if err := m.trigger(EventStartRefresh); err != nil {
		return err
	}
	m.state.RunID = runID
	return nil
}

// Finish 刷新成功
func (m *Machine) Finish() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.trigger(EventFinishRefresh); err != nil {
		return err
	}
	now := m.state.Since
	m.state.LastSuccess = &now
	m.state.LastError = ""
	return nil
}

// Fail 刷新失败，记录原因
func (m *Machine) Fail(cause error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.trigger(EventFailRefresh); err != nil {
		return err
	}
	if cause != nil {
		m.state.LastError = cause.Error()
	}
	return nil
}

// CanTransition 检查是否可以转换
func (m *Machine) CanTransition(event string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fsm.Can(event)
}

// trigger 调用方持有写锁
func (m *Machine) trigger(event string) error {
	// onStateChange 在锁内执行，回调中不能再调用 Machine 的方法
	if err := m.fsm.Event(context.Background(), event); err != nil {
		return fmt.Errorf("trigger event %s: %w", event, err)
	}
	m.state.CurrentState = m.fsm.Current()
	m.state.Since = time.Now()
	return nil
}
