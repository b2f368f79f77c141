package api

import (
	"context"
	"sync"
	"time"
)

// Manager 按 groupID 管理所有会话
type Manager struct {
	mu       sync.RWMutex
	ctx      context.Context
	interval time.Duration
	sessions map[string]*Session
}

// NewManager interval 为 0 时不自动 tick，只能通过 /tick 推进
func NewManager(ctx context.Context, interval time.Duration) *Manager {
	return &Manager{
		ctx:      ctx,
		interval: interval,
		sessions: make(map[string]*Session),
	}
}

// Create 新建一局，已有的同名会话会被停止并替换
func (m *Manager) Create(groupID string, opts GameOptions) (*Session, error) {
	s, err := NewSession(groupID, opts)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if old, ok := m.sessions[groupID]; ok {
		old.Stop()
	}
	m.sessions[groupID] = s
	m.mu.Unlock()

	if m.interval > 0 {
		s.Start(m.ctx, m.interval)
	}
	return s, nil
}

func (m *Manager) Get(groupID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[groupID]
	return s, ok
}

// Delete 停止并移除会话，返回是否存在
func (m *Manager) Delete(groupID string) bool {
	m.mu.Lock()
	s, ok := m.sessions[groupID]
	delete(m.sessions, groupID)
	m.mu.Unlock()
	if ok {
		s.Stop()
	}
	return ok
}

// Close 停止所有会话
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		s.Stop()
		delete(m.sessions, id)
	}
}
