package codegen

import "sync"

// Sessions 按屏幕维护编排器，每个屏幕一个实例
type Sessions struct {
	mu    sync.RWMutex
	items map[string]*Orchestrator
	build func() *Orchestrator
}

// NewSessions 创建会话表，build 用于惰性创建编排器
func NewSessions(build func() *Orchestrator) *Sessions {
	return &Sessions{items: make(map[string]*Orchestrator), build: build}
}

// Get 返回已存在的编排器
func (s *Sessions) Get(screenID string) (*Orchestrator, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.items[screenID]
	return o, ok
}

// GetOrCreate 返回屏幕对应的编排器，不存在则创建
func (s *Sessions) GetOrCreate(screenID string) *Orchestrator {
	if o, ok := s.Get(screenID); ok {
		return o
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.items[screenID]; ok {
		return o
	}
	o := s.build()
	s.items[screenID] = o
	return o
}

// Forget 移除屏幕的编排器，进行中的尝试会被取消
func (s *Sessions) Forget(screenID string) {
	s.mu.Lock()
	o, ok := s.items[screenID]
	delete(s.items, screenID)
	s.mu.Unlock()
	if ok {
		o.Cancel()
	}
}
