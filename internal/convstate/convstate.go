// Package convstate holds the per-administrator broadcast flow state.
// It lives in process memory only: a restart drops in-flight flows,
// which callers must treat as an implicit cancel.
package convstate

import "sync"

type Phase int

const (
	PhaseNone Phase = iota
	PhaseAwaitingContent
	PhaseAwaitingFolder
)

func (p Phase) String() string {
	switch p {
	case PhaseAwaitingContent:
		return "awaiting_content"
	case PhaseAwaitingFolder:
		return "awaiting_folder"
	default:
		return "none"
	}
}

// Draft is the captured broadcast content awaiting a folder choice.
// SourceChatID/SourceMessageID are enough to re-copy the content later.
type Draft struct {
	SourceChatID    int64
	SourceMessageID int64
	Title           string
	RawText         string
}

type session struct {
	phase Phase
	draft Draft
}

// Store keeps one session per administrator id. State transitions are
// atomic under one mutex; flows of different admins never interact.
type Store struct {
	mu       sync.Mutex
	sessions map[int64]*session
}

func NewStore() *Store {
	return &Store{sessions: make(map[int64]*session)}
}

func (s *Store) Phase(adminID int64) Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[adminID]
	if !ok {
		return PhaseNone
	}
	return sess.phase
}

// Begin starts (or restarts) the flow. A re-entrant begin while a flow
// is active resets it rather than stacking.
func (s *Store) Begin(adminID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[adminID] = &session{phase: PhaseAwaitingContent}
}

// SetDraft records the captured content and advances to folder choice.
// It is a no-op unless the flow is awaiting content.
func (s *Store) SetDraft(adminID int64, d Draft) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[adminID]
	if !ok || sess.phase != PhaseAwaitingContent {
		return false
	}
	sess.phase = PhaseAwaitingFolder
	sess.draft = d
	return true
}

// TakeDraft consumes the draft and clears the session.
func (s *Store) TakeDraft(adminID int64) (Draft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[adminID]
	if !ok || sess.phase != PhaseAwaitingFolder {
		return Draft{}, false
	}
	delete(s.sessions, adminID)
	return sess.draft, true
}

// Clear drops any session unconditionally, whatever phase it is in.
func (s *Store) Clear(adminID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, adminID)
}
