package convstate

import "testing"

func TestFlowLifecycle(t *testing.T) {
	s := NewStore()
	const admin = int64(7)

	if got := s.Phase(admin); got != PhaseNone {
		t.Fatalf("initial phase = %v, want none", got)
	}

	s.Begin(admin)
	if got := s.Phase(admin); got != PhaseAwaitingContent {
		t.Fatalf("phase after Begin = %v, want awaiting_content", got)
	}

	d := Draft{SourceChatID: 1, SourceMessageID: 2, Title: "Hello", RawText: "Hello\nworld"}
	if !s.SetDraft(admin, d) {
		t.Fatalf("SetDraft = false, want true")
	}
	if got := s.Phase(admin); got != PhaseAwaitingFolder {
		t.Fatalf("phase after SetDraft = %v, want awaiting_folder", got)
	}

	got, ok := s.TakeDraft(admin)
	if !ok || got != d {
		t.Fatalf("TakeDraft = %v, %v", got, ok)
	}
	if phase := s.Phase(admin); phase != PhaseNone {
		t.Fatalf("phase after TakeDraft = %v, want none", phase)
	}
}

func TestSetDraft_RequiresAwaitingContent(t *testing.T) {
	s := NewStore()
	if s.SetDraft(1, Draft{Title: "x"}) {
		t.Fatalf("SetDraft with no active flow = true, want false")
	}
}

func TestBegin_ResetsInFlightFlow(t *testing.T) {
	s := NewStore()
	s.Begin(1)
	if !s.SetDraft(1, Draft{Title: "old"}) {
		t.Fatalf("SetDraft failed")
	}

	// Re-entrant /broadcast: the old draft must not survive.
	s.Begin(1)
	if got := s.Phase(1); got != PhaseAwaitingContent {
		t.Fatalf("phase = %v, want awaiting_content", got)
	}
	if _, ok := s.TakeDraft(1); ok {
		t.Fatalf("stale draft survived a restart of the flow")
	}
}

func TestClear_AnyPhase(t *testing.T) {
	s := NewStore()
	s.Begin(1)
	s.Clear(1)
	if got := s.Phase(1); got != PhaseNone {
		t.Fatalf("phase after Clear = %v, want none", got)
	}

	// Clearing an idle session is fine too.
	s.Clear(2)
}

func TestSessionsAreScopedPerAdmin(t *testing.T) {
	s := NewStore()
	s.Begin(1)
	if got := s.Phase(2); got != PhaseNone {
		t.Fatalf("other admin phase = %v, want none", got)
	}
	s.Clear(2)
	if got := s.Phase(1); got != PhaseAwaitingContent {
		t.Fatalf("admin 1 phase = %v, want awaiting_content", got)
	}
}
