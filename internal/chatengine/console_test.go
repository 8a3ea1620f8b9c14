package chatengine

import "testing"

func newTestState() *State {
	return NewState(nil, Gating{})
}

func TestConsoleQueue_FIFOOrder(t *testing.T) {
	s := newTestState()
	s.QueueConsoleMessage(1, "first")
	s.QueueConsoleMessage(2, "second")

	kind, text, ok := s.NextConsoleMessage()
	if !ok || kind != 1 || text != "first" {
		t.Fatalf("got (%d, %q, %v), want (1, first, true)", kind, text, ok)
	}
	kind, text, ok = s.NextConsoleMessage()
	if !ok || kind != 2 || text != "second" {
		t.Fatalf("got (%d, %q, %v), want (2, second, true)", kind, text, ok)
	}
}

func TestConsoleQueue_EmptyReturnsFalse(t *testing.T) {
	s := newTestState()
	if _, _, ok := s.NextConsoleMessage(); ok {
		t.Fatal("expected false on empty queue")
	}
}

func TestConsoleQueue_OverflowDropsOldest(t *testing.T) {
	s := newTestState()
	for i := 0; i < maxConsoleMessages+3; i++ {
		s.QueueConsoleMessage(i, "msg")
	}
	if got := s.NumConsoleMessages(); got != maxConsoleMessages {
		t.Fatalf("NumConsoleMessages = %d, want %d", got, maxConsoleMessages)
	}
	kind, _, _ := s.NextConsoleMessage()
	if kind != 3 {
		t.Fatalf("oldest surviving kind = %d, want 3 (first 3 evicted)", kind)
	}
}

func TestConsoleQueue_RemoveShiftsLeft(t *testing.T) {
	s := newTestState()
	s.QueueConsoleMessage(1, "a")
	s.QueueConsoleMessage(2, "b")
	s.QueueConsoleMessage(3, "c")

	if !s.RemoveConsoleMessage(2) {
		t.Fatal("expected RemoveConsoleMessage(2) to succeed")
	}
	if got := s.NumConsoleMessages(); got != 2 {
		t.Fatalf("NumConsoleMessages = %d, want 2", got)
	}
	kind, text, _ := s.NextConsoleMessage()
	if kind != 1 || text != "a" {
		t.Fatalf("first remaining = (%d,%q), want (1,a)", kind, text)
	}
	kind, text, _ = s.NextConsoleMessage()
	if kind != 3 || text != "c" {
		t.Fatalf("second remaining = (%d,%q), want (3,c)", kind, text)
	}
}

func TestConsoleQueue_RemoveMissingKindReturnsFalse(t *testing.T) {
	s := newTestState()
	s.QueueConsoleMessage(1, "a")
	if s.RemoveConsoleMessage(99) {
		t.Fatal("expected false for absent kind")
	}
}

func TestMessageLength(t *testing.T) {
	if got := MessageLength("hello"); got != 5 {
		t.Errorf("MessageLength = %d, want 5", got)
	}
}
