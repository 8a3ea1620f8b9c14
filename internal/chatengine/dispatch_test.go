package chatengine

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/vexscript/botchat/internal/chatlex"
	"github.com/vexscript/botchat/internal/dispatch"
)

type failingSink struct{ err error }

func (f failingSink) Send(context.Context, dispatch.SendTo, int, string) error {
	return f.err
}

func mustLoad(t *testing.T, s *State, src string) {
	t.Helper()
	if err := s.LoadChatFile(context.Background(), chatlex.NewTextSource(src), "t.c", "t"); err != nil {
		t.Fatalf("LoadChatFile: %v", err)
	}
}

func TestEnterChat_ConstructsAndDispatches(t *testing.T) {
	sink := dispatch.NewConsoleSink(nil)
	s := NewState(sink, Gating{}, WithRand(rand.New(rand.NewSource(1))))
	mustLoad(t, s, `MTCONTEXT_ENTERGAME { NETNAME, " entered the game" = (MSG_ENTERGAME); }`)

	if err := s.EnterChat(context.Background(), 0, dispatch.SendSay); err != nil {
		t.Fatalf("EnterChat: %v", err)
	}
	entries := sink.Entries()
	if len(entries) != 1 {
		t.Fatalf("got %d dispatched entries, want 1", len(entries))
	}
	if entries[0].Message != "{NETNAME}   entered the game" {
		t.Errorf("message = %q", entries[0].Message)
	}
	if entries[0].SendTo != dispatch.SendSay {
		t.Errorf("sendto = %v, want SendSay", entries[0].SendTo)
	}
}

func TestEnterChat_NoTemplatesIsSilentNoOp(t *testing.T) {
	sink := dispatch.NewConsoleSink(nil)
	s := NewState(sink, Gating{})
	// No LoadChatFile call at all: tables starts empty.
	if err := s.EnterChat(context.Background(), 0, dispatch.SendSay); err != nil {
		t.Fatalf("EnterChat: %v", err)
	}
	if len(sink.Entries()) != 0 {
		t.Fatal("expected no dispatch when no enter-game templates are loaded")
	}
}

func TestEnterChat_BlockedByGatingIsSilentNoOp(t *testing.T) {
	sink := dispatch.NewConsoleSink(nil)
	s := NewState(sink, Gating{})
	mustLoad(t, s, `MTCONTEXT_ENTERGAME { "hi" = (MSG_ENTERGAME); }`)
	s.SetGating(Gating{NoChat: true})
	if err := s.EnterChat(context.Background(), 0, dispatch.SendSay); err != nil {
		t.Fatalf("EnterChat: %v", err)
	}
	if len(sink.Entries()) != 0 {
		t.Fatal("expected no dispatch when gating denies the event")
	}
}

func TestEnterChat_IsIdempotentForSameChatName(t *testing.T) {
	sink := dispatch.NewConsoleSink(nil)
	s := NewState(sink, Gating{FastChat: true})
	mustLoad(t, s, `MTCONTEXT_ENTERGAME {
		"one" = (MSG_ENTERGAME);
		"two" = (MSG_ENTERGAME);
		"three" = (MSG_ENTERGAME);
	}`)

	if err := s.EnterChat(context.Background(), 0, dispatch.SendSay); err != nil {
		t.Fatalf("EnterChat(1): %v", err)
	}
	if err := s.EnterChat(context.Background(), 1, dispatch.SendSay); err != nil {
		t.Fatalf("EnterChat(2): %v", err)
	}
	entries := sink.Entries()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Message != entries[1].Message {
		t.Errorf("expected the same chat name to select the same template both times: %q != %q", entries[0].Message, entries[1].Message)
	}
}

func TestEnterChat_DispatchErrorPropagates(t *testing.T) {
	wantErr := errors.New("boom")
	s := NewState(failingSink{err: wantErr}, Gating{})
	mustLoad(t, s, `MTCONTEXT_ENTERGAME { "hi" = (MSG_ENTERGAME); }`)
	err := s.EnterChat(context.Background(), 0, dispatch.SendSay)
	if err == nil {
		t.Fatal("expected the sink's error to propagate")
	}
}

func TestReplyChat_MatchedTemplateDispatchesViaSendSay(t *testing.T) {
	sink := dispatch.NewConsoleSink(nil)
	s := NewState(sink, Gating{})
	mustLoad(t, s, `MTCONTEXT_HELP { "hello world" = (MSG_HELP); }`)

	ok, err := s.ReplyChat(context.Background(), 0, "hello world", 3)
	if err != nil {
		t.Fatalf("ReplyChat: %v", err)
	}
	if !ok {
		t.Fatal("expected a match to be dispatched")
	}
	entries := sink.Entries()
	if len(entries) != 1 || entries[0].SendTo != dispatch.SendSay {
		t.Fatalf("entries = %+v, want exactly one SendSay", entries)
	}
}

func TestReplyChat_NoMatchAndNoReplyRulesReturnsFalse(t *testing.T) {
	sink := dispatch.NewConsoleSink(nil)
	s := NewState(sink, Gating{})
	mustLoad(t, s, `MTCONTEXT_HELP { "hello world" = (MSG_HELP); }`)

	ok, err := s.ReplyChat(context.Background(), 0, "something unrelated entirely", 3)
	if err != nil {
		t.Fatalf("ReplyChat: %v", err)
	}
	if ok {
		t.Fatal("expected no match and no reply rules to report false")
	}
	if len(sink.Entries()) != 0 {
		t.Fatal("expected nothing dispatched")
	}
}

func TestReplyChat_FallsBackToReplyRuleWhenNoTemplateMatches(t *testing.T) {
	sink := dispatch.NewConsoleSink(nil)
	s := NewState(sink, Gating{})
	mustLoad(t, s, `
MTCONTEXT_HELP { "totally different phrase" = (MSG_HELP); }
["fallback"] = 3 { "fallback reply"; }
`)

	ok, err := s.ReplyChat(context.Background(), 0, "nothing that matches", 3)
	if err != nil {
		t.Fatalf("ReplyChat: %v", err)
	}
	if !ok {
		t.Fatal("expected the reply-rule fallback to dispatch")
	}
	entries := sink.Entries()
	if len(entries) != 1 || entries[0].Message != "fallback reply" {
		t.Fatalf("entries = %+v, want exactly one \"fallback reply\"", entries)
	}
}

// TestReplyChat_MatchedTemplateConstructionFailureFallsThroughToReplyRule
// grounds the fall-through semantics directly: a template that matches but
// fails construction is not retried against another template. Execution
// falls straight to the reply-rule fallback path instead.
func TestReplyChat_MatchedTemplateConstructionFailureFallsThroughToReplyRule(t *testing.T) {
	sink := dispatch.NewConsoleSink(nil)
	s := NewState(sink, Gating{})
	mustLoad(t, s, `
MTCONTEXT_HELP { "\rbadname\" = (MSG_HELP); }
["fallback"] = 3 { "fallback reply"; }
`)

	ok, err := s.ReplyChat(context.Background(), 0, "rbadname", 3)
	if err != nil {
		t.Fatalf("ReplyChat: %v", err)
	}
	if !ok {
		t.Fatal("expected the reply-rule fallback to dispatch after construction failure")
	}
	entries := sink.Entries()
	if len(entries) != 1 || entries[0].Message != "fallback reply" {
		t.Fatalf("entries = %+v, want exactly one \"fallback reply\"", entries)
	}
}

// TestReplyChat_MatchedTemplateConstructionFailureWithNoReplyRulesReportsFalse
// covers the same fall-through when there is no reply rule at all to land
// on: the engine must not error, just report no dispatch.
func TestReplyChat_MatchedTemplateConstructionFailureWithNoReplyRulesReportsFalse(t *testing.T) {
	sink := dispatch.NewConsoleSink(nil)
	s := NewState(sink, Gating{})
	mustLoad(t, s, `MTCONTEXT_HELP { "\rbadname\" = (MSG_HELP); }`)

	ok, err := s.ReplyChat(context.Background(), 0, "rbadname", 3)
	if err != nil {
		t.Fatalf("ReplyChat: %v", err)
	}
	if ok {
		t.Fatal("expected false: construction failed and there are no reply chats to fall back on")
	}
	if len(sink.Entries()) != 0 {
		t.Fatal("expected nothing dispatched")
	}
}

func TestReplyChat_BlockedByGatingReturnsFalse(t *testing.T) {
	sink := dispatch.NewConsoleSink(nil)
	s := NewState(sink, Gating{})
	mustLoad(t, s, `MTCONTEXT_HELP { "hello world" = (MSG_HELP); }`)
	s.SetGating(Gating{NoChat: true})

	ok, err := s.ReplyChat(context.Background(), 0, "hello world", 3)
	if err != nil {
		t.Fatalf("ReplyChat: %v", err)
	}
	if ok {
		t.Fatal("expected gating to block the reply before any match is attempted")
	}
	if len(sink.Entries()) != 0 {
		t.Fatal("expected nothing dispatched")
	}
}

func TestReplyChat_SelectsAmongMultipleMatchesDeterministically(t *testing.T) {
	sink := dispatch.NewConsoleSink(nil)
	s := NewState(sink, Gating{})
	mustLoad(t, s, `MTCONTEXT_HELP {
		"hello" = (MSG_HELP);
		"hello there" = (MSG_HELP);
	}`)
	// Both templates tokenize to a subset satisfied by "hello there everyone";
	// selection among the satisfied candidates is seeded on the message text,
	// so repeated calls with the same message must pick the same one.
	ok1, err := s.ReplyChat(context.Background(), 0, "hello there everyone", 3)
	if err != nil || !ok1 {
		t.Fatalf("ReplyChat(1): ok=%v err=%v", ok1, err)
	}
	ok2, err := s.ReplyChat(context.Background(), 1, "hello there everyone", 3)
	if err != nil || !ok2 {
		t.Fatalf("ReplyChat(2): ok=%v err=%v", ok2, err)
	}
	entries := sink.Entries()
	if len(entries) != 2 || entries[0].Message != entries[1].Message {
		t.Fatalf("expected the same message to select the same template both times: %+v", entries)
	}
}

func TestReplyChat_DispatchErrorPropagates(t *testing.T) {
	wantErr := errors.New("boom")
	s := NewState(failingSink{err: wantErr}, Gating{})
	mustLoad(t, s, `MTCONTEXT_HELP { "hello world" = (MSG_HELP); }`)

	_, err := s.ReplyChat(context.Background(), 0, "hello world", 3)
	if err == nil {
		t.Fatal("expected the sink's error to propagate")
	}
}
