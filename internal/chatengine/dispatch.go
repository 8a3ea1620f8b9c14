package chatengine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vexscript/botchat/internal/dispatch"
	"github.com/vexscript/botchat/internal/matcher"
)

// synonymLookup adapts the active asset's synonym contexts into the
// matcher's lookup contract, tokenizing each phrase on demand.
func (s *State) synonymLookup(token string) ([][]string, bool) {
	ctx, ok := s.tables.FindSynonymContextBySuffix(token)
	if !ok {
		return nil, false
	}
	phrases := ctx.Phrases()
	out := make([][]string, len(phrases))
	for i, p := range phrases {
		out[i] = matcher.Tokenize(p.Text)
	}
	return out, true
}

// EnterChat builds and dispatches the enter-game template for client,
// gated by EventAllowed. Unlike ReplyChat it never falls back to anything:
// if no enter-game template is loaded, or construction fails, nothing is
// sent.
func (s *State) EnterChat(ctx context.Context, client int, sendto dispatch.SendTo) error {
	s.speakingClient = client

	if !s.EventAllowed(ctx, client, enterGameContext) {
		s.recordChatEvent(ctx, "enter", "blocked")
		return nil
	}

	mc, ok := s.tables.FindMatchContext(enterGameContext)
	if !ok || len(mc.Templates) == 0 {
		slog.Info("chatengine: BotEnterChat: no templates loaded for enter game context")
		s.recordChatEvent(ctx, "enter", "no_match")
		return nil
	}

	template := mc.Templates[hashSelect(s.chatName, len(mc.Templates))]
	text, ok := s.constructMessage(ctx, enterGameContext, template)
	if !ok {
		s.recordChatEvent(ctx, "enter", "construction_failed")
		return nil
	}

	if err := s.send(ctx, sendto, client, text); err != nil {
		s.recordChatEvent(ctx, "enter", "dispatch_error")
		return err
	}
	s.recordChatEvent(ctx, "enter", "dispatched")
	return nil
}

// ReplyChat looks for a match template satisfied by message under
// chatContext; failing that, and provided the asset has any reply chats at
// all, it falls back to a reply-context template selected deterministically
// from message. It reports whether a message was dispatched.
//
// A template that matches but fails construction is not retried against
// the next matching template — control falls through to the reply-rule
// fallback, and to "no rchats" when the asset has no reply chats or the
// fallback also fails to construct.
func (s *State) ReplyChat(ctx context.Context, client int, message string, chatContext uint32) (bool, error) {
	s.speakingClient = client

	if !s.EventAllowed(ctx, client, chatContext) {
		s.recordChatEvent(ctx, "reply", "blocked")
		return false, nil
	}

	if template, ok := s.bestMatchTemplate(chatContext, message); ok {
		text, ok := s.constructMessage(ctx, chatContext, template)
		if ok {
			if err := s.send(ctx, dispatch.SendSay, client, text); err != nil {
				s.recordChatEvent(ctx, "reply", "dispatch_error")
				return false, err
			}
			s.recordChatEvent(ctx, "reply", "dispatched")
			return true, nil
		}
	}

	if !s.hasReplyChats {
		slog.Info("chatengine: no rchats")
		s.recordChatEvent(ctx, "reply", "no_rchats")
		return false, nil
	}

	if rule, ok := s.tables.FindReplyRule(chatContext); ok && len(rule.Responses) > 0 {
		template := rule.Responses[hashSelect(message, len(rule.Responses))]
		if text, ok := s.constructMessage(ctx, chatContext, template); ok {
			if err := s.send(ctx, dispatch.SendSay, client, text); err != nil {
				s.recordChatEvent(ctx, "reply", "dispatch_error")
				return false, err
			}
			s.recordChatEvent(ctx, "reply", "dispatched")
			return true, nil
		}
	}

	slog.Info("chatengine: no rchats")
	s.recordChatEvent(ctx, "reply", "no_rchats")
	return false, nil
}

// bestMatchTemplate finds every match template under chatContext satisfied
// by message and deterministically selects among them via hashSelect
// seeded on message itself.
func (s *State) bestMatchTemplate(chatContext uint32, message string) (string, bool) {
	mc, ok := s.tables.FindMatchContext(chatContext)
	if !ok || len(mc.Templates) == 0 {
		return "", false
	}

	var candidates []string
	for _, tmpl := range mc.Templates {
		if matcher.Matches(tmpl, message, s.synonymLookup) {
			candidates = append(candidates, tmpl)
		}
	}
	if len(candidates) == 0 {
		return "", false
	}
	return candidates[hashSelect(message, len(candidates))], true
}

func (s *State) send(ctx context.Context, sendto dispatch.SendTo, client int, text string) error {
	if err := s.sink.Send(ctx, sendto, client, text); err != nil {
		slog.Warn("chatengine: dispatch failed", "sendto", sendto.String(), "client", client, "err", err)
		if s.metric != nil {
			s.metric.RecordDispatchError(ctx, "sink")
		}
		return fmt.Errorf("chatengine: dispatch: %w", err)
	}
	if s.metric != nil {
		s.metric.RecordDispatch(ctx, sendto.String(), "sink")
	}
	return nil
}

func (s *State) recordChatEvent(ctx context.Context, op, result string) {
	if s.metric != nil {
		s.metric.RecordChatEvent(ctx, op, result)
	}
}
