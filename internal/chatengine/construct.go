package chatengine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vexscript/botchat/internal/randomstring"
)

const maxConstructedChars = maxMessageChars - 1 // 255; the trailing NUL in the original's fixed buffer

// constructMessage expands every \rNAME\ random-string escape in template,
// enforces the message-length cap, and on success queues the assembled text
// onto the console under the given context. It reports (text, true) on
// success; on any failure it logs a diagnostic and returns ("", false)
// without touching the console queue.
func (s *State) constructMessage(ctx context.Context, msgContext uint32, template string) (string, bool) {
	if len(template) > maxConstructedChars {
		s.logConstructFailure(ctx, "message too long", template)
		return "", false
	}

	var sb strings.Builder
	for i := 0; i < len(template); {
		c := template[i]
		if c != '\\' {
			if sb.Len() >= maxConstructedChars {
				s.logConstructFailure(ctx, "message too long", template)
				return "", false
			}
			sb.WriteByte(c)
			i++
			continue
		}

		if i+1 >= len(template) || template[i+1] != 'r' {
			s.logConstructFailure(ctx, "message invalid escape char", template)
			return "", false
		}

		start := i + 2
		end := start
		for end < len(template) && template[end] != '\\' {
			end++
		}
		if end >= len(template) {
			s.logConstructFailure(ctx, "message invalid escape char", template)
			return "", false
		}

		name := template[start:end]
		if name == "" {
			s.logUnknownRandomString(ctx, "<empty>")
			return "", false
		}
		if len(name) > 63 {
			name = name[:63]
		}

		replacement, ok := s.resolveRandomString(name)
		if !ok {
			s.logUnknownRandomString(ctx, name)
			return "", false
		}

		if sb.Len()+len(replacement) > maxConstructedChars {
			s.logConstructFailure(ctx, "message too long", template)
			return "", false
		}
		sb.WriteString(replacement)
		i = end + 1
	}

	assembled := sb.String()
	s.QueueConsoleMessage(int(msgContext), assembled)
	return assembled, true
}

// resolveRandomString expands a \rNAME\ reference. name must be one of the
// two known built-in tables to be accepted at all (the original gates on
// exactly that before consulting either resolution path); once accepted, a
// synonym context matching name by suffix is preferred over the built-in
// table of the same name.
func (s *State) resolveRandomString(name string) (string, bool) {
	if !randomstring.Known(name) {
		return "", false
	}

	if ctx, ok := s.tables.FindSynonymContextBySuffix(name); ok {
		if phrase, ok := randomstring.WeightedPick(s.rng, ctx.Phrases()); ok {
			return phrase.Text, true
		}
	}

	table, ok := randomstring.Table(name)
	if !ok {
		return "", false
	}
	return randomstring.PickUniform(s.rng, table)
}

func (s *State) logConstructFailure(ctx context.Context, reason, template string) {
	slog.Error(fmt.Sprintf("chatengine: BotConstructChat: %s", reason), "template", template)
	if s.metric != nil {
		s.metric.RecordConstructionFailure(ctx, reason)
	}
}

func (s *State) logUnknownRandomString(ctx context.Context, name string) {
	slog.Error("chatengine: BotConstructChat: unknown random string", "name", name)
	if s.metric != nil {
		s.metric.RecordConstructionFailure(ctx, "unknown random string")
	}
}
