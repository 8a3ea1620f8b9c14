package chatengine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vexscript/botchat/internal/chatlex"
	"github.com/vexscript/botchat/internal/chatparse"
)

const (
	maxChatFileLen = 127
	maxChatNameLen = 63
)

// LoadChatFile parses src and, on success, replaces the active asset with
// the result. chatFile and chatName are the asset's path and display name;
// both are truncated to the original engine's fixed buffer sizes.
//
// Three distinct failure shapes are surfaced, matching the legacy engine's
// diagnostics: nochat refuses the load outright ("couldn't load"), a source
// that never produces a single token is treated as missing ("couldn't
// find"), and a syntactically malformed script is a load failure
// ("couldn't load"). fastchat additionally echoes the diagnostic onto the
// console queue, which the original engine did to make failures visible to
// automated tests.
func (s *State) LoadChatFile(ctx context.Context, src chatlex.Source, chatFile, chatName string) error {
	if len(chatFile) > maxChatFileLen {
		chatFile = chatFile[:maxChatFileLen]
	}
	if len(chatName) > maxChatNameLen {
		chatName = chatName[:maxChatNameLen]
	}

	if s.gating.NoChat {
		s.loadFailure(ctx, slog.LevelError, "couldn't load chat %s from %s\n", chatName, chatFile)
		return fmt.Errorf("chatengine: chat disabled by nochat")
	}

	// Every path past the nochat check attempts a fresh load, so the state
	// is cleared unconditionally here first: a failed reload leaves the
	// engine equivalent to never having loaded anything, just as a failed
	// nochat-gated reload left the prior asset untouched above.
	s.clearAssets()

	a := chatlex.NewAdapter(src)
	if a.AtEnd() {
		s.loadFailure(ctx, slog.LevelWarn, "couldn't find chat %s in %s\n", chatName, chatFile)
		return fmt.Errorf("chatengine: no chat asset found at %s", chatFile)
	}
	a.Reset()

	tables, err := chatparse.ParseAdapter(a)
	if err != nil {
		s.loadFailure(ctx, slog.LevelWarn, "couldn't load chat %s from %s\n", chatName, chatFile)
		return fmt.Errorf("chatengine: parsing %s: %w", chatFile, err)
	}

	s.tables = tables
	s.hasReplyChats = len(tables.ReplyRules) > 0
	s.chatFile = chatFile
	s.chatName = chatName

	if !s.hasReplyChats {
		slog.Info("chatengine: no rchats")
	}
	slog.Info("chatengine: loaded chat assets", "chatfile", chatFile, "chatname", chatName)
	if s.metric != nil {
		s.metric.RecordAssetLoad(ctx, "ok")
	}
	return nil
}

func (s *State) loadFailure(ctx context.Context, level slog.Level, format, chatName, chatFile string) {
	msg := fmt.Sprintf(format, chatName, chatFile)
	slog.Log(ctx, level, "chatengine: "+msg)
	if s.gating.FastChat {
		s.QueueConsoleMessage(int(level), msg)
	}
	if s.metric != nil {
		s.metric.RecordAssetLoad(ctx, "error")
	}
}
