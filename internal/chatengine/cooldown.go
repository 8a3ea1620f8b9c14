package chatengine

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// now returns the synthetic clock time used for cooldown evaluation: the
// overridden value set by SetTime if one is active, otherwise the wall
// clock.
func (s *State) now() float64 {
	if s.hasTimeOverride {
		return s.timeOverride
	}
	return float64(time.Now().UnixNano()) / 1e9
}

// SetTime overrides the cooldown clock for deterministic tests. A negative
// value clears the override and resumes wall-clock sampling.
func (s *State) SetTime(seconds float64) {
	if seconds < 0 {
		s.hasTimeOverride = false
		s.timeOverride = 0
		return
	}
	s.hasTimeOverride = true
	s.timeOverride = seconds
}

// SetContextCooldown configures the cooldown duration enforced for context.
// A negative duration is clamped to zero, which disables the gate for that
// context. Resets the context's next-allowed time.
func (s *State) SetContextCooldown(context uint32, seconds float64) {
	if seconds < 0 {
		seconds = 0
	}
	entry := s.findCooldownEntry(context, true)
	entry.durationSeconds = seconds
	entry.nextAllowed = 0
}

func (s *State) findCooldownEntry(context uint32, create bool) *cooldownEntry {
	for i := range s.cooldowns {
		if s.cooldowns[i].context == context {
			return &s.cooldowns[i]
		}
	}
	if !create {
		return nil
	}
	s.cooldowns = append(s.cooldowns, cooldownEntry{context: context})
	return &s.cooldowns[len(s.cooldowns)-1]
}

func (s *State) minClientInterval() float64 {
	if s.gating.FastChat {
		return 0
	}
	return minClientIntervalS
}

func (s *State) clientCooldownSlot(client int) *float64 {
	if client >= len(s.clientCooldowns) {
		grown := make([]float64, client+1)
		copy(grown, s.clientCooldowns)
		s.clientCooldowns = grown
	}
	return &s.clientCooldowns[client]
}

// clientCooldownBlocks applies the per-client cooldown guardrail. It always
// advances the slot's next-allowed time on pass, so the gate still spaces
// out subsequent attempts even when the caller discards this one.
func (s *State) clientCooldownBlocks(client int, now float64) bool {
	interval := s.minClientInterval()
	slot := s.clientCooldownSlot(client)
	if interval <= 0 {
		*slot = now
		return false
	}
	if *slot > now {
		remaining := *slot - now
		if remaining < 0 {
			remaining = 0
		}
		msg := fmt.Sprintf("client %d blocked by chat cooldown (%.2fs remaining)\n", client, remaining)
		s.QueueConsoleMessage(client, msg)
		return true
	}
	*slot = now + interval
	return false
}

// contextCooldownBlocks updates and evaluates the cooldown timer for a
// match/reply context. A context with no configured duration (or a
// non-positive one) never blocks.
func (s *State) contextCooldownBlocks(context uint32, now float64) bool {
	entry := s.findCooldownEntry(context, false)
	if entry == nil || entry.durationSeconds <= 0 {
		return false
	}
	if entry.nextAllowed > now {
		remaining := entry.nextAllowed - now
		if remaining < 0 {
			remaining = 0
		}
		msg := fmt.Sprintf("context %d blocked by cooldown (%.2fs remaining)\n", context, remaining)
		s.QueueConsoleMessage(int(context), msg)
		return true
	}
	entry.nextAllowed = now + entry.durationSeconds
	return false
}

// EventAllowed runs the four gates in order — nochat, client bounds,
// per-client cooldown, per-context cooldown — queuing a diagnostic and
// stopping at the first one that denies. Passing gates still mutate their
// cooldown timers, so a cooldown already advances even if a caller later
// fails to construct and dispatch a message for this event.
func (s *State) EventAllowed(ctx context.Context, client int, chatContext uint32) bool {
	if s.gating.NoChat {
		msg := "chatting disabled by nochat\n"
		slog.Warn("chatengine: chat disabled by nochat")
		s.QueueConsoleMessage(0, msg)
		s.recordCooldownBlock(ctx, "nochat")
		return false
	}

	maxClients := s.gating.MaxClients
	if client < 0 || (maxClients > 0 && client >= maxClients) {
		msg := fmt.Sprintf("client %d outside chat bounds (max %d)\n", client, maxClients)
		slog.Warn("chatengine: client outside chat bounds", "client", client, "max_clients", maxClients)
		s.QueueConsoleMessage(int(slog.LevelWarn), msg)
		s.recordCooldownBlock(ctx, "bounds")
		return false
	}

	now := s.now()
	if s.clientCooldownBlocks(client, now) {
		s.recordCooldownBlock(ctx, "client")
		return false
	}
	if s.contextCooldownBlocks(chatContext, now) {
		s.recordCooldownBlock(ctx, "context")
		return false
	}
	return true
}

func (s *State) recordCooldownBlock(ctx context.Context, gate string) {
	if s.metric != nil {
		s.metric.RecordCooldownBlock(ctx, gate)
	}
}
