// Package chatengine is the core chat-asset runtime: it owns a loaded
// asset's tables, cooldown timers, a bounded console queue, and the
// EnterChat/ReplyChat dispatch facade built on top of chatlex/chatparse,
// chatasset, matcher and randomstring.
package chatengine

import (
	"math/rand"

	"github.com/vexscript/botchat/internal/chatasset"
	"github.com/vexscript/botchat/internal/dispatch"
	"github.com/vexscript/botchat/internal/observe"
)

const (
	maxMessageChars    = 256
	maxConsoleMessages = 16
	enterGameContext   = 2
	minClientIntervalS = 25.0
)

// Gating mirrors the handful of host-supplied knobs the original engine
// read from libvars: whether chat is disabled entirely, whether cooldowns
// are accelerated for testing, and how many client slots to bound cooldown
// tracking to.
type Gating struct {
	// NoChat disables EventAllowed entirely when true.
	NoChat bool
	// FastChat collapses the per-client cooldown interval to zero.
	FastChat bool
	// MaxClients bounds the client index EventAllowed accepts. Zero means
	// unbounded.
	MaxClients int
}

type cooldownEntry struct {
	context         uint32
	durationSeconds float64
	nextAllowed     float64
}

// State is one loaded chat asset plus its runtime bookkeeping: cooldowns,
// console queue, and the metadata of the asset currently active. It is not
// safe for concurrent use — callers drive it from a single goroutine, same
// as the engine it's grounded on.
type State struct {
	gating Gating
	sink   dispatch.Sink
	rng    *rand.Rand
	metric *observe.Metrics

	chatFile string
	chatName string

	tables        *chatasset.Tables
	hasReplyChats bool

	console *consoleQueue

	cooldowns       []cooldownEntry
	clientCooldowns []float64

	hasTimeOverride bool
	timeOverride    float64

	speakingClient int
}

// Option configures a State at construction time.
type Option func(*State)

// WithRand overrides the random source used for weighted synonym and
// built-in random-string selection (tests want a seeded one).
func WithRand(rng *rand.Rand) Option {
	return func(s *State) { s.rng = rng }
}

// WithMetrics attaches an observe.Metrics instance; nil is valid and simply
// means no metrics are recorded.
func WithMetrics(m *observe.Metrics) Option {
	return func(s *State) { s.metric = m }
}

// NewState constructs an empty State. Call LoadChatFile before EnterChat or
// ReplyChat will do anything useful.
func NewState(sink dispatch.Sink, gating Gating, opts ...Option) *State {
	s := &State{
		gating:  gating,
		sink:    sink,
		rng:     rand.New(rand.NewSource(1)),
		console: newConsoleQueue(),
		tables:  &chatasset.Tables{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetGating replaces the gating knobs, e.g. when a host config reload
// flips nochat or fastchat at runtime.
func (s *State) SetGating(g Gating) {
	s.gating = g
}

// ChatFile returns the path the currently active asset was loaded from.
func (s *State) ChatFile() string { return s.chatFile }

// ChatName returns the currently active asset's name.
func (s *State) ChatName() string { return s.chatName }

// HasSynonymPhrase reports whether the active asset's synonym context named
// contextName contains phraseText among its phrases.
func (s *State) HasSynonymPhrase(contextName, phraseText string) bool {
	return s.tables.HasSynonymPhrase(contextName, phraseText)
}

// HasReplyTemplate reports whether reply context ctx has text among its
// registered responses.
func (s *State) HasReplyTemplate(ctx uint32, text string) bool {
	return s.tables.HasReplyTemplate(ctx, text)
}

// MessageLength returns the byte length of message; a trivial helper kept
// for parity with the engine's own length accessor.
func MessageLength(message string) int {
	return len(message)
}

func (s *State) clearAssets() {
	s.tables = &chatasset.Tables{}
	s.hasReplyChats = false
	s.chatFile = ""
	s.chatName = ""
	s.speakingClient = 0
	s.cooldowns = nil
	s.clientCooldowns = nil
	s.hasTimeOverride = false
	s.timeOverride = 0
}
