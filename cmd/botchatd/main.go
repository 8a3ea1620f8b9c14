// Command botchatd loads a chat-script asset and serves EnterChat/ReplyChat
// over an interactive stdin loop, dispatching through a console or Discord
// sink, with health and Prometheus-scraped metrics endpoints alongside.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/vexscript/botchat/internal/chatengine"
	"github.com/vexscript/botchat/internal/chatlex"
	"github.com/vexscript/botchat/internal/chatlog"
	"github.com/vexscript/botchat/internal/config"
	"github.com/vexscript/botchat/internal/dispatch"
	"github.com/vexscript/botchat/internal/health"
	"github.com/vexscript/botchat/internal/observe"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "botchatd: config file %q not found\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "botchatd: %v\n", err)
		}
		return 1
	}

	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("botchatd starting", "config", *configPath, "listen_addr", cfg.Server.ListenAddr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOtel, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "botchatd"})
	if err != nil {
		slog.Error("failed to initialise telemetry providers", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOtel(shutdownCtx); err != nil {
			slog.Error("telemetry shutdown error", "err", err)
		}
	}()
	metrics := observe.DefaultMetrics()

	sink, closeSink, err := buildDispatchSink(cfg.Dispatch)
	if err != nil {
		slog.Error("failed to build dispatch sink", "err", err)
		return 1
	}
	defer closeSink()

	auditLog, err := buildAuditLog(ctx, cfg.ChatLog)
	if err != nil {
		slog.Error("failed to open chat audit log", "err", err)
		return 1
	}
	if auditLog != nil {
		defer auditLog.Close()
		sink = chatlog.NewAuditingSink(sink, auditLog)
	}

	gating := chatengine.Gating{
		NoChat:     cfg.Gating.NoChat,
		FastChat:   cfg.Gating.FastChat,
		MaxClients: cfg.Gating.MaxClients,
	}
	engine := chatengine.NewState(sink, gating, chatengine.WithMetrics(metrics))

	assetFile, err := os.Open(cfg.Chat.AssetPath)
	if err != nil {
		slog.Error("failed to open chat asset", "path", cfg.Chat.AssetPath, "err", err)
		return 1
	}
	assetBytes, err := io.ReadAll(assetFile)
	assetFile.Close()
	if err != nil {
		slog.Error("failed to read chat asset", "path", cfg.Chat.AssetPath, "err", err)
		return 1
	}
	if err := engine.LoadChatFile(ctx, chatlex.NewTextSource(string(assetBytes)), cfg.Chat.AssetPath, cfg.Chat.Name); err != nil {
		slog.Error("failed to load chat asset", "path", cfg.Chat.AssetPath, "err", err)
		return 1
	}
	for chatCtx, d := range cfg.Chat.ContextCooldowns {
		engine.SetContextCooldown(chatCtx, d.Seconds())
	}

	mux := http.NewServeMux()
	health.New(health.Checker{
		Name: "chat_asset",
		Check: func(context.Context) error {
			if engine.ChatFile() == "" {
				return errors.New("no chat asset loaded")
			}
			return nil
		},
	}).Register(mux)
	mux.Handle("GET /metrics", observe.MetricsHandler())

	var server *http.Server
	if cfg.Server.ListenAddr != "" {
		server = &http.Server{Addr: cfg.Server.ListenAddr, Handler: observe.Middleware(metrics)(mux)}
		go func() {
			slog.Info("http server listening", "addr", cfg.Server.ListenAddr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("http server error", "err", err)
			}
		}()
	}

	slog.Info("chat asset loaded", "name", engine.ChatName(), "file", engine.ChatFile())

	if err := engine.EnterChat(ctx, 0, dispatch.SendSay); err != nil {
		slog.Warn("enter-chat dispatch failed", "err", err)
	}

	slog.Info("ready — type a message to drive ReplyChat, Ctrl+C to quit")
	runInteractiveLoop(ctx, engine)

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("http shutdown error", "err", err)
		}
	}
	slog.Info("goodbye")
	return 0
}

// interactiveChatContext is the reply context the stdin loop drives
// ReplyChat with. A real deployment derives this from game state per
// message; the interactive loop has none, so it uses a single fixed
// context (MSG_DEATH's numeric code) for every line typed.
const interactiveChatContext = 1

// runInteractiveLoop reads lines from stdin as client 0's chat messages
// until ctx is cancelled or stdin closes.
func runInteractiveLoop(ctx context.Context, engine *chatengine.State) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if _, err := engine.ReplyChat(ctx, 0, line, interactiveChatContext); err != nil {
				slog.Warn("reply-chat dispatch failed", "err", err)
			}
		}
	}
}

func buildDispatchSink(cfg config.DispatchConfig) (dispatch.Sink, func(), error) {
	switch cfg.Kind {
	case "discord":
		session, err := discordgo.New("Bot " + cfg.DiscordToken)
		if err != nil {
			return nil, func() {}, fmt.Errorf("create discord session: %w", err)
		}
		if err := session.Open(); err != nil {
			return nil, func() {}, fmt.Errorf("open discord session: %w", err)
		}
		sink := dispatch.NewDiscordSink(session, cfg.DiscordGuildChannel, cfg.DiscordTeamChannel, nil)
		return sink, func() { session.Close() }, nil
	default:
		return dispatch.NewConsoleSink(os.Stdout), func() {}, nil
	}
}

func buildAuditLog(ctx context.Context, cfg config.ChatLogConfig) (*chatlog.Sink, error) {
	if cfg.PostgresDSN == "" {
		return nil, nil
	}
	return chatlog.Open(ctx, cfg.PostgresDSN)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
