package dispatch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
)

// ClientResolver maps an engine client index to the Discord user ID to
// whisper to for SendTell. A false second return drops the tell.
type ClientResolver func(client int) (userID string, ok bool)

// DiscordSink dispatches chat messages through a live discordgo session:
// say and say_team land in fixed channels, tell opens a DM to whatever
// ClientResolver reports for the client.
type DiscordSink struct {
	session       *discordgo.Session
	sayChannel    string
	teamChannel   string
	resolveClient ClientResolver
}

// NewDiscordSink builds a DiscordSink. teamChannel may equal sayChannel when
// the deployment has no separate team channel. resolveClient may be nil, in
// which case every tell is dropped with a warning.
func NewDiscordSink(session *discordgo.Session, sayChannel, teamChannel string, resolveClient ClientResolver) *DiscordSink {
	return &DiscordSink{
		session:       session,
		sayChannel:    sayChannel,
		teamChannel:   teamChannel,
		resolveClient: resolveClient,
	}
}

// Send implements Sink.
func (d *DiscordSink) Send(ctx context.Context, sendto SendTo, client int, message string) error {
	switch sendto {
	case SendSayTeam:
		return d.sendChannel(ctx, d.teamChannel, message)
	case SendTell:
		return d.sendTell(ctx, client, message)
	default:
		return d.sendChannel(ctx, d.sayChannel, message)
	}
}

func (d *DiscordSink) sendChannel(ctx context.Context, channelID, message string) error {
	if channelID == "" {
		slog.Warn("dispatch: discord sink has no channel configured, dropping message")
		return nil
	}
	_, err := d.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: message,
	}, discordgo.WithContext(ctx))
	if err != nil {
		slog.Warn("dispatch: discord channel send failed", "channel", channelID, "err", err)
		return fmt.Errorf("dispatch: discord send to channel %s: %w", channelID, err)
	}
	return nil
}

func (d *DiscordSink) sendTell(ctx context.Context, client int, message string) error {
	if d.resolveClient == nil {
		slog.Warn("dispatch: discord sink has no client resolver, dropping tell", "client", client)
		return nil
	}
	userID, ok := d.resolveClient(client)
	if !ok {
		slog.Warn("dispatch: unresolved tell target, dropping message", "client", client)
		return nil
	}
	dm, err := d.session.UserChannelCreate(userID)
	if err != nil {
		slog.Warn("dispatch: discord DM channel lookup failed", "client", client, "err", err)
		return fmt.Errorf("dispatch: discord DM channel for client %d: %w", client, err)
	}
	_, err = d.session.ChannelMessageSendComplex(dm.ID, &discordgo.MessageSend{
		Content: message,
	}, discordgo.WithContext(ctx))
	if err != nil {
		slog.Warn("dispatch: discord DM send failed", "client", client, "err", err)
		return fmt.Errorf("dispatch: discord tell to client %d: %w", client, err)
	}
	return nil
}
