package discord

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/dsda-bot/internal/watcher"
)

// NotificationSink delivers watcher notifications to a text channel found by
// name in any connected guild.
type NotificationSink struct {
	bot *Bot
}

// Resolve waits for the session to become ready and returns the ID of the
// first text channel called name.
func (n *NotificationSink) Resolve(ctx context.Context, name string) (string, error) {
	select {
	case <-n.bot.ready:
	case <-ctx.Done():
		return "", ctx.Err()
	}

	state := n.bot.dg.State
	state.RLock()
	defer state.RUnlock()

	if id := findTextChannel(state.Guilds, name); id != "" {
		return id, nil
	}
	return "", fmt.Errorf("channel #%s: %w", name, watcher.ErrDestinationNotFound)
}

// Send posts text to the channel resolved earlier.
func (n *NotificationSink) Send(ctx context.Context, channelID, text string) error {
	for _, chunk := range splitMessage(text, maxMessageLen) {
		if _, err := n.bot.dg.ChannelMessageSend(channelID, chunk, discordgo.WithContext(ctx)); err != nil {
			return fmt.Errorf("send to %s: %w", channelID, err)
		}
	}
	return nil
}

func findTextChannel(guilds []*discordgo.Guild, name string) string {
	name = strings.TrimPrefix(name, "#")
	for _, g := range guilds {
		for _, c := range g.Channels {
			if c.Type == discordgo.ChannelTypeGuildText && c.Name == name {
				return c.ID
			}
		}
	}
	return ""
}
