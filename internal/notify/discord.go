// Package notify relays published post links into a Discord channel. Delivery
// is best-effort: the publish cycle never depends on it.
package notify

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/skinmuseum/skinpost/internal/skinpost"
)

const (
	envBotToken  = "SKINPOST_DISCORD_BOT_TOKEN"
	envChannelID = "SKINPOST_DISCORD_CHANNEL_ID"

	sinkName = "discord"
)

// Discord sends messages into a single configured channel.
type Discord struct {
	session   *discordgo.Session
	channelID string
}

// New constructs a Discord notifier from environment configuration.
func New() (*Discord, error) {
	token := strings.TrimSpace(os.Getenv(envBotToken))
	channelID := strings.TrimSpace(os.Getenv(envChannelID))

	var missing []string
	if token == "" {
		missing = append(missing, envBotToken)
	}
	if channelID == "" {
		missing = append(missing, envChannelID)
	}
	if len(missing) > 0 {
		return nil, skinpost.MissingEnvError{Platform: sinkName, Variables: missing}
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}

	return &Discord{session: session, channelID: channelID}, nil
}

// Announce delivers one line of text into the configured channel.
func (d *Discord) Announce(ctx context.Context, text string) error {
	if _, err := d.session.ChannelMessageSend(d.channelID, text, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("send channel message: %w", err)
	}
	return nil
}
