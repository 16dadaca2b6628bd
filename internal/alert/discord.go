package alert

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// discordSession abstracts the discordgo.Session methods we use, enabling
// test mocks.
type discordSession interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordNotifier posts alerts to a Discord channel as embeds.
type DiscordNotifier struct {
	sess      discordSession
	channelID string
}

// DiscordOpts holds parameters for creating a DiscordNotifier.
type DiscordOpts struct {
	Token     string // Discord bot token
	ChannelID string
	// Session injects a mock instead of the real Discord API.
	Session discordSession
}

// NewDiscord creates a DiscordNotifier.
func NewDiscord(opts DiscordOpts) (*DiscordNotifier, error) {
	if opts.Session == nil && opts.Token == "" {
		return nil, fmt.Errorf("alert: discord token is required")
	}
	if opts.ChannelID == "" {
		return nil, fmt.Errorf("alert: discord channel is required")
	}
	sess := opts.Session
	if sess == nil {
		s, err := discordgo.New("Bot " + opts.Token)
		if err != nil {
			return nil, fmt.Errorf("alert: discord session: %w", err)
		}
		sess = s
	}
	return &DiscordNotifier{sess: sess, channelID: opts.ChannelID}, nil
}

// Notify implements Notifier.
func (n *DiscordNotifier) Notify(ctx context.Context, a Alert) error {
	embed := &discordgo.MessageEmbed{
		Title:       a.Title,
		Description: a.Body,
		Color:       parseHexColor(severityColor(a.Severity)),
	}
	for name, value := range a.Fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   name,
			Value:  value,
			Inline: true,
		})
	}

	if _, err := n.sess.ChannelMessageSendEmbed(n.channelID, embed, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("alert: discord post: %w", err)
	}
	return nil
}

// parseHexColor converts a hex color string (e.g. "#d00000") to an int.
func parseHexColor(hex string) int {
	v, err := strconv.ParseInt(strings.TrimPrefix(hex, "#"), 16, 32)
	if err != nil {
		return 0
	}
	return int(v)
}
