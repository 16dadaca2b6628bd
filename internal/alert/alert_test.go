package alert

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
	slackapi "github.com/slack-go/slack"
)

// mockSlack records posted messages.
type mockSlack struct {
	channels []string
	err      error
}

func (m *mockSlack) PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
	m.channels = append(m.channels, channelID)
	return "", "", m.err
}

// mockDiscord records sent embeds.
type mockDiscord struct {
	embeds []*discordgo.MessageEmbed
	err    error
}

func (m *mockDiscord) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.embeds = append(m.embeds, embed)
	return nil, m.err
}

func TestSlackNotify(t *testing.T) {
	mock := &mockSlack{}
	n, err := NewSlack(SlackOpts{ChannelID: "C123", Client: mock})
	if err != nil {
		t.Fatalf("new slack: %v", err)
	}

	a := Alert{Title: "event stuck", Body: "5 attempts", Severity: SeverityError}
	if err := n.Notify(context.Background(), a); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(mock.channels) != 1 || mock.channels[0] != "C123" {
		t.Errorf("posted channels = %v", mock.channels)
	}
}

func TestSlackNotify_Error(t *testing.T) {
	mock := &mockSlack{err: errors.New("rate limited")}
	n, _ := NewSlack(SlackOpts{ChannelID: "C123", Client: mock})
	if err := n.Notify(context.Background(), Alert{Title: "x"}); err == nil {
		t.Error("expected error from failed post")
	}
}

func TestNewSlack_Validation(t *testing.T) {
	if _, err := NewSlack(SlackOpts{ChannelID: "C123"}); err == nil {
		t.Error("expected error for missing token")
	}
	if _, err := NewSlack(SlackOpts{Client: &mockSlack{}}); err == nil {
		t.Error("expected error for missing channel")
	}
}

func TestDiscordNotify(t *testing.T) {
	mock := &mockDiscord{}
	n, err := NewDiscord(DiscordOpts{ChannelID: "D456", Session: mock})
	if err != nil {
		t.Fatalf("new discord: %v", err)
	}

	a := Alert{Title: "event stuck", Severity: SeverityWarning, Fields: map[string]string{"event_id": "evt-1"}}
	if err := n.Notify(context.Background(), a); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(mock.embeds) != 1 {
		t.Fatalf("embeds = %d, want 1", len(mock.embeds))
	}
	if mock.embeds[0].Title != "event stuck" {
		t.Errorf("title = %q", mock.embeds[0].Title)
	}
	if len(mock.embeds[0].Fields) != 1 {
		t.Errorf("fields = %d, want 1", len(mock.embeds[0].Fields))
	}
}

func TestFanout_ContinuesPastFailure(t *testing.T) {
	failing := &mockSlack{err: errors.New("down")}
	working := &mockSlack{}
	a, _ := NewSlack(SlackOpts{ChannelID: "C1", Client: failing})
	b, _ := NewSlack(SlackOpts{ChannelID: "C2", Client: working})

	if err := (Fanout{a, b}).Notify(context.Background(), Alert{Title: "x"}); err != nil {
		t.Fatalf("fanout should swallow channel errors: %v", err)
	}
	if len(working.channels) != 1 {
		t.Error("second notifier not reached after first failed")
	}
}

func TestParseHexColor(t *testing.T) {
	if got := parseHexColor("#d00000"); got != 0xd00000 {
		t.Errorf("parseHexColor = %#x, want 0xd00000", got)
	}
	if got := parseHexColor("bogus"); got != 0 {
		t.Errorf("parseHexColor(bogus) = %d, want 0", got)
	}
}
