package alert

import (
	"context"
	"fmt"

	slackapi "github.com/slack-go/slack"
)

// slackClient abstracts the Slack API methods we use, enabling test mocks.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error)
}

// SlackNotifier posts alerts to a Slack channel.
type SlackNotifier struct {
	client    slackClient
	channelID string
}

// SlackOpts holds parameters for creating a SlackNotifier.
type SlackOpts struct {
	Token     string // xoxb-... Slack bot token
	ChannelID string
	// Client injects a mock instead of the real Slack API.
	Client slackClient
}

// NewSlack creates a SlackNotifier.
func NewSlack(opts SlackOpts) (*SlackNotifier, error) {
	if opts.Client == nil && opts.Token == "" {
		return nil, fmt.Errorf("alert: slack token is required")
	}
	if opts.ChannelID == "" {
		return nil, fmt.Errorf("alert: slack channel is required")
	}
	client := opts.Client
	if client == nil {
		client = slackapi.New(opts.Token)
	}
	return &SlackNotifier{client: client, channelID: opts.ChannelID}, nil
}

// Notify implements Notifier.
func (n *SlackNotifier) Notify(ctx context.Context, a Alert) error {
	attachment := slackapi.Attachment{
		Title: a.Title,
		Text:  a.Body,
		Color: severityColor(a.Severity),
	}
	for name, value := range a.Fields {
		attachment.Fields = append(attachment.Fields, slackapi.AttachmentField{
			Title: name,
			Value: value,
			Short: true,
		})
	}

	_, _, err := n.client.PostMessageContext(ctx, n.channelID, slackapi.MsgOptionAttachments(attachment))
	if err != nil {
		return fmt.Errorf("alert: slack post: %w", err)
	}
	return nil
}
