package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"tabhook/internal/model"
)

// RelayError reports a rejected Slack post, carrying the remote response
// body for the caller to surface.
type RelayError struct {
	StatusCode int
	Body       string
}

func (e *RelayError) Error() string {
	return fmt.Sprintf("slack rejected message (status %d): %s", e.StatusCode, e.Body)
}

// Notifier translates Tableau event notifications into Slack attachment
// messages and posts them to a configured incoming webhook. It never touches
// the Tableau session layer.
type Notifier struct {
	webhookURL string
	channel    string
	color      string
	httpClient *http.Client
	log        *zap.Logger
}

// New creates a Notifier posting to the given incoming-webhook URL. color is
// the fixed attachment color applied to every message.
func New(webhookURL, channel, color string, log *zap.Logger) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		channel:    channel,
		color:      color,
		httpClient: http.DefaultClient,
		log:        log,
	}
}

// Message builds the deterministic Slack attachment message for a
// notification.
func (n *Notifier) Message(ev model.EventNotification) *slack.WebhookMessage {
	ev = ev.WithDefaults()
	return &slack.WebhookMessage{
		Channel: n.channel,
		Attachments: []slack.Attachment{{
			Fallback: fmt.Sprintf("%s - %s", ev.EventType, ev.ResourceName),
			Color:    n.color,
			Pretext:  ev.EventType + ":",
			Fields: []slack.AttachmentField{{
				Title: ev.ResourceName,
				Value: ev.Text,
				Short: false,
			}},
		}},
	}
}

// Relay posts the notification to Slack. The POST is issued directly rather
// than through slack.PostWebhook so a rejection keeps the remote response
// body.
func (n *Notifier) Relay(ctx context.Context, ev model.EventNotification) error {
	payload, err := json.Marshal(n.Message(ev))
	if err != nil {
		return fmt.Errorf("failed to encode slack message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("slack request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return &RelayError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	n.log.Info("alert posted to slack", zap.String("event_type", ev.EventType), zap.String("resource_name", ev.ResourceName))
	return nil
}
