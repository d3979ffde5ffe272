package tableau

import (
	"context"
	"fmt"
	"net/http"
)

// eventTypes is the closed set of Tableau event names a webhook can
// subscribe to. See
// https://help.tableau.com/current/developer/webhooks/en-us/docs/webhooks-events-payload.html
var eventTypes = []string{
	"AdminPromoted",
	"AdminDemoted",
	"DatasourceUpdated",
	"DatasourceCreated",
	"DatasourceDeleted",
	"DatasourceRefreshStarted",
	"DatasourceRefreshSucceeded",
	"DatasourceRefreshFailed",
	"LabelCreated",
	"LabelUpdated",
	"LabelDeleted",
	"SiteCreated",
	"SiteUpdated",
	"SiteDeleted",
	"UserDeleted",
	"ViewDeleted",
	"WorkbookUpdated",
	"WorkbookCreated",
	"WorkbookDeleted",
	"WorkbookRefreshStarted",
	"WorkbookRefreshSucceeded",
	"WorkbookRefreshFailed",
}

var eventTypeSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(eventTypes))
	for _, e := range eventTypes {
		set[e] = struct{}{}
	}
	return set
}()

// ValidEvent reports whether name is a member of the Tableau event set.
func ValidEvent(name string) bool {
	_, ok := eventTypeSet[name]
	return ok
}

// EventTypes returns the valid Tableau event names in their documented order.
func EventTypes() []string {
	out := make([]string, len(eventTypes))
	copy(out, eventTypes)
	return out
}

// CreateWebhook registers a webhook subscription on the Tableau server and
// returns the server-assigned id. Validation failures are reported before
// any network call is made.
func (c *Client) CreateWebhook(ctx context.Context, name, event, destinationURL string) (string, error) {
	if name == "" {
		return "", &ValidationError{Field: "name", Reason: "webhook name is required"}
	}
	if event == "" {
		return "", &ValidationError{Field: "event", Reason: "event type is required"}
	}
	if !ValidEvent(event) {
		return "", &ValidationError{Field: "event", Reason: fmt.Sprintf("invalid event type: %s", event)}
	}
	if destinationURL == "" {
		return "", &ValidationError{Field: "destination_url", Reason: "destination URL is required"}
	}

	session, err := c.SignIn(ctx)
	if err != nil {
		return "", err
	}
	defer c.signOutQuietly(ctx, session.Token)

	payload, err := encodeWebhookRequest(name, event, destinationURL)
	if err != nil {
		return "", fmt.Errorf("failed to encode webhook request: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, c.url("/sites/%s/webhooks", session.SiteID), session.Token, payload, http.StatusCreated)
	if err != nil {
		return "", err
	}

	created, err := decodeWebhook(body)
	if err != nil {
		return "", err
	}
	return created.ID, nil
}

// ListWebhooks enumerates the webhook subscriptions on the signed-in site.
// An empty collection is a valid, non-error result.
func (c *Client) ListWebhooks(ctx context.Context) ([]Webhook, error) {
	session, err := c.SignIn(ctx)
	if err != nil {
		return nil, err
	}
	defer c.signOutQuietly(ctx, session.Token)

	body, err := c.do(ctx, http.MethodGet, c.url("/sites/%s/webhooks", session.SiteID), session.Token, nil, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return decodeWebhookList(body)
}

// DeleteWebhook removes a webhook subscription; the remote subscription
// stops firing once the call succeeds.
func (c *Client) DeleteWebhook(ctx context.Context, webhookID string) error {
	if webhookID == "" {
		return &ValidationError{Field: "webhook_id", Reason: "missing required parameter: webhook_id"}
	}

	session, err := c.SignIn(ctx)
	if err != nil {
		return err
	}
	defer c.signOutQuietly(ctx, session.Token)

	_, err = c.do(ctx, http.MethodDelete, c.url("/sites/%s/webhooks/%s", session.SiteID, webhookID), session.Token, nil, http.StatusNoContent)
	return err
}
