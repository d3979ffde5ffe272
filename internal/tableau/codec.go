package tableau

import (
	"encoding/xml"
	"fmt"
	"strings"
	"unicode/utf8"
)

// apiNamespace is the XML namespace of every Tableau REST request and
// response body. It is confined to this file; the rest of the package works
// with namespace-free logical names.
const apiNamespace = "http://tableau.com/api"

// Session is the result of a sign-in call: an auth token and the id of the
// site it is scoped to. Sessions are ephemeral and never cached across
// operations.
type Session struct {
	Token  string
	SiteID string
}

// Webhook describes a webhook subscription on the Tableau server. The server
// is the sole source of truth; the bridge keeps no local copy.
type Webhook struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Event string `json:"event"`
	URL   string `json:"url"`
}

type signInRequest struct {
	XMLName     xml.Name      `xml:"tsRequest"`
	Xmlns       string        `xml:"xmlns,attr"`
	Credentials signInPayload `xml:"credentials"`
}

type signInPayload struct {
	TokenName   string     `xml:"personalAccessTokenName,attr"`
	TokenSecret string     `xml:"personalAccessTokenSecret,attr"`
	Site        signInSite `xml:"site"`
}

type signInSite struct {
	ContentURL string `xml:"contentUrl,attr"`
}

type webhookCreateRequest struct {
	XMLName xml.Name       `xml:"tsRequest"`
	Xmlns   string         `xml:"xmlns,attr"`
	Webhook webhookPayload `xml:"webhook"`
}

type webhookPayload struct {
	Name        string             `xml:"name,attr"`
	Event       string             `xml:"event,attr"`
	Destination webhookDestination `xml:"webhook-destination"`
}

type webhookDestination struct {
	HTTP webhookDestinationHTTP `xml:"webhook-destination-http"`
}

type webhookDestinationHTTP struct {
	Method string `xml:"method,attr"`
	URL    string `xml:"url,attr"`
}

// encodeSignInRequest builds the credentials document for the signin call.
// An empty site selects the server's default site.
func encodeSignInRequest(tokenName, tokenSecret, site string) ([]byte, error) {
	req := signInRequest{
		Xmlns: apiNamespace,
		Credentials: signInPayload{
			TokenName:   tokenName,
			TokenSecret: tokenSecret,
			Site:        signInSite{ContentURL: site},
		},
	}
	return xml.Marshal(req)
}

// encodeWebhookRequest builds the webhook creation document. Tableau only
// supports HTTP POST destinations, so the method is fixed.
func encodeWebhookRequest(name, event, destinationURL string) ([]byte, error) {
	req := webhookCreateRequest{
		Xmlns: apiNamespace,
		Webhook: webhookPayload{
			Name:  name,
			Event: event,
			Destination: webhookDestination{
				HTTP: webhookDestinationHTTP{Method: "POST", URL: destinationURL},
			},
		},
	}
	return xml.Marshal(req)
}

type credentialsResponse struct {
	Credentials *struct {
		Token string `xml:"token,attr"`
		Site  *struct {
			ID string `xml:"id,attr"`
		} `xml:"http://tableau.com/api site"`
	} `xml:"http://tableau.com/api credentials"`
}

// decodeCredentials extracts the auth token and site id from a signin
// response body.
func decodeCredentials(body []byte) (Session, error) {
	var parsed credentialsResponse
	if err := xml.Unmarshal(body, &parsed); err != nil {
		return Session{}, &ProtocolError{Op: "decode signin response", Err: err}
	}
	if parsed.Credentials == nil || parsed.Credentials.Token == "" {
		return Session{}, &ProtocolError{Op: "decode signin response", Err: fmt.Errorf("missing credentials token")}
	}
	if parsed.Credentials.Site == nil || parsed.Credentials.Site.ID == "" {
		return Session{}, &ProtocolError{Op: "decode signin response", Err: fmt.Errorf("missing site id")}
	}
	return Session{
		Token:  sanitizeText(parsed.Credentials.Token),
		SiteID: sanitizeText(parsed.Credentials.Site.ID),
	}, nil
}

type webhookElement struct {
	ID          string `xml:"id,attr"`
	Name        string `xml:"name,attr"`
	Event       string `xml:"event,attr"`
	Destination *struct {
		HTTP *struct {
			URL string `xml:"url,attr"`
		} `xml:"http://tableau.com/api webhook-destination-http"`
	} `xml:"http://tableau.com/api webhook-destination"`
}

func (e *webhookElement) toWebhook() (Webhook, error) {
	if e.Destination == nil || e.Destination.HTTP == nil {
		return Webhook{}, &ProtocolError{
			Op:  "decode webhook",
			Err: fmt.Errorf("webhook %q has no webhook-destination-http element", e.ID),
		}
	}
	return Webhook{
		ID:    sanitizeText(e.ID),
		Name:  sanitizeText(e.Name),
		Event: sanitizeText(e.Event),
		URL:   sanitizeText(e.Destination.HTTP.URL),
	}, nil
}

type webhookCreateResponse struct {
	Webhook *webhookElement `xml:"http://tableau.com/api webhook"`
}

// decodeWebhook extracts the created subscription from a webhook creation
// response body.
func decodeWebhook(body []byte) (Webhook, error) {
	var parsed webhookCreateResponse
	if err := xml.Unmarshal(body, &parsed); err != nil {
		return Webhook{}, &ProtocolError{Op: "decode webhook response", Err: err}
	}
	if parsed.Webhook == nil {
		return Webhook{}, &ProtocolError{Op: "decode webhook response", Err: fmt.Errorf("missing webhook element")}
	}
	return parsed.Webhook.toWebhook()
}

type webhookListResponse struct {
	Webhooks struct {
		Webhook []webhookElement `xml:"http://tableau.com/api webhook"`
	} `xml:"http://tableau.com/api webhooks"`
}

// decodeWebhookList extracts every subscription from a webhook collection
// response body, in document order. An empty collection decodes to an empty
// slice.
func decodeWebhookList(body []byte) ([]Webhook, error) {
	var parsed webhookListResponse
	if err := xml.Unmarshal(body, &parsed); err != nil {
		return nil, &ProtocolError{Op: "decode webhook list", Err: err}
	}
	webhooks := make([]Webhook, 0, len(parsed.Webhooks.Webhook))
	for i := range parsed.Webhooks.Webhook {
		wh, err := parsed.Webhooks.Webhook[i].toWebhook()
		if err != nil {
			return nil, err
		}
		webhooks = append(webhooks, wh)
	}
	return webhooks, nil
}

// sanitizeText replaces every rune outside printable ASCII with a \uXXXX
// placeholder so fault and resource text can always be rendered, whatever
// encoding the server sent.
func sanitizeText(s string) string {
	ascii := true
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			ascii = false
			break
		}
	}
	if ascii {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < utf8.RuneSelf {
			b.WriteRune(r)
		} else {
			fmt.Fprintf(&b, `\u%04x`, r)
		}
	}
	return b.String()
}
