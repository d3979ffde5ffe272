package tableau

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
)

// authHeader carries the session token on every authenticated call.
const authHeader = "X-Tableau-Auth"

// Client is a Tableau REST API client scoped to one server, one site and one
// personal access token. It holds no session state: every administrative
// operation signs in, runs, and signs out again, so concurrent use needs no
// locking.
type Client struct {
	server      string
	tokenName   string
	tokenSecret string
	site        string
	version     string
	httpClient  *http.Client
	log         *zap.Logger
}

// NewClient creates a Tableau client. version is the REST API version
// formatted into every URL path segment; it is never negotiated. site is the
// site contentUrl, empty for the default site.
func NewClient(server, tokenName, tokenSecret, site, version string, log *zap.Logger) *Client {
	return &Client{
		server:      server,
		tokenName:   tokenName,
		tokenSecret: tokenSecret,
		site:        site,
		version:     version,
		httpClient:  http.DefaultClient,
		log:         log,
	}
}

func (c *Client) url(format string, args ...interface{}) string {
	return c.server + "/api/" + c.version + fmt.Sprintf(format, args...)
}

// SignIn exchanges the client's credentials for an auth token and the id of
// the signed-in site.
func (c *Client) SignIn(ctx context.Context) (Session, error) {
	payload, err := encodeSignInRequest(c.tokenName, c.tokenSecret, c.site)
	if err != nil {
		return Session{}, fmt.Errorf("failed to encode signin request: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, c.url("/auth/signin"), "", payload, http.StatusOK)
	if err != nil {
		return Session{}, err
	}
	return decodeCredentials(body)
}

// SignOut invalidates the token on the server. The client holds no local
// session state, so there is nothing to release here.
func (c *Client) SignOut(ctx context.Context, token string) error {
	_, err := c.do(ctx, http.MethodPost, c.url("/auth/signout"), token, nil, http.StatusNoContent)
	return err
}

// signOutQuietly is the deferred half of the per-operation session scope.
// The operation has already completed by the time it runs, so a failed
// sign-out is logged rather than surfaced.
func (c *Client) signOutQuietly(ctx context.Context, token string) {
	if err := c.SignOut(ctx, token); err != nil {
		c.log.Warn("failed to sign out of tableau", zap.Error(err))
	}
}

// do issues one request, carrying the token when given, and validates the
// response status against the expected success code. It returns the raw
// response body for the caller to decode.
func (c *Client) do(ctx context.Context, method, url, token string, payload []byte, successCode int) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to build tableau request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/xml")
	}
	if token != "" {
		req.Header.Set(authHeader, token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tableau request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read tableau response: %w", err)
	}

	if err := CheckStatus(resp, body, successCode); err != nil {
		return nil, err
	}
	return body, nil
}
