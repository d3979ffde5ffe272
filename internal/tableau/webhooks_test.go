package tableau

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"
)

// fakeTableau is an httptest-backed stand-in for a Tableau Server: it issues
// tokens on signin, stores created webhooks in memory, and answers the
// webhook collection endpoints with the real XML shapes.
type fakeTableau struct {
	mu       sync.Mutex
	calls    []string
	webhooks []Webhook
	nextID   int
	server   *httptest.Server
}

func newFakeTableau(t *testing.T) *fakeTableau {
	t.Helper()
	f := &fakeTableau{nextID: 1}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/3.21/auth/signin", f.handleSignIn)
	mux.HandleFunc("POST /api/3.21/auth/signout", f.handleSignOut)
	mux.HandleFunc("POST /api/3.21/sites/site-1/webhooks", f.handleCreate)
	mux.HandleFunc("GET /api/3.21/sites/site-1/webhooks", f.handleList)
	mux.HandleFunc("DELETE /api/3.21/sites/site-1/webhooks/{id}", f.handleDelete)
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeTableau) client(t *testing.T) *Client {
	t.Helper()
	return NewClient(f.server.URL, "pat-name", "pat-secret", "", "3.21", zap.NewNop())
}

func (f *fakeTableau) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeTableau) recordedCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeTableau) handleSignIn(w http.ResponseWriter, r *http.Request) {
	f.record("signin")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, `<tsResponse xmlns="http://tableau.com/api">
		<credentials token="test-token"><site id="site-1" contentUrl=""/></credentials>
	</tsResponse>`)
}

func (f *fakeTableau) handleSignOut(w http.ResponseWriter, r *http.Request) {
	f.record("signout")
	w.WriteHeader(http.StatusNoContent)
}

func (f *fakeTableau) handleCreate(w http.ResponseWriter, r *http.Request) {
	f.record("create")
	if r.Header.Get("X-Tableau-Auth") != "test-token" {
		writeFault(w, http.StatusUnauthorized, "401002", "Unauthorized Access")
		return
	}
	payload, err := decodeCreatePayload(r)
	if err != nil {
		writeFault(w, http.StatusBadRequest, "400000", "Bad Request")
		return
	}

	f.mu.Lock()
	payload.ID = fmt.Sprintf("wh-%d", f.nextID)
	f.nextID++
	f.webhooks = append(f.webhooks, payload)
	f.mu.Unlock()

	w.WriteHeader(http.StatusCreated)
	fmt.Fprintf(w, `<tsResponse xmlns="http://tableau.com/api">
		<webhook id=%q name=%q event=%q>
			<webhook-destination><webhook-destination-http method="POST" url=%q/></webhook-destination>
		</webhook>
	</tsResponse>`, payload.ID, payload.Name, payload.Event, payload.URL)
}

func decodeCreatePayload(r *http.Request) (Webhook, error) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return Webhook{}, err
	}
	body := string(raw)
	wh := Webhook{
		Name:  extractAttr(body, "name"),
		Event: extractAttr(body, "event"),
		URL:   extractAttr(body, "url"),
	}
	if wh.Name == "" || wh.Event == "" || wh.URL == "" {
		return Webhook{}, fmt.Errorf("incomplete webhook payload: %s", body)
	}
	return wh, nil
}

func extractAttr(body, attr string) string {
	marker := attr + `="`
	i := strings.Index(body, marker)
	if i < 0 {
		return ""
	}
	rest := body[i+len(marker):]
	j := strings.Index(rest, `"`)
	if j < 0 {
		return ""
	}
	return rest[:j]
}

func (f *fakeTableau) handleList(w http.ResponseWriter, r *http.Request) {
	f.record("list")
	f.mu.Lock()
	defer f.mu.Unlock()
	var b strings.Builder
	b.WriteString(`<tsResponse xmlns="http://tableau.com/api"><webhooks>`)
	for _, wh := range f.webhooks {
		fmt.Fprintf(&b, `<webhook id=%q name=%q event=%q><webhook-destination><webhook-destination-http method="POST" url=%q/></webhook-destination></webhook>`,
			wh.ID, wh.Name, wh.Event, wh.URL)
	}
	b.WriteString(`</webhooks></tsResponse>`)
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, b.String())
}

func (f *fakeTableau) handleDelete(w http.ResponseWriter, r *http.Request) {
	f.record("delete")
	id := r.PathValue("id")
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, wh := range f.webhooks {
		if wh.ID == id {
			f.webhooks = append(f.webhooks[:i], f.webhooks[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeFault(w, http.StatusNotFound, "404006", "Resource Not Found")
}

func writeFault(w http.ResponseWriter, status int, code, summary string) {
	w.WriteHeader(status)
	fmt.Fprintf(w, `<tsResponse xmlns="http://tableau.com/api">
		<error code=%q><summary>%s</summary><detail>%s details</detail></error>
	</tsResponse>`, code, summary, summary)
}

func TestSignIn(t *testing.T) {
	f := newFakeTableau(t)
	session, err := f.client(t).SignIn(context.Background())
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	if session.Token != "test-token" || session.SiteID != "site-1" {
		t.Errorf("unexpected session %+v", session)
	}
}

func TestCreateWebhookUnknownEventMakesNoCall(t *testing.T) {
	f := newFakeTableau(t)
	_, err := f.client(t).CreateWebhook(context.Background(), "alerts", "WorkbookExploded", "https://dest.example.com")

	var valErr *ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected *ValidationError, got %T: %v", err, err)
	}
	if valErr.Field != "event" {
		t.Errorf("expected event field error, got %q", valErr.Field)
	}
	if calls := f.recordedCalls(); len(calls) != 0 {
		t.Errorf("expected no network calls, got %v", calls)
	}
}

func TestCreateWebhookMissingFields(t *testing.T) {
	f := newFakeTableau(t)
	c := f.client(t)

	cases := []struct {
		name, event, url, field string
	}{
		{"", "WorkbookRefreshFailed", "https://dest.example.com", "name"},
		{"alerts", "", "https://dest.example.com", "event"},
		{"alerts", "WorkbookRefreshFailed", "", "destination_url"},
	}
	for _, tc := range cases {
		_, err := c.CreateWebhook(context.Background(), tc.name, tc.event, tc.url)
		var valErr *ValidationError
		if !errors.As(err, &valErr) {
			t.Fatalf("expected *ValidationError for missing %s, got %T: %v", tc.field, err, err)
		}
		if valErr.Field != tc.field {
			t.Errorf("expected %s field error, got %q", tc.field, valErr.Field)
		}
	}
	if calls := f.recordedCalls(); len(calls) != 0 {
		t.Errorf("expected no network calls, got %v", calls)
	}
}

func TestCreateWebhookSignsInThenCreates(t *testing.T) {
	f := newFakeTableau(t)
	id, err := f.client(t).CreateWebhook(context.Background(), "alerts", "WorkbookRefreshFailed", "https://dest.example.com")
	if err != nil {
		t.Fatalf("CreateWebhook failed: %v", err)
	}
	if id != "wh-1" {
		t.Errorf("expected server-assigned id wh-1, got %q", id)
	}

	calls := f.recordedCalls()
	if len(calls) < 2 || calls[0] != "signin" || calls[1] != "create" {
		t.Fatalf("expected signin then create, got %v", calls)
	}
	// The scoped session must be released afterwards.
	if calls[len(calls)-1] != "signout" {
		t.Errorf("expected trailing signout, got %v", calls)
	}
}

func TestListWebhooksEmpty(t *testing.T) {
	f := newFakeTableau(t)
	webhooks, err := f.client(t).ListWebhooks(context.Background())
	if err != nil {
		t.Fatalf("ListWebhooks failed: %v", err)
	}
	if len(webhooks) != 0 {
		t.Errorf("expected empty collection, got %v", webhooks)
	}
}

func TestCreateThenListRoundTrip(t *testing.T) {
	f := newFakeTableau(t)
	c := f.client(t)

	id, err := c.CreateWebhook(context.Background(), "refresh-alerts", "DatasourceRefreshFailed", "https://dest.example.com/hook")
	if err != nil {
		t.Fatalf("CreateWebhook failed: %v", err)
	}

	webhooks, err := c.ListWebhooks(context.Background())
	if err != nil {
		t.Fatalf("ListWebhooks failed: %v", err)
	}
	if len(webhooks) != 1 {
		t.Fatalf("expected 1 webhook, got %d", len(webhooks))
	}
	got := webhooks[0]
	if got.ID != id || got.Name != "refresh-alerts" || got.Event != "DatasourceRefreshFailed" || got.URL != "https://dest.example.com/hook" {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestDeleteWebhook(t *testing.T) {
	f := newFakeTableau(t)
	c := f.client(t)

	id, err := c.CreateWebhook(context.Background(), "alerts", "WorkbookRefreshFailed", "https://dest.example.com")
	if err != nil {
		t.Fatalf("CreateWebhook failed: %v", err)
	}
	if err := c.DeleteWebhook(context.Background(), id); err != nil {
		t.Fatalf("DeleteWebhook failed: %v", err)
	}

	webhooks, err := c.ListWebhooks(context.Background())
	if err != nil {
		t.Fatalf("ListWebhooks failed: %v", err)
	}
	if len(webhooks) != 0 {
		t.Errorf("expected webhook to be gone, got %v", webhooks)
	}
}

func TestDeleteWebhookMissingID(t *testing.T) {
	f := newFakeTableau(t)
	err := f.client(t).DeleteWebhook(context.Background(), "")
	var valErr *ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected *ValidationError, got %T: %v", err, err)
	}
	if calls := f.recordedCalls(); len(calls) != 0 {
		t.Errorf("expected no network calls, got %v", calls)
	}
}

func TestDeleteWebhookNotFoundSurfacesFault(t *testing.T) {
	f := newFakeTableau(t)
	err := f.client(t).DeleteWebhook(context.Background(), "wh-404")

	apiErr := requireAPICallError(t, err)
	if apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 passthrough, got %d", apiErr.StatusCode)
	}
	if apiErr.Code != "404006" || apiErr.Summary != "Resource Not Found" || apiErr.Detail != "Resource Not Found details" {
		t.Errorf("fault not surfaced verbatim: %+v", apiErr)
	}
}

func TestValidEvent(t *testing.T) {
	if !ValidEvent("WorkbookRefreshFailed") {
		t.Error("WorkbookRefreshFailed should be valid")
	}
	if ValidEvent("WorkbookExploded") {
		t.Error("WorkbookExploded should not be valid")
	}
	if got := len(EventTypes()); got != 22 {
		t.Errorf("expected 22 event types, got %d", got)
	}
}
