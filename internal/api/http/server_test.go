package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/helpdeskhq/helpdesk/internal/api/http/handlers"
	"github.com/helpdeskhq/helpdesk/internal/clock"
	"github.com/helpdeskhq/helpdesk/internal/config"
	"github.com/helpdeskhq/helpdesk/internal/domain"
	"github.com/helpdeskhq/helpdesk/internal/events"
	"github.com/helpdeskhq/helpdesk/internal/observability"
	"github.com/helpdeskhq/helpdesk/internal/persistence"
	"github.com/helpdeskhq/helpdesk/internal/repository"
	"github.com/helpdeskhq/helpdesk/internal/service"
)

type testServer struct {
	app        *fiber.App
	users      *persistence.MemoryStore[domain.User]
	tickets    *persistence.MemoryStore[domain.Ticket]
	clock      *clock.FakeClock
	dispatcher events.Dispatcher
}

func newTestServer(t *testing.T, opts ...func(*config.Config)) *testServer {
	t.Helper()
	ts := &testServer{
		users:      persistence.NewMemoryStore[domain.User](),
		tickets:    persistence.NewMemoryStore[domain.Ticket](),
		clock:      clock.Fake(time.Now()),
		dispatcher: events.NewInMemoryDispatcher(),
	}
	cfg := &config.Config{
		App:     config.AppConfig{Name: "helpdesk", Version: "test", RequestTimeoutSeconds: 5},
		Session: config.SessionConfig{TTLHours: 24, CookieName: "helpdesk_session"},
		Auth:    config.AuthConfig{JWTSecret: "test-secret", BcryptCost: bcrypt.MinCost},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	authSvc := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:   repository.NewUserRepository(ts.users),
		Dispatcher: ts.dispatcher,
		Clock:      ts.clock,
	})
	ticketSvc := service.NewTicketService(service.TicketDependencies{
		TicketRepo: repository.NewTicketRepository(ts.tickets),
		Dispatcher: ts.dispatcher,
		Clock:      ts.clock,
	})
	ts.app = NewServer(cfg, ServerDependencies{
		Auth:         authSvc,
		Tickets:      ticketSvc,
		Dependencies: map[string]handlers.Pinger{},
		Metrics:      observability.NewMetrics(),
		Clock:        ts.clock,
	})
	return ts
}

// browser replays cookies between requests.
type browser struct {
	t       *testing.T
	app     *fiber.App
	cookies map[string]*http.Cookie
}

func (ts *testServer) browser(t *testing.T) *browser {
	return &browser{t: t, app: ts.app, cookies: map[string]*http.Cookie{}}
}

func (b *browser) do(method, target string, form url.Values) (*http.Response, string) {
	b.t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	}
	for _, ck := range b.cookies {
		req.AddCookie(&http.Cookie{Name: ck.Name, Value: ck.Value})
	}

	resp, err := b.app.Test(req, -1)
	require.NoError(b.t, err)
	for _, ck := range resp.Cookies() {
		if ck.Value == "" || ck.MaxAge < 0 {
			delete(b.cookies, ck.Name)
			continue
		}
		b.cookies[ck.Name] = ck
	}

	raw, err := io.ReadAll(resp.Body)
	require.NoError(b.t, err)
	return resp, string(raw)
}

func (b *browser) get(target string) (*http.Response, string) {
	return b.do(http.MethodGet, target, nil)
}

func (b *browser) post(target string, form url.Values) (*http.Response, string) {
	return b.do(http.MethodPost, target, form)
}

func (b *browser) signup(name, email string) {
	b.t.Helper()
	resp, _ := b.post("/signup", url.Values{
		"name": {name}, "email": {email}, "password": {"secret"}, "confirmPassword": {"secret"},
	})
	require.Equal(b.t, http.StatusFound, resp.StatusCode)
	require.Equal(b.t, "/dashboard", resp.Header.Get(fiber.HeaderLocation))
}

func ticketForm(title, status string) url.Values {
	return url.Values{"title": {title}, "description": {"details"}, "status": {status}, "priority": {"high"}}
}

func TestPublicPages(t *testing.T) {
	ts := newTestServer(t)
	b := ts.browser(t)

	resp, body := b.get("/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, `href="/signup"`)

	for _, path := range []string{"/login", "/signup", "/sign-up"} {
		resp, _ = b.get(path)
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
	}

	resp, body = b.get("/nope")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Contains(t, body, "<h1>404</h1>")
}

func TestProtectedPagesRedirectToLogin(t *testing.T) {
	ts := newTestServer(t)
	b := ts.browser(t)

	resp, _ := b.get("/dashboard")
	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, "/login", resp.Header.Get(fiber.HeaderLocation))

	_, body := b.get("/login")
	require.Contains(t, body, "You must be logged in to access that page.")

	_, body = b.get("/login")
	require.NotContains(t, body, "You must be logged in", "flash is read once")
}

func TestSignupLoginLogout(t *testing.T) {
	ts := newTestServer(t)
	b := ts.browser(t)
	b.signup("Al", "al@x.com")

	resp, body := b.get("/dashboard")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "Welcome back, Al")
	require.Contains(t, body, `<h2 id="stat-total">0</h2>`)

	resp, _ = b.get("/logout")
	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, "/", resp.Header.Get(fiber.HeaderLocation))

	resp, _ = b.get("/dashboard")
	require.Equal(t, "/login", resp.Header.Get(fiber.HeaderLocation))

	resp, body = b.post("/login", url.Values{"email": {"al@x.com"}, "password": {"wrong"}})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Contains(t, body, "Invalid email or password")
	require.Contains(t, body, `value="al@x.com"`)

	resp, _ = b.post("/login", url.Values{"email": {"al@x.com"}, "password": {"secret"}})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, "/dashboard", resp.Header.Get(fiber.HeaderLocation))

	resp, _ = b.get("/dashboard")
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSignupValidationRerendersForm(t *testing.T) {
	ts := newTestServer(t)
	b := ts.browser(t)

	resp, body := b.post("/signup", url.Values{
		"name": {""}, "email": {"bad"}, "password": {"abc"}, "confirmPassword": {"abd"},
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Contains(t, body, "Please fix the errors below")
	require.Contains(t, body, "Name is required")
	require.Contains(t, body, "Invalid email format")
	require.Contains(t, body, "Password must be at least 6 characters")
	require.Contains(t, body, "Passwords do not match")
	require.Empty(t, ts.users.LoadAll(t.Context()))

	b.signup("Al", "al@x.com")
	other := ts.browser(t)
	resp, body = other.post("/signup", url.Values{
		"name": {"Al"}, "email": {"al@x.com"}, "password": {"secret"}, "confirmPassword": {"secret"},
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.Contains(t, body, "Email already registered")
}

func TestSessionExpiry(t *testing.T) {
	ts := newTestServer(t)
	b := ts.browser(t)
	b.signup("Al", "al@x.com")

	ts.clock.Advance(25 * time.Hour)

	resp, _ := b.get("/tickets")
	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, "/login", resp.Header.Get(fiber.HeaderLocation))

	_, body := b.get("/login")
	require.Contains(t, body, "Your session has expired, please log in again.")
}

func TestTicketLifecycle(t *testing.T) {
	ts := newTestServer(t)
	b := ts.browser(t)
	b.signup("Al", "al@x.com")

	resp, _ := b.post("/tickets", ticketForm("Printer jam", "open"))
	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, "/tickets", resp.Header.Get(fiber.HeaderLocation))

	_, body := b.get("/tickets")
	require.Contains(t, body, "Ticket created successfully!")
	require.Contains(t, body, "Printer jam")

	stored := ts.tickets.LoadAll(t.Context())
	require.Len(t, stored, 1)
	id := stored[0].ID

	_, body = b.get("/tickets?modal=edit&id=" + id)
	require.Contains(t, body, `action="/tickets/update"`)
	require.Contains(t, body, `value="Printer jam"`)

	resp, _ = b.post("/tickets/update", url.Values{"id": {id}, "title": {"Printer fixed"}, "status": {"closed"}})
	require.Equal(t, "/tickets", resp.Header.Get(fiber.HeaderLocation))
	require.Equal(t, domain.TicketStatusClosed, ts.tickets.LoadAll(t.Context())[0].Status)

	_, body = b.get("/dashboard")
	require.Contains(t, body, `<h2 id="stat-resolved">1</h2>`)

	_, body = b.get("/tickets?delete=1&id=" + id)
	require.Contains(t, body, "Delete ticket?")

	resp, _ = b.post("/tickets/delete", url.Values{"id": {id}})
	require.Equal(t, "/tickets", resp.Header.Get(fiber.HeaderLocation))
	require.Empty(t, ts.tickets.LoadAll(t.Context()))

	_, body = b.get("/tickets")
	require.Contains(t, body, "Ticket deleted successfully!")
}

func TestTicketValuesOutliveTheRequest(t *testing.T) {
	ts := newTestServer(t)
	var created []events.Event
	ts.dispatcher.Subscribe(events.EventTicketCreated, func(_ context.Context, e events.Event) error {
		created = append(created, e)
		return nil
	})

	b := ts.browser(t)
	b.signup("Al", "al@x.com")

	first := strings.Repeat("A", 16)
	resp, _ := b.post("/tickets", ticketForm(first, "open"))
	require.Equal(t, http.StatusFound, resp.StatusCode)
	for i := 0; i < 5; i++ {
		resp, _ = b.post("/tickets", ticketForm(strings.Repeat("B", 16), "closed"))
		require.Equal(t, http.StatusFound, resp.StatusCode)
	}

	require.Len(t, created, 6)
	payload, ok := created[0].Payload.(events.TicketCreatedPayload)
	require.True(t, ok)
	require.Equal(t, first, payload.Title)
	require.Equal(t, domain.TicketStatusOpen, payload.Status)

	stored := ts.tickets.LoadAll(context.Background())
	require.Len(t, stored, 6)
	require.Equal(t, first, stored[0].Title)
	require.Equal(t, domain.TicketStatusOpen, stored[0].Status)
	require.Equal(t, "details", stored[0].Description)
	require.Equal(t, created[0].TicketID, stored[0].ID)
}

func TestTicketValidationRoundTrip(t *testing.T) {
	ts := newTestServer(t)
	b := ts.browser(t)
	b.signup("Al", "al@x.com")

	resp, _ := b.post("/tickets", ticketForm("Printer jam", "invalid"))
	require.Equal(t, "/tickets?modal=create", resp.Header.Get(fiber.HeaderLocation))
	require.Empty(t, ts.tickets.LoadAll(t.Context()))

	_, body := b.get("/tickets?modal=create")
	require.Contains(t, body, "Status must be one of: open, in_progress, closed.")
	require.Contains(t, body, `value="Printer jam"`)

	_, body = b.get("/tickets?modal=create")
	require.NotContains(t, body, "Status must be one of", "stashed form is read once")

	resp, _ = b.post("/tickets/update", url.Values{"title": {"x"}, "status": {"open"}})
	require.Equal(t, "/tickets", resp.Header.Get(fiber.HeaderLocation))
	_, body = b.get("/tickets")
	require.Contains(t, body, "Missing ticket ID.")
}

func TestTicketsAreScopedToOwner(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.browser(t)
	alice.signup("Alice", "alice@x.com")
	alice.post("/tickets", ticketForm("Alice's laptop", "open"))
	id := ts.tickets.LoadAll(t.Context())[0].ID

	bob := ts.browser(t)
	bob.signup("Bob", "bob@x.com")

	_, body := bob.get("/tickets")
	require.NotContains(t, body, "laptop")

	resp, _ := bob.post("/tickets/update", url.Values{"id": {id}, "title": {"mine now"}, "status": {"closed"}})
	require.Equal(t, "/tickets", resp.Header.Get(fiber.HeaderLocation))
	_, body = bob.get("/tickets")
	require.Contains(t, body, "Ticket not found or you are not authorized.")

	bob.post("/tickets/delete", url.Values{"id": {id}})
	require.Len(t, ts.tickets.LoadAll(t.Context()), 1)
	require.Equal(t, "Alice's laptop", ts.tickets.LoadAll(t.Context())[0].Title)
}

func TestStorageFailureFlashes(t *testing.T) {
	ts := newTestServer(t)
	b := ts.browser(t)
	b.signup("Al", "al@x.com")
	ts.tickets.FailSaves(io.ErrShortWrite)

	resp, _ := b.post("/tickets", ticketForm("Printer jam", "open"))
	require.Equal(t, "/tickets?modal=create", resp.Header.Get(fiber.HeaderLocation))

	_, body := b.get("/tickets?modal=create")
	require.Contains(t, body, "Failed to save ticket. Please try again.")
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

func apiCall(t *testing.T, app *fiber.App, method, target, token string, payload any) (int, envelope) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = strings.NewReader(string(raw))
	}
	req := httptest.NewRequest(method, target, body)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var env envelope
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	}
	return resp.StatusCode, env
}

func TestTicketAPI(t *testing.T) {
	ts := newTestServer(t)

	status, env := apiCall(t, ts.app, http.MethodGet, "/api/tickets", "", nil)
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, "UNAUTHENTICATED", env.Error.Code)

	status, env = apiCall(t, ts.app, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"name": "Al", "email": "al@x.com", "password": "secret", "confirmPassword": "secret",
	})
	require.Equal(t, http.StatusCreated, status)
	var signup struct {
		Auth struct {
			Token string `json:"token"`
		} `json:"auth"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &signup))
	token := signup.Auth.Token
	require.NotEmpty(t, token)

	status, env = apiCall(t, ts.app, http.MethodPost, "/api/tickets", token, map[string]string{"title": "x", "status": "invalid"})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "VALIDATION_FAILED", env.Error.Code)
	require.Equal(t, "Status must be one of: open, in_progress, closed.", env.Error.Details["status"])

	status, env = apiCall(t, ts.app, http.MethodPost, "/api/tickets", token, map[string]string{"title": "Printer jam", "status": "open"})
	require.Equal(t, http.StatusCreated, status)
	var created struct {
		ID       string `json:"id"`
		Priority string `json:"priority"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	require.Equal(t, "medium", created.Priority)

	status, env = apiCall(t, ts.app, http.MethodGet, "/api/tickets", token, nil)
	require.Equal(t, http.StatusOK, status)
	var list struct {
		Tickets []json.RawMessage  `json:"tickets"`
		Stats   domain.TicketStats `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list.Tickets, 1)
	require.Equal(t, domain.TicketStats{Total: 1, Open: 1}, list.Stats)

	status, _ = apiCall(t, ts.app, http.MethodPut, "/api/tickets/"+created.ID, token, map[string]string{"title": "Done", "status": "closed"})
	require.Equal(t, http.StatusOK, status)

	status, env = apiCall(t, ts.app, http.MethodPut, "/api/tickets/unknown", token, map[string]string{"title": "Done", "status": "closed"})
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, "NOT_FOUND_OR_FORBIDDEN", env.Error.Code)

	status, _ = apiCall(t, ts.app, http.MethodDelete, "/api/tickets/"+created.ID, token, nil)
	require.Equal(t, http.StatusNoContent, status)

	status, env = apiCall(t, ts.app, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "al@x.com", "password": "nope"})
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, "INVALID_CREDENTIALS", env.Error.Code)

	status, env = apiCall(t, ts.app, http.MethodGet, "/api/nope", "", nil)
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	resp, err := ts.app.Test(httptest.NewRequest(http.MethodGet, "/health/live", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = ts.app.Test(httptest.NewRequest(http.MethodGet, "/health/ready", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = ts.app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	var snap observability.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	require.Equal(t, int64(1), snap.Requests["/health/live|GET|200"])
}

var csrfField = regexp.MustCompile(`name="_csrf" value="([^"]+)"`)

func csrfToken(t *testing.T, body string) string {
	t.Helper()
	m := csrfField.FindStringSubmatch(body)
	require.Len(t, m, 2, "page has no csrf field")
	return m[1]
}

func TestFormsRequireCSRFToken(t *testing.T) {
	ts := newTestServer(t, func(cfg *config.Config) { cfg.Session.CSRFEnabled = true })
	b := ts.browser(t)

	resp, body := b.get("/signup")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token := csrfToken(t, body)

	form := url.Values{
		"name": {"Al"}, "email": {"al@x.com"}, "password": {"secret"}, "confirmPassword": {"secret"},
	}
	resp, _ = b.post("/signup", form)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Empty(t, ts.users.LoadAll(context.Background()))

	form.Set("_csrf", token)
	resp, _ = b.post("/signup", form)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, "/dashboard", resp.Header.Get(fiber.HeaderLocation))

	resp, _ = b.post("/logout", url.Values{})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = b.get("/dashboard")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = b.post("/logout", url.Values{"_csrf": {token}})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	resp, _ = b.get("/dashboard")
	require.Equal(t, http.StatusFound, resp.StatusCode)

	// The JSON API is authenticated by bearer token instead.
	resp, _ = b.do(http.MethodPost, "/api/auth/login", nil)
	require.NotEqual(t, http.StatusForbidden, resp.StatusCode)
}
