package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/scribble/internal/auth"
	"github.com/dukerupert/scribble/internal/config"
	"github.com/dukerupert/scribble/internal/database"
	"github.com/dukerupert/scribble/internal/store"
	"github.com/dukerupert/scribble/internal/testutil"
)

func testConfig() *config.Config {
	return &config.Config{
		Port:     "0",
		DBPath:   ":memory:",
		LogLevel: "error",
		Session:  config.Session{TTL: time.Hour, CleanupInterval: time.Hour},
		Password: config.Password{Iterations: 1000},
		RateLimit: config.RateLimit{
			Limit:  100,
			Window: time.Minute,
		},
	}
}

func setupTestServer(t *testing.T, cfg *config.Config) (*Server, *httptest.Server) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	srv := New(db, cfg, testutil.NoopLogger())
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return srv, ts
}

// browser is an HTTP client with its own cookie jar, one per simulated user.
type browser struct {
	t      *testing.T
	base   string
	client *http.Client
}

func newBrowser(t *testing.T, base string) *browser {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &browser{t: t, base: base, client: &http.Client{Jar: jar}}
}

func (b *browser) do(req *http.Request) (*http.Response, string) {
	b.t.Helper()
	resp, err := b.client.Do(req)
	if err != nil {
		b.t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

func (b *browser) get(path string) (*http.Response, string) {
	b.t.Helper()
	req, _ := http.NewRequest("GET", b.base+path, nil)
	return b.do(req)
}

func (b *browser) postForm(path string, form url.Values) (*http.Response, string) {
	b.t.Helper()
	req, _ := http.NewRequest("POST", b.base+path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func (b *browser) deleteNote(noteID int64) (*http.Response, string) {
	b.t.Helper()
	body := fmt.Sprintf(`{"noteId": %d}`, noteID)
	req, _ := http.NewRequest("POST", b.base+"/delete-note", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return b.do(req)
}

func (b *browser) signUp(email, name string) {
	b.t.Helper()
	resp, body := b.postForm("/sign-up", url.Values{
		"email":     {email},
		"firstName": {name},
		"password1": {"password123"},
		"password2": {"password123"},
	})
	if resp.StatusCode != http.StatusOK || resp.Request.URL.Path != "/" {
		b.t.Fatalf("sign up %s: status %d at %s: %s", email, resp.StatusCode, resp.Request.URL.Path, body)
	}
	if !strings.Contains(body, "Account created!") {
		b.t.Errorf("sign up %s: home page missing confirmation", email)
	}
}

func (b *browser) sessionToken() string {
	u, _ := url.Parse(b.base)
	for _, c := range b.client.Jar.Cookies(u) {
		if c.Name == auth.SessionCookie {
			return c.Value
		}
	}
	return ""
}

func TestHealth(t *testing.T) {
	_, ts := setupTestServer(t, testConfig())

	resp, body := newBrowser(t, ts.URL).get("/health")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var got map[string]string
	if err := json.Unmarshal([]byte(body), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["status"] != "ok" {
		t.Errorf("status = %q, want %q", got["status"], "ok")
	}
}

func TestAnonymousRedirectedToLogin(t *testing.T) {
	_, ts := setupTestServer(t, testConfig())

	for _, path := range []string{"/", "/logout"} {
		resp, _ := newBrowser(t, ts.URL).get(path)
		if resp.Request.URL.Path != "/login" {
			t.Errorf("GET %s landed on %s, want /login", path, resp.Request.URL.Path)
		}
	}
}

func TestNoteLifecycleAcrossUsers(t *testing.T) {
	srv, ts := setupTestServer(t, testConfig())
	ctx := context.Background()

	alice := newBrowser(t, ts.URL)
	alice.signUp("alice@example.com", "Alice")
	bob := newBrowser(t, ts.URL)
	bob.signUp("bob@example.com", "Bob")

	_, body := alice.postForm("/", url.Values{"note": {"alice private note"}})
	if !strings.Contains(body, "alice private note") {
		t.Fatal("created note missing from home page")
	}

	notes := store.NewNoteStore(srv.db)
	aliceID, err := srv.authService.Resolve(ctx, alice.sessionToken())
	if err != nil {
		t.Fatalf("resolve alice: %v", err)
	}
	list, err := notes.ListByOwner(ctx, aliceID.UserID)
	if err != nil || len(list) != 1 {
		t.Fatalf("alice notes = %v, %v; want exactly one", list, err)
	}
	noteID := list[0].ID

	// Bob cannot see it.
	if _, body := bob.get("/"); strings.Contains(body, "alice private note") {
		t.Error("bob's home page shows alice's note")
	}

	// Anonymous and non-owner deletes report success and change nothing.
	for name, b := range map[string]*browser{"anonymous": newBrowser(t, ts.URL), "bob": bob} {
		resp, body := b.deleteNote(noteID)
		if resp.StatusCode != http.StatusOK || strings.TrimSpace(body) != "{}" {
			t.Errorf("%s delete: status %d body %q, want 200 {}", name, resp.StatusCode, body)
		}
		if got, _ := notes.GetByID(ctx, noteID); got == nil {
			t.Fatalf("%s delete removed alice's note", name)
		}
	}

	// Owner delete removes it.
	resp, body := alice.deleteNote(noteID)
	if resp.StatusCode != http.StatusOK || strings.TrimSpace(body) != "{}" {
		t.Errorf("owner delete: status %d body %q", resp.StatusCode, body)
	}
	if got, _ := notes.GetByID(ctx, noteID); got != nil {
		t.Error("owner delete should remove the note")
	}

	// Deleting again is still a silent success.
	if resp, _ := alice.deleteNote(noteID); resp.StatusCode != http.StatusOK {
		t.Errorf("repeat delete: status %d, want 200", resp.StatusCode)
	}
}

func TestLogoutEndsSession(t *testing.T) {
	_, ts := setupTestServer(t, testConfig())

	alice := newBrowser(t, ts.URL)
	alice.signUp("alice@example.com", "Alice")

	resp, _ := alice.postForm("/logout", nil)
	if resp.Request.URL.Path != "/login" {
		t.Fatalf("logout landed on %s, want /login", resp.Request.URL.Path)
	}

	resp, _ = alice.get("/")
	if resp.Request.URL.Path != "/login" {
		t.Errorf("home after logout landed on %s, want /login", resp.Request.URL.Path)
	}

	resp, body := alice.postForm("/login", url.Values{
		"email":    {"alice@example.com"},
		"password": {"password123"},
	})
	if resp.Request.URL.Path != "/" {
		t.Errorf("login landed on %s, want /", resp.Request.URL.Path)
	}
	if !strings.Contains(body, "Logout") {
		t.Error("home page should offer logout after login")
	}
	if !strings.Contains(body, "Logged in Successfully!") {
		t.Error("home page should confirm the login")
	}

	if _, body := alice.get("/"); strings.Contains(body, "Logged in Successfully!") {
		t.Error("login confirmation should only show once")
	}
}

func TestSignUpDuplicateEmail(t *testing.T) {
	srv, ts := setupTestServer(t, testConfig())

	newBrowser(t, ts.URL).signUp("alice@example.com", "Alice")

	resp, body := newBrowser(t, ts.URL).postForm("/sign-up", url.Values{
		"email":     {"alice@example.com"},
		"firstName": {"Imposter"},
		"password1": {"password123"},
		"password2": {"password123"},
	})
	if resp.Request.URL.Path != "/sign-up" {
		t.Errorf("duplicate sign-up landed on %s, want /sign-up", resp.Request.URL.Path)
	}
	if !strings.Contains(body, "Email already exists.") {
		t.Error("body missing duplicate email error")
	}

	n, err := store.NewUserStore(srv.db).CountByEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("count by email: %v", err)
	}
	if n != 1 {
		t.Errorf("users with email = %d, want 1", n)
	}
}

func TestLoginRateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.Limit = 2
	_, ts := setupTestServer(t, cfg)

	b := newBrowser(t, ts.URL)
	form := url.Values{"email": {"nobody@example.com"}, "password": {"password123"}}
	for i := 0; i < 2; i++ {
		if resp, _ := b.postForm("/login", form); resp.StatusCode != http.StatusOK {
			t.Fatalf("attempt %d: status %d, want 200", i+1, resp.StatusCode)
		}
	}
	if resp, _ := b.postForm("/login", form); resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusTooManyRequests)
	}
}

func TestLoginRateLimitIgnoresSpoofedForwarding(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.Limit = 2
	_, ts := setupTestServer(t, cfg)

	b := newBrowser(t, ts.URL)
	form := url.Values{"email": {"nobody@example.com"}, "password": {"password123"}}

	limited := 0
	for i := 0; i < 10; i++ {
		req, _ := http.NewRequest("POST", ts.URL+"/login", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
		if resp, _ := b.do(req); resp.StatusCode == http.StatusTooManyRequests {
			limited++
		}
	}
	if limited != 8 {
		t.Errorf("limited = %d, want 8", limited)
	}
}

func TestLoginRateLimitTrustedProxy(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.Limit = 1
	cfg.TrustProxy = true
	_, ts := setupTestServer(t, cfg)

	b := newBrowser(t, ts.URL)
	form := url.Values{"email": {"nobody@example.com"}, "password": {"password123"}}
	for i := 0; i < 3; i++ {
		req, _ := http.NewRequest("POST", ts.URL+"/login", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
		if resp, _ := b.do(req); resp.StatusCode != http.StatusOK {
			t.Errorf("client %d: status = %d, want 200", i, resp.StatusCode)
		}
	}
}

func TestWebSocketReceivesOwnNoteEvents(t *testing.T) {
	srv, ts := setupTestServer(t, testConfig())

	alice := newBrowser(t, ts.URL)
	alice.signUp("alice@example.com", "Alice")
	aliceID, err := srv.authService.Resolve(context.Background(), alice.sessionToken())
	if err != nil {
		t.Fatalf("resolve alice: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := ws.Dial(ctx, wsURL, &ws.DialOptions{
		HTTPHeader: http.Header{"Cookie": {auth.SessionCookie + "=" + alice.sessionToken()}},
	})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	for srv.Hub().ClientCount(aliceID.UserID) == 0 {
		select {
		case <-ctx.Done():
			t.Fatal("client never registered")
		case <-time.After(10 * time.Millisecond):
		}
	}

	alice.postForm("/", url.Values{"note": {"hello"}})

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg struct {
		Type string `json:"type"`
		ID   int64  `json:"id"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Type != "note_created" {
		t.Errorf("type = %q, want %q", msg.Type, "note_created")
	}
	if msg.ID == 0 {
		t.Error("message should carry the note id")
	}
}

func TestWebSocketRejectsAnonymous(t *testing.T) {
	_, ts := setupTestServer(t, testConfig())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := ws.Dial(ctx, wsURL, nil)
	if err == nil {
		conn.CloseNow()
		t.Fatal("anonymous dial should fail")
	}
}
