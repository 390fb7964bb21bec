package page

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/petal-journal/backend/internal/service/conversation"
	journalService "github.com/zhouzirui/petal-journal/backend/internal/service/journal"
	"github.com/zhouzirui/petal-journal/backend/internal/service/session"
)

type fixture struct {
	router        *chi.Mux
	journal       *journalService.Service
	conversations *conversation.MemoryStore
}

func setupRouter(mode journalService.Mode) fixture {
	journal := journalService.NewService(mode)
	conversations := conversation.NewMemoryStore()
	handler := New(session.NewStore(session.Config{}), journal, conversations, nil)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return fixture{router: r, journal: journal, conversations: conversations}
}

func postForm(r http.Handler, path string, form url.Values, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func get(r http.Handler, path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestLandingRendersSubmittedName(t *testing.T) {
	f := setupRouter(journalService.Personal)

	resp := postForm(f.router, "/", url.Values{"username": {"Sam"}}, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "Welcome back, Sam") {
		t.Fatalf("expected greeting in body: %s", resp.Body.String())
	}

	again := get(f.router, "/", resp.Result().Cookies())
	if !strings.Contains(again.Body.String(), "Welcome back, Sam") {
		t.Fatal("expected name to persist in session")
	}
}

func TestPersonalJournalRedirectsWithoutName(t *testing.T) {
	f := setupRouter(journalService.Personal)

	resp := get(f.router, "/journal", nil)
	if resp.Code != http.StatusFound || resp.Header().Get("Location") != "/" {
		t.Fatalf("expected redirect to /, got %d %q", resp.Code, resp.Header().Get("Location"))
	}

	resp = postForm(f.router, "/journal", url.Values{"entry": {"hello"}}, nil)
	if resp.Code != http.StatusFound {
		t.Fatalf("expected redirect for anonymous entry, got %d", resp.Code)
	}
	if got := len(f.journal.List(context.Background(), "")); got != 0 {
		t.Fatalf("expected no entries stored, got %d", got)
	}
}

func TestPersonalJournalShowsOwnEntriesAndConversations(t *testing.T) {
	f := setupRouter(journalService.Personal)
	ctx := context.Background()

	cookies := postForm(f.router, "/", url.Values{"username": {"Sam"}}, nil).Result().Cookies()

	resp := postForm(f.router, "/journal", url.Values{"entry": {"Walked by the river"}}, cookies)
	if resp.Code != http.StatusSeeOther || resp.Header().Get("Location") != "/journal" {
		t.Fatalf("expected 303 to /journal, got %d", resp.Code)
	}
	f.journal.Add(ctx, "Alex", "Alex private note")
	f.conversations.FindOrCreate(ctx, 0, "Sam")
	f.conversations.FindOrCreate(ctx, 0, "Alex")

	body := get(f.router, "/journal", cookies).Body.String()
	if !strings.Contains(body, "Walked by the river") {
		t.Fatal("expected own entry in journal")
	}
	if strings.Contains(body, "Alex private note") {
		t.Fatal("personal journal must not show other users' entries")
	}
	if !strings.Contains(body, `data-conversation-id="1"`) || strings.Contains(body, `data-conversation-id="2"`) {
		t.Fatalf("expected only Sam's conversation petal: %s", body)
	}
}

func TestSharedJournalAllowsAnonymousEntries(t *testing.T) {
	f := setupRouter(journalService.Shared)

	resp := postForm(f.router, "/journal", url.Values{"entry": {"Anyone can write"}}, nil)
	if resp.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", resp.Code)
	}
	postForm(f.router, "/journal", url.Values{"entry": {"   "}}, nil)

	page := get(f.router, "/journal", nil)
	if page.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", page.Code)
	}
	if !strings.Contains(page.Body.String(), "Anyone can write") {
		t.Fatal("expected shared entry on page")
	}
	if got := len(f.journal.List(context.Background(), "")); got != 1 {
		t.Fatalf("blank entry must be ignored, got %d entries", got)
	}
}

func TestJournalPageLoadsChatScript(t *testing.T) {
	f := setupRouter(journalService.Personal)
	cookies := postForm(f.router, "/", url.Values{"username": {"Sam"}}, nil).Result().Cookies()

	page := get(f.router, "/journal", cookies)
	if page.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", page.Code)
	}
	body := page.Body.String()
	for _, want := range []string{`<script src="/static/js/journal.js" defer>`, `id="chat-dialog"`, `id="new-conversation-btn"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("journal page missing %q", want)
		}
	}

	script := get(f.router, "/static/js/journal.js", nil)
	if script.Code != http.StatusOK {
		t.Fatalf("expected script to be served, got %d", script.Code)
	}
	if ct := script.Header().Get("Content-Type"); !strings.Contains(ct, "javascript") {
		t.Fatalf("unexpected script content type %q", ct)
	}
	for _, want := range []string{"/api/chat", "/api/conversation/"} {
		if !strings.Contains(script.Body.String(), want) {
			t.Fatalf("chat script does not call %s", want)
		}
	}
}

func TestLandingPageLoadsNoScripts(t *testing.T) {
	f := setupRouter(journalService.Personal)

	if body := get(f.router, "/", nil).Body.String(); strings.Contains(body, "<script") {
		t.Fatal("landing page should not load scripts")
	}
}
