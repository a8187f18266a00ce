package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/flashclev/flashclev/internal/covers"
	"github.com/flashclev/flashclev/internal/details"
	"github.com/flashclev/flashclev/internal/llm"
	"github.com/flashclev/flashclev/internal/models"
	"github.com/flashclev/flashclev/internal/suggest"
	"github.com/flashclev/flashclev/internal/tutor"
)

type fakeSuggester struct {
	result []models.BookSuggestion
	err    error
}

func (f *fakeSuggester) SuggestBooks(ctx context.Context, goal string, exclude []string, count int) ([]models.BookSuggestion, error) {
	return f.result, f.err
}

type fakeDetailer struct {
	details models.BookDetails
	err     error
}

func (f *fakeDetailer) BookDetails(ctx context.Context, bookName string) (models.BookDetails, error) {
	return f.details, f.err
}

type fakeChat struct{}

func (f *fakeChat) Send(ctx context.Context, message string) (string, error) {
	return "What draws you to this book?", nil
}

func (f *fakeChat) SendStream(ctx context.Context, message string, onFragment func(string)) (string, error) {
	return f.Send(ctx, message)
}

type fakeChatter struct{}

func (f *fakeChatter) StartChat(systemInstruction string) llm.ChatSession {
	return &fakeChat{}
}

// newTestServer wires the handler exactly as cmd/serve.go does, with every
// external surface faked. The cover backend misses on all strategies.
func newTestServer(t *testing.T, suggester llm.Suggester, detailer llm.Detailer) *httptest.Server {
	t.Helper()

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/search.json" {
			fmt.Fprint(w, `{"docs":[]}`)
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(backend.Close)

	coverResolver := covers.NewResolver(nil)
	coverResolver.HTTPClient = backend.Client()
	coverResolver.CoversBaseURL = backend.URL
	coverResolver.SearchBaseURL = backend.URL

	handler := New(Options{
		Orchestrator:        suggest.NewOrchestrator([]llm.Suggester{suggester}),
		Covers:              coverResolver,
		Details:             details.NewResolver(detailer, coverResolver),
		Sessions:            tutor.NewManager(&fakeChatter{}),
		SuggestionBatchSize: 2,
		SuggestionTarget:    6,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/api/suggestions", handler.HandleSuggestions)
	mux.HandleFunc("/api/books", handler.HandleBooks)
	mux.HandleFunc("/api/sessions", handler.HandleSessions)
	mux.HandleFunc("/api/sessions/", handler.HandleSessionDetail)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
}

func TestHandleSuggestions(t *testing.T) {
	suggester := &fakeSuggester{result: []models.BookSuggestion{
		{Title: "Deep Work", Author: "Cal Newport", ISBN: "9781455586691", Description: "Focused success."},
	}}
	srv := newTestServer(t, suggester, &fakeDetailer{})

	resp := postJSON(t, srv.URL+"/api/suggestions", `{"goal":"  improve my focus  ","exclude_titles":["Atomic Habits"]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Goal  string        `json:"goal"`
		Books []models.Book `json:"books"`
	}
	decodeJSON(t, resp, &body)

	if body.Goal != "improve my focus" {
		t.Errorf("Expected trimmed goal, got %q", body.Goal)
	}
	if len(body.Books) != 1 {
		t.Fatalf("Expected 1 deduplicated book, got %d", len(body.Books))
	}
	if body.Books[0].Title != "Deep Work" {
		t.Errorf("Unexpected book %+v", body.Books[0])
	}
	// Every cover strategy misses, so the suggestion flow degrades to "".
	if body.Books[0].CoverImageURL != "" {
		t.Errorf("Expected empty cover URL, got %q", body.Books[0].CoverImageURL)
	}
}

func TestHandleSuggestionsRejectsBlankGoal(t *testing.T) {
	srv := newTestServer(t, &fakeSuggester{}, &fakeDetailer{})

	resp := postJSON(t, srv.URL+"/api/suggestions", `{"goal":"   "}`)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for blank goal, got %d", resp.StatusCode)
	}
}

func TestHandleSuggestionsTotalFailureReturnsEmptyList(t *testing.T) {
	srv := newTestServer(t, &fakeSuggester{err: fmt.Errorf("quota exceeded")}, &fakeDetailer{})

	resp := postJSON(t, srv.URL+"/api/suggestions", `{"goal":"sleep better"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 despite total batch failure, got %d", resp.StatusCode)
	}

	var body struct {
		Books []models.Book `json:"books"`
	}
	decodeJSON(t, resp, &body)
	if len(body.Books) != 0 {
		t.Errorf("Expected empty book list, got %d", len(body.Books))
	}
}

func TestHandleBooks(t *testing.T) {
	detailer := &fakeDetailer{details: models.BookDetails{
		Title:    "Sapiens: A Brief History of Humankind",
		Author:   "Yuval Noah Harari",
		Chapters: []string{"An Animal of No Significance"},
	}}
	srv := newTestServer(t, &fakeSuggester{}, detailer)

	resp := postJSON(t, srv.URL+"/api/books", `{"name":"sapiens"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Title      string `json:"title"`
		ShortTitle string `json:"short_title"`
		Author     string `json:"author"`
		Cover      string `json:"coverImageUrl"`
	}
	decodeJSON(t, resp, &body)

	if body.Title != "Sapiens: A Brief History of Humankind" {
		t.Errorf("Unexpected title %q", body.Title)
	}
	if body.ShortTitle != "Sapiens" {
		t.Errorf("Expected subtitle trimmed to %q, got %q", "Sapiens", body.ShortTitle)
	}
	if !strings.HasPrefix(body.Cover, "https://picsum.photos/seed/") {
		t.Errorf("Expected seeded placeholder cover, got %q", body.Cover)
	}
}

func TestSessionLifecycle(t *testing.T) {
	srv := newTestServer(t, &fakeSuggester{}, &fakeDetailer{})

	// Start a chapter-scoped session.
	resp := postJSON(t, srv.URL+"/api/sessions", `{"book_title":"Sapiens","chapter":"Chapter 3"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 starting session, got %d", resp.StatusCode)
	}
	var started struct {
		Session models.TutorSessionInfo `json:"session"`
	}
	decodeJSON(t, resp, &started)

	if started.Session.ID == "" {
		t.Fatal("Session ID missing")
	}
	if len(started.Session.Messages) != 1 || started.Session.Messages[0].Sender != models.SenderAI {
		t.Fatalf("Expected one opening model message, got %+v", started.Session.Messages)
	}

	// Send a user message.
	resp = postJSON(t, srv.URL+"/api/sessions/"+started.Session.ID+"/messages", `{"text":"Shared myths bind strangers."}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 sending message, got %d", resp.StatusCode)
	}
	var sent struct {
		Message  models.ChatMessage   `json:"message"`
		Messages []models.ChatMessage `json:"messages"`
	}
	decodeJSON(t, resp, &sent)
	if sent.Message.Sender != models.SenderAI {
		t.Errorf("Expected model reply, got %+v", sent.Message)
	}
	if len(sent.Messages) != 3 {
		t.Errorf("Expected 3-message transcript, got %d", len(sent.Messages))
	}

	// Switching to whole-book scope replaces the session and clears the
	// transcript.
	resp = postJSON(t, srv.URL+"/api/sessions", `{"book_title":"Sapiens","chapter":"All"}`)
	var replaced struct {
		Session models.TutorSessionInfo `json:"session"`
	}
	decodeJSON(t, resp, &replaced)

	if replaced.Session.ID == started.Session.ID {
		t.Error("Chapter switch must create a fresh session")
	}
	if len(replaced.Session.Messages) != 1 {
		t.Errorf("Fresh session should hold exactly the opening exchange, got %d", len(replaced.Session.Messages))
	}

	getResp, err := http.Get(srv.URL + "/api/sessions/" + started.Session.ID)
	if err != nil {
		t.Fatalf("GET session failed: %v", err)
	}
	getResp.Body.Close()
	if getResp.StatusCode != http.StatusNotFound {
		t.Errorf("Replaced session should be gone, got %d", getResp.StatusCode)
	}

	// Delete the live session.
	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/sessions/"+replaced.Session.ID, nil)
	if err != nil {
		t.Fatalf("Failed to build DELETE request: %v", err)
	}
	delResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE session failed: %v", err)
	}
	delResp.Body.Close()
	if delResp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200 deleting session, got %d", delResp.StatusCode)
	}
}

func TestSessionMessageValidation(t *testing.T) {
	srv := newTestServer(t, &fakeSuggester{}, &fakeDetailer{})

	resp := postJSON(t, srv.URL+"/api/sessions", `{"book_title":"Sapiens"}`)
	var started struct {
		Session models.TutorSessionInfo `json:"session"`
	}
	decodeJSON(t, resp, &started)

	resp = postJSON(t, srv.URL+"/api/sessions/"+started.Session.ID+"/messages", `{"text":"  "}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for blank message, got %d", resp.StatusCode)
	}

	resp2 := postJSON(t, srv.URL+"/api/sessions/does-not-exist/messages", `{"text":"hello"}`)
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown session, got %d", resp2.StatusCode)
	}
}
