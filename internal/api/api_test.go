package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/voxnote/internal/conversation"
	"github.com/starford/voxnote/internal/noteservice"
	"github.com/starford/voxnote/internal/testutil"
)

// testEnv sets up a temp note document, service, engine and router for testing.
// An empty authToken means disabled mode.
func testEnv(t *testing.T, authToken string) (*noteservice.Service, http.Handler) {
	t.Helper()
	return testEnvWithSSE(t, authToken != "", authToken, nil)
}

func testEnvWithSSE(t *testing.T, authEnabled bool, token string, sse http.Handler) (*noteservice.Service, http.Handler) {
	t.Helper()
	svc := testutil.TestService(t)
	engine := conversation.NewEngine(svc,
		conversation.WithEngineLogger(testutil.Logger()),
		conversation.WithMachineOptions(conversation.WithLogger(testutil.Logger())),
	)
	return svc, NewRouter(engine, svc, authEnabled, token, sse)
}

func openSession(t *testing.T, router http.Handler) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/sessions", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("open session = %d, body = %s", w.Code, w.Body.String())
	}
	var resp SessionResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.SessionID == "" {
		t.Fatal("empty session id")
	}
	return resp.SessionID
}

func turn(t *testing.T, router http.Handler, id, text, lang string) (int, TurnResponse) {
	t.Helper()
	body, _ := json.Marshal(TurnRequest{Text: text, Language: lang})
	req := httptest.NewRequest(http.MethodPost, "/sessions/"+id+"/turns", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	var resp TurnResponse
	if w.Code == http.StatusOK {
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatal(err)
		}
	}
	return w.Code, resp
}

func TestConversationCreatesNote(t *testing.T) {
	svc, router := testEnv(t, "")
	id := openSession(t, router)

	code, resp := turn(t, router, id, "create note shopping list", "en")
	if code != http.StatusOK {
		t.Fatalf("turn status = %d", code)
	}
	if resp.SessionID != id || resp.Operation != conversation.OpCreateConfirm || !resp.RequiresConfirmation {
		t.Fatalf("first turn = %+v", resp)
	}

	_, resp = turn(t, router, id, "yes", "en")
	if resp.Operation != conversation.OpCreate || !resp.NotesUpdated {
		t.Fatalf("second turn = %+v", resp)
	}
	if notes := svc.Notes(); len(notes) != 1 || notes[0].Title != "shopping list" {
		t.Errorf("notes = %+v", notes)
	}
}

func TestTurn_UnknownSession(t *testing.T) {
	_, router := testEnv(t, "")

	code, _ := turn(t, router, "ghost", "hello", "en")
	if code != http.StatusNotFound {
		t.Errorf("unknown session = %d, want 404", code)
	}
}

func TestTurn_InvalidBody(t *testing.T) {
	_, router := testEnv(t, "")
	id := openSession(t, router)

	for _, body := range []string{"{not json", `{"text":""}`} {
		req := httptest.NewRequest(http.MethodPost, "/sessions/"+id+"/turns", strings.NewReader(body))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %q = %d, want 400", body, w.Code)
		}
	}
}

func TestHistoryAndClose(t *testing.T) {
	_, router := testEnv(t, "")
	id := openSession(t, router)
	turn(t, router, id, "create note milk", "en")

	req := httptest.NewRequest(http.MethodGet, "/sessions/"+id+"/history", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("history = %d", w.Code)
	}
	var hist HistoryResponse
	if err := json.NewDecoder(w.Body).Decode(&hist); err != nil {
		t.Fatal(err)
	}
	if len(hist.History) != 2 {
		t.Errorf("history entries = %d, want 2", len(hist.History))
	}
	if hist.Phase != conversation.PhaseAwaitingConfirm {
		t.Errorf("phase = %s", hist.Phase)
	}

	req = httptest.NewRequest(http.MethodDelete, "/sessions/"+id, nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("close = %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/sessions/"+id, nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("second close = %d, want 404", w.Code)
	}
}

func seed(t *testing.T, svc *noteservice.Service) {
	t.Helper()
	ctx := context.Background()
	if _, err := svc.Create(ctx, noteservice.CreateParams{Title: "groceries"}); err != nil {
		t.Fatal(err)
	}
	parent := "1"
	if _, err := svc.Create(ctx, noteservice.CreateParams{Title: "milk", ParentID: &parent}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(ctx, noteservice.CreateParams{Title: "work"}); err != nil {
		t.Fatal(err)
	}
}

func TestListNotes(t *testing.T) {
	svc, router := testEnv(t, "")
	seed(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/notes", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	var resp NoteListResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Total != 3 {
		t.Errorf("total = %d, want 3", resp.Total)
	}

	req = httptest.NewRequest(http.MethodGet, "/notes?q=work", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	resp = NoteListResponse{}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Total != 1 || resp.Notes[0].Title != "work" {
		t.Errorf("find = %+v", resp)
	}
}

func TestGetNote_WithChildrenAndETag(t *testing.T) {
	svc, router := testEnv(t, "")
	seed(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/notes/1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("get = %d", w.Code)
	}
	var resp NoteResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Title != "groceries" || len(resp.ChildNotes) != 1 || resp.ChildNotes[0].Title != "milk" {
		t.Errorf("note = %+v", resp)
	}
	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatal("missing ETag")
	}

	req = httptest.NewRequest(http.MethodGet, "/notes/1", nil)
	req.Header.Set("If-None-Match", etag)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotModified {
		t.Errorf("conditional get = %d, want 304", w.Code)
	}
}

func TestGetNote_NotFound(t *testing.T) {
	_, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/notes/99", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing note = %d, want 404", w.Code)
	}
}

func TestGraphEndpoint(t *testing.T) {
	svc, router := testEnv(t, "")
	seed(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/graph", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	var resp GraphResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Nodes) != 3 {
		t.Errorf("nodes = %d, want 3", len(resp.Nodes))
	}
	if len(resp.Links) != 1 || resp.Links[0].Source != "1" || resp.Links[0].Target != "2" {
		t.Errorf("links = %+v", resp.Links)
	}
}

func TestHelpEndpoint(t *testing.T) {
	_, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/help?lang=he", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	var resp HelpResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Language != "he" || resp.Text == "" {
		t.Errorf("help = %+v", resp)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodPost, "/sessions", nil)
	req.Header.Set("Authorization", "Bearer secret123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Errorf("authed open = %d, want 201", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/notes", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/notes", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	_, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/notes", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("no auth = %d, want 200", w.Code)
	}
}

// blockingSSE writes headers and blocks until the request context is done.
var blockingSSE = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	<-r.Context().Done()
})

func TestSSEEvents_AuthProtected(t *testing.T) {
	_, router := testEnvWithSSE(t, true, "secret", blockingSSE)

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	_, router := testEnvWithSSE(t, true, "tok", blockingSSE)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("SSE with valid token = %d, want 200", w.Code)
	}
}
