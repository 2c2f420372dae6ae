package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/verte-zerg/mysterydigits/internal/model"
)

func TestClientSendsDocumentedBodies(t *testing.T) {
	var bodies = map[string]map[string]any{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected json content type, got %q", ct)
		}
		if r.Header.Get("Authorization") != "" {
			t.Errorf("unexpected auth header")
		}
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		if err := json.Unmarshal(raw, &body); err != nil {
			t.Errorf("decode body %s: %v", raw, err)
		}
		bodies[r.URL.Path] = body
		switch r.URL.Path {
		case "/api/new-game":
			_, _ = w.Write([]byte(`{"imageUrl":"/api/images/abc","level":1,"extra":"ignored"}`))
		case "/api/check-guess":
			_, _ = w.Write([]byte(`{"correct":true,"basePoints":200,"achievements":[{"name":"First Digits","points":10}]}`))
		case "/api/get-hint":
			_, _ = w.Write([]byte(`{"hint":"It has 3 digits"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c, err := New(srv.URL + "/")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	ctx := context.Background()

	game, err := c.NewGame(ctx, model.DifficultyMedium)
	if err != nil {
		t.Fatalf("new game: %v", err)
	}
	if game.ImageURL != "/api/images/abc" || game.Level == nil || *game.Level != 1 {
		t.Fatalf("unexpected new game payload: %+v", game)
	}
	if bodies["/api/new-game"]["difficulty"] != "medium" {
		t.Fatalf("unexpected new game body: %v", bodies["/api/new-game"])
	}

	res, err := c.CheckGuess(ctx, "123")
	if err != nil {
		t.Fatalf("check guess: %v", err)
	}
	if !res.Correct || res.BasePoints == nil || *res.BasePoints != 200 || len(res.Achievements) != 1 {
		t.Fatalf("unexpected guess payload: %+v", res)
	}
	if bodies["/api/check-guess"]["guess"] != "123" {
		t.Fatalf("unexpected guess body: %v", bodies["/api/check-guess"])
	}

	hint, err := c.GetHint(ctx)
	if err != nil {
		t.Fatalf("get hint: %v", err)
	}
	if hint.Hint != "It has 3 digits" {
		t.Fatalf("unexpected hint: %+v", hint)
	}
	if len(bodies["/api/get-hint"]) != 0 {
		t.Fatalf("expected empty hint body, got %v", bodies["/api/get-hint"])
	}
}

func TestClientKeepsSessionCookie(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/new-game" {
			http.SetCookie(w, &http.Cookie{Name: "md_session", Value: "s1", Path: "/"})
			_, _ = w.Write([]byte(`{}`))
			return
		}
		ck, err := r.Cookie("md_session")
		if err != nil || ck.Value != "s1" {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"error":"no active game"}`))
			return
		}
		_, _ = w.Write([]byte(`{"correct":false}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	ctx := context.Background()
	if _, err := c.NewGame(ctx, model.DifficultyEasy); err != nil {
		t.Fatalf("new game: %v", err)
	}
	if _, err := c.CheckGuess(ctx, "1"); err != nil {
		t.Fatalf("expected cookie to be sent: %v", err)
	}
}

func TestClientStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"no active game"}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	_, err = c.GetHint(context.Background())
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.Status != http.StatusConflict || se.Message != "no active game" {
		t.Fatalf("unexpected status error: %+v", se)
	}
}

func TestClientMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>oops</html>`))
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := c.CheckGuess(context.Background(), "1"); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestClientTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c, err := New(srv.URL, WithTimeout(50*time.Millisecond))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := c.NewGame(context.Background(), model.DifficultyEasy); err == nil {
		t.Fatalf("expected timeout error")
	}
}

func TestTimeoutSurvivesOptionOrder(t *testing.T) {
	hc := &http.Client{}
	c, err := New("http://localhost:5000", WithTimeout(3*time.Second), WithHTTPClient(hc))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if c.http != hc || hc.Timeout != 3*time.Second {
		t.Fatalf("expected timeout on the supplied client, got %v", hc.Timeout)
	}
	if hc.Jar == nil {
		t.Fatalf("expected a cookie jar filled in")
	}

	c, err = New("http://localhost:5000", WithHTTPClient(nil), WithTimeout(time.Second))
	if err != nil {
		t.Fatalf("new client with nil http client: %v", err)
	}
	if c.http == nil || c.http.Timeout != time.Second {
		t.Fatalf("expected default client with timeout, got %+v", c.http)
	}
}

func TestFetchImageResolvesRelativeURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/images/p1" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("###\n# #\n###"))
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	art, err := c.FetchImage(context.Background(), "/api/images/p1")
	if err != nil {
		t.Fatalf("fetch image: %v", err)
	}
	if art != "###\n# #\n###" {
		t.Fatalf("unexpected art: %q", art)
	}
	if _, err := c.FetchImage(context.Background(), "/api/images/missing"); err == nil {
		t.Fatalf("expected error for missing image")
	}
}

func TestNewRejectsBadURL(t *testing.T) {
	for _, raw := range []string{"", "ftp://example.com", "::"} {
		if _, err := New(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}
