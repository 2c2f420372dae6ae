package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/verte-zerg/mysterydigits/internal/api"
	"github.com/verte-zerg/mysterydigits/internal/game"
	"github.com/verte-zerg/mysterydigits/internal/generator"
	"github.com/verte-zerg/mysterydigits/internal/model"
	"github.com/verte-zerg/mysterydigits/internal/store"
)

type harness struct {
	srv    *Server
	ts     *httptest.Server
	jar    *cookiejar.Jar
	client *api.Client
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	engine := game.NewEngine(generator.NewSeeded(5), clockwork.NewFakeClock())
	s := New(engine, store.New(), zerolog.Nop(), "http://localhost:5173")
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	c, err := api.New(ts.URL, api.WithHTTPClient(&http.Client{Jar: jar}))
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	return &harness{srv: s, ts: ts, jar: jar, client: c}
}

func (h *harness) sessionID(t *testing.T) string {
	t.Helper()
	u, _ := url.Parse(h.ts.URL)
	for _, ck := range h.jar.Cookies(u) {
		if ck.Name == sessionCookie {
			return ck.Value
		}
	}
	t.Fatalf("no session cookie")
	return ""
}

func (h *harness) answer(t *testing.T) string {
	t.Helper()
	var number string
	err := h.srv.store.Update(context.Background(), h.sessionID(t), func(g *game.Game) error {
		number = g.Number
		return nil
	})
	if err != nil {
		t.Fatalf("lookup game: %v", err)
	}
	return number
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	resp, err := http.Get(h.ts.URL + "/health")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestFullRound(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	start, err := h.client.NewGame(ctx, model.DifficultyMedium)
	if err != nil {
		t.Fatalf("new game: %v", err)
	}
	if !strings.HasPrefix(start.ImageURL, "/api/images/") || start.Level == nil || *start.Level != 1 {
		t.Fatalf("unexpected new game payload: %+v", start)
	}
	art, err := h.client.FetchImage(ctx, start.ImageURL)
	if err != nil || !strings.Contains(art, "#") {
		t.Fatalf("unexpected art %q: %v", art, err)
	}

	hint, err := h.client.GetHint(ctx)
	if err != nil || !strings.Contains(hint.Hint, "digits") {
		t.Fatalf("unexpected hint %+v: %v", hint, err)
	}

	res, err := h.client.CheckGuess(ctx, h.answer(t))
	if err != nil {
		t.Fatalf("check guess: %v", err)
	}
	if !res.Correct || res.BasePoints == nil || *res.BasePoints != 200 {
		t.Fatalf("unexpected correct payload: %+v", res)
	}
	if res.ImageURL == start.ImageURL {
		t.Fatalf("expected a new puzzle image")
	}
	if len(res.Achievements) == 0 || res.Achievements[0].Name != "First Digits" {
		t.Fatalf("expected first achievement, got %+v", res.Achievements)
	}

	if _, err := h.client.FetchImage(ctx, start.ImageURL); err == nil {
		t.Fatalf("expected the old image to be gone")
	}

	expected := h.answer(t)
	res, err = h.client.CheckGuess(ctx, "x"+expected)
	if err != nil {
		t.Fatalf("check guess: %v", err)
	}
	if res.Correct || res.Answer != expected || res.BasePoints != nil {
		t.Fatalf("unexpected wrong payload: %+v", res)
	}
}

func TestHintLimitPerPuzzle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if _, err := h.client.NewGame(ctx, model.DifficultyEasy); err != nil {
		t.Fatalf("new game: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := h.client.GetHint(ctx); err != nil {
			t.Fatalf("hint %d: %v", i+1, err)
		}
	}
	_, err := h.client.GetHint(ctx)
	var se *api.StatusError
	if !errors.As(err, &se) || se.Status != http.StatusBadRequest {
		t.Fatalf("expected 400 after three hints, got %v", err)
	}
}

func TestRequestsWithoutGame(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.client.CheckGuess(ctx, "1")
	var se *api.StatusError
	if !errors.As(err, &se) || se.Status != http.StatusConflict {
		t.Fatalf("expected 409 without a game, got %v", err)
	}
	if _, err := h.client.GetHint(ctx); !errors.As(err, &se) || se.Status != http.StatusConflict {
		t.Fatalf("expected 409 for a hint without a game, got %v", err)
	}
}

func TestNewGameValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.client.NewGame(ctx, model.Difficulty("impossible"))
	var se *api.StatusError
	if !errors.As(err, &se) || se.Status != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown difficulty, got %v", err)
	}

	resp, err := http.Post(h.ts.URL+"/api/new-game", "application/json", strings.NewReader("{"))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for a malformed body, got %d", resp.StatusCode)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if _, err := h.client.NewGame(ctx, model.DifficultyEasy); err != nil {
		t.Fatalf("new game: %v", err)
	}

	other, err := api.New(h.ts.URL)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	_, err = other.CheckGuess(ctx, "1")
	var se *api.StatusError
	if !errors.As(err, &se) || se.Status != http.StatusConflict {
		t.Fatalf("expected a second client to have no game, got %v", err)
	}
	if h.srv.store.Len() != 1 {
		t.Fatalf("expected one stored game, got %d", h.srv.store.Len())
	}
}

func TestCORSPreflight(t *testing.T) {
	h := newHarness(t)
	req, _ := http.NewRequest(http.MethodOptions, h.ts.URL+"/api/new-game", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("preflight: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("unexpected allow origin %q", got)
	}
	if got := resp.Header.Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Fatalf("expected credentials allowed, got %q", got)
	}
}

func TestGameOverAfterLastLife(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	start, err := h.client.NewGame(ctx, model.DifficultyEasy)
	if err != nil {
		t.Fatalf("new game: %v", err)
	}
	if start.Lives == nil || *start.Lives != 3 {
		t.Fatalf("expected 3 lives, got %v", start.Lives)
	}

	for want := 2; want >= 0; want-- {
		res, err := h.client.CheckGuess(ctx, "x"+h.answer(t))
		if err != nil {
			t.Fatalf("check guess: %v", err)
		}
		if res.Lives == nil || *res.Lives != want {
			t.Fatalf("expected %d lives, got %v", want, res.Lives)
		}
		if res.GameOver != (want == 0) {
			t.Fatalf("unexpected game over flag %v with %d lives", res.GameOver, want)
		}
	}

	var se *api.StatusError
	if _, err := h.client.CheckGuess(ctx, "1"); !errors.As(err, &se) || se.Status != http.StatusConflict {
		t.Fatalf("expected 409 after game over, got %v", err)
	}
	if _, err := h.client.GetHint(ctx); !errors.As(err, &se) || se.Status != http.StatusConflict {
		t.Fatalf("expected 409 for a hint after game over, got %v", err)
	}

	restart, err := h.client.NewGame(ctx, model.DifficultyEasy)
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	if restart.Lives == nil || *restart.Lives != 3 {
		t.Fatalf("expected lives restored, got %v", restart.Lives)
	}
}

func TestExpertHasNoHints(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if _, err := h.client.NewGame(ctx, model.DifficultyExpert); err != nil {
		t.Fatalf("new game: %v", err)
	}
	_, err := h.client.GetHint(ctx)
	var se *api.StatusError
	if !errors.As(err, &se) || se.Status != http.StatusBadRequest {
		t.Fatalf("expected 400 for an expert hint, got %v", err)
	}
}
