// Package server is a local Mystery Digits game service for development and offline play.
//
// Routes:
//   - GET  /health
//   - POST /api/new-game     {"difficulty": "easy"}
//   - POST /api/check-guess  {"guess": "123"}
//   - POST /api/get-hint     {}
//   - GET  /api/images/{id}  text rendering of the current puzzle
//
// Each client is identified by the md_session cookie, issued on first contact.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/verte-zerg/mysterydigits/internal/game"
	"github.com/verte-zerg/mysterydigits/internal/model"
	"github.com/verte-zerg/mysterydigits/internal/store"
)

const (
	sessionCookie  = "md_session"
	handlerTimeout = 10 * time.Second
	maxBodyBytes   = 1 << 12
)

// Server bundles the router, game engine and session store.
type Server struct {
	r      *chi.Mux
	engine *game.Engine
	store  *store.Store
	log    zerolog.Logger
}

// New constructs a Server and registers routes. An empty corsOrigin disables CORS headers.
func New(engine *game.Engine, st *store.Store, logger zerolog.Logger, corsOrigin string) *Server {
	s := &Server{r: chi.NewRouter(), engine: engine, store: st, log: logger}

	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(s.requestLogger)
	s.r.Use(chimw.Recoverer)
	s.r.Use(chimw.Timeout(handlerTimeout))
	if corsOrigin != "" {
		s.r.Use(cors.New(cors.Options{
			AllowedOrigins:   []string{corsOrigin},
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Content-Type"},
			AllowCredentials: true,
		}).Handler)
	}

	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
	s.r.Route("/api", func(r chi.Router) {
		r.Post("/new-game", s.handleNewGame)
		r.Post("/check-guess", s.handleCheckGuess)
		r.Post("/get-hint", s.handleGetHint)
		r.Get("/images/{id}", s.handleImage)
	})
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	return s
}

// Handler exposes the router.
func (s *Server) Handler() http.Handler { return s.r }

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Str("request_id", chimw.GetReqID(r.Context())).
			Msg("request")
	})
}

type newGameReq struct {
	Difficulty string `json:"difficulty"`
}

type guessReq struct {
	Guess string `json:"guess"`
}

func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameReq
	if !decode(w, r, &req) {
		return
	}
	d, err := model.ParseDifficulty(req.Difficulty)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sid := ensureSession(w, r)
	g := s.engine.NewGame(sid, d)
	if err := s.store.Save(r.Context(), g); err != nil {
		s.log.Error().Err(err).Msg("failed to save game")
		writeError(w, http.StatusInternalServerError, "failed to start game")
		return
	}
	level, lives := g.Level, g.Lives
	writeJSON(w, http.StatusOK, model.Payload{
		ImageURL:   imageURL(g),
		Level:      &level,
		Lives:      &lives,
		Difficulty: string(d),
		Message:    "New game started",
	})
}

func (s *Server) handleCheckGuess(w http.ResponseWriter, r *http.Request) {
	var req guessReq
	if !decode(w, r, &req) {
		return
	}
	var out model.Payload
	err := s.store.Update(r.Context(), sessionID(r), func(g *game.Game) error {
		res, err := s.engine.Guess(g, req.Guess)
		if err != nil {
			return err
		}
		level, lives := g.Level, g.Lives
		out = model.Payload{
			Correct:      res.Correct,
			Achievements: res.Achievements,
			Answer:       res.Answer,
			ImageURL:     imageURL(g),
			Level:        &level,
			Lives:        &lives,
			GameOver:     res.GameOver,
		}
		if res.Correct {
			points := res.BasePoints
			out.BasePoints = &points
		}
		return nil
	})
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetHint(w http.ResponseWriter, r *http.Request) {
	var out model.Payload
	err := s.store.Update(r.Context(), sessionID(r), func(g *game.Game) error {
		hint, err := s.engine.Hint(g)
		if err != nil {
			return err
		}
		out = model.Payload{Hint: hint}
		return nil
	})
	if errors.Is(err, game.ErrNoHintsLeft) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	art, err := s.store.Art(r.Context(), sessionID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "image not found")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(art))
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, game.ErrGameOver) {
		writeError(w, http.StatusConflict, "game over; start a new game")
		return
	}
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusConflict, "no active game; start a new game first")
		return
	}
	s.log.Error().Err(err).Msg("store update failed")
	writeError(w, http.StatusInternalServerError, "internal error")
}

func imageURL(g *game.Game) string {
	return "/api/images/" + g.PuzzleID
}

func sessionID(r *http.Request) string {
	ck, err := r.Cookie(sessionCookie)
	if err != nil {
		return ""
	}
	return ck.Value
}

func ensureSession(w http.ResponseWriter, r *http.Request) string {
	if sid := sessionID(r); sid != "" {
		return sid
	}
	sid := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sid
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
