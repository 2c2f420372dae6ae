// Package store keeps active games in memory, keyed by session id.
package store

import (
	"context"
	"errors"
	"sync"

	"github.com/verte-zerg/mysterydigits/internal/game"
)

// ErrNotFound is returned when a session has no active game.
var ErrNotFound = errors.New("no active game")

// Store holds one game per session. State is lost when the process exits.
type Store struct {
	mu    sync.Mutex
	games map[string]*game.Game
}

// New returns an empty Store.
func New() *Store {
	return &Store{games: make(map[string]*game.Game)}
}

// Save adds or replaces the game for its session.
func (s *Store) Save(_ context.Context, g *game.Game) error {
	if g == nil || g.SessionID == "" {
		return errors.New("game has no session id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[g.SessionID] = g
	return nil
}

// Update runs fn on the session's game while holding the store lock.
func (s *Store) Update(ctx context.Context, sessionID string, fn func(*game.Game) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[sessionID]
	if !ok {
		return ErrNotFound
	}
	return fn(g)
}

// Art returns the rendering of the session's current puzzle if puzzleID is still current.
func (s *Store) Art(_ context.Context, sessionID, puzzleID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[sessionID]
	if !ok || g.PuzzleID != puzzleID {
		return "", ErrNotFound
	}
	return g.Art, nil
}

// Len reports the number of active games.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.games)
}
