// Package session implements the game session controller: it owns the client-side
// SessionState, applies scoring to game service responses, and drives the elapsed-time ticker.
// All output goes through Renderer.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/verte-zerg/mysterydigits/internal/model"
	"github.com/verte-zerg/mysterydigits/internal/scoring"
	"github.com/verte-zerg/mysterydigits/internal/stats"
)

var (
	// ErrRequestPending is returned when the same kind of request is already in flight.
	ErrRequestPending = errors.New("request already in flight")
	// ErrNoHintsLeft is returned when the session hint allowance is used up.
	ErrNoHintsLeft = errors.New("no hints left")
	// ErrUnknownDifficulty is returned for a difficulty outside model.Difficulties.
	ErrUnknownDifficulty = errors.New("unknown difficulty")
	// ErrGameOver is returned for guesses and hints after the service ended the game.
	ErrGameOver = errors.New("game over")
	// ErrStaleResponse is returned when a new game started while the request was in flight.
	// The response is dropped.
	ErrStaleResponse = errors.New("response belongs to a previous game")
)

const (
	genericFailure = "Something went wrong. Please try again."
	gameOverNotice = "Game over. Press ctrl+n to start a new game."
)

// GameService is the remote game API.
type GameService interface {
	NewGame(ctx context.Context, difficulty model.Difficulty) (model.Payload, error)
	CheckGuess(ctx context.Context, guess string) (model.Payload, error)
	GetHint(ctx context.Context) (model.Payload, error)
}

// Renderer displays session state. Implementations must tolerate calls from any goroutine
// and must not call back into the Controller synchronously.
type Renderer interface {
	Render(state model.SessionState, payload *model.Payload)
	ShowTimer(elapsed string)
	Notify(n model.Notification)
	ClearInput()
	SetDifficulty(d model.Difficulty)
	SetBusy(busy bool)
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Controller) {
		c.clock = clock
	}
}

// WithLogger sets the diagnostic logger used for failed requests.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) {
		c.log = logger
	}
}

// WithDifficulty sets the initially selected difficulty.
func WithDifficulty(d model.Difficulty) Option {
	return func(c *Controller) {
		c.difficulty = d
	}
}

// Controller owns one game session.
type Controller struct {
	svc      GameService
	renderer Renderer
	cfg      model.GameConfig
	clock    clockwork.Clock
	log      zerolog.Logger

	mu         sync.Mutex
	state      model.SessionState
	difficulty model.Difficulty
	starting   bool
	guessing   bool
	hinting    bool
	epoch      uint64
	tick       *ticker
}

type ticker struct {
	t    clockwork.Ticker
	done chan struct{}
}

// New constructs a Controller. Zero config values fall back to model.DefaultGameConfig.
func New(svc GameService, renderer Renderer, cfg model.GameConfig, opts ...Option) *Controller {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = model.DefaultGameConfig().TickInterval
	}
	c := &Controller{
		svc:        svc,
		renderer:   renderer,
		cfg:        cfg,
		clock:      clockwork.NewRealClock(),
		log:        zerolog.Nop(),
		state:      model.NewSessionState(),
		difficulty: model.DifficultyEasy,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns a copy of the current session state.
func (c *Controller) Snapshot() model.SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Difficulty returns the difficulty used by the next StartNewGame.
func (c *Controller) Difficulty() model.Difficulty {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.difficulty
}

// SetDifficulty records the difficulty for the next game and marks it active in the UI.
// It makes no request and leaves the session state alone.
func (c *Controller) SetDifficulty(d model.Difficulty) error {
	parsed, err := model.ParseDifficulty(string(d))
	if err != nil {
		return fmt.Errorf("%w: %q", ErrUnknownDifficulty, d)
	}
	c.mu.Lock()
	c.difficulty = parsed
	c.mu.Unlock()
	c.renderer.SetDifficulty(parsed)
	return nil
}

// StartNewGame starts the ticker and requests a fresh puzzle. Per-game counters are reset
// only once the service answers; BestStreak lives for the whole session.
func (c *Controller) StartNewGame(ctx context.Context, d model.Difficulty) error {
	parsed, err := model.ParseDifficulty(string(d))
	if err != nil {
		return fmt.Errorf("%w: %q", ErrUnknownDifficulty, d)
	}

	c.mu.Lock()
	if c.starting {
		c.mu.Unlock()
		return ErrRequestPending
	}
	c.starting = true
	c.difficulty = parsed
	now := c.clock.Now()
	c.state.StartTime = &now
	c.state.TimeElapsed = 0
	c.restartTickerLocked()
	c.mu.Unlock()

	payload, err := c.svc.NewGame(ctx, parsed)

	c.mu.Lock()
	c.starting = false
	if err != nil {
		c.mu.Unlock()
		c.fail("new-game", err)
		return fmt.Errorf("failed to start game: %w", err)
	}
	c.epoch++
	c.state.CurrentLevel = 1
	c.state.Score = 0
	c.state.Streak = 0
	c.state.HintsUsed = 0
	c.state.TotalAttempts = 0
	c.state.CorrectAttempts = 0
	c.state.Lives = 0
	c.state.GameOver = false
	c.mergeLocked(payload)
	state := c.snapshotLocked()
	c.mu.Unlock()

	c.log.Debug().Str("difficulty", string(parsed)).Msg("new game started")
	c.renderer.Render(state, &payload)
	return nil
}

// SubmitGuess checks a guess with the game service. Blank input is ignored. The attempt is
// counted before the request is sent and stays counted if the request fails. A response that
// arrives after a new game started is dropped with ErrStaleResponse.
func (c *Controller) SubmitGuess(ctx context.Context, text string) error {
	guess := strings.TrimSpace(text)
	if guess == "" {
		return nil
	}

	c.mu.Lock()
	if c.state.GameOver {
		c.mu.Unlock()
		c.renderer.Notify(model.Notification{Level: model.NoticeWarning, Text: gameOverNotice})
		return ErrGameOver
	}
	if c.guessing {
		c.mu.Unlock()
		c.renderer.Notify(model.Notification{Level: model.NoticeWarning, Text: "Still checking your last guess."})
		return ErrRequestPending
	}
	c.guessing = true
	epoch := c.epoch
	c.state.TotalAttempts++
	c.mu.Unlock()
	c.renderer.SetBusy(true)

	payload, err := c.svc.CheckGuess(ctx, guess)

	c.mu.Lock()
	c.guessing = false
	if c.epoch != epoch {
		c.mu.Unlock()
		c.renderer.SetBusy(false)
		c.log.Debug().Str("op", "check-guess").Msg("dropped response from a previous game")
		return ErrStaleResponse
	}
	if err != nil {
		c.mu.Unlock()
		c.renderer.SetBusy(false)
		c.fail("check-guess", err)
		return fmt.Errorf("failed to check guess: %w", err)
	}
	var notes []model.Notification
	if payload.Correct {
		notes = c.applyCorrectLocked(payload)
	} else {
		notes = c.applyIncorrectLocked(payload)
	}
	c.mergeLocked(payload)
	if payload.GameOver {
		notes = append(notes, c.endGameLocked())
	}
	state := c.snapshotLocked()
	c.mu.Unlock()

	for _, n := range notes {
		c.renderer.Notify(n)
	}
	c.renderer.Render(state, &payload)
	if state.GameOver {
		c.renderer.ShowTimer(stats.FormatTime(state.TimeElapsed))
	}
	c.renderer.ClearInput()
	c.renderer.SetBusy(false)
	return nil
}

func (c *Controller) applyCorrectLocked(payload model.Payload) []model.Notification {
	s := &c.state
	s.CorrectAttempts++
	s.Streak++
	if s.Streak > s.BestStreak {
		s.BestStreak = s.Streak
	}

	base := 0
	if payload.BasePoints != nil {
		base = *payload.BasePoints
	}
	timeBonus := 0
	if s.StartTime != nil {
		taken := c.clock.Since(*s.StartTime).Seconds()
		timeBonus = scoring.TimeBonus(s.CurrentLevel, taken, c.cfg.TimeBonusThreshold)
	}
	streakBonus := scoring.StreakBonus(s.Streak, c.cfg.StreakBonusRate)
	s.Score = scoring.ApplyDelta(s.Score, base+timeBonus+streakBonus)

	notes := []model.Notification{{
		Level: model.NoticeSuccess,
		Text:  fmt.Sprintf("Correct! +%d points", base),
	}}
	if timeBonus > 0 {
		notes = append(notes, model.Notification{
			Level: model.NoticeInfo,
			Text:  fmt.Sprintf("Time bonus: +%d", timeBonus),
		})
	}
	if streakBonus > 0 {
		notes = append(notes, model.Notification{
			Level: model.NoticeInfo,
			Text:  fmt.Sprintf("Streak bonus: +%d (%d in a row)", streakBonus, s.Streak),
		})
	}
	for _, a := range payload.Achievements {
		text := "Achievement unlocked: " + a.Name
		if a.Description != "" {
			text += " (" + a.Description + ")"
		}
		notes = append(notes, model.Notification{Level: model.NoticeAchievement, Text: text})
	}
	return notes
}

func (c *Controller) applyIncorrectLocked(payload model.Payload) []model.Notification {
	c.state.Streak = 0
	text := "Wrong guess. Try again!"
	if payload.Answer != "" {
		text = fmt.Sprintf("Wrong! The number was %s.", payload.Answer)
	}
	return []model.Notification{{Level: model.NoticeWarning, Text: text}}
}

// UseHint asks the service for a hint and charges the hint penalty.
func (c *Controller) UseHint(ctx context.Context) error {
	c.mu.Lock()
	if c.state.GameOver {
		c.mu.Unlock()
		c.renderer.Notify(model.Notification{Level: model.NoticeWarning, Text: gameOverNotice})
		return ErrGameOver
	}
	if c.state.HintsUsed >= model.MaxHints {
		c.mu.Unlock()
		c.renderer.Notify(model.Notification{Level: model.NoticeWarning, Text: "No hints left for this game."})
		return ErrNoHintsLeft
	}
	if c.hinting {
		c.mu.Unlock()
		return ErrRequestPending
	}
	c.hinting = true
	epoch := c.epoch
	c.mu.Unlock()

	payload, err := c.svc.GetHint(ctx)

	c.mu.Lock()
	c.hinting = false
	if c.epoch != epoch {
		c.mu.Unlock()
		c.log.Debug().Str("op", "get-hint").Msg("dropped response from a previous game")
		return ErrStaleResponse
	}
	if err != nil {
		c.mu.Unlock()
		c.fail("get-hint", err)
		return fmt.Errorf("failed to get hint: %w", err)
	}
	c.state.HintsUsed++
	c.state.Score = scoring.ApplyDelta(c.state.Score, -c.cfg.HintPenalty)
	c.mergeLocked(payload)
	state := c.snapshotLocked()
	c.mu.Unlock()

	c.renderer.Notify(model.Notification{Level: model.NoticeInfo, Text: "Hint: " + payload.Hint})
	c.renderer.Notify(model.Notification{
		Level: model.NoticeWarning,
		Text:  fmt.Sprintf("-%d points for using a hint", c.cfg.HintPenalty),
	})
	c.renderer.Render(state, &payload)
	return nil
}

// Close stops the ticker. It is safe to call more than once.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTickerLocked()
}

func (c *Controller) mergeLocked(payload model.Payload) {
	if payload.Level != nil && *payload.Level >= 1 {
		c.state.CurrentLevel = *payload.Level
	}
	if payload.Lives != nil && *payload.Lives >= 0 {
		c.state.Lives = *payload.Lives
	}
}

// endGameLocked freezes the clock at the final elapsed time.
func (c *Controller) endGameLocked() model.Notification {
	c.state.GameOver = true
	c.state.Lives = 0
	if c.state.StartTime != nil {
		c.state.TimeElapsed = int(c.clock.Since(*c.state.StartTime) / time.Second)
	}
	c.stopTickerLocked()
	return model.Notification{
		Level: model.NoticeError,
		Text:  fmt.Sprintf("Game over! Final score: %d", c.state.Score),
	}
}

func (c *Controller) snapshotLocked() model.SessionState {
	s := c.state
	if s.StartTime != nil {
		start := *s.StartTime
		s.StartTime = &start
	}
	return s
}

func (c *Controller) fail(op string, err error) {
	c.log.Error().Err(err).Str("op", op).Msg("game service request failed")
	c.renderer.Notify(model.Notification{Level: model.NoticeError, Text: genericFailure})
}

func (c *Controller) restartTickerLocked() {
	c.stopTickerLocked()
	tk := &ticker{
		t:    c.clock.NewTicker(c.cfg.TickInterval),
		done: make(chan struct{}),
	}
	c.tick = tk
	go c.runTicker(tk)
}

func (c *Controller) stopTickerLocked() {
	if c.tick == nil {
		return
	}
	c.tick.t.Stop()
	close(c.tick.done)
	c.tick = nil
}

func (c *Controller) runTicker(tk *ticker) {
	for {
		select {
		case <-tk.done:
			return
		case <-tk.t.Chan():
			c.onTick(tk)
		}
	}
}

func (c *Controller) onTick(tk *ticker) {
	c.mu.Lock()
	if c.tick != tk || c.state.StartTime == nil {
		c.mu.Unlock()
		return
	}
	elapsed := int(c.clock.Since(*c.state.StartTime) / time.Second)
	c.state.TimeElapsed = elapsed
	c.mu.Unlock()
	c.renderer.ShowTimer(stats.FormatTime(elapsed))
}
