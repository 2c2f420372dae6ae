// Package game holds the server-side rules of Mystery Digits: puzzles, levels, hints and
// achievements.
package game

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/verte-zerg/mysterydigits/internal/generator"
	"github.com/verte-zerg/mysterydigits/internal/model"
)

const (
	basePoints     = 100
	startingLives  = 3
	levelUpAfter   = 3
	levelDownAfter = 2
	maxLevel       = 100
	speedThreshold = 5 * time.Second
)

var (
	// ErrNoHintsLeft is returned when every hint for the current puzzle has been given.
	ErrNoHintsLeft = errors.New("no hints left for this puzzle")
	// ErrGameOver is returned for guesses and hints once the last life is lost.
	ErrGameOver = errors.New("game over")
)

type rule struct {
	multiplier int
	hints      int
}

var rules = map[model.Difficulty]rule{
	model.DifficultyEasy:   {multiplier: 1, hints: 3},
	model.DifficultyMedium: {multiplier: 2, hints: 2},
	model.DifficultyHard:   {multiplier: 3, hints: 1},
	model.DifficultyExpert: {multiplier: 4, hints: 0},
}

// Game is one player's session on the server.
type Game struct {
	SessionID  string
	Difficulty model.Difficulty
	PuzzleID   string
	Number     string
	Art        string
	Level      int
	Streak     int
	Correct    int
	Attempts   int
	Lives      int
	Over       bool

	hintsUsed   int
	rightInRow  int
	wrongInRow  int
	puzzleStart time.Time
	unlocked    map[string]bool
}

// Result is the outcome of a guess.
type Result struct {
	Correct      bool
	BasePoints   int
	Answer       string
	Achievements []model.Achievement
	GameOver     bool
}

// Engine creates and advances games. It is safe for concurrent use.
type Engine struct {
	mu    sync.Mutex
	gen   *generator.Generator
	clock clockwork.Clock
}

// NewEngine returns an Engine using gen for puzzles and clock for timing.
func NewEngine(gen *generator.Generator, clock clockwork.Clock) *Engine {
	return &Engine{gen: gen, clock: clock}
}

// NewGame starts a game for the session at level 1 with full lives.
func (e *Engine) NewGame(sessionID string, d model.Difficulty) *Game {
	g := &Game{
		SessionID:  sessionID,
		Difficulty: d,
		Level:      1,
		Lives:      startingLives,
		unlocked:   map[string]bool{},
	}
	e.nextPuzzle(g)
	return g
}

// Guess checks guess against the current puzzle and moves on to a new one either way.
// A wrong guess costs a life; losing the last one ends the game.
func (e *Engine) Guess(g *Game, guess string) (Result, error) {
	if g.Over {
		return Result{}, ErrGameOver
	}
	g.Attempts++
	taken := e.clock.Since(g.puzzleStart)
	if strings.TrimSpace(guess) != g.Number {
		res := Result{Answer: g.Number}
		g.Lives--
		if g.Lives <= 0 {
			g.Lives = 0
			g.Over = true
			res.GameOver = true
		}
		g.Streak = 0
		g.rightInRow = 0
		g.wrongInRow++
		if g.wrongInRow >= levelDownAfter {
			g.wrongInRow = 0
			if g.Level > 1 {
				g.Level--
			}
		}
		e.nextPuzzle(g)
		return res, nil
	}

	g.Correct++
	g.Streak++
	g.wrongInRow = 0
	g.rightInRow++
	if g.rightInRow >= levelUpAfter {
		g.rightInRow = 0
		if g.Level < maxLevel {
			g.Level++
		}
	}
	res := Result{
		Correct:      true,
		BasePoints:   basePoints * ruleFor(g.Difficulty).multiplier,
		Achievements: unlock(g, taken),
	}
	e.nextPuzzle(g)
	return res, nil
}

// Hint returns the next clue for the current puzzle. The number of clues per puzzle depends
// on the difficulty.
func (e *Engine) Hint(g *Game) (string, error) {
	if g.Over {
		return "", ErrGameOver
	}
	if g.hintsUsed >= HintsAllowed(g.Difficulty) {
		return "", ErrNoHintsLeft
	}
	g.hintsUsed++
	switch g.hintsUsed {
	case 1:
		if len(g.Number) == 1 {
			return "The number has 1 digit.", nil
		}
		return fmt.Sprintf("The number has %d digits.", len(g.Number)), nil
	case 2:
		return fmt.Sprintf("It starts with %c.", g.Number[0]), nil
	default:
		return fmt.Sprintf("It ends with %c.", g.Number[len(g.Number)-1]), nil
	}
}

// HintsUsed reports the hints given for the current puzzle.
func (g *Game) HintsUsed() int {
	return g.hintsUsed
}

func (e *Engine) nextPuzzle(g *Game) {
	e.mu.Lock()
	defer e.mu.Unlock()
	profile := generator.ProfileFor(g.Difficulty)
	g.PuzzleID = uuid.NewString()
	g.Number = e.gen.Number(g.Difficulty)
	g.Art = e.gen.Render(g.Number, profile.Distortion)
	g.hintsUsed = 0
	g.puzzleStart = e.clock.Now()
}

// HintsAllowed reports the clues available per puzzle at difficulty d.
func HintsAllowed(d model.Difficulty) int {
	return ruleFor(d).hints
}

func ruleFor(d model.Difficulty) rule {
	if r, ok := rules[d]; ok {
		return r
	}
	return rules[model.DifficultyEasy]
}
