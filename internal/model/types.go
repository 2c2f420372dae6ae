// Package model defines shared data structures.
package model

import (
	"fmt"
	"strings"
	"time"
)

// MaxHints is the number of hints a player may use per session.
const MaxHints = 3

// Difficulty selects the puzzle size requested from the game service.
type Difficulty string

// Supported difficulties, in selector order.
const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyExpert Difficulty = "expert"
)

// Difficulties lists every supported difficulty in selector order.
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyExpert}

// ParseDifficulty normalizes and validates a difficulty name.
func ParseDifficulty(value string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(value)))
	for _, known := range Difficulties {
		if d == known {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown difficulty %q", value)
}

// Label returns the capitalized display name.
func (d Difficulty) Label() string {
	if d == "" {
		return ""
	}
	return strings.ToUpper(string(d[:1])) + string(d[1:])
}

// GameConfig holds scoring and timer settings. It is loaded once and not mutated.
type GameConfig struct {
	TickInterval       time.Duration
	HintPenalty        int
	StreakBonusRate    int
	TimeBonusThreshold int
}

// DefaultGameConfig returns the stock scoring settings.
func DefaultGameConfig() GameConfig {
	return GameConfig{
		TickInterval:       time.Second,
		HintPenalty:        10,
		StreakBonusRate:    10,
		TimeBonusThreshold: 10,
	}
}

// SessionState is the client-side view of a game session. Lives stays 0 until the service
// reports a count.
type SessionState struct {
	CurrentLevel    int
	Score           int
	Streak          int
	BestStreak      int
	HintsUsed       int
	StartTime       *time.Time
	TimeElapsed     int
	TotalAttempts   int
	CorrectAttempts int
	Lives           int
	GameOver        bool
}

// NewSessionState returns the state of a session before the first game.
func NewSessionState() SessionState {
	return SessionState{CurrentLevel: 1}
}

// Achievement is an unlock reported by the game service.
type Achievement struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
	Points      int    `json:"points,omitempty"`
}

// Payload is a game service response. Every field is optional; unknown fields are dropped.
type Payload struct {
	Correct      bool          `json:"correct"`
	BasePoints   *int          `json:"basePoints,omitempty"`
	Achievements []Achievement `json:"achievements,omitempty"`
	ImageURL     string        `json:"imageUrl,omitempty"`
	Hint         string        `json:"hint,omitempty"`
	Level        *int          `json:"level,omitempty"`
	Answer       string        `json:"answer,omitempty"`
	Message      string        `json:"message,omitempty"`
	Difficulty   string        `json:"difficulty,omitempty"`
	Lives        *int          `json:"lives,omitempty"`
	GameOver     bool          `json:"gameOver,omitempty"`
}

// NoticeLevel classifies a user-visible notification.
type NoticeLevel string

// Notification levels.
const (
	NoticeSuccess     NoticeLevel = "success"
	NoticeInfo        NoticeLevel = "info"
	NoticeWarning     NoticeLevel = "warning"
	NoticeError       NoticeLevel = "error"
	NoticeAchievement NoticeLevel = "achievement"
)

// Notification is a message shown to the player.
type Notification struct {
	Level NoticeLevel
	Text  string
}

// PlayConfig defines client settings after config file, env and flags are merged.
type PlayConfig struct {
	Server         string
	Difficulty     Difficulty
	RequestTimeout time.Duration
	LogLevel       string
	Game           GameConfig
}

// ServeConfig defines development server settings.
type ServeConfig struct {
	Addr       string
	CORSOrigin string
	LogLevel   string
}
