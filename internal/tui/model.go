// Package tui provides the Bubble Tea game interface.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/verte-zerg/mysterydigits/internal/model"
	"github.com/verte-zerg/mysterydigits/internal/session"
	"github.com/verte-zerg/mysterydigits/internal/stats"
)

const maxNotices = 5

// Controller is the part of session.Controller the interface drives.
type Controller interface {
	StartNewGame(ctx context.Context, d model.Difficulty) error
	SubmitGuess(ctx context.Context, text string) error
	UseHint(ctx context.Context) error
	SetDifficulty(d model.Difficulty) error
	Difficulty() model.Difficulty
	Snapshot() model.SessionState
}

// ImageFetcher loads the text rendering behind a payload image URL.
type ImageFetcher interface {
	FetchImage(ctx context.Context, imageURL string) (string, error)
}

type imageMsg struct {
	url string
	art string
	err error
}

// Model implements the Bubble Tea game UI.
type Model struct {
	ctx      context.Context
	ctrl     Controller
	renderer *Renderer
	images   ImageFetcher
	log      zerolog.Logger

	width  int
	height int

	input      textinput.Model
	state      model.SessionState
	difficulty model.Difficulty
	timer      string
	imageURL   string
	art        string
	artErr     bool
	notices    []model.Notification
	busy       bool
}

var (
	titleStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	labelStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	valueStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	streakStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF9F1C")).Bold(true)
	noStreakStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	activeDiffStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true).Padding(0, 1).Border(lipgloss.RoundedBorder(), true).BorderForeground(lipgloss.Color("#C89A3A"))
	idleDiffStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#B0B0B0")).Padding(0, 1).Border(lipgloss.RoundedBorder(), true).BorderForeground(lipgloss.Color("#4A4A4A"))
	artStyle         = lipgloss.NewStyle().Padding(0, 2).Border(lipgloss.RoundedBorder(), true).BorderForeground(lipgloss.Color("#4A4A4A"))
	footerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	successStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	infoStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#69B1FF"))
	warningStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAAD14"))
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	achievementStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#D3ADF7")).Bold(true)
)

// NewModel constructs the game UI around an existing controller and its renderer.
func NewModel(ctx context.Context, ctrl Controller, renderer *Renderer, images ImageFetcher, logger zerolog.Logger) *Model {
	input := textinput.New()
	input.Prompt = "Guess: "
	input.Placeholder = "type the digits"
	input.CharLimit = 12
	input.Focus()
	return &Model{
		ctx:        ctx,
		ctrl:       ctrl,
		renderer:   renderer,
		images:     images,
		log:        logger,
		input:      input,
		state:      ctrl.Snapshot(),
		difficulty: ctrl.Difficulty(),
		timer:      stats.FormatTime(0),
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.renderer.wait(), m.startGame())
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case imageMsg:
		if msg.url == m.imageURL {
			m.art = msg.art
			m.artErr = msg.err != nil
		}
		return m, nil
	case stateMsg, timerMsg, noticeMsg, clearInputMsg, difficultyMsg, busyMsg:
		cmd := m.apply(msg)
		return m, tea.Batch(cmd, m.renderer.wait())
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	case "enter":
		if m.busy {
			return m, nil
		}
		return m, m.submitGuess(m.input.Value())
	case "?":
		return m, m.useHint()
	case "ctrl+n":
		return m, m.startGame()
	case "tab":
		return m, m.selectDifficulty(1)
	case "shift+tab":
		return m, m.selectDifficulty(-1)
	}
	if msg.Type == tea.KeyRunes && !allDigits(msg.Runes) {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) apply(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case stateMsg:
		m.state = msg.state
		if msg.payload != nil && msg.payload.ImageURL != "" && msg.payload.ImageURL != m.imageURL {
			m.imageURL = msg.payload.ImageURL
			m.art = ""
			m.artErr = false
			return m.fetchImage(m.imageURL)
		}
	case timerMsg:
		m.timer = string(msg)
	case noticeMsg:
		m.notices = append(m.notices, model.Notification(msg))
		if len(m.notices) > maxNotices {
			m.notices = m.notices[len(m.notices)-maxNotices:]
		}
	case clearInputMsg:
		m.input.Reset()
	case difficultyMsg:
		m.difficulty = model.Difficulty(msg)
	case busyMsg:
		m.busy = bool(msg)
	}
	return nil
}

func (m *Model) startGame() tea.Cmd {
	d := m.difficulty
	return func() tea.Msg {
		m.report("new-game", m.ctrl.StartNewGame(m.ctx, d))
		return nil
	}
}

func (m *Model) submitGuess(text string) tea.Cmd {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return func() tea.Msg {
		m.report("check-guess", m.ctrl.SubmitGuess(m.ctx, text))
		return nil
	}
}

func (m *Model) useHint() tea.Cmd {
	return func() tea.Msg {
		m.report("get-hint", m.ctrl.UseHint(m.ctx))
		return nil
	}
}

func (m *Model) selectDifficulty(step int) tea.Cmd {
	next := cycleDifficulty(m.difficulty, step)
	return func() tea.Msg {
		m.report("set-difficulty", m.ctrl.SetDifficulty(next))
		return nil
	}
}

// report logs controller errors. The controller already notified the player, and the
// expected refusals are not logged.
func (m *Model) report(op string, err error) {
	if err == nil || isExpected(err) {
		return
	}
	m.log.Debug().Err(err).Str("op", op).Msg("controller command failed")
}

func isExpected(err error) bool {
	return errors.Is(err, session.ErrRequestPending) ||
		errors.Is(err, session.ErrNoHintsLeft) ||
		errors.Is(err, session.ErrGameOver) ||
		errors.Is(err, session.ErrStaleResponse)
}

func (m *Model) fetchImage(url string) tea.Cmd {
	if m.images == nil {
		return nil
	}
	return func() tea.Msg {
		art, err := m.images.FetchImage(m.ctx, url)
		if err != nil {
			m.log.Warn().Err(err).Str("url", url).Msg("failed to fetch puzzle image")
		}
		return imageMsg{url: url, art: art, err: err}
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	sections := []string{
		m.renderHeader(),
		m.renderDifficulties(),
		m.renderArt(),
		m.renderStats(),
		m.renderInput(),
	}
	if notices := m.renderNotices(); notices != "" {
		sections = append(sections, notices)
	}
	sections = append(sections, footerStyle.Render("enter guess · ? hint · ctrl+n new game · tab difficulty · esc quit"))
	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m *Model) renderHeader() string {
	return titleStyle.Render("MYSTERY DIGITS") + "  " + labelStyle.Render("Level ") + valueStyle.Render(fmt.Sprint(m.state.CurrentLevel))
}

func (m *Model) renderDifficulties() string {
	parts := make([]string, 0, len(model.Difficulties))
	for _, d := range model.Difficulties {
		style := idleDiffStyle
		if d == m.difficulty {
			style = activeDiffStyle
		}
		parts = append(parts, style.Render(d.Label()))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderArt() string {
	switch {
	case m.artErr:
		return artStyle.Render(labelStyle.Render("(image unavailable)"))
	case m.art == "":
		return artStyle.Render(labelStyle.Render("waiting for a puzzle..."))
	default:
		return artStyle.Render(m.art)
	}
}

func (m *Model) renderStats() string {
	streak := noStreakStyle.Render("no streak")
	if m.state.Streak > 0 {
		streak = streakStyle.Render(fmt.Sprintf("streak %d", m.state.Streak))
	}
	segments := []string{
		labelStyle.Render("Score ") + valueStyle.Render(fmt.Sprint(m.state.Score)),
		streak,
	}
	if m.state.GameOver {
		segments = append(segments, errorStyle.Render("GAME OVER"))
	} else if m.state.Lives > 0 {
		segments = append(segments, labelStyle.Render("Lives ")+valueStyle.Render(fmt.Sprint(m.state.Lives)))
	}
	segments = append(segments,
		labelStyle.Render(stats.HintsRemaining(m.state.HintsUsed)),
		labelStyle.Render("Accuracy ")+valueStyle.Render(stats.FormatAccuracy(m.state.CorrectAttempts, m.state.TotalAttempts)),
		labelStyle.Render("Time ")+valueStyle.Render(m.timer),
	)
	return strings.Join(segments, "  ")
}

func (m *Model) renderInput() string {
	line := m.input.View()
	if m.busy {
		line += "  " + labelStyle.Render("checking...")
	}
	return line
}

func (m *Model) renderNotices() string {
	lines := make([]string, 0, len(m.notices))
	for _, n := range m.notices {
		lines = append(lines, noticeStyle(n.Level).Render(n.Text))
	}
	return strings.Join(lines, "\n")
}

func noticeStyle(level model.NoticeLevel) lipgloss.Style {
	switch level {
	case model.NoticeSuccess:
		return successStyle
	case model.NoticeWarning:
		return warningStyle
	case model.NoticeError:
		return errorStyle
	case model.NoticeAchievement:
		return achievementStyle
	default:
		return infoStyle
	}
}

func cycleDifficulty(current model.Difficulty, step int) model.Difficulty {
	n := len(model.Difficulties)
	idx := 0
	for i, d := range model.Difficulties {
		if d == current {
			idx = i
			break
		}
	}
	return model.Difficulties[((idx+step)%n+n)%n]
}

func allDigits(runes []rune) bool {
	for _, r := range runes {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
