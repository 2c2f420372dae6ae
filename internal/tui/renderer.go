package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/mysterydigits/internal/model"
)

type stateMsg struct {
	state   model.SessionState
	payload *model.Payload
}

type timerMsg string

type noticeMsg model.Notification

type clearInputMsg struct{}

type difficultyMsg model.Difficulty

type busyMsg bool

// Renderer forwards controller output to the Bubble Tea program as messages.
// It is safe for use from any goroutine.
type Renderer struct {
	msgs chan tea.Msg
	done chan struct{}
	once sync.Once
}

// NewRenderer returns a Renderer with a buffered message queue.
func NewRenderer() *Renderer {
	return &Renderer{
		msgs: make(chan tea.Msg, 64),
		done: make(chan struct{}),
	}
}

// Render queues a state update.
func (r *Renderer) Render(state model.SessionState, payload *model.Payload) {
	var p *model.Payload
	if payload != nil {
		cp := *payload
		p = &cp
	}
	r.send(stateMsg{state: state, payload: p})
}

// ShowTimer queues a timer update.
func (r *Renderer) ShowTimer(elapsed string) { r.send(timerMsg(elapsed)) }

// Notify queues a notification.
func (r *Renderer) Notify(n model.Notification) { r.send(noticeMsg(n)) }

// ClearInput queues clearing of the guess field.
func (r *Renderer) ClearInput() { r.send(clearInputMsg{}) }

// SetDifficulty queues a difficulty selector update.
func (r *Renderer) SetDifficulty(d model.Difficulty) { r.send(difficultyMsg(d)) }

// SetBusy queues the guess-in-flight indicator.
func (r *Renderer) SetBusy(busy bool) { r.send(busyMsg(busy)) }

// Close releases blocked senders once the program has stopped reading.
func (r *Renderer) Close() {
	r.once.Do(func() {
		close(r.done)
	})
}

func (r *Renderer) send(msg tea.Msg) {
	select {
	case r.msgs <- msg:
	case <-r.done:
	}
}

// wait returns a command that delivers the next queued message.
func (r *Renderer) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-r.msgs:
			return msg
		case <-r.done:
			return nil
		}
	}
}
