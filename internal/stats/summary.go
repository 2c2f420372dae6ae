package stats

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/verte-zerg/mysterydigits/internal/model"
)

// RenderSummary prints the end-of-session table for a state snapshot.
func RenderSummary(w io.Writer, state model.SessionState, now time.Time) error {
	if state.StartTime == nil {
		_, err := fmt.Fprintln(w, "No game played.")
		return err
	}
	played := int(now.Sub(*state.StartTime) / time.Second)
	rows := [][]string{
		{"Score", strconv.Itoa(state.Score)},
		{"Level", strconv.Itoa(state.CurrentLevel)},
		{"Best streak", strconv.Itoa(state.BestStreak)},
		{"Accuracy", FormatAccuracy(state.CorrectAttempts, state.TotalAttempts)},
		{"Attempts", fmt.Sprintf("%d/%d", state.CorrectAttempts, state.TotalAttempts)},
		{"Hints used", fmt.Sprintf("%d/%d", state.HintsUsed, model.MaxHints)},
		{"Time played", FormatTime(played)},
	}
	if _, err := fmt.Fprintln(w, "Summary"); err != nil {
		return err
	}
	for _, line := range formatTable(nil, rows, map[int]bool{1: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
