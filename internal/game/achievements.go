package game

import (
	"fmt"
	"time"

	"github.com/verte-zerg/mysterydigits/internal/model"
)

type achievement struct {
	id     string
	info   model.Achievement
	earned func(g *Game, taken time.Duration) bool
}

var achievements = buildAchievements()

func buildAchievements() []achievement {
	list := []achievement{
		{
			id:   "first_correct",
			info: model.Achievement{Name: "First Digits", Description: "Solve your first puzzle", Icon: "star", Points: 10},
			earned: func(g *Game, _ time.Duration) bool {
				return g.Correct >= 1
			},
		},
		{
			id:   "no_hints",
			info: model.Achievement{Name: "Unaided", Description: "Solve a puzzle without hints", Icon: "eye", Points: 15},
			earned: func(g *Game, _ time.Duration) bool {
				return g.hintsUsed == 0
			},
		},
		{
			id:   "speed",
			info: model.Achievement{Name: "Lightning", Description: "Solve a puzzle in under 5 seconds", Icon: "bolt", Points: 30},
			earned: func(_ *Game, taken time.Duration) bool {
				return taken < speedThreshold
			},
		},
	}
	streaks := []struct {
		n      int
		name   string
		points int
	}{
		{5, "Hot Streak", 25},
		{10, "On Fire", 50},
		{20, "Unstoppable", 100},
		{50, "Digit Master", 250},
	}
	for _, s := range streaks {
		n := s.n
		list = append(list, achievement{
			id:   fmt.Sprintf("streak_%d", n),
			info: model.Achievement{Name: s.name, Description: fmt.Sprintf("%d correct in a row", n), Icon: "flame", Points: s.points},
			earned: func(g *Game, _ time.Duration) bool {
				return g.Streak >= n
			},
		})
	}
	for _, lvl := range []int{10, 25, 50, 75, 100} {
		lvl := lvl
		list = append(list, achievement{
			id:   fmt.Sprintf("level_%d", lvl),
			info: model.Achievement{Name: fmt.Sprintf("Level %d", lvl), Description: fmt.Sprintf("Reach level %d", lvl), Icon: "trophy", Points: lvl * 2},
			earned: func(g *Game, _ time.Duration) bool {
				return g.Level >= lvl
			},
		})
	}
	return list
}

// unlock returns achievements newly earned by a correct answer and marks them as unlocked.
func unlock(g *Game, taken time.Duration) []model.Achievement {
	var out []model.Achievement
	for _, a := range achievements {
		if g.unlocked[a.id] || !a.earned(g, taken) {
			continue
		}
		g.unlocked[a.id] = true
		out = append(out, a.info)
	}
	return out
}
