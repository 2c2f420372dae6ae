// Package generator builds puzzle numbers and their distorted text renderings.
package generator

import (
	"math/rand"
	"strings"
	"time"

	"github.com/verte-zerg/mysterydigits/internal/model"
)

// Profile describes how puzzles are built for a difficulty.
type Profile struct {
	MinDigits  int
	MaxDigits  int
	Distortion float64
}

var profiles = map[model.Difficulty]Profile{
	model.DifficultyEasy:   {MinDigits: 1, MaxDigits: 3, Distortion: 0.1},
	model.DifficultyMedium: {MinDigits: 2, MaxDigits: 4, Distortion: 0.2},
	model.DifficultyHard:   {MinDigits: 3, MaxDigits: 5, Distortion: 0.3},
	model.DifficultyExpert: {MinDigits: 4, MaxDigits: 6, Distortion: 0.4},
}

// ProfileFor returns the puzzle profile for d, falling back to easy.
func ProfileFor(d model.Difficulty) Profile {
	if p, ok := profiles[d]; ok {
		return p
	}
	return profiles[model.DifficultyEasy]
}

// Generator produces randomized puzzles.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewSeeded(time.Now().UnixNano())
}

// NewSeeded returns a deterministic Generator.
func NewSeeded(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Number returns a random number for the difficulty. Multi-digit numbers never start with 0.
func (g *Generator) Number(d model.Difficulty) string {
	p := ProfileFor(d)
	count := p.MinDigits + g.rnd.Intn(p.MaxDigits-p.MinDigits+1)
	if count == 1 {
		return string(rune('0' + g.rnd.Intn(10)))
	}
	var b strings.Builder
	b.Grow(count)
	b.WriteByte(byte('1' + g.rnd.Intn(9)))
	for i := 1; i < count; i++ {
		b.WriteByte(byte('0' + g.rnd.Intn(10)))
	}
	return b.String()
}

const noiseSet = ".,:;'`~-"

// Render draws number in block digits and sprinkles noise over the background.
// Distortion is the probability that a background cell gets noise; digit strokes shift
// by one column with half that probability.
func (g *Generator) Render(number string, distortion float64) string {
	rows := make([][]rune, glyphHeight)
	for _, ch := range number {
		glyph, ok := glyphs[ch]
		if !ok {
			continue
		}
		for y := 0; y < glyphHeight; y++ {
			line := []rune(glyph[y])
			if distortion > 0 && g.rnd.Float64() < distortion/2 {
				line = shift(line, g.rnd.Intn(2) == 0)
			}
			rows[y] = append(rows[y], line...)
			rows[y] = append(rows[y], ' ', ' ')
		}
	}
	lines := make([]string, 0, glyphHeight)
	for _, row := range rows {
		for i, r := range row {
			if r == ' ' {
				row[i] = applyNoise(g.rnd, distortion)
			}
		}
		lines = append(lines, strings.TrimRight(string(row), " "))
	}
	return strings.Join(lines, "\n")
}

func applyNoise(rnd *rand.Rand, distortion float64) rune {
	if distortion <= 0 || rnd.Float64() > distortion {
		return ' '
	}
	return rune(noiseSet[rnd.Intn(len(noiseSet))])
}

func shift(line []rune, left bool) []rune {
	out := make([]rune, len(line))
	for i := range out {
		out[i] = ' '
	}
	for i, r := range line {
		j := i + 1
		if left {
			j = i - 1
		}
		if j >= 0 && j < len(out) {
			out[j] = r
		}
	}
	return out
}
