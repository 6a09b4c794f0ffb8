package hacker

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/codemytelab/gamezone/internal/game"
)

// Tier asks for Count questions of one difficulty.
type Tier struct {
	Difficulty game.Difficulty `json:"difficulty"`
	Count      int             `json:"count"`
}

// Plan is the composition of one puzzle session.
type Plan []Tier

// Total is the number of questions the plan selects.
func (p Plan) Total() int {
	n := 0
	for _, t := range p {
		n += t.Count
	}
	return n
}

// Plans maps a target difficulty to its per-tier counts.
var Plans = map[game.Difficulty]Plan{
	game.Easy:   {{game.Easy, 5}},
	game.Medium: {{game.Easy, 1}, {game.Medium, 4}},
	game.Hard:   {{game.Easy, 1}, {game.Medium, 1}, {game.Hard, 3}},
}

// Shuffle permutes xs in place with the Fisher–Yates algorithm.
func Shuffle[T any](xs []T, r *rand.Rand) {
	for i := len(xs) - 1; i > 0; i-- {
		j := r.IntN(i + 1)
		xs[i], xs[j] = xs[j], xs[i]
	}
}

// SelectPlan shuffles each tier independently, takes the requested count from
// each, and concatenates tiers easiest first. A tier that cannot fill its count
// fails with game.ErrInsufficientQuestions.
func SelectPlan(p Plan, c *Catalog, r *rand.Rand) ([]game.Question, error) {
	if p.Total() < 1 {
		return nil, fmt.Errorf("%w: plan selects no questions", game.ErrConfiguration)
	}
	tiers := append(Plan(nil), p...)
	sort.SliceStable(tiers, func(i, j int) bool {
		return tiers[i].Difficulty.Rank() < tiers[j].Difficulty.Rank()
	})

	out := make([]game.Question, 0, p.Total())
	for _, t := range tiers {
		if t.Count < 0 || t.Difficulty.Rank() == 0 {
			return nil, fmt.Errorf("%w: bad tier %+v", game.ErrConfiguration, t)
		}
		pool := c.Tier(t.Difficulty)
		if len(pool) < t.Count {
			return nil, fmt.Errorf("%w: %s tier has %d, need %d",
				game.ErrInsufficientQuestions, t.Difficulty, len(pool), t.Count)
		}
		Shuffle(pool, r)
		out = append(out, pool[:t.Count]...)
	}
	return out, nil
}

// Select picks the questions for a session of difficulty d.
func Select(d game.Difficulty, c *Catalog, r *rand.Rand) ([]game.Question, error) {
	p, ok := Plans[d]
	if !ok {
		return nil, fmt.Errorf("%w: no plan for difficulty %q", game.ErrConfiguration, d)
	}
	return SelectPlan(p, c, r)
}

// Builder adapts Select to the session state machine.
func Builder(c *Catalog, r *rand.Rand) game.Builder {
	return func(d game.Difficulty) ([]game.Question, error) {
		return Select(d, c, r)
	}
}

// CheckPlans verifies every default plan can be filled from c.
func CheckPlans(c *Catalog) error {
	stats := c.Stats()
	for _, d := range game.Difficulties {
		for _, t := range Plans[d] {
			if stats[t.Difficulty] < t.Count {
				return fmt.Errorf("%w: %s session needs %d %s questions, catalog has %d",
					game.ErrInsufficientQuestions, d, t.Count, t.Difficulty, stats[t.Difficulty])
			}
		}
	}
	return nil
}
