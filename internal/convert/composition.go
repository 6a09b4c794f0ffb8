package convert

import (
	"fmt"
	"math/rand/v2"

	"github.com/codemytelab/gamezone/internal/game"
)

// Part is one row of a composition table: Count questions of Kind.
type Part struct {
	Kind  game.Kind `json:"kind"`
	Count int       `json:"count"`
}

// Composition is an ordered multiset of conversion kinds. Order is the kind order of the session.
type Composition []Part

// Total is the number of questions the composition produces.
func (c Composition) Total() int {
	n := 0
	for _, p := range c {
		n += p.Count
	}
	return n
}

// Validate rejects unknown kinds, negative counts and empty compositions.
func (c Composition) Validate() error {
	for _, p := range c {
		if !p.Kind.IsConversion() {
			return fmt.Errorf("%w: %q is not a conversion kind", game.ErrConfiguration, p.Kind)
		}
		if p.Count < 0 {
			return fmt.Errorf("%w: negative count %d for %s", game.ErrConfiguration, p.Count, p.Kind)
		}
	}
	if c.Total() < 1 {
		return fmt.Errorf("%w: composition produces no questions", game.ErrConfiguration)
	}
	return nil
}

// Compositions is the per-difficulty table used by the conversion game.
var Compositions = map[game.Difficulty]Composition{
	game.Easy: {
		{Kind: game.KindBinToDec, Count: 5},
		{Kind: game.KindDecToBin, Count: 1},
		{Kind: game.KindBinToOct, Count: 1},
	},
	game.Medium: {
		{Kind: game.KindBinToDec, Count: 2},
		{Kind: game.KindDecToBin, Count: 2},
		{Kind: game.KindBinToOct, Count: 2},
		{Kind: game.KindHexToDec, Count: 1},
	},
	game.Hard: {
		{Kind: game.KindBinToDec, Count: 1},
		{Kind: game.KindDecToBin, Count: 2},
		{Kind: game.KindBinToOct, Count: 2},
		{Kind: game.KindHexToDec, Count: 2},
	},
}

// Build generates exactly c.Total() questions in composition order.
func Build(c Composition, r *rand.Rand) ([]game.Question, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	out := make([]game.Question, 0, c.Total())
	for _, p := range c {
		for i := 0; i < p.Count; i++ {
			q, err := Generate(p.Kind, r)
			if err != nil {
				return nil, err
			}
			out = append(out, q)
		}
	}
	return out, nil
}

// BuildSession builds the questions for d from the default table.
func BuildSession(d game.Difficulty, r *rand.Rand) ([]game.Question, error) {
	c, ok := Compositions[d]
	if !ok {
		return nil, fmt.Errorf("%w: no composition for difficulty %q", game.ErrConfiguration, d)
	}
	return Build(c, r)
}

// Builder adapts BuildSession to the session state machine.
func Builder(r *rand.Rand) game.Builder {
	return func(d game.Difficulty) ([]game.Question, error) {
		return BuildSession(d, r)
	}
}
