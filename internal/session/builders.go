package session

import (
	"math/rand/v2"
	"sync"

	"github.com/codemytelab/gamezone/internal/convert"
	"github.com/codemytelab/gamezone/internal/game"
	"github.com/codemytelab/gamezone/internal/hacker"
)

// Builders wires both games to one random source. The source is guarded so
// builders stay usable from the summary timer goroutine as well as request handlers.
func Builders(cat *hacker.Catalog, r *rand.Rand) map[game.Game]game.Builder {
	var mu sync.Mutex
	guard := func(b game.Builder) game.Builder {
		return func(d game.Difficulty) ([]game.Question, error) {
			mu.Lock()
			defer mu.Unlock()
			return b(d)
		}
	}
	return map[game.Game]game.Builder{
		game.GameBinary: guard(convert.Builder(r)),
		game.GameHacker: guard(hacker.Builder(cat, r)),
	}
}
