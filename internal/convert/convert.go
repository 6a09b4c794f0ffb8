// internal/convert/convert.go
//
// Question generation for the number-base conversion game.
// Responsibilities:
//   - Draw a fresh integer in [MinValue, MaxValue] and encode it in the source
//     and target bases of a conversion kind.
//   - Build a session from a fixed per-difficulty composition table, in a fixed
//     kind order (only the numeric payload is random).
//
// Randomness is always injected, so a seeded source gives reproducible sessions.
package convert

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/codemytelab/gamezone/internal/game"
)

// Every generated value fits in 8 bits.
const (
	MinValue = 1
	MaxValue = 255
)

// Bases returns the source and target numeral bases of a conversion kind.
func Bases(kind game.Kind) (from, to int, ok bool) {
	switch kind {
	case game.KindBinToDec:
		return 2, 10, true
	case game.KindDecToBin:
		return 10, 2, true
	case game.KindHexToDec:
		return 16, 10, true
	case game.KindBinToOct:
		return 2, 8, true
	}
	return 0, 0, false
}

// Encode renders n as the prompt and expected answer of kind.
// Hex prompts are uppercase; every other digit string is lowercase.
func Encode(kind game.Kind, n int) (game.Question, error) {
	from, to, ok := Bases(kind)
	if !ok {
		return game.Question{}, fmt.Errorf("%w: %q is not a conversion kind", game.ErrConfiguration, kind)
	}
	prompt := strconv.FormatInt(int64(n), from)
	if from == 16 {
		prompt = strings.ToUpper(prompt)
	}
	return game.Question{
		Kind:   kind,
		Prompt: prompt,
		Answer: strconv.FormatInt(int64(n), to),
	}, nil
}

// Generate draws one integer from r and encodes it for kind.
func Generate(kind game.Kind, r *rand.Rand) (game.Question, error) {
	return Encode(kind, MinValue+r.IntN(MaxValue-MinValue+1))
}
