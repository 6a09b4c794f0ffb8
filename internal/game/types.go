// internal/game/types.go
//
// Core type definitions for the quiz session state machine.
// Defines:
//   - Game, Difficulty, Kind: what is being played and how a question is answered.
//   - Question: an immutable prompt/answer record shared by both games.
//   - Cell: one unit of reveal feedback (per question or per answer character).
//   - Session: the serializable state of a single play-through.

package game

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Game identifies one of the two quiz engines.
type Game string

const (
	GameBinary Game = "binary"
	GameHacker Game = "hacker-puzzle"
)

// Games lists every playable game in landing-page order.
var Games = []Game{GameBinary, GameHacker}

// ParseGame accepts the route name of a game ("binary", "hacker-puzzle") or the short "hacker".
func ParseGame(s string) (Game, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(GameBinary):
		return GameBinary, nil
	case string(GameHacker), "hacker":
		return GameHacker, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownGame, s)
}

// CellMode reports how a game lays out its reveal board.
func (g Game) CellMode() CellMode {
	if g == GameHacker {
		return CellsPerCharacter
	}
	return CellsPerQuestion
}

// CanGoBack reports whether the game allows revisiting an earlier question.
func (g Game) CanGoBack() bool { return g == GameHacker }

// Difficulty is the tier selected before a session starts.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// Difficulties lists every tier, easiest first.
var Difficulties = []Difficulty{Easy, Medium, Hard}

// ParseDifficulty accepts a tier name or its numeric level (1..3), case-insensitively.
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy", "1":
		return Easy, nil
	case "medium", "2":
		return Medium, nil
	case "hard", "3":
		return Hard, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDifficulty, s)
}

// Rank orders tiers: easy=1, medium=2, hard=3, anything else 0.
func (d Difficulty) Rank() int {
	switch d {
	case Easy:
		return 1
	case Medium:
		return 2
	case Hard:
		return 3
	}
	return 0
}

// Kind is the question type. The first four belong to the conversion game,
// the last three to the puzzle game.
type Kind string

const (
	KindBinToDec Kind = "bin_to_dec"
	KindDecToBin Kind = "dec_to_bin"
	KindHexToDec Kind = "hex_to_dec"
	KindBinToOct Kind = "bin_to_oct"

	KindMultipleChoice Kind = "multiple_choice"
	KindFillIn         Kind = "fill_in"
	KindTrueFalse      Kind = "true_false"
)

// IsChoice reports whether the answer is a selected option token rather than typed text.
func (k Kind) IsChoice() bool { return k == KindMultipleChoice || k == KindTrueFalse }

// IsConversion reports whether k is one of the numeral-base conversion kinds.
func (k Kind) IsConversion() bool {
	switch k {
	case KindBinToDec, KindDecToBin, KindHexToDec, KindBinToOct:
		return true
	}
	return false
}

// TrueFalseOptions is the option set every true/false question exposes.
var TrueFalseOptions = []string{"True", "False"}

// Question is one immutable quiz item. Options is only set for multiple choice;
// Hint and Difficulty are only set for puzzle questions.
type Question struct {
	Kind       Kind       `json:"kind"`
	Prompt     string     `json:"prompt"`
	Options    []string   `json:"options,omitempty"`
	Answer     string     `json:"answer"`
	Hint       string     `json:"hint,omitempty"`
	Difficulty Difficulty `json:"difficulty,omitempty"`
}

// ValidOptions returns the option set a choice answer must belong to (nil for free text).
func (q Question) ValidOptions() []string {
	switch q.Kind {
	case KindMultipleChoice:
		return q.Options
	case KindTrueFalse:
		return TrueFalseOptions
	}
	return nil
}

// matchOption returns the canonical option equal to token, ignoring case and surrounding space.
func (q Question) matchOption(token string) (string, bool) {
	token = strings.TrimSpace(token)
	for _, opt := range q.ValidOptions() {
		if strings.EqualFold(strings.TrimSpace(opt), token) {
			return opt, true
		}
	}
	return "", false
}

// answerLen is the number of reveal cells the question occupies in per-character mode.
func (q Question) answerLen() int {
	return utf8.RuneCountInString(strings.TrimSpace(q.Answer))
}

// CellState is the feedback state of one reveal cell.
type CellState string

const (
	CellHidden  CellState = "hidden"
	CellCorrect CellState = "correct"
	CellWrong   CellState = "wrong"
)

// Cell is one unit of the reveal board. Char holds the uppercased answer
// character once a per-character cell turns correct.
type Cell struct {
	State CellState `json:"state"`
	Char  string    `json:"char,omitempty"`
}

// CellMode selects the reveal board layout.
type CellMode string

const (
	CellsPerQuestion  CellMode = "question"
	CellsPerCharacter CellMode = "character"
)

// Phase is the coarse state of a session.
type Phase string

const (
	PhaseSelectingDifficulty Phase = "selecting_difficulty"
	PhaseInProgress          Phase = "in_progress"
	PhaseSummary             Phase = "summary"
)

// Session holds the state of a single play-through. It is a plain value:
// transitions in engine.go return a new Session and never mutate their input.
type Session struct {
	ID         string     `json:"id"`
	Game       Game       `json:"game"`
	Phase      Phase      `json:"phase"`
	Difficulty Difficulty `json:"difficulty,omitempty"`
	// Round increments every time the question list is rebuilt or dropped,
	// so delayed follow-ups can recognise they belong to a replaced session.
	Round     int        `json:"round"`
	// Version increments on every committed transition.
	Version   int        `json:"version"`
	Questions []Question `json:"questions"`
	Current   int        `json:"currentIndex"`
	Score     int        `json:"score"`
	Cells     []Cell     `json:"cells"`
	Answered  []bool     `json:"answered"`

	// SummaryPending is set after the last submission until the summary timer fires.
	SummaryPending bool `json:"summaryPending"`

	// Per-question transient state.
	Selected    string `json:"selected,omitempty"`
	HintVisible bool   `json:"hintVisible"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
