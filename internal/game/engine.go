// internal/game/engine.go
//
// Session state machine for both quiz games.
// Responsibilities:
//   - Build a session from a difficulty via an injected Builder.
//   - Validate and apply answers (choice tokens or trimmed free text).
//   - Record write-once cell feedback and the running score.
//   - Track phase transitions: selecting_difficulty → in_progress → summary,
//     plus abandon (→ selecting_difficulty) and retry (summary → in_progress).
//
// Notes:
//   - Every transition is a pure function of (Session, input) and returns a new Session.
//   - A rejected transition returns the input session unchanged together with the error.
//   - Entering the summary is staged: the last submission sets SummaryPending and the
//     caller dispatches RevealSummary once its delay has elapsed.
package game

import (
	"fmt"
	"strings"
	"unicode"
)

// Builder produces the ordered question list for a difficulty.
type Builder func(d Difficulty) ([]Question, error)

// Verdict describes the effect of one submission.
type Verdict struct {
	Correct  bool `json:"correct"`
	Recorded bool `json:"recorded"` // false when a revisited question was already answered
	Last     bool `json:"last"`     // true when the submission completed the session
}

// New returns a session waiting for a difficulty to be selected.
func New(id string, g Game) Session {
	return Session{
		ID:        id,
		Game:      g,
		Phase:     PhaseSelectingDifficulty,
		Questions: []Question{},
		Cells:     []Cell{},
		Answered:  []bool{},
	}
}

// SelectDifficulty builds the question list and starts the session.
func SelectDifficulty(s Session, d Difficulty, build Builder) (Session, error) {
	if s.Phase != PhaseSelectingDifficulty {
		return s, fmt.Errorf("%w: select difficulty while %s", ErrIllegalTransition, s.Phase)
	}
	if d.Rank() == 0 {
		return s, fmt.Errorf("%w: %q", ErrUnknownDifficulty, d)
	}
	return start(s, d, build)
}

// Retry rebuilds a finished session with the same difficulty.
func Retry(s Session, build Builder) (Session, error) {
	if s.Phase != PhaseSummary {
		return s, fmt.Errorf("%w: retry while %s", ErrIllegalTransition, s.Phase)
	}
	return start(s, s.Difficulty, build)
}

func start(s Session, d Difficulty, build Builder) (Session, error) {
	if build == nil {
		return s, fmt.Errorf("%w: no question builder for %s", ErrConfiguration, s.Game)
	}
	qs, err := build(d)
	if err != nil {
		return s, err
	}
	if len(qs) == 0 {
		return s, fmt.Errorf("%w: empty session for %s/%s", ErrConfiguration, s.Game, d)
	}

	next := s
	next.Phase = PhaseInProgress
	next.Difficulty = d
	next.Round = s.Round + 1
	next.Questions = qs
	next.Current = 0
	next.Score = 0
	next.Cells = newCells(s.Game.CellMode(), qs)
	next.Answered = make([]bool, len(qs))
	next.SummaryPending = false
	next.clearTransient()
	return next, nil
}

// newCells lays out one hidden cell per question, or one per answer character.
func newCells(mode CellMode, qs []Question) []Cell {
	n := len(qs)
	if mode == CellsPerCharacter {
		n = 0
		for _, q := range qs {
			n += q.answerLen()
		}
	}
	cells := make([]Cell, n)
	for i := range cells {
		cells[i] = Cell{State: CellHidden}
	}
	return cells
}

// SelectOption records the highlighted option of a choice question without submitting it.
func SelectOption(s Session, option string) (Session, error) {
	q, ok := s.CurrentQuestion()
	if !ok {
		return s, ErrNoActiveQuestion
	}
	if !q.Kind.IsChoice() {
		return s, fmt.Errorf("%w: %s question has no options", ErrInvalidOption, q.Kind)
	}
	opt, ok := q.matchOption(option)
	if !ok {
		return s, fmt.Errorf("%w: %q", ErrInvalidOption, option)
	}
	next := s
	next.Selected = opt
	return next, nil
}

// Submit evaluates raw against the current question.
//
// Choice questions take raw as the option token; an empty raw falls back to the
// selected option. Free-text questions compare trim(raw) with the expected answer
// case-insensitively. Cells and score are written once per question.
func Submit(s Session, raw string) (Session, Verdict, error) {
	q, ok := s.CurrentQuestion()
	if !ok {
		return s, Verdict{}, ErrNoActiveQuestion
	}

	given := strings.TrimSpace(raw)
	if q.Kind.IsChoice() {
		if given == "" {
			given = s.Selected
		}
		if given == "" {
			return s, Verdict{}, fmt.Errorf("%w: no option selected", ErrNoActiveQuestion)
		}
		opt, ok := q.matchOption(given)
		if !ok {
			return s, Verdict{}, fmt.Errorf("%w: %q", ErrInvalidOption, given)
		}
		given = opt
	} else if given == "" {
		return s, Verdict{}, fmt.Errorf("%w: empty answer", ErrNoActiveQuestion)
	}

	next := s.clone()
	v := Verdict{Correct: strings.EqualFold(given, strings.TrimSpace(q.Answer))}

	if !next.Answered[next.Current] {
		next.mark(next.Current, v.Correct)
		next.Answered[next.Current] = true
		if v.Correct {
			next.Score++
		}
		v.Recorded = true
	}
	next.clearTransient()

	if next.Current == len(next.Questions)-1 {
		next.Current = len(next.Questions)
		next.SummaryPending = true
		v.Last = true
	} else {
		next.Current++
	}
	return next, v, nil
}

// mark writes the cells belonging to question i.
func (s *Session) mark(i int, correct bool) {
	if s.Game.CellMode() == CellsPerQuestion {
		if correct {
			s.Cells[i] = Cell{State: CellCorrect}
		} else {
			s.Cells[i] = Cell{State: CellWrong}
		}
		return
	}

	offset := 0
	for _, q := range s.Questions[:i] {
		offset += q.answerLen()
	}
	for j, r := range []rune(strings.TrimSpace(s.Questions[i].Answer)) {
		if correct {
			s.Cells[offset+j] = Cell{State: CellCorrect, Char: string(unicode.ToUpper(r))}
		} else {
			s.Cells[offset+j] = Cell{State: CellWrong}
		}
	}
}

// ToggleHint flips hint visibility for the current question. Questions without
// a hint are left untouched.
func ToggleHint(s Session) (Session, error) {
	q, ok := s.CurrentQuestion()
	if !ok {
		return s, ErrNoActiveQuestion
	}
	if q.Hint == "" {
		return s, nil
	}
	next := s
	next.HintVisible = !s.HintVisible
	return next, nil
}

// GoBack returns to the previous question. Revealed cells stay revealed.
func GoBack(s Session) (Session, error) {
	switch {
	case !s.Game.CanGoBack():
		return s, fmt.Errorf("%w: %s has no previous-question control", ErrIllegalTransition, s.Game)
	case s.Phase != PhaseInProgress || s.SummaryPending:
		return s, fmt.Errorf("%w: go back while %s", ErrIllegalTransition, s.Phase)
	case s.Current == 0:
		return s, fmt.Errorf("%w: already at the first question", ErrIllegalTransition)
	}
	next := s
	next.Current--
	next.clearTransient()
	return next, nil
}

// Reset abandons the current play-through and returns to difficulty selection.
func Reset(s Session) Session {
	if s.Phase == PhaseSelectingDifficulty {
		return s
	}
	next := s
	next.Phase = PhaseSelectingDifficulty
	next.Difficulty = ""
	next.Round = s.Round + 1
	next.Questions = []Question{}
	next.Current = 0
	next.Score = 0
	next.Cells = []Cell{}
	next.Answered = []bool{}
	next.SummaryPending = false
	next.clearTransient()
	return next
}

// RevealSummary completes the staged transition into the summary phase.
// round must match the session round that scheduled it.
func RevealSummary(s Session, round int) (Session, error) {
	if !s.SummaryPending || s.Round != round {
		return s, fmt.Errorf("%w: no summary pending for round %d", ErrIllegalTransition, round)
	}
	next := s
	next.Phase = PhaseSummary
	next.SummaryPending = false
	return next, nil
}

func (s *Session) clearTransient() {
	s.Selected = ""
	s.HintVisible = false
}

// clone copies the mutable slices. Questions are immutable and shared.
func (s Session) clone() Session {
	next := s
	next.Cells = append([]Cell(nil), s.Cells...)
	next.Answered = append([]bool(nil), s.Answered...)
	return next
}
