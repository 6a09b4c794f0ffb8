package game

import "strings"

// CurrentQuestion returns the pending question, if any.
func (s Session) CurrentQuestion() (Question, bool) {
	if s.Phase != PhaseInProgress || s.Current < 0 || s.Current >= len(s.Questions) {
		return Question{}, false
	}
	return s.Questions[s.Current], true
}

// AllCorrect reports whether every cell is correct.
func (s Session) AllCorrect() bool {
	if len(s.Cells) == 0 {
		return false
	}
	for _, c := range s.Cells {
		if c.State != CellCorrect {
			return false
		}
	}
	return true
}

// RevealedText concatenates the characters of correct cells; other cells contribute nothing.
func (s Session) RevealedText() string {
	var b strings.Builder
	for _, c := range s.Cells {
		if c.State == CellCorrect {
			b.WriteString(c.Char)
		}
	}
	return b.String()
}

// Summary is the read-only game-over projection.
type Summary struct {
	AllCorrect   bool   `json:"allCorrect"`
	RevealedText string `json:"finalRevealedText"`
	Score        int    `json:"score"`
	Total        int    `json:"total"`
}

// Summary returns the game-over projection once the session is in the summary phase.
func (s Session) Summary() (Summary, bool) {
	if s.Phase != PhaseSummary {
		return Summary{}, false
	}
	return Summary{
		AllCorrect:   s.AllCorrect(),
		RevealedText: s.RevealedText(),
		Score:        s.Score,
		Total:        len(s.Questions),
	}, true
}

// QuestionView is the player-facing part of a question. It never carries the answer.
type QuestionView struct {
	Number     int        `json:"number"`
	Kind       Kind       `json:"kind"`
	Prompt     string     `json:"prompt"`
	Options    []string   `json:"options,omitempty"`
	HasHint    bool       `json:"hasHint"`
	Hint       string     `json:"hint,omitempty"`
	Difficulty Difficulty `json:"difficulty,omitempty"`
}

// Snapshot is the outbound state rendered by a presentation layer.
type Snapshot struct {
	SessionID      string        `json:"sessionId"`
	Version        int           `json:"version"`
	Game           Game          `json:"game"`
	Phase          Phase         `json:"phase"`
	Difficulty     Difficulty    `json:"level,omitempty"`
	CurrentIndex   int           `json:"currentIndex"`
	Total          int           `json:"total"`
	Score          int           `json:"score"`
	Cells          []Cell        `json:"cells"`
	Question       *QuestionView `json:"currentQuestion,omitempty"`
	Selected       string        `json:"selectedOption,omitempty"`
	HintVisible    bool          `json:"hintVisible"`
	CanGoBack      bool          `json:"canGoBack"`
	SummaryPending bool          `json:"summaryPending"`
	Summary        *Summary      `json:"gameOverSummary,omitempty"`
}

// Snapshot projects the session for rendering.
func (s Session) Snapshot() Snapshot {
	snap := Snapshot{
		SessionID:      s.ID,
		Version:        s.Version,
		Game:           s.Game,
		Phase:          s.Phase,
		Difficulty:     s.Difficulty,
		CurrentIndex:   s.Current,
		Total:          len(s.Questions),
		Score:          s.Score,
		Cells:          append([]Cell{}, s.Cells...),
		Selected:       s.Selected,
		HintVisible:    s.HintVisible,
		SummaryPending: s.SummaryPending,
		CanGoBack: s.Game.CanGoBack() && s.Phase == PhaseInProgress &&
			!s.SummaryPending && s.Current > 0,
	}
	if q, ok := s.CurrentQuestion(); ok {
		qv := &QuestionView{
			Number:     s.Current + 1,
			Kind:       q.Kind,
			Prompt:     q.Prompt,
			Options:    q.ValidOptions(),
			HasHint:    q.Hint != "",
			Difficulty: q.Difficulty,
		}
		if s.HintVisible {
			qv.Hint = q.Hint
		}
		snap.Question = qv
	}
	if sum, ok := s.Summary(); ok {
		snap.Summary = &sum
	}
	return snap
}
