package game

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixed(qs ...Question) Builder {
	return func(Difficulty) ([]Question, error) {
		return append([]Question(nil), qs...), nil
	}
}

var binaryQs = []Question{
	{Kind: KindBinToDec, Prompt: "1010", Answer: "10"},
	{Kind: KindDecToBin, Prompt: "45", Answer: "101101"},
	{Kind: KindHexToDec, Prompt: "1A", Answer: "26"},
}

var hackerQs = []Question{
	{Kind: KindMultipleChoice, Prompt: "Which gate outputs 1 only when both inputs are 1?",
		Options: []string{"OR", "AND", "NOT"}, Answer: "AND", Hint: "Think multiplication", Difficulty: Easy},
	{Kind: KindFillIn, Prompt: "Short name of volatile memory?", Answer: "Ram", Difficulty: Medium},
	{Kind: KindTrueFalse, Prompt: "IPv4 addresses are 32 bits.", Answer: "true", Hint: "4 octets", Difficulty: Hard},
}

func startBinary(t *testing.T) Session {
	t.Helper()
	s, err := SelectDifficulty(New("b1", GameBinary), Easy, fixed(binaryQs...))
	require.NoError(t, err)
	return s
}

func startHacker(t *testing.T) Session {
	t.Helper()
	s, err := SelectDifficulty(New("h1", GameHacker), Hard, fixed(hackerQs...))
	require.NoError(t, err)
	return s
}

func submit(t *testing.T, s Session, raw string) (Session, Verdict) {
	t.Helper()
	next, v, err := Submit(s, raw)
	require.NoError(t, err)
	return next, v
}

func TestNewSession(t *testing.T) {
	s := New("id", GameBinary)
	assert.Equal(t, PhaseSelectingDifficulty, s.Phase)
	assert.Empty(t, s.Questions)
	assert.Empty(t, s.Cells)
	assert.Zero(t, s.Score)
}

func TestSelectDifficultyStartsSession(t *testing.T) {
	s := startBinary(t)
	assert.Equal(t, PhaseInProgress, s.Phase)
	assert.Equal(t, Easy, s.Difficulty)
	assert.Equal(t, 1, s.Round)
	assert.Equal(t, 0, s.Current)
	require.Len(t, s.Cells, 3)
	for _, c := range s.Cells {
		assert.Equal(t, CellHidden, c.State)
	}

	h := startHacker(t)
	// "AND" + "Ram" + "true"
	assert.Len(t, h.Cells, 10)
}

func TestSelectDifficultyRejections(t *testing.T) {
	s := New("id", GameBinary)

	_, err := SelectDifficulty(s, "impossible", fixed(binaryQs...))
	assert.ErrorIs(t, err, ErrUnknownDifficulty)

	got, err := SelectDifficulty(s, Easy, fixed())
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Equal(t, PhaseSelectingDifficulty, got.Phase)

	_, err = SelectDifficulty(s, Easy, nil)
	assert.ErrorIs(t, err, ErrConfiguration)

	boom := errors.New("boom")
	_, err = SelectDifficulty(s, Easy, func(Difficulty) ([]Question, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)

	started := startBinary(t)
	got, err = SelectDifficulty(started, Hard, fixed(binaryQs...))
	assert.ErrorIs(t, err, ErrIllegalTransition)
	assert.Equal(t, started, got)
}

func TestBinaryPlayThrough(t *testing.T) {
	s := startBinary(t)

	s, v := submit(t, s, "10")
	assert.True(t, v.Correct)
	assert.True(t, v.Recorded)
	assert.False(t, v.Last)

	s, v = submit(t, s, "11")
	assert.False(t, v.Correct)

	s, v = submit(t, s, " 26 ")
	assert.True(t, v.Correct)
	assert.True(t, v.Last)

	assert.Equal(t, 2, s.Score)
	assert.Equal(t, []Cell{{State: CellCorrect}, {State: CellWrong}, {State: CellCorrect}}, s.Cells)
	assert.Equal(t, PhaseInProgress, s.Phase)
	assert.True(t, s.SummaryPending)
	assert.Equal(t, len(s.Questions), s.Current)

	_, ok := s.Summary()
	assert.False(t, ok)

	s, err := RevealSummary(s, s.Round)
	require.NoError(t, err)
	sum, ok := s.Summary()
	require.True(t, ok)
	assert.Equal(t, Summary{AllCorrect: false, Score: 2, Total: 3}, sum)
}

func TestFreeTextIsTrimmedAndCaseInsensitive(t *testing.T) {
	s, err := SelectDifficulty(New("x", GameBinary), Easy,
		fixed(Question{Kind: KindDecToBin, Prompt: "26", Answer: "1a"}))
	require.NoError(t, err)
	_, v := submit(t, s, "  1A\t")
	assert.True(t, v.Correct)
}

func TestSubmitRejectionsLeaveSessionUnchanged(t *testing.T) {
	s := startBinary(t)

	got, _, err := Submit(s, "   ")
	assert.ErrorIs(t, err, ErrNoActiveQuestion)
	assert.Equal(t, s, got)

	_, _, err = Submit(New("x", GameBinary), "10")
	assert.ErrorIs(t, err, ErrNoActiveQuestion)

	h := startHacker(t)
	got, _, err = Submit(h, "XOR")
	assert.ErrorIs(t, err, ErrInvalidOption)
	assert.Equal(t, h, got)

	_, _, err = Submit(h, "")
	assert.ErrorIs(t, err, ErrNoActiveQuestion)
}

func TestWrongChoiceMarksItsCellsWrong(t *testing.T) {
	s, err := SelectDifficulty(New("h2", GameHacker), Easy, fixed(
		Question{Kind: KindFillIn, Prompt: "Volatile memory?", Answer: "RAM", Difficulty: Easy},
		Question{Kind: KindMultipleChoice, Prompt: "Which gate outputs 1 only when both inputs are 1?",
			Options: []string{"OR", "AND", "NOT", "XOR"}, Answer: "AND", Difficulty: Easy},
		Question{Kind: KindTrueFalse, Prompt: "IPv4 addresses are 32 bits.", Answer: "true", Difficulty: Easy},
	))
	require.NoError(t, err)
	s, _ = submit(t, s, "ram")
	require.Equal(t, 1, s.Score)

	s, err = SelectOption(s, "XOR")
	require.NoError(t, err)
	next, v := submit(t, s, "")

	assert.Equal(t, Verdict{Correct: false, Recorded: true}, v)
	assert.Equal(t, 1, next.Score)
	assert.Equal(t, 2, next.Current)
	for i := 0; i < 3; i++ {
		assert.Equal(t, Cell{State: CellCorrect, Char: string("RAM"[i])}, next.Cells[i])
	}
	for i := 3; i < 6; i++ {
		assert.Equal(t, Cell{State: CellWrong}, next.Cells[i], "cell %d", i)
	}
	for i := 6; i < len(next.Cells); i++ {
		assert.Equal(t, CellHidden, next.Cells[i].State, "cell %d", i)
	}
}

func TestSubmitAfterLastQuestionIsRejected(t *testing.T) {
	s := startBinary(t)
	for _, a := range []string{"10", "101101", "26"} {
		s, _ = submit(t, s, a)
	}
	_, _, err := Submit(s, "10")
	assert.ErrorIs(t, err, ErrNoActiveQuestion)
}

func TestChoiceSubmitFallsBackToSelection(t *testing.T) {
	s := startHacker(t)

	s, err := SelectOption(s, "and")
	require.NoError(t, err)
	assert.Equal(t, "AND", s.Selected)

	s, v := submit(t, s, "")
	assert.True(t, v.Correct)
	assert.Empty(t, s.Selected)

	_, err = SelectOption(s, "AND")
	assert.ErrorIs(t, err, ErrInvalidOption, "fill-in questions have no options")
}

func TestTrueFalseTokens(t *testing.T) {
	s := startHacker(t)
	s, _ = submit(t, s, "AND")
	s, _ = submit(t, s, "ram")

	_, _, err := Submit(s, "yes")
	assert.ErrorIs(t, err, ErrInvalidOption)

	s, v := submit(t, s, "TRUE")
	assert.True(t, v.Correct)
	assert.True(t, v.Last)
}

func TestHackerCellsRevealCharacters(t *testing.T) {
	s := startHacker(t)
	s, _ = submit(t, s, "AND")
	s, _ = submit(t, s, "rom")
	s, _ = submit(t, s, "True")

	want := []Cell{
		{CellCorrect, "A"}, {CellCorrect, "N"}, {CellCorrect, "D"},
		{State: CellWrong}, {State: CellWrong}, {State: CellWrong},
		{CellCorrect, "T"}, {CellCorrect, "R"}, {CellCorrect, "U"}, {CellCorrect, "E"},
	}
	assert.Equal(t, want, s.Cells)
	assert.Equal(t, "ANDTRUE", s.RevealedText())
	assert.False(t, s.AllCorrect())
	assert.Equal(t, 2, s.Score)
}

func TestSpacesCountAsCells(t *testing.T) {
	s, err := SelectDifficulty(New("x", GameHacker), Easy, fixed(Question{
		Kind: KindFillIn, Prompt: "CPU?", Answer: "Central Unit", Difficulty: Easy,
	}))
	require.NoError(t, err)
	require.Len(t, s.Cells, 12)

	s, _ = submit(t, s, "central unit")
	assert.Equal(t, Cell{State: CellCorrect, Char: " "}, s.Cells[7])
	assert.Equal(t, "CENTRAL UNIT", s.RevealedText())
	assert.True(t, s.AllCorrect())
}

func TestToggleHint(t *testing.T) {
	s := startHacker(t)

	s, err := ToggleHint(s)
	require.NoError(t, err)
	assert.True(t, s.HintVisible)
	assert.Equal(t, "Think multiplication", s.Snapshot().Question.Hint)

	s, _ = ToggleHint(s)
	assert.False(t, s.HintVisible)
	assert.Empty(t, s.Snapshot().Question.Hint)

	s, _ = ToggleHint(s)
	s, _ = submit(t, s, "AND")
	assert.False(t, s.HintVisible, "hint resets on a new question")

	// The fill-in question has no hint.
	s, err = ToggleHint(s)
	require.NoError(t, err)
	assert.False(t, s.HintVisible)

	_, err = ToggleHint(New("x", GameHacker))
	assert.ErrorIs(t, err, ErrNoActiveQuestion)
}

func TestGoBack(t *testing.T) {
	b := startBinary(t)
	b, _ = submit(t, b, "10")
	_, err := GoBack(b)
	assert.ErrorIs(t, err, ErrIllegalTransition)

	s := startHacker(t)
	_, err = GoBack(s)
	assert.ErrorIs(t, err, ErrIllegalTransition)

	s, _ = submit(t, s, "AND")
	s, err = GoBack(s)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Current)
	assert.Equal(t, 1, s.Score)

	// Revisited questions advance but never rewrite cells or score.
	cells := append([]Cell(nil), s.Cells...)
	s, v := submit(t, s, "OR")
	assert.False(t, v.Correct)
	assert.False(t, v.Recorded)
	assert.Equal(t, 1, s.Current)
	assert.Equal(t, 1, s.Score)
	assert.Equal(t, cells, s.Cells)
}

func TestGoBackWhileSummaryPending(t *testing.T) {
	s := startHacker(t)
	for _, a := range []string{"AND", "ram", "True"} {
		s, _ = submit(t, s, a)
	}
	require.True(t, s.SummaryPending)
	_, err := GoBack(s)
	assert.ErrorIs(t, err, ErrIllegalTransition)
	assert.False(t, s.Snapshot().CanGoBack)
}

func TestRevealSummaryRequiresMatchingRound(t *testing.T) {
	s := startBinary(t)
	_, err := RevealSummary(s, s.Round)
	assert.ErrorIs(t, err, ErrIllegalTransition, "nothing pending yet")

	for _, a := range []string{"10", "101101", "26"} {
		s, _ = submit(t, s, a)
	}
	round := s.Round
	s = Reset(s)
	_, err = RevealSummary(s, round)
	assert.ErrorIs(t, err, ErrIllegalTransition)
	assert.Equal(t, PhaseSelectingDifficulty, s.Phase)
}

func TestResetAndRetry(t *testing.T) {
	s := New("x", GameBinary)
	assert.Equal(t, s, Reset(s))

	s = startBinary(t)
	_, err := Retry(s, fixed(binaryQs...))
	assert.ErrorIs(t, err, ErrIllegalTransition)

	s, _ = submit(t, s, "10")
	r := Reset(s)
	assert.Equal(t, PhaseSelectingDifficulty, r.Phase)
	assert.Empty(t, r.Difficulty)
	assert.Zero(t, r.Score)
	assert.Empty(t, r.Cells)
	assert.Equal(t, s.Round+1, r.Round)

	for _, a := range []string{"101101", "26"} {
		s, _ = submit(t, s, a)
	}
	s, err = RevealSummary(s, s.Round)
	require.NoError(t, err)
	assert.True(t, s.AllCorrect())

	again, err := Retry(s, fixed(binaryQs...))
	require.NoError(t, err)
	assert.Equal(t, PhaseInProgress, again.Phase)
	assert.Equal(t, Easy, again.Difficulty)
	assert.Equal(t, s.Round+1, again.Round)
	assert.Zero(t, again.Score)
	assert.Zero(t, again.Current)
	for _, c := range again.Cells {
		assert.Equal(t, CellHidden, c.State)
	}
}

func TestScoreMonotonicAndBounded(t *testing.T) {
	s := startHacker(t)
	prev := 0
	for _, a := range []string{"OR", "ram", "False"} {
		var err error
		s, _, err = Submit(s, a)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, s.Score, prev)
		assert.LessOrEqual(t, s.Score, s.Current)
		prev = s.Score
		if s.Current > 0 && !s.SummaryPending {
			back, err := GoBack(s)
			require.NoError(t, err)
			back, _, err = Submit(back, back.Questions[back.Current].Answer)
			require.NoError(t, err)
			assert.Equal(t, s.Score, back.Score, "resubmission never scores")
		}
	}
	assert.Equal(t, 1, s.Score)
}

func TestApply(t *testing.T) {
	build := fixed(binaryQs...)
	s := New("x", GameBinary)

	s, _, err := Apply(s, Intent{Type: IntentSelectDifficulty, Difficulty: Medium}, build)
	require.NoError(t, err)
	assert.Equal(t, Medium, s.Difficulty)

	s, v, err := Apply(s, Intent{Type: IntentSubmit, Value: "10"}, build)
	require.NoError(t, err)
	assert.True(t, v.Correct)

	_, _, err = Apply(s, Intent{Type: "dance"}, build)
	assert.ErrorIs(t, err, ErrUnknownIntent)
	assert.True(t, IsRejected(err))

	s, _, err = Apply(s, Intent{Type: IntentReset}, build)
	require.NoError(t, err)
	assert.Equal(t, PhaseSelectingDifficulty, s.Phase)
}

func TestSnapshotNeverLeaksAnswers(t *testing.T) {
	s := startHacker(t)
	data, err := json.Marshal(s.Snapshot())
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"answer"`)

	snap := s.Snapshot()
	require.NotNil(t, snap.Question)
	assert.Equal(t, 1, snap.Question.Number)
	assert.Equal(t, []string{"OR", "AND", "NOT"}, snap.Question.Options)
	assert.True(t, snap.Question.HasHint)
	assert.Empty(t, snap.Question.Hint)
	assert.Nil(t, snap.Summary)

	for _, a := range []string{"AND", "ram"} {
		s, _ = submit(t, s, a)
	}
	assert.Equal(t, TrueFalseOptions, s.Snapshot().Question.Options)
}

func TestParseHelpers(t *testing.T) {
	for in, want := range map[string]Difficulty{"easy": Easy, " MEDIUM ": Medium, "3": Hard} {
		got, err := ParseDifficulty(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseDifficulty("4")
	assert.ErrorIs(t, err, ErrUnknownDifficulty)

	g, err := ParseGame("hacker")
	require.NoError(t, err)
	assert.Equal(t, GameHacker, g)
	_, err = ParseGame("chess")
	assert.ErrorIs(t, err, ErrUnknownGame)
}
