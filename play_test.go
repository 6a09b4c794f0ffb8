package main

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codemytelab/gamezone/internal/game"
	"github.com/codemytelab/gamezone/internal/i18n"
)

var puzzle = []game.Question{
	{Kind: game.KindMultipleChoice, Prompt: "Which protocol sends mail?", Options: []string{"HTTP", "SMTP", "FTP"},
		Answer: "SMTP", Hint: "Simple Mail...", Difficulty: game.Easy},
	{Kind: game.KindFillIn, Prompt: "Name service protocol?", Answer: "DNS", Difficulty: game.Easy},
	{Kind: game.KindTrueFalse, Prompt: "RAM is non-volatile.", Answer: "false", Difficulty: game.Easy},
}

func newPlayer(t *testing.T, input string) (*player, *bytes.Buffer, context.Context) {
	t.Helper()
	require.NoError(t, i18n.Init("en"))
	var out bytes.Buffer
	p := &player{
		in:  bufio.NewScanner(strings.NewReader(input)),
		out: &out,
		build: func(game.Difficulty) ([]game.Question, error) {
			return append([]game.Question(nil), puzzle...), nil
		},
	}
	return p, &out, i18n.WithLocalizer(context.Background(), i18n.NewLocalizer("en"))
}

func TestPlayHackerSession(t *testing.T) {
	input := strings.Join([]string{
		"legendary", // rejected, asked again
		"easy",
		":hint",
		"2",     // SMTP by number
		":back", // back to question 1
		"HTTP",  // resubmission does not change the score
		"dns",
		"false",
	}, "\n") + "\n"
	p, out, ctx := newPlayer(t, input)

	s, err := p.play(ctx, game.GameHacker, "")
	require.NoError(t, err)
	assert.Equal(t, game.PhaseSummary, s.Phase)
	assert.Equal(t, 3, s.Score)
	assert.True(t, s.AllCorrect())

	text := out.String()
	assert.Contains(t, text, "unknown difficulty")
	assert.Contains(t, text, "Hint: Simple Mail...")
	assert.Contains(t, text, "2) SMTP")
	assert.Contains(t, text, "You Cracked the Code!")
	assert.Contains(t, text, "Final password: SMTPDNSFALSE")
	assert.Contains(t, text, "Your score: 3 / 3")
}

func TestPlayQuitAndEOF(t *testing.T) {
	p, _, ctx := newPlayer(t, ":quit\n")
	_, err := p.play(ctx, game.GameBinary, game.Easy)
	assert.ErrorIs(t, err, errQuit)

	p, _, ctx = newPlayer(t, "")
	s, err := p.play(ctx, game.GameBinary, game.Easy)
	assert.ErrorIs(t, err, errQuit)
	assert.Equal(t, game.PhaseInProgress, s.Phase)
}

func TestPlayReportsRejections(t *testing.T) {
	p, out, ctx := newPlayer(t, "7\nXML\n:back\n")
	_, err := p.play(ctx, game.GameBinary, game.Hard)
	assert.ErrorIs(t, err, errQuit)
	assert.Contains(t, out.String(), "invalid option")
	assert.Contains(t, out.String(), "illegal transition")
}

func TestRenderCells(t *testing.T) {
	got := renderCells([]game.Cell{
		{State: game.CellCorrect},
		{State: game.CellCorrect, Char: "A"},
		{State: game.CellCorrect, Char: " "},
		{State: game.CellWrong},
		{State: game.CellHidden},
	})
	assert.Equal(t, "[+][A][ ][x][_]", got)
}

func TestChoiceToken(t *testing.T) {
	q := puzzle[0]
	assert.Equal(t, "HTTP", choiceToken(q, "1"))
	assert.Equal(t, "9", choiceToken(q, "9"))
	assert.Equal(t, "smtp", choiceToken(q, "smtp"))
	assert.Equal(t, "1", choiceToken(puzzle[1], "1"))
}
