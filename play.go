package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codemytelab/gamezone/internal/game"
	"github.com/codemytelab/gamezone/internal/i18n"
	"github.com/codemytelab/gamezone/internal/session"
)

// Terminal commands accepted while a question is shown.
const (
	cmdHint = ":hint"
	cmdBack = ":back"
	cmdQuit = ":quit"
)

var errQuit = errors.New("quit")

func playCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a session in the terminal",
		RunE:  runPlay,
	}
	f := cmd.Flags()
	f.StringP("game", "g", string(game.GameBinary), "Game to play (binary, hacker-puzzle)")
	f.String("level", "", "Difficulty (easy, medium, hard); asked interactively when empty")
	f.Uint64("seed", 0, "Random seed (0 = random)")
	return cmd
}

func runPlay(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	f := cmd.Flags()
	name, _ := f.GetString("game")
	level, _ := f.GetString("level")
	seed, _ := f.GetUint64("seed")

	g, err := game.ParseGame(name)
	if err != nil {
		return err
	}
	var d game.Difficulty
	if level != "" {
		if d, err = game.ParseDifficulty(level); err != nil {
			return err
		}
	}
	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	ctx := i18n.WithLocalizer(cmd.Context(), i18n.NewLocalizer(cfg.Lang))
	p := &player{
		in:    bufio.NewScanner(cmd.InOrStdin()),
		out:   cmd.OutOrStdout(),
		build: session.Builders(cat, newRand(seed))[g],
	}
	_, err = p.play(ctx, g, d)
	if errors.Is(err, errQuit) {
		fmt.Fprintln(p.out, i18n.T(ctx, "Bye"))
		return nil
	}
	return err
}

// player drives one session through the reducer over a line-oriented terminal.
// The summary is revealed as soon as the last answer is in.
type player struct {
	in    *bufio.Scanner
	out   io.Writer
	build game.Builder
}

func (p *player) readLine() (string, error) {
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", errQuit
	}
	return strings.TrimSpace(p.in.Text()), nil
}

func (p *player) play(ctx context.Context, g game.Game, d game.Difficulty) (game.Session, error) {
	s := game.New("terminal", g)
	for s.Phase == game.PhaseSelectingDifficulty {
		if d == "" {
			fmt.Fprintf(p.out, "%s (easy, medium, hard): ", i18n.T(ctx, "ChooseDifficulty"))
			line, err := p.readLine()
			if err != nil {
				return s, err
			}
			if line == cmdQuit {
				return s, errQuit
			}
			if d, err = game.ParseDifficulty(line); err != nil {
				fmt.Fprintln(p.out, err)
				continue
			}
		}
		next, err := game.SelectDifficulty(s, d, p.build)
		if err != nil {
			return s, err
		}
		s = next
	}
	fmt.Fprintln(p.out, i18n.T(ctx, "PlayHelp"))

	for s.Phase == game.PhaseInProgress {
		if s.SummaryPending {
			s, _ = game.RevealSummary(s, s.Round)
			break
		}
		q, _ := s.CurrentQuestion()
		p.showQuestion(ctx, s, q)

		line, err := p.readLine()
		if err != nil {
			return s, err
		}
		switch line {
		case cmdQuit:
			return s, errQuit
		case cmdHint:
			s, _ = game.ToggleHint(s)
			continue
		case cmdBack:
			next, err := game.GoBack(s)
			if err != nil {
				fmt.Fprintln(p.out, err)
				continue
			}
			s = next
			continue
		}

		next, v, err := game.Submit(s, choiceToken(q, line))
		if err != nil {
			fmt.Fprintln(p.out, err)
			continue
		}
		s = next
		if v.Correct {
			fmt.Fprintln(p.out, i18n.T(ctx, "Correct"))
		} else {
			fmt.Fprintln(p.out, i18n.T(ctx, "Wrong"))
		}
	}

	p.showSummary(ctx, s)
	return s, nil
}

// choiceToken maps an option number to its text for choice questions.
func choiceToken(q game.Question, line string) string {
	opts := q.ValidOptions()
	if n, err := strconv.Atoi(line); err == nil && n >= 1 && n <= len(opts) {
		return opts[n-1]
	}
	return line
}

func (p *player) showQuestion(ctx context.Context, s game.Session, q game.Question) {
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, i18n.Td(ctx, "QuestionN", map[string]any{"Number": s.Current + 1, "Total": len(s.Questions)}))
	fmt.Fprintln(p.out, renderCells(s.Cells))
	fmt.Fprintln(p.out, i18n.Instruction(ctx, q.Kind))
	fmt.Fprintln(p.out, "  "+q.Prompt)
	for i, o := range q.ValidOptions() {
		fmt.Fprintf(p.out, "  %d) %s\n", i+1, o)
	}
	if s.HintVisible && q.Hint != "" {
		fmt.Fprintln(p.out, i18n.Td(ctx, "Hint", map[string]any{"Hint": q.Hint}))
	}
	fmt.Fprint(p.out, "> ")
}

func (p *player) showSummary(ctx context.Context, s game.Session) {
	sum, ok := s.Summary()
	if !ok {
		return
	}
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, i18n.Headline(ctx, s.Game, sum.AllCorrect))
	fmt.Fprintln(p.out, renderCells(s.Cells))
	fmt.Fprintln(p.out, i18n.Td(ctx, "ScoreLine", map[string]any{"Score": sum.Score, "Total": sum.Total}))
	if s.Game == game.GameHacker {
		fmt.Fprintln(p.out, i18n.Td(ctx, "FinalPassword", map[string]any{"Text": sum.RevealedText}))
	}
}

// renderCells draws the board. Correct cells show their character (or + when
// the cell stands for a whole question), wrong cells an x, hidden cells _.
func renderCells(cells []game.Cell) string {
	var b strings.Builder
	for _, c := range cells {
		switch c.State {
		case game.CellCorrect:
			switch c.Char {
			case "":
				b.WriteString("[+]")
			case " ":
				b.WriteString("[ ]")
			default:
				b.WriteString("[" + c.Char + "]")
			}
		case game.CellWrong:
			b.WriteString("[x]")
		default:
			b.WriteString("[_]")
		}
	}
	return b.String()
}
