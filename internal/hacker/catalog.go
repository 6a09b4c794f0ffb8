// internal/hacker/catalog.go
//
// Static question catalog for the hacker puzzle game.
//
// Responsibilities:
//   - Load the catalog from a JSON file, or fall back to the embedded default.
//   - Validate every entry (struct rules plus answer/option consistency).
//   - Expose read-only per-tier views; the catalog is never mutated after loading.
//
// The catalog file comes from --catalog (or CATALOG / HACKER_CATALOG_FILE);
// without one, assets/hacker_questions.json is used.
package hacker

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/codemytelab/gamezone/assets"
	"github.com/codemytelab/gamezone/internal/game"
)

// ErrInvalidCatalog wraps every catalog validation failure.
var ErrInvalidCatalog = errors.New("invalid catalog")

// Entry is the JSON shape of one catalog question.
type Entry struct {
	Kind       game.Kind       `json:"kind" validate:"required,oneof=multiple_choice fill_in true_false"`
	Prompt     string          `json:"prompt" validate:"required"`
	Options    []string        `json:"options,omitempty" validate:"required_if=Kind multiple_choice,omitempty,min=2,dive,required"`
	Answer     string          `json:"answer" validate:"required"`
	Hint       string          `json:"hint,omitempty"`
	Difficulty game.Difficulty `json:"difficulty" validate:"required,oneof=easy medium hard"`
}

// Catalog is an immutable set of puzzle questions.
type Catalog struct {
	questions []game.Question
}

var validate = validator.New()

// New validates entries and returns a catalog holding them in order.
func New(entries []Entry) (*Catalog, error) {
	qs := make([]game.Question, 0, len(entries))
	for i, e := range entries {
		e = e.trimmed()
		if err := checkEntry(e); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrInvalidCatalog, i, err)
		}
		qs = append(qs, game.Question{
			Kind:       e.Kind,
			Prompt:     e.Prompt,
			Options:    e.Options,
			Answer:     e.Answer,
			Hint:       e.Hint,
			Difficulty: e.Difficulty,
		})
	}
	if len(qs) == 0 {
		return nil, fmt.Errorf("%w: no questions", ErrInvalidCatalog)
	}
	return &Catalog{questions: qs}, nil
}

// trimmed returns a copy with surrounding whitespace removed, so blank
// values fail the required rules.
func (e Entry) trimmed() Entry {
	e.Prompt = strings.TrimSpace(e.Prompt)
	e.Answer = strings.TrimSpace(e.Answer)
	e.Hint = strings.TrimSpace(e.Hint)
	if e.Options != nil {
		opts := make([]string, len(e.Options))
		for i, o := range e.Options {
			opts[i] = strings.TrimSpace(o)
		}
		e.Options = opts
	}
	return e
}

func checkEntry(e Entry) error {
	if err := validate.Struct(e); err != nil {
		return err
	}
	switch e.Kind {
	case game.KindMultipleChoice:
		for _, o := range e.Options {
			if strings.EqualFold(o, e.Answer) {
				return nil
			}
		}
		return fmt.Errorf("answer %q is not one of the options", e.Answer)
	case game.KindTrueFalse:
		if len(e.Options) > 0 {
			return errors.New("true/false questions take no options")
		}
		switch strings.ToLower(e.Answer) {
		case "true", "false":
			return nil
		}
		return fmt.Errorf("true/false answer must be true or false, got %q", e.Answer)
	case game.KindFillIn:
		if len(e.Options) > 0 {
			return errors.New("fill-in questions take no options")
		}
	}
	return nil
}

// Parse decodes and validates a JSON catalog.
func Parse(data []byte) (*Catalog, error) {
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	return New(entries)
}

// Load reads a catalog from path, or the embedded catalog when path is empty.
func Load(path string) (*Catalog, error) {
	var (
		data []byte
		err  error
	)
	if path == "" {
		data, err = assets.HackerQuestions()
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Len is the number of questions in the catalog.
func (c *Catalog) Len() int { return len(c.questions) }

// Tier returns a copy of the questions of one difficulty, in catalog order.
func (c *Catalog) Tier(d game.Difficulty) []game.Question {
	var out []game.Question
	for _, q := range c.questions {
		if q.Difficulty == d {
			out = append(out, q)
		}
	}
	return out
}

// Stats counts questions per difficulty.
func (c *Catalog) Stats() map[game.Difficulty]int {
	out := make(map[game.Difficulty]int, len(game.Difficulties))
	for _, q := range c.questions {
		out[q.Difficulty]++
	}
	return out
}
