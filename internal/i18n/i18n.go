package i18n

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"

	"github.com/codemytelab/gamezone/internal/game"
)

//go:embed locales/*.json
var localeFS embed.FS

type ctxKey struct{}

var bundle *i18n.Bundle

// Init loads the translation bundle with lang as the default language.
func Init(lang string) error {
	tag, err := language.Parse(lang)
	if err != nil {
		return fmt.Errorf("parse language %q: %w", lang, err)
	}

	b := i18n.NewBundle(tag)
	b.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return fmt.Errorf("read locales dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := localeFS.ReadFile("locales/" + e.Name())
		if err != nil {
			return fmt.Errorf("read locale file %s: %w", e.Name(), err)
		}
		if _, err := b.ParseMessageFileBytes(data, e.Name()); err != nil {
			return fmt.Errorf("parse locale file %s: %w", e.Name(), err)
		}
		log.Debug().Str("file", e.Name()).Msg("loaded locale file")
	}
	bundle = b
	return nil
}

// NewLocalizer creates a localizer preferring the given languages.
func NewLocalizer(langs ...string) *i18n.Localizer {
	return i18n.NewLocalizer(bundle, langs...)
}

// WithLocalizer stores a localizer in the context.
func WithLocalizer(ctx context.Context, loc *i18n.Localizer) context.Context {
	return context.WithValue(ctx, ctxKey{}, loc)
}

func localizerFromCtx(ctx context.Context) *i18n.Localizer {
	if loc, ok := ctx.Value(ctxKey{}).(*i18n.Localizer); ok {
		return loc
	}
	return i18n.NewLocalizer(bundle, "en")
}

// T translates a message by ID, falling back to the ID itself.
func T(ctx context.Context, msgID string) string {
	return Td(ctx, msgID, nil)
}

// Td translates a message by ID with template data.
func Td(ctx context.Context, msgID string, data map[string]any) string {
	if bundle == nil {
		return msgID
	}
	s, err := localizerFromCtx(ctx).Localize(&i18n.LocalizeConfig{
		MessageID:    msgID,
		TemplateData: data,
	})
	if err != nil {
		log.Warn().Str("id", msgID).Err(err).Msg("missing translation")
		return msgID
	}
	return s
}

var instructionIDs = map[game.Kind]string{
	game.KindBinToDec:       "InstructionBinToDec",
	game.KindDecToBin:       "InstructionDecToBin",
	game.KindHexToDec:       "InstructionHexToDec",
	game.KindBinToOct:       "InstructionBinToOct",
	game.KindMultipleChoice: "InstructionMultipleChoice",
	game.KindFillIn:         "InstructionFillIn",
	game.KindTrueFalse:      "InstructionTrueFalse",
}

// Instruction is the line shown above a question prompt.
func Instruction(ctx context.Context, k game.Kind) string {
	id, ok := instructionIDs[k]
	if !ok {
		return ""
	}
	return T(ctx, id)
}

// Headline is the title of the game-over screen.
func Headline(ctx context.Context, g game.Game, allCorrect bool) string {
	switch {
	case g == game.GameHacker && allCorrect:
		return T(ctx, "HeadlineCracked")
	case g == game.GameHacker:
		return T(ctx, "HeadlineMissionFailed")
	case allCorrect:
		return T(ctx, "HeadlinePerfectScore")
	}
	return T(ctx, "HeadlineGameOver")
}
