package game

import "fmt"

// IntentType names an inbound request from the presentation layer.
type IntentType string

const (
	IntentSelectDifficulty IntentType = "select_difficulty"
	IntentSelectOption     IntentType = "select_option"
	IntentSubmit           IntentType = "submit"
	IntentToggleHint       IntentType = "toggle_hint"
	IntentGoBack           IntentType = "go_back"
	IntentReset            IntentType = "reset"
	IntentRetry            IntentType = "retry"
	// IntentRevealSummary is dispatched by the summary timer, not by players.
	IntentRevealSummary IntentType = "reveal_summary"
)

// Intent is one serialized player action.
type Intent struct {
	Type       IntentType `json:"type"`
	Difficulty Difficulty `json:"level,omitempty"`
	Value      string     `json:"value,omitempty"`
	Round      int        `json:"round,omitempty"`
}

// Apply routes an intent to its transition. It is the reducer
// (session, intent) -> session used by every front end.
func Apply(s Session, in Intent, build Builder) (Session, Verdict, error) {
	var (
		next Session
		err  error
	)
	switch in.Type {
	case IntentSelectDifficulty:
		next, err = SelectDifficulty(s, in.Difficulty, build)
	case IntentSelectOption:
		next, err = SelectOption(s, in.Value)
	case IntentSubmit:
		return Submit(s, in.Value)
	case IntentToggleHint:
		next, err = ToggleHint(s)
	case IntentGoBack:
		next, err = GoBack(s)
	case IntentReset:
		next = Reset(s)
	case IntentRetry:
		next, err = Retry(s, build)
	case IntentRevealSummary:
		next, err = RevealSummary(s, in.Round)
	default:
		return s, Verdict{}, fmt.Errorf("%w: %q", ErrUnknownIntent, in.Type)
	}
	return next, Verdict{}, err
}
