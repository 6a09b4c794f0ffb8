package game

import "errors"

// Rejected transitions leave the session unchanged; every error here is recoverable.
var (
	// ErrConfiguration reports an invalid or empty session composition.
	ErrConfiguration = errors.New("configuration error")
	// ErrInsufficientQuestions reports a bank tier smaller than its required count.
	ErrInsufficientQuestions = errors.New("insufficient questions")
	// ErrNoActiveQuestion reports a submission with no pending question or an empty answer.
	ErrNoActiveQuestion = errors.New("no active question")
	// ErrInvalidOption reports a choice answer outside the question's option set.
	ErrInvalidOption = errors.New("invalid option")
	// ErrIllegalTransition reports an intent that the current phase does not accept.
	ErrIllegalTransition = errors.New("illegal transition")

	ErrUnknownGame       = errors.New("unknown game")
	ErrUnknownDifficulty = errors.New("unknown difficulty")
	ErrUnknownIntent     = errors.New("unknown intent")
)

// IsRejected reports whether err is a rejected transition the player can recover from.
func IsRejected(err error) bool {
	return errors.Is(err, ErrNoActiveQuestion) ||
		errors.Is(err, ErrInvalidOption) ||
		errors.Is(err, ErrUnknownDifficulty) ||
		errors.Is(err, ErrUnknownIntent)
}
