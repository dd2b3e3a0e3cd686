package broadcast

import "github.com/oomaltseva/telegram-bot/internal/telegram"

// Outcome classifies one delivery attempt.
type Outcome int

const (
	OutcomeSent Outcome = iota
	// OutcomeBlocked means the recipient has blocked the bot. The user
	// row is kept; only the counter moves.
	OutcomeBlocked
	OutcomeRateLimited
	OutcomeUnknown
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSent:
		return "sent"
	case OutcomeBlocked:
		return "blocked"
	case OutcomeRateLimited:
		return "rate_limited"
	default:
		return "unknown"
	}
}

func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeSent
	case telegram.IsForbidden(err):
		return OutcomeBlocked
	case telegram.IsTooManyRequests(err):
		return OutcomeRateLimited
	default:
		return OutcomeUnknown
	}
}
