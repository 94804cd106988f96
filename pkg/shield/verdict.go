package shield

import "time"

// Outcome classifies a shield decision.
type Outcome int

const (
	// Allowed lets the request proceed.
	Allowed Outcome = iota
	// Blocked rejects the request; retry after the indicated delay.
	Blocked
	// Duplicate rejects a resubmission inside the dedup window.
	Duplicate
)

func (o Outcome) String() string {
	switch o {
	case Allowed:
		return "allowed"
	case Blocked:
		return "blocked"
	case Duplicate:
		return "duplicate"
	default:
		return "unknown"
	}
}

// Verdict is the result of one shield check.
type Verdict struct {
	Outcome    Outcome
	RetryAfter time.Duration
}

func allow() Verdict {
	return Verdict{Outcome: Allowed}
}

func block(retryAfter time.Duration) Verdict {
	if retryAfter < time.Second {
		retryAfter = time.Second
	}
	return Verdict{Outcome: Blocked, RetryAfter: retryAfter}
}

func duplicate() Verdict {
	return Verdict{Outcome: Duplicate}
}
