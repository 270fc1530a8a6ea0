package service

// Outcome tells a caller what a mutation actually did
type Outcome int

const (
	// OutcomeApplied means the write happened
	OutcomeApplied Outcome = iota
	// OutcomeUnchanged means the request was already satisfied
	OutcomeUnchanged
	// OutcomeNotFound means the room or player did not exist; nothing was written
	OutcomeNotFound
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}
