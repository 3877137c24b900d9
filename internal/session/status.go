package session

// Status is a research session's pipeline stage.
type Status string

const (
	StatusPending      Status = "pending"
	StatusResearching  Status = "researching"
	StatusProcessing   Status = "processing"
	StatusSynthesizing Status = "synthesizing"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
)

// statusRank orders the forward progression. failed is reachable from
// any non-terminal status and has no rank of its own.
var statusRank = map[Status]int{
	StatusPending:      0,
	StatusResearching:  1,
	StatusProcessing:   2,
	StatusSynthesizing: 3,
	StatusCompleted:    4,
}

// IsTerminal reports whether no further transitions are allowed.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	if s == StatusFailed {
		return true
	}
	_, ok := statusRank[s]
	return ok
}

// CanTransition reports whether moving from one status to the next is
// legal. Progress is monotonic: a session may advance one or two stages
// forward, or fail from any non-terminal stage. It never moves
// backwards and never leaves a terminal stage.
func CanTransition(from, to Status) bool {
	if from.IsTerminal() {
		return false
	}
	if to == StatusFailed {
		return true
	}
	fromRank, ok := statusRank[from]
	if !ok {
		return false
	}
	toRank, ok := statusRank[to]
	if !ok {
		return false
	}
	step := toRank - fromRank
	return step == 1 || step == 2
}
