package chain

import "fmt"

// SubmitState is one state of the submission lifecycle:
//
//	Submitted -> InBlock -> Finalized
//	          \-> Dropped | FinalityTimeout | Invalid | Usurped
//
// Dropped, FinalityTimeout, Invalid and Usurped are terminal failures.
// InBlock and Finalized still carry a sub-outcome (the extrinsic either
// succeeded or failed in the block).
type SubmitState int

const (
	StateSubmitted SubmitState = iota
	StateInBlock
	StateFinalized
	StateDropped
	StateFinalityTimeout
	StateInvalid
	StateUsurped
)

func (s SubmitState) String() string {
	switch s {
	case StateSubmitted:
		return "Submitted"
	case StateInBlock:
		return "InBlock"
	case StateFinalized:
		return "Finalized"
	case StateDropped:
		return "Dropped"
	case StateFinalityTimeout:
		return "FinalityTimeout"
	case StateInvalid:
		return "Invalid"
	case StateUsurped:
		return "Usurped"
	default:
		return fmt.Sprintf("SubmitState(%d)", int(s))
	}
}

// Failed reports whether the state is a terminal consensus-layer failure.
func (s SubmitState) Failed() bool {
	switch s {
	case StateDropped, StateFinalityTimeout, StateInvalid, StateUsurped:
		return true
	}
	return false
}

// Included reports whether the transaction made it into a block.
func (s SubmitState) Included() bool {
	return s == StateInBlock || s == StateFinalized
}

// StatusTracker validates submission state transitions so a subscription
// delivering statuses out of order is caught instead of silently accepted.
type StatusTracker struct {
	state SubmitState
}

func NewStatusTracker() *StatusTracker {
	return &StatusTracker{state: StateSubmitted}
}

func (t *StatusTracker) State() SubmitState {
	return t.state
}

// Advance moves the tracker to next, rejecting illegal transitions.
func (t *StatusTracker) Advance(next SubmitState) error {
	if !t.legal(next) {
		return fmt.Errorf("illegal submission transition %s -> %s", t.state, next)
	}
	t.state = next
	return nil
}

func (t *StatusTracker) legal(next SubmitState) bool {
	switch t.state {
	case StateSubmitted:
		return next == StateInBlock || next.Failed()
	case StateInBlock:
		return next == StateFinalized || next.Failed()
	default:
		// terminal
		return false
	}
}
