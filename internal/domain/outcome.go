package domain

import "fmt"

// RunState enumerates terminal pipeline outcomes.
type RunState string

const (
	StatePublished        RunState = "published"
	StateNothingToPublish RunState = "nothing_to_publish"
	StateFailed           RunState = "failed"
)

// Outcome is the result of one pipeline run. An empty day
// (NothingToPublish) is a normal result, not an error; Err is set
// only for StateFailed.
type Outcome struct {
	State   RunState
	Reason  string
	Product *Product
	Err     error
}

// Published builds a success outcome for the delivered product.
func Published(p Product) Outcome {
	return Outcome{State: StatePublished, Product: &p}
}

// NothingToPublish builds the normal empty-day outcome.
func NothingToPublish(reason string) Outcome {
	return Outcome{State: StateNothingToPublish, Reason: reason}
}

// Failed builds an error outcome for the named step.
func Failed(step string, err error) Outcome {
	return Outcome{
		State:  StateFailed,
		Reason: step,
		Err:    fmt.Errorf("%s: %w", step, err),
	}
}
