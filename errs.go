package reconstruct

import "errors"

// ErrInvalidInput is the single error kind Process may return to a caller
//: no valid samples after parsing, or no laps found. Wrap it with
// fmt.Errorf("%w: ...", ErrInvalidInput, reason) for context.
var ErrInvalidInput = errors.New("reconstruct: invalid input")

// errEmptyLap signals internally that a lap produced zero samples after
// filtering. The orchestrator catches it and skips the lap silently; it
// never crosses the Process boundary.
var errEmptyLap = errors.New("reconstruct: empty lap")
