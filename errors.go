package sst

import "github.com/pkg/errors"

// PlannerError wraps a fatal condition raised by the engine. These are
// never recovered internally; the caller decides whether to abort the run
// or surface the failure.
type PlannerError struct {
	Kind string
	err  error
}

func (e *PlannerError) Error() string {
	return e.err.Error()
}

func (e *PlannerError) Unwrap() error {
	return e.err
}

func newPlannerError(kind, msg string, args ...interface{}) *PlannerError {
	return &PlannerError{Kind: kind, err: errors.Errorf(msg, args...)}
}

func wrapPlannerError(kind string, err error, msg string) *PlannerError {
	return &PlannerError{Kind: kind, err: errors.Wrap(err, msg)}
}

const (
	// KindInvariantViolation marks a broken tree/witness invariant: a
	// missing parent edge, a freelist slot still observed by an index, a
	// witness with two representatives. Always a bug in the engine or in
	// a Capabilities implementation, never a user-recoverable condition.
	KindInvariantViolation = "invariant_violation"

	// KindNNUnderPopulated marks an NN index returning nothing for
	// NearestK(q, 1) on a non-empty index, which should never happen.
	KindNNUnderPopulated = "nn_under_populated"

	// KindDegenerateInput marks a construction-time or call-site input
	// that can never make progress: sampling from an empty mixture,
	// sim_delta <= 0, prop_l > prop_h.
	KindDegenerateInput = "degenerate_input"

	// KindObstacleOracle marks a failure querying the obstacle oracle
	// (Oracle.Query or the caller's narrow-phase callback). Propagated
	// straight to the caller of Iterate; the engine does not retry a
	// failed query mid-plan.
	KindObstacleOracle = "obstacle_oracle"
)

// ErrInvariantViolation builds a fatal invariant-violation error.
func ErrInvariantViolation(msg string, args ...interface{}) *PlannerError {
	return newPlannerError(KindInvariantViolation, msg, args...)
}

// ErrNNUnderPopulated builds a fatal NN-index error.
func ErrNNUnderPopulated(msg string, args ...interface{}) *PlannerError {
	return newPlannerError(KindNNUnderPopulated, msg, args...)
}

// ErrDegenerateInput builds a fatal degenerate-input error.
func ErrDegenerateInput(msg string, args ...interface{}) *PlannerError {
	return newPlannerError(KindDegenerateInput, msg, args...)
}

// ErrObstacleOracle wraps an obstacle oracle query failure.
func ErrObstacleOracle(err error) *PlannerError {
	return wrapPlannerError(KindObstacleOracle, err, "obstacle oracle query failed")
}
