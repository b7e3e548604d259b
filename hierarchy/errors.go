package hierarchy

import "fmt"

// Error is a configuration/domain error raised while validating
// hyperparameters, grounded on the std::invalid_argument throws scattered
// through nnw_hierarchy.cc's set_prior (e.g. "Variance-scaling parameter
// must be > 0", "Degrees of freedom parameter is not valid").
type Error struct {
	Op     string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("hierarchy: %s: %s", e.Op, e.Reason)
}

func errorf(op, format string, args ...any) *Error {
	return &Error{Op: op, Reason: fmt.Sprintf(format, args...)}
}
