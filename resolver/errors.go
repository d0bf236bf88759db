package resolver

import (
	"errors"
	"fmt"
)

var (
	// ErrOracle matches every *OracleError.
	ErrOracle = errors.New("oracle query failed")

	// ErrInvalidTarget is wrapped by target parsing and validation errors.
	ErrInvalidTarget = errors.New("invalid target")
)

// OracleError reports a failed oracle query. The loop never retries it.
type OracleError struct {
	// Stage is "initial" or "replan".
	Stage string
	Err   error
}

func (e *OracleError) Error() string {
	return fmt.Sprintf("oracle query failed during %s: %v", e.Stage, e.Err)
}

func (e *OracleError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrOracle) hold for any OracleError.
func (e *OracleError) Is(target error) bool { return target == ErrOracle }

// ExhaustedError is returned when the attempt budget ran out with failures
// still outstanding.
type ExhaustedError struct {
	Target   Target
	Attempts int
	History  ErrorHistory
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("failed to install %s after %d attempts", e.Target.Describe(), e.Attempts)
}
