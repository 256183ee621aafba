package core

import (
	"errors"
	"fmt"
)

// Contract violations of the mutation API.
var (
	// ErrOperatorChainExists is returned when attaching a second operator
	// continuation to a value or query.
	ErrOperatorChainExists = errors.New("operator chain already attached")
	// ErrNilValue is returned when a nil value is attached to a chain.
	ErrNilValue = errors.New("nil value")
	// ErrNilQuery is returned when a nil query is attached to a chain.
	ErrNilQuery = errors.New("nil query")
	// ErrParameterConflict matches every *ParameterConflictError.
	ErrParameterConflict = errors.New("parameter conflict")
	// ErrNoFromClause is returned by helpers that need a FROM clause.
	ErrNoFromClause = errors.New("query has no FROM clause")
)

// ParameterConflictError reports two bindings of one parameter name with
// unequal values.
type ParameterConflictError struct {
	Name     string
	Existing any
	Incoming any
}

func (e *ParameterConflictError) Error() string {
	return fmt.Sprintf("parameter %q bound to both %v and %v", e.Name, e.Existing, e.Incoming)
}

// Is makes errors.Is(err, ErrParameterConflict) succeed.
func (e *ParameterConflictError) Is(target error) bool {
	return target == ErrParameterConflict
}
