package query

import (
	"errors"
	"fmt"
)

// ErrSyntax is matched by every *SyntaxError via errors.Is.
var ErrSyntax = errors.New("query syntax error")

// SyntaxError reports a malformed query clause. Parsing is a pure function,
// so a SyntaxError is never worth retrying.
type SyntaxError struct {
	Clause string
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid query clause %q: %s", e.Clause, e.Reason)
}

// Is lets callers test for ErrSyntax without knowing the concrete type.
func (e *SyntaxError) Is(target error) bool {
	return target == ErrSyntax
}

func syntaxError(clause, format string, args ...interface{}) error {
	return &SyntaxError{Clause: clause, Reason: fmt.Sprintf(format, args...)}
}
