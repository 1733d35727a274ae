package predicate

import "fmt"

// SyntaxError reports predicate text that does not match the grammar. Offset
// is the byte offset of the first offending token in the input.
type SyntaxError struct {
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("predicate: syntax error at offset %d: %s", e.Offset, e.Msg)
}

// UnsupportedOperatorError reports an operator-shaped token outside the
// supported set, such as "~~" or "=>".
type UnsupportedOperatorError struct {
	Token string
}

func (e *UnsupportedOperatorError) Error() string {
	return fmt.Sprintf("predicate: unsupported operator %q", e.Token)
}

// InvalidTermError reports a structurally invalid Term supplied to New or
// Terms: a missing or malformed field, or a missing or empty value. Index is
// the position of the offending term.
type InvalidTermError struct {
	Index  int
	Reason string
}

func (e *InvalidTermError) Error() string {
	return fmt.Sprintf("predicate: invalid term %d: %s", e.Index, e.Reason)
}
