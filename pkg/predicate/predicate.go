// Package predicate implements the filter expression language accepted by
// TickVault query endpoints and its translation to query parameters.
//
// A predicate expression is an ordered list of conditions joined by the
// keyword "and". Each condition names a field, a comparison operator and one
// or more comma-separated values:
//
//	line_type = QA,QB and askprice >= 3
//
// Multi-value conditions are OR-ed by the service under the same field.
// Values containing commas or spaces must be quoted with single or double
// quotes. There is no OR between distinct conditions and no grouping; the
// surface language is deliberately small because the wire protocol only
// carries flat field/value pairs.
package predicate

import (
	"fmt"
	"strings"
	"unicode"
)

// Operator is a comparison operator of the predicate language.
type Operator string

const (
	OpEq  Operator = "="
	OpNeq Operator = "!="
	OpGte Operator = ">="
	OpLte Operator = "<="
	OpGt  Operator = ">"
	OpLt  Operator = "<"
)

// operators maps every accepted surface spelling to its canonical Operator.
// "<>" is an alternate spelling of "!=".
var operators = map[string]Operator{
	"=":  OpEq,
	"!=": OpNeq,
	"<>": OpNeq,
	">=": OpGte,
	"<=": OpLte,
	">":  OpGt,
	"<":  OpLt,
}

// ParseOperator validates an operator token and returns its canonical form.
// Tokens outside the closed set yield an *UnsupportedOperatorError.
func ParseOperator(tok string) (Operator, error) {
	if op, ok := operators[tok]; ok {
		return op, nil
	}
	return "", &UnsupportedOperatorError{Token: tok}
}

// Term is one atomic filter condition: field, operator and a non-empty
// ordered list of values. Terms are plain values; validation happens when
// they are assembled into an Expression via New or From.
type Term struct {
	Field  string
	Op     Operator
	Values []string
}

// Pair returns the query parameter tuple for the term. The key is the field
// name exactly as written and the value is the comma-join of the term's
// values in original order. The operator is not part of the tuple: the wire
// protocol models filters as bare field/value pairs, so non-equality terms
// serialize in the same shape as equality ones.
func (t Term) Pair() (key, value string) {
	return t.Field, strings.Join(t.Values, ",")
}

// String renders the term in predicate language syntax. Values that would
// not survive re-tokenization (commas, whitespace, quotes) are quoted.
func (t Term) String() string {
	quoted := make([]string, len(t.Values))
	for i, v := range t.Values {
		quoted[i] = quoteValue(v)
	}
	return fmt.Sprintf("%s %s %s", t.Field, t.Op, strings.Join(quoted, ","))
}

func quoteValue(v string) string {
	if !needsQuoting(v) {
		return v
	}
	if !strings.Contains(v, "'") {
		return "'" + v + "'"
	}
	return `"` + v + `"`
}

// needsQuoting reports whether a bare rendering of v would not re-tokenize
// as a single value: the "and" keyword in any case, anything containing a
// delimiter or operator character, and anything containing whitespace. A
// value that merely starts with "and" is only a problem when the next
// character ends the word, as in "and:x"; "android" stays bare.
func needsQuoting(v string) bool {
	if strings.EqualFold(v, "and") {
		return true
	}
	if len(v) > 3 && strings.EqualFold(v[:3], "and") && !isWordByte(v[3]) {
		return true
	}
	if strings.ContainsAny(v, `,'"=!<>~`) {
		return true
	}
	return strings.IndexFunc(v, unicode.IsSpace) >= 0
}

func isWordByte(b byte) bool {
	return b == '_' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

// validate checks the Term invariants and returns a normalized copy:
// canonical operator spelling and trimmed values.
func (t Term) validate(index int) (Term, error) {
	if strings.TrimSpace(t.Field) == "" {
		return Term{}, &InvalidTermError{Index: index, Reason: "missing field"}
	}
	if !isIdentifier(t.Field) {
		return Term{}, &InvalidTermError{Index: index, Reason: fmt.Sprintf("field %q is not a valid identifier", t.Field)}
	}
	if strings.EqualFold(t.Field, "and") {
		return Term{}, &InvalidTermError{Index: index, Reason: fmt.Sprintf("field %q is a reserved word", t.Field)}
	}
	op, err := ParseOperator(string(t.Op))
	if err != nil {
		return Term{}, err
	}
	if len(t.Values) == 0 {
		return Term{}, &InvalidTermError{Index: index, Reason: "no values"}
	}
	values := make([]string, len(t.Values))
	for i, v := range t.Values {
		v = strings.TrimSpace(v)
		if v == "" {
			return Term{}, &InvalidTermError{Index: index, Reason: fmt.Sprintf("value %d is empty", i)}
		}
		// The language has no quote escapes, so a value holding both quote
		// characters cannot be rendered back to source text.
		if strings.Contains(v, "'") && strings.Contains(v, `"`) {
			return Term{}, &InvalidTermError{Index: index, Reason: fmt.Sprintf("value %d mixes single and double quotes", i)}
		}
		values[i] = v
	}
	return Term{Field: t.Field, Op: op, Values: values}, nil
}

// isIdentifier reports whether s is a legal field name: letters, digits and
// underscores, not starting with a digit.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_':
		case c >= '0' && c <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
