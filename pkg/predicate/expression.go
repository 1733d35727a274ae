package predicate

import "strings"

// Expression is a validated, immutable conjunction of terms. The zero value
// is the empty expression, which filters nothing.
type Expression struct {
	terms []Term
}

// New assembles an Expression from terms, validating each one. Operator
// spellings are canonicalized and values trimmed; the input slice is not
// retained.
func New(terms ...Term) (Expression, error) {
	out := make([]Term, len(terms))
	for i, t := range terms {
		v, err := t.validate(i)
		if err != nil {
			return Expression{}, err
		}
		out[i] = v
	}
	return Expression{terms: out}, nil
}

// Len returns the number of terms.
func (e Expression) Len() int { return len(e.terms) }

// Terms returns a copy of the expression's terms in order.
func (e Expression) Terms() []Term {
	out := make([]Term, len(e.terms))
	copy(out, e.terms)
	return out
}

// String renders the expression in predicate language syntax. Parsing the
// result yields an equivalent expression.
func (e Expression) String() string {
	parts := make([]string, len(e.terms))
	for i, t := range e.terms {
		parts[i] = t.String()
	}
	return strings.Join(parts, " and ")
}

// Params merges the expression into a set of query parameters. The result is
// a new map holding every entry of existing plus one entry per term, keyed
// by field name with the comma-joined values. Terms are applied in order and
// overwrite existing entries under the same key, so predicates win over
// fixed parameters and the last term wins among duplicated fields. Neither
// input is mutated.
func (e Expression) Params(existing map[string]string) map[string]string {
	out := make(map[string]string, len(existing)+len(e.terms))
	for k, v := range existing {
		out[k] = v
	}
	for _, t := range e.terms {
		k, v := t.Pair()
		out[k] = v
	}
	return out
}

// Source is anything that can produce a predicate Expression. It is the
// argument type for query filters: a Raw string parsed on use, a Terms list
// validated on use, or an Expression passed through unchanged.
type Source interface {
	expression() (Expression, error)
}

// Raw is predicate language text compiled when the query runs.
type Raw string

func (r Raw) expression() (Expression, error) { return Parse(string(r)) }

// Terms is a programmatic term list validated when the query runs.
type Terms []Term

func (ts Terms) expression() (Expression, error) { return New(ts...) }

func (e Expression) expression() (Expression, error) { return e, nil }

// From resolves a Source into an Expression. A nil Source resolves to the
// empty expression.
func From(src Source) (Expression, error) {
	if src == nil {
		return Expression{}, nil
	}
	return src.expression()
}
