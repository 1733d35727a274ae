package predicate

// Field starts a fluent Term builder:
//
//	predicate.Field("askprice").Gte("3")
//	predicate.Field("line_type").Eq("QA", "QB")
//
// Builders produce plain Terms; validation happens when the terms are
// assembled with New or passed to a query as a Terms source.
func Field(name string) FieldExpr {
	return FieldExpr{name: name}
}

// FieldExpr is a named field awaiting an operator.
type FieldExpr struct {
	name string
}

// Eq builds an equality term. Multiple values are OR-ed by the service.
func (f FieldExpr) Eq(values ...string) Term { return f.term(OpEq, values) }

// Neq builds a not-equal term.
func (f FieldExpr) Neq(values ...string) Term { return f.term(OpNeq, values) }

// Gt builds a greater-than term.
func (f FieldExpr) Gt(values ...string) Term { return f.term(OpGt, values) }

// Gte builds a greater-or-equal term.
func (f FieldExpr) Gte(values ...string) Term { return f.term(OpGte, values) }

// Lt builds a less-than term.
func (f FieldExpr) Lt(values ...string) Term { return f.term(OpLt, values) }

// Lte builds a less-or-equal term.
func (f FieldExpr) Lte(values ...string) Term { return f.term(OpLte, values) }

func (f FieldExpr) term(op Operator, values []string) Term {
	return Term{Field: f.name, Op: op, Values: append([]string(nil), values...)}
}
