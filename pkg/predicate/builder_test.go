package predicate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFieldBuilder(t *testing.T) {
	tests := []struct {
		name string
		term Term
		want Term
	}{
		{"eq", Field("a").Eq("1"), Term{Field: "a", Op: OpEq, Values: []string{"1"}}},
		{"eq multi", Field("a").Eq("1", "2"), Term{Field: "a", Op: OpEq, Values: []string{"1", "2"}}},
		{"neq", Field("a").Neq("1"), Term{Field: "a", Op: OpNeq, Values: []string{"1"}}},
		{"gt", Field("a").Gt("1"), Term{Field: "a", Op: OpGt, Values: []string{"1"}}},
		{"gte", Field("a").Gte("1"), Term{Field: "a", Op: OpGte, Values: []string{"1"}}},
		{"lt", Field("a").Lt("1"), Term{Field: "a", Op: OpLt, Values: []string{"1"}}},
		{"lte", Field("a").Lte("1"), Term{Field: "a", Op: OpLte, Values: []string{"1"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.term)
		})
	}
}

func TestFieldBuilderCopiesValues(t *testing.T) {
	values := []string{"1", "2"}
	term := Field("a").Eq(values...)
	values[0] = "mutated"
	assert.Equal(t, []string{"1", "2"}, term.Values)
}
