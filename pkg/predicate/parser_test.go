package predicate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Term
	}{
		{
			name:  "single equality",
			input: "line_type = QA",
			want:  []Term{{Field: "line_type", Op: OpEq, Values: []string{"QA"}}},
		},
		{
			name:  "multi value equality",
			input: "line_type = QA,QB",
			want:  []Term{{Field: "line_type", Op: OpEq, Values: []string{"QA", "QB"}}},
		},
		{
			name:  "spaces around commas",
			input: "line_type = QA , QB ,QC",
			want:  []Term{{Field: "line_type", Op: OpEq, Values: []string{"QA", "QB", "QC"}}},
		},
		{
			name:  "conjunction",
			input: "line_type = QA,QB and askprice >= 3",
			want: []Term{
				{Field: "line_type", Op: OpEq, Values: []string{"QA", "QB"}},
				{Field: "askprice", Op: OpGte, Values: []string{"3"}},
			},
		},
		{
			name:  "keyword case insensitive",
			input: "a = 1 AND b = 2 aNd c = 3",
			want: []Term{
				{Field: "a", Op: OpEq, Values: []string{"1"}},
				{Field: "b", Op: OpEq, Values: []string{"2"}},
				{Field: "c", Op: OpEq, Values: []string{"3"}},
			},
		},
		{
			name:  "all operators",
			input: "a = 1 and b != 2 and c > 3 and d >= 4 and e < 5 and f <= 6",
			want: []Term{
				{Field: "a", Op: OpEq, Values: []string{"1"}},
				{Field: "b", Op: OpNeq, Values: []string{"2"}},
				{Field: "c", Op: OpGt, Values: []string{"3"}},
				{Field: "d", Op: OpGte, Values: []string{"4"}},
				{Field: "e", Op: OpLt, Values: []string{"5"}},
				{Field: "f", Op: OpLte, Values: []string{"6"}},
			},
		},
		{
			name:  "angle bracket not equal is canonicalized",
			input: "status <> closed",
			want:  []Term{{Field: "status", Op: OpNeq, Values: []string{"closed"}}},
		},
		{
			name:  "no whitespace around operator",
			input: "askprice>=3",
			want:  []Term{{Field: "askprice", Op: OpGte, Values: []string{"3"}}},
		},
		{
			name:  "numeric values",
			input: "bid > -1.25 and size <= 1e6",
			want: []Term{
				{Field: "bid", Op: OpGt, Values: []string{"-1.25"}},
				{Field: "size", Op: OpLte, Values: []string{"1e6"}},
			},
		},
		{
			name:  "bare values with punctuation",
			input: "ts >= 2021-03-01T09:30:00 and venue = NYSE:ARCA",
			want: []Term{
				{Field: "ts", Op: OpGte, Values: []string{"2021-03-01T09:30:00"}},
				{Field: "venue", Op: OpEq, Values: []string{"NYSE:ARCA"}},
			},
		},
		{
			name:  "dotted share class tickers",
			input: "ticker = BRK.B,AAPL",
			want:  []Term{{Field: "ticker", Op: OpEq, Values: []string{"BRK.B", "AAPL"}}},
		},
		{
			name:  "single quoted value keeps interior spaces",
			input: "desc = 'odd lot trade'",
			want:  []Term{{Field: "desc", Op: OpEq, Values: []string{"odd lot trade"}}},
		},
		{
			name:  "double quoted value keeps interior commas",
			input: `tag = "a,b"`,
			want:  []Term{{Field: "tag", Op: OpEq, Values: []string{"a,b"}}},
		},
		{
			name:  "quoted value surrounding whitespace trimmed",
			input: "desc = '  padded  '",
			want:  []Term{{Field: "desc", Op: OpEq, Values: []string{"padded"}}},
		},
		{
			name:  "mixed quoted and bare values",
			input: `line_type = QA,'Q B',QC`,
			want:  []Term{{Field: "line_type", Op: OpEq, Values: []string{"QA", "Q B", "QC"}}},
		},
		{
			name:  "quoted keyword as value",
			input: "op = 'and'",
			want:  []Term{{Field: "op", Op: OpEq, Values: []string{"and"}}},
		},
		{
			name:  "identifier containing and",
			input: "android = 1 and brand != sandisk",
			want: []Term{
				{Field: "android", Op: OpEq, Values: []string{"1"}},
				{Field: "brand", Op: OpNeq, Values: []string{"sandisk"}},
			},
		},
		{
			name:  "duplicate fields preserved in order",
			input: "a = 1 and a = 2",
			want: []Term{
				{Field: "a", Op: OpEq, Values: []string{"1"}},
				{Field: "a", Op: OpEq, Values: []string{"2"}},
			},
		},
		{
			name:  "surrounding whitespace ignored",
			input: "   a = 1\t and\n b = 2  ",
			want: []Term{
				{Field: "a", Op: OpEq, Values: []string{"1"}},
				{Field: "b", Op: OpEq, Values: []string{"2"}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, expr.Terms())
		})
	}
}

func TestParseSyntaxErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty input", ""},
		{"blank input", "   \t\n"},
		{"missing operator", "price 3"},
		{"missing value", "price ="},
		{"missing field", "= 3"},
		{"operator only", ">="},
		{"trailing comma", "a = 1,"},
		{"leading comma", "a = ,1"},
		{"double comma", "a = 1,,2"},
		{"trailing and", "a = 1 and"},
		{"leading and", "and a = 1"},
		{"double and", "a = 1 and and b = 2"},
		{"unterminated single quote", "a = 'QA"},
		{"unterminated double quote", `a = "QA`},
		{"empty quoted value", "a = ''"},
		{"blank quoted value", "a = '   '"},
		{"field starting with digit", "9field = 1"},
		{"two operators", "a = = 1"},
		{"bare or keyword unsupported", "a = 1 or b = 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			var serr *SyntaxError
			require.ErrorAs(t, err, &serr, "input %q", tt.input)
		})
	}
}

func TestParseUnsupportedOperators(t *testing.T) {
	tests := []struct {
		name  string
		input string
		token string
	}{
		{"double tilde", "name ~~ foo", "~~"},
		{"arrow", "a => 1", "=>"},
		{"reversed lte", "a =< 1", "=<"},
		{"triple equals", "a === 1", "==="},
		{"double equals", "a == 1", "=="},
		{"bang only", "a ! 1", "!"},
		{"spaceship", "a <=> 1", "<=>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			var uerr *UnsupportedOperatorError
			require.ErrorAs(t, err, &uerr, "input %q", tt.input)
			assert.Equal(t, tt.token, uerr.Token)
		})
	}
}

func TestParseErrorOffsets(t *testing.T) {
	_, err := Parse("a = 'unterminated")
	var serr *SyntaxError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, 4, serr.Offset)
	assert.Contains(t, serr.Error(), "offset 4")

	_, err = Parse("a = ''")
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, 4, serr.Offset)
}

func TestParseErrorsDoNotPartiallyApply(t *testing.T) {
	// A failure anywhere invalidates the whole expression, including terms
	// that parsed cleanly before the offending one.
	expr, err := Parse("a = 1 and b ~~ 2")
	require.Error(t, err)
	assert.Zero(t, expr.Len())
}

func TestMustParse(t *testing.T) {
	expr := MustParse("a = 1")
	assert.Equal(t, 1, expr.Len())

	assert.Panics(t, func() { MustParse("a ~~ 1") })
}

func TestParseOperator(t *testing.T) {
	for tok, want := range map[string]Operator{
		"=": OpEq, "!=": OpNeq, "<>": OpNeq,
		">=": OpGte, "<=": OpLte, ">": OpGt, "<": OpLt,
	} {
		got, err := ParseOperator(tok)
		require.NoError(t, err, "token %q", tok)
		assert.Equal(t, want, got, "token %q", tok)
	}

	_, err := ParseOperator("~~")
	var uerr *UnsupportedOperatorError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, "~~", uerr.Token)
}
