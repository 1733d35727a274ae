package predicate

import (
	"errors"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Lexical rules for predicate text. Rules are tried in order: the "and"
// keyword before identifiers, quoted strings before bare values. The
// Operator rule over-matches on purpose, accepting any run of operator
// characters so that near-miss spellings like "~~" or "=>" tokenize as one
// operator and can be rejected as unsupported rather than as noise.
var predicateLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "And", Pattern: `(?i)\band\b`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "String", Pattern: `'[^']*'|"[^"]*"`},
	{Name: "Operator", Pattern: `[=!<>~]+`},
	{Name: "Comma", Pattern: `,`},
	{Name: "Bare", Pattern: `[^\s,'"=!<>~]+`},
	{Name: "whitespace", Pattern: `\s+`},
})

var predicateParser = participle.MustBuild[expressionNode](
	participle.Lexer(predicateLexer),
	participle.CaseInsensitive("And"),
)

type expressionNode struct {
	Terms []*termNode `parser:"@@ ( ('and' | 'AND') @@ )*"`
}

type termNode struct {
	Pos    lexer.Position
	Field  string       `parser:"@Ident"`
	Op     string       `parser:"@Operator"`
	Values []*valueNode `parser:"@@ ( ',' @@ )*"`
}

// An unquoted value can lex as several tokens: "BRK.B" is an identifier
// then a bare ".B". The node collects the run and compile joins parts that
// touch in the source.
type valueNode struct {
	Parts []valuePart `parser:"@@+"`
}

type valuePart struct {
	Pos    lexer.Position
	Quoted *string `parser:"  @String"`
	Ident  *string `parser:"| @Ident"`
	Bare   *string `parser:"| @Bare"`
}

// Parse compiles predicate text into an Expression. Errors are *SyntaxError
// for text that does not match the grammar, including empty input, and
// *UnsupportedOperatorError for operator tokens outside the supported set.
func Parse(input string) (Expression, error) {
	if strings.TrimSpace(input) == "" {
		return Expression{}, &SyntaxError{Offset: 0, Msg: "empty predicate"}
	}
	node, err := predicateParser.ParseString("", input)
	if err != nil {
		return Expression{}, classifyParseError(input, err)
	}
	return node.compile()
}

// MustParse is Parse for trusted, typically constant, predicate text. It
// panics on error.
func MustParse(input string) Expression {
	expr, err := Parse(input)
	if err != nil {
		panic(err)
	}
	return expr
}

func (n *expressionNode) compile() (Expression, error) {
	terms := make([]Term, len(n.Terms))
	for i, tn := range n.Terms {
		t, err := tn.compile()
		if err != nil {
			return Expression{}, err
		}
		terms[i] = t
	}
	return Expression{terms: terms}, nil
}

func (n *termNode) compile() (Term, error) {
	op, err := ParseOperator(n.Op)
	if err != nil {
		return Term{}, err
	}
	values := make([]string, len(n.Values))
	for i, vn := range n.Values {
		v, err := vn.compile()
		if err != nil {
			return Term{}, err
		}
		values[i] = v
	}
	return Term{Field: n.Field, Op: op, Values: values}, nil
}

func (n *valueNode) compile() (string, error) {
	if len(n.Parts) == 1 {
		return n.Parts[0].compile()
	}
	var sb strings.Builder
	end := 0
	for i, p := range n.Parts {
		if p.Quoted != nil {
			return "", &SyntaxError{Offset: p.Pos.Offset, Msg: "quoted value must stand alone"}
		}
		if i > 0 && p.Pos.Offset != end {
			return "", &SyntaxError{Offset: p.Pos.Offset, Msg: "expected ',' or 'and' between values"}
		}
		text := p.text()
		sb.WriteString(text)
		end = p.Pos.Offset + len(text)
	}
	return sb.String(), nil
}

func (p valuePart) compile() (string, error) {
	if p.Quoted != nil {
		// The String token includes its delimiters and contains no escapes,
		// so unquoting is a byte slice. Interior commas and spaces survive;
		// surrounding whitespace does not.
		s := *p.Quoted
		v := strings.TrimSpace(s[1 : len(s)-1])
		if v == "" {
			return "", &SyntaxError{Offset: p.Pos.Offset, Msg: "empty quoted value"}
		}
		return v, nil
	}
	return p.text(), nil
}

func (p valuePart) text() string {
	switch {
	case p.Quoted != nil:
		return *p.Quoted
	case p.Ident != nil:
		return *p.Ident
	default:
		return *p.Bare
	}
}

// classifyParseError rewraps participle errors in the package error types,
// keeping the offending byte offset.
func classifyParseError(input string, err error) error {
	var perr participle.Error
	if errors.As(err, &perr) {
		off := perr.Position().Offset
		if off >= 0 && off < len(input) && (input[off] == '\'' || input[off] == '"') {
			return &SyntaxError{Offset: off, Msg: "unterminated quoted value"}
		}
		return &SyntaxError{Offset: off, Msg: perr.Message()}
	}
	return &SyntaxError{Msg: err.Error()}
}
