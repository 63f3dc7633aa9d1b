package textgrid

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// The long TextGrid format is a flat list of "key = value" lines plus a few
// header lines ("item [1]:", "intervals: size = 3", "tiers? <exists>").
// The grammar only recognises statements; nesting is rebuilt by the decoder.

type tgFile struct {
	Statements []*tgStatement `@@*`
}

type tgStatement struct {
	Pos lexer.Position

	Key   []string `@Ident+`
	Query bool     `@"?"?`
	Index *tgIndex `@@?`
	Colon bool     `@":"?`
	Value *tgValue `( "=" @@`
	Flag  *string  `| @Flag )?`
}

type tgIndex struct {
	Number *string `"[" @Number? "]"`
}

type tgValue struct {
	String *string `  @String`
	Number *string `| @Number`
	Flag   *string `| @Flag`
}

func (s *tgStatement) key() string { return strings.Join(s.Key, " ") }

var textgridLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `"(?:[^"]|"")*"`},
	{Name: "Flag", Pattern: `<[A-Za-z]+>`},
	{Name: "Number", Pattern: `[-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Punct", Pattern: `[\[\]:=?]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var textgridParser = participle.MustBuild[tgFile](
	participle.Lexer(textgridLexer),
	participle.Elide("Whitespace"),
)

// unquote strips the surrounding quotes of a Praat string literal and
// collapses doubled quotes.
func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	return strings.ReplaceAll(s, `""`, `"`)
}

// quote is the inverse of unquote.
func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
