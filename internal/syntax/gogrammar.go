package syntax

import "regexp"

// NewGoGrammar returns a PatternGrammar covering enough of Go's lexical
// surface (keywords, strings, comments, numbers) to exercise the engine and
// presentation layer against real source files. It is not a full Go lexer:
// nested block comments, raw string edge cases, and rune literals are not
// distinguished from their nearest approximation.
func NewGoGrammar() *PatternGrammar {
	g := NewPatternGrammar("Go", "source.go")

	g.AddMultiline("comment.block.go",
		regexp.MustCompile(`/\*`),
		regexp.MustCompile(`\*/`),
	)
	g.AddRule("comment.line.go", regexp.MustCompile(`//.*`))
	g.AddRule("string.quoted.double.go", regexp.MustCompile(`"(\\.|[^"\\])*"`))
	g.AddRule("string.quoted.raw.go", regexp.MustCompile("`[^`]*`"))
	g.AddRule("constant.numeric.go", regexp.MustCompile(`\b0[xX][0-9a-fA-F]+\b|\b\d+(\.\d+)?\b`))
	g.AddRule("keyword.control.go", regexp.MustCompile(
		`\b(if|else|for|range|switch|case|default|break|continue|goto|return|select|defer|go|fallthrough)\b`))
	g.AddRule("keyword.declaration.go", regexp.MustCompile(
		`\b(func|package|import|var|const|type|struct|interface|map|chan)\b`))
	g.AddRule("storage.modifier.go", regexp.MustCompile(`\b(go|chan)\b`))
	g.AddRule("constant.language.go", regexp.MustCompile(`\b(true|false|nil|iota)\b`))
	g.AddRule("storage.type.go", regexp.MustCompile(
		`\b(string|bool|byte|rune|error|int|int8|int16|int32|int64|uint|uint8|uint16|uint32|uint64|uintptr|float32|float64|complex64|complex128)\b`))

	g.SetCommentPredicate(func(scopes ScopeDescriptor) bool {
		for _, s := range scopes {
			if len(s) >= len("comment.") && s[:len("comment.")] == "comment." {
				return true
			}
		}
		return false
	})

	return g
}
