package syntax

import "fmt"

// Kind is the type of a lexical token.
type Kind int

const (
	EOF Kind = iota
	Illegal
	IdentTok
	Number
	String

	LParen    // (
	RParen    // )
	LBracket  // [
	RBracket  // ]
	LBrace    // {
	RBrace    // }
	Comma     // ,
	Semicolon // ;
	Colon     // :
	Assign    // =
	Pipe      // |
	At        // @
	Range     // ..
	Plus      // +
	Minus     // -
	Star      // *
	Slash     // /
	Caret     // ^
	Under     // _ (proper subtraction)
	Percent   // %
	Not       // !
	Lt        // <
	Gt        // >
	Le        // <=
	Ge        // >=
	Eq        // ==
	Ne        // !=
	AndAnd    // &&
	OrOr      // ||
	XorXor    // ^^

	keywordStart
	KwStartshape
	KwImport
	KwShape
	KwRule
	KwPath
	KwLoop
	KwFinally
	KwIf
	KwElse
	KwSwitch
	KwCase
	KwTransform
	KwClone
	KwLet
	keywordEnd
)

var kindNames = [...]string{
	EOF:       "end of file",
	Illegal:   "illegal character",
	IdentTok:  "identifier",
	Number:    "number",
	String:    "string",
	LParen:    "(",
	RParen:    ")",
	LBracket:  "[",
	RBracket:  "]",
	LBrace:    "{",
	RBrace:    "}",
	Comma:     ",",
	Semicolon: ";",
	Colon:     ":",
	Assign:    "=",
	Pipe:      "|",
	At:        "@",
	Range:     "..",
	Plus:      "+",
	Minus:     "-",
	Star:      "*",
	Slash:     "/",
	Caret:     "^",
	Under:     "_",
	Percent:   "%",
	Not:       "!",
	Lt:        "<",
	Gt:        ">",
	Le:        "<=",
	Ge:        ">=",
	Eq:        "==",
	Ne:        "!=",
	AndAnd:    "&&",
	OrOr:      "||",
	XorXor:    "^^",

	KwStartshape: "startshape",
	KwImport:     "import",
	KwShape:      "shape",
	KwRule:       "rule",
	KwPath:       "path",
	KwLoop:       "loop",
	KwFinally:    "finally",
	KwIf:         "if",
	KwElse:       "else",
	KwSwitch:     "switch",
	KwCase:       "case",
	KwTransform:  "transform",
	KwClone:      "clone",
	KwLet:        "let",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("token(%d)", int(k))
}

var keywords map[string]Kind

func init() {
	keywords = make(map[string]Kind, keywordEnd-keywordStart)
	for k := keywordStart + 1; k < keywordEnd; k++ {
		keywords[kindNames[k]] = k
	}
}

// Token is a lexical token with its source position.
type Token struct {
	Kind Kind
	Text string
	Pos  Pos
	// SpaceBefore reports whitespace (or a comment) between this token and
	// the previous one; adjustments use it to split "x 1 -2" into two
	// arguments.
	SpaceBefore bool
}

// Pos is a position in a source file. Line and Col are 1-based; Offset is a
// byte offset.
type Pos struct {
	Offset int
	Line   int
	Col    int
}

// Span is a source range used by diagnostics.
type Span struct {
	File   string
	Offset int
	Line   int
	Col    int
	Len    int
}

func (s Span) String() string {
	if s.File == "" {
		return fmt.Sprintf("%d:%d", s.Line, s.Col)
	}
	return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Col)
}

// To returns a span from s through the end of e.
func (s Span) To(e Span) Span {
	if e.Offset+e.Len > s.Offset {
		s.Len = e.Offset + e.Len - s.Offset
	}
	return s
}
