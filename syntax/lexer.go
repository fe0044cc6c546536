package syntax

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// lexer splits CFDG source into tokens.
type lexer struct {
	src   string
	file  string
	off   int // byte offset of ch
	line  int
	col   int
	ch    rune // current character, -1 at end
	width int  // byte width of ch

	errs *ErrorList
}

func newLexer(file, src string, errs *ErrorList) *lexer {
	l := &lexer{src: src, file: file, line: 1, col: 0, errs: errs}
	l.read()
	if l.ch == 0xFEFF {
		// Skip UTF-8 BOM if present.
		l.read()
	}
	return l
}

// read advances to the next character.
func (l *lexer) read() {
	if l.ch == '\n' {
		l.line++
		l.col = 0
	}
	l.off += l.width
	if l.off >= len(l.src) {
		l.ch, l.width = -1, 0
		l.col++
		return
	}
	r, w := utf8.DecodeRuneInString(l.src[l.off:])
	l.ch, l.width = r, w
	l.col++
}

func (l *lexer) peek() rune {
	next := l.off + l.width
	if next >= len(l.src) {
		return -1
	}
	r, _ := utf8.DecodeRuneInString(l.src[next:])
	return r
}

func (l *lexer) pos() Pos {
	return Pos{Offset: l.off, Line: l.line, Col: l.col}
}

// skipSpace skips whitespace and comments, reporting whether any were seen.
func (l *lexer) skipSpace() bool {
	skipped := false
	for {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || l.ch == '\n':
			l.read()
		case l.ch == '#':
			l.skipLine()
		case l.ch == '/' && l.peek() == '/':
			l.skipLine()
		case l.ch == '/' && l.peek() == '*':
			start := l.pos()
			l.read()
			l.read()
			for l.ch != -1 && !(l.ch == '*' && l.peek() == '/') {
				l.read()
			}
			if l.ch == -1 {
				l.errs.add(l.span(start, l.off), "unterminated comment")
				return true
			}
			l.read()
			l.read()
		default:
			return skipped
		}
		skipped = true
	}
}

func (l *lexer) skipLine() {
	for l.ch != -1 && l.ch != '\n' {
		l.read()
	}
}

func (l *lexer) span(start Pos, end int) Span {
	return Span{File: l.file, Offset: start.Offset, Line: start.Line, Col: start.Col, Len: end - start.Offset}
}

// next returns the next token.
func (l *lexer) next() Token {
	space := l.skipSpace()
	start := l.pos()
	tok := Token{Pos: start, SpaceBefore: space}

	switch ch := l.ch; {
	case ch == -1:
		tok.Kind = EOF
		return tok
	case isIdentStart(ch) || (ch == '_' && isIdentPart(l.peek())):
		tok.Text = l.ident()
		if k, ok := keywords[tok.Text]; ok {
			tok.Kind = k
		} else {
			tok.Kind = IdentTok
		}
		return tok
	case isDigit(ch) || (ch == '.' && isDigit(l.peek())):
		tok.Kind = Number
		tok.Text = l.number()
		return tok
	case ch == '"':
		tok.Kind = String
		tok.Text = l.str(start)
		return tok
	}

	ch := l.ch
	l.read()
	two := func(next rune, k2, k1 Kind) Kind {
		if l.ch == next {
			l.read()
			return k2
		}
		return k1
	}
	switch ch {
	case '(':
		tok.Kind = LParen
	case ')':
		tok.Kind = RParen
	case '[':
		tok.Kind = LBracket
	case ']':
		tok.Kind = RBracket
	case '{':
		tok.Kind = LBrace
	case '}':
		tok.Kind = RBrace
	case ',':
		tok.Kind = Comma
	case ';':
		tok.Kind = Semicolon
	case ':':
		tok.Kind = Colon
	case '@':
		tok.Kind = At
	case '+':
		tok.Kind = Plus
	case '-':
		tok.Kind = Minus
	case '*':
		tok.Kind = Star
	case '/':
		tok.Kind = Slash
	case '%':
		tok.Kind = Percent
	case '_':
		tok.Kind = Under
	case '.':
		if l.ch == '.' {
			l.read()
			tok.Kind = Range
		} else {
			tok.Kind = Illegal
		}
	case '^':
		tok.Kind = two('^', XorXor, Caret)
	case '=':
		tok.Kind = two('=', Eq, Assign)
	case '!':
		tok.Kind = two('=', Ne, Not)
	case '<':
		tok.Kind = two('=', Le, Lt)
	case '>':
		tok.Kind = two('=', Ge, Gt)
	case '&':
		tok.Kind = two('&', AndAnd, Illegal)
	case '|':
		tok.Kind = two('|', OrOr, Pipe)
	case '∞':
		tok.Kind = Number
		tok.Text = "∞"
		return tok
	case '…':
		tok.Kind = Range
	default:
		tok.Kind = Illegal
	}
	tok.Text = l.src[start.Offset:l.off]
	if tok.Kind == Illegal {
		l.errs.add(l.span(start, l.off), "illegal character "+strconvQuote(tok.Text))
	}
	return tok
}

func strconvQuote(s string) string {
	return "'" + s + "'"
}

// ident scans an identifier, including "::" namespace separators. The
// result is NFC-normalized so visually identical names compare equal.
func (l *lexer) ident() string {
	start := l.off
	if l.ch == '_' {
		l.read()
	}
	for {
		for isIdentPart(l.ch) {
			l.read()
		}
		if l.ch == ':' && l.peek() == ':' {
			save := *l
			l.read()
			l.read()
			if isIdentStart(l.ch) {
				continue
			}
			*l = save
		}
		break
	}
	s := l.src[start:l.off]
	if !isASCII(s) {
		s = norm.NFC.String(s)
	}
	return s
}

// number scans a decimal literal. A '.' followed by another '.' is left for
// the range operator.
func (l *lexer) number() string {
	start := l.off
	for isDigit(l.ch) {
		l.read()
	}
	if l.ch == '.' && l.peek() != '.' {
		l.read()
		for isDigit(l.ch) {
			l.read()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		save := *l
		l.read()
		if l.ch == '+' || l.ch == '-' {
			l.read()
		}
		if isDigit(l.ch) {
			for isDigit(l.ch) {
				l.read()
			}
		} else {
			*l = save
		}
	}
	return l.src[start:l.off]
}

func (l *lexer) str(start Pos) string {
	l.read()
	var b strings.Builder
	for l.ch != '"' {
		if l.ch == -1 || l.ch == '\n' {
			l.errs.add(l.span(start, l.off), "unterminated string")
			return b.String()
		}
		if l.ch == '\\' {
			l.read()
		}
		b.WriteRune(l.ch)
		l.read()
	}
	l.read()
	return b.String()
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

func isIdentStart(ch rune) bool {
	return unicode.IsLetter(ch)
}

func isIdentPart(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch) || unicode.IsDigit(ch) || unicode.Is(unicode.Mn, ch)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
