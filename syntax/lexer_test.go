package syntax

import "testing"

func lexAll(t *testing.T, src string) []Token {
	t.Helper()
	var errs ErrorList
	l := newLexer("test.cfdg", src, &errs)
	var toks []Token
	for {
		tok := l.next()
		if tok.Kind == EOF {
			break
		}
		toks = append(toks, tok)
	}
	if len(errs) > 0 {
		t.Fatalf("lex %q: %v", src, errs)
	}
	return toks
}

func TestLexerKinds(t *testing.T) {
	tests := []struct {
		src  string
		want []Kind
	}{
		{"startshape foo", []Kind{KwStartshape, IdentTok}},
		{"a <= b != c", []Kind{IdentTok, Le, IdentTok, Ne, IdentTok}},
		{"1..5", []Kind{Number, Range, Number}},
		{"x && y || z ^^ w", []Kind{IdentTok, AndAnd, IdentTok, OrOr, IdentTok, XorXor, IdentTok}},
		{"[[ r 10 ]]", []Kind{LBracket, LBracket, IdentTok, Number, RBracket, RBracket}},
		{"h 0.5|", []Kind{IdentTok, Number, Pipe}},
		{"rule 20% {}", []Kind{KwRule, Number, Percent, LBrace, RBrace}},
		{"import@lib \"lib.cfdg\"", []Kind{KwImport, At, IdentTok, String}},
		{"n_ 2", []Kind{IdentTok, Number}},
		{"a _ b", []Kind{IdentTok, Under, IdentTok}},
		{"∞", []Kind{Number}},
	}
	for _, tt := range tests {
		toks := lexAll(t, tt.src)
		if len(toks) != len(tt.want) {
			t.Errorf("lex(%q) = %d tokens, want %d", tt.src, len(toks), len(tt.want))
			continue
		}
		for i, tok := range toks {
			if tok.Kind != tt.want[i] {
				t.Errorf("lex(%q)[%d] = %v, want %v", tt.src, i, tok.Kind, tt.want[i])
			}
		}
	}
}

func TestLexerComments(t *testing.T) {
	src := "a # hash\nb // slash\n/* block\n */ c"
	toks := lexAll(t, src)
	if len(toks) != 3 {
		t.Fatalf("got %d tokens, want 3", len(toks))
	}
	if toks[2].Text != "c" || toks[2].Pos.Line != 4 {
		t.Errorf("third token = %q at line %d, want \"c\" at line 4", toks[2].Text, toks[2].Pos.Line)
	}
	if !toks[1].SpaceBefore {
		t.Error("SpaceBefore = false after comment")
	}
}

func TestLexerNamespaces(t *testing.T) {
	toks := lexAll(t, "CF::Background rand::normal a:b")
	want := []string{"CF::Background", "rand::normal", "a", ":", "b"}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(toks), len(want))
	}
	for i, tok := range toks {
		if tok.Text != want[i] && tok.Kind.String() != want[i] {
			t.Errorf("token %d = %q, want %q", i, tok.Text, want[i])
		}
	}
}

func TestLexerNumbers(t *testing.T) {
	tests := []struct{ src, want string }{
		{"1", "1"},
		{"1.5", "1.5"},
		{".25", ".25"},
		{"2e3", "2e3"},
		{"2e-3", "2e-3"},
		{"3e", "3"},
	}
	for _, tt := range tests {
		toks := lexAll(t, tt.src)
		if toks[0].Kind != Number || toks[0].Text != tt.want {
			t.Errorf("lex(%q) = %v %q, want number %q", tt.src, toks[0].Kind, toks[0].Text, tt.want)
		}
	}
}

func TestLexerNormalizesIdentifiers(t *testing.T) {
	// "é" precomposed and as e + combining acute.
	a := lexAll(t, "caf\u00e9")
	b := lexAll(t, "cafe\u0301")
	if a[0].Text != b[0].Text {
		t.Errorf("NFC mismatch: %q != %q", a[0].Text, b[0].Text)
	}
}

func TestLexerErrors(t *testing.T) {
	for _, src := range []string{"a $ b", "/* open", "\"open"} {
		var errs ErrorList
		l := newLexer("", src, &errs)
		for l.next().Kind != EOF {
		}
		if len(errs) == 0 {
			t.Errorf("lex(%q) reported no error", src)
		}
	}
}
