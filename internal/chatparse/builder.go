// Package chatparse implements the two-pass chat-script parser and the
// template-assembly rules that turn token sequences into canonical
// {IDENT}-placeholder strings.
package chatparse

import (
	"strings"

	"github.com/vexscript/botchat/internal/chatlex"
)

// maxTemplateLength is the hard cap on assembled template/response length.
// Longer strings never enter the tables (spec invariant: every stored
// template has len ≤ 255).
const maxTemplateLength = 255

// builder assembles a single template string from a token run, following
// the rules: String tokens append raw text plus a space; Name tokens append
// an uppercased {IDENT} plus a space; Number tokens append their source
// lexeme plus a space; a "," punctuation appends a space. Trailing spaces
// are trimmed on Finish.
type builder struct {
	sb strings.Builder
}

func (b *builder) appendString(s string) {
	b.sb.WriteString(s)
	b.sb.WriteByte(' ')
}

func (b *builder) appendName(name string) {
	b.sb.WriteByte('{')
	b.sb.WriteString(asciiUpperString(name))
	b.sb.WriteByte('}')
	b.sb.WriteByte(' ')
}

func (b *builder) appendNumber(lexeme string) {
	b.sb.WriteString(lexeme)
	b.sb.WriteByte(' ')
}

func (b *builder) appendComma() {
	b.sb.WriteByte(' ')
}

// feed applies the assembly rule for a single token. It returns false for
// tokens the grammar doesn't accept inside a template body (anything other
// than String, Name, Number, or a "," punctuation); callers treat that as
// "stop consuming lhs/reply tokens here".
func (b *builder) feed(tok chatlex.Token) bool {
	switch tok.Kind {
	case chatlex.KindString:
		b.appendString(tok.Text)
	case chatlex.KindName:
		b.appendName(tok.Text)
	case chatlex.KindNumber:
		b.appendNumber(tok.Text)
	case chatlex.KindPunctuation:
		if tok.Text != "," {
			return false
		}
		b.appendComma()
	}
	return true
}

// finish trims trailing whitespace and returns the assembled string plus
// whether it is non-empty (an empty buffer yields no table entry).
func (b *builder) finish() (string, bool) {
	s := strings.TrimRight(b.sb.String(), " ")
	return s, s != ""
}

func asciiUpperString(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}
