// Package matcher decides whether an incoming message satisfies a match
// template, treating synonym-context identifiers inside the template as
// "any phrase from that context" wildcards.
package matcher

const (
	maxTokens    = 64
	maxTokenRune = 63
)

// Tokenize splits text into runs of [A-Za-z0-9_], lowercased ASCII.
// Everything else is a separator. At most [maxTokens] tokens are returned,
// each truncated to at most [maxTokenRune] bytes.
func Tokenize(text string) []string {
	var toks []string
	var cur []byte
	flush := func() {
		if len(cur) == 0 {
			return
		}
		if len(toks) < maxTokens {
			toks = append(toks, string(cur))
		}
		cur = cur[:0]
	}
	for i := 0; i < len(text); i++ {
		c := text[i]
		if isWordByte(c) {
			if len(cur) < maxTokenRune {
				cur = append(cur, asciiLower(c))
			}
			continue
		}
		flush()
	}
	flush()
	return toks
}

func isWordByte(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_'
}

func asciiLower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}

// SynonymLookup resolves a template token that might name a synonym context
// (case-insensitive ASCII suffix match against "CONTEXT_" names) into the
// tokenized phrases of that context. The second return is false when the
// token does not name a known context.
type SynonymLookup func(token string) (phrases [][]string, ok bool)

// Matches reports whether template is satisfied by message under lookup.
// A template with zero tokens never matches; a message with zero tokens
// never matches.
func Matches(template, message string, lookup SynonymLookup) bool {
	tmplToks := Tokenize(template)
	msgToks := Tokenize(message)
	if len(tmplToks) == 0 || len(msgToks) == 0 {
		return false
	}

	i := 0
	for _, tt := range tmplToks {
		if phrases, ok := lookup(tt); ok {
			advanced, found := matchAnyPhrase(phrases, msgToks, i)
			if !found {
				return false
			}
			i = advanced
			continue
		}
		next, found := findToken(msgToks, i, tt)
		if !found {
			return false
		}
		i = next + 1
	}
	return true
}

// matchAnyPhrase tries every phrase in phrases (in order) against msgToks
// starting at position ≥ from; the first phrase whose token sequence
// occurs wins. Returns the cursor position just past the matched
// occurrence.
func matchAnyPhrase(phrases [][]string, msgToks []string, from int) (int, bool) {
	for _, phrase := range phrases {
		if len(phrase) == 0 {
			continue
		}
		if pos, ok := findSubsequence(msgToks, from, phrase); ok {
			return pos + len(phrase), true
		}
	}
	return from, false
}

// findToken scans msgToks from index from for a token equal to want,
// returning its index.
func findToken(msgToks []string, from int, want string) (int, bool) {
	for i := from; i < len(msgToks); i++ {
		if msgToks[i] == want {
			return i, true
		}
	}
	return 0, false
}

// findSubsequence finds the first occurrence of phrase as a contiguous run
// within msgToks starting at position ≥ from.
func findSubsequence(msgToks []string, from int, phrase []string) (int, bool) {
	if len(phrase) > len(msgToks) {
		return 0, false
	}
	for start := from; start+len(phrase) <= len(msgToks); start++ {
		match := true
		for j, want := range phrase {
			if msgToks[start+j] != want {
				match = false
				break
			}
		}
		if match {
			return start, true
		}
	}
	return 0, false
}
