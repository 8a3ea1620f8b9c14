package chatparse

import (
	"fmt"
	"strings"

	"github.com/vexscript/botchat/internal/chatasset"
	"github.com/vexscript/botchat/internal/chatlex"
)

// ParseError reports a syntactic failure in the chat-script token stream.
// Any ParseError aborts the whole load; partially built tables are
// discarded by the caller.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("chatparse: line %d: %s", e.Line, e.Msg)
	}
	return "chatparse: " + e.Msg
}

func parseErr(line int, format string, args ...any) error {
	return &ParseError{Line: line, Msg: fmt.Sprintf(format, args...)}
}

// Parse runs the two-phase parse over src and returns the assembled
// [chatasset.Tables]. Pass one scans for CONTEXT_* synonym tables; pass two
// (after a reset) scans for MTCONTEXT_* match tables and `[...] = N { }`
// reply blocks. Either pass failing aborts the load and returns a non-nil
// error with no usable tables.
func Parse(src chatlex.Source) (*chatasset.Tables, error) {
	return ParseAdapter(chatlex.NewAdapter(src))
}

// ParseAdapter runs the same two-phase parse as [Parse] but over an
// already-constructed [chatlex.Adapter]. Callers that need to peek the
// underlying source before parsing (to distinguish an empty/missing asset
// from a syntax error) build their own Adapter, peek, Reset it, and hand it
// here instead of going through Parse.
func ParseAdapter(a *chatlex.Adapter) (*chatasset.Tables, error) {
	out := &chatasset.Tables{}

	if err := parseSynonymPass(a, out); err != nil {
		return nil, err
	}

	a.Reset()

	if err := parseMatchReplyPass(a, out); err != nil {
		return nil, err
	}

	return out, nil
}

// --- Pass 1: synonym contexts ---

func parseSynonymPass(a *chatlex.Adapter, out *chatasset.Tables) error {
	for {
		tok, ok := a.Next()
		if !ok {
			return nil
		}
		if tok.Kind != chatlex.KindName || !strings.HasPrefix(tok.Text, "CONTEXT_") {
			continue
		}
		ctx, err := parseSynonymContext(a, tok)
		if err != nil {
			return err
		}
		out.SynonymContexts = append(out.SynonymContexts, ctx)
	}
}

func parseSynonymContext(a *chatlex.Adapter, nameTok chatlex.Token) (chatasset.SynonymContext, error) {
	ctx := chatasset.SynonymContext{Name: nameTok.Text}
	if !a.ExpectString("{") {
		return ctx, parseErr(nameTok.Line, "%s: expected '{'", nameTok.Text)
	}
	for {
		if a.ExpectString("}") {
			return ctx, nil
		}
		if a.ExpectString("[") {
			group, err := parseSynonymGroup(a, nameTok.Line)
			if err != nil {
				return ctx, err
			}
			ctx.Groups = append(ctx.Groups, group)
			continue
		}
		return ctx, parseErr(nameTok.Line, "%s: expected '[' or '}'", nameTok.Text)
	}
}

func parseSynonymGroup(a *chatlex.Adapter, line int) (chatasset.SynonymGroup, error) {
	var group chatasset.SynonymGroup
	for {
		if !a.ExpectString("(") {
			return nil, parseErr(line, "synonym group: expected '('")
		}
		strTok, ok := a.ExpectType(chatlex.KindString)
		if !ok {
			return nil, parseErr(line, "synonym group: expected string phrase")
		}
		if !a.ExpectString(",") {
			return nil, parseErr(line, "synonym group: expected ',' after phrase text")
		}
		numTok, ok := a.ExpectType(chatlex.KindNumber)
		if !ok {
			return nil, parseErr(line, "synonym group: expected weight number")
		}
		if !a.ExpectString(")") {
			return nil, parseErr(line, "synonym group: expected ')'")
		}
		group = append(group, chatasset.Phrase{Text: strTok.Text, Weight: numTok.Number})

		if a.ExpectString(",") {
			continue
		}
		if a.ExpectString("]") {
			return group, nil
		}
		return nil, parseErr(line, "synonym group: expected ',' or ']'")
	}
}

// --- Pass 2: match templates and reply blocks ---

func parseMatchReplyPass(a *chatlex.Adapter, out *chatasset.Tables) error {
	for {
		tok, ok := a.Next()
		if !ok {
			return nil
		}
		switch {
		case tok.Kind == chatlex.KindName && strings.HasPrefix(tok.Text, "MTCONTEXT_"):
			if err := parseMatchBlock(a, tok, out); err != nil {
				return err
			}
		case tok.Kind == chatlex.KindName && strings.HasPrefix(tok.Text, "CONTEXT_"):
			// Synonym contexts were consumed by pass one; skip the whole
			// block so its group brackets are not taken for reply headers.
			if !skipBalancedBlock(a, "{", "}") {
				return parseErr(tok.Line, "%s: malformed block", tok.Text)
			}
		case tok.Kind == chatlex.KindPunctuation && tok.Text == "[":
			a.Unread(tok)
			if err := parseReplyBlock(a, out); err != nil {
				return err
			}
		}
	}
}

func parseMatchBlock(a *chatlex.Adapter, nameTok chatlex.Token, out *chatasset.Tables) error {
	if !a.ExpectString("{") {
		return parseErr(nameTok.Line, "%s: expected '{'", nameTok.Text)
	}
	for {
		if a.ExpectString("}") {
			return nil
		}
		if err := parseMatchTemplate(a, nameTok.Line, out); err != nil {
			return err
		}
	}
}

func parseMatchTemplate(a *chatlex.Adapter, line int, out *chatasset.Tables) error {
	b := &builder{}
	for {
		tok, ok := a.Next()
		if !ok {
			return parseErr(line, "match template: unexpected end of input before '='")
		}
		if tok.Kind == chatlex.KindPunctuation && tok.Text == "=" {
			break
		}
		if !b.feed(tok) {
			return parseErr(line, "match template: unexpected token %q in left-hand side", tok.Text)
		}
	}
	lhs, nonEmpty := b.finish()

	if !a.ExpectString("(") {
		return parseErr(line, "match template: expected '(' after '='")
	}
	identTok, ok := a.ExpectType(chatlex.KindName)
	if !ok {
		return parseErr(line, "match template: expected MSG_* identifier")
	}
	msgType := chatasset.MessageTypeFromIdentifier(identTok.Text)

	for {
		tok, ok := a.Next()
		if !ok {
			return parseErr(line, "match template: unexpected end of input before ';'")
		}
		if tok.Kind == chatlex.KindPunctuation && tok.Text == ";" {
			break
		}
	}

	// Empty LHS and unknown MSG_* both silently discard the template; they
	// are not parse errors.
	if !nonEmpty || msgType == 0 || len(lhs) > maxTemplateLength {
		return nil
	}
	addMatchTemplate(out, msgType, lhs)
	return nil
}

func addMatchTemplate(out *chatasset.Tables, msgType uint32, template string) {
	if mc, ok := out.FindMatchContext(msgType); ok {
		mc.Templates = append(mc.Templates, template)
		return
	}
	out.MatchContexts = append(out.MatchContexts, chatasset.MatchContext{
		MessageType: msgType,
		Templates:   []string{template},
	})
}

func parseReplyBlock(a *chatlex.Adapter, out *chatasset.Tables) error {
	if !skipBalancedBlock(a, "[", "]") {
		return parseErr(0, "reply block: malformed '[...]' header")
	}
	if !a.ExpectString("=") {
		return parseErr(0, "reply block: expected '=' after header")
	}
	numTok, ok := a.ExpectType(chatlex.KindNumber)
	if !ok {
		return parseErr(0, "reply block: expected numeric context")
	}
	ctx := uint32(numTok.Number)
	if !a.ExpectString("{") {
		return parseErr(numTok.Line, "reply block %d: expected '{'", ctx)
	}

	for {
		if a.ExpectString("}") {
			return nil
		}
		text, nonEmpty, err := parseReplyTemplate(a, numTok.Line)
		if err != nil {
			return err
		}
		if nonEmpty && len(text) <= maxTemplateLength {
			addReplyResponse(out, ctx, text)
		}
	}
}

func parseReplyTemplate(a *chatlex.Adapter, line int) (string, bool, error) {
	b := &builder{}
	for {
		tok, ok := a.Next()
		if !ok {
			return "", false, parseErr(line, "reply template: unexpected end of input before ';'")
		}
		if tok.Kind == chatlex.KindPunctuation && tok.Text == ";" {
			break
		}
		if !b.feed(tok) {
			return "", false, parseErr(line, "reply template: unexpected token %q", tok.Text)
		}
	}
	text, nonEmpty := b.finish()
	return text, nonEmpty, nil
}

func addReplyResponse(out *chatasset.Tables, ctx uint32, text string) {
	if rule, ok := out.FindReplyRule(ctx); ok {
		rule.Responses = append(rule.Responses, text)
		return
	}
	out.ReplyRules = append(out.ReplyRules, chatasset.ReplyRule{
		Context:   ctx,
		Responses: []string{text},
	})
}

// skipBalancedBlock consumes tokens starting with open, tracking nesting
// depth, through the matching close. Used for the reply block's `[...]`
// header, whose contents the grammar does not otherwise care about.
func skipBalancedBlock(a *chatlex.Adapter, open, close string) bool {
	if !a.ExpectString(open) {
		return false
	}
	depth := 1
	for depth > 0 {
		tok, ok := a.Next()
		if !ok {
			return false
		}
		if tok.Kind != chatlex.KindPunctuation {
			continue
		}
		switch tok.Text {
		case open:
			depth++
		case close:
			depth--
		}
	}
	return true
}
