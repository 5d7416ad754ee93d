package preprocessor

import (
	"fmt"

	"github.com/SamuelMarks/cdd-c-sub002/pkg/lexer"
)

// EmbedParams carries the #embed parameter clauses the scanner
// understands. Prefix, Suffix and IfEmpty hold the raw text between the
// parentheses reproduced verbatim; downstream consumers splice those
// bytes, so they are not tokenized here. Limit is only meaningful when
// HasLimit is set.
type EmbedParams struct {
	Limit    int64
	HasLimit bool
	Prefix   string
	Suffix   string
	IfEmpty  string
}

// parseEmbedParams reads parameter clauses until end of line; the cursor
// sits right after the header-name operand. Every key, known or not,
// must be followed immediately by a balanced parenthesis group.
// Vendor-scoped keys (vendor::key) and unknown keys are consumed for
// balance and discarded.
func (s *includeScanner) parseEmbedParams(line int) (*EmbedParams, error) {
	params := &EmbedParams{}
	for {
		s.cur.SkipBlanks()
		t := s.cur.Peek()
		if t.Type == lexer.TokenBackslash && s.cur.PeekAhead(1).Type == lexer.TokenNewline {
			s.cur.Advance()
			s.cur.Advance()
			continue
		}
		if t.Type == lexer.TokenNewline || t.Type == lexer.TokenEOF {
			return params, nil
		}
		if t.Type != lexer.TokenIdentifier && !t.IsKeyword() {
			return nil, fmt.Errorf("line %d: %w: unexpected %s in embed parameters", line, ErrInvalidArgument, t)
		}
		key := t.Value
		s.cur.Advance()

		scoped := false
		if s.cur.Check(lexer.TokenDoubleColon) {
			s.cur.Advance()
			suffix := s.cur.Peek()
			if suffix.Type != lexer.TokenIdentifier && !suffix.IsKeyword() {
				return nil, fmt.Errorf("line %d: %w: malformed scoped embed parameter", line, ErrInvalidArgument)
			}
			key = suffix.Value
			scoped = true
			s.cur.Advance()
		}

		if !s.cur.Check(lexer.TokenLeftParen) {
			return nil, fmt.Errorf("line %d: %w: embed parameter %q needs a parenthesized argument", line, ErrInvalidArgument, key)
		}
		open := s.cur.Advance()
		inner, closing, err := s.balancedGroup(line)
		if err != nil {
			return nil, err
		}
		if scoped {
			continue
		}

		switch key {
		case "limit":
			v, err := Evaluate(s.src, inner, s.cat, s.res)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			if v < 0 {
				return nil, fmt.Errorf("line %d: %w: negative embed limit %d", line, ErrInvalidArgument, v)
			}
			params.Limit = v
			params.HasLimit = true
		case "prefix":
			params.Prefix = s.rawBetween(open, closing)
		case "suffix":
			params.Suffix = s.rawBetween(open, closing)
		case "if_empty":
			params.IfEmpty = s.rawBetween(open, closing)
		default:
			// Unknown parameter, already consumed with balance.
		}
	}
}

// balancedGroup consumes tokens up to the parenthesis matching the one
// just consumed, honoring continuations. It returns the tokens strictly
// inside the group and the closing parenthesis token.
func (s *includeScanner) balancedGroup(line int) ([]lexer.Token, lexer.Token, error) {
	var inner []lexer.Token
	depth := 1
	for {
		t := s.cur.Peek()
		switch t.Type {
		case lexer.TokenEOF, lexer.TokenNewline:
			return nil, t, fmt.Errorf("line %d: %w: unterminated embed parameter", line, ErrInvalidArgument)
		case lexer.TokenBackslash:
			if s.cur.PeekAhead(1).Type == lexer.TokenNewline {
				s.cur.Advance()
				s.cur.Advance()
				continue
			}
			inner = append(inner, t)
			s.cur.Advance()
		case lexer.TokenLeftParen:
			depth++
			inner = append(inner, t)
			s.cur.Advance()
		case lexer.TokenRightParen:
			depth--
			if depth == 0 {
				s.cur.Advance()
				return inner, t, nil
			}
			inner = append(inner, t)
			s.cur.Advance()
		default:
			inner = append(inner, t)
			s.cur.Advance()
		}
	}
}

// rawBetween reproduces the source text strictly between two tokens
func (s *includeScanner) rawBetween(open, closing lexer.Token) string {
	start := open.Offset + len(open.Value)
	if start > closing.Offset || closing.Offset > len(s.src) {
		return ""
	}
	return s.src[start:closing.Offset]
}
