package preprocessor

import (
	"fmt"
	"math"
	"strings"

	"github.com/SamuelMarks/cdd-c-sub002/pkg/lexer"
)

// Evaluate computes a preprocessor constant expression over the given
// tokens. src is the text the tokens came from; raw operand text (angle
// include paths) is reconstructed from it. The catalog answers defined
// and macro-value queries, the resolver backs __has_include and
// __has_embed.
//
// Unrecognized constructs read as zero so that scanning stays resilient;
// structurally broken input (unbalanced parentheses, missing operands)
// returns ErrInvalidArgument.
func Evaluate(src string, tokens []lexer.Token, cat *Catalog, res Resolver) (int64, error) {
	sig := make([]lexer.Token, 0, len(tokens))
	for _, t := range tokens {
		switch t.Type {
		case lexer.TokenWhitespace, lexer.TokenNewline, lexer.TokenLineComment,
			lexer.TokenBlockComment, lexer.TokenBackslash, lexer.TokenEOF:
			continue
		}
		sig = append(sig, t)
	}

	e := &exprEval{
		cur: lexer.NewCursor(sig),
		src: src,
		cat: cat,
		res: res,
	}
	v := e.orExpr(true)
	if e.failed {
		return 0, fmt.Errorf("%w: %s", ErrInvalidArgument, e.reason)
	}
	return v, nil
}

// exprEval is the evaluator state: a cursor over the significant tokens
// plus a sticky failure flag. The eval argument threaded through the
// layers goes false on short-circuited subtrees, which are still parsed
// for cursor progress but never touch the resolver.
type exprEval struct {
	cur    *lexer.Cursor
	src    string
	cat    *Catalog
	res    Resolver
	failed bool
	reason string
}

func (e *exprEval) fail(reason string) {
	if !e.failed {
		e.failed = true
		e.reason = reason
	}
}

func (e *exprEval) orExpr(eval bool) int64 {
	v := e.andExpr(eval)
	for e.cur.Check(lexer.TokenDoublePipe) {
		e.cur.Advance()
		rhs := e.andExpr(eval && v == 0)
		if v != 0 || rhs != 0 {
			v = 1
		} else {
			v = 0
		}
	}
	return v
}

func (e *exprEval) andExpr(eval bool) int64 {
	v := e.equalityExpr(eval)
	for e.cur.Check(lexer.TokenDoubleAmp) {
		e.cur.Advance()
		rhs := e.equalityExpr(eval && v != 0)
		if v != 0 && rhs != 0 {
			v = 1
		} else {
			v = 0
		}
	}
	return v
}

func (e *exprEval) equalityExpr(eval bool) int64 {
	v := e.relationalExpr(eval)
	for {
		switch {
		case e.cur.Check(lexer.TokenDoubleEquals):
			e.cur.Advance()
			v = boolToInt(v == e.relationalExpr(eval))
		case e.cur.Check(lexer.TokenNotEquals):
			e.cur.Advance()
			v = boolToInt(v != e.relationalExpr(eval))
		default:
			return v
		}
	}
}

func (e *exprEval) relationalExpr(eval bool) int64 {
	v := e.shiftExpr(eval)
	for {
		switch {
		case e.cur.Check(lexer.TokenLess):
			e.cur.Advance()
			v = boolToInt(v < e.shiftExpr(eval))
		case e.cur.Check(lexer.TokenGreater):
			e.cur.Advance()
			v = boolToInt(v > e.shiftExpr(eval))
		case e.cur.Check(lexer.TokenLessEqual):
			e.cur.Advance()
			v = boolToInt(v <= e.shiftExpr(eval))
		case e.cur.Check(lexer.TokenGreaterEqual):
			e.cur.Advance()
			v = boolToInt(v >= e.shiftExpr(eval))
		default:
			return v
		}
	}
}

func (e *exprEval) shiftExpr(eval bool) int64 {
	v := e.additiveExpr(eval)
	for {
		switch {
		case e.cur.Check(lexer.TokenLeftShift):
			e.cur.Advance()
			v = shiftLeft(v, e.additiveExpr(eval))
		case e.cur.Check(lexer.TokenRightShift):
			e.cur.Advance()
			v = shiftRight(v, e.additiveExpr(eval))
		default:
			return v
		}
	}
}

func (e *exprEval) additiveExpr(eval bool) int64 {
	v := e.multiplicativeExpr(eval)
	for {
		switch {
		case e.cur.Check(lexer.TokenPlus):
			e.cur.Advance()
			v += e.multiplicativeExpr(eval)
		case e.cur.Check(lexer.TokenMinus):
			e.cur.Advance()
			v -= e.multiplicativeExpr(eval)
		default:
			return v
		}
	}
}

func (e *exprEval) multiplicativeExpr(eval bool) int64 {
	v := e.unaryExpr(eval)
	for {
		switch {
		case e.cur.Check(lexer.TokenStar):
			e.cur.Advance()
			v *= e.unaryExpr(eval)
		case e.cur.Check(lexer.TokenSlash):
			e.cur.Advance()
			rhs := e.unaryExpr(eval)
			// Division by zero reads as zero; conditionals must not crash
			// the scan. MinInt64 / -1 would overflow-trap in Go.
			if rhs == 0 {
				v = 0
			} else if v == math.MinInt64 && rhs == -1 {
				v = math.MinInt64
			} else {
				v /= rhs
			}
		case e.cur.Check(lexer.TokenPercent):
			e.cur.Advance()
			rhs := e.unaryExpr(eval)
			if rhs == 0 {
				v = 0
			} else if v == math.MinInt64 && rhs == -1 {
				v = 0
			} else {
				v %= rhs
			}
		default:
			return v
		}
	}
}

func (e *exprEval) unaryExpr(eval bool) int64 {
	t := e.cur.Peek()
	switch {
	case t.Type == lexer.TokenExclamation:
		e.cur.Advance()
		return boolToInt(e.unaryExpr(eval) == 0)
	case t.Type == lexer.TokenTilde:
		e.cur.Advance()
		return ^e.unaryExpr(eval)
	case t.Type == lexer.TokenMinus:
		e.cur.Advance()
		return -e.unaryExpr(eval)
	case t.Type == lexer.TokenPlus:
		e.cur.Advance()
		return e.unaryExpr(eval)
	case t.Type == lexer.TokenIdentifier && t.Value == "defined":
		return e.definedExpr()
	}
	return e.primaryExpr(eval)
}

// definedExpr handles both spellings: defined NAME and defined(NAME).
func (e *exprEval) definedExpr() int64 {
	e.cur.Advance()
	paren := e.cur.Match(lexer.TokenLeftParen)
	name := e.cur.Peek()
	if name.Type != lexer.TokenIdentifier && !name.IsKeyword() {
		e.fail("defined needs a macro name")
		return 0
	}
	e.cur.Advance()
	if paren && !e.cur.Match(lexer.TokenRightParen) {
		e.fail("unbalanced parenthesis after defined")
		return 0
	}
	return boolToInt(e.cat.IsDefined(name.Value))
}

func (e *exprEval) primaryExpr(eval bool) int64 {
	t := e.cur.Peek()
	switch {
	case t.Type == lexer.TokenLeftParen:
		e.cur.Advance()
		v := e.orExpr(eval)
		if !e.cur.Match(lexer.TokenRightParen) {
			e.fail("unbalanced parenthesis")
		}
		return v

	case t.Type == lexer.TokenNumber:
		e.cur.Advance()
		return parseIntLiteral(t.Value)

	case t.Type == lexer.TokenCharLiteral:
		// Character constants are out of scope; they read as zero.
		e.cur.Advance()
		return 0

	case t.Type == lexer.TokenIdentifier || t.IsKeyword():
		return e.identifierExpr(t, eval)

	case t.Type == lexer.TokenEOF:
		e.fail("missing operand")
		return 0

	default:
		// Anything else is an unknown construct: consume one token and
		// read it as zero.
		e.cur.Advance()
		return 0
	}
}

func (e *exprEval) identifierExpr(t lexer.Token, eval bool) int64 {
	e.cur.Advance()
	switch t.Value {
	case "__has_include", "__has_embed":
		return e.hasIncludeExpr(eval)
	case "__has_c_attribute":
		return e.hasCAttributeExpr()
	}
	if !eval {
		return 0
	}
	if m := e.cat.Lookup(t.Value); m != nil && !m.FunctionLike && m.Value != "" {
		// Single-level substitution: the stored value re-reads as a
		// literal and is never expanded further.
		return parseMacroValue(m.Value)
	}
	return 0
}

// hasIncludeExpr probes the resolver for a header-name operand. Anything
// between the header name and the closing parenthesis (embed parameter
// clauses and the like) is consumed and ignored.
func (e *exprEval) hasIncludeExpr(eval bool) int64 {
	if !e.cur.Match(lexer.TokenLeftParen) {
		e.fail("introspection operator needs a parenthesized operand")
		return 0
	}
	raw, system, ok := parseHeaderOperand(e.cur, e.src)
	if !ok {
		e.fail("malformed header name")
		return 0
	}
	depth := 1
	for depth > 0 {
		switch e.cur.Peek().Type {
		case lexer.TokenEOF:
			e.fail("unbalanced parenthesis in introspection operand")
			return 0
		case lexer.TokenLeftParen:
			depth++
		case lexer.TokenRightParen:
			depth--
		}
		e.cur.Advance()
	}
	if !eval {
		return 0
	}
	if _, found := e.res.Resolve(raw, system); found {
		return 1
	}
	return 0
}

// cAttributes is the attribute availability table, frozen to the
// standard revisions this scanner knows about.
var cAttributes = map[string]int64{
	"deprecated":   201904,
	"fallthrough":  201904,
	"maybe_unused": 201904,
	"nodiscard":    201904,
	"noreturn":     202202,
	"unsequenced":  202311,
	"reproducible": 202311,
}

// hasCAttributeExpr reports attribute availability. Vendor-scoped names
// (vendor::attr) parse but always read as zero, as do unknown names.
func (e *exprEval) hasCAttributeExpr() int64 {
	if !e.cur.Match(lexer.TokenLeftParen) {
		e.fail("__has_c_attribute needs a parenthesized operand")
		return 0
	}
	name := e.cur.Peek()
	if name.Type != lexer.TokenIdentifier && !name.IsKeyword() {
		e.fail("malformed attribute name")
		return 0
	}
	e.cur.Advance()
	scoped := false
	if e.cur.Check(lexer.TokenDoubleColon) {
		e.cur.Advance()
		suffix := e.cur.Peek()
		if suffix.Type != lexer.TokenIdentifier && !suffix.IsKeyword() {
			e.fail("malformed attribute name")
			return 0
		}
		e.cur.Advance()
		scoped = true
	}
	if !e.cur.Match(lexer.TokenRightParen) {
		e.fail("unbalanced parenthesis in __has_c_attribute")
		return 0
	}
	if scoped {
		return 0
	}
	return cAttributes[name.Value]
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// C leaves out-of-range shift counts undefined; reading them as zero
// keeps conditional scanning total, like the division rule.
func shiftLeft(v, n int64) int64 {
	if n < 0 || n > 63 {
		return 0
	}
	return v << uint(n)
}

func shiftRight(v, n int64) int64 {
	if n < 0 || n > 63 {
		return 0
	}
	return v >> uint(n)
}

// parseIntLiteral converts a numeric token the way strtol would: detect
// the base from the prefix (0x hex, 0b binary, leading 0 octal), take
// the longest valid digit run and ignore whatever trails it, integer
// suffixes included. Unparseable text reads as zero.
func parseIntLiteral(s string) int64 {
	base := 10
	digits := s
	switch {
	case len(s) > 1 && (strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")):
		base, digits = 16, s[2:]
	case len(s) > 1 && (strings.HasPrefix(s, "0b") || strings.HasPrefix(s, "0B")):
		base, digits = 2, s[2:]
	case len(s) > 1 && s[0] == '0':
		base, digits = 8, s[1:]
	}

	var v int64
	for i := 0; i < len(digits); i++ {
		d := digitVal(digits[i])
		if d < 0 || d >= base {
			break
		}
		v = v*int64(base) + int64(d)
	}
	return v
}

// parseMacroValue re-reads a registered macro value as a single literal,
// with strtol's tolerance for surrounding noise. Values that do not
// start with an optionally signed digit read as zero.
func parseMacroValue(raw string) int64 {
	s := strings.TrimSpace(raw)
	neg := false
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = strings.TrimSpace(s[1:])
	}
	if len(s) == 0 || s[0] < '0' || s[0] > '9' {
		return 0
	}
	v := parseIntLiteral(s)
	if neg {
		return -v
	}
	return v
}

func digitVal(b byte) int {
	switch {
	case b >= '0' && b <= '9':
		return int(b - '0')
	case b >= 'a' && b <= 'f':
		return int(b-'a') + 10
	case b >= 'A' && b <= 'F':
		return int(b-'A') + 10
	}
	return -1
}
