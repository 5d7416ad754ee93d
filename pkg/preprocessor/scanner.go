package preprocessor

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/SamuelMarks/cdd-c-sub002/pkg/lexer"
)

// Directive discriminates the two reportable directives
type Directive int

const (
	DirectiveInclude Directive = iota
	DirectiveEmbed
)

func (d Directive) String() string {
	if d == DirectiveEmbed {
		return "embed"
	}
	return "include"
}

// IncludeEvent describes one #include or #embed found in an enabled
// region. The event is only valid for the duration of the visitor call;
// copy out whatever needs to outlive it.
type IncludeEvent struct {
	Directive Directive
	RawPath   string // operand as written, quotes and brackets stripped
	Path      string // resolved filesystem path
	System    bool   // angle-bracket form
	Line      int
	Embed     *EmbedParams // nil for #include
}

// IncludeVisitor receives include events during a scan. Returning true
// stops the scan early; the scan still reports success.
type IncludeVisitor func(ev *IncludeEvent) (stop bool)

type frameState int

const (
	frameActive    frameState = iota // branch emits, all ancestors emit
	frameSkipping                    // branch suppressed, chain still open
	frameSatisfied                   // chain closed: a branch was taken or an ancestor is dead
)

// condFrame is one level of #if nesting. elseSeen rejects a second
// #else or an #elif after #else in the same chain.
type condFrame struct {
	state    frameState
	elseSeen bool
	line     int
}

// includeScanner walks one file's token stream. All of its state is per
// call; the shared catalog is only read.
type includeScanner struct {
	cur    *lexer.Cursor
	src    string
	cat    *Catalog
	res    Resolver
	visit  IncludeVisitor
	stack  []condFrame
	logger *slog.Logger
}

// ScanIncludes reads a C source file and reports every #include and
// #embed surviving conditional compilation to the visitor, in file
// order. Conditions evaluate against the catalog's macros; targets
// resolve against the file's own directory plus the registered search
// paths, and targets that resolve nowhere are skipped silently.
func (c *Catalog) ScanIncludes(path string, visit IncludeVisitor) error {
	src, err := readSource(path)
	if err != nil {
		return err
	}

	tok := lexer.NewTokenizer(src)
	tokens := tok.Tokenize()
	if tok.HasErrors() {
		first := tok.GetErrors()[0]
		return fmt.Errorf("%w: %s at line %d", ErrTokenize, first.Value, first.Line)
	}

	s := &includeScanner{
		cur:    lexer.NewCursor(tokens),
		src:    src,
		cat:    c,
		res:    Resolver{CurrentDir: filepath.Dir(path), SearchDirs: c.searchPaths},
		visit:  visit,
		logger: c.logger,
	}
	c.logger.Debug("scanning includes", "path", path, "tokens", len(tokens))
	return s.run()
}

func (s *includeScanner) run() error {
	atLineStart := true
	for !s.cur.AtEnd() {
		t := s.cur.Peek()
		switch {
		case t.Type == lexer.TokenNewline:
			atLineStart = true
			s.cur.Advance()
		case t.IsBlank():
			s.cur.Advance()
		case t.Type == lexer.TokenHash && atLineStart:
			atLineStart = false
			stop, err := s.directive()
			if err != nil {
				return err
			}
			if stop {
				return nil
			}
		default:
			atLineStart = false
			s.cur.Advance()
		}
	}
	return nil
}

// enabled reports whether every frame on the stack is emitting.
func (s *includeScanner) enabled() bool {
	for _, f := range s.stack {
		if f.state != frameActive {
			return false
		}
	}
	return true
}

// enclosingEnabled ignores the innermost frame; #elif and #else use it
// to decide whether their chain sits in emitted context.
func (s *includeScanner) enclosingEnabled() bool {
	for _, f := range s.stack[:len(s.stack)-1] {
		if f.state != frameActive {
			return false
		}
	}
	return true
}

func (s *includeScanner) push(taken bool, line int) {
	st := frameSkipping
	if taken {
		st = frameActive
	}
	s.stack = append(s.stack, condFrame{state: st, line: line})
}

// directive handles one # line; the cursor sits on the hash. Branch
// directives always run through the state machine, everything else is
// parsed only in enabled regions.
func (s *includeScanner) directive() (bool, error) {
	s.cur.Advance() // the hash
	s.cur.SkipBlanks()
	nameTok := s.cur.Peek()
	name := directiveName(nameTok)
	if name == "" {
		// The null directive: a lone # line.
		skipToLineEnd(s.cur)
		return false, nil
	}
	s.cur.Advance()
	line := nameTok.Line

	switch name {
	case "if":
		if !s.enabled() {
			// Dead context: never evaluate, remember only the nesting.
			s.stack = append(s.stack, condFrame{state: frameSatisfied, line: line})
			skipToLineEnd(s.cur)
			return false, nil
		}
		v, err := s.evalLineExpr()
		if err != nil {
			return false, err
		}
		s.push(v != 0, line)
		s.logger.Debug("conditional", "directive", "if", "line", line, "taken", v != 0, "depth", len(s.stack))
		return false, nil

	case "ifdef", "ifndef":
		if !s.enabled() {
			s.stack = append(s.stack, condFrame{state: frameSatisfied, line: line})
			skipToLineEnd(s.cur)
			return false, nil
		}
		s.cur.SkipBlanks()
		id := s.cur.Peek()
		if id.Type != lexer.TokenIdentifier && !id.IsKeyword() {
			return false, fmt.Errorf("line %d: %w: #%s needs a macro name", line, ErrInvalidArgument, name)
		}
		s.cur.Advance()
		taken := s.cat.IsDefined(id.Value)
		if name == "ifndef" {
			taken = !taken
		}
		s.push(taken, line)
		s.logger.Debug("conditional", "directive", name, "line", line, "macro", id.Value, "taken", taken, "depth", len(s.stack))
		skipToLineEnd(s.cur)
		return false, nil

	case "elif":
		return false, s.handleElif(line)

	case "else":
		return false, s.handleElse(line)

	case "endif":
		if len(s.stack) == 0 {
			return false, fmt.Errorf("line %d: %w: #endif without matching #if", line, ErrInvalidArgument)
		}
		s.stack = s.stack[:len(s.stack)-1]
		skipToLineEnd(s.cur)
		return false, nil

	case "include":
		return s.handleInclude(DirectiveInclude, line)

	case "embed":
		return s.handleInclude(DirectiveEmbed, line)

	default:
		// #define, #undef, #pragma and friends are not this scanner's
		// business.
		skipToLineEnd(s.cur)
		return false, nil
	}
}

func (s *includeScanner) handleElif(line int) error {
	if len(s.stack) == 0 {
		return fmt.Errorf("line %d: %w: #elif without matching #if", line, ErrInvalidArgument)
	}
	top := &s.stack[len(s.stack)-1]
	if top.elseSeen {
		return fmt.Errorf("line %d: %w: #elif after #else in chain opened at line %d", line, ErrInvalidArgument, top.line)
	}
	switch top.state {
	case frameActive:
		// The chain just produced its branch; everything later is dead.
		top.state = frameSatisfied
		skipToLineEnd(s.cur)
	case frameSatisfied:
		skipToLineEnd(s.cur)
	case frameSkipping:
		if !s.enclosingEnabled() {
			skipToLineEnd(s.cur)
			return nil
		}
		v, err := s.evalLineExpr()
		if err != nil {
			return err
		}
		if v != 0 {
			top.state = frameActive
		}
		s.logger.Debug("conditional", "directive", "elif", "line", line, "taken", v != 0, "depth", len(s.stack))
	}
	return nil
}

func (s *includeScanner) handleElse(line int) error {
	if len(s.stack) == 0 {
		return fmt.Errorf("line %d: %w: #else without matching #if", line, ErrInvalidArgument)
	}
	top := &s.stack[len(s.stack)-1]
	if top.elseSeen {
		return fmt.Errorf("line %d: %w: duplicate #else in chain opened at line %d", line, ErrInvalidArgument, top.line)
	}
	top.elseSeen = true
	switch top.state {
	case frameActive:
		top.state = frameSatisfied
	case frameSkipping:
		if s.enclosingEnabled() {
			top.state = frameActive
		} else {
			top.state = frameSatisfied
		}
	case frameSatisfied:
		// A branch was already taken; the else is dead.
	}
	skipToLineEnd(s.cur)
	return nil
}

// handleInclude parses an #include or #embed operand, resolves it and
// reports it. In dead regions the directive is skipped unparsed, so
// malformed includes inside untaken branches never fail a scan.
func (s *includeScanner) handleInclude(d Directive, line int) (bool, error) {
	if !s.enabled() {
		skipToLineEnd(s.cur)
		return false, nil
	}
	s.cur.SkipBlanks()
	raw, system, ok := parseHeaderOperand(s.cur, s.src)
	if !ok {
		return false, fmt.Errorf("line %d: %w: malformed #%s operand", line, ErrInvalidArgument, d)
	}

	ev := IncludeEvent{Directive: d, RawPath: raw, System: system, Line: line}
	if d == DirectiveEmbed {
		params, err := s.parseEmbedParams(line)
		if err != nil {
			return false, err
		}
		ev.Embed = params
	} else {
		skipToLineEnd(s.cur)
	}

	path, found := s.res.Resolve(raw, system)
	if !found {
		s.logger.Debug("target not found", "directive", d.String(), "raw", raw, "system", system, "line", line)
		return false, nil
	}
	ev.Path = path
	s.logger.Debug("target resolved", "directive", d.String(), "raw", raw, "path", path, "line", line)

	if s.visit != nil && s.visit(&ev) {
		return true, nil
	}
	return false, nil
}

// evalLineExpr evaluates the rest of the directive line as a constant
// expression, leaving the cursor at the line's newline.
func (s *includeScanner) evalLineExpr() (int64, error) {
	line := s.cur.Peek().Line
	toks := collectLineTokens(s.cur)
	v, err := Evaluate(s.src, toks, s.cat, s.res)
	if err != nil {
		return 0, fmt.Errorf("line %d: %w", line, err)
	}
	return v, nil
}

// parseHeaderOperand reads a header-name operand: either a quoted string
// whose inner bytes are taken verbatim (no escape processing) or an
// angle-bracket sequence reconstructed from the source text between <
// and the matching >, however the tokenizer fragmented it.
func parseHeaderOperand(cur *lexer.Cursor, src string) (raw string, system bool, ok bool) {
	t := cur.Peek()
	switch t.Type {
	case lexer.TokenString:
		cur.Advance()
		if len(t.Value) >= 2 {
			return t.Value[1 : len(t.Value)-1], false, true
		}
		return "", false, true

	case lexer.TokenLess:
		cur.Advance()
		start := t.Offset + len(t.Value)
		for {
			n := cur.Peek()
			switch n.Type {
			case lexer.TokenGreater:
				cur.Advance()
				return src[start:n.Offset], true, true
			case lexer.TokenGreaterEqual, lexer.TokenRightShift:
				// The closing > fused with a neighbor; the first > wins.
				cur.Advance()
				return src[start:n.Offset], true, true
			case lexer.TokenNewline, lexer.TokenEOF, lexer.TokenError:
				return "", true, false
			default:
				cur.Advance()
			}
		}
	}
	return "", false, false
}

// directiveName extracts the directive word after a hash, if any. C
// keywords count: #if and #else arrive as keyword tokens.
func directiveName(t lexer.Token) string {
	if t.Type == lexer.TokenIdentifier || t.IsKeyword() {
		return t.Value
	}
	return ""
}

// skipToLineEnd advances to the next newline, honoring backslash-newline
// continuations. The newline itself is left for the caller's line-start
// tracking.
func skipToLineEnd(cur *lexer.Cursor) {
	for !cur.AtEnd() {
		t := cur.Peek()
		if t.Type == lexer.TokenError {
			return
		}
		if t.Type == lexer.TokenBackslash && cur.PeekAhead(1).Type == lexer.TokenNewline {
			cur.Advance()
			cur.Advance()
			continue
		}
		if t.Type == lexer.TokenNewline {
			return
		}
		cur.Advance()
	}
}

// collectLineTokens gathers the significant tokens from here to the end
// of the line, honoring backslash-newline continuations. The cursor is
// left on the terminating newline (or at input end).
func collectLineTokens(cur *lexer.Cursor) []lexer.Token {
	var toks []lexer.Token
	for !cur.AtEnd() {
		t := cur.Peek()
		switch {
		case t.Type == lexer.TokenNewline:
			return toks
		case t.IsBlank():
			cur.Advance()
		case t.Type == lexer.TokenBackslash && cur.PeekAhead(1).Type == lexer.TokenNewline:
			cur.Advance()
			cur.Advance()
		default:
			toks = append(toks, t)
			cur.Advance()
		}
	}
	return toks
}

// readSource loads a file for scanning
func readSource(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}
