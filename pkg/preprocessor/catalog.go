// Package preprocessor scans C preprocessor directives. It records macro
// definitions from #define lines, resolves #include and #embed targets
// against search directories, evaluates conditional-compilation
// expressions, and reports the includes that survive #if/#ifdef nesting
// to a visitor. It does not expand macros or emit preprocessed output.
package preprocessor

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/SamuelMarks/cdd-c-sub002/pkg/lexer"
)

// discardLogger returns a logger that drops everything, standing in for
// slog.DiscardHandler which needs Go 1.24.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Macro describes one preprocessor definition known to the catalog.
// Value is only populated for manually registered macros; definition
// scanning records shape, not bodies.
type Macro struct {
	Name         string
	FunctionLike bool
	Variadic     bool
	Params       []string
	Value        string
}

// Catalog holds macro definitions and include search directories.
// Registration appends and never overwrites: Lookup returns the first
// match, so earlier registrations shadow later ones.
//
// A Catalog is safe to share across concurrent scans as long as no
// registration happens while scans are running; scans themselves carry
// their per-file state (see Resolver) and never mutate the catalog.
type Catalog struct {
	macros      []Macro
	searchPaths []string
	logger      *slog.Logger
}

// NewCatalog creates an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{logger: slog.New(slog.DiscardHandler)}
}

// SetLogger installs a logger for scan diagnostics. A nil logger
// restores the default discard logger.
func (c *Catalog) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c.logger = logger
}

// AddSearchPath appends an include search directory. Resolution walks
// directories in registration order.
func (c *Catalog) AddSearchPath(dir string) {
	c.searchPaths = append(c.searchPaths, dir)
}

// AddMacro registers an object-like macro with a raw value. The value
// may be empty; the macro still answers defined queries.
func (c *Catalog) AddMacro(name, value string) error {
	if name == "" {
		return fmt.Errorf("%w: macro name must not be empty", ErrInvalidArgument)
	}
	c.macros = append(c.macros, Macro{Name: name, Value: value})
	return nil
}

// Lookup returns the first registered macro with the given name, or nil
func (c *Catalog) Lookup(name string) *Macro {
	for i := range c.macros {
		if c.macros[i].Name == name {
			return &c.macros[i]
		}
	}
	return nil
}

// IsDefined reports whether any macro with the given name is registered
func (c *Catalog) IsDefined(name string) bool {
	return c.Lookup(name) != nil
}

// Macros returns the registered macros in registration order
func (c *Catalog) Macros() []Macro {
	return c.macros
}

// SearchPaths returns the registered search directories in order
func (c *Catalog) SearchPaths() []string {
	return c.searchPaths
}

// ScanDefines reads a C source file and records every #define in it.
// Scanning is textual: conditional compilation is not consulted, so
// definitions from every branch register in file order. When the
// tokenizer chokes partway through, macros discovered before the bad
// spot stay registered and the error is returned.
func (c *Catalog) ScanDefines(path string) error {
	src, err := readSource(path)
	if err != nil {
		return err
	}

	tokens := lexer.NewTokenizer(src).Tokenize()
	c.logger.Debug("scanning defines", "path", path, "tokens", len(tokens))

	cur := lexer.NewCursor(tokens)
	atLineStart := true
	for !cur.AtEnd() {
		t := cur.Peek()
		switch {
		case t.Type == lexer.TokenError:
			return fmt.Errorf("%w: %s at line %d", ErrTokenize, t.Value, t.Line)
		case t.Type == lexer.TokenNewline:
			atLineStart = true
			cur.Advance()
		case t.IsBlank():
			cur.Advance()
		case t.Type == lexer.TokenHash && atLineStart:
			atLineStart = false
			cur.Advance()
			cur.SkipBlanks()
			if directiveName(cur.Peek()) == "define" {
				cur.Advance()
				c.scanOneDefine(cur)
			}
			skipToLineEnd(cur)
		default:
			atLineStart = false
			cur.Advance()
		}
	}
	return nil
}

// scanOneDefine records the macro whose definition starts at the cursor,
// positioned just past the directive name. Malformed definitions are
// dropped without failing the scan.
func (c *Catalog) scanOneDefine(cur *lexer.Cursor) {
	cur.SkipBlanks()
	nameTok := cur.Peek()
	if nameTok.Type != lexer.TokenIdentifier && !nameTok.IsKeyword() {
		return
	}
	cur.Advance()

	m := Macro{Name: nameTok.Value}
	// A parameter list only counts when the parenthesis hugs the name;
	// with whitespace in between the macro is object-like and the parens
	// belong to its body.
	if cur.Peek().Type == lexer.TokenLeftParen {
		m.FunctionLike = true
		cur.Advance()
		c.scanMacroParams(cur, &m)
	}

	c.logger.Debug("macro found",
		"name", m.Name,
		"function_like", m.FunctionLike,
		"variadic", m.Variadic,
		"params", len(m.Params))
	c.macros = append(c.macros, m)
}

// scanMacroParams reads a function-like parameter list up to the closing
// parenthesis. The ellipsis marks the macro variadic in both its bare
// form (a, ...) and the GNU named form (args...); it never becomes a
// parameter itself.
func (c *Catalog) scanMacroParams(cur *lexer.Cursor, m *Macro) {
	for !cur.AtEnd() {
		cur.SkipBlanks()
		t := cur.Peek()
		switch {
		case t.Type == lexer.TokenRightParen:
			cur.Advance()
			return
		case t.Type == lexer.TokenBackslash && cur.PeekAhead(1).Type == lexer.TokenNewline:
			cur.Advance()
			cur.Advance()
		case t.Type == lexer.TokenNewline || t.Type == lexer.TokenError:
			// Unterminated list; keep what was parsed.
			return
		case t.Type == lexer.TokenEllipsis:
			m.Variadic = true
			cur.Advance()
		case t.Type == lexer.TokenIdentifier || t.IsKeyword():
			m.Params = append(m.Params, t.Value)
			cur.Advance()
			if cur.Peek().Type == lexer.TokenEllipsis {
				m.Variadic = true
				cur.Advance()
			}
		case t.Type == lexer.TokenComma:
			cur.Advance()
		default:
			// Stray token; skip it rather than losing the whole macro.
			cur.Advance()
		}
	}
}
