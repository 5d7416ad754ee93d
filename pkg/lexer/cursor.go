package lexer

// Cursor provides an abstraction layer for navigating a token slice.
// It encapsulates token array access and position management so that
// callers never touch raw indices.
type Cursor struct {
	tokens  []Token // The token array
	current int     // Current position in the token array
}

// NewCursor creates a cursor over the provided tokens
func NewCursor(tokens []Token) *Cursor {
	return &Cursor{tokens: tokens}
}

// Advance returns the current token and moves to the next
func (c *Cursor) Advance() Token {
	if !c.AtEnd() {
		c.current++
	}
	return c.Previous()
}

// AtEnd checks if we're at the end of tokens
func (c *Cursor) AtEnd() bool {
	return c.current >= len(c.tokens) || c.Peek().Type == TokenEOF
}

// Peek returns the current token without advancing
func (c *Cursor) Peek() Token {
	if c.current >= len(c.tokens) {
		return Token{Type: TokenEOF}
	}
	return c.tokens[c.current]
}

// Previous returns the previous token
func (c *Cursor) Previous() Token {
	if c.current <= 0 {
		return Token{Type: TokenEOF}
	}
	return c.tokens[c.current-1]
}

// PeekAhead looks ahead by offset tokens
func (c *Cursor) PeekAhead(offset int) Token {
	targetIndex := c.current + offset
	if targetIndex < 0 || targetIndex >= len(c.tokens) {
		return Token{Type: TokenEOF}
	}
	return c.tokens[targetIndex]
}

// Pos returns the current position in the token array
func (c *Cursor) Pos() int {
	return c.current
}

// SetPos sets the current position (for checkpointing)
func (c *Cursor) SetPos(position int) {
	if position < 0 {
		c.current = 0
	} else if position >= len(c.tokens) {
		c.current = len(c.tokens)
	} else {
		c.current = position
	}
}

// Check returns true if current token is of given type
func (c *Cursor) Check(tokenType TokenType) bool {
	if c.AtEnd() {
		return false
	}
	return c.Peek().Type == tokenType
}

// Match checks if current token matches any of the given types
func (c *Cursor) Match(types ...TokenType) bool {
	for _, tokenType := range types {
		if c.Check(tokenType) {
			c.Advance()
			return true
		}
	}
	return false
}

// SkipBlanks skips whitespace and comment tokens but stops at newlines
func (c *Cursor) SkipBlanks() {
	for !c.AtEnd() && c.Peek().IsBlank() {
		c.Advance()
	}
}

// SkipBlanksAndNewlines skips whitespace, comment and newline tokens
func (c *Cursor) SkipBlanksAndNewlines() {
	for !c.AtEnd() && (c.Peek().IsBlank() || c.Peek().Type == TokenNewline) {
		c.Advance()
	}
}
