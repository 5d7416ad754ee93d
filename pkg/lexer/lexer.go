package lexer

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

// Tokenizer represents the tokenizer state
type Tokenizer struct {
	input       string
	pos         int // current position in input
	line        int // current line number
	column      int // current column number
	width       int // width of last rune read
	start       int // start position of current token
	startLine   int // line where the current token starts
	startColumn int // column where the current token starts
	tokens      []Token
	maxTokens   int // Maximum number of tokens to prevent OOM
	maxPos      int // Maximum position to prevent infinite loops
}

// NewTokenizer creates a new tokenizer
func NewTokenizer(input string) *Tokenizer {
	const maxTokensLimit = 1000000 // Prevent OOM from too many tokens
	return &Tokenizer{
		input:       input,
		line:        1,
		column:      1,
		startLine:   1,
		startColumn: 1,
		tokens:      make([]Token, 0, 1024),
		maxTokens:   maxTokensLimit,
		maxPos:      len(input) + 1000,
	}
}

// next reads the next rune and advances position
func (t *Tokenizer) next() rune {
	if t.pos >= len(t.input) {
		t.width = 0
		return 0
	}

	r, w := utf8.DecodeRuneInString(t.input[t.pos:])
	t.width = w
	t.pos += w

	if r == '\n' {
		t.line++
		t.column = 1
	} else {
		t.column++
	}

	return r
}

// backup steps back one rune
func (t *Tokenizer) backup() {
	t.pos -= t.width
	if t.pos < len(t.input) && t.input[t.pos] == '\n' {
		t.line--
		// Recalculate column by scanning back to start of line
		col := 1
		for i := t.pos - 1; i >= 0 && t.input[i] != '\n'; i-- {
			col++
		}
		t.column = col
	} else {
		t.column--
	}
}

// peek returns the next rune without advancing position
func (t *Tokenizer) peek() rune {
	r := t.next()
	if r != 0 {
		t.backup()
	}
	return r
}

// peekAt returns the rune n positions ahead without advancing
func (t *Tokenizer) peekAt(n int) rune {
	pos := t.pos
	for i := 0; i < n; i++ {
		if pos >= len(t.input) {
			return 0
		}
		_, w := utf8.DecodeRuneInString(t.input[pos:])
		pos += w
	}
	if pos >= len(t.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(t.input[pos:])
	return r
}

// emit creates a token and adds it to the tokens slice
func (t *Tokenizer) emit(tokenType TokenType) {
	if len(t.tokens) >= t.maxTokens {
		if tokenType != TokenError {
			errorToken := Token{
				Type:   TokenError,
				Value:  "too many tokens - possible runaway input",
				Line:   t.line,
				Column: t.column,
				Offset: t.start,
			}
			t.tokens = append(t.tokens, errorToken)
		}
		return
	}

	token := Token{
		Type:   tokenType,
		Value:  t.input[t.start:t.pos],
		Line:   t.startLine,
		Column: t.startColumn,
		Offset: t.start,
	}
	t.tokens = append(t.tokens, token)
	t.start = t.pos
	t.startLine = t.line
	t.startColumn = t.column
}

// emitError creates an error token
func (t *Tokenizer) emitError(message string) {
	token := Token{
		Type:   TokenError,
		Value:  message,
		Line:   t.startLine,
		Column: t.startColumn,
		Offset: t.start,
	}
	t.tokens = append(t.tokens, token)
	t.start = t.pos
	t.startLine = t.line
	t.startColumn = t.column
}

// Tokenize processes the input and returns all tokens
func (t *Tokenizer) Tokenize() []Token {
	iterations := 0
	const maxIterations = 10000000 // Prevent infinite loops

	for t.pos < len(t.input) {
		iterations++
		if iterations > maxIterations {
			t.emitError("tokenizer exceeded maximum iterations - possible infinite loop")
			break
		}

		if t.pos > t.maxPos {
			t.emitError("tokenizer position exceeded maximum bounds")
			break
		}

		oldPos := t.pos

		r := t.next()

		switch {
		case r == 0:
			// EOF
			return append(t.tokens, Token{Type: TokenEOF, Line: t.line, Column: t.column, Offset: t.pos})

		case unicode.IsSpace(r):
			if r == '\n' {
				t.emit(TokenNewline)
			} else {
				t.scanWhitespace()
			}

		case r == '/':
			if !t.scanComment() {
				t.scanSlashOperator()
			}

		case r == '#':
			t.scanHash()

		case r == '"':
			t.scanString()

		case r == '\'':
			t.scanChar()

		case unicode.IsLetter(r) || r == '_':
			t.scanIdentifier()

		case unicode.IsDigit(r):
			t.scanNumber()

		default:
			t.scanOperator()
		}

		// Safeguard: Ensure position advanced
		if t.pos == oldPos {
			t.emitError(fmt.Sprintf("tokenizer stuck at position %d", t.pos))
			t.pos++ // Force advance to prevent infinite loop
		}

		if len(t.tokens) >= t.maxTokens {
			break
		}
	}

	// Only add EOF if we haven't exceeded the token limit
	if len(t.tokens) < t.maxTokens {
		return append(t.tokens, Token{Type: TokenEOF, Line: t.line, Column: t.column, Offset: t.pos})
	}

	return t.tokens
}

// HasErrors returns true if the tokenizer encountered any errors
func (t *Tokenizer) HasErrors() bool {
	for _, token := range t.tokens {
		if token.Type == TokenError {
			return true
		}
	}
	return false
}

// GetErrors returns all error tokens
func (t *Tokenizer) GetErrors() []Token {
	var errors []Token
	for _, token := range t.tokens {
		if token.Type == TokenError {
			errors = append(errors, token)
		}
	}
	return errors
}

// SetMaxTokens sets the maximum number of tokens (for testing purposes)
func (t *Tokenizer) SetMaxTokens(max int) {
	t.maxTokens = max
}

// scanSlashOperator handles the / character that wasn't part of a comment
func (t *Tokenizer) scanSlashOperator() {
	if t.peek() == '=' {
		t.next()
		t.emit(TokenSlashEquals)
	} else {
		t.emit(TokenSlash)
	}
}

// scanWhitespace scans horizontal whitespace characters
func (t *Tokenizer) scanWhitespace() {
	count := 0
	const maxWhitespace = 100000

	for {
		r := t.peek()
		if !unicode.IsSpace(r) || r == '\n' {
			break
		}
		count++
		if count > maxWhitespace {
			t.emitError("excessive whitespace - possible infinite loop")
			break
		}
		t.next()
	}
	t.emit(TokenWhitespace)
}

// scanComment scans comments and returns true if a comment was found
func (t *Tokenizer) scanComment() bool {
	// We've already consumed one '/'
	r := t.peek()

	if r == '/' {
		t.next() // consume second '/'
		t.scanLineComment()
		t.emit(TokenLineComment)
		return true

	} else if r == '*' {
		t.next() // consume '*'
		t.scanBlockComment()
		t.emit(TokenBlockComment)
		return true
	}

	return false
}

// scanLineComment scans until end of line
func (t *Tokenizer) scanLineComment() {
	count := 0
	const maxCommentLength = 1000000

	for {
		r := t.next()
		count++
		if count > maxCommentLength {
			t.emitError("comment too long - possible infinite loop")
			break
		}
		if r == 0 {
			break
		}
		if r == '\n' {
			t.backup()
			break
		}
	}
}

// scanBlockComment scans until */
func (t *Tokenizer) scanBlockComment() {
	count := 0
	const maxCommentLength = 1000000

	for {
		r := t.next()
		count++
		if count > maxCommentLength {
			t.emitError("block comment too long - possible infinite loop")
			return
		}
		if r == 0 {
			t.emitError("unterminated block comment")
			return
		}
		if r == '*' && t.peek() == '/' {
			t.next() // consume '/'
			break
		}
	}
}

// scanHash scans hash and hash-hash operators
func (t *Tokenizer) scanHash() {
	if t.peek() == '#' {
		t.next()
		t.emit(TokenHashHash)
	} else {
		t.emit(TokenHash)
	}
}

// scanString scans a string literal
func (t *Tokenizer) scanString() {
	count := 0
	const maxStringLength = 1000000

	for {
		r := t.next()
		count++
		if count > maxStringLength {
			t.emitError("string literal too long - possible infinite loop")
			return
		}
		if r == 0 || r == '\n' {
			t.emitError("unterminated string literal")
			return
		}
		if r == '"' {
			break
		}
		if r == '\\' {
			// Skip escaped character
			nextR := t.next()
			if nextR == 0 {
				t.emitError("unterminated string literal - EOF after escape")
				return
			}
			count++
		}
	}
	t.emit(TokenString)
}

// scanChar scans a character literal
func (t *Tokenizer) scanChar() {
	count := 0
	const maxCharLength = 16

	for {
		r := t.next()
		count++
		if count > maxCharLength {
			t.emitError("character literal too long")
			return
		}
		if r == 0 || r == '\n' {
			t.emitError("unterminated character literal")
			return
		}
		if r == '\'' {
			break
		}
		if r == '\\' {
			// Skip escaped character
			nextR := t.next()
			if nextR == 0 {
				t.emitError("unterminated character literal - EOF after escape")
				return
			}
			count++
		}
	}
	t.emit(TokenCharLiteral)
}

// scanIdentifier scans an identifier or keyword
func (t *Tokenizer) scanIdentifier() {
	count := 0
	const maxIdentifierLength = 4096

	for {
		r := t.peek()
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			break
		}
		count++
		if count > maxIdentifierLength {
			t.emitError("identifier too long - possible infinite loop")
			break
		}
		t.next()
	}

	value := t.input[t.start:t.pos]
	if tokenType, isKeyword := keywords[value]; isKeyword {
		t.emit(tokenType)
	} else {
		t.emit(TokenIdentifier)
	}
}

// scanNumber scans a numeric literal. Covers decimal, hex (0x), octal
// (leading 0), binary (0b) and float forms plus integer suffixes. A sign
// is only consumed directly after an exponent marker so that expressions
// like 1+2 still tokenize as three tokens.
func (t *Tokenizer) scanNumber() {
	count := 0
	const maxNumberLength = 128

	prev := rune(t.input[t.pos-1])
	for {
		r := t.peek()
		accept := false
		switch {
		case unicode.IsDigit(r) || r == '.' ||
			(r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F') ||
			r == 'x' || r == 'X' || r == 'p' || r == 'P' ||
			r == 'u' || r == 'U' || r == 'l' || r == 'L':
			accept = true
		case r == '+' || r == '-':
			accept = prev == 'e' || prev == 'E' || prev == 'p' || prev == 'P'
		}
		if !accept {
			break
		}
		count++
		if count > maxNumberLength {
			t.emitError("number too long - possible infinite loop")
			break
		}
		t.next()
		prev = r
	}
	t.emit(TokenNumber)
}

// scanOperator scans operators and punctuation
func (t *Tokenizer) scanOperator() {
	r := rune(t.input[t.pos-1]) // Current character (already consumed)

	switch r {
	case '(':
		t.emit(TokenLeftParen)
	case ')':
		t.emit(TokenRightParen)
	case '{':
		t.emit(TokenLeftBrace)
	case '}':
		t.emit(TokenRightBrace)
	case '[':
		t.emit(TokenLeftBracket)
	case ']':
		t.emit(TokenRightBracket)
	case ';':
		t.emit(TokenSemicolon)
	case ',':
		t.emit(TokenComma)
	case '\\':
		t.emit(TokenBackslash)
	case '?':
		t.emit(TokenQuestion)
	case '~':
		t.emit(TokenTilde)
	case '^':
		t.emit(TokenCaret)
	case '%':
		t.emit(TokenPercent)

	case ':':
		if t.peek() == ':' {
			t.next()
			t.emit(TokenDoubleColon)
		} else {
			t.emit(TokenColon)
		}

	case '.':
		if t.peek() == '.' && t.peekAt(1) == '.' {
			t.next()
			t.next()
			t.emit(TokenEllipsis)
		} else {
			t.emit(TokenDot)
		}

	case '=':
		if t.peek() == '=' {
			t.next()
			t.emit(TokenDoubleEquals)
		} else {
			t.emit(TokenEquals)
		}

	case '!':
		if t.peek() == '=' {
			t.next()
			t.emit(TokenNotEquals)
		} else {
			t.emit(TokenExclamation)
		}

	case '<':
		next := t.peek()
		if next == '=' {
			t.next()
			t.emit(TokenLessEqual)
		} else if next == '<' {
			t.next()
			t.emit(TokenLeftShift)
		} else {
			t.emit(TokenLess)
		}

	case '>':
		next := t.peek()
		if next == '=' {
			t.next()
			t.emit(TokenGreaterEqual)
		} else if next == '>' {
			t.next()
			t.emit(TokenRightShift)
		} else {
			t.emit(TokenGreater)
		}

	case '&':
		if t.peek() == '&' {
			t.next()
			t.emit(TokenDoubleAmp)
		} else {
			t.emit(TokenAmpersand)
		}

	case '|':
		if t.peek() == '|' {
			t.next()
			t.emit(TokenDoublePipe)
		} else {
			t.emit(TokenPipe)
		}

	case '+':
		next := t.peek()
		if next == '+' {
			t.next()
			t.emit(TokenPlusPlus)
		} else if next == '=' {
			t.next()
			t.emit(TokenPlusEquals)
		} else {
			t.emit(TokenPlus)
		}

	case '-':
		next := t.peek()
		if next == '-' {
			t.next()
			t.emit(TokenMinusMinus)
		} else if next == '=' {
			t.next()
			t.emit(TokenMinusEquals)
		} else if next == '>' {
			t.next()
			t.emit(TokenArrow)
		} else {
			t.emit(TokenMinus)
		}

	case '*':
		if t.peek() == '=' {
			t.next()
			t.emit(TokenStarEquals)
		} else {
			t.emit(TokenStar)
		}

	default:
		t.emit(TokenUnknown)
	}
}
