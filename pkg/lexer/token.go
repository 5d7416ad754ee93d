// Package lexer - token model and tokenizer for C source files
package lexer

import (
	"fmt"
)

// TokenType represents the type of a token
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenError
	TokenWhitespace
	TokenNewline
	TokenLineComment  // //
	TokenBlockComment // /* */

	// Literals
	TokenIdentifier
	TokenNumber
	TokenString
	TokenCharLiteral

	// Operators and punctuation
	TokenLeftParen    // (
	TokenRightParen   // )
	TokenLeftBrace    // {
	TokenRightBrace   // }
	TokenLeftBracket  // [
	TokenRightBracket // ]
	TokenSemicolon    // ;
	TokenColon        // :
	TokenDoubleColon  // ::
	TokenComma        // ,
	TokenDot          // .
	TokenEllipsis     // ...
	TokenArrow        // ->
	TokenEquals       // =
	TokenDoubleEquals // ==
	TokenNotEquals    // !=
	TokenLess         // <
	TokenGreater      // >
	TokenLessEqual    // <=
	TokenGreaterEqual // >=
	TokenAmpersand    // &
	TokenDoubleAmp    // &&
	TokenPipe         // |
	TokenDoublePipe   // ||
	TokenCaret        // ^
	TokenTilde        // ~
	TokenExclamation  // !
	TokenQuestion     // ?
	TokenPlus         // +
	TokenMinus        // -
	TokenStar         // *
	TokenSlash        // /
	TokenPercent      // %
	TokenPlusPlus     // ++
	TokenMinusMinus   // --
	TokenPlusEquals   // +=
	TokenMinusEquals  // -=
	TokenStarEquals   // *=
	TokenSlashEquals  // /=
	TokenLeftShift    // <<
	TokenRightShift   // >>

	// Preprocessor
	TokenHash      // #
	TokenHashHash  // ##
	TokenBackslash // \

	// Anything the scanner does not recognize
	TokenUnknown

	// Keywords
	TokenKeywordStart // Marker for start of keywords
	TokenAlignas
	TokenAlignof
	TokenAtomic
	TokenAuto
	TokenBool
	TokenBreak
	TokenCase
	TokenChar
	TokenConst
	TokenConstexpr
	TokenContinue
	TokenDefault
	TokenDo
	TokenDouble
	TokenElse
	TokenEnum
	TokenExtern
	TokenFalse
	TokenFloat
	TokenFor
	TokenGeneric
	TokenGoto
	TokenIf
	TokenInline
	TokenInt
	TokenLong
	TokenNoreturn
	TokenNullptr
	TokenRegister
	TokenRestrict
	TokenReturn
	TokenShort
	TokenSigned
	TokenSizeof
	TokenStatic
	TokenStaticAssert
	TokenStruct
	TokenSwitch
	TokenThreadLocal
	TokenTrue
	TokenTypedef
	TokenTypeof
	TokenUnion
	TokenUnsigned
	TokenVoid
	TokenVolatile
	TokenWhile
	TokenKeywordEnd // Marker for end of keywords
)

// Token represents a single token
type Token struct {
	Type   TokenType
	Value  string
	Line   int
	Column int
	Offset int
}

// String returns a string representation of the token
func (t Token) String() string {
	switch t.Type {
	case TokenEOF:
		return "EOF"
	case TokenError:
		return fmt.Sprintf("ERROR:%s", t.Value)
	case TokenWhitespace:
		return "WHITESPACE"
	case TokenNewline:
		return "NEWLINE"
	case TokenLineComment:
		return fmt.Sprintf("LINE_COMMENT:%s", t.Value)
	case TokenBlockComment:
		return fmt.Sprintf("BLOCK_COMMENT:%s", t.Value)
	case TokenIdentifier:
		return fmt.Sprintf("IDENTIFIER:%s", t.Value)
	case TokenNumber:
		return fmt.Sprintf("NUMBER:%s", t.Value)
	case TokenString:
		return fmt.Sprintf("STRING:%s", t.Value)
	case TokenCharLiteral:
		return fmt.Sprintf("CHAR:%s", t.Value)
	case TokenUnknown:
		return fmt.Sprintf("UNKNOWN:%s", t.Value)
	default:
		if t.Type >= TokenKeywordStart && t.Type <= TokenKeywordEnd {
			return fmt.Sprintf("KEYWORD:%s", t.Value)
		}
		return fmt.Sprintf("%s:%s", tokenTypeNames[t.Type], t.Value)
	}
}

// IsKeyword reports whether the token is a C keyword
func (t Token) IsKeyword() bool {
	return t.Type > TokenKeywordStart && t.Type < TokenKeywordEnd
}

// IsBlank reports whether the token is whitespace or a comment.
// Newlines are not blanks; directive scanning is line oriented.
func (t Token) IsBlank() bool {
	switch t.Type {
	case TokenWhitespace, TokenLineComment, TokenBlockComment:
		return true
	}
	return false
}

// tokenTypeNames maps token types to their names for debugging
var tokenTypeNames = map[TokenType]string{
	TokenLeftParen:    "LEFT_PAREN",
	TokenRightParen:   "RIGHT_PAREN",
	TokenLeftBrace:    "LEFT_BRACE",
	TokenRightBrace:   "RIGHT_BRACE",
	TokenLeftBracket:  "LEFT_BRACKET",
	TokenRightBracket: "RIGHT_BRACKET",
	TokenSemicolon:    "SEMICOLON",
	TokenColon:        "COLON",
	TokenDoubleColon:  "DOUBLE_COLON",
	TokenComma:        "COMMA",
	TokenDot:          "DOT",
	TokenEllipsis:     "ELLIPSIS",
	TokenArrow:        "ARROW",
	TokenEquals:       "EQUALS",
	TokenDoubleEquals: "DOUBLE_EQUALS",
	TokenNotEquals:    "NOT_EQUALS",
	TokenLess:         "LESS",
	TokenGreater:      "GREATER",
	TokenLessEqual:    "LESS_EQUAL",
	TokenGreaterEqual: "GREATER_EQUAL",
	TokenAmpersand:    "AMPERSAND",
	TokenDoubleAmp:    "DOUBLE_AMP",
	TokenPipe:         "PIPE",
	TokenDoublePipe:   "DOUBLE_PIPE",
	TokenCaret:        "CARET",
	TokenTilde:        "TILDE",
	TokenExclamation:  "EXCLAMATION",
	TokenQuestion:     "QUESTION",
	TokenPlus:         "PLUS",
	TokenMinus:        "MINUS",
	TokenStar:         "STAR",
	TokenSlash:        "SLASH",
	TokenPercent:      "PERCENT",
	TokenPlusPlus:     "PLUS_PLUS",
	TokenMinusMinus:   "MINUS_MINUS",
	TokenPlusEquals:   "PLUS_EQUALS",
	TokenMinusEquals:  "MINUS_EQUALS",
	TokenStarEquals:   "STAR_EQUALS",
	TokenSlashEquals:  "SLASH_EQUALS",
	TokenLeftShift:    "LEFT_SHIFT",
	TokenRightShift:   "RIGHT_SHIFT",
	TokenHash:         "HASH",
	TokenHashHash:     "HASH_HASH",
	TokenBackslash:    "BACKSLASH",
}

// Keywords map for quick lookup
var keywords = map[string]TokenType{
	"alignas":        TokenAlignas,
	"alignof":        TokenAlignof,
	"auto":           TokenAuto,
	"bool":           TokenBool,
	"break":          TokenBreak,
	"case":           TokenCase,
	"char":           TokenChar,
	"const":          TokenConst,
	"constexpr":      TokenConstexpr,
	"continue":       TokenContinue,
	"default":        TokenDefault,
	"do":             TokenDo,
	"double":         TokenDouble,
	"else":           TokenElse,
	"enum":           TokenEnum,
	"extern":         TokenExtern,
	"false":          TokenFalse,
	"float":          TokenFloat,
	"for":            TokenFor,
	"goto":           TokenGoto,
	"if":             TokenIf,
	"inline":         TokenInline,
	"int":            TokenInt,
	"long":           TokenLong,
	"nullptr":        TokenNullptr,
	"register":       TokenRegister,
	"restrict":       TokenRestrict,
	"return":         TokenReturn,
	"short":          TokenShort,
	"signed":         TokenSigned,
	"sizeof":         TokenSizeof,
	"static":         TokenStatic,
	"static_assert":  TokenStaticAssert,
	"struct":         TokenStruct,
	"switch":         TokenSwitch,
	"thread_local":   TokenThreadLocal,
	"true":           TokenTrue,
	"typedef":        TokenTypedef,
	"typeof":         TokenTypeof,
	"union":          TokenUnion,
	"unsigned":       TokenUnsigned,
	"void":           TokenVoid,
	"volatile":       TokenVolatile,
	"while":          TokenWhile,
	"_Alignas":       TokenAlignas,
	"_Alignof":       TokenAlignof,
	"_Atomic":        TokenAtomic,
	"_Bool":          TokenBool,
	"_Generic":       TokenGeneric,
	"_Noreturn":      TokenNoreturn,
	"_Static_assert": TokenStaticAssert,
	"_Thread_local":  TokenThreadLocal,
}
