package lexer

import (
	"testing"
)

func TestTokenizerBasics(t *testing.T) {
	input := `static int counter = 0;

int next_id(void) {
    return ++counter;
}`

	tokenizer := NewTokenizer(input)
	tokens := tokenizer.Tokenize()

	if tokenizer.HasErrors() {
		t.Fatalf("Unexpected tokenizer errors: %v", tokenizer.GetErrors())
	}

	// Check some key tokens
	foundStatic := false
	foundInt := false
	foundReturn := false
	foundIdentifier := false

	for _, token := range tokens {
		switch token.Type {
		case TokenStatic:
			foundStatic = true
		case TokenInt:
			foundInt = true
		case TokenReturn:
			foundReturn = true
		case TokenIdentifier:
			foundIdentifier = true
		}
	}

	if !foundStatic {
		t.Error("Expected to find static keyword token")
	}
	if !foundInt {
		t.Error("Expected to find int keyword token")
	}
	if !foundReturn {
		t.Error("Expected to find return keyword token")
	}
	if !foundIdentifier {
		t.Error("Expected to find identifier token")
	}

	if tokens[len(tokens)-1].Type != TokenEOF {
		t.Error("Expected last token to be EOF")
	}
}

func TestTokenizerComments(t *testing.T) {
	input := `// Line comment
/* Block comment */
int x; /* inline */ // trailing`

	tokenizer := NewTokenizer(input)
	tokens := tokenizer.Tokenize()

	commentTypes := []TokenType{}
	for _, token := range tokens {
		if token.Type == TokenLineComment || token.Type == TokenBlockComment {
			commentTypes = append(commentTypes, token.Type)
		}
	}

	expectedCommentTypes := []TokenType{
		TokenLineComment,
		TokenBlockComment,
		TokenBlockComment,
		TokenLineComment,
	}

	if len(commentTypes) != len(expectedCommentTypes) {
		t.Fatalf("Expected %d comment tokens, got %d", len(expectedCommentTypes), len(commentTypes))
	}

	for i, expected := range expectedCommentTypes {
		if commentTypes[i] != expected {
			t.Errorf("Comment %d: expected %v, got %v", i, expected, commentTypes[i])
		}
	}
}

func TestTokenizerOperators(t *testing.T) {
	input := `== != <= >= && || << >> :: ... -> ++ -- += -= *= /=`

	tokenizer := NewTokenizer(input)
	tokens := tokenizer.Tokenize()

	expectedOperators := []TokenType{
		TokenDoubleEquals, TokenWhitespace,
		TokenNotEquals, TokenWhitespace,
		TokenLessEqual, TokenWhitespace,
		TokenGreaterEqual, TokenWhitespace,
		TokenDoubleAmp, TokenWhitespace,
		TokenDoublePipe, TokenWhitespace,
		TokenLeftShift, TokenWhitespace,
		TokenRightShift, TokenWhitespace,
		TokenDoubleColon, TokenWhitespace,
		TokenEllipsis, TokenWhitespace,
		TokenArrow, TokenWhitespace,
		TokenPlusPlus, TokenWhitespace,
		TokenMinusMinus, TokenWhitespace,
		TokenPlusEquals, TokenWhitespace,
		TokenMinusEquals, TokenWhitespace,
		TokenStarEquals, TokenWhitespace,
		TokenSlashEquals,
		TokenEOF,
	}

	if len(tokens) != len(expectedOperators) {
		t.Errorf("Expected %d tokens, got %d", len(expectedOperators), len(tokens))
		for i, token := range tokens {
			t.Logf("Token %d: %s", i, token)
		}
	}

	for i, expected := range expectedOperators {
		if i < len(tokens) && tokens[i].Type != expected {
			t.Errorf("Token %d: expected %v, got %v", i, expected, tokens[i].Type)
		}
	}
}

func TestTokenizerPreprocessor(t *testing.T) {
	input := `#define MAX_SIZE 100
#include <stdio.h>
a ## b`

	tokenizer := NewTokenizer(input)
	tokens := tokenizer.Tokenize()

	hashCount := 0
	foundHashHash := false
	foundDefine := false
	foundInclude := false

	for _, token := range tokens {
		switch token.Type {
		case TokenHash:
			hashCount++
		case TokenHashHash:
			foundHashHash = true
		}
		if token.Value == "define" {
			foundDefine = true
		}
		if token.Value == "include" {
			foundInclude = true
		}
	}

	if hashCount != 2 {
		t.Errorf("Expected 2 hash tokens, got %d", hashCount)
	}
	if !foundHashHash {
		t.Error("Expected to find ## token")
	}
	if !foundDefine {
		t.Error("Expected to find 'define' identifier")
	}
	if !foundInclude {
		t.Error("Expected to find 'include' identifier")
	}
}

func TestTokenizerNumbers(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string // values of the number tokens, in order
	}{
		{"Decimal", "42", []string{"42"}},
		{"Hex", "0x1F", []string{"0x1F"}},
		{"Binary", "0b101", []string{"0b101"}},
		{"Octal", "017", []string{"017"}},
		{"Suffixes", "42ul 0x1FUL 100L", []string{"42ul", "0x1FUL", "100L"}},
		{"Float", "3.14159", []string{"3.14159"}},
		{"Exponent", "1e+5 2E-3", []string{"1e+5", "2E-3"}},
		{"HexFloat", "0x1.8p+1", []string{"0x1.8p+1"}},
		// A sign is only part of a number after an exponent marker, so
		// arithmetic between literals still splits into three tokens.
		{"Addition", "1+2", []string{"1", "2"}},
		{"Subtraction", "10-4", []string{"10", "4"}},
		// 0xE+1 is a single pp-number in C because E doubles as an
		// exponent marker.
		{"HexEPlus", "0xE+1", []string{"0xE+1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokenizer := NewTokenizer(tt.input)
			tokens := tokenizer.Tokenize()

			var numbers []string
			for _, token := range tokens {
				if token.Type == TokenNumber {
					numbers = append(numbers, token.Value)
				}
			}

			if len(numbers) != len(tt.expected) {
				t.Fatalf("Expected %d number tokens, got %d: %v", len(tt.expected), len(numbers), numbers)
			}
			for i, want := range tt.expected {
				if numbers[i] != want {
					t.Errorf("Number %d: expected %q, got %q", i, want, numbers[i])
				}
			}
		})
	}
}

func TestTokenizerStringsAndChars(t *testing.T) {
	input := `"hello" "esc\"aped" 'a' '\n'`

	tokenizer := NewTokenizer(input)
	tokens := tokenizer.Tokenize()

	if tokenizer.HasErrors() {
		t.Fatalf("Unexpected tokenizer errors: %v", tokenizer.GetErrors())
	}

	var strings, chars []string
	for _, token := range tokens {
		switch token.Type {
		case TokenString:
			strings = append(strings, token.Value)
		case TokenCharLiteral:
			chars = append(chars, token.Value)
		}
	}

	if len(strings) != 2 {
		t.Errorf("Expected 2 string tokens, got %d: %v", len(strings), strings)
	}
	if len(strings) == 2 && strings[1] != `"esc\"aped"` {
		t.Errorf("Escaped string mis-scanned: %q", strings[1])
	}
	if len(chars) != 2 {
		t.Errorf("Expected 2 char tokens, got %d: %v", len(chars), chars)
	}
}

func TestTokenizerKeywords(t *testing.T) {
	// The old spellings map onto the same token types as the C23 ones.
	tests := []struct {
		input    string
		expected TokenType
	}{
		{"if", TokenIf},
		{"else", TokenElse},
		{"sizeof", TokenSizeof},
		{"true", TokenTrue},
		{"false", TokenFalse},
		{"_Bool", TokenBool},
		{"bool", TokenBool},
		{"_Noreturn", TokenNoreturn},
		{"_Static_assert", TokenStaticAssert},
		{"static_assert", TokenStaticAssert},
		{"_Thread_local", TokenThreadLocal},
		{"_Atomic", TokenAtomic},
		{"_Generic", TokenGeneric},
	}

	for _, tt := range tests {
		tokenizer := NewTokenizer(tt.input)
		tokens := tokenizer.Tokenize()

		if len(tokens) < 2 {
			t.Fatalf("%s: expected keyword plus EOF, got %d tokens", tt.input, len(tokens))
		}
		if tokens[0].Type != tt.expected {
			t.Errorf("%s: expected token type %d, got %d", tt.input, tt.expected, tokens[0].Type)
		}
		if !tokens[0].IsKeyword() {
			t.Errorf("%s: expected IsKeyword() to be true", tt.input)
		}
	}
}

func TestTokenizerBackslashNewline(t *testing.T) {
	input := "#define WIDE \\\nbody"

	tokenizer := NewTokenizer(input)
	tokens := tokenizer.Tokenize()

	foundBackslash := false
	for i, token := range tokens {
		if token.Type == TokenBackslash {
			foundBackslash = true
			if i+1 >= len(tokens) || tokens[i+1].Type != TokenNewline {
				t.Error("Expected newline token right after backslash")
			}
		}
	}
	if !foundBackslash {
		t.Error("Expected to find backslash token")
	}
}

func TestTokenizerUnknown(t *testing.T) {
	input := `@ $`

	tokenizer := NewTokenizer(input)
	tokens := tokenizer.Tokenize()

	// Unrecognized characters become unknown tokens, not errors.
	if tokenizer.HasErrors() {
		t.Fatalf("Unexpected tokenizer errors: %v", tokenizer.GetErrors())
	}

	unknowns := 0
	for _, token := range tokens {
		if token.Type == TokenUnknown {
			unknowns++
		}
	}
	if unknowns != 2 {
		t.Errorf("Expected 2 unknown tokens, got %d", unknowns)
	}
}

func TestTokenizerPositions(t *testing.T) {
	input := "int x;\n  float y;"

	tokenizer := NewTokenizer(input)
	tokens := tokenizer.Tokenize()

	var intTok, floatTok *Token
	for i := range tokens {
		switch tokens[i].Type {
		case TokenInt:
			intTok = &tokens[i]
		case TokenFloat:
			floatTok = &tokens[i]
		}
	}

	if intTok == nil || floatTok == nil {
		t.Fatal("Expected to find int and float tokens")
	}
	if intTok.Line != 1 || intTok.Column != 1 || intTok.Offset != 0 {
		t.Errorf("int position: got line %d column %d offset %d", intTok.Line, intTok.Column, intTok.Offset)
	}
	if floatTok.Line != 2 || floatTok.Column != 3 {
		t.Errorf("float position: got line %d column %d", floatTok.Line, floatTok.Column)
	}
	if input[floatTok.Offset:floatTok.Offset+len(floatTok.Value)] != "float" {
		t.Error("float offset does not slice back to the token text")
	}
}

func TestTokenizerOffsetsReconstructSource(t *testing.T) {
	input := "#include <sys/stat.h>\n"

	tokenizer := NewTokenizer(input)
	tokens := tokenizer.Tokenize()

	// Every non-EOF token's offset and value must slice the input exactly.
	for _, token := range tokens {
		if token.Type == TokenEOF {
			continue
		}
		got := input[token.Offset : token.Offset+len(token.Value)]
		if got != token.Value {
			t.Errorf("Token %s: offset slice %q does not match value %q", token, got, token.Value)
		}
	}
}
