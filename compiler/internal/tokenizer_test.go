package internal

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func tokenize(t *testing.T, content string) []*Token {
	tokenizer := &Tokenizer{}
	tokens, err := tokenizer.Tokenize(bytes.NewReader([]byte(content)))
	assert.Nil(t, err, content)
	return tokens
}

func tokenTypes(tokens []*Token) []TokenType {
	var ret []TokenType
	for _, token := range tokens {
		ret = append(ret, token.tp)
	}
	return ret
}

func TestTokenizer_TrimSpace(t *testing.T) {
	testData := []struct {
		content     string
		expectedPos int
	}{
		{content: "   \thello", expectedPos: 4},
		{content: "hello", expectedPos: 0},
		{content: "  \n  ", expectedPos: 5},
	}
	tokenizer := &Tokenizer{}
	for _, data := range testData {
		tokenizer.currentPos = 0
		tokenizer.trimSpace([]byte(data.content))
		assert.Equal(t, data.expectedPos, tokenizer.currentPos, data.content)
	}
}

func TestTokenizer_hasRemainCharacters(t *testing.T) {
	tokenizer := &Tokenizer{}
	tokenizer.currentPos = 0
	assert.True(t, tokenizer.hasRemainCharacters([]byte("b")))
	tokenizer.currentPos = 1
	assert.False(t, tokenizer.hasRemainCharacters([]byte("b")))
}

func TestTokenizer_TokenSymbol(t *testing.T) {
	testData := []struct {
		symbol      string
		expectedTP  TokenType
		expectedEnd int
	}{
		{"{", LeftBraceTP, 1},
		{"}", RightBraceTP, 1},
		{"[", LeftSquareBracketTP, 1},
		{"(", LeftParentThesesTP, 1},
		{";", SemiColonTP, 1},
		{"%", ModTP, 1},
		{"=", AssignTP, 1},
		{"==", EqualTP, 2},
		{"!=", NotEqualTP, 2},
		{"!x", NotTP, 1},
		{"<=", LessEqualTP, 2},
		{"<3", LessTP, 1},
		{">=", GreaterEqualTP, 2},
		{"&&", AndTP, 2},
		{"||", OrTP, 2},
	}
	tokenizer := &Tokenizer{}
	for _, data := range testData {
		tokenizer.currentPos = 0
		token, err := tokenizer.tokenSymbol([]byte(data.symbol))
		assert.Nil(t, err, data.symbol)
		assert.Equal(t, data.expectedTP, token.tp, data.symbol)
		assert.Equal(t, data.expectedEnd, token.endPos, data.symbol)
	}
	for _, symbol := range []string{"&", "|", "@", "#"} {
		tokenizer.currentPos = 0
		_, err := tokenizer.tokenSymbol([]byte(symbol))
		assert.NotNil(t, err, symbol)
	}
}

func TestTokenizer_TokenNumber(t *testing.T) {
	testData := []struct {
		content    string
		expectedTP TokenType
		expected   string
	}{
		{"123", IntegerTP, "123"},
		{"0;", IntegerTP, "0"},
		{"1.5", DecimalTP, "1.5"},
		{"3.14)", DecimalTP, "3.14"},
		{"2.", IntegerTP, "2"},
		{"1.2.3", DecimalTP, "1.2"},
	}
	tokenizer := &Tokenizer{}
	for _, data := range testData {
		tokenizer.currentPos = 0
		token, err := tokenizer.tokenNumber([]byte(data.content))
		assert.Nil(t, err, data.content)
		assert.Equal(t, data.expectedTP, token.tp, data.content)
		assert.Equal(t, data.expected, token.content, data.content)
	}
	tokenizer.currentPos = 0
	_, err := tokenizer.tokenNumber([]byte("12ab"))
	assert.NotNil(t, err)
}

func TestTokenizer_TokenString(t *testing.T) {
	testData := []struct {
		content  string
		expected string
	}{
		{`"hello"`, "hello"},
		{`"" rest`, ""},
		{`"a\"b"`, `a"b`},
		{`"line\n"`, "line\n"},
		{`"tab\there\\"`, "tab\there\\"},
	}
	tokenizer := &Tokenizer{}
	for _, data := range testData {
		tokenizer.currentPos = 0
		token, err := tokenizer.tokenString([]byte(data.content))
		assert.Nil(t, err, data.content)
		assert.Equal(t, StringTP, token.tp)
		assert.Equal(t, data.expected, token.content, data.content)
	}
	for _, content := range []string{`"unclosed`, `"bad \q escape"`} {
		tokenizer.currentPos = 0
		_, err := tokenizer.tokenString([]byte(content))
		assert.NotNil(t, err, content)
	}
}

func TestTokenizer_KeywordsAndIdentifiers(t *testing.T) {
	tokens := tokenize(t, "class if else while for return new true false int float bool string void classy _x x1")
	assert.Equal(t, []TokenType{ClassTP, IfTP, ElseTP, WhileTP, ForTP, ReturnTP, NewTP, TrueTP, FalseTP, IntTP,
		FloatTP, BoolTP, StringKeyWordTP, VoidTP, IdentifierTP, IdentifierTP, IdentifierTP}, tokenTypes(tokens))
	assert.True(t, isKeyWord("while"))
	assert.False(t, isKeyWord("println"))
}

func TestTokenizer_Tokenize(t *testing.T) {
	content := `int x = 10; // trailing comment
/* a block
   comment spanning lines */ float y = 2.5;
string s = "a // not a comment";
if (x >= 3 && !done) { x = x % 2; }`
	tokens := tokenize(t, content)
	assert.Equal(t, []TokenType{
		IntTP, IdentifierTP, AssignTP, IntegerTP, SemiColonTP,
		FloatTP, IdentifierTP, AssignTP, DecimalTP, SemiColonTP,
		StringKeyWordTP, IdentifierTP, AssignTP, StringTP, SemiColonTP,
		IfTP, LeftParentThesesTP, IdentifierTP, GreaterEqualTP, IntegerTP, AndTP, NotTP, IdentifierTP,
		RightParentThesesTP, LeftBraceTP, IdentifierTP, AssignTP, IdentifierTP, ModTP, IntegerTP, SemiColonTP,
		RightBraceTP,
	}, tokenTypes(tokens))
	assert.Equal(t, 1, tokens[0].line)
	assert.Equal(t, 3, tokens[5].line)
	assert.Equal(t, "a // not a comment", tokens[13].content)
	assert.Equal(t, 5, tokens[len(tokens)-1].line)
}

func TestTokenizer_CommentOnSameLine(t *testing.T) {
	tokens := tokenize(t, "a /* one */ b /* two */ c")
	assert.Equal(t, []TokenType{IdentifierTP, IdentifierTP, IdentifierTP}, tokenTypes(tokens))
}

func TestTokenizer_Errors(t *testing.T) {
	testData := []string{
		"int x = 1 & 2;",
		"/* never closed",
		`string s = "open;`,
		"int 9lives = 1;",
	}
	for _, content := range testData {
		tokenizer := &Tokenizer{}
		_, err := tokenizer.Tokenize(strings.NewReader(content))
		assert.NotNil(t, err, content)
	}
}

func TestTokenizer_Reset(t *testing.T) {
	tokenizer := &Tokenizer{}
	_, err := tokenizer.Tokenize(strings.NewReader("a b"))
	assert.Nil(t, err)
	tokenizer.Reset()
	tokens, err := tokenizer.Tokenize(strings.NewReader("c"))
	assert.Nil(t, err)
	assert.Equal(t, 1, len(tokens))
	assert.Equal(t, 1, tokens[0].line)
}
