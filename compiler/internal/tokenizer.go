package internal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"unicode"

	"github.com/idashbox/Compiler-Task-1/util"
)

// A simple Tokenizer for mel.

// Mel language has those elements:
// * KeyWord: class, if, else, while, for, return, new, true, false, int, float, bool, string, void.
// * Symbol: {, }, (, ), [, ], ., ,, ;, +, -, *, /, %, =, ==, !=, <, <=, >, >=, !, &&, ||.
// * Constant: integer (10), float (1.5), string ("xxx" with \n \t \" \\ escapes).
// * Identifier: letters, digits, underscore, not starting with a digit.
// * Comment: /**/, //.

type TokenType int

const (
	ClassTP              TokenType = iota // class
	IfTP                                  // if
	ElseTP                                // else
	WhileTP                               // while
	ForTP                                 // for
	ReturnTP                              // return
	NewTP                                 // new
	TrueTP                                // true
	FalseTP                               // false
	IntTP                                 // int
	FloatTP                               // float
	BoolTP                                // bool
	StringKeyWordTP                       // string
	VoidTP                                // void
	LeftBraceTP                           // {
	RightBraceTP                          // }
	LeftParentThesesTP                    // (
	RightParentThesesTP                   // )
	LeftSquareBracketTP                   // [
	RightSquareBracketTP                  // ]
	DotTP                                 // .
	CommaTP                               // ,
	SemiColonTP                           // ;
	AddTP                                 // +
	MinusTP                               // -
	MultiplyTP                            // *
	DivideTP                              // /
	ModTP                                 // %
	AssignTP                              // =
	EqualTP                               // ==
	NotEqualTP                            // !=
	LessTP                                // <
	LessEqualTP                           // <=
	GreaterTP                             // >
	GreaterEqualTP                        // >=
	NotTP                                 // !
	AndTP                                 // &&
	OrTP                                  // ||
	IntegerTP                             // 1010
	DecimalTP                             // 3.14
	StringTP                              // "xxx"
	IdentifierTP                          // varA
)

// keyWordTokenTPMap is the mapping from identifier to the corresponding TokenTP.
var keyWordTokenTPMap = map[string]TokenType{
	"class":  ClassTP,
	"if":     IfTP,
	"else":   ElseTP,
	"while":  WhileTP,
	"for":    ForTP,
	"return": ReturnTP,
	"new":    NewTP,
	"true":   TrueTP,
	"false":  FalseTP,
	"int":    IntTP,
	"float":  FloatTP,
	"bool":   BoolTP,
	"string": StringKeyWordTP,
	"void":   VoidTP,
}

// symbolTokenTPMap holds every operator and punctuation. Two character symbols are tried first.
var symbolTokenTPMap = map[string]TokenType{
	"{":  LeftBraceTP,
	"}":  RightBraceTP,
	"(":  LeftParentThesesTP,
	")":  RightParentThesesTP,
	"[":  LeftSquareBracketTP,
	"]":  RightSquareBracketTP,
	".":  DotTP,
	",":  CommaTP,
	";":  SemiColonTP,
	"+":  AddTP,
	"-":  MinusTP,
	"*":  MultiplyTP,
	"/":  DivideTP,
	"%":  ModTP,
	"=":  AssignTP,
	"==": EqualTP,
	"!=": NotEqualTP,
	"<":  LessTP,
	"<=": LessEqualTP,
	">":  GreaterTP,
	">=": GreaterEqualTP,
	"!":  NotTP,
	"&&": AndTP,
	"||": OrTP,
}

type Token struct {
	content  string
	line     int
	startPos int
	endPos   int
	tp       TokenType
}

func (t *Token) String() string {
	return fmt.Sprintf("%q@%d", t.content, t.line)
}

type Tokenizer struct {
	currentPos  int
	currentLine int
	inComment   bool
	commentLine int
	tokens      []*Token
}

// getNextToken returns the next token from line, or nil when the line is exhausted.
func (tokenizer *Tokenizer) getNextToken(line []byte) (*Token, error) {
	tokenizer.trimSpace(line)
	if !tokenizer.hasRemainCharacters(line) {
		return nil, nil
	}
	c := line[tokenizer.currentPos]
	switch {
	case c == '/' && tokenizer.peek(line, 1) == '/':
		// The rest of the line is a comment.
		tokenizer.currentPos = len(line)
		return nil, nil
	case c == '/' && tokenizer.peek(line, 1) == '*':
		tokenizer.currentPos += 2
		tokenizer.inComment, tokenizer.commentLine = true, tokenizer.currentLine
		if !tokenizer.skipComment(line) {
			return nil, nil
		}
		return tokenizer.getNextToken(line)
	case c == '"':
		return tokenizer.tokenString(line)
	case util.IsNumber(c):
		return tokenizer.tokenNumber(line)
	case util.IsLetterOrUnderscore(c):
		return tokenizer.toKeywordOrIdentifier(line)
	default:
		return tokenizer.tokenSymbol(line)
	}
}

func (tokenizer *Tokenizer) peek(line []byte, offset int) byte {
	if tokenizer.currentPos+offset >= len(line) {
		return 0
	}
	return line[tokenizer.currentPos+offset]
}

// trimSpace steps forward through line and skips all continuous space.
func (tokenizer *Tokenizer) trimSpace(line []byte) {
	for tokenizer.currentPos < len(line) && unicode.IsSpace(rune(line[tokenizer.currentPos])) {
		tokenizer.currentPos++
	}
}

func (tokenizer *Tokenizer) hasRemainCharacters(line []byte) bool {
	return tokenizer.currentPos < len(line)
}

// skipComment looks for the closing */ on the current line. If it is not there the tokenizer stays
// in comment mode and the following lines are skipped until it is found.
func (tokenizer *Tokenizer) skipComment(line []byte) bool {
	for tokenizer.currentPos < len(line) {
		if line[tokenizer.currentPos] == '*' && tokenizer.peek(line, 1) == '/' {
			tokenizer.currentPos += 2
			tokenizer.inComment = false
			return true
		}
		tokenizer.currentPos++
	}
	return false
}

func (tokenizer *Tokenizer) tokenSymbol(line []byte) (*Token, error) {
	startPos := tokenizer.currentPos
	if tokenizer.currentPos+1 < len(line) {
		symbol := string(line[startPos : startPos+2])
		if tp, ok := symbolTokenTPMap[symbol]; ok {
			tokenizer.currentPos += 2
			return tokenizer.makeToken(symbol, tp, startPos), nil
		}
	}
	symbol := string(line[startPos])
	tp, ok := symbolTokenTPMap[symbol]
	if !ok {
		return nil, tokenizer.makeError(symbol, tokenizer.currentLine, "unknown symbol")
	}
	tokenizer.currentPos++
	return tokenizer.makeToken(symbol, tp, startPos), nil
}

func (tokenizer *Tokenizer) tokenString(line []byte) (*Token, error) {
	// Looking forward through line to find a closing quote which is not escaped.
	startPos := tokenizer.currentPos
	tokenizer.currentPos++
	foundClosingQuote := false
	for tokenizer.currentPos < len(line) {
		c := line[tokenizer.currentPos]
		if c == '\\' {
			tokenizer.currentPos += 2
			continue
		}
		tokenizer.currentPos++
		if c == '"' {
			foundClosingQuote = true
			break
		}
	}
	if !foundClosingQuote {
		return nil, tokenizer.makeError(string(line[startPos:]), tokenizer.currentLine, "incorrect string format")
	}
	content, err := util.UnescapeString(string(line[startPos+1 : tokenizer.currentPos-1]))
	if err != nil {
		return nil, tokenizer.makeError(string(line[startPos:tokenizer.currentPos]), tokenizer.currentLine, err.Error())
	}
	token := tokenizer.makeToken(content, StringTP, startPos)
	return token, nil
}

func (tokenizer *Tokenizer) tokenNumber(line []byte) (*Token, error) {
	startPos := tokenizer.currentPos
	tp := IntegerTP
	for tokenizer.currentPos < len(line) {
		c := line[tokenizer.currentPos]
		if util.IsNumber(c) {
			tokenizer.currentPos++
			continue
		}
		if c == '.' && tp == IntegerTP && util.IsNumber(tokenizer.peek(line, 1)) {
			tp = DecimalTP
			tokenizer.currentPos++
			continue
		}
		break
	}
	if tokenizer.hasRemainCharacters(line) && util.IsLetterOrUnderscore(line[tokenizer.currentPos]) {
		return nil, tokenizer.makeError(string(line[startPos:tokenizer.currentPos+1]), tokenizer.currentLine,
			"incorrect identifier format")
	}
	return tokenizer.makeToken(string(line[startPos:tokenizer.currentPos]), tp, startPos), nil
}

func (tokenizer *Tokenizer) toKeywordOrIdentifier(line []byte) (*Token, error) {
	startPos := tokenizer.currentPos
	for tokenizer.currentPos < len(line) && util.IsLetterOrUnderscoreOrNumber(line[tokenizer.currentPos]) {
		tokenizer.currentPos++
	}
	word := string(line[startPos:tokenizer.currentPos])
	if keyWordTP, isKeyWord := keyWordTokenTPMap[word]; isKeyWord {
		return tokenizer.makeToken(word, keyWordTP, startPos), nil
	}
	return tokenizer.makeToken(word, IdentifierTP, startPos), nil
}

func isKeyWord(word string) bool {
	_, ok := keyWordTokenTPMap[word]
	return ok
}

func (tokenizer *Tokenizer) makeToken(content string, tp TokenType, startPos int) *Token {
	return &Token{
		content:  content,
		line:     tokenizer.currentLine,
		startPos: startPos,
		endPos:   tokenizer.currentPos,
		tp:       tp,
	}
}

func (tokenizer *Tokenizer) makeError(near string, line int, msg string) error {
	return errors.New(fmt.Sprintf("Tokenizer: tokenizer error near %s at line %d, msg: %s", near, line, msg))
}

// Tokenize accepts a source `rd` and tokenizes its content according to mel language rules.
func (tokenizer *Tokenizer) Tokenize(rd io.Reader) ([]*Token, error) {
	bfReader := bufio.NewReader(rd)
	for {
		line, err := bfReader.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return nil, err
		}
		tokenizer.currentLine++
		tokenizer.currentPos = 0
		if parseErr := tokenizer.parseLine(line); parseErr != nil {
			return nil, parseErr
		}
		if err == io.EOF {
			break
		}
	}
	if tokenizer.inComment {
		return nil, tokenizer.makeError("/*", tokenizer.commentLine, "incorrect comment format.")
	}
	return tokenizer.tokens, nil
}

func (tokenizer *Tokenizer) parseLine(line []byte) error {
	if tokenizer.inComment && !tokenizer.skipComment(line) {
		return nil
	}
	for {
		token, err := tokenizer.getNextToken(line)
		if err != nil {
			return err
		}
		if token == nil {
			return nil
		}
		tokenizer.tokens = append(tokenizer.tokens, token)
	}
}

func (tokenizer *Tokenizer) Reset() {
	tokenizer.currentPos, tokenizer.currentLine = 0, 0
	tokenizer.inComment, tokenizer.commentLine = false, 0
	tokenizer.tokens = nil
}
