package internal

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

type Parser struct {
	currentTokenPos int
	currentTokens   []*Token
}

// Parse tokenizes rd and parses the whole program.
func (parser *Parser) Parse(rd io.Reader) (*StmtListAst, error) {
	tokenizer := &Tokenizer{}
	tokens, err := tokenizer.Tokenize(rd)
	if err != nil {
		return nil, err
	}
	parser.reset()
	parser.currentTokens = tokens
	return parser.ParseProgram()
}

func (parser *Parser) reset() {
	parser.currentTokenPos, parser.currentTokens = 0, nil
}

// ParseProgram parses statements until the tokens are exhausted.
func (parser *Parser) ParseProgram() (*StmtListAst, error) {
	program := &StmtListAst{}
	for parser.hasRemainTokens() {
		if _, match := parser.expectToken(SemiColonTP, true); match {
			continue
		}
		stm, err := parser.parseStatement()
		if err != nil {
			return nil, err
		}
		program.Statements = append(program.Statements, stm)
	}
	return program, nil
}

// {
//    statements
// }
func (parser *Parser) parseBlock() (*StmtListAst, error) {
	if _, match := parser.expectToken(LeftBraceTP, true); !match {
		return nil, parser.makeError(true)
	}
	block := &StmtListAst{}
	for {
		if !parser.hasRemainTokens() {
			return nil, parser.makeError(true)
		}
		if _, match := parser.expectToken(RightBraceTP, true); match {
			return block, nil
		}
		if _, match := parser.expectToken(SemiColonTP, true); match {
			continue
		}
		stm, err := parser.parseStatement()
		if err != nil {
			return nil, err
		}
		block.Statements = append(block.Statements, stm)
	}
}

func (parser *Parser) parseStatement() (Ast, error) {
	token, err := parser.getCurrentToken()
	if err != nil {
		return nil, err
	}
	switch token.tp {
	case LeftBraceTP:
		return parser.parseBlock()
	case IfTP:
		return parser.parseIfStatement()
	case WhileTP:
		return parser.parseWhileStatement()
	case ForTP:
		return parser.parseForStatement()
	case ClassTP:
		return parser.parseClassDeclaration()
	case ReturnTP:
		return parser.parseReturnStatement()
	}
	if parser.isTypeStart() {
		typeName, err := parser.parseTypeName()
		if err != nil {
			return nil, err
		}
		if parser.peekToken(0, IdentifierTP) && parser.peekToken(1, LeftParentThesesTP) {
			return parser.parseFuncDeclaration(typeName)
		}
		return parser.finishStatement(parser.parseVarsDeclaration(typeName))
	}
	return parser.finishStatement(parser.parseSimpleStatement())
}

func (parser *Parser) finishStatement(stm Ast, err error) (Ast, error) {
	if err != nil {
		return nil, err
	}
	if _, match := parser.expectToken(SemiColonTP, true); !match {
		return nil, parser.makeError(true)
	}
	return stm, nil
}

// isTypeStart reports whether the current tokens begin a type: a primitive keyword, `Name name` or `Name[]`.
func (parser *Parser) isTypeStart() bool {
	token, err := parser.getCurrentToken()
	if err != nil {
		return false
	}
	if isTypeKeyWord(token.tp) {
		return true
	}
	if token.tp != IdentifierTP {
		return false
	}
	return parser.peekToken(1, IdentifierTP) ||
		(parser.peekToken(1, LeftSquareBracketTP) && parser.peekToken(2, RightSquareBracketTP))
}

func isTypeKeyWord(tp TokenType) bool {
	switch tp {
	case IntTP, FloatTP, BoolTP, StringKeyWordTP, VoidTP:
		return true
	}
	return false
}

// Type like: int | float | bool | string | void | ClassName, followed by any number of [].
func (parser *Parser) parseTypeName() (string, error) {
	token, err := parser.getCurrentToken()
	if err != nil {
		return "", err
	}
	if !isTypeKeyWord(token.tp) && token.tp != IdentifierTP {
		return "", parser.makeError(true)
	}
	parser.stepForward()
	var sb strings.Builder
	sb.WriteString(token.content)
	for parser.peekToken(0, LeftSquareBracketTP) && parser.peekToken(1, RightSquareBracketTP) {
		parser.stepForward()
		parser.stepForward()
		sb.WriteString("[]")
	}
	return sb.String(), nil
}

// Var declaration like: type a = 1, b, c = {1, 2}
func (parser *Parser) parseVarsDeclaration(typeName string) (*VarsDeclAst, error) {
	decl := &VarsDeclAst{TypeName: typeName}
	for {
		name, match := parser.expectToken(IdentifierTP, true)
		if !match {
			return nil, parser.makeError(true)
		}
		binding := &VarBindingAst{Name: name.content}
		if _, match = parser.expectToken(AssignTP, true); match {
			init, err := parser.parseExpression()
			if err != nil {
				return nil, err
			}
			binding.Init = init
		}
		decl.Vars = append(decl.Vars, binding)
		if _, match = parser.expectToken(CommaTP, true); !match {
			return decl, nil
		}
	}
}

// A simple statement is a declaration, an assignment or a function call. It is what may appear
// in the init and step parts of a for statement.
func (parser *Parser) parseSimpleStatement() (Ast, error) {
	if parser.isTypeStart() {
		typeName, err := parser.parseTypeName()
		if err != nil {
			return nil, err
		}
		return parser.parseVarsDeclaration(typeName)
	}
	startToken, err := parser.getCurrentToken()
	if err != nil {
		return nil, err
	}
	target, err := parser.parsePostfixExpression()
	if err != nil {
		return nil, err
	}
	if _, match := parser.expectToken(AssignTP, true); !match {
		if call, isCall := target.(*FuncCallAst); isCall {
			return call, nil
		}
		return nil, parser.makeError(true)
	}
	value, err := parser.parseExpression()
	if err != nil {
		return nil, err
	}
	switch t := target.(type) {
	case *IdentAst, *MemberAccessAst:
		return &AssignAst{Target: t, Value: value}, nil
	case *ArrayIndexAst:
		if ident, ok := t.Array.(*IdentAst); ok {
			return &ArrayAssignAst{ArrayName: ident.Name, Index: t.Index, Value: value}, nil
		}
	}
	return nil, parser.makeErrorAt(startToken, "invalid assignment target")
}

// if (condition) statement [else statement]
func (parser *Parser) parseIfStatement() (Ast, error) {
	if !parser.expectTokens(IfTP, LeftParentThesesTP) {
		return nil, parser.makeError(true)
	}
	condition, err := parser.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, match := parser.expectToken(RightParentThesesTP, true); !match {
		return nil, parser.makeError(true)
	}
	then, err := parser.parseStatement()
	if err != nil {
		return nil, err
	}
	stm := &IfAst{Condition: condition, Then: then}
	if _, match := parser.expectToken(ElseTP, true); match {
		stm.Else, err = parser.parseStatement()
		if err != nil {
			return nil, err
		}
	}
	return stm, nil
}

// while (condition) statement
func (parser *Parser) parseWhileStatement() (Ast, error) {
	if !parser.expectTokens(WhileTP, LeftParentThesesTP) {
		return nil, parser.makeError(true)
	}
	condition, err := parser.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, match := parser.expectToken(RightParentThesesTP, true); !match {
		return nil, parser.makeError(true)
	}
	body, err := parser.parseStatement()
	if err != nil {
		return nil, err
	}
	return &WhileAst{Condition: condition, Body: body}, nil
}

// for (init; condition; step) statement, every part is optional.
func (parser *Parser) parseForStatement() (Ast, error) {
	if !parser.expectTokens(ForTP, LeftParentThesesTP) {
		return nil, parser.makeError(true)
	}
	stm := &ForAst{}
	var err error
	if !parser.peekToken(0, SemiColonTP) {
		if stm.Init, err = parser.parseSimpleStatement(); err != nil {
			return nil, err
		}
	}
	if _, match := parser.expectToken(SemiColonTP, true); !match {
		return nil, parser.makeError(true)
	}
	if !parser.peekToken(0, SemiColonTP) {
		if stm.Condition, err = parser.parseExpression(); err != nil {
			return nil, err
		}
	}
	if _, match := parser.expectToken(SemiColonTP, true); !match {
		return nil, parser.makeError(true)
	}
	if !parser.peekToken(0, RightParentThesesTP) {
		if stm.Step, err = parser.parseSimpleStatement(); err != nil {
			return nil, err
		}
	}
	if _, match := parser.expectToken(RightParentThesesTP, true); !match {
		return nil, parser.makeError(true)
	}
	if stm.Body, err = parser.parseStatement(); err != nil {
		return nil, err
	}
	return stm, nil
}

// return [expression];
func (parser *Parser) parseReturnStatement() (Ast, error) {
	parser.stepForward()
	if _, match := parser.expectToken(SemiColonTP, true); match {
		return &ReturnAst{}, nil
	}
	value, err := parser.parseExpression()
	if err != nil {
		return nil, err
	}
	return parser.finishStatement(&ReturnAst{Value: value}, nil)
}

// type name(type a, type b) { statements }
func (parser *Parser) parseFuncDeclaration(returnTypeName string) (Ast, error) {
	name, _ := parser.expectToken(IdentifierTP, true)
	parser.stepForward()
	decl := &FuncDeclAst{ReturnTypeName: returnTypeName, Name: name.content}
	for !parser.peekToken(0, RightParentThesesTP) {
		if len(decl.Params) > 0 {
			if _, match := parser.expectToken(CommaTP, true); !match {
				return nil, parser.makeError(true)
			}
		}
		typeName, err := parser.parseTypeName()
		if err != nil {
			return nil, err
		}
		paramName, match := parser.expectToken(IdentifierTP, true)
		if !match {
			return nil, parser.makeError(true)
		}
		decl.Params = append(decl.Params, &FuncParamAst{TypeName: typeName, Name: paramName.content})
	}
	parser.stepForward()
	body, err := parser.parseBlock()
	if err != nil {
		return nil, err
	}
	decl.Body = body
	return decl, nil
}

// class Identifier { members }
func (parser *Parser) parseClassDeclaration() (Ast, error) {
	parser.stepForward()
	name, match := parser.expectToken(IdentifierTP, true)
	if !match {
		return nil, parser.makeError(true)
	}
	body, err := parser.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ClassDeclAst{Name: name.content, Body: body}, nil
}

func (parser *Parser) getCurrentToken() (*Token, error) {
	if !parser.hasRemainTokens() {
		return nil, errors.New("unexpected token ends")
	}
	return parser.currentTokens[parser.currentTokenPos], nil
}

func (parser *Parser) stepForward() {
	parser.currentTokenPos++
}

func (parser *Parser) hasRemainTokens() bool {
	return parser.currentTokenPos < len(parser.currentTokens)
}

// peekToken reports whether the token offset positions ahead has type tp, without consuming anything.
func (parser *Parser) peekToken(offset int, tp TokenType) bool {
	pos := parser.currentTokenPos + offset
	return pos < len(parser.currentTokens) && parser.currentTokens[pos].tp == tp
}

func (parser *Parser) expectTokens(expectedTokenTPs ...TokenType) bool {
	for _, tokenType := range expectedTokenTPs {
		_, ok := parser.expectToken(tokenType, true)
		if !ok {
			return false
		}
	}
	return true
}

func (parser *Parser) expectToken(expectedTokenTp TokenType, walk bool) (*Token, bool) {
	if parser.currentTokenPos >= len(parser.currentTokens) || parser.currentTokens[parser.currentTokenPos].tp !=
		expectedTokenTp {
		return nil, false
	}
	token := parser.currentTokens[parser.currentTokenPos]
	if walk {
		parser.currentTokenPos++
	}
	return token, true
}

func (parser *Parser) makeError(useCurrentPos bool) error {
	currentPos := parser.currentTokenPos
	if !useCurrentPos {
		currentPos--
	}
	if currentPos < 0 || currentPos >= len(parser.currentTokens) {
		return errors.New("unexpected token ends")
	}
	currentToken := parser.currentTokens[currentPos]
	return errors.New(fmt.Sprintf("syntax error near %s at line %d", currentToken.content,
		currentToken.line))
}

func (parser *Parser) makeErrorAt(token *Token, msg string) error {
	return errors.New(fmt.Sprintf("syntax error near %s at line %d: %s", token.content, token.line, msg))
}
