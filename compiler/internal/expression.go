package internal

import (
	"math"
	"strconv"
)

func buildExpressionsTree(ops []*OpAst, exprTerms []Ast) Ast {
	if len(ops) == 0 {
		return exprTerms[0]
	}
	ret, _ := buildExpressionsTree0(ops, exprTerms, exprTerms[0], 0, 0)
	return ret
}

// buildExpressionsTree0 extends lhs, which already covers exprTerms[:loc+1], with ops[loc:] while their
// priority is at least minPriority. Operators of equal priority associate to the left.
func buildExpressionsTree0(ops []*OpAst, exprTerms []Ast, lhs Ast, loc int, minPriority int) (Ast, int) {
	i := loc
	for i < len(ops) && ops[i].priority >= minPriority {
		op := ops[i]
		rhs := exprTerms[i+1]
		j := i + 1
		for j < len(ops) && ops[j].priority > op.priority {
			rhs, j = buildExpressionsTree0(ops, exprTerms, rhs, j, ops[j].priority)
		}
		lhs = &BinOpAst{Op: op.Op, Left: lhs, Right: rhs}
		i = j
	}
	return lhs, i
}

func (parser *Parser) parseExpressions(closing TokenType) (exprs []Ast, err error) {
	if _, match := parser.expectToken(closing, false); match {
		return nil, nil
	}
	for {
		expression, err := parser.parseExpression()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, expression)
		if _, match := parser.expectToken(CommaTP, true); !match {
			return exprs, nil
		}
	}
}

func (parser *Parser) parseExpression() (Ast, error) {
	leftExprTerm, err := parser.parseExpressionTerm()
	if err != nil {
		return nil, err
	}
	var ops []*OpAst
	exprTerms := []Ast{leftExprTerm}
	for parser.matchOp() {
		op := binaryOps[parser.currentTokens[parser.currentTokenPos].tp]
		parser.stepForward()
		exprTerm, err := parser.parseExpressionTerm()
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
		exprTerms = append(exprTerms, exprTerm)
	}
	return buildExpressionsTree(ops, exprTerms), nil
}

func (parser *Parser) matchOp() bool {
	token, err := parser.getCurrentToken()
	if err != nil {
		return false
	}
	_, ok := binaryOps[token.tp]
	return ok
}

// parseExpressionTerm parses an operand of a binary expression: a unary operation or a postfix expression.
func (parser *Parser) parseExpressionTerm() (Ast, error) {
	token, err := parser.getCurrentToken()
	if err != nil {
		return nil, err
	}
	switch token.tp {
	case MinusTP, NotTP:
		return parser.parseNegationExpressionTerm()
	}
	term, err := parser.parsePostfixExpression()
	if err != nil {
		return nil, err
	}
	if literal, ok := term.(*LiteralAst); ok {
		if v, isInt := literal.Value.(int64); isInt && v > math.MaxInt32 {
			return nil, parser.makeErrorAt(token, "integer literal out of range")
		}
	}
	return term, nil
}

// parseNegationExpressionTerm parses -term and !term. A minus directly applied to a numeric literal
// produces a negative literal.
func (parser *Parser) parseNegationExpressionTerm() (Ast, error) {
	token, _ := parser.getCurrentToken()
	parser.stepForward()
	next, err := parser.getCurrentToken()
	if err != nil {
		return nil, err
	}
	if token.tp == MinusTP && (next.tp == IntegerTP || next.tp == DecimalTP) {
		literal, err := parser.parseConstantExpressionTerm()
		if err != nil {
			return nil, err
		}
		switch v := literal.Value.(type) {
		case int64:
			if -v < math.MinInt32 {
				return nil, parser.makeErrorAt(next, "integer literal out of range")
			}
			literal.Value = -v
		case float64:
			literal.Value = -v
		}
		return literal, nil
	}
	operand, err := parser.parseExpressionTerm()
	if err != nil {
		return nil, err
	}
	op := NegationOpTP
	if token.tp == NotTP {
		op = NotOpTP
	}
	return &UnaryOpAst{Op: op, Operand: operand}, nil
}

// parsePostfixExpression parses a primary followed by any number of .member and [index] suffixes.
func (parser *Parser) parsePostfixExpression() (Ast, error) {
	expr, err := parser.parsePrimaryExpression()
	if err != nil {
		return nil, err
	}
	for parser.hasRemainTokens() {
		token, _ := parser.getCurrentToken()
		switch token.tp {
		case DotTP:
			parser.stepForward()
			member, match := parser.expectToken(IdentifierTP, true)
			if !match {
				return nil, parser.makeError(true)
			}
			if _, isCall := parser.expectToken(LeftParentThesesTP, false); isCall {
				return nil, parser.makeErrorAt(member, "method calls are not supported")
			}
			expr = &MemberAccessAst{Object: expr, Member: member.content}
		case LeftSquareBracketTP:
			index, err := parser.parseArrayIndexExpression()
			if err != nil {
				return nil, err
			}
			expr = &ArrayIndexAst{Array: expr, Index: index}
		default:
			return expr, nil
		}
	}
	return expr, nil
}

func (parser *Parser) parsePrimaryExpression() (Ast, error) {
	token, err := parser.getCurrentToken()
	if err != nil {
		return nil, err
	}
	switch token.tp {
	case IntegerTP, DecimalTP, StringTP, TrueTP, FalseTP:
		return parser.parseConstantExpressionTerm()
	case IdentifierTP:
		if parser.peekToken(1, LeftParentThesesTP) {
			return parser.parseFuncCall()
		}
		parser.stepForward()
		return &IdentAst{Name: token.content}, nil
	case LeftParentThesesTP:
		return parser.parseSubExpressionTerm()
	case LeftBraceTP:
		return parser.parseArrayLiteral()
	case NewTP:
		return parser.parseNewExpression()
	default:
		return nil, parser.makeError(true)
	}
}

func (parser *Parser) parseConstantExpressionTerm() (*LiteralAst, error) {
	token, err := parser.getCurrentToken()
	if err != nil {
		return nil, err
	}
	term := new(LiteralAst)
	switch token.tp {
	case IntegerTP:
		v, err := strconv.ParseInt(token.content, 10, 64)
		if err != nil || v > math.MaxInt32+1 {
			return nil, parser.makeErrorAt(token, "integer literal out of range")
		}
		term.Value = v
	case DecimalTP:
		v, err := strconv.ParseFloat(token.content, 64)
		if err != nil {
			return nil, parser.makeErrorAt(token, "incorrect float literal")
		}
		term.Value = v
	case StringTP:
		term.Value = token.content
	case TrueTP:
		term.Value = true
	case FalseTP:
		term.Value = false
	default:
		return nil, parser.makeError(true)
	}
	parser.stepForward()
	return term, nil
}

// ( expression )
func (parser *Parser) parseSubExpressionTerm() (Ast, error) {
	parser.stepForward()
	expr, err := parser.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, match := parser.expectToken(RightParentThesesTP, true); !match {
		return nil, parser.makeError(true)
	}
	return expr, nil
}

// { expression, expression, ... }
func (parser *Parser) parseArrayLiteral() (Ast, error) {
	parser.stepForward()
	elements, err := parser.parseExpressions(RightBraceTP)
	if err != nil {
		return nil, err
	}
	if _, match := parser.expectToken(RightBraceTP, true); !match {
		return nil, parser.makeError(true)
	}
	return &ArrayLiteralAst{Elements: elements}, nil
}

// new ClassName() | new type[size]
func (parser *Parser) parseNewExpression() (Ast, error) {
	parser.stepForward()
	typeToken, err := parser.getCurrentToken()
	if err != nil {
		return nil, err
	}
	if !isTypeKeyWord(typeToken.tp) && typeToken.tp != IdentifierTP {
		return nil, parser.makeError(true)
	}
	parser.stepForward()
	if typeToken.tp == IdentifierTP && parser.expectTokens(LeftParentThesesTP, RightParentThesesTP) {
		return &NewInstanceAst{ClassName: typeToken.content}, nil
	}
	size, err := parser.parseArrayIndexExpression()
	if err != nil {
		return nil, err
	}
	return &NewArrayAst{ElemTypeName: typeToken.content, Size: size}, nil
}

// [ expression ]
func (parser *Parser) parseArrayIndexExpression() (Ast, error) {
	if _, match := parser.expectToken(LeftSquareBracketTP, true); !match {
		return nil, parser.makeError(true)
	}
	expr, err := parser.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, match := parser.expectToken(RightSquareBracketTP, true); !match {
		return nil, parser.makeError(true)
	}
	return expr, nil
}

// name ( args )
func (parser *Parser) parseFuncCall() (*FuncCallAst, error) {
	name, match := parser.expectToken(IdentifierTP, true)
	if !match {
		return nil, parser.makeError(true)
	}
	if _, match = parser.expectToken(LeftParentThesesTP, true); !match {
		return nil, parser.makeError(true)
	}
	args, err := parser.parseExpressions(RightParentThesesTP)
	if err != nil {
		return nil, err
	}
	if _, match = parser.expectToken(RightParentThesesTP, true); !match {
		return nil, parser.makeError(true)
	}
	return &FuncCallAst{Name: name.content, Args: args}, nil
}
