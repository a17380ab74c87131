package compiler

import "github.com/drdynamic/piscript/lang/token"

// Precedence orders binding strength from loosest to tightest, per
// spec.md §4.3.1.
type Precedence int

const (
	PrecNone Precedence = iota
	PrecAssignment
	PrecOr
	PrecAnd
	PrecEquality
	PrecComparison
	PrecTerm
	PrecFactor
	PrecUnary
	PrecCall
	PrecPrimary
)

type parseFn func(p *parser, canAssign bool)

type rule struct {
	prefix     parseFn
	infix      parseFn
	precedence Precedence
}

// rules is the Pratt dispatch table, indexed by token.Kind (spec.md
// §4.3.1, §9 "Pratt table indexed by token type").
var rules [int(token.WHILE) + 1]rule

func init() {
	set := func(k token.Kind, prefix, infix parseFn, prec Precedence) {
		rules[k] = rule{prefix, infix, prec}
	}

	set(token.LPAREN, grouping, call, PrecCall)
	set(token.LBRACK, arrayLiteral, index, PrecCall)
	set(token.DOT, nil, dot, PrecCall)
	set(token.MINUS, unary, binary, PrecTerm)
	set(token.PLUS, nil, binary, PrecTerm)
	set(token.SLASH, nil, binary, PrecFactor)
	set(token.STAR, nil, binary, PrecFactor)
	set(token.BANG, unary, nil, PrecNone)
	set(token.BANG_EQ, nil, binary, PrecEquality)
	set(token.EQ_EQ, nil, binary, PrecEquality)
	set(token.GT, nil, binary, PrecComparison)
	set(token.GT_EQ, nil, binary, PrecComparison)
	set(token.LT, nil, binary, PrecComparison)
	set(token.LT_EQ, nil, binary, PrecComparison)
	set(token.IDENT, variable, nil, PrecNone)
	set(token.STRING, stringLiteral, nil, PrecNone)
	set(token.NUMBER, number, nil, PrecNone)
	set(token.AND, nil, and_, PrecAnd)
	set(token.OR, nil, or_, PrecOr)
	set(token.FALSE, literal, nil, PrecNone)
	set(token.TRUE, literal, nil, PrecNone)
	set(token.NIL, literal, nil, PrecNone)
	set(token.THIS, this_, nil, PrecNone)
	set(token.SUPER, super_, nil, PrecNone)
}

func (p *parser) getRule(k token.Kind) rule { return rules[k] }

// parsePrecedence is the heart of the Pratt loop (spec.md §4.3.1).
func (p *parser) parsePrecedence(prec Precedence) {
	p.advance()
	prefixRule := p.getRule(p.previous.Kind).prefix
	if prefixRule == nil {
		p.error("Expect expression.")
		return
	}

	canAssign := prec <= PrecAssignment
	prefixRule(p, canAssign)

	for prec <= p.getRule(p.current.Kind).precedence {
		p.advance()
		infixRule := p.getRule(p.previous.Kind).infix
		infixRule(p, canAssign)
	}

	if canAssign && p.match(token.EQ) {
		p.error("Invalid assignment target.")
	}
}

func (p *parser) expression() { p.parsePrecedence(PrecAssignment) }
