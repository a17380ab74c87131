package compiler

import (
	"strconv"

	"github.com/drdynamic/piscript/lang/table"
	"github.com/drdynamic/piscript/lang/token"
	"github.com/drdynamic/piscript/lang/value"
)

func grouping(p *parser, _ bool) {
	p.expression()
	p.consume(token.RPAREN, "Expect ')' after expression.")
}

func unary(p *parser, _ bool) {
	opKind := p.previous.Kind
	p.parsePrecedence(PrecUnary)
	switch opKind {
	case token.MINUS:
		p.emitOp(OpNegate)
	case token.BANG:
		p.emitOp(OpNot)
	}
}

func binary(p *parser, _ bool) {
	opKind := p.previous.Kind
	r := p.getRule(opKind)
	p.parsePrecedence(r.precedence + 1)

	switch opKind {
	case token.PLUS:
		p.emitOp(OpAdd)
	case token.MINUS:
		p.emitOp(OpSubtract)
	case token.STAR:
		p.emitOp(OpMultiply)
	case token.SLASH:
		p.emitOp(OpDivide)
	case token.EQ_EQ:
		p.emitOp(OpEqual)
	case token.BANG_EQ:
		p.emitOp(OpNotEqual)
	case token.GT:
		p.emitOp(OpGreater)
	case token.GT_EQ:
		p.emitOp(OpGreaterEqual)
	case token.LT:
		p.emitOp(OpLess)
	case token.LT_EQ:
		p.emitOp(OpLessEqual)
	}
}

func literal(p *parser, _ bool) {
	switch p.previous.Kind {
	case token.FALSE:
		p.emitOp(OpFalse)
	case token.TRUE:
		p.emitOp(OpTrue)
	case token.NIL:
		p.emitOp(OpNil)
	}
}

func number(p *parser, _ bool) {
	n, err := strconv.ParseFloat(p.lexeme(p.previous), 64)
	if err != nil {
		p.error("Invalid number literal.")
		return
	}
	p.emitConstant(value.Number(n))
}

func stringLiteral(p *parser, _ bool) {
	lex := p.lexeme(p.previous)
	// Strip the surrounding quotes; L has no escape sequences.
	s, _ := p.strings.Intern([]byte(lex[1:len(lex)-1]), true)
	p.emitConstant(s)
}

func and_(p *parser, _ bool) {
	endJump := p.emitJump(OpJumpIfFalse)
	p.emitOp(OpPop)
	p.parsePrecedence(PrecAnd)
	p.patchJump(endJump)
}

func or_(p *parser, _ bool) {
	elseJump := p.emitJump(OpJumpIfFalse)
	endJump := p.emitJump(OpJump)
	p.patchJump(elseJump)
	p.emitOp(OpPop)
	p.parsePrecedence(PrecOr)
	p.patchJump(endJump)
}

func arrayLiteral(p *parser, _ bool) {
	n := 0
	if !p.check(token.RBRACK) {
		for {
			p.expression()
			n++
			if n > maxArrayElem {
				p.error("Too many elements in array literal.")
			}
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.consume(token.RBRACK, "Expect ']' after array elements.")
	p.emitBytes(OpArrayInit, byte(n))
}

// index compiles the `[` infix operator: `arr[i]`, `arr[i] = v`, and the
// append form `arr[] = v` (spec.md §3 Array, §4.4 GET/SET_PROPERTY_STACK
// and ARRAY_ADD).
func index(p *parser, canAssign bool) {
	if p.match(token.RBRACK) {
		if !canAssign || !p.match(token.EQ) {
			p.error("Expect '=' after '[]'.")
			return
		}
		p.expression()
		p.emitOp(OpArrayAdd)
		return
	}

	p.expression()
	p.consume(token.RBRACK, "Expect ']' after index.")

	if canAssign && p.match(token.EQ) {
		p.expression()
		p.emitOp(OpSetPropertyStack)
	} else {
		p.emitOp(OpGetPropertyStack)
	}
}

func (p *parser) argumentList() int {
	argc := 0
	if !p.check(token.RPAREN) {
		for {
			p.expression()
			if argc == maxArgs {
				p.error("Can't have more than 255 arguments.")
			}
			argc++
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.consume(token.RPAREN, "Expect ')' after arguments.")
	return argc
}

func call(p *parser, _ bool) {
	argc := p.argumentList()
	p.emitBytes(OpCall, byte(argc))
}

func dot(p *parser, canAssign bool) {
	p.consume(token.IDENT, "Expect property name after '.'.")
	name := p.intern(p.lexeme(p.previous))
	idx := p.currentChunk().AddConstant(name)

	switch {
	case canAssign && p.match(token.EQ):
		p.expression()
		p.emitIndexOp(OpSetProperty, OpSetPropertyLong, idx)
	case p.match(token.LPAREN):
		argc := p.argumentList()
		p.emitIndexOp(OpInvoke, OpInvokeLong, idx)
		p.emitByte(byte(argc))
	default:
		p.emitIndexOp(OpGetProperty, OpGetPropertyLong, idx)
	}
}

func this_(p *parser, _ bool) {
	if p.class == nil {
		p.error("Can't use 'this' outside of a class.")
		return
	}
	variable(p, false)
}

func super_(p *parser, _ bool) {
	if p.class == nil {
		p.error("Can't use 'super' outside of a class.")
		return
	} else if !p.class.hasSuperclass {
		p.error("Can't use 'super' in a class with no superclass.")
	}

	p.consume(token.DOT, "Expect '.' after 'super'.")
	p.consume(token.IDENT, "Expect superclass method name.")
	name := p.intern(p.lexeme(p.previous))
	idx := p.currentChunk().AddConstant(name)

	// `this`/`super` desugar to the compiler's own lexically-reserved
	// local names rather than a token fabricated from source text, since
	// they never appear in the scanned token stream at this point (spec.md
	// §6 "SYNTHETIC tokens are produced internally for this/super
	// desugaring").
	p.namedVariableByName(p.intern("this"), false)
	if p.match(token.LPAREN) {
		argc := p.argumentList()
		p.namedVariableByName(p.intern("super"), false)
		p.emitIndexOp(OpSuperInvoke, OpSuperInvokeLong, idx)
		p.emitByte(byte(argc))
	} else {
		p.namedVariableByName(p.intern("super"), false)
		p.emitIndexOp(OpGetSuper, OpGetSuperLong, idx)
	}
}

func variable(p *parser, canAssign bool) {
	p.namedVariableByName(p.intern(p.lexeme(p.previous)), canAssign)
}

func (p *parser) namedVariableByName(name *value.String, canAssign bool) {
	var getOp, getLong, setOp, setLong OpCode
	var addr uint32
	var readonly bool

	if a, ok, uninit := resolveLocal(p.cc, name); ok {
		if uninit {
			p.error("Can't read local variable in its own initializer.")
		}
		addr = a
		readonly = p.cc.locals.GetProps(a).Readonly
		getOp, getLong = OpGetLocal, OpGetLocalLong
		setOp, setLong = OpSetLocal, OpSetLocalLong
	} else if a, ok := p.resolveUpvalue(p.cc, name); ok {
		addr = a
		setOp, getOp = OpSetUpvalue, OpGetUpvalue
		if canAssign && p.match(token.EQ) {
			p.expression()
			p.emitBytes(setOp, byte(addr))
			return
		}
		p.emitBytes(getOp, byte(addr))
		return
	} else {
		addr = p.firstOrMakeGlobal(name, false)
		readonly = p.globals.GetProps(addr).Readonly
		getOp, getLong = OpGetGlobal, OpGetGlobalLong
		setOp, setLong = OpSetGlobal, OpSetGlobalLong
	}

	if canAssign && p.match(token.EQ) {
		if readonly {
			p.error("Can not assign to constant.")
		}
		p.expression()
		p.emitIndexOp(setOp, setLong, int(addr))
		return
	}
	p.emitIndexOp(getOp, getLong, int(addr))
}

// resolveLocal looks up name in cc's own address table. uninit reports
// whether the binding is still mid-initializer (depth == -1).
func resolveLocal(cc *compilerCtx, name *value.String) (addr uint32, ok bool, uninit bool) {
	a, ok := cc.locals.GetAddress(name)
	if !ok {
		return 0, false, false
	}
	return a, true, cc.locals.GetProps(a).Depth == -1
}

// resolveUpvalue implements spec.md §4.3.2 step 2: recurse into the
// enclosing compiler, capturing a matching local (marking it isCaptured)
// or a matching upvalue found further out, deduplicating identical
// captures.
func (p *parser) resolveUpvalue(cc *compilerCtx, name *value.String) (uint32, bool) {
	if cc.enclosing == nil {
		return 0, false
	}
	if addr, ok, uninit := resolveLocal(cc.enclosing, name); ok {
		if uninit {
			p.error("Can't read local variable in its own initializer.")
		}
		cc.enclosing.locals.GetProps(addr).IsCaptured = true
		return p.addUpvalue(cc, value.UpvalueDesc{IsLocal: true, Index: int(addr)})
	}
	if addr, ok := p.resolveUpvalue(cc.enclosing, name); ok {
		return p.addUpvalue(cc, value.UpvalueDesc{IsLocal: false, Index: int(addr)})
	}
	return 0, false
}

func (p *parser) addUpvalue(cc *compilerCtx, desc value.UpvalueDesc) (uint32, bool) {
	for i, existing := range cc.upvalues {
		if existing == desc {
			return uint32(i), true
		}
	}
	if len(cc.upvalues) >= maxUpvalues {
		p.error("Too many closure variables in function.")
		return 0, true
	}
	cc.upvalues = append(cc.upvalues, desc)
	return uint32(len(cc.upvalues) - 1), true
}

// firstOrMakeGlobal returns the stable address for name in the shared
// globals address table, creating the binding on first reference
// (spec.md §4.3.2 "firstOrMakeGlobal").
func (p *parser) firstOrMakeGlobal(name *value.String, readonly bool) uint32 {
	if addr, ok := p.globals.GetAddress(name); ok {
		return addr
	}
	return p.globals.Add(name, table.VarProps{Depth: 0, Readonly: readonly})
}
