package compiler

import (
	"github.com/drdynamic/piscript/lang/table"
	"github.com/drdynamic/piscript/lang/token"
	"github.com/drdynamic/piscript/lang/value"
)

func (p *parser) declaration() {
	switch {
	case p.match(token.CLASS):
		p.classDeclaration()
	case p.match(token.FUN):
		p.funDeclaration()
	case p.match(token.VAR):
		p.varDeclaration(false)
	case p.match(token.CONST):
		p.varDeclaration(true)
	default:
		p.statement()
	}

	if p.panicMode {
		p.synchronize()
	}
}

func (p *parser) statement() {
	switch {
	case p.match(token.PRINT):
		p.printStatement()
	case p.match(token.IF):
		p.ifStatement()
	case p.match(token.WHILE):
		p.whileStatement()
	case p.match(token.FOR):
		p.forStatement()
	case p.match(token.RETURN):
		p.returnStatement()
	case p.match(token.REQUIRE):
		p.requireStatement()
	case p.match(token.LBRACE):
		p.beginScope()
		p.block()
		p.endScope()
	default:
		p.expressionStatement()
	}
}

func (p *parser) printStatement() {
	p.expression()
	p.consume(token.SEMI, "Expect ';' after value.")
	p.emitOp(OpPrint)
}

func (p *parser) expressionStatement() {
	p.expression()
	p.consume(token.SEMI, "Expect ';' after expression.")
	p.emitOp(OpPop)
}

// requireStatement only validates that the `require "module";` form
// parses; multi-module loading is out of scope for the core (spec.md §1,
// §9 open question), so the statement compiles to nothing.
func (p *parser) requireStatement() {
	p.consume(token.STRING, "Expect module name string after 'require'.")
	p.consume(token.SEMI, "Expect ';' after require statement.")
}

func (p *parser) ifStatement() {
	p.consume(token.LPAREN, "Expect '(' after 'if'.")
	p.expression()
	p.consume(token.RPAREN, "Expect ')' after condition.")

	thenJump := p.emitJump(OpJumpIfFalse)
	p.emitOp(OpPop)
	p.statement()

	elseJump := p.emitJump(OpJump)
	p.patchJump(thenJump)
	p.emitOp(OpPop)

	if p.match(token.ELSE) {
		p.statement()
	}
	p.patchJump(elseJump)
}

func (p *parser) whileStatement() {
	loopStart := len(p.currentChunk().Code)
	p.consume(token.LPAREN, "Expect '(' after 'while'.")
	p.expression()
	p.consume(token.RPAREN, "Expect ')' after condition.")

	exitJump := p.emitJump(OpJumpIfFalse)
	p.emitOp(OpPop)
	p.statement()
	p.emitLoop(loopStart)

	p.patchJump(exitJump)
	p.emitOp(OpPop)
}

func (p *parser) forStatement() {
	p.beginScope()
	p.consume(token.LPAREN, "Expect '(' after 'for'.")

	switch {
	case p.match(token.SEMI):
		// no initializer
	case p.match(token.VAR):
		p.varDeclaration(false)
	default:
		p.expressionStatement()
	}

	loopStart := len(p.currentChunk().Code)
	exitJump := -1
	if !p.match(token.SEMI) {
		p.expression()
		p.consume(token.SEMI, "Expect ';' after loop condition.")
		exitJump = p.emitJump(OpJumpIfFalse)
		p.emitOp(OpPop)
	}

	if !p.match(token.RPAREN) {
		bodyJump := p.emitJump(OpJump)
		incrementStart := len(p.currentChunk().Code)
		p.expression()
		p.emitOp(OpPop)
		p.consume(token.RPAREN, "Expect ')' after for clauses.")

		p.emitLoop(loopStart)
		loopStart = incrementStart
		p.patchJump(bodyJump)
	}

	p.statement()
	p.emitLoop(loopStart)

	if exitJump != -1 {
		p.patchJump(exitJump)
		p.emitOp(OpPop)
	}
	p.endScope()
}

func (p *parser) returnStatement() {
	if p.cc.funcType == typeScript {
		p.error("Can't return from top-level code.")
	}
	if p.match(token.SEMI) {
		p.emitReturn()
		return
	}
	if p.cc.funcType == typeInitializer {
		p.error("Can't return a value from an initializer.")
	}
	p.expression()
	p.consume(token.SEMI, "Expect ';' after return value.")
	p.emitOp(OpReturn)
}

func (p *parser) block() {
	for !p.check(token.RBRACE) && !p.check(token.EOF) {
		p.declaration()
	}
	p.consume(token.RBRACE, "Expect '}' after block.")
}

func (p *parser) beginScope() { p.cc.scopeDepth++ }

func (p *parser) endScope() {
	p.cc.scopeDepth--
	for !p.cc.locals.IsEmpty() && p.cc.locals.GetLastProps().Depth > p.cc.scopeDepth {
		if p.cc.locals.GetLastProps().IsCaptured {
			p.emitOp(OpCloseUpvalue)
		} else {
			p.emitOp(OpPop)
		}
		p.cc.locals.Pop()
	}
}

// --- declarations --------------------------------------------------------

func (p *parser) varDeclaration(readonly bool) {
	addr, isLocal := p.parseVariable("Expect variable name.", readonly)

	if p.match(token.EQ) {
		p.expression()
	} else {
		p.emitOp(OpNil)
	}
	p.consume(token.SEMI, "Expect ';' after variable declaration.")

	p.defineVariable(addr, isLocal, readonly)
}

func (p *parser) funDeclaration() {
	addr, isLocal := p.parseVariable("Expect function name.", false)
	p.markInitialized()
	p.function(typeFunction)
	p.defineVariable(addr, isLocal, false)
}

func (p *parser) classDeclaration() {
	p.consume(token.IDENT, "Expect class name.")
	nameTok := p.previous
	className := p.intern(p.lexeme(nameTok))
	nameConstIdx := p.currentChunk().AddConstant(className)

	addr, isLocal := p.declareVariableNamed(className, false)

	p.emitIndexOp(OpClass, OpClassLong, nameConstIdx)
	p.defineVariable(addr, isLocal, false)

	cc := &classCompiler{enclosing: p.class}
	p.class = cc

	if p.match(token.LT) {
		p.consume(token.IDENT, "Expect superclass name.")
		superName := p.intern(p.lexeme(p.previous))
		if superName == className {
			p.error("A class can't inherit from itself.")
		}
		p.namedVariableByName(superName, false)

		p.beginScope()
		p.declareLocal(p.intern("super"))
		p.defineLocal()
		p.namedVariableByName(className, false)
		p.emitOp(OpInherit)
		cc.hasSuperclass = true
	}

	p.namedVariableByName(className, false)
	p.consume(token.LBRACE, "Expect '{' before class body.")
	for !p.check(token.RBRACE) && !p.check(token.EOF) {
		p.method()
	}
	p.consume(token.RBRACE, "Expect '}' after class body.")
	p.emitOp(OpPop)

	if cc.hasSuperclass {
		p.endScope()
	}
	p.class = p.class.enclosing
}

func (p *parser) method() {
	p.consume(token.IDENT, "Expect method name.")
	name := p.intern(p.lexeme(p.previous))
	idx := p.currentChunk().AddConstant(name)

	ft := typeMethod
	if name.String() == "init" {
		ft = typeInitializer
	}
	p.function(ft)
	p.emitIndexOp(OpMethod, OpMethodLong, idx)
}

// function compiles a function body into its own sub-compiler, emitting
// OP_CLOSURE with the finished Function as a constant followed by
// upvalueCount (isLocal, index) pairs (spec.md §4.3.3).
func (p *parser) function(ft funcType) {
	name := ""
	if p.previous.Kind == token.IDENT {
		name = p.lexeme(p.previous)
	}
	p.pushCompiler(ft, name)
	p.beginScope()

	p.consume(token.LPAREN, "Expect '(' after function name.")
	if !p.check(token.RPAREN) {
		for {
			p.cc.function.Arity++
			if p.cc.function.Arity > maxParams {
				p.error("Can't have more than 255 parameters.")
			}
			addr, isLocal := p.parseVariable("Expect parameter name.", false)
			p.defineVariable(addr, isLocal, false)
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.consume(token.RPAREN, "Expect ')' after parameters.")
	p.consume(token.LBRACE, "Expect '{' before function body.")
	p.block()

	upvalues := p.cc.upvalues
	fn := p.popCompiler()

	idx := p.currentChunk().AddConstant(fn)
	p.emitIndexOp(OpClosure, OpClosureLong, idx)
	for _, uv := range upvalues {
		if uv.IsLocal {
			p.emitByte(1)
		} else {
			p.emitByte(0)
		}
		p.emitByte(byte(uv.Index))
	}
}

// --- variable declaration helpers -----------------------------------------

func (p *parser) parseVariable(errMsg string, readonly bool) (addr uint32, isLocal bool) {
	p.consume(token.IDENT, errMsg)
	name := p.intern(p.lexeme(p.previous))
	return p.declareVariableNamed(name, readonly)
}

func (p *parser) declareVariableNamed(name *value.String, readonly bool) (addr uint32, isLocal bool) {
	if p.cc.scopeDepth == 0 {
		return p.firstOrMakeGlobal(name, readonly), false
	}
	p.declareLocalReadonly(name, readonly)
	return 0, true
}

func (p *parser) declareLocal(name *value.String) {
	p.declareLocalReadonly(name, false)
}

func (p *parser) declareLocalReadonly(name *value.String, readonly bool) {
	if p.hasLocalInCurrentScope(name) {
		p.error("Already a variable with this name in this scope.")
		return
	}
	if p.cc.locals.Len() >= maxLocals {
		p.error("Too many local variables in function.")
		return
	}
	p.cc.locals.Add(name, table.VarProps{Depth: -1, Readonly: readonly})
}

func (p *parser) hasLocalInCurrentScope(name *value.String) bool {
	for i := p.cc.locals.Len() - 1; i >= 0; i-- {
		props := p.cc.locals.GetProps(uint32(i))
		if props.Depth != -1 && props.Depth < p.cc.scopeDepth {
			break
		}
		if props.Name == name {
			return true
		}
	}
	return false
}

func (p *parser) defineVariable(addr uint32, isLocal bool, readonly bool) {
	if isLocal {
		p.markInitialized()
		return
	}
	// A global name can be redeclared (unlike a local, see
	// hasLocalInCurrentScope): firstOrMakeGlobal returns the existing
	// address rather than erroring. So readonly must be written back here
	// unconditionally, every definition, the same way
	// original_source/src/compiler.c's defineVariable does — otherwise a
	// later `const x = ...` redeclaring an earlier plain `var x = ...`
	// would silently keep the first declaration's Readonly=false.
	p.globals.GetProps(addr).Readonly = readonly
	p.emitIndexOp(OpDefineGlobal, OpDefineGlobalLong, int(addr))
}

func (p *parser) markInitialized() {
	if p.cc.scopeDepth == 0 {
		return
	}
	p.cc.locals.GetLastProps().Depth = p.cc.scopeDepth
}

// defineLocal marks the most recently declared local (the compiler's own
// injected `super` binding) initialized without going through
// defineVariable's global/local branch.
func (p *parser) defineLocal() { p.markInitialized() }
