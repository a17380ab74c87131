// Package compiler implements L's single-pass front end: a Pratt
// expression parser fused with local/upvalue/global resolution and
// bytecode emission (spec.md §4.3). It depends only on lang/token (the
// fixed scanner contract), lang/scanner (the one supplied scanner), and
// lang/value/lang/table for the object and address-table model it
// shares with lang/vm. It never imports lang/vm: the VM owns the shared
// string-intern table and globals address table and hands pointers to
// both into Compile.
package compiler

import (
	"fmt"
	"io"
	"os"

	"github.com/drdynamic/piscript/lang/scanner"
	"github.com/drdynamic/piscript/lang/table"
	"github.com/drdynamic/piscript/lang/token"
	"github.com/drdynamic/piscript/lang/value"
)

// maxLocals caps a function's local slots at 256, slot 0 included, so
// the 256th declared local is rejected even though GET_LOCAL has a long
// form, because frame slot arithmetic assumes a 256-slot-per-frame
// budget (spec.md §5 STACK_MAX). maxUpvalues is the number of upvalues a
// one-byte GET_UPVALUE/SET_UPVALUE operand can index, so the 257th
// capture is rejected. maxArgs/maxParams/maxArrayElem keep those counts
// within one operand byte.
const (
	maxLocals    = 256
	maxUpvalues  = 256
	maxArgs      = 255
	maxParams    = 255
	maxArrayElem = 255
)

type funcType int

const (
	typeScript funcType = iota
	typeFunction
	typeMethod
	typeInitializer
)

// classCompiler tracks the class currently being compiled, so `this` and
// `super` can be rejected outside one and SUPER_INVOKE can know whether
// a superclass is in scope (spec.md §4.3.3, §7).
type classCompiler struct {
	enclosing     *classCompiler
	hasSuperclass bool
}

// compilerCtx is one stack frame of the compiler's own call stack: one
// per function body being compiled, mirroring the function nesting of
// the source (spec.md §3 Lifecycles "Compilers: stack-nested").
type compilerCtx struct {
	enclosing  *compilerCtx
	function   *value.Function
	funcType   funcType
	locals     table.AddressTable
	scopeDepth int
	upvalues   []value.UpvalueDesc
}

// parser drives the Pratt loop and owns all compile-time state: the
// scanner, the current/previous token, error/panic-mode bookkeeping, the
// compiler stack, the active class (if any), and the two tables shared
// with the VM.
type parser struct {
	source    string
	scan      *scanner.Scanner
	current   token.Token
	previous  token.Token
	hadError  bool
	panicMode bool

	cc    *compilerCtx
	class *classCompiler

	strings *table.Strings
	globals *table.AddressTable
	errOut  io.Writer
}

// Option configures a Compile call.
type Option func(*parser)

// WithErrorWriter redirects compile-error diagnostics away from the
// default of os.Stderr; primarily for tests that assert on the exact
// message spec.md §4.8 mandates.
func WithErrorWriter(w io.Writer) Option {
	return func(p *parser) { p.errOut = w }
}

// Compile compiles source into the implicit top-level script Function,
// or reports ok=false if any compile error was emitted (spec.md §4.8
// "compile returns a function (or failure indicator)"). strings and
// globals must be the same instances the VM uses to execute the result:
// both are mutated in place as declarations are resolved.
func Compile(source string, strings *table.Strings, globals *table.AddressTable, opts ...Option) (*value.Function, bool) {
	p := &parser{
		source:  source,
		scan:    scanner.New(source),
		strings: strings,
		globals: globals,
		errOut:  os.Stderr,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.pushCompiler(typeScript, "")

	p.advance()
	for !p.match(token.EOF) {
		p.declaration()
	}
	fn := p.popCompiler()
	return fn, !p.hadError
}

func (p *parser) pushCompiler(ft funcType, name string) {
	cc := &compilerCtx{
		enclosing: p.cc,
		funcType:  ft,
		function:  &value.Function{Name: name},
	}
	// Slot 0 of every frame is reserved: the receiver for methods, an
	// empty-named sentinel for plain functions (spec.md §4.3.3).
	slotName := ""
	if ft == typeMethod || ft == typeInitializer {
		slotName = "this"
	}
	cc.locals.Add(p.intern(slotName), table.VarProps{Depth: 0})
	p.cc = cc
}

func (p *parser) popCompiler() *value.Function {
	p.emitReturn()
	fn := p.cc.function
	fn.UpvalueCount = len(p.cc.upvalues)
	p.cc = p.cc.enclosing
	return fn
}

func (p *parser) currentChunk() *value.Chunk { return &p.cc.function.Chunk }

func (p *parser) intern(s string) *value.String {
	str, _ := p.strings.Intern([]byte(s), true)
	return str
}

// --- token stream -----------------------------------------------------

func (p *parser) advance() {
	p.previous = p.current
	for {
		p.current = p.scan.Scan()
		if p.current.Kind != token.ERROR {
			break
		}
		p.errorAtCurrent(p.scan.Message())
	}
}

func (p *parser) check(k token.Kind) bool { return p.current.Kind == k }

func (p *parser) match(k token.Kind) bool {
	if !p.check(k) {
		return false
	}
	p.advance()
	return true
}

func (p *parser) consume(k token.Kind, msg string) {
	if p.current.Kind == k {
		p.advance()
		return
	}
	p.errorAtCurrent(msg)
}

func (p *parser) lexeme(t token.Token) string { return t.Lexeme(p.source) }

// --- error reporting ----------------------------------------------------

func (p *parser) errorAtCurrent(msg string) { p.errorAt(p.current, msg) }
func (p *parser) error(msg string)          { p.errorAt(p.previous, msg) }

func (p *parser) errorAt(t token.Token, msg string) {
	if p.panicMode {
		return
	}
	p.panicMode = true
	p.hadError = true

	where := "at end"
	if t.Kind != token.EOF {
		if t.Kind == token.ERROR {
			where = ""
		} else {
			where = fmt.Sprintf("at '%s'", p.lexeme(t))
		}
	}
	if where == "" {
		fmt.Fprintf(p.errOut, "[line %d] Error: %s\n", t.Line, msg)
	} else {
		fmt.Fprintf(p.errOut, "[line %d] Error %s: %s\n", t.Line, where, msg)
	}
}

// synchronize discards tokens until it reaches one that plausibly starts
// a new statement, so one reported error doesn't cascade into spurious
// follow-on errors (spec.md §4.8 panic mode).
func (p *parser) synchronize() {
	p.panicMode = false
	for p.current.Kind != token.EOF {
		if p.previous.Kind == token.SEMI {
			return
		}
		switch p.current.Kind {
		case token.CLASS, token.FUN, token.VAR, token.CONST, token.FOR,
			token.IF, token.WHILE, token.PRINT, token.RETURN, token.REQUIRE:
			return
		}
		p.advance()
	}
}

// --- bytecode emission --------------------------------------------------

func (p *parser) emitByte(b byte) {
	p.currentChunk().Write(b, p.previous.Line)
}

func (p *parser) emitOp(op OpCode) { p.emitByte(byte(op)) }

func (p *parser) emitBytes(op OpCode, b byte) {
	p.emitByte(byte(op))
	p.emitByte(b)
}

// emitIndexOp picks the short or long opcode encoding for idx, per
// spec.md §4.1 writeConstant.
func (p *parser) emitIndexOp(short, long OpCode, idx int) {
	if idx < 0 {
		p.error("Negative index.")
		return
	}
	if idx <= 0xFF {
		p.emitBytes(short, byte(idx))
		return
	}
	if idx > 0xFFFFFF {
		p.error("Too many constants in one chunk.")
		return
	}
	p.emitByte(byte(long))
	p.emitByte(byte(idx >> 16))
	p.emitByte(byte(idx >> 8))
	p.emitByte(byte(idx))
}

func (p *parser) emitConstant(v value.Value) {
	idx := p.currentChunk().AddConstant(v)
	p.emitIndexOp(OpConstant, OpConstantLong, idx)
}

func (p *parser) emitReturn() {
	if p.cc.funcType == typeInitializer {
		p.emitBytes(OpGetLocal, 0)
	} else {
		p.emitOp(OpNil)
	}
	p.emitOp(OpReturn)
}

// emitJump writes op followed by a two-byte placeholder and returns the
// placeholder's offset, to be patched once the jump target is known.
func (p *parser) emitJump(op OpCode) int {
	p.emitByte(byte(op))
	p.emitByte(0xFF)
	p.emitByte(0xFF)
	return len(p.currentChunk().Code) - 2
}

func (p *parser) patchJump(offset int) {
	jump := len(p.currentChunk().Code) - offset - 2
	if jump > 0xFFFF {
		p.error("Too much code to jump over.")
		return
	}
	code := p.currentChunk().Code
	code[offset] = byte(jump >> 8)
	code[offset+1] = byte(jump)
}

func (p *parser) emitLoop(loopStart int) {
	p.emitOp(OpLoop)
	offset := len(p.currentChunk().Code) - loopStart + 2
	if offset > 0xFFFF {
		p.error("Loop body too large.")
		return
	}
	p.emitByte(byte(offset >> 8))
	p.emitByte(byte(offset))
}
