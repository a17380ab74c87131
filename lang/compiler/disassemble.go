package compiler

import (
	"fmt"
	"io"

	"github.com/drdynamic/piscript/lang/value"
)

// Disassemble writes a human-readable listing of fn's chunk to w, one
// instruction per line, for diagnostic use only (spec.md §1 "the
// disassembler / tracing output" is explicitly out of scope for
// execution semantics; this exists purely so tests and the CLI's
// disassemble command can inspect what the compiler produced).
func Disassemble(w io.Writer, fn *value.Function, name string) {
	fmt.Fprintf(w, "== %s ==\n", name)
	chunk := &fn.Chunk
	for offset := 0; offset < len(chunk.Code); {
		offset = disassembleInstruction(w, chunk, offset)
	}
}

func disassembleInstruction(w io.Writer, chunk *value.Chunk, offset int) int {
	fmt.Fprintf(w, "%04d ", offset)
	line := chunk.LineAt(offset)
	if offset > 0 && line == chunk.LineAt(offset-1) {
		fmt.Fprint(w, "   | ")
	} else {
		fmt.Fprintf(w, "%4d ", line)
	}

	op := OpCode(chunk.Code[offset])
	switch op {
	case OpNil, OpTrue, OpFalse, OpPop, OpEqual, OpNotEqual, OpGreater,
		OpGreaterEqual, OpLess, OpLessEqual, OpAdd, OpSubtract, OpMultiply,
		OpDivide, OpNegate, OpNot, OpPrint, OpCloseUpvalue, OpInherit,
		OpArrayAdd, OpGetPropertyStack, OpSetPropertyStack, OpReturn:
		return simpleInstruction(w, op, offset)
	case OpConstant, OpClass, OpGetProperty, OpSetProperty, OpGetSuper,
		OpMethod:
		return constantInstruction(w, op, chunk, offset)
	case OpConstantLong, OpClassLong, OpGetPropertyLong, OpSetPropertyLong,
		OpGetSuperLong, OpMethodLong:
		return constantLongInstruction(w, op, chunk, offset)
	case OpGetLocal, OpSetLocal, OpGetUpvalue, OpSetUpvalue, OpCall,
		OpArrayInit, OpGetGlobal, OpDefineGlobal, OpSetGlobal:
		return byteInstruction(w, op, chunk, offset)
	case OpGetLocalLong, OpSetLocalLong,
		OpGetGlobalLong, OpDefineGlobalLong, OpSetGlobalLong:
		return uint24Instruction(w, op, chunk, offset)
	case OpJump, OpJumpIfFalse, OpLoop:
		return jumpInstruction(w, op, chunk, offset)
	case OpInvoke, OpSuperInvoke:
		return invokeInstruction(w, op, chunk, offset)
	case OpInvokeLong, OpSuperInvokeLong:
		return invokeLongInstruction(w, op, chunk, offset)
	case OpClosure, OpClosureLong:
		return closureInstruction(w, op, chunk, offset)
	default:
		fmt.Fprintf(w, "Unknown opcode %d\n", op)
		return offset + 1
	}
}

func simpleInstruction(w io.Writer, op OpCode, offset int) int {
	fmt.Fprintf(w, "%s\n", op)
	return offset + 1
}

func byteInstruction(w io.Writer, op OpCode, chunk *value.Chunk, offset int) int {
	slot := chunk.Code[offset+1]
	fmt.Fprintf(w, "%-20s %4d\n", op, slot)
	return offset + 2
}

func uint24Instruction(w io.Writer, op OpCode, chunk *value.Chunk, offset int) int {
	idx := read24(chunk, offset+1)
	fmt.Fprintf(w, "%-20s %4d\n", op, idx)
	return offset + 4
}

func constantInstruction(w io.Writer, op OpCode, chunk *value.Chunk, offset int) int {
	idx := int(chunk.Code[offset+1])
	fmt.Fprintf(w, "%-20s %4d '%s'\n", op, idx, chunk.Constants[idx].String())
	return offset + 2
}

func constantLongInstruction(w io.Writer, op OpCode, chunk *value.Chunk, offset int) int {
	idx := read24(chunk, offset+1)
	fmt.Fprintf(w, "%-20s %4d '%s'\n", op, idx, chunk.Constants[idx].String())
	return offset + 4
}

func jumpInstruction(w io.Writer, op OpCode, chunk *value.Chunk, offset int) int {
	dist := int(chunk.Code[offset+1])<<8 | int(chunk.Code[offset+2])
	sign := 1
	if op == OpLoop {
		sign = -1
	}
	fmt.Fprintf(w, "%-20s %4d -> %d\n", op, offset, offset+3+sign*dist)
	return offset + 3
}

func invokeInstruction(w io.Writer, op OpCode, chunk *value.Chunk, offset int) int {
	idx := int(chunk.Code[offset+1])
	argc := chunk.Code[offset+2]
	fmt.Fprintf(w, "%-20s (%d args) %4d '%s'\n", op, argc, idx, chunk.Constants[idx].String())
	return offset + 3
}

func invokeLongInstruction(w io.Writer, op OpCode, chunk *value.Chunk, offset int) int {
	idx := read24(chunk, offset+1)
	argc := chunk.Code[offset+4]
	fmt.Fprintf(w, "%-20s (%d args) %4d '%s'\n", op, argc, idx, chunk.Constants[idx].String())
	return offset + 5
}

func closureInstruction(w io.Writer, op OpCode, chunk *value.Chunk, offset int) int {
	var idx, next int
	if op == OpClosureLong {
		idx = read24(chunk, offset+1)
		next = offset + 4
	} else {
		idx = int(chunk.Code[offset+1])
		next = offset + 2
	}
	fn := chunk.Constants[idx].(*value.Function)
	fmt.Fprintf(w, "%-20s %4d '%s'\n", op, idx, fn.String())
	for i := 0; i < fn.UpvalueCount; i++ {
		isLocal := chunk.Code[next]
		index := chunk.Code[next+1]
		kind := "upvalue"
		if isLocal == 1 {
			kind = "local"
		}
		fmt.Fprintf(w, "%04d      |                     %s %d\n", next, kind, index)
		next += 2
	}
	return next
}

func read24(chunk *value.Chunk, offset int) int {
	return int(chunk.Code[offset])<<16 | int(chunk.Code[offset+1])<<8 | int(chunk.Code[offset+2])
}
