package compiler

// OpCode identifies one bytecode instruction. Every multi-byte operand is
// big-endian; the _LONG variant of an opcode that indexes into the
// constant pool or an address table spends three operand bytes on a
// 24-bit index instead of one, so constant pools and globals tables
// larger than 256 entries stay addressable without widening every
// instruction (spec.md §4.1 invariant 5, §4.4).
type OpCode byte

const (
	OpConstant OpCode = iota
	OpConstantLong

	OpNil
	OpTrue
	OpFalse

	OpPop

	OpGetLocal
	OpGetLocalLong
	OpSetLocal
	OpSetLocalLong

	OpGetGlobal
	OpGetGlobalLong
	OpDefineGlobal
	OpDefineGlobalLong
	OpSetGlobal
	OpSetGlobalLong

	OpGetUpvalue
	OpSetUpvalue

	OpGetProperty
	OpGetPropertyLong
	OpSetProperty
	OpSetPropertyLong

	OpGetSuper
	OpGetSuperLong

	OpEqual
	OpNotEqual
	OpGreater
	OpGreaterEqual
	OpLess
	OpLessEqual

	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpNegate

	OpNot

	OpPrint

	OpJump
	OpJumpIfFalse
	OpLoop

	OpCall

	OpInvoke
	OpInvokeLong
	OpSuperInvoke
	OpSuperInvokeLong

	OpClosure
	OpClosureLong
	OpCloseUpvalue

	OpClass
	OpClassLong
	OpInherit
	OpMethod
	OpMethodLong

	OpArrayInit
	OpArrayAdd
	OpGetPropertyStack
	OpSetPropertyStack

	OpReturn
)

var opcodeNames = [...]string{
	OpConstant:          "CONSTANT",
	OpConstantLong:      "CONSTANT_LONG",
	OpNil:                "NIL",
	OpTrue:               "TRUE",
	OpFalse:              "FALSE",
	OpPop:                "POP",
	OpGetLocal:           "GET_LOCAL",
	OpGetLocalLong:       "GET_LOCAL_LONG",
	OpSetLocal:           "SET_LOCAL",
	OpSetLocalLong:       "SET_LOCAL_LONG",
	OpGetGlobal:          "GET_GLOBAL",
	OpGetGlobalLong:      "GET_GLOBAL_LONG",
	OpDefineGlobal:       "DEFINE_GLOBAL",
	OpDefineGlobalLong:   "DEFINE_GLOBAL_LONG",
	OpSetGlobal:          "SET_GLOBAL",
	OpSetGlobalLong:      "SET_GLOBAL_LONG",
	OpGetUpvalue:         "GET_UPVALUE",
	OpSetUpvalue:         "SET_UPVALUE",
	OpGetProperty:        "GET_PROPERTY",
	OpGetPropertyLong:    "GET_PROPERTY_LONG",
	OpSetProperty:        "SET_PROPERTY",
	OpSetPropertyLong:    "SET_PROPERTY_LONG",
	OpGetSuper:           "GET_SUPER",
	OpGetSuperLong:       "GET_SUPER_LONG",
	OpEqual:              "EQUAL",
	OpNotEqual:           "NOT_EQUAL",
	OpGreater:            "GREATER",
	OpGreaterEqual:       "GREATER_EQUAL",
	OpLess:               "LESS",
	OpLessEqual:          "LESS_EQUAL",
	OpAdd:                "ADD",
	OpSubtract:           "SUBTRACT",
	OpMultiply:           "MULTIPLY",
	OpDivide:             "DIVIDE",
	OpNegate:             "NEGATE",
	OpNot:                "NOT",
	OpPrint:              "PRINT",
	OpJump:               "JUMP",
	OpJumpIfFalse:        "JUMP_IF_FALSE",
	OpLoop:               "LOOP",
	OpCall:               "CALL",
	OpInvoke:             "INVOKE",
	OpInvokeLong:         "INVOKE_LONG",
	OpSuperInvoke:        "SUPER_INVOKE",
	OpSuperInvokeLong:    "SUPER_INVOKE_LONG",
	OpClosure:            "CLOSURE",
	OpClosureLong:        "CLOSURE_LONG",
	OpCloseUpvalue:       "CLOSE_UPVALUE",
	OpClass:              "CLASS",
	OpClassLong:          "CLASS_LONG",
	OpInherit:            "INHERIT",
	OpMethod:             "METHOD",
	OpMethodLong:         "METHOD_LONG",
	OpArrayInit:          "ARRAY_INIT",
	OpArrayAdd:           "ARRAY_ADD",
	OpGetPropertyStack:   "GET_PROPERTY_STACK",
	OpSetPropertyStack:   "SET_PROPERTY_STACK",
	OpReturn:             "RETURN",
}

func (op OpCode) String() string {
	if int(op) < len(opcodeNames) && opcodeNames[op] != "" {
		return opcodeNames[op]
	}
	return "UNKNOWN"
}
