// Package ippmachine implements the IPPcode21 program representation and
// the execution engine: a single static dispatch table indexed by opcode,
// rather than a string-keyed or reflective lookup.
package ippmachine

// OpCode enumerates the closed set of IPPcode21 instructions. The order
// below is arbitrary but fixed; opTable is indexed by this enum so
// every lookup is an array access, never a map or string match.
type OpCode int

const (
	OpInvalid OpCode = iota

	OpMove
	OpCreateFrame
	OpPushFrame
	OpPopFrame
	OpReturn
	OpDefVar
	OpPops
	OpCall
	OpLabel
	OpJump
	OpPushs
	OpWrite
	OpExit
	OpDPrint
	OpAdd
	OpSub
	OpMul
	OpIDiv
	OpDiv
	OpLt
	OpGt
	OpEq
	OpAnd
	OpOr
	OpConcat
	OpGetChar
	OpStri2Int
	OpNot
	OpInt2Char
	OpInt2Float
	OpFloat2Int
	OpStrlen
	OpType
	OpSetChar
	OpRead
	OpJumpIfEq
	OpJumpIfNeq
	OpAddS
	OpSubS
	OpMulS
	OpIDivS
	OpDivS
	OpLtS
	OpGtS
	OpEqS
	OpAndS
	OpOrS
	OpNotS
	OpInt2CharS
	OpInt2FloatS
	OpFloat2IntS
	OpStri2IntS
	OpClearS
	OpBreak
	OpJumpIfEqS
	OpJumpIfNeqS

	opCodeCount
)

// OperandKind classifies a single operand position.
type OperandKind int

const (
	KindNone OperandKind = iota
	KindVar
	KindSymb
	KindLabel
	KindType
)

// opInfo describes one opcode's mnemonic and fixed operand signature.
type opInfo struct {
	name     string
	operands []OperandKind
}

// opTable is indexed by OpCode; it is the single source of truth for arity
// and per-position operand kind, consulted both by the loader (to validate
// instructions) and by String/Lookup below.
var opTable = [opCodeCount]opInfo{
	OpMove:         {"MOVE", []OperandKind{KindVar, KindSymb}},
	OpCreateFrame:  {"CREATEFRAME", nil},
	OpPushFrame:    {"PUSHFRAME", nil},
	OpPopFrame:     {"POPFRAME", nil},
	OpReturn:       {"RETURN", nil},
	OpDefVar:       {"DEFVAR", []OperandKind{KindVar}},
	OpPops:         {"POPS", []OperandKind{KindVar}},
	OpCall:         {"CALL", []OperandKind{KindLabel}},
	OpLabel:        {"LABEL", []OperandKind{KindLabel}},
	OpJump:         {"JUMP", []OperandKind{KindLabel}},
	OpPushs:        {"PUSHS", []OperandKind{KindSymb}},
	OpWrite:        {"WRITE", []OperandKind{KindSymb}},
	OpExit:         {"EXIT", []OperandKind{KindSymb}},
	OpDPrint:       {"DPRINT", []OperandKind{KindSymb}},
	OpAdd:          {"ADD", []OperandKind{KindVar, KindSymb, KindSymb}},
	OpSub:          {"SUB", []OperandKind{KindVar, KindSymb, KindSymb}},
	OpMul:          {"MUL", []OperandKind{KindVar, KindSymb, KindSymb}},
	OpIDiv:         {"IDIV", []OperandKind{KindVar, KindSymb, KindSymb}},
	OpDiv:          {"DIV", []OperandKind{KindVar, KindSymb, KindSymb}},
	OpLt:           {"LT", []OperandKind{KindVar, KindSymb, KindSymb}},
	OpGt:           {"GT", []OperandKind{KindVar, KindSymb, KindSymb}},
	OpEq:           {"EQ", []OperandKind{KindVar, KindSymb, KindSymb}},
	OpAnd:          {"AND", []OperandKind{KindVar, KindSymb, KindSymb}},
	OpOr:           {"OR", []OperandKind{KindVar, KindSymb, KindSymb}},
	OpConcat:       {"CONCAT", []OperandKind{KindVar, KindSymb, KindSymb}},
	OpGetChar:      {"GETCHAR", []OperandKind{KindVar, KindSymb, KindSymb}},
	OpStri2Int:     {"STRI2INT", []OperandKind{KindVar, KindSymb, KindSymb}},
	OpNot:          {"NOT", []OperandKind{KindVar, KindSymb}},
	OpInt2Char:     {"INT2CHAR", []OperandKind{KindVar, KindSymb}},
	OpInt2Float:    {"INT2FLOAT", []OperandKind{KindVar, KindSymb}},
	OpFloat2Int:    {"FLOAT2INT", []OperandKind{KindVar, KindSymb}},
	OpStrlen:       {"STRLEN", []OperandKind{KindVar, KindSymb}},
	OpType:         {"TYPE", []OperandKind{KindVar, KindSymb}},
	OpSetChar:      {"SETCHAR", []OperandKind{KindVar, KindSymb, KindSymb}},
	OpRead:         {"READ", []OperandKind{KindVar, KindType}},
	OpJumpIfEq:     {"JUMPIFEQ", []OperandKind{KindLabel, KindSymb, KindSymb}},
	OpJumpIfNeq:    {"JUMPIFNEQ", []OperandKind{KindLabel, KindSymb, KindSymb}},
	OpAddS:         {"ADDS", nil},
	OpSubS:         {"SUBS", nil},
	OpMulS:         {"MULS", nil},
	OpIDivS:        {"IDIVS", nil},
	OpDivS:         {"DIVS", nil},
	OpLtS:          {"LTS", nil},
	OpGtS:          {"GTS", nil},
	OpEqS:          {"EQS", nil},
	OpAndS:         {"ANDS", nil},
	OpOrS:          {"ORS", nil},
	OpNotS:         {"NOTS", nil},
	OpInt2CharS:    {"INT2CHARS", nil},
	OpInt2FloatS:   {"INT2FLOATS", nil},
	OpFloat2IntS:   {"FLOAT2INTS", nil},
	OpStri2IntS:    {"STRI2INTS", nil},
	OpClearS:       {"CLEARS", nil},
	OpBreak:        {"BREAK", nil},
	OpJumpIfEqS:    {"JUMPIFEQS", []OperandKind{KindLabel}},
	OpJumpIfNeqS:   {"JUMPIFNEQS", []OperandKind{KindLabel}},
}

// nameToOp is built once at init time from opTable; it exists solely for
// the loader's load-time literal lookup (an instruction's opcode attribute
// text to an OpCode), never consulted by the dispatch loop itself.
var nameToOp map[string]OpCode

func init() {
	nameToOp = make(map[string]OpCode, opCodeCount)
	for i := OpCode(1); i < opCodeCount; i++ {
		nameToOp[opTable[i].name] = i
	}
}

// Lookup resolves an upper-cased opcode mnemonic, returning (OpInvalid,
// false) for anything outside the fixed enumeration.
func Lookup(name string) (OpCode, bool) {
	op, ok := nameToOp[name]
	return op, ok
}

// String returns the opcode's canonical mnemonic.
func (op OpCode) String() string {
	if op <= OpInvalid || op >= opCodeCount {
		return "INVALID"
	}
	return opTable[op].name
}

// Operands returns the fixed operand-kind signature for op.
func (op OpCode) Operands() []OperandKind {
	if op <= OpInvalid || op >= opCodeCount {
		return nil
	}
	return opTable[op].operands
}

// Arity returns the number of operands op takes.
func (op OpCode) Arity() int { return len(op.Operands()) }

// CountsTowardExecuted reports whether executing op increments the
// executed-instruction counter: every opcode does except LABEL, BREAK and
// DPRINT.
func (op OpCode) CountsTowardExecuted() bool {
	switch op {
	case OpLabel, OpBreak, OpDPrint:
		return false
	default:
		return true
	}
}

// baseOf maps a stack-suffixed opcode to the non-suffixed counterpart whose
// ippvalue operator it shares, so the *S family never duplicates operator
// logic. Returns OpInvalid for every other opcode, including CLEARS,
// JUMPIFEQS and JUMPIFNEQS, which exec handles in their own cases.
func (op OpCode) baseOf() OpCode {
	switch op {
	case OpAddS:
		return OpAdd
	case OpSubS:
		return OpSub
	case OpMulS:
		return OpMul
	case OpIDivS:
		return OpIDiv
	case OpDivS:
		return OpDiv
	case OpLtS:
		return OpLt
	case OpGtS:
		return OpGt
	case OpEqS:
		return OpEq
	case OpAndS:
		return OpAnd
	case OpOrS:
		return OpOr
	case OpNotS:
		return OpNot
	case OpInt2CharS:
		return OpInt2Char
	case OpInt2FloatS:
		return OpInt2Float
	case OpFloat2IntS:
		return OpFloat2Int
	case OpStri2IntS:
		return OpStri2Int
	default:
		return OpInvalid
	}
}
