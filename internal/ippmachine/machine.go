package ippmachine

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"ippinterp21/internal/ipperr"
	"ippinterp21/internal/ippframe"
	"ippinterp21/internal/ippio"
	"ippinterp21/internal/ippstats"
	"ippinterp21/internal/ippvalue"
)

// binaryOps and unaryOps back both the directly named arithmetic/logic
// opcodes and their stack-suffixed counterparts with the same
// internal/ippvalue functions, so the *S family never duplicates operator
// logic: each stack-suffixed opcode just applies its non-suffixed
// counterpart's operation to operands popped from the data stack.
var binaryOps = map[OpCode]func(a, b ippvalue.Value) (ippvalue.Value, *ipperr.Error){
	OpAdd:    ippvalue.Add,
	OpSub:    ippvalue.Sub,
	OpMul:    ippvalue.Mul,
	OpIDiv:   ippvalue.IDiv,
	OpDiv:    ippvalue.Div,
	OpLt:     ippvalue.Lt,
	OpGt:     ippvalue.Gt,
	OpEq:     ippvalue.Eq,
	OpAnd:    ippvalue.And,
	OpOr:     ippvalue.Or,
	OpConcat: ippvalue.Concat,
}

var unaryOps = map[OpCode]func(a ippvalue.Value) (ippvalue.Value, *ipperr.Error){
	OpNot:       ippvalue.Not,
	OpInt2Char:  ippvalue.Int2Char,
	OpInt2Float: ippvalue.Int2Float,
	OpFloat2Int: ippvalue.Float2Int,
	OpStrlen:    ippvalue.Strlen,
}

// Machine is one program's execution state: program counter, executed
// count (tracked via Stats), the frame system, the data and call stacks,
// and the I/O boundary. It executes a single Program start to finish; it
// is not reused across programs.
type Machine struct {
	Prog   *Program
	Frames *ippframe.Frames
	Source *ippio.Source
	Sink   *ippio.Sink
	Stats  *ippstats.Collector

	pc        int
	dataStack []ippvalue.Value
	callStack []int
}

// New builds a Machine ready to run prog, with a fresh frame system and
// the given I/O boundary.
func New(prog *Program, source *ippio.Source, sink *ippio.Sink, stats *ippstats.Collector) *Machine {
	return &Machine{
		Prog:   prog,
		Frames: ippframe.New(),
		Source: source,
		Sink:   sink,
		Stats:  stats,
	}
}

// Run executes the program to completion, returning the process exit code
// and, if execution failed, the classifying error (whose ExitCode()
// equals the returned int). ctx is checked once per dispatch cycle so an
// external cancellation (e.g. CancelOnSignal in internal/maincmd) can stop a
// runaway program between instructions.
func (m *Machine) Run(ctx context.Context) (int, *ipperr.Error) {
	for m.pc < len(m.Prog.Instructions) {
		select {
		case <-ctx.Done():
			return int(ipperr.Internal), ipperr.New(ipperr.Internal, "execution canceled")
		default:
		}

		inst := m.Prog.Instructions[m.pc]
		m.pc++

		exited, exitCode, err := m.exec(inst)
		if err != nil {
			return err.ExitCode(), err
		}
		if inst.Op.CountsTowardExecuted() {
			m.Stats.Observe(inst.Op.String(), inst.Order)
		}
		if exited {
			return exitCode, nil
		}
	}
	return 0, nil
}

func (m *Machine) sampleVars() {
	m.Stats.Sample(m.Frames.CountInitialized())
}

// eval resolves a KindSymb operand to its value: a variable reference is
// read through the frame system, a literal is returned as-is.
func (m *Machine) eval(op Operand) (ippvalue.Value, *ipperr.Error) {
	if op.IsVar {
		return m.Frames.ReadValue(op.VarID)
	}
	return op.Literal, nil
}

func (m *Machine) writeVar(id string, v ippvalue.Value) *ipperr.Error {
	if err := m.Frames.WriteValue(id, v); err != nil {
		return err
	}
	m.sampleVars()
	return nil
}

func (m *Machine) push(v ippvalue.Value) { m.dataStack = append(m.dataStack, v) }

func (m *Machine) pop() (ippvalue.Value, *ipperr.Error) {
	if len(m.dataStack) == 0 {
		return ippvalue.Value{}, ipperr.New(ipperr.MissingVal, "data stack is empty")
	}
	n := len(m.dataStack) - 1
	v := m.dataStack[n]
	m.dataStack = m.dataStack[:n]
	return v, nil
}

func (m *Machine) resolveLabel(name string) (int, *ipperr.Error) {
	idx, ok := m.Prog.Labels[name]
	if !ok {
		return 0, ipperr.New(ipperr.UndefRedef, "label %q is not declared", name)
	}
	return idx, nil
}

// exec executes one instruction. It returns (exited, exitCode, err): err
// non-nil means the program terminates with a classified error; exited
// true (err nil) means EXIT ran successfully with exitCode; otherwise
// execution continues at the (possibly already-modified) m.pc.
func (m *Machine) exec(inst Instruction) (bool, int, *ipperr.Error) {
	op := inst.Op
	args := inst.Args
	ctx := func(err *ipperr.Error) *ipperr.Error { return ipperr.WithContext(err, inst.Order, op.String()) }

	switch op {
	case OpMove:
		v, err := m.eval(args[1])
		if err != nil {
			return false, 0, ctx(err)
		}
		if err := m.writeVar(args[0].VarID, v); err != nil {
			return false, 0, ctx(err)
		}

	case OpCreateFrame:
		m.Frames.CreateTF()

	case OpPushFrame:
		if err := m.Frames.PushFrame(); err != nil {
			return false, 0, ctx(err)
		}

	case OpPopFrame:
		if err := m.Frames.PopFrame(); err != nil {
			return false, 0, ctx(err)
		}
		m.sampleVars()

	case OpDefVar:
		if err := m.Frames.DefVar(args[0].VarID); err != nil {
			return false, 0, ctx(err)
		}

	case OpCall:
		idx, err := m.resolveLabel(args[0].Label)
		if err != nil {
			return false, 0, ctx(err)
		}
		m.callStack = append(m.callStack, m.pc)
		m.pc = idx + 1

	case OpReturn:
		if len(m.callStack) == 0 {
			return false, 0, ctx(ipperr.New(ipperr.MissingVal, "RETURN: call stack is empty"))
		}
		n := len(m.callStack) - 1
		m.pc = m.callStack[n]
		m.callStack = m.callStack[:n]

	case OpLabel:
		// no-op at execution time; label indices are resolved once at load.

	case OpJump:
		idx, err := m.resolveLabel(args[0].Label)
		if err != nil {
			return false, 0, ctx(err)
		}
		m.pc = idx + 1

	case OpJumpIfEq, OpJumpIfNeq:
		a, err := m.eval(args[1])
		if err != nil {
			return false, 0, ctx(err)
		}
		b, err := m.eval(args[2])
		if err != nil {
			return false, 0, ctx(err)
		}
		eq, err := ippvalue.Eq(a, b)
		if err != nil {
			return false, 0, ctx(err)
		}
		take := eq.BoolVal()
		if op == OpJumpIfNeq {
			take = !take
		}
		if take {
			idx, err := m.resolveLabel(args[0].Label)
			if err != nil {
				return false, 0, ctx(err)
			}
			m.pc = idx + 1
		}

	case OpJumpIfEqS, OpJumpIfNeqS:
		b, err := m.pop()
		if err != nil {
			return false, 0, ctx(err)
		}
		a, err := m.pop()
		if err != nil {
			return false, 0, ctx(err)
		}
		eq, err := ippvalue.Eq(a, b)
		if err != nil {
			return false, 0, ctx(err)
		}
		take := eq.BoolVal()
		if op == OpJumpIfNeqS {
			take = !take
		}
		if take {
			idx, err := m.resolveLabel(args[0].Label)
			if err != nil {
				return false, 0, ctx(err)
			}
			m.pc = idx + 1
		}

	case OpPushs:
		v, err := m.eval(args[0])
		if err != nil {
			return false, 0, ctx(err)
		}
		m.push(v)

	case OpPops:
		v, err := m.pop()
		if err != nil {
			return false, 0, ctx(err)
		}
		if err := m.writeVar(args[0].VarID, v); err != nil {
			return false, 0, ctx(err)
		}

	case OpClearS:
		m.dataStack = m.dataStack[:0]

	case OpWrite:
		v, err := m.eval(args[0])
		if err != nil {
			return false, 0, ctx(err)
		}
		fmt.Fprint(m.Sink.Stdout, formatForWrite(v))

	case OpDPrint:
		v, err := m.eval(args[0])
		if err != nil {
			return false, 0, ctx(err)
		}
		fmt.Fprintln(m.Sink.Stderr, formatForWrite(v))

	case OpBreak:
		fmt.Fprintf(m.Sink.Stderr, "BREAK order=%d pc=%d ec=%d vars=%d stack=%v callstack=%v\n",
			inst.Order, m.pc, m.Stats.Executed(), m.Frames.CountInitialized(), m.dataStack, m.callStack)

	case OpExit:
		v, err := m.eval(args[0])
		if err != nil {
			return false, 0, ctx(err)
		}
		if v.Kind() != ippvalue.KInt {
			return false, 0, ctx(ipperr.New(ipperr.BadOpType, "EXIT: operand must be int"))
		}
		if v.IntVal() < 0 || v.IntVal() > 49 {
			return false, 0, ctx(ipperr.New(ipperr.BadOpVal, "EXIT: value %d out of range [0,49]", v.IntVal()))
		}
		return true, int(v.IntVal()), nil

	case OpGetChar:
		s, err := m.eval(args[1])
		if err != nil {
			return false, 0, ctx(err)
		}
		idx, err := m.eval(args[2])
		if err != nil {
			return false, 0, ctx(err)
		}
		r, err := ippvalue.Getchar(s, idx)
		if err != nil {
			return false, 0, ctx(err)
		}
		if err := m.writeVar(args[0].VarID, r); err != nil {
			return false, 0, ctx(err)
		}

	case OpStri2Int:
		s, err := m.eval(args[1])
		if err != nil {
			return false, 0, ctx(err)
		}
		idx, err := m.eval(args[2])
		if err != nil {
			return false, 0, ctx(err)
		}
		r, err := ippvalue.Stri2Int(s, idx)
		if err != nil {
			return false, 0, ctx(err)
		}
		if err := m.writeVar(args[0].VarID, r); err != nil {
			return false, 0, ctx(err)
		}

	case OpStri2IntS:
		idx, err := m.pop()
		if err != nil {
			return false, 0, ctx(err)
		}
		s, err := m.pop()
		if err != nil {
			return false, 0, ctx(err)
		}
		r, err := ippvalue.Stri2Int(s, idx)
		if err != nil {
			return false, 0, ctx(err)
		}
		m.push(r)

	case OpSetChar:
		dst, err := m.eval(args[0])
		if err != nil {
			return false, 0, ctx(err)
		}
		idx, err := m.eval(args[1])
		if err != nil {
			return false, 0, ctx(err)
		}
		repl, err := m.eval(args[2])
		if err != nil {
			return false, 0, ctx(err)
		}
		r, err := ippvalue.Setchar(dst, idx, repl)
		if err != nil {
			return false, 0, ctx(err)
		}
		if err := m.writeVar(args[0].VarID, r); err != nil {
			return false, 0, ctx(err)
		}

	case OpType:
		var v ippvalue.Value
		var err *ipperr.Error
		if args[1].IsVar {
			v, err = m.Frames.TypeOf(args[1].VarID)
		} else {
			v = args[1].Literal
		}
		if err != nil {
			return false, 0, ctx(err)
		}
		if err := m.writeVar(args[0].VarID, ippvalue.Str(v.TypeName())); err != nil {
			return false, 0, ctx(err)
		}

	case OpRead:
		v := m.readTyped(args[1].TypeName)
		if err := m.writeVar(args[0].VarID, v); err != nil {
			return false, 0, ctx(err)
		}

	default:
		if base := op.baseOf(); base != OpInvalid {
			if err := m.execSuffixed(base); err != nil {
				return false, 0, ctx(err)
			}
			break
		}
		if fn, ok := binaryOps[op]; ok {
			a, err := m.eval(args[1])
			if err != nil {
				return false, 0, ctx(err)
			}
			b, err := m.eval(args[2])
			if err != nil {
				return false, 0, ctx(err)
			}
			r, err := fn(a, b)
			if err != nil {
				return false, 0, ctx(err)
			}
			if err := m.writeVar(args[0].VarID, r); err != nil {
				return false, 0, ctx(err)
			}
			break
		}
		if fn, ok := unaryOps[op]; ok {
			a, err := m.eval(args[1])
			if err != nil {
				return false, 0, ctx(err)
			}
			r, err := fn(a)
			if err != nil {
				return false, 0, ctx(err)
			}
			if err := m.writeVar(args[0].VarID, r); err != nil {
				return false, 0, ctx(err)
			}
			break
		}
		return false, 0, ctx(ipperr.New(ipperr.Internal, "unhandled opcode %s", op))
	}
	return false, 0, nil
}

// execSuffixed runs base's operator against operand(s) popped from the
// data stack and pushes the result, implementing the entire *S family from
// a single table lookup per call.
func (m *Machine) execSuffixed(base OpCode) *ipperr.Error {
	if fn, ok := unaryOps[base]; ok {
		a, err := m.pop()
		if err != nil {
			return err
		}
		r, err := fn(a)
		if err != nil {
			return err
		}
		m.push(r)
		return nil
	}
	fn, ok := binaryOps[base]
	if !ok {
		return ipperr.New(ipperr.Internal, "no stack operator registered for %s", base)
	}
	b, err := m.pop()
	if err != nil {
		return err
	}
	a, err := m.pop()
	if err != nil {
		return err
	}
	r, err := fn(a, b)
	if err != nil {
		return err
	}
	m.push(r)
	return nil
}

// formatForWrite renders v the way WRITE/DPRINT print it: identical to
// Value.String() except nil, which prints as the empty string.
func formatForWrite(v ippvalue.Value) string {
	if v.Kind() == ippvalue.KNil {
		return ""
	}
	return v.String()
}

// readTyped consumes one line from the source and decodes it as typeName
// (int, float, string or bool). Any decoding failure, or end of input,
// yields Nil rather than terminating the program.
func (m *Machine) readTyped(typeName string) ippvalue.Value {
	line, ok := m.Source.ReadLine()
	if !ok {
		return ippvalue.Nil()
	}
	switch typeName {
	case "int":
		n, err := strconv.ParseInt(strings.TrimSpace(line), 10, 64)
		if err != nil {
			return ippvalue.Nil()
		}
		return ippvalue.Int(n)
	case "float":
		f, err := ippvalue.ParseHexFloat(strings.TrimSpace(line))
		if err != nil {
			return ippvalue.Nil()
		}
		return ippvalue.Float(f)
	case "bool":
		return ippvalue.Bool(strings.EqualFold(strings.TrimSpace(line), "true"))
	case "string":
		return ippvalue.Str(line)
	default:
		return ippvalue.Nil()
	}
}
