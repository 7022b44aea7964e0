package ippmachine

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ippinterp21/internal/ipperr"
	"ippinterp21/internal/ippio"
	"ippinterp21/internal/ippstats"
	"ippinterp21/internal/ippvalue"
)

func newTestMachine(insts []Instruction, labels map[string]int, input string) (*Machine, *bytes.Buffer, *bytes.Buffer) {
	if labels == nil {
		labels = map[string]int{}
	}
	prog := &Program{Instructions: insts, Labels: labels}
	var stdout, stderr bytes.Buffer
	source := ippio.NewSource(strings.NewReader(input))
	sink := &ippio.Sink{Stdout: &stdout, Stderr: &stderr}
	m := New(prog, source, sink, ippstats.New())
	return m, &stdout, &stderr
}

func inst(order int, op OpCode, args ...Operand) Instruction {
	return Instruction{Order: order, Op: op, Args: args}
}

func TestMoveWriteExit(t *testing.T) {
	insts := []Instruction{
		inst(1, OpDefVar, VarOperand("GF@a")),
		inst(2, OpMove, VarOperand("GF@a"), SymbLiteralOperand(ippvalue.Int(5))),
		inst(3, OpWrite, SymbVarOperand("GF@a")),
		inst(4, OpExit, SymbLiteralOperand(ippvalue.Int(0))),
	}
	m, stdout, _ := newTestMachine(insts, nil, "")
	code, err := m.Run(context.Background())
	require.Nil(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, "5", stdout.String())
	assert.Equal(t, 4, m.Stats.Executed())
}

func TestIDivByZero(t *testing.T) {
	insts := []Instruction{
		inst(1, OpDefVar, VarOperand("GF@x")),
		inst(2, OpMove, VarOperand("GF@x"), SymbLiteralOperand(ippvalue.Int(7))),
		inst(3, OpDefVar, VarOperand("GF@y")),
		inst(4, OpIDiv, VarOperand("GF@y"), SymbVarOperand("GF@x"), SymbLiteralOperand(ippvalue.Int(0))),
	}
	m, _, _ := newTestMachine(insts, nil, "")
	_, err := m.Run(context.Background())
	require.NotNil(t, err)
	assert.Equal(t, ipperr.BadOpVal, err.Code)
}

func TestPushsAddsPops(t *testing.T) {
	insts := []Instruction{
		inst(1, OpDefVar, VarOperand("GF@r")),
		inst(2, OpPushs, SymbLiteralOperand(ippvalue.Int(2))),
		inst(3, OpPushs, SymbLiteralOperand(ippvalue.Int(3))),
		inst(4, OpAddS),
		inst(5, OpPops, VarOperand("GF@r")),
		inst(6, OpWrite, SymbVarOperand("GF@r")),
	}
	m, stdout, _ := newTestMachine(insts, nil, "")
	code, err := m.Run(context.Background())
	require.Nil(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, "5", stdout.String())
}

func TestPushFrameWithoutCreateFrame(t *testing.T) {
	insts := []Instruction{
		inst(1, OpPushFrame),
	}
	m, _, _ := newTestMachine(insts, nil, "")
	_, err := m.Run(context.Background())
	require.NotNil(t, err)
	assert.Equal(t, ipperr.UndefFrame, err.Code)
}

func TestRedefinitionAfterPushFrame(t *testing.T) {
	insts := []Instruction{
		inst(1, OpCreateFrame),
		inst(2, OpDefVar, VarOperand("TF@v")),
		inst(3, OpPushFrame),
		inst(4, OpDefVar, VarOperand("LF@v")),
	}
	m, _, _ := newTestMachine(insts, nil, "")
	_, err := m.Run(context.Background())
	require.NotNil(t, err)
	assert.Equal(t, ipperr.UndefRedef, err.Code)
}

func TestCallReturn(t *testing.T) {
	// CALL f; WRITE "done"; EXIT 0; LABEL f; WRITE "x"; RETURN
	insts := []Instruction{
		inst(1, OpCall, LabelOperand("f")),
		inst(2, OpWrite, SymbLiteralOperand(ippvalue.Str("done"))),
		inst(3, OpExit, SymbLiteralOperand(ippvalue.Int(0))),
		inst(4, OpLabel, LabelOperand("f")),
		inst(5, OpWrite, SymbLiteralOperand(ippvalue.Str("x"))),
		inst(6, OpReturn),
	}
	labels := map[string]int{"f": 3}
	m, stdout, _ := newTestMachine(insts, labels, "")
	code, err := m.Run(context.Background())
	require.Nil(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, "xdone", stdout.String())
}

func TestBoundedLoopHotOpcode(t *testing.T) {
	// DEFVAR GF@i; MOVE GF@i 3
	// LABEL top; JUMPIFEQ done GF@i int 0; SUB GF@i GF@i int 1; JUMP top
	// LABEL done; EXIT 0
	insts := []Instruction{
		inst(1, OpDefVar, VarOperand("GF@i")),
		inst(2, OpMove, VarOperand("GF@i"), SymbLiteralOperand(ippvalue.Int(3))),
		inst(3, OpLabel, LabelOperand("top")),
		inst(4, OpJumpIfEq, LabelOperand("done"), SymbVarOperand("GF@i"), SymbLiteralOperand(ippvalue.Int(0))),
		inst(5, OpSub, VarOperand("GF@i"), SymbVarOperand("GF@i"), SymbLiteralOperand(ippvalue.Int(1))),
		inst(6, OpJump, LabelOperand("top")),
		inst(7, OpLabel, LabelOperand("done")),
		inst(8, OpExit, SymbLiteralOperand(ippvalue.Int(0))),
	}
	labels := map[string]int{"top": 2, "done": 6}
	m, _, _ := newTestMachine(insts, labels, "")
	code, err := m.Run(context.Background())
	require.Nil(t, err)
	assert.Equal(t, 0, code)

	name, order := m.Stats.Hot()
	assert.Equal(t, "JUMPIFEQ", name)
	assert.Equal(t, 4, order)
}

func TestReadFallsBackToNilOnEOF(t *testing.T) {
	insts := []Instruction{
		inst(1, OpDefVar, VarOperand("GF@x")),
		inst(2, OpRead, VarOperand("GF@x"), TypeOperand("int")),
		inst(3, OpType, VarOperand("GF@x"), SymbVarOperand("GF@x")),
		inst(4, OpWrite, SymbVarOperand("GF@x")),
	}
	m, stdout, _ := newTestMachine(insts, nil, "")
	_, err := m.Run(context.Background())
	require.Nil(t, err)
	assert.Equal(t, "nil", stdout.String())
}

func TestWriteRendersNilAsEmptyString(t *testing.T) {
	insts := []Instruction{
		inst(1, OpWrite, SymbLiteralOperand(ippvalue.Nil())),
	}
	m, stdout, _ := newTestMachine(insts, nil, "")
	_, err := m.Run(context.Background())
	require.Nil(t, err)
	assert.Equal(t, "", stdout.String())
}

func TestEqNilNeverTypeMismatch(t *testing.T) {
	insts := []Instruction{
		inst(1, OpDefVar, VarOperand("GF@r")),
		inst(2, OpEq, VarOperand("GF@r"), SymbLiteralOperand(ippvalue.Nil()), SymbLiteralOperand(ippvalue.Int(5))),
		inst(3, OpWrite, SymbVarOperand("GF@r")),
	}
	m, stdout, _ := newTestMachine(insts, nil, "")
	_, err := m.Run(context.Background())
	require.Nil(t, err)
	assert.Equal(t, "false", stdout.String())
}
