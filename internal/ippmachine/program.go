package ippmachine

import "ippinterp21/internal/ippvalue"

// Operand is one decoded instruction argument. Exactly one payload group is
// meaningful, selected by Kind (and, for KindSymb, by IsVar):
//
//	KindVar:   VarID
//	KindSymb:  VarID (if IsVar) or Literal
//	KindLabel: Label
//	KindType:  TypeName
type Operand struct {
	Kind     OperandKind
	IsVar    bool
	VarID    string
	Literal  ippvalue.Value
	Label    string
	TypeName string
}

// VarOperand builds a KindVar operand.
func VarOperand(id string) Operand { return Operand{Kind: KindVar, IsVar: true, VarID: id} }

// SymbVarOperand builds a KindSymb operand that names a variable.
func SymbVarOperand(id string) Operand { return Operand{Kind: KindSymb, IsVar: true, VarID: id} }

// SymbLiteralOperand builds a KindSymb operand holding a constant.
func SymbLiteralOperand(v ippvalue.Value) Operand { return Operand{Kind: KindSymb, Literal: v} }

// LabelOperand builds a KindLabel operand.
func LabelOperand(name string) Operand { return Operand{Kind: KindLabel, Label: name} }

// TypeOperand builds a KindType operand (READ's second argument).
func TypeOperand(name string) Operand { return Operand{Kind: KindType, TypeName: name} }

// Instruction is one fully decoded program instruction, numbered by its
// source "order" attribute (kept for diagnostics and for the statistics
// collector's tie-break rule, not for addressing — addressing is by index
// in Program.Instructions).
type Instruction struct {
	Order int
	Op    OpCode
	Args  []Operand
}

// Program is a fully loaded, order-sorted instruction sequence with its
// label index resolved. Programs are immutable once loaded: the loader is
// the only writer; the execution engine only reads.
type Program struct {
	Instructions []Instruction
	Labels       map[string]int // label name -> index into Instructions
}

// Len returns the number of instructions in the program.
func (p *Program) Len() int { return len(p.Instructions) }
