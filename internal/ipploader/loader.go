// Package ipploader turns a serialized IPPcode21 program into a validated,
// order-sorted, label-resolved ippmachine.Program. The input here arrives
// pre-parsed as XML: there is no surface grammar to tokenize, only a
// schema and a fixed per-opcode operand table to validate against.
package ipploader

import (
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"

	"ippinterp21/internal/ipperr"
	"ippinterp21/internal/ippframe"
	"ippinterp21/internal/ippmachine"
	"ippinterp21/internal/ippvalue"
)

var (
	stringPattern = regexp.MustCompile(`^(?:[^\s#\\]|\\[0-9]{3})*$`)
	escapePattern = regexp.MustCompile(`\\[0-9]{3}`)
	labelPattern  = regexp.MustCompile(`^[A-Za-z_\-$&%*!?][A-Za-z0-9_\-$&%*!?]*$`)
)

// xmlArg mirrors the XML shape of one <argK type="…">text</argK>
// element; XMLName carries the actual element tag so its position can be
// checked against the expected "arg1"/"arg2"/"arg3" name.
type xmlArg struct {
	XMLName xml.Name
	Type    string     `xml:"type,attr"`
	Attrs   []xml.Attr `xml:",any,attr"`
	Text    string     `xml:",chardata"`
}

type xmlInstruction struct {
	XMLName xml.Name   `xml:"instruction"`
	Order   string     `xml:"order,attr"`
	Opcode  string     `xml:"opcode,attr"`
	Attrs   []xml.Attr `xml:",any,attr"`
	Args    []xmlArg   `xml:",any"`
}

type xmlOther struct {
	XMLName xml.Name
}

type xmlProgram struct {
	XMLName      xml.Name         `xml:"program"`
	Language     string           `xml:"language,attr"`
	Name         string           `xml:"name,attr"`
	Description  string           `xml:"description,attr"`
	Attrs        []xml.Attr       `xml:",any,attr"`
	Instructions []xmlInstruction `xml:"instruction"`
	Other        []xmlOther       `xml:",any"`
}

func badStruct(format string, args ...interface{}) *ipperr.Error {
	return ipperr.New(ipperr.BadStruct, format, args...)
}

// Load reads and validates one XML-encoded IPPcode21 program from r and
// returns the fully decoded, order-sorted Program, or a classified error.
func Load(r io.Reader) (*ippmachine.Program, *ipperr.Error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, ipperr.New(ipperr.Internal, "cannot read program source: %v", err)
	}

	var doc xmlProgram
	if err := xml.Unmarshal(data, &doc); err != nil {
		if _, ok := err.(*xml.SyntaxError); ok {
			return nil, ipperr.New(ipperr.BadXML, "malformed XML: %v", err)
		}
		return nil, badStruct("invalid program structure: %v", err)
	}

	if err := validateRoot(doc); err != nil {
		return nil, err
	}
	if len(doc.Other) > 0 {
		return nil, badStruct("unexpected child element %q under <program>", doc.Other[0].XMLName.Local)
	}

	insts := make([]ippmachine.Instruction, 0, len(doc.Instructions))
	seenOrders := make(map[int]bool, len(doc.Instructions))

	for _, raw := range doc.Instructions {
		order, err := decodeOrder(raw.Order)
		if err != nil {
			return nil, err
		}
		if seenOrders[order] {
			return nil, badStruct("duplicate instruction order %d", order)
		}
		seenOrders[order] = true

		if len(raw.Attrs) > 0 {
			return nil, badStruct("order %d: unexpected instruction attribute %q", order, raw.Attrs[0].Name.Local)
		}

		opName := strings.ToUpper(raw.Opcode)
		op, ok := ippmachine.Lookup(opName)
		if !ok {
			return nil, badStruct("order %d: unknown opcode %q", order, raw.Opcode)
		}

		args, err := decodeArgs(op, order, raw.Args)
		if err != nil {
			return nil, err
		}

		insts = append(insts, ippmachine.Instruction{Order: order, Op: op, Args: args})
	}

	sort.Slice(insts, func(i, j int) bool { return insts[i].Order < insts[j].Order })

	labels := make(map[string]int, len(insts))
	for i, inst := range insts {
		if inst.Op != ippmachine.OpLabel {
			continue
		}
		name := inst.Args[0].Label
		if _, dup := labels[name]; dup {
			return nil, ipperr.New(ipperr.UndefRedef, "label %q is already defined", name)
		}
		labels[name] = i
	}

	return &ippmachine.Program{Instructions: insts, Labels: labels}, nil
}

func validateRoot(doc xmlProgram) *ipperr.Error {
	if doc.XMLName.Local != "program" {
		return badStruct(`"program" root element not found`)
	}
	if len(doc.Attrs) > 0 {
		return badStruct("unexpected \"program\" attribute %q", doc.Attrs[0].Name.Local)
	}
	if doc.Language == "" {
		return badStruct(`"program" element is missing "language" attribute`)
	}
	if !strings.EqualFold(doc.Language, "IPPcode21") {
		return badStruct("language attribute should be \"IPPcode21\", not %q", doc.Language)
	}
	return nil
}

func decodeOrder(raw string) (int, *ipperr.Error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, badStruct(`"order" attribute must have a positive non-zero integer value, got %q`, raw)
	}
	return n, nil
}

// decodeArgs validates and decodes an instruction's argument elements
// against op's fixed operand-kind signature.
func decodeArgs(op ippmachine.OpCode, order int, raw []xmlArg) ([]ippmachine.Operand, *ipperr.Error) {
	kinds := op.Operands()
	if len(raw) != len(kinds) {
		return nil, badStruct("order %d: %s expects %d argument(s), got %d", order, op, len(kinds), len(raw))
	}

	args := make([]ippmachine.Operand, len(kinds))
	for i, kind := range kinds {
		arg := raw[i]
		expectedTag := fmt.Sprintf("arg%d", i+1)
		if arg.XMLName.Local != expectedTag {
			return nil, badStruct("order %d: expected %q element, found %q", order, expectedTag, arg.XMLName.Local)
		}
		if len(arg.Attrs) > 0 {
			return nil, badStruct("order %d: %s has an unexpected attribute %q", order, expectedTag, arg.Attrs[0].Name.Local)
		}

		operand, err := decodeOperand(kind, order, expectedTag, arg)
		if err != nil {
			return nil, err
		}
		args[i] = operand
	}
	return args, nil
}

func decodeOperand(kind ippmachine.OperandKind, order int, tag string, arg xmlArg) (ippmachine.Operand, *ipperr.Error) {
	switch kind {
	case ippmachine.KindVar:
		if arg.Type != "var" {
			return ippmachine.Operand{}, badStruct("order %d: %s expects type \"var\", got %q", order, tag, arg.Type)
		}
		return decodeVar(order, tag, arg.Text)

	case ippmachine.KindLabel:
		if arg.Type != "label" {
			return ippmachine.Operand{}, badStruct("order %d: %s expects type \"label\", got %q", order, tag, arg.Type)
		}
		if !labelPattern.MatchString(arg.Text) {
			return ippmachine.Operand{}, badStruct("order %d: %s has an invalid label name %q", order, tag, arg.Text)
		}
		return ippmachine.LabelOperand(arg.Text), nil

	case ippmachine.KindType:
		if arg.Type != "type" {
			return ippmachine.Operand{}, badStruct("order %d: %s expects type \"type\", got %q", order, tag, arg.Type)
		}
		switch arg.Text {
		case "int", "string", "bool", "float":
			return ippmachine.TypeOperand(arg.Text), nil
		default:
			return ippmachine.Operand{}, badStruct("order %d: %s has an unsupported type name %q", order, tag, arg.Text)
		}

	case ippmachine.KindSymb:
		return decodeSymb(order, tag, arg)

	default:
		return ippmachine.Operand{}, ipperr.New(ipperr.Internal, "order %d: %s has unhandled operand kind", order, tag)
	}
}

func decodeVar(order int, tag, text string) (ippmachine.Operand, *ipperr.Error) {
	if !ippframe.ValidVarID(text) {
		return ippmachine.Operand{}, badStruct("order %d: %s has an invalid variable identifier %q", order, tag, text)
	}
	return ippmachine.VarOperand(text), nil
}

func decodeSymb(order int, tag string, arg xmlArg) (ippmachine.Operand, *ipperr.Error) {
	switch arg.Type {
	case "var":
		op, err := decodeVar(order, tag, arg.Text)
		if err != nil {
			return ippmachine.Operand{}, err
		}
		return ippmachine.SymbVarOperand(op.VarID), nil

	case "int":
		if arg.Text == "" {
			return ippmachine.Operand{}, badStruct("order %d: %s of type \"int\" cannot be empty", order, tag)
		}
		n, err := strconv.ParseInt(arg.Text, 10, 64)
		if err != nil {
			return ippmachine.Operand{}, badStruct("order %d: %s has an invalid int literal %q", order, tag, arg.Text)
		}
		return ippmachine.SymbLiteralOperand(ippvalue.Int(n)), nil

	case "float":
		f, ferr := ippvalue.ParseHexFloat(arg.Text)
		if ferr != nil {
			return ippmachine.Operand{}, badStruct("order %d: %s has an invalid hex-float literal %q", order, tag, arg.Text)
		}
		return ippmachine.SymbLiteralOperand(ippvalue.Float(f)), nil

	case "bool":
		switch arg.Text {
		case "true":
			return ippmachine.SymbLiteralOperand(ippvalue.Bool(true)), nil
		case "false":
			return ippmachine.SymbLiteralOperand(ippvalue.Bool(false)), nil
		default:
			return ippmachine.Operand{}, badStruct("order %d: %s of type \"bool\" must be \"true\" or \"false\", got %q", order, tag, arg.Text)
		}

	case "nil":
		if arg.Text != "nil" {
			return ippmachine.Operand{}, badStruct("order %d: %s of type \"nil\" must be \"nil\", got %q", order, tag, arg.Text)
		}
		return ippmachine.SymbLiteralOperand(ippvalue.Nil()), nil

	case "string":
		s, serr := decodeString(arg.Text)
		if serr != nil {
			return ippmachine.Operand{}, badStruct("order %d: %s has an invalid string literal: %v", order, tag, serr)
		}
		return ippmachine.SymbLiteralOperand(ippvalue.Str(s)), nil

	default:
		return ippmachine.Operand{}, badStruct("order %d: %s has an unexpected symb type %q", order, tag, arg.Type)
	}
}

// decodeString validates the \DDD-escaped literal syntax and expands every
// escape to its decimal code point's character.
func decodeString(text string) (string, error) {
	if !stringPattern.MatchString(text) {
		return "", fmt.Errorf("does not match the escaped-string grammar")
	}
	return escapePattern.ReplaceAllStringFunc(text, func(m string) string {
		code, _ := strconv.Atoi(m[1:])
		return string(rune(code))
	}), nil
}

// LabelNames returns a deterministically ordered list of every label
// declared in prog, used by diagnostic listings (e.g. a future --labels
// selector) that want stable output independent of map iteration order.
func LabelNames(prog *ippmachine.Program) []string {
	names := make([]string, 0, len(prog.Labels))
	for name := range prog.Labels {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
