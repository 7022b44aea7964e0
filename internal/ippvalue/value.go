// Package ippvalue implements the IPPcode21 dynamic value model: a tagged
// sum of int, float, string, bool, nil and the uninitialized marker, with
// total, explicitly typed operators instead of an interface-based operator
// hierarchy (see DESIGN.md for why).
package ippvalue

import (
	"fmt"
	"strconv"

	"ippinterp21/internal/ipperr"
)

// Kind identifies which variant of the tagged sum a Value holds.
type Kind uint8

const (
	KUninit Kind = iota
	KInt
	KFloat
	KString
	KBool
	KNil
)

// Value is a dynamically typed IPPcode21 runtime value. The zero Value is
// KUninit, matching a freshly DEFVAR'd, unassigned variable.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	b    bool
}

// Int returns an int-kind Value.
func Int(i int64) Value { return Value{kind: KInt, i: i} }

// Float returns a float-kind Value.
func Float(f float64) Value { return Value{kind: KFloat, f: f} }

// Str returns a string-kind Value.
func Str(s string) Value { return Value{kind: KString, s: s} }

// Bool returns a bool-kind Value.
func Bool(b bool) Value { return Value{kind: KBool, b: b} }

// Nil returns the single nil Value.
func Nil() Value { return Value{kind: KNil} }

// Uninit returns the uninitialized marker Value, the state of a freshly
// defined variable that has not yet been assigned.
func Uninit() Value { return Value{kind: KUninit} }

func (v Value) Kind() Kind           { return v.kind }
func (v Value) IsInitialized() bool  { return v.kind != KUninit }

// IntVal, FloatVal, StrVal and BoolVal extract the payload of a Value whose
// Kind has already been checked by the caller.
func (v Value) IntVal() int64     { return v.i }
func (v Value) FloatVal() float64 { return v.f }
func (v Value) StrVal() string    { return v.s }
func (v Value) BoolVal() bool     { return v.b }

// TypeName returns the type name used by the TYPE instruction: the empty
// string for an uninitialized variable, "nil" for Nil, otherwise the usual
// name.
func (v Value) TypeName() string {
	switch v.kind {
	case KUninit:
		return ""
	case KInt:
		return "int"
	case KFloat:
		return "float"
	case KString:
		return "string"
	case KBool:
		return "bool"
	case KNil:
		return "nil"
	default:
		return ""
	}
}

// String renders the value the way WRITE would, except that nil renders as
// "nil" here (WRITE special-cases nil to the empty string itself).
func (v Value) String() string {
	switch v.kind {
	case KInt:
		return strconv.FormatInt(v.i, 10)
	case KFloat:
		return FormatHexFloat(v.f)
	case KString:
		return v.s
	case KBool:
		if v.b {
			return "true"
		}
		return "false"
	case KNil:
		return "nil"
	default:
		return "<uninitialized>"
	}
}

// GoString supports %#v dumps, rendering the value as "type:value".
func (v Value) GoString() string {
	if v.kind == KUninit {
		return "uninitialized"
	}
	return fmt.Sprintf("%s:%s", v.TypeName(), v.String())
}
