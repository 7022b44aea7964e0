package ippvalue

import (
	"unicode/utf8"

	"ippinterp21/internal/ipperr"
)

// Each operator below is total over the Kind space: every combination of
// operand kinds either produces a result or a classified *ipperr.Error.
// None of them carry instruction context (order/opcode); the caller
// (internal/ippmachine) attaches that via ipperr.WithContext.

func typeMismatch(op string, a, b Value) *ipperr.Error {
	return ipperr.New(ipperr.BadOpType, "%s: incompatible operand types %q and %q", op, a.TypeName(), b.TypeName())
}

func typeErr(op string, v Value, want string) *ipperr.Error {
	return ipperr.New(ipperr.BadOpType, "%s: expected %s operand, got %q", op, want, v.TypeName())
}

// Add implements ADD: int+int, float+float, or string+string (concatenation).
func Add(a, b Value) (Value, *ipperr.Error) {
	switch {
	case a.kind == KInt && b.kind == KInt:
		return Int(a.i + b.i), nil
	case a.kind == KFloat && b.kind == KFloat:
		return Float(a.f + b.f), nil
	case a.kind == KString && b.kind == KString:
		return Str(a.s + b.s), nil
	default:
		return Value{}, typeMismatch("ADD", a, b)
	}
}

// Sub implements SUB: int-int or float-float only.
func Sub(a, b Value) (Value, *ipperr.Error) {
	switch {
	case a.kind == KInt && b.kind == KInt:
		return Int(a.i - b.i), nil
	case a.kind == KFloat && b.kind == KFloat:
		return Float(a.f - b.f), nil
	default:
		return Value{}, typeMismatch("SUB", a, b)
	}
}

// Mul implements MUL: int*int or float*float only.
func Mul(a, b Value) (Value, *ipperr.Error) {
	switch {
	case a.kind == KInt && b.kind == KInt:
		return Int(a.i * b.i), nil
	case a.kind == KFloat && b.kind == KFloat:
		return Float(a.f * b.f), nil
	default:
		return Value{}, typeMismatch("MUL", a, b)
	}
}

// IDiv implements integer truncated floor division.
func IDiv(a, b Value) (Value, *ipperr.Error) {
	if a.kind != KInt || b.kind != KInt {
		return Value{}, typeMismatch("IDIV", a, b)
	}
	if b.i == 0 {
		return Value{}, ipperr.New(ipperr.BadOpVal, "IDIV: division by zero")
	}
	q := a.i / b.i
	if (a.i%b.i != 0) && ((a.i < 0) != (b.i < 0)) {
		q--
	}
	return Int(q), nil
}

// Div implements IEEE float division.
func Div(a, b Value) (Value, *ipperr.Error) {
	if a.kind != KFloat || b.kind != KFloat {
		return Value{}, typeMismatch("DIV", a, b)
	}
	if b.f == 0 {
		return Value{}, ipperr.New(ipperr.BadOpVal, "DIV: division by zero")
	}
	return Float(a.f / b.f), nil
}

// Lt implements LT: same-type, non-nil ordering.
func Lt(a, b Value) (Value, *ipperr.Error) {
	c, err := ordCompare("LT", a, b)
	if err != nil {
		return Value{}, err
	}
	return Bool(c < 0), nil
}

// Gt implements GT: same-type, non-nil ordering.
func Gt(a, b Value) (Value, *ipperr.Error) {
	c, err := ordCompare("GT", a, b)
	if err != nil {
		return Value{}, err
	}
	return Bool(c > 0), nil
}

// ordCompare returns negative/zero/positive per the usual Cmp convention.
// Types must match and neither may be nil.
func ordCompare(op string, a, b Value) (int, *ipperr.Error) {
	if a.kind == KNil || b.kind == KNil {
		return 0, ipperr.New(ipperr.BadOpType, "%s: nil is not ordered", op)
	}
	if a.kind != b.kind {
		return 0, typeMismatch(op, a, b)
	}
	switch a.kind {
	case KInt:
		switch {
		case a.i < b.i:
			return -1, nil
		case a.i > b.i:
			return 1, nil
		default:
			return 0, nil
		}
	case KFloat:
		switch {
		case a.f < b.f:
			return -1, nil
		case a.f > b.f:
			return 1, nil
		default:
			return 0, nil
		}
	case KBool:
		// false < true
		bi := func(b bool) int {
			if b {
				return 1
			}
			return 0
		}
		return bi(a.b) - bi(b.b), nil
	case KString:
		switch {
		case a.s < b.s:
			return -1, nil
		case a.s > b.s:
			return 1, nil
		default:
			return 0, nil
		}
	default:
		return 0, ipperr.New(ipperr.BadOpType, "%s: type %q is not ordered", op, a.TypeName())
	}
}

// Eq implements EQ: nil compares equal only to nil (never a type error),
// otherwise same-type value equality; any other type mismatch is an error.
func Eq(a, b Value) (Value, *ipperr.Error) {
	if a.kind == KNil || b.kind == KNil {
		return Bool(a.kind == KNil && b.kind == KNil), nil
	}
	if a.kind != b.kind {
		return Value{}, typeMismatch("EQ", a, b)
	}
	switch a.kind {
	case KInt:
		return Bool(a.i == b.i), nil
	case KFloat:
		return Bool(a.f == b.f), nil
	case KBool:
		return Bool(a.b == b.b), nil
	case KString:
		return Bool(a.s == b.s), nil
	default:
		return Value{}, typeMismatch("EQ", a, b)
	}
}

// And, Or and Not implement the boolean logic operators; operands must be
// bool.
func And(a, b Value) (Value, *ipperr.Error) {
	if a.kind != KBool || b.kind != KBool {
		return Value{}, typeMismatch("AND", a, b)
	}
	return Bool(a.b && b.b), nil
}

func Or(a, b Value) (Value, *ipperr.Error) {
	if a.kind != KBool || b.kind != KBool {
		return Value{}, typeMismatch("OR", a, b)
	}
	return Bool(a.b || b.b), nil
}

func Not(a Value) (Value, *ipperr.Error) {
	if a.kind != KBool {
		return Value{}, typeErr("NOT", a, "bool")
	}
	return Bool(!a.b), nil
}

// Int2Char converts an int code point to a one-rune string.
func Int2Char(a Value) (Value, *ipperr.Error) {
	if a.kind != KInt {
		return Value{}, typeErr("INT2CHAR", a, "int")
	}
	if a.i < 0 || a.i > utf8.MaxRune || !utf8.ValidRune(rune(a.i)) {
		return Value{}, ipperr.New(ipperr.StringErr, "INT2CHAR: %d is not a valid Unicode code point", a.i)
	}
	return Str(string(rune(a.i))), nil
}

// Stri2Int returns the code point of s at the given rune index.
func Stri2Int(s, idx Value) (Value, *ipperr.Error) {
	if s.kind != KString || idx.kind != KInt {
		return Value{}, typeMismatch("STRI2INT", s, idx)
	}
	runes := []rune(s.s)
	if idx.i < 0 || idx.i >= int64(len(runes)) {
		return Value{}, ipperr.New(ipperr.StringErr, "STRI2INT: index %d out of range", idx.i)
	}
	return Int(int64(runes[idx.i])), nil
}

// Int2Float and Float2Int are exact/truncating coercions.
func Int2Float(a Value) (Value, *ipperr.Error) {
	if a.kind != KInt {
		return Value{}, typeErr("INT2FLOAT", a, "int")
	}
	return Float(float64(a.i)), nil
}

func Float2Int(a Value) (Value, *ipperr.Error) {
	if a.kind != KFloat {
		return Value{}, typeErr("FLOAT2INT", a, "float")
	}
	return Int(int64(a.f)), nil // truncates toward zero
}

// Concat implements CONCAT: string+string only (distinct from ADD's
// string-concatenation allowance, since CONCAT never accepts numerics).
func Concat(a, b Value) (Value, *ipperr.Error) {
	if a.kind != KString || b.kind != KString {
		return Value{}, typeMismatch("CONCAT", a, b)
	}
	return Str(a.s + b.s), nil
}

// Strlen returns the code-point length of a string.
func Strlen(a Value) (Value, *ipperr.Error) {
	if a.kind != KString {
		return Value{}, typeErr("STRLEN", a, "string")
	}
	return Int(int64(utf8.RuneCountInString(a.s))), nil
}

// Getchar returns the single-rune substring at the given index.
func Getchar(s, idx Value) (Value, *ipperr.Error) {
	if s.kind != KString || idx.kind != KInt {
		return Value{}, typeMismatch("GETCHAR", s, idx)
	}
	runes := []rune(s.s)
	if idx.i < 0 || idx.i >= int64(len(runes)) {
		return Value{}, ipperr.New(ipperr.StringErr, "GETCHAR: index %d out of range", idx.i)
	}
	return Str(string(runes[idx.i])), nil
}

// Setchar replaces the rune at idx in dst with the first rune of repl,
// returning the resulting string (the caller is responsible for writing it
// back to the destination variable).
func Setchar(dst, idx, repl Value) (Value, *ipperr.Error) {
	if dst.kind != KString || idx.kind != KInt || repl.kind != KString {
		return Value{}, ipperr.New(ipperr.BadOpType, "SETCHAR: expected (string, int, string) operands")
	}
	if repl.s == "" {
		return Value{}, ipperr.New(ipperr.StringErr, "SETCHAR: replacement string is empty")
	}
	runes := []rune(dst.s)
	if idx.i < 0 || idx.i >= int64(len(runes)) {
		return Value{}, ipperr.New(ipperr.StringErr, "SETCHAR: index %d out of range", idx.i)
	}
	replRune, _ := utf8.DecodeRuneInString(repl.s)
	runes[idx.i] = replRune
	return Str(string(runes)), nil
}
