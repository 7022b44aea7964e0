// Package ippframe implements the IPPcode21 frame system: the always-live
// global frame, the recreatable temporary frame, and the local-frame stack
// pushed and popped by PUSHFRAME/POPFRAME.
package ippframe

import (
	"regexp"
	"strings"

	"github.com/dolthub/swiss"

	"ippinterp21/internal/ipperr"
	"ippinterp21/internal/ippvalue"
)

// varIDPattern matches a fully-qualified variable identifier: frame
// designator, '@', then a name starting with a letter or one of the
// permitted symbol characters.
var varIDPattern = regexp.MustCompile(`^(LF|TF|GF)@[A-Za-z_\-$&%*!?][A-Za-z0-9_\-$&%*!?]*$`)

// ValidVarID reports whether id is a syntactically valid FRAME@name
// identifier.
func ValidVarID(id string) bool { return varIDPattern.MatchString(id) }

// Frame is a mapping from variable name to Value, backed by a swiss-table
// map: frames are the hottest string-keyed structure in the engine (probed
// on every operand access, populated on every DEFVAR), so the pack's
// swiss-table dependency is put to direct use here instead of a builtin map.
type Frame struct {
	slots *swiss.Map[string, ippvalue.Value]
}

// NewFrame returns an empty frame with room for at least size variables.
func NewFrame(size int) *Frame {
	if size < 1 {
		size = 1
	}
	return &Frame{slots: swiss.NewMap[string, ippvalue.Value](uint32(size))}
}

func (f *Frame) define(name string) *ipperr.Error {
	if _, ok := f.slots.Get(name); ok {
		return ipperr.New(ipperr.UndefRedef, "variable %q already defined in this frame", name)
	}
	f.slots.Put(name, ippvalue.Uninit())
	return nil
}

func (f *Frame) get(name string) (ippvalue.Value, bool) {
	return f.slots.Get(name)
}

func (f *Frame) set(name string, v ippvalue.Value) bool {
	if _, ok := f.slots.Get(name); !ok {
		return false
	}
	f.slots.Put(name, v)
	return true
}

// countInitialized returns the number of slots holding a value other than
// Uninit, used by the statistics collector's "vars" sample.
func (f *Frame) countInitialized() int {
	if f == nil {
		return 0
	}
	n := 0
	f.slots.Iter(func(_ string, v ippvalue.Value) bool {
		if v.IsInitialized() {
			n++
		}
		return false
	})
	return n
}

// Frames bundles the three frame roles a running program manipulates:
// the global frame (always live), the temporary frame (present iff a
// CREATEFRAME has not yet been consumed by a PUSHFRAME/POPFRAME cycle that
// removed it), and the local-frame stack.
type Frames struct {
	global *Frame
	temp   *Frame // nil unless tfLive
	tfLive bool
	locals []*Frame // top of stack = locals[len(locals)-1]
}

// New returns a Frames with a fresh, empty global frame and no temporary or
// local frames.
func New() *Frames {
	return &Frames{global: NewFrame(8)}
}

// CreateTF implements CREATEFRAME: any prior temporary frame contents are
// discarded and a new, empty one takes its place.
func (fr *Frames) CreateTF() {
	fr.temp = NewFrame(8)
	fr.tfLive = true
}

// PushFrame implements PUSHFRAME: the temporary frame is promoted onto the
// local stack and TF-exists is cleared. Fails with UndefFrame if there is
// no live temporary frame.
func (fr *Frames) PushFrame() *ipperr.Error {
	if !fr.tfLive {
		return ipperr.New(ipperr.UndefFrame, "PUSHFRAME: no temporary frame exists")
	}
	fr.locals = append(fr.locals, fr.temp)
	fr.temp = nil
	fr.tfLive = false
	return nil
}

// PopFrame implements POPFRAME: the top local frame replaces the temporary
// frame. Fails with MissingVal if the local stack is empty.
func (fr *Frames) PopFrame() *ipperr.Error {
	if len(fr.locals) == 0 {
		return ipperr.New(ipperr.MissingVal, "POPFRAME: no local frame to pop")
	}
	n := len(fr.locals) - 1
	fr.temp = fr.locals[n]
	fr.tfLive = true
	fr.locals[n] = nil
	fr.locals = fr.locals[:n]
	return nil
}

// resolve splits a FRAME@name identifier and returns the addressed frame
// (or UndefFrame if that frame is not currently live) along with the bare
// name.
func (fr *Frames) resolve(id string) (*Frame, string, *ipperr.Error) {
	i := strings.IndexByte(id, '@')
	if i < 0 || !ValidVarID(id) {
		return nil, "", ipperr.New(ipperr.BadStruct, "malformed variable identifier %q", id)
	}
	designator, name := id[:i], id[i+1:]
	switch designator {
	case "GF":
		return fr.global, name, nil
	case "TF":
		if !fr.tfLive {
			return nil, "", ipperr.New(ipperr.UndefFrame, "temporary frame does not exist")
		}
		return fr.temp, name, nil
	case "LF":
		if len(fr.locals) == 0 {
			return nil, "", ipperr.New(ipperr.UndefFrame, "local frame stack is empty")
		}
		return fr.locals[len(fr.locals)-1], name, nil
	default:
		return nil, "", ipperr.New(ipperr.BadStruct, "unknown frame designator %q", designator)
	}
}

// DefVar implements DEFVAR: addresses the frame, then inserts name as an
// uninitialized slot. Fails UndefFrame if the frame is not live, or
// UndefRedef if the name already exists in that frame.
func (fr *Frames) DefVar(id string) *ipperr.Error {
	f, name, err := fr.resolve(id)
	if err != nil {
		return err
	}
	return f.define(name)
}

// ReadValue implements read_value: resolves the slot and requires it to be
// both defined and initialized.
func (fr *Frames) ReadValue(id string) (ippvalue.Value, *ipperr.Error) {
	f, name, err := fr.resolve(id)
	if err != nil {
		return ippvalue.Value{}, err
	}
	v, ok := f.get(name)
	if !ok {
		return ippvalue.Value{}, ipperr.New(ipperr.UndefVar, "variable %q is not defined", name)
	}
	if !v.IsInitialized() {
		return ippvalue.Value{}, ipperr.New(ipperr.MissingVal, "variable %q has no value", name)
	}
	return v, nil
}

// WriteValue implements write_value: resolves the slot (without requiring
// initialization) and overwrites its contents.
func (fr *Frames) WriteValue(id string, v ippvalue.Value) *ipperr.Error {
	f, name, err := fr.resolve(id)
	if err != nil {
		return err
	}
	if !f.set(name, v) {
		return ipperr.New(ipperr.UndefVar, "variable %q is not defined", name)
	}
	return nil
}

// TypeOf implements TYPE's variable lookup: like ReadValue but bypasses the
// initialization check, since TYPE must be able to report the empty type
// name for an uninitialized variable.
func (fr *Frames) TypeOf(id string) (ippvalue.Value, *ipperr.Error) {
	f, name, err := fr.resolve(id)
	if err != nil {
		return ippvalue.Value{}, err
	}
	v, ok := f.get(name)
	if !ok {
		return ippvalue.Value{}, ipperr.New(ipperr.UndefVar, "variable %q is not defined", name)
	}
	return v, nil
}

// CountInitialized sums the number of initialized variables across the
// global frame, the current local frame (if any) and the temporary frame
// (if live) — the population the statistics collector samples for its
// "vars" high-water mark.
func (fr *Frames) CountInitialized() int {
	n := fr.global.countInitialized()
	if fr.tfLive {
		n += fr.temp.countInitialized()
	}
	if len(fr.locals) > 0 {
		n += fr.locals[len(fr.locals)-1].countInitialized()
	}
	return n
}
