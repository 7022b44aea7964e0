// Package ippstats collects the three running statistics the --stats CLI
// group can request: executed-instruction count, the high-water mark of
// simultaneously initialized variables, and the most frequently executed
// opcode.
package ippstats

import "golang.org/x/exp/slices"

// entry tracks one opcode's execution frequency and the minimum source
// order among its occurrences, for the hot-opcode tie-break rule.
type entry struct {
	name     string
	count    int
	minOrder int
}

// Collector accumulates statistics over one program run. It is not safe
// for concurrent use; the engine that drives it runs one instruction at a
// time on a single goroutine.
type Collector struct {
	executed int
	maxVars  int
	byName   map[string]*entry
}

// New returns an empty Collector.
func New() *Collector {
	return &Collector{byName: make(map[string]*entry)}
}

// Observe records one executed instruction of the given opcode name and
// source order. Callers must only invoke this for opcodes that count
// toward the executed total (LABEL, BREAK and DPRINT are excluded by the
// caller, per OpCode.CountsTowardExecuted).
func (c *Collector) Observe(name string, order int) {
	c.executed++
	e, ok := c.byName[name]
	if !ok {
		e = &entry{name: name, minOrder: order}
		c.byName[name] = e
	} else if order < e.minOrder {
		e.minOrder = order
	}
	e.count++
}

// Sample records the current count of simultaneously initialized
// variables, updating the running maximum if n is larger. The engine
// calls this after every variable write and after every POPFRAME.
func (c *Collector) Sample(n int) {
	if n > c.maxVars {
		c.maxVars = n
	}
}

// Executed returns the total number of instructions counted so far.
func (c *Collector) Executed() int { return c.executed }

// MaxVars returns the high-water mark recorded by Sample.
func (c *Collector) MaxVars() int { return c.maxVars }

// Hot returns the name of the most frequently executed opcode and the
// minimum source order among its occurrences, breaking ties between
// equally frequent opcodes by preferring the smaller minimum order. If no
// instruction has been observed, it returns ("", 0).
func (c *Collector) Hot() (string, int) {
	if len(c.byName) == 0 {
		return "", 0
	}
	entries := make([]*entry, 0, len(c.byName))
	for _, e := range c.byName {
		entries = append(entries, e)
	}
	slices.SortFunc(entries, func(a, b *entry) int {
		if a.count != b.count {
			return b.count - a.count
		}
		return a.minOrder - b.minOrder
	})
	return entries[0].name, entries[0].minOrder
}
