// Package paramplane implements the lock-free parameter plane shared between
// the real-time audio thread and the non-RT control threads (spec §3 "ParamCell<T>",
// §4.7, §5 "Ordering guarantees").
//
// Every mutable control is a single primitive behind a concrete atomic type
// (never a generic boxed atomic.Value on the hot path) so that a control-thread
// write is a single CPU store and an RT-thread read is a single CPU load. No
// cell blocks, allocates, or takes a lock in either direction.
package paramplane

import (
	"math"
	"sync/atomic"
)

// BoolCell is a lock-free single-bool parameter.
type BoolCell struct {
	v atomic.Bool
}

func NewBoolCell(initial bool) *BoolCell {
	c := &BoolCell{}
	c.v.Store(initial)
	return c
}

func (c *BoolCell) Load() bool  { return c.v.Load() }
func (c *BoolCell) Store(v bool) { c.v.Store(v) }

// FloatCell is a lock-free single-float64 parameter, stored as the raw IEEE
// bit pattern behind an atomic.Uint64 so Load/Store never allocate.
type FloatCell struct {
	bits atomic.Uint64
}

func NewFloatCell(initial float64) *FloatCell {
	c := &FloatCell{}
	c.Store(initial)
	return c
}

func (c *FloatCell) Load() float64 {
	return math.Float64frombits(c.bits.Load())
}

func (c *FloatCell) Store(v float64) {
	c.bits.Store(math.Float64bits(v))
}

// StoreClamped stores v clamped to [lo, hi] and returns the stored value, so
// setters can both clamp for the RT path and report the applied value back
// to the control-protocol caller (spec §8 "readback returns the clamped value").
func (c *FloatCell) StoreClamped(v, lo, hi float64) float64 {
	switch {
	case math.IsNaN(v):
		v = 0
	case v < lo:
		v = lo
	case v > hi:
		v = hi
	}
	c.Store(v)
	return v
}

// EnumCell is a lock-free single-enum parameter backed by an int32.
type EnumCell[T ~int32] struct {
	v atomic.Int32
}

func NewEnumCell[T ~int32](initial T) *EnumCell[T] {
	c := &EnumCell[T]{}
	c.v.Store(int32(initial))
	return c
}

func (c *EnumCell[T]) Load() T     { return T(c.v.Load()) }
func (c *EnumCell[T]) Store(v T)   { c.v.Store(int32(v)) }

// StringCell holds a short, infrequently-written string (a model path) behind
// an atomic pointer so the RT-adjacent loader-publish path never takes a lock;
// non-RT writers replace the whole pointer rather than mutate in place.
type StringCell struct {
	p atomic.Pointer[string]
}

func NewStringCell(initial string) *StringCell {
	c := &StringCell{}
	c.Store(initial)
	return c
}

func (c *StringCell) Load() string {
	if p := c.p.Load(); p != nil {
		return *p
	}
	return ""
}

func (c *StringCell) Store(v string) {
	c.p.Store(&v)
}
