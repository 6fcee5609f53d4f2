package sample

import "math"

// NilSample is stored in both slots of a value that was not sampled on
// the current tick.
const NilSample = math.MinInt32

type Precision int

const (
	PrecisionInt Precision = iota
	PrecisionFloat
)

// precisionFor picks integer storage for channels logged with no decimal
// places.
func precisionFor(decimals uint8) Precision {
	if decimals == 0 {
		return PrecisionInt
	}
	return PrecisionFloat
}

// Value holds the reading of one channel for the current tick.
type Value struct {
	Precision Precision
	Int       int32
	Float     float64
	sampled   bool
}

func newValue(p Precision) Value {
	return Value{Precision: p, Int: NilSample, Float: NilSample}
}

// Sampled reports whether the channel produced a reading this tick. A value
// that was not sampled is distinct from a zero reading.
func (v Value) Sampled() bool {
	return v.sampled
}

// Float64 returns the reading as a float regardless of storage precision.
// A value that was not sampled returns NilSample.
func (v Value) Float64() float64 {
	if !v.sampled {
		return NilSample
	}
	if v.Precision == PrecisionInt {
		return float64(v.Int)
	}
	return v.Float
}

func (v *Value) set(f float64) {
	v.sampled = true
	if v.Precision == PrecisionInt {
		v.Int = int32(f)
		return
	}
	v.Float = f
}

func (v *Value) clear() {
	v.sampled = false
	v.Int = NilSample
	v.Float = NilSample
}
