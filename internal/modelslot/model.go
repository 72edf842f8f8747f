// Package modelslot implements the asynchronous neural-model loader and
// hot-swap fade machinery of spec §4.2. The neural model library itself is
// an external collaborator (spec §1 "Deliberately out of scope"); this
// package only depends on the narrow interface the spec gives it.
package modelslot

// Model is the opaque neural amplifier-emulation model: it converts a float
// buffer to a float buffer of the same length in place, and exposes a
// recommended output-level trim in decibels (spec §3 "ModelSlot").
type Model interface {
	Process(buf []float32, n int)
	RecommendedOutputTrimDB() float64
	SetMaxBufferSize(n int)
}

// Loader loads a Model from a path on disk. Supplied by the caller so this
// package never depends on a concrete neural-inference library.
type Loader func(path string) (Model, error)
