package dsp

import (
	"math"
	"math/rand"
)

// ReverbChannels is the feedback-delay-network's channel count (spec §3
// "ReverbInternals ... C=8").
const ReverbChannels = 8

const (
	diffusionStageCount = 4
	// maxRoomSizeMs bounds the worst-case delay-line length at construction
	// time (spec §9: "pre-allocate the worst-case buffers at construction
	// time... only mutate read pointers and coefficients" on reconfigure).
	maxRoomSizeMs = 20 + 180*1.0
)

// hadamard8 is the normalised 8x8 Sylvester-construction Hadamard matrix
// used to mix the diffuser's per-channel short delays each stage (spec §4.4
// "followed by an 8-point Hadamard mix").
var hadamard8 = [8][8]float64{
	{1, 1, 1, 1, 1, 1, 1, 1},
	{1, -1, 1, -1, 1, -1, 1, -1},
	{1, 1, -1, -1, 1, 1, -1, -1},
	{1, -1, -1, 1, 1, -1, -1, 1},
	{1, 1, 1, 1, -1, -1, -1, -1},
	{1, -1, 1, -1, -1, 1, -1, 1},
	{1, 1, -1, -1, -1, -1, 1, 1},
	{1, -1, -1, 1, -1, 1, 1, -1},
}

const hadamard8Scale = 1.0 / 2.828427124746190097 // 1/sqrt(8)

type diffusionStage struct {
	delay    [ReverbChannels][]float32
	writeIdx [ReverbChannels]int
	length   [ReverbChannels]int
	sign     [ReverbChannels]float64
}

// newDiffusionStage seeds its per-channel delay lengths and polarity flips
// from a stable PRNG per spec §4.4 "Seed": "(12345 + i*6789)".
func newDiffusionStage(stageIndex int, sampleRate float64) *diffusionStage {
	seed := int64(12345 + stageIndex*6789)
	rng := rand.New(rand.NewSource(seed))

	s := &diffusionStage{}
	for c := 0; c < ReverbChannels; c++ {
		ms := 2 + rng.Float64()*13 // short delays: 2-15 ms
		length := int(ms * sampleRate / 1000)
		if length < 1 {
			length = 1
		}
		s.length[c] = length
		s.delay[c] = make([]float32, length)
		if rng.Float64() < 0.5 {
			s.sign[c] = -1
		} else {
			s.sign[c] = 1
		}
	}
	return s
}

func (s *diffusionStage) process(in [ReverbChannels]float64) [ReverbChannels]float64 {
	var delayed [ReverbChannels]float64
	for c := 0; c < ReverbChannels; c++ {
		idx := s.writeIdx[c]
		delayed[c] = float64(s.delay[c][idx]) * s.sign[c]
		s.delay[c][idx] = float32(in[c])
		s.writeIdx[c] = (idx + 1) % s.length[c]
	}

	var out [ReverbChannels]float64
	for i := 0; i < ReverbChannels; i++ {
		var sum float64
		for j := 0; j < ReverbChannels; j++ {
			sum += hadamard8[i][j] * delayed[j]
		}
		out[i] = sum * hadamard8Scale
	}
	return out
}

// Reverb is the shared stereo feedback-delay-network reverb (spec §3
// "ReverbInternals", §4.4). All delay-line buffers are sized at construction
// for the worst-case room size; Configure/MaybeReconfigure only ever mutate
// effective lengths, write indices, and the scalar feedback gain — never the
// backing arrays — so reconfiguration is safe to call from the RT thread
// itself (spec §9 design note, option (i)).
type Reverb struct {
	sampleRate float64

	diffusion [diffusionStageCount]*diffusionStage

	fbDelay    [ReverbChannels][]float32
	fbWriteIdx [ReverbChannels]int
	fbLen      [ReverbChannels]int
	fbGain     float64

	lastRoom float64
	lastRT60 float64
	haveLast bool
}

func NewReverb(sampleRate float64) *Reverb {
	r := &Reverb{sampleRate: sampleRate}

	for i := 0; i < diffusionStageCount; i++ {
		r.diffusion[i] = newDiffusionStage(i, sampleRate)
	}

	maxBaseMs := maxRoomSizeMs
	for c := 0; c < ReverbChannels; c++ {
		capacity := int(maxBaseMs/1000*sampleRate*math.Pow(2, float64(c)/8.0)) + 1
		if capacity < 1 {
			capacity = 1
		}
		r.fbDelay[c] = make([]float32, capacity)
		r.fbLen[c] = capacity
	}

	r.Configure(0.3, 2.0)
	return r
}

// Configure recomputes the feedback delay lengths and decay gain for the
// given room size (spec §4.4 "Calibration": base_ms = 20 + 180*s) and RT60
// decay time, reusing the pre-allocated backing arrays.
func (r *Reverb) Configure(roomSize, rt60 float64) {
	if roomSize < 0 {
		roomSize = 0
	} else if roomSize > 1 {
		roomSize = 1
	}
	if rt60 < 0.1 {
		rt60 = 0.1
	}

	baseMs := 20 + 180*roomSize

	for c := 0; c < ReverbChannels; c++ {
		frames := int(baseMs / 1000 * r.sampleRate * math.Pow(2, float64(c)/8.0))
		if frames < 1 {
			frames = 1
		}
		if frames > cap(r.fbDelay[c]) {
			frames = cap(r.fbDelay[c])
		}
		r.fbLen[c] = frames
		if r.fbWriteIdx[c] >= frames {
			r.fbWriteIdx[c] = 0
		}
	}

	avgLoopMs := 1.5 * baseMs
	r.fbGain = math.Pow(10, (-60*avgLoopMs*1e-3)/(20*rt60))

	r.lastRoom = roomSize
	r.lastRT60 = rt60
	r.haveLast = true
}

// MaybeReconfigure calls Configure only if roomSize or rt60 differ from the
// last-applied values, so a steady-state period pays nothing beyond two
// float comparisons.
func (r *Reverb) MaybeReconfigure(roomSize, rt60 float64) {
	if r.haveLast && r.lastRoom == roomSize && r.lastRT60 == rt60 {
		return
	}
	r.Configure(roomSize, rt60)
}

// Process runs n frames of stereo input through the FDN in place, per spec
// §4.4: input spread to all 8 channels, diffuser cascade, Householder
// feedback mix, output summed (even channels -> L, odd -> R, averaged) and
// blended dry/wet. inL/inR and outL/outR may alias.
func (r *Reverb) Process(inL, inR, outL, outR []float32, n int, dry, wet float64) {
	for i := 0; i < n; i++ {
		l := inL[i]
		rr := inR[i]

		var chIn [ReverbChannels]float64
		for c := 0; c < ReverbChannels; c++ {
			if c%2 == 0 {
				chIn[c] = float64(l)
			} else {
				chIn[c] = float64(rr)
			}
		}

		diffused := chIn
		for _, stage := range r.diffusion {
			diffused = stage.process(diffused)
		}

		var delayed [ReverbChannels]float64
		for c := 0; c < ReverbChannels; c++ {
			delayed[c] = float64(r.fbDelay[c][r.fbWriteIdx[c]])
		}

		var mixed [ReverbChannels]float64
		const n8 = ReverbChannels
		for a := 0; a < ReverbChannels; a++ {
			var sum float64
			for b := 0; b < ReverbChannels; b++ {
				h := -2.0 / n8
				if a == b {
					h = 1 - 2.0/n8
				}
				sum += h * delayed[b]
			}
			mixed[a] = sum
		}

		for c := 0; c < ReverbChannels; c++ {
			newVal := diffused[c] + mixed[c]*r.fbGain
			idx := r.fbWriteIdx[c]
			r.fbDelay[c][idx] = float32(newVal)
			r.fbWriteIdx[c] = (idx + 1) % r.fbLen[c]
		}

		var sumL, sumR float64
		for c := 0; c < ReverbChannels; c += 2 {
			sumL += mixed[c]
		}
		for c := 1; c < ReverbChannels; c += 2 {
			sumR += mixed[c]
		}
		wetL := sumL / (ReverbChannels / 2)
		wetR := sumR / (ReverbChannels / 2)

		outL[i] = float32(dry*float64(l) + wet*wetL)
		outR[i] = float32(dry*float64(rr) + wet*wetR)
	}
}
