// Package render turns spectral tables into audio. A Voice owns a bank of
// complex rotators, one per active table bin, and an envelope gate.
//
// Note assignments arrive from the control path through a single-word
// atomic cell; Process drains it at the start of each block. Process never
// allocates, locks or blocks.
package render

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"sync/atomic"

	"github.com/tphakala/go-spectral-synth/internal/audio"
	"github.com/tphakala/go-spectral-synth/internal/simdops"
	"github.com/tphakala/go-spectral-synth/internal/table"
)

// SilenceFloor is the gate level below which a released voice stops
// rendering.
const SilenceFloor = 1e-5

// Nyquist limit as a fraction of the output sample rate.
const nyquist = 0.5

// ErrNotPrepared is returned by Prepare for unusable arguments.
var ErrNotPrepared = errors.New("voice not prepared")

// TableSource looks up the table for a MIDI note.
type TableSource interface {
	Table(note int) *table.Table
}

// Options configures the envelope gate.
type Options struct {
	// AttackSeconds is the gate attack time. Zero opens instantly.
	AttackSeconds float64

	// ReleaseSeconds is the gate release time.
	ReleaseSeconds float64
}

// DefaultOptions returns an instant attack and a 10 ms release.
func DefaultOptions() Options {
	return Options{AttackSeconds: 0, ReleaseSeconds: 0.01}
}

// Voice renders one note at a time from a TableSource.
type Voice struct {
	id     int
	tables TableSource
	opts   Options

	pending cell
	steals  atomic.Uint64

	// Audio path state below.
	sampleRate float64
	maxBins    int

	tbl      *table.Table
	bins     []int
	sounding bool
	note     uint8

	rot, next, inc []complex128
	amps, sines    []float32

	readPos float64
	readInc float64
	posInt  []int
	posFrac []float32
	mix     []float32

	gate Gate
}

// NewVoice creates a voice reading tables from src.
func NewVoice(id int, src TableSource, opts Options) *Voice {
	return &Voice{id: id, tables: src, opts: opts}
}

// ID returns the voice index.
func (v *Voice) ID() int { return v.id }

// NoteOn posts a note assignment for the audio path.
func (v *Voice) NoteOn(ch, note, vel uint8, stolen bool) {
	v.pending.post(packNoteOn(ch, note, vel, stolen))
}

// NoteOff posts a release for the audio path.
func (v *Voice) NoteOff() {
	v.pending.post(pendingEvent(eventNoteOff))
}

// Steals returns how many assignments arrived flagged as stolen.
func (v *Voice) Steals() uint64 { return v.steals.Load() }

// Prepare sizes every scratch buffer for cfg and tables of up to maxBins
// bins. It must not run concurrently with Process.
func (v *Voice) Prepare(cfg audio.CallbackConfig, maxBins int) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrNotPrepared, err)
	}
	if maxBins < 0 {
		return fmt.Errorf("%w: max bins %d", ErrNotPrepared, maxBins)
	}

	v.sampleRate = cfg.SampleRate
	v.maxBins = maxBins

	v.rot = make([]complex128, maxBins)
	v.next = make([]complex128, maxBins)
	v.inc = make([]complex128, maxBins)
	v.amps = make([]float32, maxBins)
	v.sines = make([]float32, maxBins)
	v.bins = make([]int, 0, maxBins)

	v.posInt = make([]int, cfg.FrameSize)
	v.posFrac = make([]float32, cfg.FrameSize)
	v.mix = make([]float32, cfg.FrameSize)

	v.gate.SetTimes(v.opts.AttackSeconds*cfg.SampleRate, v.opts.ReleaseSeconds*cfg.SampleRate)
	v.gate.Reset()
	v.gate.SetOpen(false)
	v.tbl = nil
	v.sounding = false
	v.pending.take()
	return nil
}

// Sounding reports whether the voice produced audio in the last block.
// Only meaningful on the audio path.
func (v *Voice) Sounding() bool { return v.sounding }

// Process applies any pending assignment and adds one block of audio to
// channel 0 of bufs.Out.
func (v *Voice) Process(cfg audio.CallbackConfig, bufs *audio.Buffers) {
	v.applyPending()

	if !v.sounding || v.tbl == nil || len(bufs.Out) == 0 {
		return
	}

	out := bufs.Out[0]
	n := min(cfg.FrameSize, len(out), len(v.mix))
	v.advanceReadPositions(n)
	v.renderBins(n)

	for i := range n {
		out[i] += v.mix[i]
	}

	if !v.gate.Open() && v.gate.Value() < SilenceFloor {
		v.gate.Reset()
		v.sounding = false
	}
}

func (v *Voice) applyPending() {
	e := v.pending.take()
	switch e.kind() {
	case eventNoteOn:
		if e.stolen() {
			v.steals.Add(1)
		}
		v.start(e.note())
	case eventNoteOff:
		v.gate.SetOpen(false)
	}
}

// start binds the table of note and resets the oscillators and read
// position. A missing table silences the voice.
func (v *Voice) start(note uint8) {
	v.note = note
	t := v.tables.Table(int(note))
	if t == nil || !t.IsValid() || v.sampleRate <= 0 {
		v.tbl = nil
		v.sounding = false
		v.gate.SetOpen(false)
		return
	}

	v.tbl = t
	active := t.ActiveBins()
	v.bins = append(v.bins[:0], active[:min(len(active), v.maxBins)]...)

	for k, idx := range v.bins {
		v.rot[k] = 1
		f := t.Bins[idx].Frequency / v.sampleRate
		if f <= 0 || f >= nyquist {
			v.inc[k] = 1
			continue
		}
		v.inc[k] = cmplx.Rect(1, 2*math.Pi*f)
	}

	v.readPos = 0
	v.readInc = t.Config.SampleRate / (v.sampleRate * t.Config.HopSize)
	v.gate.SetOpen(true)
	v.sounding = true
}

// advanceReadPositions fills the integer and fractional envelope positions
// for n samples. Positions past the end hold at the last pair of points.
func (v *Voice) advanceReadPositions(n int) {
	lastValid := float64(max(v.tbl.EnvelopeLength()-2, 0))
	for i := range n {
		v.readPos += v.readInc
		if v.readPos <= lastValid {
			ip := int(v.readPos)
			v.posInt[i] = ip
			v.posFrac[i] = float32(v.readPos - float64(ip))
			continue
		}
		v.posInt[i] = int(lastValid)
		v.posFrac[i] = 0
	}
}

func (v *Voice) renderBins(n int) {
	nb := len(v.bins)
	rot, next := v.rot[:nb], v.next[:nb]
	inc := v.inc[:nb]
	amps, sines := v.amps[:nb], v.sines[:nb]
	dot := simdops.Float32Ops().DotProductUnsafe
	envLen := v.tbl.EnvelopeLength()
	bins := v.tbl.Bins

	for i := range n {
		p, frac := v.posInt[i], v.posFrac[i]
		p1 := min(p+1, envLen-1)
		for k, idx := range v.bins {
			env := bins[idx].Envelope
			a := env[p]
			amps[k] = a + frac*(env[p1]-a)
		}

		simdops.Rotate(next, rot, inc)
		rot, next = next, rot
		for k := range rot {
			sines[k] = float32(imag(rot[k]))
		}

		var s float32
		if nb > 0 {
			s = dot(amps, sines)
		}
		v.mix[i] = s * v.gate.Tick()
	}

	// keep rotators on the unit circle
	for k := range rot {
		if m := cmplx.Abs(rot[k]); m > 0 {
			rot[k] /= complex(m, 0)
		}
	}
	v.rot, v.next = rot[:cap(rot)], next[:cap(next)]
}
