package dsp

import (
	"fmt"
	"io"

	"github.com/davecgh/go-spew/spew"

	"github.com/handegar/aps2c/base"
	"github.com/handegar/aps2c/sequence"
)

// Memory is the waveform memory image: parallel I and Q sample arrays.
type Memory struct {
	I []int16
	Q []int16

	// Size limit in samples. Zero means base.MAX_WAVEFORM_PTS.
	Capacity int
}

func (m *Memory) Len() int {
	return len(m.I)
}

// Address of the next free quantum
func (m *Memory) NextAddress() uint32 {
	return uint32(len(m.I) / base.ADDRESS_UNIT)
}

func (m *Memory) Append(i []int16, q []int16) (uint32, error) {
	if len(i) != len(q) || len(i)%base.ADDRESS_UNIT != 0 {
		return 0, base.OutOfRange("appending %d/%d samples, expected whole quanta", len(i), len(q))
	}
	capacity := m.Capacity
	if capacity <= 0 {
		capacity = base.MAX_WAVEFORM_PTS
	}
	if len(m.I)+len(i) > capacity {
		return 0, base.OutOfRange("waveform memory of %d samples exceeds %d",
			len(m.I)+len(i), capacity)
	}

	addr := m.NextAddress()
	m.I = append(m.I, i...)
	m.Q = append(m.Q, q...)
	return addr, nil
}

// Record is what the scheduler needs from an encoded pulse.
type Record interface {
	Instruction() base.Instruction
	// How far the lane advances, in quanta
	Quanta() uint32
}

type WaveformRecord struct {
	ID      sequence.PulseID
	Address uint32 // In quanta
	Count   uint32 // Count field: quanta-1, 0 for TA
	Length  uint32 // Logical length in quanta
	IsTA    bool
	Write   bool
	Instr   base.Instruction
}

func (wr *WaveformRecord) Instruction() base.Instruction { return wr.Instr }
func (wr *WaveformRecord) Quanta() uint32                { return wr.Length }

type MarkerRecord struct {
	ID         sequence.PulseID
	Select     int // 1..4
	State      bool
	QuadCount  uint32
	Transition uint8
	Write      bool
	Instr      base.Instruction
}

func (mr *MarkerRecord) Instruction() base.Instruction { return mr.Instr }
func (mr *MarkerRecord) Quanta() uint32                { return mr.QuadCount + 1 }

// A pulse gets one marker record per engine it plays on.
type MarkerKey struct {
	ID     sequence.PulseID
	Select int
}

// Library maps pulse identities to their encoded records. Every identity
// is encoded once; later occurrences reuse the record.
type Library struct {
	Waveforms map[sequence.PulseID]*WaveformRecord
	Markers   map[MarkerKey]*MarkerRecord
	Memory    *Memory
	Stats     EncoderStats

	waveformEncoder *WaveformEncoder
	markerEncoder   *MarkerEncoder
}

func NewLibrary(we *WaveformEncoder, me *MarkerEncoder) *Library {
	lib := &Library{
		Waveforms:       make(map[sequence.PulseID]*WaveformRecord),
		Markers:         make(map[MarkerKey]*MarkerRecord),
		Memory:          &Memory{},
		waveformEncoder: we,
		markerEncoder:   me,
	}
	lib.Stats.Reset()
	return lib
}

func (lib *Library) AddWaveform(p *sequence.Pulse) (*WaveformRecord, error) {
	if rec, found := lib.Waveforms[p.ID]; found {
		return rec, nil
	}

	rec, err := lib.waveformEncoder.Encode(p, lib.Memory, &lib.Stats)
	if err != nil {
		return nil, err
	}
	lib.Waveforms[p.ID] = rec
	return rec, nil
}

func (lib *Library) AddMarker(p *sequence.Pulse, sel int) (*MarkerRecord, error) {
	key := MarkerKey{p.ID, sel}
	if rec, found := lib.Markers[key]; found {
		return rec, nil
	}

	rec, err := lib.markerEncoder.Encode(p, sel)
	if err != nil {
		return nil, err
	}
	lib.Stats.Markers += 1
	if _, whole := Transition(0, rec.State); whole != rec.Transition {
		lib.Stats.RoundedMarkers += 1
	}
	lib.Markers[key] = rec
	return rec, nil
}

func (lib *Library) Waveform(id sequence.PulseID) (*WaveformRecord, bool) {
	rec, found := lib.Waveforms[id]
	return rec, found
}

func (lib *Library) Marker(id sequence.PulseID, sel int) (*MarkerRecord, bool) {
	rec, found := lib.Markers[MarkerKey{id, sel}]
	return rec, found
}

func (lib *Library) Dump(w io.Writer) {
	cfg := spew.ConfigState{
		Indent:                  "  ",
		DisablePointerAddresses: true,
		DisableCapacities:       true,
		SortKeys:                true,
	}
	fmt.Fprintf(w, ";; %d waveforms, %d markers, %d samples of waveform memory\n",
		len(lib.Waveforms), len(lib.Markers), lib.Memory.Len())
	cfg.Fdump(w, lib.Waveforms)
	cfg.Fdump(w, lib.Markers)
}
