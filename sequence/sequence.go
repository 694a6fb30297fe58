package sequence

import (
	"fmt"

	"github.com/handegar/aps2c/base"
)

type Kind int

const (
	Analog Kind = iota
	Marker
)

func (k Kind) String() string {
	switch k {
	case Analog:
		return "analog"
	case Marker:
		return "marker"
	}
	return fmt.Sprintf("<kind %d>", int(k))
}

type ChannelID string

// Channel is one physical output lane. Analog channels drive the I/Q pair
// through the modulation engine, marker channels drive a digital output.
type Channel struct {
	Name      ChannelID
	Kind      Kind
	Frequency float64 // NCO frequency (Hz), analog only
}

// ChannelMap assigns front-end channels to hardware roles. All analog
// lanes share the one I/Q pair (e.g. a qubit and its edge channel).
// Markers[i] drives marker engine i+1; an empty id leaves it unused.
type ChannelMap struct {
	Analog  []ChannelID
	Markers [base.NUM_MARKERS]ChannelID
}

// Order is the fixed channel enumeration order: analog lanes as listed,
// then markers 1..4.
func (cm ChannelMap) Order() []ChannelID {
	var ret []ChannelID
	ret = append(ret, cm.Analog...)
	for _, m := range cm.Markers {
		if m != "" {
			ret = append(ret, m)
		}
	}
	return ret
}

// MarkerIndex returns the 1-based marker engine of 'id', or 0.
func (cm ChannelMap) MarkerIndex(id ChannelID) int {
	for i, m := range cm.Markers {
		if m != "" && m == id {
			return i + 1
		}
	}
	return 0
}

func (cm ChannelMap) IsEmpty() bool {
	return len(cm.Order()) == 0
}

// PulseID is the arena index assigned to a pulse at ingestion.
type PulseID int

// Element is one entry of a channel lane inside a Block.
type Element interface {
	ElementName() string
}

type Pulse struct {
	ID              PulseID
	Label           string
	Amplitude       float64
	Phase           float64 // radians
	FrequencyOffset float64 // Hz
	Duration        float64 // seconds

	// Samples at the DAC rate. Empty means a constant 1.0 for the whole
	// duration.
	Shape []complex128
}

func (p *Pulse) ElementName() string {
	if p.Label != "" {
		return p.Label
	}
	return fmt.Sprintf("pulse_%d", p.ID)
}

// FramePulse is a zero-duration virtual rotation of the channel frame.
type FramePulse struct {
	Angle float64 // radians
}

func (fp FramePulse) ElementName() string {
	return fmt.Sprintf("frame(%.4f)", fp.Angle)
}

// Arena hands out pulse identities.
type Arena struct {
	pulses []*Pulse
}

func (a *Arena) NewPulse(p Pulse) *Pulse {
	ret := p
	ret.ID = PulseID(len(a.pulses))
	a.pulses = append(a.pulses, &ret)
	return &ret
}

func (a *Arena) Get(id PulseID) (*Pulse, bool) {
	if id < 0 || int(id) >= len(a.pulses) {
		return nil, false
	}
	return a.pulses[id], true
}

func (a *Arena) Len() int {
	return len(a.pulses)
}

// Entry is one top-level item of a program.
type Entry interface {
	EntryName() string
}

// Block holds channel-local element lists that all start at a common,
// synchronized time.
type Block struct {
	Lanes map[ChannelID][]Element
}

func NewBlock() *Block {
	return &Block{Lanes: make(map[ChannelID][]Element)}
}

func (b *Block) Add(ch ChannelID, elements ...Element) *Block {
	b.Lanes[ch] = append(b.Lanes[ch], elements...)
	return b
}

func (b *Block) EntryName() string { return "BLOCK" }

//
// Control flow. Targets are absolute instruction indices.
//

type Wait struct{}
type Sync struct{}
type Goto struct{ Target uint32 }
type Call struct{ Target uint32 }
type Return struct{}
type LoadRepeat struct{ Count uint32 }
type Repeat struct{ Target uint32 }
type LoadCompare struct{}
type Prefetch struct{ Address uint32 }

type Compare struct {
	Op   uint8 // base.EQUAL, base.NOTEQUAL, ...
	Mask uint8
}

func (Wait) EntryName() string        { return "WAIT" }
func (Sync) EntryName() string        { return "SYNC" }
func (Goto) EntryName() string        { return "GOTO" }
func (Call) EntryName() string        { return "CALL" }
func (Return) EntryName() string      { return "RETURN" }
func (LoadRepeat) EntryName() string  { return "LOAD" }
func (Repeat) EntryName() string      { return "REPEAT" }
func (Compare) EntryName() string     { return "CMP" }
func (LoadCompare) EntryName() string { return "LOADCMP" }
func (Prefetch) EntryName() string    { return "PREFETCH" }

// Sequence is a resolved, timed program.
type Sequence struct {
	Channels map[ChannelID]Channel
	Entries  []Entry
	Pulses   *Arena
}

func New() *Sequence {
	return &Sequence{
		Channels: make(map[ChannelID]Channel),
		Pulses:   &Arena{},
	}
}

func (s *Sequence) AddChannel(ch Channel) *Sequence {
	s.Channels[ch.Name] = ch
	return s
}

func (s *Sequence) Append(entries ...Entry) *Sequence {
	s.Entries = append(s.Entries, entries...)
	return s
}

// Validate checks that 'cm' refers to known channels of the right kind.
func (s *Sequence) Validate(cm ChannelMap) error {
	if cm.IsEmpty() {
		return base.InvalidChannelMap("no analog and no marker channels mapped")
	}

	seen := make(map[ChannelID]bool)
	check := func(id ChannelID, kind Kind) error {
		ch, found := s.Channels[id]
		if !found {
			return base.InvalidChannelMap("unknown channel '%s'", id)
		}
		if ch.Kind != kind {
			return base.InvalidChannelMap("channel '%s' is %s, mapped as %s", id, ch.Kind, kind)
		}
		if seen[id] {
			return base.InvalidChannelMap("channel '%s' mapped twice", id)
		}
		seen[id] = true
		return nil
	}

	for _, id := range cm.Analog {
		if err := check(id, Analog); err != nil {
			return err
		}
	}
	for _, id := range cm.Markers {
		if id == "" {
			continue
		}
		if err := check(id, Marker); err != nil {
			return err
		}
	}
	return nil
}
