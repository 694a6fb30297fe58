package sequence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handegar/aps2c/base"
)

func Test_Arena(t *testing.T) {
	var a Arena
	p0 := a.NewPulse(Pulse{Label: "X90", Duration: 20e-9})
	p1 := a.NewPulse(Pulse{Label: "Y90", Duration: 20e-9})

	assert.Equal(t, PulseID(0), p0.ID)
	assert.Equal(t, PulseID(1), p1.ID)
	assert.Equal(t, 2, a.Len())

	got, found := a.Get(1)
	require.True(t, found)
	assert.Same(t, p1, got)

	_, found = a.Get(2)
	assert.False(t, found)
}

func Test_ChannelMapOrder(t *testing.T) {
	cm := ChannelMap{Analog: []ChannelID{"q1", "q1-edge"}}
	cm.Markers[2] = "m3"
	cm.Markers[0] = "m1"

	assert.Equal(t, []ChannelID{"q1", "q1-edge", "m1", "m3"}, cm.Order())
	assert.Equal(t, 3, cm.MarkerIndex("m3"))
	assert.Equal(t, 0, cm.MarkerIndex("q1"))
	assert.False(t, cm.IsEmpty())
	assert.True(t, ChannelMap{}.IsEmpty())
}

func Test_Validate(t *testing.T) {
	seq := New().
		AddChannel(Channel{Name: "q1", Kind: Analog, Frequency: 10e6}).
		AddChannel(Channel{Name: "m1", Kind: Marker})

	assert.NoError(t, seq.Validate(ChannelMap{Analog: []ChannelID{"q1"}}))

	tests := map[string]ChannelMap{
		"empty":   {},
		"unknown": {Analog: []ChannelID{"q2"}},
		"kind":    {Analog: []ChannelID{"m1"}},
		"twice":   {Analog: []ChannelID{"q1", "q1"}},
	}
	for name, cm := range tests {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, seq.Validate(cm), base.ErrInvalidChannelMap)
		})
	}

	var markerOnly ChannelMap
	markerOnly.Markers[0] = "m1"
	assert.NoError(t, seq.Validate(markerOnly))
}

const testProgram = `
channels:
  q1:    {kind: analog, frequency: 10.0e6}
  q1-m1: {kind: marker}
channelmap:
  analog: [q1]
  markers: [q1-m1]
pulses:
  X90:  {amplitude: 0.5, duration: 6.6666666667e-9, samples: [[0.1, 0], [0.9, 0.1], [0.5]]}
  trig: {duration: 100.0e-9}
program:
  - block:
      q1: [X90, {frame: 1.5708}, X90]
      q1-m1: [trig]
  - wait
  - sync
  - loadrepeat: 10
  - repeat: 3
  - compare: {op: "!=", mask: 3}
  - call: 7
  - return
  - loadcmp
  - prefetch: 2
  - goto: 0
`

func Test_Parse(t *testing.T) {
	seq, cm, err := Parse([]byte(testProgram), ".")
	require.NoError(t, err)

	assert.Equal(t, []ChannelID{"q1"}, cm.Analog)
	assert.Equal(t, 1, cm.MarkerIndex("q1-m1"))
	assert.Equal(t, 10.0e6, seq.Channels["q1"].Frequency)
	assert.Equal(t, Marker, seq.Channels["q1-m1"].Kind)
	require.NoError(t, seq.Validate(cm))

	// Pulses are named in sorted order: X90 < trig
	assert.Equal(t, 2, seq.Pulses.Len())
	x90, _ := seq.Pulses.Get(0)
	assert.Equal(t, "X90", x90.Label)
	assert.Equal(t, 0.5, x90.Amplitude)
	assert.Equal(t, []complex128{complex(0.1, 0), complex(0.9, 0.1), complex(0.5, 0)}, x90.Shape)
	trig, _ := seq.Pulses.Get(1)
	assert.Equal(t, 1.0, trig.Amplitude)
	assert.Empty(t, trig.Shape)

	require.Len(t, seq.Entries, 11)
	block, ok := seq.Entries[0].(*Block)
	require.True(t, ok)
	lane := block.Lanes["q1"]
	require.Len(t, lane, 3)
	assert.Same(t, x90, lane[0])
	assert.Same(t, x90, lane[2])
	assert.Equal(t, FramePulse{Angle: 1.5708}, lane[1])
	assert.Len(t, block.Lanes["q1-m1"], 1)

	assert.Equal(t, []Entry{
		Wait{},
		Sync{},
		LoadRepeat{Count: 10},
		Repeat{Target: 3},
		Compare{Op: base.NOTEQUAL, Mask: 3},
		Call{Target: 7},
		Return{},
		LoadCompare{},
		Prefetch{Address: 2},
		Goto{Target: 0},
	}, seq.Entries[1:])
}

func Test_ParseErrors(t *testing.T) {
	tests := map[string]string{
		"unknown entry":    "program: [jump]",
		"unknown pulse":    "channels: {q1: {}}\nprogram: [{block: {q1: [nope]}}]",
		"unknown channel":  "program: [{block: {q9: []}}]",
		"bad kind":         "channels: {q1: {kind: optical}}",
		"bad compare":      "program: [{compare: {op: '<>', mask: 1}}]",
		"too many keys":    "program: [{goto: 1, call: 2}]",
		"bad sample":       "pulses: {p: {samples: [[1, 2, 3]]}}",
		"too many markers": "channelmap: {markers: [a, b, c, d, e]}",
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, _, err := Parse([]byte(doc), ".")
			assert.Error(t, err)
		})
	}
}
