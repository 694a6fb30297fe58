package compiler

import (
	"log/slog"
	"math"

	"github.com/handegar/aps2c/base"
	"github.com/handegar/aps2c/dsp"
	"github.com/handegar/aps2c/sequence"
	"github.com/handegar/aps2c/utils"
)

// lane is the per-channel cursor state while merging a block.
type lane struct {
	id        sequence.ChannelID
	kind      sequence.Kind
	markerSel int
	frequency float64 // NCO frequency of the channel (Hz)
	elements  []sequence.Element
	cursor    int
	elapsed   uint64 // In quanta
}

func (l *lane) exhausted() bool {
	return l.cursor >= len(l.elements)
}

// lanes returns the block's lanes in channel enumeration order. Lanes of
// channels outside the channel map are skipped.
func (c *Compiler) lanes(block *sequence.Block, cm sequence.ChannelMap, seq *sequence.Sequence) []*lane {
	var ret []*lane
	mapped := make(map[sequence.ChannelID]bool)
	for _, id := range cm.Order() {
		mapped[id] = true
		elements, found := block.Lanes[id]
		if !found {
			continue
		}
		ret = append(ret, &lane{
			id:        id,
			kind:      seq.Channels[id].Kind,
			markerSel: cm.MarkerIndex(id),
			frequency: seq.Channels[id].Frequency,
			elements:  elements,
		})
	}

	for id := range block.Lanes {
		if !mapped[id] {
			slog.Debug("Skipping unmapped channel", "channel", id)
		}
	}
	return ret
}

// emit appends the instructions of the lane's next element and returns
// how far the lane advances.
func (c *Compiler) emit(l *lane, lib *dsp.Library, out []base.Instruction) ([]base.Instruction, uint64, error) {
	elem := l.elements[l.cursor]

	switch e := elem.(type) {
	case *sequence.Pulse:
		if l.kind == sequence.Marker {
			rec, found := lib.Marker(e.ID, l.markerSel)
			if !found {
				return out, 0, base.Unsupported("marker pulse '%s' missing from the library", e.ElementName())
			}
			return append(out, rec.Instr), uint64(rec.Quanta()), nil
		}

		rec, found := lib.Waveform(e.ID)
		if !found {
			return out, 0, base.Unsupported("pulse '%s' missing from the library", e.ElementName())
		}
		modulate, err := c.Modulation.Modulate(rec.Quanta())
		if err != nil {
			return out, 0, err
		}
		if c.Waveforms.Bake {
			return append(out, modulate, rec.Instr), uint64(rec.Quanta()), nil
		}

		out, err = c.deferredModulation(l, e, out, modulate, rec.Instr)
		return out, uint64(rec.Quanta()), err

	case sequence.FramePulse:
		instr, err := c.Modulation.UpdateFrame(e.Angle)
		if err != nil {
			return out, 0, err
		}
		// Zero-duration, counts as a zero quantized count
		return append(out, instr), 1, nil
	}

	return out, 0, unsupportedElement(l.id, elem)
}

// deferredModulation wraps the Modulate/waveform pair with the NCO words
// carrying the pulse's frequency offset and phase. Both are restored
// afterwards so later pulses see the channel's own settings.
func (c *Compiler) deferredModulation(l *lane, p *sequence.Pulse, out []base.Instruction,
	modulate base.Instruction, play base.Instruction) ([]base.Instruction, error) {

	var before, after []base.Instruction
	if p.FrequencyOffset != 0 {
		shifted, err := c.Modulation.SetFreq(l.frequency + p.FrequencyOffset)
		if err != nil {
			return out, err
		}
		restore, err := c.Modulation.SetFreq(l.frequency)
		if err != nil {
			return out, err
		}
		before = append(before, shifted)
		after = append(after, restore)
	}
	if p.Phase != 0 {
		phase, err := c.Modulation.SetPhase(p.Phase)
		if err != nil {
			return out, err
		}
		restore, err := c.Modulation.SetPhase(0)
		if err != nil {
			return out, err
		}
		before = append(before, phase)
		after = append([]base.Instruction{restore}, after...)
	}

	out = append(out, before...)
	out = append(out, modulate, play)
	return append(out, after...), nil
}

func unsupportedElement(id sequence.ChannelID, elem sequence.Element) error {
	if elem == nil {
		return base.Unsupported("nil element on channel '%s'", id)
	}
	return base.Unsupported("element '%s' (%T) on channel '%s'", elem.ElementName(), elem, id)
}

// scheduleBlock merges the lanes of 'block' into one time-ordered stream.
// Each round every lane at the minimum elapsed time emits its next
// element, in channel enumeration order.
func (c *Compiler) scheduleBlock(block *sequence.Block, cm sequence.ChannelMap,
	seq *sequence.Sequence, lib *dsp.Library, out []base.Instruction) ([]base.Instruction, error) {

	lanes := c.lanes(block, cm, seq)
	rounds := 0
	for {
		var minElapsed uint64 = math.MaxUint64
		active := false
		for _, l := range lanes {
			if !l.exhausted() && l.elapsed < minElapsed {
				minElapsed = l.elapsed
				active = true
			}
		}
		if !active {
			break
		}

		for _, l := range lanes {
			if l.exhausted() || l.elapsed > minElapsed {
				continue
			}

			var advance uint64
			var err error
			out, advance, err = c.emit(l, lib, out)
			if err != nil {
				return out, err
			}
			utils.Trace("Emit", "channel", l.id, "element", l.elements[l.cursor].ElementName(),
				"at", l.elapsed, "quanta", advance)
			l.elapsed += advance
			l.cursor += 1
		}
		rounds += 1
	}

	slog.Debug("Block scheduled", "lanes", len(lanes), "rounds", rounds)
	return out, nil
}
