package compiler

import (
	"log/slog"
	"sort"

	"github.com/pkg/errors"

	"github.com/handegar/aps2c/base"
	"github.com/handegar/aps2c/dsp"
	"github.com/handegar/aps2c/sequence"
	"github.com/handegar/aps2c/settings"
	"github.com/handegar/aps2c/writer"
)

// Program is a compiled sequence: the instruction stream and the library
// holding waveform memory.
type Program struct {
	Instructions []base.Instruction
	Library      *dsp.Library
}

// Container packs the program with the current container attributes.
func (p *Program) Container() *base.Container {
	c := &base.Container{
		Version:            settings.FileVersion,
		TargetHardware:     settings.TargetHardware,
		MinFirmwareVersion: settings.MinFirmwareVersion,
		ChannelDataFor:     append([]uint16(nil), settings.ChannelDataFor...),
		Instructions:       p.Instructions,
	}
	if p.Library != nil {
		c.WaveformsI = p.Library.Memory.I
		c.WaveformsQ = p.Library.Memory.Q
	}
	return c
}

type OpcodeCount struct {
	Name  string
	Count int
}

// Histogram counts instructions per opcode, most frequent first.
func (p *Program) Histogram() []OpcodeCount {
	counts := make(map[string]int)
	for _, instr := range p.Instructions {
		counts[instr.Name()] += 1
	}

	var ret []OpcodeCount
	for name, count := range counts {
		ret = append(ret, OpcodeCount{name, count})
	}
	sort.Slice(ret, func(i, j int) bool {
		if ret[i].Count != ret[j].Count {
			return ret[i].Count > ret[j].Count
		}
		return ret[i].Name < ret[j].Name
	})
	return ret
}

type Compiler struct {
	Waveforms  *dsp.WaveformEncoder
	Markers    *dsp.MarkerEncoder
	Modulation *dsp.ModulationEncoder
	// Zero means base.MAX_NUM_INSTRUCTIONS
	MaxInstructions int
}

// New returns a compiler set up from the current settings.
func New() *Compiler {
	return &Compiler{
		Waveforms:  dsp.NewWaveformEncoder(),
		Markers:    dsp.NewMarkerEncoder(),
		Modulation: dsp.NewModulationEncoder(),
	}
}

func (c *Compiler) WithSampleRate(rate float64) *Compiler {
	c.Waveforms.SampleRate = rate
	c.Markers.SampleRate = rate
	return c
}

func (c *Compiler) WithBakedModulation(bake bool) *Compiler {
	c.Waveforms.Bake = bake
	return c
}

func (c *Compiler) WithInstructionLimit(n int) *Compiler {
	c.MaxInstructions = n
	return c
}

func (c *Compiler) WithWaveformCache(size int) *Compiler {
	c.Waveforms.Cache = nil
	if size > 0 {
		c.Waveforms.Cache = dsp.NewWaveformCache(size)
	}
	return c
}

// buildLibrary encodes every distinct pulse of the mapped lanes.
func (c *Compiler) buildLibrary(seq *sequence.Sequence, cm sequence.ChannelMap) (*dsp.Library, error) {
	lib := dsp.NewLibrary(c.Waveforms, c.Markers)

	for _, entry := range seq.Entries {
		block, ok := entry.(*sequence.Block)
		if !ok {
			continue
		}

		for _, id := range cm.Order() {
			markerSel := cm.MarkerIndex(id)
			for _, elem := range block.Lanes[id] {
				var err error
				switch e := elem.(type) {
				case *sequence.Pulse:
					if markerSel > 0 {
						_, err = lib.AddMarker(e, markerSel)
					} else {
						_, err = lib.AddWaveform(e)
					}
				case sequence.FramePulse:
				default:
					err = unsupportedElement(id, elem)
				}
				if err != nil {
					return nil, errors.Wrapf(err, "channel '%s'", id)
				}
			}
		}
	}
	return lib, nil
}

// waitPreamble puts the modulation engine in a known state before a
// hardware wait.
func (c *Compiler) waitPreamble(seq *sequence.Sequence, cm sequence.ChannelMap, out []base.Instruction) ([]base.Instruction, error) {
	out = append(out, base.Sync(), c.Modulation.ResetPhase())
	for _, id := range cm.Analog {
		instr, err := c.Modulation.SetFreq(seq.Channels[id].Frequency)
		if err != nil {
			return out, errors.Wrapf(err, "channel '%s'", id)
		}
		out = append(out, instr)
	}
	return out, nil
}

// Compile turns 'seq' into a program. Any error aborts the whole
// compilation.
func (c *Compiler) Compile(seq *sequence.Sequence, cm sequence.ChannelMap) (*Program, error) {
	if seq == nil {
		return nil, errors.New("no sequence")
	}
	if err := seq.Validate(cm); err != nil {
		return nil, err
	}

	lib, err := c.buildLibrary(seq, cm)
	if err != nil {
		return nil, err
	}

	limit := c.MaxInstructions
	if limit <= 0 {
		limit = base.MAX_NUM_INSTRUCTIONS
	}

	var out []base.Instruction
	for i, entry := range seq.Entries {
		switch e := entry.(type) {
		case *sequence.Block:
			out, err = c.scheduleBlock(e, cm, seq, lib, out)
		case sequence.Wait:
			out, err = c.waitPreamble(seq, cm, out)
			out = append(out, base.Wait())
		default:
			var instr base.Instruction
			instr, err = EncodeControl(entry)
			out = append(out, instr)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "entry #%d", i)
		}

		if len(out) > limit {
			return nil, base.OutOfRange("program of %d instructions exceeds %d", len(out), limit)
		}
	}

	slog.Info("Compiled sequence",
		"entries", len(seq.Entries),
		"instructions", len(out),
		"waveforms", len(lib.Waveforms),
		"markers", len(lib.Markers),
		"samples", lib.Memory.Len())

	return &Program{Instructions: out, Library: lib}, nil
}

// CompileProgram compiles with the current settings.
func CompileProgram(seq *sequence.Sequence, cm sequence.ChannelMap) (*Program, error) {
	return New().Compile(seq, cm)
}

// Compile compiles 'seq' and writes the container to 'outputPath'. On
// failure no file is written.
func Compile(outputPath string, seq *sequence.Sequence, cm sequence.ChannelMap) error {
	prog, err := CompileProgram(seq, cm)
	if err != nil {
		return err
	}
	return writer.SaveContainer(outputPath, prog.Container())
}
