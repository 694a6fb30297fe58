package compiler

import (
	"math"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/handegar/aps2c/base"
	"github.com/handegar/aps2c/reader"
	"github.com/handegar/aps2c/sequence"
)

const rate = 1.2e9

// Duration of 'quanta' whole quanta
func quanta(n int) float64 {
	return float64(n*base.ADDRESS_UNIT) / rate
}

type bogusElement struct{}

func (bogusElement) ElementName() string { return "bogus" }

type bogusEntry struct{}

func (bogusEntry) EntryName() string { return "BOGUS" }

func ramp(n int) []complex128 {
	ret := make([]complex128, n)
	for i := range ret {
		ret[i] = complex(float64(i+1)/float64(n), 0)
	}
	return ret
}

var _ = Describe("Compiler", func() {
	var (
		seq *sequence.Sequence
		cm  sequence.ChannelMap
		c   *Compiler
	)

	BeforeEach(func() {
		seq = sequence.New().
			AddChannel(sequence.Channel{Name: "A", Kind: sequence.Analog}).
			AddChannel(sequence.Channel{Name: "B", Kind: sequence.Analog, Frequency: 10e6}).
			AddChannel(sequence.Channel{Name: "M1", Kind: sequence.Marker})
		cm = sequence.ChannelMap{Analog: []sequence.ChannelID{"A"}}
		c = New().WithSampleRate(rate).WithBakedModulation(true).WithWaveformCache(0)
	})

	Context("when compiling a single pulse followed by a wait", func() {
		It("should produce the reference stream", func() {
			p := seq.Pulses.NewPulse(sequence.Pulse{Amplitude: 1.0, Shape: ramp(8)})
			seq.Append(sequence.NewBlock().Add("A", p), sequence.Wait{})

			prog, err := c.Compile(seq, cm)
			Expect(err).NotTo(HaveOccurred())

			instrs := prog.Instructions
			Expect(instrs).To(HaveLen(6))

			Expect(instrs[0].Opcode()).To(Equal(base.MODULATION))
			Expect(instrs[0].ModulatorOp()).To(Equal(base.MODULATE))
			Expect(instrs[0].Immediate()).To(Equal(int32(1)))

			Expect(instrs[1].Opcode()).To(Equal(base.WFM))
			Expect(instrs[1].Address()).To(Equal(uint32(0)))
			Expect(instrs[1].Count()).To(Equal(uint32(1)))
			Expect(instrs[1].IsTA()).To(BeFalse())

			Expect(instrs[2]).To(Equal(base.Sync()))
			Expect(instrs[3].ModulatorOp()).To(Equal(base.RESET_PHASE))
			Expect(instrs[4].ModulatorOp()).To(Equal(base.SET_FREQ))
			Expect(instrs[4].NCOSelect()).To(Equal(base.NCO_DEFAULT))
			Expect(instrs[4].Immediate()).To(Equal(int32(0)))
			Expect(instrs[5]).To(Equal(base.Wait()))

			Expect(prog.Library.Memory.I).To(HaveLen(8))
			Expect(prog.Library.Memory.Q).To(HaveLen(8))
		})
	})

	Context("when merging channels", func() {
		It("should interleave by elapsed time with a stable tie-break", func() {
			cm.Analog = []sequence.ChannelID{"A", "B"}
			a0 := seq.Pulses.NewPulse(sequence.Pulse{Amplitude: 0.5, Duration: quanta(10)})
			a1 := seq.Pulses.NewPulse(sequence.Pulse{Amplitude: 0.5, Duration: quanta(10)})
			b0 := seq.Pulses.NewPulse(sequence.Pulse{Amplitude: 0.5, Duration: quanta(5)})
			b1 := seq.Pulses.NewPulse(sequence.Pulse{Amplitude: 0.5, Duration: quanta(15)})
			seq.Append(sequence.NewBlock().Add("A", a0, a1).Add("B", b0, b1))

			prog, err := c.Compile(seq, cm)
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Instructions).To(HaveLen(8))

			// Library order is A0, A1, B0, B1; emission order A0, B0, B1, A1
			var counts []int32
			var addresses []uint32
			for i := 0; i < len(prog.Instructions); i += 2 {
				counts = append(counts, prog.Instructions[i].Immediate())
				addresses = append(addresses, prog.Instructions[i+1].Address())
			}
			Expect(counts).To(Equal([]int32{9, 4, 14, 9}))
			Expect(addresses).To(Equal([]uint32{0, 2, 3, 1}))
		})

		It("should emit only UpdateFrame for frame pulses", func() {
			p := seq.Pulses.NewPulse(sequence.Pulse{Amplitude: 0.5, Duration: quanta(2)})
			seq.Append(sequence.NewBlock().Add("A", sequence.FramePulse{Angle: 0}, p))

			prog, err := c.Compile(seq, cm)
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Instructions).To(HaveLen(3))
			Expect(prog.Instructions[0].ModulatorOp()).To(Equal(base.UPDATE_FRAME))
			Expect(prog.Instructions[1].ModulatorOp()).To(Equal(base.MODULATE))
			Expect(prog.Instructions[2].Opcode()).To(Equal(base.WFM))
		})

		It("should emit marker words without modulation", func() {
			cm.Markers[0] = "M1"
			p := seq.Pulses.NewPulse(sequence.Pulse{Amplitude: 0.5, Duration: quanta(3)})
			m := seq.Pulses.NewPulse(sequence.Pulse{Amplitude: 1.0, Duration: 13 / rate})
			seq.Append(sequence.NewBlock().Add("M1", m).Add("A", p))

			prog, err := c.Compile(seq, cm)
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Instructions).To(HaveLen(3))
			Expect(prog.Instructions[0].Opcode()).To(Equal(base.MODULATION))
			Expect(prog.Instructions[1].Opcode()).To(Equal(base.WFM))

			marker := prog.Instructions[2]
			Expect(marker.Opcode()).To(Equal(base.MARKER))
			Expect(marker.MarkerSelect()).To(Equal(1))
			Expect(marker.QuadCount()).To(Equal(uint32(3)))
			Expect(marker.Transition()).To(Equal(uint8(0b0111)))
		})

		It("should encode a repeated pulse once", func() {
			p := seq.Pulses.NewPulse(sequence.Pulse{Amplitude: 1.0, Shape: ramp(8)})
			seq.Append(sequence.NewBlock().Add("A", p, p, p))

			prog, err := c.Compile(seq, cm)
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Instructions).To(HaveLen(6))
			Expect(prog.Library.Memory.Len()).To(Equal(8))
			Expect(prog.Instructions[1]).To(Equal(prog.Instructions[5]))
		})

		It("should advance marker lanes by their quad count plus one", func() {
			cm.Markers[0] = "M1"
			a := seq.Pulses.NewPulse(sequence.Pulse{Amplitude: 0.5, Duration: quanta(2)})
			m := seq.Pulses.NewPulse(sequence.Pulse{Amplitude: 1.0, Duration: quanta(1)})
			seq.Append(sequence.NewBlock().Add("A", a, a).Add("M1", m, m, m, m))

			prog, err := c.Compile(seq, cm)
			Expect(err).NotTo(HaveOccurred())

			var opcodes []uint8
			for _, instr := range prog.Instructions {
				opcodes = append(opcodes, instr.Opcode())
			}
			Expect(opcodes).To(Equal([]uint8{
				base.MODULATION, base.WFM, base.MARKER,
				base.MODULATION, base.WFM, base.MARKER,
				base.MARKER, base.MARKER,
			}))
		})

		It("should select the right engine for a pulse shared by marker channels", func() {
			seq.AddChannel(sequence.Channel{Name: "M2", Kind: sequence.Marker})
			cm.Markers[0] = "M1"
			cm.Markers[1] = "M2"
			m := seq.Pulses.NewPulse(sequence.Pulse{Amplitude: 1.0, Duration: quanta(2)})
			seq.Append(sequence.NewBlock().Add("M1", m).Add("M2", m))

			prog, err := c.Compile(seq, cm)
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Instructions).To(HaveLen(2))

			Expect(prog.Instructions[0].Opcode()).To(Equal(base.MARKER))
			Expect(prog.Instructions[0].MarkerSelect()).To(Equal(1))
			Expect(prog.Instructions[1].Opcode()).To(Equal(base.MARKER))
			Expect(prog.Instructions[1].MarkerSelect()).To(Equal(2))
			Expect(prog.Instructions[0].QuadCount()).To(Equal(prog.Instructions[1].QuadCount()))
		})

		It("should skip channels outside the channel map", func() {
			p := seq.Pulses.NewPulse(sequence.Pulse{Amplitude: 1.0, Shape: ramp(8)})
			seq.Append(sequence.NewBlock().Add("A", p).Add("B", p))

			prog, err := c.Compile(seq, cm)
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Instructions).To(HaveLen(2))
		})
	})

	Context("when modulation is deferred to the hardware", func() {
		var p *sequence.Pulse

		BeforeEach(func() {
			c.WithBakedModulation(false)
			p = seq.Pulses.NewPulse(sequence.Pulse{
				Amplitude:       0.5,
				Phase:           math.Pi / 2,
				FrequencyOffset: 5e6,
				Duration:        quanta(2),
			})
			seq.Append(sequence.NewBlock().Add("A", p))
		})

		It("should set and restore the phase and frequency around the pulse", func() {
			prog, err := c.Compile(seq, cm)
			Expect(err).NotTo(HaveOccurred())

			instrs := prog.Instructions
			Expect(instrs).To(HaveLen(6))
			Expect(instrs[0].ModulatorOp()).To(Equal(base.SET_FREQ))
			Expect(instrs[0].Immediate()).To(Equal(int32(-4473924)))
			Expect(instrs[1].ModulatorOp()).To(Equal(base.SET_PHASE))
			Expect(instrs[1].Immediate()).To(Equal(int32(1 << 26)))
			Expect(instrs[2].ModulatorOp()).To(Equal(base.MODULATE))
			Expect(instrs[3].Opcode()).To(Equal(base.WFM))
			Expect(instrs[4].ModulatorOp()).To(Equal(base.SET_PHASE))
			Expect(instrs[4].Immediate()).To(Equal(int32(0)))
			Expect(instrs[5].ModulatorOp()).To(Equal(base.SET_FREQ))
			Expect(instrs[5].Immediate()).To(Equal(int32(0)))
		})

		It("should leave the NCO alone for plain pulses", func() {
			p.Phase = 0
			p.FrequencyOffset = 0

			prog, err := c.Compile(seq, cm)
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Instructions).To(HaveLen(2))
			Expect(prog.Instructions[0].ModulatorOp()).To(Equal(base.MODULATE))
			Expect(prog.Instructions[1].Opcode()).To(Equal(base.WFM))
		})

		It("should emit only the pulse when modulation is baked", func() {
			c.WithBakedModulation(true)

			prog, err := c.Compile(seq, cm)
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Instructions).To(HaveLen(2))
		})
	})

	Context("when compiling control flow", func() {
		It("should precede every wait with the modulator preamble", func() {
			cm.Analog = []sequence.ChannelID{"A", "B"}
			seq.Append(sequence.Wait{}, sequence.Goto{Target: 0}, sequence.Wait{})

			prog, err := c.Compile(seq, cm)
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Instructions).To(HaveLen(11))

			for _, start := range []int{0, 6} {
				instrs := prog.Instructions[start:]
				Expect(instrs[0]).To(Equal(base.Sync()))
				Expect(instrs[1].ModulatorOp()).To(Equal(base.RESET_PHASE))
				Expect(instrs[1].NCOSelect()).To(Equal(base.NCO_ALL))
				Expect(instrs[2].ModulatorOp()).To(Equal(base.SET_FREQ))
				Expect(instrs[2].Immediate()).To(Equal(int32(0)))
				Expect(instrs[3].ModulatorOp()).To(Equal(base.SET_FREQ))
				Expect(instrs[3].Immediate()).To(Equal(int32(-8947849)))
				Expect(instrs[4]).To(Equal(base.Wait()))
			}
			Expect(prog.Instructions[5].Opcode()).To(Equal(base.GOTO))
		})

		It("should keep goto targets intact", func() {
			seq.Append(sequence.Goto{Target: 12345}, sequence.Goto{Target: base.MAX_NUM_INSTRUCTIONS - 1})

			prog, err := c.Compile(seq, cm)
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Instructions[0].Target()).To(Equal(uint32(12345)))
			Expect(prog.Instructions[1].Target()).To(Equal(uint32(base.MAX_NUM_INSTRUCTIONS - 1)))
		})

		It("should encode the remaining control-flow entries", func() {
			seq.Append(
				sequence.Sync{},
				sequence.LoadRepeat{Count: 10},
				sequence.Repeat{Target: 3},
				sequence.Call{Target: 9},
				sequence.Return{},
				sequence.Compare{Op: base.LESSTHAN, Mask: 0xf},
				sequence.LoadCompare{},
				sequence.Prefetch{Address: 4},
			)

			prog, err := c.Compile(seq, cm)
			Expect(err).NotTo(HaveOccurred())

			var opcodes []uint8
			for _, instr := range prog.Instructions {
				opcodes = append(opcodes, instr.Opcode())
			}
			Expect(opcodes).To(Equal([]uint8{
				base.SYNC, base.LOAD, base.REPEAT, base.CALL, base.RET,
				base.CMP, base.LOADCMP, base.PREFETCH,
			}))
			Expect(prog.Instructions[1].RepeatCount()).To(Equal(uint32(10)))
			Expect(prog.Instructions[5].CompareOp()).To(Equal(base.LESSTHAN))
		})
	})

	Context("when the input is invalid", func() {
		It("should reject unknown block elements without writing a file", func() {
			filename := filepath.Join(GinkgoT().TempDir(), "prog.aps2")
			seq.Append(sequence.NewBlock().Add("A", bogusElement{}))

			err := Compile(filename, seq, cm)
			Expect(err).To(MatchError(base.ErrUnsupportedConstruct))
			_, statErr := os.Stat(filename)
			Expect(os.IsNotExist(statErr)).To(BeTrue())
		})

		It("should reject unknown entries", func() {
			seq.Append(bogusEntry{})
			_, err := c.Compile(seq, cm)
			Expect(err).To(MatchError(base.ErrUnsupportedConstruct))
		})

		It("should reject an empty channel map", func() {
			_, err := c.Compile(seq, sequence.ChannelMap{})
			Expect(err).To(MatchError(base.ErrInvalidChannelMap))
		})

		It("should reject programs longer than the instruction memory", func() {
			c.WithInstructionLimit(5)
			seq.Append(sequence.Wait{}, sequence.Wait{})
			_, err := c.Compile(seq, cm)
			Expect(err).To(MatchError(base.ErrRangeViolation))
		})

		It("should reject out-of-range repeat counts", func() {
			seq.Append(sequence.LoadRepeat{Count: base.MAX_REPEAT_COUNT + 1})
			_, err := c.Compile(seq, cm)
			Expect(err).To(MatchError(base.ErrRangeViolation))
		})
	})

	Context("when writing the container", func() {
		It("should be deterministic", func() {
			p := seq.Pulses.NewPulse(sequence.Pulse{Amplitude: 0.7, Phase: 0.3, Shape: ramp(12)})
			seq.Append(sequence.NewBlock().Add("A", p, sequence.FramePulse{Angle: 1.2}, p), sequence.Wait{})

			dir := GinkgoT().TempDir()
			first := filepath.Join(dir, "first.aps2")
			second := filepath.Join(dir, "second.aps2")
			Expect(Compile(first, seq, cm)).To(Succeed())
			Expect(Compile(second, seq, cm)).To(Succeed())

			a, err := os.ReadFile(first)
			Expect(err).NotTo(HaveOccurred())
			b, err := os.ReadFile(second)
			Expect(err).NotTo(HaveOccurred())
			Expect(a).To(Equal(b))
		})

		It("should write empty waveforms for marker-only programs", func() {
			var markers sequence.ChannelMap
			markers.Markers[0] = "M1"
			m := seq.Pulses.NewPulse(sequence.Pulse{Amplitude: 1.0, Duration: quanta(4)})
			seq.Append(sequence.NewBlock().Add("M1", m), sequence.Wait{})

			filename := filepath.Join(GinkgoT().TempDir(), "markers.aps2")
			Expect(Compile(filename, seq, markers)).To(Succeed())

			container, err := reader.ReadContainer(filename)
			Expect(err).NotTo(HaveOccurred())
			Expect(container.WaveformsI).To(BeEmpty())
			Expect(container.WaveformsQ).To(BeEmpty())
			Expect(container.Instructions).To(HaveLen(4))
			Expect(container.TargetHardware).To(Equal("APS2"))
			Expect(container.ChannelDataFor).To(Equal([]uint16{1, 2}))
		})
	})

	It("should count opcodes", func() {
		seq.Append(sequence.Wait{}, sequence.Wait{}, sequence.Goto{Target: 0})
		prog, err := c.Compile(seq, cm)
		Expect(err).NotTo(HaveOccurred())

		hist := prog.Histogram()
		Expect(hist[0]).To(Equal(OpcodeCount{"MODULATION", 4}))
		Expect(hist).To(ContainElement(OpcodeCount{"GOTO", 1}))
	})
})
