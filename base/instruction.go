package base

// Instruction is one packed 64-bit sequencer word.
//
//	 63    60 59  58 57  56 55                                   0
//	| opcode | sel  | - | W |              payload               |
//
// The header byte (bits 63-56) is (opcode << 4) | (sel << 2) | W. The
// meaning of the select bits and of the payload depends on the opcode
// family.
type Instruction uint64

// Field masks for the lower X bits
func mask(bits int) uint64 {
	if bits >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << bits) - 1
}

func NewInstruction(opcode uint8, sel uint8, write bool, payload uint64) Instruction {
	header := uint64(opcode&0xF)<<OPCODE_OFFSET | uint64(sel&0x3)<<SELECT_OFFSET
	if write {
		header |= 0x1
	}
	return Instruction(header<<HEADER_OFFSET | (payload & mask(PAYLOAD_BITS)))
}

func (i Instruction) Header() uint8 {
	return uint8(uint64(i) >> HEADER_OFFSET)
}

func (i Instruction) Opcode() uint8 {
	return i.Header() >> OPCODE_OFFSET
}

func (i Instruction) Select() uint8 {
	return (i.Header() >> SELECT_OFFSET) & 0x3
}

func (i Instruction) Write() bool {
	return i.Header()&0x1 == 1
}

func (i Instruction) Payload() uint64 {
	return uint64(i) & mask(PAYLOAD_BITS)
}

// Field extracts 'bits' bits of the word starting at 'offset'.
func (i Instruction) Field(offset int, bits int) uint64 {
	return (uint64(i) >> offset) & mask(bits)
}

func (i Instruction) Name() string {
	name, found := OpcodeNames[i.Opcode()]
	if !found {
		return "<?>"
	}
	return name
}

//
// Waveform/marker accessors
//

func (i Instruction) SubOp() uint8 {
	return uint8(i.Field(WFM_OP_OFFSET, 2))
}

func (i Instruction) IsTA() bool {
	return i.Field(TA_OFFSET, 1) == 1
}

func (i Instruction) Count() uint32 {
	return uint32(i.Field(COUNT_OFFSET, COUNT_BITS))
}

// Address in quanta (one quantum is ADDRESS_UNIT samples)
func (i Instruction) Address() uint32 {
	return uint32(i.Field(0, ADDRESS_BITS))
}

// Marker engine, 1-based
func (i Instruction) MarkerSelect() int {
	return int(i.Select()) + 1
}

func (i Instruction) Transition() uint8 {
	return uint8(i.Field(TRANSITION_OFFSET, TRANSITION_BITS))
}

func (i Instruction) State() bool {
	return i.Field(STATE_OFFSET, 1) == 1
}

func (i Instruction) QuadCount() uint32 {
	return uint32(i.Field(0, QUAD_COUNT_BITS))
}

//
// Control flow accessors
//

func (i Instruction) Target() uint32 {
	return uint32(i.Field(0, TARGET_BITS))
}

func (i Instruction) RepeatCount() uint32 {
	return uint32(i.Field(0, 16))
}

func (i Instruction) CompareOp() uint8 {
	return uint8(i.Field(8, 2))
}

func (i Instruction) CompareMask() uint8 {
	return uint8(i.Field(0, 8))
}

//
// Modulation accessors
//

func (i Instruction) ModulatorOp() uint8 {
	return uint8(i.Field(MODULATOR_OP_OFFSET, 4))
}

func (i Instruction) NCOSelect() uint8 {
	return uint8(i.Field(NCO_SELECT_OFFSET, 4))
}

// Signed 32-bit immediate of a modulation word
func (i Instruction) Immediate() int32 {
	return int32(uint32(i.Field(0, MODULATOR_VALUE_BITS)))
}
