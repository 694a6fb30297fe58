package base

// Waveform play word. 'address' and 'count' are in quanta; 'count' is
// the number of quanta minus one and is 0 for isTA words.
func Waveform(address uint32, count uint32, isTA bool, write bool) (Instruction, error) {
	if address > MAX_WAVEFORM_ADDRESS {
		return 0, OutOfRange("waveform address %d exceeds %d", address, MAX_WAVEFORM_ADDRESS)
	}
	if count > MAX_WAVEFORM_COUNT {
		return 0, OutOfRange("waveform count %d exceeds %d", count, MAX_WAVEFORM_COUNT)
	}

	payload := uint64(PLAY)<<WFM_OP_OFFSET |
		uint64(count)<<COUNT_OFFSET |
		uint64(address)
	if isTA {
		payload |= 1 << TA_OFFSET
	}
	return NewInstruction(WFM, WAVEFORM_SELECT, write, payload), nil
}

// Marker play word. 'sel' is the 1-based marker engine.
func Marker(sel int, state bool, quadCount uint32, transition uint8, write bool) (Instruction, error) {
	if sel < 1 || sel > NUM_MARKERS {
		return 0, OutOfRange("marker select %d not in 1..%d", sel, NUM_MARKERS)
	}
	if quadCount > MAX_MARKER_COUNT {
		return 0, OutOfRange("marker count %d exceeds %d", quadCount, MAX_MARKER_COUNT)
	}

	payload := uint64(PLAY)<<WFM_OP_OFFSET |
		uint64(transition&0xF)<<TRANSITION_OFFSET |
		uint64(quadCount)
	if state {
		payload |= 1 << STATE_OFFSET
	}
	return NewInstruction(MARKER, uint8(sel-1), write, payload), nil
}

func Wait() Instruction {
	return NewInstruction(WAIT, 0, false, uint64(WAIT_TRIG)<<WFM_OP_OFFSET)
}

func Sync() Instruction {
	return NewInstruction(SYNC, 0, false, uint64(WAIT_SYNC)<<WFM_OP_OFFSET)
}

func branch(opcode uint8, target uint32) (Instruction, error) {
	if target >= MAX_NUM_INSTRUCTIONS {
		return 0, OutOfRange("%s target %d exceeds %d",
			OpcodeNames[opcode], target, MAX_NUM_INSTRUCTIONS-1)
	}
	return NewInstruction(opcode, 0, false, uint64(target)), nil
}

func Goto(target uint32) (Instruction, error) {
	return branch(GOTO, target)
}

func Call(target uint32) (Instruction, error) {
	return branch(CALL, target)
}

// Decrement the repeat counter and jump to 'target' unless it reached zero
func Repeat(target uint32) (Instruction, error) {
	return branch(REPEAT, target)
}

// Prefetch the waveform cache line starting at 'address'
func Prefetch(address uint32) (Instruction, error) {
	return branch(PREFETCH, address)
}

func Return() Instruction {
	return NewInstruction(RET, 0, false, 0)
}

func LoadRepeat(count uint32) (Instruction, error) {
	if count > MAX_REPEAT_COUNT {
		return 0, OutOfRange("repeat count %d exceeds %d", count, MAX_REPEAT_COUNT)
	}
	return NewInstruction(LOAD, 0, false, uint64(count)), nil
}

func Compare(op uint8, mask uint8) (Instruction, error) {
	if _, found := CompareOpNames[op]; !found {
		return 0, Unsupported("compare op 0x%x", op)
	}
	return NewInstruction(CMP, 0, false, uint64(op)<<8|uint64(mask)), nil
}

func LoadCompare() Instruction {
	return NewInstruction(LOADCMP, 0, false, 0)
}

// Modulation word carrying a signed 32-bit immediate
func Modulation(op uint8, nco uint8, value int32) (Instruction, error) {
	if _, found := ModulatorOpNames[op]; !found {
		return 0, Unsupported("modulator op 0x%x", op)
	}
	payload := uint64(op&0xF)<<MODULATOR_OP_OFFSET |
		uint64(nco&0xF)<<NCO_SELECT_OFFSET |
		uint64(uint32(value))
	return NewInstruction(MODULATION, 0, false, payload), nil
}
