package compiler

import (
	"github.com/handegar/aps2c/base"
	"github.com/handegar/aps2c/sequence"
)

// EncodeControl maps a control-flow entry to its instruction word.
func EncodeControl(entry sequence.Entry) (base.Instruction, error) {
	switch e := entry.(type) {
	case sequence.Wait:
		return base.Wait(), nil
	case sequence.Sync:
		return base.Sync(), nil
	case sequence.Goto:
		return base.Goto(e.Target)
	case sequence.Call:
		return base.Call(e.Target)
	case sequence.Return:
		return base.Return(), nil
	case sequence.LoadRepeat:
		return base.LoadRepeat(e.Count)
	case sequence.Repeat:
		return base.Repeat(e.Target)
	case sequence.Compare:
		return base.Compare(e.Op, e.Mask)
	case sequence.LoadCompare:
		return base.LoadCompare(), nil
	case sequence.Prefetch:
		return base.Prefetch(e.Address)
	}

	if entry == nil {
		return 0, base.Unsupported("nil control-flow entry")
	}
	return 0, base.Unsupported("control-flow entry '%s' (%T)", entry.EntryName(), entry)
}
