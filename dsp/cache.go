package dsp

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru"
)

// WaveformCache remembers where identical sample buffers were stored so
// repeated content can share waveform memory.
type WaveformCache struct {
	entries *lru.Cache
}

func NewWaveformCache(size int) *WaveformCache {
	entries, err := lru.New(size)
	if err != nil {
		return nil
	}
	return &WaveformCache{entries: entries}
}

func contentKey(is []int16, qs []int16) uint64 {
	d := xxhash.New()
	buf := make([]byte, 4)
	for k := range is {
		binary.LittleEndian.PutUint16(buf[0:], uint16(is[k]))
		binary.LittleEndian.PutUint16(buf[2:], uint16(qs[k]))
		d.Write(buf)
	}
	return d.Sum64()
}

func (wc *WaveformCache) Get(is []int16, qs []int16) (uint32, bool) {
	if wc == nil {
		return 0, false
	}
	v, found := wc.entries.Get(contentKey(is, qs))
	if !found {
		return 0, false
	}
	return v.(uint32), true
}

func (wc *WaveformCache) Add(is []int16, qs []int16, address uint32) {
	if wc == nil {
		return
	}
	wc.entries.Add(contentKey(is, qs), address)
}

func (wc *WaveformCache) Len() int {
	if wc == nil {
		return 0
	}
	return wc.entries.Len()
}
