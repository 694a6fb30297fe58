package writer

import (
	"log/slog"
	"os"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"
	"github.com/pkg/errors"

	"github.com/handegar/aps2c/utils"
)

// WriteStreamer plays back a fixed buffer of stereo frames.
type WriteStreamer struct {
	Data           [][2]float64
	SamplesWritten int
}

func (ws *WriteStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	if ws.SamplesWritten >= len(ws.Data) {
		return 0, false
	}

	n = copy(samples, ws.Data[ws.SamplesWritten:])
	ws.SamplesWritten += n
	return n, true
}

func (ws *WriteStreamer) Err() error {
	return nil
}

// MemoryToFrames turns waveform memory into stereo frames, I on the left
// and Q on the right.
func MemoryToFrames(is []int16, qs []int16) [][2]float64 {
	utils.Assert(len(is) == len(qs), "I/Q length mismatch (%d vs %d)", len(is), len(qs))

	frames := make([][2]float64, len(is))
	for k := range is {
		frames[k][0] = utils.DACToFloat(is[k])
		frames[k][1] = utils.DACToFloat(qs[k])
	}
	return frames
}

func SaveAsWAV(filename string, sampleRate int, frames [][2]float64) error {
	slog.Info("Writing WAV preview", "file", filename, "samples", len(frames))
	if len(frames) == 0 {
		return errors.Errorf("no samples to write to %s", filename)
	}

	outWAVFile, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "creating %s", filename)
	}
	defer outWAVFile.Close()

	wavFormat := beep.Format{
		SampleRate:  beep.SampleRate(sampleRate),
		NumChannels: 2,
		Precision:   2,
	}
	outStream := &WriteStreamer{Data: frames}
	if err := wav.Encode(outWAVFile, outStream, wavFormat); err != nil {
		return errors.Wrapf(err, "writing samples to %s", filename)
	}

	return nil
}
