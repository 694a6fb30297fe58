package writer

import (
	"bytes"
	"encoding/binary"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/youpy/go-riff"

	"github.com/handegar/aps2c/base"
)

// errWriter remembers the first failed write. The RIFF writer does not
// report header errors itself.
type errWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (ew *errWriter) Write(p []byte) (int, error) {
	if ew.err != nil {
		return 0, ew.err
	}
	n, err := ew.w.Write(p)
	ew.n += int64(n)
	ew.err = err
	return n, err
}

func putString(buf *bytes.Buffer, s string) {
	binary.Write(buf, binary.LittleEndian, uint16(len(s)))
	buf.WriteString(s)
}

func attributeChunk(c *base.Container) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint16(4))

	putString(&buf, base.ATTR_VERSION)
	buf.WriteByte(base.ATTR_FLOAT)
	binary.Write(&buf, binary.LittleEndian, c.Version)

	putString(&buf, base.ATTR_TARGET_HARDWARE)
	buf.WriteByte(base.ATTR_STRING)
	putString(&buf, c.TargetHardware)

	putString(&buf, base.ATTR_MIN_FIRMWARE)
	buf.WriteByte(base.ATTR_FLOAT)
	binary.Write(&buf, binary.LittleEndian, c.MinFirmwareVersion)

	putString(&buf, base.ATTR_CHANNEL_DATA_FOR)
	buf.WriteByte(base.ATTR_UINT16S)
	binary.Write(&buf, binary.LittleEndian, uint32(len(c.ChannelDataFor)))
	binary.Write(&buf, binary.LittleEndian, c.ChannelDataFor)

	return buf.Bytes()
}

func datasetChunk(path string, dtype uint8, count int, data interface{}) []byte {
	var buf bytes.Buffer
	putString(&buf, path)
	buf.WriteByte(dtype)
	binary.Write(&buf, binary.LittleEndian, uint32(count))
	if count > 0 {
		binary.Write(&buf, binary.LittleEndian, data)
	}
	return buf.Bytes()
}

type chunk struct {
	id   string
	data []byte
}

func (c chunk) paddedSize() uint32 {
	return uint32(len(c.data) + len(c.data)%2)
}

// WriteContainer serializes 'c' as a RIFF "APS2" form.
func WriteContainer(w io.Writer, c *base.Container) error {
	instructions := make([]uint64, len(c.Instructions))
	for i, instr := range c.Instructions {
		instructions[i] = uint64(instr)
	}

	chunks := []chunk{
		{base.ATTR_CHUNK, attributeChunk(c)},
		{base.DSET_CHUNK, datasetChunk(base.DSET_CHAN1_WAVEFORMS, base.DTYPE_INT16, len(c.WaveformsI), c.WaveformsI)},
		{base.DSET_CHUNK, datasetChunk(base.DSET_CHAN1_INSTRUCTIONS, base.DTYPE_UINT64, len(instructions), instructions)},
		{base.DSET_CHUNK, datasetChunk(base.DSET_CHAN2_WAVEFORMS, base.DTYPE_INT16, len(c.WaveformsQ), c.WaveformsQ)},
	}

	// Everything after the RIFF size field
	fileSize := uint64(len(base.CONTAINER_FORM))
	for _, ch := range chunks {
		fileSize += 8 + uint64(ch.paddedSize())
	}
	if fileSize > 0xFFFFFFFF {
		return base.OutOfRange("container of %d bytes does not fit a RIFF file", fileSize)
	}

	ew := &errWriter{w: w}
	rw := riff.NewWriter(ew, []byte(base.CONTAINER_FORM), uint32(fileSize))
	for _, ch := range chunks {
		data := ch.data
		rw.WriteChunk([]byte(ch.id), uint32(len(data)), func(w io.Writer) {
			w.Write(data)
			if len(data)%2 == 1 {
				w.Write([]byte{0})
			}
		})
		if ew.err != nil {
			break
		}
	}

	if ew.err != nil {
		return errors.Wrap(ew.err, "writing container")
	}
	slog.Debug("Container written", "bytes", ew.n, "instructions", len(instructions),
		"samples", len(c.WaveformsI))
	return nil
}

// SaveContainer writes 'c' to 'filename'. The data goes to a temporary
// file in the same directory first, so a failed write leaves no file.
func SaveContainer(filename string, c *base.Container) error {
	tmp, err := os.CreateTemp(filepath.Dir(filename), "."+filepath.Base(filename)+".*")
	if err != nil {
		return errors.Wrapf(err, "creating %s", filename)
	}
	tmpName := tmp.Name()

	err = WriteContainer(tmp, c)
	if err == nil {
		err = tmp.Chmod(0644)
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Rename(tmpName, filename)
	}
	if err != nil {
		os.Remove(tmpName)
		return errors.Wrapf(err, "saving %s", filename)
	}
	return nil
}
