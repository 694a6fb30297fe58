package reader

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/youpy/go-riff"

	"github.com/handegar/aps2c/base"
)

func readString(r io.Reader) (string, error) {
	var n uint16
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func readAttributes(r io.Reader, c *base.Container) error {
	var count uint16
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return err
	}

	for i := 0; i < int(count); i++ {
		name, err := readString(r)
		if err != nil {
			return err
		}
		var kind uint8
		if err := binary.Read(r, binary.LittleEndian, &kind); err != nil {
			return err
		}

		var value interface{}
		switch kind {
		case base.ATTR_FLOAT:
			var f float64
			err = binary.Read(r, binary.LittleEndian, &f)
			value = f
		case base.ATTR_STRING:
			value, err = readString(r)
		case base.ATTR_UINT16S:
			var n uint32
			if err = binary.Read(r, binary.LittleEndian, &n); err == nil {
				list := make([]uint16, n)
				err = binary.Read(r, binary.LittleEndian, list)
				value = list
			}
		default:
			return errors.Errorf("attribute '%s' has unknown kind %d", name, kind)
		}
		if err != nil {
			return errors.Wrapf(err, "attribute '%s'", name)
		}

		switch name {
		case base.ATTR_VERSION:
			c.Version, _ = value.(float64)
		case base.ATTR_TARGET_HARDWARE:
			c.TargetHardware, _ = value.(string)
		case base.ATTR_MIN_FIRMWARE:
			c.MinFirmwareVersion, _ = value.(float64)
		case base.ATTR_CHANNEL_DATA_FOR:
			c.ChannelDataFor, _ = value.([]uint16)
		}
	}
	return nil
}

func readDataset(r io.Reader, c *base.Container) error {
	path, err := readString(r)
	if err != nil {
		return err
	}
	var dtype uint8
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &dtype); err != nil {
		return err
	}
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return err
	}

	switch dtype {
	case base.DTYPE_INT16:
		data := make([]int16, count)
		if err := binary.Read(r, binary.LittleEndian, data); err != nil {
			return errors.Wrapf(err, "dataset '%s'", path)
		}
		switch path {
		case base.DSET_CHAN1_WAVEFORMS:
			c.WaveformsI = data
		case base.DSET_CHAN2_WAVEFORMS:
			c.WaveformsQ = data
		}
	case base.DTYPE_UINT64:
		data := make([]uint64, count)
		if err := binary.Read(r, binary.LittleEndian, data); err != nil {
			return errors.Wrapf(err, "dataset '%s'", path)
		}
		if path == base.DSET_CHAN1_INSTRUCTIONS {
			c.Instructions = make([]base.Instruction, count)
			for i, d := range data {
				c.Instructions[i] = base.Instruction(d)
			}
		}
	default:
		return errors.Errorf("dataset '%s' has unknown type %d", path, dtype)
	}
	return nil
}

// ReadContainer parses a file written by writer.SaveContainer.
func ReadContainer(filename string) (c *base.Container, err error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	// The RIFF reader panics on truncated files
	defer func() {
		if r := recover(); r != nil {
			c = nil
			err = errors.Errorf("%s: malformed container (%v)", filename, r)
		}
	}()

	form, err := riff.NewReader(file).Read()
	if err != nil {
		return nil, errors.Wrap(err, filename)
	}
	if string(form.FileType) != base.CONTAINER_FORM {
		return nil, errors.Errorf("%s: not an %s container (form '%s')",
			filename, base.CONTAINER_FORM, form.FileType)
	}

	c = &base.Container{}
	for i, chunk := range form.Chunks {
		data, err := io.ReadAll(chunk)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: chunk #%d", filename, i)
		}

		switch string(chunk.ChunkID) {
		case base.ATTR_CHUNK:
			err = readAttributes(bytes.NewReader(data), c)
		case base.DSET_CHUNK:
			err = readDataset(bytes.NewReader(data), c)
		default:
			err = errors.Errorf("unknown chunk '%s'", chunk.ChunkID)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "%s: chunk #%d", filename, i)
		}
	}
	return c, nil
}
