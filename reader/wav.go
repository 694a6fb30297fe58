package reader

import (
	"io"
	"os"

	"github.com/pkg/errors"
	wav "github.com/youpy/go-wav"
)

// ReadWAVShape reads a WAV file as a pulse shape. The left channel is the
// real (I) part and the right channel the imaginary (Q) part. Mono files
// give a real-only shape. No resampling is done; the file is expected to
// hold samples at the DAC rate already.
func ReadWAVShape(filename string) ([]complex128, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", filename)
	}
	defer f.Close()

	r := wav.NewReader(f)
	format, err := r.Format()
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %s", filename)
	}

	var shape []complex128
	for {
		samples, err := r.ReadSamples()
		if err == io.EOF || (err == nil && len(samples) == 0) {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "reading samples from %s", filename)
		}

		for _, s := range samples {
			q := 0.0
			if format.NumChannels > 1 {
				q = r.FloatValue(s, 1)
			}
			shape = append(shape, complex(r.FloatValue(s, 0), q))
		}
	}
	return shape, nil
}
