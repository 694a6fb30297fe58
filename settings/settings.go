package settings

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"reflect"

	"github.com/naoina/toml"
	"github.com/pkg/errors"
)

var Version = "0.3"

var InFilename = ""
var OutFilename = "sequence.aps2"
var OutputWav = ""
var SettingsFile = ""

// DAC sample rate (samples/second)
var SampleRate = 1.2e9

// Clock of the modulation engine. NCO tuning words are relative to this.
var ModulationClock = 300e6

// Fold per-pulse phase and frequency offsets into the stored samples.
// When FALSE the samples are left untouched and the phase is expected to
// be applied by the modulation engine at runtime.
var BakeModulation = true

// Number of distinct waveforms kept in the content cache. Zero disables
// content-addressed deduplication (every pulse gets its own memory).
var WaveformCacheSize = 0

// Container attributes
var FileVersion = 4.0
var TargetHardware = "APS2"
var MinFirmwareVersion = 4.0
var ChannelDataFor = []uint16{1, 2}

// Do a code printout
var PrintCode = false

// Dump the instruction library after compiling
var DumpLibrary = false

// Print extra debug info
var PrintDebug = false

// Sample rate used for the WAV preview of waveform memory
var PreviewSampleRate = 48000

// Config mirrors the tunables above for the settings file.
type Config struct {
	SampleRate        float64 `toml:",omitempty"`
	ModulationClock   float64 `toml:",omitempty"`
	BakeModulation    *bool   `toml:",omitempty"`
	WaveformCacheSize int     `toml:",omitempty"`
	PreviewSampleRate int     `toml:",omitempty"`
	Container         ContainerConfig
}

type ContainerConfig struct {
	FileVersion        float64  `toml:",omitempty"`
	TargetHardware     string   `toml:",omitempty"`
	MinFirmwareVersion float64  `toml:",omitempty"`
	ChannelDataFor     []uint16 `toml:",omitempty"`
}

var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		return fmt.Errorf("field '%s' is not defined in %s", field, rt.String())
	},
}

func Current() Config {
	bake := BakeModulation
	return Config{
		SampleRate:        SampleRate,
		ModulationClock:   ModulationClock,
		BakeModulation:    &bake,
		WaveformCacheSize: WaveformCacheSize,
		PreviewSampleRate: PreviewSampleRate,
		Container: ContainerConfig{
			FileVersion:        FileVersion,
			TargetHardware:     TargetHardware,
			MinFirmwareVersion: MinFirmwareVersion,
			ChannelDataFor:     append([]uint16(nil), ChannelDataFor...),
		},
	}
}

// Apply copies every non-zero field of 'cfg' over the current settings.
func Apply(cfg Config) error {
	if cfg.SampleRate < 0 || cfg.ModulationClock < 0 {
		return errors.Errorf("rates must be positive (SampleRate=%g, ModulationClock=%g)",
			cfg.SampleRate, cfg.ModulationClock)
	}
	if cfg.WaveformCacheSize < 0 {
		return errors.Errorf("WaveformCacheSize must not be negative (%d)", cfg.WaveformCacheSize)
	}

	if cfg.SampleRate > 0 {
		SampleRate = cfg.SampleRate
	}
	if cfg.ModulationClock > 0 {
		ModulationClock = cfg.ModulationClock
	}
	if cfg.BakeModulation != nil {
		BakeModulation = *cfg.BakeModulation
	}
	WaveformCacheSize = cfg.WaveformCacheSize
	if cfg.PreviewSampleRate > 0 {
		PreviewSampleRate = cfg.PreviewSampleRate
	}

	c := cfg.Container
	if c.FileVersion > 0 {
		FileVersion = c.FileVersion
	}
	if c.TargetHardware != "" {
		TargetHardware = c.TargetHardware
	}
	if c.MinFirmwareVersion > 0 {
		MinFirmwareVersion = c.MinFirmwareVersion
	}
	if len(c.ChannelDataFor) > 0 {
		ChannelDataFor = c.ChannelDataFor
	}
	return nil
}

// LoadFile reads a TOML settings file on top of the current settings.
func LoadFile(filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return errors.Wrap(err, "opening settings")
	}
	defer f.Close()

	cfg := Config{WaveformCacheSize: WaveformCacheSize}
	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(&cfg)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		return errors.New(filename + ", " + err.Error())
	} else if err != nil {
		return errors.Wrapf(err, "decoding %s", filename)
	}

	return Apply(cfg)
}

// Dump writes the current settings as TOML.
func Dump(w io.Writer) error {
	out, err := tomlSettings.Marshal(Current())
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}
