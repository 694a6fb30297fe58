package sequence

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/handegar/aps2c/base"
	"github.com/handegar/aps2c/reader"
)

// File layout of a sequence description:
//
//	channels:
//	  q1:    {kind: analog, frequency: 10.0e6}
//	  q1-m1: {kind: marker}
//	channelmap:
//	  analog: [q1]
//	  markers: [q1-m1]
//	pulses:
//	  X90:  {amplitude: 0.5, duration: 20.0e-9, samples: [[0.1, 0], [0.9, 0.1]]}
//	  trig: {amplitude: 1.0, duration: 100.0e-9}
//	program:
//	  - block:
//	      q1: [X90, {frame: 1.5708}, X90]
//	      q1-m1: [trig]
//	  - wait
//	  - goto: 0
type fileChannel struct {
	Kind      string  `yaml:"kind"`
	Frequency float64 `yaml:"frequency"`
}

type fileChannelMap struct {
	Analog  []string `yaml:"analog"`
	Markers []string `yaml:"markers"`
}

type filePulse struct {
	Amplitude       *float64    `yaml:"amplitude"`
	Phase           float64     `yaml:"phase"`
	FrequencyOffset float64     `yaml:"frequency_offset"`
	Duration        float64     `yaml:"duration"`
	Samples         [][]float64 `yaml:"samples"`
	Wav             string      `yaml:"wav"`
}

type file struct {
	Channels   map[string]fileChannel `yaml:"channels"`
	ChannelMap fileChannelMap         `yaml:"channelmap"`
	Pulses     map[string]filePulse   `yaml:"pulses"`
	Program    []yaml.Node            `yaml:"program"`
}

type loader struct {
	dir    string
	seq    *Sequence
	pulses map[string]*Pulse
}

// Load reads a sequence description file. Relative WAV paths are resolved
// against the directory of 'filename'.
func Load(filename string) (*Sequence, ChannelMap, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, ChannelMap{}, errors.Wrapf(err, "reading %s", filename)
	}

	seq, cm, err := Parse(data, filepath.Dir(filename))
	if err != nil {
		return nil, ChannelMap{}, errors.Wrap(err, filename)
	}
	return seq, cm, nil
}

func Parse(data []byte, dir string) (*Sequence, ChannelMap, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, ChannelMap{}, err
	}

	l := &loader{dir: dir, seq: New(), pulses: make(map[string]*Pulse)}

	for name, ch := range f.Channels {
		kind, err := parseKind(ch.Kind)
		if err != nil {
			return nil, ChannelMap{}, errors.Wrapf(err, "channel '%s'", name)
		}
		l.seq.AddChannel(Channel{Name: ChannelID(name), Kind: kind, Frequency: ch.Frequency})
	}

	cm, err := parseChannelMap(f.ChannelMap)
	if err != nil {
		return nil, ChannelMap{}, err
	}

	if err := l.readPulses(f.Pulses); err != nil {
		return nil, ChannelMap{}, err
	}

	for i := range f.Program {
		entry, err := l.readEntry(&f.Program[i])
		if err != nil {
			return nil, ChannelMap{}, err
		}
		l.seq.Append(entry)
	}

	return l.seq, cm, nil
}

func parseKind(kind string) (Kind, error) {
	switch strings.ToLower(kind) {
	case "analog", "":
		return Analog, nil
	case "marker":
		return Marker, nil
	}
	return Analog, errors.Errorf("unknown channel kind '%s'", kind)
}

func parseChannelMap(fcm fileChannelMap) (ChannelMap, error) {
	var cm ChannelMap
	for _, a := range fcm.Analog {
		cm.Analog = append(cm.Analog, ChannelID(a))
	}
	if len(fcm.Markers) > base.NUM_MARKERS {
		return cm, base.InvalidChannelMap("%d markers mapped, the hardware has %d",
			len(fcm.Markers), base.NUM_MARKERS)
	}
	for i, m := range fcm.Markers {
		cm.Markers[i] = ChannelID(m)
	}
	return cm, nil
}

// Pulses are created in name order so identities are stable between runs.
func (l *loader) readPulses(pulses map[string]filePulse) error {
	var names []string
	for name := range pulses {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fp := pulses[name]
		p := Pulse{
			Label:           name,
			Amplitude:       1.0,
			Phase:           fp.Phase,
			FrequencyOffset: fp.FrequencyOffset,
			Duration:        fp.Duration,
		}
		if fp.Amplitude != nil {
			p.Amplitude = *fp.Amplitude
		}
		if fp.Duration < 0 {
			return errors.Errorf("pulse '%s' has negative duration", name)
		}
		if len(fp.Samples) > 0 && fp.Wav != "" {
			return errors.Errorf("pulse '%s' has both samples and a wav file", name)
		}

		for i, s := range fp.Samples {
			switch len(s) {
			case 1:
				p.Shape = append(p.Shape, complex(s[0], 0))
			case 2:
				p.Shape = append(p.Shape, complex(s[0], s[1]))
			default:
				return errors.Errorf("pulse '%s' sample #%d is not [i] or [i, q]", name, i)
			}
		}
		if fp.Wav != "" {
			path := fp.Wav
			if !filepath.IsAbs(path) {
				path = filepath.Join(l.dir, path)
			}
			shape, err := reader.ReadWAVShape(path)
			if err != nil {
				return errors.Wrapf(err, "pulse '%s'", name)
			}
			p.Shape = shape
		}

		l.pulses[name] = l.seq.Pulses.NewPulse(p)
	}
	return nil
}

func (l *loader) readEntry(node *yaml.Node) (Entry, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		switch strings.ToLower(node.Value) {
		case "wait":
			return Wait{}, nil
		case "sync":
			return Sync{}, nil
		case "return":
			return Return{}, nil
		case "loadcmp":
			return LoadCompare{}, nil
		}
		return nil, errors.Errorf("line %d: unknown entry '%s'", node.Line, node.Value)

	case yaml.MappingNode:
		if len(node.Content) != 2 {
			return nil, errors.Errorf("line %d: an entry holds exactly one key", node.Line)
		}
		key, value := node.Content[0], node.Content[1]
		return l.readKeyedEntry(strings.ToLower(key.Value), value)
	}

	return nil, errors.Errorf("line %d: malformed entry", node.Line)
}

func (l *loader) readKeyedEntry(key string, value *yaml.Node) (Entry, error) {
	var number uint32
	decodeNumber := func() error {
		if err := value.Decode(&number); err != nil {
			return errors.Wrapf(err, "line %d: %s", value.Line, key)
		}
		return nil
	}

	switch key {
	case "block":
		return l.readBlock(value)
	case "goto":
		err := decodeNumber()
		return Goto{Target: number}, err
	case "call":
		err := decodeNumber()
		return Call{Target: number}, err
	case "repeat":
		err := decodeNumber()
		return Repeat{Target: number}, err
	case "loadrepeat":
		err := decodeNumber()
		return LoadRepeat{Count: number}, err
	case "prefetch":
		err := decodeNumber()
		return Prefetch{Address: number}, err
	case "compare":
		var c struct {
			Op   string `yaml:"op"`
			Mask uint8  `yaml:"mask"`
		}
		if err := value.Decode(&c); err != nil {
			return nil, errors.Wrapf(err, "line %d: compare", value.Line)
		}
		for op, name := range base.CompareOpNames {
			if name == c.Op {
				return Compare{Op: op, Mask: c.Mask}, nil
			}
		}
		return nil, errors.Errorf("line %d: unknown compare op '%s'", value.Line, c.Op)
	}

	return nil, errors.Errorf("line %d: unknown entry '%s'", value.Line, key)
}

func (l *loader) readBlock(node *yaml.Node) (Entry, error) {
	var lanes map[string][]yaml.Node
	if err := node.Decode(&lanes); err != nil {
		return nil, errors.Wrapf(err, "line %d: block", node.Line)
	}

	block := NewBlock()
	for ch, elements := range lanes {
		if _, found := l.seq.Channels[ChannelID(ch)]; !found {
			return nil, errors.Errorf("line %d: block refers to unknown channel '%s'", node.Line, ch)
		}
		// Keep empty lanes so the channel is known to be part of the block
		block.Lanes[ChannelID(ch)] = []Element{}
		for i := range elements {
			elem, err := l.readElement(&elements[i])
			if err != nil {
				return nil, err
			}
			block.Add(ChannelID(ch), elem)
		}
	}
	return block, nil
}

func (l *loader) readElement(node *yaml.Node) (Element, error) {
	if node.Kind == yaml.ScalarNode {
		p, found := l.pulses[node.Value]
		if !found {
			return nil, errors.Errorf("line %d: unknown pulse '%s'", node.Line, node.Value)
		}
		return p, nil
	}

	var frame struct {
		Frame *float64 `yaml:"frame"`
	}
	if err := node.Decode(&frame); err != nil || frame.Frame == nil {
		return nil, errors.Errorf("line %d: expected a pulse name or {frame: angle}", node.Line)
	}
	return FramePulse{Angle: *frame.Frame}, nil
}
