package base

// Container file layout. The file is a RIFF form of type "APS2":
//
//	"attr" chunk: uint16 count, then per attribute
//	              uint16 name length, name, uint8 kind, value
//	"dset" chunk: uint16 path length, path ("group/name"),
//	              uint8 dtype, uint32 element count, little-endian data
//
// All integers are little-endian. Odd chunks get one pad byte.
const (
	CONTAINER_FORM = "APS2"
	ATTR_CHUNK     = "attr"
	DSET_CHUNK     = "dset"

	ATTR_FLOAT   uint8 = 1 // float64
	ATTR_STRING  uint8 = 2 // uint16 length + bytes
	ATTR_UINT16S uint8 = 3 // uint32 count + uint16 values

	DTYPE_INT16  uint8 = 1
	DTYPE_UINT64 uint8 = 2
)

// Attribute and dataset names
const (
	ATTR_VERSION          = "Version"
	ATTR_TARGET_HARDWARE  = "target hardware"
	ATTR_MIN_FIRMWARE     = "minimum firmware version"
	ATTR_CHANNEL_DATA_FOR = "channelDataFor"

	DSET_CHAN1_WAVEFORMS    = "chan_1/waveforms"
	DSET_CHAN1_INSTRUCTIONS = "chan_1/instructions"
	DSET_CHAN2_WAVEFORMS    = "chan_2/waveforms"
)

// Container is the in-memory form of a compiled program file.
type Container struct {
	Version            float64
	TargetHardware     string
	MinFirmwareVersion float64
	ChannelDataFor     []uint16

	WaveformsI   []int16 // chan_1
	WaveformsQ   []int16 // chan_2
	Instructions []Instruction
}
