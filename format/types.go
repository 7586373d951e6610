package format

import "fmt"

type (
	Version         uint8
	Universe        uint32
	Tag             uint8
	CompressionType uint8
)

// Magic is the three high bytes of the header word shared by every
// supported appinfo.vdf layout. The low byte carries the version.
const Magic uint32 = 0x075644

const (
	Version28 Version = 28 // Version28 has no envelope beyond info state and last update.
	Version29 Version = 29 // Version29 shares the Version28 layout.
	Version39 Version = 39 // Version39 adds size, access token, text SHA-1 and change number.
	Version40 Version = 40 // Version40 adds the binary SHA-1.
	Version41 Version = 41 // Version41 moves keys into the trailing string table.
)

// Envelope field thresholds. A field exists when the version is at least
// the threshold.
const (
	MinVersionSize         Version = 36
	MinVersionChangeNumber Version = 36
	MinVersionAccessToken  Version = 38
	MinVersionTextSHA1     Version = 38
	MinVersionBinarySHA1   Version = 40
	MinVersionStringTable  Version = 41
)

// SupportedVersions lists the versions accepted by the decoder, oldest first.
var SupportedVersions = []Version{Version28, Version29, Version39, Version40, Version41}

// Supported reports whether v is one of SupportedVersions.
func (v Version) Supported() bool {
	switch v {
	case Version28, Version29, Version39, Version40, Version41:
		return true
	default:
		return false
	}
}

// HasStringTable reports whether keys are stored as string table indices.
func (v Version) HasStringTable() bool {
	return v >= MinVersionStringTable
}

// Word returns the header word (magic<<8 | version).
func (v Version) Word() uint32 {
	return Magic<<8 | uint32(v)
}

func (v Version) String() string {
	return fmt.Sprintf("v%d", uint8(v))
}

const (
	UniverseInvalid  Universe = 0
	UniversePublic   Universe = 1
	UniverseBeta     Universe = 2
	UniverseInternal Universe = 3
	UniverseDev      Universe = 4
)

// Valid reports whether u is a known universe value.
func (u Universe) Valid() bool {
	return u <= UniverseDev
}

func (u Universe) String() string {
	switch u {
	case UniverseInvalid:
		return "Invalid"
	case UniversePublic:
		return "Public"
	case UniverseBeta:
		return "Beta"
	case UniverseInternal:
		return "Internal"
	case UniverseDev:
		return "Dev"
	default:
		return fmt.Sprintf("Universe(%d)", uint32(u))
	}
}

// Binary KeyValue type tags.
const (
	TagDict       Tag = 0x00
	TagString     Tag = 0x01
	TagInt32      Tag = 0x02
	TagFloat32    Tag = 0x03
	TagPointer    Tag = 0x04 // not produced by appinfo.vdf
	TagWideString Tag = 0x05 // not produced by appinfo.vdf
	TagColor      Tag = 0x06 // not produced by appinfo.vdf
	TagInt64      Tag = 0x07
	TagEnd        Tag = 0x08
)

func (t Tag) String() string {
	switch t {
	case TagDict:
		return "Dict"
	case TagString:
		return "String"
	case TagInt32:
		return "Int32"
	case TagFloat32:
		return "Float32"
	case TagPointer:
		return "Pointer"
	case TagWideString:
		return "WideString"
	case TagColor:
		return "Color"
	case TagInt64:
		return "Int64"
	case TagEnd:
		return "End"
	default:
		return fmt.Sprintf("Tag(0x%02x)", uint8(t))
	}
}

const (
	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
)

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

// ParseCompressionType maps a case-sensitive lowercase name to a CompressionType.
func ParseCompressionType(name string) (CompressionType, error) {
	switch name {
	case "none":
		return CompressionNone, nil
	case "zstd":
		return CompressionZstd, nil
	case "s2":
		return CompressionS2, nil
	case "lz4":
		return CompressionLZ4, nil
	default:
		return 0, fmt.Errorf("unknown compression %q", name)
	}
}
