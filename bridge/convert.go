package bridge

import "math"

// SampleFormat is the one guest-visible sample type the driver advertises,
// chosen at build/configuration time.
type SampleFormat int

const (
	FormatFloat32LE SampleFormat = iota
	FormatInt32LE
	FormatInt16LE
)

const (
	maxInt32Scale = 0x7fffffff
	maxInt16Scale = 0x7fff
)

// floatToInt32 converts a backend sample in [-1, 1] to a saturating int32:
// round(x * 0x7fffffff), saturating.
func floatToInt32(x float32) int32 {
	v := math.Round(float64(x) * maxInt32Scale)
	if v > maxInt32Scale {
		v = maxInt32Scale
	}
	if v < -maxInt32Scale-1 {
		v = -maxInt32Scale - 1
	}
	return int32(v)
}

func int32ToFloat(x int32) float32 {
	return float32(x) / maxInt32Scale
}

// floatToInt16 converts to a saturating int16: round(x * 0x7fff), saturating.
func floatToInt16(x float32) int16 {
	v := math.Round(float64(x) * maxInt16Scale)
	if v > maxInt16Scale {
		v = maxInt16Scale
	}
	if v < -maxInt16Scale-1 {
		v = -maxInt16Scale - 1
	}
	return int16(v)
}

func int16ToFloat(x int16) float32 {
	return float32(x) / maxInt16Scale
}

// FromBackend converts n backend float32 samples (src) into the guest's
// advertised format, writing raw little-endian bytes into dst from index 0
// (dst must hold len(src) samples of the format's width). Pure and
// allocation-free — safe to call from the backend realtime thread.
func FromBackend(format SampleFormat, src []float32, dst []byte) {
	switch format {
	case FormatFloat32LE:
		for i, s := range src {
			putFloat32LE(dst[i*4:], s)
		}
	case FormatInt32LE:
		for i, s := range src {
			putInt32LE(dst[i*4:], floatToInt32(s))
		}
	case FormatInt16LE:
		for i, s := range src {
			putInt16LE(dst[i*2:], floatToInt16(s))
		}
	}
}

// ToBackend is the inverse of FromBackend: reads n guest-format samples
// from src and writes backend float32s into dst.
func ToBackend(format SampleFormat, src []byte, dst []float32) {
	switch format {
	case FormatFloat32LE:
		for i := range dst {
			dst[i] = getFloat32LE(src[i*4:])
		}
	case FormatInt32LE:
		for i := range dst {
			dst[i] = int32ToFloat(getInt32LE(src[i*4:]))
		}
	case FormatInt16LE:
		for i := range dst {
			dst[i] = int16ToFloat(getInt16LE(src[i*2:]))
		}
	}
}

// BytesPerSample returns the guest wire width of format.
func BytesPerSample(format SampleFormat) int {
	switch format {
	case FormatInt16LE:
		return 2
	default:
		return 4
	}
}

func putFloat32LE(b []byte, v float32) {
	u := math.Float32bits(v)
	b[0] = byte(u)
	b[1] = byte(u >> 8)
	b[2] = byte(u >> 16)
	b[3] = byte(u >> 24)
}

func getFloat32LE(b []byte) float32 {
	u := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	return math.Float32frombits(u)
}

func putInt32LE(b []byte, v int32) {
	u := uint32(v)
	b[0] = byte(u)
	b[1] = byte(u >> 8)
	b[2] = byte(u >> 16)
	b[3] = byte(u >> 24)
}

func getInt32LE(b []byte) int32 {
	return int32(uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24)
}

func putInt16LE(b []byte, v int16) {
	u := uint16(v)
	b[0] = byte(u)
	b[1] = byte(u >> 8)
}

func getInt16LE(b []byte) int16 {
	return int16(uint16(b[0]) | uint16(b[1])<<8)
}
