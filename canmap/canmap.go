// Package canmap locates and scales signals carried in CAN frame payloads.
//
// A Mapping selects a frame by identifier and mask, extracts an unsigned
// field of up to 32 bits from the 8 byte payload and applies the linear
// formula raw*Multiplier/Divider + Adder to it.
package canmap

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

const (
	// MaxDataLength is the classical CAN payload size in bytes.
	MaxDataLength = 8

	maxFieldBytes = 4
	maxFieldBits  = maxFieldBytes * 8
	wordBits      = MaxDataLength * 8
)

// Frame is a single received CAN message.
type Frame struct {
	ID     uint32
	Length uint8
	Data   [MaxDataLength]byte
}

// Word returns the payload as a little-endian 64 bit word, so byte 0 of the
// payload is the least significant byte.
func (f Frame) Word() uint64 {
	return binary.LittleEndian.Uint64(f.Data[:])
}

// Mapping describes how to find and scale one signal inside a CAN frame.
// Offset and Length count bytes, or bits when BitMode is set.
type Mapping struct {
	ID         uint32  `toml:"can_id" yaml:"can_id"`
	Mask       uint32  `toml:"can_mask" yaml:"can_mask"`
	Offset     uint8   `toml:"offset" yaml:"offset"`
	Length     uint8   `toml:"length" yaml:"length"`
	BitMode    bool    `toml:"bit_mode" yaml:"bit_mode"`
	BigEndian  bool    `toml:"big_endian" yaml:"big_endian"`
	Multiplier float64 `toml:"multiplier" yaml:"multiplier"`
	Divider    float64 `toml:"divider" yaml:"divider"`
	Adder      float64 `toml:"adder" yaml:"adder"`
}

// Validate checks that the mapped field fits inside a CAN payload.
func (m Mapping) Validate() error {
	offset, length := m.bits()
	if length == 0 {
		return errors.New("mapping length must be at least 1")
	}
	if length > maxFieldBits {
		if m.BitMode {
			return errors.Errorf("mapping length %d exceeds %d bits", m.Length, maxFieldBits)
		}
		return errors.Errorf("mapping length %d exceeds %d bytes", m.Length, maxFieldBytes)
	}
	if offset+length > wordBits {
		return errors.Errorf("mapping offset %d with length %d runs past the end of the frame",
			m.Offset, m.Length)
	}
	return nil
}

// bits returns the field position in bits regardless of mode.
func (m Mapping) bits() (offset, length uint) {
	offset, length = uint(m.Offset), uint(m.Length)
	if !m.BitMode {
		offset *= 8
		length *= 8
	}
	return offset, length
}

// MatchID reports whether a frame with the given identifier belongs to the
// mapping. The identifiers must always be equal. A non-zero mask must also
// cover every set bit of the mapping identifier, so a partial mask can only
// reject a frame.
func MatchID(id uint32, m Mapping) bool {
	if id != m.ID {
		return false
	}
	return m.Mask == 0 || m.ID&m.Mask == m.ID
}

// Extract returns the unsigned field selected by m from a payload word as
// produced by Frame.Word. Bit n of the payload is bit n%8 of byte n/8.
// Big-endian fields have their byte order reversed when they span a whole
// number of bytes.
func Extract(word uint64, m Mapping) float64 {
	offset, length := m.bits()
	if length == 0 || offset >= wordBits {
		return 0
	}
	if length > maxFieldBits {
		length = maxFieldBits
	}
	mask := uint64(1)<<length - 1
	value := uint32((word >> offset) & mask)
	if m.BigEndian && length%8 == 0 {
		value = swapBytes(value, length/8)
	}
	return float64(value)
}

func swapBytes(v uint32, n uint) uint32 {
	var out uint32
	for i := uint(0); i < n; i++ {
		out = out<<8 | v&0xff
		v >>= 8
	}
	return out
}

// ApplyFormula scales a raw value. A zero divider is treated as one.
func ApplyFormula(raw float64, m Mapping) float64 {
	divider := m.Divider
	if divider == 0 {
		divider = 1
	}
	return raw*m.Multiplier/divider + m.Adder
}

// MapValue extracts and scales the mapped signal from f. It returns false
// when the frame identifier does not match the mapping.
func MapValue(f Frame, m Mapping) (float64, bool) {
	if !MatchID(f.ID, m) {
		return 0, false
	}
	return ApplyFormula(Extract(f.Word(), m), m), true
}
