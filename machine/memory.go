package machine

import "encoding/binary"

// Memory is the byte-addressable main memory of the machine. All multi-byte
// accesses are big-endian.
//
// The accessors do not check bounds; callers validate guest-controlled
// addresses before use.
type Memory []byte

// Word reads a 32-bit word from the given address.
func (m Memory) Word(addr int32) int32 {
	return int32(binary.BigEndian.Uint32(m[addr:]))
}

// SetWord writes a 32-bit word to the given address.
func (m Memory) SetWord(addr, value int32) {
	binary.BigEndian.PutUint32(m[addr:], uint32(value))
}

// HalfWord reads a 16-bit value from the given address.
func (m Memory) HalfWord(addr int32) uint16 {
	return binary.BigEndian.Uint16(m[addr:])
}

// SetHalfWord writes a 16-bit value to the given address.
func (m Memory) SetHalfWord(addr int32, value uint16) {
	binary.BigEndian.PutUint16(m[addr:], value)
}
