// Package rego implements the Rego600/635 serial register protocol:
// frame construction, checksums, response decoding and guarded access
// to the controller over a half-duplex serial link.
package rego

import (
	"errors"
	"strings"
)

// Request frame layout: [dest, command, reg0, reg1, reg2, val0, val1, val2, checksum]
const (
	PumpAddress byte = 0x81 // request destination
	EchoAddress byte = 0x01 // stamped by the controller into every response
)

// Command codes.
const (
	CmdReadFrontPanel  byte = 0x00
	CmdWriteFrontPanel byte = 0x01
	CmdReadSystem      byte = 0x02
	CmdWriteSystem     byte = 0x03
	CmdReadTimer       byte = 0x04
	CmdWriteTimer      byte = 0x05
	CmdReadDisplay     byte = 0x20
)

// Response lengths per command class.
const (
	RegisterResponseLength = 5
	DisplayResponseLength  = 42
	WriteResponseLength    = 1
)

var (
	ErrFrameTooShort     = errors.New("response frame too short")
	ErrInvalidFrame      = errors.New("invalid response frame")
	ErrChecksumMismatch  = errors.New("response checksum mismatch")
	ErrUnexpectedAddress = errors.New("unexpected response address")
)

// CalculateChecksum XORs the six register and value bytes of a request
// frame (positions 2..7).
func CalculateChecksum(packet []byte) byte {
	var checksum byte
	for _, b := range packet[2:8] {
		checksum ^= b
	}
	return checksum
}

// EncodeRegister splits a 16-bit register address into the three 7-bit
// groups the controller expects on the wire.
func EncodeRegister(addr uint16) [3]byte {
	return [3]byte{
		byte((addr & 0xC000) >> 14),
		byte((addr & 0x3F80) >> 7),
		byte(addr & 0x007F),
	}
}

// BuildRequest assembles a 9-byte request frame. Read commands carry a
// zero value.
func BuildRequest(dest byte, command byte, register uint16, value uint16) []byte {
	reg := EncodeRegister(register)
	val := EncodeRegister(value)
	packet := []byte{dest, command, reg[0], reg[1], reg[2], val[0], val[1], val[2], 0}
	packet[8] = CalculateChecksum(packet)
	return packet
}

// DecodeRegisterValue reassembles the 21-bit payload of a 5-byte
// register response. Bit 16 is the sign bit. The result is the raw
// register content in tenths of a unit.
func DecodeRegisterValue(data []byte) (int, error) {
	if len(data) < RegisterResponseLength {
		return 0, ErrFrameTooShort
	}
	b1 := int(data[1] & 0x7F)
	b2 := int(data[2] & 0x7F)
	b3 := int(data[3] & 0x7F)
	raw := b1<<14 | b2<<7 | b3
	if raw&0x10000 != 0 {
		raw -= 0x20000
	}
	return raw, nil
}

// Scaled converts a raw register value to its physical quantity:
// two's-complement folded into the 16-bit domain, then divided by 10.
func Scaled(raw int) float64 {
	if raw > 32767 {
		raw -= 65536
	}
	return float64(raw) / 10
}

// ValidateChecksum reports whether the checksum of a 5-byte register
// response (XOR of bytes 1..3) matches byte 4.
func ValidateChecksum(response []byte) bool {
	if len(response) < RegisterResponseLength {
		return false
	}
	return response[1]^response[2]^response[3] == response[4]
}

// DecodeDisplay reconstructs one 20-character display row from a
// 42-byte display response. Each character arrives as two nibbles at
// offsets 1..40. Code 0xFF is a filler glyph and 0xDF renders as the
// degree sign on the physical panel. Trailing whitespace is trimmed.
func DecodeDisplay(data []byte) (string, error) {
	if len(data) != DisplayResponseLength {
		return "", ErrInvalidFrame
	}
	if data[0] != EchoAddress {
		return "", ErrInvalidFrame
	}
	var text []rune
	for i := 1; i < 41; i += 2 {
		code := (data[i]&0x0F)<<4 | data[i+1]&0x0F
		switch code {
		case 0xFF:
			// filler
		case 0xDF:
			text = append(text, '°')
		default:
			text = append(text, rune(code))
		}
	}
	return strings.TrimSpace(string(text)), nil
}
