package rego_test

import (
	"math/rand"
	"testing"

	"github.com/epiclabs-io/ut"

	"rego600mqtt/rego"
)

func decodeAddressBytes(b [3]byte) uint16 {
	return uint16(b[0])<<14 | uint16(b[1])<<7 | uint16(b[2])
}

// registerResponse builds the 5-byte frame the controller would send
// for a raw register value.
func registerResponse(raw int) []byte {
	v := raw
	if v < 0 {
		v += 0x20000
	}
	b1 := byte(v >> 14 & 0x7F)
	b2 := byte(v >> 7 & 0x7F)
	b3 := byte(v & 0x7F)
	return []byte{rego.EchoAddress, b1, b2, b3, b1 ^ b2 ^ b3}
}

func displayResponse(text string) []byte {
	data := make([]byte, rego.DisplayResponseLength)
	data[0] = rego.EchoAddress
	runes := []rune(text)
	for i := 0; i < 20; i++ {
		code := byte(0xFF)
		if i < len(runes) {
			if runes[i] == '°' {
				code = 0xDF
			} else {
				code = byte(runes[i])
			}
		}
		data[1+2*i] = code >> 4
		data[2+2*i] = code & 0x0F
	}
	return data
}

func TestEncodeRegisterRoundTrip(tx *testing.T) {
	t := ut.BeginTest(tx, false)
	defer t.FinishTest()

	for addr := 0; addr <= 0x3FFF; addr++ {
		b := rego.EncodeRegister(uint16(addr))
		if decodeAddressBytes(b) != uint16(addr) {
			t.Equals(uint16(addr), decodeAddressBytes(b))
		}
	}

	b := rego.EncodeRegister(0x020A)
	t.Equals([3]byte{0x00, 0x04, 0x0A}, b)
}

func TestBuildRequest(tx *testing.T) {
	t := ut.BeginTest(tx, false)
	defer t.FinishTest()

	packet := rego.BuildRequest(rego.PumpAddress, rego.CmdReadSystem, 0x0209, 0)
	t.Equals(9, len(packet))
	t.Equals(rego.PumpAddress, packet[0])
	t.Equals(rego.CmdReadSystem, packet[1])
	t.Equals(rego.CalculateChecksum(packet), packet[8])
}

func TestChecksumCommutative(tx *testing.T) {
	t := ut.BeginTest(tx, false)
	defer t.FinishTest()

	packet := rego.BuildRequest(rego.PumpAddress, rego.CmdWriteSystem, 0x0021, 215)
	want := packet[8]

	// XOR in reverse order
	var sum byte
	for i := 7; i >= 2; i-- {
		sum ^= packet[i]
	}
	t.Equals(want, sum)

	// XOR in random orders
	r := rand.New(rand.NewSource(1))
	for n := 0; n < 10; n++ {
		sum = 0
		for _, i := range r.Perm(6) {
			sum ^= packet[2+i]
		}
		t.Equals(want, sum)
	}
}

func TestDecodeRegisterValue(tx *testing.T) {
	t := ut.BeginTest(tx, false)
	defer t.FinishTest()

	for _, raw := range []int{0, 1, 215, 1024, 32767, -1, -100, -32768} {
		value, err := rego.DecodeRegisterValue(registerResponse(raw))
		t.Ok(err)
		t.Equals(raw, value)
	}

	_, err := rego.DecodeRegisterValue([]byte{0x01, 0x02, 0x03})
	t.MustFailWith(err, rego.ErrFrameTooShort)
}

func TestScaled(tx *testing.T) {
	t := ut.BeginTest(tx, false)
	defer t.FinishTest()

	t.Equals(21.5, rego.Scaled(215))
	t.Equals(-6.5, rego.Scaled(-65))
	// 16-bit fold: 65436 is -100 in two's complement
	t.Equals(-10.0, rego.Scaled(65436))
	t.Equals(0.0, rego.Scaled(0))
}

func TestValidateChecksum(tx *testing.T) {
	t := ut.BeginTest(tx, false)
	defer t.FinishTest()

	response := registerResponse(215)
	t.Equals(true, rego.ValidateChecksum(response))
	response[4] ^= 0x01
	t.Equals(false, rego.ValidateChecksum(response))
	t.Equals(false, rego.ValidateChecksum([]byte{0x01, 0x02}))
}

func TestDecodeDisplay(tx *testing.T) {
	t := ut.BeginTest(tx, false)
	defer t.FinishTest()

	// all-filler row decodes to the empty string
	text, err := rego.DecodeDisplay(displayResponse(""))
	t.Ok(err)
	t.Equals("", text)

	text, err = rego.DecodeDisplay(displayResponse("HELLO"))
	t.Ok(err)
	t.Equals("HELLO", text)

	text, err = rego.DecodeDisplay(displayResponse("UTE 21.5°C  "))
	t.Ok(err)
	t.Equals("UTE 21.5°C", text)

	_, err = rego.DecodeDisplay(make([]byte, 41))
	t.MustFailWith(err, rego.ErrInvalidFrame)

	bad := displayResponse("HELLO")
	bad[0] = 0x7E
	_, err = rego.DecodeDisplay(bad)
	t.MustFailWith(err, rego.ErrInvalidFrame)
}
