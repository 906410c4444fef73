package rego

import (
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Port is the physical half-duplex serial channel. Read returns up to n
// bytes, short when the read timeout expires before the controller has
// answered in full.
type Port interface {
	Write(p []byte) (int, error)
	Read(n int) ([]byte, error)
	Close() error
}

// DefaultSettleDelay is the post-write wait before reading a response,
// covering the controller's processing latency.
const DefaultSettleDelay = 100 * time.Millisecond

// ClientConfig contains the configuration parameters for a new Client.
type ClientConfig struct {
	Port   Port
	Settle time.Duration // 0 means DefaultSettleDelay
}

// Client performs guarded request/response exchanges with the
// controller. A single mutex serializes every exchange, so the polling
// loops and the MQTT command path never interleave frames on the wire.
//
// Validation failures (short frame, bad echo address, bad checksum,
// decode error) are absorbed here: read operations report them as "no
// value this cycle" after logging. Only hard serial I/O errors
// propagate, so a caller can abort the rest of its batch.
type Client struct {
	port   Port
	lock   sync.Mutex
	settle time.Duration
}

// NewClient returns a new Client instance.
func NewClient(config *ClientConfig) *Client {
	settle := config.Settle
	if settle == 0 {
		settle = DefaultSettleDelay
	}
	return &Client{
		port:   config.Port,
		settle: settle,
	}
}

// exchange writes one request, waits the settle delay, then reads the
// fixed-length response. At most one exchange is in flight at any time.
func (c *Client) exchange(request []byte, responseLength int) ([]byte, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if _, err := c.port.Write(request); err != nil {
		return nil, fmt.Errorf("serial write: %w", err)
	}
	time.Sleep(c.settle)
	response, err := c.port.Read(responseLength)
	if err != nil {
		return nil, fmt.Errorf("serial read: %w", err)
	}
	return response, nil
}

func (c *Client) readRegister(command byte, addr uint16) (int, bool, error) {
	response, err := c.exchange(BuildRequest(PumpAddress, command, addr, 0), RegisterResponseLength)
	if err != nil {
		return 0, false, err
	}
	if len(response) != RegisterResponseLength {
		log.Warnf("incomplete response for register 0x%04x", addr)
		return 0, false, nil
	}
	if response[0] != EchoAddress {
		log.Warnf("%s: 0x%02x for register 0x%04x", ErrUnexpectedAddress, response[0], addr)
		return 0, false, nil
	}
	if !ValidateChecksum(response) {
		log.Warnf("%s for register 0x%04x", ErrChecksumMismatch, addr)
		return 0, false, nil
	}
	value, err := DecodeRegisterValue(response)
	if err != nil {
		log.Warnf("decode error for register 0x%04x: %s", addr, err)
		return 0, false, nil
	}
	return value, true, nil
}

// ReadSensor reads a system register (temperatures, component states).
func (c *Client) ReadSensor(addr uint16) (int, bool, error) {
	return c.readRegister(CmdReadSystem, addr)
}

// ReadSetting reads a system register holding a setting value.
func (c *Client) ReadSetting(addr uint16) (int, bool, error) {
	return c.readRegister(CmdReadSystem, addr)
}

// ReadLedState reads a front-panel register.
func (c *Client) ReadLedState(addr uint16) (int, bool, error) {
	return c.readRegister(CmdReadFrontPanel, addr)
}

// ReadTimer reads a timer register.
func (c *Client) ReadTimer(addr uint16) (int, bool, error) {
	return c.readRegister(CmdReadTimer, addr)
}

// ReadDisplayLine reads one 20-character display row.
func (c *Client) ReadDisplayLine(row uint16) (string, bool, error) {
	response, err := c.exchange(BuildRequest(PumpAddress, CmdReadDisplay, row, 0), DisplayResponseLength)
	if err != nil {
		return "", false, err
	}
	if len(response) != DisplayResponseLength {
		log.Warnf("incomplete display response for row 0x%04x", row)
		return "", false, nil
	}
	text, err := DecodeDisplay(response)
	if err != nil {
		log.Warnf("display decode error for row 0x%04x: %s", row, err)
		return "", false, nil
	}
	return text, true, nil
}

// writeRegister sends a write command and expects the one-byte echo
// acknowledgement.
func (c *Client) writeRegister(command byte, addr uint16, value uint16) (bool, error) {
	response, err := c.exchange(BuildRequest(PumpAddress, command, addr, value), WriteResponseLength)
	if err != nil {
		return false, err
	}
	return len(response) == WriteResponseLength && response[0] == EchoAddress, nil
}

// WriteSetting writes a setting register. The value is in tenths of a
// unit; negatives travel as 16-bit two's complement.
func (c *Client) WriteSetting(addr uint16, value int) (bool, error) {
	return c.writeRegister(CmdWriteSystem, addr, uint16(value))
}

// WriteTimer writes a timer register.
func (c *Client) WriteTimer(addr uint16, value int) (bool, error) {
	return c.writeRegister(CmdWriteTimer, addr, uint16(value))
}

// PressKey simulates one press of a front-panel key.
func (c *Client) PressKey(addr uint16) (bool, error) {
	return c.writeRegister(CmdWriteFrontPanel, addr, 1)
}

// TurnWheel rotates the front-panel wheel one notch. The wheel register
// takes the sentinel values WheelLeft and WheelRight, and their value
// bytes use 18/11 bit shifts with the low byte masked to 7 bits instead
// of the register encoder's 14/7 scheme. This matches the controller as
// observed on the wire; do not normalize it.
func (c *Client) TurnWheel(direction string) (bool, error) {
	var value uint32
	switch direction {
	case "left":
		value = WheelLeft
	case "right":
		value = WheelRight
	default:
		log.Errorf("invalid wheel direction %q", direction)
		return false, nil
	}
	reg := EncodeRegister(RegWheel)
	packet := []byte{
		PumpAddress, CmdWriteFrontPanel,
		reg[0], reg[1], reg[2],
		byte((value & 0xC0000) >> 18),
		byte((value & 0x3F800) >> 11),
		byte(value&0xFF) & 0x7F,
		0,
	}
	packet[8] = CalculateChecksum(packet)
	response, err := c.exchange(packet, WriteResponseLength)
	if err != nil {
		return false, err
	}
	return len(response) == WriteResponseLength && response[0] == EchoAddress, nil
}

// Close releases the underlying port.
func (c *Client) Close() error {
	return c.port.Close()
}
