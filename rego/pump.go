package rego

import (
	"sync"
	"time"
)

// Exchange records the wall-clock window of one request/response pair
// as observed by the simulated pump. Tests use it to verify that the
// transport guard never overlaps exchanges.
type Exchange struct {
	Start time.Time
	End   time.Time
}

// WriteOp records one write command as seen on the wire.
type WriteOp struct {
	Command  byte
	Register uint16
	Value    []byte // the three raw value bytes
}

// SimulatedPump implements Port with an in-memory register file, enough
// to drive the client and the bridge without hardware.
type SimulatedPump struct {
	System     map[uint16]int
	FrontPanel map[uint16]int
	Timers     map[uint16]int
	Display    map[uint16]string

	CorruptNext    bool          // flip a checksum bit on the next register response
	SilentNext     bool          // swallow the next response entirely
	BadAddressNext bool          // stamp a wrong echo address on the next response
	WriteErr       error         // returned by the next Write, then cleared
	ReadErr        error         // returned by the next Read, then cleared
	Delay          time.Duration // artificial response latency

	mu        sync.Mutex
	start     time.Time
	pending   []byte
	Exchanges []Exchange
	Writes    []WriteOp
}

// NewSimulatedPump returns a pump with empty register files.
func NewSimulatedPump() *SimulatedPump {
	return &SimulatedPump{
		System:     make(map[uint16]int),
		FrontPanel: make(map[uint16]int),
		Timers:     make(map[uint16]int),
		Display:    make(map[uint16]string),
	}
}

func respondRegister(raw int) []byte {
	v := raw
	if v < 0 {
		v += 0x20000
	}
	b1 := byte(v >> 14 & 0x7F)
	b2 := byte(v >> 7 & 0x7F)
	b3 := byte(v & 0x7F)
	return []byte{EchoAddress, b1, b2, b3, b1 ^ b2 ^ b3}
}

func respondDisplay(text string) []byte {
	data := make([]byte, DisplayResponseLength)
	data[0] = EchoAddress
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

// decodeWireValue interprets the three value bytes of a write command
// as a 16-bit two's-complement quantity.
func decodeWireValue(b []byte) int {
	raw := int(b[0]&0x7F)<<14 | int(b[1]&0x7F)<<7 | int(b[2]&0x7F)
	raw &= 0xFFFF
	if raw&0x8000 != 0 {
		raw -= 0x10000
	}
	return raw
}

func (s *SimulatedPump) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.WriteErr != nil {
		err := s.WriteErr
		s.WriteErr = nil
		return 0, err
	}
	s.start = time.Now()
	s.pending = nil
	if len(p) != 9 || p[0] != PumpAddress {
		return len(p), nil
	}
	cmd := p[1]
	addr := uint16(p[2])<<14 | uint16(p[3])<<7 | uint16(p[4])
	switch cmd {
	case CmdReadSystem:
		s.pending = respondRegister(s.System[addr])
	case CmdReadFrontPanel:
		s.pending = respondRegister(s.FrontPanel[addr])
	case CmdReadTimer:
		s.pending = respondRegister(s.Timers[addr])
	case CmdReadDisplay:
		s.pending = respondDisplay(s.Display[addr])
	case CmdWriteSystem:
		s.System[addr] = decodeWireValue(p[5:8])
		s.recordWrite(cmd, addr, p[5:8])
	case CmdWriteFrontPanel:
		s.FrontPanel[addr] = decodeWireValue(p[5:8])
		s.recordWrite(cmd, addr, p[5:8])
	case CmdWriteTimer:
		s.Timers[addr] = decodeWireValue(p[5:8])
		s.recordWrite(cmd, addr, p[5:8])
	}
	if s.CorruptNext && len(s.pending) == RegisterResponseLength {
		s.pending[4] ^= 0x01
		s.CorruptNext = false
	}
	if s.BadAddressNext && len(s.pending) > 0 {
		s.pending[0] = 0x7E
		s.BadAddressNext = false
	}
	if s.SilentNext {
		s.pending = nil
		s.SilentNext = false
	}
	return len(p), nil
}

func (s *SimulatedPump) recordWrite(cmd byte, addr uint16, value []byte) {
	s.Writes = append(s.Writes, WriteOp{
		Command:  cmd,
		Register: addr,
		Value:    append([]byte(nil), value...),
	})
	s.pending = []byte{EchoAddress}
}

func (s *SimulatedPump) Read(n int) ([]byte, error) {
	if s.Delay > 0 {
		time.Sleep(s.Delay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ReadErr != nil {
		err := s.ReadErr
		s.ReadErr = nil
		return nil, err
	}
	response := s.pending
	s.pending = nil
	if len(response) > n {
		response = response[:n]
	}
	s.Exchanges = append(s.Exchanges, Exchange{Start: s.start, End: time.Now()})
	return response, nil
}

func (s *SimulatedPump) Close() error { return nil }
