// Package serial opens the physical link to the heat pump controller.
package serial

import (
	"time"

	bugst "go.bug.st/serial"
)

// Config contains the configuration parameters for the serial link.
type Config struct {
	Port     string
	BaudRate int
	Timeout  time.Duration
}

// Port wraps the controller link: 8 data bits, no parity, one stop bit
// and a bounded read timeout, so a mute controller yields short reads
// instead of hanging a polling loop.
type Port struct {
	port bugst.Port
}

// Open opens and configures the serial port.
func Open(config *Config) (*Port, error) {
	mode := &bugst.Mode{
		BaudRate: config.BaudRate,
		DataBits: 8,
		Parity:   bugst.NoParity,
		StopBits: bugst.OneStopBit,
	}
	port, err := bugst.Open(config.Port, mode)
	if err != nil {
		return nil, err
	}
	if err := port.SetReadTimeout(config.Timeout); err != nil {
		port.Close()
		return nil, err
	}
	return &Port{port: port}, nil
}

func (p *Port) Write(b []byte) (int, error) {
	return p.port.Write(b)
}

// Read collects up to n bytes. The controller answers in one burst, so
// the first timeout window that yields nothing ends the response;
// whatever arrived is returned and the caller judges completeness.
func (p *Port) Read(n int) ([]byte, error) {
	buf := make([]byte, n)
	total := 0
	for total < n {
		got, err := p.port.Read(buf[total:])
		if err != nil {
			return buf[:total], err
		}
		if got == 0 { // timeout
			break
		}
		total += got
	}
	return buf[:total], nil
}

func (p *Port) Close() error {
	return p.port.Close()
}
