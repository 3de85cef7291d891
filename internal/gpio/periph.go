package gpio

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/sweeney/onebutton/internal/gesture"
)

// PeriphReader reads buttons through the periph.io pin registry.
// Pins are addressed by their BCM name, e.g. "GPIO17".
type PeriphReader struct {
	pins []gpio.PinIO
}

// NewPeriphReader initializes the periph.io host drivers and configures every
// line as an input.
func NewPeriphReader(lines []Line) (*PeriphReader, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}
	return openPeriph(lines, gpioreg.ByName)
}

func openPeriph(lines []Line, lookup func(name string) gpio.PinIO) (*PeriphReader, error) {
	r := &PeriphReader{}
	for _, l := range lines {
		name := PinName(l.Pin)
		pin := lookup(name)
		if pin == nil {
			r.Close()
			return nil, fmt.Errorf("pin %s not found", name)
		}
		if err := pin.In(periphPull(PullFor(l.Polarity)), gpio.NoEdge); err != nil {
			r.Close()
			return nil, fmt.Errorf("configure pin %s: %w", name, err)
		}
		r.pins = append(r.pins, pin)
	}
	return r, nil
}

// PinName returns the periph.io name of a BCM pin number.
func PinName(pin int) string {
	return fmt.Sprintf("GPIO%d", pin)
}

func periphPull(p Pull) gpio.Pull {
	if p == PullUp {
		return gpio.PullUp
	}
	return gpio.PullDown
}

// Read returns the raw level of every pin.
func (r *PeriphReader) Read() ([]gesture.Level, error) {
	if r.pins == nil {
		return nil, errors.New("periph: reader closed")
	}
	levels := make([]gesture.Level, len(r.pins))
	for i, pin := range r.pins {
		levels[i] = gesture.Level(pin.Read())
	}
	return levels, nil
}

// Close halts every pin.
func (r *PeriphReader) Close() error {
	var errs []error
	for _, pin := range r.pins {
		if err := pin.Halt(); err != nil {
			errs = append(errs, fmt.Errorf("halt %s: %w", pin.Name(), err))
		}
	}
	r.pins = nil
	return errors.Join(errs...)
}
