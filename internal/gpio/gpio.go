// Package gpio provides button input reading with hardware abstraction.
// The real implementations use the Linux GPIO character device or periph.io.
// The fake implementation allows testing without hardware.
package gpio

import (
	"fmt"

	"github.com/sweeney/onebutton/internal/gesture"
)

// Reader reads the raw levels of a fixed set of button lines.
type Reader interface {
	// Read returns one raw level per configured line, in configuration order.
	// Levels are not inverted: polarity is applied by the gesture detector.
	Read() ([]gesture.Level, error)

	// Close releases GPIO resources.
	Close() error
}

// Line describes one button input.
type Line struct {
	Pin      int // BCM numbering
	Polarity gesture.Polarity
}

// Pull is the bias applied to an input line.
type Pull int

const (
	PullDown Pull = iota
	PullUp
)

func (p Pull) String() string {
	if p == PullUp {
		return "pull-up"
	}
	return "pull-down"
}

// PullFor returns the bias that holds a released button at its inactive level:
// pull-up for active-low buttons, pull-down for active-high buttons.
func PullFor(p gesture.Polarity) Pull {
	if p == gesture.ActiveLow {
		return PullUp
	}
	return PullDown
}

// Drivers.
const (
	DriverGPIOCDev = "gpiocdev"
	DriverPeriph   = "periph"
)

// Open creates a Reader for the named driver.
func Open(driver, chip string, lines []Line) (Reader, error) {
	switch driver {
	case DriverGPIOCDev, "":
		return NewRealReader(chip, lines)
	case DriverPeriph:
		return NewPeriphReader(lines)
	default:
		return nil, fmt.Errorf("unknown gpio driver %q", driver)
	}
}
