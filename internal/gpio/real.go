//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/onebutton/internal/gesture"
)

// DefaultChip is the GPIO character device used when none is configured.
const DefaultChip = "gpiochip0"

// RealReader reads buttons from actual hardware using Linux GPIO character device.
type RealReader struct {
	chip  *gpiocdev.Chip
	lines []*gpiocdev.Line
	pulls []Pull
}

// NewRealReader requests every line as an input on the given chip.
func NewRealReader(chipName string, lines []Line) (*RealReader, error) {
	if chipName == "" {
		chipName = DefaultChip
	}
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	r := &RealReader{chip: chip}
	for _, l := range lines {
		pull := PullFor(l.Polarity)
		line, err := chip.RequestLine(l.Pin, gpiocdev.AsInput, biasOption(pull))
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("request pin %d: %w", l.Pin, err)
		}
		r.lines = append(r.lines, line)
		r.pulls = append(r.pulls, pull)
	}
	return r, nil
}

func biasOption(p Pull) gpiocdev.LineBias {
	if p == PullUp {
		return gpiocdev.WithPullUp
	}
	return gpiocdev.WithPullDown
}

// Read returns the raw level of every line.
func (r *RealReader) Read() ([]gesture.Level, error) {
	levels := make([]gesture.Level, len(r.lines))
	for i, line := range r.lines {
		v, err := line.Value()
		if err != nil {
			return nil, fmt.Errorf("read pin %d: %w", line.Offset(), err)
		}
		levels[i] = gesture.LevelOf(v)
	}
	return levels, nil
}

// Close releases GPIO resources.
// Lines are reconfigured to input with their original bias before closing so
// the pins are left in a known state.
func (r *RealReader) Close() error {
	var errs []error

	for i, line := range r.lines {
		if err := line.Reconfigure(gpiocdev.AsInput, biasOption(r.pulls[i])); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure pin %d: %w", line.Offset(), err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pin %d: %w", line.Offset(), err))
		}
	}
	r.lines = nil
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		r.chip = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
