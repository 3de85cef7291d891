// Package trace replays recorded button samples through a gesture detector.
//
// A trace file has one sample per line: a millisecond offset and a raw level
// (0 or 1), separated by whitespace. Blank lines and lines starting with '#'
// are ignored. Offsets must not decrease. A trace may list only the edges;
// the level is held between samples.
package trace

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/sweeney/onebutton/internal/gesture"
)

// Sample is one recorded input level.
type Sample struct {
	At    time.Duration
	Level gesture.Level
}

// Fired is a gesture produced during replay.
type Fired struct {
	At      time.Duration
	Gesture gesture.Gesture
	State   gesture.State
}

// Parse reads a trace.
func Parse(r io.Reader) ([]Sample, error) {
	var samples []Sample
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: expected \"<ms> <level>\", got %q", lineNo, line)
		}
		ms, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil || ms < 0 {
			return nil, fmt.Errorf("line %d: invalid offset %q", lineNo, fields[0])
		}
		v, err := strconv.Atoi(fields[1])
		if err != nil || (v != 0 && v != 1) {
			return nil, fmt.Errorf("line %d: invalid level %q", lineNo, fields[1])
		}
		at := time.Duration(ms) * time.Millisecond
		if n := len(samples); n > 0 && at < samples[n-1].At {
			return nil, fmt.Errorf("line %d: offset %dms goes backwards", lineNo, ms)
		}
		samples = append(samples, Sample{At: at, Level: gesture.LevelOf(v)})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read trace: %w", err)
	}
	return samples, nil
}

// Options controls how a trace is replayed.
type Options struct {
	// Step is the polling cadence simulated between samples. Zero advances
	// only at the recorded samples.
	Step time.Duration
	// Tail keeps polling at the last level for this long after the final
	// sample so pending clicks can time out.
	Tail time.Duration
}

// Replay feeds samples through d as a poll loop would, holding each level
// until the next sample, and returns every gesture fired.
func Replay(d *gesture.Detector, samples []Sample, opts Options) []Fired {
	if len(samples) == 0 {
		return nil
	}

	var out []Fired
	var base time.Time
	advance := func(level gesture.Level, at time.Duration) {
		if g := d.Advance(level, base.Add(at)); g != gesture.GestureNone {
			out = append(out, Fired{At: at, Gesture: g, State: d.State()})
		}
	}

	last := samples[len(samples)-1]
	end := last.At + opts.Tail
	for i, s := range samples {
		advance(s.Level, s.At)

		next := end
		if i+1 < len(samples) {
			next = samples[i+1].At
		}
		if opts.Step > 0 {
			for t := s.At + opts.Step; t < next; t += opts.Step {
				advance(s.Level, t)
			}
		}
	}
	if opts.Tail > 0 {
		advance(last.Level, end)
	}
	return out
}
