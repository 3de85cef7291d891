package gpio

import (
	"errors"
	"testing"

	"github.com/sweeney/onebutton/internal/gesture"
)

const (
	lo = gesture.Low
	hi = gesture.High
)

func TestFakeReaderRead(t *testing.T) {
	samples := [][]gesture.Level{
		{hi, lo},
		{lo, hi},
		{hi, hi},
	}

	f := NewFakeReader(samples)

	for i, want := range samples {
		got, err := f.Read()
		if err != nil {
			t.Fatalf("sample %d: unexpected error: %v", i, err)
		}
		if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
			t.Errorf("sample %d: expected %v, got %v", i, want, got)
		}
	}

	// Fourth read should repeat last sample
	got, err := f.Read()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[0] != hi || got[1] != hi {
		t.Errorf("sample 3 (repeat): expected [HIGH HIGH], got %v", got)
	}
}

func TestFakeReaderReturnsCopy(t *testing.T) {
	f := NewFakeReader([][]gesture.Level{{lo}})

	got, _ := f.Read()
	got[0] = hi

	again, _ := f.Read()
	if again[0] != lo {
		t.Error("mutating a returned sample should not change the script")
	}
}

func TestFakeReaderNoSamples(t *testing.T) {
	f := NewFakeReader(nil)

	_, err := f.Read()
	if err == nil {
		t.Error("expected error with no samples")
	}
}

func TestFakeReaderError(t *testing.T) {
	f := NewFakeReader([][]gesture.Level{{hi}})
	f.ReadError = errors.New("simulated error")

	_, err := f.Read()
	if err == nil {
		t.Error("expected error to be returned")
	}
	if err.Error() != "simulated error" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFakeReaderClose(t *testing.T) {
	f := NewFakeReader([][]gesture.Level{{hi}})

	if f.Closed {
		t.Error("should not be closed initially")
	}

	if err := f.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if !f.Closed {
		t.Error("should be closed after Close()")
	}
}

func TestFakeReaderReset(t *testing.T) {
	f := NewFakeReader([][]gesture.Level{{hi}, {lo}})

	// Consume first sample
	f.Read()

	f.Reset()

	// Should read first sample again
	got, _ := f.Read()
	if got[0] != hi {
		t.Errorf("after reset: expected HIGH, got %v", got[0])
	}
}

func TestPullFor(t *testing.T) {
	if PullFor(gesture.ActiveLow) != PullUp {
		t.Error("active-low buttons should be pulled up")
	}
	if PullFor(gesture.ActiveHigh) != PullDown {
		t.Error("active-high buttons should be pulled down")
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open("sysfs", "", nil)
	if err == nil {
		t.Error("expected error for unknown driver")
	}
}
