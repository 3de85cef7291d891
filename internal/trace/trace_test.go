package trace

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/onebutton/internal/gesture"
)

const ms = time.Millisecond

func TestParse(t *testing.T) {
	in := `
# double click on an active-high button
0 1
10 0

50   1
60	0
`
	got, err := Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []Sample{
		{At: 0, Level: gesture.High},
		{At: 10 * ms, Level: gesture.Low},
		{At: 50 * ms, Level: gesture.High},
		{At: 60 * ms, Level: gesture.Low},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"missing level", "10\n", "line 1"},
		{"extra field", "10 1 x\n", "line 1"},
		{"bad offset", "abc 1\n", "invalid offset"},
		{"negative offset", "-5 1\n", "invalid offset"},
		{"bad level", "0 2\n", "invalid level"},
		{"backwards", "10 1\n5 0\n", "line 2: offset 5ms goes backwards"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.in))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err, tt.want)
			}
		})
	}
}

func TestReplayEmpty(t *testing.T) {
	if got := Replay(gesture.NewDetector(gesture.ActiveHigh), nil, Options{Step: ms}); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestReplayClickNeedsTail(t *testing.T) {
	samples := []Sample{{At: 0, Level: gesture.High}, {At: 10 * ms, Level: gesture.Low}}

	got := Replay(gesture.NewDetector(gesture.ActiveHigh), samples, Options{Step: ms})
	if len(got) != 0 {
		t.Errorf("expected no gestures without tail, got %v", got)
	}

	got = Replay(gesture.NewDetector(gesture.ActiveHigh), samples, Options{Step: ms, Tail: 100 * ms})
	want := []Fired{{At: 81 * ms, Gesture: gesture.GestureClick, State: gesture.StateIdle}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestReplayEdgesOnly(t *testing.T) {
	// Without a step the detector only sees the recorded edges plus the tail.
	samples := []Sample{{At: 0, Level: gesture.High}, {At: 10 * ms, Level: gesture.Low}}

	got := Replay(gesture.NewDetector(gesture.ActiveHigh), samples, Options{Tail: time.Second})
	want := []Fired{{At: 1010 * ms, Gesture: gesture.GestureClick, State: gesture.StateIdle}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestReplayDoubleClick(t *testing.T) {
	samples := []Sample{
		{At: 0, Level: gesture.High},
		{At: 10 * ms, Level: gesture.Low},
		{At: 50 * ms, Level: gesture.High},
		{At: 60 * ms, Level: gesture.Low},
	}

	got := Replay(gesture.NewDetector(gesture.ActiveHigh), samples, Options{Step: 5 * ms, Tail: 500 * ms})
	want := []Fired{{At: 60 * ms, Gesture: gesture.GestureDoubleClick, State: gesture.StateIdle}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestReplayLongPressRepeat(t *testing.T) {
	d := gesture.NewDetector(gesture.ActiveLow)
	d.SetRepeat(true)
	samples := []Sample{
		{At: 0, Level: gesture.High},
		{At: 100 * ms, Level: gesture.Low},
		{At: 1000 * ms, Level: gesture.High},
	}

	got := Replay(d, samples, Options{Step: 10 * ms, Tail: 200 * ms})
	want := []Fired{
		{At: 860 * ms, Gesture: gesture.GesturePress, State: gesture.StateLongPress},
		{At: 930 * ms, Gesture: gesture.GestureRepeat, State: gesture.StateLongPress},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}
