package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sweeney/onebutton/internal/config"
	"github.com/sweeney/onebutton/internal/gesture"
	"github.com/sweeney/onebutton/internal/monitor"
	"github.com/sweeney/onebutton/internal/trace"
)

var (
	replayButton   string
	replayPolarity string
	replayClick    time.Duration
	replayPress    time.Duration
	replayInterval time.Duration
	replayRepeat   bool
	replayStep     time.Duration
	replayTail     time.Duration

	replayCmd = &cobra.Command{
		Use:   "replay <file>",
		Short: "Replay a recorded trace through a detector and print the gestures",
		Long: `Replay reads a trace file with one "<ms> <0|1>" sample per line and feeds it
through a gesture detector as the poll loop would. Lines starting with # are
comments. Use "-" to read from stdin.

Settings come from --button when a config is given, then from the flags.
Without --button the polarity defaults to active-low, like a button with no
polarity in the config: a raw 0 is pressed.`,
		Args: cobra.ExactArgs(1),
		RunE: runReplay,
	}
)

func init() {
	replayCmd.Flags().StringVar(&replayButton, "button", "", "Take polarity and timings from this configured button")
	replayCmd.Flags().StringVar(&replayPolarity, "polarity", config.DefaultPolarity.String(), "Button polarity (active-high, active-low)")
	replayCmd.Flags().DurationVar(&replayClick, "click", gesture.DefaultClickTimeout, "Double click window")
	replayCmd.Flags().DurationVar(&replayPress, "press", gesture.DefaultPressTimeout, "Long press threshold")
	replayCmd.Flags().DurationVar(&replayInterval, "repeat-interval", gesture.DefaultRepeatInterval, "Delay between repeats")
	replayCmd.Flags().BoolVar(&replayRepeat, "repeat", false, "Repeat the press notification while held")
	replayCmd.Flags().DurationVar(&replayStep, "step", time.Millisecond, "Simulated polling interval (0 for edges only)")
	replayCmd.Flags().DurationVar(&replayTail, "tail", time.Second, "Keep polling this long after the last sample")
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	d, err := replayDetector(cmd)
	if err != nil {
		return err
	}

	var in io.Reader = cmd.InOrStdin()
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open trace: %w", err)
		}
		defer f.Close()
		in = f
	}

	samples, err := trace.Parse(in)
	if err != nil {
		return fmt.Errorf("parse trace: %w", err)
	}
	fired := trace.Replay(d, samples, trace.Options{Step: replayStep, Tail: replayTail})
	printReplay(cmd.OutOrStdout(), len(samples), fired)
	return nil
}

// replayDetector builds the detector from --button, with explicitly set
// flags taking precedence.
func replayDetector(cmd *cobra.Command) (*gesture.Detector, error) {
	flags := cmd.Flags()

	var b config.Button
	if replayButton != "" {
		cfg, err := loadConfig()
		if err != nil {
			return nil, err
		}
		found := false
		for _, cb := range cfg.Buttons {
			if cb.Name == replayButton {
				b, found = cb, true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("button %q not found in config", replayButton)
		}
	} else {
		b.Polarity = replayPolarity
	}

	if flags.Changed("polarity") {
		b.Polarity = replayPolarity
	}
	if _, err := gesture.ParsePolarity(b.Polarity); err != nil {
		return nil, err
	}

	d := b.NewDetector()
	if flags.Changed("click") {
		d.SetClickTimeout(replayClick)
	}
	if flags.Changed("press") {
		d.SetPressTimeout(replayPress)
	}
	if flags.Changed("repeat-interval") {
		d.SetRepeatInterval(replayInterval)
	}
	if flags.Changed("repeat") {
		d.SetRepeat(replayRepeat)
	}
	return d, nil
}

func printReplay(w io.Writer, nSamples int, fired []trace.Fired) {
	fmt.Fprintln(w, monitor.Title("replay"), monitor.Muted(fmt.Sprintf("%d samples, %d gestures", nSamples, len(fired))))
	for _, f := range fired {
		fmt.Fprintf(w, "%8dms  %s %s\n", f.At.Milliseconds(), monitor.Gesture(f.Gesture), monitor.Muted(string(f.State)))
	}
}
