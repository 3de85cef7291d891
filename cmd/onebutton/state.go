package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sweeney/onebutton/internal/config"
	"github.com/sweeney/onebutton/internal/gesture"
	"github.com/sweeney/onebutton/internal/gpio"
	"github.com/sweeney/onebutton/internal/monitor"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Print the current level of every button and exit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		reader, err := gpio.Open(cfg.Driver, cfg.Chip, cfg.Lines())
		if err != nil {
			return fmt.Errorf("init gpio: %w", err)
		}
		defer reader.Close()

		levels, err := reader.Read()
		if err != nil {
			return fmt.Errorf("read gpio: %w", err)
		}
		for _, line := range formatState(cfg.Buttons, levels) {
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stateCmd)
}

// formatState renders one line per button with its raw and logical level.
func formatState(buttons []config.Button, levels []gesture.Level) []string {
	out := make([]string, 0, len(buttons))
	for i, b := range buttons {
		if i >= len(levels) {
			out = append(out, fmt.Sprintf("%s %s", monitor.ButtonStyle.Render(b.Name), monitor.Error("no reading")))
			continue
		}
		d := gesture.NewDetector(b.PolarityValue())
		logical := "RELEASED"
		if d.Pressed(levels[i]) {
			logical = "PRESSED"
		}
		out = append(out, fmt.Sprintf("%s %s raw=%d %s",
			monitor.ButtonStyle.Render(b.Name),
			monitor.Muted(fmt.Sprintf("pin %d %s", b.Pin, b.Polarity)),
			levels[i].Int(), logical))
	}
	return out
}
