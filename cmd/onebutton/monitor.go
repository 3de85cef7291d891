package main

import (
	"fmt"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sweeney/onebutton/internal/gesture"
	"github.com/sweeney/onebutton/internal/monitor"
	"github.com/sweeney/onebutton/internal/mqtt"
)

var (
	monitorHistory int

	monitorCmd = &cobra.Command{
		Use:   "monitor",
		Short: "Show gestures published by every button",
		Args:  cobra.NoArgs,
		RunE:  runMonitor,
	}
)

func init() {
	monitorCmd.Flags().IntVar(&monitorHistory, "history", monitor.DefaultHistory, "Number of gestures kept on screen")
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	p := tea.NewProgram(monitor.New(monitorHistory))

	opts := mqtt.Options{
		Broker:      cfg.MQTT.Broker,
		ClientID:    cfg.MQTT.ClientID + "-monitor",
		TopicPrefix: cfg.MQTT.TopicPrefix,
	}
	subs := make(chan io.Closer, 1)
	go func() {
		sub, err := mqtt.Subscribe(opts, func(ev gesture.Event) {
			p.Send(monitor.EventMsg(ev))
		})
		if err != nil {
			subs <- nil
			p.Send(monitor.ErrMsg{Err: err})
			return
		}
		subs <- sub
		p.Send(monitor.ConnectedMsg{Broker: opts.Broker, Topic: mqtt.EventWildcard(opts.TopicPrefix)})
	}()

	final, err := p.Run()
	// Quitting while Subscribe is still connecting must not leak the client.
	if !closeWhenReady(subs, mqtt.ConnectTimeout+time.Second) {
		log.Warnf("monitor: subscriber did not finish connecting")
	}
	if err != nil {
		return fmt.Errorf("monitor: %w", err)
	}
	if m, ok := final.(monitor.Model); ok && m.Err() != nil {
		return m.Err()
	}
	return nil
}

// closeWhenReady waits up to wait for the subscriber on subs and closes it.
// A nil value means the subscription failed. It reports whether a value
// arrived in time.
func closeWhenReady(subs <-chan io.Closer, wait time.Duration) bool {
	select {
	case sub := <-subs:
		if sub != nil {
			sub.Close()
		}
		return true
	case <-time.After(wait):
		return false
	}
}
