package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sweeney/onebutton/internal/config"
	"github.com/sweeney/onebutton/internal/gesture"
	"github.com/sweeney/onebutton/internal/gpio"
	"github.com/sweeney/onebutton/internal/mqtt"
	"github.com/sweeney/onebutton/internal/status"
	"github.com/sweeney/onebutton/internal/web"
)

var (
	runPoll   time.Duration
	runBroker string
	runHTTP   string
	runWatch  bool

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Poll the buttons and publish gestures",
		Args:  cobra.NoArgs,
		RunE:  runDaemon,
	}
)

func init() {
	runCmd.Flags().DurationVar(&runPoll, "poll", 0, "GPIO polling interval (overrides poll_ms)")
	runCmd.Flags().StringVar(&runBroker, "broker", "", "MQTT broker address (overrides mqtt.broker)")
	runCmd.Flags().StringVar(&runHTTP, "http", "", `HTTP status address (overrides http.addr, "off" disables)`)
	runCmd.Flags().BoolVar(&runWatch, "watch", true, "Reload button timings when the config file changes")
	rootCmd.AddCommand(runCmd)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("poll") {
		if runPoll <= 0 {
			return fmt.Errorf("--poll must be positive")
		}
		cfg.PollMs = runPoll.Milliseconds()
	}
	if runBroker != "" {
		cfg.MQTT.Broker = runBroker
	}
	if runHTTP != "" {
		cfg.HTTP.Addr = runHTTP
	}
	return run(cfg)
}

func run(cfg *config.Config) error {
	reader, err := gpio.Open(cfg.Driver, cfg.Chip, cfg.Lines())
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer reader.Close()

	publisher, err := mqtt.NewRealPublisher(mqtt.Options{
		Broker:      cfg.MQTT.Broker,
		ClientID:    cfg.MQTT.ClientID,
		TopicPrefix: cfg.MQTT.TopicPrefix,
	})
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := newTracker(time.Now(), cfg)
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}
	tracker.SetMQTTConnected(publisher.IsConnected())

	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	logSystemPublish("startup", publisher.PublishSystem(startupEvent))

	if addr := cfg.HTTPAddr(); addr != "" {
		srv := web.New(addr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", addr)
	}

	var reload <-chan *config.Config
	if runWatch && configPath != "" {
		w, err := config.NewWatcher(configPath)
		if err != nil {
			log.Printf("config watcher disabled: %v", err)
		} else {
			defer w.Stop()
			reload = w.Updates()
		}
	}

	for _, b := range cfg.Buttons {
		t := b.Timeouts()
		log.WithFields(log.Fields{
			"button":   b.Name,
			"pin":      b.Pin,
			"polarity": b.Polarity,
			"click":    t.Click,
			"press":    t.Press,
			"repeat":   b.Repeat,
		}).Info("button configured")
	}
	log.Printf("started: driver=%s poll=%v broker=%s heartbeat=%v", cfg.Driver, cfg.Poll(), cfg.MQTT.Broker, cfg.Heartbeat())

	ticker := time.NewTicker(cfg.Poll())
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(reader, cfg.Buttons, publisher, publisher, tracker, cfg.Heartbeat(), time.Now, ticker.C, sigCh, reload)
}

func newTracker(start time.Time, cfg *config.Config) *status.Tracker {
	tracker := status.NewTracker(start, status.Config{
		PollMs:      cfg.PollMs,
		HeartbeatMs: cfg.HeartbeatMs,
		Driver:      cfg.Driver,
		Broker:      cfg.MQTT.Broker,
		HTTPAddr:    cfg.HTTPAddr(),
	})
	for _, b := range cfg.Buttons {
		tracker.AddButton(b.Name, buttonStatus(b))
	}
	return tracker
}

func buttonStatus(b config.Button) status.ButtonConfig {
	t := b.Timeouts()
	return status.ButtonConfig{
		Pin:      b.Pin,
		Polarity: b.Polarity,
		ClickMs:  t.Click.Milliseconds(),
		PressMs:  t.Press.Milliseconds(),
		RepeatMs: t.Repeat.Milliseconds(),
		Repeat:   b.Repeat,
	}
}

// runLoop owns every detector. Each tick reads all lines once and advances
// each button's detector with the same timestamp. Reloaded configs are
// applied between ticks.
func runLoop(reader gpio.Reader, buttons []config.Button, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal, reload <-chan *config.Config) error {
	buttons = append([]config.Button(nil), buttons...)
	detectors := make([]*gesture.Detector, len(buttons))
	for i, b := range buttons {
		detectors[i] = b.NewDetector()
	}

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if mqttStatus != nil {
				tracker.SetMQTTConnected(mqttStatus.IsConnected())
			}
			snap := tracker.SnapshotAt(event.Timestamp)
			event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			logSystemPublish("shutdown", publisher.PublishSystem(event))
			return nil

		case cfg := <-reload:
			applyReload(cfg, buttons, detectors, tracker)
			heartbeat = cfg.Heartbeat()

		case <-tick:
			t := now()
			levels, err := reader.Read()
			if err != nil {
				log.Printf("gpio read error: %v", err)
				continue
			}
			if len(levels) != len(buttons) {
				log.Printf("gpio read error: got %d levels for %d buttons", len(levels), len(buttons))
				continue
			}

			for i, b := range buttons {
				d := detectors[i]
				from := d.State()
				g := d.Advance(levels[i], t)
				if to := d.State(); to != from {
					log.WithFields(log.Fields{"button": b.Name, "from": from, "to": to}).Debug("transition")
				}

				if g != gesture.GestureNone {
					event := gesture.Event{Timestamp: t, Button: b.Name, Gesture: g, State: d.State()}
					log.Printf("event: %s %s (state=%s)", b.Name, g, event.State)
					tracker.Record(b.Name, g, t)
					if err := publisher.Publish(event); errors.Is(err, mqtt.ErrBuffered) {
						log.Debugf("event buffered until the broker reconnects")
					} else if err != nil {
						log.Printf("publish error: %v", err)
					}
				}
				tracker.Update(b.Name, d.State(), d.Pressed(levels[i]))
			}
			if mqttStatus != nil {
				tracker.SetMQTTConnected(mqttStatus.IsConnected())
			}

			if tracker.DueHeartbeat(t, heartbeat) {
				// Refresh network info for heartbeat
				if net := readNetworkInfo(); net != nil {
					tracker.SetNetwork(net)
				}
				snap := tracker.SnapshotAt(t)
				totals := snap.Totals()
				log.Printf("heartbeat: uptime=%v click=%d double_click=%d press=%d repeat=%d",
					snap.Uptime(), totals.Click, totals.DoubleClick, totals.Press, totals.Repeat)

				hbEvent := mqtt.SystemEvent{
					Timestamp:  t,
					Event:      "HEARTBEAT",
					RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
				}
				logSystemPublish("heartbeat", publisher.PublishSystem(hbEvent))
			}
		}
	}
}

// logSystemPublish reports the outcome of publishing a lifecycle event.
// A buffered shutdown event is lost when the client closes; the broker then
// publishes the retained will message in its place.
func logSystemPublish(name string, err error) {
	switch {
	case err == nil:
		log.Printf("published %s event", name)
	case errors.Is(err, mqtt.ErrBuffered) && name == "shutdown":
		log.Warnf("broker offline, shutdown event not delivered; the will message reports the disconnect")
	case errors.Is(err, mqtt.ErrBuffered):
		log.Printf("broker offline, %s event buffered until reconnect", name)
	default:
		log.Printf("failed to publish %s event: %v", name, err)
	}
}

// applyReload copies timing and repeat settings from cfg onto the matching
// detectors. Buttons are matched by name. Pin and polarity cannot change
// while running; such changes are logged and ignored.
func applyReload(cfg *config.Config, buttons []config.Button, detectors []*gesture.Detector, tracker *status.Tracker) {
	byName := make(map[string]config.Button, len(cfg.Buttons))
	for _, b := range cfg.Buttons {
		byName[b.Name] = b
	}

	for i, cur := range buttons {
		next, ok := byName[cur.Name]
		if !ok {
			log.Warnf("config reload: button %q removed, restart to apply", cur.Name)
			continue
		}
		if next.Pin != cur.Pin || next.PolarityValue() != cur.PolarityValue() {
			log.Warnf("config reload: pin/polarity change for %q ignored, restart to apply", cur.Name)
			next.Pin = cur.Pin
			next.Polarity = cur.Polarity
		}
		next.Apply(detectors[i])
		buttons[i] = next
		tracker.AddButton(next.Name, buttonStatus(next))
		log.WithFields(log.Fields{
			"button": next.Name,
			"click":  detectors[i].Timeouts().Click,
			"press":  detectors[i].Timeouts().Press,
			"repeat": detectors[i].Repeat(),
		}).Info("config reloaded")
	}
	for _, b := range cfg.Buttons {
		if !hasButton(buttons, b.Name) {
			log.Warnf("config reload: new button %q ignored, restart to apply", b.Name)
		}
	}
}

func hasButton(buttons []config.Button, name string) bool {
	for _, b := range buttons {
		if b.Name == name {
			return true
		}
	}
	return false
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
