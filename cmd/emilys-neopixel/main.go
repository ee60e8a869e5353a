// Command emilys-neopixel drives an LED matrix from two buttons and three
// color knobs, and reports its state over MQTT and HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/CoryCharlton/emilys-neopixel/internal/mqtt"
	"github.com/CoryCharlton/emilys-neopixel/internal/status"
	"github.com/CoryCharlton/emilys-neopixel/internal/web"
)

// statusRefresh is how often the MQTT connection state is copied into the
// tracker.
const statusRefresh = time.Second

func main() {
	log.SetFlags(0)

	cfg, err := parseFlags(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatal(err)
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000",
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	}))
	slog.SetDefault(logger)

	ctx, stop := notifyShutdown(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(ctx context.Context, cfg config, logger *slog.Logger) error {
	devs, err := openDevices(cfg)
	if err != nil {
		return err
	}
	defer devs.Close()

	var publisher mqtt.Publisher = mqtt.NopPublisher{}
	var mqttStatus mqtt.ConnectionStatus = mqtt.NopPublisher{}
	if cfg.Broker != "" {
		p := mqtt.NewRealPublisher(cfg.Broker, cfg.Device, logger)
		// Input handlers run on the sampling goroutines; keep the broker off them.
		publisher, mqttStatus = mqtt.NewQueue(p, logger), p
	}
	defer publisher.Close()

	// Tracker exists before STARTUP so the snapshot is available.
	tracker := status.NewTracker(time.Now(), cfg.statusConfig())
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	a, err := newApp(cfg, devs, publisher, tracker, logger)
	if err != nil {
		return err
	}
	if err := a.begin(); err != nil {
		return err
	}
	defer a.end()

	publishSystem(publisher, mqttStatus, tracker, logger, time.Now, "STARTUP", "")

	g, ctx := errgroup.WithContext(ctx)
	if cfg.HTTPAddr != "" {
		srv := web.New(cfg.HTTPAddr, tracker, logger)
		g.Go(func() error {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
		logger.Info("http status server listening", "addr", cfg.HTTPAddr)
	}

	logger.Info("started", "device", cfg.Device, "output", cfg.Output,
		"layout", fmt.Sprintf("%dx%d", cfg.Cols, cfg.Rows), "broker", cfg.Broker, "heartbeat", cfg.Heartbeat)

	ticker := time.NewTicker(statusRefresh)
	defer ticker.Stop()

	var heartbeat <-chan time.Time
	if cfg.Heartbeat > 0 {
		hb := time.NewTicker(cfg.Heartbeat)
		defer hb.Stop()
		heartbeat = hb.C
	}

	g.Go(func() error {
		return runLoop(ctx, publisher, mqttStatus, tracker, logger, time.Now, ticker.C, heartbeat)
	})
	return g.Wait()
}

// runLoop keeps the tracker current and publishes heartbeats until ctx is
// done, then publishes the SHUTDOWN event.
func runLoop(ctx context.Context, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, logger *slog.Logger, now func() time.Time, tick, heartbeat <-chan time.Time) error {
	for {
		select {
		case <-ctx.Done():
			reason := shutdownReason(context.Cause(ctx))
			logger.Info("shutting down", "reason", reason)
			publishSystem(publisher, mqttStatus, tracker, logger, now, "SHUTDOWN", reason)
			return nil

		case <-tick:
			tracker.SetMQTTConnected(mqttStatus.IsConnected())

		case <-heartbeat:
			// Refresh network info for heartbeat
			if net := readNetworkInfo(); net != nil {
				tracker.SetNetwork(net)
			}
			snap := tracker.Snapshot()
			logger.Info("heartbeat", "uptime", snap.Uptime().Truncate(time.Second),
				"mode", snap.Display.Mode, "brightness", snap.Display.Brightness)
			publishSystem(publisher, mqttStatus, tracker, logger, now, "HEARTBEAT", "")
		}
	}
}

// publishSystem sends a system event carrying a full status snapshot.
// Lifecycle events are retained; heartbeats are not.
func publishSystem(publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, logger *slog.Logger, now func() time.Time, event, reason string) {
	tracker.SetMQTTConnected(mqttStatus.IsConnected())
	snap := tracker.Snapshot()
	err := publisher.PublishSystem(mqtt.SystemEvent{
		Timestamp:  now(),
		Event:      event,
		Reason:     reason,
		Retained:   event != "HEARTBEAT",
		RawPayload: status.FormatStatusEvent(snap, event, reason),
	})
	if err != nil {
		logger.Warn("publish system event", "event", event, "err", err)
		return
	}
	logger.Debug("published system event", "event", event)
}

// signalError is the cancellation cause of a context stopped by a signal.
type signalError struct {
	sig os.Signal
}

func (e signalError) Error() string { return "received " + e.sig.String() }

// notifyShutdown returns a context cancelled by the first of sigs, with a
// signalError as its cause.
func notifyShutdown(parent context.Context, sigs ...os.Signal) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancelCause(parent)
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)
	go func() {
		defer signal.Stop(ch)
		select {
		case s := <-ch:
			cancel(signalError{s})
		case <-ctx.Done():
		}
	}()
	return ctx, func() { cancel(context.Canceled) }
}

// shutdownReason names why the daemon is stopping.
func shutdownReason(cause error) string {
	var se signalError
	switch {
	case errors.As(cause, &se):
		switch se.sig {
		case syscall.SIGINT:
			return "SIGINT"
		case syscall.SIGTERM:
			return "SIGTERM"
		}
		return "UNKNOWN"
	case cause == nil, errors.Is(cause, context.Canceled):
		return "UNKNOWN"
	default:
		return "ERROR"
	}
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
