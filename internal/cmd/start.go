package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hoppxi/luxflex/internal/bridge"
	"github.com/hoppxi/luxflex/internal/dimmer"
	"github.com/hoppxi/luxflex/internal/logging"
	"github.com/hoppxi/luxflex/internal/manager"
	"github.com/hoppxi/luxflex/internal/metrics"
	"github.com/hoppxi/luxflex/internal/schedule"
	"github.com/hoppxi/luxflex/internal/settings"
	"github.com/hoppxi/luxflex/internal/subscribe"
	"github.com/hoppxi/luxflex/internal/tray"
	"github.com/hoppxi/luxflex/internal/watchers"
	"github.com/hoppxi/luxflex/pkg/operation"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Run the dimmer daemon with its tray icon",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		noTray, _ := cmd.Flags().GetBool("no-tray")
		return runDaemon(noTray)
	},
}

func init() {
	startCmd.Flags().Bool("no-tray", false, "run without the tray icon")
}

func backendConfig(s manager.Settings) operation.BackendConfig {
	return operation.BackendConfig{
		Driver:     s.Backend,
		Device:     s.Device,
		SysfsRoot:  s.SysfsRoot,
		Overlay:    s.Overlay,
		OverlayVar: s.OverlayVar,
	}
}

// initialState is the persisted state, or the current hardware level with
// the overlay enabled when nothing was saved yet.
func initialState(ctx context.Context, ctrl *dimmer.Controller, store settings.Store, log zerolog.Logger, rec metrics.Recorder) dimmer.State {
	saved, err := store.Load(ctx)
	if err != nil {
		rec.IncPersistenceFailure()
		log.Warn().Err(dimmer.PersistenceError("load", err)).Msg("failed to load saved state, using defaults")
	}
	if saved != nil {
		return *saved
	}

	s := dimmer.DefaultState()
	if v, err := ctrl.ReadBackend(); err == nil {
		s.Brightness = v
	}
	return s
}

// buildLoop wires the persister, loop and scheduler around store. On error
// the store is closed again; on success the loop owns it.
func buildLoop(s manager.Settings, ctrl *dimmer.Controller, store settings.Store, rec metrics.Recorder, log zerolog.Logger) (*manager.Loop, *schedule.Scheduler, error) {
	persister := manager.NewPersister(store, logging.Component(log, "store"), rec)
	loop := manager.NewLoop(ctrl, persister,
		manager.WithTick(s.Tick),
		manager.WithRecorder(rec),
		manager.WithLoopLogger(logging.Component(log, "loop")),
	)

	fail := func(err error) (*manager.Loop, *schedule.Scheduler, error) {
		if cerr := persister.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("failed to close state store")
		}
		return nil, nil, err
	}

	sched, err := schedule.NewScheduler(loop, logging.Component(log, "schedule"))
	if err != nil {
		return fail(err)
	}
	if err := sched.Replace(s.Schedule); err != nil {
		_ = sched.Stop()
		return fail(err)
	}
	return loop, sched, nil
}

func runDaemon(noTray bool) error {
	cm := manager.NewConfigManager(configPath)
	s, err := cm.Load()
	if err != nil {
		return err
	}

	level := s.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	log := logging.Setup(level)

	socket := manager.SocketPath()
	if conn, err := manager.ConnectIPC(socket); err == nil {
		conn.Close()
		return errors.New("daemon already running")
	}

	backend, err := operation.New(backendConfig(s))
	if err != nil {
		return err
	}
	curve, err := s.BuildCurve()
	if err != nil {
		return err
	}
	store, err := settings.Open(s.Store.Type, s.StorePath())
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	rec := metrics.NewPrometheusRecorder(reg)

	ctrl := dimmer.NewController(backend, curve, dimmer.WithLogger(logging.Component(log, "controller")))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loadCtx, cancelLoad := context.WithTimeout(ctx, 5*time.Second)
	initial := initialState(loadCtx, ctrl, store, logging.Component(log, "store"), rec)
	cancelLoad()

	if restored, err := ctrl.Restore(initial); err != nil {
		rec.IncBackendFailure()
		log.Error().Err(err).Msg("failed to restore brightness")
	} else {
		log.Info().Str("state", restored.String()).Msg("restored")
	}

	loop, sched, err := buildLoop(s, ctrl, store, rec, log)
	if err != nil {
		return err
	}
	app := manager.NewAppManager(loop, s.Step, logging.Component(log, "ipc"))

	sched.Start()
	defer func() {
		if err := sched.Stop(); err != nil {
			log.Debug().Err(err).Msg("scheduler stop")
		}
	}()

	apply := func(ns manager.Settings) error {
		c, err := ns.BuildCurve()
		if err != nil {
			return err
		}
		if err := sched.Replace(ns.Schedule); err != nil {
			return err
		}
		app.SetStep(ns.Step)
		return loop.SetCurve(c)
	}
	app.SetReloader(func() error {
		ns, err := cm.Load()
		if err != nil {
			return err
		}
		return apply(ns)
	})

	configEvents := subscribe.ConfigEvents(cm)
	app.StartWatcher("config", watchers.ConfigWatcher(configEvents, func(c subscribe.ConfigChange) error {
		return apply(c.Settings)
	}, logging.Component(log, "config")))
	app.StartWatcher("backlight", watchers.BacklightWatcher(loop, logging.Component(log, "backlight")))
	app.StartWatcher("resume", watchers.ResumeWatcher(loop, logging.Component(log, "resume")))

	if s.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, s.MetricsAddr, reg, logging.Component(log, "metrics")); err != nil {
				log.Error().Err(err).Msg("metrics server failed")
			}
		}()
	}

	if s.MQTT.Broker != "" {
		closeBridge, err := startBridge(s.MQTT, loop, logging.Component(log, "mqtt"))
		if err != nil {
			log.Error().Err(err).Msg("MQTT bridge disabled")
		} else {
			defer closeBridge()
		}
	}

	go func() {
		if err := app.ServeIPC(ctx, socket); err != nil {
			log.Error().Err(err).Msg("IPC server failed")
			loop.Shutdown()
		}
	}()

	go func() {
		if err := loop.Run(ctx); err != nil {
			log.Error().Err(err).Msg("dimmer loop failed")
		}
	}()

	if s.Tray && !noTray {
		t := tray.New(loop, s.Step, logging.Component(log, "tray"))
		loop.Subscribe(t.Update)
		loop.OnError(t.NotifyError)
		go func() {
			<-loop.Done()
			t.Quit()
		}()
		t.Run()
		loop.Shutdown()
	} else {
		fmt.Println("luxflex running without tray. Press Ctrl+C to stop.")
	}

	<-loop.Done()
	stop()
	app.StopAll()
	return nil
}

func startBridge(opts manager.MQTTSettings, loop *manager.Loop, log zerolog.Logger) (func(), error) {
	client, err := bridge.Connect(bridge.Options{
		Broker:   opts.Broker,
		Username: opts.Username,
		Password: opts.Password,
		Name:     opts.Name,
	})
	if err != nil {
		return nil, err
	}

	b := bridge.New(client, loop, opts.Name, log)
	if err := b.Setup(); err != nil {
		client.Disconnect(250)
		return nil, err
	}
	loop.Subscribe(b.Publish)
	b.Publish(loop.State())

	return func() {
		if err := b.Close(); err != nil {
			log.Debug().Err(err).Msg("failed to mark light offline")
		}
		client.Disconnect(250)
	}, nil
}
