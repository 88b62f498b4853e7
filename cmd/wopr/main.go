// Command wopr runs the strategy simulation at a terminal, optionally with
// the HTTP command API alongside.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/wopr-sim/wopr/internal/api"
	"github.com/wopr-sim/wopr/internal/config"
	"github.com/wopr-sim/wopr/internal/dispatcher"
	"github.com/wopr-sim/wopr/internal/game"
	"github.com/wopr-sim/wopr/internal/handlers"
	"github.com/wopr-sim/wopr/internal/influx"
	"github.com/wopr-sim/wopr/internal/logging"
	"github.com/wopr-sim/wopr/internal/monitor"
	intOtel "github.com/wopr-sim/wopr/internal/otel"
	"github.com/wopr-sim/wopr/internal/recorder"
	"github.com/wopr-sim/wopr/internal/server"
	"github.com/wopr-sim/wopr/internal/storage"
)

// Version and BuildDate can be set at build time via ldflags.
var (
	Version   = "0.0.1"
	BuildDate = "unknown"
)

const appName = "wopr"

type options struct {
	configDir string
	seed      int64
	script    string
	serve     bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configDir, "config", ".", "directory containing "+config.FileName)
	flag.Int64Var(&opts.seed, "seed", 0, "random seed for reproducibility (0 = config or random)")
	flag.StringVar(&opts.script, "script", "", "run commands from a file instead of the terminal")
	flag.BoolVar(&opts.serve, "serve", false, "start the HTTP command API")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	sessionStart := time.Now()

	slogManager := logging.NewSlogManager()
	slogManager.Setup(logging.Config{Level: "info"})
	logger := slogManager.Logger()

	if err := config.Load(opts.configDir); err != nil {
		logger.Warn("Failed to load config, using defaults!", "error", err)
	}
	if err := config.ApplyEnv(); err != nil {
		return err
	}
	logLevel := config.GetString("logLevel")

	// log file
	var logOut io.Writer
	logsDir := config.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		logger.Error("Failed to create logs directory", "error", err, "path", logsDir)
	}
	logPath := logging.LogFilePath(logsDir, appName, sessionStart)
	logFile, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		logger.Error("Failed to create/open log file!", "error", err, "path", logPath)
	} else {
		defer logFile.Close()
		logOut = logFile
	}

	// OTel
	otelCfg := config.GetOTelConfig()
	otelProvider, err := intOtel.New(intOtel.Config{
		Enabled:      otelCfg.Enabled,
		ServiceName:  otelCfg.ServiceName,
		BatchTimeout: otelCfg.BatchTimeout,
		LogWriter:    logOut,
		Endpoint:     otelCfg.Endpoint,
		Insecure:     otelCfg.Insecure,
	})
	if err != nil {
		logger.Error("Failed to initialize OTel provider", "error", err)
		otelProvider, _ = intOtel.New(intOtel.Config{})
	}
	otelProvider.Install()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelProvider.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "otel shutdown: %v\n", err)
		}
	}()

	// Graylog
	var graylog io.Writer
	if gc := config.GetGraylogConfig(); gc.Enabled {
		w, err := logging.NewGraylogWriter(gc.Address)
		if err != nil {
			logger.Error("Failed to connect to Graylog", "error", err, "address", gc.Address)
		} else {
			graylog = w
			defer func() {
				if c, ok := graylog.(io.Closer); ok {
					_ = c.Close()
				}
			}()
		}
	}

	var svc *handlers.Service
	slogManager.Setup(logging.Config{
		File:     logOut,
		Level:    logLevel,
		Provider: otelProvider.LoggerProvider(),
		Graylog:  graylog,
		Context: func() []slog.Attr {
			if svc == nil {
				return nil
			}
			return svc.LogContext()
		},
	})
	logger = slogManager.Logger()
	defer slogManager.Flush(context.Background())
	logger.Info("Starting up", "version", Version, "buildDate", BuildDate, "log", logPath)

	// storage
	backend, err := initStorage(config.GetStorageConfig(), logger)
	if err != nil {
		return err
	}
	defer closeStorage(backend, logger)

	// metrics
	recOpts := []recorder.Option{recorder.WithLogger(logger)}
	influxManager := influx.NewManager(config.GetInfluxConfig(), logger)
	if err := influxManager.Connect(ctx); err == nil {
		recOpts = append(recOpts, recorder.WithMetrics(influxManager))
		defer influxManager.Close()
	} else if !errors.Is(err, influx.ErrDisabled) {
		logger.Error("Failed to set up InfluxDB", "error", err)
	}

	// uploads
	if apiCfg := config.GetAPIConfig(); apiCfg.Upload {
		client := api.New(apiCfg.ServerURL, apiCfg.APIKey)
		if err := client.Healthcheck(); err != nil {
			logger.Warn("Display server is offline", "url", apiCfg.ServerURL, "error", err)
		} else {
			logger.Info("Display server is online", "url", apiCfg.ServerURL)
		}
		recOpts = append(recOpts, recorder.WithUploader(client))
	}

	// engine
	gameCfg := config.GetGameConfig()
	theater, err := config.GetTheater()
	if err != nil {
		return err
	}
	seed, err := pickSeed(opts.seed, gameCfg.Seed)
	if err != nil {
		return err
	}
	rec := recorder.New(backend, theater, seed, recOpts...)
	engine := game.New(
		game.WithRandom(game.NewRandom(seed)),
		game.WithTheater(theater),
		game.WithObserver(rec),
		game.WithLogger(logger.With("component", "engine")),
		game.WithMaxActions(gameCfg.MaxActions),
		game.WithStartDate(gameCfg.StartDate),
	)
	logger.Info("Engine ready", "seed", seed, "maxActions", gameCfg.MaxActions, "targets", len(theater.Targets))

	// commands
	deps := handlers.Dependencies{
		Engine:       engine,
		Logger:       logger,
		RecentEvents: gameCfg.RecentEvents,
	}
	if saver, ok := backend.(handlers.Saver); ok {
		deps.Saver = saver
	}
	svc = handlers.NewService(deps)

	eventDispatcher, err := dispatcher.New(newDispatcherLogger(logOut, logLevel))
	if err != nil {
		return fmt.Errorf("failed to create dispatcher: %w", err)
	}
	svc.Register(eventDispatcher)
	defer eventDispatcher.Close()

	if mc := config.GetMonitorConfig(); mc.Enabled {
		monDeps := monitor.Dependencies{
			Logger:     logger.With("component", "monitor"),
			Screen:     svc.Screen,
			Recorder:   rec,
			StatusPath: mc.StatusPath,
			Interval:   mc.Interval,
		}
		if q, ok := backend.(monitor.QueueReporter); ok {
			monDeps.Queues = q
		}
		mon := monitor.NewService(monDeps)
		if err := mon.Start(); err != nil {
			logger.Error("Failed to start status monitor", "error", err)
		} else {
			defer func() {
				mon.Stop()
				if err := mon.WriteStatus(); err != nil {
					logger.Warn("Failed to write final status", "error", err)
				}
			}()
		}
	}

	if opts.serve {
		srv := server.New(server.Dependencies{
			Dispatcher: eventDispatcher,
			Service:    svc,
			Metrics:    otelProvider,
			Logger:     logger,
		})
		go func() {
			if err := srv.ListenAndServe(config.GetServerConfig().Address); err != nil {
				logger.Error("HTTP API stopped", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	if err := runConsole(ctx, opts, &console{dispatcher: eventDispatcher, service: svc, out: os.Stdout}); err != nil {
		return err
	}

	if n, lastErr := rec.Errors(); n > 0 {
		logger.Warn("Recording had errors", "count", n, "last", lastErr)
	}
	logger.Info("Shutting down")
	return nil
}

// runConsole drives the terminal or a script. A script run with the API
// enabled keeps serving until interrupted.
func runConsole(ctx context.Context, opts options, c *console) error {
	if opts.script != "" {
		f, err := os.Open(opts.script)
		if err != nil {
			return fmt.Errorf("open script: %w", err)
		}
		defer f.Close()
		c.echo = true
		if err := c.run(ctx, f); err != nil {
			return err
		}
		if opts.serve {
			<-ctx.Done()
		}
		return nil
	}

	fmt.Fprintln(c.out, "GREETINGS PROFESSOR FALKEN.")
	fmt.Fprintln(c.out, "SHALL WE PLAY A GAME? TYPE HELP FOR COMMANDS.")

	// Scan blocks on stdin, so a signal has to win the race from outside.
	done := make(chan error, 1)
	go func() {
		done <- c.run(ctx, os.Stdin)
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return nil
	}
}

// pickSeed prefers the flag, then the config file, then a random seed.
func pickSeed(flagSeed, configSeed int64) (int64, error) {
	if flagSeed != 0 {
		return flagSeed, nil
	}
	if configSeed != 0 {
		return configSeed, nil
	}
	return game.NewSeed()
}

func newDispatcherLogger(out io.Writer, level string) *logging.DispatcherLogger {
	if out == nil {
		out = os.Stderr
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zl := zerolog.New(out).Level(lvl).With().Timestamp().Str("component", "dispatcher").Logger()
	return logging.NewDispatcherLogger(zl)
}

func closeStorage(backend storage.Backend, logger *slog.Logger) {
	if err := backend.Close(); err != nil {
		logger.Error("Failed to close storage", "error", err)
	}
	if up, ok := backend.(storage.Uploadable); ok && up.GetExportedFilePath() != "" {
		meta := up.GetExportMetadata()
		logger.Info("Recording exported", "path", up.GetExportedFilePath(), "size", meta.Size)
	}
}
