// cansim is a vehicle-state simulation daemon. It runs a fixed-rate tick
// loop producing dashboard telemetry, records sessions through the
// configured storage backend, and accepts pipe-delimited control commands
// on stdin.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gorm.io/gorm"

	"github.com/opendash/cansim/internal/api"
	"github.com/opendash/cansim/internal/config"
	"github.com/opendash/cansim/internal/control"
	"github.com/opendash/cansim/internal/dispatcher"
	"github.com/opendash/cansim/internal/engine"
	"github.com/opendash/cansim/internal/geo"
	"github.com/opendash/cansim/internal/influx"
	"github.com/opendash/cansim/internal/logging"
	"github.com/opendash/cansim/internal/monitor"
	intOtel "github.com/opendash/cansim/internal/otel"
	"github.com/opendash/cansim/internal/recorder"
	"github.com/opendash/cansim/internal/session"
	"github.com/opendash/cansim/internal/sim"
	"github.com/opendash/cansim/internal/storage"
	"github.com/opendash/cansim/internal/storage/sqlite"
	"github.com/opendash/cansim/internal/transmission"
)

var (
	// SessionStartTime is when this process started, used for log file names.
	SessionStartTime = time.Now()

	SlogManager  = logging.NewSlogManager()
	OTelProvider *intOtel.Provider
	LogFile      *os.File
)

func loadConfig(configDir string) {
	logger := SlogManager.Logger()
	if err := config.Load(configDir); err != nil {
		logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		logger.Info("Loaded config", "dir", configDir)
	}
}

// setupLogging opens the session log file and assembles the slog sinks:
// file, optional Graylog, optional OTel export.
func setupLogging() {
	logsDir := viper.GetString("logsDir")
	if _, err := os.Stat(logsDir); os.IsNotExist(err) {
		os.MkdirAll(logsDir, 0755)
	}

	logFilePath := logging.LogFilePath(logsDir, "cansim", SessionStartTime)

	var err error
	LogFile, err = os.OpenFile(logFilePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create/open log file %s: %v\n", logFilePath, err)
	}

	otelCfg := intOtel.Config{
		Enabled:     viper.GetBool("otel.enabled"),
		ServiceName: viper.GetString("otel.serviceName"),
		Endpoint:    viper.GetString("otel.endpoint"),
		Insecure:    viper.GetBool("otel.insecure"),
		LogWriter:   LogFile,
	}
	if bt, err := time.ParseDuration(viper.GetString("otel.batchTimeout")); err == nil {
		otelCfg.BatchTimeout = bt
	}
	OTelProvider, err = intOtel.New(otelCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize OTel provider: %v\n", err)
	}

	opts := logging.Options{
		File:  LogFile,
		Level: viper.GetString("logLevel"),
	}
	if OTelProvider != nil && OTelProvider.Enabled() {
		opts.Provider = OTelProvider.LoggerProvider()
	}
	if viper.GetBool("graylog.enabled") {
		gw, err := logging.NewGraylogWriter(viper.GetString("graylog.address"))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to connect to Graylog: %v\n", err)
		} else {
			opts.Graylog = gw
		}
	}

	SlogManager.Setup(opts)
	SlogManager.Logger().Info("Logging to file", "path", logFilePath)
}

// buildSimulator assembles the simulator from the engine, transmission and
// route sections of the config.
func buildSimulator() (*sim.Simulator, error) {
	logger := SlogManager.Logger()

	eng, err := engine.New(config.GetEngineConfig())
	if err != nil {
		return nil, fmt.Errorf("building engine: %w", err)
	}
	trans, err := transmission.New(config.GetTransmissionConfig())
	if err != nil {
		return nil, fmt.Errorf("building transmission: %w", err)
	}
	route, err := geo.NewRoute(config.GetRouteConfig())
	if err != nil {
		return nil, fmt.Errorf("building route: %w", err)
	}

	vehicleCfg := config.GetVehicleConfig()
	simCfg := config.GetSimConfig()

	return sim.New(sim.Options{
		Engine:         eng,
		Transmission:   trans,
		Route:          route,
		TickInterval:   simCfg.TickInterval,
		ObserverBuffer: simCfg.ObserverBuffer,
		OdometerSeed:   vehicleCfg.OdometerSeed,
		AmbientTemp:    vehicleCfg.AmbientTemp,
		VehicleID:      vehicleCfg.ID,
		Logger:         logger,
		OnError: func(chanName string, err error) {
			logger.Warn("Channel value rejected", "channel", chanName, "error", err)
		},
	})
}

// checkUploadServer probes the recording upload server once at startup so a
// bad URL or key shows up in the log immediately instead of at session end.
func checkUploadServer(client *api.Client) {
	logger := SlogManager.Logger()
	if err := client.Healthcheck(); err != nil {
		logger.Warn("Upload server not reachable, recordings will stay local", "error", err)
	} else {
		logger.Info("Upload server reachable")
	}
}

func main() {
	configDir := flag.String("config", ".", "directory containing cansim.cfg.json")
	profile := flag.String("profile", "", "start a recording session with this profile immediately")
	flag.Parse()

	loadConfig(*configDir)
	setupLogging()
	logger := SlogManager.Logger()
	logger.Info("Starting up...")

	zlog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	// Storage backend
	storageCfg := config.GetStorageConfig()
	backend, err := storage.NewBackend(storageCfg, zlog, logger)
	if err != nil {
		logger.Error("Failed to create storage backend", "error", err)
		os.Exit(1)
	}
	if err := backend.Init(); err != nil {
		logger.Error("Failed to initialize storage backend", "type", storageCfg.Type, "error", err)
		os.Exit(1)
	}
	logger.Info("Storage backend initialized", "type", storageCfg.Type)

	// InfluxDB mirror
	var influxMgr *influx.Manager
	if viper.GetBool("influx.enabled") {
		backupPath := filepath.Join(viper.GetString("logsDir"), "influx_backup")
		influxMgr = influx.NewManager(zlog, backupPath)
		// Connect creates the bucket writers itself when the server is
		// reachable, or degrades to the gzip backup writer.
		if err := influxMgr.Connect(); err != nil {
			logger.Warn("InfluxDB unavailable, telemetry mirror disabled", "error", err)
			influxMgr = nil
		}
	}

	simulator, err := buildSimulator()
	if err != nil {
		logger.Error("Failed to build simulator", "error", err)
		os.Exit(1)
	}

	sessionCtx := session.NewContext()
	SlogManager.GetProfile = func() string { return sessionCtx.Get().Profile }
	SlogManager.GetTick = simulator.Ticks

	vehicleCfg := config.GetVehicleConfig()
	simCfg := config.GetSimConfig()

	var uploader *api.Client
	if url := viper.GetString("api.serverUrl"); url != "" {
		uploader = api.New(url, viper.GetString("api.apiKey"))
		checkUploadServer(uploader)
	}

	d, err := dispatcher.New(logging.NewDispatcherLogger(zlog))
	if err != nil {
		logger.Error("Failed to create dispatcher", "error", err)
		os.Exit(1)
	}
	controlService := control.NewService(control.Dependencies{
		Sim:        simulator,
		Session:    sessionCtx,
		Backend:    backend,
		LogManager: SlogManager,
		Uploader:   uploader,
		VehicleID:  vehicleCfg.ID,
		TickRate:   1 / simCfg.TickInterval.Seconds(),
	})
	controlService.RegisterHandlers(d)

	rec := recorder.New(simulator, backend, influxMgr, vehicleCfg.ID, logger)
	rec.Start()

	// Status monitor; the relational backend also feeds it perf history.
	var monitorDB *gorm.DB
	isDBValid := func() bool { return false }
	if sb, ok := backend.(*sqlite.Backend); ok {
		monitorDB = sb.Database().DB
		isDBValid = func() bool { return sb.Database().IsValid }
	}
	monitorService := monitor.NewService(monitor.Dependencies{
		DB:              monitorDB,
		LogManager:      SlogManager,
		Session:         sessionCtx,
		Sim:             simulator,
		Backend:         backend,
		StatusDir:       viper.GetString("logsDir"),
		IsDatabaseValid: isDBValid,
	})
	if err := monitorService.Start(); err != nil {
		logger.Warn("Status monitor failed to start", "error", err)
	}

	if err := simulator.Start(); err != nil {
		logger.Error("Failed to start simulator", "error", err)
		os.Exit(1)
	}
	logger.Info("Tick loop running",
		"interval", simCfg.TickInterval, "vehicleID", vehicleCfg.ID)

	if *profile != "" {
		if _, err := d.Dispatch(dispatcher.Command{
			Name:     ":SESSION:START:",
			Args:     []string{*profile},
			Received: time.Now(),
		}); err != nil {
			logger.Error("Failed to start initial session", "profile", *profile, "error", err)
		}
	}

	// Control commands arrive one per line on stdin.
	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

loop:
	for {
		select {
		case sig := <-sigChan:
			logger.Info("Received signal, shutting down", "signal", sig)
			break loop
		case line, ok := <-lines:
			if !ok {
				logger.Info("Stdin closed, shutting down")
				break loop
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			if q := strings.ToLower(strings.TrimSpace(line)); q == "exit" || q == "quit" {
				break loop
			}

			cmd, err := control.ParseLine(line)
			if err != nil {
				fmt.Printf("ERROR %v\n", err)
				continue
			}
			cmd.Received = time.Now()
			result, err := d.Dispatch(cmd)
			if err != nil {
				fmt.Printf("ERROR %v\n", err)
				continue
			}
			if result != nil {
				fmt.Printf("OK %v\n", result)
			} else {
				fmt.Println("OK")
			}
		}
	}

	shutdown(d, sessionCtx, rec, simulator, monitorService, influxMgr, backend)
}

// shutdown tears the services down in dependency order: close the open
// session first so the backend flushes it, then stop the producers, then
// the sinks.
func shutdown(
	d *dispatcher.Dispatcher,
	sessionCtx *session.Context,
	rec *recorder.Service,
	simulator *sim.Simulator,
	monitorService *monitor.Service,
	influxMgr *influx.Manager,
	backend storage.Backend,
) {
	logger := SlogManager.Logger()
	logger.Info("Shutting down...")

	if sessionCtx.Active() {
		if _, err := d.Dispatch(dispatcher.Command{Name: ":SESSION:END:", Received: time.Now()}); err != nil {
			logger.Error("Failed to end session during shutdown", "error", err)
		}
	}

	monitorService.Stop()
	simulator.Stop()
	rec.Stop()

	if influxMgr != nil {
		influxMgr.Close()
	}
	if err := backend.Close(); err != nil {
		logger.Error("Failed to close storage backend", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := SlogManager.Flush(ctx); err != nil {
		logger.Error("Failed to flush logs", "error", err)
	}
	if OTelProvider != nil {
		if err := OTelProvider.Shutdown(ctx); err != nil {
			logger.Error("Failed to shut down OTel provider", "error", err)
		}
	}
	if LogFile != nil {
		LogFile.Close()
	}

	logger.Info("Shutdown complete")
}
