package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/open-teleop/dronecontrols/domain/diagnostic"
	"github.com/open-teleop/dronecontrols/domain/drone"
	"github.com/open-teleop/dronecontrols/pkg/api"
	"github.com/open-teleop/dronecontrols/pkg/archive"
	"github.com/open-teleop/dronecontrols/pkg/channel"
	"github.com/open-teleop/dronecontrols/pkg/config"
	"github.com/open-teleop/dronecontrols/pkg/export"
	customlog "github.com/open-teleop/dronecontrols/pkg/log"
	"github.com/open-teleop/dronecontrols/pkg/sim"
	"github.com/open-teleop/dronecontrols/pkg/telemetry"
	"github.com/open-teleop/dronecontrols/pkg/zeromq"
	"github.com/open-teleop/dronecontrols/services"
)

func serveCommand(configDir, logLevel string, headless bool) error {
	cfg, err := config.LoadBootstrapConfig(configDir)
	if err != nil {
		return err
	}
	if logLevel == "" {
		logLevel = cfg.Logging.Level
	}

	logger, err := customlog.NewLogrusLogger(logLevel, cfg.Logging.LogPath, customlog.Rotation{
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	logger.Infof("Starting drone controller with config from %s", configDir)

	settingsService, err := services.NewSettingsService(cfg.Data.SettingsPath(), logger)
	if err != nil {
		return err
	}
	settings := settingsService.GetSettings()

	files := cfg.Files
	screenshots := files.Path(files.ScreenshotsDir)
	if err := channel.ClearDirectory(screenshots); err != nil {
		logger.Warnf("Could not clear screenshots: %v", err)
	}

	// Telemetry fan-out
	pool := telemetry.NewPool("telemetry", cfg.Telemetry.Workers, cfg.Telemetry.QueueSize, logger)
	hub := telemetry.NewHub(logger)
	pool.SetResultHandler(hub.HandleResult)
	feed := telemetry.NewFeed(pool)

	// Recording archive
	var store *archive.Store
	var archiver *archive.Archiver
	if cfg.Archive.Enabled {
		store, err = archive.Open(cfg.Archive.Path, logger)
		if err != nil {
			return err
		}
		archiver = archive.NewArchiver(store, 16, logger)
	}

	// Drone core
	body := sim.NewBody(cfg.Simulation, settings, sim.NewWorld(cfg.Simulation))
	commands := channel.NewCommandFile(files.Path(files.Command))
	status := channel.NewStatusFile(files.Path(files.Status))
	exporter := export.NewExporter(export.Paths{
		Trajectory: files.Path(files.Trajectory),
		Times:      files.Path(files.Times),
		Velocities: files.Path(files.Velocities),
		Distances:  files.Path(files.Distances),
	}, logger)

	controller := drone.NewController(drone.Dependencies{
		Body:     body,
		Commands: commands,
		Status:   status,
		Exporter: exporter,
		Capturer: sim.NewFrameCapturer(screenshots, body),
		Hooks: drone.Hooks{
			OnCommand: feed.Command,
			OnRecording: func(rec drone.Recording) {
				feed.Recording(rec)
				if archiver != nil {
					archiver.Submit(rec)
				}
			},
		},
	}, settings, logger.WithField("component", "drone"))

	runner := drone.NewRunner(controller, drone.RunnerOptions{
		TickHz: cfg.Simulation.TickHz,
		OnTick: feed.Pose,
	}, logger)

	settingsService.SetApplier(runner)
	settingsService.SetPublisher(feed)

	// Remote driver transport
	zmqService, err := zeromq.NewZeroMQService(cfg.ZeroMQ, logger)
	if err != nil {
		return err
	}
	zeromq.RegisterDriverHandlers(zmqService.Dispatcher(), zeromq.DriverDeps{
		Commands: commands,
		Status:   status,
		Runner:   runner,
		Settings: settingsService,
	}, logger)
	if cfg.ZeroMQ.PublishBindAddress != "" {
		hub.AddSink("zeromq", zmqService)
	}

	sources := diagnostic.Sources{
		DroneID: settings.DroneID,
		Runner:  runner,
		Pool:    pool,
		Hub:     hub,
	}
	if store != nil {
		sources.Archive = store
	}
	diagnosticService := diagnostic.NewDiagnosticService(sources)

	// Start everything
	pool.Start()
	if err := zmqService.Start(); err != nil {
		return err
	}

	var wg sync.WaitGroup
	if archiver != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			archiver.Run(context.Background())
		}()
	}

	runCtx, stopRunner := context.WithCancel(context.Background())
	runnerDone := make(chan struct{})
	go func() {
		defer close(runnerDone)
		if err := runner.Run(runCtx); err != nil {
			logger.Errorf("Drone runner failed: %v", err)
		}
	}()

	var app *fiber.App
	if !headless {
		app = newApp(logger)
		app.Get("/api/v1/diagnostics", diagnosticService.GetMetricsHandler)

		drones := api.NewDroneHandler(commands, status, runner, logger)
		api.RegisterDroneRoutes(app, drones)
		api.RegisterSettingsRoutes(app, settingsService, logger)
		if store != nil {
			api.RegisterArchiveRoutes(app, store, logger)
		}
		api.RegisterWebSocketRoutes(app, drones, hub, logger)

		port := cfg.Server.HTTPPort
		go func() {
			logger.Infof("Server starting on port %d", port)
			if err := app.Listen(fmt.Sprintf(":%d", port)); err != nil {
				logger.Fatalf("Failed to start server: %v", err)
			}
		}()
	}

	// Set up graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Infof("Shutting down drone controller...")

	stopRunner()
	<-runnerDone

	if app != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(ctx); err != nil {
			logger.Errorf("Server forced to shutdown: %v", err)
		}
	}

	zmqService.Stop()
	pool.Stop()
	if archiver != nil {
		archiver.Close()
		wg.Wait()
		if err := store.Close(); err != nil {
			logger.Warnf("Failed to close archive: %v", err)
		}
	}

	logger.Infof("Drone controller exited properly")
	return nil
}

func newApp(logger customlog.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Drone Controls",
		ErrorHandler:          customErrorHandler,
		DisableStartupMessage: true,
	})

	app.Use(fiberlogger.New())
	app.Use(recover.New())

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "online",
			"service": "drone controller",
		})
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	logger.Debugf("HTTP app created")
	return app
}

// Custom error handler
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
