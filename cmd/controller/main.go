package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/carrot-nav/controller/domain/navigation"
	"github.com/carrot-nav/controller/pkg/api"
	"github.com/carrot-nav/controller/pkg/config"
	customlog "github.com/carrot-nav/controller/pkg/log"
	"github.com/carrot-nav/controller/pkg/zeromq"
)

func main() {
	configPath := flag.String("config", "config/controller_config.yaml", "path to the controller configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := customlog.NewLogrusLogger(cfg.Logging.Level, cfg.Logging.LogPath)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	appLogger.Infof("Starting carrot-nav controller (robot_id=%s, version=%s)", cfg.RobotID, cfg.Version)

	// Domain service: planner, scan buffer, serialized command queue.
	navService := navigation.NewService(cfg, appLogger)
	navService.Start()

	// ZeroMQ transport: goal endpoint, scan listener, command publisher.
	zmqService, err := zeromq.NewService(cfg, navService.ScanBuffer(), appLogger)
	if err != nil {
		appLogger.Fatalf("Failed to initialize ZeroMQ service: %v", err)
	}
	navService.SetPublisher(zmqService)
	zmqService.RegisterHandler(zeromq.MsgTypeMoveToGoal, zeromq.NewGoalHandler(navService, appLogger))
	zmqService.Start()

	// HTTP surface.
	app := fiber.New(fiber.Config{
		AppName:      "Carrot-Nav Controller",
		ErrorHandler: customErrorHandler,
	})
	app.Use(fiberlogger.New())
	app.Use(recover.New())

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "online",
			"service": "carrot-nav controller",
		})
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	handlers := api.NewHandlers(cfg, navService, appLogger)
	apiRoutes := app.Group("/api")
	apiRoutes.Get("/status", handlers.GetStatusHandler)
	apiRoutes.Get("/command", handlers.GetCommandHandler)
	apiRoutes.Get("/limits", handlers.GetLimitsHandler)
	apiRoutes.Post("/goal", handlers.PostGoalHandler)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/telemetry", websocket.New(func(conn *websocket.Conn) {
		api.TelemetryWebSocketHandler(conn, appLogger, navService)
	}))

	go func() {
		addr := ":" + strconv.Itoa(cfg.Server.HTTPPort)
		appLogger.Infof("HTTP server listening on %s", addr)
		if err := app.Listen(addr); err != nil {
			appLogger.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Infof("Shutting down...")

	zmqService.Stop()
	navService.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		appLogger.Errorf("Server forced to shutdown: %v", err)
	}

	appLogger.Infof("Controller exited properly")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
