package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"device_console/internal/config"
	"device_console/internal/device"
	"device_console/internal/devicesim"
	"device_console/internal/handlers"
	"device_console/internal/logger"
	"device_console/internal/publish"
	"device_console/internal/repository"
	"device_console/internal/repository/db"
	"device_console/internal/server"
	"device_console/internal/service"

	"github.com/spf13/pflag"
)

const (
	shutdownTimeout = 10 * time.Second
	// extra response time on top of the device upload deadline
	uploadWriteSlack = 30 * time.Second
)

func main() {
	configPath := pflag.StringP("config", "c", "", "path to config.yml (default: ./configs/config.yml)")
	simulate := pflag.Bool("simulate", false, "serve a simulated device and point the console at it")
	printConfig := pflag.Bool("print-config", false, "print the effective configuration and exit")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error reading config:", err)
		os.Exit(1)
	}
	if *simulate {
		cfg.Simulator.Enabled = true
	}
	if cfg.Simulator.Enabled {
		cfg.Device.BaseURL = "http://127.0.0.1:" + cfg.Simulator.Port
	}
	if *printConfig {
		out, err := cfg.YAML()
		if err != nil {
			fmt.Fprintln(os.Stderr, "render config:", err)
			os.Exit(1)
		}
		_, _ = os.Stdout.Write(out)
		return
	}

	log := logger.Get(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	defer func() { _ = log.Sync() }()

	sqlDB, err := openDB(cfg.DB.Path, log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// context for background goroutines
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var sim *server.Server
	if cfg.Simulator.Enabled {
		sim = runSimulator(ctx, cfg.Simulator, log.Named("devicesim"))
	}

	client, err := device.New(cfg.Device.BaseURL,
		device.WithTimeouts(cfg.Device.RequestTimeout, cfg.Device.UploadTimeout))
	if err != nil {
		log.Fatalw("invalid device url", "err", err)
	}

	pub, closePub := newPublisher(cfg.MQTT, log.Named("mqtt"))
	defer closePub()

	// wire dependencies
	repos := repository.NewRepository(sqlDB)
	session := service.NewSession(service.SessionDeps{
		Device:    client,
		Readings:  repos.ReadingRepo,
		Events:    repos.EventRepo,
		Publisher: pub,
		Log:       log.Named("session"),
	}, service.SessionOptions{
		TelemetryInterval:  cfg.Poll.TelemetryInterval,
		WiFiStatusInterval: cfg.Poll.WiFiStatusInterval,
		RebootCountdown:    cfg.Reboot.CountdownSeconds,
		RebootTick:         cfg.Reboot.Tick,
		Bands:              cfg.Indicator,
		MaxReadings:        cfg.DB.MaxReadings,
	})
	session.Start(ctx)
	defer session.Close()

	services := service.NewService(repos, session, service.AuthOptions{
		SigningKey: cfg.Auth.SigningKey,
		TokenTTL:   cfg.Auth.TokenTTL,
	})
	apiHandler := handlers.NewHandler(services, log)

	srv := &server.Server{WriteTimeout: cfg.Device.UploadTimeout + uploadWriteSlack}
	runHTTPServer(srv, cfg.Port, apiHandler, log)
	log.Infow("console started", "port", cfg.Port, "device", cfg.Device.BaseURL, "simulator", cfg.Simulator.Enabled)

	<-ctx.Done()
	waitForShutdown(log, srv, sim)
}

// openDB initializes the SQLite database at path.
func openDB(path string, log *logger.Logger) (*sql.DB, error) {
	if path == "" {
		log.Infow("db.path not set in config; using default file", "default", "console.db")
		path = "console.db"
	}
	return db.InitDB(path)
}

// newPublisher connects to the broker when enabled. A broker that cannot be
// reached is logged and the console runs without mirroring.
func newPublisher(cfg config.MQTTConfig, log *logger.Logger) (service.Publisher, func()) {
	if !cfg.Enabled {
		return publish.Nop{}, func() {}
	}
	p, err := publish.NewMQTT(publish.Options{
		Broker:      cfg.Broker,
		ClientID:    cfg.ClientID,
		Username:    cfg.Username,
		Password:    cfg.Password,
		TopicPrefix: cfg.TopicPrefix,
		QoS:         cfg.QoS,
		Retained:    cfg.Retained,
	}, log)
	if err != nil {
		log.Errorw("mqtt disabled", "err", err)
		return publish.Nop{}, func() {}
	}
	if err := p.Connect(); err != nil {
		log.Errorw("mqtt connect failed; retrying in background", "err", err, "broker", cfg.Broker)
	}
	return p, p.Close
}

// runSimulator serves a simulated device on its own port.
func runSimulator(ctx context.Context, cfg config.SimulatorConfig, log *logger.Logger) *server.Server {
	d := devicesim.New(devicesim.Options{
		SSID:         cfg.SSID,
		Password:     cfg.Password,
		ConnectAfter: cfg.ConnectAfter,
	})
	go d.Run(ctx, cfg.Tick)

	srv := &server.Server{}
	go func() {
		if err := srv.Run(cfg.Port, devicesim.Router(d, log)); err != nil {
			log.Fatalw("error starting simulator", "err", err)
		}
	}()
	log.Infow("simulator started", "port", cfg.Port)
	return srv
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8090"
		}
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown stops the servers, allowing in-flight requests to complete.
func waitForShutdown(log *logger.Logger, servers ...*server.Server) {
	log.Infow("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	for _, srv := range servers {
		if srv == nil {
			continue
		}
		if err := srv.Shutdown(ctx); err != nil {
			log.Errorw("server forced to shutdown", "err", err)
		}
	}
}
