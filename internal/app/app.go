package app

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/robfig/cron/v3"

	"callmonitor-bridge/internal/brokers"
	"callmonitor-bridge/internal/brokers/rabbitmq"
	"callmonitor-bridge/internal/brokers/redis"
	"callmonitor-bridge/internal/common/logging"
	"callmonitor-bridge/internal/config"
	"callmonitor-bridge/internal/handlers"
	"callmonitor-bridge/internal/monitor"
	"callmonitor-bridge/internal/phonebook"
	"callmonitor-bridge/internal/protocols/tr064"
	"callmonitor-bridge/internal/ratelimit"
	"callmonitor-bridge/internal/server"
	"callmonitor-bridge/internal/triggers/callmonitor"
)

// App holds all the application dependencies
type App struct {
	Config     *config.Config
	Logger     logging.Logger
	Gateway    *tr064.Client
	Directory  *phonebook.Directory
	Monitor    *monitor.Monitor
	Stream     *callmonitor.Client
	Publishers []brokers.Publisher
	Server     *server.Server
	scheduler  *cron.Cron
	limiter    *ratelimit.Limiter
}

// New creates a new application instance with all dependencies. cfg must be
// validated.
func New(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	app := &App{
		Config:  cfg,
		Logger:  logger.WithFields(logging.String("component", "app")),
		limiter: ratelimit.New(ratelimit.Config{PerMinute: cfg.GatewayAPIRatePerMinute()}),
	}

	if err := app.initializeGateway(logger); err != nil {
		return nil, err
	}

	// Brokers are optional, just log the error
	app.initializePublishers(ctx, logger)

	app.Monitor = monitor.New(monitor.Config{
		Prefixes: app.Directory.Prefixes(),
	}, app.Directory, app.Publishers, logger.WithFields(logging.String("component", "monitor")))

	stream, err := callmonitor.New(&callmonitor.Config{
		Host:           cfg.FritzHost,
		Port:           cfg.CallMonitorPortNumber(),
		ConnectTimeout: cfg.ConnectTimeout(),
		IdleTimeout:    cfg.IdleTimeout(),
		BackoffInitial: cfg.BackoffInitial(),
		BackoffMax:     cfg.BackoffMax(),
		QueueSize:      cfg.QueueSize(),
	}, app.Monitor.HandleLine, logger)
	if err != nil {
		app.Cleanup()
		return nil, fmt.Errorf("failed to create call monitor client: %w", err)
	}
	app.Stream = stream

	if cfg.PhonebookRefreshSchedule != "" {
		if err := app.initializeScheduler(logger); err != nil {
			app.Cleanup()
			return nil, err
		}
	}

	if cfg.HTTPPort != "" {
		app.Server = server.New(app.Router(), net.JoinHostPort("", cfg.HTTPPort), logger)
	}

	return app, nil
}

func (app *App) initializeGateway(logger logging.Logger) error {
	gateway, err := tr064.NewClient(tr064.Config{
		Host:            app.Config.FritzHost,
		Port:            app.Config.TR064PortNumber(),
		Username:        app.Config.TR064Username,
		Password:        app.Config.TR064Password,
		Timeout:         app.Config.RequestTimeout(),
		DownloadTimeout: app.Config.DownloadTimeout(),
	}, logger.WithFields(logging.String("component", "tr064")))
	if err != nil {
		return fmt.Errorf("failed to create TR-064 client: %w", err)
	}
	app.Gateway = gateway

	app.Directory = phonebook.NewDirectory(gateway, phonebook.Config{
		PhonebookID: app.Config.PhonebookIDNumber(),
		Prefixes:    app.Config.Prefixes(),
	}, logger.WithFields(logging.String("component", "phonebook")))
	return nil
}

func (app *App) initializePublishers(ctx context.Context, logger logging.Logger) {
	if app.Config.RedisAddress != "" {
		publisher, err := redis.NewPublisher(ctx, &redis.Config{
			Address:  app.Config.RedisAddress,
			Password: app.Config.RedisPassword,
			DB:       app.Config.RedisDBNumber(),
			Stream:   app.Config.RedisStream,
		}, logger)
		if err != nil {
			app.Logger.Warn("Redis initialization failed, continuing without Redis",
				logging.Err(err))
		} else {
			app.Publishers = append(app.Publishers, publisher)
		}
	}

	if app.Config.RabbitMQURL != "" {
		publisher, err := rabbitmq.NewPublisher(&rabbitmq.Config{
			URL:      app.Config.RabbitMQURL,
			Exchange: app.Config.RabbitMQExchange,
		}, logger)
		if err != nil {
			app.Logger.Warn("RabbitMQ initialization failed, continuing without RabbitMQ",
				logging.Err(err))
		} else {
			app.Publishers = append(app.Publishers, publisher)
		}
	}
}

// RefreshPhonebook reloads the phonebook and records the outcome in the
// monitor diagnostics.
func (app *App) RefreshPhonebook(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, app.Config.RequestTimeout()+app.Config.DownloadTimeout())
	defer cancel()

	err := app.Directory.Refresh(ctx)
	entries := app.Directory.Entries()
	app.Monitor.RecordRefresh(err, entries)
	if err != nil {
		return 0, err
	}
	return entries, nil
}

// Router builds the status API routes.
func (app *App) Router() http.Handler {
	router := mux.NewRouter()
	SetupRoutes(router, handlers.New(handlers.Deps{
		Status:     app.Monitor,
		Stream:     app.Stream,
		Directory:  app.Directory,
		Gateway:    app.Gateway,
		Refresh:    app.RefreshPhonebook,
		Publishers: app.Publishers,
		Logger:     app.Logger,
	}), app.limiter, app.Logger)
	return router
}

// Start loads the phonebook and starts the stream, the refresh schedule and
// the HTTP server. A failed initial phonebook load is logged; lookups stay
// empty until a later refresh succeeds.
func (app *App) Start(ctx context.Context) error {
	if entries, err := app.RefreshPhonebook(ctx); err != nil {
		app.Logger.Warn("Initial phonebook load failed", logging.Err(err))
	} else {
		app.Logger.Info("Phonebook loaded", logging.Int("entries", entries))
	}

	if err := app.Stream.Start(ctx); err != nil {
		return err
	}

	if app.scheduler != nil {
		app.scheduler.Start()
	}

	if app.Server != nil {
		if err := app.Server.Start(); err != nil {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
	}
	return nil
}

// Shutdown stops accepting work and drains what is in flight.
func (app *App) Shutdown(ctx context.Context) error {
	var firstErr error

	if app.Server != nil {
		if err := app.Server.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}

	if app.scheduler != nil {
		select {
		case <-app.scheduler.Stop().Done():
		case <-ctx.Done():
			app.Logger.Warn("Phonebook refresh still running at shutdown")
		}
	}

	if app.Stream != nil {
		if err := app.Stream.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if app.Monitor != nil {
		app.Monitor.Close()
	}

	return firstErr
}

// Cleanup releases all resources
func (app *App) Cleanup() {
	for _, p := range app.Publishers {
		if err := p.Close(); err != nil {
			app.Logger.Warn("Failed to close publisher", logging.String("publisher", p.Name()), logging.Err(err))
		}
	}
	if app.Gateway != nil {
		app.Gateway.Close()
	}
}
