package app

import (
	"context"
	"time"

	aqm "github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/middleware"

	"github.com/oscartejera/josephine-kds/internal/events"
	"github.com/oscartejera/josephine-kds/internal/kds"
	"github.com/oscartejera/josephine-kds/internal/mongo"
	"github.com/oscartejera/josephine-kds/internal/settings"
	"github.com/oscartejera/josephine-kds/pkg"
)

const (
	AppName    = "kds"
	AppVersion = "0.1.0"
)

// App encapsulates one KDS station service.
type App struct {
	config *aqm.Config
	logger aqm.Logger
	micro  *aqm.Micro
}

func New(config *aqm.Config, logger aqm.Logger) (*App, error) {
	return &App{
		config: config,
		logger: logger,
	}, nil
}

// Initialize sets up all dependencies and components
func (a *App) Initialize(ctx context.Context) error {
	stationID, _ := a.config.GetString("kds.station")
	if stationID == "" {
		stationID = "expo"
	}

	settingsDir, _ := a.config.GetString("kds.settings.dir")
	store := settings.NewFileStore(settingsDir, stationID, a.logger)

	orderFeed := mongo.NewOrderFeed(a.config, a.logger)

	natsURL, _ := a.config.GetString("nats.url")
	if natsURL == "" {
		natsURL = "nats://localhost:4222"
	}

	publisher, err := pkg.NewNATSPublisher(natsURL)
	if err != nil {
		return err
	}

	subscriber, err := pkg.NewNATSSubscriber(natsURL)
	if err != nil {
		return err
	}

	engine := kds.NewAlertEngine(store.LoadAlertSettings(), store, a.logger)
	sounds := kds.NewSoundDispatcher(stationID, store.LoadSoundSettings(), nil, publisher, store, a.logger)

	sessionCfg := kds.SessionConfig{
		ScanInterval:  durationFromConfig(a.config, "kds.scan.interval", kds.DefaultScanInterval),
		SweepInterval: durationFromConfig(a.config, "kds.sweep.interval", kds.DefaultSweepInterval),
	}
	session := kds.NewStationSession(stationID, orderFeed, engine, sounds, sessionCfg, a.logger)

	feedSubscriber := events.NewOrderFeedSubscriber(subscriber, session, stationID, a.logger)

	handler := kds.NewHandler(session, a.config, a.logger)

	stack := middleware.DefaultStack(middleware.StackOptions{
		Logger:      a.logger,
		DisableCORS: true,
	})

	lifecycles := []interface{}{orderFeed, session, feedSubscriber}

	publisherLifecycle := aqm.LifecycleHooks{
		OnStop: func(context.Context) error { return publisher.Close() },
	}
	subscriberLifecycle := aqm.LifecycleHooks{
		OnStop: func(context.Context) error { return subscriber.Close() },
	}
	lifecycles = append(lifecycles, publisherLifecycle, subscriberLifecycle)

	options := []aqm.Option{
		aqm.WithConfig(a.config),
		aqm.WithLogger(a.logger),
		aqm.WithHTTPMiddleware(stack...),
		aqm.WithHTTPServerModules("web.port", handler),
		aqm.WithLifecycle(lifecycles...),
		aqm.WithHealthChecks(AppName),
	}

	a.micro = aqm.NewMicro(options...)
	return nil
}

// Run starts the application
func (a *App) Run(ctx context.Context) error {
	a.logger.Infof("Starting %s(%s)", AppName, AppVersion)
	if err := a.micro.Run(ctx); err != nil {
		return err
	}
	a.logger.Infof("%s(%s) stopped", AppName, AppVersion)
	return nil
}

func durationFromConfig(config *aqm.Config, key string, fallback time.Duration) time.Duration {
	raw, _ := config.GetString(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
