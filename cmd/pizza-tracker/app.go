package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/BearBump/PizzaTrack/config"
	"github.com/BearBump/PizzaTrack/internal/api/live"
	"github.com/BearBump/PizzaTrack/internal/api/pizza_api"
	"github.com/BearBump/PizzaTrack/internal/broker/kafka"
	"github.com/BearBump/PizzaTrack/internal/cache"
	"github.com/BearBump/PizzaTrack/internal/cache/rediscache"
	"github.com/BearBump/PizzaTrack/internal/display"
	"github.com/BearBump/PizzaTrack/internal/integrations/cloud"
	"github.com/BearBump/PizzaTrack/internal/integrations/cloud/fake"
	"github.com/BearBump/PizzaTrack/internal/integrations/cloud/nrfcloud"
	"github.com/BearBump/PizzaTrack/internal/models"
	"github.com/BearBump/PizzaTrack/internal/notify"
	"github.com/BearBump/PizzaTrack/internal/services/poller"
	"github.com/BearBump/PizzaTrack/internal/services/tracking"
	"github.com/BearBump/PizzaTrack/internal/settings"
	"github.com/BearBump/PizzaTrack/internal/storage/pgsettings"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

var defaultMenu = []models.Pizza{
	{Name: "Margherita", Price: 12},
	{Name: "Pepperoni", Price: 14},
	{Name: "Quattro Formaggi", Price: 15},
}

type trackerOpts struct {
	swaggerPath string
	onListen    func(httpAddr string)
}

type trackerFactories struct {
	newSettingsStore func(cfg *config.Config) (store settings.Store, closeFn func(), err error)
	newDeviceCache   func(cfg *config.Config) (c cache.BytesCache, closeFn func())
	newRateLimiter   func(cfg *config.Config) (rl poller.RateLimiter, closeFn func())
	newCloudClient   func(cfg *config.Config, token nrfcloud.TokenFunc) cloud.Client
	// newProducer returns a nil producer when notifications are not published.
	newProducer func(cfg *config.Config) (p notify.Producer, closeFn func())
	clock       clockwork.Clock
}

func postgresConnString(cfg *config.Config) string {
	sslMode := cfg.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Database.Username, cfg.Database.Password, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName, sslMode)
}

func redisAddr(cfg *config.Config) string {
	return fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
}

func openPostgresWithRetry(connString string, wait time.Duration) (*pgsettings.Storage, error) {
	deadline := time.Now().Add(wait)
	var lastErr error
	for time.Now().Before(deadline) {
		st, err := pgsettings.New(connString)
		if err == nil {
			return st, nil
		}
		lastErr = err
		time.Sleep(1 * time.Second)
	}
	return nil, errors.Wrapf(lastErr, "postgres is not ready after %s", wait)
}

func defaultTrackerFactories() trackerFactories {
	return trackerFactories{
		newSettingsStore: func(cfg *config.Config) (settings.Store, func(), error) {
			switch cfg.PizzaTrack.SettingsBackend {
			case "postgres":
				st, err := openPostgresWithRetry(postgresConnString(cfg), 60*time.Second)
				if err != nil {
					return nil, nil, err
				}
				return st, st.Close, nil
			case "", "redis":
				rc := rediscache.New(redisAddr(cfg))
				return rc, func() { _ = rc.Close() }, nil
			default:
				return nil, nil, fmt.Errorf("unknown settings backend %q", cfg.PizzaTrack.SettingsBackend)
			}
		},
		newDeviceCache: func(cfg *config.Config) (cache.BytesCache, func()) {
			rc := rediscache.New(redisAddr(cfg))
			return rc, func() { _ = rc.Close() }
		},
		newRateLimiter: func(cfg *config.Config) (poller.RateLimiter, func()) {
			rl := rediscache.NewRateLimiter(redisAddr(cfg))
			return rl, func() { _ = rl.Close() }
		},
		newCloudClient: func(cfg *config.Config, token nrfcloud.TokenFunc) cloud.Client {
			switch cfg.PizzaTrack.CloudMode {
			case "fake":
				return fake.New()
			default:
				return nrfcloud.New(cfg.PizzaTrack.CloudBaseURL, token)
			}
		},
		newProducer: func(cfg *config.Config) (notify.Producer, func()) {
			if !cfg.PizzaTrack.PublishNotifications {
				return nil, nil
			}
			brokers := []string{fmt.Sprintf("%s:%d", cfg.Kafka.Host, cfg.Kafka.Port)}
			p := kafka.NewProducer(brokers)
			return p, func() { _ = p.Close() }
		},
	}
}

func menuFromConfig(cfg *config.Config) []models.Pizza {
	if len(cfg.PizzaTrack.Menu) == 0 {
		return defaultMenu
	}
	out := make([]models.Pizza, 0, len(cfg.PizzaTrack.Menu))
	for _, it := range cfg.PizzaTrack.Menu {
		out = append(out, models.Pizza{Name: it.Name, Price: it.Price})
	}
	return out
}

func trackingOptions(cfg *config.Config) tracking.Options {
	pc := cfg.PizzaTrack
	return tracking.Options{
		DeliveryDuration:   time.Duration(pc.DeliveryMinutes) * time.Minute,
		CountdownTick:      time.Duration(pc.CountdownTickMillis) * time.Millisecond,
		PollInterval:       time.Duration(pc.PollIntervalSeconds) * time.Second,
		PollLookback:       time.Duration(pc.PollLookbackSeconds) * time.Second,
		RateLimitPerMinute: int64(pc.PollRateLimitPerMinute),
	}
}

// RunPizzaTracker wires the tracker and serves HTTP until ctx is done.
func RunPizzaTracker(ctx context.Context, cfg *config.Config, opts trackerOpts, f trackerFactories) error {
	httpAddr := cfg.PizzaTrack.HTTPAddr
	if httpAddr == "" {
		httpAddr = ":8080"
	}
	topic := cfg.Kafka.NotificationsTopicName
	if topic == "" {
		topic = "pizza.notifications"
	}
	clock := f.clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	store, closeStore, err := f.newSettingsStore(cfg)
	if err != nil {
		return errors.Wrap(err, "open settings store")
	}
	if closeStore != nil {
		defer closeStore()
	}
	svc := settings.New(store)

	dest, partner, err := svc.Landmarks(ctx)
	if err != nil {
		return errors.Wrap(err, "read landmarks")
	}
	board := display.NewBoard(clock, settings.DefaultCenter, dest, partner)

	hub := live.NewHub(board.Snapshot)
	defer hub.Close()
	board.Subscribe(hub.PublishState)

	notifiers := notify.Multi{notify.NewLogNotifier(slog.Default()), hub}
	producer, closeProducer := f.newProducer(cfg)
	if closeProducer != nil {
		defer closeProducer()
	}
	if producer != nil {
		notifiers = append(notifiers, notify.NewBrokerNotifier(producer, topic))
		slog.Info("publishing notifications", "topic", topic)
	}

	rl, closeRL := f.newRateLimiter(cfg)
	if closeRL != nil {
		defer closeRL()
	}
	deviceCache, closeCache := f.newDeviceCache(cfg)
	if closeCache != nil {
		defer closeCache()
	}

	client := f.newCloudClient(cfg, svc.APIToken)
	mgr := tracking.NewManager(board, client, svc, notifiers, rl, clock, menuFromConfig(cfg), trackingOptions(cfg))
	defer mgr.Stop()

	api := pizza_api.New(pizza_api.Deps{
		Orders:      mgr,
		Board:       board,
		Settings:    svc,
		Cloud:       client,
		DeviceCache: deviceCache,
		Live:        hub,
		SwaggerPath: opts.swaggerPath,
	})

	lis, err := net.Listen("tcp", httpAddr)
	if err != nil {
		return err
	}
	if opts.onListen != nil {
		opts.onListen(lis.Addr().String())
	}

	srv := &http.Server{Handler: api.Routes()}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("HTTP server listening", "addr", lis.Addr().String())
		if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
