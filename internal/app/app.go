// Package app wires configuration, storage, the API client and the services
// of one storefront client session.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/storefront/internal/api"
	"github.com/utafrali/storefront/internal/config"
	"github.com/utafrali/storefront/internal/guard"
	"github.com/utafrali/storefront/internal/repository"
	filerepo "github.com/utafrali/storefront/internal/repository/file"
	memoryrepo "github.com/utafrali/storefront/internal/repository/memory"
	redisrepo "github.com/utafrali/storefront/internal/repository/redis"
	"github.com/utafrali/storefront/internal/service"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/httpclient"
	"github.com/utafrali/storefront/pkg/logger"
	"github.com/utafrali/storefront/pkg/tracing"
)

const (
	serviceName = "storefront"
	breakerName = "order-api"
	probeKey    = "health-probe"
)

// App holds the services of one client session.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	API       *api.API
	Session   *service.Session
	Cart      *service.Cart
	Catalog   *service.Catalog
	Checkout  *service.Checkout
	Dashboard *service.Dashboard
	Chat      *service.Chat
	Poller    *service.ChatPoller
	Guard     *guard.Guard
	Health    *health.Registry

	rdb            *redis.Client
	tracerShutdown func(context.Context) error
}

// stores holds the two storage namespaces.
type stores struct {
	session repository.KV
	durable repository.KV
}

// New creates the application, initializing all dependencies.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: log}

	shutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.tracerShutdown = shutdown

	st, err := a.openStores(ctx)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	// HTTP client: single attempt by default, behind a circuit breaker.
	httpCfg := httpclient.DefaultConfig()
	httpCfg.Timeout = cfg.APITimeout()
	httpCfg.MaxRetries = cfg.APIMaxRetries
	plain := httpclient.New(httpCfg)

	cbCfg := httpclient.DefaultCircuitBreakerConfig(breakerName)
	cbCfg.MaxRequests = cfg.CBMaxRequests
	cbCfg.Interval = time.Duration(cfg.CBInterval) * time.Second
	cbCfg.Timeout = time.Duration(cfg.CBTimeout) * time.Second
	cbCfg.FailureRatio = cfg.CBFailureRatio
	cbCfg.MinRequests = cfg.CBMinRequests
	breaker := httpclient.NewCircuitBreakerClient(plain, cbCfg, log)
	doer := breaker.WithFallback(api.CircuitOpenFallback)

	a.Session = service.NewSession(st.durable, cfg.TokenKey, func(creds api.Credentials) service.Authenticator {
		a.API = api.New(cfg.APIURL, doer, creds, log)
		return a.API.Auth
	}, log)

	a.Cart = service.NewCart(ctx, st.session, cfg.CartKey, log)
	a.Catalog = service.NewCatalog(a.API.Products, a.Session, log)
	a.Checkout = service.NewCheckout(a.Cart, a.API.Orders, a.Session, log)
	a.Dashboard = service.NewDashboard(service.DashboardSources{
		Orders:     a.API.Orders,
		Payments:   a.API.Payments,
		Deliveries: a.API.Deliveries,
		Products:   a.API.Products,
		Users:      a.API.Users,
	}, log).WithLocation(cfg.Location())
	a.Chat = service.NewChat(a.API.Chat, a.Session, log)
	a.Poller = service.NewChatPoller(a.API.Chat, cfg.ChatPollEvery(), log)
	a.Guard = guard.New(a.Session, guard.DefaultRoutes())

	a.Health = health.NewRegistry().WithTimeout(cfg.APITimeout())
	a.Health.Register("api", apiCheck(plain, breaker, cfg.APIURL))
	a.Health.Register("store:session", storeCheck(st.session))
	a.Health.Register("store:durable", storeCheck(st.durable))

	log.Debug("storefront client initialized",
		slog.String("store", cfg.Store),
		slog.String("session_id", cfg.SessionID),
		slog.String("api_url", cfg.APIURL),
	)
	return a, nil
}

func (a *App) openStores(ctx context.Context) (stores, error) {
	cfg := a.Config
	sessionNS := repository.SessionNamespace(cfg.SessionID)

	switch cfg.Store {
	case config.StoreMemory:
		return stores{session: memoryrepo.NewKV(), durable: memoryrepo.NewKV()}, nil

	case config.StoreRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       cfg.RedisDB,
		})
		durable := redisrepo.NewKV(rdb, repository.DurableNamespace, 0)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := durable.Ping(pingCtx); err != nil {
			_ = rdb.Close()
			return stores{}, fmt.Errorf("connect to redis: %w", err)
		}
		a.rdb = rdb
		a.Logger.Debug("connected to Redis",
			slog.String("addr", cfg.RedisAddr),
			slog.Int("db", cfg.RedisDB),
		)
		return stores{
			session: redisrepo.NewKV(rdb, sessionNS, cfg.SessionTTLDuration()),
			durable: durable,
		}, nil

	default:
		session, err := filerepo.NewKV(cfg.StateDir, sessionNS)
		if err != nil {
			return stores{}, fmt.Errorf("open session store: %w", err)
		}
		durable, err := filerepo.NewKV(cfg.StateDir, repository.DurableNamespace)
		if err != nil {
			return stores{}, fmt.Errorf("open durable store: %w", err)
		}
		return stores{session: session, durable: durable}, nil
	}
}

// Context returns ctx carrying the session id, the current user id and
// the application logger.
func (a *App) Context(ctx context.Context) context.Context {
	ctx = logger.WithSessionID(ctx, a.Config.SessionID)
	ctx = a.Session.Context(ctx)
	return logger.NewContext(ctx, a.Logger)
}

// Close releases the Redis connection and flushes pending spans.
func (a *App) Close(ctx context.Context) {
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.Logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}
	if a.tracerShutdown != nil {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := a.tracerShutdown(shutdownCtx); err != nil {
			a.Logger.Error("tracer shutdown error", slog.String("error", err.Error()))
		}
	}
}

// apiCheck reports whether the API answers at all. Any HTTP status counts
// as reachable; an open breaker does not.
func apiCheck(client *httpclient.Client, breaker *httpclient.CircuitBreakerClient, baseURL string) health.Checker {
	return func(ctx context.Context) error {
		if breaker.Open() {
			return fmt.Errorf("circuit breaker %s is open", breakerName)
		}
		resp, err := client.Get(ctx, baseURL)
		if err != nil {
			return fmt.Errorf("reach %s: %w", baseURL, err)
		}
		return resp.Body.Close()
	}
}

// pinger is implemented by stores backed by a server.
type pinger interface {
	Ping(ctx context.Context) error
}

// storeCheck pings server-backed stores and otherwise reads a probe key; a
// missing key means the store works.
func storeCheck(store repository.KV) health.Checker {
	return func(ctx context.Context) error {
		if p, ok := store.(pinger); ok {
			return p.Ping(ctx)
		}
		_, err := store.Get(ctx, probeKey)
		if err == nil || errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		return err
	}
}
