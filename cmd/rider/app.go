package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/richxcame/rider-client/internal/backend"
	"github.com/richxcame/rider-client/internal/callback"
	"github.com/richxcame/rider-client/internal/chat"
	"github.com/richxcame/rider-client/internal/notify"
	"github.com/richxcame/rider-client/internal/payments"
	"github.com/richxcame/rider-client/internal/querycache"
	"github.com/richxcame/rider-client/internal/session"
	"github.com/richxcame/rider-client/pkg/config"
	"github.com/richxcame/rider-client/pkg/database"
	"github.com/richxcame/rider-client/pkg/health"
	"github.com/richxcame/rider-client/pkg/logger"
	"github.com/richxcame/rider-client/pkg/models"
	"github.com/richxcame/rider-client/pkg/redis"
	"github.com/richxcame/rider-client/pkg/secrets"
	"github.com/richxcame/rider-client/pkg/storage"
	"github.com/richxcame/rider-client/pkg/tracing"
	"github.com/richxcame/rider-client/pkg/websocket"
	"go.uber.org/zap"
)

// app holds the wired rider client. Optional pieces (chat, storage, the
// callback server) are built on first use.
type app struct {
	cfg      *config.Config
	out      io.Writer
	log      *zap.Logger
	session  *session.Session
	secrets  *secrets.Resolver
	redis    *redis.Client
	cache    *querycache.Cache
	api      *backend.Client
	notifier *notify.Service
	payments *payments.Service
	returns  *payments.ReturnHandler
	pending  *payments.Pending

	closers []func(context.Context) error
}

func newApp(ctx context.Context, cfg *config.Config, out io.Writer) (*app, error) {
	if err := logger.Init(cfg.App.Environment, cfg.App.LogLevel); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	a := &app{cfg: cfg, out: out, log: logger.Get()}

	shutdownTracing, err := tracing.Setup(ctx, cfg.App.Name, cfg.App.Environment, cfg.Telemetry.OTLPEndpoint, cfg.App.Environment != "production")
	if err != nil {
		a.log.Warn("tracing disabled", zap.Error(err))
	}
	a.closers = append(a.closers, shutdownTracing)

	sinks := []notify.Sink{&notify.WriterSink{W: out}, notify.LogSink{}}
	if cfg.Telemetry.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Telemetry.SentryDSN,
			Environment: cfg.App.Environment,
			Release:     cfg.App.Name + "@" + version,
		}); err != nil {
			a.log.Warn("sentry disabled", zap.Error(err))
		} else {
			sinks = append(sinks, notify.SentrySink{Hub: sentry.CurrentHub()})
			a.closers = append(a.closers, func(context.Context) error {
				sentry.Flush(2 * time.Second)
				return nil
			})
		}
	}
	a.notifier = notify.NewService(cfg.App.Language, a.log, sinks...)

	a.secrets, err = secrets.NewResolver(ctx, cfg.Secrets, a.log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize secrets: %w", err)
	}
	token, err := a.secrets.ValueOrRef(ctx, "api token", cfg.API.AccessToken, cfg.API.TokenRef)
	if err != nil {
		return nil, err
	}
	a.session, err = session.New(token)
	if err != nil {
		return nil, err
	}

	var store querycache.Store = querycache.NewMemoryStore()
	if cfg.Cache.Backend == "redis" {
		a.redis, err = redis.NewRedisClient(ctx, &cfg.Cache)
		if err != nil {
			return nil, err
		}
		store = querycache.NewRedisStore(a.redis)
		a.closers = append(a.closers, func(context.Context) error { return a.redis.Close() })
	}
	a.cache = querycache.New(store, cfg.Cache.TTL, a.log)
	a.api = backend.NewFromConfig(cfg.API, a.session.Token, a.cache, a.log)

	if err := a.wirePayments(ctx); err != nil {
		return nil, err
	}

	a.log.Info("rider client ready",
		zap.String("user_id", a.session.UserID()),
		zap.String("payment_flow", cfg.Payments.Flow),
		zap.String("cache", cfg.Cache.Backend))
	return a, nil
}

func (a *app) wirePayments(ctx context.Context) error {
	cfg := a.cfg.Payments
	stripeKey, err := a.secrets.ValueOrRef(ctx, "stripe key", cfg.StripeKey, cfg.StripeKeyRef)
	if err != nil {
		return err
	}

	confirmer := payments.NewConfirmer(a.api, a.cfg.Polling.ConfirmAttempts, a.cfg.Polling.ConfirmInterval, a.log)
	var card payments.CardConfirmer
	if sc := payments.NewStripeConfirmer(stripeKey, cfg.ReturnURL); sc != nil {
		card = sc
	}
	embedded := payments.NewEmbeddedStrategy(a.api, card, confirmer, cfg.PaymentMethod, a.cache, a.log)

	a.pending = payments.NewPending()
	link := payments.NewLinkStrategy(a.api,
		payments.BrowserOpener{Fallback: payments.PrintOpener{W: a.out}},
		payments.LinkConfig{MerchantAccount: cfg.MerchantAccount, ReturnURL: cfg.ReturnURL},
		a.pending, a.log)

	var primary payments.Strategy = embedded
	if cfg.Flow == "link" {
		primary = link
	}
	// tips always go through the embedded card flow
	a.payments = payments.NewService(primary, embedded, a.notifier, a.log)
	a.returns = payments.NewReturnHandler(a.api, confirmer, a.pending, a.log)
	return nil
}

// startCallback serves the payment return URL until the app closes.
func (a *app) startCallback() (*callback.Server, error) {
	checks := map[string]health.Check{
		"backend": health.Cached(health.Backend(a.cfg.API.BaseURL+"/health", nil), 10*time.Second),
	}
	if a.redis != nil {
		checks["redis"] = health.Redis(a.redis.Raw())
	}
	srv := callback.NewServer(a.returns, a.payments, callback.Config{
		Port:        a.cfg.Callback.Port,
		CORSOrigins: a.cfg.Callback.CORSOrigins,
		ServiceName: a.cfg.App.Name,
		Version:     version,
		Metrics:     a.cfg.Telemetry.Metrics,
		Sentry:      a.cfg.Telemetry.SentryDSN != "",
		Checks:      checks,
	}, a.log)
	if err := srv.Start(); err != nil {
		return nil, err
	}
	a.closers = append(a.closers, srv.Shutdown)
	return srv, nil
}

// chatChannel connects the configured transport and store for ride.
func (a *app) chatChannel(ctx context.Context, ride models.Ride) (*chat.Channel, error) {
	var transport chat.Transport
	switch a.cfg.Realtime.Transport {
	case "nats":
		t, err := chat.ConnectNATS(a.cfg.Realtime.NATSURL, a.cfg.App.Name, a.log)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return t.Close() })
		transport = t
	default:
		token, err := a.session.Token(ctx)
		if err != nil {
			return nil, err
		}
		conn, err := websocket.Dial(ctx, a.cfg.Realtime.WebSocketURL, token, a.log)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return conn.Close() })
		transport = chat.NewWebSocketTransport(conn, a.cfg.Realtime.EventType, a.log)
	}

	var store chat.Store = chat.NewAPIStore(a.api)
	if a.cfg.Chat.Store == "postgres" {
		pool, err := database.OpenChatPool(ctx, a.cfg.Chat, a.cfg.App.Name, a.log)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error {
			database.Close(pool)
			return nil
		})
		store = chat.NewPostgresStore(pool)
	}

	return chat.NewChannel(ride, a.session.UserID(), store, transport, a.notifier, a.cfg.App.Language, a.log), nil
}

// reportStorage returns the attachment store, or nil when no bucket is configured.
func (a *app) reportStorage(ctx context.Context) (storage.Storage, error) {
	if a.cfg.Storage.Bucket == "" {
		return nil, nil
	}
	s3, err := storage.NewS3Storage(ctx, a.cfg.Storage, a.log)
	if err != nil {
		return nil, err
	}
	return s3, nil
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.log.Warn("shutdown step failed", zap.Error(err))
		}
	}
	_ = logger.Sync()
}
