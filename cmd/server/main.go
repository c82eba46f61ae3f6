package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	_ "modernc.org/sqlite"

	"smithagency/internal/adapters/email"
	"smithagency/internal/adapters/events"
	web "smithagency/internal/adapters/http"
	"smithagency/internal/adapters/http/middleware"
	"smithagency/internal/adapters/lock"
	"smithagency/internal/adapters/payment"
	"smithagency/internal/adapters/storage"
	auditStore "smithagency/internal/adapters/storage/audit"
	bookingStore "smithagency/internal/adapters/storage/booking"
	clientStore "smithagency/internal/adapters/storage/client"
	outboxStore "smithagency/internal/adapters/storage/outbox"
	shareLinkStore "smithagency/internal/adapters/storage/sharelink"
	showStore "smithagency/internal/adapters/storage/show"
	staffStore "smithagency/internal/adapters/storage/staff"
	"smithagency/internal/application/orchestrators"
	"smithagency/internal/config"
	"smithagency/internal/domain/outbox"
	"smithagency/internal/domain/pricing"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_invalid", "error", err.Error())
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	if err := run(cfg); err != nil {
		slog.Error("server_failed", "error", err.Error())
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// WAL mode, foreign keys and busy timeout
	dsn := cfg.DatabasePath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	if err := db.PingContext(ctx); err != nil {
		return err
	}
	if err := storage.MigrateDB(db, cfg.DatabasePath); err != nil {
		return err
	}
	timedDB := storage.NewTimedDB(db, cfg.SlowQuery)

	stores := web.Stores{
		BookingStore:   bookingStore.NewSQLiteStore(timedDB),
		ShareLinkStore: shareLinkStore.NewSQLiteStore(timedDB),
		ClientStore:    clientStore.NewSQLiteStore(timedDB),
		ShowStore:      showStore.NewSQLiteStore(timedDB),
		StaffStore:     staffStore.NewSQLiteStore(timedDB),
		OutboxStore:    outboxStore.NewSQLiteStore(timedDB),
		AuditStore:     auditStore.NewSQLiteStore(timedDB),
	}

	if cfg.DocumentStore == config.DocumentStoreMongo {
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return err
		}
		defer client.Disconnect(context.Background())
		if err := useMongo(ctx, client.Database(cfg.MongoDatabase), &stores); err != nil {
			return err
		}
	}

	var locker lock.Locker = lock.NewLocalLocker()
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return err
		}
		locker = lock.NewRedisLocker(rdb)
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.AMQPURL != "" {
		amqp, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return err
		}
		defer amqp.Close()
		publisher = amqp
	}

	var sender email.Sender = email.NewNoopSender()
	if cfg.ResendKey != "" {
		sender = email.NewResendSender(cfg.ResendKey, cfg.EmailFrom, cfg.ReplyTo)
	} else if cfg.IsProduction() {
		slog.Warn("email_disabled", "reason", "SMITH_RESEND_KEY is not set")
	}

	csrfKey, err := cfg.CSRFAuthKey()
	if err != nil {
		return err
	}

	processor := orchestrators.NewOutboxProcessor(stores.OutboxStore, map[string]orchestrators.ActionExecutor{
		outbox.ActionTypeEmail: &orchestrators.EmailExecutor{Sender: sender},
		outbox.ActionTypeEvent: &orchestrators.EventExecutor{Publisher: publisher},
	})
	go processor.Run(ctx, cfg.OutboxInterval)

	limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst)
	go limiter.Run(ctx)

	srv := web.NewServer(web.Options{
		Stores:  stores,
		Gateway: payment.NewStripeGateway(cfg.StripeSecretKey),
		Locker:  locker,
		SideEffects: orchestrators.SideEffectDeps{
			Email:  sender,
			Events: publisher,
			Outbox: stores.OutboxStore,
		},
		Outbox:           processor,
		Rates:            pricing.Rates{RatePerDayCents: cfg.RatePerDayCents, DepositCents: cfg.BookingFeeCents},
		Currency:         cfg.Currency,
		BaseURL:          cfg.BaseURL,
		InternalKey:      cfg.InternalKey,
		StaffEmailDomain: cfg.StaffEmailDomain,
		ChargeTimeout:    cfg.ChargeTimeout,
		Authenticator:    middleware.NewAuthenticator([]byte(cfg.JWTSecret), cfg.JWTIssuer),
		CSRFKey:          csrfKey,
		SecureCookies:    cfg.IsProduction(),
		CORSOrigins:      cfg.CORSOrigins,
		RateLimiter:      limiter,
	})

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.ChargeTimeout + 15*time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server_starting", "version", version, "addr", cfg.Addr, "env", cfg.Env,
			"schema", storage.LatestSchemaVersion(), "document_store", cfg.DocumentStore)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("server_stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	slog.Info("server_stopped")
	return nil
}

// useMongo moves bookings and share links onto the document store.
// POST: Indexes exist and legacy deposit fields are normalized
func useMongo(ctx context.Context, mdb *mongo.Database, stores *web.Stores) error {
	bookings := bookingStore.NewMongoStore(mdb)
	if err := bookings.EnsureIndexes(ctx); err != nil {
		return err
	}
	n, err := bookings.NormalizeLegacyDeposits(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		slog.Info("booking_event", "event", "legacy_deposits_normalized", "count", n)
	}
	if n, err = bookings.NormalizeTimestamps(ctx); err != nil {
		return err
	}
	if n > 0 {
		slog.Info("booking_event", "event", "legacy_timestamps_normalized", "count", n)
	}

	links := shareLinkStore.NewMongoStore(mdb)
	if err := links.EnsureIndexes(ctx); err != nil {
		return err
	}

	stores.BookingStore = bookings
	stores.ShareLinkStore = links
	return nil
}
