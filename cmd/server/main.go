package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"google.golang.org/api/option"

	"interview-scheduler/internal/app"
	"interview-scheduler/internal/config"
	"interview-scheduler/internal/directory"
	"interview-scheduler/internal/events"
	"interview-scheduler/internal/invite"
	"interview-scheduler/internal/jobs"
	"interview-scheduler/internal/meeting"
	"interview-scheduler/internal/notify"
	"interview-scheduler/internal/scheduling"
	"interview-scheduler/internal/server"
	"interview-scheduler/internal/slots"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := cfg.Logger

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatalf("store: %v", err)
	}
	defer closeStore()
	manager := slots.NewManager(store, logger)

	var (
		gateway     directory.Gateway
		conferencer meeting.Conferencer
		dispatcher  notify.Dispatcher = notify.LogDispatcher{Logger: logger}
	)
	if cfg.GoogleConfigured() {
		creds, err := directory.ServiceAccountCredentials(cfg.GoogleServiceAccountJSON, cfg.GoogleDelegatedUser,
			cfg.TokenRefreshMargin, cfg.ExternalCallTimeout, logger)
		if err != nil {
			logger.Fatalf("google credentials: %v", err)
		}
		opts := option.WithTokenSource(creds)

		gw, err := directory.NewGoogleGateway(ctx, directory.GoogleConfig{
			CustomerID: cfg.GoogleCustomerID,
			Timezone:   cfg.BusinessTimezone,
			Interval:   cfg.FreeBusyInterval,
			Timeout:    cfg.ExternalCallTimeout,
			Logger:     logger,
		}, opts)
		if err != nil {
			logger.Fatalf("directory gateway: %v", err)
		}
		gateway = gw

		if conferencer, err = meeting.NewGoogleMeet(ctx, cfg.GoogleDelegatedUser, cfg.BusinessTimezone, opts); err != nil {
			logger.Fatalf("meet: %v", err)
		}
		if dispatcher, err = notify.NewGmailDispatcher(ctx, cfg.ExternalCallTimeout, logger, opts); err != nil {
			logger.Fatalf("gmail: %v", err)
		}
	} else {
		logger.Println("google workspace not configured; meetings resolve to none and mail is logged only")
	}

	resolver := meeting.NewResolver(gateway, conferencer, meeting.Config{
		Exclude:       cfg.RoomExclude,
		DefaultLocale: cfg.DefaultLocale,
		Timeout:       cfg.ExternalCallTimeout,
		Logger:        logger,
	})

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.RedisURL != "" {
		rp, err := events.NewRedisPublisher(ctx, cfg.RedisURL, logger)
		if err != nil {
			logger.Fatalf("redis: %v", err)
		}
		defer rp.Close()
		publisher = rp
	}

	orch := scheduling.New(manager, resolver, dispatcher, publisher, scheduling.Config{
		Composer: invite.Composer{
			UIDDomain: cfg.InviteUIDDomain,
			Sender:    invite.Party{Name: "Recruiting", Email: cfg.SystemSenderEmail},
			Timezone:  cfg.BusinessTimezone,
		},
		NotificationContact: cfg.NotificationContactEmail,
		Logger:              logger,
	})

	if cfg.SweepCron != "" {
		c, err := jobs.NewSweeper(manager, cfg.SweepGrace, logger).Schedule(cfg.SweepCron)
		if err != nil {
			logger.Fatalf("sweep: %v", err)
		}
		c.Start()
		defer c.Stop()
	}

	router := app.NewRouter(&app.App{
		Slots:     manager,
		Scheduler: orch,
		Rooms:     resolver,
		Logger:    logger,
	}, app.RouterConfig{
		StaticTokens:       cfg.StaticTokens,
		JWTHMACSecret:      cfg.JWTHMACSecret,
		ClaimRatePerMinute: cfg.ClaimRatePerMinute,
	})

	if err := server.Run(ctx, router, cfg.Port, logger); err != nil {
		logger.Printf("server: %v", err)
	}
}

func openStore(ctx context.Context, cfg *config.Config) (slots.Store, func(), error) {
	if cfg.Store == "memory" {
		cfg.Logger.Println("using in-memory slot store")
		return slots.NewMemoryStore(), func() {}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	store := slots.NewPostgresStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return store, pool.Close, nil
}
