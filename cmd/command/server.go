package command

import (
	"context"
	"fmt"

	"advising_queue/internal/api"
	"advising_queue/internal/auth"
	"advising_queue/internal/config"
	"advising_queue/internal/handlers"
	"advising_queue/internal/metrics"
	"advising_queue/internal/noshow"
	"advising_queue/internal/notify"
	"advising_queue/internal/queue"
	"advising_queue/internal/storage"
	"advising_queue/internal/tasks"
	"advising_queue/internal/ws"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type Server struct {
	Logger *logrus.Logger
}

func (cmd Server) Command(ctx context.Context, cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "run the queue server",
		Run: func(_ *cobra.Command, _ []string) {
			cmd.main(cfg, ctx)
		},
	}
}

func (cmd Server) main(cfg *config.Config, ctx context.Context) {
	db, err := storage.Open(cfg.Database, cmd.Logger)
	if err != nil {
		cmd.Logger.WithContext(ctx).Fatal(errors.Wrap(err, "server : failed to open database"))
		return
	}
	if err := storage.Migrate(db); err != nil {
		cmd.Logger.WithContext(ctx).Fatal(errors.Wrap(err, "server : failed to migrate"))
		return
	}

	redisClient, err := storage.NewRedisClient(ctx, cfg.Redis, cmd.Logger)
	if err != nil {
		cmd.Logger.WithContext(ctx).Fatal(errors.Wrap(err, "server : failed to connect to redis"))
		return
	}
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				cmd.Logger.WithError(err).Error("server : failed to close redis")
			}
		}()
	}

	m := metrics.New()

	// create stores
	entryStore := storage.NewEntryStore(db)
	catalog := storage.NewQueueCatalog(db, redisClient, cmd.Logger)
	if err := catalog.Seed(ctx); err != nil {
		cmd.Logger.WithContext(ctx).Fatal(errors.Wrap(err, "server : failed to seed queues"))
		return
	}

	// change notification: local subscribers, plus other instances through redis
	hub := ws.NewHub(cmd.Logger, ws.WithSubscriberGauge(m.SetSubscribers))
	go hub.Run(ctx)

	publishers := []notify.Publisher{hub}
	if redisClient != nil {
		relay := notify.NewRedisRelay(redisClient, cfg.Redis.Channel, hub, cmd.Logger)
		publishers = append(publishers, relay)
		go func() {
			if err := relay.Run(ctx, nil); err != nil {
				cmd.Logger.WithError(err).Error("server : redis relay stopped")
			}
		}()
	}
	broadcaster := notify.NewBroadcaster(cmd.Logger, publishers,
		notify.WithTargetedEvents(cfg.Queue.TargetedEvents),
		notify.WithObserver(m.ObservePublish))

	timers := noshow.NewManager(cfg.Queue.NoShowGrace, cmd.Logger, noshow.WithGaugeFunc(m.SetPendingNoShows))
	defer timers.Stop()
	cmd.Logger.WithField("grace", timers.Grace()).Info("noshow : timers ready")

	// create services
	svc := queue.NewService(entryStore, catalog, broadcaster, timers, cmd.Logger,
		queue.WithDefaults(cfg.Queue.DefaultQueueID, cfg.Queue.StudentEmailDomain),
		queue.WithLocation(cfg.Queue.Location),
		queue.WithTransitionObserver(m.ObserveTransition))

	planner, err := tasks.NewPlanner(svc, tasks.Schedule{
		DeferralSweep:  cfg.Queue.DeferralSweep,
		RetentionPurge: cfg.Queue.RetentionPurge,
		Retention:      cfg.Queue.Retention(),
	}, cmd.Logger)
	if err != nil {
		cmd.Logger.WithContext(ctx).Fatal(err)
		return
	}
	planner.Start()
	defer planner.Stop()

	authenticator := auth.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	server := api.New(cfg.AppEnv, cmd.Logger)
	server.SetupAPIRoutes(api.Routes{
		Queue:   handlers.NewQueueHandler(svc, cmd.Logger),
		Admin:   handlers.NewAdminHandler(svc, cmd.Logger),
		Health:  handlers.NewHealthHandler(storage.Pinger(db, redisClient)),
		Stream:  hub,
		Admins:  authenticator.AdminMiddleware(),
		Metrics: m.Handler(),
	})

	// run the server
	if err := server.Serve(ctx, fmt.Sprintf(":%d", cfg.HTTP.Port)); err != nil {
		cmd.Logger.WithError(err).Error("server : stopped")
	}
}
