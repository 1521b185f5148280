package command

import (
	"context"

	"advising_queue/internal/config"
	"advising_queue/internal/storage"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type MigrateCommand struct {
	Logger *log.Logger
}

func (cmd MigrateCommand) Command(ctx context.Context, cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "create tables and seed the queue catalog",
		Run: func(_ *cobra.Command, _ []string) {
			cmd.main(cfg, ctx)
		},
	}
}

func (cmd MigrateCommand) main(cfg *config.Config, ctx context.Context) {
	db, err := storage.Open(cfg.Database, cmd.Logger)
	if err != nil {
		cmd.Logger.WithContext(ctx).Fatal(errors.Wrap(err, "migrate : failed to open database"))
		return
	}

	if err := storage.Migrate(db); err != nil {
		cmd.Logger.WithContext(ctx).Fatal(err)
		return
	}

	catalog := storage.NewQueueCatalog(db, nil, cmd.Logger)
	if err := catalog.Seed(ctx); err != nil {
		cmd.Logger.WithContext(ctx).Fatal(err)
		return
	}

	queues, err := catalog.List(ctx)
	if err != nil {
		cmd.Logger.WithContext(ctx).Fatal(err)
		return
	}
	for _, q := range queues {
		cmd.Logger.WithFields(log.Fields{"queue": q.ID, "active": q.IsActive, "admins": q.Admins()}).Info("migrate : queue ready")
	}
	cmd.Logger.Info("migration finished")
}
