// Package tasks runs the periodic queue maintenance jobs.
package tasks

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

type Maintainer interface {
	ReinstateExpiredDeferrals(ctx context.Context) (int, error)
	Purge(ctx context.Context, cutoff time.Time) (int64, error)
}

// jobTimeout bounds a single run so a hung store never stacks up runs.
const jobTimeout = 30 * time.Second

type Planner struct {
	svc       Maintainer
	retention time.Duration
	logger    *logrus.Logger
	cron      *cron.Cron
}

type Schedule struct {
	DeferralSweep  string
	RetentionPurge string
	Retention      time.Duration
}

// NewPlanner registers the jobs on a seconds-resolution cron. A retention of zero
// disables the purge.
func NewPlanner(svc Maintainer, schedule Schedule, logger *logrus.Logger) (*Planner, error) {
	p := &Planner{
		svc:       svc,
		retention: schedule.Retention,
		logger:    logger,
		cron:      cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
	}

	if _, err := p.cron.AddFunc(schedule.DeferralSweep, p.ReinstateDeferrals); err != nil {
		return nil, errors.Wrapf(err, "tasks : deferral sweep spec %q", schedule.DeferralSweep)
	}
	if schedule.Retention > 0 {
		if _, err := p.cron.AddFunc(schedule.RetentionPurge, p.PurgeOldEntries); err != nil {
			return nil, errors.Wrapf(err, "tasks : retention purge spec %q", schedule.RetentionPurge)
		}
	}
	return p, nil
}

func (p *Planner) Start() {
	p.cron.Start()
	p.logger.WithField("jobs", len(p.cron.Entries())).Info("cron scheduler started")
}

func (p *Planner) Stop() {
	<-p.cron.Stop().Done()
}

// ReinstateDeferrals возвращает в ожидание записи, у которых истекла отсрочка.
func (p *Planner) ReinstateDeferrals() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	moved, err := p.svc.ReinstateExpiredDeferrals(ctx)
	if err != nil {
		p.logger.WithError(err).Error("deferral sweep failed")
		return
	}
	if moved > 0 {
		p.logger.WithField("entries", moved).Info("expired deferrals reinstated")
	}
}

// PurgeOldEntries удаляет завершённые и no-show записи старше срока хранения.
func (p *Planner) PurgeOldEntries() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	// записи хранятся в UTC
	n, err := p.svc.Purge(ctx, time.Now().UTC().Add(-p.retention))
	if err != nil {
		p.logger.WithError(err).Error("retention purge failed")
		return
	}
	p.logger.WithField("entries", n).Info("old entries purged")
}
