package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const pruneTimeout = time.Minute

type staleTokenDeleter interface {
	DeleteStale(ctx context.Context, cutoff time.Time) (int64, error)
}

type PruneRecorder interface {
	RecordResetTokensPruned(n int64)
}

// ResetTokenPruner removes password reset tokens that can no longer be redeemed.
type ResetTokenPruner struct {
	repo     staleTokenDeleter
	recorder PruneRecorder
	now      func() time.Time
}

func NewResetTokenPruner(repo staleTokenDeleter, recorder PruneRecorder) *ResetTokenPruner {
	return &ResetTokenPruner{repo: repo, recorder: recorder, now: time.Now}
}

func (p *ResetTokenPruner) Run(ctx context.Context) (int64, error) {
	deleted, err := p.repo.DeleteStale(ctx, p.now())
	if err != nil {
		return 0, err
	}
	if p.recorder != nil && deleted > 0 {
		p.recorder.RecordResetTokensPruned(deleted)
	}
	return deleted, nil
}

// Scheduler wraps a cron runner with the process lifecycle.
type Scheduler struct {
	cron *cron.Cron
}

func NewScheduler() *Scheduler {
	return &Scheduler{cron: cron.New()}
}

// SchedulePruner registers the pruner on the given cron spec.
func (s *Scheduler) SchedulePruner(spec string, pruner *ResetTokenPruner) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), pruneTimeout)
		defer cancel()

		deleted, err := pruner.Run(ctx)
		if err != nil {
			logrus.WithError(err).Error("Failed to prune password reset tokens")
			return
		}
		logrus.WithField("deleted", deleted).Debug("Pruned password reset tokens")
	})
	return err
}

// Run starts the scheduler and blocks until ctx is done, then waits for
// running jobs to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	logrus.WithField("jobs", len(s.cron.Entries())).Info("Job scheduler started")

	<-ctx.Done()

	stopped := s.cron.Stop()
	<-stopped.Done()
	logrus.Info("Job scheduler stopped")
	return nil
}
