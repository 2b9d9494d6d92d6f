package schedule

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// CronScheduler runs maintenance jobs on standard 5-field cron specs. A
// job still running when its next tick fires is skipped, not stacked.
type CronScheduler struct {
	cron *cron.Cron
	ctx  context.Context
}

func NewCronScheduler() *CronScheduler {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	return &CronScheduler{cron: cron.New(cron.WithParser(parser))}
}

func (s *CronScheduler) AddJob(job Job, spec string) error {
	var inFlight atomic.Bool
	_, err := s.cron.AddFunc(spec, func() {
		if !inFlight.CompareAndSwap(false, true) {
			logutil.GetLogger(s.jobCtx()).Warn("job tick skipped, previous run still in flight",
				zap.String("job", job.Name()))
			return
		}
		defer inFlight.Store(false)
		s.runOnce(job)
	})
	if err != nil {
		logutil.GetLogger(context.Background()).Error("schedule job failed",
			zap.String("job", job.Name()), zap.String("spec", spec), zap.Error(err))
		return err
	}
	logutil.GetLogger(context.Background()).Info("job scheduled",
		zap.String("job", job.Name()), zap.String("spec", spec))
	return nil
}

func (s *CronScheduler) runOnce(job Job) {
	ctx := s.jobCtx()
	logger := logutil.GetLogger(ctx).With(zap.String("job", job.Name()))
	start := time.Now()
	logger.Info("job started")
	if err := job.Run(ctx); err != nil {
		logger.Error("job failed", zap.Error(err), zap.Duration("duration", time.Since(start)))
		return
	}
	logger.Info("job finished", zap.Duration("duration", time.Since(start)))
}

func (s *CronScheduler) jobCtx() context.Context {
	if s.ctx != nil {
		return s.ctx
	}
	return context.Background()
}

func (s *CronScheduler) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	s.ctx = ctx
	s.cron.Start()
}

func (s *CronScheduler) Stop() {
	done := s.cron.Stop()
	<-done.Done()
}
