package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang-signal-scryper/internal/entity"
	"golang-signal-scryper/pkg/logger"
	"golang-signal-scryper/pkg/utils"

	"github.com/robfig/cron/v3"
)

// SchedulerService drives recurring scan cycles.
type SchedulerService interface {
	Start(ctx context.Context) error
	Reschedule(interval time.Duration) error
	Stop()
}

// NewSchedulerService creates a new cron-backed SchedulerService.
func NewSchedulerService(scanService ScanService, configService ConfigService, log *logger.Logger) SchedulerService {
	cl := cronLogger{log: log}
	return &schedulerService{
		scanService:   scanService,
		configService: configService,
		logger:        log,
		cron: cron.New(cron.WithChain(
			cron.Recover(cl),
			cron.SkipIfStillRunning(cl),
		)),
	}
}

type schedulerService struct {
	scanService   ScanService
	configService ConfigService
	logger        *logger.Logger
	cron          *cron.Cron

	mu       sync.Mutex
	ctx      context.Context
	entryID  cron.EntryID
	interval time.Duration
}

// Start schedules cycles at the stored interval, runs one cycle right away and
// follows interval changes made through the config service.
func (s *schedulerService) Start(ctx context.Context) error {
	cfg, err := s.configService.GetScanConfig(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	if err := s.Reschedule(cfg.ScanInterval()); err != nil {
		return err
	}
	s.configService.OnUpdate(func(updated entity.ScanConfig) {
		if err := s.Reschedule(updated.ScanInterval()); err != nil {
			s.logger.Error("Failed to reschedule scan cycles", logger.ErrorField(err))
		}
	})

	s.cron.Start()
	utils.GoSafe(func() { s.runCycle(ctx) })
	return nil
}

// Reschedule replaces the cycle entry when the interval changes.
func (s *schedulerService) Reschedule(interval time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if interval == s.interval && s.entryID != 0 {
		return nil
	}

	ctx := s.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	id, err := s.cron.AddFunc(fmt.Sprintf("@every %s", interval), func() { s.runCycle(ctx) })
	if err != nil {
		return fmt.Errorf("schedule scan cycle: %w", err)
	}
	if s.entryID != 0 {
		s.cron.Remove(s.entryID)
	}
	s.entryID = id
	s.interval = interval

	s.logger.Info("Scan cycle scheduled", logger.DurationField("interval", interval))
	return nil
}

// Stop stops the cron and waits for a running cycle to return.
func (s *schedulerService) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

func (s *schedulerService) runCycle(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := s.scanService.RunCycle(ctx, entity.CycleTriggerSchedule); err != nil && !IsCycleInProgress(err) {
		s.logger.Error("Scheduled scan cycle failed", logger.ErrorField(err))
	}
}

// cronLogger adapts the zap logger to cron.Logger.
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Infow(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
