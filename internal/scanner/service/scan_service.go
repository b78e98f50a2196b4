package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"golang-signal-scryper/internal/entity"
	"golang-signal-scryper/internal/scanner/dto"
	"golang-signal-scryper/internal/scanner/repository"
	"golang-signal-scryper/pkg/common"
	"golang-signal-scryper/pkg/logger"
	"golang-signal-scryper/pkg/metrics"
	"golang-signal-scryper/pkg/utils"

	"github.com/google/uuid"
)

// ScanState is the orchestrator's position in its cycle state machine.
type ScanState string

const (
	ScanStateIdle     ScanState = "idle"
	ScanStateFetching ScanState = "fetching"
	ScanStateScanning ScanState = "scanning"
)

// ScanService orchestrates scan cycles over the active roster.
type ScanService interface {
	// RunCycle scans every active account in chunks of max_concurrent_scans.
	// Per-account failures are logged and recorded, never returned. The only
	// error is common.ErrCycleInProgress when another cycle holds the guard.
	RunCycle(ctx context.Context, trigger entity.CycleTrigger) (*dto.CycleResult, error)
	// ScanHandle scans one monitored account inline and returns its error.
	ScanHandle(ctx context.Context, handle string) (*dto.AccountScanResult, error)
	State() ScanState
}

// NewScanService creates a new ScanService.
func NewScanService(
	configService ConfigService,
	accountRepo repository.AccountRepository,
	cycleRepo repository.ScanCycleRepository,
	scanner AccountScanner,
	lock CycleLock,
	log *logger.Logger,
) ScanService {
	if lock == nil {
		lock = NewNoopCycleLock()
	}
	s := &scanService{
		configService: configService,
		accountRepo:   accountRepo,
		cycleRepo:     cycleRepo,
		scanner:       scanner,
		lock:          lock,
		logger:        log,
	}
	s.state.Store(string(ScanStateIdle))
	return s
}

type scanService struct {
	configService ConfigService
	accountRepo   repository.AccountRepository
	cycleRepo     repository.ScanCycleRepository
	scanner       AccountScanner
	lock          CycleLock
	logger        *logger.Logger
	running       atomic.Bool
	state         atomic.Value
	handles       handleLocks
}

// handleLocks serializes scans of the same account across cycles and manual
// scans, so every scan blends onto the rating the previous one persisted.
type handleLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (h *handleLocks) lock(handle string) func() {
	h.mu.Lock()
	if h.locks == nil {
		h.locks = make(map[string]*sync.Mutex)
	}
	l, ok := h.locks[handle]
	if !ok {
		l = &sync.Mutex{}
		h.locks[handle] = l
	}
	h.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func (s *scanService) State() ScanState {
	return ScanState(s.state.Load().(string))
}

func (s *scanService) setState(state ScanState) {
	s.state.Store(string(state))
}

func (s *scanService) RunCycle(ctx context.Context, trigger entity.CycleTrigger) (*dto.CycleResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("Scan cycle skipped, previous cycle still running", logger.StringField("trigger", string(trigger)))
		metrics.ScanCycles.WithLabelValues(string(trigger), "skipped").Inc()
		return nil, common.ErrCycleInProgress
	}
	defer s.running.Store(false)

	acquired, err := s.lock.Acquire(ctx)
	if err != nil {
		s.logger.Error("Failed to acquire cycle lock", logger.ErrorField(err))
		return s.failCycle(ctx, trigger, fmt.Errorf("acquire cycle lock: %w", err)), nil
	}
	if !acquired {
		s.logger.Warn("Scan cycle skipped, lock held by another process", logger.StringField("trigger", string(trigger)))
		metrics.ScanCycles.WithLabelValues(string(trigger), "skipped").Inc()
		return nil, common.ErrCycleInProgress
	}
	defer func() {
		if err := s.lock.Release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("Failed to release cycle lock", logger.ErrorField(err))
		}
	}()

	started := utils.TimeNow()
	result := &dto.CycleResult{
		CycleID:   uuid.NewString(),
		Trigger:   string(trigger),
		Status:    string(entity.CycleStatusRunning),
		Accounts:  []dto.AccountScanResult{},
		StartedAt: started,
	}
	cycle := &entity.ScanCycle{
		ID:        result.CycleID,
		Trigger:   trigger,
		Status:    entity.CycleStatusRunning,
		StartedAt: started,
	}
	if err := s.cycleRepo.Create(ctx, cycle); err != nil {
		s.logger.Error("Failed to create scan cycle record", logger.ErrorField(err), logger.StringField("cycle_id", cycle.ID))
	}

	defer s.setState(ScanStateIdle)
	s.setState(ScanStateFetching)

	cfg, err := s.configService.GetScanConfig(ctx)
	if err != nil {
		return s.finishCycle(ctx, cycle, result, err), nil
	}

	accounts, err := s.accountRepo.FindActive(ctx)
	if err != nil {
		return s.finishCycle(ctx, cycle, result, fmt.Errorf("load active accounts: %w", err)), nil
	}
	result.AccountsTotal = len(accounts)

	if len(accounts) == 0 {
		s.logger.Info("No active accounts for scan cycle", logger.StringField("cycle_id", cycle.ID))
		return s.finishCycle(ctx, cycle, result, nil), nil
	}

	s.setState(ScanStateScanning)
	chunks := utils.ChunkSlice(accounts, cfg.MaxConcurrentScans)
	s.logger.Info("Scan cycle started",
		logger.StringField("cycle_id", cycle.ID),
		logger.StringField("trigger", string(trigger)),
		logger.IntField("accounts", len(accounts)),
		logger.IntField("chunks", len(chunks)),
	)

	// In-flight account scans are not interrupted by shutdown.
	scanCtx := context.WithoutCancel(ctx)
	for i, chunk := range chunks {
		if !utils.ShouldContinue(ctx, s.logger) {
			s.logger.Warn("Scan cycle interrupted, remaining chunks skipped",
				logger.StringField("cycle_id", cycle.ID),
				logger.IntField("completed_chunks", i),
			)
			break
		}

		chunkResults := make([]dto.AccountScanResult, len(chunk))
		var wg sync.WaitGroup
		for j := range chunk {
			wg.Add(1)
			utils.GoSafe(func() {
				defer wg.Done()
				chunkResults[j] = s.scanAccount(scanCtx, chunk[j], *cfg)
			})
		}
		wg.Wait()

		for _, r := range chunkResults {
			if r.Error != "" {
				result.AccountsFailed++
			}
		}
		result.Accounts = append(result.Accounts, chunkResults...)
	}

	return s.finishCycle(ctx, cycle, result, nil), nil
}

func (s *scanService) ScanHandle(ctx context.Context, handle string) (*dto.AccountScanResult, error) {
	handle = utils.NormalizeHandle(handle)
	if _, err := s.accountRepo.FindByHandle(ctx, handle); err != nil {
		return nil, err
	}

	cfg, err := s.configService.GetScanConfig(ctx)
	if err != nil {
		return nil, err
	}

	// Once started, the scan runs to completion even if the caller goes away.
	scanCtx := context.WithoutCancel(ctx)
	unlock := s.handles.lock(handle)
	defer unlock()

	account, err := s.accountRepo.FindByHandle(scanCtx, handle)
	if err != nil {
		return nil, err
	}

	var result dto.AccountScanResult
	err = utils.RunSafe(func() error {
		var scanErr error
		result, scanErr = s.scanner.Scan(scanCtx, *account, *cfg)
		return scanErr
	})
	if err != nil {
		metrics.AccountScans.WithLabelValues("error").Inc()
		result.Handle = account.Handle
		result.Error = err.Error()
		return &result, err
	}
	metrics.AccountScans.WithLabelValues("success").Inc()
	return &result, nil
}

// scanAccount isolates one account: errors and panics become a failed result.
func (s *scanService) scanAccount(ctx context.Context, account entity.Account, cfg entity.ScanConfig) dto.AccountScanResult {
	unlock := s.handles.lock(account.Handle)
	defer unlock()

	var result dto.AccountScanResult
	err := utils.RunSafe(func() error {
		// Reload under the handle lock to pick up a rating written by a manual scan.
		current, err := s.accountRepo.FindByHandle(ctx, account.Handle)
		if err != nil {
			return fmt.Errorf("reload account: %w", err)
		}
		var scanErr error
		result, scanErr = s.scanner.Scan(ctx, *current, cfg)
		return scanErr
	})
	result.Handle = account.Handle
	if err != nil {
		metrics.AccountScans.WithLabelValues("error").Inc()
		s.logger.Error("Account scan failed", logger.StringField("handle", account.Handle), logger.ErrorField(err))
		result.Error = err.Error()
		return result
	}
	metrics.AccountScans.WithLabelValues("success").Inc()
	return result
}

func (s *scanService) failCycle(ctx context.Context, trigger entity.CycleTrigger, cause error) *dto.CycleResult {
	started := utils.TimeNow()
	result := &dto.CycleResult{
		CycleID:   uuid.NewString(),
		Trigger:   string(trigger),
		Accounts:  []dto.AccountScanResult{},
		StartedAt: started,
	}
	cycle := &entity.ScanCycle{ID: result.CycleID, Trigger: trigger, Status: entity.CycleStatusRunning, StartedAt: started}
	if err := s.cycleRepo.Create(ctx, cycle); err != nil {
		s.logger.Error("Failed to create scan cycle record", logger.ErrorField(err), logger.StringField("cycle_id", cycle.ID))
	}
	return s.finishCycle(ctx, cycle, result, cause)
}

// finishCycle stamps the result, records metrics and persists the history row.
func (s *scanService) finishCycle(ctx context.Context, cycle *entity.ScanCycle, result *dto.CycleResult, cause error) *dto.CycleResult {
	completed := utils.TimeNow()
	result.Duration = completed.Sub(result.StartedAt)

	status := entity.CycleStatusCompleted
	if cause != nil {
		status = entity.CycleStatusFailed
		s.logger.Error("Scan cycle failed", logger.StringField("cycle_id", cycle.ID), logger.ErrorField(cause))
		cycle.ErrorMessage = sql.NullString{String: cause.Error(), Valid: true}
	}
	result.Status = string(status)

	cycle.Status = status
	cycle.AccountsTotal = result.AccountsTotal
	cycle.AccountsFailed = result.AccountsFailed
	cycle.CompletedAt = sql.NullTime{Time: completed, Valid: true}
	if output, err := json.Marshal(result.Accounts); err == nil {
		cycle.Output = output
	}

	if err := s.cycleRepo.Update(context.WithoutCancel(ctx), cycle); err != nil {
		s.logger.Error("Failed to update scan cycle record", logger.ErrorField(err), logger.StringField("cycle_id", cycle.ID))
	}

	metrics.ScanCycles.WithLabelValues(result.Trigger, strings.ToLower(string(status))).Inc()
	metrics.ScanCycleDuration.Observe(result.Duration.Seconds())

	s.logger.Info("Scan cycle finished",
		logger.StringField("cycle_id", cycle.ID),
		logger.StringField("status", result.Status),
		logger.IntField("accounts", result.AccountsTotal),
		logger.IntField("failed", result.AccountsFailed),
		logger.DurationField("duration", result.Duration),
	)
	return result
}

// IsCycleInProgress reports whether err means a cycle was skipped.
func IsCycleInProgress(err error) bool {
	return errors.Is(err, common.ErrCycleInProgress)
}

