package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"golang-signal-scryper/internal/entity"
	"golang-signal-scryper/internal/scanner/config"
	"golang-signal-scryper/internal/scanner/dto"
	"golang-signal-scryper/pkg/common"
	"golang-signal-scryper/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scanFixture struct {
	*scannerFixture
	cycles  *fakeCycleRepo
	configs *fakeConfigRepo
	service ScanService
}

func newScanFixture(lock CycleLock, accounts ...entity.Account) *scanFixture {
	sf := newScannerFixture(accounts...)
	f := &scanFixture{
		scannerFixture: sf,
		cycles:         newFakeCycleRepo(),
		configs:        &fakeConfigRepo{},
	}
	configService := NewConfigService(f.configs, config.Scanner{}, logger.NewNop())
	f.service = NewScanService(configService, sf.accounts, f.cycles, sf.scanner, lock, logger.NewNop())
	return f
}

func TestRunCycle_IsolatesAccountFailures(t *testing.T) {
	f := newScanFixture(nil,
		activeAccount("alice", 100),
		activeAccount("bob", 100),
		activeAccount("carol", 100),
	)
	f.source.posts["alice"] = []dto.Post{btcPost("a1")}
	f.source.posts["carol"] = []dto.Post{btcPost("c1")}
	f.source.errs["bob"] = errors.New("connection reset")

	result, err := f.service.RunCycle(context.Background(), entity.CycleTriggerManual)
	require.NoError(t, err)

	assert.Equal(t, string(entity.CycleStatusCompleted), result.Status)
	assert.Equal(t, 3, result.AccountsTotal)
	assert.Equal(t, 1, result.AccountsFailed)
	require.Len(t, result.Accounts, 3)

	assert.NotNil(t, f.accounts.get("alice").Stats.LastScanAt)
	assert.Nil(t, f.accounts.get("bob").Stats.LastScanAt)
	assert.NotNil(t, f.accounts.get("carol").Stats.LastScanAt)

	stored := f.cycles.cycles[result.CycleID]
	assert.Equal(t, entity.CycleStatusCompleted, stored.Status)
	assert.Equal(t, 1, stored.AccountsFailed)
	assert.True(t, stored.CompletedAt.Valid)
	assert.Equal(t, ScanStateIdle, f.service.State())
}

func TestRunCycle_BoundsConcurrencyByChunk(t *testing.T) {
	var accounts []entity.Account
	for i := 0; i < 5; i++ {
		accounts = append(accounts, activeAccount(fmt.Sprintf("acct%d", i), 10))
	}
	f := newScanFixture(nil, accounts...)
	f.source.delay = 20 * time.Millisecond
	f.configs.cfg = &entity.ScanConfig{ID: 1, Name: common.DefaultScanConfigName, PostLimit: 5, MaxConcurrentScans: 2}

	result, err := f.service.RunCycle(context.Background(), entity.CycleTriggerSchedule)
	require.NoError(t, err)

	assert.Equal(t, 5, result.AccountsTotal)
	assert.Equal(t, int32(5), f.source.fetches.Load())
	assert.LessOrEqual(t, f.source.maxInFlight.Load(), int32(2))
}

func TestRunCycle_SkipsWhileRunning(t *testing.T) {
	f := newScanFixture(nil, activeAccount("alice", 10))
	f.source.started = make(chan string, 1)
	f.source.release = make(chan struct{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = f.service.RunCycle(context.Background(), entity.CycleTriggerSchedule)
	}()
	<-f.source.started

	result, err := f.service.RunCycle(context.Background(), entity.CycleTriggerManual)
	assert.Nil(t, result)
	assert.True(t, IsCycleInProgress(err))
	assert.Equal(t, ScanStateScanning, f.service.State())

	close(f.source.release)
	<-done
	assert.Equal(t, ScanStateIdle, f.service.State())
}

func TestRunCycle_SkipsWhenLockHeldElsewhere(t *testing.T) {
	lock := &fakeLock{acquired: false}
	f := newScanFixture(lock, activeAccount("alice", 10))

	_, err := f.service.RunCycle(context.Background(), entity.CycleTriggerSchedule)
	assert.ErrorIs(t, err, common.ErrCycleInProgress)
	assert.Equal(t, int32(0), f.source.fetches.Load())
	assert.Equal(t, int32(0), lock.released.Load())
}

func TestRunCycle_LockErrorRecordsFailedCycle(t *testing.T) {
	lock := &fakeLock{err: errors.New("redis unavailable")}
	f := newScanFixture(lock, activeAccount("alice", 10))

	result, err := f.service.RunCycle(context.Background(), entity.CycleTriggerSchedule)
	require.NoError(t, err)
	assert.Equal(t, string(entity.CycleStatusFailed), result.Status)

	stored := f.cycles.cycles[result.CycleID]
	assert.Equal(t, entity.CycleStatusFailed, stored.Status)
	assert.Contains(t, stored.ErrorMessage.String, "redis unavailable")
}

func TestRunCycle_AccountLoadFailureIsRecorded(t *testing.T) {
	lock := &fakeLock{acquired: true}
	f := newScanFixture(lock)
	f.accounts.findErr = errors.New("db down")

	result, err := f.service.RunCycle(context.Background(), entity.CycleTriggerManual)
	require.NoError(t, err)
	assert.Equal(t, string(entity.CycleStatusFailed), result.Status)
	assert.Equal(t, int32(1), lock.released.Load())
}

func TestRunCycle_CancelledContextSkipsChunks(t *testing.T) {
	f := newScanFixture(nil, activeAccount("alice", 10), activeAccount("bob", 10))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := f.service.RunCycle(ctx, entity.CycleTriggerSchedule)
	require.NoError(t, err)
	assert.Equal(t, 2, result.AccountsTotal)
	assert.Empty(t, result.Accounts)
	assert.Equal(t, int32(0), f.source.fetches.Load())
}

func TestScanHandle(t *testing.T) {
	f := newScanFixture(nil, activeAccount("alice", 10))
	f.source.posts["alice"] = []dto.Post{btcPost("a1")}

	result, err := f.service.ScanHandle(context.Background(), "@Alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", result.Handle)
	assert.Equal(t, 1, result.PostsAnalyzed)

	_, err = f.service.ScanHandle(context.Background(), "nobody")
	assert.ErrorIs(t, err, common.ErrAccountNotFound)
}

func TestScanHandle_CompletesAfterCallerCancels(t *testing.T) {
	f := newScanFixture(nil, activeAccount("alice", 10))
	f.source.posts["alice"] = []dto.Post{btcPost("a1")}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.source.onFetch = cancel

	result, err := f.service.ScanHandle(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Notified)
	assert.Equal(t, 1, f.dispatcher.calls)

	stored := f.posts.get("a1")
	assert.True(t, stored.Notification.ShouldNotify)
	assert.True(t, stored.Notification.Notified)
}

func TestScanHandle_WaitsForCycleScanningSameAccount(t *testing.T) {
	f := newScanFixture(nil, activeAccount("alice", 10))
	f.source.posts["alice"] = []dto.Post{btcPost("a1")}
	f.source.started = make(chan string, 1)
	f.source.release = make(chan struct{})

	cycleDone := make(chan struct{})
	go func() {
		defer close(cycleDone)
		_, _ = f.service.RunCycle(context.Background(), entity.CycleTriggerSchedule)
	}()
	<-f.source.started

	manualDone := make(chan error, 1)
	go func() {
		_, err := f.service.ScanHandle(context.Background(), "alice")
		manualDone <- err
	}()

	assert.Never(t, func() bool { return f.source.fetches.Load() > 1 }, 100*time.Millisecond, 10*time.Millisecond)

	close(f.source.release)
	<-cycleDone
	require.NoError(t, <-manualDone)

	// Second scan blends onto the first one's rating: 0 -> 28 -> 45.
	assert.Equal(t, int32(2), f.source.fetches.Load())
	assert.Equal(t, 2, f.accounts.summaryCalls)
	assert.Equal(t, 45, f.accounts.get("alice").QualityRating.Score)
}
