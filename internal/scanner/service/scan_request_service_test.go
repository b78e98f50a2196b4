package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"golang-signal-scryper/internal/entity"
	"golang-signal-scryper/internal/scanner/dto"
	"golang-signal-scryper/pkg/common"
	"golang-signal-scryper/pkg/logger"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observedLogger() (*logger.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.InfoLevel)
	return &logger.Logger{Logger: zap.New(core)}, logs
}

type fakeStream struct {
	added    []*redis.XAddArgs
	messages []redis.XMessage
	readErr  error
	acked    []string
}

func (s *fakeStream) XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd {
	s.added = append(s.added, a)
	return redis.NewStringResult("1-0", nil)
}

func (s *fakeStream) XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd {
	if s.readErr != nil {
		return redis.NewXStreamSliceCmdResult(nil, s.readErr)
	}
	return redis.NewXStreamSliceCmdResult([]redis.XStream{{Stream: a.Streams[0], Messages: s.messages}}, nil)
}

func (s *fakeStream) XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd {
	s.acked = append(s.acked, ids...)
	return redis.NewIntResult(int64(len(ids)), nil)
}

type fakeScanService struct {
	triggers []entity.CycleTrigger
	handles  []string
	cycleErr error
}

func (f *fakeScanService) RunCycle(ctx context.Context, trigger entity.CycleTrigger) (*dto.CycleResult, error) {
	f.triggers = append(f.triggers, trigger)
	if f.cycleErr != nil {
		return nil, f.cycleErr
	}
	return &dto.CycleResult{Trigger: string(trigger)}, nil
}

func (f *fakeScanService) ScanHandle(ctx context.Context, handle string) (*dto.AccountScanResult, error) {
	f.handles = append(f.handles, handle)
	return &dto.AccountScanResult{Handle: handle}, nil
}

func (f *fakeScanService) State() ScanState { return ScanStateIdle }

func scanRequestMessage(t *testing.T, id, handle string) redis.XMessage {
	t.Helper()
	payload, err := json.Marshal(dto.ScanRequestMessage{Handle: handle, RequestedAt: time.Now()})
	require.NoError(t, err)
	return redis.XMessage{ID: id, Values: map[string]interface{}{"payload": string(payload)}}
}

func TestScanRequestService_Enqueue(t *testing.T) {
	stream := &fakeStream{}
	svc := NewScanRequestService(stream, &fakeScanService{}, newFakeCycleRepo(), logger.NewNop())

	id, err := svc.Enqueue(context.Background(), "@Alice")
	require.NoError(t, err)
	assert.Equal(t, "1-0", id)

	require.Len(t, stream.added, 1)
	assert.Equal(t, common.RedisStreamScanRequest, stream.added[0].Stream)
	var msg dto.ScanRequestMessage
	values := stream.added[0].Values.(map[string]interface{})
	require.NoError(t, json.Unmarshal([]byte(values["payload"].(string)), &msg))
	assert.Equal(t, "alice", msg.Handle)
}

func TestScanRequestService_ProcessHandleRequest(t *testing.T) {
	stream := &fakeStream{messages: []redis.XMessage{scanRequestMessage(t, "5-0", "alice")}}
	scans := &fakeScanService{}
	svc := NewScanRequestService(stream, scans, newFakeCycleRepo(), logger.NewNop())

	svc.ProcessRequest(context.Background())

	assert.Equal(t, []string{"alice"}, scans.handles)
	assert.Empty(t, scans.triggers)
	assert.Equal(t, []string{"5-0"}, stream.acked)
}

func TestScanRequestService_ProcessCycleRequest(t *testing.T) {
	stream := &fakeStream{messages: []redis.XMessage{scanRequestMessage(t, "6-0", "")}}
	scans := &fakeScanService{}
	svc := NewScanRequestService(stream, scans, newFakeCycleRepo(), logger.NewNop())

	svc.ProcessRequest(context.Background())

	assert.Equal(t, []entity.CycleTrigger{entity.CycleTriggerStream}, scans.triggers)
	assert.Equal(t, []string{"6-0"}, stream.acked)
}

func TestScanRequestService_CycleRequestWhileRunningIsLoggedAsDuplicate(t *testing.T) {
	stream := &fakeStream{messages: []redis.XMessage{scanRequestMessage(t, "8-0", "")}}
	scans := &fakeScanService{cycleErr: common.ErrCycleInProgress}
	log, logs := observedLogger()
	svc := NewScanRequestService(stream, scans, newFakeCycleRepo(), log)

	svc.ProcessRequest(context.Background())

	assert.Equal(t, []string{"8-0"}, stream.acked)
	dropped := logs.FilterMessage("Queued scan cycle dropped as duplicate of running cycle").All()
	require.Len(t, dropped, 1)
	assert.Equal(t, "8-0", dropped[0].ContextMap()["message_id"])
}

func TestScanRequestService_MalformedMessageIsAcked(t *testing.T) {
	stream := &fakeStream{messages: []redis.XMessage{{ID: "7-0", Values: map[string]interface{}{"payload": "{not json"}}}}
	scans := &fakeScanService{}
	svc := NewScanRequestService(stream, scans, newFakeCycleRepo(), logger.NewNop())

	svc.ProcessRequest(context.Background())

	assert.Empty(t, scans.handles)
	assert.Empty(t, scans.triggers)
	assert.Equal(t, []string{"7-0"}, stream.acked)
}

func TestScanRequestService_IdleStream(t *testing.T) {
	stream := &fakeStream{readErr: redis.Nil}
	scans := &fakeScanService{}
	svc := NewScanRequestService(stream, scans, newFakeCycleRepo(), logger.NewNop())

	svc.ProcessRequest(context.Background())

	assert.Empty(t, stream.acked)
}

func TestScanRequestService_RecentCycles(t *testing.T) {
	cycles := newFakeCycleRepo()
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cycles.recent = []entity.ScanCycle{{
		ID:             "c1",
		Trigger:        entity.CycleTriggerSchedule,
		Status:         entity.CycleStatusCompleted,
		AccountsTotal:  2,
		AccountsFailed: 1,
		Output:         []byte(`[{"handle":"alice","posts_fetched":3},{"handle":"bob","error":"boom"}]`),
		ErrorMessage:   sql.NullString{},
		StartedAt:      started,
		CompletedAt:    sql.NullTime{Time: started.Add(time.Minute), Valid: true},
	}}
	svc := NewScanRequestService(&fakeStream{}, &fakeScanService{}, cycles, logger.NewNop())

	out, err := svc.RecentCycles(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "COMPLETED", out[0].Status)
	require.Len(t, out[0].Accounts, 2)
	assert.Equal(t, "boom", out[0].Accounts[1].Error)
	require.NotNil(t, out[0].CompletedAt)
	assert.Equal(t, started.Add(time.Minute), *out[0].CompletedAt)
}

func TestScanRequestService_RecentCyclesLogsUndecodableOutput(t *testing.T) {
	cycles := newFakeCycleRepo()
	cycles.recent = []entity.ScanCycle{{
		ID:        "c2",
		Trigger:   entity.CycleTriggerManual,
		Status:    entity.CycleStatusFailed,
		Output:    []byte(`{"handle":`),
		StartedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}}
	log, logs := observedLogger()
	svc := NewScanRequestService(&fakeStream{}, &fakeScanService{}, cycles, log)

	out, err := svc.RecentCycles(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Empty(t, out[0].Accounts)

	warned := logs.FilterMessage("Failed to decode scan cycle output").All()
	require.Len(t, warned, 1)
	assert.Equal(t, zapcore.WarnLevel, warned[0].Level)
	assert.Equal(t, "c2", warned[0].ContextMap()["cycle_id"])
}
