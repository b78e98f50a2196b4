package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang-signal-scryper/internal/entity"
	"golang-signal-scryper/internal/scanner/dto"
	"golang-signal-scryper/internal/scanner/repository"
	"golang-signal-scryper/pkg/common"
	"golang-signal-scryper/pkg/logger"
	"golang-signal-scryper/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// StreamClient is the subset of the Redis client used by the scan request queue.
type StreamClient interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
	XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd
	XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd
}

// ScanRequestService queues manual scans on a Redis stream and drains them.
type ScanRequestService interface {
	Enqueue(ctx context.Context, handle string) (string, error)
	ProcessRequest(ctx context.Context)
	RecentCycles(ctx context.Context, limit int) ([]dto.ScanCycleResponse, error)
}

// NewScanRequestService creates a new ScanRequestService.
func NewScanRequestService(
	client StreamClient,
	scanService ScanService,
	cycleRepo repository.ScanCycleRepository,
	log *logger.Logger,
) ScanRequestService {
	return &scanRequestService{
		client:      client,
		scanService: scanService,
		cycleRepo:   cycleRepo,
		logger:      log,
	}
}

type scanRequestService struct {
	client      StreamClient
	scanService ScanService
	cycleRepo   repository.ScanCycleRepository
	logger      *logger.Logger
}

// Enqueue publishes a scan request. An empty handle requests a full cycle.
func (s *scanRequestService) Enqueue(ctx context.Context, handle string) (string, error) {
	payload, err := json.Marshal(dto.ScanRequestMessage{
		Handle:      utils.NormalizeHandle(handle),
		RequestedAt: utils.TimeNow(),
	})
	if err != nil {
		return "", fmt.Errorf("marshal scan request: %w", err)
	}

	id, err := s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: common.RedisStreamScanRequest,
		Values: map[string]interface{}{"payload": string(payload)},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("enqueue scan request: %w", err)
	}

	s.logger.Info("Scan request queued", logger.StringField("message_id", id), logger.StringField("handle", handle))
	return id, nil
}

// ProcessRequest reads and runs a single queued scan request.
func (s *scanRequestService) ProcessRequest(ctx context.Context) {
	streams, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    common.RedisStreamGroup,
		Consumer: common.RedisStreamConsumer,
		Streams:  []string{common.RedisStreamScanRequest, ">"},
		Count:    1,
		Block:    2 * time.Second,
	}).Result()
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, redis.Nil) {
			return
		}
		s.logger.Error("Failed to read from stream", logger.ErrorField(err))
		return
	}
	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		return
	}

	message := streams[0].Messages[0]
	defer s.ack(ctx, message.ID)

	raw, ok := message.Values["payload"].(string)
	if !ok {
		s.logger.Error("field 'payload' not found or not a string in stream message", logger.StringField("message_id", message.ID))
		return
	}

	var req dto.ScanRequestMessage
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		s.logger.Error("Failed to unmarshal scan request", logger.ErrorField(err), logger.StringField("message_id", message.ID))
		return
	}

	if req.Handle == "" {
		_, err := s.scanService.RunCycle(ctx, entity.CycleTriggerStream)
		switch {
		case IsCycleInProgress(err):
			// The running cycle covers every active account.
			s.logger.Info("Queued scan cycle dropped as duplicate of running cycle", logger.StringField("message_id", message.ID))
		case err != nil:
			s.logger.Warn("Queued scan cycle not run", logger.ErrorField(err), logger.StringField("message_id", message.ID))
		}
		return
	}

	if _, err := s.scanService.ScanHandle(ctx, req.Handle); err != nil {
		s.logger.Error("Queued account scan failed",
			logger.StringField("handle", req.Handle),
			logger.StringField("message_id", message.ID),
			logger.ErrorField(err),
		)
	}
}

func (s *scanRequestService) ack(ctx context.Context, id string) {
	if err := s.client.XAck(context.WithoutCancel(ctx), common.RedisStreamScanRequest, common.RedisStreamGroup, id).Err(); err != nil {
		s.logger.Error("Failed to acknowledge scan request", logger.ErrorField(err), logger.StringField("message_id", id))
	}
}

// RecentCycles returns the latest cycle history, newest first.
func (s *scanRequestService) RecentCycles(ctx context.Context, limit int) ([]dto.ScanCycleResponse, error) {
	cycles, err := s.cycleRepo.FindRecent(ctx, limit)
	if err != nil {
		return nil, err
	}

	out := make([]dto.ScanCycleResponse, 0, len(cycles))
	for _, c := range cycles {
		out = append(out, s.toCycleResponse(c))
	}
	return out, nil
}

func (s *scanRequestService) toCycleResponse(c entity.ScanCycle) dto.ScanCycleResponse {
	resp := dto.ScanCycleResponse{
		ID:             c.ID,
		Trigger:        string(c.Trigger),
		Status:         string(c.Status),
		AccountsTotal:  c.AccountsTotal,
		AccountsFailed: c.AccountsFailed,
		ErrorMessage:   nullString(c.ErrorMessage),
		StartedAt:      c.StartedAt,
	}
	if c.CompletedAt.Valid {
		resp.CompletedAt = utils.ToPointer(c.CompletedAt.Time)
	}
	if len(c.Output) > 0 {
		if err := json.Unmarshal(c.Output, &resp.Accounts); err != nil {
			s.logger.Warn("Failed to decode scan cycle output", logger.StringField("cycle_id", c.ID), logger.ErrorField(err))
		}
	}
	return resp
}

func nullString(s sql.NullString) string {
	if !s.Valid {
		return ""
	}
	return s.String
}
