package consumer

import (
	"context"
	"sync"
	"time"

	"golang-signal-scryper/internal/scanner/config"
	"golang-signal-scryper/internal/scanner/service"
	"golang-signal-scryper/pkg/common"
	"golang-signal-scryper/pkg/logger"
	"golang-signal-scryper/pkg/utils"
)

// RedisConsumer drains the scan request stream.
type RedisConsumer struct {
	cfg            *config.Config
	requestService service.ScanRequestService
	logger         *logger.Logger
	stopChan       chan struct{}
	stopOnce       sync.Once
	wg             sync.WaitGroup
}

// NewRedisConsumer creates a new RedisConsumer.
func NewRedisConsumer(cfg *config.Config, requestService service.ScanRequestService, log *logger.Logger) *RedisConsumer {
	return &RedisConsumer{
		cfg:            cfg,
		requestService: requestService,
		logger:         log,
		stopChan:       make(chan struct{}),
	}
}

// Start begins the consumer's request processing loop.
func (c *RedisConsumer) Start(ctx context.Context) {
	c.logger.Info("Redis consumer started")
	c.RegisterStreamHandler(ctx, c.requestService.ProcessRequest, common.RedisStreamScanRequest, c.cfg.Scanner.ScanRequestTimeout)
}

// RegisterStreamHandler calls fn in a loop until ctx is done or Stop is called.
// Each call gets its own timeout.
func (c *RedisConsumer) RegisterStreamHandler(ctx context.Context, fn func(ctx context.Context), streamName string, timeout time.Duration) {
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	c.logger.Info("Registering stream handler",
		logger.StringField("stream", streamName),
		logger.DurationField("timeout", timeout),
	)
	c.wg.Add(1)
	utils.GoSafe(func() {
		defer c.wg.Done()
		for {
			select {
			case <-ctx.Done():
				c.logger.Info("Redis consumer stopping due to context cancellation", logger.StringField("stream", streamName))
				return
			case <-c.stopChan:
				c.logger.Info("Redis consumer stopping", logger.StringField("stream", streamName))
				return
			default:
				ctxTimeout, cancel := context.WithTimeout(ctx, timeout)
				fn(ctxTimeout)
				cancel()
			}
		}
	})
}

// Stop gracefully shuts down the consumer.
func (c *RedisConsumer) Stop() {
	c.stopOnce.Do(func() { close(c.stopChan) })
	c.wg.Wait()
	c.logger.Info("Redis consumer stopped")
}
