// Package bus fans complaint lifecycle events out to interested consumers,
// in process or across replicas through redis pub/sub.
package bus

import (
	"context"
	"fmt"

	"github.com/yungbote/civicpulse-backend/internal/platform/logger"
	"github.com/yungbote/civicpulse-backend/internal/realtime"
)

type Bus interface {
	Publish(ctx context.Context, ev realtime.Event) error
	// StartForwarder must not block; onEvent runs on the bus goroutine.
	StartForwarder(ctx context.Context, onEvent func(ev realtime.Event)) error
	Close() error
}

// New returns a redis bus when cfg names an address and the memory bus
// otherwise.
func New(ctx context.Context, log *logger.Logger, cfg RedisConfig) (Bus, error) {
	if !cfg.Enabled() {
		log.Info("REDIS_ADDR not set; using in-process event bus")
		return NewMemoryBus(log), nil
	}
	b, err := NewRedisBus(ctx, log, cfg)
	if err != nil {
		return nil, fmt.Errorf("init redis event bus: %w", err)
	}
	return b, nil
}
