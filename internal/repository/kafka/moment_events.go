package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/crewnow/crewnow/internal/domain/notify"
	"github.com/crewnow/crewnow/internal/obs/retry"
)

// MomentStartedEvent is the wire shape published when a window opens.
type MomentStartedEvent struct {
	MomentID int64     `json:"moment_id"`
	StartAt  time.Time `json:"start_at"`
}

var _ notify.Broadcast = (*MomentEvents)(nil)

// MomentEvents publishes window-open events to the broadcast topic with
// a bounded retry. It is a best-effort side channel: callers log failures
// and move on.
type MomentEvents struct {
	p   *Producer
	log *zap.Logger
}

func NewMomentEvents(p *Producer, log *zap.Logger) *MomentEvents {
	return &MomentEvents{p: p, log: log}
}

func (e *MomentEvents) MomentStarted(ctx context.Context, momentID int64, startAt time.Time) error {
	ev := MomentStartedEvent{MomentID: momentID, StartAt: startAt.UTC()}
	return retry.Do(ctx, func() error {
		return e.p.PublishJSON(ctx, KeyFromInt64(momentID), ev)
	}, retry.BroadcastPolicy(e.log))
}
