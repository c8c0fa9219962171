package services

import (
	"context"

	types "github.com/yungbote/skillsdna-backend/internal/domain"
	"github.com/yungbote/skillsdna-backend/internal/observability"
	"github.com/yungbote/skillsdna-backend/internal/platform/logger"
)

const EventProgressUpdated = "competency_progress_updated"

// EventPublisher is satisfied by *redisbus.Bus.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, userID uint, data any) error
}

// ProgressNotifier announces committed progress changes. Delivery is best effort.
type ProgressNotifier interface {
	ProgressUpdated(ctx context.Context, userID uint, source string, saved []*types.UserCompetencyProgress)
}

type progressNotifier struct {
	pub     EventPublisher
	log     *logger.Logger
	metrics *observability.Metrics
}

// NewProgressNotifier publishes through pub; a nil pub yields a notifier that does nothing.
func NewProgressNotifier(pub EventPublisher, baseLog *logger.Logger, metrics *observability.Metrics) ProgressNotifier {
	if pub == nil {
		return noopNotifier{}
	}
	return &progressNotifier{pub: pub, log: baseLog.With("service", "ProgressNotifier"), metrics: metrics}
}

type progressChange struct {
	DNAID        uint    `json:"dnaId"`
	CurrentLevel string  `json:"currentLevel"`
	Progress     float64 `json:"progress"`
}

func (n *progressNotifier) ProgressUpdated(ctx context.Context, userID uint, source string, saved []*types.UserCompetencyProgress) {
	if len(saved) == 0 {
		return
	}
	changes := make([]progressChange, 0, len(saved))
	for _, p := range saved {
		changes = append(changes, progressChange{DNAID: p.DNAID, CurrentLevel: string(p.CurrentLevel), Progress: p.Progress})
	}
	err := n.pub.Publish(ctx, EventProgressUpdated, userID, map[string]any{
		"source":  source,
		"changes": changes,
	})
	if err != nil {
		n.metrics.IncEventPublished("error")
		n.log.Warn("publish progress event failed", "user_id", userID, "error", err)
		return
	}
	n.metrics.IncEventPublished("ok")
}

type noopNotifier struct{}

func (noopNotifier) ProgressUpdated(context.Context, uint, string, []*types.UserCompetencyProgress) {}
