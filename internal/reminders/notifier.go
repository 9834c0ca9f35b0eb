package reminders

import (
	"context"

	"github.com/rosterhq/crm-calendar-backend/internal/model"
	"go.uber.org/zap"
)

// LogNotifier is the simulated delivery transport: it records the firing
// instead of sending anything.
type LogNotifier struct {
	logger *zap.SugaredLogger
}

func NewLogNotifier(logger *zap.SugaredLogger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, event *model.Event, reminder *model.Reminder) {
	n.logger.Infow("reminder fired",
		"event_id", event.ID,
		"title", event.Title,
		"start", event.StartTime,
		"channel", reminder.Channel,
		"minutes_before", reminder.MinutesBefore,
	)
}
