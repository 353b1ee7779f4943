package notify

import (
	"context"
	"log/slog"

	"github.com/phrazzld/photogallery/internal/events"
)

// LogNotifier reports new results as an Info log record.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a notifier writing to logger.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger.With("component", "log_notifier")}
}

var _ events.EventHandler = (*LogNotifier)(nil)

// HandleEvent implements events.EventHandler.
func (n *LogNotifier) HandleEvent(ctx context.Context, event *events.NewResultsEvent) error {
	note, err := FromEvent(event)
	if err != nil {
		return err
	}

	n.logger.InfoContext(ctx, note.Title,
		"text", note.Text,
		"event_id", note.EventID,
		"query", note.Query,
		"result_id", note.ResultID,
		"item_count", note.ItemCount)
	return nil
}
