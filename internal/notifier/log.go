package notifier

import (
	"context"
	"log/slog"

	"github.com/amishk599/postscout/internal/model"
)

var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes hiring posts to the given logger as structured messages.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs each post via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs each post. It never fails.
func (n *LogNotifier) Notify(_ context.Context, posts []model.Post) error {
	for _, p := range posts {
		args := []any{"profile", displayName(p), "url", p.URL, "excerpt", excerpt(p.Content)}
		if p.NamesClassification != nil {
			args = append(args, "names_classification", int(*p.NamesClassification))
		}
		n.logger.Info("hiring post", args...)
	}
	return nil
}
