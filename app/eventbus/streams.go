package eventbus

import (
	"context"
	"fmt"
)

// StreamConfig names a JetStream stream and the subjects it captures.
type StreamConfig struct {
	Name     string
	Subjects []string
}

// DefaultStreams are the streams created at startup, one per topic prefix.
var DefaultStreams = []StreamConfig{
	{Name: "activity", Subjects: []string{"activity.>"}},
	{Name: "rank", Subjects: []string{"rank.>"}},
	{Name: "leaderboard", Subjects: []string{"leaderboard.>"}},
	{Name: "report", Subjects: []string{"report.>"}},
}

// InitializeStreams creates the given streams during application startup.
func InitializeStreams(ctx context.Context, bus EventBus, streams []StreamConfig) error {
	for _, s := range streams {
		if err := bus.CreateStream(ctx, s.Name, s.Subjects...); err != nil {
			return fmt.Errorf("failed to initialize stream %s: %w", s.Name, err)
		}
	}
	return nil
}
