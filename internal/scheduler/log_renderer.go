package scheduler

import (
	"context"

	"go.uber.org/zap"
)

// LogRenderer writes each snapshot to the log.
type LogRenderer struct {
	logger *zap.Logger
}

func NewLogRenderer(logger *zap.Logger) *LogRenderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogRenderer{logger: logger.Named("render")}
}

func (r *LogRenderer) Name() string { return "log" }

func (r *LogRenderer) Render(_ context.Context, snap Snapshot) error {
	r.logger.Info("period refreshed",
		zap.String("tick_id", snap.TickID),
		zap.String("period", snap.Period),
		zap.Float64("total", snap.Summary.Total),
		zap.Float64("average", snap.Summary.Average),
		zap.String("peak_label", snap.Summary.PeakLabel))
	return nil
}
