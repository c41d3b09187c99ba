package results

import (
	"go.uber.org/zap"
)

// Log writes one debug entry per source and an info summary.
func (s *Summary) Log(logger *zap.Logger) {
	for _, source := range s.Sources {
		fields := append(countFields(source.Counts), zap.Duration("duration", source.Duration))
		if source.Error != nil {
			logger.Error("source failed", append(fields, zap.String("source", source.Source), zap.Error(source.Error))...)
			continue
		}
		logger.Debug("source done", append(fields, zap.String("source", source.Source))...)
	}

	logger.Info("summary", append(countFields(s.Totals),
		zap.Int("sources", len(s.Sources)),
		zap.Int("failed_sources", s.FailedSources),
		zap.Float64("match_percent", s.MatchPercentage()),
		zap.Float64("documents_per_second", s.DocumentsPerSecond()),
		zap.Duration("duration", s.TotalDuration),
	)...)
}

func countFields(c Counts) []zap.Field {
	return []zap.Field{
		zap.Int("read", c.Read),
		zap.Int("matched", c.Matched),
		zap.Int("written", c.Written),
		zap.Int("failed", c.Failed),
	}
}
