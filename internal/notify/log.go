package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogSink пишет уведомления в журнал. Используется, когда внешний канал не настроен.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink создаёт LogSink.
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Send пишет уведомление в журнал и никогда не возвращает ошибку.
func (s *LogSink) Send(_ context.Context, text string) error {
	s.logger.Info("notification", zap.String("text", text))
	return nil
}
