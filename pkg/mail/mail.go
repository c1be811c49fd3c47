package mail

import (
	"context"

	"go.uber.org/zap"
)

// Message is a fully rendered outbound email.
type Message struct {
	Recipients []string `json:"recipients"`
	Subject    string   `json:"subject"`
	Body       string   `json:"body"`
}

// Sink delivers rendered messages. Delivery transport lives outside this
// service; implementations only need to accept (recipients, subject, body).
type Sink interface {
	Send(ctx context.Context, msg Message) error
}

// LogSink writes messages to the log instead of delivering them. It is the
// default sink for development and tests.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink constructs a log-backed sink.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Send logs the message.
func (s *LogSink) Send(_ context.Context, msg Message) error {
	s.logger.Info("mail dispatched",
		zap.Strings("recipients", msg.Recipients),
		zap.String("subject", msg.Subject),
		zap.Int("body_bytes", len(msg.Body)),
	)
	return nil
}
