package logger

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

type contextKey string

// CorrelationIDKey is the context key under which the correlation middleware
// stores the request's correlation ID.
const CorrelationIDKey contextKey = "correlation_id"

// Logger is the structured logging interface used across the service.
type Logger interface {
	Info(ctx context.Context, message string, fields map[string]interface{})
	Warn(ctx context.Context, message string, fields map[string]interface{})
	Error(ctx context.Context, message string, err error, fields map[string]interface{})
	Debug(ctx context.Context, message string, fields map[string]interface{})
	WithFields(fields map[string]interface{}) Logger
}

type structuredLogger struct {
	logger *logrus.Logger
	fields map[string]interface{}
}

type Config struct {
	Level       string
	Format      string
	ServiceName string
}

func NewStructuredLogger(config Config) Logger {
	logrusLogger := logrus.New()

	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrusLogger.SetLevel(level)

	if config.Format == "json" {
		logrusLogger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
		})
	} else {
		logrusLogger.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: time.RFC3339Nano,
			FullTimestamp:   true,
		})
	}
	logrusLogger.SetOutput(os.Stdout)

	return &structuredLogger{
		logger: logrusLogger,
		fields: map[string]interface{}{
			"service": config.ServiceName,
		},
	}
}

func (l *structuredLogger) Info(ctx context.Context, message string, fields map[string]interface{}) {
	l.entry(ctx, nil, fields).Info(message)
}

func (l *structuredLogger) Warn(ctx context.Context, message string, fields map[string]interface{}) {
	l.entry(ctx, nil, fields).Warn(message)
}

func (l *structuredLogger) Error(ctx context.Context, message string, err error, fields map[string]interface{}) {
	l.entry(ctx, err, fields).Error(message)
}

func (l *structuredLogger) Debug(ctx context.Context, message string, fields map[string]interface{}) {
	l.entry(ctx, nil, fields).Debug(message)
}

func (l *structuredLogger) WithFields(fields map[string]interface{}) Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &structuredLogger{logger: l.logger, fields: merged}
}

func (l *structuredLogger) entry(ctx context.Context, err error, fields map[string]interface{}) *logrus.Entry {
	logFields := logrus.Fields{}
	for k, v := range l.fields {
		logFields[k] = v
	}
	for k, v := range fields {
		logFields[k] = v
	}
	if cid, ok := ctx.Value(CorrelationIDKey).(string); ok && cid != "" {
		logFields["correlation_id"] = cid
	}
	if err != nil {
		logFields["error"] = err.Error()
	}
	return l.logger.WithFields(logFields)
}

// LogAuthEvent records an authentication event with a consistent shape.
func LogAuthEvent(ctx context.Context, l Logger, event, userID string, success bool, fields map[string]interface{}) {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields["event_type"] = "auth"
	fields["auth_event"] = event
	fields["user_id"] = userID
	fields["success"] = success

	message := fmt.Sprintf("Auth event: %s", event)
	if success {
		l.Info(ctx, message, fields)
	} else {
		l.Warn(ctx, fmt.Sprintf("Auth event failed: %s", event), fields)
	}
}

// NewNop returns a logger that discards everything. Used in tests.
func NewNop() Logger {
	logrusLogger := logrus.New()
	logrusLogger.SetOutput(os.Stderr)
	logrusLogger.SetLevel(logrus.PanicLevel)
	return &structuredLogger{logger: logrusLogger, fields: map[string]interface{}{}}
}
