package observability

import (
	"context"
	"time"

	"github.com/goliatone/go-device-cache/internal/device"
	"github.com/goliatone/go-device-cache/internal/logging"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggingConfig controls the logging decorator.
type LoggingConfig struct {
	// SlowThreshold promotes successful operations slower than this to Warn.
	// Zero disables the check.
	SlowThreshold time.Duration

	// SuccessLevel is the level for successful operations.
	SuccessLevel zapcore.Level
}

// DefaultLoggingConfig logs successes at Debug and warns above 500ms.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		SlowThreshold: 500 * time.Millisecond,
		SuccessLevel:  zapcore.DebugLevel,
	}
}

// LoggingService logs every device operation with its duration and outcome.
// Not-found and validation outcomes are expected client errors and are
// logged at Info; anything else is an Error.
type LoggingService struct {
	inner  device.Service
	logger *zap.Logger
	config LoggingConfig
}

var _ device.Service = (*LoggingService)(nil)

func NewLoggingService(inner device.Service, logger *zap.Logger, cfg LoggingConfig) *LoggingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingService{
		inner:  inner,
		logger: logger.Named("devices"),
		config: cfg,
	}
}

func (s *LoggingService) RegisterDevice(ctx context.Context, in device.RegisterInput) (device.View, error) {
	start := time.Now()
	view, err := s.inner.RegisterDevice(ctx, in)

	fields := []zap.Field{zap.String("device_type", in.Type)}
	if err == nil {
		fields = append(fields, zap.Stringer("device_id", view.ID))
	}
	s.log(ctx, OpRegisterDevice, start, err, fields...)
	return view, err
}

func (s *LoggingService) GetDeviceByID(ctx context.Context, id uuid.UUID) (device.View, error) {
	start := time.Now()
	view, err := s.inner.GetDeviceByID(ctx, id)
	s.log(ctx, OpGetDevice, start, err, zap.Stringer("device_id", id))
	return view, err
}

func (s *LoggingService) ListDevices(ctx context.Context, filter device.Filter, page device.Pagination) (device.Page[device.View], error) {
	start := time.Now()
	result, err := s.inner.ListDevices(ctx, filter, page)

	fields := []zap.Field{
		zap.Int("page", page.Page),
		zap.Int("page_size", page.Size),
		zap.String("sort_by", string(filter.SortBy)),
		zap.String("sort_order", string(filter.SortOrder)),
	}
	if err == nil {
		fields = append(fields,
			zap.Int("total_count", result.TotalCount),
			zap.Int("returned", len(result.Items)),
		)
	}
	s.log(ctx, OpListDevices, start, err, fields...)
	return result, err
}

func (s *LoggingService) UpdateDevice(ctx context.Context, id uuid.UUID, in device.UpdateInput) (device.View, error) {
	start := time.Now()
	view, err := s.inner.UpdateDevice(ctx, id, in)
	s.log(ctx, OpUpdateDevice, start, err, zap.Stringer("device_id", id))
	return view, err
}

func (s *LoggingService) DeleteDevice(ctx context.Context, id uuid.UUID) (bool, error) {
	start := time.Now()
	deleted, err := s.inner.DeleteDevice(ctx, id)
	s.log(ctx, OpDeleteDevice, start, err, zap.Stringer("device_id", id), zap.Bool("deleted", deleted))
	return deleted, err
}

func (s *LoggingService) log(ctx context.Context, operation string, start time.Time, err error, extra ...zap.Field) {
	duration := time.Since(start)
	outcome := Outcome(err)

	fields := make([]zap.Field, 0, len(extra)+4)
	fields = append(fields,
		zap.String("operation", operation),
		zap.String("outcome", outcome),
		zap.Duration("duration", duration),
	)
	fields = append(fields, extra...)

	logger := logging.FromContext(ctx, s.logger)

	switch outcome {
	case OutcomeOK:
		level := s.config.SuccessLevel
		message := "device operation completed"
		if s.config.SlowThreshold > 0 && duration > s.config.SlowThreshold {
			level = zapcore.WarnLevel
			message = "slow device operation"
		}
		if ce := logger.Check(level, message); ce != nil {
			ce.Write(fields...)
		}
	case OutcomeNotFound, OutcomeInvalid, OutcomeCanceled:
		logger.Info("device operation rejected", append(fields, zap.Error(err))...)
	default:
		logger.Error("device operation failed", append(fields, zap.Error(err))...)
	}
}
