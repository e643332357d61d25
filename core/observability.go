package core

import (
	"context"
	"sort"
	"strings"
	"time"
)

const metricPrefix = "flexconnect."

// observeOperation emits the per-operation log line, counter, and latency
// histogram. Operation names are fixed snake_case identifiers chosen at the
// call site; fields pass through redaction before reaching any sink.
func (s *Service) observeOperation(
	ctx context.Context,
	startedAt time.Time,
	operation string,
	err error,
	fields map[string]any,
) {
	if s == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	elapsedMs := time.Since(startedAt).Milliseconds()

	logFields := cloneFields(fields)
	logFields["event_type"] = operation
	logFields["status"] = status
	logFields["duration_ms"] = elapsedMs
	if err != nil {
		logFields["error"] = err.Error()
	}

	if s.metricsRecorder != nil {
		tags := map[string]string{"operation": operation, "status": status}
		for _, key := range []string{"account_slug", "integration_id"} {
			if value, ok := fields[key].(string); ok {
				if value = strings.TrimSpace(value); value != "" {
					tags[key] = value
				}
			}
		}
		s.metricsRecorder.IncCounter(ctx, metricPrefix+operation+".total", 1, cloneTags(tags))
		s.metricsRecorder.ObserveHistogram(ctx, metricPrefix+operation+".duration_ms", float64(elapsedMs), cloneTags(tags))
	}

	if err != nil {
		s.logError(ctx, operation+" failed", logFields)
		return
	}
	s.logInfo(ctx, operation+" succeeded", logFields)
}

func (s *Service) logInfo(ctx context.Context, message string, fields map[string]any) {
	s.emitLog(ctx, false, message, fields)
}

func (s *Service) logError(ctx context.Context, message string, fields map[string]any) {
	s.emitLog(ctx, true, message, fields)
}

func (s *Service) emitLog(ctx context.Context, isError bool, message string, fields map[string]any) {
	if s == nil || s.logger == nil {
		return
	}
	fields = RedactFields(fields)
	logger := s.logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	if fieldsLogger, ok := logger.(FieldsLogger); ok {
		logger = fieldsLogger.WithFields(cloneFields(fields))
	}
	args := sortedKeyValues(fields)
	if isError {
		logger.Error(message, args...)
		return
	}
	logger.Info(message, args...)
}

func cloneFields(fields map[string]any) map[string]any {
	copied := make(map[string]any, len(fields))
	for key, value := range fields {
		copied[key] = value
	}
	return copied
}

// sortedKeyValues flattens fields into alternating key/value args with a
// stable key order, so repeated runs of one operation log identically.
func sortedKeyValues(fields map[string]any) []any {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	args := make([]any, 0, len(keys)*2)
	for _, key := range keys {
		args = append(args, key, fields[key])
	}
	return args
}
