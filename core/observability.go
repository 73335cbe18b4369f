package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

type NopMetricsRecorder struct{}

func (NopMetricsRecorder) IncCounter(context.Context, string, int64, map[string]string) {}

func (NopMetricsRecorder) ObserveHistogram(context.Context, string, float64, map[string]string) {}

var _ MetricsRecorder = NopMetricsRecorder{}

// tagFields are the context fields promoted to metric tags when present.
var tagFields = []string{"transaction_id", "action", "payment_status"}

// observeOperation emits the counter, the duration histogram, and one
// structured log line for a finished operation.
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
	operation = metricName(operation)
	elapsed := time.Since(startedAt)

	outcome := "success"
	if err != nil {
		outcome = "failure"
	}

	logFields := cloneFields(fields)
	logFields["event_type"] = operation
	logFields["status"] = outcome
	logFields["duration_ms"] = elapsed.Milliseconds()
	if err != nil {
		logFields["error"] = err.Error()
	}

	tags := map[string]string{"operation": operation, "status": outcome}
	for _, key := range tagFields {
		value, ok := logFields[key]
		if !ok {
			continue
		}
		if text := strings.TrimSpace(fmt.Sprint(value)); text != "" && text != "<nil>" {
			tags[key] = text
		}
	}

	s.recordCounter(ctx, "payflow."+operation+".total", 1, tags)
	s.recordHistogram(ctx, "payflow."+operation+".duration_ms", float64(elapsed.Milliseconds()), tags)

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
	logger := s.logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	if fieldsLogger, ok := logger.(FieldsLogger); ok {
		logger = fieldsLogger.WithFields(cloneFields(fields))
	}
	args := flattenFields(fields)
	if isError {
		logger.Error(message, args...)
		return
	}
	logger.Info(message, args...)
}

func (s *Service) recordCounter(ctx context.Context, name string, value int64, tags map[string]string) {
	if s == nil || s.metricsRecorder == nil {
		return
	}
	s.metricsRecorder.IncCounter(ctx, strings.TrimSpace(name), value, cloneTags(tags))
}

func (s *Service) recordHistogram(ctx context.Context, name string, value float64, tags map[string]string) {
	if s == nil || s.metricsRecorder == nil {
		return
	}
	s.metricsRecorder.ObserveHistogram(ctx, strings.TrimSpace(name), value, cloneTags(tags))
}

func cloneFields(fields map[string]any) map[string]any {
	copied := make(map[string]any, len(fields))
	for key, value := range fields {
		copied[key] = value
	}
	return copied
}

func cloneTags(tags map[string]string) map[string]string {
	copied := make(map[string]string, len(tags))
	for key, value := range tags {
		copied[key] = value
	}
	return copied
}

// flattenFields turns a field map into key-sorted logger args.
func flattenFields(fields map[string]any) []any {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	args := make([]any, 0, 2*len(keys))
	for _, key := range keys {
		args = append(args, key, fields[key])
	}
	return args
}

// metricName lowercases an operation label and squashes separators so the
// emitted series stay stable.
func metricName(operation string) string {
	operation = strings.ToLower(strings.TrimSpace(operation))
	replacer := strings.NewReplacer(" ", "_", "-", "_")
	operation = replacer.Replace(operation)
	if operation == "" {
		return "unknown"
	}
	return operation
}
