// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package telemetry provides utilities for setting up and configuring
// application observability, including logging, tracing, and metrics.
// This file specifically handles the setup of structured logging that
// is compatible with Google Cloud Logging and integrates with OpenTelemetry traces.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"github.com/jaycherian/olap-dashboard/internal/config"
)

// spanContextLogHandler wraps another handler and injects the trace and span
// ids of the record's context so logs correlate with Cloud Trace.
type spanContextLogHandler struct {
	slog.Handler
}

func handlerWithSpanContext(handler slog.Handler) *spanContextLogHandler {
	return &spanContextLogHandler{Handler: handler}
}

// Handle adds the Cloud Logging trace fields when the context carries a valid span.
// See: https://cloud.google.com/logging/docs/structured-logging#special-payload-fields
func (t *spanContextLogHandler) Handle(ctx context.Context, record slog.Record) error {
	if s := trace.SpanContextFromContext(ctx); s.IsValid() {
		record.AddAttrs(
			slog.Any("logging.googleapis.com/trace", s.TraceID()),
			slog.Any("logging.googleapis.com/spanId", s.SpanID()),
			slog.Bool("logging.googleapis.com/trace_sampled", s.TraceFlags().IsSampled()),
		)
	}
	return t.Handler.Handle(ctx, record)
}

// WithAttrs and WithGroup keep the span handler in front of derived handlers,
// otherwise slog.With would drop the trace fields.
func (t *spanContextLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return handlerWithSpanContext(t.Handler.WithAttrs(attrs))
}

func (t *spanContextLogHandler) WithGroup(name string) slog.Handler {
	return handlerWithSpanContext(t.Handler.WithGroup(name))
}

// replacer renames attribute keys to match the Cloud Logging structured format.
// https://cloud.google.com/logging/docs/reference/v2/rest/v2/LogEntry#LogSeverity
func replacer(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.LevelKey:
		a.Key = "severity"
		if level, ok := a.Value.Any().(slog.Level); ok && level == slog.LevelWarn {
			a.Value = slog.StringValue("WARNING")
		}
	case slog.TimeKey:
		a.Key = "timestamp"
	case slog.MessageKey:
		a.Key = "message"
	}
	return a
}

// ParseLevel maps the configured level name onto a slog level. Unknown names
// resolve to info.
func ParseLevel(in string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(in)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogHandler builds the JSON handler used by the application, writing to w.
func NewLogHandler(w io.Writer, level slog.Level) slog.Handler {
	jsonHandler := slog.NewJSONHandler(w, &slog.HandlerOptions{ReplaceAttr: replacer, Level: level})
	return handlerWithSpanContext(jsonHandler)
}

// SetupLogging installs the structured logger as the slog and log default.
// Output goes to stdout and, when configured, to a log file that is truncated
// on startup. The returned closer releases the file.
func SetupLogging(cfg config.Telemetry) (io.Closer, error) {
	var out io.Writer = os.Stdout
	var closer io.Closer = io.NopCloser(nil)
	if cfg.LogFile != "" {
		file, err := os.Create(cfg.LogFile)
		if err != nil {
			return nil, fmt.Errorf("failed to create log file %s: %w", cfg.LogFile, err)
		}
		out = io.MultiWriter(os.Stdout, file)
		closer = file
	}

	log.SetOutput(out)
	log.SetPrefix("[INFO] ")
	log.SetFlags(log.Ldate | log.Ltime)

	slog.SetDefault(slog.New(NewLogHandler(out, ParseLevel(cfg.LogLevel))))
	return closer, nil
}
