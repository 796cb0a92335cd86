// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package logging provides structured logging for the augre CLI.
//
// Logs are diagnostic only. User-facing status lines go through package ux;
// this package records what the tool did so a failed run can be inspected
// afterwards.
//
// # Destinations
//
//   - stderr: text handler, disabled when Quiet is set (the CLI default
//     unless --verbose is given).
//   - file: JSON handler writing {service}_{date}.log under LogDir.
//
// Both destinations share one level filter.
//
// # Usage
//
//	logger := logging.New(logging.Config{
//	    Level:   logging.LevelInfo,
//	    LogDir:  ".augre/logs",
//	    Service: "augre",
//	    Quiet:   true,
//	})
//	defer logger.Close()
//	logger.Info("ensuring dependency", "dependency", "docker")
//
// # Security Considerations
//
// Nothing is redacted. Callers log the presence of secrets, never values:
//
//	logger.Info("resolved backend", "api_key_present", cfg.APIKey != "")
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// =============================================================================
// Log Levels
// =============================================================================

// Level represents log severity. Debug < Info < Warn < Error.
type Level int

const (
	// LevelDebug traces individual process invocations and probes.
	LevelDebug Level = iota

	// LevelInfo records dependency state changes and backend calls.
	LevelInfo

	// LevelWarn records best-effort steps that failed without aborting.
	LevelWarn

	// LevelError records the failure that ended the run.
	LevelError
)

// String returns "DEBUG", "INFO", "WARN", "ERROR", or "UNKNOWN".
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) toSlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLevel converts a case-insensitive level name. Unknown names map to
// LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// =============================================================================
// Configuration
// =============================================================================

// Config controls where log records go.
type Config struct {
	// Level is the minimum severity written to any destination.
	Level Level

	// LogDir enables the JSON file destination when non-empty. A leading ~
	// is expanded. The directory is created if missing.
	LogDir string

	// Service names the log file and is attached to every record.
	// Default: "augre".
	Service string

	// JSON switches the stderr handler from text to JSON.
	JSON bool

	// Quiet disables the stderr destination.
	Quiet bool

	// Output replaces os.Stderr for the console destination. Tests use it
	// to capture records.
	Output io.Writer
}

// =============================================================================
// Logger
// =============================================================================

// Logger wraps slog with a file destination that must be closed.
// Safe for concurrent use.
type Logger struct {
	slog   *slog.Logger
	config Config
	file   *os.File
	mu     sync.Mutex
}

// New creates a Logger.
//
// # Description
//
// Failing to create the log directory or file is not fatal: the logger
// silently falls back to the remaining destinations. When every destination
// is disabled the records are discarded.
//
// # Inputs
//
//   - config: Destinations and level.
//
// # Outputs
//
//   - *Logger: Ready to use. Call Close to release the file handle.
func New(config Config) *Logger {
	if config.Service == "" {
		config.Service = "augre"
	}
	opts := &slog.HandlerOptions{Level: config.Level.toSlogLevel()}

	var handlers []slog.Handler
	if !config.Quiet {
		out := config.Output
		if out == nil {
			out = os.Stderr
		}
		if config.JSON {
			handlers = append(handlers, slog.NewJSONHandler(out, opts))
		} else {
			handlers = append(handlers, slog.NewTextHandler(out, opts))
		}
	}

	logger := &Logger{config: config}

	if config.LogDir != "" {
		if file, err := openLogFile(expandPath(config.LogDir), config.Service); err == nil {
			logger.file = file
			handlers = append(handlers, slog.NewJSONHandler(file, opts))
		}
	}

	var handler slog.Handler
	switch len(handlers) {
	case 0:
		handler = slog.NewTextHandler(io.Discard, opts)
	case 1:
		handler = handlers[0]
	default:
		handler = &multiHandler{handlers: handlers}
	}
	handler = handler.WithAttrs([]slog.Attr{slog.String("service", config.Service)})

	logger.slog = slog.New(handler)
	return logger
}

func openLogFile(dir, service string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, err
	}
	name := fmt.Sprintf("%s_%s.log", service, time.Now().Format("2006-01-02"))
	return os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
}

// Default returns an Info-level logger writing text to stderr.
func Default() *Logger {
	return New(Config{Level: LevelInfo})
}

// Discard returns a logger that drops every record.
func Discard() *Logger {
	return New(Config{Quiet: true})
}

// Debug logs at Debug level.
func (l *Logger) Debug(msg string, args ...any) { l.slog.Debug(msg, args...) }

// Info logs at Info level.
func (l *Logger) Info(msg string, args ...any) { l.slog.Info(msg, args...) }

// Warn logs at Warn level.
func (l *Logger) Warn(msg string, args ...any) { l.slog.Warn(msg, args...) }

// Error logs at Error level.
func (l *Logger) Error(msg string, args ...any) { l.slog.Error(msg, args...) }

// With returns a child logger carrying extra attributes. The child shares
// the parent's file handle; only the parent should be closed.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		slog:   l.slog.With(args...),
		config: l.config,
	}
}

// Slog exposes the underlying slog.Logger for libraries that accept one.
func (l *Logger) Slog() *slog.Logger {
	return l.slog
}

// Close flushes and closes the log file. Safe to call more than once.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// =============================================================================
// Multi-Handler
// =============================================================================

// multiHandler fans a record out to several handlers.
type multiHandler struct {
	handlers []slog.Handler
}

func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, r.Level) {
			if err := handler.Handle(ctx, r.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (h *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}

// expandPath expands a leading ~ to the user's home directory.
func expandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
