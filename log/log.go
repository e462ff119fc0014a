// Copyright 2024 The the-core Authors
// This file is part of the the-core library.

// Package log is the ambient structured logger used across the core: a
// small leveled writer with colorized terminal output and optional
// rotating file output, in the style of a geth-lineage node's log package
// but scoped to this module's own needs rather than a full log15 port.
package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Level is a logging severity, ordered Debug < Info < Warn < Error.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

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

var levelColor = map[Level]*color.Color{
	LevelDebug: color.New(color.FgHiBlack),
	LevelInfo:  color.New(color.FgCyan),
	LevelWarn:  color.New(color.FgYellow),
	LevelError: color.New(color.FgRed, color.Bold),
}

// Logger writes leveled, fielded lines to an underlying writer. The zero
// value is not usable; construct one with New.
type Logger struct {
	mu       sync.Mutex
	out      io.Writer
	minLevel Level
	colorize bool
	fields   []field
}

type field struct {
	key string
	val any
}

// Config controls where and how a Logger writes.
type Config struct {
	MinLevel    Level
	FilePath    string // "" disables file output
	MaxSizeMB   int
	MaxBackups  int
	MaxAgeDays  int
	ForceColor  bool
}

// New builds a Logger per cfg. When cfg.FilePath is set, output is tee'd to
// a lumberjack-rotated file; terminal color is auto-detected via isatty
// unless cfg.ForceColor overrides it.
func New(cfg Config) *Logger {
	var out io.Writer = colorable.NewColorableStdout()
	colorize := cfg.ForceColor || isatty.IsTerminal(os.Stdout.Fd())

	if cfg.FilePath != "" {
		fileWriter := &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    orDefault(cfg.MaxSizeMB, 100),
			MaxBackups: orDefault(cfg.MaxBackups, 5),
			MaxAge:     orDefault(cfg.MaxAgeDays, 28),
		}
		out = io.MultiWriter(out, fileWriter)
	}

	return &Logger{out: out, minLevel: cfg.MinLevel, colorize: colorize}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// With returns a child Logger that always includes the given key/value in
// every subsequent line, without mutating the receiver.
func (l *Logger) With(key string, val any) *Logger {
	cp := *l
	cp.fields = append(append([]field{}, l.fields...), field{key, val})
	return &cp
}

func (l *Logger) Debug(msg string, kv ...any) { l.log(LevelDebug, msg, kv...) }
func (l *Logger) Info(msg string, kv ...any)  { l.log(LevelInfo, msg, kv...) }
func (l *Logger) Warn(msg string, kv ...any)  { l.log(LevelWarn, msg, kv...) }
func (l *Logger) Error(msg string, kv ...any) { l.log(LevelError, msg, kv...) }

func (l *Logger) log(level Level, msg string, kv ...any) {
	if level < l.minLevel {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	ts := time.Now().UTC().Format(time.RFC3339)
	tag := level.String()
	if l.colorize {
		tag = levelColor[level].Sprint(tag)
	}
	line := fmt.Sprintf("%s [%s] %s", ts, tag, msg)
	for _, f := range l.fields {
		line += fmt.Sprintf(" %s=%v", f.key, f.val)
	}
	for i := 0; i+1 < len(kv); i += 2 {
		line += fmt.Sprintf(" %v=%v", kv[i], kv[i+1])
	}
	fmt.Fprintln(l.out, line)
}
