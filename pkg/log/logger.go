/*
 Licensed to the Apache Software Foundation (ASF) under one
 or more contributor license agreements.  See the NOTICE file
 distributed with this work for additional information
 regarding copyright ownership.  The ASF licenses this file
 to you under the Apache License, Version 2.0 (the
 "License"); you may not use this file except in compliance
 with the License.  You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package log

import (
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerHandle identifies one named sub logger.
type LoggerHandle struct {
	id   int
	name string
}

// Logger handles, one per subsystem. The id is the index into the logger cache.
var (
	Core       = &LoggerHandle{id: 0, name: "core"}
	Test       = &LoggerHandle{id: 1, name: "test"}
	Config     = &LoggerHandle{id: 2, name: "config"}
	Catalog    = &LoggerHandle{id: 3, name: "catalog"}
	Security   = &LoggerHandle{id: 4, name: "security"}
	RMProxy    = &LoggerHandle{id: 5, name: "rmproxy"}
	Settings   = &LoggerHandle{id: 6, name: "settings"}
	Matcher    = &LoggerHandle{id: 7, name: "matcher"}
	Submit     = &LoggerHandle{id: 8, name: "submit"}
	Status     = &LoggerHandle{id: 9, name: "status"}
	Metrics    = &LoggerHandle{id: 10, name: "metrics"}
	Trace      = &LoggerHandle{id: 11, name: "trace"}
	Entrypoint = &LoggerHandle{id: 12, name: "entrypoint"}
)

var handles = []*LoggerHandle{
	Core, Test, Config, Catalog, Security, RMProxy, Settings,
	Matcher, Submit, Status, Metrics, Trace, Entrypoint,
}

const defaultLevel = zapcore.InfoLevel

var (
	once      sync.Once
	lock      sync.RWMutex
	logger    *zap.Logger
	config    *zap.Config
	loggers   = make([]*zap.Logger, len(handles))
	rootLevel = defaultLevel
	levels    = make(map[string]zapcore.Level)
)

// Log returns the logger for the given handle. The root logger is created on first use.
func Log(handle *LoggerHandle) *zap.Logger {
	once.Do(initLogger)
	if handle == nil {
		handle = Core
	}
	lock.RLock()
	l := loggers[handle.id]
	lock.RUnlock()
	if l != nil {
		return l
	}
	lock.Lock()
	defer lock.Unlock()
	if loggers[handle.id] == nil {
		loggers[handle.id] = createLogger(handle)
	}
	return loggers[handle.id]
}

func (h *LoggerHandle) String() string {
	return h.name
}

// InitializeLogger replaces the root logger with one supplied by the caller.
// Sub loggers are recreated on next use.
func InitializeLogger(log *zap.Logger, zapConfig *zap.Config) {
	once.Do(func() {})
	lock.Lock()
	defer lock.Unlock()
	logger = log
	config = zapConfig
	resetLoggers()
	logger.Info("logger initialized externally")
}

// UpdateLoggingConfig sets the default level and the per handle overrides.
// Unknown handle names and unparsable levels are rejected without changing the current setup.
func UpdateLoggingConfig(level string, handleLevels map[string]string) error {
	once.Do(initLogger)
	newRoot := defaultLevel
	if level != "" {
		parsed, err := parseLevel(level)
		if err != nil {
			return err
		}
		newRoot = parsed
	}
	newLevels := make(map[string]zapcore.Level, len(handleLevels))
	for name, lvl := range handleLevels {
		if err := CheckHandleName(name); err != nil {
			return err
		}
		parsed, err := parseLevel(lvl)
		if err != nil {
			return err
		}
		newLevels[name] = parsed
	}
	lock.Lock()
	defer lock.Unlock()
	rootLevel = newRoot
	levels = newLevels
	resetLoggers()
	return nil
}

// IsDebugEnabled returns true if the handle logs at debug level.
func IsDebugEnabled(handle *LoggerHandle) bool {
	return Log(handle).Core().Enabled(zapcore.DebugLevel)
}

// ParseLevel checks a level string the way the configuration uses it.
func ParseLevel(level string) error {
	_, err := parseLevel(level)
	return err
}

func parseLevel(level string) (zapcore.Level, error) {
	var zl zapcore.Level
	if err := zl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return defaultLevel, fmt.Errorf("invalid log level '%s': %w", level, err)
	}
	return zl, nil
}

// CheckHandleName rejects names that do not belong to a logger handle.
func CheckHandleName(name string) error {
	for _, h := range handles {
		if h.name == name {
			return nil
		}
	}
	return fmt.Errorf("unknown logger handle: %s", name)
}

// must be called with the lock held
func resetLoggers() {
	for i := range loggers {
		loggers[i] = nil
	}
}

// must be called with the lock held
func createLogger(handle *LoggerHandle) *zap.Logger {
	level, ok := levels[handle.name]
	if !ok {
		level = rootLevel
	}
	return logger.Named(handle.name).WithOptions(zap.WrapCore(func(inner zapcore.Core) zapcore.Core {
		return handleCore{Core: inner, enabler: level}
	}))
}

// handleCore applies the level of a handle on top of the shared core.
type handleCore struct {
	zapcore.Core
	enabler zapcore.LevelEnabler
}

func (h handleCore) Enabled(level zapcore.Level) bool {
	return h.enabler.Enabled(level) && h.Core.Enabled(level)
}

func (h handleCore) With(fields []zapcore.Field) zapcore.Core {
	return handleCore{Core: h.Core.With(fields), enabler: h.enabler}
}

func (h handleCore) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !h.enabler.Enabled(entry.Level) {
		return ce
	}
	return h.Core.Check(entry, ce)
}

func initLogger() {
	if logger = zap.L(); !isNopLogger(logger) {
		return
	}
	// nothing set globally: build our own, the handle cores do the level filtering
	config = createConfig()
	logger = buildLogger(config, os.Stderr)
}

// buildLogger falls back to a Nop logger if the config cannot be built.
// The failure is reported on errOut, never on stdout which carries the command result.
func buildLogger(zapConfig *zap.Config, errOut io.Writer) *zap.Logger {
	built, err := zapConfig.Build()
	if err != nil {
		_, _ = fmt.Fprintf(errOut, "Logging disabled, logger init failed with error: %v\n", err)
		return zap.NewNop()
	}
	return built
}

// Returns true if the logger is a noop.
// Logger is a noop means the logger has not been initialized yet.
func isNopLogger(logger *zap.Logger) bool {
	return reflect.DeepEqual(zap.NewNop(), logger)
}

// Create a log config that writes to stderr only: stdout carries the command output.
func createConfig() *zap.Config {
	return &zap.Config{
		Level:       zap.NewAtomicLevelAt(zap.DebugLevel),
		Development: false,
		Encoding:    "console",
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey:     "message",
			LevelKey:       "level",
			TimeKey:        "time",
			NameKey:        "name",
			CallerKey:      "caller",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
}
